package kernel

import (
	"github.com/mranderson01901234/upscaler10x-sub004/internal/codec"
)

// resampleFractional11x is bilinear resampling followed by a light
// perceptual smoothing pass: a 3x3 box blur blended in at a low weight to
// soften the aliasing a plain bilinear kernel leaves at sub-1.2x scales
// (spec.md §4.4: "fractional 1.1x (bilinear with perceptual smoothing)").
func resampleFractional11x(src *codec.Image, outWidth, outHeight int) (*codec.Image, error) {
	bilinear, err := resampleSeparable(src, outWidth, outHeight, bilinearKernel)
	if err != nil {
		return nil, err
	}

	ch := bilinear.Channels()
	samples := bilinear.Float32()
	out := make([]float32, len(samples))

	const smoothWeight = 0.12
	for y := 0; y < outHeight; y++ {
		for x := 0; x < outWidth; x++ {
			for c := 0; c < ch; c++ {
				center := samples[(y*outWidth+x)*ch+c]
				var sum float32
				var n float32
				for dy := -1; dy <= 1; dy++ {
					py := clampInt(y+dy, 0, outHeight-1)
					for dx := -1; dx <= 1; dx++ {
						px := clampInt(x+dx, 0, outWidth-1)
						sum += samples[(py*outWidth+px)*ch+c]
						n++
					}
				}
				box := sum / n
				out[(y*outWidth+x)*ch+c] = clamp01(center*(1-smoothWeight) + box*smoothWeight)
			}
		}
	}

	return codec.NewImageFromFloat32(outWidth, outHeight, src.Format(), out)
}

// resampleFractional15x implements the edge-aware fractional kernel
// (spec.md §4.4): sample the 2x2 neighborhood plus one extra right and one
// extra down neighbor, estimate the local gradient magnitude from those
// extra samples, and pick a quintic smoothstep for the fractional weight
// when the gradient is steep (>0.15) or a cubic smoothstep otherwise,
// before bilinear-blending the 2x2 corners with the smoothed weights.
func resampleFractional15x(src *codec.Image, outWidth, outHeight int) (*codec.Image, error) {
	srcW, srcH := src.Width(), src.Height()
	ch := src.Channels()
	samples := src.Float32()
	out := make([]float32, outHeight*outWidth*ch)

	scaleX := float64(srcW) / float64(outWidth)
	scaleY := float64(srcH) / float64(outHeight)

	at := func(x, y, c int) float32 {
		x = clampInt(x, 0, srcW-1)
		y = clampInt(y, 0, srcH-1)
		return samples[(y*srcW+x)*ch+c]
	}

	for oy := 0; oy < outHeight; oy++ {
		fy := (float64(oy)+0.5)*scaleY - 0.5
		y0 := floorInt(fy)
		ty := float32(fy - float64(y0))
		y1 := y0 + 1

		for ox := 0; ox < outWidth; ox++ {
			fx := (float64(ox)+0.5)*scaleX - 0.5
			x0 := floorInt(fx)
			tx := float32(fx - float64(x0))
			x1 := x0 + 1

			do := (oy*outWidth + ox) * ch
			for c := 0; c < ch; c++ {
				v00 := at(x0, y0, c)
				v10 := at(x1, y0, c)
				v01 := at(x0, y1, c)
				v11 := at(x1, y1, c)
				right := at(x1+1, y0, c)
				down := at(x0, y1+1, c)

				gradX := absF32(right - v10)
				gradY := absF32(down - v01)
				gradMag := gradX
				if gradY > gradMag {
					gradMag = gradY
				}

				wtx, wty := tx, ty
				if gradMag > 0.15 {
					wtx = quinticSmoothstep(tx)
					wty = quinticSmoothstep(ty)
				} else {
					wtx = cubicSmoothstep(tx)
					wty = cubicSmoothstep(ty)
				}

				top := v00 + (v10-v00)*wtx
				bottom := v01 + (v11-v01)*wtx
				out[do+c] = clamp01(top + (bottom-top)*wty)
			}
		}
	}

	return codec.NewImageFromFloat32(outWidth, outHeight, src.Format(), out)
}

// cubicSmoothstep is the classic Hermite smoothstep: 3t^2 - 2t^3.
func cubicSmoothstep(t float32) float32 {
	return t * t * (3 - 2*t)
}

// quinticSmoothstep is Perlin's fifth-degree smoothstep: 6t^5-15t^4+10t^3,
// used for the fractional weight when the local gradient is steep.
func quinticSmoothstep(t float32) float32 {
	return t * t * t * (t*(t*6-15) + 10)
}

func absF32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func floorInt(v float64) int {
	i := int(v)
	if v < 0 && float64(i) != v {
		return i - 1
	}
	return i
}
