package kernel

import (
	"golang.org/x/image/draw"

	"github.com/mranderson01901234/upscaler10x-sub004/internal/codec"
)

// tap is one weighted source sample contributing to an output sample along
// one axis.
type tap struct {
	index  int
	weight float32
}

// buildTaps precomputes, for every output coordinate along an axis of
// length srcN -> dstN, the clamped source indices and normalized weights
// the kernel contributes. Clamp-to-edge addressing (spec.md §4.4) happens
// here, before normalization, so edge taps get correspondingly larger
// weight rather than being dropped.
func buildTaps(srcN, dstN int, k draw.Kernel) [][]tap {
	taps := make([][]tap, dstN)
	scale := float64(srcN) / float64(dstN)
	filterScale := scale
	if filterScale < 1 {
		filterScale = 1 // upsampling: never widen the kernel support below 1
	}
	support := k.Support * filterScale

	for i := 0; i < dstN; i++ {
		center := (float64(i)+0.5)*scale - 0.5
		lo := int(center - support)
		hi := int(center + support)
		row := make([]tap, 0, hi-lo+2)
		var sum float32
		for j := lo; j <= hi+1; j++ {
			w := k.At((float64(j) - center) / filterScale)
			if w == 0 {
				continue
			}
			idx := j
			if idx < 0 {
				idx = 0
			}
			if idx >= srcN {
				idx = srcN - 1
			}
			row = append(row, tap{index: idx, weight: float32(w)})
			sum += float32(w)
		}
		if sum != 0 {
			for t := range row {
				row[t].weight /= sum
			}
		}
		taps[i] = row
	}
	return taps
}

// resampleSeparable performs a two-pass (horizontal then vertical)
// separable convolution with the given kernel, operating channel-wise on
// 32-bit float working storage (spec.md §4.4). It is the shared execution
// path for bilinear, bicubic, and Lanczos-2/3.
func resampleSeparable(src *codec.Image, outWidth, outHeight int, k draw.Kernel) (*codec.Image, error) {
	srcW, srcH := src.Width(), src.Height()
	ch := src.Channels()
	samples := src.Float32()

	colTaps := buildTaps(srcW, outWidth, k)
	rowTaps := buildTaps(srcH, outHeight, k)

	// Horizontal pass: srcH rows at outWidth columns.
	mid := make([]float32, srcH*outWidth*ch)
	for y := 0; y < srcH; y++ {
		srcRow := y * srcW * ch
		dstRow := y * outWidth * ch
		for x := 0; x < outWidth; x++ {
			do := dstRow + x*ch
			taps := colTaps[x]
			for c := 0; c < ch; c++ {
				var acc float32
				for _, t := range taps {
					acc += samples[srcRow+t.index*ch+c] * t.weight
				}
				mid[do+c] = acc
			}
		}
	}

	// Vertical pass: outHeight rows at outWidth columns.
	out := make([]float32, outHeight*outWidth*ch)
	for y := 0; y < outHeight; y++ {
		taps := rowTaps[y]
		dstRow := y * outWidth * ch
		for x := 0; x < outWidth; x++ {
			do := dstRow + x*ch
			for c := 0; c < ch; c++ {
				var acc float32
				for _, t := range taps {
					acc += mid[t.index*outWidth*ch+x*ch+c] * t.weight
				}
				out[do+c] = clamp01(acc)
			}
		}
	}

	return codec.NewImageFromFloat32(outWidth, outHeight, src.Format(), out)
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
