package kernel

import (
	"math"
	"testing"

	"github.com/mranderson01901234/upscaler10x-sub004/internal/codec"
)

func TestSelect(t *testing.T) {
	tests := []struct {
		scale float64
		want  Algorithm
	}{
		{1.0, AlgorithmFractional11x},
		{1.2, AlgorithmFractional11x},
		{1.5, AlgorithmFractional15x},
		{1.8, AlgorithmFractional15x},
		{2.0, AlgorithmBilinear},
		{3.5, AlgorithmBicubic},
		{4.0, AlgorithmBicubic},
		{6.0, AlgorithmLanczos3},
		{8.0, AlgorithmLanczos3},
		{9.0, AlgorithmLanczos3},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			t.Parallel()
			if got := Select(tt.scale); got != tt.want {
				t.Errorf("Select(%v) = %v, want %v", tt.scale, got, tt.want)
			}
		})
	}
}

func TestParseAlgorithm_RoundTrip(t *testing.T) {
	algos := []Algorithm{
		AlgorithmBilinear, AlgorithmBicubic, AlgorithmLanczos2,
		AlgorithmLanczos3, AlgorithmFractional11x, AlgorithmFractional15x,
	}
	for _, a := range algos {
		got, err := ParseAlgorithm(a.String())
		if err != nil {
			t.Fatalf("ParseAlgorithm(%q): %v", a.String(), err)
		}
		if got != a {
			t.Errorf("ParseAlgorithm(%q) = %v, want %v", a.String(), got, a)
		}
	}
}

func TestParseAlgorithm_Unknown(t *testing.T) {
	if _, err := ParseAlgorithm("nearest"); err == nil {
		t.Error("expected error for unknown algorithm")
	}
}

func solidImage(t *testing.T, w, h int, r, g, b, a float32) *codec.Image {
	t.Helper()
	samples := make([]float32, w*h*4)
	for i := 0; i < w*h; i++ {
		samples[i*4], samples[i*4+1], samples[i*4+2], samples[i*4+3] = r, g, b, a
	}
	img, err := codec.NewImageFromFloat32(w, h, codec.FormatRGBA32F, samples)
	if err != nil {
		t.Fatalf("NewImageFromFloat32: %v", err)
	}
	return img
}

func TestResample_SolidColorPreserved(t *testing.T) {
	algos := []Algorithm{
		AlgorithmBilinear, AlgorithmBicubic, AlgorithmLanczos2,
		AlgorithmLanczos3, AlgorithmFractional15x,
	}
	for _, algo := range algos {
		t.Run(algo.String(), func(t *testing.T) {
			src := solidImage(t, 8, 8, 0.4, 0.5, 0.6, 1.0)
			out, err := Resample(src, 16, 16, algo)
			if err != nil {
				t.Fatalf("Resample: %v", err)
			}
			if out.Width() != 16 || out.Height() != 16 {
				t.Fatalf("dims = %dx%d, want 16x16", out.Width(), out.Height())
			}
			samples := out.Float32()
			for i := 0; i < len(samples); i += 4 {
				if math.Abs(float64(samples[i]-0.4)) > 0.02 ||
					math.Abs(float64(samples[i+1]-0.5)) > 0.02 ||
					math.Abs(float64(samples[i+2]-0.6)) > 0.02 {
					t.Fatalf("pixel %d = %v, want ~[0.4 0.5 0.6 1.0]", i/4, samples[i:i+4])
				}
			}
		})
	}
}

func TestResample_Fractional11x_SolidColorPreserved(t *testing.T) {
	src := solidImage(t, 8, 8, 0.2, 0.3, 0.9, 1.0)
	out, err := Resample(src, 9, 9, AlgorithmFractional11x)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}
	samples := out.Float32()
	for i := 0; i < len(samples); i += 4 {
		if math.Abs(float64(samples[i]-0.2)) > 0.02 {
			t.Fatalf("pixel %d red = %v, want ~0.2", i/4, samples[i])
		}
	}
}

func TestResample_OutputInBounds(t *testing.T) {
	src := solidImage(t, 4, 4, 2.0, -1.0, 0.5, 1.0) // out-of-range inputs
	for _, algo := range []Algorithm{AlgorithmBicubic, AlgorithmLanczos3} {
		out, err := Resample(src, 10, 10, algo)
		if err != nil {
			t.Fatalf("Resample: %v", err)
		}
		for _, v := range out.Float32() {
			if v < 0 || v > 1 {
				t.Fatalf("%v: sample %v out of [0,1]", algo, v)
			}
		}
	}
}

func TestCubicAndQuinticSmoothstep_Endpoints(t *testing.T) {
	if cubicSmoothstep(0) != 0 || cubicSmoothstep(1) != 1 {
		t.Error("cubicSmoothstep endpoints should be 0 and 1")
	}
	if quinticSmoothstep(0) != 0 || quinticSmoothstep(1) != 1 {
		t.Error("quinticSmoothstep endpoints should be 0 and 1")
	}
}

func BenchmarkResample_Bicubic(b *testing.B) {
	samples := make([]float32, 256*256*4)
	src, _ := codec.NewImageFromFloat32(256, 256, codec.FormatRGBA32F, samples)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Resample(src, 512, 512, AlgorithmBicubic)
	}
}

func BenchmarkResample_Lanczos3(b *testing.B) {
	samples := make([]float32, 256*256*4)
	src, _ := codec.NewImageFromFloat32(256, 256, codec.FormatRGBA32F, samples)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Resample(src, 512, 512, AlgorithmLanczos3)
	}
}
