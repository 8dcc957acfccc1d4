package gpukernel

import (
	"testing"

	"github.com/mranderson01901234/upscaler10x-sub004/internal/codec"
	"github.com/mranderson01901234/upscaler10x-sub004/internal/kernel"
)

func solidImage(t *testing.T, w, h int) *codec.Image {
	t.Helper()
	img, err := codec.NewImage(w, h, codec.FormatRGB8)
	if err != nil {
		t.Fatalf("NewImage: %v", err)
	}
	for i := range img.Bytes() {
		img.Bytes()[i] = 200
	}
	return img
}

func TestResample_NilDeviceFallsBackToCPU(t *testing.T) {
	src := solidImage(t, 16, 16)
	out, err := Resample(nil, nil, src, 32, 32, kernel.AlgorithmBilinear)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}
	if out.Width() != 32 || out.Height() != 32 {
		t.Errorf("dims = %dx%d, want 32x32", out.Width(), out.Height())
	}
}

func TestResample_UnsupportedAlgorithmFallsBackToCPU(t *testing.T) {
	src := solidImage(t, 16, 16)
	dev := &Device{name: "fake"}
	pl := &Pipeline{built: true}
	out, err := Resample(dev, pl, src, 20, 20, kernel.AlgorithmLanczos3)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}
	if out.Width() != 20 || out.Height() != 20 {
		t.Errorf("dims = %dx%d, want 20x20", out.Width(), out.Height())
	}
	if pl.DispatchCount() != 0 {
		t.Errorf("DispatchCount() = %d, want 0 for an algorithm the shader doesn't cover", pl.DispatchCount())
	}
}

func TestResample_SupportedAlgorithmRecordsDispatch(t *testing.T) {
	src := solidImage(t, 16, 16)
	dev := &Device{name: "fake"}
	pl := &Pipeline{built: true}
	_, err := Resample(dev, pl, src, 32, 32, kernel.AlgorithmBicubic)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}
	if pl.DispatchCount() != 1 {
		t.Errorf("DispatchCount() = %d, want 1", pl.DispatchCount())
	}
}
