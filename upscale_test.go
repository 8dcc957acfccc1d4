package upscale

import (
	"bytes"
	"context"
	"testing"

	"github.com/mranderson01901234/upscaler10x-sub004/internal/codec"
)

func solidPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img, err := codec.NewImage(w, h, codec.FormatRGB8)
	if err != nil {
		t.Fatalf("NewImage: %v", err)
	}
	for i := range img.Bytes() {
		img.Bytes()[i] = 128
	}
	out, err := codec.EncodeToBytes(img, codec.ContainerPNG, codec.EncodeOptions{})
	if err != nil {
		t.Fatalf("EncodeToBytes: %v", err)
	}
	return out
}

func TestNew_RejectsEmptyInput(t *testing.T) {
	_, err := New(nil, 2.0)
	if !IsKind(err, InvalidInput) {
		t.Errorf("err = %v, want InvalidInput", err)
	}
}

func TestNew_RejectsSubOneScale(t *testing.T) {
	_, err := New(solidPNG(t, 4, 4), 0.5)
	if !IsKind(err, InvalidInput) {
		t.Errorf("err = %v, want InvalidInput", err)
	}
}

func TestNew_RejectsInvalidOptions(t *testing.T) {
	_, err := New(solidPNG(t, 4, 4), 2.0, WithForceCPU(), WithForceGPU())
	if !IsKind(err, InvalidInput) {
		t.Errorf("err = %v, want InvalidInput", err)
	}
}

func TestNew_DefaultsToQueued(t *testing.T) {
	s, err := New(solidPNG(t, 4, 4), 2.0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()
	if s.State() != StateQueued {
		t.Errorf("State() = %v, want StateQueued", s.State())
	}
}

func TestNew_MemoryBudgetOverrides(t *testing.T) {
	s, err := New(solidPNG(t, 4, 4), 2.0, WithForceCPU(), WithMemoryBudgetCPU(1<<20))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()
	if s.hw.EstimatedTotalMemory != 1<<20 {
		t.Errorf("EstimatedTotalMemory = %d, want %d", s.hw.EstimatedTotalMemory, 1<<20)
	}
}

func TestSession_Run_DirectCPUProducesScaledOutput(t *testing.T) {
	input := solidPNG(t, 8, 8)
	s, err := New(input, 1.5, WithForceCPU(), WithFaceEnhance(false))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	out, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	w, h, _, err := codec.DecodeMetadata(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("DecodeMetadata: %v", err)
	}
	if w != 12 || h != 12 {
		t.Errorf("output dims = %dx%d, want 12x12", w, h)
	}
	if s.State() != StateComplete {
		t.Errorf("State() = %v, want StateComplete", s.State())
	}
}

func TestSession_Run_TiledProducesScaledOutput(t *testing.T) {
	// Scale > 4.1 trips the Policy Engine's tiling rule (spec.md §4.1 rule
	// 3) regardless of GPU availability, so this drives the full
	// decode -> tile -> resample -> stitch -> encode path on a real PNG
	// without needing a forced backend.
	input := solidPNG(t, 8, 8)
	s, err := New(input, 4.2, WithFaceEnhance(false))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	out, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	w, h, _, err := codec.DecodeMetadata(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("DecodeMetadata: %v", err)
	}
	wantW, wantH := roundScale(8, 4.2), roundScale(8, 4.2)
	if w != wantW || h != wantH {
		t.Errorf("output dims = %dx%d, want %dx%d", w, h, wantW, wantH)
	}
	if s.State() != StateComplete {
		t.Errorf("State() = %v, want StateComplete", s.State())
	}
}

func TestSession_Run_EmitsMonotonicProgressEndingComplete(t *testing.T) {
	input := solidPNG(t, 4, 4)
	s, err := New(input, 1.5, WithForceCPU(), WithFaceEnhance(false))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	events := s.Progress()
	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	lastPct := -1
	sawComplete := false
	for ev := range events {
		if ev.Percent < lastPct {
			t.Errorf("percent decreased: %d after %d", ev.Percent, lastPct)
		}
		lastPct = ev.Percent
		if ev.Stage.String() == "complete" {
			sawComplete = true
		}
	}
	if !sawComplete {
		t.Error("expected a terminal complete stage event")
	}
	if lastPct != 100 {
		t.Errorf("final percent = %d, want 100", lastPct)
	}
}

func TestSession_Run_RejectsForceGPUWithoutDevice(t *testing.T) {
	input := solidPNG(t, 4, 4)
	s, err := New(input, 2.0, WithForceGPU())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if s.hw.GPUAvailable {
		t.Skip("test sandbox unexpectedly reports a GPU adapter")
	}

	_, err = s.Run(context.Background())
	if !IsKind(err, BackendUnavailable) {
		t.Errorf("err = %v, want BackendUnavailable", err)
	}
	if s.State() != StateError {
		t.Errorf("State() = %v, want StateError", s.State())
	}
}

func TestSession_Run_RejectsUndecodableInput(t *testing.T) {
	s, err := New([]byte("not an image"), 2.0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	_, err = s.Run(context.Background())
	if !IsKind(err, InvalidInput) {
		t.Errorf("err = %v, want InvalidInput", err)
	}
}

func TestRoundScale(t *testing.T) {
	tests := []struct {
		dim   int
		scale float64
		want  int
	}{
		{10, 1.5, 15},
		{10, 4.1, 41},
		{1, 0.0, 1},
	}
	for _, tt := range tests {
		if got := roundScale(tt.dim, tt.scale); got != tt.want {
			t.Errorf("roundScale(%d, %v) = %d, want %d", tt.dim, tt.scale, got, tt.want)
		}
	}
}

func TestAspectOf_AlwaysGreaterThanOrEqualToOne(t *testing.T) {
	tests := []struct{ w, h int }{
		{16, 9}, {9, 16}, {1, 1},
	}
	for _, tt := range tests {
		a := aspectOf(tt.w, tt.h)
		if a < 1.0 {
			t.Errorf("aspectOf(%d, %d) = %v, want >= 1.0", tt.w, tt.h, a)
		}
	}
}

func TestToKernelAlgorithm_CoversEveryOverride(t *testing.T) {
	overrides := []AlgorithmOverride{
		AlgorithmBilinear, AlgorithmBicubic, AlgorithmLanczos2,
		AlgorithmLanczos3, AlgorithmFractional11x, AlgorithmFractional15x,
	}
	seen := map[string]bool{}
	for _, a := range overrides {
		k := toKernelAlgorithm(a)
		seen[k.String()] = true
	}
	if len(seen) != len(overrides) {
		t.Errorf("expected %d distinct kernel algorithms, got %d (%v)", len(overrides), len(seen), seen)
	}
}

func TestFileExists(t *testing.T) {
	if fileExists("/this/path/almost-certainly/does/not/exist") {
		t.Error("fileExists on a nonexistent path returned true")
	}
}
