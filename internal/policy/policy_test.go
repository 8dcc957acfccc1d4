package policy

import "testing"

func TestDecide_ForceCPUWinsOutright(t *testing.T) {
	d := Decide(Inputs{Width: 1000, Height: 1000, Scale: 8.0, ForceCPU: true, GPUAvailable: true, Channels: 4})
	if d.Mode != ModeDirect || d.Backend != BackendCPU {
		t.Errorf("Decide() = %v/%v, want Direct/CPU", d.Mode, d.Backend)
	}
	if d.Justification.RuleMatched != 1 {
		t.Errorf("RuleMatched = %d, want 1", d.Justification.RuleMatched)
	}
}

func TestDecide_FaceEnhanceEligibility(t *testing.T) {
	d := Decide(Inputs{
		Width: 800, Height: 1200, Scale: 2.0, Channels: 3,
		FaceEnhanceRequested: true, FaceEnhanceBinaryAvailable: true,
	})
	if d.Mode != ModeFaceEnhanceThenScale {
		t.Errorf("Mode = %v, want FaceEnhanceThenScale", d.Mode)
	}
}

func TestDecide_FaceEnhanceRejectedOverMegapixels(t *testing.T) {
	d := Decide(Inputs{
		Width: 10000, Height: 10000, Scale: 2.0, Channels: 3, // 100 MP > 50 MP
		FaceEnhanceRequested: true, FaceEnhanceBinaryAvailable: true,
	})
	if d.Mode == ModeFaceEnhanceThenScale {
		t.Error("face-enhance should not be eligible above 50 MP")
	}
}

func TestDecide_FaceEnhanceRejectedAtAspectExactlyFour(t *testing.T) {
	// spec.md §8: aspect ratio exactly 4.0 MUST NOT auto-enable face-enhance.
	d := Decide(Inputs{
		Width: 400, Height: 100, Scale: 2.0, Channels: 3,
		FaceEnhanceRequested: true, FaceEnhanceBinaryAvailable: true,
	})
	if d.Mode == ModeFaceEnhanceThenScale {
		t.Error("aspect ratio exactly 4.0 must not enable face-enhance (strict inequality)")
	}
}

func TestDecide_TiledBoundary(t *testing.T) {
	tests := []struct {
		name  string
		scale float64
		want  Mode
	}{
		{"just below threshold", 4.0999, ModeProgressive}, // GPUAvailable below, falls to progressive rule
		{"just above threshold", 4.1001, ModeTiled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(Inputs{Width: 1000, Height: 1000, Scale: tt.scale, Channels: 3, GPUAvailable: true})
			if d.Mode != tt.want {
				t.Errorf("scale=%v: Mode = %v, want %v", tt.scale, d.Mode, tt.want)
			}
		})
	}
}

func TestDecide_TiledByOutputPixelCount(t *testing.T) {
	// 3000x3000 at 3.0x = 81 MP output, over the 50 MP threshold, even
	// though scale itself is under 4.1.
	d := Decide(Inputs{Width: 3000, Height: 3000, Scale: 3.0, Channels: 3, GPUAvailable: true})
	if d.Mode != ModeTiled {
		t.Errorf("Mode = %v, want Tiled (output pixel count over threshold)", d.Mode)
	}
}

func TestDecide_TiledByMemoryBudget(t *testing.T) {
	d := Decide(Inputs{
		Width: 1000, Height: 1000, Scale: 2.0, Channels: 4,
		MemoryBudgetGPUBytes: 1024, // far below estimated_output_bytes
		GPUAvailable:         true,
	})
	if d.Mode != ModeTiled {
		t.Errorf("Mode = %v, want Tiled (budget exceeded)", d.Mode)
	}
}

func TestDecide_ProgressiveAboveFourOnGPU(t *testing.T) {
	d := Decide(Inputs{Width: 500, Height: 500, Scale: 4.05, Channels: 3, GPUAvailable: true})
	if d.Mode != ModeProgressive {
		t.Errorf("Mode = %v, want Progressive", d.Mode)
	}
}

func TestDecide_DirectGPUAtOrAboveTwo(t *testing.T) {
	d := Decide(Inputs{Width: 500, Height: 500, Scale: 2.0, Channels: 3, GPUAvailable: true})
	if d.Mode != ModeDirect || d.Backend != BackendGPU {
		t.Errorf("Decide() = %v/%v, want Direct/GPU", d.Mode, d.Backend)
	}
}

func TestDecide_DefaultDirectCPU(t *testing.T) {
	d := Decide(Inputs{Width: 500, Height: 500, Scale: 1.5, Channels: 3, GPUAvailable: false})
	if d.Mode != ModeDirect || d.Backend != BackendCPU {
		t.Errorf("Decide() = %v/%v, want Direct/CPU", d.Mode, d.Backend)
	}
	if d.Justification.RuleMatched != 6 {
		t.Errorf("RuleMatched = %d, want 6", d.Justification.RuleMatched)
	}
}

func TestMode_String_AllDistinct(t *testing.T) {
	modes := []Mode{ModeDirect, ModeProgressive, ModeTiled, ModeHybridGpuThenCpu, ModeFaceEnhanceThenScale, ModeCPUFallback}
	seen := map[string]bool{}
	for _, m := range modes {
		s := m.String()
		if s == "" || s == "unknown" || seen[s] {
			t.Errorf("Mode(%d).String() = %q, want a distinct non-empty name", m, s)
		}
		seen[s] = true
	}
}
