// Package policy implements the Policy Engine (spec.md §4.1): a small
// ordered set of threshold checks that picks an execution Mode from an
// image's size, the requested scale, and the caller's memory/backend
// constraints. No component downgrades backends on its own; every
// fallback is a Mode this package returns explicitly.
package policy

import "math"

// Backend is the execution backend a Direct-mode decision runs on.
type Backend uint8

const (
	BackendCPU Backend = iota
	BackendGPU
)

func (b Backend) String() string {
	if b == BackendGPU {
		return "gpu"
	}
	return "cpu"
}

// Mode is the chosen execution strategy (spec.md §4.1).
type Mode uint8

const (
	ModeDirect Mode = iota
	ModeProgressive
	ModeTiled
	ModeHybridGpuThenCpu
	ModeFaceEnhanceThenScale
	ModeCPUFallback
)

func (m Mode) String() string {
	switch m {
	case ModeDirect:
		return "direct"
	case ModeProgressive:
		return "progressive"
	case ModeTiled:
		return "tiled"
	case ModeHybridGpuThenCpu:
		return "hybrid_gpu_then_cpu"
	case ModeFaceEnhanceThenScale:
		return "face_enhance_then_scale"
	case ModeCPUFallback:
		return "cpu_fallback"
	default:
		return "unknown"
	}
}

// tiledOutputPixelThreshold and tiledScaleThreshold are the rule-3
// thresholds from spec.md §4.1 and §8's boundary behaviors ("scale
// slightly above 4.1 MUST trigger tiled mode; at 4.0999 MUST NOT").
const (
	tiledScaleThreshold       = 4.1
	tiledOutputPixelThreshold = 50_000_000
	progressiveScaleThreshold = 4.0
	directGPUScaleThreshold   = 2.0
	faceEnhanceMaxMegapixels  = 50_000_000
	faceEnhanceMaxAspect      = 4.0
)

// Inputs are the measured quantities and user options the Policy Engine
// decides from (spec.md §4.1 "Inputs").
type Inputs struct {
	Width, Height int
	Scale         float64
	Channels      int // 3 or 4

	MemoryBudgetGPUBytes int64

	ForceCPU bool
	ForceGPU bool

	FaceEnhanceRequested       bool
	FaceEnhanceBinaryAvailable bool

	GPUAvailable bool
}

// Justification carries the numeric inputs and thresholds that produced a
// Decision, for session telemetry (spec.md §4.1 "records ... numeric
// justifications").
type Justification struct {
	EstimatedOutputBytes float64
	AspectRatio          float64
	MegapixelsInput       float64
	RuleMatched           int // 1-6, per spec.md §4.1's ordered rule list
}

// Decision is the Policy Engine's output.
type Decision struct {
	Mode          Mode
	Backend       Backend
	Justification Justification
}

// Decide evaluates the six ordered rules of spec.md §4.1, first match
// wins.
func Decide(in Inputs) Decision {
	aspect := aspectRatio(in.Width, in.Height)
	megapixels := float64(in.Width) * float64(in.Height)
	estimatedOutputBytes := megapixels * in.Scale * in.Scale * float64(in.Channels) * 4

	j := Justification{
		EstimatedOutputBytes: estimatedOutputBytes,
		AspectRatio:           aspect,
		MegapixelsInput:       megapixels,
	}

	// Rule 1: forced CPU wins outright.
	if in.ForceCPU {
		j.RuleMatched = 1
		return Decision{Mode: ModeDirect, Backend: BackendCPU, Justification: j}
	}

	// Rule 2: face-enhance eligibility.
	if in.FaceEnhanceRequested &&
		megapixels < faceEnhanceMaxMegapixels &&
		aspect < faceEnhanceMaxAspect &&
		in.FaceEnhanceBinaryAvailable {
		j.RuleMatched = 2
		return Decision{Mode: ModeFaceEnhanceThenScale, Backend: BackendCPU, Justification: j}
	}

	// Rule 3: tiling trigger.
	if in.Scale > tiledScaleThreshold ||
		megapixels*in.Scale*in.Scale > tiledOutputPixelThreshold ||
		(in.MemoryBudgetGPUBytes > 0 && estimatedOutputBytes > float64(in.MemoryBudgetGPUBytes)) {
		j.RuleMatched = 3
		backend := BackendCPU
		if in.GPUAvailable && !in.ForceCPU {
			backend = BackendGPU
		}
		return Decision{Mode: ModeTiled, Backend: backend, Justification: j}
	}

	// Rule 4: progressive multi-stage on GPU.
	if in.Scale > progressiveScaleThreshold && in.GPUAvailable {
		j.RuleMatched = 4
		return Decision{Mode: ModeProgressive, Backend: BackendGPU, Justification: j}
	}

	// Rule 5: direct GPU when it fits budget.
	if in.Scale >= directGPUScaleThreshold && in.GPUAvailable &&
		(in.MemoryBudgetGPUBytes <= 0 || estimatedOutputBytes <= float64(in.MemoryBudgetGPUBytes)) {
		j.RuleMatched = 5
		return Decision{Mode: ModeDirect, Backend: BackendGPU, Justification: j}
	}

	// Rule 6: default.
	j.RuleMatched = 6
	return Decision{Mode: ModeDirect, Backend: BackendCPU, Justification: j}
}

func aspectRatio(w, h int) float64 {
	if w == 0 || h == 0 {
		return 0
	}
	long := math.Max(float64(w), float64(h))
	short := math.Min(float64(w), float64(h))
	return long / short
}
