package upscale

import (
	"errors"
	"fmt"

	"github.com/mranderson01901234/upscaler10x-sub004/internal/codec"
)

// AlgorithmOverride selects the resampling kernel explicitly, bypassing
// the Policy Engine's scale-based selection rule. AlgorithmAuto (the
// default) lets the Policy Engine decide.
type AlgorithmOverride uint8

const (
	AlgorithmAuto AlgorithmOverride = iota
	AlgorithmBilinear
	AlgorithmBicubic
	AlgorithmLanczos2
	AlgorithmLanczos3
	AlgorithmFractional11x
	AlgorithmFractional15x
	// AlgorithmProgressive forces a multi-stage plan (internal/progressive)
	// regardless of the scale-based Direct/Tiled/Progressive rule.
	AlgorithmProgressive
)

func (a AlgorithmOverride) String() string {
	switch a {
	case AlgorithmAuto:
		return "auto"
	case AlgorithmBilinear:
		return "bilinear"
	case AlgorithmBicubic:
		return "bicubic"
	case AlgorithmLanczos2:
		return "lanczos2"
	case AlgorithmLanczos3:
		return "lanczos3"
	case AlgorithmFractional11x:
		return "fractional-1.1x"
	case AlgorithmFractional15x:
		return "fractional-1.5x"
	case AlgorithmProgressive:
		return "progressive"
	default:
		return "unknown"
	}
}

// ParseAlgorithmOverride parses the configuration strings named in
// spec.md §6 ("algorithm"), plus "auto" for the zero value.
func ParseAlgorithmOverride(name string) (AlgorithmOverride, error) {
	switch name {
	case "", "auto":
		return AlgorithmAuto, nil
	case "bilinear":
		return AlgorithmBilinear, nil
	case "bicubic":
		return AlgorithmBicubic, nil
	case "lanczos2":
		return AlgorithmLanczos2, nil
	case "lanczos3":
		return AlgorithmLanczos3, nil
	case "fractional-1.1x":
		return AlgorithmFractional11x, nil
	case "fractional-1.5x":
		return AlgorithmFractional15x, nil
	case "progressive":
		return AlgorithmProgressive, nil
	default:
		return 0, newError(InvalidInput, "ParseAlgorithmOverride", fmt.Errorf("unknown algorithm %q", name))
	}
}

var (
	errMutuallyExclusiveForce = errors.New("force_cpu and force_gpu are mutually exclusive")
	errQualityRange           = errors.New("quality must be between 1 and 100")
	errConcurrencyRange       = errors.New("parallel_concurrency must be between 1 and 16")
	errCompressionKind        = errors.New(`compression must be "lzw" or "none"`)
)

// options holds every recognized configuration item (spec.md §6). The
// zero value is not valid on its own; defaultOptions supplies the
// baseline before any Option is applied.
type options struct {
	algorithm   AlgorithmOverride
	container   codec.Container
	quality     int
	compression string // "lzw" or "none", TIFF only

	parallelConcurrency      int
	enableParallelProcessing bool

	forceCPU bool
	forceGPU bool

	faceEnhance    bool
	faceEnhanceSet bool // true once WithFaceEnhance has been called explicitly

	memoryBudgetGPUBytes int64
	memoryBudgetCPUBytes int64
}

func defaultOptions() options {
	return options{
		algorithm:                AlgorithmAuto,
		container:                codec.ContainerPNG,
		quality:                  90,
		compression:              "lzw",
		parallelConcurrency:      4,
		enableParallelProcessing: true,
	}
}

// Option configures a session constructed by New. Options are applied in
// order, each mutating the options struct built by defaultOptions.
type Option func(*options)

// WithAlgorithm overrides kernel/plan selection (spec.md §6 "algorithm").
func WithAlgorithm(a AlgorithmOverride) Option {
	return func(o *options) { o.algorithm = a }
}

// WithFormat sets the output container (spec.md §6 "format").
func WithFormat(c codec.Container) Option {
	return func(o *options) { o.container = c }
}

// WithQuality sets the JPEG/WebP quality, 1-100 (spec.md §6 "quality").
func WithQuality(q int) Option {
	return func(o *options) { o.quality = q }
}

// WithCompression sets the TIFF compression scheme, "lzw" or "none"
// (spec.md §6 "compression").
func WithCompression(c string) Option {
	return func(o *options) { o.compression = c }
}

// WithParallelConcurrency sets the worker count, 1-16 (spec.md §6
// "parallel_concurrency").
func WithParallelConcurrency(n int) Option {
	return func(o *options) { o.parallelConcurrency = n }
}

// WithParallelProcessing toggles tile-level parallelism (spec.md §6
// "enable_parallel_processing").
func WithParallelProcessing(enabled bool) Option {
	return func(o *options) { o.enableParallelProcessing = enabled }
}

// WithForceCPU forces CPU-only execution, refusing GPU acceleration even
// when available. Mutually exclusive with WithForceGPU; New returns an
// InvalidInput error if both are set (spec.md §6).
func WithForceCPU() Option {
	return func(o *options) { o.forceCPU = true }
}

// WithForceGPU forces GPU execution, surfacing BackendUnavailable instead
// of downgrading to CPU when no GPU is present. Mutually exclusive with
// WithForceCPU.
func WithForceGPU() Option {
	return func(o *options) { o.forceGPU = true }
}

// WithFaceEnhance explicitly enables or disables the face-enhance bridge,
// overriding the default rule (enabled only when input <= 50 MP and
// aspect ratio < 4, spec.md §6).
func WithFaceEnhance(enabled bool) Option {
	return func(o *options) {
		o.faceEnhance = enabled
		o.faceEnhanceSet = true
	}
}

// WithMemoryBudgetGPU overrides the auto-detected GPU memory budget.
func WithMemoryBudgetGPU(bytes int64) Option {
	return func(o *options) { o.memoryBudgetGPUBytes = bytes }
}

// WithMemoryBudgetCPU overrides the auto-detected CPU memory budget.
func WithMemoryBudgetCPU(bytes int64) Option {
	return func(o *options) { o.memoryBudgetCPUBytes = bytes }
}

// resolveFaceEnhance applies the default-true rule (spec.md §6) when the
// caller never called WithFaceEnhance explicitly.
func (o *options) resolveFaceEnhance(megapixels, aspectRatio float64) bool {
	if o.faceEnhanceSet {
		return o.faceEnhance
	}
	return megapixels <= 50.0 && aspectRatio < 4.0
}

// validate checks the cross-field invariants New must enforce before
// building a session.
func (o *options) validate() error {
	if o.forceCPU && o.forceGPU {
		return newError(InvalidInput, "validate", errMutuallyExclusiveForce)
	}
	if o.quality < 1 || o.quality > 100 {
		return newError(InvalidInput, "validate", errQualityRange)
	}
	if o.parallelConcurrency < 1 || o.parallelConcurrency > 16 {
		return newError(InvalidInput, "validate", errConcurrencyRange)
	}
	if o.compression != "lzw" && o.compression != "none" {
		return newError(InvalidInput, "validate", errCompressionKind)
	}
	return nil
}
