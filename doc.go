// Package upscale implements resolution-independent image upscaling:
// decode, resample, and re-encode an image at an arbitrary scale factor,
// choosing between direct, tiled, and progressive execution plans and
// between CPU and GPU kernels depending on image size and available
// memory.
//
// # Overview
//
// A Session is built from input bytes and a scale factor, plus optional
// configuration (Option values). The Policy Engine picks an execution
// Mode (Direct, Tiled, Progressive, HybridGpuThenCpu, FaceEnhanceThenScale,
// or CPUFallback), internal/tiler divides large images into overlapping
// tiles when needed, internal/kernel and internal/gpukernel resample
// pixels, and internal/progressive chains multiple passes when a single
// kernel application would exceed the configured quality/scale tradeoff.
//
// # Quick Start
//
//	import "github.com/mranderson01901234/upscaler10x-sub004"
//
//	sess, err := upscale.New(inputBytes, 4.0,
//		upscale.WithFormat(codec.ContainerPNG),
//		upscale.WithParallelConcurrency(6),
//	)
//	if err != nil {
//		// err is a *upscale.ScaleError; switch on err.Kind
//	}
//	out, err := sess.Run(ctx)
//
// # Progress
//
// Run reports progress through Session.Progress(), which returns a
// channel of Event values: {stage, percent, message, stats}. Percent is
// non-decreasing within a session and reaches exactly 100 on success.
//
// # Errors
//
// Every exported operation returns a *ScaleError carrying a classified
// ErrorKind (InvalidInput, OutOfBudget, BackendUnavailable, TileTimeout,
// EnhanceTimeout, EnhanceFailed, Cancelled, InternalInvariantViolated).
// Use IsKind to test for a specific kind.
//
// # Concurrency
//
// A Session is not safe for concurrent Run calls; build one Session per
// upscale operation. internal/membuf's buffer pool and internal/tiler's
// worker pool are safe for concurrent use across sessions.
package upscale
