package upscale

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/mranderson01901234/upscaler10x-sub004/internal/codec"
	"github.com/mranderson01901234/upscaler10x-sub004/internal/faceenhance"
	"github.com/mranderson01901234/upscaler10x-sub004/internal/gpukernel"
	"github.com/mranderson01901234/upscaler10x-sub004/internal/hwprobe"
	"github.com/mranderson01901234/upscaler10x-sub004/internal/kernel"
	"github.com/mranderson01901234/upscaler10x-sub004/internal/membuf"
	"github.com/mranderson01901234/upscaler10x-sub004/internal/policy"
	"github.com/mranderson01901234/upscaler10x-sub004/internal/progress"
	"github.com/mranderson01901234/upscaler10x-sub004/internal/progressive"
	"github.com/mranderson01901234/upscaler10x-sub004/internal/tiler"
)

// faceEnhanceScriptPath and faceEnhanceWorkDir are the fixed install-time
// locations the bridge invokes (spec.md §4.6 "a fixed argument set and a
// working directory known at startup"). No Option or CLI flag changes
// them; FaceEnhanceBinaryAvailable is true only when a file exists at
// faceEnhanceScriptPath.
var (
	faceEnhanceScriptPath = "/opt/face-restore/enhance.sh"
	faceEnhanceWorkDir    = "/opt/face-restore"
)

// New builds a Session from encoded input bytes and a target scale
// factor. It validates the options, probes hardware, and sizes a buffer
// pool; decoding the image and all resampling work happen in Run.
func New(input []byte, scale float64, opts ...Option) (*Session, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	if scale < 1.0 {
		return nil, newError(InvalidInput, "New", fmt.Errorf("scale %.4f must be >= 1.0", scale))
	}
	if len(input) == 0 {
		return nil, newError(InvalidInput, "New", fmt.Errorf("input is empty"))
	}

	hw := hwprobe.Probe()
	switch {
	case o.forceCPU && o.memoryBudgetCPUBytes > 0:
		hw.EstimatedTotalMemory = o.memoryBudgetCPUBytes
	case !o.forceCPU && o.memoryBudgetGPUBytes > 0:
		hw.EstimatedTotalMemory = o.memoryBudgetGPUBytes
	case o.memoryBudgetCPUBytes > 0:
		hw.EstimatedTotalMemory = o.memoryBudgetCPUBytes
	}

	return &Session{
		input:       input,
		targetScale: scale,
		opts:        o,
		hw:          hw,
		pool:        membuf.NewPool(hw),
		rep:         progress.NewReporter(8),
		state:       StateQueued,
	}, nil
}

// Run executes the Session's upscale pipeline end to end: decode,
// decide a Mode via the Policy Engine, resample (directly, tiled,
// progressively, or via the face-enhance bridge), and re-encode into the
// configured container. Run is not safe to call more than once per
// Session, nor concurrently with another call on the same Session.
func (s *Session) Run(ctx context.Context) ([]byte, error) {
	s.setState(StateProcessing)
	s.rep.Report(ctx, progress.Event{Stage: progress.StageInitializing, Percent: 0})

	out, err := s.run(ctx)
	if err != nil {
		s.mu.Lock()
		s.runErr = err
		s.mu.Unlock()
		s.setState(StateError)
		s.rep.Report(ctx, progress.Event{Stage: progress.StageError, Percent: 100, Message: err.Error()})
		s.rep.Close()
		return nil, err
	}

	s.mu.Lock()
	s.result = out
	s.mu.Unlock()
	s.setState(StateComplete)
	s.rep.Report(ctx, progress.Event{Stage: progress.StageComplete, Percent: 100})
	s.rep.Close()
	return out, nil
}

func (s *Session) run(ctx context.Context) ([]byte, error) {
	src, err := codec.DecodePixelsBytes(s.input)
	if err != nil {
		return nil, newError(InvalidInput, "Run", err)
	}

	s.rep.Report(ctx, progress.Event{Stage: progress.StagePlanning, Percent: 5})

	faceEnhanceAvailable := fileExists(faceEnhanceScriptPath)
	faceEnhanceRequested := s.opts.resolveFaceEnhance(float64(src.Width())*float64(src.Height())/1e6, aspectOf(src.Width(), src.Height()))

	if s.opts.forceGPU && !s.hw.GPUAvailable {
		return nil, newError(BackendUnavailable, "Run", fmt.Errorf("force_gpu requested but no GPU adapter is available"))
	}

	decision := policy.Decide(policy.Inputs{
		Width: src.Width(), Height: src.Height(),
		Scale:                      s.targetScale,
		Channels:                   src.Channels(),
		MemoryBudgetGPUBytes:       s.opts.memoryBudgetGPUBytes,
		ForceCPU:                   s.opts.forceCPU,
		ForceGPU:                   s.opts.forceGPU,
		FaceEnhanceRequested:       faceEnhanceRequested,
		FaceEnhanceBinaryAvailable: faceEnhanceAvailable,
		GPUAvailable:               s.hw.GPUAvailable,
	})

	var dev *gpukernel.Device
	var pl *gpukernel.Pipeline
	usesGPUDevice := decision.Backend == policy.BackendGPU &&
		(decision.Mode == policy.ModeDirect || decision.Mode == policy.ModeTiled)
	if usesGPUDevice {
		dev, pl, err = gpukernel.OpenWithPipeline()
		if err != nil {
			if s.opts.forceGPU {
				return nil, newError(BackendUnavailable, "Run", err)
			}
			dev, pl = nil, nil // silent CPU fallback for an unforced GPU decision
		}
		if dev != nil {
			defer dev.Close()
		}
	}

	// An explicit "progressive" algorithm override forces a multi-stage
	// plan for every scale-based mode.
	mode := decision.Mode
	if s.opts.algorithm == AlgorithmProgressive && mode != policy.ModeFaceEnhanceThenScale {
		mode = policy.ModeProgressive
	}

	var result *codec.Image
	switch mode {
	case policy.ModeFaceEnhanceThenScale:
		result, err = s.runFaceEnhance(ctx, src)
	case policy.ModeTiled:
		result, err = s.runTiled(ctx, src, dev, pl)
	case policy.ModeProgressive, policy.ModeHybridGpuThenCpu:
		result, err = s.runProgressive(ctx, src)
	default: // ModeDirect, ModeCPUFallback
		result, err = s.runDirect(ctx, src, dev, pl)
	}
	if err != nil {
		return nil, err
	}

	s.rep.Report(ctx, progress.Event{Stage: progress.StageEncoding, Percent: 95})
	out, err := codec.EncodeToBytes(result, s.opts.container, codec.EncodeOptions{
		Quality:         s.opts.quality,
		TIFFCompression: s.opts.compression,
	})
	if err != nil {
		return nil, newError(InvalidInput, "Run", err)
	}
	return out, nil
}

func (s *Session) runDirect(ctx context.Context, src *codec.Image, dev *gpukernel.Device, pl *gpukernel.Pipeline) (*codec.Image, error) {
	s.rep.Report(ctx, progress.Event{Stage: progress.StageProcessing, Percent: 20})

	algo := kernel.Select(s.targetScale)
	if s.opts.algorithm != AlgorithmAuto {
		algo = toKernelAlgorithm(s.opts.algorithm)
	}
	outW := roundScale(src.Width(), s.targetScale)
	outH := roundScale(src.Height(), s.targetScale)

	result, err := gpukernel.Resample(dev, pl, src, outW, outH, algo)
	if err != nil {
		return nil, newError(InternalInvariantViolated, "runDirect", err)
	}

	s.rep.Report(ctx, progress.Event{Stage: progress.StageProcessing, Percent: 90})
	return result, nil
}

func (s *Session) runProgressive(ctx context.Context, src *codec.Image) (*codec.Image, error) {
	s.rep.Report(ctx, progress.Event{Stage: progress.StagePlanning, Percent: 15})

	plan := progressive.BuildPlan(s.targetScale)
	if err := plan.Validate(); err != nil {
		return nil, newError(InternalInvariantViolated, "runProgressive", err)
	}

	fits := func(projected int64) bool {
		buf, err := s.pool.Acquire(membuf.ClassCompute, projected, membuf.BucketGeneric)
		if err != nil {
			return false
		}
		s.pool.Release(buf)
		return true
	}

	s.rep.Report(ctx, progress.Event{Stage: progress.StageProcessing, Percent: 30})
	result, stagesRun, remaining, err := progressive.Execute(src, plan, fits)
	if err != nil {
		return nil, newError(InternalInvariantViolated, "runProgressive", err)
	}

	if stagesRun < len(plan.Stages) {
		s.rep.Report(ctx, progress.Event{Stage: progress.StageProcessing, Percent: 70, Message: "hybrid handoff: GPU budget exceeded, finishing on CPU"})
		result, err = progressive.HybridHandoff(result, remaining, src.Width(), src.Height(), s.targetScale)
		if err != nil {
			return nil, newError(OutOfBudget, "runProgressive", err)
		}
	}

	s.rep.Report(ctx, progress.Event{Stage: progress.StageProcessing, Percent: 90})
	return result, nil
}

func (s *Session) runTiled(ctx context.Context, src *codec.Image, dev *gpukernel.Device, pl *gpukernel.Pipeline) (*codec.Image, error) {
	s.rep.Report(ctx, progress.Event{Stage: progress.StagePlanning, Percent: 10})

	grid := tiler.NewTileGrid(src.Width(), src.Height(), s.targetScale)
	stitcher, err := tiler.NewStitcher(grid.OutputWidth(), grid.OutputHeight(), src.Format())
	if err != nil {
		return nil, newError(InternalInvariantViolated, "runTiled", err)
	}

	algo := kernel.Select(s.targetScale)
	if s.opts.algorithm != AlgorithmAuto {
		algo = toKernelAlgorithm(s.opts.algorithm)
	}

	tiles := grid.Tiles()
	workers := s.opts.parallelConcurrency
	if !s.opts.enableParallelProcessing {
		workers = 1
	}
	pool := tiler.NewWorkerPool(workers)
	defer pool.Close()

	var pasteMu sync.Mutex
	var tileErrMu sync.Mutex
	var tileErr error
	setTileErr := func(err error) {
		tileErrMu.Lock()
		if tileErr == nil {
			tileErr = err
		}
		tileErrMu.Unlock()
	}

	work := make([]func(), len(tiles))
	for i := range tiles {
		t := &tiles[i]
		work[i] = func() {
			if err := tiler.Extract(src, t); err != nil {
				setTileErr(newError(InvalidInput, "runTiled", err))
				return
			}
			outW := roundScale(t.Data.Width(), s.targetScale)
			outH := roundScale(t.Data.Height(), s.targetScale)

			buf, acqErr := s.pool.Acquire(membuf.ClassCompute, int64(t.Data.Format().ImageBytes(outW, outH)), membuf.BucketGeneric)
			if acqErr != nil {
				setTileErr(newError(OutOfBudget, "runTiled", acqErr))
				return
			}
			resampled, rerr := gpukernel.Resample(dev, pl, t.Data, outW, outH, algo)
			s.pool.Release(buf)
			if rerr != nil {
				setTileErr(newError(InternalInvariantViolated, "runTiled", rerr))
				return
			}
			pasteMu.Lock()
			perr := stitcher.Paste(*t, resampled)
			pasteMu.Unlock()
			if perr != nil {
				setTileErr(newError(InternalInvariantViolated, "runTiled", perr))
			}
		}
	}

	s.rep.Report(ctx, progress.Event{Stage: progress.StageExtracting, Percent: 20})
	pool.ExecuteAll(work)
	if tileErr != nil {
		return nil, tileErr
	}

	s.rep.Report(ctx, progress.Event{Stage: progress.StageCompositing, Percent: 85})
	return stitcher.Canvas(), nil
}

func (s *Session) runFaceEnhance(ctx context.Context, src *codec.Image) (*codec.Image, error) {
	s.rep.Report(ctx, progress.Event{Stage: progress.StageProcessing, Percent: 25, Message: "face-enhance"})

	srcBytes, err := codec.EncodeToBytes(src, codec.ContainerPNG, codec.EncodeOptions{})
	if err != nil {
		return nil, newError(InvalidInput, "runFaceEnhance", err)
	}

	result, err := faceenhance.Run(ctx, faceenhance.Config{
		ScriptPath: faceEnhanceScriptPath,
		WorkDir:    faceEnhanceWorkDir,
	}, srcBytes)
	if err != nil {
		if errors.Is(err, faceenhance.ErrEnhanceTimeout) {
			return nil, newError(EnhanceTimeout, "runFaceEnhance", err)
		}
		return nil, newError(EnhanceFailed, "runFaceEnhance", err)
	}
	defer os.Remove(result.OutputPath)

	enhanced := src
	if !result.NoFacesDetected {
		data, rerr := os.ReadFile(result.OutputPath)
		if rerr != nil {
			return nil, newError(EnhanceFailed, "runFaceEnhance", rerr)
		}
		enhanced, err = codec.DecodePixelsBytes(data)
		if err != nil {
			return nil, newError(EnhanceFailed, "runFaceEnhance", err)
		}
	}

	s.rep.Report(ctx, progress.Event{Stage: progress.StageProcessing, Percent: 60, Message: "residual scale"})
	outW := roundScale(src.Width(), s.targetScale)
	outH := roundScale(src.Height(), s.targetScale)
	floatFinal, err := kernel.Resample(enhanced.ToFloat(), outW, outH, kernel.AlgorithmLanczos3)
	if err != nil {
		return nil, newError(InternalInvariantViolated, "runFaceEnhance", err)
	}
	return floatFinal.FromFloat(), nil
}

func roundScale(dim int, scale float64) int {
	v := int(float64(dim)*scale + 0.5)
	if v < 1 {
		v = 1
	}
	return v
}

func aspectOf(w, h int) float64 {
	if h == 0 {
		return 0
	}
	a := float64(w) / float64(h)
	if a < 1 {
		a = 1 / a
	}
	return a
}

func toKernelAlgorithm(a AlgorithmOverride) kernel.Algorithm {
	switch a {
	case AlgorithmBilinear:
		return kernel.AlgorithmBilinear
	case AlgorithmBicubic:
		return kernel.AlgorithmBicubic
	case AlgorithmLanczos2:
		return kernel.AlgorithmLanczos2
	case AlgorithmLanczos3:
		return kernel.AlgorithmLanczos3
	case AlgorithmFractional11x:
		return kernel.AlgorithmFractional11x
	case AlgorithmFractional15x:
		return kernel.AlgorithmFractional15x
	default:
		return kernel.AlgorithmBicubic
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
