// Package progressive implements the Progressive Scaler (spec.md §4.3): it
// builds a ScalingPlan of 2.0/1.5/1.1 steps for large scale factors and
// executes it stage by stage, handing off to a single CPU Lanczos-3 pass
// when memory pressure forces a hybrid GPU-then-CPU switch mid-plan.
package progressive

import (
	"fmt"
	"math"

	"github.com/mranderson01901234/upscaler10x-sub004/internal/codec"
	"github.com/mranderson01901234/upscaler10x-sub004/internal/kernel"
)

// directPlanThreshold is the scale at or below which a single stage
// suffices (spec.md §4.3 "Plan construction").
const directPlanThreshold = 3.0

// stepCandidates are tried largest-first when decomposing scale > 3.0.
var stepCandidates = []float64{2.0, 1.5, 1.1}

// planTolerance is the allowed drift between the product of stage scales
// and the requested target (spec.md §3 ScalingPlan invariant, §8).
const planTolerance = 0.01

// Stage is one step of a ScalingPlan.
type Stage struct {
	StepScale float64
	Algorithm kernel.Algorithm
}

// Plan is an ordered sequence of Stages whose step scales multiply to the
// requested target scale within planTolerance.
type Plan struct {
	TargetScale float64
	Stages      []Stage
}

// BuildPlan constructs the ScalingPlan for target scale S (spec.md §4.3).
func BuildPlan(target float64) Plan {
	if target <= directPlanThreshold {
		return Plan{
			TargetScale: target,
			Stages:      []Stage{{StepScale: target, Algorithm: kernel.Select(target)}},
		}
	}

	var stages []Stage
	remaining := target
	for remaining > 1.0 {
		step := largestFittingStep(remaining)
		if step == 0 {
			// No candidate fits (remaining < smallest candidate); the
			// loop's residual-stage logic below handles this.
			break
		}
		stages = append(stages, Stage{StepScale: step, Algorithm: kernel.Select(step)})
		remaining /= step
	}
	if remaining > 1.0+1e-9 {
		stages = append(stages, Stage{StepScale: remaining, Algorithm: kernel.Select(remaining)})
	}

	return Plan{TargetScale: target, Stages: stages}
}

func largestFittingStep(remaining float64) float64 {
	for _, c := range stepCandidates {
		if c <= remaining {
			return c
		}
	}
	return 0
}

// Product returns the multiplicative product of every stage's StepScale.
func (p Plan) Product() float64 {
	product := 1.0
	for _, s := range p.Stages {
		product *= s.StepScale
	}
	return product
}

// Validate checks the ScalingPlan invariant: |Π step_scale - S| <= 0.01*S
// (spec.md §8).
func (p Plan) Validate() error {
	product := p.Product()
	if math.Abs(product-p.TargetScale) > planTolerance*p.TargetScale {
		return fmt.Errorf("progressive: plan product %.6f drifted from target %.6f beyond tolerance", product, p.TargetScale)
	}
	return nil
}

// BudgetChecker reports whether a stage's projected working set fits the
// current memory budget (spec.md §4.3 "ask the Memory Manager whether the
// projected working set fits").
type BudgetChecker func(projectedBytes int64) bool

// Execute runs a Plan's stages sequentially against src, round-tripping
// each intermediate (every stage output except the last) through PNG and
// discarding the previous stage's buffer (spec.md §4.3 "Execution"). The
// PNG is written at the codec's default compression level; EncodeOptions
// has no compression-level setting. If fits reports that a
// stage's projected working set does not fit, Execute stops after the
// last completed stage and returns the stages actually run plus the
// remaining multiplicative scale for a hybrid handoff.
func Execute(src *codec.Image, plan Plan, fits BudgetChecker) (result *codec.Image, stagesRun int, remainingScale float64, err error) {
	current := src
	remaining := plan.TargetScale

	for i, stage := range plan.Stages {
		projected := int64(float64(current.Width()) * stage.StepScale *
			float64(current.Height()) * stage.StepScale * float64(current.Format().BytesPerPixel()))
		if fits != nil && !fits(projected) {
			return current, i, remaining, nil
		}

		outW := int(math.Round(float64(current.Width()) * stage.StepScale))
		outH := int(math.Round(float64(current.Height()) * stage.StepScale))
		floatNext, rerr := kernel.Resample(current.ToFloat(), outW, outH, stage.Algorithm)
		if rerr != nil {
			return nil, i, remaining, fmt.Errorf("progressive: stage %d resample: %w", i, rerr)
		}
		next := floatNext.FromFloat()

		if i < len(plan.Stages)-1 {
			// Round-trip the intermediate through PNG to match the
			// teacher's "encode intermediate, release previous buffer"
			// discipline (spec.md §4.3); the codec encodes PNG at its
			// default compression level.
			encoded, eerr := codec.EncodeToBytes(next, codec.ContainerPNG, codec.EncodeOptions{})
			if eerr != nil {
				return nil, i, remaining, fmt.Errorf("progressive: stage %d intermediate encode: %w", i, eerr)
			}
			decoded, derr := codec.DecodePixelsBytes(encoded)
			if derr != nil {
				return nil, i, remaining, fmt.Errorf("progressive: stage %d intermediate decode: %w", i, derr)
			}
			next = decoded
		}

		current = next
		remaining /= stage.StepScale
		stagesRun = i + 1
	}

	return current, stagesRun, remaining, nil
}

// HybridHandoff performs the single CPU Lanczos-3 resample that completes
// a plan after GPU stages stopped early under memory pressure (spec.md
// §4.3 "Hybrid handoff"). It reverifies total-scale equality within 0.5
// px on each axis.
func HybridHandoff(current *codec.Image, remainingScale float64, originalWidth, originalHeight int, targetScale float64) (*codec.Image, error) {
	outW := int(math.Round(float64(current.Width()) * remainingScale))
	outH := int(math.Round(float64(current.Height()) * remainingScale))

	floatResult, err := kernel.Resample(current.ToFloat(), outW, outH, kernel.AlgorithmLanczos3)
	if err != nil {
		return nil, fmt.Errorf("progressive: hybrid handoff resample: %w", err)
	}
	result := floatResult.FromFloat()

	wantW := float64(originalWidth) * targetScale
	wantH := float64(originalHeight) * targetScale
	if math.Abs(float64(result.Width())-wantW) > 0.5 || math.Abs(float64(result.Height())-wantH) > 0.5 {
		return nil, fmt.Errorf("progressive: hybrid handoff dimensions %dx%d drifted from target %.1fx%.1f beyond 0.5px",
			result.Width(), result.Height(), wantW, wantH)
	}
	return result, nil
}
