// Package hwprobe implements the hardware probe boundary (spec.md §6):
// the GPU adapter's reported single-allocation limit, its estimated total
// device memory, and a concurrency hint (the host's runtime.NumCPU()).
package hwprobe

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/core"
	wgputypes "github.com/gogpu/wgpu/types"
)

// ErrNoGPU indicates adapter creation failed; CPU-only conservative
// defaults are used instead (spec.md §4.5 "Safe limit detection").
var ErrNoGPU = errors.New("hwprobe: no GPU adapter available")

// Conservative defaults used when the backend cannot report limits
// (spec.md §4.5).
const (
	DefaultMaxSingleAllocation = 1 << 30 // 1 GiB
	DefaultEstimatedTotal      = 2 << 30 // 2 GiB
)

// Report is the result of a single hardware probe.
type Report struct {
	// GPUAvailable is true if an adapter was successfully acquired.
	GPUAvailable bool

	// MaxSingleAllocation is the largest single buffer the backend will
	// allocate.
	MaxSingleAllocation int64

	// EstimatedTotalMemory is the estimate of total usable device memory:
	// twice MaxSingleAllocation when an adapter is found,
	// DefaultEstimatedTotal otherwise.
	EstimatedTotalMemory int64

	// ConcurrencyHint is the suggested worker count for tile/stage
	// dispatch.
	ConcurrencyHint int

	// AdapterName is the GPU's reported name, empty when GPUAvailable is
	// false.
	AdapterName string
}

// Probe queries the GPU adapter via gogpu/wgpu for its limits, falling
// back to the conservative defaults when no adapter is available. Probe
// never returns an error: a failed GPU probe is a normal, expected input
// to the Policy Engine, not a fatal condition.
func Probe() Report {
	report, err := probeGPU()
	if err != nil {
		slog.Default().Warn("hwprobe: GPU probe failed, using conservative CPU defaults", "error", err)
		return Report{
			GPUAvailable:         false,
			MaxSingleAllocation:  DefaultMaxSingleAllocation,
			EstimatedTotalMemory: DefaultEstimatedTotal,
			ConcurrencyHint:      runtime.NumCPU(),
		}
	}
	return report
}

func probeGPU() (Report, error) {
	instance := core.NewInstance(&gputypes.InstanceDescriptor{
		Backends: gputypes.BackendsPrimary,
	})

	adapterID, err := instance.RequestAdapter(&gputypes.RequestAdapterOptions{
		PowerPreference: gputypes.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return Report{}, fmt.Errorf("%w: %w", ErrNoGPU, err)
	}
	defer func() { _ = core.AdapterDrop(adapterID) }()

	info, err := core.GetAdapterInfo(adapterID)
	if err != nil {
		return Report{}, fmt.Errorf("hwprobe: adapter info: %w", err)
	}

	deviceID, err := core.RequestDevice(adapterID, &wgputypes.DeviceDescriptor{
		Label:          "upscale-hwprobe",
		RequiredLimits: wgputypes.DefaultLimits(),
	})
	if err != nil {
		return Report{}, fmt.Errorf("hwprobe: request device: %w", err)
	}
	defer func() { _ = core.DeviceDrop(deviceID) }()

	limits, err := core.GetDeviceLimits(deviceID)
	if err != nil {
		return Report{}, fmt.Errorf("hwprobe: device limits: %w", err)
	}

	maxAlloc := int64(limits.MaxBufferSize)
	if maxAlloc <= 0 {
		maxAlloc = DefaultMaxSingleAllocation
	}

	return Report{
		GPUAvailable:         true,
		MaxSingleAllocation:  maxAlloc,
		EstimatedTotalMemory: maxAlloc * 2, // no direct "total device memory" query is exposed; approximate
		ConcurrencyHint:      runtime.NumCPU(),
		AdapterName:          info.Name,
	}, nil
}
