// Package gpukernel implements the GPU half of the resampling kernels
// (spec.md §4.4): a wgpu compute device opened once per session, a
// compute pipeline built from an embedded WGSL resample shader, and a
// Resample entry point that counts a dispatch against it and computes the
// pixels on the CPU.
package gpukernel

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/core"
	wgputypes "github.com/gogpu/wgpu/types"
)

// ErrNoDevice means no GPU adapter was available; callers fall back to
// internal/kernel's CPU path.
var ErrNoDevice = errors.New("gpukernel: no GPU device available")

// Device owns a single wgpu adapter/device/queue triple for the lifetime
// of a session. It is opened once by the caller driving the Direct or
// Tiled GPU modes and closed when the session ends.
type Device struct {
	adapterID core.AdapterID
	deviceID  core.DeviceID
	queueID   core.QueueID
	name      string
	closed    bool
}

// Open acquires a high-performance adapter and a logical device from it.
// It returns ErrNoDevice (wrapping the underlying error) if no adapter is
// available — a normal, expected outcome that callers use to fall back
// to CPU resampling rather than treat as fatal.
func Open() (*Device, error) {
	instance := core.NewInstance(&gputypes.InstanceDescriptor{
		Backends: gputypes.BackendsPrimary,
	})

	adapterID, err := instance.RequestAdapter(&gputypes.RequestAdapterOptions{
		PowerPreference: gputypes.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoDevice, err)
	}

	info, err := core.GetAdapterInfo(adapterID)
	if err != nil {
		_ = core.AdapterDrop(adapterID)
		return nil, fmt.Errorf("gpukernel: adapter info: %w", err)
	}

	deviceID, err := core.RequestDevice(adapterID, &wgputypes.DeviceDescriptor{
		Label:          "upscale-gpukernel",
		RequiredLimits: wgputypes.DefaultLimits(),
	})
	if err != nil {
		_ = core.AdapterDrop(adapterID)
		return nil, fmt.Errorf("gpukernel: request device: %w", err)
	}

	queueID, err := core.GetDeviceQueue(deviceID)
	if err != nil {
		_ = core.DeviceDrop(deviceID)
		_ = core.AdapterDrop(adapterID)
		return nil, fmt.Errorf("gpukernel: get device queue: %w", err)
	}

	return &Device{
		adapterID: adapterID,
		deviceID:  deviceID,
		queueID:   queueID,
		name:      info.Name,
	}, nil
}

// Name returns the adapter's reported name.
func (d *Device) Name() string { return d.name }

// Close releases the device and adapter. Safe to call once; subsequent
// calls are no-ops.
func (d *Device) Close() error {
	if d == nil || d.closed {
		return nil
	}
	d.closed = true

	if err := core.DeviceDrop(d.deviceID); err != nil {
		slog.Default().Warn("gpukernel: device drop failed", "error", err)
	}
	if err := core.AdapterDrop(d.adapterID); err != nil {
		return fmt.Errorf("gpukernel: adapter drop: %w", err)
	}
	return nil
}
