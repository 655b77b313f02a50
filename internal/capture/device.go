package capture

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

// Device captures from a system microphone through miniaudio.
type Device struct {
	format Format
	name   string // empty selects the default device

	mu      sync.Mutex
	ctx     *malgo.AllocatedContext
	device  *malgo.Device
	blocker *blocker
}

// NewDevice returns a mono capture device. name selects a device by its
// display name; empty uses the system default.
func NewDevice(name string, sampleRate, blockSize int) *Device {
	return &Device{
		name: name,
		format: Format{
			SampleRate: sampleRate,
			Channels:   1,
			BlockSize:  blockSize,
		},
	}
}

func (d *Device) Format() Format { return d.format }

// Start opens the device and begins delivering blocks.
func (d *Device) Start(onBlock func([]int16)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device != nil {
		return nil
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{ThreadPriority: malgo.ThreadPriorityRealtime}, nil)
	if err != nil {
		return fmt.Errorf("%w: init audio context: %w", ErrCaptureUnavailable, err)
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatS16
	cfg.Capture.Channels = 1
	cfg.SampleRate = uint32(d.format.SampleRate)
	cfg.PeriodSizeInFrames = uint32(d.format.BlockSize)

	if d.name != "" {
		infos, err := ctx.Devices(malgo.Capture)
		if err != nil {
			freeContext(ctx)
			return fmt.Errorf("%w: list devices: %w", ErrCaptureUnavailable, err)
		}
		found := false
		for _, info := range infos {
			if info.Name() == d.name {
				cfg.Capture.DeviceID = info.ID.Pointer()
				found = true
				break
			}
		}
		if !found {
			freeContext(ctx)
			return fmt.Errorf("%w: no capture device named %q", ErrCaptureUnavailable, d.name)
		}
	}

	b := newBlocker(d.format.BlockSize)
	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			b.push(input, onBlock)
		},
	}

	device, err := malgo.InitDevice(ctx.Context, cfg, callbacks)
	if err != nil {
		freeContext(ctx)
		return fmt.Errorf("%w: init device: %w", ErrCaptureUnavailable, err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		freeContext(ctx)
		return fmt.Errorf("%w: start device: %w", ErrCaptureUnavailable, err)
	}

	d.ctx, d.device, d.blocker = ctx, device, b
	return nil
}

// Stop closes the device. Stopping a closed device is a no-op.
func (d *Device) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device == nil {
		return nil
	}
	err := d.device.Stop()
	d.device.Uninit()
	freeContext(d.ctx)
	d.device, d.ctx, d.blocker = nil, nil, nil
	return err
}

// ListDevices returns the display names of the available capture devices.
func ListDevices() ([]string, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: init audio context: %w", ErrCaptureUnavailable, err)
	}
	defer freeContext(ctx)

	infos, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("%w: list devices: %w", ErrCaptureUnavailable, err)
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	return names, nil
}

func freeContext(ctx *malgo.AllocatedContext) {
	_ = ctx.Uninit()
	ctx.Free()
}
