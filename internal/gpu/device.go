// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/vulkan" // register the Vulkan backend
)

var (
	// ErrNoAdapter is returned by Open when no compatible GPU adapter exists.
	ErrNoAdapter = errors.New("wgpu: no compatible GPU adapter")

	// ErrDeviceLost marks failures where the device stopped responding.
	// Recovery is full teardown and reinit by the owner; no partial state
	// is salvaged.
	ErrDeviceLost = errors.New("wgpu: device lost")
)

// DeviceEventKind classifies asynchronous device events.
type DeviceEventKind int

const (
	// EventDeviceLost reports that the device stopped responding.
	EventDeviceLost DeviceEventKind = iota

	// EventValidation reports a validation failure surfaced outside a
	// direct call path.
	EventValidation
)

// String returns the event kind name.
func (k DeviceEventKind) String() string {
	switch k {
	case EventDeviceLost:
		return "device_lost"
	case EventValidation:
		return "validation"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// DeviceEvent is an asynchronous device fault delivered through the event
// sink. Events never panic the process.
type DeviceEvent struct {
	Kind DeviceEventKind
	Err  error
}

// DeviceContext owns the GPU instance, device and queue shared by all
// pipeline resources. It is created once per pipeline via Open, or wrapped
// around a host application's device via Attach.
type DeviceContext struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	adapterName string
	external    bool // true when using a shared device (don't destroy on Close)

	events chan<- DeviceEvent
}

// Open creates a device context on the best available adapter, preferring
// discrete over integrated GPUs.
func Open() (*DeviceContext, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("%w: vulkan backend not available", ErrNoAdapter)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		for i := range adapters {
			if adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
				selected = &adapters[i]
				break
			}
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("wgpu: open device: %w", err)
	}

	slogger().Info("wgpu: device opened", "adapter", selected.Info.Name)
	return &DeviceContext{
		instance:    instance,
		device:      openDev.Device,
		queue:       openDev.Queue,
		adapterName: selected.Info.Name,
	}, nil
}

// Attach wraps a shared GPU device from an external provider (e.g. a gogpu
// host window). The provider must implement HalDevice() any and
// HalQueue() any returning hal.Device and hal.Queue. Close on an attached
// context never destroys the shared device.
func Attach(provider any) (*DeviceContext, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("wgpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("wgpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("wgpu: provider HalQueue is not hal.Queue")
	}
	slogger().Info("wgpu: attached shared device")
	return &DeviceContext{
		device:      device,
		queue:       queue,
		adapterName: "external",
		external:    true,
	}, nil
}

// Device returns the HAL device.
func (c *DeviceContext) Device() hal.Device { return c.device }

// Queue returns the HAL queue.
func (c *DeviceContext) Queue() hal.Queue { return c.queue }

// AdapterName returns the selected adapter's name, or "external" for an
// attached context.
func (c *DeviceContext) AdapterName() string { return c.adapterName }

// SetEventSink installs a channel for asynchronous device events. Delivery
// is non-blocking: when the sink is full the event is logged and dropped.
func (c *DeviceContext) SetEventSink(ch chan<- DeviceEvent) { c.events = ch }

// report delivers a device event to the sink without blocking.
func (c *DeviceContext) report(kind DeviceEventKind, err error) {
	slogger().Warn("wgpu: device event", "kind", kind.String(), "err", err)
	if c.events == nil {
		return
	}
	select {
	case c.events <- DeviceEvent{Kind: kind, Err: err}:
	default:
		slogger().Warn("wgpu: event sink full, dropping event", "kind", kind.String())
	}
}

// Close destroys the device and instance. On an attached context the shared
// resources are released but not destroyed.
func (c *DeviceContext) Close() {
	if !c.external {
		if c.device != nil {
			c.device.Destroy()
		}
		if c.instance != nil {
			c.instance.Destroy()
		}
	}
	c.device = nil
	c.queue = nil
	c.instance = nil
}
