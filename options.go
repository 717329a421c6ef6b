package glyphcam

import (
	"time"

	"github.com/gogpu/gpucontext"
)

// Option configures a Pipeline during creation.
//
// Example:
//
//	// Standalone, offscreen target:
//	p, err := glyphcam.New(target, src, glyphcam.DefaultSettings())
//
//	// Embedded in a gogpu host application, sharing its device:
//	p, err := glyphcam.New(target, src, settings,
//	    glyphcam.WithDeviceProvider(win), glyphcam.WithFrameRateCap(60))
type Option func(*pipelineOptions)

// pipelineOptions holds optional configuration for Pipeline creation.
type pipelineOptions struct {
	deviceProvider gpucontext.DeviceProvider
	fpsCap         float64
	atlas          *Atlas
}

// defaultPipelineOptions returns the defaults: own device, 30 fps cap,
// atlas resolved from Settings.AtlasID.
func defaultPipelineOptions() pipelineOptions {
	return pipelineOptions{fpsCap: 30}
}

// WithDeviceProvider makes the pipeline share a GPU device owned by the
// host application instead of opening its own. The provider comes from the
// host's GPU context (e.g. gogpu.App.GPUContextProvider()) and must also
// implement HalDevice() any and HalQueue() any returning the underlying HAL
// types, as gogpu providers do. Close never destroys a shared device.
func WithDeviceProvider(provider gpucontext.DeviceProvider) Option {
	return func(o *pipelineOptions) { o.deviceProvider = provider }
}

// WithFrameRateCap bounds the scheduler's frame rate. Values <= 0 keep the
// default of 30 frames per second.
func WithFrameRateCap(fps float64) Option {
	return func(o *pipelineOptions) {
		if fps > 0 {
			o.fpsCap = fps
		}
	}
}

// WithAtlas supplies the initial atlas directly, bypassing the registry
// lookup of Settings.AtlasID. The atlas must pass validation.
func WithAtlas(a *Atlas) Option {
	return func(o *pipelineOptions) { o.atlas = a }
}

// frameInterval converts the fps cap to a ticker interval.
func (o pipelineOptions) frameInterval() time.Duration {
	return time.Duration(float64(time.Second) / o.fpsCap)
}
