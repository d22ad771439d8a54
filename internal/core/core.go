// Package core defines the contract between the front-end and the
// emulation core. The core is consumed as a black box: the front-end
// never reaches into emulated state, it only advances the core frame by
// frame and reads the resulting framebuffer.
package core

import "github.com/dmgpace/dmgpace/internal/video"

// Engine is one emulation core instance.
type Engine interface {
	// Load parses the program image at path, resets the core's
	// internal state and returns the title embedded in the image
	// header. A failed load leaves the previously loaded image (if
	// any) running.
	Load(path string) (string, error)
	// AdvanceFrame advances the core by exactly one frame's worth of
	// emulated cycles. It has no other observable effect from the
	// front-end's point of view.
	AdvanceFrame()
	// Framebuffer returns a snapshot of the core's current display
	// state: video.BufferSize shades, row-major.
	Framebuffer() []video.Shade
	// Close releases the core instance. It must be called exactly
	// once, after which the Engine must not be used.
	Close() error
}
