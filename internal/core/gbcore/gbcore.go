// Package gbcore binds the C ABI exported by the emulation core
// library. The library owns all emulated state; this package only
// marshals calls and buffers across the boundary.
package gbcore

/*
#cgo LDFLAGS: -lgb_core
#include <stdlib.h>

void *gb_create();
void gb_destroy(void *);
void gb_load_rom(void *, const char *, char *);
void gb_run_frame(void *);
void gb_get_frame_buffer(void *, unsigned char *);
*/
import "C"

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/dmgpace/dmgpace/internal/core"
	"github.com/dmgpace/dmgpace/internal/video"
)

// titleLength is the size of the title buffer filled by gb_load_rom,
// including the trailing NUL.
const titleLength = 16

// Core wraps one core instance handle.
type Core struct {
	handle unsafe.Pointer
}

// make sure Core satisfies the engine contract
var _ core.Engine = (*Core)(nil)

// New allocates a core instance. The returned Core must be released
// with Close exactly once.
func New() *Core {
	return &Core{handle: C.gb_create()}
}

// Load loads the program image at path into the core and returns the
// title embedded in its header. The path is checked on this side of
// the boundary first; the library aborts on unreadable files rather
// than reporting them.
func (c *Core) Load(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open rom: %w", err)
	}
	f.Close()

	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	var title [titleLength]C.char
	C.gb_load_rom(c.handle, cpath, &title[0])

	return C.GoString(&title[0]), nil
}

// AdvanceFrame runs the core for exactly one frame's worth of cycles.
func (c *Core) AdvanceFrame() {
	C.gb_run_frame(c.handle)
}

// Framebuffer reads a snapshot of the core's display state.
func (c *Core) Framebuffer() []video.Shade {
	buf := make([]C.uchar, video.BufferSize)
	C.gb_get_frame_buffer(c.handle, &buf[0])

	shades := make([]video.Shade, video.BufferSize)
	for i, b := range buf {
		shades[i] = video.Shade(b)
	}
	return shades
}

// Close releases the core instance. Closing twice is a no-op.
func (c *Core) Close() error {
	if c.handle != nil {
		C.gb_destroy(c.handle)
		c.handle = nil
	}
	return nil
}
