package video

import (
	"errors"
	"fmt"
)

// ErrFramebufferSize is returned when the core hands over a framebuffer
// whose length does not match the screen dimensions. This is a contract
// violation by the core, so the frame carrying it must not be rendered.
var ErrFramebufferSize = errors.New("framebuffer size mismatch")

// Raster converts a full frame of shades into a freshly allocated
// RGB raster, row-major, 3 bytes per pixel. The input is not modified.
func Raster(frame []Shade) ([]byte, error) {
	if len(frame) != BufferSize {
		return nil, fmt.Errorf("%w: got %d shades, want %d", ErrFramebufferSize, len(frame), BufferSize)
	}

	buf := make([]byte, RasterSize)
	for i, s := range frame {
		c := Colour(s)
		buf[i*3] = c[0]
		buf[i*3+1] = c[1]
		buf[i*3+2] = c[2]
	}

	return buf, nil
}
