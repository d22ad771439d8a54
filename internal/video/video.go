// Package video converts the shade-indexed framebuffer produced by the
// emulation core into a displayable raster image.
package video

const (
	// ScreenWidth is the width of the emulated screen in pixels.
	ScreenWidth = 160
	// ScreenHeight is the height of the emulated screen in pixels.
	ScreenHeight = 144
	// BufferSize is the number of pixels in one full frame.
	BufferSize = ScreenWidth * ScreenHeight
	// RasterSize is the length of a converted frame in bytes, 3 bytes
	// (RGB) per pixel.
	RasterSize = BufferSize * 3
)

// Shade is one of the four luminance levels the core's PPU produces.
type Shade uint8

const (
	White Shade = iota
	LightGrey
	DarkGrey
	Black
)

func (s Shade) String() string {
	switch s {
	case White:
		return "White"
	case LightGrey:
		return "Light Grey"
	case DarkGrey:
		return "Dark Grey"
	case Black:
		return "Black"
	default:
		return "Unknown"
	}
}
