package video

// palette is the fixed set of four RGB values used to display the
// shades of the original handheld's LCD. The values approximate the
// green tint of the original panel and are fixed for the lifetime of
// the process.
var palette = [4][3]uint8{
	{0x9B, 0xBC, 0x0F}, // White
	{0x8B, 0xAC, 0x0F}, // Light Grey
	{0x30, 0x62, 0x30}, // Dark Grey
	{0x0F, 0x38, 0x0F}, // Black
}

// Colour returns the RGB value for the given shade. It is a total
// function over the four shades; the two unused high bits of a Shade
// are ignored so that every possible input maps to one of the four
// fixed colours.
func Colour(s Shade) [3]uint8 {
	return palette[s&0x03]
}
