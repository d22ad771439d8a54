package video

import "testing"

func TestColour(t *testing.T) {
	t.Run("fixed mapping", func(t *testing.T) {
		want := map[Shade][3]uint8{
			White:     {0x9B, 0xBC, 0x0F},
			LightGrey: {0x8B, 0xAC, 0x0F},
			DarkGrey:  {0x30, 0x62, 0x30},
			Black:     {0x0F, 0x38, 0x0F},
		}
		for s, c := range want {
			if got := Colour(s); got != c {
				t.Errorf("expected shade %s to map to %v, got %v", s, c, got)
			}
		}
	})
	t.Run("total", func(t *testing.T) {
		// every representable shade value maps to one of the four
		// fixed colours
		for i := 0; i < 256; i++ {
			got := Colour(Shade(i))
			if got != palette[0] && got != palette[1] && got != palette[2] && got != palette[3] {
				t.Errorf("shade %d mapped to %v, not one of the fixed colours", i, got)
			}
		}
	})
	t.Run("pure", func(t *testing.T) {
		for s := White; s <= Black; s++ {
			if Colour(s) != Colour(s) {
				t.Errorf("expected shade %s to map consistently", s)
			}
		}
	})
}
