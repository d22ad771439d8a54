package web

import (
	"bytes"
	"encoding/binary"
	"image"
	"io"
	"testing"

	"github.com/klauspost/compress/zlib"
)

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 160, 144))
	for i := range img.Pix {
		img.Pix[i] = byte(i)
	}
	return img
}

func TestEncodeFrame(t *testing.T) {
	t.Run("uncompressed", func(t *testing.T) {
		img := testImage()
		msg := encodeFrame(img, false)

		if msg[0] != Frame {
			t.Errorf("expected message type Frame, got %d", msg[0])
		}
		if msg[1]&flagCompressed != 0 {
			t.Error("expected the compressed flag to be unset")
		}
		if w := binary.LittleEndian.Uint16(msg[2:]); w != 160 {
			t.Errorf("expected width 160, got %d", w)
		}
		if h := binary.LittleEndian.Uint16(msg[4:]); h != 144 {
			t.Errorf("expected height 144, got %d", h)
		}
		if !bytes.Equal(msg[6:], img.Pix) {
			t.Error("expected the payload to carry the raw pixels")
		}
	})
	t.Run("compressed", func(t *testing.T) {
		img := testImage()
		msg := encodeFrame(img, true)

		if msg[1]&flagCompressed == 0 {
			t.Fatal("expected the compressed flag to be set")
		}
		r, err := zlib.NewReader(bytes.NewReader(msg[6:]))
		if err != nil {
			t.Fatal(err)
		}
		pixels, err := io.ReadAll(r)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(pixels, img.Pix) {
			t.Error("compressed payload did not round trip")
		}
	})
}

func TestFrameCache(t *testing.T) {
	t.Run("hit", func(t *testing.T) {
		c := newFrameCache(4)
		c.add(1, []byte{0xAA})
		data, ok := c.get(1)
		if !ok || !bytes.Equal(data, []byte{0xAA}) {
			t.Error("expected a cache hit for a stored hash")
		}
	})
	t.Run("miss", func(t *testing.T) {
		c := newFrameCache(4)
		if _, ok := c.get(42); ok {
			t.Error("expected a miss for an unknown hash")
		}
	})
	t.Run("eviction", func(t *testing.T) {
		c := newFrameCache(2)
		c.add(1, []byte{1})
		c.add(2, []byte{2})
		c.add(3, []byte{3})
		if _, ok := c.get(1); ok {
			t.Error("expected the oldest entry to be evicted")
		}
		if _, ok := c.get(3); !ok {
			t.Error("expected the newest entry to be cached")
		}
	})
}
