// Package web implements a display driver that streams presented
// frames to browser clients over websockets.
package web

import (
	"bytes"
	"encoding/binary"
	"image"

	"github.com/cespare/xxhash"
	"github.com/klauspost/compress/zlib"

	"github.com/dmgpace/dmgpace/pkg/display"
	"github.com/dmgpace/dmgpace/pkg/display/event"
	"github.com/dmgpace/dmgpace/pkg/log"
)

// message types sent to clients; the first byte of every message
const (
	Frame byte = iota
	Title
	ServerInfo
)

// frame flags
const flagCompressed = 0x01

// frameCacheSize is the number of encoded frames kept to avoid
// re-encoding identical output, e.g. a paused or static screen.
const frameCacheSize = 30

func init() {
	driver := &webDriver{log: log.New()}
	display.Install("web", driver, []display.DriverOption{
		{
			Name:        "addr",
			Default:     ":8090",
			Value:       &driver.addr,
			Type:        "string",
			Description: "Address to serve the web display on",
		},
		{
			Name:        "compression",
			Default:     true,
			Value:       &driver.compression,
			Type:        "bool",
			Description: "Compress frames before sending them to clients",
		},
	})
}

type webDriver struct {
	addr        string
	compression bool

	ctrl  display.Controller
	hub   *hub
	cache *frameCache
	log   log.Logger
}

func (d *webDriver) Initialize(c display.Controller) {
	d.ctrl = c
}

// Start serves the hub and forwards session output to connected
// clients until the session quits.
func (d *webDriver) Start(frames <-chan *image.RGBA, events <-chan event.Event) error {
	d.hub = newHub(d.log)
	d.cache = newFrameCache(frameCacheSize)

	go func() {
		if err := d.hub.run(d.addr); err != nil {
			d.log.Errorf("web display: %v", err)
		}
	}()
	defer d.hub.close()

	for {
		select {
		case f := <-frames:
			d.sendFrame(f)
		case e := <-events:
			switch e.Type {
			case event.Quit:
				return nil
			case event.Title:
				d.hub.send(append([]byte{Title}, e.Data.(string)...))
			}
		}
	}
}

func (d *webDriver) Stop() error {
	if d.hub != nil {
		d.hub.close()
	}
	return nil
}

func (d *webDriver) sendFrame(img *image.RGBA) {
	hash := xxhash.Sum64(img.Pix)
	msg, ok := d.cache.get(hash)
	if !ok {
		msg = encodeFrame(img, d.compression)
		d.cache.add(hash, msg)
	}
	d.hub.send(msg)
}

// encodeFrame packs an RGBA image into a Frame message:
// [Frame][flags][width:2][height:2][pixels], with the pixel data
// zlib-compressed when requested.
func encodeFrame(img *image.RGBA, compress bool) []byte {
	header := make([]byte, 6)
	header[0] = Frame
	binary.LittleEndian.PutUint16(header[2:], uint16(img.Bounds().Dx()))
	binary.LittleEndian.PutUint16(header[4:], uint16(img.Bounds().Dy()))

	pixels := img.Pix
	if compress {
		var b bytes.Buffer
		w := zlib.NewWriter(&b)
		if _, err := w.Write(pixels); err == nil && w.Close() == nil {
			header[1] |= flagCompressed
			pixels = b.Bytes()
		}
	}

	return append(header, pixels...)
}
