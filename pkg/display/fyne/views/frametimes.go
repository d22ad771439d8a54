package views

import (
	"image"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// FrameTimes plots the duration of recent frame steps, showing how far
// below the frame quantum the emulation runs.
type FrameTimes struct {
}

func (f *FrameTimes) Title() string {
	return "Frame Times"
}

// Run draws the plot into the given window and keeps it up to date
// from the data channel, which carries []time.Duration payloads.
func (f *FrameTimes) Run(window fyne.Window, data <-chan interface{}) error {
	p := plot.New()
	p.Title.Text = "Frame Time"
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "ms"

	line, err := plotter.NewLine(make(plotter.XYs, 100))
	if err != nil {
		return err
	}
	p.Add(line)

	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	c := vgimg.NewWith(vgimg.UseImage(img))
	p.Draw(draw.New(c))

	raster := canvas.NewRasterFromImage(c.Image())
	raster.ScaleMode = canvas.ImageScalePixels
	raster.SetMinSize(fyne.NewSize(640, 480))
	window.SetContent(raster)

	go func() {
		for d := range data {
			times, ok := d.([]time.Duration)
			if !ok {
				continue
			}

			for i, ft := range times {
				if i >= len(line.XYs) {
					break
				}
				line.XYs[i].X = float64(i)
				line.XYs[i].Y = float64(ft.Microseconds()) / 1000
			}

			p.Draw(draw.New(c))
			raster.Refresh()
		}
	}()

	return nil
}
