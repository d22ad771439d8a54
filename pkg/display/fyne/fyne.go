// Package fyne implements the desktop display driver. The window is
// fixed-size: its dimensions are always the native screen dimensions
// multiplied by the session's zoom factor.
package fyne

import (
	"image"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"

	"github.com/dmgpace/dmgpace/internal/video"
	"github.com/dmgpace/dmgpace/pkg/display"
	"github.com/dmgpace/dmgpace/pkg/display/event"
	"github.com/dmgpace/dmgpace/pkg/display/fyne/views"
	"github.com/dmgpace/dmgpace/pkg/log"
	"github.com/dmgpace/dmgpace/pkg/utils"
)

const appID = "com.github.dmgpace"

func init() {
	display.Install("fyne", &fyneDriver{log: log.New()}, nil)
}

type fyneDriver struct {
	app    fyne.App
	window fyne.Window
	img    *canvas.Image
	menu   *fyne.MainMenu

	ctrl display.Controller
	log  log.Logger

	// ftMu guards frameTimes: the events goroutine sends on it while
	// the fyne main goroutine opens and closes the diagnostics window
	ftMu       sync.Mutex
	frameTimes chan interface{}
}

func (d *fyneDriver) Initialize(c display.Controller) {
	d.ctrl = c
}

// Start opens the main window and blocks until it is closed.
func (d *fyneDriver) Start(frames <-chan *image.RGBA, events <-chan event.Event) error {
	d.app = app.NewWithID(appID)
	d.window = d.app.NewWindow("dmgpace")
	d.window.SetPadded(false)
	d.window.SetFixedSize(true)
	d.window.SetMaster()

	// blank surface until the first frame arrives
	zoom := d.ctrl.Zoom()
	blank := image.NewRGBA(image.Rect(0, 0, video.ScreenWidth*zoom, video.ScreenHeight*zoom))
	d.img = canvas.NewImageFromImage(blank)
	d.img.FillMode = canvas.ImageFillOriginal
	d.img.ScaleMode = canvas.ImageScalePixels
	d.window.SetContent(d.img)
	d.window.SetMainMenu(d.buildMenu())
	d.resize()

	go func() {
		for f := range frames {
			d.img.Image = f
			d.img.Refresh()
		}
	}()

	go func() {
		for e := range events {
			switch e.Type {
			case event.Quit:
				d.app.Quit()
				return
			case event.Title:
				d.window.SetTitle("dmgpace | " + e.Data.(string))
			case event.FrameTime:
				d.forwardFrameTimes(e.Data)
			}
		}
	}()

	d.window.ShowAndRun()
	return nil
}

func (d *fyneDriver) Stop() error {
	if d.app != nil {
		d.app.Quit()
	}
	return nil
}

// resize snaps the window to the current zoom factor. The surface is
// never user-resizable; its size is a function of zoom only.
func (d *fyneDriver) resize() {
	zoom := float32(d.ctrl.Zoom())
	size := fyne.NewSize(video.ScreenWidth*zoom, video.ScreenHeight*zoom)
	d.img.SetMinSize(size)
	d.window.Resize(size)
}

func (d *fyneDriver) buildMenu() *fyne.MainMenu {
	openROM := fyne.NewMenuItem("Open ROM", func() {
		path, err := utils.AskForROM()
		if err != nil {
			// dialog cancelled
			return
		}
		title, err := d.ctrl.LoadROM(path)
		if err != nil {
			d.log.Errorf("failed to load rom: %v", err)
			return
		}
		d.window.SetTitle("dmgpace | " + title)
	})

	saveShot := fyne.NewMenuItem("Save Screenshot", func() {
		img := d.ctrl.Screenshot()
		if img == nil {
			return
		}
		if err := utils.SaveImage(img); err != nil {
			d.log.Errorf("failed to save screenshot: %v", err)
		}
	})
	copyShot := fyne.NewMenuItem("Copy Screenshot", func() {
		img := d.ctrl.Screenshot()
		if img == nil {
			return
		}
		if err := utils.CopyImage(img); err != nil {
			d.log.Errorf("failed to copy screenshot: %v", err)
		}
	})

	fileMenu := fyne.NewMenu("File",
		openROM,
		fyne.NewMenuItemSeparator(),
		saveShot,
		copyShot,
	)

	pause := fyne.NewMenuItem("Pause", nil)
	pause.Action = func() {
		d.togglePause(pause)
		d.menu.Refresh()
	}
	emuMenu := fyne.NewMenu("Emulation", pause)

	zoomMenu := fyne.NewMenu("Zoom",
		fyne.NewMenuItem("Zoom In", func() {
			d.ctrl.SetZoom(d.ctrl.Zoom() + 1)
			d.resize()
		}),
		fyne.NewMenuItem("Zoom Out", func() {
			d.ctrl.SetZoom(d.ctrl.Zoom() - 1)
			d.resize()
		}),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Reset Zoom", func() {
			d.ctrl.SetZoom(1)
			d.resize()
		}),
	)

	debugMenu := fyne.NewMenu("Debug",
		fyne.NewMenuItem("Frame Times", func() {
			d.openFrameTimes()
		}),
	)

	d.menu = fyne.NewMainMenu(fileMenu, emuMenu, zoomMenu, debugMenu)
	return d.menu
}

// togglePause flips the session between paused and running and updates
// the menu item label to the action that is now available. The caller
// refreshes the menu so the new label is repainted.
func (d *fyneDriver) togglePause(item *fyne.MenuItem) {
	if d.ctrl.Paused() {
		d.ctrl.Resume()
		item.Label = "Pause"
	} else {
		d.ctrl.Pause()
		item.Label = "Resume"
	}
}

// subscribeFrameTimes opens the frame time feed, or returns nil if it
// is already open.
func (d *fyneDriver) subscribeFrameTimes() chan interface{} {
	d.ftMu.Lock()
	defer d.ftMu.Unlock()
	if d.frameTimes != nil {
		return nil
	}
	d.frameTimes = make(chan interface{}, 1)
	return d.frameTimes
}

// forwardFrameTimes hands a FrameTime payload to the diagnostics
// window, dropping it when the window is closed or not keeping up.
func (d *fyneDriver) forwardFrameTimes(data interface{}) {
	d.ftMu.Lock()
	defer d.ftMu.Unlock()
	if d.frameTimes == nil {
		return
	}
	select {
	case d.frameTimes <- data:
	default:
	}
}

// closeFrameTimes closes the frame time feed. The close happens under
// the same lock the forwarder sends under, so a payload in flight can
// never land on the closed channel.
func (d *fyneDriver) closeFrameTimes() {
	d.ftMu.Lock()
	defer d.ftMu.Unlock()
	if d.frameTimes == nil {
		return
	}
	close(d.frameTimes)
	d.frameTimes = nil
}

// openFrameTimes opens the frame time diagnostics window, fed by the
// session's periodic FrameTime events.
func (d *fyneDriver) openFrameTimes() {
	feed := d.subscribeFrameTimes()
	if feed == nil {
		// already open
		return
	}

	view := &views.FrameTimes{}
	w := d.app.NewWindow(view.Title())
	w.SetOnClosed(d.closeFrameTimes)
	w.Show()

	if err := view.Run(w, feed); err != nil {
		d.log.Errorf("frame time view: %v", err)
	}
}
