package main

import (
	"flag"
	"fmt"
	"image"

	"github.com/dmgpace/dmgpace/internal/core"
	"github.com/dmgpace/dmgpace/internal/core/gbcore"
	"github.com/dmgpace/dmgpace/internal/session"
	"github.com/dmgpace/dmgpace/pkg/display"
	"github.com/dmgpace/dmgpace/pkg/display/event"
	"github.com/dmgpace/dmgpace/pkg/log"

	// display drivers register themselves on import
	_ "github.com/dmgpace/dmgpace/pkg/display/fyne"
	_ "github.com/dmgpace/dmgpace/pkg/display/web"
)

func main() {
	romFile := flag.String("rom", "", "Program image to load at startup")
	driverName := flag.String("driver", "auto", "The display driver to use")
	zoom := flag.Int("zoom", session.BaseZoom, fmt.Sprintf("Initial zoom factor (%d-%d)", session.MinZoom, session.MaxZoom))
	debug := flag.Bool("debug", false, "Enable debug logging")
	display.RegisterFlags()
	flag.Parse()

	logger := log.New()
	if *debug {
		logger = log.NewDebug()
	}

	sess := session.New(
		func() core.Engine { return gbcore.New() },
		session.WithLogger(logger),
		session.WithZoom(*zoom),
	)
	defer sess.Close()

	if *romFile != "" {
		title, err := sess.LoadROM(*romFile)
		if err != nil {
			logger.Fatal(err.Error())
		}
		logger.Infof("loaded %q", title)
	}

	driver := display.GetDriver(*driverName)
	if driver == nil {
		logger.Fatal("unknown display driver: " + *driverName)
	}
	driver.Initialize(sess)

	frames := make(chan *image.RGBA, 4)
	events := make(chan event.Event, 16)
	go sess.Start(frames, events)

	if err := driver.Start(frames, events); err != nil {
		logger.Fatal(err.Error())
	}

	sess.Stop()
}
