// Package display defines the interface between the session and the
// display drivers that present its output.
package display

import (
	"flag"
	"fmt"
	"image"

	"github.com/dmgpace/dmgpace/pkg/display/event"
)

// Driver is the interface that wraps the basic methods for a display
// driver.
type Driver interface {
	// Initialize attaches the driver to the session controlling it.
	Initialize(c Controller)
	// Start runs the driver until it is stopped or fails. Presented
	// images arrive on frames; session notifications arrive on events.
	Start(frames <-chan *image.RGBA, events <-chan event.Event) error
	// Stop the display driver.
	Stop() error
}

// Controller is the interface a driver uses to control the session it
// is displaying.
type Controller interface {
	// LoadROM loads the program image at the given path and returns
	// its embedded title.
	LoadROM(path string) (string, error)
	// SetZoom sets the display zoom factor, clamped to [MinZoom,
	// MaxZoom].
	SetZoom(zoom int)
	// Zoom returns the current zoom factor.
	Zoom() int
	// Loaded reports whether a program image is loaded.
	Loaded() bool
	// Pause suspends frame scheduling; Resume continues it.
	Pause()
	Resume()
	Paused() bool
	// Screenshot returns the most recently presented image, or nil if
	// nothing has been presented yet.
	Screenshot() *image.RGBA
}

// DriverOption is a display driver option, registered as a prefixed
// command line flag.
type DriverOption struct {
	Name        string // name of the option
	Default     any    // default value of the option
	Value       any    // pointer to the value of the option
	Description string // description of the option
	Type        string // "int", "bool", "string", "float"
}

// InstalledDriver is a driver that has been registered with Install.
type InstalledDriver struct {
	Name    string
	Options []DriverOption
	Driver
}

// InstalledDrivers is a list of all the installed drivers. Drivers
// register themselves by calling Install from their init().
var InstalledDrivers []*InstalledDriver

// GetDriver returns the driver with the given name, or nil if no
// driver with that name is installed. The name "auto" selects the
// first installed driver.
func GetDriver(name string) Driver {
	if name == "auto" && len(InstalledDrivers) > 0 {
		return InstalledDrivers[0]
	}
	for _, driver := range InstalledDrivers {
		if driver.Name == name {
			return driver.Driver
		}
	}

	return nil
}

// Install registers a display driver with the given name.
func Install(name string, driver Driver, options []DriverOption) {
	InstalledDrivers = append(InstalledDrivers, &InstalledDriver{
		Name:    name,
		Options: options,
		Driver:  driver,
	})
}

// RegisterFlags registers every installed driver's options with the
// flag package, prefixed with the driver's name.
func RegisterFlags() {
	for _, driver := range InstalledDrivers {
		for _, opt := range driver.Options {
			name := fmt.Sprintf("%s-%s", driver.Name, opt.Name)
			switch opt.Type {
			case "string":
				flag.StringVar(opt.Value.(*string), name, opt.Default.(string), opt.Description)
			case "bool":
				flag.BoolVar(opt.Value.(*bool), name, opt.Default.(bool), opt.Description)
			case "int":
				flag.IntVar(opt.Value.(*int), name, opt.Default.(int), opt.Description)
			case "float":
				flag.Float64Var(opt.Value.(*float64), name, opt.Default.(float64), opt.Description)
			}
		}
	}
}
