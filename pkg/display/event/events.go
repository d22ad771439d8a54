// Package event defines the events a running session publishes to its
// display driver.
package event

// Type indicates to the driver what action should be taken.
type Type int

const (
	// Quit is sent when the session is shutting down.
	Quit Type = iota
	// Title is sent when the window title should change, e.g. after a
	// program image was loaded. Data carries the new title string.
	Title
	// FrameTime is sent periodically with the recent frame step
	// durations. Data carries a []time.Duration.
	FrameTime
)

// Event is a single notification from the session to the driver.
type Event struct {
	Type Type
	Data interface{}
}
