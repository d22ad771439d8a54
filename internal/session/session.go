// Package session owns one emulation core instance and drives it at
// the emulated hardware's fixed frame rate, publishing presented
// images to a display driver.
package session

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sync"
	"time"

	"github.com/dmgpace/dmgpace/internal/core"
	"github.com/dmgpace/dmgpace/internal/pacer"
	"github.com/dmgpace/dmgpace/internal/video"
	"github.com/dmgpace/dmgpace/pkg/display/event"
	"github.com/dmgpace/dmgpace/pkg/log"
	"github.com/dmgpace/dmgpace/pkg/utils"
)

const (
	// MinZoom and MaxZoom bound the display zoom factor. Requests
	// outside the range are clamped, never rejected.
	MinZoom = 1
	MaxZoom = 8
	// BaseZoom is the zoom factor a fresh session starts with.
	BaseZoom = 1

	// headerEnd is the offset at which the cartridge header ends; any
	// valid program image is at least this long.
	headerEnd = 0x0150

	// tickInterval is the cadence of the host timing signal driving
	// the pacing loop. The accumulator absorbs its jitter, so the
	// exact value only bounds latency, not emulation speed.
	tickInterval = time.Millisecond * 4
)

// ErrInvalidROM is returned when a program image is too short to carry
// a cartridge header.
var ErrInvalidROM = errors.New("invalid program image")

// State is the lifecycle state of a session.
type State int

const (
	// Unloaded means no program image has been loaded; the pacing
	// loop is disarmed.
	Unloaded State = iota
	// Loaded means a program image is running.
	Loaded
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "Unloaded"
	case Loaded:
		return "Loaded"
	default:
		return "Unknown"
	}
}

// Session wraps one core instance and its pacing state. All mutating
// operations serialise on one mutex, so loading a new image always
// happens between pacing passes, never inside one.
type Session struct {
	mu sync.Mutex

	engine    core.Engine
	newEngine func() core.Engine

	pacer  *pacer.Pacer
	scaler *video.Scaler

	state  State
	paused bool
	title  string
	zoom   int

	lastRaster []byte
	lastImage  *image.RGBA

	frames chan<- *image.RGBA
	events chan<- event.Event

	stop     chan struct{}
	stopOnce sync.Once

	log log.Logger
}

// Opt configures a Session.
type Opt func(*Session)

// WithLogger replaces the default logger.
func WithLogger(l log.Logger) Opt {
	return func(s *Session) {
		s.log = l
	}
}

// WithZoom sets the initial zoom factor, clamped like SetZoom.
func WithZoom(zoom int) Opt {
	return func(s *Session) {
		s.zoom = clampZoom(zoom)
	}
}

// WithClock replaces the pacing clock. Used by tests.
func WithClock(now func() time.Time) Opt {
	return func(s *Session) {
		s.pacer = pacer.New(pacer.WithClock(now))
	}
}

// New returns a session in the Unloaded state. newEngine is called at
// most once, on the first successful call to LoadROM; the instance it
// returns is reused across reloads and released by Close.
func New(newEngine func() core.Engine, opts ...Opt) *Session {
	s := &Session{
		newEngine: newEngine,
		pacer:     pacer.New(),
		scaler:    video.NewScaler(),
		zoom:      BaseZoom,
		stop:      make(chan struct{}),
		log:       log.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadROM loads the program image at path into the core and returns
// the title embedded in its header. On success the pacing loop is
// armed and the session transitions to Loaded. On failure the previous
// state is left untouched: a running image keeps running, and a
// session that never loaded stays Unloaded with the pacer disarmed.
func (s *Session) LoadROM(path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rom, err := utils.LoadFile(path)
	if err != nil {
		return "", fmt.Errorf("load rom: %w", err)
	}
	if len(rom) < headerEnd {
		return "", fmt.Errorf("%w: %d bytes, header needs %d", ErrInvalidROM, len(rom), headerEnd)
	}

	// the core contract takes a path to a plain image, so archives
	// are staged to a temporary file after decompression
	loadPath := path
	if utils.Compressed(path) {
		tmp, err := os.CreateTemp("", "dmgpace-*.gb")
		if err != nil {
			return "", fmt.Errorf("stage rom: %w", err)
		}
		defer os.Remove(tmp.Name())
		if _, err := tmp.Write(rom); err != nil {
			tmp.Close()
			return "", fmt.Errorf("stage rom: %w", err)
		}
		if err := tmp.Close(); err != nil {
			return "", fmt.Errorf("stage rom: %w", err)
		}
		loadPath = tmp.Name()
	}

	if s.engine == nil {
		s.engine = s.newEngine()
	}

	title, err := s.engine.Load(loadPath)
	if err != nil {
		return "", fmt.Errorf("load rom: %w", err)
	}

	s.title = title
	s.state = Loaded
	s.paused = false
	s.lastRaster = nil
	s.lastImage = nil
	s.pacer.Arm()

	s.log.Infof("loaded %q from %s", title, path)
	s.notify(event.Event{Type: event.Title, Data: title})

	return title, nil
}

// Tick performs one pacing pass: every whole frame quantum of elapsed
// wall time advances the core by one frame, and the final frame of the
// pass is converted, scaled and published. Ticks while Unloaded or
// paused do nothing.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Loaded || s.paused {
		return
	}

	s.pacer.Tick(s.step)
}

func (s *Session) step(render bool) {
	s.engine.AdvanceFrame()
	if !render {
		return
	}

	raster, err := video.Raster(s.engine.Framebuffer())
	if err != nil {
		// contract violation by the core; skip this frame but keep
		// the loop alive
		s.log.Errorf("dropping frame: %v", err)
		return
	}

	s.lastRaster = raster
	s.present(raster)
}

func (s *Session) present(raster []byte) {
	img := s.scaler.Scale(raster, s.zoom)
	s.lastImage = img

	if s.frames == nil {
		return
	}
	select {
	case s.frames <- img:
	default:
		// drop the frame rather than stall the pacing loop
	}
}

// SetZoom sets the zoom factor, clamped to [MinZoom, MaxZoom]. The new
// size takes effect immediately: the last presented frame is re-scaled
// and re-published, even while paused.
func (s *Session) SetZoom(zoom int) {
	zoom = clampZoom(zoom)

	s.mu.Lock()
	defer s.mu.Unlock()

	if zoom == s.zoom {
		return
	}
	s.zoom = zoom

	if s.lastRaster != nil {
		s.present(s.lastRaster)
	}
}

// Zoom returns the current zoom factor.
func (s *Session) Zoom() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zoom
}

func clampZoom(zoom int) int {
	if zoom < MinZoom {
		return MinZoom
	}
	if zoom > MaxZoom {
		return MaxZoom
	}
	return zoom
}

// Pause suspends frame scheduling.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
}

// Resume continues frame scheduling. The pacer is re-armed so the time
// spent paused is not replayed as a catch-up burst.
func (s *Session) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Loaded || !s.paused {
		return
	}
	s.paused = false
	s.pacer.Arm()
}

// Paused reports whether frame scheduling is suspended.
func (s *Session) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Loaded reports whether a program image is loaded.
func (s *Session) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Loaded
}

// Title returns the title of the loaded program image, or the empty
// string while Unloaded.
func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

// Screenshot returns the most recently presented image, or nil if
// nothing has been presented yet.
func (s *Session) Screenshot() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastImage
}

// Start drives the pacing loop until Stop is called. Presented images
// are sent on frames; title changes, frame time reports and the final
// quit notification are sent on events. Both sends are non-blocking: a
// slow driver drops frames, it never stalls pacing.
func (s *Session) Start(frames chan<- *image.RGBA, events chan<- event.Event) {
	s.mu.Lock()
	s.frames = frames
	s.events = events
	s.mu.Unlock()

	tick := time.NewTicker(tickInterval)
	defer tick.Stop()
	report := time.NewTicker(time.Second)
	defer report.Stop()

	for {
		select {
		case <-s.stop:
			s.notify(event.Event{Type: event.Quit})
			return
		case <-tick.C:
			s.Tick()
		case <-report.C:
			s.mu.Lock()
			running := s.state == Loaded && !s.paused
			var times []time.Duration
			if running {
				times = s.pacer.FrameTimes()
			}
			s.mu.Unlock()
			if running {
				s.notify(event.Event{Type: event.FrameTime, Data: times})
			}
		}
	}
}

// Stop halts the pacing loop: no further ticks are scheduled. Safe to
// call more than once and before Start.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

// Close stops the pacing loop and releases the core instance exactly
// once. Safe to call when nothing was ever loaded.
func (s *Session) Close() error {
	s.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Unloaded
	s.pacer.Disarm()

	if s.engine == nil {
		return nil
	}
	err := s.engine.Close()
	s.engine = nil
	return err
}

func (s *Session) notify(e event.Event) {
	if s.events == nil {
		return
	}
	select {
	case s.events <- e:
	default:
	}
}
