package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmgpace/dmgpace/internal/core"
	"github.com/dmgpace/dmgpace/internal/video"
	"github.com/dmgpace/dmgpace/pkg/log"
)

type fakeEngine struct {
	title   string
	loadErr error

	loads    int
	advances int
	closes   int

	framebuffer func() []video.Shade
}

func (e *fakeEngine) Load(path string) (string, error) {
	e.loads++
	if e.loadErr != nil {
		return "", e.loadErr
	}
	return e.title, nil
}

func (e *fakeEngine) AdvanceFrame() {
	e.advances++
}

func (e *fakeEngine) Framebuffer() []video.Shade {
	if e.framebuffer != nil {
		return e.framebuffer()
	}
	return make([]video.Shade, video.BufferSize)
}

func (e *fakeEngine) Close() error {
	e.closes++
	return nil
}

type manualClock struct {
	t time.Time
}

func (c *manualClock) now() time.Time {
	return c.t
}

func (c *manualClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

// frameStep comfortably exceeds one frame quantum (~16.742ms), so one
// advance of the clock schedules exactly one frame.
const frameStep = 17 * time.Millisecond

func writeTestROM(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.gb")
	if err := os.WriteFile(path, make([]byte, 0x8000), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestSession(engine *fakeEngine) (*Session, *manualClock) {
	clock := &manualClock{t: time.Unix(0, 0)}
	s := New(
		func() core.Engine { return engine },
		WithClock(clock.now),
		WithLogger(log.NewNullLogger()),
	)
	return s, clock
}

func TestLoadROM(t *testing.T) {
	t.Run("returns the embedded title and arms the pacer", func(t *testing.T) {
		engine := &fakeEngine{title: "TETRIS"}
		s, clock := newTestSession(engine)

		title, err := s.LoadROM(writeTestROM(t))
		if err != nil {
			t.Fatal(err)
		}
		if title != "TETRIS" {
			t.Errorf("expected title TETRIS, got %q", title)
		}
		if !s.Loaded() {
			t.Error("expected session to be Loaded")
		}

		clock.advance(frameStep)
		s.Tick()
		if engine.advances != 1 {
			t.Errorf("expected 1 frame advance after loading, got %d", engine.advances)
		}
	})
	t.Run("nonexistent path leaves the session disarmed", func(t *testing.T) {
		engine := &fakeEngine{title: "TETRIS"}
		s, clock := newTestSession(engine)

		if _, err := s.LoadROM("does/not/exist.gb"); err == nil {
			t.Fatal("expected an error for a nonexistent path")
		}
		if s.Loaded() {
			t.Error("expected session to stay Unloaded")
		}
		if engine.loads != 0 {
			t.Error("expected the engine to never see the failed load")
		}

		clock.advance(frameStep)
		s.Tick()
		if engine.advances != 0 {
			t.Errorf("expected no frame advances while disarmed, got %d", engine.advances)
		}
	})
	t.Run("image shorter than the header is rejected", func(t *testing.T) {
		engine := &fakeEngine{}
		s, _ := newTestSession(engine)

		path := filepath.Join(t.TempDir(), "tiny.gb")
		if err := os.WriteFile(path, make([]byte, 16), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := s.LoadROM(path); !errors.Is(err, ErrInvalidROM) {
			t.Errorf("expected ErrInvalidROM, got %v", err)
		}
	})
	t.Run("failed reload keeps the previous image running", func(t *testing.T) {
		engine := &fakeEngine{title: "TETRIS"}
		s, clock := newTestSession(engine)

		if _, err := s.LoadROM(writeTestROM(t)); err != nil {
			t.Fatal(err)
		}
		if _, err := s.LoadROM("does/not/exist.gb"); err == nil {
			t.Fatal("expected an error for a nonexistent path")
		}
		if !s.Loaded() || s.Title() != "TETRIS" {
			t.Error("expected the previous session state to survive a failed load")
		}

		clock.advance(frameStep)
		s.Tick()
		if engine.advances != 1 {
			t.Errorf("expected the previous image to keep running, got %d advances", engine.advances)
		}
	})
	t.Run("reload reuses the engine handle", func(t *testing.T) {
		engine := &fakeEngine{title: "TETRIS"}
		s, _ := newTestSession(engine)

		rom := writeTestROM(t)
		if _, err := s.LoadROM(rom); err != nil {
			t.Fatal(err)
		}
		if _, err := s.LoadROM(rom); err != nil {
			t.Fatal(err)
		}
		if engine.loads != 2 {
			t.Errorf("expected 2 loads on the same handle, got %d", engine.loads)
		}
	})
}

func TestTick(t *testing.T) {
	t.Run("presents a frame", func(t *testing.T) {
		engine := &fakeEngine{title: "TETRIS"}
		s, clock := newTestSession(engine)
		if _, err := s.LoadROM(writeTestROM(t)); err != nil {
			t.Fatal(err)
		}

		clock.advance(frameStep)
		s.Tick()

		img := s.Screenshot()
		if img == nil {
			t.Fatal("expected a presented image after one frame")
		}
		if img.Bounds().Dx() != video.ScreenWidth || img.Bounds().Dy() != video.ScreenHeight {
			t.Errorf("expected %dx%d image at zoom 1, got %dx%d",
				video.ScreenWidth, video.ScreenHeight, img.Bounds().Dx(), img.Bounds().Dy())
		}
	})
	t.Run("framebuffer size mismatch skips the frame but keeps pacing", func(t *testing.T) {
		bad := true
		engine := &fakeEngine{title: "TETRIS"}
		engine.framebuffer = func() []video.Shade {
			if bad {
				return make([]video.Shade, 3)
			}
			return make([]video.Shade, video.BufferSize)
		}
		s, clock := newTestSession(engine)
		if _, err := s.LoadROM(writeTestROM(t)); err != nil {
			t.Fatal(err)
		}

		clock.advance(frameStep)
		s.Tick()
		if s.Screenshot() != nil {
			t.Error("expected the malformed frame to be dropped")
		}

		bad = false
		clock.advance(frameStep)
		s.Tick()
		if engine.advances != 2 {
			t.Errorf("expected pacing to continue after a dropped frame, got %d advances", engine.advances)
		}
		if s.Screenshot() == nil {
			t.Error("expected a presented image once the core recovered")
		}
	})
	t.Run("paused session does not advance", func(t *testing.T) {
		engine := &fakeEngine{title: "TETRIS"}
		s, clock := newTestSession(engine)
		if _, err := s.LoadROM(writeTestROM(t)); err != nil {
			t.Fatal(err)
		}

		s.Pause()
		clock.advance(frameStep)
		s.Tick()
		if engine.advances != 0 {
			t.Errorf("expected no advances while paused, got %d", engine.advances)
		}

		s.Resume()
		clock.advance(frameStep)
		s.Tick()
		if engine.advances != 1 {
			t.Errorf("expected 1 advance after resuming, got %d", engine.advances)
		}
	})
}

func TestSetZoom(t *testing.T) {
	t.Run("clamps", func(t *testing.T) {
		engine := &fakeEngine{}
		s, _ := newTestSession(engine)

		s.SetZoom(10)
		if z := s.Zoom(); z != MaxZoom {
			t.Errorf("expected zoom 10 to clamp to %d, got %d", MaxZoom, z)
		}
		s.SetZoom(0)
		if z := s.Zoom(); z != MinZoom {
			t.Errorf("expected zoom 0 to clamp to %d, got %d", MinZoom, z)
		}
	})
	t.Run("resizes the presented image immediately", func(t *testing.T) {
		engine := &fakeEngine{title: "TETRIS"}
		s, clock := newTestSession(engine)
		if _, err := s.LoadROM(writeTestROM(t)); err != nil {
			t.Fatal(err)
		}

		clock.advance(frameStep)
		s.Tick()

		s.SetZoom(4)
		img := s.Screenshot()
		if img == nil {
			t.Fatal("expected a presented image")
		}
		if img.Bounds().Dx() != video.ScreenWidth*4 || img.Bounds().Dy() != video.ScreenHeight*4 {
			t.Errorf("expected %dx%d image at zoom 4, got %dx%d",
				video.ScreenWidth*4, video.ScreenHeight*4, img.Bounds().Dx(), img.Bounds().Dy())
		}
	})
}

func TestClose(t *testing.T) {
	t.Run("releases the engine exactly once", func(t *testing.T) {
		engine := &fakeEngine{title: "TETRIS"}
		s, _ := newTestSession(engine)
		if _, err := s.LoadROM(writeTestROM(t)); err != nil {
			t.Fatal(err)
		}

		if err := s.Close(); err != nil {
			t.Fatal(err)
		}
		if err := s.Close(); err != nil {
			t.Fatal(err)
		}
		if engine.closes != 1 {
			t.Errorf("expected exactly 1 engine close, got %d", engine.closes)
		}
	})
	t.Run("safe when nothing was loaded", func(t *testing.T) {
		engine := &fakeEngine{}
		s, _ := newTestSession(engine)
		if err := s.Close(); err != nil {
			t.Fatal(err)
		}
		if engine.closes != 0 {
			t.Error("expected no engine to be created or closed")
		}
	})
}
