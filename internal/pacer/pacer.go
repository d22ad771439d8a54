// Package pacer decouples the host's irregular timer cadence from the
// emulated hardware's fixed frame rate. Elapsed wall time is collected
// into an accumulator that is drained in whole frame quanta, so the
// emulated clock is matched exactly on average no matter how unevenly
// the host delivers timing signals.
package pacer

import "time"

const (
	// ClockSpeed is the clock speed of the emulated CPU.
	ClockSpeed = 4194304 // 4.194304 MHz
	// CyclesPerFrame is the number of clock cycles per frame.
	CyclesPerFrame = 70224
	// Quantum is the real-time duration of one emulated frame in
	// seconds, ~16.742ms.
	Quantum = float64(CyclesPerFrame) / float64(ClockSpeed)
	// MaxPendingQuanta bounds how many frames a single tick may owe.
	// If the host stalls for longer than this (e.g. the process was
	// suspended) the excess backlog is dropped rather than replayed,
	// which would otherwise stall the host loop even further.
	MaxPendingQuanta = 5

	// frameTimeWindow is the number of recent frame durations kept for
	// the diagnostics view.
	frameTimeWindow = 100
)

// Pacer drains elapsed wall time in fixed frame quanta. It starts
// disarmed; ticks are no-ops until Arm is called.
type Pacer struct {
	accumulator float64
	last        time.Time
	armed       bool

	now func() time.Time

	frameTimes [frameTimeWindow]time.Duration
	frameIdx   int
}

// Opt configures a Pacer.
type Opt func(*Pacer)

// WithClock replaces the wall-clock source. Used by tests to feed the
// pacer a deterministic sequence of timestamps.
func WithClock(now func() time.Time) Opt {
	return func(p *Pacer) {
		p.now = now
	}
}

// New returns a disarmed pacer.
func New(opts ...Opt) *Pacer {
	p := &Pacer{
		now: time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Arm zeroes the accumulator, reseeds the timestamp and starts
// scheduling frames on subsequent ticks.
func (p *Pacer) Arm() {
	p.accumulator = 0
	p.last = p.now()
	p.armed = true
}

// Disarm stops the pacer; subsequent ticks are no-ops until the next
// Arm.
func (p *Pacer) Disarm() {
	p.armed = false
}

// Armed reports whether ticks currently schedule frames.
func (p *Pacer) Armed() bool {
	return p.armed
}

// Tick performs one pacing pass: it reads the clock, adds the elapsed
// time to the accumulator and invokes step once per whole quantum owed.
// render is true only on the final step of the pass, so a catch-up
// burst renders once instead of once per frame. Returns the number of
// steps taken.
func (p *Pacer) Tick(step func(render bool)) int {
	if !p.armed {
		return 0
	}

	now := p.now()
	p.accumulator += now.Sub(p.last).Seconds()
	p.last = now

	if max := Quantum * MaxPendingQuanta; p.accumulator > max {
		p.accumulator = max
	}

	steps := 0
	for p.accumulator >= Quantum {
		p.accumulator -= Quantum

		start := time.Now()
		step(p.accumulator < Quantum)
		p.recordFrameTime(time.Since(start))

		steps++
	}

	return steps
}

func (p *Pacer) recordFrameTime(d time.Duration) {
	p.frameTimes[p.frameIdx] = d
	p.frameIdx = (p.frameIdx + 1) % frameTimeWindow
}

// FrameTimes returns a copy of the most recent frame step durations,
// oldest first.
func (p *Pacer) FrameTimes() []time.Duration {
	times := make([]time.Duration, frameTimeWindow)
	for i := 0; i < frameTimeWindow; i++ {
		times[i] = p.frameTimes[(p.frameIdx+i)%frameTimeWindow]
	}
	return times
}
