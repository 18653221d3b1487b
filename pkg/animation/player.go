package animation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MrWong99/mouthpiece/pkg/viseme"
)

// ErrStopped is returned by [Player.Run] when the run was stopped or replaced
// by a newer [Player.Start].
var ErrStopped = errors.New("animation: playback stopped")

// State is the playback state of a [Player].
type State int

const (
	Idle State = iota
	Delaying
	Playing
	Complete
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Delaying:
		return "delaying"
	case Playing:
		return "playing"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// Clock abstracts wall-clock time for tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Player advances through a timeline by comparing elapsed wall-clock time to
// entry boundaries. Starting a new run always resets the current one. All
// methods are safe for concurrent use.
type Player struct {
	clock Clock

	mu       sync.Mutex
	timeline Timeline
	delay    time.Duration
	started  time.Time
	state    State
	run      uint64
}

// PlayerOption is a functional option for [NewPlayer].
type PlayerOption func(*Player)

// WithClock sets the clock the player reads. The default is the system
// clock.
func WithClock(c Clock) PlayerOption {
	return func(p *Player) { p.clock = c }
}

// NewPlayer returns an idle player.
func NewPlayer(opts ...PlayerOption) *Player {
	p := &Player{clock: systemClock{}}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Start resets any current run and begins a new one. Frames start after
// delay; a zero delay enters [Playing] immediately.
func (p *Player) Start(tl Timeline, delay time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.run++
	p.timeline = tl
	p.delay = max(delay, 0)
	p.started = p.clock.Now()
	p.state = Delaying
	if p.delay == 0 {
		p.state = Playing
	}
}

// Stop returns the player to [Idle]. Calling Stop repeatedly is harmless.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == Idle {
		return
	}
	p.run++
	p.timeline = nil
	p.state = Idle
}

// State returns the current state without advancing it.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Tick advances the state machine to the current time and returns the state
// and the frame to display.
func (p *Player) Tick() (State, viseme.Frame) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tickLocked()
}

func (p *Player) tickLocked() (State, viseme.Frame) {
	switch p.state {
	case Idle, Complete:
		return p.state, viseme.Neutral
	}

	elapsed := p.clock.Now().Sub(p.started) - p.delay
	if elapsed < 0 {
		return Delaying, viseme.Neutral
	}
	p.state = Playing

	ms := int(elapsed / time.Millisecond)
	if ms >= p.timeline.Duration() {
		p.state = Complete
		return Complete, viseme.Neutral
	}
	f, _ := p.timeline.FrameAt(ms)
	return Playing, f
}

// Run starts tl and drives the player every interval, calling onFrame each
// time the displayed frame changes. It returns nil once playback completes,
// [ErrStopped] if the run is stopped or superseded, or the context error.
func (p *Player) Run(ctx context.Context, tl Timeline, delay, interval time.Duration, onFrame func(viseme.Frame)) error {
	p.Start(tl, delay)
	p.mu.Lock()
	run := p.run
	p.mu.Unlock()

	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := viseme.Frame(-1)
	for {
		p.mu.Lock()
		if p.run != run {
			p.mu.Unlock()
			return ErrStopped
		}
		state, f := p.tickLocked()
		p.mu.Unlock()

		if f != last && onFrame != nil {
			onFrame(f)
		}
		last = f
		if state == Complete {
			return nil
		}

		select {
		case <-ctx.Done():
			p.mu.Lock()
			if p.run == run {
				p.run++
				p.timeline = nil
				p.state = Idle
			}
			p.mu.Unlock()
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
