package animation_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/MrWong99/mouthpiece/pkg/animation"
	"github.com/MrWong99/mouthpiece/pkg/phoneme"
	"github.com/MrWong99/mouthpiece/pkg/viseme"
)

func resolver() *viseme.Resolver {
	return viseme.NewResolver(viseme.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestBuild_TwoUnits(t *testing.T) {
	t.Parallel()

	tl := animation.NewBuilder().Build(resolver(), phoneme.NewSequence("m", "a"), 150, 100)
	want := [][2]int{{0, 100}, {100, 250}, {250, 400}, {400, 500}}
	if len(tl) != len(want) {
		t.Fatalf("len = %d, want %d: %+v", len(tl), len(want), tl)
	}
	for i, w := range want {
		if tl[i].StartMs != w[0] || tl[i].EndMs != w[1] {
			t.Errorf("entry %d = [%d,%d], want %v", i, tl[i].StartMs, tl[i].EndMs, w)
		}
	}
	if tl.Duration() != 500 {
		t.Errorf("Duration() = %d, want 500", tl.Duration())
	}
	if tl[0].Frame != viseme.Neutral || tl[3].Frame != viseme.Neutral {
		t.Error("timeline must start and end neutral")
	}
	if tl[1].Frame != viseme.BMP || tl[2].Frame != viseme.Ah {
		t.Errorf("frames = %v, %v", tl[1].Frame, tl[2].Frame)
	}
	if !tl.Contiguous() {
		t.Error("timeline not contiguous")
	}
}

func TestBuild_PauseUsesPauseDuration(t *testing.T) {
	t.Parallel()

	b := animation.NewBuilder()
	tl := b.Build(resolver(), phoneme.NewSequence("a", phoneme.Pause, "m"), 150, 100)
	if len(tl) != 5 {
		t.Fatalf("len = %d, want 5", len(tl))
	}
	if tl[2].Frame != viseme.Neutral || tl[2].DurationMs() != animation.DefaultPauseMs {
		t.Errorf("pause entry = %+v", tl[2])
	}
	if tl.Duration() != 100+150+300+150+100 {
		t.Errorf("Duration() = %d", tl.Duration())
	}

	custom := animation.NewBuilder(animation.WithPauseMs(50))
	if got := custom.Build(resolver(), phoneme.NewSequence(","), 150, 0)[1].DurationMs(); got != 50 {
		t.Errorf("custom pause = %d, want 50", got)
	}
}

func TestBuild_Empty(t *testing.T) {
	t.Parallel()

	tl := animation.NewBuilder().Build(resolver(), nil, 150, 100)
	if len(tl) != 2 || tl.Duration() != 200 || !tl.Contiguous() {
		t.Errorf("Build(nil) = %+v", tl)
	}
	neg := animation.NewBuilder().Build(resolver(), phoneme.NewSequence("a"), -5, -5)
	if neg.Duration() != 0 || !neg.Contiguous() {
		t.Errorf("negative durations not clamped: %+v", neg)
	}
}

func TestBuildLetter(t *testing.T) {
	t.Parallel()

	tl := animation.NewBuilder().BuildLetter(resolver(), "m")
	wantFrames := []viseme.Frame{viseme.Neutral, viseme.BMP, viseme.Ah, viseme.Neutral}
	if len(tl) != 4 {
		t.Fatalf("len = %d", len(tl))
	}
	for i, f := range wantFrames {
		if tl[i].Frame != f {
			t.Errorf("entry %d frame = %v, want %v", i, tl[i].Frame, f)
		}
	}
	want := animation.LetterLeadMs + animation.LetterConsonantMs + animation.LetterVowelMs + animation.LetterTailMs
	if tl.Duration() != want || !tl.Contiguous() {
		t.Errorf("Duration() = %d, want %d", tl.Duration(), want)
	}
}

func TestFrameAt(t *testing.T) {
	t.Parallel()

	tl := animation.NewBuilder().Build(resolver(), phoneme.NewSequence("m", "a"), 150, 100)
	tests := []struct {
		ms    int
		frame viseme.Frame
		idx   int
	}{
		{-1, viseme.Neutral, -1},
		{0, viseme.Neutral, 0},
		{99, viseme.Neutral, 0},
		{100, viseme.BMP, 1},
		{249, viseme.BMP, 1},
		{250, viseme.Ah, 2},
		{499, viseme.Neutral, 3},
		{500, viseme.Neutral, -1},
	}
	for _, tt := range tests {
		f, i := tl.FrameAt(tt.ms)
		if f != tt.frame || i != tt.idx {
			t.Errorf("FrameAt(%d) = %v, %d, want %v, %d", tt.ms, f, i, tt.frame, tt.idx)
		}
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestPlayer_StateMachine(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(0, 0)}
	p := animation.NewPlayer(animation.WithClock(clock))
	if p.State() != animation.Idle {
		t.Fatalf("initial state = %v", p.State())
	}
	if s, f := p.Tick(); s != animation.Idle || f != viseme.Neutral {
		t.Errorf("idle Tick() = %v, %v", s, f)
	}

	tl := animation.NewBuilder().Build(resolver(), phoneme.NewSequence("m", "a"), 150, 100)
	p.Start(tl, 50*time.Millisecond)
	if s, _ := p.Tick(); s != animation.Delaying {
		t.Errorf("state after Start = %v, want delaying", s)
	}

	clock.Advance(50*time.Millisecond + 120*time.Millisecond)
	if s, f := p.Tick(); s != animation.Playing || f != viseme.BMP {
		t.Errorf("Tick() at 120ms = %v, %v", s, f)
	}

	clock.Advance(400 * time.Millisecond)
	if s, _ := p.Tick(); s != animation.Complete {
		t.Errorf("Tick() after end = %v, want complete", s)
	}
	if s, _ := p.Tick(); s != animation.Complete {
		t.Errorf("Complete must be sticky, got %v", s)
	}

	p.Stop()
	p.Stop()
	if p.State() != animation.Idle {
		t.Errorf("state after Stop = %v", p.State())
	}
}

func TestPlayer_StartResetsRun(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(0, 0)}
	p := animation.NewPlayer(animation.WithClock(clock))
	tl := animation.NewBuilder().Build(resolver(), phoneme.NewSequence("m"), 150, 100)

	p.Start(tl, 0)
	clock.Advance(120 * time.Millisecond)
	if _, f := p.Tick(); f != viseme.BMP {
		t.Fatalf("frame = %v, want bmp", f)
	}

	p.Start(tl, 0)
	if s, f := p.Tick(); s != animation.Playing || f != viseme.Neutral {
		t.Errorf("restarted Tick() = %v, %v, want playing neutral", s, f)
	}
}

func TestPlayer_RunCompletes(t *testing.T) {
	t.Parallel()

	p := animation.NewPlayer()
	tl := animation.Timeline{{Frame: viseme.Ah, StartMs: 0, EndMs: 20}}

	var frames []viseme.Frame
	err := p.Run(context.Background(), tl, 0, time.Millisecond, func(f viseme.Frame) {
		frames = append(frames, f)
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if p.State() != animation.Complete {
		t.Errorf("state = %v, want complete", p.State())
	}
	if len(frames) == 0 || frames[len(frames)-1] != viseme.Neutral {
		t.Errorf("frames = %v, want to end on neutral", frames)
	}
}

func TestPlayer_RunStopped(t *testing.T) {
	t.Parallel()

	p := animation.NewPlayer()
	tl := animation.Timeline{{Frame: viseme.Ah, StartMs: 0, EndMs: 10_000}}

	errCh := make(chan error, 1)
	started := make(chan struct{})
	var once sync.Once
	go func() {
		errCh <- p.Run(context.Background(), tl, 0, time.Millisecond, func(viseme.Frame) {
			once.Do(func() { close(started) })
		})
	}()
	<-started
	p.Stop()

	select {
	case err := <-errCh:
		if !errors.Is(err, animation.ErrStopped) {
			t.Errorf("Run() error = %v, want ErrStopped", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
}

func TestPlayer_RunContextCancelled(t *testing.T) {
	t.Parallel()

	p := animation.NewPlayer()
	tl := animation.Timeline{{Frame: viseme.Ah, StartMs: 0, EndMs: 10_000}}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := p.Run(ctx, tl, 0, time.Millisecond, nil); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() error = %v, want deadline exceeded", err)
	}
	if p.State() != animation.Idle {
		t.Errorf("state = %v, want idle", p.State())
	}
}
