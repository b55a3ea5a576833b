package backdrop

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

// stepClock advances one 60 Hz frame every time it is read.
type stepClock struct {
	t time.Duration
}

func (c *stepClock) Elapsed() time.Duration {
	c.t += time.Second / 60
	return c.t
}

type countRenderer struct {
	n    int
	last Frame
}

func (r *countRenderer) Render(f Frame) error {
	r.n++
	r.last = f
	return nil
}

func newTestDriver(t *testing.T, cfg Config, r Renderer, opts ...Option) *Driver {
	t.Helper()
	opts = append([]Option{WithClock(&stepClock{})}, opts...)
	d, err := NewDriver(cfg, r, opts...)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	return d
}

func TestNewDriverWithoutSurface(t *testing.T) {
	_, err := NewDriver(DefaultConfig(), nil)
	var ie *InitializationError
	if !errors.As(err, &ie) {
		t.Fatalf("err = %v, want InitializationError", err)
	}
	if !errors.Is(err, ErrNoSurface) {
		t.Fatalf("err = %v, want ErrNoSurface", err)
	}
}

func TestNewDriverInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScrollAlpha = 2
	_, err := NewDriver(cfg, &countRenderer{})
	var ie *InitializationError
	if !errors.As(err, &ie) || !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("err = %v", err)
	}
}

func TestTickRendersOnce(t *testing.T) {
	r := &countRenderer{}
	d := newTestDriver(t, DefaultConfig(), r)
	for i := 1; i <= 5; i++ {
		if err := d.Tick(); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		if r.n != i || r.last.Tick != uint64(i) {
			t.Fatalf("after tick %d: %d renders, frame %d", i, r.n, r.last.Tick)
		}
	}
	if d.Ticks() != 5 {
		t.Fatalf("Ticks() = %d", d.Ticks())
	}
	if got := len(r.last.Entities); got != 3 {
		t.Fatalf("frame entities = %d", got)
	}
	if len(r.last.Particles) != 700 {
		t.Fatalf("frame particles = %d", len(r.last.Particles))
	}
}

func TestTickNotReentrant(t *testing.T) {
	var d *Driver
	var inner error
	r := RendererFunc(func(Frame) error {
		inner = d.Tick()
		return nil
	})
	d = newTestDriver(t, DefaultConfig(), r)
	if err := d.Tick(); err != nil {
		t.Fatalf("outer tick: %v", err)
	}
	if !errors.Is(inner, ErrTickInFlight) {
		t.Fatalf("inner tick = %v", inner)
	}
}

func TestTickRenderError(t *testing.T) {
	boom := errors.New("lost context")
	d := newTestDriver(t, DefaultConfig(), RendererFunc(func(Frame) error { return boom }))
	if err := d.Tick(); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestPointerRotationConverges(t *testing.T) {
	d := newTestDriver(t, DefaultConfig(), &countRenderer{})
	in := d.Input()

	in.OnPointerMove(0, 0)
	for i := 0; i < 100; i++ {
		d.Tick()
	}
	if p := d.PointerRotation(); p.Yaw != 0 || p.Pitch != 0 {
		t.Fatalf("centred pointer rotated: %+v", p)
	}

	in.OnPointerMove(500, 0)
	limit := 500 * d.Config().PointerScale
	prev := 0.0
	for i := 0; i < 300; i++ {
		d.Tick()
		yaw := d.PointerRotation().Yaw
		if yaw < prev || yaw > limit {
			t.Fatalf("tick %d: yaw %v after %v", i, yaw, prev)
		}
		prev = yaw
	}
	if math.Abs(prev-limit) > 1e-4 {
		t.Fatalf("yaw settled at %v, want ~0.5", prev)
	}
	if d.PointerRotation().Pitch != 0 {
		t.Fatalf("horizontal pointer moved pitch")
	}

}

func TestDriverThreshold(t *testing.T) {
	r := &countRenderer{}
	d := newTestDriver(t, DefaultConfig(), r)
	d.Input().OnScroll(100)
	for i := 0; i < 500; i++ {
		d.Tick()
	}
	if d.Mode() != Near {
		t.Fatalf("scroll at threshold gave %v", d.Mode())
	}
	if s := d.SmoothedScroll(); s > 100 {
		t.Fatalf("smoothed scroll overshot: %v", s)
	}

	d.Input().OnScroll(600)
	for i := 0; i < 200; i++ {
		d.Tick()
	}
	if d.Mode() != Far || r.last.Mode != Far {
		t.Fatalf("mode = %v", d.Mode())
	}
	hero := d.Scene().Entities[1]
	if hero.Anchor.X != 4 || hero.Opacity != 0 {
		t.Fatalf("hero far pose x=%v opacity=%v", hero.Anchor.X, hero.Opacity)
	}
	if math.Abs(r.last.Camera.Position.Y+d.SmoothedScroll()*0.005) > 1e-12 {
		t.Fatalf("camera y = %v", r.last.Camera.Position.Y)
	}
}

type recordObserver struct {
	stats []TickStats
}

func (o *recordObserver) ObserveTick(s TickStats) {
	o.stats = append(o.stats, s)
}

func TestReconfigureAtTickBoundary(t *testing.T) {
	r := &countRenderer{}
	obs := &recordObserver{}
	hero, _ := Preset("hero")
	d := newTestDriver(t, hero, r, WithObserver(obs))
	d.Resize(800, 600, 3)
	d.Tick()

	if err := d.Reconfigure(DefaultConfig()); err != nil {
		t.Fatalf("Reconfigure: %v", err)
	}
	if len(d.Scene().Entities) != 2 {
		t.Fatalf("reconfigure applied before the next tick")
	}
	d.Tick()
	if len(r.last.Entities) != 3 {
		t.Fatalf("frame entities after reconfigure = %d", len(r.last.Entities))
	}
	if !obs.stats[1].Reconfigured || obs.stats[0].Reconfigured {
		t.Fatalf("stats = %+v", obs.stats)
	}
	if r.last.PixelRatio != 2 || r.last.Width != 800 {
		t.Fatalf("viewport lost on reconfigure: %dx%d@%v", r.last.Width, r.last.Height, r.last.PixelRatio)
	}

	bad := DefaultConfig()
	bad.EaseCurve = "nope"
	if err := d.Reconfigure(bad); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("bad reconfigure = %v", err)
	}
}

func TestFrameExtras(t *testing.T) {
	r := &countRenderer{}
	d := newTestDriver(t, DefaultConfig(), r)
	d.Resize(800, 600, 1)
	d.SetScrollExtent(1000)
	d.Input().OnScroll(250)
	d.Input().OnPointerMove(400, -300)
	for i := 0; i < 400; i++ {
		d.Tick()
	}
	f := r.last
	if f.ScrollProgress != 0.25 {
		t.Fatalf("progress = %v", f.ScrollProgress)
	}
	if len(f.Blobs) != 3 {
		t.Fatalf("blobs = %d", len(f.Blobs))
	}
	if f.Blobs[2].X != 24 || f.Blobs[2].Y != 24 {
		t.Fatalf("deepest blob = %+v", f.Blobs[2])
	}
	if math.Abs(f.Cursor.X-800) > 1e-6 || math.Abs(f.Cursor.Y) > 1e-6 {
		t.Fatalf("cursor = %+v", f.Cursor)
	}
}

func TestBlobOffsetsAndProgress(t *testing.T) {
	if BlobOffsets(10, 10, 100, 100, 0, 8) != nil {
		t.Fatalf("expected no blobs")
	}
	b := BlobOffsets(50, 25, 100, 100, 2, 8)
	if b[0] != (Vec2{X: 8, Y: -4}) || b[1] != (Vec2{X: 16, Y: -8}) {
		t.Fatalf("blobs = %+v", b)
	}
	for _, tc := range []struct{ scroll, extent, want float64 }{
		{50, 0, 0},
		{-10, 100, 0},
		{50, 100, 0.5},
		{500, 100, 1},
	} {
		if got := ScrollProgress(tc.scroll, tc.extent); got != tc.want {
			t.Fatalf("ScrollProgress(%v,%v) = %v", tc.scroll, tc.extent, got)
		}
	}
}

func TestRunStopsOnCloseAndCancel(t *testing.T) {
	r := &countRenderer{}
	d := newTestDriver(t, DefaultConfig(), r)

	frames := make(chan time.Time, 10)
	for i := 0; i < 10; i++ {
		frames <- time.Time{}
	}
	close(frames)
	if err := d.Run(context.Background(), frames); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.n != 10 {
		t.Fatalf("renders = %d", r.n)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Run(ctx, make(chan time.Time)); err != nil {
		t.Fatalf("Run after cancel: %v", err)
	}
	if r.n != 10 {
		t.Fatalf("Run ticked after cancel")
	}
}

func TestReconfigureKeepsFarPose(t *testing.T) {
	r := &countRenderer{}
	obs := &recordObserver{}
	d := newTestDriver(t, DefaultConfig(), r, WithObserver(obs))
	d.Input().OnScroll(600)
	for i := 0; i < 300; i++ {
		d.Tick()
	}
	hero := d.Scene().Entities[1]
	if d.Mode() != Far || hero.Anchor.X != 4 || hero.Opacity != 0 {
		t.Fatalf("not settled far: mode=%v x=%v opacity=%v", d.Mode(), hero.Anchor.X, hero.Opacity)
	}
	spun := hero.Rotation

	if err := d.Reconfigure(DefaultConfig()); err != nil {
		t.Fatalf("Reconfigure: %v", err)
	}
	d.Tick()
	hero = d.Scene().Entities[1]
	if d.Mode() != Far || hero.Anchor.X != 4 || hero.Opacity != 0 {
		t.Fatalf("reconfigure moved hero: mode=%v x=%v opacity=%v", d.Mode(), hero.Anchor.X, hero.Opacity)
	}
	if hero.Rotation.X < spun.X {
		t.Fatalf("spin reset on reconfigure: %v -> %v", spun.X, hero.Rotation.X)
	}
	last := obs.stats[len(obs.stats)-1]
	if !last.Reconfigured || last.ModeChanged {
		t.Fatalf("reconfigure tick stats = %+v", last)
	}
}

func TestReconfigureMidTransitionContinues(t *testing.T) {
	d := newTestDriver(t, DefaultConfig(), &countRenderer{})
	d.Input().OnScroll(600)
	for i := 0; i < 20; i++ {
		d.Tick()
	}
	before := d.Scene().Entities[1].Anchor.X
	if !(before > 2 && before < 4) {
		t.Fatalf("hero not mid-transition: x=%v", before)
	}
	if err := d.Reconfigure(DefaultConfig()); err != nil {
		t.Fatalf("Reconfigure: %v", err)
	}
	d.Tick()
	after := d.Scene().Entities[1].Anchor.X
	if after < before-1e-6 || after-before > 0.2 {
		t.Fatalf("hero jumped on reconfigure: %v -> %v", before, after)
	}
	for i := 0; i < 120; i++ {
		d.Tick()
	}
	if x := d.Scene().Entities[1].Anchor.X; x != 4 {
		t.Fatalf("hero did not finish at far pose: %v", x)
	}
}

func TestSceneIsSnapshot(t *testing.T) {
	d := newTestDriver(t, DefaultConfig(), &countRenderer{})
	d.Tick()
	snap := d.Scene()
	snap.Entities[1].Anchor.X = 99
	snap.Entities = snap.Entities[:1]
	if got := d.Scene(); len(got.Entities) != 3 || got.Entities[1].Anchor.X != 2 {
		t.Fatalf("snapshot edits leaked into the driver: %+v", got.Entities[1].Anchor)
	}

	ctx, cancel := context.WithCancel(context.Background())
	frames := make(chan time.Time)
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx, frames) }()
	for i := 0; i < 50; i++ {
		frames <- time.Time{}
		if s := d.Scene(); len(s.Entities) != 3 {
			t.Fatalf("entities = %d", len(s.Entities))
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
}
