package backdrop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrNoSurface means the driver was created without a Renderer.
	ErrNoSurface = errors.New("no drawable surface")
	// ErrTickInFlight is returned by a Tick that starts while another is running.
	ErrTickInFlight = errors.New("tick already in flight")
)

// InitializationError is a fatal precondition failure raised before the
// first tick.
type InitializationError struct {
	Err error
}

func (e *InitializationError) Error() string {
	return "backdrop init: " + e.Err.Error()
}

func (e *InitializationError) Unwrap() error {
	return e.Err
}

// Clock reports monotonic time elapsed since the driver started.
type Clock interface {
	Elapsed() time.Duration
}

type wallClock struct {
	start time.Time
}

func (c wallClock) Elapsed() time.Duration {
	return time.Since(c.start)
}

// TickStats describes one finished tick.
type TickStats struct {
	Tick         uint64
	Duration     time.Duration
	Mode         Mode
	ModeChanged  bool
	Reconfigured bool
}

// Observer receives stats after every tick, on the tick goroutine and with
// the driver locked.
type Observer interface {
	ObserveTick(TickStats)
}

type Option func(*Driver)

func WithLogger(l *zap.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.log = l
		}
	}
}

func WithClock(c Clock) Option {
	return func(d *Driver) {
		if c != nil {
			d.clock = c
		}
	}
}

func WithObserver(o Observer) Option {
	return func(d *Driver) { d.obs = o }
}

// WithInput shares an existing InputState, e.g. one already fed by the host.
func WithInput(in *InputState) Option {
	return func(d *Driver) {
		if in != nil {
			d.input = in
		}
	}
}

// Driver owns the per-tick update: smoothing, scene motion, transitions
// and exactly one render. Ticks never overlap.
type Driver struct {
	log      *zap.Logger
	clock    Clock
	obs      Observer
	renderer Renderer
	input    *InputState

	mu     sync.Mutex // held for a whole tick and by Resize
	cfg    Config
	scene  *Scene
	ctrl   *Controller
	view   *Viewport
	scroll Smoother
	pitch  Smoother
	yaw    Smoother
	cursor Follower
	extent float64
	ticks  uint64

	busy atomic.Bool

	pendingMu sync.Mutex
	pending   *Config
}

// NewDriver validates cfg and builds the scene. A nil Renderer is fatal.
func NewDriver(cfg Config, r Renderer, opts ...Option) (*Driver, error) {
	if r == nil {
		return nil, &InitializationError{Err: ErrNoSurface}
	}
	if err := cfg.Validate(); err != nil {
		return nil, &InitializationError{Err: err}
	}
	d := &Driver{
		log:      zap.NewNop(),
		clock:    wallClock{start: time.Now()},
		renderer: r,
		input:    &InputState{},
		view:     NewViewport(cfg.MaxPixelRatio),
	}
	for _, o := range opts {
		o(d)
	}
	if err := d.build(cfg, 0); err != nil {
		return nil, &InitializationError{Err: err}
	}
	return d, nil
}

// build (re)creates the scene and transition controller. On a rebuild the
// mode follows the current smoothed scroll, and entities that keep their
// name carry over their rotation and eased pose, so nothing jumps.
func (d *Driver) build(cfg Config, now float64) error {
	scene, err := NewScene(cfg)
	if err != nil {
		return err
	}
	mode := Near
	var carried map[string]Pose
	if d.ctrl != nil {
		mode = ModeFor(d.scroll.Value, cfg.ScrollThreshold)
		carried = d.ctrl.Poses(now, d.scene.Entities)
		rot := make(map[string]Vec3, len(d.scene.Entities))
		for i, e := range d.scene.Entities {
			rot[entityKey(i, e)] = e.Rotation
		}
		for i, e := range scene.Entities {
			if r, ok := rot[entityKey(i, e)]; ok {
				e.Rotation = r
			}
		}
	}
	ctrl := NewController(cfg, scene.Entities, mode)
	ctrl.Resume(carried, now, scene.Entities)

	d.cfg = cfg
	d.scene = scene
	d.ctrl = ctrl
	d.scroll.Alpha = cfg.ScrollAlpha
	d.pitch.Alpha = cfg.PointerAlpha
	d.yaw.Alpha = cfg.PointerAlpha
	d.cursor.Alpha = cfg.CursorAlpha
	d.view.MaxPixelRatio = cfg.MaxPixelRatio
	d.view.Resize(d.view.Width, d.view.Height, d.view.DevicePixelRatio, &d.scene.Camera)
	return nil
}

// Input is the state input callbacks write into.
func (d *Driver) Input() *InputState {
	return d.input
}

// Resize handles a viewport change immediately, outside the tick cadence.
func (d *Driver) Resize(width, height int, devicePixelRatio float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.view.Resize(width, height, devicePixelRatio, &d.scene.Camera)
	d.log.Debug("viewport resized",
		zap.Int("width", d.view.Width),
		zap.Int("height", d.view.Height),
		zap.Float64("pixelRatio", d.view.PixelRatio))
}

// SetScrollExtent sets the maximum scroll offset used for ScrollProgress.
func (d *Driver) SetScrollExtent(extent float64) {
	d.mu.Lock()
	d.extent = extent
	d.mu.Unlock()
}

// Reconfigure validates cfg and queues it for the next tick boundary. The
// scene is rebuilt there; smoothed input values carry over.
func (d *Driver) Reconfigure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	d.pendingMu.Lock()
	d.pending = &cfg
	d.pendingMu.Unlock()
	return nil
}

func (d *Driver) takePending() *Config {
	d.pendingMu.Lock()
	defer d.pendingMu.Unlock()
	p := d.pending
	d.pending = nil
	return p
}

// Tick runs one update-and-render cycle.
func (d *Driver) Tick() error {
	if !d.busy.CompareAndSwap(false, true) {
		return ErrTickInFlight
	}
	defer d.busy.Store(false)

	d.mu.Lock()
	defer d.mu.Unlock()

	started := time.Now()
	now := d.clock.Elapsed().Seconds()

	reconfigured := false
	if p := d.takePending(); p != nil {
		if err := d.build(*p, now); err != nil {
			d.log.Error("reconfigure failed", zap.Error(err))
		} else {
			reconfigured = true
			d.log.Debug("scene reconfigured", zap.Int("entities", len(d.scene.Entities)))
		}
	}

	in := d.input.Snapshot()
	scroll := d.scroll.Advance(in.Scroll)
	pointer := PointerRotation{
		Pitch: d.pitch.Advance(in.PointerY * d.cfg.PointerScale),
		Yaw:   d.yaw.Advance(in.PointerX * d.cfg.PointerScale),
	}
	w, h := d.view.Surface()
	cursor := d.cursor.Advance(Vec2{X: float64(w)/2 + in.PointerX, Y: float64(h)/2 + in.PointerY})

	d.scene.Advance(now, pointer, scroll)

	prev := d.ctrl.Mode()
	mode := d.ctrl.Evaluate(scroll, now, d.scene.Entities)
	if mode != prev {
		d.log.Debug("scroll mode changed",
			zap.Stringer("from", prev),
			zap.Stringer("to", mode),
			zap.Float64("scroll", scroll))
	}

	frame := d.snapshot(now, mode, in, scroll, pointer, cursor)
	d.ticks++
	frame.Tick = d.ticks
	if err := d.renderer.Render(frame); err != nil {
		return fmt.Errorf("render tick %d: %w", d.ticks, err)
	}

	if d.obs != nil {
		d.obs.ObserveTick(TickStats{
			Tick:         d.ticks,
			Duration:     time.Since(started),
			Mode:         mode,
			ModeChanged:  mode != prev,
			Reconfigured: reconfigured,
		})
	}
	return nil
}

func (d *Driver) snapshot(now float64, mode Mode, in InputSample, scroll float64, pointer PointerRotation, cursor Vec2) Frame {
	bg, _ := ParseColor(d.cfg.Background)
	f := Frame{
		Elapsed:        now,
		Mode:           mode,
		Camera:         d.scene.Camera,
		Width:          d.view.Width,
		Height:         d.view.Height,
		PixelRatio:     d.view.PixelRatio,
		Background:     bg,
		Particles:      d.scene.Particles,
		ParticleSize:   d.cfg.ParticleSize,
		ProjectWorkers: d.cfg.ProjectWorkers,
		SmoothedScroll: scroll,
		ScrollProgress: ScrollProgress(in.Scroll, d.extent),
		Pointer:        pointer,
		Cursor:         cursor,
		Blobs:          BlobOffsets(in.PointerX, in.PointerY, d.view.Width, d.view.Height, d.cfg.BlobCount, d.cfg.BlobDepthStep),
		Entities:       make([]EntitySnapshot, len(d.scene.Entities)),
	}
	for i, e := range d.scene.Entities {
		f.Entities[i] = EntitySnapshot{
			Name:      e.Name,
			Kind:      e.Kind,
			Wireframe: e.Wireframe,
			Color:     e.Color,
			Position:  e.Position,
			Rotation:  e.Rotation,
			Opacity:   e.Opacity,
			Mesh:      &e.Mesh,
		}
	}
	return f
}

// Run ticks once per value received from frames until ctx is cancelled or
// frames is closed. A render error stops the loop and is returned.
func (d *Driver) Run(ctx context.Context, frames <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-frames:
			if !ok {
				return nil
			}
			if err := d.Tick(); err != nil {
				return err
			}
		}
	}
}

// Ticks is the number of completed ticks.
func (d *Driver) Ticks() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ticks
}

// Mode is the transition mode chosen by the last tick.
func (d *Driver) Mode() Mode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ctrl.Mode()
}

// SmoothedScroll is the scroll offset after the last tick's smoothing.
func (d *Driver) SmoothedScroll() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scroll.Value
}

// PointerRotation is the smoothed pointer rotation after the last tick.
func (d *Driver) PointerRotation() PointerRotation {
	d.mu.Lock()
	defer d.mu.Unlock()
	return PointerRotation{Pitch: d.pitch.Value, Yaw: d.yaw.Value}
}

// Scene returns a copy of the scene taken under the driver lock, so it is
// safe to call while another goroutine ticks. Entities are copied; particle
// positions and meshes are shared and must be treated as read-only.
func (d *Driver) Scene() *Scene {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := *d.scene
	cp.Entities = make([]*Entity, len(d.scene.Entities))
	for i, e := range d.scene.Entities {
		ec := *e
		cp.Entities[i] = &ec
	}
	return &cp
}

// Viewport returns a copy of the current viewport.
func (d *Driver) Viewport() Viewport {
	d.mu.Lock()
	defer d.mu.Unlock()
	return *d.view
}

// Config is the configuration currently applied.
func (d *Driver) Config() Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}
