package backdrop

import (
	"testing"

	"github.com/tanema/gween/ease"
)

func TestModeForThreshold(t *testing.T) {
	tests := []struct {
		scroll float64
		want   Mode
	}{
		{0, Near},
		{99, Near},
		{100, Near},
		{100.0001, Far},
		{101, Far},
		{5000, Far},
	}
	for _, tt := range tests {
		if got := ModeFor(tt.scroll, 100); got != tt.want {
			t.Fatalf("ModeFor(%v) = %v, want %v", tt.scroll, got, tt.want)
		}
	}
}

func TestEasingRetargetOnlyOnChange(t *testing.T) {
	near := Pose{Position: Vec3{X: 2}, Opacity: 0.3}
	far := Pose{Position: Vec3{X: 4}, Opacity: 0}
	e := NewEasing(near, 1, ease.OutQuad)

	if e.Retarget(near, 0.5) {
		t.Fatalf("retarget to the same pose restarted the easing")
	}
	if !e.Retarget(far, 1) {
		t.Fatalf("retarget to a new pose was ignored")
	}
	mid := e.Sample(1.5)
	for i := 0; i < 10; i++ {
		if e.Retarget(far, 1.5) {
			t.Fatalf("repeated retarget restarted the easing")
		}
	}
	if again := e.Sample(1.5); again != mid {
		t.Fatalf("sample changed after repeated retarget: %+v vs %+v", again, mid)
	}
	if mid.Position.X <= 2 || mid.Position.X >= 4 {
		t.Fatalf("mid-easing x = %v, want strictly between 2 and 4", mid.Position.X)
	}
	if got := e.Sample(2); got != far {
		t.Fatalf("finished easing = %+v, want %+v", got, far)
	}
}

func TestEasingReverseStartsFromCurrentPose(t *testing.T) {
	near := Pose{Position: Vec3{X: 2}, Opacity: 0.3}
	far := Pose{Position: Vec3{X: 4}, Opacity: 0}
	e := NewEasing(near, 1, ease.Linear)
	e.Retarget(far, 0)
	half := e.Sample(0.5)
	e.Retarget(near, 0.5)
	if got := e.Sample(0.5); got.Position.X < half.Position.X-1e-6 || got.Position.X > half.Position.X+1e-6 {
		t.Fatalf("reverse jumped: %v -> %v", half.Position.X, got.Position.X)
	}
}

func TestEasingOpacityClamped(t *testing.T) {
	e := NewEasing(Pose{Opacity: 1}, 1, ease.OutBack)
	e.Retarget(Pose{Opacity: 0}, 0)
	e2 := NewEasing(Pose{Opacity: 0}, 1, ease.OutBack)
	e2.Retarget(Pose{Opacity: 1}, 0)
	for ts := 0.0; ts <= 1.2; ts += 0.01 {
		for _, p := range []Pose{e.Sample(ts), e2.Sample(ts)} {
			if p.Opacity < 0 || p.Opacity > 1 {
				t.Fatalf("opacity %v at t=%v", p.Opacity, ts)
			}
		}
	}
}

func newTestScene(t *testing.T, cfg Config) *Scene {
	t.Helper()
	s, err := NewScene(cfg)
	if err != nil {
		t.Fatalf("NewScene: %v", err)
	}
	return s
}

// Re-evaluating every tick inside one regime settles exactly on the
// configured pose and stays there.
func TestControllerSettlesWithoutJitter(t *testing.T) {
	cfg, _ := Preset("duo")
	cfg.ParticleCount = 0
	s := newTestScene(t, cfg)
	c := NewController(cfg, s.Entities, Near)

	const dt = 1.0 / 60
	now := 0.0
	for i := 0; i < 30; i++ {
		now += dt
		c.Evaluate(150, now, s.Entities)
	}
	if c.Mode() != Far {
		t.Fatalf("mode = %v, want far", c.Mode())
	}
	if c.Retargets() != 2 {
		t.Fatalf("retargets = %d, want one per transitioning entity", c.Retargets())
	}
	for i := 0; i < 120; i++ {
		now += dt
		c.Evaluate(150, now, s.Entities)
	}
	for _, e := range s.Entities {
		if e.Anchor != e.cfg.Far.Position || e.Opacity != e.cfg.Far.Opacity {
			t.Fatalf("%s settled at %+v/%v, want %+v/%v", e.Name, e.Anchor, e.Opacity, e.cfg.Far.Position, e.cfg.Far.Opacity)
		}
	}
	settled := make([]Pose, len(s.Entities))
	for i, e := range s.Entities {
		settled[i] = Pose{Position: e.Anchor, Opacity: e.Opacity}
	}
	for i := 0; i < 100; i++ {
		now += dt
		c.Evaluate(150+float64(i), now, s.Entities)
		for j, e := range s.Entities {
			if (Pose{Position: e.Anchor, Opacity: e.Opacity}) != settled[j] {
				t.Fatalf("%s moved after settling", e.Name)
			}
		}
	}
	if c.Retargets() != 2 {
		t.Fatalf("retargets grew while in one regime: %d", c.Retargets())
	}

	for i := 0; i < 120; i++ {
		now += dt
		c.Evaluate(20, now, s.Entities)
	}
	hero := s.Entities[1]
	if hero.Anchor.X != 2 || hero.Opacity != 0.3 {
		t.Fatalf("hero back near at x=%v opacity=%v", hero.Anchor.X, hero.Opacity)
	}
}
