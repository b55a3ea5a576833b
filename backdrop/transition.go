package backdrop

import (
	"fmt"
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Mode is the scroll regime of the transition controller.
type Mode int

const (
	Near Mode = iota
	Far
)

func (m Mode) String() string {
	if m == Far {
		return "far"
	}
	return "near"
}

// ModeFor is Far only when smoothed is strictly above threshold.
func ModeFor(smoothed, threshold float64) Mode {
	if smoothed > threshold {
		return Far
	}
	return Near
}

// Easing moves one entity's pose from start to target over duration
// seconds. It is re-targeted only when the target actually changes; between
// changes it is sampled at the current elapsed time.
type Easing struct {
	start     Pose
	target    Pose
	startTime float64
	duration  float64
	curve     ease.TweenFunc

	tweens [4]*gween.Tween // x, y, z, opacity
}

// NewEasing returns an easing already settled at pose.
func NewEasing(pose Pose, duration float64, curve ease.TweenFunc) *Easing {
	e := &Easing{duration: duration, curve: curve}
	e.reset(pose, pose, math.Inf(-1))
	return e
}

func (e *Easing) reset(from, to Pose, now float64) {
	e.start, e.target, e.startTime = from, to, now
	d := float32(e.duration)
	e.tweens[0] = gween.New(float32(from.Position.X), float32(to.Position.X), d, e.curve)
	e.tweens[1] = gween.New(float32(from.Position.Y), float32(to.Position.Y), d, e.curve)
	e.tweens[2] = gween.New(float32(from.Position.Z), float32(to.Position.Z), d, e.curve)
	e.tweens[3] = gween.New(float32(from.Opacity), float32(to.Opacity), d, e.curve)
}

// Target is the pose the easing is heading to.
func (e *Easing) Target() Pose {
	return e.target
}

// Retarget starts a new easing from the pose sampled at now. It reports
// false and does nothing when to equals the current target.
func (e *Easing) Retarget(to Pose, now float64) bool {
	if to == e.target {
		return false
	}
	e.reset(e.Sample(now), to, now)
	return true
}

// Done reports whether the easing has reached its target at now.
func (e *Easing) Done(now float64) bool {
	return now-e.startTime >= e.duration
}

// Sample evaluates the pose at elapsed time now. A finished easing returns
// the target exactly.
func (e *Easing) Sample(now float64) Pose {
	if e.Done(now) {
		return e.target
	}
	el := float32(now - e.startTime)
	var v [4]float64
	for i, tw := range e.tweens {
		cur, _ := tw.Set(el)
		v[i] = float64(cur)
	}
	return Pose{
		Position: Vec3{X: v[0], Y: v[1], Z: v[2]},
		Opacity:  clamp01(v[3]),
	}
}

// Controller is the NEAR/FAR state machine keyed on smoothed scroll.
type Controller struct {
	threshold float64
	mode      Mode
	easings   []*Easing
	retargets int
}

// NewController creates one easing per entity, settled at the pose for mode.
func NewController(cfg Config, entities []*Entity, mode Mode) *Controller {
	curve := easeCurves[cfg.EaseCurve]
	if curve == nil {
		curve = ease.OutQuad
	}
	c := &Controller{threshold: cfg.ScrollThreshold, mode: mode}
	for _, e := range entities {
		c.easings = append(c.easings, NewEasing(e.cfg.PoseFor(mode), cfg.EaseDuration, curve))
	}
	return c
}

func entityKey(i int, e *Entity) string {
	if e.Name != "" {
		return e.Name
	}
	return fmt.Sprintf("#%d", i)
}

// Poses samples every entity's eased pose at now, keyed by entity name
// (or "#index" for unnamed entities).
func (c *Controller) Poses(now float64, entities []*Entity) map[string]Pose {
	out := make(map[string]Pose, len(entities))
	for i, e := range entities {
		if i < len(c.easings) {
			out[entityKey(i, e)] = c.easings[i].Sample(now)
		}
	}
	return out
}

// Resume continues from poses carried over from a previous controller:
// each matching entity eases from its carried pose to the target for the
// controller's mode instead of jumping there.
func (c *Controller) Resume(from map[string]Pose, now float64, entities []*Entity) {
	for i, e := range entities {
		p, ok := from[entityKey(i, e)]
		if !ok || i >= len(c.easings) {
			continue
		}
		if target := c.easings[i].Target(); p != target {
			c.easings[i].reset(p, target, now)
		}
		e.Anchor, e.Opacity = p.Position, p.Opacity
		e.compose()
	}
}

// Mode is the regime chosen by the last Evaluate.
func (c *Controller) Mode() Mode {
	return c.mode
}

// Retargets counts easings restarted because a target changed.
func (c *Controller) Retargets() int {
	return c.retargets
}

// Evaluate recomputes the mode from smoothed scroll, pushes the matching
// target pose to every entity's easing and applies the sampled poses.
// It runs every tick; easings restart only on an actual target change.
func (c *Controller) Evaluate(smoothed, now float64, entities []*Entity) Mode {
	c.mode = ModeFor(smoothed, c.threshold)
	for i, e := range entities {
		if i >= len(c.easings) {
			break
		}
		if c.easings[i].Retarget(e.cfg.PoseFor(c.mode), now) {
			c.retargets++
		}
		pose := c.easings[i].Sample(now)
		e.Anchor = pose.Position
		e.Opacity = pose.Opacity
		e.compose()
	}
	return c.mode
}
