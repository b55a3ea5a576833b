package backdrop

import (
	"image/color"
	"math"
	"math/rand"
)

// Entity is one independently transformed object in the scene.
type Entity struct {
	Name      string
	Kind      GeometryKind
	Wireframe bool
	Color     color.RGBA
	Mesh      Mesh

	Position Vec3
	Rotation Vec3
	Opacity  float64

	// Anchor is the eased rest position; Offset is the oscillation added on
	// top of it. Position = Anchor + Offset after every tick.
	Anchor Vec3
	Offset Vec3

	cfg EntityConfig
}

// Config returns the entity's tunables.
func (e *Entity) Config() EntityConfig {
	return e.cfg
}

func (e *Entity) compose() {
	e.Position = e.Anchor.Add(e.Offset)
}

// Camera is a perspective camera looking down -Z.
type Camera struct {
	Position Vec3
	FOV      float64 // vertical, degrees
	Aspect   float64
	Near     float64
	Far      float64
}

// PointerRotation is the smoothed pointer-derived rotation offset.
// Pitch follows pointer Y, Yaw follows pointer X.
type PointerRotation struct {
	Pitch, Yaw float64
}

// Scene owns the entities, the shared particle positions and the camera.
type Scene struct {
	Entities  []*Entity
	Particles []Vec3
	Camera    Camera

	reducedMotion  bool
	cameraParallax float64
}

// NewScene builds every entity once from cfg. cfg must be valid.
func NewScene(cfg Config) (*Scene, error) {
	rng := rand.New(rand.NewSource(cfg.Seed))
	s := &Scene{
		Camera: Camera{
			Position: Vec3{Z: cfg.Camera.Z},
			FOV:      cfg.Camera.FOV,
			Aspect:   1,
			Near:     cfg.Camera.Near,
			Far:      cfg.Camera.Far,
		},
		reducedMotion:  cfg.ReducedMotion,
		cameraParallax: cfg.CameraParallax,
	}
	for _, ec := range cfg.Entities {
		mesh, err := NewMesh(ec.Kind, ec.Radius)
		if err != nil {
			return nil, err
		}
		clr, err := ParseColor(ec.Color)
		if err != nil {
			return nil, err
		}
		e := &Entity{
			Name:      ec.Name,
			Kind:      ec.Kind,
			Wireframe: ec.Wireframe,
			Color:     clr,
			Mesh:      mesh,
			Anchor:    ec.Near.Position,
			Opacity:   clamp01(ec.Near.Opacity),
			cfg:       ec,
		}
		e.compose()
		s.Entities = append(s.Entities, e)
	}
	if cfg.ParticleCount > 0 {
		s.Particles = ParticleCloud(cfg.ParticleCount, cfg.ParticleSpread, rng)
	}
	return s, nil
}

// Breathing evaluates an oscillation at elapsed time t.
func Breathing(o Oscillation, t float64) float64 {
	arg := t*o.Frequency + o.Phase
	if o.Cosine {
		return o.Amplitude * math.Cos(arg)
	}
	return o.Amplitude * math.Sin(arg)
}

func axisVec(axis string, v float64) Vec3 {
	switch axis {
	case "x":
		return Vec3{X: v}
	case "y":
		return Vec3{Y: v}
	default:
		return Vec3{Z: v}
	}
}

// Advance applies the time and input driven motion for elapsed time t.
// It leaves Anchor and Opacity to the transition controller.
func (s *Scene) Advance(t float64, pointer PointerRotation, scroll float64) {
	for _, e := range s.Entities {
		c := e.cfg
		if !s.reducedMotion {
			e.Rotation = e.Rotation.Add(c.Spin)
		}
		if c.YawRate != 0 || c.FollowPointer {
			yaw := 0.0
			if !s.reducedMotion {
				yaw = t * c.YawRate
			}
			if c.FollowPointer {
				e.Rotation.X = pointer.Pitch
				yaw += pointer.Yaw
			}
			e.Rotation.Y = yaw
		}
		if c.ScrollRoll != 0 {
			e.Rotation.Z = scroll * c.ScrollRoll
		}
		e.Offset = Vec3{}
		if c.Breathe != nil && !s.reducedMotion {
			e.Offset = axisVec(c.Breathe.Axis, Breathing(*c.Breathe, t))
		}
		e.compose()
	}
	s.Camera.Position.Y = -scroll * s.cameraParallax
}
