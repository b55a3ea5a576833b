package backdrop

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/tanema/gween/ease"
)

// ErrInvalidConfig is wrapped by every Config.Validate failure.
var ErrInvalidConfig = errors.New("invalid backdrop config")

// Pose is the part of an entity the transition controller eases.
type Pose struct {
	Position Vec3    `json:"position"`
	Opacity  float64 `json:"opacity"`
}

// Oscillation is a time-only offset along one axis:
// amplitude * sin(t*frequency + phase), or cos when Cosine is set.
type Oscillation struct {
	Axis      string  `json:"axis"`
	Amplitude float64 `json:"amplitude"`
	Frequency float64 `json:"frequency"`
	Phase     float64 `json:"phase"`
	Cosine    bool    `json:"cosine"`
}

// EntityConfig describes one solid or the particle field.
type EntityConfig struct {
	Name      string       `json:"name"`
	Kind      GeometryKind `json:"kind"`
	Wireframe bool         `json:"wireframe"`
	Color     string       `json:"color"`
	Radius    float64      `json:"radius"`

	Near Pose `json:"near"`
	Far  Pose `json:"far"`

	// Spin is added to the rotation every tick.
	Spin Vec3 `json:"spin"`

	// YawRate sets rotation.y = t*YawRate, plus the pointer offset when
	// FollowPointer is set.
	YawRate       float64 `json:"yawRate"`
	FollowPointer bool    `json:"followPointer"`

	// ScrollRoll sets rotation.z = smoothedScroll*ScrollRoll.
	ScrollRoll float64 `json:"scrollRoll"`

	Breathe *Oscillation `json:"breathe,omitempty"`
}

// PoseFor returns the Near or Far pose.
func (c EntityConfig) PoseFor(m Mode) Pose {
	if m == Far {
		return c.Far
	}
	return c.Near
}

// CameraConfig holds the perspective projection.
type CameraConfig struct {
	FOV  float64 `json:"fov"`
	Near float64 `json:"near"`
	Far  float64 `json:"far"`
	Z    float64 `json:"z"`
}

// Config is every tunable of the scene and its motion.
type Config struct {
	ParticleCount   int     `json:"particleCount"`
	ParticleSpread  float64 `json:"particleSpread"`
	ParticleSize    float64 `json:"particleSize"`
	Seed            int64   `json:"seed"`
	ProjectWorkers  int     `json:"projectWorkers"`
	ScrollAlpha     float64 `json:"scrollAlpha"`
	PointerAlpha    float64 `json:"pointerAlpha"`
	CursorAlpha     float64 `json:"cursorAlpha"`
	PointerScale    float64 `json:"pointerScale"`
	ScrollThreshold float64 `json:"scrollThreshold"`
	CameraParallax  float64 `json:"cameraParallax"`
	EaseDuration    float64 `json:"easeDuration"`
	EaseCurve       string  `json:"easeCurve"`
	MaxPixelRatio   float64 `json:"maxPixelRatio"`
	ReducedMotion   bool    `json:"reducedMotion"`
	BlobCount       int     `json:"blobCount"`
	BlobDepthStep   float64 `json:"blobDepthStep"`
	Background      string  `json:"background"`

	Camera   CameraConfig   `json:"camera"`
	Entities []EntityConfig `json:"entities"`
}

var easeCurves = map[string]ease.TweenFunc{
	"linear":    ease.Linear,
	"outQuad":   ease.OutQuad,
	"outCubic":  ease.OutCubic,
	"outQuart":  ease.OutQuart,
	"outSine":   ease.OutSine,
	"outExpo":   ease.OutExpo,
	"inOutQuad": ease.InOutQuad,
	"outBack":   ease.OutBack,
}

// EaseCurves lists the accepted EaseCurve names.
func EaseCurves() []string {
	names := make([]string, 0, len(easeCurves))
	for n := range easeCurves {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

const (
	presetHero = "hero"
	presetDuo  = "duo"
)

// Presets lists the built-in scene variants.
func Presets() []string {
	return []string{presetHero, presetDuo}
}

// Preset returns a built-in scene variant.
//
// "hero" is the single icosahedron scene. "duo" adds a second solid on the
// opposite side that breathes vertically and leaves to the left.
func Preset(name string) (Config, error) {
	cfg := baseConfig()
	switch name {
	case presetHero, "":
	case presetDuo:
		cfg.Entities = append(cfg.Entities, EntityConfig{
			Name:      "companion",
			Kind:      KindOctahedron,
			Wireframe: true,
			Color:     "#8a2be2",
			Radius:    0.9,
			Near:      Pose{Position: Vec3{X: -3, Y: 1}, Opacity: 0.4},
			Far:       Pose{Position: Vec3{X: -5, Y: 1}, Opacity: 0},
			Spin:      Vec3{X: -0.003, Y: 0.004},
			Breathe:   &Oscillation{Axis: "y", Amplitude: 0.3, Frequency: 0.7, Cosine: true},
		})
	default:
		return Config{}, fmt.Errorf("%w: unknown preset %q", ErrInvalidConfig, name)
	}
	return cfg, nil
}

// DefaultConfig is the "duo" preset.
func DefaultConfig() Config {
	cfg, _ := Preset(presetDuo)
	return cfg
}

func baseConfig() Config {
	return Config{
		ParticleCount:   700,
		ParticleSpread:  15,
		ParticleSize:    0.02,
		Seed:            1,
		ProjectWorkers:  4,
		ScrollAlpha:     0.05,
		PointerAlpha:    0.05,
		CursorAlpha:     0.16,
		PointerScale:    0.001,
		ScrollThreshold: 100,
		CameraParallax:  0.005,
		EaseDuration:    1,
		EaseCurve:       "outQuad",
		MaxPixelRatio:   2,
		BlobCount:       3,
		BlobDepthStep:   8,
		Background:      "#0b0d15",
		Camera:          CameraConfig{FOV: 75, Near: 0.1, Far: 100, Z: 5},
		Entities: []EntityConfig{
			{
				Name:          "particles",
				Kind:          KindPoints,
				Color:         "#1e90ff",
				Near:          Pose{Opacity: 0.8},
				Far:           Pose{Opacity: 0.8},
				YawRate:       0.05,
				FollowPointer: true,
			},
			{
				Name:       "hero",
				Kind:       KindIcosahedron,
				Wireframe:  true,
				Color:      "#1e90ff",
				Radius:     2,
				Near:       Pose{Position: Vec3{X: 2}, Opacity: 0.3},
				Far:        Pose{Position: Vec3{X: 4}, Opacity: 0},
				Spin:       Vec3{X: 0.005, Y: 0.005},
				ScrollRoll: 0.002,
				Breathe:    &Oscillation{Axis: "z", Amplitude: 0.5, Frequency: 1},
			},
		},
	}
}

func validAlpha(name string, a float64) error {
	if !(a > 0 && a < 1) {
		return fmt.Errorf("%w: %s must be in (0,1), got %v", ErrInvalidConfig, name, a)
	}
	return nil
}

func validOpacity(name string, o float64) error {
	if !(o >= 0 && o <= 1) {
		return fmt.Errorf("%w: %s opacity must be in [0,1], got %v", ErrInvalidConfig, name, o)
	}
	return nil
}

// Validate reports the first tunable that would break an invariant.
func (c Config) Validate() error {
	if c.ParticleCount < 0 {
		return fmt.Errorf("%w: particleCount %d", ErrInvalidConfig, c.ParticleCount)
	}
	if c.ParticleSpread < 0 {
		return fmt.Errorf("%w: particleSpread %v", ErrInvalidConfig, c.ParticleSpread)
	}
	for _, a := range []struct {
		name string
		v    float64
	}{
		{"scrollAlpha", c.ScrollAlpha},
		{"pointerAlpha", c.PointerAlpha},
		{"cursorAlpha", c.CursorAlpha},
	} {
		if err := validAlpha(a.name, a.v); err != nil {
			return err
		}
	}
	if c.EaseDuration < 0 {
		return fmt.Errorf("%w: easeDuration %v", ErrInvalidConfig, c.EaseDuration)
	}
	if _, ok := easeCurves[c.EaseCurve]; !ok {
		return fmt.Errorf("%w: easeCurve %q (want one of %s)", ErrInvalidConfig, c.EaseCurve, strings.Join(EaseCurves(), ", "))
	}
	if c.MaxPixelRatio < 1 {
		return fmt.Errorf("%w: maxPixelRatio %v", ErrInvalidConfig, c.MaxPixelRatio)
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		return fmt.Errorf("%w: camera fov %v", ErrInvalidConfig, c.Camera.FOV)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("%w: camera near/far %v/%v", ErrInvalidConfig, c.Camera.Near, c.Camera.Far)
	}
	if c.Background != "" {
		if _, err := ParseColor(c.Background); err != nil {
			return fmt.Errorf("%w: background: %v", ErrInvalidConfig, err)
		}
	}
	if len(c.Entities) == 0 {
		return fmt.Errorf("%w: no entities", ErrInvalidConfig)
	}
	for i, e := range c.Entities {
		name := e.Name
		if name == "" {
			name = fmt.Sprintf("entity %d", i)
		}
		if _, err := NewMesh(e.Kind, 1); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
		}
		if e.Kind != KindPoints && e.Radius <= 0 {
			return fmt.Errorf("%w: %s radius %v", ErrInvalidConfig, name, e.Radius)
		}
		if _, err := ParseColor(e.Color); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
		}
		if err := validOpacity(name+" near", e.Near.Opacity); err != nil {
			return err
		}
		if err := validOpacity(name+" far", e.Far.Opacity); err != nil {
			return err
		}
		if b := e.Breathe; b != nil {
			switch b.Axis {
			case "x", "y", "z":
			default:
				return fmt.Errorf("%w: %s breathe axis %q", ErrInvalidConfig, name, b.Axis)
			}
		}
	}
	return nil
}

// ParseColor accepts "#rrggbb" or "#rgb".
func ParseColor(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("bad color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("bad color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
