package backdrop

import "image/color"

// EntitySnapshot is a value copy of an Entity for one frame. Mesh points at
// the entity's immutable wireframe.
type EntitySnapshot struct {
	Name      string
	Kind      GeometryKind
	Wireframe bool
	Color     color.RGBA
	Position  Vec3
	Rotation  Vec3
	Opacity   float64
	Mesh      *Mesh
}

// Frame is everything a Renderer needs to draw one tick. Particles is
// shared with the scene and must be treated as read-only.
type Frame struct {
	Tick    uint64
	Elapsed float64
	Mode    Mode

	Camera     Camera
	Width      int
	Height     int
	PixelRatio float64
	Background color.RGBA

	Entities       []EntitySnapshot
	Particles      []Vec3
	ParticleSize   float64
	ProjectWorkers int

	SmoothedScroll float64
	ScrollProgress float64
	Pointer        PointerRotation
	Cursor         Vec2
	// Blobs are the pixel offsets of the background blobs, nearest last.
	Blobs []Vec2
}

// Renderer draws frames. Render is called exactly once per tick with the
// driver locked, so it must not call back into the Driver.
type Renderer interface {
	Render(f Frame) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(f Frame) error

func (fn RendererFunc) Render(f Frame) error {
	return fn(f)
}

// BlobOffsets places count blobs opposite to the pointer with depth
// (i+1)*step. The pointer is normalised by the viewport half extents and
// the vertical offset is inverted.
func BlobOffsets(pointerX, pointerY float64, width, height, count int, step float64) []Vec2 {
	if count <= 0 {
		return nil
	}
	hw, hh := float64(max(width, 1))/2, float64(max(height, 1))/2
	rx, ry := pointerX/hw, pointerY/hh
	out := make([]Vec2, count)
	for i := range out {
		depth := float64(i+1) * step
		out[i] = Vec2{X: rx * depth, Y: -ry * depth}
	}
	return out
}

// ScrollProgress is scroll/extent clamped to [0,1]; 0 when extent <= 0.
func ScrollProgress(scroll, extent float64) float64 {
	if !(extent > 0) {
		return 0
	}
	return clamp01(scroll / extent)
}
