package backdrop

import "math"

// Viewport tracks the output surface and keeps the camera aspect in sync.
type Viewport struct {
	Width, Height int
	PixelRatio    float64
	MaxPixelRatio float64

	// DevicePixelRatio is the last ratio reported by the host, before capping.
	DevicePixelRatio float64
}

// NewViewport returns a 1x1 viewport with the given pixel ratio cap.
func NewViewport(maxPixelRatio float64) *Viewport {
	if maxPixelRatio < 1 {
		maxPixelRatio = 1
	}
	return &Viewport{Width: 1, Height: 1, PixelRatio: 1, MaxPixelRatio: maxPixelRatio, DevicePixelRatio: 1}
}

// Resize applies a new logical size and device pixel ratio. Dimensions
// below one pixel are clamped to one; the ratio is capped at MaxPixelRatio.
func (v *Viewport) Resize(width, height int, devicePixelRatio float64, cam *Camera) {
	v.Width = max(width, 1)
	v.Height = max(height, 1)

	v.DevicePixelRatio = devicePixelRatio
	r := devicePixelRatio
	if !(r > 0) {
		r = 1
	}
	v.PixelRatio = math.Min(r, v.MaxPixelRatio)

	if cam != nil {
		cam.Aspect = v.Aspect()
	}
}

func (v *Viewport) Aspect() float64 {
	return float64(v.Width) / float64(v.Height)
}

// Surface is the logical size of the output surface.
func (v *Viewport) Surface() (int, int) {
	return v.Width, v.Height
}

// BufferSize is the backing buffer size after pixel ratio scaling.
func (v *Viewport) BufferSize() (int, int) {
	return int(math.Round(float64(v.Width) * v.PixelRatio)), int(math.Round(float64(v.Height) * v.PixelRatio))
}
