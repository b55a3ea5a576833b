package backdrop

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/remeh/sizedwaitgroup"
)

// minChunk is the smallest slice of points handed to a projection worker.
const minChunk = 256

// ScreenPoint is a projected point in buffer pixels.
type ScreenPoint struct {
	X, Y    float32
	Depth   float64
	Visible bool
}

// Projector maps world points through a camera onto a w x h buffer.
type Projector struct {
	cam      Camera
	w, h     float64
	proj     mgl64.Mat4
	viewProj mgl64.Mat4
}

func NewProjector(cam Camera, width, height float64) Projector {
	aspect := cam.Aspect
	if !(aspect > 0) {
		aspect = width / max(height, 1)
	}
	proj := mgl64.Perspective(mgl64.DegToRad(cam.FOV), aspect, cam.Near, cam.Far)
	view := mgl64.Translate3D(-cam.Position.X, -cam.Position.Y, -cam.Position.Z)
	return Projector{
		cam:      cam,
		w:        width,
		h:        height,
		proj:     proj,
		viewProj: proj.Mul4(view),
	}
}

// Project maps one world point. Points outside [near, far] are not visible.
func (p Projector) Project(world Vec3) ScreenPoint {
	return p.clip(p.viewProj, world.MGL())
}

// clip projects a point through m; the clip w of a perspective camera is the
// view depth.
func (p Projector) clip(m mgl64.Mat4, v mgl64.Vec3) ScreenPoint {
	c := m.Mul4x1(v.Vec4(1))
	depth := c.W()
	if depth < p.cam.Near || depth > p.cam.Far {
		return ScreenPoint{Depth: depth}
	}
	nx, ny := c.X()/depth, c.Y()/depth
	return ScreenPoint{
		X:       float32((nx + 1) / 2 * p.w),
		Y:       float32((1 - ny) / 2 * p.h),
		Depth:   depth,
		Visible: true,
	}
}

// PixelsPerUnit is the on-screen size of one world unit at depth.
func (p Projector) PixelsPerUnit(depth float64) float64 {
	if !(depth > 0) {
		return 0
	}
	return p.proj[5] * p.h / 2 / depth
}

// ProjectLocal transforms local points by rot and pos, projects them into
// out (grown as needed) and returns it. With workers > 1 and enough points
// the work is split across a bounded number of goroutines; the call still
// returns only when every point is done.
func (p Projector) ProjectLocal(local []Vec3, rot, pos Vec3, workers int, out []ScreenPoint) []ScreenPoint {
	if cap(out) < len(local) {
		out = make([]ScreenPoint, len(local))
	}
	out = out[:len(local)]

	model := mgl64.Translate3D(pos.X, pos.Y, pos.Z).Mul4(rot.RotationMatrix())
	mvp := p.viewProj.Mul4(model)
	project := func(lo, hi int) {
		for i := lo; i < hi; i++ {
			out[i] = p.clip(mvp, local[i].MGL())
		}
	}

	if workers <= 1 || len(local) < 2*minChunk {
		project(0, len(local))
		return out
	}

	chunk := max(minChunk, (len(local)+workers-1)/workers)
	swg := sizedwaitgroup.New(workers)
	for lo := 0; lo < len(local); lo += chunk {
		hi := min(lo+chunk, len(local))
		swg.Add()
		go func(lo, hi int) {
			defer swg.Done()
			project(lo, hi)
		}(lo, hi)
	}
	swg.Wait()
	return out
}
