package main

import (
	"image/color"
	"math"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"herobg/backdrop"
)

// blob anchors as fractions of the surface, with radius as a fraction of
// the shorter side.
var blobAnchors = []struct {
	x, y, r float64
	clr     color.RGBA
}{
	{0.18, 0.28, 0.30, color.RGBA{0x1e, 0x90, 0xff, 0xff}},
	{0.82, 0.22, 0.24, color.RGBA{0x8a, 0x2b, 0xe2, 0xff}},
	{0.55, 0.82, 0.28, color.RGBA{0x00, 0xc2, 0xa8, 0xff}},
}

const (
	blobOpacity     = 0.08
	cursorRadius    = 14
	progressHeight  = 3
	minPointSidePix = 1
)

// projectedEntity is one entity's geometry in buffer pixels.
type projectedEntity struct {
	snap   backdrop.EntitySnapshot
	points []backdrop.ScreenPoint
}

// frameRenderer is the Renderer the driver ticks into. It keeps the latest
// frame for Draw; in headless mode it projects every frame instead.
type frameRenderer struct {
	mu       sync.Mutex
	frame    backdrop.Frame
	ok       bool
	rendered uint64
	visible  int

	headless bool
	bufs     [][]backdrop.ScreenPoint
}

func (r *frameRenderer) Render(f backdrop.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frame, r.ok = f, true
	r.rendered++
	if r.headless {
		w, h := bufferSize(f)
		r.visible = countVisible(r.projectFrame(f, w, h))
	}
	return nil
}

func (r *frameRenderer) latest() (backdrop.Frame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frame, r.ok
}

// Visible is the number of on-screen points in the last headless frame.
func (r *frameRenderer) Visible() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.visible
}

func bufferSize(f backdrop.Frame) (int, int) {
	return int(math.Round(float64(f.Width) * f.PixelRatio)), int(math.Round(float64(f.Height) * f.PixelRatio))
}

// projectFrame projects every visible entity onto a w x h buffer. The
// returned slices are reused by the next call.
func (r *frameRenderer) projectFrame(f backdrop.Frame, w, h int) []projectedEntity {
	proj := backdrop.NewProjector(f.Camera, float64(w), float64(h))
	for len(r.bufs) < len(f.Entities) {
		r.bufs = append(r.bufs, nil)
	}
	out := make([]projectedEntity, 0, len(f.Entities))
	for i, e := range f.Entities {
		if e.Opacity <= 0 {
			continue
		}
		local := f.Particles
		workers := f.ProjectWorkers
		if e.Kind != backdrop.KindPoints {
			if e.Mesh == nil {
				continue
			}
			local, workers = e.Mesh.Vertices, 1
		}
		r.bufs[i] = proj.ProjectLocal(local, e.Rotation, e.Position, workers, r.bufs[i])
		out = append(out, projectedEntity{snap: e, points: r.bufs[i]})
	}
	return out
}

func countVisible(ents []projectedEntity) int {
	n := 0
	for _, pe := range ents {
		for _, p := range pe.points {
			if p.Visible {
				n++
			}
		}
	}
	return n
}

// withOpacity scales a straight RGBA color into ebiten's premultiplied form.
func withOpacity(c color.RGBA, a float64) color.RGBA {
	a = math.Max(0, math.Min(1, a))
	return color.RGBA{
		R: uint8(float64(c.R)*a + 0.5),
		G: uint8(float64(c.G)*a + 0.5),
		B: uint8(float64(c.B)*a + 0.5),
		A: uint8(float64(c.A)*a + 0.5),
	}
}

// pointSide is the square size of a particle at depth, never under a pixel.
func pointSide(size, depth float64, proj backdrop.Projector) float32 {
	return float32(math.Max(minPointSidePix, size*proj.PixelsPerUnit(depth)))
}

func (r *frameRenderer) Draw(screen *ebiten.Image) {
	f, ok := r.latest()
	if !ok {
		return
	}
	screen.Fill(f.Background)

	bw, bh := screen.Bounds().Dx(), screen.Bounds().Dy()
	pr := float32(f.PixelRatio)
	drawBlobs(screen, f, bw, bh)

	proj := backdrop.NewProjector(f.Camera, float64(bw), float64(bh))
	for _, pe := range r.projectFrame(f, bw, bh) {
		clr := withOpacity(pe.snap.Color, pe.snap.Opacity)
		if pe.snap.Kind == backdrop.KindPoints {
			for _, p := range pe.points {
				if !p.Visible {
					continue
				}
				side := pointSide(f.ParticleSize, p.Depth, proj)
				vector.DrawFilledRect(screen, p.X-side/2, p.Y-side/2, side, side, clr, false)
			}
			continue
		}
		for _, e := range pe.snap.Mesh.Edges {
			a, b := pe.points[e[0]], pe.points[e[1]]
			if !a.Visible || !b.Visible {
				continue
			}
			vector.StrokeLine(screen, a.X, a.Y, b.X, b.Y, pr, clr, true)
		}
	}

	drawCursor(screen, f, pr)
	drawProgress(screen, f, bw, pr)
}

func drawBlobs(screen *ebiten.Image, f backdrop.Frame, bw, bh int) {
	short := float64(min(bw, bh))
	for i, b := range blobAnchors {
		var off backdrop.Vec2
		if i < len(f.Blobs) {
			off = f.Blobs[i]
		}
		cx := b.x*float64(bw) + off.X*f.PixelRatio
		cy := b.y*float64(bh) + off.Y*f.PixelRatio
		vector.DrawFilledCircle(screen, float32(cx), float32(cy), float32(b.r*short), withOpacity(b.clr, blobOpacity), true)
	}
}

func drawCursor(screen *ebiten.Image, f backdrop.Frame, pr float32) {
	if len(f.Entities) == 0 {
		return
	}
	clr := withOpacity(f.Entities[0].Color, 0.6)
	x, y := float32(f.Cursor.X)*pr, float32(f.Cursor.Y)*pr
	vector.StrokeCircle(screen, x, y, cursorRadius*pr, 1.5*pr, clr, true)
}

func drawProgress(screen *ebiten.Image, f backdrop.Frame, bw int, pr float32) {
	if f.ScrollProgress <= 0 || len(f.Entities) == 0 {
		return
	}
	w := float32(f.ScrollProgress) * float32(bw)
	vector.DrawFilledRect(screen, 0, 0, w, progressHeight*pr, f.Entities[0].Color, false)
}
