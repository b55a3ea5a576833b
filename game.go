package main

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"herobg/backdrop"
)

var (
	gameCtx context.Context
	once    sync.Once
)

var titleCase = cases.Title(language.English)

// pageScroll stands in for the page the backdrop sits behind: wheel and
// keys move an offset clamped to [0, height].
type pageScroll struct {
	offset float64
	height float64
	step   float64
}

func (p *pageScroll) scrollBy(delta float64) float64 {
	p.offset = math.Max(0, math.Min(p.height, p.offset+delta))
	return p.offset
}

func (p *pageScroll) scrollTo(offset float64) float64 {
	return p.scrollBy(offset - p.offset)
}

type Game struct {
	driver   *backdrop.Driver
	renderer *frameRenderer
	page     pageScroll

	lastW, lastH int
	lastScale    float64
}

func newGame(d *backdrop.Driver, r *frameRenderer, s Settings) *Game {
	d.SetScrollExtent(s.PageHeight)
	return &Game{
		driver:   d,
		renderer: r,
		page:     pageScroll{height: s.PageHeight, step: s.WheelStep},
	}
}

func (g *Game) Update() error {
	select {
	case <-gameCtx.Done():
		return ebiten.Termination
	default:
	}
	once.Do(initGame)

	v := g.driver.Viewport()
	in := g.driver.Input()
	cx, cy := ebiten.CursorPosition()
	in.OnPointerMove(float64(cx)/v.PixelRatio-float64(v.Width)/2, float64(cy)/v.PixelRatio-float64(v.Height)/2)

	if _, dy := ebiten.Wheel(); dy != 0 {
		g.page.scrollBy(-dy * g.page.step)
	}
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyPageDown), inpututil.IsKeyJustPressed(ebiten.KeySpace):
		g.page.scrollBy(float64(v.Height))
	case inpututil.IsKeyJustPressed(ebiten.KeyPageUp):
		g.page.scrollBy(-float64(v.Height))
	case inpututil.IsKeyJustPressed(ebiten.KeyHome):
		g.page.scrollTo(0)
	case inpututil.IsKeyJustPressed(ebiten.KeyEnd):
		g.page.scrollTo(g.page.height)
	}
	in.OnScroll(g.page.offset)

	if err := g.driver.Tick(); err != nil {
		if errors.Is(err, backdrop.ErrTickInFlight) {
			logDebug("tick skipped: %v", err)
			return nil
		}
		return err
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.renderer.Draw(screen)
}

// Layout feeds size changes to the driver and renders at the capped
// device pixel ratio.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	scale := 1.0
	if m := ebiten.Monitor(); m != nil {
		scale = m.DeviceScaleFactor()
	}
	if outsideWidth != g.lastW || outsideHeight != g.lastH || scale != g.lastScale {
		g.lastW, g.lastH, g.lastScale = outsideWidth, outsideHeight, scale
		g.driver.Resize(outsideWidth, outsideHeight, scale)
	}
	v := g.driver.Viewport()
	return v.BufferSize()
}

func runGame(ctx context.Context, g *Game) error {
	gameCtx = ctx

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(gs.WindowWidth, gs.WindowHeight)
	if gs.Fullscreen {
		ebiten.SetFullscreen(true)
	}

	op := &ebiten.RunGameOptions{ScreenTransparent: false}
	return ebiten.RunGameWithOptions(g, op)
}

func windowTitle(variant string) string {
	if variant == "" {
		variant = "hero"
	}
	return titleCase.String(variant) + " Backdrop"
}

func initGame() {
	ebiten.SetWindowTitle(windowTitle(gs.Variant))
	ebiten.SetVsyncEnabled(gs.Vsync)
	ebiten.SetTPS(ebiten.SyncWithFPS)
	ebiten.SetCursorShape(ebiten.CursorShapeDefault)
}
