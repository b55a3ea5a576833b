package main

import (
	"context"
	"math"
	"time"

	"herobg/backdrop"
)

// sweepOffset is a triangle wave over the page: 0 to height in period
// ticks, then back.
func sweepOffset(tick, period int, height float64) float64 {
	if period <= 0 || height <= 0 {
		return 0
	}
	phase := tick % (2 * period)
	if phase > period {
		phase = 2*period - phase
	}
	return height * float64(phase) / float64(period)
}

// orbit puts the pointer on a circle of radius r around the centre.
func orbit(tick, fps int, r float64) (float64, float64) {
	a := float64(tick) / float64(max(fps, 1))
	return r * math.Cos(a), r * math.Sin(a)
}

// runHeadless ticks the driver at fps without a window, scripting a scroll
// sweep and a circling pointer. frames <= 0 runs until ctx is done.
func runHeadless(ctx context.Context, d *backdrop.Driver, s Settings, fps, frames int) error {
	fps = max(fps, 1)
	d.Resize(s.WindowWidth, s.WindowHeight, 1)
	d.SetScrollExtent(s.PageHeight)
	in := d.Input()
	r := float64(min(s.WindowWidth, s.WindowHeight)) / 4

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	out := make(chan time.Time)
	go func() {
		defer close(out)
		for i := 0; frames <= 0 || i < frames; i++ {
			var t time.Time
			select {
			case <-ctx.Done():
				return
			case t = <-ticker.C:
			}
			in.OnScroll(sweepOffset(i, 4*fps, s.PageHeight))
			in.OnPointerMove(orbit(i, fps, r))
			select {
			case out <- t:
			case <-ctx.Done():
				return
			}
		}
	}()
	return d.Run(ctx, out)
}
