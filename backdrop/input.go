package backdrop

import "sync"

// InputSample is a copy of the latest raw input values.
type InputSample struct {
	PointerX, PointerY float64
	Scroll             float64
}

// InputState holds the latest raw pointer and scroll values. Setters
// overwrite without validation; NaN is passed through to smoothing.
// It is safe to write from input goroutines while the driver reads.
type InputState struct {
	mu     sync.Mutex
	sample InputSample
}

// OnPointerMove records the pointer position relative to the viewport centre.
func (s *InputState) OnPointerMove(x, y float64) {
	s.mu.Lock()
	s.sample.PointerX, s.sample.PointerY = x, y
	s.mu.Unlock()
}

// OnScroll records the page's vertical scroll distance.
func (s *InputState) OnScroll(offset float64) {
	s.mu.Lock()
	s.sample.Scroll = offset
	s.mu.Unlock()
}

func (s *InputState) Pointer() (x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sample.PointerX, s.sample.PointerY
}

func (s *InputState) Scroll() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sample.Scroll
}

// Snapshot returns pointer and scroll read under one lock.
func (s *InputState) Snapshot() InputSample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sample
}
