package backdrop

// Lerp moves current toward target by the fraction alpha of the distance.
func Lerp(current, target, alpha float64) float64 {
	return current + alpha*(target-current)
}

// Smoother is a per-tick exponential moving average.
type Smoother struct {
	Value float64
	Alpha float64
}

// Advance steps Value once toward target and returns it.
func (s *Smoother) Advance(target float64) float64 {
	s.Value = Lerp(s.Value, target, s.Alpha)
	return s.Value
}

// Follower chases a 2-D target, used for the cursor follower.
type Follower struct {
	Pos   Vec2
	Alpha float64
}

func (f *Follower) Advance(target Vec2) Vec2 {
	f.Pos.X = Lerp(f.Pos.X, target.X, f.Alpha)
	f.Pos.Y = Lerp(f.Pos.Y, target.Y, f.Alpha)
	return f.Pos
}
