package spatialmath

// Twist2d is a displacement along a constant-curvature arc, in the frame of the pose it starts
// from.
type Twist2d struct {
	Dx     float64
	Dy     float64
	Dtheta float64
}

// Scale multiplies every component by s.
func (t Twist2d) Scale(s float64) Twist2d {
	return Twist2d{Dx: t.Dx * s, Dy: t.Dy * s, Dtheta: t.Dtheta * s}
}
