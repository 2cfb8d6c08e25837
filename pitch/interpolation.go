package pitch

// parabolic fits a parabola through the curve values at tau-1, tau and
// tau+1 and returns the sub-sample vertex position and its interpolated
// value. Because the three samples are one lag apart the general parabolic
// interpolation formula collapses to a closed form. A zero curvature term
// means the three points are collinear; the integer lag is kept unchanged.
//
// The formula locates the vertex of the parabola, so it refines minima of
// an inverted curve just as well as maxima.
func parabolic(curve []float64, tau int) (x, y float64) {
	fa := curve[tau-1]
	fb := curve[tau]
	fc := curve[tau+1]

	bottom := fc + fa - 2*fb
	if bottom == 0 {
		return float64(tau), fb
	}

	delta := fa - fc
	return float64(tau) + delta/(2*bottom), fb - delta*delta/(8*bottom)
}
