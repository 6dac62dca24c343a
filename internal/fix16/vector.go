package fix16

// Vector is an immutable 3-axis Q16.16 vector.
type Vector struct {
	X, Y, Z Fixed
}

func Dot(v1, v2 Vector) Fixed {
	sum := Mul(v1.X, v2.X)
	sum = Add(sum, Mul(v1.Y, v2.Y))
	return Add(sum, Mul(v1.Z, v2.Z))
}

func (v Vector) SquaredMagnitude() Fixed {
	return Dot(v, v)
}

func (v Vector) Magnitude() Fixed {
	return Sqrt(v.SquaredMagnitude())
}

// HalvedMagnitude computes the magnitude of v/2 and doubles the result. It
// keeps two bits of headroom in the squared sum for vectors near the top of
// the 16G range.
func (v Vector) HalvedMagnitude() Fixed {
	h := Vector{X: v.X >> 1, Y: v.Y >> 1, Z: v.Z >> 1}
	return saturate(int64(h.Magnitude()) << 1)
}

// Angle returns the angle between v1 and v2 in radians.
func Angle(v1, v2 Vector) Fixed {
	dot := Dot(v1, v2)
	norms := Mul(v1.Magnitude(), v2.Magnitude())

	// Rounding near 0 degrees can push |dot| past the product of norms.
	if dot.Abs() >= norms {
		if dot > 0 {
			return 0
		}
		return Pi
	}
	return Acos(Div(dot, norms))
}

// MilliG returns each component in milli-g.
func (v Vector) MilliG() (x, y, z int32) {
	return ToMilliG(v.X), ToMilliG(v.Y), ToMilliG(v.Z)
}
