// Package fix16 implements signed Q16.16 fixed-point scalars and 3-vectors.
package fix16

import "math"

// Fixed is a signed Q16.16 fixed-point number.
type Fixed int32

const (
	fracBits = 16

	One  Fixed = 1 << fracBits
	Max  Fixed = math.MaxInt32
	Min  Fixed = math.MinInt32
	Pi   Fixed = 205887 // round(pi * 65536)
	Zero Fixed = 0
)

const thousand Fixed = 1000 << fracBits

func saturate(v int64) Fixed {
	if v > int64(Max) {
		return Max
	}
	if v < int64(Min) {
		return Min
	}
	return Fixed(v)
}

// FromInt converts an integer, saturating outside the representable range.
func FromInt(i int) Fixed {
	return saturate(int64(i) << fracBits)
}

// FromFloat converts with round half away from zero.
func FromFloat(f float64) Fixed {
	t := f * float64(One)
	if t >= 0 {
		t += 0.5
	} else {
		t -= 0.5
	}
	if t > float64(Max) {
		return Max
	}
	if t < float64(Min) {
		return Min
	}
	return Fixed(t)
}

// FromQn converts a signed Qn raw value (n fractional bits, n <= 16).
func FromQn(raw int16, n uint) Fixed {
	return Fixed(int32(raw) << (fracBits - n))
}

func (f Fixed) Float() float64 {
	return float64(f) / float64(One)
}

// Int rounds to the nearest integer, halves away from zero.
func (f Fixed) Int() int {
	half := int64(One >> 1)
	v := int64(f)
	if v >= 0 {
		return int((v + half) / int64(One))
	}
	return int((v - half) / int64(One))
}

func (f Fixed) Abs() Fixed {
	if f < 0 {
		return saturate(-int64(f))
	}
	return f
}

func Add(a, b Fixed) Fixed {
	return saturate(int64(a) + int64(b))
}

func Sub(a, b Fixed) Fixed {
	return saturate(int64(a) - int64(b))
}

// Mul multiplies with rounding to nearest.
func Mul(a, b Fixed) Fixed {
	p := int64(a) * int64(b)
	if p >= 0 {
		p += 1 << (fracBits - 1)
	} else {
		p -= 1 << (fracBits - 1)
	}
	return saturate(p / int64(One))
}

// Div divides with rounding to nearest. Division by zero saturates toward
// the sign of a.
func Div(a, b Fixed) Fixed {
	if b == 0 {
		if a < 0 {
			return Min
		}
		return Max
	}
	num := int64(a) << fracBits
	den := int64(b)
	q := num / den
	r := num % den
	if r < 0 {
		r = -r
	}
	if den < 0 {
		den = -den
	}
	if 2*r >= den {
		if (num < 0) != (int64(b) < 0) {
			q--
		} else {
			q++
		}
	}
	return saturate(q)
}

// Sqrt returns the square root rounded to nearest. Negative input yields 0.
func Sqrt(a Fixed) Fixed {
	if a <= 0 {
		return 0
	}
	return Fixed(isqrtRound(uint64(a) << fracBits))
}

func isqrtRound(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	r := uint64(math.Sqrt(float64(n)))
	for r*r > n {
		r--
	}
	for (r+1)*(r+1) <= n {
		r++
	}
	if n-r*r > r {
		r++
	}
	return r
}

// Acos returns the arc cosine of a value in [-1, 1].
func Acos(a Fixed) Fixed {
	x := a.Float()
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}
	return FromFloat(math.Acos(x))
}

// ToMilliG converts a value in g to milli-g, round(value * 1000).
func ToMilliG(f Fixed) int32 {
	return int32(Mul(f, thousand).Int())
}
