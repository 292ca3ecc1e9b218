package grove

import "math"

// Matrix is a 2D affine transform stored as [a, b, c, d, tx, ty]:
//
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
//
// Values are float64; drivers that need 32-bit floats call Float32.
type Matrix [6]float64

// singularEpsilon is the determinant magnitude below which a matrix is
// treated as non-invertible.
const singularEpsilon = 1e-12

// Identity is the identity matrix.
var Identity = Matrix{1, 0, 0, 1, 0, 0}

// Translation returns a pure translation matrix.
func Translation(x, y float64) Matrix {
	return Matrix{1, 0, 0, 1, x, y}
}

// Compose builds translate(x,y)·rotate(rotation)·scale(sx,sy)·translate(-px,-py).
// Rotation is in radians.
func Compose(x, y, rotation, scaleX, scaleY, pivotX, pivotY float64) Matrix {
	return ComposeSkew(x, y, rotation, scaleX, scaleY, 0, 0, pivotX, pivotY)
}

// ComposeSkew is Compose with a skew applied between scale and rotation:
//
//	Translate(-pivot) -> Scale -> Skew -> Rotate -> Translate(x, y)
func ComposeSkew(x, y, rotation, scaleX, scaleY, skewX, skewY, pivotX, pivotY float64) Matrix {
	sin, cos := math.Sincos(rotation)

	var tanSkewX, tanSkewY float64
	if skewX != 0 {
		tanSkewX = math.Tan(skewX)
	}
	if skewY != 0 {
		tanSkewY = math.Tan(skewY)
	}

	// Scale then skew.
	a := scaleX
	b := tanSkewY * scaleX
	c := tanSkewX * scaleY
	d := scaleY

	// Rotate.
	ra := cos*a - sin*b
	rb := sin*a + cos*b
	rc := cos*c - sin*d
	rd := sin*c + cos*d

	// The pivot is pulled back through the linear part, then translated.
	return Matrix{
		ra, rb, rc, rd,
		x - (ra*pivotX + rc*pivotY),
		y - (rb*pivotX + rd*pivotY),
	}
}

// Append returns m·o: o is applied first, then m. A child's world matrix is
// parent.World().Append(child.Local()).
func (m Matrix) Append(o Matrix) Matrix {
	return Matrix{
		m[0]*o[0] + m[2]*o[1],
		m[1]*o[0] + m[3]*o[1],
		m[0]*o[2] + m[2]*o[3],
		m[1]*o[2] + m[3]*o[3],
		m[0]*o[4] + m[2]*o[5] + m[4],
		m[1]*o[4] + m[3]*o[5] + m[5],
	}
}

// Prepend returns o·m: m is applied first, then o.
func (m Matrix) Prepend(o Matrix) Matrix {
	return o.Append(m)
}

// Determinant returns a*d - c*b.
func (m Matrix) Determinant() float64 {
	return m[0]*m[3] - m[2]*m[1]
}

// Invertible reports whether the determinant is far enough from zero for
// Invert to produce a meaningful result.
func (m Matrix) Invertible() bool {
	return math.Abs(m.Determinant()) >= singularEpsilon
}

// Invert returns the inverse of m. Singular matrices (|det| < 1e-12) invert
// to Identity; use Invertible to tell the cases apart.
func (m Matrix) Invert() Matrix {
	det := m.Determinant()
	if det > -singularEpsilon && det < singularEpsilon {
		return Identity
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return Matrix{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// TransformPoint applies m to the point (x, y).
func (m Matrix) TransformPoint(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// TransformRect returns the axis-aligned bounding rectangle of r's four
// corners after transformation.
func (m Matrix) TransformRect(r Rect) Rect {
	x0, y0 := m.TransformPoint(r.X, r.Y)
	x1, y1 := m.TransformPoint(r.X+r.Width, r.Y)
	x2, y2 := m.TransformPoint(r.X, r.Y+r.Height)
	x3, y3 := m.TransformPoint(r.X+r.Width, r.Y+r.Height)
	minX := math.Min(math.Min(x0, x1), math.Min(x2, x3))
	minY := math.Min(math.Min(y0, y1), math.Min(y2, y3))
	maxX := math.Max(math.Max(x0, x1), math.Max(x2, x3))
	maxY := math.Max(math.Max(y0, y1), math.Max(y2, y3))
	return Rect{minX, minY, maxX - minX, maxY - minY}
}

// Near reports whether every component of m is within eps of o.
func (m Matrix) Near(o Matrix, eps float64) bool {
	for i := range m {
		if math.Abs(m[i]-o[i]) > eps {
			return false
		}
	}
	return true
}

// Float32 converts m for drivers that upload 32-bit matrices.
func (m Matrix) Float32() [6]float32 {
	return [6]float32{float32(m[0]), float32(m[1]), float32(m[2]), float32(m[3]), float32(m[4]), float32(m[5])}
}
