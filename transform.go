package sprite

import "math"

// Affine represents a 2D affine transformation as a 3x2 matrix in
// column-major order:
//
//	| m00  m10  tx |
//	| m01  m11  ty |
//
// stored as [m00, m01, m10, m11, tx, ty]. It represents the transformation:
//
//	x' = m00*x + m10*y + tx
//	y' = m01*x + m11*y + ty
//
// Sprites are placed by transforming the corners of their source rectangle,
// so the zero value collapses a quad to a point; start from Identity,
// Translation, Scaling or Rotation instead.
type Affine [6]float32

// Identity returns the identity transformation.
func Identity() Affine {
	return Affine{1, 0, 0, 1, 0, 0}
}

// Translation returns a transform that translates by (tx, ty).
func Translation(tx, ty float32) Affine {
	return Affine{1, 0, 0, 1, tx, ty}
}

// Scaling returns a transform that scales by (sx, sy).
func Scaling(sx, sy float32) Affine {
	return Affine{sx, 0, 0, sy, 0, 0}
}

// Rotation returns a transform that rotates by theta radians.
func Rotation(theta float32) Affine {
	c := float32(math.Cos(float64(theta)))
	s := float32(math.Sin(float64(theta)))
	return Affine{c, s, -s, c, 0, 0}
}

// Mul returns the transform that applies a first, then b.
func (a Affine) Mul(b Affine) Affine {
	return Affine{
		a[0]*b[0] + a[1]*b[2],
		a[0]*b[1] + a[1]*b[3],
		a[2]*b[0] + a[3]*b[2],
		a[2]*b[1] + a[3]*b[3],
		a[4]*b[0] + a[5]*b[2] + b[4],
		a[4]*b[1] + a[5]*b[3] + b[5],
	}
}

// Determinant returns the determinant of the 2x2 linear part.
func (a Affine) Determinant() float32 {
	return a[0]*a[3] - a[1]*a[2]
}

// Invert returns the inverse transform. It reports false if the matrix is
// degenerate (zero determinant), in which case the returned value is the
// receiver unchanged.
func (a Affine) Invert() (Affine, bool) {
	det := a.Determinant()
	if det == 0 {
		return a, false
	}
	return Affine{
		a[3] / det,
		-a[1] / det,
		-a[2] / det,
		a[0] / det,
		(a[1]*a[5] - a[3]*a[4]) / det,
		(a[4]*a[2] - a[0]*a[5]) / det,
	}, true
}

// Apply transforms the point (x, y).
func (a Affine) Apply(x, y float32) (float32, float32) {
	return x*a[0] + y*a[2] + a[4],
		x*a[1] + y*a[3] + a[5]
}

// IsIdentity reports whether the transform is the identity.
func (a Affine) IsIdentity() bool {
	return a == Affine{1, 0, 0, 1, 0, 0}
}

// Mat4 expands the affine transform to a column-major 4x4 matrix, the form
// consumed by the group uniform block.
func (a Affine) Mat4() [16]float32 {
	return [16]float32{
		a[0], a[1], 0, 0,
		a[2], a[3], 0, 0,
		0, 0, 1, 0,
		a[4], a[5], 0, 1,
	}
}
