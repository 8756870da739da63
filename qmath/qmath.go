package qmath

import (
	"math"
	"structs"

	"golang.org/x/exp/constraints"
	"honnef.co/go/curve"
)

// Transform is a 2D affine transform in the layout consumed by the GPU:
// a 2x2 matrix in column-major order followed by a translation vector.
// Points map as
//
//	x' = Matrix[0]*x + Matrix[2]*y + Translation[0]
//	y' = Matrix[1]*x + Matrix[3]*y + Translation[1]
type Transform struct {
	_ structs.HostLayout

	Matrix      [4]float32
	Translation [2]float32
}

var Identity = Transform{
	Matrix: [4]float32{1, 0, 0, 1},
}

func Translate(x, y float32) Transform {
	return Transform{
		Matrix:      [4]float32{1, 0, 0, 1},
		Translation: [2]float32{x, y},
	}
}

func Scale(x, y float32) Transform {
	return Transform{
		Matrix: [4]float32{x, 0, 0, y},
	}
}

// Rotate returns a rotation by angle radians around the origin.
func Rotate(angle float32) Transform {
	sin, cos := math.Sincos(float64(angle))
	s := float32(sin)
	c := float32(cos)
	return Transform{
		Matrix: [4]float32{c, s, -s, c},
	}
}

func (t Transform) Mul(other Transform) Transform {
	return Transform{
		Matrix: [4]float32{
			t.Matrix[0]*other.Matrix[0] + t.Matrix[2]*other.Matrix[1],
			t.Matrix[1]*other.Matrix[0] + t.Matrix[3]*other.Matrix[1],
			t.Matrix[0]*other.Matrix[2] + t.Matrix[2]*other.Matrix[3],
			t.Matrix[1]*other.Matrix[2] + t.Matrix[3]*other.Matrix[3],
		},
		Translation: [2]float32{
			t.Matrix[0]*other.Translation[0] +
				t.Matrix[2]*other.Translation[1] +
				t.Translation[0],
			t.Matrix[1]*other.Translation[0] +
				t.Matrix[3]*other.Translation[1] +
				t.Translation[1],
		},
	}
}

// Apply maps the point (x, y) through the transform.
func (t Transform) Apply(x, y float32) (float32, float32) {
	return t.Matrix[0]*x + t.Matrix[2]*y + t.Translation[0],
		t.Matrix[1]*x + t.Matrix[3]*y + t.Translation[1]
}

// Determinant returns the determinant of the 2x2 part. A zero determinant
// collapses all geometry onto a line or point.
func (t Transform) Determinant() float32 {
	return t.Matrix[0]*t.Matrix[3] - t.Matrix[1]*t.Matrix[2]
}

// FromAffine converts a curve.Affine to a Transform.
func FromAffine(transform curve.Affine) Transform {
	c := transform.Coefficients()
	return Transform{
		Matrix:      [4]float32{float32(c[0]), float32(c[1]), float32(c[2]), float32(c[3])},
		Translation: [2]float32{float32(c[4]), float32(c[5])},
	}
}

// Transform3D is a 4x4 matrix in column-major order. The batching engine
// itself is strictly 2D; the type exists so that scene nodes managed by a 3D
// outer layer can be recognized and rejected during compilation.
type Transform3D struct {
	_ structs.HostLayout

	Matrix [16]float32
}

func Clamp[T constraints.Ordered](v, lo, hi T) T {
	return min(max(v, lo), hi)
}
