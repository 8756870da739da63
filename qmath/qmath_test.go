package qmath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const tol = 1e-6

func TestApply(t *testing.T) {
	x, y := Identity.Apply(3, 4)
	assert.Equal(t, float32(3), x)
	assert.Equal(t, float32(4), y)

	x, y = Translate(10, -2).Apply(3, 4)
	assert.Equal(t, float32(13), x)
	assert.Equal(t, float32(2), y)

	x, y = Scale(2, 3).Apply(3, 4)
	assert.Equal(t, float32(6), x)
	assert.Equal(t, float32(12), y)
}

func TestRotate(t *testing.T) {
	// A quarter turn maps the x axis onto the y axis.
	x, y := Rotate(math.Pi / 2).Apply(1, 0)
	assert.InDelta(t, 0, x, tol)
	assert.InDelta(t, 1, y, tol)

	x, y = Rotate(-math.Pi / 2).Apply(0, 1)
	assert.InDelta(t, 1, x, tol)
	assert.InDelta(t, 0, y, tol)
}

func TestMul(t *testing.T) {
	// Mul composes left to right: the receiver is the outer transform.
	m := Translate(5, 0).Mul(Scale(2, 2))
	x, y := m.Apply(1, 1)
	assert.InDelta(t, 7, x, tol)
	assert.InDelta(t, 2, y, tol)

	// Rotation then translation, in both nesting orders.
	a := Translate(1, 0).Mul(Rotate(math.Pi / 2))
	x, y = a.Apply(1, 0)
	assert.InDelta(t, 1, x, tol)
	assert.InDelta(t, 1, y, tol)

	b := Rotate(math.Pi / 2).Mul(Translate(1, 0))
	x, y = b.Apply(0, 0)
	assert.InDelta(t, 0, x, tol)
	assert.InDelta(t, 1, y, tol)
}

func TestMulIdentity(t *testing.T) {
	m := Translate(3, 4).Mul(Rotate(0.3)).Mul(Scale(2, 5))
	assert.Equal(t, m, Identity.Mul(m))
	assert.Equal(t, m, m.Mul(Identity))
}

func TestDeterminant(t *testing.T) {
	assert.Equal(t, float32(1), Identity.Determinant())
	assert.Equal(t, float32(6), Scale(2, 3).Determinant())
	assert.Equal(t, float32(0), Scale(0, 3).Determinant())
	assert.InDelta(t, 1, Rotate(1.2).Determinant(), tol)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 5, Clamp(3, 5, 10))
	assert.Equal(t, 10, Clamp(12, 5, 10))
	assert.Equal(t, 7, Clamp(7, 5, 10))
	assert.Equal(t, float32(0), Clamp(float32(-1), 0, 1))
}
