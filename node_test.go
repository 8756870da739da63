package quilt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"honnef.co/go/quilt/gfx"
	"honnef.co/go/quilt/qmath"
)

func TestNewQuadDefaults(t *testing.T) {
	q := NewQuad(32, 16)
	assert.Equal(t, qmath.Identity, q.Transform)
	assert.Equal(t, float32(1), q.Alpha)
	assert.True(t, q.Visible)
	assert.Equal(t, gfx.White, q.Color)
	assert.False(t, q.Tinted())
	assert.Equal(t, [4][2]float32{{0, 0}, {1, 0}, {0, 1}, {1, 1}}, q.UV)
}

func TestNewImage(t *testing.T) {
	tex := &fakeTexture{premultiplied: true}
	q := NewImage(tex, 64, 64)
	assert.Same(t, tex, q.Texture.(*fakeTexture))
	assert.True(t, q.PremultipliedAlpha)
}

func TestQuadTinted(t *testing.T) {
	q := NewQuad(10, 10)
	assert.False(t, q.Tinted())
	q.Color = [4]float32{1, 1, 1, 0.5}
	assert.True(t, q.Tinted())
	q.Color = gfx.White
	// Alpha lives outside the vertex colors and does not tint by itself.
	q.Alpha = 0.5
	assert.False(t, q.Tinted())
}

func TestHasVisibleArea(t *testing.T) {
	q := NewQuad(10, 10)
	assert.True(t, hasVisibleArea(q))

	q.Visible = false
	assert.False(t, hasVisibleArea(q))
	q.Visible = true
	q.Alpha = 0
	assert.False(t, hasVisibleArea(q))
	q.Alpha = 1
	q.Transform = qmath.Scale(0, 1)
	assert.False(t, hasVisibleArea(q))

	c := NewContainer()
	assert.True(t, hasVisibleArea(c))
	c.Alpha = 0
	assert.False(t, hasVisibleArea(c))

	b := NewBatch()
	assert.True(t, hasVisibleArea(b))
	b.Visible = false
	assert.False(t, hasVisibleArea(b))
}
