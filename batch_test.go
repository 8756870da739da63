package quilt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"honnef.co/go/curve"

	"honnef.co/go/quilt/gfx"
	"honnef.co/go/quilt/qmath"
)

func TestBatchAdd(t *testing.T) {
	b := NewBatch()
	assert.Equal(t, 0, b.NumQuads())
	assert.Equal(t, 0, b.Capacity())

	for range 3 {
		require.NoError(t, b.Add(NewQuad(10, 10)))
	}
	assert.Equal(t, 3, b.NumQuads())
	// The first add grows the zero-capacity store to 16.
	assert.Equal(t, 16, b.Capacity())
	assert.True(t, b.Geometry().Dirty())
}

func TestBatchAddAtLimit(t *testing.T) {
	b := NewBatch()
	require.NoError(t, b.SetCapacity(MaxQuads))
	b.geometry.numQuads = MaxQuads
	err := b.Add(NewQuad(1, 1))
	require.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, MaxQuads, b.NumQuads())
}

func TestBatchStateAdoption(t *testing.T) {
	tex := &fakeTexture{premultiplied: true}
	b := NewBatch()
	q := NewQuad(10, 10)
	q.Texture = tex
	q.Smoothing = gfx.SmoothingTrilinear
	q.PremultipliedAlpha = true
	require.NoError(t, b.AddQuad(q, 1, q.Texture, q.Smoothing, q.Transform, gfx.BlendAdd))

	assert.Same(t, tex, b.Texture().(*fakeTexture))
	assert.Equal(t, gfx.SmoothingTrilinear, b.Smoothing())
	assert.Equal(t, gfx.BlendAdd, b.Blend)
	assert.True(t, b.PremultipliedAlpha())
	assert.False(t, b.Tinted())
}

func TestBatchBlendFallback(t *testing.T) {
	// An inherit blend argument falls back to the quad's own mode, and an
	// inherit quad falls back to normal.
	q := NewQuad(10, 10)
	q.Blend = gfx.BlendScreen
	b := NewBatch()
	require.NoError(t, b.AddQuad(q, 1, nil, q.Smoothing, q.Transform, gfx.BlendInherit))
	assert.Equal(t, gfx.BlendScreen, b.Blend)

	b2 := NewBatch()
	require.NoError(t, b2.AddQuad(NewQuad(1, 1), 1, nil, gfx.SmoothingBilinear, qmath.Identity, gfx.BlendInherit))
	assert.Equal(t, gfx.BlendNormal, b2.Blend)
}

func TestBatchVertexPositions(t *testing.T) {
	b := NewBatch()
	q := NewQuad(20, 10)
	require.NoError(t, b.AddQuad(q, 1, nil, q.Smoothing, qmath.Translate(5, 7), q.Blend))

	verts := b.Geometry().Vertices()
	assert.Equal(t, [2]float32{5, 7}, verts[0].Pos)
	assert.Equal(t, [2]float32{25, 7}, verts[1].Pos)
	assert.Equal(t, [2]float32{5, 17}, verts[2].Pos)
	assert.Equal(t, [2]float32{25, 17}, verts[3].Pos)
}

func TestBatchAlphaScaling(t *testing.T) {
	// Straight storage scales only the alpha channel.
	b := NewBatch()
	q := NewQuad(10, 10)
	q.Color = [4]float32{1, 0.5, 0, 1}
	require.NoError(t, b.AddQuad(q, 0.5, nil, q.Smoothing, q.Transform, q.Blend))
	v := b.Geometry().Vertices()[0]
	assert.Equal(t, [4]float32{1, 0.5, 0, 0.5}, v.Color)

	// Premultiplied storage scales every channel.
	b2 := NewBatch()
	q2 := NewQuad(10, 10)
	q2.PremultipliedAlpha = true
	require.NoError(t, b2.AddQuad(q2, 0.5, nil, q2.Smoothing, q2.Transform, q2.Blend))
	v2 := b2.Geometry().Vertices()[0]
	assert.Equal(t, [4]float32{0.5, 0.5, 0.5, 0.5}, v2.Color)
}

func TestBatchAddBatch(t *testing.T) {
	src := NewBatch()
	for range 3 {
		require.NoError(t, src.Add(NewQuad(10, 10)))
	}
	dst := NewBatch()
	require.NoError(t, dst.Add(NewQuad(10, 10)))
	require.NoError(t, dst.AddBatch(src, 1, qmath.Translate(100, 0), src.Blend))
	assert.Equal(t, 4, dst.NumQuads())

	// The merged quads moved, the original quad did not.
	verts := dst.Geometry().Vertices()
	assert.Equal(t, [2]float32{0, 0}, verts[0].Pos)
	assert.Equal(t, [2]float32{100, 0}, verts[4].Pos)
}

func TestBatchAddBatchConvention(t *testing.T) {
	// Merging a straight-alpha batch into a premultiplied one converts the
	// vertex colors.
	dst := NewBatch()
	q := NewQuad(10, 10)
	q.PremultipliedAlpha = true
	require.NoError(t, dst.Add(q))

	src := NewBatch()
	q2 := NewQuad(10, 10)
	q2.Color = [4]float32{1, 1, 1, 0.5}
	require.NoError(t, src.Add(q2))

	require.NoError(t, dst.AddBatch(src, 1, qmath.Identity, src.Blend))
	v := dst.Geometry().Vertices()[4]
	assert.Equal(t, [4]float32{0.5, 0.5, 0.5, 0.5}, v.Color)
}

func TestBatchVertexColor(t *testing.T) {
	b := NewBatch()
	require.NoError(t, b.Add(NewQuad(10, 10)))
	assert.Equal(t, gfx.White, b.VertexColor(0, 0))
	assert.False(t, b.Tinted())

	b.SetVertexColor(0, 1, [4]float32{1, 0, 0, 1})
	assert.Equal(t, [4]float32{1, 0, 0, 1}, b.VertexColor(0, 1))
	assert.True(t, b.Tinted())

	b.SetVertexAlpha(0, 2, 0.25)
	assert.InDelta(t, 0.25, b.VertexAlpha(0, 2), 1e-6)

	b.SetQuadColor(0, [4]float32{0, 1, 0, 1})
	assert.Equal(t, [4]float32{0, 1, 0, 1}, b.QuadColor(0))
	b.SetQuadAlpha(0, 0.5)
	assert.InDelta(t, 0.5, b.QuadAlpha(0), 1e-6)

	assert.Panics(t, func() { b.VertexColor(1, 0) })
	assert.Panics(t, func() { b.VertexColor(0, 4) })
}

func TestBatchVertexColorPremultiplied(t *testing.T) {
	// The accessors speak straight RGBA regardless of the storage
	// convention.
	b := NewBatch()
	q := NewQuad(10, 10)
	q.PremultipliedAlpha = true
	require.NoError(t, b.Add(q))

	b.SetVertexColor(0, 0, [4]float32{1, 0.5, 0, 0.5})
	stored := b.Geometry().Vertices()[0].Color
	assert.InDelta(t, 0.5, stored[0], 1e-6)
	assert.InDelta(t, 0.25, stored[1], 1e-6)
	got := b.VertexColor(0, 0)
	assert.InDelta(t, 1, got[0], 1e-6)
	assert.InDelta(t, 0.5, got[1], 1e-6)
}

func TestBatchSetColorValueBounds(t *testing.T) {
	b := NewBatch()
	require.NoError(t, b.Add(NewQuad(10, 10)))
	assert.Panics(t, func() { b.SetVertexColorValue(1, 0, nil) })
	assert.Panics(t, func() { b.SetVertexColorValue(0, 4, nil) })
	assert.Panics(t, func() { b.SetQuadColorValue(3, nil) })
}

func TestBatchSetQuad(t *testing.T) {
	b := NewBatch()
	require.NoError(t, b.Add(NewQuad(10, 10)))
	q := NewQuad(4, 4)
	q.Transform = qmath.Translate(1, 2)
	b.SetQuad(0, q)
	assert.Equal(t, 1, b.NumQuads())
	assert.Equal(t, [2]float32{1, 2}, b.Geometry().Vertices()[0].Pos)
	assert.Panics(t, func() { b.SetQuad(5, q) })
}

func TestBatchTransformQuad(t *testing.T) {
	b := NewBatch()
	require.NoError(t, b.Add(NewQuad(10, 10)))
	b.TransformQuad(0, qmath.Translate(3, 4))
	assert.Equal(t, [2]float32{3, 4}, b.Geometry().Vertices()[0].Pos)
	assert.Equal(t, [2]float32{13, 14}, b.Geometry().Vertices()[3].Pos)
}

func TestBatchBounds(t *testing.T) {
	b := NewBatch()
	assert.Equal(t, curve.Rect{}, b.Bounds(nil))

	q := NewQuad(10, 20)
	q.Transform = qmath.Translate(5, 5)
	require.NoError(t, b.Add(q))
	r := b.Bounds(nil)
	assert.InDelta(t, 5, r.X0, 1e-6)
	assert.InDelta(t, 5, r.Y0, 1e-6)
	assert.InDelta(t, 15, r.X1, 1e-6)
	assert.InDelta(t, 25, r.Y1, 1e-6)

	m := qmath.Scale(2, 2)
	r = b.QuadBounds(0, &m)
	assert.InDelta(t, 10, r.X0, 1e-6)
	assert.InDelta(t, 50, r.Y1, 1e-6)
}

func TestBatchReset(t *testing.T) {
	tex := &fakeTexture{}
	b := texturedBatch(t, tex)
	b.SetOwnership(TextureOwned)
	capBefore := b.Capacity()

	b.Reset()
	assert.Equal(t, 1, tex.disposed)
	assert.Nil(t, b.Texture())
	assert.False(t, b.OwnsTexture())
	assert.Equal(t, 0, b.NumQuads())
	assert.Equal(t, capBefore, b.Capacity())
	assert.False(t, b.Tinted())
}

func TestBatchResetUnownedTexture(t *testing.T) {
	tex := &fakeTexture{}
	b := texturedBatch(t, tex)
	b.Reset()
	assert.Equal(t, 0, tex.disposed)
}

func TestBatchDispose(t *testing.T) {
	tex := &fakeTexture{}
	b := texturedBatch(t, tex)
	b.SetOwnership(TextureOwned)
	b.Dispose()
	assert.Equal(t, 1, tex.disposed)
	assert.Equal(t, 0, b.Capacity())
}

func TestBatchClone(t *testing.T) {
	tex := &fakeTexture{}
	b := NewBatch()
	q := NewQuad(10, 10)
	q.Texture = tex
	q.Color = [4]float32{1, 0, 0, 1}
	require.NoError(t, b.Add(q))
	b.SetOwnership(TextureOwned)

	clone := b.Clone()
	assert.Equal(t, 1, clone.NumQuads())
	assert.True(t, clone.Tinted())
	assert.Same(t, tex, clone.Texture().(*fakeTexture))
	// Clones share the texture but never own it.
	assert.False(t, clone.OwnsTexture())
	assert.Equal(t, b.Geometry().Vertices()[:4], clone.Geometry().Vertices()[:4])

	// Deep copy: mutating the clone leaves the original alone.
	clone.TransformQuad(0, qmath.Translate(100, 0))
	assert.NotEqual(t, b.Geometry().Vertices()[0].Pos, clone.Geometry().Vertices()[0].Pos)
}

func TestBatchRender(t *testing.T) {
	gpu := newRecordingBackend()

	empty := NewBatch()
	empty.Render(gpu)
	assert.Empty(t, gpu.draws)

	tex := &fakeTexture{}
	b := texturedBatch(t, tex)
	b.Transform = qmath.Translate(1, 2)
	b.Alpha = 0.5
	b.Render(gpu)
	require.Len(t, gpu.draws, 1)
	call := gpu.draws[0]
	assert.Equal(t, 1, call.QuadCount)
	assert.Equal(t, 0, call.StartQuad)
	assert.Equal(t, qmath.Translate(1, 2), call.Transform)
	assert.Equal(t, float32(0.5), call.Alpha)
	assert.Equal(t, gfx.BlendNormal, call.Blend)
	assert.NotZero(t, call.VertexBuffer)
	assert.NotZero(t, call.IndexBuffer)

	// Rendering again does not re-upload clean geometry.
	uploads := gpu.totalUploads()
	b.Render(gpu)
	assert.Equal(t, uploads, gpu.totalUploads())
	assert.Len(t, gpu.draws, 2)
}
