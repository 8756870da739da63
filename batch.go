package quilt

import (
	"math"

	"honnef.co/go/color"
	"honnef.co/go/curve"

	"honnef.co/go/quilt/gfx"
	"honnef.co/go/quilt/qmath"
)

// TextureOwnership states how a batch holds its texture: borrowed textures
// outlive the batch, owned textures are disposed with it. The two cases are
// explicit so disposal handles both.
type TextureOwnership uint8

const (
	TextureBorrowed TextureOwnership = iota
	TextureOwned
)

// Batch is a collection of quads sharing one rendering state, stored in one
// contiguous geometry buffer and rendered with one draw call.
//
// A batch is created empty. The first quad added fixes its state: texture,
// smoothing, blend mode, effective tint and premultiplied-alpha convention.
// Subsequent adds must be compatible per IsStateChange; routing every
// admission decision through that predicate is what keeps manual batching
// and the compiler in agreement. Reset clears count and state but keeps the
// buffer capacity for reuse.
//
// A batch is also a scene Node, so pre-built batches can appear as leaves in
// a tree handed to Compile. The exported display fields only matter in that
// role, except for Blend, which doubles as the batch's adopted blend state.
type Batch struct {
	Transform   qmath.Transform
	Transform3D *qmath.Transform3D
	Alpha       float32
	Visible     bool
	// Blend is the blend mode of the batch. While the batch is empty it acts
	// as an inherit-able node property; the first quad added fixes it.
	Blend    gfx.BlendMode
	Filter   Filter
	Mask     Node
	ClipRect *curve.Rect

	// ForceTinted keeps the batch on the tinting shader path even when all
	// of its geometry is untinted. Useful when frequent tint changes are
	// expected and re-batching would be more expensive than the fatter
	// shader.
	ForceTinted bool
	// Batchable is an advisory flag for callers composing batches manually:
	// it marks the batch as safe to merge into a containing batch. Compile
	// and Optimize do not consult it.
	Batchable bool

	geometry      *GeometryStore
	texture       gfx.Texture
	ownership     TextureOwnership
	smoothing     gfx.TextureSmoothing
	premultiplied bool
	// tinted is the admission state: whether the vertex data deviates from
	// opaque white, with accumulated alpha folded in. colorized tracks the
	// color deviation alone and backs the reported Tinted. The two
	// intentionally disagree when only the accumulated alpha deviates; see
	// IsStateChange.
	tinted    bool
	colorized bool
}

// NewBatch returns an empty batch with zero-capacity geometry, an identity
// transform and full alpha.
func NewBatch() *Batch {
	return &Batch{
		Transform:     qmath.Identity,
		Alpha:         1,
		Visible:       true,
		Batchable:     true,
		premultiplied: true,
		geometry:      NewGeometryStore(),
	}
}

// Geometry exposes the underlying store for capacity management and syncing.
func (b *Batch) Geometry() *GeometryStore { return b.geometry }

func (b *Batch) NumQuads() int { return b.geometry.numQuads }
func (b *Batch) Capacity() int { return b.geometry.Capacity() }

func (b *Batch) SetCapacity(n int) error { return b.geometry.SetCapacity(n) }

// Texture returns the texture adopted from the first quad, or nil.
func (b *Batch) Texture() gfx.Texture { return b.texture }

func (b *Batch) Smoothing() gfx.TextureSmoothing { return b.smoothing }

// PremultipliedAlpha reports the storage convention of the vertex colors.
func (b *Batch) PremultipliedAlpha() bool { return b.premultiplied }

// Tinted reports whether the batch needs a tinting-capable shader path:
// either ForceTinted is set or some vertex color deviates from opaque
// white. Accumulated alpha is deliberately not part of the reported value,
// even though admission control folds it in.
func (b *Batch) Tinted() bool { return b.ForceTinted || b.colorized }

// Ownership reports whether the batch borrows its texture or owns it.
func (b *Batch) Ownership() TextureOwnership { return b.ownership }

// OwnsTexture reports whether disposing the batch disposes its texture.
func (b *Batch) OwnsTexture() bool { return b.ownership == TextureOwned }

// SetOwnership ties, or unties, the texture's lifetime to the batch. At most
// one batch may own any given texture; the compiler marks the ephemeral
// render targets produced by filters as TextureOwned.
func (b *Batch) SetOwnership(o TextureOwnership) { b.ownership = o }

// disposeTexture runs the disposal side of the ownership state.
func (b *Batch) disposeTexture() {
	switch b.ownership {
	case TextureOwned:
		if b.texture != nil {
			b.texture.Dispose()
		}
	case TextureBorrowed:
		// The texture outlives the batch.
	}
	b.texture = nil
	b.ownership = TextureBorrowed
}

// Add appends q using its own transform, alpha, texture and blend mode.
func (b *Batch) Add(q *Quad) error {
	return b.AddQuad(q, q.Alpha, q.Texture, q.Smoothing, q.Transform, q.Blend)
}

// AddQuad appends q's four vertices, transformed by m, to the batch. If this
// is the first quad, the batch adopts blend (falling back to the quad's own
// mode), texture, smoothing, effective tint and the quad's
// premultiplied-alpha convention as its fixed state. alpha scales the
// written vertex alphas once; it is not compounded with any later scale.
//
// The store grows by the 16-then-double schedule as needed. Adding past
// MaxQuads fails with ErrCapacityExceeded.
func (b *Batch) AddQuad(q *Quad, alpha float32, texture gfx.Texture, smoothing gfx.TextureSmoothing, m qmath.Transform, blend gfx.BlendMode) error {
	if err := b.geometry.ensure(b.geometry.numQuads + 1); err != nil {
		return err
	}
	if b.geometry.numQuads == 0 {
		b.Blend = blend.Resolve(q.Blend).Resolve(gfx.BlendNormal)
		b.texture = texture
		b.smoothing = smoothing
		b.premultiplied = q.PremultipliedAlpha
		b.tinted = b.ForceTinted || q.Tinted() || alpha != 1
		if q.Tinted() {
			b.colorized = true
		}
	}

	vertexID := b.geometry.numQuads * verticesPerQuad
	b.writeQuad(vertexID, q, m)
	if alpha != 1 {
		b.scaleAlpha(vertexID, verticesPerQuad, alpha)
	}
	b.geometry.numQuads++
	b.geometry.dirty = true
	return nil
}

// AddBatch appends all of other's quads, transformed by m, to the batch,
// growing capacity to fit. The contract matches AddQuad, with other's state
// standing in for the quad's.
func (b *Batch) AddBatch(other *Batch, alpha float32, m qmath.Transform, blend gfx.BlendMode) error {
	n := other.geometry.numQuads
	if n == 0 {
		return nil
	}
	if err := b.geometry.ensure(b.geometry.numQuads + n); err != nil {
		return err
	}
	if b.geometry.numQuads == 0 {
		b.Blend = blend.Resolve(other.Blend).Resolve(gfx.BlendNormal)
		b.texture = other.texture
		b.smoothing = other.smoothing
		b.premultiplied = other.premultiplied
		b.tinted = b.ForceTinted || other.tinted || alpha != 1
		if other.colorized {
			b.colorized = true
		}
	}

	vertexID := b.geometry.numQuads * verticesPerQuad
	src := other.geometry.vertices[:n*verticesPerQuad]
	dst := b.geometry.vertices[vertexID:]
	for i, v := range src {
		c := v.Color
		if other.premultiplied != b.premultiplied {
			if b.premultiplied {
				c = gfx.Premultiply(c)
			} else {
				c = gfx.Unmultiply(c)
			}
		}
		x, y := m.Apply(v.Pos[0], v.Pos[1])
		dst[i] = Vertex{Pos: [2]float32{x, y}, Color: c, UV: v.UV}
	}
	if alpha != 1 {
		b.scaleAlpha(vertexID, n*verticesPerQuad, alpha)
	}
	b.geometry.numQuads += n
	b.geometry.dirty = true
	return nil
}

// SetQuad overwrites one quad slot in place using the quad's own transform
// and alpha. The batch's state and quad count are unchanged.
func (b *Batch) SetQuad(index int, q *Quad) {
	b.checkQuadIndex(index)
	vertexID := index * verticesPerQuad
	b.writeQuad(vertexID, q, q.Transform)
	if q.Alpha != 1 {
		b.scaleAlpha(vertexID, verticesPerQuad, q.Alpha)
	}
	b.geometry.dirty = true
}

// writeQuad writes q's four vertices, transformed by m, into the slots
// starting at vertexID, converting colors to the batch's convention.
func (b *Batch) writeQuad(vertexID int, q *Quad, m qmath.Transform) {
	for i := range verticesPerQuad {
		v := q.vertex(i)
		if b.premultiplied {
			v.Color = gfx.Premultiply(v.Color)
		}
		x, y := m.Apply(v.Pos[0], v.Pos[1])
		v.Pos = [2]float32{x, y}
		b.geometry.vertices[vertexID+i] = v
	}
}

// scaleAlpha scales the alpha of count vertices starting at firstVertex.
// Under the premultiplied convention every channel is scaled, otherwise only
// the alpha channel.
func (b *Batch) scaleAlpha(firstVertex, count int, factor float32) {
	for i := firstVertex; i < firstVertex+count; i++ {
		v := &b.geometry.vertices[i]
		if b.premultiplied {
			v.Color[0] *= factor
			v.Color[1] *= factor
			v.Color[2] *= factor
			v.Color[3] *= factor
		} else {
			v.Color[3] *= factor
		}
	}
}

func (b *Batch) checkQuadIndex(index int) {
	if index < 0 || index >= b.geometry.numQuads {
		panic("quilt: quad index out of range")
	}
}

func (b *Batch) checkVertexIndex(vertex int) {
	if vertex < 0 || vertex >= verticesPerQuad {
		panic("quilt: vertex index out of range")
	}
}

// VertexColor returns the straight RGBA color of one of a quad's four
// vertices.
func (b *Batch) VertexColor(index, vertex int) [4]float32 {
	b.checkQuadIndex(index)
	b.checkVertexIndex(vertex)
	c := b.geometry.vertices[index*verticesPerQuad+vertex].Color
	if b.premultiplied {
		c = gfx.Unmultiply(c)
	}
	return c
}

// SetVertexColor replaces the straight RGBA color of one of a quad's four
// vertices, storing it per the batch's convention.
func (b *Batch) SetVertexColor(index, vertex int, rgba [4]float32) {
	b.checkQuadIndex(index)
	b.checkVertexIndex(vertex)
	if b.premultiplied {
		rgba = gfx.Premultiply(rgba)
	}
	b.geometry.vertices[index*verticesPerQuad+vertex].Color = rgba
	b.noteColor(rgba)
	b.geometry.dirty = true
}

// SetVertexColorValue replaces the color of one of a quad's four vertices
// with c, converted straight to the batch's storage convention.
func (b *Batch) SetVertexColorValue(index, vertex int, c *color.Color) {
	b.checkQuadIndex(index)
	b.checkVertexIndex(vertex)
	var stored [4]float32
	if b.premultiplied {
		stored = gfx.Premul32(c)
	} else {
		stored = gfx.Straight32(c)
	}
	b.geometry.vertices[index*verticesPerQuad+vertex].Color = stored
	b.noteColor(stored)
	b.geometry.dirty = true
}

// SetQuadColorValue sets all four vertices of a quad to c.
func (b *Batch) SetQuadColorValue(index int, c *color.Color) {
	for v := range verticesPerQuad {
		b.SetVertexColorValue(index, v, c)
	}
}

// VertexAlpha returns the alpha of one of a quad's four vertices.
func (b *Batch) VertexAlpha(index, vertex int) float32 {
	b.checkQuadIndex(index)
	b.checkVertexIndex(vertex)
	return b.geometry.vertices[index*verticesPerQuad+vertex].Color[3]
}

// SetVertexAlpha replaces the alpha of one vertex, keeping its color.
func (b *Batch) SetVertexAlpha(index, vertex int, alpha float32) {
	c := b.VertexColor(index, vertex)
	c[3] = alpha
	b.SetVertexColor(index, vertex, c)
}

// QuadColor returns the color of a quad, using its first vertex as the
// representative.
func (b *Batch) QuadColor(index int) [4]float32 {
	return b.VertexColor(index, 0)
}

// SetQuadColor sets all four vertices of a quad to the same color.
func (b *Batch) SetQuadColor(index int, rgba [4]float32) {
	for v := range verticesPerQuad {
		b.SetVertexColor(index, v, rgba)
	}
}

// QuadAlpha returns the alpha of a quad, using its first vertex as the
// representative.
func (b *Batch) QuadAlpha(index int) float32 {
	return b.VertexAlpha(index, 0)
}

// SetQuadAlpha sets the alpha of all four vertices of a quad.
func (b *Batch) SetQuadAlpha(index int, alpha float32) {
	for v := range verticesPerQuad {
		b.SetVertexAlpha(index, v, alpha)
	}
}

// noteColor records that vertex data deviating from opaque white may now be
// present. The flags are never cleared by edits; only Reset does.
func (b *Batch) noteColor(stored [4]float32) {
	straight := stored
	if b.premultiplied {
		straight = gfx.Unmultiply(stored)
	}
	if straight != gfx.White {
		b.tinted = true
		b.colorized = true
	}
}

// TransformQuad applies m to the four positions of one quad in place.
func (b *Batch) TransformQuad(index int, m qmath.Transform) {
	b.checkQuadIndex(index)
	for v := range verticesPerQuad {
		p := &b.geometry.vertices[index*verticesPerQuad+v].Pos
		p[0], p[1] = m.Apply(p[0], p[1])
	}
	b.geometry.dirty = true
}

// QuadBounds returns the axis-aligned bounding rectangle of one quad,
// optionally transformed by m.
func (b *Batch) QuadBounds(index int, m *qmath.Transform) curve.Rect {
	b.checkQuadIndex(index)
	first := index * verticesPerQuad
	return b.vertexBounds(first, verticesPerQuad, m)
}

// Bounds returns the axis-aligned bounding rectangle of all quads in use,
// optionally transformed by m. An empty batch has zero bounds.
func (b *Batch) Bounds(m *qmath.Transform) curve.Rect {
	if b.geometry.numQuads == 0 {
		return curve.Rect{}
	}
	return b.vertexBounds(0, b.geometry.numQuads*verticesPerQuad, m)
}

func (b *Batch) vertexBounds(first, count int, m *qmath.Transform) curve.Rect {
	minX := float32(math.MaxFloat32)
	minY := float32(math.MaxFloat32)
	maxX := float32(-math.MaxFloat32)
	maxY := float32(-math.MaxFloat32)
	for i := first; i < first+count; i++ {
		p := b.geometry.vertices[i].Pos
		x, y := p[0], p[1]
		if m != nil {
			x, y = m.Apply(x, y)
		}
		minX = min(minX, x)
		minY = min(minY, y)
		maxX = max(maxX, x)
		maxY = max(maxY, y)
	}
	return curve.Rect{
		X0: float64(minX),
		Y0: float64(minY),
		X1: float64(maxX),
		Y1: float64(maxY),
	}
}

// Reset disposes an owned texture, clears the quad count and the adopted
// state, and keeps the buffer capacity for reuse.
func (b *Batch) Reset() {
	b.disposeTexture()
	b.smoothing = gfx.SmoothingBilinear
	b.premultiplied = true
	b.tinted = false
	b.colorized = false
	b.geometry.Reset()
}

// Dispose releases the geometry buffers and, if owned, the texture.
func (b *Batch) Dispose() {
	b.disposeTexture()
	b.geometry.Dispose()
}

// Clone deep-copies the used portion of the geometry and the state flags
// into a new batch. The texture is shared, never owned by the clone.
func (b *Batch) Clone() *Batch {
	clone := NewBatch()
	clone.Transform = b.Transform
	clone.Alpha = b.Alpha
	clone.Visible = b.Visible
	clone.Blend = b.Blend
	clone.ForceTinted = b.ForceTinted
	clone.Batchable = b.Batchable
	clone.texture = b.texture
	clone.smoothing = b.smoothing
	clone.premultiplied = b.premultiplied
	clone.tinted = b.tinted
	clone.colorized = b.colorized
	if n := b.geometry.numQuads; n > 0 {
		// SetCapacity regenerates the index pattern for the copied slots.
		if err := clone.geometry.SetCapacity(n); err != nil {
			panic("quilt: clone of in-range quad count cannot exceed capacity")
		}
		copy(clone.geometry.vertices, b.geometry.vertices[:n*verticesPerQuad])
		clone.geometry.numQuads = n
		clone.geometry.dirty = true
	}
	return clone
}

// Render syncs the geometry if needed and issues one draw call using the
// batch's own transform, alpha and blend mode. Empty batches draw nothing.
func (b *Batch) Render(gpu Backend) {
	b.RenderWith(gpu, b.Transform, b.Alpha)
}

// RenderWith is Render with an explicit model transform and alpha, for
// callers driving batches from their own scene state.
func (b *Batch) RenderWith(gpu Backend, m qmath.Transform, alpha float32) {
	if b.geometry.numQuads == 0 {
		return
	}
	b.geometry.Sync(gpu)
	gpu.Draw(DrawCall{
		VertexBuffer:       b.geometry.vertexBuf,
		IndexBuffer:        b.geometry.indexBuf,
		StartQuad:          0,
		QuadCount:          b.geometry.numQuads,
		Transform:          m,
		Alpha:              alpha,
		Blend:              b.Blend.Resolve(gfx.BlendNormal),
		Texture:            b.texture,
		Smoothing:          b.smoothing,
		PremultipliedAlpha: b.premultiplied,
	})
}
