package quilt

import (
	"honnef.co/go/color"
	"honnef.co/go/curve"

	"honnef.co/go/quilt/gfx"
	"honnef.co/go/quilt/qmath"
)

// Node is a member of a scene tree handed to Compile. The node set is
// closed: a node is a *Container, a *Quad or a *Batch. Compile matches on
// the concrete type, so the set is exhaustive by construction.
type Node interface {
	node()
}

func (*Container) node() {}
func (*Quad) node()      {}
func (*Batch) node()     {}

// FilterMode determines where a filter's output is drawn relative to the
// filtered node's own content.
type FilterMode uint8

const (
	// The filter output replaces or underlays the content: output first,
	// content on top.
	FilterBelow FilterMode = iota
	// The content is drawn first, the filter output on top of it.
	FilterAbove
)

// Filter is a composited visual effect attached to a node. The pixel-level
// implementation is external; the engine only relies on Compile producing a
// renderable substitute, typically a quad textured with an ephemeral render
// target. The batch receiving that substitute takes ownership of its
// texture.
type Filter interface {
	Mode() FilterMode
	Compile(node Node) Node
}

// Container groups an ordered list of children under a shared transform,
// alpha and blend mode. It has no geometry of its own.
type Container struct {
	Transform qmath.Transform
	// Transform3D marks the container as managed by a 3D outer layer.
	// Compile rejects such nodes.
	Transform3D *qmath.Transform3D
	Alpha       float32
	Visible     bool
	Blend       gfx.BlendMode
	Filter      Filter
	// Mask and ClipRect cannot survive flattening. Compile warns and drops
	// them.
	Mask     Node
	ClipRect *curve.Rect

	Children []Node
}

// NewContainer returns an empty, visible container with an identity
// transform.
func NewContainer(children ...Node) *Container {
	return &Container{
		Transform: qmath.Identity,
		Alpha:     1,
		Visible:   true,
		Children:  children,
	}
}

// Quad is the base renderable: an axis-aligned rectangle in its local space,
// two triangles, four vertices in the fixed order top-left, top-right,
// bottom-left, bottom-right.
type Quad struct {
	Transform   qmath.Transform
	Transform3D *qmath.Transform3D
	Alpha       float32
	Visible     bool
	Blend       gfx.BlendMode
	Filter      Filter
	Mask        Node
	ClipRect    *curve.Rect

	Width  float32
	Height float32
	// Color is a straight (non-premultiplied) RGBA value applied to all four
	// vertices. Opaque white renders the texture unmodified.
	Color [4]float32
	// UV holds the texture coordinates per vertex, in vertex order. Defaults
	// to the unit square.
	UV [4][2]float32

	// Texture is nil for solid-color quads.
	Texture   gfx.Texture
	Smoothing gfx.TextureSmoothing
	// PremultipliedAlpha is the storage convention this quad's vertex colors
	// should use inside a batch. The first quad added to a batch fixes the
	// batch's convention.
	PremultipliedAlpha bool
}

// NewQuad returns a visible, untinted quad of the given size with an
// identity transform and unit-square texture coordinates.
func NewQuad(width, height float32) *Quad {
	return &Quad{
		Transform: qmath.Identity,
		Alpha:     1,
		Visible:   true,
		Width:     width,
		Height:    height,
		Color:     gfx.White,
		UV:        [4][2]float32{{0, 0}, {1, 0}, {0, 1}, {1, 1}},
	}
}

// NewImage returns a quad of the given size textured with t, adopting the
// texture's premultiplied-alpha convention.
func NewImage(t gfx.Texture, width, height float32) *Quad {
	q := NewQuad(width, height)
	q.Texture = t
	q.PremultipliedAlpha = t.PremultipliedAlpha()
	return q
}

// SetColor tints all four vertices with c.
func (q *Quad) SetColor(c *color.Color) {
	q.Color = gfx.Straight32(c)
}

// Tinted reports whether the quad's vertex colors deviate from opaque white
// and therefore need a tinting-capable shader path. The quad's alpha is not
// part of this; it is folded in separately during batch admission.
func (q *Quad) Tinted() bool {
	return q.Color != gfx.White
}

// vertex returns the quad's i-th untransformed vertex. The color is
// straight; the receiving batch applies its own storage convention.
func (q *Quad) vertex(i int) Vertex {
	var pos [2]float32
	switch i {
	case 0:
		pos = [2]float32{0, 0}
	case 1:
		pos = [2]float32{q.Width, 0}
	case 2:
		pos = [2]float32{0, q.Height}
	case 3:
		pos = [2]float32{q.Width, q.Height}
	}
	return Vertex{Pos: pos, Color: q.Color, UV: q.UV[i]}
}

// hasVisibleArea reports whether a node can contribute any pixels: it is
// visible, not fully transparent, and not collapsed by a zero scale.
func hasVisibleArea(n Node) bool {
	switch n := n.(type) {
	case *Container:
		return n.Visible && n.Alpha != 0 && n.Transform.Determinant() != 0
	case *Quad:
		return n.Visible && n.Alpha != 0 && n.Transform.Determinant() != 0
	case *Batch:
		return n.Visible && n.Alpha != 0 && n.Transform.Determinant() != 0
	default:
		return false
	}
}

// The nodeX accessors expose the common display fields uniformly across the
// union, so the compiler can thread state without caring about the concrete
// type.
func nodeTransform(n Node) qmath.Transform {
	switch n := n.(type) {
	case *Container:
		return n.Transform
	case *Quad:
		return n.Transform
	case *Batch:
		return n.Transform
	default:
		return qmath.Identity
	}
}

func nodeAlpha(n Node) float32 {
	switch n := n.(type) {
	case *Container:
		return n.Alpha
	case *Quad:
		return n.Alpha
	case *Batch:
		return n.Alpha
	default:
		return 1
	}
}

func nodeBlend(n Node) gfx.BlendMode {
	switch n := n.(type) {
	case *Container:
		return n.Blend
	case *Quad:
		return n.Blend
	case *Batch:
		return n.Blend
	default:
		return gfx.BlendInherit
	}
}

func nodeFilter(n Node) Filter {
	switch n := n.(type) {
	case *Container:
		return n.Filter
	case *Quad:
		return n.Filter
	case *Batch:
		return n.Filter
	default:
		return nil
	}
}

func node3D(n Node) bool {
	switch n := n.(type) {
	case *Container:
		return n.Transform3D != nil
	case *Quad:
		return n.Transform3D != nil
	case *Batch:
		return n.Transform3D != nil
	default:
		return false
	}
}

func nodeMask(n Node) Node {
	switch n := n.(type) {
	case *Container:
		return n.Mask
	case *Quad:
		return n.Mask
	case *Batch:
		return n.Mask
	default:
		return nil
	}
}

func nodeClipRect(n Node) *curve.Rect {
	switch n := n.(type) {
	case *Container:
		return n.ClipRect
	case *Quad:
		return n.ClipRect
	case *Batch:
		return n.ClipRect
	default:
		return nil
	}
}
