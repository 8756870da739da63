package quilt

import (
	"fmt"

	"honnef.co/go/quilt/gfx"
	"honnef.co/go/quilt/qmath"
)

// Compile flattens the scene tree under root into an ordered list of
// batches that, rendered in order, reproduce the tree's draw order.
// Transforms, alphas and blend modes accumulate root to leaf; each leaf
// either extends the current batch or, when IsStateChange demands it,
// advances to the next slot.
//
// The caller-supplied list is reused across calls to avoid reallocation:
// slots are reset and refilled in place, slots beyond the last used index
// are disposed and dropped. The returned slice replaces the caller's.
//
// The root's own alpha is ignored (accumulated alpha starts at 1), its
// blend mode becomes the propagated default, and its own filter is not
// expanded. Masks and clip rectangles cannot survive flattening; they are
// dropped with a warning through the package logger.
//
// Compilation fails with ErrUnsupportedTransform on nodes carrying a 3D
// transform and with ErrUnsupportedNode on anything that is not a
// Container, Quad or Batch. On failure the partially filled list is
// returned so its batches can still be disposed or reused.
func Compile(root Node, batches []*Batch) ([]*Batch, error) {
	c := &compiler{batches: batches}
	last, err := c.compile(root, -1, qmath.Identity, 1, gfx.BlendNormal, false)
	if err != nil {
		return c.batches, err
	}
	for i := len(c.batches) - 1; i > last; i-- {
		c.batches[i].Dispose()
		c.batches = c.batches[:i]
	}
	return c.batches, nil
}

type compiler struct {
	batches []*Batch
}

// compile processes one node and returns the index of the batch the stream
// is positioned on afterwards. batchID == -1 marks the root call.
func (c *compiler) compile(n Node, batchID int, m qmath.Transform, alpha float32, blend gfx.BlendMode, ignoreFilter bool) (int, error) {
	if n == nil {
		return batchID, fmt.Errorf("%w: nil node", ErrUnsupportedNode)
	}
	if node3D(n) {
		return batchID, ErrUnsupportedTransform
	}

	ownAlpha := nodeAlpha(n)

	if batchID == -1 {
		batchID = 0
		alpha = 1
		ownAlpha = 1
		blend = nodeBlend(n).Resolve(gfx.BlendNormal)
		ignoreFilter = true
		if len(c.batches) == 0 {
			c.batches = append(c.batches, NewBatch())
		} else {
			c.batches[0].Reset()
		}
	} else {
		if nodeMask(n) != nil {
			Logger().Warn("mask ignored on node flattened into a batch list")
		}
		if nodeClipRect(n) != nil {
			Logger().Warn("clip rectangle ignored on node flattened into a batch list")
		}
	}

	if f := nodeFilter(n); f != nil && !ignoreFilter {
		var err error
		if f.Mode() == FilterAbove {
			// Own content first, so the filter output lands on top of it.
			if batchID, err = c.compile(n, batchID, m, alpha, blend, true); err != nil {
				return batchID, err
			}
		}
		if batchID, err = c.compile(f.Compile(n), batchID, m, alpha, blend, false); err != nil {
			return batchID, err
		}
		// The filter output samples an ephemeral render target; tie its
		// lifetime to the batch that received it.
		c.batches[batchID].SetOwnership(TextureOwned)
		if f.Mode() == FilterBelow {
			if batchID, err = c.compile(n, batchID, m, alpha, blend, true); err != nil {
				return batchID, err
			}
		}
		return batchID, nil
	}

	switch n := n.(type) {
	case *Container:
		for _, child := range n.Children {
			if child == nil || !hasVisibleArea(child) {
				continue
			}
			childBlend := nodeBlend(child).Resolve(blend)
			childM := m.Mul(nodeTransform(child))
			var err error
			batchID, err = c.compile(child, batchID, childM, alpha*ownAlpha, childBlend, false)
			if err != nil {
				return batchID, err
			}
		}
		return batchID, nil
	case *Quad:
		effAlpha := alpha * ownAlpha
		batchID = c.selectBatch(batchID, n.Tinted(), effAlpha, n.Texture, n.Smoothing, blend, 1)
		return batchID, c.batches[batchID].AddQuad(n, effAlpha, n.Texture, n.Smoothing, m, blend)
	case *Batch:
		effAlpha := alpha * ownAlpha
		batchID = c.selectBatch(batchID, n.tinted, effAlpha, n.texture, n.smoothing, blend, n.geometry.numQuads)
		return batchID, c.batches[batchID].AddBatch(n, effAlpha, m, blend)
	default:
		return batchID, fmt.Errorf("%w: %T", ErrUnsupportedNode, n)
	}
}

// selectBatch tests the current output batch against the leaf's state and
// advances to the next slot on a state change, reusing and resetting an
// existing entry when the list has one.
func (c *compiler) selectBatch(batchID int, tinted bool, alpha float32, texture gfx.Texture, smoothing gfx.TextureSmoothing, blend gfx.BlendMode, numQuads int) int {
	if c.batches[batchID].IsStateChange(tinted, alpha, texture, smoothing, blend, numQuads) {
		batchID++
		if len(c.batches) <= batchID {
			c.batches = append(c.batches, NewBatch())
		} else {
			c.batches[batchID].Reset()
		}
	}
	return batchID
}
