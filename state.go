package quilt

import "honnef.co/go/quilt/gfx"

// IsStateChange reports whether adding geometry with the candidate state
// would violate the state the batch has established. It is the single
// source of truth for admission control: manual batching and the compiler
// both route every decision through it, with identical semantics.
//
// An empty batch accepts anything; the first add seeds its state. A batch
// that would exceed MaxQuads always reports a change, regardless of state.
// For two untextured parties only the blend mode matters. For two textured
// parties the base texture identity, the repeat flag, the smoothing mode,
// the effective tint and the blend mode all have to agree. A textured and an
// untextured party never mix.
//
// The effective tint of the candidate is tinted || alpha != 1, with
// ForceTinted folded into both sides; folding the accumulated alpha into the
// comparison (but not into the reported Tinted) is what lets runs of quads
// that differ only in inherited alpha stay in one batch.
func (b *Batch) IsStateChange(tinted bool, alpha float32, texture gfx.Texture, smoothing gfx.TextureSmoothing, blend gfx.BlendMode, numQuads int) bool {
	switch {
	case b.geometry.numQuads == 0:
		return false
	case b.geometry.numQuads+numQuads > MaxQuads:
		return true
	case b.texture == nil && texture == nil:
		return b.Blend != blend
	case b.texture != nil && texture != nil:
		return b.texture.Base() != texture.Base() ||
			b.texture.Repeat() != texture.Repeat() ||
			b.smoothing != smoothing ||
			b.tinted != (b.ForceTinted || tinted || alpha != 1) ||
			b.Blend != blend
	default:
		return true
	}
}
