package quilt

import "slices"

// Optimize merges every batch in the list into the earliest batch with
// identical rendering state, disposing the consumed batches and shrinking
// the list in place. Geometry is merged with each consumed batch's own node
// transform, at full alpha.
//
// This is an explicit z-order trade: merged batches no longer draw in their
// original positions in the list, so the pass is only valid when draw order
// among them does not affect the final image, e.g. for opaque content or
// content that never overlaps. Total quad count across the list is
// conserved. Admission uses the same IsStateChange predicate as everything
// else, so batches whose combined size would exceed MaxQuads stay separate.
func Optimize(batches []*Batch) []*Batch {
	for i := 0; i < len(batches); i++ {
		anchor := batches[i]
		for j := i + 1; j < len(batches); {
			other := batches[j]
			if anchor.IsStateChange(other.tinted, 1, other.texture, other.smoothing, other.Blend, other.geometry.numQuads) {
				j++
				continue
			}
			if err := anchor.AddBatch(other, 1, other.Transform, other.Blend); err != nil {
				// The predicate already rules out capacity overflows;
				// anything else is still no reason to lose geometry.
				j++
				continue
			}
			other.Dispose()
			batches = slices.Delete(batches, j, j+1)
		}
	}
	return batches
}
