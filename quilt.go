// Package quilt merges independently transformed, textured quads that share
// rendering state into contiguous vertex and index buffers, so a GPU backend
// can draw them with one call per batch instead of one per quad.
//
// The package has three layers. [Batch] owns a growable [GeometryStore] and
// admits new geometry through [Batch.IsStateChange], the single predicate
// deciding whether a quad is compatible with the state the batch adopted from
// its first quad. [Compile] flattens a scene tree of [Container], [Quad] and
// [Batch] nodes into an ordered, minimal list of batches that reproduces the
// tree's draw order. [Optimize] merges batches across the list by state
// alone, trading z-order for fewer draw calls.
//
// All of it is synchronous CPU work over owned buffers; the GPU is only
// involved when a dirty store is synced through a [Backend].
package quilt
