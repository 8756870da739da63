package quilt

import (
	"fmt"
	"structs"

	"honnef.co/go/safeish"

	"honnef.co/go/quilt/qmath"
)

// MaxQuads is the largest number of quads a single geometry store can hold.
// Indices are 16-bit, so the last addressable vertex is 65535 and the last
// full quad starts at vertex 65532.
const MaxQuads = 16383

const (
	verticesPerQuad = 4
	indicesPerQuad  = 6
)

// Vertex is the GPU-bound vertex format: position, color and texture
// coordinate. Color is stored per the owning batch's premultiplied-alpha
// convention.
type Vertex struct {
	_ structs.HostLayout

	Pos   [2]float32
	Color [4]float32
	UV    [2]float32
}

// GeometryStore owns the growable vertex and index arrays for up to MaxQuads
// quads. The index array is a pure function of capacity: every quad q uses
// the fixed pattern {v, v+1, v+2, v+1, v+3, v+2} with v = 4q, regardless of
// vertex content.
//
// The store tracks a dirty flag; Sync hands the byte views to a Backend at
// most once per mutation, immediately before the data is next drawn.
type GeometryStore struct {
	vertices []Vertex
	indices  []uint16
	numQuads int
	dirty    bool

	vertexBuf BufferID
	indexBuf  BufferID
	gpu       Backend // backend of the last sync, nil if never synced
}

// NewGeometryStore returns an empty store with zero capacity. The first add
// grows it to 16 quads.
func NewGeometryStore() *GeometryStore {
	return &GeometryStore{}
}

// Capacity returns the number of quads the store can hold without growing.
func (s *GeometryStore) Capacity() int {
	return len(s.vertices) / verticesPerQuad
}

// NumQuads returns the number of quads in use.
func (s *GeometryStore) NumQuads() int {
	return s.numQuads
}

// Dirty reports whether the store has been mutated since the last Sync.
func (s *GeometryStore) Dirty() bool {
	return s.dirty
}

// MarkDirty forces an upload on the next Sync.
func (s *GeometryStore) MarkDirty() {
	s.dirty = true
}

// Vertices returns the vertex array, including unused capacity. The slice is
// only valid until the next capacity change.
func (s *GeometryStore) Vertices() []Vertex {
	return s.vertices
}

// Indices returns the index array, including unused capacity.
func (s *GeometryStore) Indices() []uint16 {
	return s.indices
}

// SetCapacity resizes the store to hold n quads. n is clamped to MaxQuads; a
// zero or negative n fails. If fewer quads fit than are in use, the used
// count is truncated. Existing quads keep their indices across the resize.
// Any cached GPU buffer is invalidated and re-uploaded on the next Sync.
func (s *GeometryStore) SetCapacity(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: capacity must be positive", ErrCapacityExceeded)
	}
	n = qmath.Clamp(n, 1, MaxQuads)
	old := s.Capacity()
	if n == old {
		return nil
	}
	if s.numQuads > n {
		s.numQuads = n
	}

	numVertices := n * verticesPerQuad
	if numVertices <= cap(s.vertices) {
		grown := s.vertices[:numVertices]
		if numVertices > len(s.vertices) {
			clear(grown[len(s.vertices):])
		}
		s.vertices = grown
	} else {
		vertices := make([]Vertex, numVertices)
		copy(vertices, s.vertices)
		s.vertices = vertices
	}

	if n < old {
		s.indices = s.indices[:n*indicesPerQuad]
	} else {
		for q := old; q < n; q++ {
			v := uint16(q * verticesPerQuad)
			s.indices = append(s.indices, v, v+1, v+2, v+1, v+3, v+2)
		}
	}

	s.invalidate()
	return nil
}

// Expand grows the capacity for one more add: to 16 quads while the store is
// small, doubling afterwards. It fails once the store is already at
// MaxQuads.
func (s *GeometryStore) Expand() error {
	old := s.Capacity()
	if old >= MaxQuads {
		return fmt.Errorf("%w: already at %d quads", ErrCapacityExceeded, MaxQuads)
	}
	if old < 8 {
		return s.SetCapacity(16)
	}
	return s.SetCapacity(old * 2)
}

// ensure grows the store until it can hold n quads in total.
func (s *GeometryStore) ensure(n int) error {
	if n > MaxQuads {
		return fmt.Errorf("%w: %d quads requested, limit is %d", ErrCapacityExceeded, n, MaxQuads)
	}
	for s.Capacity() < n {
		if err := s.Expand(); err != nil {
			return err
		}
	}
	return nil
}

// Sync uploads the geometry to b if it is dirty or was last uploaded to a
// different backend. It is idempotent: a second call without an intervening
// mutation does nothing.
func (s *GeometryStore) Sync(b Backend) {
	if len(s.vertices) == 0 {
		return
	}
	if !s.dirty && s.gpu == b {
		return
	}
	if s.vertexBuf == 0 {
		s.vertexBuf = nextBufferID()
		s.indexBuf = nextBufferID()
	}
	b.UploadVertexBuffer(s.vertexBuf, safeish.SliceCast[[]byte](s.vertices))
	b.UploadIndexBuffer(s.indexBuf, safeish.SliceCast[[]byte](s.indices))
	s.gpu = b
	s.dirty = false
}

// invalidate drops the GPU-side buffers. Fresh buffer IDs are assigned on
// the next Sync so a backend can never serve a stale allocation.
func (s *GeometryStore) invalidate() {
	if s.gpu != nil {
		s.gpu.FreeBuffer(s.vertexBuf)
		s.gpu.FreeBuffer(s.indexBuf)
		s.gpu = nil
	}
	s.vertexBuf = 0
	s.indexBuf = 0
	s.dirty = true
}

// Reset clears the used count but keeps the allocated capacity for reuse.
func (s *GeometryStore) Reset() {
	s.numQuads = 0
	s.dirty = true
}

// Dispose releases the CPU arrays and any GPU-side buffers. The store is
// empty but usable afterwards.
func (s *GeometryStore) Dispose() {
	s.invalidate()
	s.vertices = nil
	s.indices = nil
	s.numQuads = 0
	s.dirty = false
}
