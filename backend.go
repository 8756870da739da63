package quilt

import (
	"sync/atomic"

	"honnef.co/go/quilt/gfx"
	"honnef.co/go/quilt/qmath"
)

var bufferID atomic.Uint64

func nextBufferID() BufferID {
	return BufferID(bufferID.Add(1))
}

// BufferID names a GPU buffer across the backend boundary. IDs are unique
// for the lifetime of the process and are never reused, so a backend may use
// them as cache keys.
type BufferID uint64

// DrawCall describes one draw submission covering a contiguous range of
// quads in a previously uploaded buffer pair.
type DrawCall struct {
	VertexBuffer BufferID
	IndexBuffer  BufferID
	// StartQuad and QuadCount select the index range to draw:
	// [StartQuad*6, (StartQuad+QuadCount)*6).
	StartQuad int
	QuadCount int

	Transform qmath.Transform
	Alpha     float32
	Blend     gfx.BlendMode
	// Texture is nil for solid-color geometry.
	Texture            gfx.Texture
	Smoothing          gfx.TextureSmoothing
	PremultipliedAlpha bool
}

// Backend is the GPU interface consumed by the engine. Upload is called only
// for dirty geometry, Draw only for non-empty batches. Implementations are
// not expected to be safe for concurrent use; the engine is single-threaded.
type Backend interface {
	UploadVertexBuffer(id BufferID, data []byte)
	UploadIndexBuffer(id BufferID, data []byte)
	Draw(call DrawCall)
	// FreeBuffer releases one buffer, e.g. when a store is disposed or
	// resized past its allocation.
	FreeBuffer(id BufferID)
	// PurgeBuffers releases all cached buffers. Stores re-upload on their
	// next sync.
	PurgeBuffers()
}
