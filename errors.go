package quilt

import "errors"

var (
	// ErrCapacityExceeded is returned when an operation would grow a batch
	// past MaxQuads, or when a capacity of zero is requested.
	ErrCapacityExceeded = errors.New("quilt: batch capacity exceeded")

	// ErrUnsupportedNode is returned by Compile when it encounters a node
	// that is neither a Container, a Quad nor a Batch.
	ErrUnsupportedNode = errors.New("quilt: unsupported node type")

	// ErrUnsupportedTransform is returned by Compile when a node carries a
	// 3D transform. Compiled batches hold only 2D affine geometry.
	ErrUnsupportedTransform = errors.New("quilt: 3D transforms cannot be flattened")
)
