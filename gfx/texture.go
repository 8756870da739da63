package gfx

// Texture is the capability set the batching engine needs from a GPU
// texture. Decoding, mip-mapping and upload are the concern of whoever
// implements it.
type Texture interface {
	// Base identifies the underlying GPU resource. Two Texture values with
	// the same Base (compared with ==) can be drawn by the same call even if
	// they describe different sub-regions.
	Base() any
	// Repeat reports whether the texture uses repeating addressing.
	// Textures with different addressing cannot share a sampler.
	Repeat() bool
	// PremultipliedAlpha reports the storage convention of the pixel data.
	PremultipliedAlpha() bool
	// Dispose releases the GPU resource. Called by a batch only when it has
	// been marked as the texture's owner.
	Dispose()
}

// SameBase reports whether a and b are backed by the same GPU resource.
// Two nil textures count as the same.
func SameBase(a, b Texture) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Base() == b.Base()
}

// TextureSmoothing selects the sampling filter used when a texture is
// scaled. The zero value is bilinear, the common default.
type TextureSmoothing uint8

const (
	SmoothingBilinear TextureSmoothing = iota
	SmoothingNone
	SmoothingTrilinear
)

func (s TextureSmoothing) String() string {
	switch s {
	case SmoothingBilinear:
		return "bilinear"
	case SmoothingNone:
		return "none"
	case SmoothingTrilinear:
		return "trilinear"
	default:
		return "unknown"
	}
}
