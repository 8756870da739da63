package wgpu_engine

import (
	"honnef.co/go/quilt/gfx"
	"honnef.co/go/wgpu"
)

type TextureOptions struct {
	// Repeat selects repeating texture coordinates instead of clamping.
	Repeat bool
	// PremultipliedAlpha declares the alpha convention of the pixel data.
	PremultipliedAlpha bool
}

// Texture is a GPU texture usable with batches rendered through this
// engine. It implements gfx.Texture.
type Texture struct {
	tex           *wgpu.Texture
	view          *wgpu.TextureView
	width, height uint32
	opts          TextureOptions
}

// NewTexture creates an RGBA8 texture and uploads pixels, which must hold
// width*height*4 bytes.
func (eng *Engine) NewTexture(width, height uint32, pixels []byte, opts TextureOptions) *Texture {
	tex := eng.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "quad texture",
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Format:        wgpu.TextureFormatRGBA8Unorm,
	})
	view := tex.CreateView(&wgpu.TextureViewDescriptor{
		Dimension:       wgpu.TextureViewDimension2D,
		Aspect:          wgpu.TextureAspectAll,
		MipLevelCount:   ^uint32(0),
		ArrayLayerCount: ^uint32(0),
		Format:          wgpu.TextureFormatRGBA8Unorm,
	})
	t := &Texture{
		tex:    tex,
		view:   view,
		width:  width,
		height: height,
		opts:   opts,
	}
	if pixels != nil {
		t.Write(eng.Queue, 0, 0, width, height, pixels)
	}
	return t
}

// Write replaces the rectangle (x, y, width, height) with pixels, given as
// width*height*4 bytes of RGBA8 data.
func (t *Texture) Write(queue *wgpu.Queue, x, y, width, height uint32, pixels []byte) {
	queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{X: x, Y: y, Z: 0},
			Aspect:   wgpu.TextureAspectAll,
		},
		pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  width * 4,
			RowsPerImage: ^uint32(0),
		},
		&wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
	)
}

func (t *Texture) Width() uint32  { return t.width }
func (t *Texture) Height() uint32 { return t.height }

// Base returns the underlying *wgpu.Texture. Textures created from the same
// wgpu texture batch together.
func (t *Texture) Base() any { return t.tex }

func (t *Texture) Repeat() bool { return t.opts.Repeat }

func (t *Texture) PremultipliedAlpha() bool { return t.opts.PremultipliedAlpha }

func (t *Texture) Dispose() {
	if t.tex == nil {
		return
	}
	t.view.Release()
	t.tex.Release()
	t.view = nil
	t.tex = nil
}

var _ gfx.Texture = (*Texture)(nil)
