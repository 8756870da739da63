// Package wgpu_engine implements quilt.Backend on top of WebGPU. It keeps
// one GPU buffer per quilt.BufferID, caches pipelines per blend mode and
// alpha convention, and records all draws of a frame into a single render
// pass.
package wgpu_engine

import (
	"fmt"
	"structs"

	"honnef.co/go/quilt"
	"honnef.co/go/quilt/gfx"
	"honnef.co/go/safeish"
	"honnef.co/go/wgpu"
)

type Options struct {
	// TargetFormat is the texture format of the render targets the engine
	// will draw into.
	TargetFormat wgpu.TextureFormat
}

type Engine struct {
	Device *wgpu.Device
	Queue  *wgpu.Queue

	opts           Options
	shader         *wgpu.ShaderModule
	bindLayout     *wgpu.BindGroupLayout
	pipelineLayout *wgpu.PipelineLayout
	pipelines      map[pipelineKey]*wgpu.RenderPipeline
	samplers       map[samplerKey]*wgpu.Sampler
	// white is a 1x1 opaque texture bound for solid-color draws, so that a
	// single shader covers the textured and untextured cases.
	white *Texture

	buffers map[quilt.BufferID]*engineBuffer
	pool    resourcePool

	encoder *wgpu.CommandEncoder
	pass    *wgpu.RenderPassEncoder
	// frameBufs holds the per-draw uniform buffers of the current frame.
	// They go back into the pool on Flush.
	frameBufs []*wgpu.Buffer
	viewSize  [2]float32
}

type engineBuffer struct {
	buf   *wgpu.Buffer
	size  uint64
	usage wgpu.BufferUsage
}

type pipelineKey struct {
	blend         gfx.BlendMode
	premultiplied bool
}

type samplerKey struct {
	smoothing gfx.TextureSmoothing
	repeat    bool
}

// uniformSize is the byte size of drawUniforms, padded to the 16 byte
// uniform alignment.
const uniformSize = 48

// drawUniforms is the per-draw uniform block. Its layout matches the
// Uniforms struct in the WGSL source.
type drawUniforms struct {
	_           structs.HostLayout
	Matrix      [4]float32
	Translation [2]float32
	ViewSize    [2]float32
	Alpha       float32
	// Premultiplied selects how Alpha scales the fragment, 1 for
	// premultiplied output, 0 for straight.
	Premultiplied float32
	_pad          [2]float32
}

const shaderSrc = `
	struct Uniforms {
		mat: vec4<f32>,
		translation: vec2<f32>,
		view_size: vec2<f32>,
		alpha: f32,
		premultiplied: f32,
	}

	@group(0) @binding(0)
	var<uniform> uniforms: Uniforms;
	@group(0) @binding(1)
	var tex: texture_2d<f32>;
	@group(0) @binding(2)
	var samp: sampler;

	struct VertexOutput {
		@builtin(position) position: vec4<f32>,
		@location(0) color: vec4<f32>,
		@location(1) uv: vec2<f32>,
	}

	@vertex
	fn vs_main(
		@location(0) pos: vec2<f32>,
		@location(1) color: vec4<f32>,
		@location(2) uv: vec2<f32>,
	) -> VertexOutput {
		let world = vec2(
			uniforms.mat.x * pos.x + uniforms.mat.z * pos.y + uniforms.translation.x,
			uniforms.mat.y * pos.x + uniforms.mat.w * pos.y + uniforms.translation.y,
		);
		let ndc = vec2(
			world.x / uniforms.view_size.x * 2.0 - 1.0,
			1.0 - world.y / uniforms.view_size.y * 2.0,
		);
		var out: VertexOutput;
		out.position = vec4(ndc, 0.0, 1.0);
		out.color = color;
		out.uv = uv;
		return out;
	}

	@fragment
	fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
		let c = textureSample(tex, samp, in.uv) * in.color;
		let a = uniforms.alpha;
		let scale = vec4(mix(vec3(1.0), vec3(a), uniforms.premultiplied), a);
		return c * scale;
	}`

func New(dev *wgpu.Device, queue *wgpu.Queue, opts Options) *Engine {
	eng := &Engine{
		Device:    dev,
		Queue:     queue,
		opts:      opts,
		pipelines: make(map[pipelineKey]*wgpu.RenderPipeline),
		samplers:  make(map[samplerKey]*wgpu.Sampler),
		buffers:   make(map[quilt.BufferID]*engineBuffer),
		pool: resourcePool{
			bufs: make(map[bufferProperties][]*wgpu.Buffer),
		},
	}
	eng.shader = dev.CreateShaderModule(wgpu.ShaderModuleDescriptor{
		Label:  "quad shaders",
		Source: wgpu.ShaderSourceWGSL(shaderSrc),
	})
	eng.bindLayout = dev.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: &wgpu.BufferBindingLayout{
					Type: wgpu.BufferBindingTypeUniform,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Texture: &wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
					Multisampled:  false,
				},
			},
			{
				Binding:    2,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: &wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeFiltering,
				},
			},
		},
	})
	eng.pipelineLayout = dev.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "quad pipeline layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{eng.bindLayout},
	})
	eng.white = eng.NewTexture(1, 1, []byte{0xFF, 0xFF, 0xFF, 0xFF}, TextureOptions{
		PremultipliedAlpha: true,
	})
	return eng
}

// blendFactors maps a resolved blend mode to source and destination
// factors, for the premultiplied and straight alpha conventions.
func blendFactors(mode gfx.BlendMode, premultiplied bool) (src, dst wgpu.BlendFactor) {
	switch mode {
	case gfx.BlendAdd:
		if premultiplied {
			return wgpu.BlendFactorOne, wgpu.BlendFactorOne
		}
		return wgpu.BlendFactorSrcAlpha, wgpu.BlendFactorDstAlpha
	case gfx.BlendMultiply:
		return wgpu.BlendFactorDst, wgpu.BlendFactorOneMinusSrcAlpha
	case gfx.BlendScreen:
		return wgpu.BlendFactorOne, wgpu.BlendFactorOneMinusSrc
	case gfx.BlendErase:
		return wgpu.BlendFactorZero, wgpu.BlendFactorOneMinusSrcAlpha
	case gfx.BlendMask:
		return wgpu.BlendFactorZero, wgpu.BlendFactorSrcAlpha
	case gfx.BlendBelow:
		return wgpu.BlendFactorOneMinusDstAlpha, wgpu.BlendFactorDstAlpha
	case gfx.BlendNone:
		return wgpu.BlendFactorOne, wgpu.BlendFactorZero
	default:
		if premultiplied {
			return wgpu.BlendFactorOne, wgpu.BlendFactorOneMinusSrcAlpha
		}
		return wgpu.BlendFactorSrcAlpha, wgpu.BlendFactorOneMinusSrcAlpha
	}
}

func (eng *Engine) pipeline(blend gfx.BlendMode, premultiplied bool) *wgpu.RenderPipeline {
	key := pipelineKey{blend, premultiplied}
	if p, ok := eng.pipelines[key]; ok {
		return p
	}
	src, dst := blendFactors(blend, premultiplied)
	p := eng.Device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  fmt.Sprintf("quad pipeline (%s)", blend),
		Layout: eng.pipelineLayout,
		Vertex: &wgpu.VertexState{
			Module:     eng.shader,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: 32,
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
						{Format: wgpu.VertexFormatFloat32x4, Offset: 8, ShaderLocation: 1},
						{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     eng.shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format: eng.opts.TargetFormat,
					Blend: &wgpu.BlendState{
						Color: wgpu.BlendComponent{
							SrcFactor: src,
							DstFactor: dst,
							Operation: wgpu.BlendOperationAdd,
						},
						Alpha: wgpu.BlendComponent{
							SrcFactor: src,
							DstFactor: dst,
							Operation: wgpu.BlendOperationAdd,
						},
					},
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: &wgpu.PrimitiveState{
			Topology:         wgpu.PrimitiveTopologyTriangleList,
			StripIndexFormat: ^wgpu.IndexFormat(0),
			FrontFace:        wgpu.FrontFaceCCW,
			CullMode:         wgpu.CullModeNone,
		},
		Multisample: &wgpu.MultisampleState{
			Count:                  1,
			Mask:                   ^uint32(0),
			AlphaToCoverageEnabled: false,
		},
	})
	eng.pipelines[key] = p
	return p
}

func (eng *Engine) sampler(smoothing gfx.TextureSmoothing, repeat bool) *wgpu.Sampler {
	key := samplerKey{smoothing, repeat}
	if s, ok := eng.samplers[key]; ok {
		return s
	}
	address := wgpu.AddressModeClampToEdge
	if repeat {
		address = wgpu.AddressModeRepeat
	}
	filter := wgpu.FilterModeLinear
	mipmap := wgpu.MipmapFilterModeNearest
	switch smoothing {
	case gfx.SmoothingNone:
		filter = wgpu.FilterModeNearest
	case gfx.SmoothingTrilinear:
		mipmap = wgpu.MipmapFilterModeLinear
	}
	s := eng.Device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  address,
		AddressModeV:  address,
		AddressModeW:  address,
		MagFilter:     filter,
		MinFilter:     filter,
		MipmapFilter:  mipmap,
		MaxAnisotropy: 1,
	})
	eng.samplers[key] = s
	return s
}

// Begin opens a frame targeting view. If clear is non-nil the target is
// cleared to that color first, otherwise its contents are kept. All draws
// up to the matching Flush go into one render pass.
func (eng *Engine) Begin(view *wgpu.TextureView, width, height uint32, clear *wgpu.Color) {
	if eng.pass != nil {
		panic("wgpu_engine: Begin called twice without Flush")
	}
	eng.viewSize = [2]float32{float32(width), float32(height)}
	eng.encoder = eng.Device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "quad frame"})
	attachment := wgpu.RenderPassColorAttachment{
		View:    view,
		LoadOp:  wgpu.LoadOpLoad,
		StoreOp: wgpu.StoreOpStore,
	}
	if clear != nil {
		attachment.LoadOp = wgpu.LoadOpClear
		attachment.ClearValue = *clear
	}
	eng.pass = eng.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{attachment},
	})
}

// Flush ends the frame and submits the recorded pass.
func (eng *Engine) Flush() {
	if eng.pass == nil {
		panic("wgpu_engine: Flush without Begin")
	}
	eng.pass.End()
	eng.pass.Release()
	eng.pass = nil
	cmd := eng.encoder.Finish(nil)
	eng.encoder.Release()
	eng.encoder = nil
	eng.Queue.Submit(cmd)
	cmd.Release()
	for _, buf := range eng.frameBufs {
		eng.pool.freeBuf(buf, uniformSize, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
	}
	eng.frameBufs = eng.frameBufs[:0]
}

func (eng *Engine) upload(id quilt.BufferID, data []byte, usage wgpu.BufferUsage) {
	size := uint64(len(data))
	b, ok := eng.buffers[id]
	if !ok || b.size < size {
		if ok {
			eng.pool.freeBuf(b.buf, b.size, b.usage)
		}
		b = &engineBuffer{
			buf:   eng.pool.getBuf(size, "quad geometry", usage, eng.Device),
			size:  size,
			usage: usage,
		}
		eng.buffers[id] = b
	}
	eng.Queue.WriteBuffer(b.buf, 0, data)
}

func (eng *Engine) UploadVertexBuffer(id quilt.BufferID, data []byte) {
	eng.upload(id, data, wgpu.BufferUsageVertex|wgpu.BufferUsageCopyDst)
}

func (eng *Engine) UploadIndexBuffer(id quilt.BufferID, data []byte) {
	eng.upload(id, data, wgpu.BufferUsageIndex|wgpu.BufferUsageCopyDst)
}

func (eng *Engine) Draw(call quilt.DrawCall) {
	if eng.pass == nil {
		panic("wgpu_engine: Draw outside Begin/Flush")
	}
	vbuf, ok := eng.buffers[call.VertexBuffer]
	if !ok {
		panic("wgpu_engine: draw references an unknown vertex buffer")
	}
	ibuf, ok := eng.buffers[call.IndexBuffer]
	if !ok {
		panic("wgpu_engine: draw references an unknown index buffer")
	}

	tex := eng.white
	repeat := false
	if call.Texture != nil {
		t, ok := call.Texture.(*Texture)
		if !ok {
			panic(fmt.Sprintf("wgpu_engine: unsupported texture type %T", call.Texture))
		}
		tex = t
		repeat = t.Repeat()
	}

	uniforms := drawUniforms{
		Matrix:        call.Transform.Matrix,
		Translation:   call.Transform.Translation,
		ViewSize:      eng.viewSize,
		Alpha:         call.Alpha,
		Premultiplied: 0,
	}
	if call.PremultipliedAlpha {
		uniforms.Premultiplied = 1
	}
	ubuf := eng.pool.getBuf(uniformSize, "draw uniforms", wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst, eng.Device)
	eng.frameBufs = append(eng.frameBufs, ubuf)
	eng.Queue.WriteBuffer(ubuf, 0, safeish.AsBytes(&uniforms))

	bindGroup := eng.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: eng.bindLayout,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding: 0,
				Buffer:  ubuf,
				Size:    uniformSize,
			},
			{
				Binding:     1,
				TextureView: tex.view,
				Size:        ^uint64(0),
			},
			{
				Binding: 2,
				Sampler: eng.sampler(call.Smoothing, repeat),
				Size:    ^uint64(0),
			},
		},
	})
	defer bindGroup.Release()

	blend := call.Blend.Resolve(gfx.BlendNormal)
	eng.pass.SetPipeline(eng.pipeline(blend, call.PremultipliedAlpha))
	eng.pass.SetBindGroup(0, bindGroup, nil)
	eng.pass.SetVertexBuffer(0, vbuf.buf, 0, vbuf.size)
	eng.pass.SetIndexBuffer(ibuf.buf, wgpu.IndexFormatUint16, 0, ibuf.size)
	eng.pass.DrawIndexed(uint32(call.QuadCount)*6, 1, uint32(call.StartQuad)*6, 0, 0)
}

func (eng *Engine) FreeBuffer(id quilt.BufferID) {
	b, ok := eng.buffers[id]
	if !ok {
		return
	}
	delete(eng.buffers, id)
	eng.pool.freeBuf(b.buf, b.size, b.usage)
}

func (eng *Engine) PurgeBuffers() {
	for id, b := range eng.buffers {
		delete(eng.buffers, id)
		b.buf.Release()
	}
	eng.pool.purge()
}

var _ quilt.Backend = (*Engine)(nil)
