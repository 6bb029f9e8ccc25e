package renderer

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-splat/common"
	"github.com/Carmen-Shannon/oxy-splat/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-splat/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-splat/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// minInstanceCapacity is the smallest instance buffer, in elements, the backend allocates.
const minInstanceCapacity = 1024

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	maxTextureDimension uint32

	surfaceFormat        *wgpu.TextureFormat
	msaaTexture          *wgpu.Texture
	msaaTextureView      *wgpu.TextureView
	depthTexture         *wgpu.Texture
	depthTextureView     *wgpu.TextureView
	renderPassDescriptor *wgpu.RenderPassDescriptor
	clearColor           wgpu.Color

	presentMode wgpu.PresentMode // defaults to PresentModeImmediate (Uncapped)
	sampleCount MSAASampleCount  // MSAA sample count for the main render pass

	// Frame state for batched rendering across multiple draw calls
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

type wgpuRendererBackend interface {
	// ConfigureSurface (re)configures the swapchain and recreates the MSAA and depth attachments.
	//
	// Parameters:
	//   - width: the surface width in pixels
	//   - height: the surface height in pixels
	ConfigureSurface(width, height int)

	// SetPresentMode sets the present mode used by the next ConfigureSurface.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// SetClearColor sets the color the main pass clears to.
	//
	// Parameters:
	//   - c: the clear color
	SetClearColor(c wgpu.Color)

	// MaxTextureDimension returns the largest 2D texture dimension the device was created with.
	//
	// Returns:
	//   - uint32: the maximum width or height of a 2D texture
	MaxTextureDimension() uint32

	// RegisterRenderPipeline creates the GPU render pipeline for p from its shaders' reflected layouts.
	//
	// Parameters:
	//   - p: the Pipeline to realize
	//
	// Returns:
	//   - error: error if shader, layout or pipeline creation fails
	RegisterRenderPipeline(p pipeline.Pipeline) error

	// InitBindGroup creates the bind group of provider over its buffers and texture views.
	// Missing buffer bindings are created from the descriptor. Any previous bind group is replaced.
	//
	// Parameters:
	//   - provider: the provider to initialize
	//   - descriptor: the bind group layout, usually reflected from a shader
	//
	// Returns:
	//   - error: error if a texture binding has no view or GPU object creation fails
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) error

	// CreateDataTexture (re)creates an unfiltered data texture for a binding of provider.
	//
	// Parameters:
	//   - provider: the provider that owns the texture
	//   - binding: the binding index the texture view is bound at
	//   - staging: the texture size and texel format
	//
	// Returns:
	//   - error: error if the size exceeds the device limit or creation fails
	CreateDataTexture(provider bind_group_provider.BindGroupProvider, binding int, staging common.DataTextureStagingData) error

	// WriteTextureRegion copies tightly packed texels into a rectangle of a data texture.
	//
	// Parameters:
	//   - provider: the provider that owns the texture
	//   - binding: the binding index of the texture
	//   - region: the destination rectangle
	//   - data: region.Texels() * common.BytesPerTexel bytes
	//
	// Returns:
	//   - error: error if the texture does not exist or the data size does not match
	WriteTextureRegion(provider bind_group_provider.BindGroupProvider, binding int, region common.TextureRegion, data []byte) error

	// EnsureInstanceBuffer grows provider's vertex buffer to hold at least count 32-bit elements.
	//
	// Parameters:
	//   - provider: the provider that owns the instance buffer
	//   - count: the number of elements required
	//
	// Returns:
	//   - bool: true if a new buffer was allocated
	//   - error: error if buffer creation fails
	EnsureInstanceBuffer(provider bind_group_provider.BindGroupProvider, count int) (bool, error)

	// WriteBuffers applies buffer writes to the queue.
	//
	// Parameters:
	//   - writes: the writes to apply
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginFrame acquires the next surface texture and opens the main render pass.
	//
	// Returns:
	//   - error: error if the surface texture cannot be acquired
	BeginFrame() error

	// DrawInstanced records an instanced, non-indexed draw with provider's vertex buffer bound at slot 0.
	//
	// Parameters:
	//   - p: the registered Pipeline
	//   - instances: the provider holding the per-instance vertex buffer
	//   - vertexCount: vertices per instance
	//   - instanceCount: number of instances
	//   - bindGroups: providers bound at group 0..n-1
	DrawInstanced(p pipeline.Pipeline, instances bind_group_provider.BindGroupProvider, vertexCount, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider)

	// EndFrame ends the render pass and submits the frame's command buffer.
	EndFrame()

	// Present presents the acquired surface texture.
	Present()

	// Release releases the device-level resources.
	Release()
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, sampleCount MSAASampleCount) wgpuRendererBackend {
	runtime.LockOSThread()
	w := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeImmediate,
		sampleCount: sampleCount,
		clearColor:  wgpu.Color{R: 0, G: 0, B: 0, A: 1},
	}
	w.surface = w.instance.CreateSurface(surfaceDescriptor)

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		panic(err)
	}
	w.adapter = a

	// Data textures are one row of splats per texel row, so raise the 2D limit to
	// whatever the adapter supports.
	supported := a.GetLimits()
	limits := wgpu.DefaultLimits()
	limits.MaxTextureDimension2D = max(limits.MaxTextureDimension2D, supported.Limits.MaxTextureDimension2D)
	w.maxTextureDimension = limits.MaxTextureDimension2D

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Splat Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		panic(err)
	}
	w.device = d
	w.queue = d.GetQueue()

	common.Logger().Info("renderer: device ready",
		"maxTextureDimension2D", w.maxTextureDimension, "msaa", uint32(sampleCount), "fallback", forceFallbackAdapter)
	return w
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = &capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      *b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	count := uint32(b.sampleCount)
	msaaEnabled := count > 1
	size := wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1}

	b.releaseAttachments()
	if msaaEnabled {
		// The pass draws into the MSAA texture and resolves into the swapchain view.
		tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label:         "MSAA Texture",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   count,
			Dimension:     wgpu.TextureDimension2D,
			Format:        *b.surfaceFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			panic(err)
		}
		b.msaaTexture = tex
		b.msaaTextureView, err = tex.CreateView(nil)
		if err != nil {
			panic(err)
		}
	}

	// Depth texture sample count must match the color attachment.
	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Depth Texture",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   count,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(err)
	}
	b.depthTexture = depthTexture
	b.depthTextureView, err = depthTexture.CreateView(nil)
	if err != nil {
		panic(err)
	}

	storeOp := wgpu.StoreOpStore
	if msaaEnabled {
		storeOp = wgpu.StoreOpDiscard
	}
	b.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       b.msaaTextureView, // nil when MSAA is off; set in BeginFrame
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    storeOp,
				ClearValue: b.clearColor,
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	}
}

// releaseAttachments drops the size-dependent attachments. The caller holds b.mu.
func (b *wgpuRendererBackendImpl) releaseAttachments() {
	if b.msaaTextureView != nil {
		b.msaaTextureView.Release()
		b.msaaTextureView = nil
	}
	if b.msaaTexture != nil {
		b.msaaTexture.Release()
		b.msaaTexture = nil
	}
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTextureView = nil
	}
	if b.depthTexture != nil {
		b.depthTexture.Release()
		b.depthTexture = nil
	}
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeVSync:
		b.presentMode = wgpu.PresentModeFifo
	case PresentModeUncapped:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeImmediate
	}
}

func (b *wgpuRendererBackendImpl) SetClearColor(c wgpu.Color) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.clearColor = c
	if b.renderPassDescriptor != nil {
		b.renderPassDescriptor.ColorAttachments[0].ClearValue = c
	}
}

func (b *wgpuRendererBackendImpl) MaxTextureDimension() uint32 {
	return b.maxTextureDimension
}

func (b *wgpuRendererBackendImpl) RegisterRenderPipeline(p pipeline.Pipeline) error {
	vertexShader := p.Shader(shader.ShaderTypeVertex)
	fragmentShader := p.Shader(shader.ShaderTypeFragment)
	if vertexShader == nil || fragmentShader == nil {
		return errors.New("both vertex and fragment shaders must be set to create a render pipeline")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	vs, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          vertexShader.Key(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: vertexShader.Source()},
	})
	if err != nil {
		return err
	}
	defer vs.Release()
	fs := vs
	if fragmentShader.Source() != vertexShader.Source() {
		fs, err = b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
			Label:          fragmentShader.Key(),
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: fragmentShader.Source()},
		})
		if err != nil {
			return err
		}
		defer fs.Release()
	}

	merged := p.BindGroupLayoutDescriptors()
	maxGroup := -1
	for g := range merged {
		maxGroup = max(maxGroup, g)
	}
	bindGroupLayouts := make([]*wgpu.BindGroupLayout, maxGroup+1)
	for g, desc := range merged {
		layout, layoutErr := b.device.CreateBindGroupLayout(&desc)
		if layoutErr != nil {
			return fmt.Errorf("failed to create bind group layout for group %d: %w", g, layoutErr)
		}
		defer layout.Release()
		bindGroupLayouts[g] = layout
	}

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: bindGroupLayouts,
	})
	if err != nil {
		return err
	}
	defer pipelineLayout.Release()

	target := wgpu.ColorTargetState{
		Format:    *b.surfaceFormat,
		WriteMask: p.WriteMask(),
	}
	if p.BlendEnabled() {
		target.Blend = p.BlendState()
	}
	depthCompare := wgpu.CompareFunctionLess
	if !p.DepthTestEnabled() {
		depthCompare = wgpu.CompareFunctionAlways
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vertexShader.EntryPoint(),
			Buffers:    vertexShader.VertexLayouts(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: fragmentShader.EntryPoint(),
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: uint32(b.sampleCount),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: p.DepthWriteEnabled(),
			DepthCompare:      depthCompare,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
	})
	if err != nil {
		return err
	}

	p.SetRenderPipeline(created)
	return nil
}

func (b *wgpuRendererBackendImpl) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(descriptor.Entries) == 0 {
		return nil
	}

	layout := provider.BindGroupLayout()
	if layout == nil {
		var err error
		layout, err = b.device.CreateBindGroupLayout(&descriptor)
		if err != nil {
			return err
		}
		provider.SetBindGroupLayout(layout)
	}

	entries := make([]wgpu.BindGroupEntry, len(descriptor.Entries))
	for i, entry := range descriptor.Entries {
		binding := int(entry.Binding)

		if entry.Texture.SampleType != wgpu.TextureSampleTypeUndefined {
			tv := provider.TextureView(binding)
			if tv == nil {
				return fmt.Errorf("texture binding %d of %s has no texture view", binding, provider.Label())
			}
			entries[i] = wgpu.BindGroupEntry{Binding: entry.Binding, TextureView: tv}
			continue
		}

		var usage wgpu.BufferUsage
		switch entry.Buffer.Type {
		case wgpu.BufferBindingTypeUniform:
			usage = wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
		case wgpu.BufferBindingTypeStorage, wgpu.BufferBindingTypeReadOnlyStorage:
			usage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
		default:
			return fmt.Errorf("binding %d of %s has an unsupported resource type", binding, provider.Label())
		}

		buf := provider.Buffer(binding)
		if buf == nil {
			var err error
			buf, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
				Label: fmt.Sprintf("%s Buffer %d", provider.Label(), binding),
				Size:  entry.Buffer.MinBindingSize,
				Usage: usage,
			})
			if err != nil {
				return err
			}
			provider.SetBuffer(binding, buf)
		}
		entries[i] = wgpu.BindGroupEntry{
			Binding: entry.Binding,
			Buffer:  buf,
			Offset:  0,
			Size:    wgpu.WholeSize,
		}
	}

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label() + " Bind Group",
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return err
	}
	provider.SetBindGroup(bindGroup)
	return nil
}

func (b *wgpuRendererBackendImpl) CreateDataTexture(provider bind_group_provider.BindGroupProvider, binding int, staging common.DataTextureStagingData) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if staging.Width == 0 || staging.Height == 0 {
		return fmt.Errorf("data texture %d of %s has zero size", binding, provider.Label())
	}
	if staging.Width > b.maxTextureDimension || staging.Height > b.maxTextureDimension {
		return fmt.Errorf("data texture %dx%d exceeds device limit %d", staging.Width, staging.Height, b.maxTextureDimension)
	}

	format := wgpu.TextureFormatRGBA32Float
	if staging.Format == common.DataTextureUint {
		format = wgpu.TextureFormatRGBA32Uint
	}
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     fmt.Sprintf("%s Data Texture %d", provider.Label(), binding),
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              staging.Width,
			Height:             staging.Height,
			DepthOrArrayLayers: 1,
		},
		Format:        format,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return err
	}
	provider.SetTexture(binding, tex, view)

	common.Logger().Debug("renderer: data texture allocated",
		"provider", provider.Label(), "binding", binding, "width", staging.Width, "height", staging.Height)
	return nil
}

func (b *wgpuRendererBackendImpl) WriteTextureRegion(provider bind_group_provider.BindGroupProvider, binding int, region common.TextureRegion, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	tex := provider.Texture(binding)
	if tex == nil {
		return fmt.Errorf("texture binding %d of %s is not allocated", binding, provider.Label())
	}
	if want := region.Texels() * common.BytesPerTexel; len(data) != want {
		return fmt.Errorf("region %+v needs %d bytes, got %d", region, want, len(data))
	}
	if region.Texels() == 0 {
		return nil
	}

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{X: region.X, Y: region.Y},
			Aspect:   wgpu.TextureAspectAll,
		},
		data,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  region.Width * common.BytesPerTexel,
			RowsPerImage: region.Height,
		},
		&wgpu.Extent3D{
			Width:              region.Width,
			Height:             region.Height,
			DepthOrArrayLayers: 1,
		},
	)
	return nil
}

func (b *wgpuRendererBackendImpl) EnsureInstanceBuffer(provider bind_group_provider.BindGroupProvider, count int) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	const elementSize = 4
	capacity := provider.VertexCapacity()
	if count <= capacity {
		return false, nil
	}

	grown := max(count, capacity*2, minInstanceCapacity)
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: provider.Label() + " Instance Buffer",
		Size:  uint64(grown) * elementSize,
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return false, err
	}
	provider.SetVertexBuffer(buf, grown)

	common.Logger().Debug("renderer: instance buffer grown", "provider", provider.Label(), "capacity", grown)
	return true, nil
}

func (b *wgpuRendererBackendImpl) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range writes {
		var buf *wgpu.Buffer
		if w.Binding == bind_group_provider.VertexBinding {
			buf = w.Provider.VertexBuffer()
		} else {
			buf = w.Provider.Buffer(w.Binding)
		}
		if buf == nil || len(w.Data) == 0 {
			continue
		}
		b.queue.WriteBuffer(buf, w.Offset, w.Data)
	}
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// A held surface texture means the previous frame was never presented; acquiring
	// another one would fail validation.
	if b.frameSurface != nil {
		return fmt.Errorf("previous frame surface not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	if b.sampleCount > 1 {
		b.renderPassDescriptor.ColorAttachments[0].ResolveTarget = view
	} else {
		b.renderPassDescriptor.ColorAttachments[0].View = view
	}
	pass := encoder.BeginRenderPass(b.renderPassDescriptor)

	b.frameEncoder = encoder
	b.framePass = pass
	b.frameSurface = surfaceTexture
	b.frameView = view
	return nil
}

func (b *wgpuRendererBackendImpl) DrawInstanced(
	p pipeline.Pipeline,
	instances bind_group_provider.BindGroupProvider,
	vertexCount, instanceCount uint32,
	bindGroups []bind_group_provider.BindGroupProvider,
) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil || instanceCount == 0 || instances.VertexBuffer() == nil {
		return
	}

	b.framePass.SetPipeline(p.RenderPipeline())
	for i, bg := range bindGroups {
		b.framePass.SetBindGroup(uint32(i), bg.BindGroup(), nil)
	}
	b.framePass.SetVertexBuffer(0, instances.VertexBuffer(), 0, wgpu.WholeSize)
	b.framePass.Draw(vertexCount, instanceCount, 0, 0)
}

func (b *wgpuRendererBackendImpl) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return
	}
	b.framePass.End()
	b.framePass = nil

	commandBuffer, err := b.frameEncoder.Finish(nil)
	b.frameEncoder.Release()
	b.frameEncoder = nil
	if err != nil {
		common.Logger().Error("renderer: finishing frame", "err", err)
		b.frameView.Release()
		b.frameSurface.Release()
		b.frameSurface = nil
		b.frameView = nil
		return
	}

	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}

	b.surface.Present()

	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	b.frameSurface.Release()
	b.frameSurface = nil
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseAttachments()
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}
