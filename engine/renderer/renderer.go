package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-splat/common"
	"github.com/Carmen-Shannon/oxy-splat/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-splat/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-splat/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline

	backendType RendererBackendType
	backend     RendererBackend

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingMSAA          *MSAASampleCount
	pendingClearColor    *wgpu.Color
}

// Renderer defines the interface for the rendering system.
//
// This is a high-level API over a GPU backend. It caches render pipelines by key, owns the
// surface and its attachments, and exposes the handful of resource operations a splat scene
// needs: data textures, a per-instance index buffer, a uniform bind group and instanced draws.
type Renderer interface {
	// Pipeline retrieves the cached Pipeline associated with the given key.
	// If the Pipeline does not exist, this will return nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// Pipelines retrieves the entire cache of Pipelines.
	//
	// Returns:
	//   - map[string]pipeline.Pipeline: a map of pipeline keys to their corresponding Pipeline objects
	Pipelines() map[string]pipeline.Pipeline

	// RegisterPipelines creates the GPU render pipeline of each Pipeline via the backend, then
	// caches it by PipelineKey. Pipelines whose keys are already registered are skipped.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: an error if pipeline creation fails
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// SetPipeline adds or updates a Pipeline in the cache with the given key.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to add or update in the cache
	//   - p: the Pipeline to add or update in the cache
	SetPipeline(key string, p pipeline.Pipeline)

	// Resize configures the underlying backend to handle a new surface size.
	// This should be called when re-sizing the window or when the surface size should change.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	// A call to Resize is required after changing this for the new mode to take effect.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// SetClearColor sets the color the main pass clears to.
	//
	// Parameters:
	//   - c: the clear color
	SetClearColor(c wgpu.Color)

	// MaxTextureDimension returns the largest 2D texture width or height the device accepts.
	//
	// Returns:
	//   - uint32: the device's 2D texture dimension limit
	MaxTextureDimension() uint32

	// InitBindGroup creates the bind group of provider from a layout descriptor. Textures must be
	// created with CreateDataTexture first; uniform and storage buffers are created when missing.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created bind group on
	//   - descriptor: the layout descriptor defining the bind group entries
	//
	// Returns:
	//   - error: an error if bind group creation fails
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) error

	// CreateDataTexture (re)creates an unfiltered RGBA32 data texture at a binding of provider.
	// The previous texture at that binding is released, so the bind group must be re-initialized.
	//
	// Parameters:
	//   - provider: the BindGroupProvider that owns the texture
	//   - binding: the binding index for this texture
	//   - staging: the texture size and texel format
	//
	// Returns:
	//   - error: an error if the size exceeds the device limit or creation fails
	CreateDataTexture(provider bind_group_provider.BindGroupProvider, binding int, staging common.DataTextureStagingData) error

	// TexturesReady reports whether provider has a bind group and a texture at every binding.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to inspect
	//   - bindings: the texture bindings that must exist
	//
	// Returns:
	//   - bool: true if the bind group and every texture exist
	TexturesReady(provider bind_group_provider.BindGroupProvider, bindings ...int) bool

	// WriteTextureRegion copies tightly packed texels into a rectangle of a data texture.
	//
	// Parameters:
	//   - provider: the BindGroupProvider that owns the texture
	//   - binding: the binding index of the texture
	//   - region: the destination rectangle
	//   - data: region.Texels() * common.BytesPerTexel bytes
	//
	// Returns:
	//   - error: an error if the texture is missing or data has the wrong size
	WriteTextureRegion(provider bind_group_provider.BindGroupProvider, binding int, region common.TextureRegion, data []byte) error

	// EnsureInstanceBuffer grows the vertex buffer of provider to hold at least count 32-bit elements.
	//
	// Parameters:
	//   - provider: the BindGroupProvider that owns the instance buffer
	//   - count: the number of elements required
	//
	// Returns:
	//   - bool: true if a new buffer was allocated
	//   - error: an error if buffer creation fails
	EnsureInstanceBuffer(provider bind_group_provider.BindGroupProvider, count int) (bool, error)

	// WriteBuffers writes all staged buffer writes to the GPU queue.
	// Each BufferWrite targets a buffer on a BindGroupProvider at a given binding and offset.
	//
	// Parameters:
	//   - writes: a slice of BufferWrite structs describing the data to write
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginFrame acquires the swapchain texture and begins the main render pass.
	// Must be paired with EndFrame after all DrawInstanced invocations within a single frame.
	//
	// Returns:
	//   - error: an error if the swapchain texture could not be acquired
	BeginFrame() error

	// DrawInstanced encodes a non-indexed instanced draw within the current render pass.
	//
	// Parameters:
	//   - pipelineKey: the unique identifier for the cached render Pipeline to use
	//   - instances: the BindGroupProvider holding the per-instance vertex buffer
	//   - vertexCount: the number of vertices per instance
	//   - instanceCount: the number of instances to draw
	//   - bindGroups: providers whose BindGroups are set at groups 0..n-1
	//
	// Returns:
	//   - error: an error if the pipeline is not found
	DrawInstanced(pipelineKey string, instances bind_group_provider.BindGroupProvider, vertexCount, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error

	// EndFrame ends the current render pass and submits the command buffer to the GPU.
	// Does not present the surface; call Present after EndFrame to display the frame.
	EndFrame()

	// Present presents the surface to the display and releases the swapchain texture.
	// Must be called once per frame after EndFrame.
	Present()

	// Release releases every cached pipeline and the device-level resources.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer instance with the specified backend type, drawing into the
// surface of window.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - window: the Window providing the platform surface descriptor and initial size
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
func NewRenderer(backendType RendererBackendType, window window.Window, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		backendType:   backendType,
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	msaa := MSAA4x
	if r.pendingMSAA != nil {
		msaa = *r.pendingMSAA
	}

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend = newWGPURendererBackend(window.SurfaceDescriptor(), r.forceFallbackAdapter, msaa)
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	if r.pendingClearColor != nil {
		r.backend.SetClearColor(*r.pendingClearColor)
	}

	r.backend.ConfigureSurface(window.Width(), window.Height())
	return r
}

func (r *renderer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) SetClearColor(c wgpu.Color) {
	r.backend.SetClearColor(c)
}

func (r *renderer) MaxTextureDimension() uint32 {
	return r.backend.MaxTextureDimension()
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) Pipelines() map[string]pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}
		if err := r.backend.RegisterRenderPipeline(p); err != nil {
			return fmt.Errorf("registering pipeline %q: %w", key, err)
		}
		r.pipelineCache[key] = p
	}
	return nil
}

func (r *renderer) SetPipeline(key string, p pipeline.Pipeline) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pipelineCache[key] = p
}

func (r *renderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) error {
	return r.backend.InitBindGroup(provider, descriptor)
}

func (r *renderer) CreateDataTexture(provider bind_group_provider.BindGroupProvider, binding int, staging common.DataTextureStagingData) error {
	return r.backend.CreateDataTexture(provider, binding, staging)
}

func (r *renderer) TexturesReady(provider bind_group_provider.BindGroupProvider, bindings ...int) bool {
	if provider.BindGroup() == nil {
		return false
	}
	for _, b := range bindings {
		if provider.Texture(b) == nil {
			return false
		}
	}
	return true
}

func (r *renderer) WriteTextureRegion(provider bind_group_provider.BindGroupProvider, binding int, region common.TextureRegion, data []byte) error {
	return r.backend.WriteTextureRegion(provider, binding, region, data)
}

func (r *renderer) EnsureInstanceBuffer(provider bind_group_provider.BindGroupProvider, count int) (bool, error) {
	return r.backend.EnsureInstanceBuffer(provider, count)
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	r.backend.WriteBuffers(writes)
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) DrawInstanced(pipelineKey string, instances bind_group_provider.BindGroupProvider, vertexCount, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error {
	r.mu.Lock()
	p, exists := r.pipelineCache[pipelineKey]
	r.mu.Unlock()

	if !exists {
		return fmt.Errorf("render pipeline %q not found in cache", pipelineKey)
	}

	r.backend.DrawInstanced(p, instances, vertexCount, instanceCount, bindGroups)
	return nil
}

func (r *renderer) EndFrame() {
	r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) Release() {
	r.mu.Lock()
	for key, p := range r.pipelineCache {
		p.Release()
		delete(r.pipelineCache, key)
	}
	r.mu.Unlock()

	r.backend.Release()
}
