package splat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-splat/common"
	"github.com/Carmen-Shannon/oxy-splat/engine/camera"
	"github.com/Carmen-Shannon/oxy-splat/engine/encoder"
	"github.com/Carmen-Shannon/oxy-splat/engine/loader"
	"github.com/Carmen-Shannon/oxy-splat/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-splat/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-splat/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-splat/engine/sorter"
	"github.com/Carmen-Shannon/oxy-splat/engine/uploader"
	"github.com/Carmen-Shannon/oxy-splat/engine/wire"
	"github.com/cogentcore/webgpu/wgpu"
	"honnef.co/go/safeish"
)

const (
	// PipelineKey is the splat pipeline without depth writes.
	PipelineKey = "splat"

	// PipelineKeyDepthWrite is the splat pipeline with depth writes enabled.
	PipelineKeyDepthWrite = "splat_depth_write"

	bindingUniforms    = 0
	bindingCenters     = 1
	bindingCovariances = 2

	// quadVertices is the vertex count of the two triangles drawn per splat.
	quadVertices = 6

	defaultEncodeBudget = 262144
	defaultBatchBuffer  = 16
)

// ErrEngineClosed is returned by Load after Close.
var ErrEngineClosed = errors.New("splat: engine closed")

// splatBlend composites premultiplied splat fragments back to front. Destination alpha
// accumulates.
var splatBlend = wgpu.BlendState{
	Color: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
	Alpha: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOne,
		Operation: wgpu.BlendOperationAdd,
	},
}

// Renderer is the part of the frame renderer a splat engine draws through.
type Renderer interface {
	MaxTextureDimension() uint32
	RegisterPipelines(pipelines ...pipeline.Pipeline) error
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) error
	CreateDataTexture(provider bind_group_provider.BindGroupProvider, binding int, staging common.DataTextureStagingData) error
	TexturesReady(provider bind_group_provider.BindGroupProvider, bindings ...int) bool
	WriteTextureRegion(provider bind_group_provider.BindGroupProvider, binding int, region common.TextureRegion, data []byte) error
	EnsureInstanceBuffer(provider bind_group_provider.BindGroupProvider, count int) (bool, error)
	WriteBuffers(writes []bind_group_provider.BufferWrite)
	DrawInstanced(pipelineKey string, instances bind_group_provider.BindGroupProvider, vertexCount, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error
}

// Stats is a snapshot of an engine's counters.
type Stats struct {
	// Epoch is the current dataset generation.
	Epoch uint64

	// Loaded is the number of splats encoded for the current dataset.
	Loaded int

	// Allocated is the number of splats the data textures hold at their current height.
	Allocated int

	// Drawn is the instance count of the last accepted sort result.
	Drawn int

	// Sorts is the number of sorts completed since the engine was created.
	Sorts uint64

	// LastSort is the time the last accepted sort took.
	LastSort time.Duration

	// UploadRegions and UploadTexels count the texture writes so far.
	UploadRegions int
	UploadTexels  int

	// Loading reports that an ingestion is still running.
	Loading bool

	Progress loader.Progress
}

// sortKey identifies the inputs of a sort request. An identical key yields an identical result.
type sortKey struct {
	epoch     uint64
	splats    int
	view      [4]float32
	hasCutout bool
	cutout    [16]float32
}

type engine struct {
	mu *sync.Mutex

	renderer Renderer
	camera   camera.Camera
	loader   loader.Loader
	encoder  encoder.Encoder
	uploader uploader.Uploader
	sorter   sorter.Sorter

	splatGroup  bind_group_provider.BindGroupProvider
	instances   bind_group_provider.BindGroupProvider
	pipelineKey string

	settings  Settings
	immersive bool
	active    bool
	model     [16]float32
	cutout    *[16]float32
	viewport  [2]float32

	batches      chan batch
	batchBuffer  int
	carry        *batch
	encodeBudget int

	// ctx is cancelled by Close and bounds every ingestion and GPU wait.
	ctx          context.Context
	cancel       context.CancelFunc
	ingestCancel context.CancelFunc
	ingestWG     sync.WaitGroup

	epoch   uint64
	pushed  int
	loading bool
	loadErr error

	progressMu    sync.Mutex
	progressEpoch uint64
	progress      loader.Progress

	instanceCount int
	lastSort      sortKey
	lastSortTime  time.Duration
	closed        bool

	loaderOptions   []loader.LoaderBuilderOption
	encoderOptions  []encoder.EncoderBuilderOption
	uploaderOptions []uploader.UploaderBuilderOption
}

// Engine streams a Gaussian splat dataset from a source into GPU textures, keeps a back to
// front ordering of it current on a background sorter, and draws it as one instanced call.
//
// The host calls Tick from its update loop and Prepare, then Draw, inside each frame. Load may
// be called from any goroutine; a new Load abandons the previous dataset.
type Engine interface {
	// Load starts streaming src, replacing the current dataset. It returns once the ingestion
	// goroutine is started; failures surface through LoadErr.
	//
	// Parameters:
	//   - ctx: cancels the ingestion in addition to a later Load or Close
	//   - src: an http(s) URL, a file:// URL or a local path to a .splat or .ply source
	//
	// Returns:
	//   - error: ErrEngineClosed after Close
	Load(ctx context.Context, src string) error

	// LoadErr returns the error that ended the current ingestion, or nil while it runs,
	// after it succeeded or after it was cancelled.
	//
	// Returns:
	//   - error: the ingestion or upload error
	LoadErr() error

	// Loaded returns the number of splats encoded for the current dataset.
	//
	// Returns:
	//   - int: the loaded splat count
	Loaded() int

	// Capacity returns the maximum number of splats the device's textures can hold.
	//
	// Returns:
	//   - int: the texture capacity limit
	Capacity() int

	// Epoch returns the current dataset generation.
	//
	// Returns:
	//   - uint64: the epoch
	Epoch() uint64

	// Stats returns a snapshot of the engine counters.
	//
	// Returns:
	//   - Stats: the counters
	Stats() Stats

	// Settings returns the current runtime configuration.
	//
	// Returns:
	//   - Settings: a copy of the settings
	Settings() Settings

	// SetDisplayRadius sets the per-axis half extents of the drawn volume.
	//
	// Parameters:
	//   - x, y, z: half extents in splat units
	SetDisplayRadius(x, y, z float32)

	// SetDiscardFilter sets the fragment alpha threshold.
	//
	// Parameters:
	//   - threshold: fragments with a lower alpha are discarded
	SetDiscardFilter(threshold float32)

	// SetColorEffect selects the fragment color effect.
	//
	// Parameters:
	//   - effect: the effect to apply
	SetColorEffect(effect ColorEffect)

	// SetTint sets the color used by ColorEffectTint.
	//
	// Parameters:
	//   - r, g, b: the tint in [0, 1]
	SetTint(r, g, b float32)

	// SetDepthWrite switches between the depth writing and non-writing pipelines.
	//
	// Parameters:
	//   - enabled: true to write depth
	SetDepthWrite(enabled bool)

	// SetPixelRatio sets the render resolution scale in normal display mode.
	//
	// Parameters:
	//   - ratio: render pixels per framebuffer pixel, ignored unless positive
	SetPixelRatio(ratio float32)

	// SetXRPixelRatio sets the render resolution scale in immersive display mode.
	//
	// Parameters:
	//   - ratio: render pixels per framebuffer pixel, ignored unless positive
	SetXRPixelRatio(ratio float32)

	// SetImmersive selects which pixel ratio RenderScale reports.
	//
	// Parameters:
	//   - immersive: true for immersive display mode
	SetImmersive(immersive bool)

	// SetCutout restricts drawing to the inside of a unit box placed in the world. The box is
	// centered on the origin of the given transform and spans [-0.5, 0.5] on each axis.
	//
	// Parameters:
	//   - world: the box's column-major world transform, or nil to remove the cutout
	SetCutout(world *[16]float32)

	// SetModelMatrix places the splat object in the world.
	//
	// Parameters:
	//   - model: the column-major model matrix
	SetModelMatrix(model [16]float32)

	// Active reports whether the host should tick and draw this engine.
	//
	// Returns:
	//   - bool: true when active
	Active() bool

	// SetActive enables or disables the engine in the host loop.
	//
	// Parameters:
	//   - active: the new state
	SetActive(active bool)

	// RenderScale returns the pixel ratio of the current display mode.
	//
	// Returns:
	//   - float32: the render resolution scale, 1 when unset
	RenderScale() float32

	// Tick updates the camera and sends a sort request when the sorter is idle and the view,
	// cutout or loaded splat count changed since the last request.
	//
	// Parameters:
	//   - dt: seconds since the previous tick
	Tick(dt float32)

	// Prepare runs once per frame before Draw. It encodes and uploads pending ingest batches
	// within the encode budget, accepts a finished sort and writes the frame uniforms.
	//
	// Parameters:
	//   - dt: seconds since the previous frame
	Prepare(dt float32)

	// Draw records the instanced splat draw into the current frame. Nothing is drawn before
	// the first sort result or while the data textures are missing.
	//
	// Returns:
	//   - error: error if the draw could not be recorded
	Draw() error

	// Resize updates the viewport to the render target size.
	//
	// Parameters:
	//   - width, height: the render target size in pixels
	Resize(width, height int)

	// Close cancels any ingestion, stops the sorter and releases the engine's GPU resources.
	// Further calls are ignored.
	Close()
}

var _ Engine = &engine{}

// NewEngine creates a splat engine drawing through r from the viewpoint of cam and registers
// its pipelines with r. It panics on nil collaborators or if the pipelines cannot be created.
//
// Parameters:
//   - r: the frame renderer
//   - cam: the camera the splats are viewed through
//   - options: a variadic list of EngineBuilderOption functions to configure the Engine
//
// Returns:
//   - Engine: an idle engine with no dataset
func NewEngine(r Renderer, cam camera.Camera, options ...EngineBuilderOption) Engine {
	if r == nil || cam == nil {
		panic("splat: NewEngine requires a renderer and a camera")
	}
	e := &engine{
		mu:           &sync.Mutex{},
		renderer:     r,
		camera:       cam,
		splatGroup:   bind_group_provider.NewBindGroupProvider("splat_data"),
		instances:    bind_group_provider.NewBindGroupProvider("splat_instances"),
		pipelineKey:  PipelineKey,
		settings:     DefaultSettings(),
		active:       true,
		batchBuffer:  defaultBatchBuffer,
		encodeBudget: defaultEncodeBudget,
	}
	common.Identity(e.model[:])
	for _, option := range options {
		option(e)
	}
	if e.settings.DepthWrite {
		e.pipelineKey = PipelineKeyDepthWrite
	}

	vs := shader.NewShader("splat", shader.ShaderTypeVertex, ShaderSource)
	fs := shader.NewShader("splat", shader.ShaderTypeFragment, ShaderSource)
	pipelines := make([]pipeline.Pipeline, 0, 2)
	for _, depthWrite := range []bool{false, true} {
		key := PipelineKey
		if depthWrite {
			key = PipelineKeyDepthWrite
		}
		pipelines = append(pipelines, pipeline.NewPipeline(key,
			pipeline.WithVertexShader(vs),
			pipeline.WithFragmentShader(fs),
			pipeline.WithDepthTestEnabled(true),
			pipeline.WithDepthWriteEnabled(depthWrite),
			pipeline.WithBlendEnabled(true),
			pipeline.WithBlendState(splatBlend),
			pipeline.WithCullMode(wgpu.CullModeNone),
		))
	}
	if err := r.RegisterPipelines(pipelines...); err != nil {
		panic(fmt.Sprintf("splat: %v", err))
	}

	if e.loader == nil {
		e.loader = loader.NewLoader(e.loaderOptions...)
	}
	e.encoder = encoder.NewEncoder(r.MaxTextureDimension(), e.encoderOptions...)
	e.uploader = uploader.NewUploader(&textureTarget{
		renderer: r,
		provider: e.splatGroup,
		layout:   pipelines[0].BindGroupLayoutDescriptors()[0],
	}, e.uploaderOptions...)
	e.sorter = sorter.NewSorter()
	e.epoch = e.sorter.Epoch()
	e.batches = make(chan batch, e.batchBuffer)
	e.ctx, e.cancel = context.WithCancel(context.Background())
	return e
}

func (e *engine) Load(ctx context.Context, src string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrEngineClosed
	}

	if e.ingestCancel != nil {
		e.ingestCancel()
	}
	e.epoch = e.sorter.Clear()
	e.encoder.Reset()
	e.carry = nil
	e.pushed = 0
	e.instanceCount = 0
	e.loadErr = nil
	e.loading = true

	e.progressMu.Lock()
	e.progressEpoch = e.epoch
	e.progress = loader.Progress{Total: -1}
	e.progressMu.Unlock()

	ingestCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(e.ctx, cancel)
	e.ingestCancel = cancel

	epoch := e.epoch
	e.ingestWG.Add(1)
	go func() {
		defer e.ingestWG.Done()
		defer stop()
		defer cancel()
		e.ingest(ingestCtx, epoch, src)
	}()
	return nil
}

func (e *engine) LoadErr() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadErr
}

func (e *engine) Loaded() int {
	return e.encoder.Loaded()
}

func (e *engine) Capacity() int {
	return e.encoder.MaxSplats()
}

func (e *engine) Epoch() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.epoch
}

func (e *engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	regions, texels := e.uploader.Stats()
	e.progressMu.Lock()
	progress := e.progress
	e.progressMu.Unlock()
	return Stats{
		Epoch:         e.epoch,
		Loaded:        e.encoder.Loaded(),
		Allocated:     e.encoder.Buffer().Capacity(),
		Drawn:         e.instanceCount,
		Sorts:         e.sorter.Sorts(),
		LastSort:      e.lastSortTime,
		UploadRegions: regions,
		UploadTexels:  texels,
		Loading:       e.loading,
		Progress:      progress,
	}
}

func (e *engine) Settings() Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

func (e *engine) SetDisplayRadius(x, y, z float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.DisplayRadius = [3]float32{x, y, z}
}

func (e *engine) SetDiscardFilter(threshold float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.DiscardFilter = threshold
}

func (e *engine) SetColorEffect(effect ColorEffect) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.ColorEffect = effect
}

func (e *engine) SetTint(r, g, b float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.Tint = [3]float32{r, g, b}
}

func (e *engine) SetDepthWrite(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.DepthWrite = enabled
	e.pipelineKey = PipelineKey
	if enabled {
		e.pipelineKey = PipelineKeyDepthWrite
	}
}

func (e *engine) SetPixelRatio(ratio float32) {
	if ratio <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.PixelRatio = ratio
}

func (e *engine) SetXRPixelRatio(ratio float32) {
	if ratio <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.XRPixelRatio = ratio
}

func (e *engine) SetImmersive(immersive bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.immersive = immersive
}

func (e *engine) SetCutout(world *[16]float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if world == nil {
		e.cutout = nil
		return
	}
	m := *world
	e.cutout = &m
}

func (e *engine) SetModelMatrix(model [16]float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.model = model
}

func (e *engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active && !e.closed
}

func (e *engine) SetActive(active bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = active
}

func (e *engine) RenderScale() float32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	ratio := e.settings.PixelRatio
	if e.immersive {
		ratio = e.settings.XRPixelRatio
	}
	if ratio <= 0 {
		return 1
	}
	return ratio
}

func (e *engine) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.viewport = [2]float32{float32(width), float32(height)}
	e.camera.SetAspect(float32(width) / float32(height))
}

func (e *engine) Tick(dt float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.camera.Update()
	e.requestSort()
}

func (e *engine) Prepare(dt float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.camera.Update()
	e.drain()
	e.acceptSort()
	e.writeUniforms()
}

func (e *engine) Draw() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.instanceCount == 0 {
		return nil
	}
	if !e.renderer.TexturesReady(e.splatGroup, bindingCenters, bindingCovariances) {
		return nil
	}
	return e.renderer.DrawInstanced(e.pipelineKey, e.instances, quadVertices, uint32(e.instanceCount),
		[]bind_group_provider.BindGroupProvider{e.splatGroup})
}

func (e *engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.cancel()
	e.mu.Unlock()

	e.ingestWG.Wait()
	e.sorter.Close()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.splatGroup.Release()
	e.instances.Release()
	e.instanceCount = 0
}

// ingest runs one ingestion to completion and records how it ended.
func (e *engine) ingest(ctx context.Context, epoch uint64, src string) {
	log := common.Logger().With("src", src, "epoch", epoch)
	log.Info("splat: load started")
	start := time.Now()

	err := e.loader.Ingest(ctx, src, &ingestSink{ctx: ctx, epoch: epoch, engine: e})

	e.mu.Lock()
	defer e.mu.Unlock()
	if epoch != e.epoch {
		return
	}
	e.loading = false
	switch {
	case err == nil:
		log.Info("splat: load finished", "elapsed", time.Since(start))
	case errors.Is(err, context.Canceled):
		log.Debug("splat: load cancelled")
	default:
		e.loadErr = err
		log.Error("splat: load failed", "err", err)
	}
}

// drain processes pending batches of the current epoch until the encode budget is spent.
// A batch larger than the remaining budget is split and its tail kept for the next frame.
// Caller must hold the mutex.
func (e *engine) drain() {
	budget := e.encodeBudget
	for budget > 0 {
		b, ok := e.nextBatch()
		if !ok {
			return
		}
		if b.epoch != e.epoch {
			continue
		}

		switch b.kind {
		case batchSize:
			if e.encoder.Reserve(b.count - e.encoder.Loaded()) {
				e.reportUploadErr(e.uploader.Reallocate(e.ctx, e.encoder.Buffer(), e.encoder.Loaded()))
			}
		case batchRows:
			n := min(b.count, budget)
			if n < b.count {
				rest := b
				rest.rows = b.rows[n*wire.RowSize:]
				rest.count = b.count - n
				e.carry = &rest
			}
			e.encodeRows(b.rows[:n*wire.RowSize], n)
			budget -= n
		}
	}
}

// nextBatch returns the carried over batch or the next queued one without blocking.
// Caller must hold the mutex.
func (e *engine) nextBatch() (batch, bool) {
	if e.carry != nil {
		b := *e.carry
		e.carry = nil
		return b, true
	}
	select {
	case b := <-e.batches:
		return b, true
	default:
		return batch{}, false
	}
}

// encodeRows encodes count rows, uploads the written range and hands the sort transforms
// to the sorter. Caller must hold the mutex.
func (e *engine) encodeRows(rows []byte, count int) {
	b := e.encoder.Encode(rows, count)
	if b.Count == 0 {
		return
	}
	if b.Grew {
		e.reportUploadErr(e.uploader.Reallocate(e.ctx, e.encoder.Buffer(), e.encoder.Loaded()))
	} else {
		e.reportUploadErr(e.uploader.Upload(e.ctx, e.encoder.Buffer(), b.Start, b.Count))
	}
	e.sorter.Push(e.epoch, b.Matrices)
	e.pushed += b.Count
}

// reportUploadErr records a texture upload failure as the load error.
// Caller must hold the mutex.
func (e *engine) reportUploadErr(err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	common.Logger().Error("splat: texture upload failed", "epoch", e.epoch, "err", err)
	if e.loadErr == nil {
		e.loadErr = fmt.Errorf("uploading splats: %w", err)
	}
}

// requestSort sends a sort request for the current view when the sorter is idle and the
// request would differ from the last one sent. Caller must hold the mutex.
func (e *engine) requestSort() {
	if e.pushed == 0 || e.sorter.State() != sorter.StateIdle {
		return
	}

	key := sortKey{
		epoch:  e.epoch,
		splats: e.pushed,
		view:   e.camera.SortView(e.model),
	}
	var cutout []float32
	if e.cutout != nil {
		var inverse [16]float32
		if common.Invert4(inverse[:], e.cutout[:]) {
			common.Mul4(key.cutout[:], inverse[:], e.model[:])
			key.hasCutout = true
			cutout = key.cutout[:]
		} else {
			common.Logger().Warn("splat: cutout transform is singular, ignoring it")
		}
	}
	if key == e.lastSort {
		return
	}

	if e.sorter.Sort(sorter.Request{Epoch: e.epoch, View: key.view, Cutout: cutout}) {
		e.lastSort = key
	}
}

// acceptSort installs a finished sort of the current epoch as the draw order.
// Caller must hold the mutex.
func (e *engine) acceptSort() {
	res, ok := e.sorter.Poll()
	if !ok {
		return
	}
	if res.Epoch != e.epoch {
		common.Logger().Debug("splat: discarding stale sort result", "epoch", res.Epoch, "current", e.epoch)
		return
	}

	if _, err := e.renderer.EnsureInstanceBuffer(e.instances, len(res.Indexes)); err != nil {
		common.Logger().Error("splat: growing instance buffer failed", "count", len(res.Indexes), "err", err)
		return
	}
	if len(res.Indexes) > 0 {
		e.renderer.WriteBuffers([]bind_group_provider.BufferWrite{{
			Provider: e.instances,
			Binding:  bind_group_provider.VertexBinding,
			Data:     safeish.SliceCast[[]byte](res.Indexes),
		}})
	}
	e.instanceCount = len(res.Indexes)
	e.lastSortTime = res.Elapsed
}

// writeUniforms uploads the camera and settings state for this frame.
// Caller must hold the mutex.
func (e *engine) writeUniforms() {
	u := SplatUniforms{
		Projection:    e.camera.SplatProjection(),
		ModelView:     e.camera.SplatModelView(e.model),
		Viewport:      e.viewport,
		Focal:         e.camera.Focal(e.viewport[1]),
		DiscardFilter: e.settings.DiscardFilter,
		DisplayRadius: e.settings.DisplayRadius,
		ColorEffect:   uint32(e.settings.ColorEffect),
		Tint:          e.settings.Tint,
	}
	e.renderer.WriteBuffers([]bind_group_provider.BufferWrite{{
		Provider: e.splatGroup,
		Binding:  bindingUniforms,
		Data:     u.Marshal(),
	}})
}
