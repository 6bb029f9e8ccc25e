package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-splat/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

const src = `
@vertex fn vs_main() -> @builtin(position) vec4<f32> { return vec4<f32>(); }
@fragment fn fs_main() -> @location(0) vec4<f32> { return vec4<f32>(); }
`

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline("default")
	if p.PipelineKey() != "default" {
		t.Errorf("key = %q", p.PipelineKey())
	}
	if !p.DepthTestEnabled() || !p.DepthWriteEnabled() {
		t.Error("depth test and write should default on")
	}
	if p.BlendEnabled() {
		t.Error("blend should default off")
	}
	if p.CullMode() != wgpu.CullModeNone || p.Topology() != wgpu.PrimitiveTopologyTriangleList {
		t.Errorf("cull %v topology %v", p.CullMode(), p.Topology())
	}
	if p.WriteMask() != wgpu.ColorWriteMaskAll {
		t.Errorf("write mask = %v", p.WriteMask())
	}
	if p.RenderPipeline() != nil {
		t.Error("render pipeline should be nil before registration")
	}
	if *p.BlendState() != PremultipliedAlphaBlend {
		t.Errorf("blend state = %+v", *p.BlendState())
	}
}

func TestPipelineOptions(t *testing.T) {
	vs := shader.NewShader("s", shader.ShaderTypeVertex, src)
	fs := shader.NewShader("s", shader.ShaderTypeFragment, src)
	blend := wgpu.BlendState{
		Color: wgpu.BlendComponent{SrcFactor: wgpu.BlendFactorOne, DstFactor: wgpu.BlendFactorOne, Operation: wgpu.BlendOperationAdd},
		Alpha: wgpu.BlendComponent{SrcFactor: wgpu.BlendFactorOne, DstFactor: wgpu.BlendFactorOne, Operation: wgpu.BlendOperationAdd},
	}
	p := NewPipeline("splat",
		WithVertexShader(vs),
		WithFragmentShader(fs),
		WithDepthWriteEnabled(false),
		WithBlendEnabled(true),
		WithBlendState(blend),
		WithTopology(wgpu.PrimitiveTopologyTriangleStrip),
	)
	if p.Shader(shader.ShaderTypeVertex) != vs || p.Shader(shader.ShaderTypeFragment) != fs {
		t.Error("shaders not set")
	}
	if p.DepthWriteEnabled() || !p.DepthTestEnabled() {
		t.Error("depth write should be off with test still on")
	}
	if !p.BlendEnabled() || *p.BlendState() != blend {
		t.Errorf("blend = %v %+v", p.BlendEnabled(), *p.BlendState())
	}
	if p.Topology() != wgpu.PrimitiveTopologyTriangleStrip {
		t.Errorf("topology = %v", p.Topology())
	}
	p.Release()
}

func TestMergeBindGroupLayouts(t *testing.T) {
	vertex := map[int]wgpu.BindGroupLayoutDescriptor{
		0: {Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 2, Visibility: wgpu.ShaderStageVertex},
			{Binding: 0, Visibility: wgpu.ShaderStageVertex},
		}},
	}
	fragment := map[int]wgpu.BindGroupLayoutDescriptor{
		0: {Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: wgpu.ShaderStageFragment},
			{Binding: 1, Visibility: wgpu.ShaderStageFragment},
		}},
		1: {Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: wgpu.ShaderStageFragment},
		}},
	}

	merged := MergeBindGroupLayouts(vertex, fragment)
	if len(merged) != 2 {
		t.Fatalf("got %d groups, want 2", len(merged))
	}

	entries := merged[0].Entries
	if len(entries) != 3 {
		t.Fatalf("group 0 has %d entries, want 3", len(entries))
	}
	for i, e := range entries {
		if e.Binding != uint32(i) {
			t.Errorf("entry %d has binding %d, want sorted order", i, e.Binding)
		}
	}
	if entries[0].Visibility != wgpu.ShaderStageVertex|wgpu.ShaderStageFragment {
		t.Errorf("shared binding visibility = %v", entries[0].Visibility)
	}
	if entries[1].Visibility != wgpu.ShaderStageFragment || entries[2].Visibility != wgpu.ShaderStageVertex {
		t.Errorf("single-stage visibilities = %v, %v", entries[1].Visibility, entries[2].Visibility)
	}
	if merged[1].Entries[0].Visibility != wgpu.ShaderStageFragment {
		t.Errorf("fragment-only group visibility = %v", merged[1].Entries[0].Visibility)
	}
}
