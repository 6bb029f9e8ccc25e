package shader

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

const testSource = `
// uniforms shared by both stages
struct Uniforms {
    projection: mat4x4<f32>,
    model_view: mat4x4<f32>,
    viewport: vec2<f32>,
    focal: f32,
    discard_filter: f32,
    display_radius: vec3<f32>,
    color_effect: u32,
    tint: vec3f,
    pad: f32,
}

struct PointInstance {
    @location(0) index: u32,
}

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec4<f32>,
}

/* a block comment with @group(3) @binding(0) var<uniform> ghost: f32; /* nested */ still comment */
@group(0) @binding(0) var<uniform> uniforms: Uniforms;
@group(0) @binding(1) var centers: texture_2d<f32>;
@group(0) @binding(2) var covariances: texture_2d<u32>;

@vertex
fn vs_main(@builtin(vertex_index) vi: u32, point: PointInstance) -> VertexOutput {
    var out: VertexOutput;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return in.color;
}
`

func TestNewShaderEntryPoints(t *testing.T) {
	vs := NewShader("points", ShaderTypeVertex, testSource)
	fs := NewShader("points", ShaderTypeFragment, testSource)
	if vs.EntryPoint() != "vs_main" {
		t.Errorf("vertex entry = %q", vs.EntryPoint())
	}
	if fs.EntryPoint() != "fs_main" {
		t.Errorf("fragment entry = %q", fs.EntryPoint())
	}
	if vs.ShaderType().String() != "vertex" || fs.ShaderType().String() != "fragment" {
		t.Errorf("unexpected stage names %s %s", vs.ShaderType(), fs.ShaderType())
	}
}

func TestNewShaderPanics(t *testing.T) {
	cases := map[string]string{
		"empty":       "",
		"no fragment": "@vertex fn vs_main() -> @builtin(position) vec4<f32> { return vec4<f32>(); }",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			NewShader(name, ShaderTypeFragment, src)
		})
	}
}

func TestBindGroupReflection(t *testing.T) {
	s := NewShader("points", ShaderTypeVertex, testSource)
	descs := s.BindGroupLayoutDescriptors()
	if len(descs) != 1 {
		t.Fatalf("got %d groups, want 1 (commented group must be ignored)", len(descs))
	}
	entries := s.BindGroupLayoutDescriptor(0).Entries
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}

	u := entries[0]
	if u.Buffer.Type != wgpu.BufferBindingTypeUniform {
		t.Errorf("binding 0 buffer type = %v", u.Buffer.Type)
	}
	if u.Buffer.MinBindingSize != 176 {
		t.Errorf("uniform MinBindingSize = %d, want 176", u.Buffer.MinBindingSize)
	}
	if u.Visibility != wgpu.ShaderStageVertex {
		t.Errorf("visibility = %v, want vertex", u.Visibility)
	}

	if entries[1].Texture.SampleType != wgpu.TextureSampleTypeUnfilterableFloat {
		t.Errorf("float texture without sampler should be unfilterable, got %v", entries[1].Texture.SampleType)
	}
	if entries[2].Texture.SampleType != wgpu.TextureSampleTypeUint {
		t.Errorf("u32 texture sample type = %v", entries[2].Texture.SampleType)
	}
	if entries[2].Texture.ViewDimension != wgpu.TextureViewDimension2D {
		t.Errorf("view dimension = %v", entries[2].Texture.ViewDimension)
	}

	if b, ok := s.Binding(0, "covariances"); !ok || b != 2 {
		t.Errorf("Binding(covariances) = %d, %v", b, ok)
	}
	if _, ok := s.Binding(0, "ghost"); ok {
		t.Error("commented-out binding was reflected")
	}
}

func TestFilteringWithSampler(t *testing.T) {
	src := `
@group(0) @binding(0) var tex: texture_2d<f32>;
@group(0) @binding(1) var samp: sampler;
@fragment fn fs_main() -> @location(0) vec4<f32> { return vec4<f32>(); }
`
	s := NewShader("sampled", ShaderTypeFragment, src)
	entries := s.BindGroupLayoutDescriptor(0).Entries
	if entries[0].Texture.SampleType != wgpu.TextureSampleTypeFloat {
		t.Errorf("sample type = %v, want float", entries[0].Texture.SampleType)
	}
	if entries[1].Sampler.Type != wgpu.SamplerBindingTypeFiltering {
		t.Errorf("sampler type = %v", entries[1].Sampler.Type)
	}
	if entries[0].Visibility != wgpu.ShaderStageFragment {
		t.Errorf("visibility = %v, want fragment", entries[0].Visibility)
	}
}

func TestVertexLayouts(t *testing.T) {
	vs := NewShader("points", ShaderTypeVertex, testSource)
	layouts := vs.VertexLayouts()
	if len(layouts) != 1 {
		t.Fatalf("got %d vertex layouts, want 1", len(layouts))
	}
	l := layouts[0]
	if l.StepMode != wgpu.VertexStepModeInstance {
		t.Errorf("step mode = %v, want instance", l.StepMode)
	}
	if l.ArrayStride != 4 {
		t.Errorf("stride = %d, want 4", l.ArrayStride)
	}
	if len(l.Attributes) != 1 || l.Attributes[0].Format != wgpu.VertexFormatUint32 {
		t.Errorf("attributes = %+v", l.Attributes)
	}

	fs := NewShader("points", ShaderTypeFragment, testSource)
	if len(fs.VertexLayouts()) != 0 {
		t.Error("fragment shader should not reflect vertex layouts")
	}
}

func TestPerVertexLayout(t *testing.T) {
	src := `
struct Vertex {
    @location(0) position: vec3<f32>,
    @location(1) uv: vec2f,
}
@vertex fn main(v: Vertex) -> @builtin(position) vec4<f32> { return vec4<f32>(v.position, 1.0); }
`
	l := NewShader("mesh", ShaderTypeVertex, src).VertexLayouts()
	if len(l) != 1 {
		t.Fatalf("got %d layouts", len(l))
	}
	if l[0].StepMode != wgpu.VertexStepModeVertex {
		t.Errorf("step mode = %v", l[0].StepMode)
	}
	if l[0].ArrayStride != 20 || l[0].Attributes[1].Offset != 12 {
		t.Errorf("stride %d offset %d", l[0].ArrayStride, l[0].Attributes[1].Offset)
	}
}

func TestResolveLayoutArrays(t *testing.T) {
	known := map[string]typeLayout{}
	cases := []struct {
		typ  string
		size uint64
	}{
		{"array<vec3<f32>,4>", 64},
		{"array<f32, 3>", 12},
		{"array<u32>", 4},
		{"vec3<f32>", 12},
	}
	for _, c := range cases {
		l, ok := resolveLayout(canonicalType(c.typ), known)
		if !ok || l.size != c.size {
			t.Errorf("resolveLayout(%q) = %d, %v, want %d", c.typ, l.size, ok, c.size)
		}
	}
	if _, ok := resolveLayout("Unknown", known); ok {
		t.Error("unknown type resolved")
	}
}

func TestStripComments(t *testing.T) {
	in := "a // line\nb /* x /* y */ z */c"
	if got := stripComments(in); got != "a \nb c" {
		t.Errorf("stripComments = %q", got)
	}
}
