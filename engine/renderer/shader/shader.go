package shader

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies the pipeline stage a shader entry point belongs to.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex stage of a render pipeline.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the fragment stage, paired with a vertex shader.
	ShaderTypeFragment
)

func (t ShaderType) String() string {
	if t == ShaderTypeFragment {
		return "fragment"
	}
	return "vertex"
}

// shader is the implementation of the Shader interface.
type shader struct {
	key        string
	source     string
	shaderType ShaderType
	entryPoint string

	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	bindingVarNames            map[int]map[int]string
	vertexLayouts              []wgpu.VertexBufferLayout
}

// Shader is one stage of a WGSL module together with the layout metadata reflected from its source:
// the entry point, the bind group layouts and, for vertex shaders, the vertex buffer layouts.
// A vertex and a fragment Shader may share the same source.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for labels and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the WGSL source code.
	//
	// Returns:
	//   - string: the WGSL source
	Source() string

	// ShaderType returns the pipeline stage of this shader.
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex or ShaderTypeFragment
	ShaderType() ShaderType

	// EntryPoint returns the name of the stage's entry point function.
	//
	// Returns:
	//   - string: the entry point name
	EntryPoint() string

	// BindGroupLayoutDescriptor retrieves the reflected layout of one bind group.
	//
	// Parameters:
	//   - group: the @group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the descriptor, or an empty one if the group is not declared
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors retrieves all reflected bind group layouts. Every entry is
	// visible to this shader's stage.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// Binding resolves a module-scope resource variable to its binding index.
	//
	// Parameters:
	//   - group: the @group index
	//   - varName: the WGSL variable name
	//
	// Returns:
	//   - int: the @binding index, or -1
	//   - bool: true if the variable is declared in that group
	Binding(group int, varName string) (int, bool)

	// VertexLayouts returns the vertex buffer layouts reflected from the vertex input structs,
	// in declaration order. Empty for fragment shaders.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: one layout per vertex buffer slot
	VertexLayouts() []wgpu.VertexBufferLayout
}

var _ Shader = &shader{}

// NewShader reflects a WGSL source for one pipeline stage.
// It panics if the source is empty or declares no entry point for the stage.
//
// Parameters:
//   - key: a unique identifier for the shader, used for labels and lookups
//   - shaderType: the pipeline stage to reflect
//   - source: the WGSL source code
//
// Returns:
//   - Shader: the reflected shader
func NewShader(key string, shaderType ShaderType, source string) Shader {
	if source == "" {
		panic(fmt.Sprintf("shader: %s has no source", key))
	}
	s := &shader{
		key:        key,
		source:     source,
		shaderType: shaderType,
	}

	cleaned := stripComments(source)
	s.entryPoint = parseEntryPoint(cleaned, shaderType)
	if s.entryPoint == "" {
		panic(fmt.Sprintf("shader: %s declares no @%s entry point", key, shaderType))
	}

	visibility := wgpu.ShaderStageVertex
	if shaderType == ShaderTypeFragment {
		visibility = wgpu.ShaderStageFragment
	}
	structs := parseStructBlocks(cleaned)
	s.bindGroupLayoutDescriptors, s.bindingVarNames = parseBindGroupLayouts(cleaned, structs, visibility)
	if shaderType == ShaderTypeVertex {
		s.vertexLayouts = parseVertexLayouts(structs)
	}
	return s
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors[group]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) Binding(group int, varName string) (int, bool) {
	for binding, name := range s.bindingVarNames[group] {
		if name == varName {
			return binding, true
		}
	}
	return -1, false
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	return s.vertexLayouts
}
