package shader

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// instanceStructSuffix marks a vertex input struct whose buffer advances per instance.
const instanceStructSuffix = "Instance"

// vertexFormat is a WGSL vertex input type's wgpu format and byte size.
type vertexFormat struct {
	format wgpu.VertexFormat
	size   uint64
}

// typeLayout is the byte size and alignment of a WGSL host-shareable type.
type typeLayout struct {
	size  uint64
	align uint64
}

type parsedField struct {
	name      string
	typeName  string
	location  int
	isBuiltin bool
}

type parsedStruct struct {
	name   string
	fields []parsedField
}

var vertexFormats = map[string]vertexFormat{
	"f32":       {wgpu.VertexFormatFloat32, 4},
	"vec2<f32>": {wgpu.VertexFormatFloat32x2, 8},
	"vec3<f32>": {wgpu.VertexFormatFloat32x3, 12},
	"vec4<f32>": {wgpu.VertexFormatFloat32x4, 16},
	"u32":       {wgpu.VertexFormatUint32, 4},
	"vec2<u32>": {wgpu.VertexFormatUint32x2, 8},
	"vec3<u32>": {wgpu.VertexFormatUint32x3, 12},
	"vec4<u32>": {wgpu.VertexFormatUint32x4, 16},
	"i32":       {wgpu.VertexFormatSint32, 4},
	"vec2<i32>": {wgpu.VertexFormatSint32x2, 8},
	"vec3<i32>": {wgpu.VertexFormatSint32x3, 12},
	"vec4<i32>": {wgpu.VertexFormatSint32x4, 16},
}

// primitiveLayouts follows the WGSL alignment and size table.
var primitiveLayouts = map[string]typeLayout{
	"f32":         {4, 4},
	"u32":         {4, 4},
	"i32":         {4, 4},
	"vec2<f32>":   {8, 8},
	"vec2<u32>":   {8, 8},
	"vec2<i32>":   {8, 8},
	"vec3<f32>":   {12, 16},
	"vec3<u32>":   {12, 16},
	"vec3<i32>":   {12, 16},
	"vec4<f32>":   {16, 16},
	"vec4<u32>":   {16, 16},
	"vec4<i32>":   {16, 16},
	"mat3x3<f32>": {48, 16},
	"mat4x4<f32>": {64, 16},
}

// shorthandTypes expands the predeclared WGSL aliases to their generic spelling.
var shorthandTypes = map[string]string{
	"vec2f": "vec2<f32>", "vec3f": "vec3<f32>", "vec4f": "vec4<f32>",
	"vec2u": "vec2<u32>", "vec3u": "vec3<u32>", "vec4u": "vec4<u32>",
	"vec2i": "vec2<i32>", "vec3i": "vec3<i32>", "vec4i": "vec4<i32>",
	"mat3x3f": "mat3x3<f32>", "mat4x4f": "mat4x4<f32>",
}

var sampleTypes = map[string]wgpu.TextureSampleType{
	"f32": wgpu.TextureSampleTypeFloat,
	"u32": wgpu.TextureSampleTypeUint,
	"i32": wgpu.TextureSampleTypeSint,
}

var textureDimensions = map[string]wgpu.TextureViewDimension{
	"texture_1d":       wgpu.TextureViewDimension1D,
	"texture_2d":       wgpu.TextureViewDimension2D,
	"texture_2d_array": wgpu.TextureViewDimension2DArray,
	"texture_3d":       wgpu.TextureViewDimension3D,
}

var (
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)
	locationRegex    = regexp.MustCompile(`@location\((\d+)\)`)
	builtinRegex     = regexp.MustCompile(`@builtin\(\w+\)`)
	fieldRegex       = regexp.MustCompile(`^(?:@\w+(?:\([^)]*\))?\s*)*(\w+)\s*:\s*(.+)$`)

	vertexEntryRegex   = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)

	// bindingRegex captures group, binding, optional address space, variable name and type of
	// declarations such as `@group(0) @binding(1) var centers: texture_2d<f32>;`.
	bindingRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// parseEntryPoint returns the name of the first entry point of the given stage, or "".
func parseEntryPoint(source string, shaderType ShaderType) string {
	re := vertexEntryRegex
	if shaderType == ShaderTypeFragment {
		re = fragmentEntryRegex
	}
	if m := re.FindStringSubmatch(source); m != nil {
		return m[1]
	}
	return ""
}

// parseVertexLayouts builds one vertex buffer layout per vertex input struct, meaning a struct
// whose fields all carry @location and none @builtin. Attributes are packed in field order.
// Structs named with the Instance suffix step per instance. Structs with a field type that is
// not a valid vertex format are skipped.
func parseVertexLayouts(structs []parsedStruct) []wgpu.VertexBufferLayout {
	var layouts []wgpu.VertexBufferLayout
	for _, ps := range structs {
		if !isVertexInputStruct(ps) {
			continue
		}
		attrs := make([]wgpu.VertexAttribute, 0, len(ps.fields))
		var offset uint64
		valid := true
		for _, f := range ps.fields {
			vf, ok := vertexFormats[canonicalType(f.typeName)]
			if !ok {
				valid = false
				break
			}
			attrs = append(attrs, wgpu.VertexAttribute{
				Format:         vf.format,
				Offset:         offset,
				ShaderLocation: uint32(f.location),
			})
			offset += vf.size
		}
		if !valid {
			continue
		}
		step := wgpu.VertexStepModeVertex
		if strings.HasSuffix(ps.name, instanceStructSuffix) {
			step = wgpu.VertexStepModeInstance
		}
		layouts = append(layouts, wgpu.VertexBufferLayout{
			ArrayStride: offset,
			StepMode:    step,
			Attributes:  attrs,
		})
	}
	return layouts
}

func isVertexInputStruct(ps parsedStruct) bool {
	if len(ps.fields) == 0 {
		return false
	}
	for _, f := range ps.fields {
		if f.isBuiltin || f.location < 0 {
			return false
		}
	}
	return true
}

// parseBindGroupLayouts reflects every @group/@binding declaration into layout entries visible
// to the given stage, sorted by binding. Uniform and storage buffers get MinBindingSize from
// the bound type's layout. A module that declares no sampler can only read its float textures
// with textureLoad, so their entries use the unfilterable sample type, which also admits
// 32-bit float formats.
func parseBindGroupLayouts(source string, structs []parsedStruct, visibility wgpu.ShaderStage) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string) {
	layouts := structLayouts(structs)
	matches := bindingRegex.FindAllStringSubmatch(source, -1)

	hasSampler := false
	for _, m := range matches {
		if strings.HasPrefix(strings.TrimSpace(m[5]), "sampler") {
			hasSampler = true
		}
	}

	groups := make(map[int][]wgpu.BindGroupLayoutEntry)
	names := make(map[int]map[int]string)
	for _, m := range matches {
		group, _ := strconv.Atoi(m[1])
		binding, _ := strconv.Atoi(m[2])
		addressSpace := strings.TrimSpace(m[3])
		varName := m[4]
		typeName := canonicalType(strings.TrimSpace(m[5]))

		entry := wgpu.BindGroupLayoutEntry{Binding: uint32(binding), Visibility: visibility}
		switch {
		case addressSpace == "uniform":
			entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		case strings.HasPrefix(addressSpace, "storage"):
			entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
			if strings.Contains(addressSpace, "read_write") {
				entry.Buffer.Type = wgpu.BufferBindingTypeStorage
			}
		case typeName == "sampler":
			entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
		case strings.HasPrefix(typeName, "texture_"):
			base, param, _ := strings.Cut(strings.TrimSuffix(typeName, ">"), "<")
			entry.Texture.ViewDimension = textureDimensions[base]
			entry.Texture.SampleType = sampleTypes[param]
			if entry.Texture.SampleType == wgpu.TextureSampleTypeFloat && !hasSampler {
				entry.Texture.SampleType = wgpu.TextureSampleTypeUnfilterableFloat
			}
		}
		if entry.Buffer.Type != wgpu.BufferBindingTypeUndefined {
			if l, ok := resolveLayout(typeName, layouts); ok {
				entry.Buffer.MinBindingSize = l.size
			}
		}

		groups[group] = append(groups[group], entry)
		if names[group] == nil {
			names[group] = make(map[int]string)
		}
		names[group][binding] = varName
	}

	result := make(map[int]wgpu.BindGroupLayoutDescriptor, len(groups))
	for g, entries := range groups {
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Binding < entries[j].Binding
		})
		result[g] = wgpu.BindGroupLayoutDescriptor{Entries: entries}
	}
	return result, names
}

// structLayouts computes the layout of every struct whose fields resolve, repeating until
// no more structs can be resolved so nested structs may appear in any order.
func structLayouts(structs []parsedStruct) map[string]typeLayout {
	resolved := make(map[string]typeLayout, len(structs))
	for progress := true; progress; {
		progress = false
		for _, ps := range structs {
			if _, done := resolved[ps.name]; done {
				continue
			}
			if l, ok := structLayout(ps, resolved); ok {
				resolved[ps.name] = l
				progress = true
			}
		}
	}
	return resolved
}

func structLayout(ps parsedStruct, known map[string]typeLayout) (typeLayout, bool) {
	var offset uint64
	align := uint64(1)
	for _, f := range ps.fields {
		if f.isBuiltin {
			continue
		}
		l, ok := resolveLayout(canonicalType(f.typeName), known)
		if !ok {
			return typeLayout{}, false
		}
		offset = roundUp(l.align, offset) + l.size
		align = max(align, l.align)
	}
	return typeLayout{roundUp(align, offset), align}, true
}

// resolveLayout resolves primitives, known structs and fixed-size arrays.
func resolveLayout(typeName string, known map[string]typeLayout) (typeLayout, bool) {
	if l, ok := primitiveLayouts[typeName]; ok {
		return l, true
	}
	if l, ok := known[typeName]; ok {
		return l, true
	}
	inner, ok := strings.CutPrefix(typeName, "array<")
	if !ok {
		return typeLayout{}, false
	}
	elem, count, fixed := strings.Cut(strings.TrimSuffix(inner, ">"), ",")
	el, ok := resolveLayout(canonicalType(strings.TrimSpace(elem)), known)
	if !ok {
		return typeLayout{}, false
	}
	stride := roundUp(el.align, el.size)
	if !fixed {
		// runtime-sized: one element is the smallest valid binding
		return typeLayout{stride, el.align}, true
	}
	n, err := strconv.ParseUint(strings.TrimSpace(count), 10, 64)
	if err != nil {
		return typeLayout{}, false
	}
	return typeLayout{n * stride, el.align}, true
}

func roundUp(align, v uint64) uint64 {
	if align == 0 {
		return v
	}
	return (v + align - 1) &^ (align - 1)
}

func canonicalType(t string) string {
	if full, ok := shorthandTypes[t]; ok {
		return full
	}
	return strings.ReplaceAll(t, " ", "")
}

func parseStructBlocks(source string) []parsedStruct {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]parsedStruct, 0, len(matches))
	for _, m := range matches {
		structs = append(structs, parsedStruct{name: m[1], fields: parseStructFields(m[2])})
	}
	return structs
}

func parseStructFields(body string) []parsedField {
	parts := splitTopLevel(body)
	fields := make([]parsedField, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fm := fieldRegex.FindStringSubmatch(part)
		if fm == nil {
			continue
		}
		f := parsedField{
			name:      fm[1],
			typeName:  strings.TrimSpace(fm[2]),
			location:  -1,
			isBuiltin: builtinRegex.MatchString(part),
		}
		if lm := locationRegex.FindStringSubmatch(part); lm != nil {
			f.location, _ = strconv.Atoi(lm[1])
		}
		fields = append(fields, f)
	}
	return fields
}

// splitTopLevel splits a struct body at commas outside angle brackets, so array<T, N>
// stays one field.
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			depth = max(depth-1, 0)
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// stripComments removes line comments and, possibly nested, block comments.
func stripComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		if i+1 < len(source) {
			switch {
			case source[i] == '/' && source[i+1] == '*':
				depth++
				i++
				continue
			case source[i] == '*' && source[i+1] == '/' && depth > 0:
				depth--
				i++
				continue
			case depth == 0 && source[i] == '/' && source[i+1] == '/':
				for i < len(source) && source[i] != '\n' {
					i++
				}
				if i < len(source) {
					sb.WriteByte('\n')
				}
				continue
			}
		}
		if depth == 0 {
			sb.WriteByte(source[i])
		}
	}
	return sb.String()
}
