package loader

import (
	"bytes"
	"cmp"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-splat/common"
	"github.com/Carmen-Shannon/oxy-splat/engine/wire"
)

const (
	// plyHeaderSearchLimit bounds how far into the buffer end_header is looked for.
	plyHeaderSearchLimit = 10 * 1024

	// shC0 is the zeroth-order spherical harmonic coefficient.
	shC0 = 0.28209479177387814

	defaultPLYScale = 0.01
)

var (
	// ErrMissingHeaderEnd is returned when end_header does not appear in the first 10 KiB.
	ErrMissingHeaderEnd = errors.New("loader: ply header end not found")

	// ErrMissingVertexCount is returned when the header has no element vertex line.
	ErrMissingVertexCount = errors.New("loader: ply vertex count not found")

	// ErrPLYFormat is returned for headers or bodies the importer cannot decode.
	ErrPLYFormat = errors.New("loader: malformed ply")
)

var plyHeaderEnd = []byte("end_header\n")

// PropertyRole names the splat attribute a PLY vertex property feeds.
type PropertyRole int

const (
	RoleOther PropertyRole = iota
	RoleX
	RoleY
	RoleZ
	RoleScale0
	RoleScale1
	RoleScale2
	RoleRot0
	RoleRot1
	RoleRot2
	RoleRot3
	RoleOpacity
	RoleDC0
	RoleDC1
	RoleDC2
	RoleRed
	RoleGreen
	RoleBlue
	roleCount
)

var plyRoles = map[string]PropertyRole{
	"x":       RoleX,
	"y":       RoleY,
	"z":       RoleZ,
	"scale_0": RoleScale0,
	"scale_1": RoleScale1,
	"scale_2": RoleScale2,
	"rot_0":   RoleRot0,
	"rot_1":   RoleRot1,
	"rot_2":   RoleRot2,
	"rot_3":   RoleRot3,
	"opacity": RoleOpacity,
	"f_dc_0":  RoleDC0,
	"f_dc_1":  RoleDC1,
	"f_dc_2":  RoleDC2,
	"red":     RoleRed,
	"green":   RoleGreen,
	"blue":    RoleBlue,
}

// PLYProperty is one scalar vertex property.
type PLYProperty struct {
	Name   string
	Type   string
	Role   PropertyRole
	Offset int
	Size   int

	decode func([]byte) float64
}

// PLYHeader is the parsed header of a binary PLY file.
type PLYHeader struct {
	// VertexCount is the number of vertex records in the body.
	VertexCount int

	// Properties lists the vertex properties in record order.
	Properties []PLYProperty

	// Stride is the byte size of a vertex record.
	Stride int

	// BodyOffset is the byte index where the vertex records begin.
	BodyOffset int
}

// Has reports whether a property with the given role is present.
func (h *PLYHeader) Has(role PropertyRole) bool {
	for _, p := range h.Properties {
		if p.Role == role {
			return true
		}
	}
	return false
}

type plyScalar struct {
	size   int
	decode func([]byte) float64
}

func plyScalarType(name string) plyScalar {
	switch name {
	case "double", "float64":
		return plyScalar{8, func(b []byte) float64 { return math.Float64frombits(binary.LittleEndian.Uint64(b)) }}
	case "float", "float32":
		return plyScalar{4, func(b []byte) float64 { return float64(math.Float32frombits(binary.LittleEndian.Uint32(b))) }}
	case "int", "int32":
		return plyScalar{4, func(b []byte) float64 { return float64(int32(binary.LittleEndian.Uint32(b))) }}
	case "uint", "uint32":
		return plyScalar{4, func(b []byte) float64 { return float64(binary.LittleEndian.Uint32(b)) }}
	case "short", "int16":
		return plyScalar{2, func(b []byte) float64 { return float64(int16(binary.LittleEndian.Uint16(b))) }}
	case "ushort", "uint16":
		return plyScalar{2, func(b []byte) float64 { return float64(binary.LittleEndian.Uint16(b)) }}
	case "uchar", "uint8":
		return plyScalar{1, func(b []byte) float64 { return float64(b[0]) }}
	default:
		return plyScalar{1, func(b []byte) float64 { return float64(int8(b[0])) }}
	}
}

// ParsePLYHeader parses the ASCII header at the start of buf.
//
// Parameters:
//   - buf: the PLY file, or at least its header
//
// Returns:
//   - *PLYHeader: the vertex count, property table and body offset
//   - error: ErrMissingHeaderEnd, ErrMissingVertexCount or ErrPLYFormat
func ParsePLYHeader(buf []byte) (*PLYHeader, error) {
	search := buf[:min(len(buf), plyHeaderSearchLimit)]
	end := bytes.Index(search, plyHeaderEnd)
	if end < 0 {
		return nil, ErrMissingHeaderEnd
	}

	h := &PLYHeader{VertexCount: -1, BodyOffset: end + len(plyHeaderEnd)}
	element := ""
	for i, line := range strings.Split(string(buf[:end]), "\n") {
		fields := strings.Fields(strings.TrimSuffix(line, "\r"))
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "format":
			if len(fields) < 2 || fields[1] != "binary_little_endian" {
				return nil, fmt.Errorf("%w: line %d: unsupported format %q", ErrPLYFormat, i+1, line)
			}
		case "element":
			if len(fields) < 3 {
				return nil, fmt.Errorf("%w: line %d: %q", ErrPLYFormat, i+1, line)
			}
			element = fields[1]
			if element == "vertex" {
				n, err := strconv.Atoi(fields[2])
				if err != nil || n < 0 {
					return nil, fmt.Errorf("%w: line %d: bad vertex count %q", ErrPLYFormat, i+1, fields[2])
				}
				h.VertexCount = n
			}
		case "property":
			if element != "vertex" {
				continue
			}
			if len(fields) < 3 {
				return nil, fmt.Errorf("%w: line %d: %q", ErrPLYFormat, i+1, line)
			}
			if fields[1] == "list" {
				return nil, fmt.Errorf("%w: line %d: list properties are not supported on vertices", ErrPLYFormat, i+1)
			}
			st := plyScalarType(fields[1])
			h.Properties = append(h.Properties, PLYProperty{
				Name:   fields[2],
				Type:   fields[1],
				Role:   plyRoles[fields[2]],
				Offset: h.Stride,
				Size:   st.size,
				decode: st.decode,
			})
			h.Stride += st.size
		}
	}

	if h.VertexCount < 0 {
		return nil, ErrMissingVertexCount
	}
	return h, nil
}

// ImportPLY converts a fully buffered binary PLY file into wire rows ordered by
// descending importance (volume times opacity). Equal importances keep file order.
//
// Parameters:
//   - buf: the whole PLY file
//
// Returns:
//   - []byte: count*32 bytes of rows
//   - int: the vertex count
//   - error: a header or body format error
func ImportPLY(buf []byte) ([]byte, int, error) {
	h, err := ParsePLYHeader(buf)
	if err != nil {
		return nil, 0, err
	}
	n := h.VertexCount
	// Bound the count by the body before multiplying so a forged count cannot overflow.
	bodyLen := len(buf) - h.BodyOffset
	if n > 0 && (h.Stride == 0 || n > bodyLen/h.Stride) {
		return nil, 0, fmt.Errorf("%w: body holds %d bytes, too short for %d vertices of %d bytes",
			ErrPLYFormat, bodyLen, n, h.Stride)
	}

	var props [roleCount]*PLYProperty
	for i := range h.Properties {
		p := &h.Properties[i]
		if p.Role != RoleOther && props[p.Role] == nil {
			props[p.Role] = p
		}
	}
	body := buf[h.BodyOffset:]
	value := func(v int, role PropertyRole) float64 {
		p := props[role]
		off := v*h.Stride + p.Offset
		return p.decode(body[off : off+p.Size])
	}

	hasScale := props[RoleScale0] != nil && props[RoleScale1] != nil && props[RoleScale2] != nil
	hasRot := props[RoleRot0] != nil && props[RoleRot1] != nil && props[RoleRot2] != nil && props[RoleRot3] != nil
	hasDC := props[RoleDC0] != nil && props[RoleDC1] != nil && props[RoleDC2] != nil
	hasRGB := props[RoleRed] != nil && props[RoleGreen] != nil && props[RoleBlue] != nil
	hasOpacity := props[RoleOpacity] != nil

	importance := make([]float64, n)
	if hasScale {
		for v := range n {
			s := math.Exp(value(v, RoleScale0)) * math.Exp(value(v, RoleScale1)) * math.Exp(value(v, RoleScale2))
			if hasOpacity {
				s *= sigmoid(value(v, RoleOpacity))
			}
			importance[v] = s
		}
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(importance[b], importance[a])
	})

	out := make([]byte, n*wire.RowSize)
	for j, v := range order {
		r := wire.Row{
			Scale:    [3]float32{defaultPLYScale, defaultPLYScale, defaultPLYScale},
			Color:    [4]uint8{255, 255, 255, 255},
			Rotation: wire.IdentityRotation,
		}
		if props[RoleX] != nil {
			r.Position[0] = float32(value(v, RoleX))
		}
		if props[RoleY] != nil {
			r.Position[1] = float32(value(v, RoleY))
		}
		if props[RoleZ] != nil {
			r.Position[2] = float32(value(v, RoleZ))
		}

		if hasScale {
			r.Scale = [3]float32{
				float32(math.Exp(value(v, RoleScale0))),
				float32(math.Exp(value(v, RoleScale1))),
				float32(math.Exp(value(v, RoleScale2))),
			}
		}

		if hasRot {
			q := [4]float64{value(v, RoleRot0), value(v, RoleRot1), value(v, RoleRot2), value(v, RoleRot3)}
			qlen := math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
			if qlen > 0 {
				for k := range q {
					r.Rotation[k] = wire.Quantize(float32(q[k] / qlen))
				}
			}
		}

		switch {
		case hasDC:
			r.Color[0] = clampByte((0.5 + shC0*value(v, RoleDC0)) * 255)
			r.Color[1] = clampByte((0.5 + shC0*value(v, RoleDC1)) * 255)
			r.Color[2] = clampByte((0.5 + shC0*value(v, RoleDC2)) * 255)
		case hasRGB:
			r.Color[0] = clampByte(value(v, RoleRed))
			r.Color[1] = clampByte(value(v, RoleGreen))
			r.Color[2] = clampByte(value(v, RoleBlue))
		}

		if hasOpacity {
			r.Color[3] = clampByte(sigmoid(value(v, RoleOpacity)) * 255)
		}

		wire.EncodeRow(out[j*wire.RowSize:], r)
	}

	common.Logger().Debug("loader: ply imported",
		"vertices", n, "stride", h.Stride, "properties", len(h.Properties), "ranked", hasScale)
	return out, n, nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// clampByte rounds v to the nearest integer in [0, 255].
func clampByte(v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	return uint8(math.Round(common.Clamp(v, 0, 255)))
}
