package loader

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-splat/engine/wire"
)

type plyVertex struct {
	pos     [3]float32
	scale   [3]float32
	rot     [4]float32
	opacity float32
	dc      [3]float32
}

var plyTestProperties = []string{
	"x", "y", "z", "nx",
	"scale_0", "scale_1", "scale_2",
	"rot_0", "rot_1", "rot_2", "rot_3",
	"opacity", "f_dc_0", "f_dc_1", "f_dc_2",
}

// buildPLY writes a binary little-endian PLY file whose vertices carry every float
// property in plyTestProperties.
func buildPLY(t *testing.T, verts []plyVertex) []byte {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("ply\nformat binary_little_endian 1.0\n")
	fmt.Fprintf(&sb, "element vertex %d\n", len(verts))
	for _, p := range plyTestProperties {
		fmt.Fprintf(&sb, "property float %s\n", p)
	}
	sb.WriteString("end_header\n")

	buf := []byte(sb.String())
	put := func(v float32) {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	for _, v := range verts {
		put(v.pos[0])
		put(v.pos[1])
		put(v.pos[2])
		put(9)
		for _, s := range v.scale {
			put(s)
		}
		for _, r := range v.rot {
			put(r)
		}
		put(v.opacity)
		for _, c := range v.dc {
			put(c)
		}
	}
	return buf
}

// logit returns the opacity whose sigmoid is p.
func logit(p float64) float32 {
	return float32(math.Log(p / (1 - p)))
}

func TestParsePLYHeader(t *testing.T) {
	buf := buildPLY(t, []plyVertex{{}})
	h, err := ParsePLYHeader(buf)
	if err != nil {
		t.Fatal(err)
	}
	if h.VertexCount != 1 {
		t.Errorf("VertexCount = %d, want 1", h.VertexCount)
	}
	if h.Stride != 4*len(plyTestProperties) {
		t.Errorf("Stride = %d, want %d", h.Stride, 4*len(plyTestProperties))
	}
	if h.Properties[3].Role != RoleOther || h.Properties[4].Offset != 16 {
		t.Errorf("unexpected property table %+v", h.Properties[3:5])
	}
	if !h.Has(RoleOpacity) || h.Has(RoleRed) {
		t.Error("Has reports wrong roles")
	}
}

func TestParsePLYHeaderErrors(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   error
	}{
		{"missing end", "ply\nformat binary_little_endian 1.0\nelement vertex 1\n", ErrMissingHeaderEnd},
		{"missing count", "ply\nformat binary_little_endian 1.0\nproperty float x\nend_header\n", ErrMissingVertexCount},
		{"ascii", "ply\nformat ascii 1.0\nelement vertex 1\nend_header\n", ErrPLYFormat},
		{"list", "ply\nformat binary_little_endian 1.0\nelement vertex 1\nproperty list uchar int idx\nend_header\n", ErrPLYFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePLYHeader([]byte(tt.header))
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParsePLYHeaderBeyondSearchLimit(t *testing.T) {
	header := "ply\nformat binary_little_endian 1.0\nelement vertex 0\ncomment " +
		strings.Repeat("x", plyHeaderSearchLimit) + "\nend_header\n"
	if _, err := ParsePLYHeader([]byte(header)); !errors.Is(err, ErrMissingHeaderEnd) {
		t.Errorf("err = %v, want ErrMissingHeaderEnd", err)
	}
}

func TestParsePLYHeaderIgnoresOtherElements(t *testing.T) {
	header := "ply\nformat binary_little_endian 1.0\nelement vertex 2\nproperty float x\n" +
		"element face 1\nproperty list uchar int vertex_indices\nend_header\n"
	h, err := ParsePLYHeader([]byte(header))
	if err != nil {
		t.Fatal(err)
	}
	if len(h.Properties) != 1 || h.Stride != 4 {
		t.Errorf("properties = %+v, stride = %d", h.Properties, h.Stride)
	}
}

func TestImportPLYOrdersByImportance(t *testing.T) {
	low := plyVertex{pos: [3]float32{1, 0, 0}, opacity: logit(0.2), rot: [4]float32{1, 0, 0, 0}}
	high := plyVertex{pos: [3]float32{2, 0, 0}, opacity: logit(0.8), rot: [4]float32{1, 0, 0, 0}}

	for _, tt := range []struct {
		name  string
		verts []plyVertex
	}{
		{"high first", []plyVertex{high, low}},
		{"low first", []plyVertex{low, high}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			rows, n, err := ImportPLY(buildPLY(t, tt.verts))
			if err != nil {
				t.Fatal(err)
			}
			if n != 2 || len(rows) != 2*wire.RowSize {
				t.Fatalf("n = %d, len = %d", n, len(rows))
			}
			first := wire.DecodeRow(rows)
			if first.Position[0] != 2 {
				t.Errorf("first row x = %f, want the high importance vertex", first.Position[0])
			}
			if first.Color[3] != 204 {
				t.Errorf("alpha = %d, want 204", first.Color[3])
			}
		})
	}
}

func TestImportPLYStableForEqualImportance(t *testing.T) {
	var verts []plyVertex
	for i := range 5 {
		verts = append(verts, plyVertex{pos: [3]float32{float32(i), 0, 0}})
	}
	rows, _, err := ImportPLY(buildPLY(t, verts))
	if err != nil {
		t.Fatal(err)
	}
	for i := range 5 {
		if x := wire.DecodeRow(rows[i*wire.RowSize:]).Position[0]; x != float32(i) {
			t.Errorf("row %d x = %f, want %d", i, x, i)
		}
	}
}

func TestImportPLYAttributes(t *testing.T) {
	v := plyVertex{
		pos:     [3]float32{1, -2, 3},
		scale:   [3]float32{0, float32(math.Log(2)), float32(math.Log(0.5))},
		rot:     [4]float32{0, 0, 2, 0},
		opacity: 0,
		dc:      [3]float32{0, 10, -10},
	}
	rows, _, err := ImportPLY(buildPLY(t, []plyVertex{v}))
	if err != nil {
		t.Fatal(err)
	}
	r := wire.DecodeRow(rows)
	if r.Position != v.pos {
		t.Errorf("position = %v", r.Position)
	}
	wantScale := [3]float32{1, 2, 0.5}
	for i := range 3 {
		if math.Abs(float64(r.Scale[i]-wantScale[i])) > 1e-5 {
			t.Errorf("scale[%d] = %f, want %f", i, r.Scale[i], wantScale[i])
		}
	}
	if r.Rotation != [4]uint8{128, 128, 255, 128} {
		t.Errorf("rotation = %v", r.Rotation)
	}
	// 0.5*255 = 127.5 rounds up; large coefficients clamp.
	if r.Color != [4]uint8{128, 255, 0, 128} {
		t.Errorf("color = %v", r.Color)
	}
}

func TestImportPLYDefaults(t *testing.T) {
	header := "ply\nformat binary_little_endian 1.0\nelement vertex 1\n" +
		"property float x\nproperty float y\nproperty float z\n" +
		"property uchar red\nproperty uchar green\nproperty uchar blue\nproperty char flag\nend_header\n"
	buf := []byte(header)
	for _, f := range []float32{4, 5, 6} {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	buf = append(buf, 10, 20, 30, 0xff)

	rows, n, err := ImportPLY(buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("n = %d", n)
	}
	r := wire.DecodeRow(rows)
	if r.Scale != [3]float32{0.01, 0.01, 0.01} {
		t.Errorf("scale = %v, want default 0.01", r.Scale)
	}
	if r.Rotation != wire.IdentityRotation {
		t.Errorf("rotation = %v, want identity", r.Rotation)
	}
	if r.Color != [4]uint8{10, 20, 30, 255} {
		t.Errorf("color = %v", r.Color)
	}
}

func TestImportPLYZeroQuaternionIsIdentity(t *testing.T) {
	rows, _, err := ImportPLY(buildPLY(t, []plyVertex{{}}))
	if err != nil {
		t.Fatal(err)
	}
	if r := wire.DecodeRow(rows); r.Rotation != wire.IdentityRotation {
		t.Errorf("rotation = %v, want identity", r.Rotation)
	}
}

func TestImportPLYTruncatedBody(t *testing.T) {
	buf := buildPLY(t, []plyVertex{{}, {}})
	if _, _, err := ImportPLY(buf[:len(buf)-1]); !errors.Is(err, ErrPLYFormat) {
		t.Errorf("err = %v, want ErrPLYFormat", err)
	}
}

func TestImportPLYRejectsOversizedCount(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"overflowing count", "ply\nformat binary_little_endian 1.0\nelement vertex 4611686018427387904\nproperty float x\nend_header\n"},
		{"count beyond body", "ply\nformat binary_little_endian 1.0\nelement vertex 3\nproperty float x\nend_header\n\x00\x00\x80\x3f"},
		{"no properties", "ply\nformat binary_little_endian 1.0\nelement vertex 2\nend_header\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, n, err := ImportPLY([]byte(tt.header))
			if !errors.Is(err, ErrPLYFormat) {
				t.Errorf("err = %v, want ErrPLYFormat", err)
			}
			if rows != nil || n != 0 {
				t.Errorf("got %d bytes and count %d, want nothing", len(rows), n)
			}
		})
	}
}
