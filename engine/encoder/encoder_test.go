package encoder

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-splat/engine/wire"
)

func near(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestPackCovarianceRoundTrip(t *testing.T) {
	tests := [][6]float32{
		{1, -0.5, 0.25, 2, 0.001, -3},
		{1e-6, 2e-6, -3e-6, 4e-6, 0, 5e-7},
		{100, 0, 0, 100, 0, 100},
	}
	for _, cov := range tests {
		packed, scale := PackCovariance(cov)
		got := UnpackCovariance(packed, scale)
		for i := range cov {
			if !near(float64(got[i]), float64(cov[i]), float64(scale)) {
				t.Errorf("cov %v entry %d: got %g, want %g within %g", cov, i, got[i], cov[i], scale)
			}
		}
	}
}

func TestPackCovarianceZero(t *testing.T) {
	packed, scale := PackCovariance([6]float32{})
	if packed != [3]uint32{} || scale != 0 {
		t.Errorf("packed = %v, scale = %g, want zeros", packed, scale)
	}
}

func TestPackCovarianceHalfOrder(t *testing.T) {
	packed, _ := PackCovariance([6]float32{1, -1, 0, 0, 0, 0})
	if lo, hi := unpackInt16Pair(packed[0]); lo != 32767 || hi != -32767 {
		t.Errorf("pair = (%d, %d), want (32767, -32767)", lo, hi)
	}
}

func TestPackColor(t *testing.T) {
	if got := PackColor([4]uint8{0x11, 0x22, 0x33, 0x44}); got != 0x44332211 {
		t.Errorf("PackColor = %#x, want 0x44332211", got)
	}
}

func row(pos, scale [3]float32, rot, color [4]uint8) []byte {
	return wire.AppendRow(nil, wire.Row{Position: pos, Scale: scale, Rotation: rot, Color: color})
}

func TestEncodeIdentityRotation(t *testing.T) {
	e := NewEncoder(4)
	b := e.Encode(row([3]float32{1, 2, 3}, [3]float32{1, 2, 3}, wire.IdentityRotation, [4]uint8{10, 20, 30, 255}), 1)
	if b.Start != 0 || b.Count != 1 || len(b.Matrices) != MatrixStride {
		t.Fatalf("batch = %+v", b)
	}

	buf := e.Buffer()
	f := buf.FloatTexel(0)
	if f[0] != 1 || f[1] != 2 || f[2] != -3 {
		t.Errorf("center = %v, want (1, 2, -3)", f[:3])
	}
	u := buf.UintTexel(0)
	cov := UnpackCovariance([3]uint32{u[0], u[1], u[2]}, f[3])
	want := [6]float32{1, 0, 0, 4, 0, 9}
	for i := range want {
		if !near(float64(cov[i]), float64(want[i]), 1e-3) {
			t.Errorf("cov[%d] = %g, want %g", i, cov[i], want[i])
		}
	}
	if u[3] != PackColor([4]uint8{10, 20, 30, 255}) {
		t.Errorf("color word = %#x", u[3])
	}

	m := b.Matrices
	if m[12] != 1 || m[13] != 2 || m[14] != -3 {
		t.Errorf("translation = %v", m[12:15])
	}
	if !near(float64(m[15]), 3, 1e-6) {
		t.Errorf("weight = %g, want 3", m[15])
	}
}

// sourceCovariance computes R*S^2*R^T for a normalized quaternion.
func sourceCovariance(w, x, y, z float64, s [3]float64) [3][3]float64 {
	r := [3][3]float64{
		{1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y)},
		{2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x)},
		{2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y)},
	}
	var out [3][3]float64
	for i := range 3 {
		for j := range 3 {
			for k := range 3 {
				out[i][j] += r[i][k] * s[k] * s[k] * r[j][k]
			}
		}
	}
	return out
}

func TestEncodeReflectsCovariance(t *testing.T) {
	rot := [4]uint8{246, 150, 177, 100}
	scale := [3]float32{0.5, 1, 2}
	e := NewEncoder(4)
	e.Encode(row([3]float32{}, scale, rot, [4]uint8{255, 255, 255, 255}), 1)

	w, x, y, z := wire.Dequantize(rot[0]), wire.Dequantize(rot[1]), wire.Dequantize(rot[2]), wire.Dequantize(rot[3])
	n := math.Sqrt(float64(w*w + x*x + y*y + z*z))
	src := sourceCovariance(float64(w)/n, float64(x)/n, float64(y)/n, float64(z)/n,
		[3]float64{float64(scale[0]), float64(scale[1]), float64(scale[2])})
	want := [6]float64{src[0][0], src[0][1], -src[0][2], src[1][1], -src[1][2], src[2][2]}

	buf := e.Buffer()
	u := buf.UintTexel(0)
	got := UnpackCovariance([3]uint32{u[0], u[1], u[2]}, buf.FloatTexel(0)[3])
	for i := range want {
		if !near(float64(got[i]), want[i], 1e-3) {
			t.Errorf("cov[%d] = %g, want %g", i, got[i], want[i])
		}
	}
}

func TestEncodeCapacityClamp(t *testing.T) {
	e := NewEncoder(4)
	rows := make([]byte, 10*wire.RowSize)

	if b := e.Encode(rows, 10); b.Count != 10 {
		t.Fatalf("first count = %d, want 10", b.Count)
	}
	b := e.Encode(rows, 10)
	if b.Start != 10 || b.Count != 6 {
		t.Errorf("second batch start %d count %d, want 10 and 6", b.Start, b.Count)
	}
	b = e.Encode(rows, 1)
	if b.Count != 0 || b.Matrices != nil {
		t.Errorf("at capacity batch = %+v, want empty", b)
	}
	if e.Loaded() != 16 {
		t.Errorf("loaded = %d, want 16", e.Loaded())
	}
}

func TestEncodeClampsToRowBytes(t *testing.T) {
	e := NewEncoder(4)
	if b := e.Encode(make([]byte, 2*wire.RowSize+5), 5); b.Count != 2 {
		t.Errorf("count = %d, want 2", b.Count)
	}
}

func TestReserveGrowth(t *testing.T) {
	e := NewEncoder(8)
	steps := []struct {
		reserve int
		encode  int
		grew    bool
		height  uint32
	}{
		{3, 3, true, 1},
		{10, 0, true, 2},
		{1, 0, false, 2},
		{100, 0, true, 8},
		{100, 0, false, 8},
	}
	for i, s := range steps {
		if got := e.Reserve(s.reserve); got != s.grew {
			t.Errorf("step %d: grew = %v, want %v", i, got, s.grew)
		}
		if h := e.Buffer().Height; h != s.height {
			t.Errorf("step %d: height = %d, want %d", i, h, s.height)
		}
		if s.encode > 0 {
			e.Encode(make([]byte, s.encode*wire.RowSize), s.encode)
		}
	}
}

func TestEncodeParallelMatchesSerial(t *testing.T) {
	var rows []byte
	for i := range 37 {
		rows = append(rows, row(
			[3]float32{float32(i), float32(-i), float32(i) * 0.5},
			[3]float32{0.1 * float32(i+1), 0.2, 0.3},
			[4]uint8{uint8(200 + i), uint8(100 + i), 128, uint8(50 + i)},
			[4]uint8{uint8(i), 2, 3, 255},
		)...)
	}

	serial := NewEncoder(16)
	parallel := NewEncoder(16, WithChunkSize(5), WithWorkers(3))
	sb := serial.Encode(rows, 37)
	pb := parallel.Encode(rows, 37)

	for i := range sb.Matrices {
		if sb.Matrices[i] != pb.Matrices[i] {
			t.Fatalf("matrix float %d differs: %g vs %g", i, sb.Matrices[i], pb.Matrices[i])
		}
	}
	for i := range 37 * 4 {
		if serial.Buffer().Floats[i] != parallel.Buffer().Floats[i] || serial.Buffer().Uints[i] != parallel.Buffer().Uints[i] {
			t.Fatalf("texel lane %d differs", i)
		}
	}
}

func TestReset(t *testing.T) {
	e := NewEncoder(4)
	e.Encode(make([]byte, 3*wire.RowSize), 3)
	e.Reset()
	if e.Loaded() != 0 || e.Buffer().Height != 0 || e.Buffer().Floats != nil {
		t.Error("Reset left state behind")
	}
	if b := e.Encode(make([]byte, wire.RowSize), 1); b.Start != 0 || !b.Grew {
		t.Errorf("batch after reset = %+v", b)
	}
}

func TestSortTransformBasisSpansCovariance(t *testing.T) {
	e := NewEncoder(4)
	b := e.Encode(row([3]float32{0, 0, 1}, [3]float32{0.5, 1, 2}, [4]uint8{246, 150, 177, 100}, [4]uint8{255, 255, 255, 255}), 1)

	// The upper 3x3 is the oriented basis B; B*B^T is the packed covariance.
	m := b.Matrices
	basis := func(r, c int) float64 { return float64(m[c*4+r]) }
	var sigma [3][3]float64
	for i := range 3 {
		for j := range 3 {
			for k := range 3 {
				sigma[i][j] += basis(i, k) * basis(j, k)
			}
		}
	}
	if m[3] != 0 || m[7] != 0 || m[11] != 0 {
		t.Errorf("row 3 = (%g, %g, %g), want zeros", m[3], m[7], m[11])
	}

	buf := e.Buffer()
	got := UnpackCovariance([3]uint32(buf.UintTexel(0)[:3]), buf.FloatTexel(0)[3])
	want := [6]float64{sigma[0][0], sigma[0][1], sigma[0][2], sigma[1][1], sigma[1][2], sigma[2][2]}
	for i := range want {
		if !near(float64(got[i]), want[i], float64(buf.FloatTexel(0)[3])) {
			t.Errorf("cov[%d] = %g, want %g", i, got[i], want[i])
		}
	}
}
