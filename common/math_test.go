package common

import (
	"math"
	"testing"
)

func approx(a, b, eps float32) bool {
	return float32(math.Abs(float64(a-b))) <= eps
}

func TestMul4Identity(t *testing.T) {
	var id, out [16]float32
	Identity(id[:])
	m := [16]float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	Mul4(out[:], id[:], m[:])
	if out != m {
		t.Errorf("I*M = %v, want %v", out, m)
	}
	Mul4(out[:], m[:], id[:])
	if out != m {
		t.Errorf("M*I = %v, want %v", out, m)
	}
}

func TestInvert4(t *testing.T) {
	var view, inv, prod [16]float32
	LookAt(view[:], 3, 4, 5, 0, 0, 0, 0, 1, 0)
	if !Invert4(inv[:], view[:]) {
		t.Fatal("view matrix should be invertible")
	}
	Mul4(prod[:], view[:], inv[:])
	var id [16]float32
	Identity(id[:])
	for i := range prod {
		if !approx(prod[i], id[i], 1e-5) {
			t.Fatalf("V*V^-1 [%d] = %f, want %f", i, prod[i], id[i])
		}
	}

	var singular [16]float32
	if Invert4(inv[:], singular[:]) {
		t.Error("zero matrix should not be invertible")
	}
}

func TestPerspectiveDepthRange(t *testing.T) {
	var p [16]float32
	Perspective(p[:], float32(math.Pi/2), 1, 0.5, 50)

	near := TransformPoint(p[:], 0, 0, -0.5)
	if !approx(near[2]/near[3], 0, 1e-5) {
		t.Errorf("near plane depth = %f, want 0", near[2]/near[3])
	}
	far := TransformPoint(p[:], 0, 0, -50)
	if !approx(far[2]/far[3], 1, 1e-4) {
		t.Errorf("far plane depth = %f, want 1", far[2]/far[3])
	}
	behind := TransformPoint(p[:], 0, 0, 1)
	if behind[2] >= 0 {
		t.Errorf("point behind camera should have clip z < 0, got %f", behind[2])
	}
}

func TestFlipYAndRow(t *testing.T) {
	m := [16]float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	var out [16]float32
	FlipY(out[:], m[:])
	want := [16]float32{1, 2, 3, 4, -5, -6, -7, -8, 9, 10, 11, 12, 13, 14, 15, 16}
	if out != want {
		t.Errorf("FlipY = %v, want %v", out, want)
	}

	FlipY(m[:], m[:])
	if m != want {
		t.Errorf("aliased FlipY = %v, want %v", m, want)
	}

	if r := Row(want[:], 2); r != [4]float32{3, -7, 11, 15} {
		t.Errorf("Row(2) = %v", r)
	}
}

func TestFlipYRowConjugation(t *testing.T) {
	m := [16]float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	var out [16]float32
	FlipYRow(out[:], m[:])
	want := [16]float32{1, -2, 3, 4, 5, -6, 7, 8, 9, -10, 11, 12, 13, -14, 15, 16}
	if out != want {
		t.Errorf("FlipYRow = %v, want %v", out, want)
	}

	// Conjugating by the mirror leaves the (1,1) element and every element off row 1 and column 1 intact.
	FlipY(out[:], out[:])
	if out[5] != 6 || out[1] != -2 || out[4] != -5 || out[0] != 1 || out[15] != 16 {
		t.Errorf("conjugated = %v", out)
	}
}

func TestTransformPointTranslation(t *testing.T) {
	var m [16]float32
	Identity(m[:])
	m[12], m[13], m[14] = 1, 2, 3
	if got := TransformPoint(m[:], 1, 1, 1); got != [4]float32{2, 3, 4, 1} {
		t.Errorf("TransformPoint = %v", got)
	}
}

func TestClampAndCoalesce(t *testing.T) {
	if Clamp(5, 0, 3) != 3 || Clamp(-1, 0, 3) != 0 || Clamp(2, 0, 3) != 2 {
		t.Error("Clamp(int) out of range")
	}
	if Clamp(float32(1.5), 0, 1) != 1 {
		t.Error("Clamp(float32) out of range")
	}
	if Coalesce(0, 0, 7, 9) != 7 {
		t.Error("Coalesce should return the first non-zero value")
	}
	if Coalesce("", "") != "" {
		t.Error("Coalesce of zero values should be zero")
	}
}
