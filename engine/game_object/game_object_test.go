package game_object

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-splat/common"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func TestDefaultModelMatrixIsIdentity(t *testing.T) {
	m := NewGameObject().ModelMatrix()
	var identity [16]float32
	common.Identity(identity[:])
	for i := range m {
		if !near(m[i], identity[i]) {
			t.Fatalf("m[%d] = %v, want %v", i, m[i], identity[i])
		}
	}
}

func TestModelMatrixComposition(t *testing.T) {
	obj := NewGameObject(
		WithPosition(1, 2, 3),
		WithRotation(0, math.Pi/2, 0),
		WithScale(2, 2, 2),
	)
	// Scale (1, 0, 0) to (2, 0, 0), turn it onto -Z, then translate.
	m := obj.ModelMatrix()
	p := common.TransformPoint(m[:], 1, 0, 0)
	want := [4]float32{1, 2, 1, 1}
	for i := range want {
		if !near(p[i], want[i]) {
			t.Fatalf("transformed point = %v, want %v", p, want)
		}
	}
}

func TestUpdateSpins(t *testing.T) {
	obj := NewGameObject()
	if obj.Update(1) {
		t.Error("Update changed a still object")
	}

	obj.SetRotationSpeed(0, 1, 0)
	before := obj.Version()
	if !obj.Update(0.5) {
		t.Fatal("Update did not report a change")
	}
	if _, ry, _ := obj.Rotation(); !near(ry, 0.5) {
		t.Errorf("ry = %v, want 0.5", ry)
	}
	if obj.Version() == before {
		t.Error("version not bumped")
	}
	if obj.Update(0) {
		t.Error("zero dt changed the transform")
	}
}

func TestRotationWraps(t *testing.T) {
	obj := NewGameObject(WithRotationSpeed(4, 0, 0))
	for range 100 {
		obj.Update(1)
	}
	rx, _, _ := obj.Rotation()
	if rx < -math.Pi-1e-4 || rx > math.Pi+1e-4 {
		t.Errorf("rx = %v escaped [-pi, pi]", rx)
	}
}
