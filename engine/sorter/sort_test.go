package sorter

import (
	"math"
	"math/rand"
	"slices"
	"testing"

	"github.com/Carmen-Shannon/oxy-splat/engine/encoder"
)

// lookDownNegZ is the view z row of a camera at the origin looking down -z.
var lookDownNegZ = [4]float32{0, 0, 1, 0}

var nan = float32(math.NaN())

func transforms(points ...[4]float32) []float32 {
	out := make([]float32, 0, len(points)*encoder.MatrixStride)
	for _, p := range points {
		m := [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, p[0], p[1], p[2], p[3]}
		out = append(out, m[:]...)
	}
	return out
}

func TestSortSplatsBackToFront(t *testing.T) {
	m := transforms(
		[4]float32{0, 0, -1, 1},
		[4]float32{0, 0, -5, 1},
		[4]float32{0, 0, -3, 1},
	)
	got := SortSplats(m, lookDownNegZ, nil)
	if !slices.Equal(got, []uint32{1, 2, 0}) {
		t.Errorf("order = %v, want [1 2 0]", got)
	}
}

func TestSortSplatsEmpty(t *testing.T) {
	got := SortSplats(nil, lookDownNegZ, nil)
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty non-nil", got)
	}
}

func TestSortSplatsFilters(t *testing.T) {
	m := transforms(
		[4]float32{0, 0, 1, 1},       // behind the camera
		[4]float32{0, 0, 0, 1},       // on the camera plane
		[4]float32{0, 0, -100, 0},    // zero weight
		[4]float32{0, 0, -100, 0.02}, // weight above 0.01
		[4]float32{0, 0, -2, 1},
		[4]float32{0, 0, nan, 1},  // NaN depth
		[4]float32{0, 0, -4, nan}, // NaN weight
	)
	got := SortSplats(m, lookDownNegZ, nil)
	if !slices.Equal(got, []uint32{3, 4}) {
		t.Errorf("order = %v, want [3 4]", got)
	}
}

func TestSortSplatsNaNKeepsOrder(t *testing.T) {
	m := transforms(
		[4]float32{0, 0, -1, 1},
		[4]float32{0, 0, -5, 1},
		[4]float32{0, 0, -3, 1},
		[4]float32{nan, 0, nan, 1},
	)
	got := SortSplats(m, lookDownNegZ, nil)
	if !slices.Equal(got, []uint32{1, 2, 0}) {
		t.Errorf("order = %v, want [1 2 0]", got)
	}
}

func TestSortSplatsEqualDepthKeepsIndexOrder(t *testing.T) {
	m := transforms(
		[4]float32{1, 0, -2, 1},
		[4]float32{2, 0, -2, 1},
		[4]float32{3, 0, -2, 1},
	)
	got := SortSplats(m, lookDownNegZ, nil)
	if !slices.Equal(got, []uint32{0, 1, 2}) {
		t.Errorf("order = %v, want [0 1 2]", got)
	}
}

func TestSortSplatsCutout(t *testing.T) {
	m := transforms(
		[4]float32{0.2, 0.2, -0.3, 1},
		[4]float32{2, 0, -1, 1},
		[4]float32{0, -0.4, -0.45, 1},
		[4]float32{0, 0, -0.6, 1},
	)
	identity := []float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
	got := SortSplats(m, lookDownNegZ, identity)
	if !slices.Equal(got, []uint32{2, 0}) {
		t.Errorf("order = %v, want [2 0]", got)
	}

	// A box ten times larger keeps everything in front of the camera.
	tenth := []float32{0.1, 0, 0, 0, 0, 0.1, 0, 0, 0, 0, 0.1, 0, 0, 0, 0, 1}
	if got := SortSplats(m, lookDownNegZ, tenth); len(got) != 4 {
		t.Errorf("kept %d, want 4", len(got))
	}
}

func TestSortSplatsCutoutMirrorsY(t *testing.T) {
	// Translate the box to y = -1; the stored y = 1 maps to -1 and lands inside.
	shifted := []float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 1, 0, 1}
	m := transforms([4]float32{0, 1, -0.2, 1}, [4]float32{0, -1, -0.2, 1})
	got := SortSplats(m, lookDownNegZ, shifted)
	if !slices.Equal(got, []uint32{0}) {
		t.Errorf("order = %v, want [0]", got)
	}
}

func TestSortSplatsDepthMonotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	view := [4]float32{0.3, -0.2, 0.9, -0.5}
	var points [][4]float32
	for range 2000 {
		points = append(points, [4]float32{
			rng.Float32()*20 - 10, rng.Float32()*20 - 10, rng.Float32()*20 - 10, rng.Float32(),
		})
	}
	m := transforms(points...)
	got := SortSplats(m, view, nil)
	if len(got) == 0 {
		t.Fatal("nothing kept")
	}

	depth := func(i uint32) float32 {
		p := points[i]
		return view[0]*p[0] + view[1]*p[1] + view[2]*p[2] + view[3]
	}
	lo, hi := depth(got[0]), depth(got[0])
	for _, i := range got {
		lo, hi = min(lo, depth(i)), max(hi, depth(i))
	}
	// Splats sharing a bin may be out of order by at most one bin width.
	binWidth := (hi - lo) / float32(depthBins-1)
	prev := lo
	for k, i := range got {
		d := depth(i)
		if d >= 0 {
			t.Fatalf("index %d has depth %g", i, d)
		}
		if d < prev-binWidth*1.01 {
			t.Fatalf("position %d: depth %g after %g", k, d, prev)
		}
		prev = max(prev, d)
	}
}
