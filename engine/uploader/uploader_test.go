package uploader

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-splat/common"
	"github.com/Carmen-Shannon/oxy-splat/engine/encoder"
)

func TestPlanRegions(t *testing.T) {
	tests := []struct {
		name         string
		start, count int
		width        uint32
		want         []common.TextureRegion
	}{
		{"empty", 5, 0, 4, nil},
		{"within row", 1, 2, 4, []common.TextureRegion{{X: 1, Y: 0, Width: 2, Height: 1}}},
		{"aligned whole rows", 0, 8, 4, []common.TextureRegion{{X: 0, Y: 0, Width: 4, Height: 2}}},
		{"head body tail", 3, 10, 4, []common.TextureRegion{
			{X: 3, Y: 0, Width: 1, Height: 1},
			{X: 0, Y: 1, Width: 4, Height: 2},
			{X: 0, Y: 3, Width: 1, Height: 1},
		}},
		{"aligned tail only", 4, 3, 4, []common.TextureRegion{{X: 0, Y: 1, Width: 3, Height: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PlanRegions(tt.start, tt.count, tt.width)
			if len(got) != len(tt.want) {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("region %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPlanRegionsCoverExactly(t *testing.T) {
	for width := uint32(1); width <= 7; width++ {
		for start := 0; start < 20; start++ {
			for count := 1; count < 30; count++ {
				next := start
				for _, r := range PlanRegions(start, count, width) {
					if r.X+r.Width > width {
						t.Fatalf("w=%d start=%d count=%d: region %+v wraps", width, start, count, r)
					}
					if r.Height > 1 && r.X != 0 {
						t.Fatalf("w=%d start=%d count=%d: multi-row region %+v not aligned", width, start, count, r)
					}
					if got := int(r.Y)*int(width) + int(r.X); got != next {
						t.Fatalf("w=%d start=%d count=%d: region starts at %d, want %d", width, start, count, got, next)
					}
					next += r.Texels()
				}
				if next != start+count {
					t.Fatalf("w=%d start=%d count=%d: covered up to %d", width, start, count, next)
				}
			}
		}
	}
}

type write struct {
	format common.DataTextureFormat
	region common.TextureRegion
	data   []byte
}

type fakeTarget struct {
	readyAfter atomic.Int32
	polls      atomic.Int32
	created    [][2]uint32
	writes     []write
}

func (f *fakeTarget) TexturesReady() bool {
	return f.polls.Add(1) > f.readyAfter.Load()
}

func (f *fakeTarget) CreateDataTextures(w, h uint32) error {
	f.created = append(f.created, [2]uint32{w, h})
	return nil
}

func (f *fakeTarget) WriteDataRegion(format common.DataTextureFormat, r common.TextureRegion, data []byte) error {
	f.writes = append(f.writes, write{format, r, append([]byte(nil), data...)})
	return nil
}

func testBuffer(width, height uint32) *encoder.TextureBuffer {
	n := int(width * height * 4)
	b := &encoder.TextureBuffer{Width: width, Height: height, Floats: make([]float32, n), Uints: make([]uint32, n)}
	for i := range n {
		b.Floats[i] = float32(i)
		b.Uints[i] = uint32(1000 + i)
	}
	return b
}

func TestUploadWritesBothTextures(t *testing.T) {
	target := &fakeTarget{}
	u := NewUploader(target)
	buf := testBuffer(4, 3)

	if err := u.Upload(context.Background(), buf, 3, 2); err != nil {
		t.Fatal(err)
	}
	if len(target.writes) != 4 {
		t.Fatalf("writes = %d, want 4 (2 regions x 2 textures)", len(target.writes))
	}

	first := target.writes[0]
	if first.format != common.DataTextureFloat || first.region != (common.TextureRegion{X: 3, Y: 0, Width: 1, Height: 1}) {
		t.Errorf("first write %v %+v", first.format, first.region)
	}
	if len(first.data) != 16 {
		t.Fatalf("float region bytes = %d, want 16", len(first.data))
	}
	if v := math.Float32frombits(binary.LittleEndian.Uint32(first.data)); v != 12 {
		t.Errorf("first float lane = %g, want 12", v)
	}
	second := target.writes[1]
	if second.format != common.DataTextureUint || binary.LittleEndian.Uint32(second.data) != 1012 {
		t.Errorf("uint write = %v %d", second.format, binary.LittleEndian.Uint32(second.data))
	}

	regions, texels := u.Stats()
	if regions != 2 || texels != 2 {
		t.Errorf("stats = %d regions %d texels, want 2 and 2", regions, texels)
	}
}

func TestUploadWaitsForReadiness(t *testing.T) {
	target := &fakeTarget{}
	target.readyAfter.Store(3)
	u := NewUploader(target, WithPollInterval(time.Millisecond))
	if err := u.Upload(context.Background(), testBuffer(4, 1), 0, 4); err != nil {
		t.Fatal(err)
	}
	if target.polls.Load() < 4 {
		t.Errorf("polls = %d, want at least 4", target.polls.Load())
	}

	// Ready is sticky until the next reallocation.
	before := target.polls.Load()
	if err := u.Upload(context.Background(), testBuffer(4, 1), 0, 1); err != nil {
		t.Fatal(err)
	}
	if target.polls.Load() != before {
		t.Error("second upload polled readiness again")
	}
}

func TestUploadReadyTimeout(t *testing.T) {
	target := &fakeTarget{}
	target.readyAfter.Store(math.MaxInt32)
	u := NewUploader(target, WithPollInterval(time.Millisecond), WithReadyTimeout(20*time.Millisecond))
	err := u.Upload(context.Background(), testBuffer(4, 1), 0, 1)
	if !errors.Is(err, ErrTexturesNotReady) {
		t.Errorf("err = %v, want ErrTexturesNotReady", err)
	}
	if len(target.writes) != 0 {
		t.Error("wrote before textures were ready")
	}
}

func TestUploadRangeOutsideBuffer(t *testing.T) {
	u := NewUploader(&fakeTarget{})
	if err := u.Upload(context.Background(), testBuffer(4, 1), 2, 3); err == nil {
		t.Error("expected capacity error")
	}
}

func TestReallocateReuploadsLoaded(t *testing.T) {
	target := &fakeTarget{}
	u := NewUploader(target)
	buf := testBuffer(4, 2)

	if err := u.Reallocate(context.Background(), buf, 6); err != nil {
		t.Fatal(err)
	}
	if len(target.created) != 1 || target.created[0] != [2]uint32{4, 2} {
		t.Errorf("created = %v", target.created)
	}
	texels := 0
	for _, w := range target.writes {
		if w.format == common.DataTextureFloat {
			texels += w.region.Texels()
		}
	}
	if texels != 6 {
		t.Errorf("reuploaded %d texels, want 6", texels)
	}
}
