package loader

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

func zstdBytes(t *testing.T, src []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer enc.Close()
	return enc.EncodeAll(src, nil)
}

func gzipBytes(t *testing.T, src []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(src); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestOpenRetriesUntilSuccess(t *testing.T) {
	data := rowBytes(4)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			http.Error(w, "not yet", http.StatusServiceUnavailable)
			return
		}
		w.Write(data)
	}))
	defer srv.Close()

	l := NewLoader(WithRetryInterval(5 * time.Millisecond))
	src, err := l.Open(context.Background(), srv.URL+"/scene.splat")
	if err != nil {
		t.Fatal(err)
	}
	defer src.Body.Close()

	if hits.Load() != 3 {
		t.Errorf("hits = %d, want 3", hits.Load())
	}
	if src.Format != FormatSplat || src.Length != int64(len(data)) {
		t.Errorf("format = %s, length = %d", src.Format, src.Length)
	}
	got, _ := io.ReadAll(src.Body)
	if !bytes.Equal(got, data) {
		t.Error("body mismatch")
	}
}

func TestOpenCancelledDuringRetry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	l := NewLoader(WithRetryInterval(5 * time.Millisecond))
	if _, err := l.Open(ctx, srv.URL+"/x.splat"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestOpenUnsupportedScheme(t *testing.T) {
	l := NewLoader()
	if _, err := l.Open(context.Background(), "ftp://host/a.splat"); !errors.Is(err, ErrUnsupportedSource) {
		t.Errorf("err = %v, want ErrUnsupportedSource", err)
	}
}

func TestOpenContentEncodingZstd(t *testing.T) {
	data := rowBytes(16)
	packed := zstdBytes(t, data)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "zstd")
		w.Write(packed)
	}))
	defer srv.Close()

	src, err := NewLoader().Open(context.Background(), srv.URL+"/scene.splat")
	if err != nil {
		t.Fatal(err)
	}
	defer src.Body.Close()
	if src.Length != -1 {
		t.Errorf("length = %d, want -1 for compressed body", src.Length)
	}
	got, err := io.ReadAll(src.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Error("decompressed body mismatch")
	}
}

func TestOpenFileFormats(t *testing.T) {
	dir := t.TempDir()
	ply := buildPLY(t, []plyVertex{{pos: [3]float32{1, 2, 3}}})

	files := map[string][]byte{
		"a.splat":     rowBytes(2),
		"b.ply":       ply,
		"c.bin":       ply,
		"d.bin":       rowBytes(1),
		"e.ply.gz":    gzipBytes(t, ply),
		"f.splat.zst": zstdBytes(t, rowBytes(3)),
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name   string
		src    string
		format Format
		length int64
	}{
		{"splat suffix", filepath.Join(dir, "a.splat"), FormatSplat, 64},
		{"ply suffix", filepath.Join(dir, "b.ply"), FormatPLY, int64(len(ply))},
		{"sniffed ply", filepath.Join(dir, "c.bin"), FormatPLY, int64(len(ply))},
		{"sniffed splat", "file://" + filepath.Join(dir, "d.bin"), FormatSplat, 32},
		{"gzip ply", filepath.Join(dir, "e.ply.gz"), FormatPLY, -1},
		{"zstd splat", filepath.Join(dir, "f.splat.zst"), FormatSplat, -1},
	}
	l := NewLoader()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := l.Open(context.Background(), tt.src)
			if err != nil {
				t.Fatal(err)
			}
			defer src.Body.Close()
			if src.Format != tt.format {
				t.Errorf("format = %s, want %s", src.Format, tt.format)
			}
			if src.Length != tt.length {
				t.Errorf("length = %d, want %d", src.Length, tt.length)
			}
		})
	}
}

func TestIngestHTTPStreaming(t *testing.T) {
	data := rowBytes(100)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "3200")
		w.Write(data)
	}))
	defer srv.Close()

	sink := &recordingSink{}
	l := NewLoader(WithThreshold(256), WithReadChunkSize(300))
	if err := l.Ingest(context.Background(), srv.URL+"/scene.splat", sink); err != nil {
		t.Fatal(err)
	}
	if len(sink.sizes) != 1 || sink.sizes[0] != 100 {
		t.Errorf("sizes = %v, want [100]", sink.sizes)
	}
	if sink.rows() != 100 {
		t.Errorf("rows = %d, want 100", sink.rows())
	}
	if len(sink.batches) < 2 {
		t.Errorf("batches = %d, want streaming emission", len(sink.batches))
	}
}

func TestIngestPLYFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.ply")
	verts := []plyVertex{{pos: [3]float32{1, 0, 0}}, {pos: [3]float32{2, 0, 0}}, {pos: [3]float32{3, 0, 0}}}
	if err := os.WriteFile(path, buildPLY(t, verts), 0o644); err != nil {
		t.Fatal(err)
	}

	sink := &recordingSink{}
	if err := NewLoader().Ingest(context.Background(), path, sink); err != nil {
		t.Fatal(err)
	}
	if len(sink.sizes) != 1 || sink.sizes[0] != 3 {
		t.Errorf("sizes = %v, want [3]", sink.sizes)
	}
	if len(sink.batches) != 1 || sink.counts[0] != 3 {
		t.Errorf("counts = %v, want [3]", sink.counts)
	}
}

func TestIngestMalformedPLY(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.ply")
	if err := os.WriteFile(path, []byte("ply\nformat binary_little_endian 1.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := NewLoader().Ingest(context.Background(), path, &recordingSink{})
	if !errors.Is(err, ErrMissingHeaderEnd) {
		t.Errorf("err = %v, want ErrMissingHeaderEnd", err)
	}
}

func TestIngestMissingFile(t *testing.T) {
	err := NewLoader().Ingest(context.Background(), filepath.Join(t.TempDir(), "nope.splat"), &recordingSink{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want not exist", err)
	}
}
