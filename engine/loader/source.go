package loader

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/Carmen-Shannon/oxy-splat/common"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Format identifies how a source's bytes are laid out.
type Format int

const (
	// FormatSplat is the packed 32-byte row format, which can be streamed.
	FormatSplat Format = iota

	// FormatPLY is a binary little-endian PLY file, imported once fully buffered.
	FormatPLY
)

func (f Format) String() string {
	switch f {
	case FormatSplat:
		return "splat"
	case FormatPLY:
		return "ply"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// compression identifies a transport or file level compression wrapper.
type compression int

const (
	compressionNone compression = iota
	compressionZstd
	compressionGzip
)

// plyMagic is the first line of every PLY file.
var plyMagic = []byte("ply\n")

// Source is an opened splat source.
type Source struct {
	// Name is the source string the caller passed to Open.
	Name string

	// Format is the resolved layout of Body.
	Format Format

	// Length is the byte length of Body, or -1 when unknown.
	Length int64

	// Body yields the (decompressed) source bytes. The caller must close it.
	Body io.ReadCloser
}

func (l *loader) Open(ctx context.Context, src string) (*Source, error) {
	var (
		body   io.ReadCloser
		length int64
		comp   compression
		name   string
		err    error
	)

	switch {
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		body, length, comp, err = l.fetch(ctx, src)
		if err != nil {
			return nil, err
		}
		u, perr := url.Parse(src)
		if perr == nil {
			name = u.Path
		} else {
			name = src
		}
	case strings.HasPrefix(src, "file://"):
		u, perr := url.Parse(src)
		if perr != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrUnsupportedSource, src, perr)
		}
		name = u.Path
		body, length, err = openFile(name)
		if err != nil {
			return nil, err
		}
	case strings.Contains(src, "://"):
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, src)
	default:
		name = src
		body, length, err = openFile(src)
		if err != nil {
			return nil, err
		}
	}

	inner, suffixComp := splitCompressionSuffix(name)
	if comp == compressionNone {
		comp = suffixComp
	}
	if comp != compressionNone {
		body, err = decompress(body, comp)
		if err != nil {
			return nil, fmt.Errorf("loader: open %s: %w", src, err)
		}
		length = -1
	}

	format, known := formatFromSuffix(inner)
	if !known {
		br := bufio.NewReader(body)
		format = sniffFormat(br)
		body = &readCloser{Reader: br, closers: []io.Closer{body}}
	}

	return &Source{
		Name:   src,
		Format: format,
		Length: length,
		Body:   body,
	}, nil
}

// fetch performs the GET for a remote source, retrying at the loader's retry interval
// on transport errors and non-2xx statuses until it succeeds or ctx is done.
func (l *loader) fetch(ctx context.Context, src string) (io.ReadCloser, int64, compression, error) {
	l.mu.RLock()
	client, interval := l.client, l.retryInterval
	l.mu.RUnlock()

	for attempt := 1; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
		if err != nil {
			return nil, 0, compressionNone, fmt.Errorf("%w: %q: %v", ErrUnsupportedSource, src, err)
		}

		resp, err := client.Do(req)
		if err == nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
			comp := compressionFromEncoding(resp.Header.Get("Content-Encoding"))
			return resp.Body, resp.ContentLength, comp, nil
		}

		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			err = fmt.Errorf("unexpected status %s", resp.Status)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, 0, compressionNone, ctxErr
		}
		common.Logger().Warn("loader: fetch failed, retrying",
			"source", src, "attempt", attempt, "retry_in", interval, "error", err)

		t := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, 0, compressionNone, ctx.Err()
		case <-t.C:
		}
	}
}

func openFile(p string) (io.ReadCloser, int64, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, 0, fmt.Errorf("loader: open %s: %w", p, err)
	}
	length := int64(-1)
	if info, err := f.Stat(); err == nil && info.Mode().IsRegular() {
		length = info.Size()
	}
	return f, length, nil
}

func decompress(body io.ReadCloser, comp compression) (io.ReadCloser, error) {
	switch comp {
	case compressionZstd:
		dec, err := zstd.NewReader(body)
		if err != nil {
			body.Close()
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return &readCloser{Reader: dec, closers: []io.Closer{dec.IOReadCloser(), body}}, nil
	case compressionGzip:
		zr, err := gzip.NewReader(body)
		if err != nil {
			body.Close()
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return &readCloser{Reader: zr, closers: []io.Closer{zr, body}}, nil
	default:
		return body, nil
	}
}

func compressionFromEncoding(enc string) compression {
	switch strings.ToLower(strings.TrimSpace(enc)) {
	case "zstd":
		return compressionZstd
	case "gzip", "x-gzip":
		return compressionGzip
	default:
		return compressionNone
	}
}

// splitCompressionSuffix strips a .zst or .gz suffix and reports the compression it named.
func splitCompressionSuffix(name string) (string, compression) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".zst"):
		return name[:len(name)-len(".zst")], compressionZstd
	case strings.HasSuffix(lower, ".gz"):
		return name[:len(name)-len(".gz")], compressionGzip
	default:
		return name, compressionNone
	}
}

func formatFromSuffix(name string) (Format, bool) {
	switch strings.ToLower(path.Ext(name)) {
	case ".ply":
		return FormatPLY, true
	case ".splat":
		return FormatSplat, true
	default:
		return FormatSplat, false
	}
}

func sniffFormat(br *bufio.Reader) Format {
	head, _ := br.Peek(len(plyMagic))
	if string(head) == string(plyMagic) {
		return FormatPLY
	}
	return FormatSplat
}

// readCloser reads from Reader and closes every closer in order.
type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r *readCloser) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
