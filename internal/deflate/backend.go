// Package deflate provides the zlib backends used for IDAT payloads.
//
// Every backend produces one complete zlib stream. Three are built in:
//   - fast:   klauspost zlib at BestSpeed
//   - best:   klauspost zlib at BestCompression
//   - zopfli: iterative near-optimal deflate
package deflate

import (
	"bytes"
	"fmt"

	"github.com/foobaz/go-zopfli/zopfli"
	"github.com/klauspost/compress/zlib"
)

// Backend compresses a filtered scanline stream into a zlib stream.
type Backend interface {
	// Name returns the registry name (e.g. "fast", "best", "zopfli").
	Name() string

	// Compress returns the zlib-framed deflate stream for data.
	Compress(data []byte) ([]byte, error)
}

// LevelBackend compresses with klauspost/compress at a fixed zlib level.
type LevelBackend struct {
	name  string
	level int
}

// Fast returns the BestSpeed backend.
func Fast() *LevelBackend { return &LevelBackend{name: "fast", level: zlib.BestSpeed} }

// Best returns the BestCompression backend.
func Best() *LevelBackend { return &LevelBackend{name: "best", level: zlib.BestCompression} }

func (b *LevelBackend) Name() string { return b.name }

func (b *LevelBackend) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(data)/2 + 64)

	zw, err := zlib.NewWriterLevel(&buf, b.level)
	if err != nil {
		return nil, fmt.Errorf("zlib level %d: %w", b.level, err)
	}
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return nil, fmt.Errorf("zlib write: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zlib close: %w", err)
	}
	return buf.Bytes(), nil
}

// DefaultIterations is the zopfli pass count used by the Maximum tier.
const DefaultIterations = 100

// ZopfliBackend runs a fixed number of zopfli optimization passes over a
// single deflate block. There is no early stop on stagnation.
type ZopfliBackend struct {
	Iterations int
}

// Zopfli returns a zopfli backend with the given pass count
// (DefaultIterations when n < 1).
func Zopfli(n int) *ZopfliBackend {
	if n < 1 {
		n = DefaultIterations
	}
	return &ZopfliBackend{Iterations: n}
}

func (b *ZopfliBackend) Name() string { return "zopfli" }

func (b *ZopfliBackend) Compress(data []byte) ([]byte, error) {
	opts := zopfli.DefaultOptions()
	opts.NumIterations = b.Iterations
	opts.BlockSplitting = false
	opts.BlockSplittingLast = false

	var buf bytes.Buffer
	buf.Grow(len(data)/2 + 64)
	if err := zopfli.ZlibCompress(&opts, data, &buf); err != nil {
		return nil, fmt.Errorf("zopfli: %w", err)
	}
	return buf.Bytes(), nil
}
