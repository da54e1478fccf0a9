// Package chunk implements the PNG chunk container.
//
// A PNG stream is an 8-byte signature followed by a sequence of chunks:
//   - 4-byte big-endian payload length
//   - 4-byte ASCII type tag
//   - payload
//   - 4-byte big-endian CRC32 (IEEE) over tag and payload
package chunk

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

// Signature is the fixed 8-byte PNG magic.
var Signature = [8]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// Chunk type tags handled by the codec.
const (
	TypeIHDR Type = 0x49484452 // "IHDR"
	TypeIDAT Type = 0x49444154 // "IDAT"
	TypeIEND Type = 0x49454E44 // "IEND"
)

// MaxLength is the largest payload a chunk length field can describe.
const MaxLength = 1<<32 - 1

var (
	// ErrTruncated reports end of input in the middle of a chunk or before IEND.
	ErrTruncated = errors.New("truncated chunk stream")
	// ErrChecksum reports a stored CRC that does not match the chunk contents.
	ErrChecksum = errors.New("chunk checksum mismatch")
)

// Type is a 4-byte chunk type tag.
type Type uint32

// String returns the 4-character tag.
func (t Type) String() string {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(t))
	return string(b)
}

// Critical reports whether the tag's first letter is uppercase.
func (t Type) Critical() bool {
	c := byte(t >> 24)
	return c >= 'A' && c <= 'Z'
}

// Chunk is one decoded record. Data aliases the reader's buffer.
type Chunk struct {
	Type Type
	Data []byte
	CRC  uint32
}

// Checksum computes the CRC32 of the chunk's tag and payload.
func Checksum(t Type, data []byte) uint32 {
	var tag [4]byte
	binary.BigEndian.PutUint32(tag[:], uint32(t))
	crc := crc32.NewIEEE()
	crc.Write(tag[:])
	crc.Write(data)
	return crc.Sum32()
}

// Valid reports whether the stored CRC matches the contents.
func (c *Chunk) Valid() bool {
	return c.CRC == Checksum(c.Type, c.Data)
}

// HasSignature reports whether data starts with the PNG signature.
func HasSignature(data []byte) bool {
	return len(data) >= len(Signature) && bytes.Equal(data[:len(Signature)], Signature[:])
}

// Reader walks the chunks of an in-memory PNG stream.
type Reader struct {
	data      []byte
	idx       int
	verifyCRC bool
	finished  bool
}

// NewReader returns a reader positioned after the signature.
// The signature itself must be checked by the caller with HasSignature.
func NewReader(data []byte, verifyCRC bool) *Reader {
	return &Reader{data: data, idx: len(Signature), verifyCRC: verifyCRC}
}

// Next returns the next chunk. After IEND it returns io.EOF.
// Running out of input before IEND yields ErrTruncated.
func (r *Reader) Next() (*Chunk, error) {
	if r.finished {
		return nil, io.EOF
	}
	head, err := r.advance(8)
	if err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(head[0:4])
	typ := Type(binary.BigEndian.Uint32(head[4:8]))

	data, err := r.advance(uint64(length))
	if err != nil {
		return nil, fmt.Errorf("%s payload: %w", typ, err)
	}
	tail, err := r.advance(4)
	if err != nil {
		return nil, fmt.Errorf("%s crc: %w", typ, err)
	}

	c := &Chunk{Type: typ, Data: data, CRC: binary.BigEndian.Uint32(tail)}
	if r.verifyCRC && !c.Valid() {
		return nil, fmt.Errorf("%s: %w (stored %08x, computed %08x)",
			typ, ErrChecksum, c.CRC, Checksum(typ, data))
	}
	if typ == TypeIEND {
		r.finished = true
	}
	return c, nil
}

// Offset returns the current read position in the stream.
func (r *Reader) Offset() int {
	return r.idx
}

func (r *Reader) advance(n uint64) ([]byte, error) {
	if uint64(r.idx)+n > uint64(len(r.data)) {
		return nil, ErrTruncated
	}
	start := r.idx
	r.idx += int(n)
	return r.data[start:r.idx], nil
}

// Writer emits chunks to a stream.
type Writer struct {
	w io.Writer
}

// NewWriter creates a chunk writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteSignature writes the PNG magic.
func (w *Writer) WriteSignature() error {
	_, err := w.w.Write(Signature[:])
	return err
}

// WriteChunk writes length, tag, payload and CRC in that order.
func (w *Writer) WriteChunk(t Type, data []byte) error {
	if uint64(len(data)) > MaxLength {
		return fmt.Errorf("%s: payload too large: %d bytes", t, len(data))
	}
	var head [8]byte
	binary.BigEndian.PutUint32(head[0:4], uint32(len(data)))
	binary.BigEndian.PutUint32(head[4:8], uint32(t))
	if _, err := w.w.Write(head[:]); err != nil {
		return err
	}
	if _, err := w.w.Write(data); err != nil {
		return err
	}
	var tail [4]byte
	binary.BigEndian.PutUint32(tail[:], Checksum(t, data))
	_, err := w.w.Write(tail[:])
	return err
}
