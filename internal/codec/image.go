// Package codec reads and writes 8-bit truecolor PNG streams, with optional
// AES-256-GCM sealing of the IDAT payload.
//
// Decoded pixels are always held as interleaved RGBA8, row-major, whatever
// the on-disk color type.
package codec

import (
	"encoding/binary"
	"fmt"
	"image"
)

// ColorType is the IHDR color type. Only the two truecolor types decode.
type ColorType uint8

const (
	Truecolor      ColorType = 2
	TruecolorAlpha ColorType = 6
)

// BytesPerPixel returns 3 or 4 for the supported types and 0 otherwise.
func (c ColorType) BytesPerPixel() int {
	switch c {
	case Truecolor:
		return 3
	case TruecolorAlpha:
		return 4
	}
	return 0
}

func (c ColorType) String() string {
	switch c {
	case Truecolor:
		return "rgb"
	case TruecolorAlpha:
		return "rgba"
	}
	return fmt.Sprintf("color-type(%d)", uint8(c))
}

// headerLen is the fixed IHDR payload length.
const headerLen = 13

// Header mirrors the IHDR chunk.
type Header struct {
	Width             uint32
	Height            uint32
	BitDepth          uint8
	ColorType         ColorType
	CompressionMethod uint8
	FilterMethod      uint8
	Interlace         uint8
}

// parseHeader decodes and validates an IHDR payload.
func parseHeader(data []byte) (Header, error) {
	if len(data) != headerLen {
		return Header{}, formatErrf("IHDR", "length %d, want %d", len(data), headerLen)
	}
	h := Header{
		Width:             binary.BigEndian.Uint32(data[0:4]),
		Height:            binary.BigEndian.Uint32(data[4:8]),
		BitDepth:          data[8],
		ColorType:         ColorType(data[9]),
		CompressionMethod: data[10],
		FilterMethod:      data[11],
		Interlace:         data[12],
	}

	// Rejects only when both methods are nonzero. Streams with exactly one
	// nonzero method are accepted and decoded as method 0.
	if h.CompressionMethod != 0 && h.FilterMethod != 0 {
		return h, unsupportedErrf("IHDR", "compression method %d with filter method %d",
			h.CompressionMethod, h.FilterMethod)
	}
	if h.Interlace != 0 {
		return h, unsupportedErrf("IHDR", "interlace method %d", h.Interlace)
	}
	if h.BitDepth != 8 {
		return h, unsupportedErrf("IHDR", "bit depth %d", h.BitDepth)
	}
	if h.ColorType.BytesPerPixel() == 0 {
		return h, unsupportedErrf("IHDR", "color type %d", uint8(h.ColorType))
	}
	if h.Width == 0 || h.Height == 0 {
		return h, formatErrf("IHDR", "zero dimension %dx%d", h.Width, h.Height)
	}
	return h, nil
}

func (h Header) bytes() []byte {
	b := make([]byte, headerLen)
	binary.BigEndian.PutUint32(b[0:4], h.Width)
	binary.BigEndian.PutUint32(b[4:8], h.Height)
	b[8] = h.BitDepth
	b[9] = byte(h.ColorType)
	b[10] = h.CompressionMethod
	b[11] = h.FilterMethod
	b[12] = h.Interlace
	return b
}

// Pixel is one non-premultiplied RGBA8 sample.
type Pixel struct {
	R, G, B, A uint8
}

// Image is a decoded picture in canonical RGBA8 form.
// len(Pix) is always Width*Height*4.
type Image struct {
	Header Header
	Pix    []byte
}

// NewImage allocates a zeroed width x height RGBA image.
func NewImage(width, height int) *Image {
	return &Image{
		Header: Header{
			Width:     uint32(width),
			Height:    uint32(height),
			BitDepth:  8,
			ColorType: TruecolorAlpha,
		},
		Pix: make([]byte, width*height*4),
	}
}

// Width returns the image width in pixels.
func (m *Image) Width() int { return int(m.Header.Width) }

// Height returns the image height in pixels.
func (m *Image) Height() int { return int(m.Header.Height) }

// At returns the pixel at (x, y). It panics when out of range.
func (m *Image) At(x, y int) Pixel {
	i := (y*m.Width() + x) * 4
	return Pixel{R: m.Pix[i], G: m.Pix[i+1], B: m.Pix[i+2], A: m.Pix[i+3]}
}

// Set stores p at (x, y).
func (m *Image) Set(x, y int, p Pixel) {
	i := (y*m.Width() + x) * 4
	m.Pix[i], m.Pix[i+1], m.Pix[i+2], m.Pix[i+3] = p.R, p.G, p.B, p.A
}

// NRGBA returns a standard library view sharing m's pixel buffer.
func (m *Image) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    m.Pix,
		Stride: m.Width() * 4,
		Rect:   image.Rect(0, 0, m.Width(), m.Height()),
	}
}

// FromNRGBA copies src into a canonical Image.
func FromNRGBA(src *image.NRGBA) *Image {
	b := src.Bounds()
	m := NewImage(b.Dx(), b.Dy())
	rowLen := b.Dx() * 4
	for y := 0; y < b.Dy(); y++ {
		off := src.PixOffset(b.Min.X, b.Min.Y+y)
		copy(m.Pix[y*rowLen:(y+1)*rowLen], src.Pix[off:off+rowLen])
	}
	return m
}
