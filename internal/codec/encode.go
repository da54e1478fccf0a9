package codec

import (
	"bytes"
	"fmt"

	"github.com/AnyUserName/pngseal/internal/chunk"
	"github.com/AnyUserName/pngseal/internal/deflate"
	"github.com/AnyUserName/pngseal/internal/filter"
	"github.com/AnyUserName/pngseal/internal/progress"
	"github.com/AnyUserName/pngseal/internal/quant"
	"github.com/AnyUserName/pngseal/internal/seal"
)

// EncodeOptions controls Encode.
type EncodeOptions struct {
	Tier Tier
	// Key, when set, seals the IDAT payload.
	Key *seal.Key
	// Workers bounds the goroutines used for quantization and filter
	// selection within one image; values below 1 mean one.
	Workers int
	// Backends resolves Tier.Backend(); nil uses the built-in registry.
	Backends *deflate.Registry
	// Observer receives stage events; nil means none.
	Observer progress.Observer
}

// Encode serializes img as a PNG stream. The source buffer is not modified.
// Fully transparent pixels are written as (0,0,0,0); Balanced and Maximum
// quantize color channels. Images whose alpha is 255 everywhere are written
// as Truecolor, all others as TruecolorAlpha.
func Encode(img *Image, opts EncodeOptions) ([]byte, error) {
	obs := progress.Or(opts.Observer)

	width, height := img.Width(), img.Height()
	if width <= 0 || height <= 0 {
		return nil, formatErrf("encode", "zero dimension %dx%d", width, height)
	}
	if len(img.Pix) != width*height*4 {
		return nil, formatErrf("encode", "pixel buffer is %d bytes, want %d", len(img.Pix), width*height*4)
	}

	registry := opts.Backends
	if registry == nil {
		registry = deflate.NewRegistry(0)
	}
	backend, err := registry.Lookup(opts.Tier.Backend())
	if err != nil {
		return nil, &Error{Kind: KindUnsupported, Op: "encode", Err: err}
	}

	var sealer *seal.Sealer
	if opts.Key != nil {
		if sealer, err = seal.New(*opts.Key); err != nil {
			return nil, &Error{Kind: KindKey, Op: "key", Err: err}
		}
	}

	obs.Stage("preprocess")
	pix := append([]byte(nil), img.Pix...)
	quant.Prepare(pix, width*4, height, quant.Options{Bits: opts.Tier.QuantBits(), Workers: opts.Workers})

	ct := Truecolor
	if quant.HasAlpha(pix) {
		ct = TruecolorAlpha
	}
	bpp := ct.BytesPerPixel()
	raw := fromRGBA(pix, ct)
	obs.Add(1)

	obs.Stage("filter")
	scanlines := filter.FilterImage(raw, height, width*bpp, bpp, opts.Workers)
	obs.Add(1)

	obs.Stage("compress")
	payload, err := backend.Compress(scanlines)
	if err != nil {
		return nil, &Error{Kind: KindIO, Op: "compress", Err: err}
	}
	log.Debugf("%s: %d scanline bytes -> %d (%s, %s)",
		opts.Tier, len(scanlines), len(payload), backend.Name(), ct)
	obs.Add(1)

	if sealer != nil {
		obs.Stage("encrypt")
		if payload, err = sealer.Seal(payload); err != nil {
			return nil, &Error{Kind: KindIO, Op: "encrypt", Err: err}
		}
		obs.Add(1)
	}

	obs.Stage("write chunks")
	hdr := Header{
		Width:     uint32(width),
		Height:    uint32(height),
		BitDepth:  8,
		ColorType: ct,
	}
	var buf bytes.Buffer
	buf.Grow(len(payload) + 64)
	w := chunk.NewWriter(&buf)
	if err := writeAll(w, hdr, payload); err != nil {
		return nil, &Error{Kind: KindIO, Op: "write", Err: err}
	}
	obs.Add(1)
	return buf.Bytes(), nil
}

func writeAll(w *chunk.Writer, hdr Header, payload []byte) error {
	if err := w.WriteSignature(); err != nil {
		return err
	}
	if err := w.WriteChunk(chunk.TypeIHDR, hdr.bytes()); err != nil {
		return fmt.Errorf("IHDR: %w", err)
	}
	if err := w.WriteChunk(chunk.TypeIDAT, payload); err != nil {
		return fmt.Errorf("IDAT: %w", err)
	}
	if err := w.WriteChunk(chunk.TypeIEND, nil); err != nil {
		return fmt.Errorf("IEND: %w", err)
	}
	return nil
}

// fromRGBA serializes RGBA8 pixels for color type ct, dropping alpha for
// Truecolor.
func fromRGBA(pix []byte, ct ColorType) []byte {
	if ct == TruecolorAlpha {
		return pix
	}
	out := make([]byte, len(pix)/4*3)
	for i, j := 0, 0; i+3 < len(pix); i, j = i+4, j+3 {
		out[j], out[j+1], out[j+2] = pix[i], pix[i+1], pix[i+2]
	}
	return out
}
