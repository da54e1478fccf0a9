package codec

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/AnyUserName/pngseal/internal/chunk"
	"github.com/AnyUserName/pngseal/internal/deflate"
	"github.com/AnyUserName/pngseal/internal/filter"
	"github.com/AnyUserName/pngseal/internal/progress"
	"github.com/AnyUserName/pngseal/internal/seal"
	logging "github.com/op/go-logging"
)

var log = logging.MustGetLogger("codec")

// Library logging stays at WARNING until the caller installs its own backend.
func init() { logging.SetLevel(logging.WARNING, "codec") }

// DecodeOptions controls Decode.
type DecodeOptions struct {
	// Key, when set, opens every IDAT payload as a sealed payload.
	Key *seal.Key
	// VerifyCRC rejects chunks whose stored CRC does not match.
	VerifyCRC bool
	// Observer receives stage events; nil means none.
	Observer progress.Observer
}

// Decode parses a complete PNG stream into a canonical RGBA image.
// It never returns a partial image: any failure yields a nil image and an
// *Error.
func Decode(data []byte, opts DecodeOptions) (*Image, error) {
	obs := progress.Or(opts.Observer)

	if !chunk.HasSignature(data) {
		return nil, formatErr("signature", errors.New("not a PNG stream"))
	}

	var opener *seal.Sealer
	if opts.Key != nil {
		s, err := seal.New(*opts.Key)
		if err != nil {
			return nil, &Error{Kind: KindKey, Op: "key", Err: err}
		}
		opener = s
	}

	obs.Stage("read chunks")
	hdr, idat, err := readChunks(data, opener, opts.VerifyCRC)
	if err != nil {
		return nil, err
	}
	obs.Add(1)

	bpp := hdr.ColorType.BytesPerPixel()
	width, height := int(hdr.Width), int(hdr.Height)
	if uint64(hdr.Width)*uint64(bpp)+1 > uint64(math.MaxInt)/uint64(hdr.Height) {
		return nil, unsupportedErrf("IHDR", "dimensions %dx%d too large", hdr.Width, hdr.Height)
	}
	rowBytes := width * bpp
	expected := height * (1 + rowBytes)

	obs.Stage("inflate")
	raw, err := deflate.Inflate(idat, expected)
	if err != nil {
		return nil, formatErr("IDAT", err)
	}
	if len(raw) != expected {
		got := fmt.Sprintf("%d", len(raw))
		if len(raw) > expected {
			got = "more than " + fmt.Sprintf("%d", expected)
		}
		return nil, &Error{Kind: KindSizeMismatch, Op: "inflate",
			Err: fmt.Errorf("%s bytes of scanlines, want %d", got, expected)}
	}
	log.Debugf("inflated %d -> %d bytes (%dx%d %s)", len(idat), len(raw), width, height, hdr.ColorType)
	obs.Add(1)

	obs.Stage("reconstruct")
	unfiltered := make([]byte, height*rowBytes)
	for y := 0; y < height; y++ {
		start := y * (1 + rowBytes)
		kind := filter.Kind(raw[start])
		if !kind.Valid() {
			return nil, unsupportedErrf("scanline", "row %d: filter type %d", y, raw[start])
		}
		var prev []byte
		if y > 0 {
			prev = unfiltered[(y-1)*rowBytes : y*rowBytes]
		}
		dst := unfiltered[y*rowBytes : (y+1)*rowBytes]
		if err := filter.Reconstruct(kind, bpp, dst, raw[start+1:start+1+rowBytes], prev); err != nil {
			return nil, unsupportedErrf("scanline", "row %d: %v", y, err)
		}
	}
	obs.Add(1)

	obs.Stage("canonicalize")
	img := &Image{Header: hdr, Pix: toRGBA(unfiltered, hdr.ColorType, width*height)}
	obs.Add(1)
	return img, nil
}

// readChunks walks the chunk stream up to IEND and returns the header and
// the concatenated (opened) IDAT payloads.
func readChunks(data []byte, opener *seal.Sealer, verifyCRC bool) (Header, []byte, error) {
	var (
		hdr    Header
		seen   bool
		idat   []byte
		chunks int
	)
	r := chunk.NewReader(data, verifyCRC)
	for {
		c, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return hdr, nil, formatErr("chunk", err)
		}
		chunks++

		switch c.Type {
		case chunk.TypeIHDR:
			if seen {
				return hdr, nil, formatErrf("IHDR", "duplicate header chunk")
			}
			if hdr, err = parseHeader(c.Data); err != nil {
				return hdr, nil, err
			}
			seen = true
		case chunk.TypeIDAT:
			if !seen {
				return hdr, nil, formatErrf("IDAT", "image data before header")
			}
			payload := c.Data
			if opener != nil {
				payload, err = opener.Open(c.Data)
				if err != nil {
					return hdr, nil, &Error{Kind: KindDecrypt, Op: "IDAT", Err: err}
				}
			}
			idat = append(idat, payload...)
		case chunk.TypeIEND:
		default:
			log.Debugf("skipping %s chunk (%d bytes)", c.Type, len(c.Data))
		}
	}
	if !seen {
		return hdr, nil, formatErrf("IHDR", "missing header chunk")
	}
	log.Debugf("read %d chunks, %d bytes of image data", chunks, len(idat))
	return hdr, idat, nil
}

// toRGBA expands unfiltered rows to RGBA8. Truecolor gains alpha 255;
// TruecolorAlpha is used as is.
func toRGBA(raw []byte, ct ColorType, pixels int) []byte {
	if ct == TruecolorAlpha {
		return raw
	}
	out := make([]byte, pixels*4)
	for i, j := 0, 0; i < pixels; i, j = i+1, j+3 {
		o := i * 4
		out[o], out[o+1], out[o+2], out[o+3] = raw[j], raw[j+1], raw[j+2], 255
	}
	return out
}
