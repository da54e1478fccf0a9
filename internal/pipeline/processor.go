package pipeline

import (
	"bytes"
	_ "image/gif"
	_ "image/jpeg"
	"os"
	"path/filepath"

	"github.com/AnyUserName/pngseal/internal/codec"
	"github.com/AnyUserName/pngseal/internal/hasher"
	"github.com/AnyUserName/pngseal/internal/manifest"
	"github.com/AnyUserName/pngseal/internal/progress"
	"github.com/AnyUserName/pngseal/internal/quant"
	"github.com/disintegration/imaging"
	"github.com/juju/errors"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// processResult holds the outcome for a single source file.
type processResult struct {
	key   string
	entry manifest.Entry
	err   error
}

// processFile reads one source, runs it through the codec and writes the
// result under cfg.OutputDir. Failures are returned in the result and never
// affect other files.
func (p *Pipeline) processFile(src Source) processResult {
	result := processResult{key: src.RelPath}
	result.entry.Source = manifest.Source{Format: src.Format, Size: src.Size}

	data, err := os.ReadFile(src.AbsPath)
	if err != nil {
		result.err = errors.Annotatef(err, "read %s", src.RelPath)
		return result
	}

	obs := progress.Scoped{Label: src.Key, Parent: p.cfg.Observer}
	var out []byte
	var pixels string
	switch p.cfg.Mode {
	case ModeDecode:
		out, pixels, err = p.decodeFile(data, obs)
	default:
		out, pixels, err = p.encodeFile(src, data, &result.entry, obs)
	}
	if err != nil {
		result.err = errors.Annotatef(err, "%s %s", p.cfg.Mode, src.RelPath)
		return result
	}

	if p.cfg.NoRegressSize && p.cfg.Mode == ModeEncode && p.cfg.Key == nil &&
		src.Format == "png" && len(out) >= len(data) {
		log.Debugf("keep: %s (encoded %d >= original %d bytes)", src.RelPath, len(out), len(data))
		out = data
		result.entry.Kept = true
	}

	outPath := src.OutputPath(p.cfg.OutputDir)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		result.err = errors.Annotatef(err, "mkdir for %s", src.RelPath)
		return result
	}
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		result.err = errors.Annotatef(err, "write %s", src.RelPath)
		return result
	}

	rel, _ := filepath.Rel(p.cfg.OutputDir, outPath)
	result.entry.Output = filepath.ToSlash(rel)
	result.entry.Size = int64(len(out))
	result.entry.Hash = hasher.Sum(out)
	result.entry.Pixels = pixels
	return result
}

// encodeFile encodes one source with the configured profile and key. The returned
// pixel digest is taken from decoding the freshly written stream, so it is
// exactly what a later decode reproduces.
func (p *Pipeline) encodeFile(src Source, data []byte, entry *manifest.Entry, obs progress.Observer) ([]byte, string, error) {
	img, err := p.load(src, data)
	if err != nil {
		return nil, "", err
	}
	entry.Source.Width = img.Width()
	entry.Source.Height = img.Height()
	entry.Source.HasAlpha = quant.HasAlpha(img.Pix)

	out, err := codec.Encode(img, codec.EncodeOptions{
		Tier:     p.cfg.Profile.Tier,
		Key:      p.cfg.Key,
		Workers:  p.cfg.CodecWorkers,
		Backends: p.registry,
		Observer: obs,
	})
	if err != nil {
		return nil, "", err
	}

	check, err := codec.Decode(out, codec.DecodeOptions{Key: p.cfg.Key, VerifyCRC: true})
	if err != nil {
		return nil, "", errors.Annotate(err, "re-read encoded output")
	}
	return out, hasher.Pixels(check.Width(), check.Height(), check.Pix), nil
}

// decodeFile decodes a (possibly sealed) stream and re-encodes it as a plain
// lossless PNG.
func (p *Pipeline) decodeFile(data []byte, obs progress.Observer) ([]byte, string, error) {
	img, err := codec.Decode(data, codec.DecodeOptions{
		Key:       p.cfg.Key,
		VerifyCRC: p.cfg.VerifyCRC,
		Observer:  obs,
	})
	if err != nil {
		return nil, "", err
	}
	out, err := codec.Encode(img, codec.EncodeOptions{
		Tier:     codec.Lossless,
		Workers:  p.cfg.CodecWorkers,
		Backends: p.registry,
	})
	if err != nil {
		return nil, "", err
	}
	return out, hasher.Pixels(img.Width(), img.Height(), img.Pix), nil
}

// load turns source bytes into an RGBA raster. PNGs within the codec's subset
// are read natively; anything else (palette or 16-bit PNGs, JPEG, GIF, BMP,
// TIFF, WebP) goes through imaging.
func (p *Pipeline) load(src Source, data []byte) (*codec.Image, error) {
	if src.Format == "png" {
		img, err := codec.Decode(data, codec.DecodeOptions{VerifyCRC: p.cfg.VerifyCRC})
		if err == nil {
			return img, nil
		}
		if codec.KindOf(err) != codec.KindUnsupported {
			return nil, err
		}
		log.Debugf("%s: %v, falling back to generic decoder", src.RelPath, err)
	}

	decoded, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Annotatef(err, "decode %s source", src.Format)
	}
	return codec.FromNRGBA(imaging.Clone(decoded)), nil
}
