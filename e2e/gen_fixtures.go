//go:build ignore

// gen_fixtures creates small inputs for a pngseal smoke run, plus a hex key
// file for sealed round trips.
// Usage: go run gen_fixtures.go <output_dir>
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/jpeg"
	"image/png"
	mrand "math/rand/v2"
	"os"
	"path/filepath"

	"golang.org/x/image/bmp"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: gen_fixtures <output_dir>")
		os.Exit(1)
	}
	dir := os.Args[1]
	os.MkdirAll(filepath.Join(dir, "sprites"), 0o755)

	// Opaque gradient: written back as Truecolor.
	writePNG(filepath.Join(dir, "gradient.png"), gradient(320, 180))

	// Sprites with fully transparent borders (alpha zeroing).
	for i := 1; i <= 3; i++ {
		name := fmt.Sprintf("sprite-%d.png", i)
		writePNG(filepath.Join(dir, "sprites", name), sprite(96, 96, uint8(i*70)))
	}

	// Noise defeats every filter; exercises the None baseline.
	writePNG(filepath.Join(dir, "noise.png"), noise(128, 128))

	// Inputs outside the native subset go through the generic decoder.
	writePNG(filepath.Join(dir, "paletted.png"), paletted(64, 64))
	writePNG(filepath.Join(dir, "deep.png"), deep(64, 64))
	writeJPEG(filepath.Join(dir, "photo.jpg"), gradient(200, 150))
	writeBMP(filepath.Join(dir, "legacy.bmp"), gradient(50, 40))

	// 32-byte key, hex encoded.
	key := make([]byte, 32)
	rand.Read(key)
	os.WriteFile(filepath.Join(dir, "key.hex"), []byte(hex.EncodeToString(key)+"\n"), 0o600)

	fmt.Fprintf(os.Stderr, "[gen_fixtures] created 9 fixtures and key.hex in %s\n", dir)
}

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}

func sprite(w, h int, base uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// Transparent pixels carry junk color that encode must zero.
			c := color.NRGBA{R: uint8(x), G: uint8(y), B: base, A: 0}
			if x >= 8 && x < w-8 && y >= 8 && y < h-8 {
				c = color.NRGBA{R: base, G: base + 40, B: base + 80, A: uint8(128 + x)}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func noise(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	r := mrand.New(mrand.NewPCG(1, 2))
	for i := range img.Pix {
		img.Pix[i] = uint8(r.Uint32())
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	return img
}

func paletted(w, h int) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, w, h), palette.Plan9)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetColorIndex(x, y, uint8((x/8+y/8)*17))
		}
	}
	return img
}

func deep(w, h int) *image.NRGBA64 {
	img := image.NewNRGBA64(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA64(x, y, color.NRGBA64{
				R: uint16(x * 1024), G: uint16(y * 1024), B: 0x8000, A: 0xFFFF,
			})
		}
	}
	return img
}

func writePNG(path string, img image.Image) {
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		panic(err)
	}
}

func writeJPEG(path string, img image.Image) {
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 90}); err != nil {
		panic(err)
	}
}

func writeBMP(path string, img image.Image) {
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	if err := bmp.Encode(f, img); err != nil {
		panic(err)
	}
}
