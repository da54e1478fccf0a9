// Package quant holds the lossy encode-side transforms applied to a
// canonical RGBA8 buffer before filtering: alpha zeroing and uniform
// per-channel color quantization.
package quant

import (
	"sync"
)

// Levels describes a uniform quantizer for a given bit count.
type Levels struct {
	Bits int
	Step int
	Max  int
}

// ForBits returns the quantizer for b retained bits (1..8).
// step = floor(255 / 2^b), max = (2^b - 1) * step.
func ForBits(b int) Levels {
	levels := 1 << b
	step := 255 / levels
	if step < 1 {
		step = 1
	}
	return Levels{Bits: b, Step: step, Max: (levels - 1) * step}
}

// Channel quantizes one color value.
func (l Levels) Channel(v byte) byte {
	q := int(v) / l.Step * l.Step
	if q > l.Max {
		q = l.Max
	}
	return byte(q)
}

// Table precomputes Channel for every input value.
func (l Levels) Table() [256]byte {
	var t [256]byte
	for v := range t {
		t[v] = l.Channel(byte(v))
	}
	return t
}

// Options controls Prepare.
type Options struct {
	// Bits is the retained bit count per color channel; 0 disables quantization.
	Bits int
	// Workers bounds the number of goroutines; values below 1 mean one.
	Workers int
}

// Prepare zeroes the color of fully transparent pixels and then quantizes
// R, G and B in place. Alpha is never changed. pix holds rows of stride bytes.
func Prepare(pix []byte, stride, height int, opts Options) {
	var table *[256]byte
	if opts.Bits > 0 && opts.Bits < 8 {
		t := ForBits(opts.Bits).Table()
		table = &t
	}
	forBands(height, opts.Workers, func(y0, y1 int) {
		prepareRows(pix[y0*stride:y1*stride], table)
	})
}

func prepareRows(pix []byte, table *[256]byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		if pix[i+3] == 0 {
			pix[i], pix[i+1], pix[i+2] = 0, 0, 0
			continue
		}
		if table != nil {
			pix[i] = table[pix[i]]
			pix[i+1] = table[pix[i+1]]
			pix[i+2] = table[pix[i+2]]
		}
	}
}

// HasAlpha reports whether any pixel has alpha other than 255.
func HasAlpha(pix []byte) bool {
	for i := 3; i < len(pix); i += 4 {
		if pix[i] != 255 {
			return true
		}
	}
	return false
}

// forBands splits [0, height) into contiguous bands and runs fn on each,
// at most workers at a time.
func forBands(height, workers int, fn func(y0, y1 int)) {
	if workers < 1 {
		workers = 1
	}
	if workers > height {
		workers = height
	}
	if workers <= 1 {
		if height > 0 {
			fn(0, height)
		}
		return
	}

	band := (height + workers - 1) / workers
	var wg sync.WaitGroup
	for y0 := 0; y0 < height; y0 += band {
		y1 := min(y0+band, height)
		wg.Add(1)
		go func(y0, y1 int) {
			defer wg.Done()
			fn(y0, y1)
		}(y0, y1)
	}
	wg.Wait()
}
