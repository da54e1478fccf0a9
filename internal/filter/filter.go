// Package filter implements PNG scanline prediction for 8-bit truecolor rows.
//
// Reconstruct runs in the decode direction and reads the row it is writing
// for the left neighbour. Apply runs in the encode direction and takes every
// reference from the original, unfiltered rows.
package filter

import "fmt"

// Kind tags the prediction rule of one scanline.
type Kind byte

const (
	None Kind = iota
	Sub
	Up
	Average
	Paeth
)

// Kinds lists every filter kind in selection order.
var Kinds = [...]Kind{None, Sub, Up, Average, Paeth}

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Sub:
		return "sub"
	case Up:
		return "up"
	case Average:
		return "average"
	case Paeth:
		return "paeth"
	}
	return fmt.Sprintf("filter(%d)", byte(k))
}

// Valid reports whether k is one of the five defined kinds.
func (k Kind) Valid() bool {
	return k <= Paeth
}

// UnsupportedError reports a filter byte outside 0..4.
type UnsupportedError byte

func (e UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported filter type %d", byte(e))
}

// Predict returns the Paeth predictor of left a, up b and upper-left c.
func Predict(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))

	if pa <= pb && pa <= pc {
		return a
	} else if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Reconstruct undoes filter k on src into dst. prev is the previous
// reconstructed row, or nil for the first row. dst and src must have the
// same length and must not overlap.
func Reconstruct(k Kind, bpp int, dst, src, prev []byte) error {
	if prev == nil {
		prev = make([]byte, len(src))
	}
	n := len(src)
	lead := min(bpp, n)

	switch k {
	case None:
		copy(dst, src)
	case Sub:
		copy(dst[:lead], src[:lead])
		for i := bpp; i < n; i++ {
			dst[i] = src[i] + dst[i-bpp]
		}
	case Up:
		for i := 0; i < n; i++ {
			dst[i] = src[i] + prev[i]
		}
	case Average:
		for i := 0; i < lead; i++ {
			dst[i] = src[i] + prev[i]/2
		}
		for i := bpp; i < n; i++ {
			dst[i] = src[i] + byte((int(dst[i-bpp])+int(prev[i]))/2)
		}
	case Paeth:
		// left and upper-left are zero in the first pixel, so Paeth picks up.
		for i := 0; i < lead; i++ {
			dst[i] = src[i] + prev[i]
		}
		for i := bpp; i < n; i++ {
			dst[i] = src[i] + Predict(dst[i-bpp], prev[i], prev[i-bpp])
		}
	default:
		return UnsupportedError(k)
	}
	return nil
}

// Apply filters row with kind k into dst. prev is the previous original row,
// or nil for the first row.
func Apply(k Kind, bpp int, dst, row, prev []byte) error {
	if !k.Valid() {
		return UnsupportedError(k)
	}
	apply(k, bpp, dst, row, prev)
	return nil
}

// apply is Apply for a kind already known to be valid.
func apply(k Kind, bpp int, dst, row, prev []byte) {
	if prev == nil {
		prev = make([]byte, len(row))
	}
	n := len(row)
	lead := min(bpp, n)

	switch k {
	case None:
		copy(dst, row)
	case Sub:
		copy(dst[:lead], row[:lead])
		for i := bpp; i < n; i++ {
			dst[i] = row[i] - row[i-bpp]
		}
	case Up:
		for i := 0; i < n; i++ {
			dst[i] = row[i] - prev[i]
		}
	case Average:
		for i := 0; i < lead; i++ {
			dst[i] = row[i] - prev[i]/2
		}
		for i := bpp; i < n; i++ {
			dst[i] = row[i] - byte((int(row[i-bpp])+int(prev[i]))/2)
		}
	case Paeth:
		for i := 0; i < lead; i++ {
			dst[i] = row[i] - prev[i]
		}
		for i := bpp; i < n; i++ {
			dst[i] = row[i] - Predict(row[i-bpp], prev[i], prev[i-bpp])
		}
	}
}
