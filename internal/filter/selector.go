package filter

import (
	"sync"
)

// Score returns the sum of absolute values of data read as signed bytes.
// Lower scores usually deflate better.
func Score(data []byte) int {
	sum := 0
	for _, b := range data {
		sum += abs(int(int8(b)))
	}
	return sum
}

// Selector picks the cheapest filter for a row. It owns one scratch buffer
// per candidate kind and is not safe for concurrent use.
type Selector struct {
	bpp     int
	scratch [len(Kinds)][]byte
}

// NewSelector allocates scratch rows of rowBytes for every kind.
func NewSelector(bpp, rowBytes int) *Selector {
	s := &Selector{bpp: bpp}
	for i := range s.scratch {
		s.scratch[i] = make([]byte, rowBytes)
	}
	return s
}

// Select filters row with every kind against the previous original row and
// returns the winner. None is the baseline; a later kind replaces the current
// best only with a strictly lower score. The returned slice is owned by the
// selector and valid until the next call.
func (s *Selector) Select(row, prev []byte) (Kind, []byte) {
	best := None
	bestScore := -1
	for i, k := range Kinds {
		buf := s.scratch[i]
		apply(k, s.bpp, buf, row, prev)
		score := Score(buf)
		if bestScore < 0 || score < bestScore {
			best, bestScore = k, score
		}
	}
	return best, s.scratch[best]
}

// FilterImage filters every row of raw (height rows of rowBytes) and returns
// the scanline stream of height*(1+rowBytes) bytes, each row prefixed with its
// filter tag. Rows are split into contiguous bands across workers; each row
// only reads original rows, so bands are independent and land in place.
func FilterImage(raw []byte, height, rowBytes, bpp, workers int) []byte {
	out := make([]byte, height*(1+rowBytes))
	if height == 0 {
		return out
	}
	if workers < 1 {
		workers = 1
	}
	if workers > height {
		workers = height
	}

	band := (height + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < height; start += band {
		end := min(start+band, height)
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			sel := NewSelector(bpp, rowBytes)
			for y := start; y < end; y++ {
				row := raw[y*rowBytes : (y+1)*rowBytes]
				var prev []byte
				if y > 0 {
					prev = raw[(y-1)*rowBytes : y*rowBytes]
				}
				k, filtered := sel.Select(row, prev)
				off := y * (1 + rowBytes)
				out[off] = byte(k)
				copy(out[off+1:off+1+rowBytes], filtered)
			}
		}(start, end)
	}
	wg.Wait()
	return out
}
