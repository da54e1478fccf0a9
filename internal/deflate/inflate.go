package deflate

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Inflate decompresses a zlib stream. At most limit+1 bytes are produced so
// that an oversized stream is reported by length instead of being expanded
// in full; a negative limit disables the cap.
func Inflate(data []byte, limit int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("zlib header: %w", err)
	}
	defer zr.Close()

	var r io.Reader = zr
	var out bytes.Buffer
	if limit >= 0 {
		r = io.LimitReader(zr, int64(limit)+1)
		out.Grow(min(limit+1, 4*len(data)+512))
	}
	if _, err := io.Copy(&out, r); err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	return out.Bytes(), nil
}
