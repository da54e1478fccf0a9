// Package hasher computes the xxHash64 digests recorded in the run manifest:
// one over the bytes written to disk and one over decoded pixels, so a
// lossless round trip can be checked without keeping the source around.
package hasher

import (
	"encoding/binary"
	"encoding/hex"
	"io"

	"github.com/cespare/xxhash/v2"
)

// DigestLen is the number of hex characters kept in manifest digests.
const DigestLen = 16

// Sum returns the hex xxHash64 of data.
func Sum(data []byte) string {
	return format(xxhash.Sum64(data))
}

// SumReader streams r through xxHash64.
func SumReader(r io.Reader) (string, error) {
	h := xxhash.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return format(h.Sum64()), nil
}

// Pixels hashes an RGBA raster together with its dimensions. Two images with
// the same digest have identical canonical pixels.
func Pixels(width, height int, pix []byte) string {
	h := xxhash.New()
	var dims [8]byte
	binary.BigEndian.PutUint32(dims[0:4], uint32(width))
	binary.BigEndian.PutUint32(dims[4:8], uint32(height))
	h.Write(dims[:])
	h.Write(pix)
	return format(h.Sum64())
}

func format(v uint64) string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return hex.EncodeToString(b[:])
}
