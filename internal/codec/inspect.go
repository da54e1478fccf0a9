package codec

import (
	"errors"
	"io"

	"github.com/AnyUserName/pngseal/internal/chunk"
	"github.com/AnyUserName/pngseal/internal/seal"
)

// ChunkInfo describes one chunk as found in the stream.
type ChunkInfo struct {
	Offset   int
	Type     string
	Length   int
	CRC      uint32
	CRCValid bool
}

// Report is the structural summary produced by Inspect.
type Report struct {
	Header *Header
	Chunks []ChunkInfo
	// IDATBytes is the total IDAT payload length.
	IDATBytes int
	// Sealed is true when the first IDAT payload does not start with a
	// zlib header and is long enough to hold a nonce and tag. It is a guess:
	// roughly 1 in 500 sealed payloads begin with bytes that pass the zlib
	// header check and are reported as plain. Only Decode with the key is
	// authoritative.
	Sealed bool
}

// Inspect lists the chunks of a PNG stream without decoding pixels.
// CRCs are always checked and reported, never enforced. The header is
// parsed but not validated.
func Inspect(data []byte) (*Report, error) {
	if !chunk.HasSignature(data) {
		return nil, formatErr("signature", errors.New("not a PNG stream"))
	}
	rep := &Report{}
	r := chunk.NewReader(data, false)
	firstIDAT := true
	for {
		off := r.Offset()
		c, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rep, formatErr("chunk", err)
		}
		rep.Chunks = append(rep.Chunks, ChunkInfo{
			Offset:   off,
			Type:     c.Type.String(),
			Length:   len(c.Data),
			CRC:      c.CRC,
			CRCValid: c.Valid(),
		})
		switch c.Type {
		case chunk.TypeIHDR:
			if len(c.Data) == headerLen && rep.Header == nil {
				h, _ := parseHeader(c.Data)
				rep.Header = &h
			}
		case chunk.TypeIDAT:
			rep.IDATBytes += len(c.Data)
			if firstIDAT {
				rep.Sealed = !looksLikeZlib(c.Data) && len(c.Data) >= seal.Overhead
				firstIDAT = false
			}
		}
	}
	return rep, nil
}

// looksLikeZlib checks the RFC 1950 header: deflate method, window <= 32K
// and a valid FCHECK.
func looksLikeZlib(b []byte) bool {
	if len(b) < 2 {
		return false
	}
	cmf, flg := b[0], b[1]
	if cmf&0x0F != 8 || cmf>>4 > 7 {
		return false
	}
	return (uint16(cmf)<<8|uint16(flg))%31 == 0
}
