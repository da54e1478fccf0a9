package hasher

import (
	"bytes"
	"strings"
	"testing"
)

func TestSum(t *testing.T) {
	// xxHash64 of the empty input with seed 0.
	if got := Sum(nil); got != "ef46db3751d8e999" {
		t.Errorf("Sum(nil) = %s", got)
	}
	if len(Sum([]byte("pngseal"))) != DigestLen {
		t.Error("digest length")
	}
}

func TestSumReader_MatchesSum(t *testing.T) {
	data := bytes.Repeat([]byte("abc"), 10000)
	got, err := SumReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if got != Sum(data) {
		t.Errorf("reader %s != sum %s", got, Sum(data))
	}
}

func TestPixels_DimensionsMatter(t *testing.T) {
	pix := []byte(strings.Repeat("\x01\x02\x03\x04", 6))
	a := Pixels(2, 3, pix)
	b := Pixels(3, 2, pix)
	if a == b {
		t.Error("2x3 and 3x2 rasters share a digest")
	}
	if a != Pixels(2, 3, append([]byte(nil), pix...)) {
		t.Error("digest not deterministic")
	}
}
