package filter

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"
)

// referencePaeth is the textbook formulation, used to cross-check Predict.
func referencePaeth(a, b, c int) int {
	p := a + b - c
	best, bestDist := a, abs(p-a)
	for _, x := range []int{b, c} {
		if d := abs(p - x); d < bestDist {
			best, bestDist = x, d
		}
	}
	return best
}

func TestPredict_Exhaustive(t *testing.T) {
	if testing.Short() {
		t.Skip("exhaustive Paeth check skipped in -short mode")
	}
	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			for c := 0; c < 256; c++ {
				got := int(Predict(byte(a), byte(b), byte(c)))
				if got != a && got != b && got != c {
					t.Fatalf("Predict(%d,%d,%d) = %d, not a neighbour", a, b, c, got)
				}
				if want := referencePaeth(a, b, c); got != want {
					t.Fatalf("Predict(%d,%d,%d) = %d, want %d", a, b, c, got, want)
				}
			}
		}
	}
}

func TestPredict_TiesPreferLeftThenUp(t *testing.T) {
	// Ties resolve in a, b, c order.
	tests := []struct{ a, b, c, want byte }{
		{5, 5, 5, 5}, {4, 6, 5, 5}, {3, 7, 3, 7}, {2, 4, 6, 2},
		{6, 4, 8, 4}, {7, 1, 4, 4}, {1, 3, 1, 3}, {8, 2, 5, 5},
		{6, 2, 2, 6}, {3, 3, 0, 3}, {0, 6, 3, 3}, {0, 4, 2, 2},
		{0, 4, 4, 0}, {4, 0, 2, 2}, {2, 2, 0, 2},
	}
	for _, tt := range tests {
		if got := Predict(tt.a, tt.b, tt.c); got != tt.want {
			t.Errorf("Predict(%d,%d,%d) = %d, want %d", tt.a, tt.b, tt.c, got, tt.want)
		}
	}
}

func randomRow(rng *rand.Rand, n int) []byte {
	row := make([]byte, n)
	rng.Read(row)
	return row
}

func TestApplyReconstruct_InverseLaw(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, bpp := range []int{3, 4} {
		for _, width := range []int{1, 2, 7, 33} {
			n := width * bpp
			prev := randomRow(rng, n)
			row := randomRow(rng, n)
			for _, k := range Kinds {
				for _, p := range [][]byte{nil, prev} {
					filtered := make([]byte, n)
					if err := Apply(k, bpp, filtered, row, p); err != nil {
						t.Fatalf("apply %s: %v", k, err)
					}
					got := make([]byte, n)
					if err := Reconstruct(k, bpp, got, filtered, p); err != nil {
						t.Fatalf("reconstruct %s: %v", k, err)
					}
					if !bytes.Equal(got, row) {
						t.Errorf("bpp=%d width=%d kind=%s first=%v: roundtrip mismatch",
							bpp, width, k, p == nil)
					}
				}
			}
		}
	}
}

func TestReconstruct_KnownRows(t *testing.T) {
	prev := []byte{10, 20, 30, 40, 50, 60}
	src := []byte{1, 2, 3, 4, 5, 6}
	tests := []struct {
		kind Kind
		want []byte
	}{
		{None, []byte{1, 2, 3, 4, 5, 6}},
		{Sub, []byte{1, 2, 3, 5, 7, 9}},
		{Up, []byte{11, 22, 33, 44, 55, 66}},
		// first pixel: src + up/2; then src + (left+up)/2
		{Average, []byte{6, 12, 18, 4 + (6+40)/2, 5 + (12+50)/2, 6 + (18+60)/2}},
	}
	for _, tt := range tests {
		dst := make([]byte, len(src))
		if err := Reconstruct(tt.kind, 3, dst, src, prev); err != nil {
			t.Fatalf("%s: %v", tt.kind, err)
		}
		if !bytes.Equal(dst, tt.want) {
			t.Errorf("%s: got %v, want %v", tt.kind, dst, tt.want)
		}
	}
}

func TestReconstruct_WrapsModulo256(t *testing.T) {
	dst := make([]byte, 3)
	if err := Reconstruct(Up, 3, dst, []byte{200, 255, 1}, []byte{100, 1, 255}); err != nil {
		t.Fatal(err)
	}
	if want := []byte{44, 0, 0}; !bytes.Equal(dst, want) {
		t.Errorf("got %v, want %v", dst, want)
	}
}

func TestReconstruct_Unsupported(t *testing.T) {
	dst := make([]byte, 3)
	err := Reconstruct(Kind(5), 3, dst, []byte{1, 2, 3}, nil)
	var ue UnsupportedError
	if !errors.As(err, &ue) || byte(ue) != 5 {
		t.Fatalf("err = %v, want UnsupportedError(5)", err)
	}
	if Kind(5).Valid() {
		t.Error("Kind(5) reported valid")
	}
}

func TestApply_Unsupported(t *testing.T) {
	dst := []byte{9, 9, 9}
	err := Apply(Kind(7), 3, dst, []byte{1, 2, 3}, nil)
	var ue UnsupportedError
	if !errors.As(err, &ue) || byte(ue) != 7 {
		t.Fatalf("err = %v, want UnsupportedError(7)", err)
	}
	if !bytes.Equal(dst, []byte{9, 9, 9}) {
		t.Errorf("dst written for unsupported kind: %v", dst)
	}
}

func TestKind_String(t *testing.T) {
	if Paeth.String() != "paeth" || Kind(9).String() != "filter(9)" {
		t.Errorf("unexpected names: %s %s", Paeth, Kind(9))
	}
}
