package chunk

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestType_String(t *testing.T) {
	tests := []struct {
		typ      Type
		want     string
		critical bool
	}{
		{TypeIHDR, "IHDR", true},
		{TypeIDAT, "IDAT", true},
		{TypeIEND, "IEND", true},
		{Type(0x74455874), "tEXt", false},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("Type(%08X).String() = %q, want %q", uint32(tt.typ), got, tt.want)
		}
		if got := tt.typ.Critical(); got != tt.critical {
			t.Errorf("%s.Critical() = %v, want %v", tt.want, got, tt.critical)
		}
	}
}

func TestChecksum_KnownValue(t *testing.T) {
	// CRC of an empty IEND chunk is fixed by the format.
	if got := Checksum(TypeIEND, nil); got != 0xAE426082 {
		t.Errorf("IEND crc = %08x, want ae426082", got)
	}
}

func buildStream(t *testing.T, chunks ...Chunk) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteSignature(); err != nil {
		t.Fatalf("signature: %v", err)
	}
	for _, c := range chunks {
		if err := w.WriteChunk(c.Type, c.Data); err != nil {
			t.Fatalf("write %s: %v", c.Type, err)
		}
	}
	return buf.Bytes()
}

func TestWriterReader_Roundtrip(t *testing.T) {
	data := buildStream(t,
		Chunk{Type: TypeIHDR, Data: make([]byte, 13)},
		Chunk{Type: Type(0x74455874), Data: []byte("comment")},
		Chunk{Type: TypeIDAT, Data: []byte{1, 2, 3}},
		Chunk{Type: TypeIEND},
	)
	if !HasSignature(data) {
		t.Fatal("signature missing")
	}

	r := NewReader(data, true)
	var got []string
	for {
		c, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if !c.Valid() {
			t.Errorf("%s: invalid crc", c.Type)
		}
		got = append(got, c.Type.String())
	}
	want := []string{"IHDR", "tEXt", "IDAT", "IEND"}
	if len(got) != len(want) {
		t.Fatalf("chunks = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if r.Offset() != len(data) {
		t.Errorf("offset = %d, want %d", r.Offset(), len(data))
	}
}

func TestReader_Truncated(t *testing.T) {
	data := buildStream(t,
		Chunk{Type: TypeIHDR, Data: make([]byte, 13)},
		Chunk{Type: TypeIDAT, Data: []byte{9, 9, 9, 9}},
	)
	// No IEND, and cut into the IDAT payload.
	data = data[:len(data)-6]

	r := NewReader(data, false)
	if _, err := r.Next(); err != nil {
		t.Fatalf("IHDR: %v", err)
	}
	_, err := r.Next()
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("err = %v, want ErrTruncated", err)
	}
}

func TestReader_MissingIEND(t *testing.T) {
	data := buildStream(t, Chunk{Type: TypeIHDR, Data: make([]byte, 13)})
	r := NewReader(data, false)
	if _, err := r.Next(); err != nil {
		t.Fatalf("IHDR: %v", err)
	}
	if _, err := r.Next(); !errors.Is(err, ErrTruncated) {
		t.Fatalf("err = %v, want ErrTruncated", err)
	}
}

func TestReader_CRCOptIn(t *testing.T) {
	data := buildStream(t,
		Chunk{Type: TypeIDAT, Data: []byte{1, 2, 3, 4}},
		Chunk{Type: TypeIEND},
	)
	// Corrupt one payload byte of the IDAT chunk.
	data[len(Signature)+8] ^= 0xFF

	lenient := NewReader(data, false)
	c, err := lenient.Next()
	if err != nil {
		t.Fatalf("lenient read: %v", err)
	}
	if c.Valid() {
		t.Error("corrupted chunk reported valid")
	}

	strict := NewReader(data, true)
	if _, err := strict.Next(); !errors.Is(err, ErrChecksum) {
		t.Fatalf("strict err = %v, want ErrChecksum", err)
	}
}

func TestReader_EOFAfterIEND(t *testing.T) {
	data := buildStream(t, Chunk{Type: TypeIEND})
	// Trailing garbage after IEND is never read.
	data = append(data, 0xDE, 0xAD)

	r := NewReader(data, true)
	if _, err := r.Next(); err != nil {
		t.Fatalf("IEND: %v", err)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("err = %v, want io.EOF", err)
	}
}

func TestHasSignature_Short(t *testing.T) {
	if HasSignature([]byte{0x89, 'P', 'N'}) {
		t.Error("short input accepted")
	}
}
