package codec

import (
	"errors"
	"fmt"
)

// Kind classifies codec failures. Every kind is fatal for the file at hand.
type Kind int

const (
	KindFormat      Kind = iota + 1 // bad signature, framing or header layout
	KindUnsupported                 // valid but unimplemented PNG feature
	KindSizeMismatch                // inflated length differs from the header
	KindDecrypt                     // AEAD failure or malformed sealed payload
	KindIO                          // environment read/write failure
	KindKey                         // key material of the wrong length
)

func (k Kind) String() string {
	switch k {
	case KindFormat:
		return "invalid format"
	case KindUnsupported:
		return "unsupported feature"
	case KindSizeMismatch:
		return "size mismatch"
	case KindDecrypt:
		return "decrypt failed"
	case KindIO:
		return "i/o"
	case KindKey:
		return "bad key"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the error type returned by Decode and Encode.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Sentinels for errors.Is; they match any *Error of the same Kind.
var (
	ErrFormat       = &Error{Kind: KindFormat}
	ErrUnsupported  = &Error{Kind: KindUnsupported}
	ErrSizeMismatch = &Error{Kind: KindSizeMismatch}
	ErrDecrypt      = &Error{Kind: KindDecrypt}
	ErrIO           = &Error{Kind: KindIO}
	ErrKey          = &Error{Kind: KindKey}
)

func (e *Error) Error() string {
	msg := "png: " + e.Kind.String()
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels by Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Err == nil
}

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func formatErr(op string, err error) error {
	return &Error{Kind: KindFormat, Op: op, Err: err}
}

func formatErrf(op, format string, args ...any) error {
	return &Error{Kind: KindFormat, Op: op, Err: fmt.Errorf(format, args...)}
}

func unsupportedErrf(op, format string, args ...any) error {
	return &Error{Kind: KindUnsupported, Op: op, Err: fmt.Errorf(format, args...)}
}
