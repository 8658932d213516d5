// Package errkind attaches a stable kind and an operation name to errors so
// callers can branch with errors.Is regardless of which layer failed.
package errkind

import (
	"errors"
	"strings"
)

// Error kinds shared by every package.
var (
	ErrMalformed    = errors.New("malformed input")
	ErrNotFound     = errors.New("not found")
	ErrBackpressure = errors.New("backpressure")
	ErrInternal     = errors.New("internal error")
)

// Error carries the operation that failed, its kind and the underlying cause.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.Op != "" {
		sb.WriteString(e.Op)
		sb.WriteString(": ")
	}
	switch {
	case e.Err != nil:
		sb.WriteString(e.Err.Error())
	case e.Kind != nil:
		sb.WriteString(e.Kind.Error())
	default:
		sb.WriteString("unknown error")
	}
	return sb.String()
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an error of the given kind with no further cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// WrapKind wraps err with op and kind. A nil err yields nil.
func WrapKind(op string, kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// Wrap keeps the kind already present in err's chain, defaulting to ErrInternal.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kindError(err), Err: err}
}

// KindOf returns the stable name of err's kind: malformed, not_found,
// backpressure or internal. A nil error has no kind.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	switch kindError(err) {
	case ErrMalformed:
		return "malformed"
	case ErrNotFound:
		return "not_found"
	case ErrBackpressure:
		return "backpressure"
	default:
		return "internal"
	}
}

func kindError(err error) error {
	for _, k := range []error{ErrMalformed, ErrNotFound, ErrBackpressure} {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrInternal
}
