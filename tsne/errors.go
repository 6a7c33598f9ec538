package tsne

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is the sentinel wrapped by every *InputError.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDiverged is returned when the optimization produced non-finite coordinates.
	ErrDiverged = errors.New("optimization diverged")
)

// InputError describes a rejected input matrix or parameter.
//
// Row and Col locate the offending value and are -1 when not applicable.
type InputError struct {
	Reason string
	Row    int
	Col    int
}

func (e *InputError) Error() string {
	switch {
	case e.Row >= 0 && e.Col >= 0:
		return fmt.Sprintf("invalid input at [%d][%d]: %s", e.Row, e.Col, e.Reason)
	case e.Row >= 0:
		return fmt.Sprintf("invalid input at row %d: %s", e.Row, e.Reason)
	default:
		return fmt.Sprintf("invalid input: %s", e.Reason)
	}
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }

func invalid(format string, args ...any) *InputError {
	return &InputError{Reason: fmt.Sprintf(format, args...), Row: -1, Col: -1}
}
