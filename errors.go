package embedviz

import (
	"errors"
	"fmt"

	"github.com/hupe1980/embedviz/chart"
	"github.com/hupe1980/embedviz/tsne"
)

var (
	// ErrInvalidRequest is the sentinel behind every RequestError.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUnknownMethod is returned for projection methods without a registered Projector.
	ErrUnknownMethod = errors.New("unknown projection method")

	// ErrNoArchive is returned by archive operations on an Explorer without archive.
	ErrNoArchive = errors.New("no archive configured")
)

// RequestError describes a rejected Request field.
//
// It unwraps to ErrInvalidRequest and, when present, the underlying cause.
type RequestError struct {
	Field  string
	Reason string
	cause  error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}

func (e *RequestError) Unwrap() []error {
	if e.cause == nil {
		return []error{ErrInvalidRequest}
	}
	return []error{ErrInvalidRequest, e.cause}
}

func invalidField(field, format string, args ...any) error {
	return &RequestError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// translateError maps leaf package errors caused by request content onto
// RequestError so callers can check a single sentinel.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var re *RequestError
	if errors.As(err, &re) {
		return err
	}

	var ie *tsne.InputError
	if errors.As(err, &ie) {
		field := "texts"
		if ie.Row < 0 {
			field = "options"
		}
		return &RequestError{Field: field, Reason: ie.Reason, cause: err}
	}
	if errors.Is(err, tsne.ErrInvalidInput) {
		return &RequestError{Field: "options", Reason: err.Error(), cause: err}
	}
	if errors.Is(err, chart.ErrInvalidReference) {
		return &RequestError{Field: "reference", Reason: err.Error(), cause: err}
	}
	return err
}
