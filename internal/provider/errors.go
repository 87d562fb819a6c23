package provider

import (
	"errors"
	"fmt"

	"urchin/internal/httputil"
)

var (
	// ErrNotFound: the backend answered but the entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnsupported: the operation is outside the backend's capability
	// table.
	ErrUnsupported = errors.New("operation not supported by this backend")
)

// DecodeError marks a response (or a single item of one) whose JSON shape
// did not match the backend schema.
type DecodeError struct {
	Field string // the missing or malformed field
	Err   error  // underlying cause, may be nil
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decoding %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("decoding: missing or malformed %s", e.Field)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeErr(field string) error {
	return &DecodeError{Field: field}
}

func wrapDecodeErr(field string, err error) error {
	return &DecodeError{Field: field, Err: err}
}

// mapFetchErr converts transport-layer sentinels into provider errors.
func mapFetchErr(err error) error {
	if errors.Is(err, httputil.ErrStatusNotFound) {
		return ErrNotFound
	}
	return err
}
