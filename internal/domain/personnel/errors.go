package personnel

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for record validation. FieldError unwraps to one of them.
var (
	ErrMissingField    = errors.New("missing field")
	ErrTypeMismatch    = errors.New("type mismatch")
	ErrUnknownCategory = errors.New("unknown category")
	ErrMalformedRecord = errors.New("malformed record")
)

// FieldError reports a problem with a single record field.
type FieldError struct {
	Field    string
	Value    string
	Expected string // JSON type expected, set for ErrTypeMismatch
	Kind     error
}

func (e *FieldError) Error() string {
	switch {
	case errors.Is(e.Kind, ErrUnknownCategory):
		return fmt.Sprintf("unknown value %q for field %q", e.Value, e.Field)
	case errors.Is(e.Kind, ErrMissingField):
		return fmt.Sprintf("missing required field %q", e.Field)
	case errors.Is(e.Kind, ErrTypeMismatch):
		if e.Expected != "" {
			return fmt.Sprintf("field %q has wrong type: expected %s", e.Field, e.Expected)
		}
		return fmt.Sprintf("field %q has wrong type", e.Field)
	default:
		return fmt.Sprintf("field %q: %v", e.Field, e.Kind)
	}
}

func (e *FieldError) Unwrap() error { return e.Kind }

// NewUnknownCategory builds the error returned when a categorical value has
// no entry in its encoding table.
func NewUnknownCategory(field, value string) error {
	return &FieldError{Field: field, Value: value, Kind: ErrUnknownCategory}
}
