package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Payload is a decoded upstream JSON object, kept verbatim for provenance.
type Payload = map[string]interface{}

// LocalizedString holds an upstream text field that is either a bare string
// or an object keyed by language ({"default": "Boston", "fr": "..."}).
type LocalizedString struct {
	Value string
	Valid bool
}

// UnmarshalJSON accepts both shapes. Any other shape leaves the value unset.
func (s *LocalizedString) UnmarshalJSON(data []byte) error {
	*s = LocalizedString{}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		s.Value, s.Valid = str, true
		return nil
	}

	var localized map[string]interface{}
	if err := json.Unmarshal(data, &localized); err != nil {
		return nil
	}
	if def, ok := localized["default"].(string); ok {
		s.Value, s.Valid = def, true
	}
	return nil
}

// Or returns the value when set, otherwise fallback.
func (s LocalizedString) Or(fallback string) string {
	if s.Valid {
		return s.Value
	}
	return fallback
}

// DefaultText holds a localized upstream field of which only the
// "default" entry is read. Bare strings and other shapes leave it unset.
type DefaultText struct {
	Value string
	Valid bool
}

func (t *DefaultText) UnmarshalJSON(data []byte) error {
	*t = DefaultText{}

	var localized map[string]interface{}
	if err := json.Unmarshal(data, &localized); err != nil {
		return nil
	}
	if def, ok := localized["default"].(string); ok {
		t.Value, t.Valid = def, true
	}
	return nil
}

// Or returns the value when set, otherwise fallback.
func (t DefaultText) Or(fallback string) string {
	if t.Valid {
		return t.Value
	}
	return fallback
}

// OptionalText is a plain upstream string. A value of any other type is
// treated as absent.
type OptionalText struct {
	Value string
	Valid bool
}

func (t *OptionalText) UnmarshalJSON(data []byte) error {
	*t = OptionalText{}
	if err := json.Unmarshal(data, &t.Value); err != nil || isNull(data) {
		*t = OptionalText{}
		return nil
	}
	t.Valid = true
	return nil
}

// Ptr returns nil unless a non-empty value was read.
func (t OptionalText) Ptr() *string {
	if !t.Valid {
		return nil
	}
	return nullableString(t.Value)
}

// OptionalInt is an upstream number read as an integer. A value of any
// other type is treated as absent.
type OptionalInt struct {
	Value int64
	Valid bool
}

func (n *OptionalInt) UnmarshalJSON(data []byte) error {
	*n = OptionalInt{}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil || isNull(data) {
		return nil
	}
	n.Value, n.Valid = int64(f), true
	return nil
}

// Int returns the value, or 0 when absent.
func (n OptionalInt) Int() int {
	return int(n.Value)
}

// OptionalFloat is an upstream number. A value of any other type is treated
// as absent.
type OptionalFloat struct {
	Value float64
	Valid bool
}

func (n *OptionalFloat) UnmarshalJSON(data []byte) error {
	*n = OptionalFloat{}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil || isNull(data) {
		return nil
	}
	n.Value, n.Valid = f, true
	return nil
}

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

// TransformError reports an upstream record whose required identity fields
// are missing or malformed.
type TransformError struct {
	Entity   string
	Field    string
	EntityID string
	Err      error
}

func (e *TransformError) Error() string {
	msg := fmt.Sprintf("transform %s", e.Entity)
	if e.EntityID != "" {
		msg += " " + e.EntityID
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: field %q: %v", msg, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: missing required field %q", msg, e.Field)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

// AsTransformError attempts to unwrap an error into a TransformError.
func AsTransformError(err error) (*TransformError, bool) {
	var transformErr *TransformError
	if errors.As(err, &transformErr) {
		return transformErr, true
	}
	return nil, false
}

// decodePayload converts a raw payload into a typed input struct through a
// JSON round trip.
func decodePayload(raw Payload, dest interface{}) error {
	return decodeValue(raw, dest)
}

// decodeValue is decodePayload for any decoded JSON value.
func decodeValue(raw interface{}, dest interface{}) error {
	jsonData, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	if err := json.Unmarshal(jsonData, dest); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
