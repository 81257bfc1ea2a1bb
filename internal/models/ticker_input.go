package models

import (
	"bytes"
	"encoding/json"
)

// TickerInput accepts either a JSON string or a single-element array of
// strings. Anything else is kept as malformed so the caller can fall back to
// the default ticker instead of rejecting the request.
type TickerInput struct {
	Value     string `validate:"max=64"`
	Malformed bool   `validate:"-"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *TickerInput) UnmarshalJSON(data []byte) error {
	*t = TickerInput{}
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		t.Value = s
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil && len(list) == 1 {
		t.Value = list[0]
		return nil
	}

	t.Malformed = true
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t TickerInput) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Value)
}
