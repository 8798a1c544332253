package domain

import (
	"bytes"
	"encoding/json"
)

// RawItems holds a JSON value that is expected to be a list of cart lines.
// Decoding never fails on shape; Lines reports whether the value was a list.
type RawItems json.RawMessage

// UnmarshalJSON keeps the raw bytes.
func (r *RawItems) UnmarshalJSON(b []byte) error {
	*r = append((*r)[:0], b...)
	return nil
}

// MarshalJSON writes the raw bytes, or null when empty.
func (r RawItems) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

// Lines decodes the value as a list of cart lines. ok is false for null,
// objects, scalars or malformed JSON.
func (r RawItems) Lines() (lines []CartLine, ok bool) {
	trimmed := bytes.TrimSpace(r)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}
	if err := json.Unmarshal(trimmed, &lines); err != nil {
		return nil, false
	}
	return lines, true
}

// ItemsOf builds RawItems from a list of lines.
func ItemsOf(lines []CartLine) RawItems {
	if lines == nil {
		lines = []CartLine{}
	}
	b, _ := json.Marshal(lines)
	return RawItems(b)
}
