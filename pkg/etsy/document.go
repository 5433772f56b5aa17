package etsy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var errInvalidJSON = errors.New("invalid JSON")

// Document is a decoded Etsy response kept as raw JSON. Fields the client
// does not know about survive a round trip untouched.
type Document struct {
	raw []byte
}

// ParseDocument validates b as JSON and wraps it. An empty or whitespace-only
// body yields an empty Document.
func ParseDocument(b []byte) (Document, error) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 {
		return Document{}, nil
	}
	if !gjson.ValidBytes(trimmed) {
		return Document{}, errInvalidJSON
	}
	raw := make([]byte, len(trimmed))
	copy(raw, trimmed)
	return Document{raw: raw}, nil
}

// NewDocument marshals v into a Document.
func NewDocument(v any) (Document, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Document{}, fmt.Errorf("marshaling document: %w", err)
	}
	return Document{raw: b}, nil
}

// Raw returns the JSON bytes. Callers must not modify the slice.
func (d Document) Raw() []byte {
	return d.raw
}

// IsEmpty reports whether the response had no body.
func (d Document) IsEmpty() bool {
	return len(d.raw) == 0
}

// Get looks up a gjson path, e.g. "results.0.listing_id".
func (d Document) Get(path string) gjson.Result {
	return gjson.GetBytes(d.raw, path)
}

// Decode unmarshals the document into v.
func (d Document) Decode(v any) error {
	if d.IsEmpty() {
		return errors.New("decoding empty document")
	}
	return json.Unmarshal(d.raw, v)
}

// Map decodes a JSON object into a map. Numbers are kept as json.Number so
// large identifiers are not rounded.
func (d Document) Map() (map[string]any, error) {
	if d.IsEmpty() {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(d.raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decoding document as object: %w", err)
	}
	return m, nil
}

// Set returns a copy of the document with value written at path.
func (d Document) Set(path string, value any) (Document, error) {
	base := d.raw
	if len(base) == 0 {
		base = []byte("{}")
	}
	out, err := sjson.SetBytes(bytes.Clone(base), path, value)
	if err != nil {
		return Document{}, fmt.Errorf("setting %q: %w", path, err)
	}
	return Document{raw: out}, nil
}

// Delete returns a copy of the document without path.
func (d Document) Delete(path string) (Document, error) {
	if d.IsEmpty() {
		return d, nil
	}
	out, err := sjson.DeleteBytes(bytes.Clone(d.raw), path)
	if err != nil {
		return Document{}, fmt.Errorf("deleting %q: %w", path, err)
	}
	return Document{raw: out}, nil
}

// String returns the raw JSON text.
func (d Document) String() string {
	return string(d.raw)
}

// MarshalJSON implements json.Marshaler.
func (d Document) MarshalJSON() ([]byte, error) {
	if d.IsEmpty() {
		return []byte("null"), nil
	}
	return d.raw, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Document) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		d.raw = nil
		return nil
	}
	parsed, err := ParseDocument(b)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
