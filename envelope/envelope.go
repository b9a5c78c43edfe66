package envelope

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Envelope is the unit of streamed data: an opaque payload with
// metadata. Envelopes are transient values; construct one, hand it to
// the transport, and forget it. Treat a constructed envelope as
// immutable — WithMeta returns a copy.
type Envelope struct {
	Source   string         `json:"source"`
	Type     string         `json:"type"`
	Data     any            `json:"data"`
	Metadata map[string]any `json:"metadata"`
}

// New creates an envelope with the given source, type, and payload.
func New(source, typ string, data any) Envelope {
	return Envelope{Source: source, Type: typ, Data: data}
}

// WithMeta returns a copy of the envelope with one metadata entry added.
func (e Envelope) WithMeta(key string, value any) Envelope {
	meta := make(map[string]any, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		meta[k] = v
	}
	meta[key] = value
	e.Metadata = meta
	return e
}

// Meta returns a metadata value, or nil when absent.
func (e Envelope) Meta(key string) any {
	if e.Metadata == nil {
		return nil
	}
	return e.Metadata[key]
}

// EncodeLine serializes the envelope as a single JSON line without the
// trailing newline. The metadata field is always present on the wire,
// as an empty object when unset.
func EncodeLine(e Envelope) ([]byte, error) {
	if e.Metadata == nil {
		e.Metadata = map[string]any{}
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("envelope: encode: %w", err)
	}
	return data, nil
}

// DecodeLine parses one wire line into an envelope. A line that is not
// a JSON object is an error; a well-formed object with a missing or
// null data field decodes to an empty payload.
func DecodeLine(line []byte) (Envelope, error) {
	var e Envelope
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return e, fmt.Errorf("envelope: empty line")
	}
	if err := json.Unmarshal(trimmed, &e); err != nil {
		return Envelope{}, fmt.Errorf("envelope: decode: %w", err)
	}
	if e.Metadata == nil {
		e.Metadata = map[string]any{}
	}
	return e, nil
}
