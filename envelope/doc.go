// Package envelope defines the data unit exchanged between a provider
// and its orchestrator: an opaque payload plus string-keyed metadata.
//
// On the wire an envelope is one JSON object per line with
// lowerCamelCase field names. Decoding is permissive: a line with no
// decodable payload yields an empty payload, while a line that is not
// valid JSON at all is reported as an error so the transport can log
// it and continue (at most one line lost per malformed line).
package envelope
