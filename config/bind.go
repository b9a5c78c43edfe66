package config

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
)

// Defaulter is implemented by configuration types with declared
// defaults. Bind applies defaults before decoding so that fields
// absent from the payload keep their declared values.
type Defaulter interface {
	ApplyDefaults()
}

// Bind decodes an opaque configuration payload into cfg, which must be
// a non-nil pointer to a struct.
//
// Unwrap precedence: a "config" key wins over a "body" key wins over
// the whole payload. Field matching is case-insensitive, unknown
// fields are ignored, and missing fields keep the target's defaults.
//
// Bind never leaves cfg in a broken state: on any structural failure
// (nil payload, non-object payload, undecodable JSON) cfg holds the
// all-defaults configuration and the returned error only describes the
// anomaly for the caller to log.
func Bind(raw any, cfg any) error {
	applyDefaults(cfg)

	src, err := toMap(raw)
	if err != nil {
		return err
	}
	if src == nil {
		return fmt.Errorf("config: empty payload, using defaults")
	}

	src = unwrap(src)

	decoder, err := newDecoder(cfg)
	if err != nil {
		return fmt.Errorf("config: decoder: %w", err)
	}
	if err := decoder.Decode(src); err != nil {
		// A half-applied decode must not leak: reset and re-default.
		resetValue(cfg)
		applyDefaults(cfg)
		return fmt.Errorf("config: decode, using defaults: %w", err)
	}
	return nil
}

// Encode converts a typed configuration object into a generic
// structured value: nested maps and lists of JSON-compatible
// primitives. Encode(Bind(x)) is the identity for configuration types
// holding only primitives, maps, and lists.
func Encode(cfg any) (map[string]any, error) {
	out := map[string]any{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &out,
		TagName: "mapstructure",
	})
	if err != nil {
		return nil, fmt.Errorf("config: encoder: %w", err)
	}
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: encode: %w", err)
	}
	return out, nil
}

// Defaults returns the all-defaults configuration for type C.
func Defaults[C any]() C {
	var cfg C
	applyDefaults(&cfg)
	return cfg
}

func newDecoder(cfg any) (*mapstructure.Decoder, error) {
	return mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
}

// unwrap applies the config > body > whole-payload precedence.
func unwrap(src map[string]any) map[string]any {
	for _, key := range []string{"config", "body"} {
		if inner, ok := lookupFold(src, key); ok {
			if m, ok := inner.(map[string]any); ok {
				return m
			}
			// A wrapper key with a non-object value is a broken wrapper;
			// fall through to the next candidate.
		}
	}
	return src
}

// lookupFold finds a key case-insensitively.
func lookupFold(m map[string]any, key string) (any, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if len(k) == len(key) && foldEqual(k, key) {
			return v, true
		}
	}
	return nil, false
}

func foldEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// toMap normalizes the supported payload shapes into a generic map.
func toMap(raw any) (map[string]any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, fmt.Errorf("config: nil payload, using defaults")
	case map[string]any:
		return v, nil
	case json.RawMessage:
		return jsonToMap([]byte(v))
	case []byte:
		return jsonToMap(v)
	case string:
		return jsonToMap([]byte(v))
	default:
		return nil, fmt.Errorf("config: unsupported payload type %T, using defaults", raw)
	}
}

func jsonToMap(data []byte) (map[string]any, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("config: empty payload, using defaults")
	}
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("config: payload is not JSON, using defaults: %w", err)
	}
	m, ok := parsed.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("config: payload is not an object (got %T), using defaults", parsed)
	}
	return m, nil
}

func applyDefaults(cfg any) {
	if d, ok := cfg.(Defaulter); ok {
		d.ApplyDefaults()
	}
}

func resetValue(cfg any) {
	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return
	}
	elem := v.Elem()
	elem.Set(reflect.Zero(elem.Type()))
}
