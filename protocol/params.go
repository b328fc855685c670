package protocol

import "encoding/json"

// Params is the opaque, method-specific parameter mapping of a Request.
type Params map[string]any

// String returns the string stored under key.
func (p Params) String(key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// StringOr returns the string under key, or def when absent or not a string.
func (p Params) StringOr(key, def string) string {
	if s, ok := p.String(key); ok {
		return s
	}
	return def
}

// Number returns the numeric value under key, or def when absent or not numeric.
// JSON-decoded params carry float64; params built in Go may carry ints.
func (p Params) Number(key string, def float64) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	}
	return def
}

// Map returns the nested mapping under key.
func (p Params) Map(key string) map[string]any {
	m, _ := p[key].(map[string]any)
	return m
}
