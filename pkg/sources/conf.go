// Package sources holds the event source implementations, one per
// subpackage, plus the configuration coercion helpers their factories
// share. Source configs arrive as map[string]any decoded from JSON, so
// numeric values show up as float64 and every key is optional until a
// factory says otherwise.
package sources

// StringValue reads a string key, falling back when the key is absent or
// not a string.
func StringValue(config map[string]any, key, fallback string) string {
	if v, ok := config[key].(string); ok {
		return v
	}

	return fallback
}

// IntValue reads an integer key. JSON decoding produces float64, but
// hand-built configs (tests, the trigger command) may carry int values,
// so both are accepted.
func IntValue(config map[string]any, key string, fallback int) int {
	switch v := config[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

// BoolValue reads a boolean key, falling back when the key is absent or
// not a boolean.
func BoolValue(config map[string]any, key string, fallback bool) bool {
	if v, ok := config[key].(bool); ok {
		return v
	}

	return fallback
}

// MapValue reads an object key, returning nil when the key is absent or
// not an object.
func MapValue(config map[string]any, key string) map[string]any {
	if v, ok := config[key].(map[string]any); ok {
		return v
	}

	return nil
}
