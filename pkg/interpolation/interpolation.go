// Package interpolation implements the {{token}} template syntax used in
// workflow strings.
//
// Token forms:
//   - {{var_name}}     replaced with the run variable of that name
//   - {{@dotted.path}} replaced with a global, the path resolved inside
//     the globals table
//
// Whitespace around the token content is ignored, so {{  name  }} equals
// {{name}}. Unknown and empty tokens are left intact to aid debugging, and
// a {{ without a closing }} copies the remainder of the string verbatim.
package interpolation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Interpolate replaces every {{token}} in template using vars for plain
// tokens and globals for @-prefixed tokens.
func Interpolate(template string, vars map[string]string, globals map[string]any) string {
	var out strings.Builder

	out.Grow(len(template))

	idx := 0

	for {
		start := strings.Index(template[idx:], "{{")
		if start < 0 {
			break
		}

		start += idx
		out.WriteString(template[idx:start])

		contentStart := start + 2

		end := strings.Index(template[contentStart:], "}}")
		if end < 0 {
			// No closing delimiter: keep the remainder untouched.
			out.WriteString(template[start:])

			idx = len(template)

			break
		}

		end += contentStart
		token := strings.TrimSpace(template[contentStart:end])

		switch {
		case token == "":
			out.WriteString(template[start : end+2])
		case strings.HasPrefix(token, "@"):
			if replaced, ok := lookupGlobal(globals, strings.TrimSpace(token[1:])); ok {
				out.WriteString(replaced)
			} else {
				out.WriteString(template[start : end+2])
			}
		default:
			if replaced, ok := vars[token]; ok {
				out.WriteString(replaced)
			} else {
				out.WriteString(template[start : end+2])
			}
		}

		idx = end + 2
	}

	if idx < len(template) {
		out.WriteString(template[idx:])
	}

	return out.String()
}

// InterpolateValue walks a decoded JSON value and interpolates every string
// leaf. Arrays and objects are rebuilt; other types pass through unchanged.
func InterpolateValue(value any, vars map[string]string, globals map[string]any) any {
	switch v := value.(type) {
	case string:
		return Interpolate(v, vars, globals)
	case []any:
		out := make([]any, len(v))

		for i, item := range v {
			out[i] = InterpolateValue(item, vars, globals)
		}

		return out
	case map[string]any:
		out := make(map[string]any, len(v))

		for key, item := range v {
			out[key] = InterpolateValue(item, vars, globals)
		}

		return out
	default:
		return value
	}
}

// LookupPath walks a dotted path (e.g. "order.side") through a decoded JSON
// value. An empty path yields the value itself. Only objects are traversed;
// a path through anything else misses.
func LookupPath(value any, path string) (any, bool) {
	if path == "" {
		return value, true
	}

	current := value

	for _, segment := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = obj[segment]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// Stringify renders a decoded JSON value for use in a string context: JSON
// strings verbatim, everything else as compact JSON (numbers as 42, objects
// as {"k":"v"}).
func Stringify(value any) string {
	if s, ok := value.(string); ok {
		return s
	}

	var buf bytes.Buffer

	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(value); err != nil {
		return fmt.Sprint(value)
	}

	return strings.TrimSuffix(buf.String(), "\n")
}

// lookupGlobal resolves a dotted path against the globals table. Segments
// are trimmed individually so {{@ app . name }} still resolves.
func lookupGlobal(globals map[string]any, path string) (string, bool) {
	segments := strings.Split(path, ".")

	current, ok := globals[strings.TrimSpace(segments[0])]
	if !ok {
		return "", false
	}

	for _, segment := range segments[1:] {
		obj, isObject := current.(map[string]any)
		if !isObject {
			return "", false
		}

		current, ok = obj[strings.TrimSpace(segment)]
		if !ok {
			return "", false
		}
	}

	return Stringify(current), true
}
