package directory

import "strings"

// Match reports whether a file name matches a wildcard pattern. The only
// metacharacter is '*', which matches any substring including the empty
// one; multiple wildcards are allowed. Matching is case-sensitive and
// anchored at both ends, so a pattern without '*' is an exact comparison.
func Match(name, pattern string) bool {
	if !strings.Contains(pattern, "*") {
		return name == pattern
	}

	parts := strings.Split(pattern, "*")

	if !strings.HasPrefix(name, parts[0]) {
		return false
	}

	rest := name[len(parts[0]):]

	// Middle fragments are matched greedily left to right, which leaves
	// the longest possible tail for the final suffix check.
	for _, part := range parts[1 : len(parts)-1] {
		if part == "" {
			continue
		}

		idx := strings.Index(rest, part)
		if idx < 0 {
			return false
		}

		rest = rest[idx+len(part):]
	}

	return strings.HasSuffix(rest, parts[len(parts)-1])
}
