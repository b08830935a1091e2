package analyze

import "strings"

// StripFences removes a single markdown code fence wrapping s, with or
// without a language tag on the opening fence. Models are known to wrap
// JSON in ```json blocks even when told not to, so this runs before any
// parse attempt. Fence-free input is returned unchanged (modulo
// surrounding whitespace), which makes the operation idempotent.
func StripFences(s string) string {
	t := strings.TrimSpace(s)
	if len(t) < 6 || !strings.HasPrefix(t, "```") || !strings.HasSuffix(t, "```") {
		return t
	}

	body := strings.TrimSuffix(strings.TrimPrefix(t, "```"), "```")

	// Drop a language tag ("json", "JSON", ...) on the opening fence.
	// The tag occupies the rest of the opening line; content whose first
	// line happens to be JSON is left alone.
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		if isFenceTag(strings.TrimSpace(body[:i])) {
			body = body[i+1:]
		}
	}

	return strings.TrimSpace(body)
}

// isFenceTag reports whether line looks like a code fence language tag.
// An empty first line is treated as a (missing) tag so that ``` on its
// own line strips cleanly.
func isFenceTag(line string) bool {
	if line == "" {
		return true
	}
	if len(line) > 20 {
		return false
	}
	for _, r := range line {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '+', r == '-':
		default:
			return false
		}
	}
	return true
}
