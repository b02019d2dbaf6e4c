package llm

import (
	"bytes"
	"encoding/json"
)

// ExtractJSON returns the first complete top-level JSON object in raw.
// Models that ignore "JSON only" instructions wrap the object in prose or
// markdown fences; everything outside the braces is dropped. Returns nil
// when no balanced object is found.
func ExtractJSON(raw []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if json.Valid(trimmed) && len(trimmed) > 0 && trimmed[0] == '{' {
		return json.RawMessage(trimmed)
	}

	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, ch := range raw {
		if depth == 0 && ch != '{' {
			continue
		}
		if escaped {
			escaped = false
			continue
		}
		if inString {
			switch ch {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			depth--
			if depth == 0 {
				candidate := raw[start : i+1]
				if json.Valid(candidate) {
					return json.RawMessage(candidate)
				}
				start = -1
			}
		}
	}
	return nil
}
