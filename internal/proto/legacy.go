package proto

import (
	"encoding/json"
	"errors"
	"strings"
)

// Legacy call-string syntax: `name(arg, arg, ...)` or a bare `name`. It is
// an alternate encoding of the command form, kept for older clients that
// predate the JSON envelope.

var errBadCallString = errors.New("malformed call string")

func decodeLegacy(s string) (Inbound, error) {
	name := s
	var rawArgs string

	if open := strings.IndexByte(s, '('); open >= 0 {
		if !strings.HasSuffix(s, ")") {
			return Inbound{}, errBadCallString
		}
		name = s[:open]
		rawArgs = s[open+1 : len(s)-1]
	}

	name = strings.TrimSpace(name)
	if name == "" || !isIdentifier(name) {
		return Inbound{}, errBadCallString
	}

	args := make([]any, 0)
	for _, part := range splitArgs(rawArgs) {
		args = append(args, parseArg(part))
	}

	obj := map[string]any{"command": name, "args": args}
	return Inbound{Type: name, Fields: obj, Raw: obj}, nil
}

// splitArgs splits on top-level commas, leaving quoted strings and nested
// brackets intact.
func splitArgs(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	var parts []string
	depth := 0
	inString := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case inString:
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == '[' || c == '{' || c == '(':
			depth++
		case c == ']' || c == '}' || c == ')':
			depth--
		case c == ',' && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// parseArg interprets each argument as a JSON value where possible and
// falls back to the bare word as a string.
func parseArg(s string) any {
	s = strings.TrimSpace(s)
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}
	return s
}

func isIdentifier(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_':
		default:
			return false
		}
	}
	return true
}
