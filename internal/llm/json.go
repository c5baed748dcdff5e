package llm

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var thinkTagPattern = regexp.MustCompile(`(?s)^\s*<think>.*?</think>`)

// ErrNoJSON is returned by ExtractJSONObject when content holds no valid object.
var ErrNoJSON = errors.New("no valid JSON object found in response")

// ExtractJSONObject pulls the first balanced JSON object out of model output
// that may carry reasoning tags, markdown fences or surrounding prose.
func ExtractJSONObject(content string) (string, error) {
	cleaned := thinkTagPattern.ReplaceAllString(content, "")

	for start := strings.IndexByte(cleaned, '{'); start >= 0; {
		if obj, ok := balancedObject(cleaned[start:]); ok && json.Valid([]byte(obj)) {
			return obj, nil
		}
		next := strings.IndexByte(cleaned[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", ErrNoJSON
}

// balancedObject returns the prefix of s (which starts with '{') up to its
// matching '}', skipping braces inside strings.
func balancedObject(s string) (string, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		if inString {
			switch c {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}
