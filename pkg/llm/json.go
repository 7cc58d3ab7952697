package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// thinkTagPattern matches a leading <think>...</think> block emitted by
// reasoning models.
var thinkTagPattern = regexp.MustCompile(`(?s)^\s*<think>.*?</think>\s*`)

// ExtractJSON returns the first valid JSON array or object embedded in an LLM
// response. Leading <think> blocks, markdown fences and surrounding prose are
// ignored.
func ExtractJSON(response string) (string, error) {
	cleaned := thinkTagPattern.ReplaceAllString(response, "")

	// Try candidates in order of appearance so "[...] then {...}" yields the array.
	for offset := 0; offset < len(cleaned); {
		idx := strings.IndexAny(cleaned[offset:], "[{")
		if idx < 0 {
			break
		}
		start := offset + idx
		openChar := cleaned[start]
		closeChar := byte('}')
		if openChar == '[' {
			closeChar = ']'
		}

		if candidate, ok := extractBalancedJSON(cleaned[start:], openChar, closeChar); ok && json.Valid([]byte(candidate)) {
			return candidate, nil
		}
		offset = start + 1
	}

	trimmed := strings.TrimSpace(cleaned)
	if trimmed != "" && json.Valid([]byte(trimmed)) {
		return trimmed, nil
	}

	return "", fmt.Errorf("no valid JSON found in response")
}

// extractBalancedJSON returns the prefix of s that closes the bracket at s[0],
// skipping brackets inside string literals.
func extractBalancedJSON(s string, openChar, closeChar byte) (string, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch c {
		case openChar:
			depth++
		case closeChar:
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}

	return "", false
}

// ParseJSONResponse extracts JSON from a response and unmarshals it into T.
func ParseJSONResponse[T any](response string) (T, error) {
	var result T

	jsonStr, err := ExtractJSON(response)
	if err != nil {
		return result, err
	}

	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return result, fmt.Errorf("unmarshal JSON: %w", err)
	}

	return result, nil
}
