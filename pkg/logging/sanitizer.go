package logging

import (
	"regexp"
	"strings"
)

const (
	// MaxArgumentLogLength is the longest string argument logged verbatim.
	MaxArgumentLogLength = 200
	// RedactedText is the replacement text for sensitive data
	RedactedText = "[REDACTED]"
)

var (
	// Matches password=xxx, pwd=xxx, pass=xxx up to the next delimiter.
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// Bearer tokens (three base64url segments separated by dots)
	jwtPattern = regexp.MustCompile(`Bearer\s+[A-Za-z0-9-_]+\.[A-Za-z0-9-_]+\.[A-Za-z0-9-_]*`)

	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|key)=[A-Za-z0-9-_]{20,}`)

	// Provider secret keys as they appear in SDK error messages.
	providerKeyPattern = regexp.MustCompile(`\b(sk-(?:ant-)?[A-Za-z0-9-_]{8,}|AIza[0-9A-Za-z-_]{20,})`)

	// user:pass@host format
	connStringPattern = regexp.MustCompile(`://[^:]+:[^@]+@[^/\s]+`)

	sensitiveArgumentKeywords = []string{"password", "secret", "token", "key", "credential"}
)

// SanitizeConnectionString removes credentials from a database or Redis
// connection string. Use this before logging any connection string.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}

	sanitized := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
	return connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)
}

// SanitizeError returns err's message with passwords, bearer tokens, API keys
// and connection credentials redacted.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	sanitized := passwordPattern.ReplaceAllString(err.Error(), "${1}="+RedactedText)
	sanitized = jwtPattern.ReplaceAllString(sanitized, "Bearer "+RedactedText)
	sanitized = apiKeyPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	sanitized = providerKeyPattern.ReplaceAllString(sanitized, RedactedText)
	return connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)
}

// SanitizeArguments redacts values whose key looks sensitive and truncates
// long strings. The input map is not modified.
func SanitizeArguments(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}

	result := make(map[string]any, len(args))
	for k, v := range args {
		if isSensitiveKey(k) {
			result[k] = RedactedText
			continue
		}
		if str, ok := v.(string); ok {
			result[k] = TruncateString(str, MaxArgumentLogLength)
			continue
		}
		result[k] = v
	}
	return result
}

// TruncateString truncates a string to maxLen and adds ellipsis if needed
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, keyword := range sensitiveArgumentKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
