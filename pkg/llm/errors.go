package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ErrorType classifies an LLM failure.
type ErrorType string

const (
	ErrorTypeAuth      ErrorType = "auth"
	ErrorTypeModel     ErrorType = "model"
	ErrorTypeEndpoint  ErrorType = "endpoint"
	ErrorTypeRateLimit ErrorType = "rate_limit"
	ErrorTypeTimeout   ErrorType = "timeout"
	ErrorTypeResponse  ErrorType = "response"
	ErrorTypeConfig    ErrorType = "config"
	ErrorTypeUnknown   ErrorType = "unknown"
)

// Error represents a classified LLM error.
type Error struct {
	Type       ErrorType
	Message    string
	Retryable  bool
	Cause      error
	StatusCode int    // HTTP status code if known
	Model      string // model name if known
	Endpoint   string // endpoint URL if known
}

// Error implements the error interface.
func (e *Error) Error() string {
	parts := []string{string(e.Type)}
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	if e.Model != "" {
		parts = append(parts, "model="+e.Model)
	}
	parts = append(parts, e.Message)

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable implements retry.RetryableError.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// NewError creates a classified LLM error.
func NewError(errType ErrorType, message string, retryable bool, cause error) *Error {
	return &Error{
		Type:      errType,
		Message:   message,
		Retryable: retryable,
		Cause:     cause,
	}
}

// ClassifyError categorizes an arbitrary provider error by inspecting its
// message. Errors that are already *Error are returned unchanged.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr
	}

	errStr := err.Error()
	lower := strings.ToLower(errStr)

	statusCode := 0
	for _, code := range []int{400, 401, 403, 404, 408, 429, 500, 502, 503, 504, 529} {
		if strings.Contains(errStr, fmt.Sprintf("%d", code)) {
			statusCode = code
			break
		}
	}

	var classified *Error
	switch {
	case strings.Contains(lower, "deadline exceeded") || strings.Contains(lower, "context canceled"):
		// The caller's budget is spent; retrying cannot help.
		classified = NewError(ErrorTypeTimeout, "request cancelled", false, err)
	case strings.Contains(lower, "timeout"):
		classified = NewError(ErrorTypeTimeout, "request timeout", true, err)
	case statusCode == 401 || statusCode == 403 || strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "invalid api key") || strings.Contains(lower, "invalid x-api-key"):
		classified = NewError(ErrorTypeAuth, "authentication failed", false, err)
	case strings.Contains(lower, "model") &&
		(strings.Contains(lower, "not found") || strings.Contains(lower, "does not exist")):
		classified = NewError(ErrorTypeModel, "model not found", false, err)
	case statusCode == 429 || strings.Contains(lower, "rate limit") || strings.Contains(lower, "quota"):
		classified = NewError(ErrorTypeRateLimit, "rate limited", true, err)
	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host"):
		classified = NewError(ErrorTypeEndpoint, "connection failed", true, err)
	case statusCode == 404:
		classified = NewError(ErrorTypeEndpoint, "endpoint not found", false, err)
	case statusCode >= 500 || strings.Contains(lower, "overloaded"):
		classified = NewError(ErrorTypeEndpoint, "server error", true, err)
	default:
		classified = NewError(ErrorTypeUnknown, "llm error", false, err)
	}
	classified.StatusCode = statusCode
	return classified
}

// classifyStatus builds an Error from a known HTTP status code.
func classifyStatus(err error, status int, model, endpoint string) *Error {
	var classified *Error
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		classified = NewError(ErrorTypeAuth, "authentication failed", false, err)
	case status == http.StatusNotFound:
		classified = NewError(ErrorTypeModel, "model or endpoint not found", false, err)
	case status == http.StatusTooManyRequests:
		classified = NewError(ErrorTypeRateLimit, "rate limited", true, err)
	case status == http.StatusRequestTimeout:
		classified = NewError(ErrorTypeTimeout, "request timeout", true, err)
	case status >= 500:
		classified = NewError(ErrorTypeEndpoint, "server error", true, err)
	default:
		return ClassifyError(err)
	}
	classified.StatusCode = status
	classified.Model = model
	classified.Endpoint = endpoint
	return classified
}

func classifyOpenAIError(err error, model, endpoint string) *Error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return classifyStatus(err, apiErr.HTTPStatusCode, model, endpoint)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return classifyStatus(err, reqErr.HTTPStatusCode, model, endpoint)
	}
	classified := ClassifyError(err)
	classified.Model = model
	classified.Endpoint = endpoint
	return classified
}

// IsRetryable reports whether err is a retryable *Error.
func IsRetryable(err error) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Retryable
	}
	return false
}

// GetErrorType extracts the ErrorType from an error.
func GetErrorType(err error) ErrorType {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Type
	}
	return ErrorTypeUnknown
}
