package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ekaya-inc/ekaya-insights/pkg/auth"
)

func serveMCP(t *testing.T, logger *zap.Logger, reqBody, respBody string) *httptest.ResponseRecorder {
	t.Helper()

	var seenBody string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := new(bytes.Buffer)
		_, err := buf.ReadFrom(r.Body)
		require.NoError(t, err)
		seenBody = buf.String()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(respBody))
	})

	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewBufferString(reqBody))
	claims := &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"}}
	req = req.WithContext(auth.WithClaims(req.Context(), claims, "token"))
	rec := httptest.NewRecorder()

	MCPRequestLogger(logger)(handler).ServeHTTP(rec, req)

	assert.Equal(t, reqBody, seenBody, "downstream handler should see the original body")
	return rec
}

func TestMCPRequestLogger(t *testing.T) {
	t.Run("logs successful tool call", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)

		serveMCP(t, zap.New(core),
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"list_datasets","arguments":{"page":2}}}`,
			`{"jsonrpc":"2.0","id":1,"result":{"content":[{"type":"text","text":"{}"}]}}`)

		require.Equal(t, 2, logs.Len(), "Should log request and response")

		requestLog := logs.All()[0]
		assert.Equal(t, "MCP request", requestLog.Message)
		assert.Equal(t, "tools/call", requestLog.ContextMap()["method"])
		assert.Equal(t, "list_datasets", requestLog.ContextMap()["tool"])
		assert.Equal(t, "user-1", requestLog.ContextMap()["user_id"])
		assert.NotNil(t, requestLog.ContextMap()["arguments"])

		responseLog := logs.All()[1]
		assert.Equal(t, "MCP response success", responseLog.Message)
		assert.Equal(t, "list_datasets", responseLog.ContextMap()["tool"])
		assert.NotNil(t, responseLog.ContextMap()["duration"])
	})

	t.Run("logs JSON-RPC error response", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)

		serveMCP(t, zap.New(core),
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"missing_tool"}}`,
			`{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"tool not found"}}`)

		require.Equal(t, 2, logs.Len())

		responseLog := logs.All()[1]
		assert.Equal(t, "MCP response error", responseLog.Message)
		assert.Equal(t, zapcore.WarnLevel, responseLog.Level)
		assert.Equal(t, int64(-32602), responseLog.ContextMap()["error_code"])
		assert.Equal(t, "tool not found", responseLog.ContextMap()["error_message"])
	})

	t.Run("logs tool error result", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)

		serveMCP(t, zap.New(core),
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_dataset","arguments":{"id":"nope"}}}`,
			`{"jsonrpc":"2.0","id":1,"result":{"content":[{"type":"text","text":"{}"}],"isError":true}}`)

		require.Equal(t, 2, logs.Len())
		assert.Equal(t, "MCP tool error", logs.All()[1].Message)
		assert.Equal(t, "get_dataset", logs.All()[1].ContextMap()["tool"])
	})

	t.Run("redacts sensitive arguments", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)

		serveMCP(t, zap.New(core),
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_dataset","arguments":{"id":"abc","api_key":"secret"}}}`,
			`{"jsonrpc":"2.0","id":1,"result":{"content":[]}}`)

		args, ok := logs.All()[0].ContextMap()["arguments"].(map[string]any)
		require.True(t, ok, "arguments should be logged as a map")
		assert.Equal(t, "abc", args["id"])
		assert.Equal(t, "[REDACTED]", args["api_key"])
	})

	t.Run("invalid request JSON still reaches handler", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)

		rec := serveMCP(t, zap.New(core), `not json`, `{"jsonrpc":"2.0","id":null,"error":{"code":-32700,"message":"parse error"}}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.GreaterOrEqual(t, logs.Len(), 2)
	})

	t.Run("nil logger passes through", func(t *testing.T) {
		called := false
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		})

		req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewBufferString(`{}`))
		MCPRequestLogger(nil)(handler).ServeHTTP(httptest.NewRecorder(), req)

		assert.True(t, called)
	})
}
