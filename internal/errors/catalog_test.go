// ABOUTME: Tests for the friendly error catalog and handler
// ABOUTME: Each known failure string maps to its code; unknown text falls back to GenericError
package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WildEllie/t3nets/internal/logging"
)

func TestDefaultCatalog_Lookup(t *testing.T) {
	c := DefaultCatalog()

	tests := []struct {
		raw      string
		code     string
		severity Severity
	}{
		{"error, status code: 401, status: 401 Unauthorized, message: Incorrect API key provided", "MODEL_AUTH", SeverityConfig},
		{"OpenAI API key is required", "MODEL_AUTH", SeverityConfig},
		{"error, status code: 429, message: You exceeded your current quota (insufficient_quota)", "MODEL_QUOTA", SeverityConfig},
		{"error, status code: 429, message: Rate limit reached for gpt-4o-mini", "RATE_LIMITED", SeverityInfo},
		{"This model's maximum context length is 128000 tokens", "MAX_TOKENS_EXCEEDED", SeverityInfo},
		{"Post \"https://api.openai.com/v1/chat/completions\": context deadline exceeded", "MODEL_TIMEOUT", SeverityInfo},
		{"error, status code: 503, message: overloaded", "MODEL_UNAVAILABLE", SeverityInfo},
		{"Integration not configured: jira", "JIRA_NOT_CONFIGURED", SeverityConfig},
		{"jira: 401 Unauthorized: GET board/7/sprint", "JIRA_AUTH_EXPIRED", SeverityConfig},
		{"jira: 403 Forbidden: GET sprint/3/issue", "JIRA_FORBIDDEN", SeverityConfig},
		{"jira: 404 Board not found (board 7)", "JIRA_BOARD_NOT_FOUND", SeverityConfig},
		{"jira: Get \"https://acme.atlassian.net\": dial tcp: lookup acme.atlassian.net: no such host", "JIRA_UNREACHABLE", SeverityInfo},
		{"secret not found: jira for tenant default", "SECRETS_NOT_FOUND", SeverityCritical},
		{"SQL logic error: no such table: conversations (1)", "STORAGE_SCHEMA_MISSING", SeverityCritical},
		{"database is locked (5) (SQLITE_BUSY)", "STORAGE_BUSY", SeverityInfo},
		{"failed to load tenant: tenant not found: acme", "TENANT_NOT_FOUND", SeverityConfig},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			f, matched := c.Lookup(tt.raw)
			assert.True(t, matched)
			assert.Equal(t, tt.code, f.Code)
			assert.Equal(t, tt.severity, f.Severity)
			assert.Equal(t, tt.raw, f.OriginalError)
			assert.NotEmpty(t, f.Message)
		})
	}
}

func TestCatalog_FirstMatchWins(t *testing.T) {
	c := NewCatalog(GenericError).
		Add(`boom`, FriendlyError{Code: "FIRST"}).
		Add(`boom.*again`, FriendlyError{Code: "SECOND"})

	f, matched := c.Lookup("boom again")
	assert.True(t, matched)
	assert.Equal(t, "FIRST", f.Code)
	assert.Equal(t, 2, c.Len())
}

func TestCatalog_FallbackKeepsOriginal(t *testing.T) {
	f, matched := DefaultCatalog().Lookup("something nobody anticipated")
	assert.False(t, matched)
	assert.Equal(t, "UNKNOWN", f.Code)
	assert.Equal(t, "something nobody anticipated", f.OriginalError)
	assert.Empty(t, GenericError.OriginalError, "fallback template must not be mutated")
}

func TestFriendlyError_MapOmitsOriginal(t *testing.T) {
	f, _ := DefaultCatalog().Lookup("jira: 403 Forbidden")
	m := f.Map()
	assert.Equal(t, "error", m["type"])
	assert.Equal(t, "JIRA_FORBIDDEN", m["error_code"])
	assert.Equal(t, true, m["admin_required"])
	_, hasOriginal := m["original_error"]
	assert.False(t, hasOriginal)

	data, err := json.Marshal(f)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "403 Forbidden")
}

func TestHandler_LogsBySeverity(t *testing.T) {
	var buf bytes.Buffer
	logging.SetOutput(&buf)
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	h := NewHandler()

	tests := []struct {
		err   error
		level string
		code  string
	}{
		{fmt.Errorf("secret not found: jira"), "error", "SECRETS_NOT_FOUND"},
		{fmt.Errorf("jira: 401 Unauthorized"), "warn", "JIRA_AUTH_EXPIRED"},
		{fmt.Errorf("status code: 429"), "info", "RATE_LIMITED"},
		{fmt.Errorf("mystery"), "info", "UNMATCHED"},
	}

	for _, tt := range tests {
		buf.Reset()
		h.Handle(tt.err, "chat")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, tt.level, entry["level"], tt.err.Error())
		assert.Equal(t, tt.code, entry["code"])
		assert.Equal(t, "chat", entry["where"])
		assert.Equal(t, tt.err.Error(), entry["original"])
	}
}

func TestHandler_NilError(t *testing.T) {
	f := NewHandler().Handle(nil, "chat")
	assert.Equal(t, "UNKNOWN", f.Code)
}
