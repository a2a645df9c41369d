// ABOUTME: Catalog mapping known raw failure text to friendly, actionable messages
// ABOUTME: Ordered regex list; first match wins, GenericError is the fallback
package errors

import "regexp"

// Severity says how serious a failure is and who can fix it
type Severity string

const (
	// SeverityInfo - transient, a retry likely works
	SeverityInfo Severity = "info"
	// SeverityConfig - configuration problem, an admin must act
	SeverityConfig Severity = "config"
	// SeverityCritical - infrastructure problem, deployment action needed
	SeverityCritical Severity = "critical"
)

// FriendlyError is the user-facing form of a failure
type FriendlyError struct {
	Message       string   `json:"message"`
	Severity      Severity `json:"severity"`
	Code          string   `json:"error_code"`
	Action        string   `json:"action"`
	AdminRequired bool     `json:"admin_required"`
	// OriginalError is logged, never shown to the user
	OriginalError string `json:"-"`
}

// Map returns the payload form used by the HTTP API and skill results
func (f FriendlyError) Map() map[string]any {
	return map[string]any{
		"type":           "error",
		"severity":       string(f.Severity),
		"message":        f.Message,
		"action":         f.Action,
		"admin_required": f.AdminRequired,
		"error_code":     f.Code,
	}
}

type entry struct {
	pattern  *regexp.Regexp
	template FriendlyError
}

// Catalog is an ordered list of failure patterns
type Catalog struct {
	entries  []entry
	fallback FriendlyError
}

// NewCatalog creates an empty catalog with the given fallback
func NewCatalog(fallback FriendlyError) *Catalog {
	return &Catalog{fallback: fallback}
}

// Add appends a pattern; patterns are matched case-insensitively in insertion order
func (c *Catalog) Add(pattern string, template FriendlyError) *Catalog {
	c.entries = append(c.entries, entry{
		pattern:  regexp.MustCompile("(?i)" + pattern),
		template: template,
	})
	return c
}

// Lookup returns the friendly error for raw and whether a pattern matched
func (c *Catalog) Lookup(raw string) (FriendlyError, bool) {
	for _, e := range c.entries {
		if e.pattern.MatchString(raw) {
			f := e.template
			f.OriginalError = raw
			return f, true
		}
	}
	f := c.fallback
	f.OriginalError = raw
	return f, false
}

// Len returns the number of patterns
func (c *Catalog) Len() int {
	return len(c.entries)
}

// GenericError is returned when nothing in the catalog matches
var GenericError = FriendlyError{
	Message: "Something unexpected went wrong. I've logged the details so the team can " +
		"investigate. In the meantime, try again or rephrase your question. " +
		"If the problem persists, check the system health endpoint.",
	Severity: SeverityInfo,
	Code:     "UNKNOWN",
	Action:   "Retry or check /api/health",
}

// DefaultCatalog returns the built-in failure patterns
func DefaultCatalog() *Catalog {
	c := NewCatalog(GenericError)

	// Model provider
	c.Add(`status code: 401|incorrect api key|invalid.*api.key|openai api key is required`, FriendlyError{
		Message: "I can't authenticate with the AI provider. The API key might be " +
			"invalid or expired. Check OPENAI_API_KEY in your environment or .env file.",
		Severity:      SeverityConfig,
		Code:          "MODEL_AUTH",
		Action:        "Check OPENAI_API_KEY",
		AdminRequired: true,
	})
	c.Add(`insufficient_quota|exceeded your current quota`, FriendlyError{
		Message: "The AI provider account has run out of quota. Your admin needs to " +
			"check billing for the API key this workspace uses.",
		Severity:      SeverityConfig,
		Code:          "MODEL_QUOTA",
		Action:        "Check provider billing and quota",
		AdminRequired: true,
	})
	c.Add(`model_not_found|the model .* does not exist`, FriendlyError{
		Message: "I'm configured to use an AI model that isn't available. " +
			"Your admin can check the model setting for this workspace.",
		Severity:      SeverityConfig,
		Code:          "MODEL_NOT_FOUND",
		Action:        "Update the configured model",
		AdminRequired: true,
	})
	c.Add(`context_length_exceeded|maximum context length|max_tokens`, FriendlyError{
		Message: "The request was too large for the AI model to handle. " +
			"Try breaking your question into smaller parts.",
		Severity: SeverityInfo,
		Code:     "MAX_TOKENS_EXCEEDED",
		Action:   "Break question into smaller parts",
	})
	c.Add(`status code: 429|rate.limit|too many requests`, FriendlyError{
		Message: "I've hit the API rate limit. Give me a moment and try again. " +
			"If this keeps happening, the usage tier may need upgrading.",
		Severity: SeverityInfo,
		Code:     "RATE_LIMITED",
		Action:   "Retry in a moment",
	})
	c.Add(`context deadline exceeded|client\.timeout|timeout awaiting`, FriendlyError{
		Message: "My AI model is taking longer than expected to respond. This sometimes " +
			"happens with complex questions. Try again, or try rephrasing with a " +
			"simpler question.",
		Severity: SeverityInfo,
		Code:     "MODEL_TIMEOUT",
		Action:   "Retry or simplify the question",
	})
	c.Add(`status code: 5\d\d`, FriendlyError{
		Message: "The AI provider is having trouble right now. Try again in a few minutes.",
		Severity: SeverityInfo,
		Code:     "MODEL_UNAVAILABLE",
		Action:   "Retry in a few minutes",
	})

	// Jira integration
	c.Add(`jira integration is not configured|integration not configured: jira`, FriendlyError{
		Message: "I can't access Jira yet. Your workspace hasn't connected a Jira " +
			"instance. Your admin can add the credentials with `t3nets secrets set jira`.",
		Severity:      SeverityConfig,
		Code:          "JIRA_NOT_CONFIGURED",
		Action:        "Configure Jira integration",
		AdminRequired: true,
	})
	c.Add(`401.*unauthorized.*jira|jira.*401.*unauthorized`, FriendlyError{
		Message: "I can't log into Jira. The API token may have expired or been revoked. " +
			"Your admin can update the token in the Jira integration settings.",
		Severity:      SeverityConfig,
		Code:          "JIRA_AUTH_EXPIRED",
		Action:        "Update Jira API token",
		AdminRequired: true,
	})
	c.Add(`403.*forbidden.*jira|jira.*403.*forbidden`, FriendlyError{
		Message: "I don't have permission to access that Jira project. Make sure the " +
			"connected Jira account has access to the board you're asking about.",
		Severity:      SeverityConfig,
		Code:          "JIRA_FORBIDDEN",
		Action:        "Check Jira account permissions",
		AdminRequired: true,
	})
	c.Add(`404.*board not found|board not found.*404`, FriendlyError{
		Message: "I can't find that Jira board. It may have been deleted or renamed. " +
			"Check the board ID in your integration settings.",
		Severity:      SeverityConfig,
		Code:          "JIRA_BOARD_NOT_FOUND",
		Action:        "Verify Jira board ID",
		AdminRequired: true,
	})
	c.Add(`jira.*(connection refused|no such host|dial tcp|i/o timeout|connection reset)`, FriendlyError{
		Message: "I can't reach your Jira instance right now. This could be a network " +
			"issue or the Jira server might be down. Try again in a few minutes.",
		Severity: SeverityInfo,
		Code:     "JIRA_UNREACHABLE",
		Action:   "Retry in a few minutes",
	})

	// Secrets
	c.Add(`secret not found`, FriendlyError{
		Message: "I'm missing some configuration data. Your admin needs to add the " +
			"workspace credentials for this integration.",
		Severity:      SeverityCritical,
		Code:          "SECRETS_NOT_FOUND",
		Action:        "Run `t3nets secrets set <integration>`",
		AdminRequired: true,
	})
	c.Add(`keyring|secret service|dbus`, FriendlyError{
		Message: "I can't access the system credential store. Check that a keyring " +
			"service is running for the user that runs t3nets.",
		Severity:      SeverityCritical,
		Code:          "SECRETS_STORE_UNAVAILABLE",
		Action:        "Start a keyring service or disable keyring secrets",
		AdminRequired: true,
	})

	// Storage
	c.Add(`no such table`, FriendlyError{
		Message: "I can't find my database tables. The data directory may be " +
			"damaged. Your admin should check the configured database path.",
		Severity:      SeverityCritical,
		Code:          "STORAGE_SCHEMA_MISSING",
		Action:        "Verify storage.db_path",
		AdminRequired: true,
	})
	c.Add(`database is locked|sqlite_busy`, FriendlyError{
		Message: "The database is busy right now. Try again in a moment.",
		Severity: SeverityInfo,
		Code:     "STORAGE_BUSY",
		Action:   "Retry in a moment",
	})
	c.Add(`tenant not found`, FriendlyError{
		Message: "I couldn't find the workspace for this conversation. Your admin " +
			"can check the tenant configuration.",
		Severity:      SeverityConfig,
		Code:          "TENANT_NOT_FOUND",
		Action:        "Check tenant.default_id",
		AdminRequired: true,
	})

	return c
}
