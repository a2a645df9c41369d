// ABOUTME: Per-tenant integration secrets: provider interface and the known integrations
// ABOUTME: Skills never read secrets themselves; the skill bus fetches them by integration name
package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrSecretNotFound is returned when no secrets exist for a tenant's integration
var ErrSecretNotFound = errors.New("secret not found")

// Provider stores integration secrets scoped by tenant
type Provider interface {
	// Get returns the secrets of one integration, or ErrSecretNotFound
	Get(ctx context.Context, tenantID, integration string) (map[string]string, error)
	Put(ctx context.Context, tenantID, integration string, values map[string]string) error
	Delete(ctx context.Context, tenantID, integration string) error
	// ListIntegrations returns the integrations with at least one stored secret
	ListIntegrations(ctx context.Context, tenantID string) ([]string, error)
}

// EnvKey maps a secret name to its environment variable
type EnvKey struct {
	Name string
	Env  string
}

// IntegrationKeys lists the known integrations and their secrets, in reporting order
var IntegrationKeys = map[string][]EnvKey{
	"jira": {
		{"url", "JIRA_URL"},
		{"email", "JIRA_EMAIL"},
		{"api_token", "JIRA_API_TOKEN"},
		{"board_id", "JIRA_BOARD_ID"},
	},
	"github": {
		{"token", "GITHUB_TOKEN"},
		{"org", "GITHUB_ORG"},
	},
	"teams": {
		{"app_id", "TEAMS_APP_ID"},
		{"app_secret", "TEAMS_APP_SECRET"},
		{"tenant_id", "TEAMS_TENANT_ID"},
	},
	"twilio": {
		{"account_sid", "TWILIO_ACCOUNT_SID"},
		{"auth_token", "TWILIO_AUTH_TOKEN"},
		{"phone_number", "TWILIO_PHONE_NUMBER"},
	},
}

// Integrations returns the known integration names in a stable order
func Integrations() []string {
	return []string{"jira", "github", "teams", "twilio"}
}

// envVar returns the environment variable holding key of integration
func envVar(integration, key string) string {
	for _, k := range IntegrationKeys[integration] {
		if k.Name == key {
			return k.Env
		}
	}
	return strings.ToUpper(integration + "_" + key)
}

func notFound(tenantID, integration string) error {
	return fmt.Errorf("%w: %s for tenant %s", ErrSecretNotFound, integration, tenantID)
}
