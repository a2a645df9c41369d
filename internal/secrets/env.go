// ABOUTME: Environment-backed secrets provider for single-tenant local runs
// ABOUTME: Reads {INTEGRATION}_{KEY} variables, optionally seeded from a .env file
package secrets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// EnvProvider reads secrets from the process environment. All tenants share them.
type EnvProvider struct {
	getenv   func(string) string
	setenv   func(string, string) error
	unsetenv func(string) error
}

// NewEnvProvider creates a provider. A non-empty envFile is loaded first;
// variables already set in the environment win. A missing file is fine.
func NewEnvProvider(envFile string) (*EnvProvider, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}
	return &EnvProvider{getenv: os.Getenv, setenv: os.Setenv, unsetenv: os.Unsetenv}, nil
}

// Get returns the integration's secrets that are set
func (p *EnvProvider) Get(_ context.Context, tenantID, integration string) (map[string]string, error) {
	keys, ok := IntegrationKeys[integration]
	if !ok {
		return nil, fmt.Errorf("%w: unknown integration %s", ErrSecretNotFound, integration)
	}
	values := map[string]string{}
	for _, k := range keys {
		if v := p.getenv(k.Env); v != "" {
			values[k.Name] = v
		}
	}
	if len(values) == 0 {
		return nil, notFound(tenantID, integration)
	}
	return values, nil
}

// Put sets the variables for the current process only
func (p *EnvProvider) Put(_ context.Context, _, integration string, values map[string]string) error {
	for key, v := range values {
		if err := p.setenv(envVar(integration, key), v); err != nil {
			return fmt.Errorf("failed to set %s secret %s: %w", integration, key, err)
		}
	}
	return nil
}

// Delete unsets the integration's known variables
func (p *EnvProvider) Delete(_ context.Context, _, integration string) error {
	for _, k := range IntegrationKeys[integration] {
		if err := p.unsetenv(k.Env); err != nil {
			return fmt.Errorf("failed to unset %s: %w", k.Env, err)
		}
	}
	return nil
}

// ListIntegrations returns integrations with at least one variable set
func (p *EnvProvider) ListIntegrations(_ context.Context, _ string) ([]string, error) {
	var connected []string
	for _, name := range Integrations() {
		for _, k := range IntegrationKeys[name] {
			if p.getenv(k.Env) != "" {
				connected = append(connected, name)
				break
			}
		}
	}
	return connected, nil
}
