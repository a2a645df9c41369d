// ABOUTME: Chain provider that consults several secrets providers in order
// ABOUTME: Reads fall through on not-found; writes go to the first provider
package secrets

import (
	"context"
	"errors"

	"github.com/WildEllie/t3nets/internal/logging"
)

// ChainProvider resolves secrets from the first provider that has them
type ChainProvider struct {
	providers []Provider
}

// NewChainProvider chains providers, highest priority first
func NewChainProvider(providers ...Provider) *ChainProvider {
	return &ChainProvider{providers: providers}
}

// Get returns secrets from the first provider that has them.
// Provider failures other than not-found are logged and skipped.
func (c *ChainProvider) Get(ctx context.Context, tenantID, integration string) (map[string]string, error) {
	var lastErr error
	for _, p := range c.providers {
		values, err := p.Get(ctx, tenantID, integration)
		if err == nil {
			return values, nil
		}
		if !errors.Is(err, ErrSecretNotFound) {
			logger := logging.Get("secrets")
			logger.Warn().Err(err).Str("integration", integration).Msg("Secrets provider failed")
			lastErr = err
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, notFound(tenantID, integration)
}

// Put writes to the first provider
func (c *ChainProvider) Put(ctx context.Context, tenantID, integration string, values map[string]string) error {
	if len(c.providers) == 0 {
		return errors.New("no secrets provider configured")
	}
	return c.providers[0].Put(ctx, tenantID, integration, values)
}

// Delete removes the integration from every provider
func (c *ChainProvider) Delete(ctx context.Context, tenantID, integration string) error {
	var errs []error
	for _, p := range c.providers {
		if err := p.Delete(ctx, tenantID, integration); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ListIntegrations returns the union across providers, in known-integration order
func (c *ChainProvider) ListIntegrations(ctx context.Context, tenantID string) ([]string, error) {
	seen := map[string]bool{}
	for _, p := range c.providers {
		names, err := p.ListIntegrations(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			seen[n] = true
		}
	}
	var out []string
	for _, n := range Integrations() {
		if seen[n] {
			out = append(out, n)
		}
	}
	return out, nil
}
