// ABOUTME: OS keyring secrets provider (Keychain, Secret Service, Credential Manager)
// ABOUTME: Stores one JSON blob per tenant and integration under the t3nets service
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringService is the service name secrets are filed under
const KeyringService = "t3nets"

// KeyringProvider keeps secrets in the operating system keyring
type KeyringProvider struct {
	service string
}

// NewKeyringProvider creates a provider for the t3nets service
func NewKeyringProvider() *KeyringProvider {
	return &KeyringProvider{service: KeyringService}
}

func keyringUser(tenantID, integration string) string {
	return tenantID + "/" + integration
}

// Get returns the stored secrets of one integration
func (p *KeyringProvider) Get(_ context.Context, tenantID, integration string) (map[string]string, error) {
	blob, err := keyring.Get(p.service, keyringUser(tenantID, integration))
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, notFound(tenantID, integration)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read keyring: %w", err)
	}

	var values map[string]string
	if err := json.Unmarshal([]byte(blob), &values); err != nil {
		return nil, fmt.Errorf("failed to decode %s secrets: %w", integration, err)
	}
	if len(values) == 0 {
		return nil, notFound(tenantID, integration)
	}
	return values, nil
}

// Put merges values into the stored secrets of an integration
func (p *KeyringProvider) Put(ctx context.Context, tenantID, integration string, values map[string]string) error {
	merged := map[string]string{}
	existing, err := p.Get(ctx, tenantID, integration)
	if err != nil && !errors.Is(err, ErrSecretNotFound) {
		return err
	}
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range values {
		merged[k] = v
	}

	blob, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("failed to encode %s secrets: %w", integration, err)
	}
	if err := keyring.Set(p.service, keyringUser(tenantID, integration), string(blob)); err != nil {
		return fmt.Errorf("failed to write keyring: %w", err)
	}
	return nil
}

// Delete removes an integration's secrets. Deleting nothing is not an error.
func (p *KeyringProvider) Delete(_ context.Context, tenantID, integration string) error {
	err := keyring.Delete(p.service, keyringUser(tenantID, integration))
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return nil
}

// ListIntegrations probes the known integrations; the keyring cannot enumerate entries
func (p *KeyringProvider) ListIntegrations(ctx context.Context, tenantID string) ([]string, error) {
	var connected []string
	for _, name := range Integrations() {
		_, err := p.Get(ctx, tenantID, name)
		if errors.Is(err, ErrSecretNotFound) {
			continue
		}
		if err != nil {
			return connected, err
		}
		connected = append(connected, name)
	}
	return connected, nil
}
