// ABOUTME: Storage backend selection for tenants and conversation history
// ABOUTME: Opens the local SQLite store or the cloud-synced Charm KV store behind one interface
package storage

import (
	"context"
	"fmt"

	"github.com/WildEllie/t3nets/internal/charm"
	"github.com/WildEllie/t3nets/internal/config"
	"github.com/WildEllie/t3nets/internal/models"
	"github.com/WildEllie/t3nets/internal/storage/sqlite"
)

// Backend is a tenant directory plus conversation history
type Backend interface {
	GetTenant(ctx context.Context, tenantID string) (*models.Tenant, error)
	PutTenant(ctx context.Context, tenant *models.Tenant) error
	ListTenants(ctx context.Context) ([]*models.Tenant, error)
	EnsureTenant(ctx context.Context, tenant *models.Tenant) (*models.Tenant, error)

	GetConversation(ctx context.Context, tenantID, conversationID string, maxTurns int) ([]models.ChatMessage, error)
	GetTurns(ctx context.Context, tenantID, conversationID string) ([]models.Turn, error)
	SaveTurn(ctx context.Context, turn *models.Turn) error
	ClearConversation(ctx context.Context, tenantID, conversationID string) error
	ListConversations(ctx context.Context, tenantID string) ([]models.ConversationInfo, error)

	Close() error
}

// Syncer is implemented by backends that replicate to a remote
type Syncer interface {
	Sync() error
}

// Open opens the backend named by cfg.Backend
func Open(cfg config.StorageConfig) (Backend, error) {
	switch cfg.Backend {
	case config.BackendSQLite, "":
		s, err := sqlite.NewStorageWithPath(cfg.SQLitePath())
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite storage: %w", err)
		}
		return s, nil
	case config.BackendCharm:
		client, err := charm.NewClient(&charm.Config{
			Host:     cfg.Charm.Host,
			DBName:   cfg.Charm.DBName,
			AutoSync: cfg.Charm.AutoSync,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open charm storage: %w", err)
		}
		return &charmBackend{Store: charm.NewStore(client), client: client}, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// charmBackend owns the client under a charm store
type charmBackend struct {
	*charm.Store
	client *charm.Client
}

func (b *charmBackend) Close() error {
	return b.client.Close()
}

func (b *charmBackend) Sync() error {
	return b.client.Sync()
}
