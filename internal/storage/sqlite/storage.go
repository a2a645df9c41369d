// ABOUTME: Unified Storage layer that wraps the tenant and turn stores
// ABOUTME: Serves as the tenant directory and conversation history for the router
package sqlite

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/WildEllie/t3nets/internal/logging"
	"github.com/WildEllie/t3nets/internal/models"
)

// Storage manages all persistent data using SQLite
type Storage struct {
	db      *DB
	turns   *TurnStore
	tenants *TenantStore
	logger  zerolog.Logger
}

// NewStorage initializes storage at the default path
func NewStorage() (*Storage, error) {
	return NewStorageWithPath(DefaultDBPath())
}

// NewStorageWithPath initializes storage with a custom database path
func NewStorageWithPath(dbPath string) (*Storage, error) {
	db, err := Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return newStorage(db), nil
}

// NewStorageInMemory creates an in-memory storage (for testing)
func NewStorageInMemory() (*Storage, error) {
	db, err := OpenInMemory()
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	return newStorage(db), nil
}

func newStorage(db *DB) *Storage {
	return &Storage{
		db:      db,
		turns:   NewTurnStore(db),
		tenants: NewTenantStore(db),
		logger:  logging.Get("storage.sqlite"),
	}
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// Path returns the database file path
func (s *Storage) Path() string {
	return s.db.Path()
}

// GetTenant returns a tenant by id
func (s *Storage) GetTenant(ctx context.Context, tenantID string) (*models.Tenant, error) {
	return s.tenants.Get(ctx, tenantID)
}

// PutTenant inserts or replaces a tenant
func (s *Storage) PutTenant(ctx context.Context, tenant *models.Tenant) error {
	return s.tenants.Put(ctx, tenant)
}

// ListTenants returns all tenants
func (s *Storage) ListTenants(ctx context.Context) ([]*models.Tenant, error) {
	return s.tenants.List(ctx)
}

// EnsureTenant stores tenant unless one with the same id exists, and returns the stored tenant
func (s *Storage) EnsureTenant(ctx context.Context, tenant *models.Tenant) (*models.Tenant, error) {
	existing, err := s.tenants.Get(ctx, tenant.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrTenantNotFound) {
		return nil, err
	}
	if err := s.tenants.Put(ctx, tenant); err != nil {
		return nil, err
	}
	s.logger.Info().Str("tenant", tenant.ID).Msg("Created tenant")
	return s.tenants.Get(ctx, tenant.ID)
}

// GetConversation returns the last maxTurns turns as alternating user/assistant messages
func (s *Storage) GetConversation(ctx context.Context, tenantID, conversationID string, maxTurns int) ([]models.ChatMessage, error) {
	turns, err := s.turns.Recent(ctx, tenantID, conversationID, maxTurns)
	if err != nil {
		return nil, err
	}
	messages := make([]models.ChatMessage, 0, len(turns)*2)
	for i := range turns {
		messages = append(messages, turns[i].Messages()...)
	}
	return messages, nil
}

// GetTurns returns the full turn records of a conversation, oldest first
func (s *Storage) GetTurns(ctx context.Context, tenantID, conversationID string) ([]models.Turn, error) {
	return s.turns.Recent(ctx, tenantID, conversationID, 0)
}

// SaveTurn appends a turn
func (s *Storage) SaveTurn(ctx context.Context, turn *models.Turn) error {
	return s.turns.Save(ctx, turn)
}

// ClearConversation deletes all turns of a conversation
func (s *Storage) ClearConversation(ctx context.Context, tenantID, conversationID string) error {
	n, err := s.turns.Clear(ctx, tenantID, conversationID)
	if err != nil {
		return err
	}
	s.logger.Debug().Str("tenant", tenantID).Str("conversation", conversationID).Int64("turns", n).Msg("Cleared conversation")
	return nil
}

// ListConversations lists a tenant's conversations, most recent first
func (s *Storage) ListConversations(ctx context.Context, tenantID string) ([]models.ConversationInfo, error) {
	return s.turns.Conversations(ctx, tenantID)
}
