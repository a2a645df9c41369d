// ABOUTME: Tenant directory and conversation history on top of Charm KV
// ABOUTME: Each conversation is one JSON document so a sync moves it atomically
package charm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/WildEllie/t3nets/internal/logging"
	"github.com/WildEllie/t3nets/internal/models"
)

// Key prefixes for different entity types
const (
	TenantPrefix       = "tenant:"
	ConversationPrefix = "conv:"
)

// DefaultMaxStoredTurns bounds the size of a conversation document
const DefaultMaxStoredTurns = 200

// ErrTenantNotFound is returned when no tenant has the requested id
var ErrTenantNotFound = errors.New("tenant not found")

// TenantKey generates a key for a tenant
func TenantKey(tenantID string) string {
	return TenantPrefix + tenantID
}

// ConversationKey generates a key for a conversation
func ConversationKey(tenantID, conversationID string) string {
	return ConversationPrefix + tenantID + ":" + conversationID
}

// Store keeps tenants and conversations in a KV
type Store struct {
	kv       KV
	maxTurns int
	// mu serializes read-modify-write of conversation documents
	mu     sync.Mutex
	logger zerolog.Logger
}

// NewStore creates a store over kv
func NewStore(kv KV) *Store {
	return &Store{
		kv:       kv,
		maxTurns: DefaultMaxStoredTurns,
		logger:   logging.Get("storage.charm"),
	}
}

// GetTenant returns a tenant by id
func (s *Store) GetTenant(_ context.Context, tenantID string) (*models.Tenant, error) {
	tenant := models.Tenant{Settings: models.DefaultTenantSettings()}
	if err := getJSON(s.kv, TenantKey(tenantID), &tenant); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTenantNotFound, tenantID)
		}
		return nil, fmt.Errorf("failed to load tenant: %w", err)
	}
	return &tenant, nil
}

// PutTenant inserts or replaces a tenant
func (s *Store) PutTenant(_ context.Context, tenant *models.Tenant) error {
	if tenant.ID == "" {
		return errors.New("tenant id cannot be empty")
	}
	t := *tenant
	if t.Status == "" {
		t.Status = models.TenantActive
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	return setJSON(s.kv, TenantKey(t.ID), t)
}

// ListTenants returns all tenants ordered by id
func (s *Store) ListTenants(ctx context.Context) ([]*models.Tenant, error) {
	keys, err := s.kv.ListKeys(TenantPrefix)
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)

	out := make([]*models.Tenant, 0, len(keys))
	for _, key := range keys {
		tenant, err := s.GetTenant(ctx, strings.TrimPrefix(key, TenantPrefix))
		if err != nil {
			return nil, err
		}
		out = append(out, tenant)
	}
	return out, nil
}

// EnsureTenant stores tenant unless one with the same id exists, and returns the stored tenant
func (s *Store) EnsureTenant(ctx context.Context, tenant *models.Tenant) (*models.Tenant, error) {
	existing, err := s.GetTenant(ctx, tenant.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrTenantNotFound) {
		return nil, err
	}
	if err := s.PutTenant(ctx, tenant); err != nil {
		return nil, err
	}
	s.logger.Info().Str("tenant", tenant.ID).Msg("Created tenant")
	return s.GetTenant(ctx, tenant.ID)
}

func (s *Store) loadTurns(tenantID, conversationID string) ([]models.Turn, error) {
	var turns []models.Turn
	err := getJSON(s.kv, ConversationKey(tenantID, conversationID), &turns)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return turns, nil
}

// GetConversation returns the last maxTurns turns as alternating user/assistant messages
func (s *Store) GetConversation(_ context.Context, tenantID, conversationID string, maxTurns int) ([]models.ChatMessage, error) {
	s.mu.Lock()
	turns, err := s.loadTurns(tenantID, conversationID)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if maxTurns > 0 && len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}
	messages := make([]models.ChatMessage, 0, len(turns)*2)
	for i := range turns {
		messages = append(messages, turns[i].Messages()...)
	}
	return messages, nil
}

// SaveTurn appends a turn, dropping the oldest beyond the stored-turn cap
func (s *Store) SaveTurn(_ context.Context, turn *models.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns, err := s.loadTurns(turn.TenantID, turn.ConversationID)
	if err != nil {
		return err
	}
	turns = append(turns, *turn)
	if len(turns) > s.maxTurns {
		turns = turns[len(turns)-s.maxTurns:]
	}
	if err := setJSON(s.kv, ConversationKey(turn.TenantID, turn.ConversationID), turns); err != nil {
		return fmt.Errorf("failed to save turn: %w", err)
	}
	return nil
}

// ClearConversation deletes a conversation
func (s *Store) ClearConversation(_ context.Context, tenantID, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.kv.Delete(ConversationKey(tenantID, conversationID))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// GetTurns returns the stored turns of a conversation, oldest first
func (s *Store) GetTurns(_ context.Context, tenantID, conversationID string) ([]models.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadTurns(tenantID, conversationID)
}

// ListConversations lists a tenant's conversations, most recently active first
func (s *Store) ListConversations(_ context.Context, tenantID string) ([]models.ConversationInfo, error) {
	prefix := ConversationKey(tenantID, "")
	keys, err := s.kv.ListKeys(prefix)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.ConversationInfo, 0, len(keys))
	for _, key := range keys {
		conversationID := strings.TrimPrefix(key, prefix)
		turns, err := s.loadTurns(tenantID, conversationID)
		if err != nil {
			return nil, err
		}
		if len(turns) == 0 {
			continue
		}
		out = append(out, models.ConversationInfo{
			ConversationID: conversationID,
			TurnCount:      len(turns),
			LastActivity:   turns[len(turns)-1].Timestamp,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastActivity.Equal(out[j].LastActivity) {
			return out[i].LastActivity.After(out[j].LastActivity)
		}
		return out[i].ConversationID < out[j].ConversationID
	})
	return out, nil
}
