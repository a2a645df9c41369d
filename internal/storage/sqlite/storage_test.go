// ABOUTME: Tests for the SQLite storage facade
// ABOUTME: Covers tenants, history windows, clearing, listing and export
package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WildEllie/t3nets/internal/models"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorageInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func saveTurn(t *testing.T, s *Storage, tenant, conv, user, reply string, meta models.TurnMetadata) *models.Turn {
	t.Helper()
	turn, err := models.NewTurn(tenant, conv, user, reply, meta)
	require.NoError(t, err)
	require.NoError(t, s.SaveTurn(context.Background(), turn))
	return turn
}

func TestTenants_PutGetList(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	settings := models.DefaultTenantSettings()
	settings.EnabledSkills = []string{"sprint_status", "ping"}
	settings.AIModel = "gpt-4o"
	require.NoError(t, s.PutTenant(ctx, &models.Tenant{ID: "acme", Name: "Acme", Settings: settings}))
	require.NoError(t, s.PutTenant(ctx, &models.Tenant{ID: "beta", Name: "Beta", Status: models.TenantSuspended}))

	got, err := s.GetTenant(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)
	assert.Equal(t, models.TenantActive, got.Status)
	assert.Equal(t, []string{"sprint_status", "ping"}, got.Settings.EnabledSkills)
	assert.Equal(t, "gpt-4o", got.Settings.AIModel)
	assert.False(t, got.CreatedAt.IsZero())
	assert.True(t, got.IsActive())

	got.Name = "Acme Corp"
	require.NoError(t, s.PutTenant(ctx, got))
	got, err = s.GetTenant(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", got.Name)

	all, err := s.ListTenants(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "acme", all[0].ID)
	assert.False(t, all[1].IsActive())
}

func TestTenants_NotFound(t *testing.T) {
	s := newTestStorage(t)
	_, err := s.GetTenant(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrTenantNotFound)
	assert.Contains(t, err.Error(), "ghost")

	assert.Error(t, s.PutTenant(context.Background(), &models.Tenant{Name: "no id"}))
}

func TestTenants_MissingSettingsUseDefaults(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	_, err := s.db.Exec(ctx, `INSERT INTO tenants (id, name, settings) VALUES ('old', 'Old', '{"enabled_skills":["ping"]}')`)
	require.NoError(t, err)

	got, err := s.GetTenant(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, []string{"ping"}, got.Settings.EnabledSkills)
	assert.Equal(t, models.DefaultMaxConversationHistory, got.Settings.MaxConversationHistory)
}

func TestEnsureTenant(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	first, err := s.EnsureTenant(ctx, &models.Tenant{ID: "local", Name: "Local"})
	require.NoError(t, err)
	assert.Equal(t, "Local", first.Name)

	second, err := s.EnsureTenant(ctx, &models.Tenant{ID: "local", Name: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Local", second.Name, "existing tenant is kept")
}

func TestConversation_WindowAndOrder(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		saveTurn(t, s, "acme", "c1", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i), models.TurnMetadata{Route: models.RouteAI})
	}
	saveTurn(t, s, "acme", "c2", "other", "conversation", models.TurnMetadata{Route: models.RouteAI})
	saveTurn(t, s, "other-tenant", "c1", "same id", "different tenant", models.TurnMetadata{Route: models.RouteAI})

	msgs, err := s.GetConversation(ctx, "acme", "c1", 2)
	require.NoError(t, err)
	assert.Equal(t, []models.ChatMessage{
		{Role: models.RoleUser, Content: "q4"},
		{Role: models.RoleAssistant, Content: "a4"},
		{Role: models.RoleUser, Content: "q5"},
		{Role: models.RoleAssistant, Content: "a5"},
	}, msgs)

	msgs, err = s.GetConversation(ctx, "acme", "c1", 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 10)

	msgs, err = s.GetConversation(ctx, "acme", "missing", 5)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestConversation_MetadataRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	saved := saveTurn(t, s, "acme", "c1", "what's blocking", "ENG-7", models.TurnMetadata{
		Route: models.RouteRule, Tokens: 120, Model: "gpt-4o-mini", Skill: "sprint_status", Action: "blockers",
	})

	turns, err := s.GetTurns(ctx, "acme", "c1")
	require.NoError(t, err)
	require.Len(t, turns, 1)
	got := turns[0]
	assert.Equal(t, saved.TurnID, got.TurnID)
	assert.Equal(t, saved.Metadata, got.Metadata)
	assert.WithinDuration(t, saved.Timestamp, got.Timestamp, time.Millisecond)
}

func TestConversation_Clear(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	saveTurn(t, s, "acme", "c1", "q", "a", models.TurnMetadata{Route: models.RouteConversational})
	saveTurn(t, s, "acme", "c2", "q", "a", models.TurnMetadata{Route: models.RouteConversational})

	require.NoError(t, s.ClearConversation(ctx, "acme", "c1"))
	msgs, err := s.GetConversation(ctx, "acme", "c1", 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	msgs, err = s.GetConversation(ctx, "acme", "c2", 10)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)

	require.NoError(t, s.ClearConversation(ctx, "acme", "never-existed"))

	// Sequence restarts cleanly after a clear
	saveTurn(t, s, "acme", "c1", "fresh", "start", models.TurnMetadata{Route: models.RouteAI})
	msgs, err = s.GetConversation(ctx, "acme", "c1", 10)
	require.NoError(t, err)
	assert.Equal(t, "fresh", msgs[0].Content)
}

func TestListConversations(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	older, err := models.NewTurn("acme", "old", "q", "a", models.TurnMetadata{Route: models.RouteAI})
	require.NoError(t, err)
	older.Timestamp = time.Now().Add(-time.Hour).UTC()
	require.NoError(t, s.SaveTurn(ctx, older))
	saveTurn(t, s, "acme", "new", "q1", "a1", models.TurnMetadata{Route: models.RouteAI})
	saveTurn(t, s, "acme", "new", "q2", "a2", models.TurnMetadata{Route: models.RouteAI})

	infos, err := s.ListConversations(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "new", infos[0].ConversationID)
	assert.Equal(t, 2, infos[0].TurnCount)
	assert.Equal(t, "old", infos[1].ConversationID)
	assert.True(t, infos[0].LastActivity.After(infos[1].LastActivity))
}

func TestConcurrentSaves(t *testing.T) {
	s, err := NewStorageWithPath(t.TempDir() + "/t3nets.db")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	done := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func(i int) {
			turn, err := models.NewTurn("acme", "c1", fmt.Sprintf("q%d", i), "a", models.TurnMetadata{Route: models.RouteAI})
			if err == nil {
				err = s.SaveTurn(context.Background(), turn)
			}
			done <- err
		}(i)
	}
	for i := 0; i < 10; i++ {
		require.NoError(t, <-done)
	}

	turns, err := s.GetTurns(context.Background(), "acme", "c1")
	require.NoError(t, err)
	assert.Len(t, turns, 10)
}
