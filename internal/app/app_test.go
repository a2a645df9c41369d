// ABOUTME: Tests for runtime wiring against a real SQLite file and a scripted model
// ABOUTME: Covers tenant seeding, rule and model routes, offline mode and sync scheduling
package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WildEllie/t3nets/internal/config"
	"github.com/WildEllie/t3nets/internal/models"
	"github.com/WildEllie/t3nets/internal/routing"
	"github.com/WildEllie/t3nets/internal/secrets"
	"github.com/WildEllie/t3nets/internal/storage"
)

type cannedModel struct {
	text  string
	calls int
}

func (m *cannedModel) Chat(context.Context, models.ChatRequest) (*models.ModelResponse, error) {
	m.calls++
	return &models.ModelResponse{Text: m.text, InputTokens: 12, OutputTokens: 3}, nil
}

func (m *cannedModel) ChatWithToolResult(context.Context, models.ChatRequest, models.ToolCall, models.SkillResult) (*models.ModelResponse, error) {
	m.calls++
	return &models.ModelResponse{Text: m.text}, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.DBPath = filepath.Join(t.TempDir(), "t3nets.db")
	cfg.Skills.Dir = filepath.Join(t.TempDir(), "skills")
	cfg.OpenAI.APIKey = ""
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config, opts ...Option) *App {
	t.Helper()
	opts = append([]Option{WithSecrets(secrets.NewChainProvider())}, opts...)
	a, err := New(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func send(t *testing.T, a *App, text string) *routing.Reply {
	t.Helper()
	reply, err := a.Router.HandleMessage(context.Background(), routing.Request{
		TenantID:       a.Tenant.ID,
		ConversationID: "c1",
		Text:           text,
		Channel:        models.ChannelCLI,
		User:           &models.User{ID: "tester", TenantID: a.Tenant.ID},
	})
	require.NoError(t, err)
	return reply
}

func TestNew_SeedsDefaultTenant(t *testing.T) {
	a := newTestApp(t, testConfig(t), WithModel(&cannedModel{text: "hi"}))

	assert.Equal(t, "local", a.Tenant.ID)
	assert.Equal(t, "Local Development", a.Tenant.Name)
	assert.Equal(t, []string{"ping", "sprint_status"}, a.Tenant.Settings.EnabledSkills)
	assert.Equal(t, 20, a.Tenant.Settings.MaxConversationHistory)
	assert.Equal(t, []string{"ping", "sprint_status"}, a.EnabledSkills(context.Background()))

	opts := a.ServerOptions()
	assert.Equal(t, "local", opts.TenantID)
	assert.Equal(t, "gpt-4o-mini", opts.Model)
	assert.NotNil(t, opts.Stats)
	assert.NotNil(t, opts.Integrations)
}

func TestNew_KeepsStoredTenant(t *testing.T) {
	cfg := testConfig(t)
	cfg.Tenant.EnabledSkills = []string{"ping"}
	first, err := New(context.Background(), cfg, WithSecrets(secrets.NewChainProvider()), WithModel(&cannedModel{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"ping"}, first.Tenant.Settings.EnabledSkills)
	require.NoError(t, first.Close())

	cfg.Tenant.EnabledSkills = nil
	second := newTestApp(t, cfg, WithModel(&cannedModel{}))
	assert.Equal(t, []string{"ping"}, second.Tenant.Settings.EnabledSkills)
}

func TestRouting_RuleMatchedRaw(t *testing.T) {
	model := &cannedModel{text: "unused"}
	a := newTestApp(t, testConfig(t), WithModel(model))

	reply := send(t, a, "ping --raw")
	assert.Equal(t, models.RouteRule, reply.Route)
	assert.True(t, reply.Raw)
	assert.Equal(t, "ping", reply.Skill)
	assert.Contains(t, reply.Text, `"status": "ok"`)
	assert.Equal(t, 0, model.calls)

	reply = send(t, a, "what's blocking --raw")
	assert.Equal(t, "sprint_status", reply.Skill)
	assert.Contains(t, reply.Text, "Integration not configured: jira")

	infos, err := a.Store.ListConversations(context.Background(), "local")
	require.NoError(t, err)
	assert.Empty(t, infos, "raw turns are not persisted")

	snap := a.Stats.Snapshot()
	assert.Equal(t, 2, snap.Messages)
	assert.Equal(t, 2, snap.RawResponses)
}

func TestRouting_Conversational(t *testing.T) {
	model := &cannedModel{text: "Hey there!"}
	a := newTestApp(t, testConfig(t), WithModel(model))

	reply := send(t, a, "hello")
	assert.Equal(t, models.RouteConversational, reply.Route)
	assert.Equal(t, "Hey there!", reply.Text)
	assert.Equal(t, 15, reply.Metrics.Tokens)
	assert.Equal(t, 1, model.calls)

	turns, err := a.Store.GetTurns(context.Background(), "local", "c1")
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "hello", turns[0].UserMessage)
}

func TestRouting_WithoutAPIKey(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	reply := send(t, a, "hello")
	assert.True(t, reply.Failed)
	require.NotNil(t, reply.Error)
	assert.Equal(t, "MODEL_AUTH", reply.Error.Code)

	reply = send(t, a, "ping --raw")
	assert.False(t, reply.Failed)
	assert.Equal(t, models.RouteRule, reply.Route)
}

func TestNew_LoadsSkillDirectory(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.Skills.Dir, "weather"), 0o755))
	manifest := "name: weather\ndescription: Forecasts\ntriggers: [weather forecast]\nsupports_raw: true\n"
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Skills.Dir, "weather", "skill.yaml"), []byte(manifest), 0o600))

	a := newTestApp(t, cfg, WithModel(&cannedModel{}))
	assert.Equal(t, []string{"ping", "sprint_status", "weather"}, a.Registry.Names())
	assert.Contains(t, a.Tenant.Settings.EnabledSkills, "weather")

	reply := send(t, a, "weather forecast --raw")
	assert.Equal(t, "weather", reply.Skill)
	assert.Contains(t, reply.Text, "Skill weather is not available")
}

type syncingStore struct {
	storage.Backend
	syncs int
}

func (s *syncingStore) Sync() error {
	s.syncs++
	return nil
}

func TestStartSync(t *testing.T) {
	cfg := testConfig(t)
	backend, err := storage.Open(cfg.Storage)
	require.NoError(t, err)
	store := &syncingStore{Backend: backend}

	cfg.Storage.Charm.SyncSchedule = "not a schedule"
	a := newTestApp(t, cfg, WithModel(&cannedModel{}), WithStore(store))
	require.Error(t, a.StartSync())
	assert.Nil(t, a.scheduler)

	a.Config.Storage.Charm.SyncSchedule = "@every 1h"
	require.NoError(t, a.StartSync())
	assert.NotNil(t, a.scheduler)
	assert.Len(t, a.scheduler.Entries(), 1)

	require.NoError(t, a.Close())
	assert.Nil(t, a.scheduler)
}

func TestStartSync_NoSyncer(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Charm.SyncSchedule = "@every 1m"
	a := newTestApp(t, cfg, WithModel(&cannedModel{}))
	require.NoError(t, a.StartSync())
	assert.Nil(t, a.scheduler)
}
