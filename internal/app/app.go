// ABOUTME: Wires configuration, storage, skills, secrets, model and router into one runtime
// ABOUTME: Every entry point (HTTP, WebSocket, CLI, MCP) builds on the same App
package app

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/WildEllie/t3nets/internal/bus"
	"github.com/WildEllie/t3nets/internal/config"
	apperrors "github.com/WildEllie/t3nets/internal/errors"
	"github.com/WildEllie/t3nets/internal/llm"
	"github.com/WildEllie/t3nets/internal/logging"
	"github.com/WildEllie/t3nets/internal/metrics"
	"github.com/WildEllie/t3nets/internal/models"
	"github.com/WildEllie/t3nets/internal/routing"
	"github.com/WildEllie/t3nets/internal/secrets"
	"github.com/WildEllie/t3nets/internal/server"
	"github.com/WildEllie/t3nets/internal/skills"
	"github.com/WildEllie/t3nets/internal/skills/builtin"
	"github.com/WildEllie/t3nets/internal/storage"
)

// errNoAPIKey is what every model call returns when no key is configured
var errNoAPIKey = errors.New("OpenAI API key is required")

// App is a fully wired router
type App struct {
	Config   *config.Config
	Registry *skills.Registry
	Store    storage.Backend
	Secrets  secrets.Provider
	Bus      *bus.DirectBus
	Stats    *metrics.Stats
	Matcher  *routing.Matcher
	Router   *routing.Orchestrator
	Tenant   *models.Tenant
	// Model is the default model name
	Model string

	model     routing.ModelClient
	scheduler *cron.Cron
	logger    zerolog.Logger
}

// Option overrides a collaborator, mainly for tests
type Option func(*App)

// WithModel replaces the OpenAI client
func WithModel(m routing.ModelClient) Option {
	return func(a *App) {
		a.model = m
	}
}

// WithStore replaces the configured storage backend
func WithStore(s storage.Backend) Option {
	return func(a *App) {
		a.Store = s
	}
}

// WithSecrets replaces the configured secrets providers
func WithSecrets(p secrets.Provider) Option {
	return func(a *App) {
		a.Secrets = p
	}
}

// New builds an App from cfg. The caller must Close it.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{
		Config: cfg,
		Stats:  metrics.NewStats(),
		Model:  cfg.OpenAI.ChatModel,
		logger: logging.Get("app"),
	}
	for _, opt := range opts {
		opt(a)
	}

	if err := a.loadSkills(); err != nil {
		return nil, err
	}
	if err := a.openSecrets(); err != nil {
		return nil, err
	}
	if a.Store == nil {
		store, err := storage.Open(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to open storage: %w", err)
		}
		a.Store = store
	}
	if err := a.seedTenant(ctx); err != nil {
		_ = a.Store.Close()
		return nil, err
	}

	sets, err := routing.CompileRuleSets(a.Registry.List(), routing.DefaultCorpus())
	if err != nil {
		_ = a.Store.Close()
		return nil, fmt.Errorf("failed to compile trigger rules: %w", err)
	}
	a.Matcher = routing.NewMatcher(sets, routing.WithThreshold(cfg.Routing.Threshold))

	if a.model == nil {
		a.model = a.newModelClient()
	}

	errs := apperrors.NewHandler()
	a.Bus = bus.NewDirectBus(a.Registry, a.Secrets, errs)
	a.Router = routing.NewOrchestrator(routing.Deps{
		Model:   a.model,
		Bus:     a.Bus,
		Tenants: a.Store,
		History: a.Store,
		Catalog: a.Registry,
		Matcher: a.Matcher,
	},
		routing.WithDefaultModel(a.Model),
		routing.WithStats(a.Stats),
		routing.WithErrorHandler(errs),
	)

	a.logger.Info().
		Str("tenant", a.Tenant.ID).
		Strs("skills", a.Registry.Names()).
		Str("model", a.Model).
		Str("storage", cfg.Storage.Backend).
		Msg("Router ready")
	return a, nil
}

func (a *App) loadSkills() error {
	a.Registry = skills.NewRegistry()
	if _, err := builtin.Register(a.Registry); err != nil {
		return fmt.Errorf("failed to register builtin skills: %w", err)
	}
	if a.Config.Skills.Dir == "" {
		return nil
	}
	loaded, err := a.Registry.LoadDirectory(a.Config.Skills.Dir, builtin.Workers())
	if err != nil {
		return fmt.Errorf("failed to load skills from %s: %w", a.Config.Skills.Dir, err)
	}
	if len(loaded) > 0 {
		a.logger.Info().Strs("skills", loaded).Str("dir", a.Config.Skills.Dir).Msg("Loaded skill manifests")
	}
	return nil
}

func (a *App) openSecrets() error {
	if a.Secrets != nil {
		return nil
	}
	env, err := secrets.NewEnvProvider(a.Config.Secrets.EnvFile)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}
	if a.Config.Secrets.UseKeyring {
		a.Secrets = secrets.NewChainProvider(secrets.NewKeyringProvider(), env)
		return nil
	}
	a.Secrets = secrets.NewChainProvider(env)
	return nil
}

// seedTenant creates the default tenant on first run. An existing tenant is left as stored.
func (a *App) seedTenant(ctx context.Context) error {
	cfg := a.Config.Tenant
	settings := models.DefaultTenantSettings()
	settings.MaxConversationHistory = cfg.MaxHistory
	settings.AIModel = cfg.Model
	settings.EnabledSkills = a.Registry.Names()
	if len(cfg.EnabledSkills) > 0 {
		settings.EnabledSkills = slices.Clone(cfg.EnabledSkills)
	}
	settings.EnabledChannels = []string{
		string(models.ChannelDashboard), string(models.ChannelWebSocket),
		string(models.ChannelCLI), string(models.ChannelMCP),
	}

	tenant, err := a.Store.EnsureTenant(ctx, &models.Tenant{
		ID:       cfg.DefaultID,
		Name:     cfg.Name,
		Status:   models.TenantActive,
		Settings: settings,
	})
	if err != nil {
		return fmt.Errorf("failed to seed tenant %s: %w", cfg.DefaultID, err)
	}
	for _, name := range tenant.Settings.EnabledSkills {
		if _, ok := a.Registry.Get(name); !ok {
			a.logger.Warn().Str("tenant", tenant.ID).Str("skill", name).Msg("Enabled skill is not registered")
		}
	}
	a.Tenant = tenant
	return nil
}

func (a *App) newModelClient() routing.ModelClient {
	o := a.Config.OpenAI
	if o.APIKey == "" {
		a.logger.Warn().Msg("OPENAI_API_KEY not set, only rule-matched skills will answer")
		return unavailableModel{err: errNoAPIKey}
	}
	client, err := llm.NewOpenAIClientWithConfig(&llm.ClientConfig{
		APIKey:     o.APIKey,
		BaseURL:    o.BaseURL,
		ChatModel:  o.ChatModel,
		Timeout:    o.Timeout,
		MaxRetries: o.MaxRetries,
		RetryDelay: o.RetryDelay,
	})
	if err != nil {
		a.logger.Warn().Err(err).Msg("Model client unavailable")
		return unavailableModel{err: err}
	}
	return client
}

// EnabledSkills returns the default tenant's enabled skills as currently stored
func (a *App) EnabledSkills(ctx context.Context) []string {
	tenant, err := a.Store.GetTenant(ctx, a.Tenant.ID)
	if err != nil {
		return a.Tenant.Settings.EnabledSkills
	}
	return tenant.Settings.EnabledSkills
}

// ServerOptions describes this App to the HTTP server
func (a *App) ServerOptions() server.Options {
	return server.Options{
		TenantID:     a.Tenant.ID,
		Model:        a.Model,
		Skills:       a.Registry.Names(),
		Integrations: a.Secrets.ListIntegrations,
		Stats:        a.Stats,
	}
}

// StartSync schedules background charm syncs when the backend supports it and a schedule is set
func (a *App) StartSync() error {
	spec := a.Config.Storage.Charm.SyncSchedule
	syncer, ok := a.Store.(storage.Syncer)
	if spec == "" || !ok {
		return nil
	}

	a.scheduler = cron.New(cron.WithParser(cron.NewParser(
		cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)))
	if _, err := a.scheduler.AddFunc(spec, func() {
		if err := syncer.Sync(); err != nil {
			a.logger.Warn().Err(err).Msg("Scheduled sync failed")
			return
		}
		a.logger.Debug().Msg("Scheduled sync complete")
	}); err != nil {
		a.scheduler = nil
		return fmt.Errorf("failed to schedule sync %q: %w", spec, err)
	}
	a.scheduler.Start()
	a.logger.Info().Str("schedule", spec).Msg("Background sync scheduled")
	return nil
}

// Close stops background work and closes storage
func (a *App) Close() error {
	if a.scheduler != nil {
		<-a.scheduler.Stop().Done()
		a.scheduler = nil
	}
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}

// unavailableModel fails every call with err so the friendly error path explains why
type unavailableModel struct {
	err error
}

func (m unavailableModel) Chat(context.Context, models.ChatRequest) (*models.ModelResponse, error) {
	return nil, m.err
}

func (m unavailableModel) ChatWithToolResult(context.Context, models.ChatRequest, models.ToolCall, models.SkillResult) (*models.ModelResponse, error) {
	return nil, m.err
}
