// ABOUTME: DirectBus runs skill workers in-process instead of publishing to a queue
// ABOUTME: Results are stored under the request id until the router consumes them
package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	apperrors "github.com/WildEllie/t3nets/internal/errors"
	"github.com/WildEllie/t3nets/internal/logging"
	"github.com/WildEllie/t3nets/internal/models"
	"github.com/WildEllie/t3nets/internal/skills"
)

// Skills is the part of the skill registry the bus needs
type Skills interface {
	Get(name string) (models.SkillDefinition, bool)
	Worker(name string) (skills.Worker, bool)
	ValidateParams(name string, params map[string]any) error
}

// SecretsSource fetches the secrets of a tenant's integration
type SecretsSource interface {
	Get(ctx context.Context, tenantID, integration string) (map[string]string, error)
}

// DirectBus executes skills synchronously. Safe for concurrent use.
type DirectBus struct {
	skills  Skills
	secrets SecretsSource
	errs    *apperrors.Handler
	logger  zerolog.Logger

	mu      sync.Mutex
	pending map[string]models.SkillResult
}

// NewDirectBus creates a bus over the registry and secrets provider
func NewDirectBus(reg Skills, secrets SecretsSource, errs *apperrors.Handler) *DirectBus {
	if errs == nil {
		errs = apperrors.NewHandler()
	}
	return &DirectBus{
		skills:  reg,
		secrets: secrets,
		errs:    errs,
		logger:  logging.Get("bus"),
		pending: map[string]models.SkillResult{},
	}
}

// PublishSkillInvocation runs the skill and stores its result under inv.RequestID.
// Skill failures become error results; only an unknown skill fails the publish.
func (b *DirectBus) PublishSkillInvocation(ctx context.Context, inv models.SkillInvocation) error {
	def, ok := b.skills.Get(inv.SkillName)
	if !ok {
		return fmt.Errorf("failed to publish invocation: %w: %s", skills.ErrSkillNotFound, inv.SkillName)
	}
	b.store(inv.RequestID, b.execute(ctx, def, inv))
	return nil
}

func (b *DirectBus) execute(ctx context.Context, def models.SkillDefinition, inv models.SkillInvocation) models.SkillResult {
	logger := b.logger.With().
		Str("skill", inv.SkillName).
		Str("tenant", inv.TenantID).
		Str("request", inv.RequestID).
		Logger()

	worker, ok := b.skills.Worker(def.Name)
	if !ok {
		logger.Error().Msg("Skill has no worker")
		return models.ErrorResult("Skill " + def.Name + " is not available")
	}

	secrets := map[string]string{}
	if def.RequiresIntegration != "" {
		s, err := b.secrets.Get(ctx, inv.TenantID, def.RequiresIntegration)
		if err != nil {
			logger.Error().Err(err).Str("integration", def.RequiresIntegration).Msg("Failed to get secrets")
			return models.ErrorResult("Integration not configured: " + def.RequiresIntegration)
		}
		secrets = s
	}

	if err := b.skills.ValidateParams(def.Name, inv.Params); err != nil {
		logger.Warn().Err(err).Msg("Rejected invalid parameters")
		return models.ErrorResult(fmt.Sprintf("Invalid parameters for %s: %v", def.Name, err))
	}

	logger.Info().Msg("Executing skill")
	result, err := worker.Execute(ctx, inv.Params, secrets)
	if err != nil {
		friendly := b.errs.Handle(err, "skill."+def.Name)
		out := models.SkillResult(friendly.Map())
		out["error"] = friendly.Message
		return out
	}
	if result == nil {
		result = models.SkillResult{}
	}
	logger.Debug().Int("keys", len(result)).Msg("Skill completed")
	return result
}

func (b *DirectBus) store(requestID string, result models.SkillResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending[requestID] = result
}

// Result returns and removes the result stored under requestID
func (b *DirectBus) Result(requestID string) (models.SkillResult, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	result, ok := b.pending[requestID]
	if ok {
		delete(b.pending, requestID)
	}
	return result, ok
}

// Pending returns the number of results not yet consumed
func (b *DirectBus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
