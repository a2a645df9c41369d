// ABOUTME: Orchestrator runs one message through the three-tier routing state machine
// ABOUTME: Conversational -> model without tools; rule match -> skill then narrate; else model with tools
package routing

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apperrors "github.com/WildEllie/t3nets/internal/errors"
	"github.com/WildEllie/t3nets/internal/logging"
	"github.com/WildEllie/t3nets/internal/models"
)

// ErrEmptyMessage is returned for blank input, before any routing happens
var ErrEmptyMessage = errors.New("empty message")

// ErrTenantInactive is returned for suspended or onboarding tenants, before history or skills are touched
var ErrTenantInactive = errors.New("tenant is not active")

// Fallback replies when the model returns no text
const (
	FallbackConversational = "Hey! How can I help?"
	FallbackNarration      = "Got data but couldn't format."
	FallbackModel          = "Not sure how to help."
	MissingResultError     = "No result"
)

// Request is one incoming message
type Request struct {
	TenantID       string
	ConversationID string
	Text           string
	Channel        models.ChannelType
	User           *models.User
}

// TurnMetrics describes the cost and path of one handled message
type TurnMetrics struct {
	Route        models.Route  `json:"route"`
	Raw          bool          `json:"raw"`
	ModelCalls   int           `json:"model_calls"`
	InputTokens  int           `json:"input_tokens"`
	OutputTokens int           `json:"output_tokens"`
	Tokens       int           `json:"tokens"`
	SkillInvoked bool          `json:"skill_invoked"`
	Duration     time.Duration `json:"duration"`
}

func (m *TurnMetrics) addModelCall(resp *models.ModelResponse) {
	m.ModelCalls++
	if resp == nil {
		return
	}
	m.InputTokens += resp.InputTokens
	m.OutputTokens += resp.OutputTokens
	m.Tokens = m.InputTokens + m.OutputTokens
}

// Reply is the outcome of one message
type Reply struct {
	Text           string                   `json:"text"`
	ConversationID string                   `json:"conversation_id"`
	Tier           Tier                     `json:"-"`
	Route          models.Route             `json:"route"`
	Raw            bool                     `json:"raw"`
	Skill          string                   `json:"skill,omitempty"`
	Action         string                   `json:"action,omitempty"`
	Model          string                   `json:"model,omitempty"`
	Metrics        TurnMetrics              `json:"metrics"`
	Failed         bool                     `json:"failed,omitempty"`
	Error          *apperrors.FriendlyError `json:"error,omitempty"`
}

// Deps are the collaborators of an Orchestrator. Every field is required.
type Deps struct {
	Model   ModelClient
	Bus     SkillBus
	Tenants TenantDirectory
	History HistoryStore
	Catalog SkillCatalog
	Matcher *Matcher
}

// Orchestrator routes messages. It holds only read-only state and is safe for concurrent use.
type Orchestrator struct {
	deps         Deps
	defaultModel string
	stats        StatsRecorder
	errs         *apperrors.Handler
	newID        func() string
	logger       zerolog.Logger
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithDefaultModel sets the model used when a tenant has none configured
func WithDefaultModel(model string) Option {
	return func(o *Orchestrator) {
		o.defaultModel = model
	}
}

// WithStats records every handled message in s
func WithStats(s StatsRecorder) Option {
	return func(o *Orchestrator) {
		o.stats = s
	}
}

// WithErrorHandler replaces the friendly error handler
func WithErrorHandler(h *apperrors.Handler) Option {
	return func(o *Orchestrator) {
		o.errs = h
	}
}

// WithIDGenerator replaces the request id suffix generator
func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) {
		o.newID = fn
	}
}

// NewOrchestrator creates an orchestrator over deps. It panics if a dependency is missing.
func NewOrchestrator(deps Deps, opts ...Option) *Orchestrator {
	if name := deps.missing(); name != "" {
		panic("routing: NewOrchestrator requires Deps." + name)
	}
	o := &Orchestrator{
		deps:   deps,
		errs:   apperrors.NewHandler(),
		newID:  func() string { return uuid.New().String() },
		logger: logging.Get("routing.orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (d Deps) missing() string {
	switch {
	case d.Model == nil:
		return "Model"
	case d.Bus == nil:
		return "Bus"
	case d.Tenants == nil:
		return "Tenants"
	case d.History == nil:
		return "History"
	case d.Catalog == nil:
		return "Catalog"
	case d.Matcher == nil:
		return "Matcher"
	}
	return ""
}

// Decide computes the routing decision for text without calling any collaborator
func (o *Orchestrator) Decide(text string, enabled []string) Decision {
	clean, raw := StripRawFlag(strings.TrimSpace(text))
	return Decide(o.deps.Matcher, clean, raw, enabled)
}

// Explain is Decide plus the candidate scores, for dry runs
func (o *Orchestrator) Explain(text string, enabled []string) Explanation {
	return Explain(o.deps.Matcher, text, enabled)
}

// HandleMessage processes req and never fails except for empty input or an inactive tenant.
// Model and infrastructure failures become a friendly reply with Failed set.
func (o *Orchestrator) HandleMessage(ctx context.Context, req Request) (*Reply, error) {
	reply, err := o.Process(ctx, req)
	if err == nil {
		if o.stats != nil {
			o.stats.RecordTurn(reply.Route, reply.Raw, reply.Metrics.Tokens)
		}
		return reply, nil
	}
	if errors.Is(err, ErrEmptyMessage) {
		return nil, err
	}
	if errors.Is(err, ErrTenantInactive) {
		o.logger.Warn().Err(err).Str("tenant", req.TenantID).Msg("Rejected message for inactive tenant")
		return nil, err
	}

	if o.stats != nil {
		o.stats.RecordError()
	}
	friendly := o.errs.Handle(err, "chat")
	o.logger.Error().Err(err).
		Str("tenant", req.TenantID).
		Str("conversation", req.ConversationID).
		Msg("Message handling failed")

	return &Reply{
		Text:           friendly.Message,
		ConversationID: req.ConversationID,
		Failed:         true,
		Error:          &friendly,
	}, nil
}

// turn carries the per-message state shared by the tier handlers
type turn struct {
	req     Request
	tenant  *models.Tenant
	system  string
	model   string
	history []models.ChatMessage
	clean   string
	reply   *Reply
}

// Process runs the routing state machine and returns the raw error on failure
func (o *Orchestrator) Process(ctx context.Context, req Request) (*Reply, error) {
	start := time.Now()

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	clean, raw := StripRawFlag(text)
	if clean == "" {
		return nil, ErrEmptyMessage
	}

	tenant, err := o.deps.Tenants.GetTenant(ctx, req.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant: %w", err)
	}
	if !tenant.IsActive() {
		return nil, fmt.Errorf("%w: %s is %s", ErrTenantInactive, tenant.ID, tenant.Status)
	}
	history, err := o.deps.History.GetConversation(ctx, req.TenantID, req.ConversationID, tenant.Settings.HistoryDepth())
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	model := tenant.Settings.AIModel
	if model == "" {
		model = o.defaultModel
	}

	decision := Decide(o.deps.Matcher, clean, raw, tenant.Settings.EnabledSkills)
	t := &turn{
		req:     req,
		tenant:  tenant,
		system:  BuildSystemPrompt(tenant, req.User, req.Channel),
		model:   model,
		history: history,
		clean:   clean,
		reply: &Reply{
			ConversationID: req.ConversationID,
			Tier:           decision.Tier,
			Route:          decision.Tier.Route(),
			Model:          model,
		},
	}
	t.reply.Metrics.Route = t.reply.Route

	o.logger.Info().
		Str("tenant", req.TenantID).
		Str("conversation", req.ConversationID).
		Str("tier", decision.Tier.String()).
		Bool("raw", raw).
		Msg("Routing message")

	switch decision.Tier {
	case TierConversational:
		err = o.respondConversational(ctx, t)
	case TierRuleMatched:
		err = o.respondRuleMatched(ctx, t, decision.Match, raw)
	default:
		err = o.respondModelRouted(ctx, t, raw)
	}
	if err != nil {
		return nil, err
	}

	t.reply.Metrics.Duration = time.Since(start)
	if !t.reply.Raw {
		o.persist(ctx, t)
	}
	return t.reply, nil
}

func (o *Orchestrator) respondConversational(ctx context.Context, t *turn) error {
	resp, err := o.deps.Model.Chat(ctx, models.ChatRequest{
		Model:     t.model,
		System:    t.system,
		Messages:  withUserMessage(t.history, t.clean),
		MaxTokens: t.tenant.Settings.MaxTokensPerMessage,
	})
	if err != nil {
		return fmt.Errorf("conversational model call failed: %w", err)
	}
	t.reply.Metrics.addModelCall(resp)
	t.reply.Text = textOr(resp, FallbackConversational)
	return nil
}

func (o *Orchestrator) respondRuleMatched(ctx context.Context, t *turn, match *RouteMatch, raw bool) error {
	t.reply.Skill = match.Skill
	t.reply.Action = match.Action

	result := o.invokeSkill(ctx, t, "rule", match.Skill, match.Params)
	if o.rawEligible(raw, match.Skill) {
		o.respondRaw(t, result)
		return nil
	}

	resp, err := o.deps.Model.Chat(ctx, models.ChatRequest{
		Model:     t.model,
		System:    t.system,
		Messages:  withUserMessage(t.history, BuildNarrationPrompt(t.clean, match, result)),
		MaxTokens: t.tenant.Settings.MaxTokensPerMessage,
	})
	if err != nil {
		return fmt.Errorf("narration model call failed: %w", err)
	}
	t.reply.Metrics.addModelCall(resp)
	t.reply.Text = textOr(resp, FallbackNarration)
	return nil
}

func (o *Orchestrator) respondModelRouted(ctx context.Context, t *turn, raw bool) error {
	req := models.ChatRequest{
		Model:     t.model,
		System:    t.system,
		Messages:  withUserMessage(t.history, t.clean),
		Tools:     o.deps.Catalog.ToolsFor(t.tenant.Settings.EnabledSkills),
		MaxTokens: t.tenant.Settings.MaxTokensPerMessage,
	}

	resp, err := o.deps.Model.Chat(ctx, req)
	if err != nil {
		return fmt.Errorf("routing model call failed: %w", err)
	}
	t.reply.Metrics.addModelCall(resp)

	if !resp.HasToolUse() {
		t.reply.Text = textOr(resp, FallbackModel)
		return nil
	}

	// Only the first tool call is executed; extra calls are dropped.
	call := resp.ToolCalls[0]
	if len(resp.ToolCalls) > 1 {
		o.logger.Warn().Int("tool_calls", len(resp.ToolCalls)).Str("executed", call.Name).Msg("Ignoring extra tool calls")
	}

	// The model only sees enabled tools but may still name another one.
	if !slices.Contains(t.tenant.Settings.EnabledSkills, call.Name) {
		o.logger.Warn().Str("tenant", t.req.TenantID).Str("skill", call.Name).Msg("Model requested a skill that is not enabled")
		return o.narrateToolResult(ctx, t, req, call, models.ErrorResult(fmt.Sprintf("Skill %s is not enabled", call.Name)))
	}
	t.reply.Skill = call.Name
	if action, ok := call.Params["action"].(string); ok {
		t.reply.Action = action
	}

	result := o.invokeSkill(ctx, t, "ai", call.Name, call.Params)
	if o.rawEligible(raw, call.Name) {
		o.respondRaw(t, result)
		return nil
	}

	return o.narrateToolResult(ctx, t, req, call, result)
}

func (o *Orchestrator) narrateToolResult(ctx context.Context, t *turn, req models.ChatRequest, call models.ToolCall, result models.SkillResult) error {
	final, err := o.deps.Model.ChatWithToolResult(ctx, req, call, result)
	if err != nil {
		return fmt.Errorf("tool result model call failed: %w", err)
	}
	t.reply.Metrics.addModelCall(final)
	t.reply.Text = textOr(final, FallbackNarration)
	return nil
}

func (o *Orchestrator) rawEligible(raw bool, skill string) bool {
	return raw && o.deps.Catalog.SupportsRaw(skill)
}

func (o *Orchestrator) respondRaw(t *turn, result models.SkillResult) {
	t.reply.Raw = true
	t.reply.Metrics.Raw = true
	t.reply.Text = FormatRaw(result)
}

// invokeSkill runs skill on the bus. Failures become {"error": reason} results.
func (o *Orchestrator) invokeSkill(ctx context.Context, t *turn, prefix, skill string, params map[string]any) models.SkillResult {
	t.reply.Metrics.SkillInvoked = true
	if params == nil {
		params = map[string]any{}
	}

	inv := models.SkillInvocation{
		RequestID:    prefix + "-" + o.newID(),
		TenantID:     t.req.TenantID,
		SessionID:    t.req.ConversationID,
		SkillName:    skill,
		Params:       params,
		ReplyChannel: string(t.req.Channel),
		ReplyTarget:  replyTarget(t.req.User),
	}

	if err := o.deps.Bus.PublishSkillInvocation(ctx, inv); err != nil {
		o.logger.Error().Err(err).Str("skill", skill).Str("request_id", inv.RequestID).Msg("Skill invocation failed")
		return models.ErrorResult(err.Error())
	}
	result, ok := o.deps.Bus.Result(inv.RequestID)
	if !ok || result == nil {
		return models.ErrorResult(MissingResultError)
	}
	return result
}

func (o *Orchestrator) persist(ctx context.Context, t *turn) {
	meta := models.TurnMetadata{
		Route:  t.reply.Route,
		Tokens: t.reply.Metrics.Tokens,
		Model:  t.model,
		Skill:  t.reply.Skill,
		Action: t.reply.Action,
	}
	turnRecord, err := models.NewTurn(t.req.TenantID, t.req.ConversationID, t.clean, t.reply.Text, meta)
	if err == nil {
		err = o.deps.History.SaveTurn(ctx, turnRecord)
	}
	if err != nil {
		o.logger.Error().Err(err).
			Str("tenant", t.req.TenantID).
			Str("conversation", t.req.ConversationID).
			Msg("Failed to persist turn")
	}
}

func withUserMessage(history []models.ChatMessage, content string) []models.ChatMessage {
	msgs := make([]models.ChatMessage, 0, len(history)+1)
	msgs = append(msgs, history...)
	return append(msgs, models.ChatMessage{Role: models.RoleUser, Content: content})
}

func textOr(resp *models.ModelResponse, fallback string) string {
	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		return fallback
	}
	return resp.Text
}

func replyTarget(u *models.User) string {
	if u == nil || u.ID == "" {
		return "user"
	}
	return u.ID
}
