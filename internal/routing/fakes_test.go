// ABOUTME: In-memory collaborator fakes for orchestrator tests
// ABOUTME: Record every call so tests can assert on tools, prompts and persistence
package routing

import (
	"context"
	"errors"
	"sync"

	"github.com/WildEllie/t3nets/internal/models"
)

type fakeModel struct {
	mu          sync.Mutex
	responses   []*models.ModelResponse
	followUp    *models.ModelResponse
	err         error
	followUpErr error

	chatCalls     []models.ChatRequest
	toolCalls     []models.ToolCall
	toolResults   []models.SkillResult
	followUpCalls []models.ChatRequest
}

func (f *fakeModel) Chat(_ context.Context, req models.ChatRequest) (*models.ModelResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chatCalls = append(f.chatCalls, req)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.responses) == 0 {
		return &models.ModelResponse{}, nil
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func (f *fakeModel) ChatWithToolResult(_ context.Context, req models.ChatRequest, call models.ToolCall, result models.SkillResult) (*models.ModelResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.followUpCalls = append(f.followUpCalls, req)
	f.toolCalls = append(f.toolCalls, call)
	f.toolResults = append(f.toolResults, result)
	if f.followUpErr != nil {
		return nil, f.followUpErr
	}
	if f.followUp == nil {
		return &models.ModelResponse{}, nil
	}
	return f.followUp, nil
}

type fakeBus struct {
	mu          sync.Mutex
	results     map[string]models.SkillResult
	pending     map[string]models.SkillResult
	invocations []models.SkillInvocation
	publishErr  error
	dropResults bool
}

func newFakeBus() *fakeBus {
	return &fakeBus{
		results: map[string]models.SkillResult{},
		pending: map[string]models.SkillResult{},
	}
}

func (b *fakeBus) PublishSkillInvocation(_ context.Context, inv models.SkillInvocation) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.invocations = append(b.invocations, inv)
	if b.publishErr != nil {
		return b.publishErr
	}
	if b.dropResults {
		return nil
	}
	result, ok := b.results[inv.SkillName]
	if !ok {
		result = models.SkillResult{"skill": inv.SkillName}
	}
	b.pending[inv.RequestID] = result
	return nil
}

func (b *fakeBus) Result(requestID string) (models.SkillResult, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.pending[requestID]
	delete(b.pending, requestID)
	return r, ok
}

type fakeTenants struct {
	tenants map[string]*models.Tenant
}

func (f *fakeTenants) GetTenant(_ context.Context, id string) (*models.Tenant, error) {
	t, ok := f.tenants[id]
	if !ok {
		return nil, errors.New("tenant not found: " + id)
	}
	return t, nil
}

type fakeHistory struct {
	mu       sync.Mutex
	messages map[string][]models.ChatMessage
	saved    []*models.Turn
	getErr   error
	saveErr  error
	maxTurns []int
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{messages: map[string][]models.ChatMessage{}}
}

func (h *fakeHistory) GetConversation(_ context.Context, tenantID, conversationID string, maxTurns int) ([]models.ChatMessage, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.maxTurns = append(h.maxTurns, maxTurns)
	if h.getErr != nil {
		return nil, h.getErr
	}
	return append([]models.ChatMessage(nil), h.messages[tenantID+"/"+conversationID]...), nil
}

func (h *fakeHistory) SaveTurn(_ context.Context, turn *models.Turn) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.saveErr != nil {
		return h.saveErr
	}
	h.saved = append(h.saved, turn)
	key := turn.TenantID + "/" + turn.ConversationID
	h.messages[key] = append(h.messages[key], turn.Messages()...)
	return nil
}

func (h *fakeHistory) ClearConversation(_ context.Context, tenantID, conversationID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.messages, tenantID+"/"+conversationID)
	return nil
}

type fakeCatalog struct {
	defs []models.SkillDefinition
}

func (c *fakeCatalog) ToolsFor(enabled []string) []models.ToolDefinition {
	tools := []models.ToolDefinition{}
	for _, name := range enabled {
		for _, d := range c.defs {
			if d.Name == name {
				tools = append(tools, d.Tool())
			}
		}
	}
	return tools
}

func (c *fakeCatalog) SupportsRaw(skill string) bool {
	for _, d := range c.defs {
		if d.Name == skill {
			return d.SupportsRaw
		}
	}
	return false
}

type fakeStats struct {
	mu     sync.Mutex
	turns  []models.Route
	raw    int
	tokens int
	errors int
}

func (s *fakeStats) RecordTurn(route models.Route, raw bool, tokens int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, route)
	if raw {
		s.raw++
	}
	s.tokens += tokens
}

func (s *fakeStats) RecordError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors++
}
