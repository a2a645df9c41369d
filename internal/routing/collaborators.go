// ABOUTME: Interfaces the orchestrator consumes: model, skill bus, tenants, history, catalog
// ABOUTME: Concrete implementations live in llm, bus, storage and skills packages
package routing

import (
	"context"

	"github.com/WildEllie/t3nets/internal/models"
)

// ModelClient performs model calls
type ModelClient interface {
	Chat(ctx context.Context, req models.ChatRequest) (*models.ModelResponse, error)
	// ChatWithToolResult continues req after call was executed and produced result
	ChatWithToolResult(ctx context.Context, req models.ChatRequest, call models.ToolCall, result models.SkillResult) (*models.ModelResponse, error)
}

// SkillBus executes skills addressed by a caller-chosen request id
type SkillBus interface {
	PublishSkillInvocation(ctx context.Context, inv models.SkillInvocation) error
	// Result returns and consumes the result stored under requestID
	Result(requestID string) (models.SkillResult, bool)
}

// TenantDirectory resolves tenants
type TenantDirectory interface {
	GetTenant(ctx context.Context, tenantID string) (*models.Tenant, error)
}

// HistoryStore reads and appends conversation history
type HistoryStore interface {
	GetConversation(ctx context.Context, tenantID, conversationID string, maxTurns int) ([]models.ChatMessage, error)
	SaveTurn(ctx context.Context, turn *models.Turn) error
	ClearConversation(ctx context.Context, tenantID, conversationID string) error
}

// SkillCatalog exposes skill capability metadata
type SkillCatalog interface {
	ToolsFor(enabled []string) []models.ToolDefinition
	SupportsRaw(skill string) bool
}

// StatsRecorder aggregates per-turn metrics across messages
type StatsRecorder interface {
	RecordTurn(route models.Route, raw bool, tokens int)
	RecordError()
}
