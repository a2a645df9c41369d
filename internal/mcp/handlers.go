// ABOUTME: MCP tool handler implementations for the t3nets router
// ABOUTME: Tool failures are reported as tool errors, never as protocol errors
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/WildEllie/t3nets/internal/models"
	"github.com/WildEllie/t3nets/internal/routing"
)

// DefaultConversation is used when a tool call names none
const DefaultConversation = "mcp-default"

// Router handles and explains messages
type Router interface {
	HandleMessage(ctx context.Context, req routing.Request) (*routing.Reply, error)
	Explain(text string, enabled []string) routing.Explanation
}

// Tenants resolves the tenant whose skills apply
type Tenants interface {
	GetTenant(ctx context.Context, tenantID string) (*models.Tenant, error)
}

// History clears conversations
type History interface {
	ClearConversation(ctx context.Context, tenantID, conversationID string) error
}

// Catalog lists skill definitions
type Catalog interface {
	List() []models.SkillDefinition
}

// Deps are the collaborators of the MCP handlers
type Deps struct {
	TenantID string
	Router   Router
	Tenants  Tenants
	History  History
	Catalog  Catalog
}

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	deps Deps
}

// NewHandlers creates handlers over deps
func NewHandlers(deps Deps) *Handlers {
	return &Handlers{deps: deps}
}

// SendMessage handles the send_message tool
func (h *Handlers) SendMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError("message argument is required and must be a string"), nil
	}
	conversation := request.GetString("conversation_id", DefaultConversation)

	reply, err := h.deps.Router.HandleMessage(ctx, routing.Request{
		TenantID:       h.deps.TenantID,
		ConversationID: conversation,
		Text:           message,
		Channel:        models.ChannelMCP,
		User:           &models.User{ID: "mcp-client", TenantID: h.deps.TenantID},
	})
	if errors.Is(err, routing.ErrEmptyMessage) {
		return mcp.NewToolResultError("message is empty"), nil
	}
	if errors.Is(err, routing.ErrTenantInactive) {
		return mcp.NewToolResultError("tenant is not active"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to handle message: %v", err)), nil
	}
	if reply.Failed {
		return mcp.NewToolResultError(reply.Text), nil
	}
	return jsonResult(reply)
}

// ExplainRoute handles the explain_route tool
func (h *Handlers) ExplainRoute(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError("message argument is required and must be a string"), nil
	}
	enabled, err := h.enabledSkills(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(h.deps.Router.Explain(message, enabled))
}

// skillInfo is one entry of list_skills
type skillInfo struct {
	Name                string   `json:"name"`
	Description         string   `json:"description"`
	Enabled             bool     `json:"enabled"`
	SupportsRaw         bool     `json:"supports_raw"`
	RequiresIntegration string   `json:"requires_integration,omitempty"`
	Triggers            []string `json:"triggers"`
}

// ListSkills handles the list_skills tool
func (h *Handlers) ListSkills(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	enabled, err := h.enabledSkills(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out := []skillInfo{}
	for _, def := range h.deps.Catalog.List() {
		triggers := def.Triggers
		if triggers == nil {
			triggers = []string{}
		}
		out = append(out, skillInfo{
			Name:                def.Name,
			Description:         def.Description,
			Enabled:             slices.Contains(enabled, def.Name),
			SupportsRaw:         def.SupportsRaw,
			RequiresIntegration: def.RequiresIntegration,
			Triggers:            triggers,
		})
	}
	return jsonResult(map[string]any{"skills": out, "count": len(out)})
}

// ClearConversation handles the clear_conversation tool
func (h *Handlers) ClearConversation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	conversation := request.GetString("conversation_id", DefaultConversation)
	if err := h.deps.History.ClearConversation(ctx, h.deps.TenantID, conversation); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to clear conversation: %v", err)), nil
	}
	return jsonResult(map[string]any{"cleared": true, "conversation_id": conversation})
}

func (h *Handlers) enabledSkills(ctx context.Context) ([]string, error) {
	tenant, err := h.deps.Tenants.GetTenant(ctx, h.deps.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant: %w", err)
	}
	return tenant.Settings.EnabledSkills, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
