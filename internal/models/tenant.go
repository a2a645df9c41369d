// ABOUTME: Tenant, tenant settings and user models
// ABOUTME: Tenants own enabled skills, model choice, prompt override and history depth
package models

import "time"

// Tenant statuses
const (
	TenantActive     = "active"
	TenantSuspended  = "suspended"
	TenantOnboarding = "onboarding"
)

// DefaultMaxConversationHistory is the number of turns replayed to the model
const DefaultMaxConversationHistory = 20

// TenantSettings holds per-tenant configuration
type TenantSettings struct {
	AIModel                string   `json:"ai_model,omitempty"`
	SystemPromptOverride   string   `json:"system_prompt_override,omitempty"`
	MaxTokensPerMessage    int      `json:"max_tokens_per_message"`
	EnabledChannels        []string `json:"enabled_channels"`
	EnabledSkills          []string `json:"enabled_skills"`
	MessagesPerDay         int      `json:"messages_per_day"`
	MaxConversationHistory int      `json:"max_conversation_history"`
}

// DefaultTenantSettings returns settings for a freshly created tenant
func DefaultTenantSettings() TenantSettings {
	return TenantSettings{
		MaxTokensPerMessage:    4096,
		EnabledChannels:        []string{string(ChannelDashboard)},
		EnabledSkills:          []string{},
		MessagesPerDay:         1000,
		MaxConversationHistory: DefaultMaxConversationHistory,
	}
}

// HistoryDepth returns the configured history depth, falling back to the default
func (s TenantSettings) HistoryDepth() int {
	if s.MaxConversationHistory <= 0 {
		return DefaultMaxConversationHistory
	}
	return s.MaxConversationHistory
}

// Tenant is a team or organization using the platform
type Tenant struct {
	ID        string         `json:"tenant_id"`
	Name      string         `json:"name"`
	Status    string         `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	Settings  TenantSettings `json:"settings"`
}

// IsActive reports whether the tenant may receive messages
func (t *Tenant) IsActive() bool {
	return t.Status == TenantActive
}

// User is an individual person within a tenant
type User struct {
	ID          string `json:"user_id"`
	TenantID    string `json:"tenant_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// ChannelType identifies where a message came from and where the reply goes
type ChannelType string

const (
	ChannelDashboard ChannelType = "dashboard"
	ChannelAPI       ChannelType = "api"
	ChannelWebSocket ChannelType = "websocket"
	ChannelCLI       ChannelType = "cli"
	ChannelMCP       ChannelType = "mcp"
	ChannelSMS       ChannelType = "sms"
	ChannelVoice     ChannelType = "voice"
)
