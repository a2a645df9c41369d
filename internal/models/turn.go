// ABOUTME: Turn represents one persisted user/assistant exchange
// ABOUTME: Carries routing metadata (tier, tokens, model, skill) for observability
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TurnMetadata describes how a turn was handled
type TurnMetadata struct {
	Route  Route  `json:"route"`
	Tokens int    `json:"tokens"`
	Model  string `json:"model,omitempty"`
	Skill  string `json:"skill,omitempty"`
	Action string `json:"action,omitempty"`
}

// Turn represents a single conversation turn
type Turn struct {
	TurnID           string       `json:"turn_id"`
	TenantID         string       `json:"tenant_id"`
	ConversationID   string       `json:"conversation_id"`
	Timestamp        time.Time    `json:"timestamp"`
	UserMessage      string       `json:"user_message"`
	AssistantMessage string       `json:"assistant_message"`
	Metadata         TurnMetadata `json:"metadata"`
}

// ConversationInfo summarizes one stored conversation
type ConversationInfo struct {
	ConversationID string    `json:"conversation_id"`
	TurnCount      int       `json:"turn_count"`
	LastActivity   time.Time `json:"last_activity"`
}

// NewTurn creates a new Turn with validation
func NewTurn(tenantID, conversationID, userMessage, assistantMessage string, meta TurnMetadata) (*Turn, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, errors.New("tenant id cannot be empty")
	}
	if strings.TrimSpace(conversationID) == "" {
		return nil, errors.New("conversation id cannot be empty")
	}
	if strings.TrimSpace(userMessage) == "" {
		return nil, errors.New("user message cannot be empty")
	}
	return &Turn{
		TurnID:           generateTurnID(),
		TenantID:         tenantID,
		ConversationID:   conversationID,
		Timestamp:        time.Now().UTC(),
		UserMessage:      userMessage,
		AssistantMessage: assistantMessage,
		Metadata:         meta,
	}, nil
}

// Messages expands the turn into its user and assistant chat messages
func (t *Turn) Messages() []ChatMessage {
	return []ChatMessage{
		{Role: RoleUser, Content: t.UserMessage},
		{Role: RoleAssistant, Content: t.AssistantMessage},
	}
}

// generateTurnID generates a unique turn identifier
func generateTurnID() string {
	return fmt.Sprintf("turn_%s_%s", time.Now().Format("20060102_150405"), uuid.New().String()[:8])
}
