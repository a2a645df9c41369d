// ABOUTME: Conversation export for audits and handoffs
// ABOUTME: Supports YAML and Markdown export formats over any backend
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/WildEllie/t3nets/internal/models"
)

// TurnSource loads the full turns of a conversation
type TurnSource interface {
	GetTurns(ctx context.Context, tenantID, conversationID string) ([]models.Turn, error)
}

// ExportData is one exported conversation
type ExportData struct {
	Version        string       `yaml:"version" json:"version"`
	ExportedAt     string       `yaml:"exported_at" json:"exported_at"`
	Tool           string       `yaml:"tool" json:"tool"`
	TenantID       string       `yaml:"tenant_id" json:"tenant_id"`
	ConversationID string       `yaml:"conversation_id" json:"conversation_id"`
	Turns          []ExportTurn `yaml:"turns" json:"turns"`
}

// ExportTurn represents a turn for export
type ExportTurn struct {
	TurnID           string `yaml:"turn_id" json:"turn_id"`
	UserMessage      string `yaml:"user_message" json:"user_message"`
	AssistantMessage string `yaml:"assistant_message" json:"assistant_message"`
	Route            string `yaml:"route" json:"route"`
	Skill            string `yaml:"skill,omitempty" json:"skill,omitempty"`
	Action           string `yaml:"action,omitempty" json:"action,omitempty"`
	Tokens           int    `yaml:"tokens" json:"tokens"`
	Timestamp        string `yaml:"timestamp" json:"timestamp"`
}

// Export collects a conversation for export
func Export(ctx context.Context, src TurnSource, tenantID, conversationID string) (*ExportData, error) {
	turns, err := src.GetTurns(ctx, tenantID, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load turns: %w", err)
	}

	data := &ExportData{
		Version:        "1.0",
		ExportedAt:     time.Now().Format(time.RFC3339),
		Tool:           "t3nets",
		TenantID:       tenantID,
		ConversationID: conversationID,
		Turns:          make([]ExportTurn, 0, len(turns)),
	}
	for _, turn := range turns {
		data.Turns = append(data.Turns, ExportTurn{
			TurnID:           turn.TurnID,
			UserMessage:      turn.UserMessage,
			AssistantMessage: turn.AssistantMessage,
			Route:            string(turn.Metadata.Route),
			Skill:            turn.Metadata.Skill,
			Action:           turn.Metadata.Action,
			Tokens:           turn.Metadata.Tokens,
			Timestamp:        turn.Timestamp.Format(time.RFC3339),
		})
	}
	return data, nil
}

// WriteYAML writes an export as YAML
func WriteYAML(w io.Writer, data *ExportData) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}

// WriteMarkdown writes an export as Markdown
func WriteMarkdown(w io.Writer, data *ExportData) error {
	_, _ = fmt.Fprintf(w, "# Conversation %s\n\n", data.ConversationID)
	_, _ = fmt.Fprintf(w, "Tenant: %s\n\n", data.TenantID)
	_, _ = fmt.Fprintf(w, "Generated: %s\n\n", data.ExportedAt)

	if len(data.Turns) == 0 {
		_, err := fmt.Fprintln(w, "*No turns recorded.*")
		return err
	}

	for _, turn := range data.Turns {
		route := turn.Route
		if turn.Skill != "" {
			route = fmt.Sprintf("%s via %s", route, turn.Skill)
			if turn.Action != "" {
				route += "/" + turn.Action
			}
		}
		_, _ = fmt.Fprintf(w, "### %s (%s)\n\n", turn.Timestamp, route)
		_, _ = fmt.Fprintf(w, "**User:** %s\n\n", turn.UserMessage)
		_, _ = fmt.Fprintf(w, "**Assistant:** %s\n\n", turn.AssistantMessage)
		_, _ = fmt.Fprintln(w, "---")
		_, _ = fmt.Fprintln(w)
	}
	return nil
}
