// ABOUTME: Turn storage operations for SQLite
// ABOUTME: Appends turns per conversation and reads back the most recent window in order
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/WildEllie/t3nets/internal/models"
)

// TurnStore handles turn persistence
type TurnStore struct {
	db *DB
}

// NewTurnStore creates a new TurnStore
func NewTurnStore(db *DB) *TurnStore {
	return &TurnStore{db: db}
}

// Save appends a turn to its conversation
func (s *TurnStore) Save(ctx context.Context, turn *models.Turn) error {
	ts := turn.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO turns (id, tenant_id, conversation_id, user_message, assistant_message,
			route, tokens, model, skill, action, seq, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
			(SELECT COALESCE(MAX(seq), 0) + 1 FROM turns WHERE tenant_id = ? AND conversation_id = ?),
			?)
	`, turn.TurnID, turn.TenantID, turn.ConversationID, turn.UserMessage, turn.AssistantMessage,
		string(turn.Metadata.Route), turn.Metadata.Tokens, turn.Metadata.Model, turn.Metadata.Skill, turn.Metadata.Action,
		turn.TenantID, turn.ConversationID,
		ts.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save turn: %w", err)
	}
	return nil
}

// Recent returns up to limit of the newest turns, oldest first. limit <= 0 returns all.
func (s *TurnStore) Recent(ctx context.Context, tenantID, conversationID string, limit int) ([]models.Turn, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, tenant_id, conversation_id, user_message, assistant_message,
			route, tokens, model, skill, action, created_at
		FROM (
			SELECT * FROM turns
			WHERE tenant_id = ? AND conversation_id = ?
			ORDER BY seq DESC
			LIMIT ?
		)
		ORDER BY seq ASC
	`, tenantID, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var turns []models.Turn
	for rows.Next() {
		var (
			turn                 models.Turn
			route                string
			model, skill, action sql.NullString
			createdAt            int64
		)
		err := rows.Scan(&turn.TurnID, &turn.TenantID, &turn.ConversationID, &turn.UserMessage, &turn.AssistantMessage,
			&route, &turn.Metadata.Tokens, &model, &skill, &action, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turn.Metadata.Route = models.Route(route)
		turn.Metadata.Model = model.String
		turn.Metadata.Skill = skill.String
		turn.Metadata.Action = action.String
		turn.Timestamp = time.UnixMilli(createdAt).UTC()
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

// Clear deletes every turn of a conversation and returns how many were removed
func (s *TurnStore) Clear(ctx context.Context, tenantID, conversationID string) (int64, error) {
	res, err := s.db.Exec(ctx, `DELETE FROM turns WHERE tenant_id = ? AND conversation_id = ?`, tenantID, conversationID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear conversation: %w", err)
	}
	return res.RowsAffected()
}

// Conversations lists the conversations of a tenant, most recently active first
func (s *TurnStore) Conversations(ctx context.Context, tenantID string) ([]models.ConversationInfo, error) {
	rows, err := s.db.Query(ctx, `
		SELECT conversation_id, COUNT(*), MAX(created_at)
		FROM turns
		WHERE tenant_id = ?
		GROUP BY conversation_id
		ORDER BY MAX(created_at) DESC, conversation_id ASC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.ConversationInfo
	for rows.Next() {
		var (
			info models.ConversationInfo
			last int64
		)
		if err := rows.Scan(&info.ConversationID, &info.TurnCount, &last); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		info.LastActivity = time.UnixMilli(last).UTC()
		out = append(out, info)
	}
	return out, rows.Err()
}
