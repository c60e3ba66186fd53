package conversations

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

const conversationColumns = `id, employee_id, title, pinned, created_at, updated_at`

func (r *Repository) CreateConversation(ctx context.Context, employeeID int64, title string) (*Conversation, error) {
	if title == "" {
		title = "New conversation"
	}

	query := `
		INSERT INTO conversations (id, employee_id, title)
		VALUES ($1, $2, $3)
		RETURNING ` + conversationColumns

	var conversation Conversation
	err := r.db.GetContext(ctx, &conversation, query, uuid.New().String(), employeeID, title)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return &conversation, nil
}

func (r *Repository) GetConversation(ctx context.Context, id string, employeeID int64) (*Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1 AND employee_id = $2`

	var conversation Conversation
	err := r.db.GetContext(ctx, &conversation, query, id, employeeID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conversation, nil
}

func (r *Repository) ListConversations(ctx context.Context, employeeID int64, offset, limit int) ([]Conversation, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM conversations WHERE employee_id = $1`
	if err := r.db.GetContext(ctx, &total, countQuery, employeeID); err != nil {
		return nil, 0, fmt.Errorf("failed to count conversations: %w", err)
	}

	query := `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE employee_id = $1
		ORDER BY pinned DESC, updated_at DESC
		LIMIT $2 OFFSET $3
	`

	var result []Conversation
	if err := r.db.SelectContext(ctx, &result, query, employeeID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list conversations: %w", err)
	}
	return result, total, nil
}

func (r *Repository) SearchConversations(ctx context.Context, employeeID int64, text string, limit int) ([]Conversation, error) {
	query := `
		SELECT DISTINCT c.id, c.employee_id, c.title, c.pinned, c.created_at, c.updated_at
		FROM conversations c
		LEFT JOIN messages m ON m.conversation_id = c.id
		WHERE c.employee_id = $1
		  AND (LOWER(c.title) LIKE LOWER($2) OR LOWER(COALESCE(m.content, '')) LIKE LOWER($2))
		ORDER BY c.updated_at DESC
		LIMIT $3
	`

	var result []Conversation
	err := r.db.SelectContext(ctx, &result, query, employeeID, "%"+text+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search conversations: %w", err)
	}
	return result, nil
}

func (r *Repository) UpdateConversation(ctx context.Context, id string, employeeID int64, title *string, pinned *bool) (*Conversation, error) {
	query := `
		UPDATE conversations
		SET title = COALESCE($3, title),
		    pinned = COALESCE($4, pinned),
		    updated_at = NOW()
		WHERE id = $1 AND employee_id = $2
		RETURNING ` + conversationColumns

	var conversation Conversation
	err := r.db.GetContext(ctx, &conversation, query, id, employeeID, title, pinned)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update conversation: %w", err)
	}
	return &conversation, nil
}

func (r *Repository) DeleteConversation(ctx context.Context, id string, employeeID int64) (bool, error) {
	// Messages go with the conversation via ON DELETE CASCADE.
	query := `DELETE FROM conversations WHERE id = $1 AND employee_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, employeeID)
	if err != nil {
		return false, fmt.Errorf("failed to delete conversation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *Repository) AppendMessage(ctx context.Context, conversationID, role string, content *string, toolCalls []ToolCall, toolCallID *string) (*Message, error) {
	var toolCallsJSON interface{}
	if len(toolCalls) > 0 {
		encoded, err := json.Marshal(toolCalls)
		if err != nil {
			return nil, fmt.Errorf("failed to encode tool calls: %w", err)
		}
		toolCallsJSON = encoded
	}

	query := `
		INSERT INTO messages (conversation_id, role, content, tool_calls, tool_call_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, conversation_id, role, content, tool_calls, tool_call_id, created_at
	`

	var message Message
	err := r.db.GetContext(ctx, &message, query, conversationID, role, content, toolCallsJSON, toolCallID)
	if err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}
	if err := message.decodeToolCalls(); err != nil {
		return nil, fmt.Errorf("failed to decode tool calls: %w", err)
	}

	touchQuery := `UPDATE conversations SET updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, touchQuery, conversationID); err != nil {
		logrus.Warnf("Failed to touch conversation %s: %v", conversationID, err)
	}

	return &message, nil
}

func (r *Repository) GetMessages(ctx context.Context, conversationID string) ([]Message, error) {
	query := `
		SELECT id, conversation_id, role, content, tool_calls, tool_call_id, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY id ASC
	`

	var messages []Message
	if err := r.db.SelectContext(ctx, &messages, query, conversationID); err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	for i := range messages {
		if err := messages[i].decodeToolCalls(); err != nil {
			return nil, fmt.Errorf("failed to decode tool calls: %w", err)
		}
	}
	return messages, nil
}

// GetToolResult returns the earliest stored tool message answering the given
// provider call id within a conversation, if any. Call ids are only
// meaningful inside the conversation that produced them, so the lookup never
// crosses conversations.
func (r *Repository) GetToolResult(ctx context.Context, conversationID, toolCallID string) (*Message, error) {
	query := `
		SELECT id, conversation_id, role, content, tool_calls, tool_call_id, created_at
		FROM messages
		WHERE conversation_id = $1 AND tool_call_id = $2 AND role = $3
		ORDER BY id ASC
		LIMIT 1
	`

	var message Message
	err := r.db.GetContext(ctx, &message, query, conversationID, toolCallID, RoleTool)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up tool result: %w", err)
	}
	return &message, nil
}
