package conversations

import (
	"encoding/json"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

type Conversation struct {
	ID         string    `db:"id" json:"id"`
	EmployeeID int64     `db:"employee_id" json:"employee_id"`
	Title      string    `db:"title" json:"title"`
	Pinned     bool      `db:"pinned" json:"pinned"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// ToolCall is a provider-issued request to invoke a named tool. The ID is the
// provider's correlation id; Arguments is the raw payload as received.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type Message struct {
	ID             int64      `db:"id" json:"id"`
	ConversationID string     `db:"conversation_id" json:"conversation_id"`
	Role           string     `db:"role" json:"role"`
	Content        *string    `db:"content" json:"content,omitempty"`
	ToolCallsJSON  []byte     `db:"tool_calls" json:"-"`
	ToolCallID     *string    `db:"tool_call_id" json:"tool_call_id,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	ToolCalls      []ToolCall `db:"-" json:"tool_calls,omitempty"`
}

func (m *Message) decodeToolCalls() error {
	if len(m.ToolCallsJSON) == 0 {
		return nil
	}
	return json.Unmarshal(m.ToolCallsJSON, &m.ToolCalls)
}

func (m *Message) Text() string {
	if m.Content == nil {
		return ""
	}
	return *m.Content
}
