package assistant

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrUnknownTool: the model requested a tool absent from the catalog.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrToolArgumentInvalid: the argument payload failed schema validation.
	ErrToolArgumentInvalid = errors.New("invalid tool arguments")
	// ErrToolExecutionFailed wraps a collaborator failure.
	ErrToolExecutionFailed = errors.New("tool execution failed")
	// ErrAssistantUnavailable aborts the turn; the caller must show a generic
	// message and never the underlying provider error.
	ErrAssistantUnavailable = errors.New("assistant unavailable")
)

// UnavailableMessage is the only text shown to users when a turn fails.
const UnavailableMessage = "The assistant is unavailable right now, please try again in a moment."

// ToolResult is the outcome of one tool call, serialized into the tool
// message fed back to the model.
type ToolResult struct {
	CallID   string
	OK       bool
	Content  string
	Replayed bool
}

type resultEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func successResult(callID string, payload interface{}) ToolResult {
	encoded, err := json.Marshal(resultEnvelope{Success: true, Data: payload})
	if err != nil {
		return failureResult(callID, fmt.Sprintf("could not encode tool result: %v", err))
	}
	return ToolResult{CallID: callID, OK: true, Content: string(encoded)}
}

func failureResult(callID, message string) ToolResult {
	encoded, _ := json.Marshal(resultEnvelope{Success: false, Error: message})
	return ToolResult{CallID: callID, OK: false, Content: string(encoded)}
}

func replayedResult(callID, content string) ToolResult {
	var envelope resultEnvelope
	ok := json.Unmarshal([]byte(content), &envelope) == nil && envelope.Success
	return ToolResult{CallID: callID, OK: ok, Content: content, Replayed: true}
}
