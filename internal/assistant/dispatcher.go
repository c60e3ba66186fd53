package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"hrmserver/internal/chatgpt"
	"hrmserver/internal/conversations"

	"github.com/sirupsen/logrus"
)

// Actor is the authenticated employee a tool call runs on behalf of.
type Actor struct {
	ID       int64
	Role     string
	FullName string
}

// CanViewOthers mirrors the directory-side role check for handlers that
// accept an explicit employee_id.
func (a Actor) CanViewOthers() bool {
	return a.Role == "hr" || a.Role == "admin"
}

// Args is a validated, coerced argument payload.
type Args map[string]interface{}

func (a Args) String(key string) string {
	v, _ := a[key].(string)
	return v
}

func (a Args) Float(key string) float64 {
	v, _ := a[key].(float64)
	return v
}

func (a Args) Int(key string) int {
	return int(a.Float(key))
}

func (a Args) Int64(key string) int64 {
	return int64(a.Float(key))
}

func (a Args) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// HandlerFunc executes one validated tool call for an actor.
type HandlerFunc func(ctx context.Context, actor Actor, args Args) (interface{}, error)

// ResultLedger looks up previously recorded tool results by conversation and
// provider call id. It backs the at-most-once guarantee for mutating tools
// under retries.
type ResultLedger interface {
	GetToolResult(ctx context.Context, conversationID, toolCallID string) (*conversations.Message, error)
}

// Dispatcher resolves model-requested tool calls against a name-keyed handler
// registry. Every failure becomes a ToolResult; nothing escapes as a fault.
type Dispatcher struct {
	catalog  *Catalog
	handlers map[string]HandlerFunc
	ledger   ResultLedger
}

func NewDispatcher(catalog *Catalog, handlers map[string]HandlerFunc, ledger ResultLedger) *Dispatcher {
	return &Dispatcher{
		catalog:  catalog,
		handlers: handlers,
		ledger:   ledger,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, actor Actor, conversationID string, call chatgpt.ToolCallRequest) ToolResult {
	definition, inCatalog := d.catalog.Lookup(call.Name)
	handler, registered := d.handlers[call.Name]
	if !inCatalog || !registered {
		logrus.Warnf("Model requested unknown tool %q for employee %d", call.Name, actor.ID)
		return failureResult(call.ID, fmt.Sprintf("%v: %q is not an available tool", ErrUnknownTool, call.Name))
	}

	if d.ledger != nil && conversationID != "" && call.ID != "" {
		recorded, err := d.ledger.GetToolResult(ctx, conversationID, call.ID)
		if err != nil {
			logrus.Errorf("Failed to consult tool result ledger for call %s: %v", call.ID, err)
		} else if recorded != nil {
			logrus.Infof("Replaying recorded result for tool call %s (%s)", call.ID, call.Name)
			return replayedResult(call.ID, recorded.Text())
		}
	}

	args, err := validateArguments(definition, call.Arguments)
	if err != nil {
		logrus.Warnf("Invalid arguments for tool %s: %v", call.Name, err)
		return failureResult(call.ID, fmt.Sprintf("%v: %v", ErrToolArgumentInvalid, err))
	}

	payload, err := handler(ctx, actor, args)
	if err != nil {
		logrus.Errorf("Tool %s failed for employee %d: %v", call.Name, actor.ID, err)
		return failureResult(call.ID, safeExecutionMessage(err))
	}

	logrus.Infof("Tool %s executed for employee %d", call.Name, actor.ID)
	return successResult(call.ID, payload)
}

// validateArguments checks the raw payload against the tool's declarative
// schema: required parameters, primitive types and closed enumerations.
// Parameters outside the schema are dropped.
func validateArguments(definition chatgpt.Tool, raw json.RawMessage) (Args, error) {
	payload := map[string]interface{}{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("argument payload is not a JSON object: %v", err)
		}
	}

	for _, required := range definition.Parameters.Required {
		if _, ok := payload[required]; !ok {
			return nil, fmt.Errorf("missing required parameter %q", required)
		}
	}

	args := Args{}
	for name, property := range definition.Parameters.Properties {
		value, ok := payload[name]
		if !ok || value == nil {
			continue
		}

		switch property.Type {
		case "string":
			str, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("parameter %q must be a string", name)
			}
			if len(property.Enum) > 0 && !containsString(property.Enum, str) {
				return nil, fmt.Errorf("parameter %q must be one of %v", name, property.Enum)
			}
			args[name] = str
		case "number":
			num, ok := value.(float64)
			if !ok {
				return nil, fmt.Errorf("parameter %q must be a number", name)
			}
			args[name] = num
		case "integer":
			num, ok := value.(float64)
			if !ok || num != math.Trunc(num) {
				return nil, fmt.Errorf("parameter %q must be an integer", name)
			}
			args[name] = num
		case "boolean":
			b, ok := value.(bool)
			if !ok {
				return nil, fmt.Errorf("parameter %q must be a boolean", name)
			}
			args[name] = b
		default:
			args[name] = value
		}
	}

	return args, nil
}

// safeExecutionMessage keeps collaborator errors conversational without
// leaking internals. Domain errors carry their own user-safe text; anything
// else is reduced to a generic line.
func safeExecutionMessage(err error) string {
	if msg, ok := domainMessage(err); ok {
		return fmt.Sprintf("%v: %s", ErrToolExecutionFailed, msg)
	}
	return fmt.Sprintf("%v: the operation could not be completed", ErrToolExecutionFailed)
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
