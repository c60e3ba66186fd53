package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hrmserver/internal/chatgpt"
	"hrmserver/internal/conversations"

	"github.com/sirupsen/logrus"
)

// historyWindow caps how many stored messages are replayed to the provider.
// Tool turns consume extra slots, so this is wider than a plain chat window.
const historyWindow = 30

type CompletionClient interface {
	CreateCompletion(ctx context.Context, req chatgpt.Request) (*chatgpt.Completion, error)
}

type ConversationStore interface {
	Create(ctx context.Context, employeeID int64, title string) (*conversations.Conversation, error)
	Get(ctx context.Context, id string, employeeID int64) (*conversations.Conversation, error)
	AppendMessage(ctx context.Context, conversationID, role string, content *string, toolCalls []conversations.ToolCall, toolCallID *string) (*conversations.Message, error)
	Messages(ctx context.Context, conversationID string) ([]conversations.Message, error)
}

type UsageTracker interface {
	Record(ctx context.Context, employeeID int64, intent string, promptTokens, completionTokens *int)
}

// Service drives one conversation turn: user message in, assistant message
// out, with at most one tool round-trip in between.
type Service struct {
	client     CompletionClient
	store      ConversationStore
	dispatcher *Dispatcher
	directory  EmployeeService
	usage      UsageTracker
	catalog    *Catalog
}

func NewService(client CompletionClient, store ConversationStore, dispatcher *Dispatcher, directory EmployeeService, usage UsageTracker, catalog *Catalog) *Service {
	return &Service{
		client:     client,
		store:      store,
		dispatcher: dispatcher,
		directory:  directory,
		usage:      usage,
		catalog:    catalog,
	}
}

// StartConversation creates a conversation, optionally seeded with a first
// user message that runs a full turn.
func (s *Service) StartConversation(ctx context.Context, employeeID int64, title, seedMessage string) (*conversations.Conversation, *conversations.Message, error) {
	if title == "" && seedMessage != "" {
		title = deriveTitle(seedMessage)
	}

	conversation, err := s.store.Create(ctx, employeeID, title)
	if err != nil {
		return nil, nil, err
	}

	if seedMessage == "" {
		return conversation, nil, nil
	}

	reply, err := s.ProcessMessage(ctx, employeeID, conversation.ID, seedMessage)
	if err != nil {
		// The conversation and the stored user message survive for audit.
		return conversation, nil, err
	}
	return conversation, reply, nil
}

// ProcessMessage runs one turn. On provider failure it returns
// ErrAssistantUnavailable; the user's message stays in the stored history.
func (s *Service) ProcessMessage(ctx context.Context, employeeID int64, conversationID, text string) (*conversations.Message, error) {
	conversation, err := s.store.Get(ctx, conversationID, employeeID)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.AppendMessage(ctx, conversation.ID, conversations.RoleUser, &text, nil, nil); err != nil {
		return nil, err
	}

	profile, err := s.directory.GetProfile(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	actor := Actor{ID: profile.ID, Role: profile.Role, FullName: profile.FullName}

	history, err := s.store.Messages(ctx, conversation.ID)
	if err != nil {
		return nil, err
	}
	messages := buildChatMessages(buildSystemPrompt(actor), history)

	logrus.Infof("Requesting completion for conversation %s (%d messages, %d tools)",
		conversation.ID, len(messages), len(s.catalog.Tools()))

	completion, err := s.client.CreateCompletion(ctx, chatgpt.Request{
		Messages:   messages,
		Tools:      s.catalog.Tools(),
		ToolChoice: chatgpt.ToolChoiceAuto,
	})
	if err != nil {
		logrus.Errorf("Completion failed for conversation %s: %v", conversation.ID, err)
		return nil, fmt.Errorf("%w: %v", ErrAssistantUnavailable, err)
	}

	promptTokens, completionTokens := completion.PromptTokens, completion.CompletionTokens

	if len(completion.ToolCalls) == 0 {
		reply, err := s.store.AppendMessage(ctx, conversation.ID, conversations.RoleAssistant, &completion.Text, nil, nil)
		if err != nil {
			return nil, err
		}
		s.usage.Record(ctx, employeeID, "chat", promptTokens, completionTokens)
		return reply, nil
	}

	intent := completion.ToolCalls[0].Name
	logrus.Infof("Model requested %d tool call(s) in conversation %s, first: %s",
		len(completion.ToolCalls), conversation.ID, intent)

	// The assistant's deferral is recorded before any tool runs so the
	// stored history never shows a tool result without its request.
	assistantCalls := make([]conversations.ToolCall, 0, len(completion.ToolCalls))
	for _, call := range completion.ToolCalls {
		assistantCalls = append(assistantCalls, conversations.ToolCall{
			ID:        call.ID,
			Name:      call.Name,
			Arguments: call.Arguments,
		})
	}
	if _, err := s.store.AppendMessage(ctx, conversation.ID, conversations.RoleAssistant, nil, assistantCalls, nil); err != nil {
		return nil, err
	}

	// Dispatch in request order; tool messages mirror that order.
	followUp := append(messages, chatgpt.ChatMessage{
		Role:      conversations.RoleAssistant,
		ToolCalls: completion.ToolCalls,
	})
	for _, call := range completion.ToolCalls {
		result := s.dispatcher.Dispatch(ctx, actor, conversation.ID, call)

		// Replayed results are persisted too: the tool call request recorded
		// above must always have an answering tool message in history, or
		// the provider rejects the conversation on the next turn.
		callID := call.ID
		content := result.Content
		if _, err := s.store.AppendMessage(ctx, conversation.ID, conversations.RoleTool, &content, nil, &callID); err != nil {
			return nil, err
		}

		followUp = append(followUp, chatgpt.ChatMessage{
			Role:       conversations.RoleTool,
			Content:    result.Content,
			ToolCallID: call.ID,
		})
	}

	final, err := s.client.CreateCompletion(ctx, chatgpt.Request{
		Messages:   followUp,
		Tools:      s.catalog.Tools(),
		ToolChoice: chatgpt.ToolChoiceAuto,
	})
	if err != nil {
		logrus.Errorf("Follow-up completion failed for conversation %s: %v", conversation.ID, err)
		return nil, fmt.Errorf("%w: %v", ErrAssistantUnavailable, err)
	}

	promptTokens = sumTokens(promptTokens, final.PromptTokens)
	completionTokens = sumTokens(completionTokens, final.CompletionTokens)

	answer := final.Text
	if len(final.ToolCalls) > 0 {
		// One tool round-trip per turn. A second round of tool requests is
		// not dispatched; the turn ends with a fallback answer.
		logrus.Warnf("Model requested further tool calls after the tool round in conversation %s, answering with fallback", conversation.ID)
		answer = "I could not finish that in one step. Please rephrase or split the request."
	}

	reply, err := s.store.AppendMessage(ctx, conversation.ID, conversations.RoleAssistant, &answer, nil, nil)
	if err != nil {
		return nil, err
	}

	s.usage.Record(ctx, employeeID, intent, promptTokens, completionTokens)
	return reply, nil
}

func buildSystemPrompt(actor Actor) string {
	prompt := `You are the HR assistant of this company. You help employees with leave requests, leave balances, attendance, payslips, holidays, announcements and the employee directory.

RULES:
1. When a question maps to an available tool, call the tool instead of guessing. Never invent balances, dates or amounts.
2. Use only the data returned by tools. If a tool reports an error, explain it in plain language and suggest what the employee can do.
3. Dates are ISO format (YYYY-MM-DD), months are YYYY-MM.
4. Keep answers short and concrete.
5. Do not reveal other employees' data unless a tool returned it.`

	prompt += "\n\nToday is " + time.Now().Format("2006-01-02") + "."
	if actor.FullName != "" {
		prompt += fmt.Sprintf("\nYou are talking to %s (employee id %d).", actor.FullName, actor.ID)
	}
	return prompt
}

func buildChatMessages(systemPrompt string, history []conversations.Message) []chatgpt.ChatMessage {
	start := 0
	if len(history) > historyWindow {
		start = len(history) - historyWindow
	}
	// Never start the window on an orphaned tool result.
	for start < len(history) && history[start].Role == conversations.RoleTool {
		start++
	}

	messages := make([]chatgpt.ChatMessage, 0, len(history)-start+1)
	messages = append(messages, chatgpt.ChatMessage{
		Role:    "system",
		Content: systemPrompt,
	})

	for _, m := range history[start:] {
		converted := chatgpt.ChatMessage{
			Role:    m.Role,
			Content: m.Text(),
		}
		if m.ToolCallID != nil {
			converted.ToolCallID = *m.ToolCallID
		}
		for _, tc := range m.ToolCalls {
			converted.ToolCalls = append(converted.ToolCalls, chatgpt.ToolCallRequest{
				ID:        tc.ID,
				Name:      tc.Name,
				Arguments: tc.Arguments,
			})
		}
		messages = append(messages, converted)
	}

	return messages
}

func deriveTitle(seedMessage string) string {
	title := strings.TrimSpace(seedMessage)
	// Truncate on rune boundaries; cutting at a byte offset can split a
	// multibyte character and produce invalid UTF-8.
	if runes := []rune(title); len(runes) > 60 {
		title = strings.TrimSpace(string(runes[:60])) + "..."
	}
	return title
}

func sumTokens(a, b *int) *int {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	total := *a + *b
	return &total
}
