package assistant

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"hrmserver/internal/chatgpt"
	"hrmserver/internal/conversations"
	"hrmserver/internal/employees"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompletionClient struct {
	responses []*chatgpt.Completion
	errs      []error
	requests  []chatgpt.Request
}

func (f *fakeCompletionClient) CreateCompletion(_ context.Context, req chatgpt.Request) (*chatgpt.Completion, error) {
	f.requests = append(f.requests, req)
	i := len(f.requests) - 1
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return &chatgpt.Completion{Text: "default answer"}, nil
}

type fakeStore struct {
	conversations map[string]*conversations.Conversation
	messages      map[string][]conversations.Message
	nextID        int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		conversations: map[string]*conversations.Conversation{},
		messages:      map[string][]conversations.Message{},
	}
}

func (f *fakeStore) Create(_ context.Context, employeeID int64, title string) (*conversations.Conversation, error) {
	conversation := &conversations.Conversation{
		ID:         "conv-1",
		EmployeeID: employeeID,
		Title:      title,
	}
	f.conversations[conversation.ID] = conversation
	return conversation, nil
}

func (f *fakeStore) Get(_ context.Context, id string, employeeID int64) (*conversations.Conversation, error) {
	conversation, ok := f.conversations[id]
	if !ok || conversation.EmployeeID != employeeID {
		return nil, conversations.ErrConversationNotFound
	}
	return conversation, nil
}

func (f *fakeStore) AppendMessage(_ context.Context, conversationID, role string, content *string, toolCalls []conversations.ToolCall, toolCallID *string) (*conversations.Message, error) {
	f.nextID++
	message := conversations.Message{
		ID:             f.nextID,
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		ToolCalls:      toolCalls,
		ToolCallID:     toolCallID,
	}
	f.messages[conversationID] = append(f.messages[conversationID], message)
	return &message, nil
}

func (f *fakeStore) Messages(_ context.Context, conversationID string) ([]conversations.Message, error) {
	return append([]conversations.Message(nil), f.messages[conversationID]...), nil
}

type fakeDirectory struct {
	profile *employees.Employee
}

func (f *fakeDirectory) GetProfile(context.Context, int64) (*employees.Employee, error) {
	return f.profile, nil
}

func (f *fakeDirectory) Search(context.Context, string, int) ([]employees.Employee, error) {
	return nil, nil
}

type usageEntry struct {
	employeeID int64
	intent     string
	prompt     *int
	completion *int
}

type fakeUsage struct {
	entries []usageEntry
}

func (f *fakeUsage) Record(_ context.Context, employeeID int64, intent string, promptTokens, completionTokens *int) {
	f.entries = append(f.entries, usageEntry{employeeID, intent, promptTokens, completionTokens})
}

func intPtr(v int) *int { return &v }

func newTestService(client *fakeCompletionClient, store *fakeStore, handlers map[string]HandlerFunc) (*Service, *fakeUsage) {
	return newTestServiceWithLedger(client, store, handlers, nil)
}

func newTestServiceWithLedger(client *fakeCompletionClient, store *fakeStore, handlers map[string]HandlerFunc, ledger ResultLedger) (*Service, *fakeUsage) {
	catalog := DefaultCatalog()
	usage := &fakeUsage{}
	directory := &fakeDirectory{profile: &employees.Employee{ID: 7, Role: "employee", FullName: "Anna Petrova"}}
	dispatcher := NewDispatcher(catalog, handlers, ledger)
	return NewService(client, store, dispatcher, directory, usage, catalog), usage
}

func seedConversation(store *fakeStore) {
	store.conversations["conv-1"] = &conversations.Conversation{ID: "conv-1", EmployeeID: 7}
}

func TestProcessMessageTextOnly(t *testing.T) {
	client := &fakeCompletionClient{responses: []*chatgpt.Completion{
		{Text: "You have 12 days of casual leave left.", PromptTokens: intPtr(120), CompletionTokens: intPtr(15)},
	}}
	store := newFakeStore()
	seedConversation(store)
	service, usage := newTestService(client, store, map[string]HandlerFunc{})

	reply, err := service.ProcessMessage(context.Background(), 7, "conv-1", "How much leave do I have?")
	require.NoError(t, err)
	assert.Equal(t, "You have 12 days of casual leave left.", reply.Text())

	stored := store.messages["conv-1"]
	require.Len(t, stored, 2)
	assert.Equal(t, conversations.RoleUser, stored[0].Role)
	assert.Equal(t, conversations.RoleAssistant, stored[1].Role)

	require.Len(t, client.requests, 1)
	request := client.requests[0]
	assert.Equal(t, "system", request.Messages[0].Role)
	assert.Equal(t, "How much leave do I have?", request.Messages[len(request.Messages)-1].Content)
	assert.Len(t, request.Tools, 9, "the full catalog is offered on every turn")

	require.Len(t, usage.entries, 1)
	assert.Equal(t, "chat", usage.entries[0].intent)
	assert.Equal(t, 120, *usage.entries[0].prompt)
	assert.Equal(t, 15, *usage.entries[0].completion)
}

func TestProcessMessageToolRoundTrip(t *testing.T) {
	client := &fakeCompletionClient{responses: []*chatgpt.Completion{
		{
			ToolCalls: []chatgpt.ToolCallRequest{
				{ID: "call_a", Name: GetLeaveBalanceTool.Name, Arguments: json.RawMessage(`{}`)},
				{ID: "call_b", Name: GetHolidaysTool.Name, Arguments: json.RawMessage(`{}`)},
			},
			PromptTokens: intPtr(100), CompletionTokens: intPtr(20),
		},
		{Text: "You have 5 days left.", PromptTokens: intPtr(150), CompletionTokens: intPtr(12)},
	}}
	store := newFakeStore()
	seedConversation(store)

	service, usage := newTestService(client, store, map[string]HandlerFunc{
		GetLeaveBalanceTool.Name: func(context.Context, Actor, Args) (interface{}, error) {
			return map[string]int{"remaining": 5}, nil
		},
		GetHolidaysTool.Name: func(context.Context, Actor, Args) (interface{}, error) {
			return []string{"New Year"}, nil
		},
	})

	reply, err := service.ProcessMessage(context.Background(), 7, "conv-1", "How much leave do I have?")
	require.NoError(t, err)
	assert.Equal(t, "You have 5 days left.", reply.Text())

	// user, assistant tool-call, two tool results, final assistant answer
	stored := store.messages["conv-1"]
	require.Len(t, stored, 5)
	assert.Equal(t, conversations.RoleAssistant, stored[1].Role)
	require.Len(t, stored[1].ToolCalls, 2)
	assert.Equal(t, conversations.RoleTool, stored[2].Role)
	assert.Equal(t, "call_a", *stored[2].ToolCallID)
	assert.Equal(t, conversations.RoleTool, stored[3].Role)
	assert.Equal(t, "call_b", *stored[3].ToolCallID)
	assert.Equal(t, conversations.RoleAssistant, stored[4].Role)

	require.Len(t, client.requests, 2)
	followUp := client.requests[1].Messages
	last := followUp[len(followUp)-1]
	assert.Equal(t, conversations.RoleTool, last.Role)
	assert.Equal(t, "call_b", last.ToolCallID)
	secondToLast := followUp[len(followUp)-2]
	assert.Equal(t, "call_a", secondToLast.ToolCallID)

	require.Len(t, usage.entries, 1)
	assert.Equal(t, GetLeaveBalanceTool.Name, usage.entries[0].intent)
	assert.Equal(t, 250, *usage.entries[0].prompt)
	assert.Equal(t, 32, *usage.entries[0].completion)
}

func TestProcessMessageReplayedResultStaysInHistory(t *testing.T) {
	recorded := `{"success":true,"data":{"id":"req-1"}}`
	client := &fakeCompletionClient{responses: []*chatgpt.Completion{
		{
			ToolCalls: []chatgpt.ToolCallRequest{
				{ID: "call_a", Name: ApplyLeaveTool.Name, Arguments: json.RawMessage(`{"leave_type":"Casual","start_date":"2026-09-01","end_date":"2026-09-02"}`)},
			},
		},
		{Text: "Your leave is already filed."},
	}}
	store := newFakeStore()
	seedConversation(store)
	ledger := &fakeLedger{results: map[string]string{"call_a": recorded}}

	service, _ := newTestServiceWithLedger(client, store, map[string]HandlerFunc{
		ApplyLeaveTool.Name: func(context.Context, Actor, Args) (interface{}, error) {
			t.Fatal("a recorded call must never execute again")
			return nil, nil
		},
	}, ledger)

	_, err := service.ProcessMessage(context.Background(), 7, "conv-1", "Please file my leave again")
	require.NoError(t, err)

	// The replayed result is stored like a fresh one: the persisted tool
	// call request always has an answering tool message, so the next turn's
	// history is accepted by the provider.
	stored := store.messages["conv-1"]
	require.Len(t, stored, 4)
	assert.Equal(t, conversations.RoleAssistant, stored[1].Role)
	require.Len(t, stored[1].ToolCalls, 1)
	require.Equal(t, conversations.RoleTool, stored[2].Role)
	assert.Equal(t, "call_a", *stored[2].ToolCallID)
	assert.Equal(t, recorded, stored[2].Text())
	assert.Equal(t, conversations.RoleAssistant, stored[3].Role)

	assert.Equal(t, []string{"conv-1/call_a"}, ledger.queried)
}

func TestDeriveTitleTruncatesOnRuneBoundary(t *testing.T) {
	seed := strings.Repeat("a", 59) + "день отпуска"

	title := deriveTitle(seed)

	assert.True(t, utf8.ValidString(title))
	assert.True(t, strings.HasSuffix(title, "..."))
	assert.Equal(t, strings.Repeat("a", 59)+"д...", title)

	assert.Equal(t, "short question", deriveTitle("  short question  "))
}

func TestProcessMessageProviderFailureKeepsHistory(t *testing.T) {
	client := &fakeCompletionClient{errs: []error{chatgpt.ErrProviderTimeout}}
	store := newFakeStore()
	seedConversation(store)
	service, usage := newTestService(client, store, map[string]HandlerFunc{})

	_, err := service.ProcessMessage(context.Background(), 7, "conv-1", "Hello?")
	assert.ErrorIs(t, err, ErrAssistantUnavailable)

	stored := store.messages["conv-1"]
	require.Len(t, stored, 1, "the user message survives a failed turn")
	assert.Equal(t, conversations.RoleUser, stored[0].Role)
	assert.Empty(t, usage.entries, "failed turns are not billed")
}

func TestProcessMessageSecondToolRoundFallsBack(t *testing.T) {
	client := &fakeCompletionClient{responses: []*chatgpt.Completion{
		{ToolCalls: []chatgpt.ToolCallRequest{{ID: "call_a", Name: GetHolidaysTool.Name, Arguments: json.RawMessage(`{}`)}}},
		{ToolCalls: []chatgpt.ToolCallRequest{{ID: "call_c", Name: GetHolidaysTool.Name, Arguments: json.RawMessage(`{}`)}}},
	}}
	store := newFakeStore()
	seedConversation(store)

	executions := 0
	service, _ := newTestService(client, store, map[string]HandlerFunc{
		GetHolidaysTool.Name: func(context.Context, Actor, Args) (interface{}, error) {
			executions++
			return []string{}, nil
		},
	})

	reply, err := service.ProcessMessage(context.Background(), 7, "conv-1", "holidays?")
	require.NoError(t, err)
	assert.Equal(t, 1, executions, "only the first round of tool calls runs")
	assert.Contains(t, reply.Text(), "could not finish")
	require.Len(t, client.requests, 2)
}

func TestProcessMessageUnknownToolStillAnswers(t *testing.T) {
	client := &fakeCompletionClient{responses: []*chatgpt.Completion{
		{ToolCalls: []chatgpt.ToolCallRequest{{ID: "call_x", Name: "launchRocket", Arguments: json.RawMessage(`{}`)}}},
		{Text: "I cannot do that."},
	}}
	store := newFakeStore()
	seedConversation(store)
	service, _ := newTestService(client, store, map[string]HandlerFunc{})

	reply, err := service.ProcessMessage(context.Background(), 7, "conv-1", "launch a rocket")
	require.NoError(t, err, "an unknown tool never faults the turn")
	assert.Equal(t, "I cannot do that.", reply.Text())

	stored := store.messages["conv-1"]
	require.Len(t, stored, 4)
	assert.Equal(t, conversations.RoleTool, stored[2].Role)
	assert.Contains(t, stored[2].Text(), "unknown tool")
}

func TestProcessMessageRejectsForeignConversation(t *testing.T) {
	store := newFakeStore()
	store.conversations["conv-1"] = &conversations.Conversation{ID: "conv-1", EmployeeID: 99}
	service, _ := newTestService(&fakeCompletionClient{}, store, map[string]HandlerFunc{})

	_, err := service.ProcessMessage(context.Background(), 7, "conv-1", "hi")
	assert.ErrorIs(t, err, conversations.ErrConversationNotFound)
}

func TestStartConversationDerivesTitle(t *testing.T) {
	client := &fakeCompletionClient{responses: []*chatgpt.Completion{{Text: "Hello Anna."}}}
	store := newFakeStore()
	service, _ := newTestService(client, store, map[string]HandlerFunc{})

	conversation, reply, err := service.StartConversation(context.Background(), 7, "", "How many holidays are left this year?")
	require.NoError(t, err)
	assert.Equal(t, "How many holidays are left this year?", conversation.Title)
	require.NotNil(t, reply)
	assert.Equal(t, "Hello Anna.", reply.Text())
}

func TestBuildChatMessagesWindowSkipsOrphanedToolResults(t *testing.T) {
	content := "x"
	callID := "call_1"
	var history []conversations.Message
	for i := 0; i < 5; i++ {
		history = append(history, conversations.Message{Role: conversations.RoleUser, Content: &content})
	}
	// The window boundary lands exactly on this tool result.
	history = append(history, conversations.Message{Role: conversations.RoleTool, Content: &content, ToolCallID: &callID})
	for i := 0; i < historyWindow-1; i++ {
		history = append(history, conversations.Message{Role: conversations.RoleUser, Content: &content})
	}

	messages := buildChatMessages("system prompt", history)

	assert.Equal(t, "system", messages[0].Role)
	assert.Len(t, messages, historyWindow, "the orphaned tool result is dropped from the window")
	for _, m := range messages[1:] {
		assert.NotEqual(t, conversations.RoleTool, m.Role, "a window never starts on an orphaned tool result")
	}
}
