package chatgpt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func textResponse(content string) map[string]interface{} {
	return map[string]interface{}{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"model":   "gpt-4.1",
		"choices": []map[string]interface{}{{"index": 0, "message": map[string]interface{}{"role": "assistant", "content": content}, "finish_reason": "stop"}},
		"usage":   map[string]int{"prompt_tokens": 42, "completion_tokens": 7, "total_tokens": 49},
	}
}

func TestCreateCompletionText(t *testing.T) {
	var captured map[string]interface{}
	server := stubServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(textResponse("Hello there."))
	})

	service := NewServiceWithBaseURL("test-key", "gpt-4.1", server.URL+"/v1", 5*time.Second)

	completion, err := service.CreateCompletion(context.Background(), Request{
		Messages: []ChatMessage{
			{Role: "system", Content: "You are an HR assistant."},
			{Role: "user", Content: "Hi"},
		},
		Tools: []Tool{{
			Name:        "getHolidays",
			Description: "List holidays",
			Parameters:  ToolParameters{Type: "object", Properties: map[string]Property{}},
		}},
		ToolChoice: ToolChoiceAuto,
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello there.", completion.Text)
	assert.Empty(t, completion.ToolCalls)
	require.NotNil(t, completion.PromptTokens)
	assert.Equal(t, 42, *completion.PromptTokens)
	require.NotNil(t, completion.CompletionTokens)
	assert.Equal(t, 7, *completion.CompletionTokens)

	tools, ok := captured["tools"].([]interface{})
	require.True(t, ok, "tool definitions must be sent with the request")
	require.Len(t, tools, 1)
}

func TestCreateCompletionToolCalls(t *testing.T) {
	server := stubServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "chatcmpl-2",
			"object": "chat.completion",
			"model":  "gpt-4.1",
			"choices": []map[string]interface{}{{
				"index": 0,
				"message": map[string]interface{}{
					"role": "assistant",
					"tool_calls": []map[string]interface{}{{
						"id":   "call_abc",
						"type": "function",
						"function": map[string]interface{}{
							"name":      "getLeaveBalance",
							"arguments": `{"employee_id":7}`,
						},
					}},
				},
				"finish_reason": "tool_calls",
			}},
		})
	})

	service := NewServiceWithBaseURL("test-key", "gpt-4.1", server.URL+"/v1", 5*time.Second)

	completion, err := service.CreateCompletion(context.Background(), Request{
		Messages: []ChatMessage{{Role: "user", Content: "How much leave do I have?"}},
	})
	require.NoError(t, err)

	require.Len(t, completion.ToolCalls, 1)
	call := completion.ToolCalls[0]
	assert.Equal(t, "call_abc", call.ID)
	assert.Equal(t, "getLeaveBalance", call.Name)
	assert.JSONEq(t, `{"employee_id":7}`, string(call.Arguments))
	assert.Empty(t, completion.Text)
}

func TestCreateCompletionTimeout(t *testing.T) {
	server := stubServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(textResponse("too late"))
	})

	service := NewServiceWithBaseURL("test-key", "gpt-4.1", server.URL+"/v1", 50*time.Millisecond)

	_, err := service.CreateCompletion(context.Background(), Request{
		Messages: []ChatMessage{{Role: "user", Content: "Hi"}},
	})
	assert.ErrorIs(t, err, ErrProviderTimeout)
}

func TestCreateCompletionServerError(t *testing.T) {
	server := stubServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	})

	service := NewServiceWithBaseURL("test-key", "gpt-4.1", server.URL+"/v1", 5*time.Second)

	_, err := service.CreateCompletion(context.Background(), Request{
		Messages: []ChatMessage{{Role: "user", Content: "Hi"}},
	})
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestConvertMessagesToolRoles(t *testing.T) {
	converted := convertMessages([]ChatMessage{
		{Role: "assistant", ToolCalls: []ToolCallRequest{{ID: "call_1", Name: "getHolidays", Arguments: json.RawMessage(`{}`)}}},
		{Role: "tool", Content: `{"success":true}`, ToolCallID: "call_1"},
	})

	require.Len(t, converted, 2)
	require.Len(t, converted[0].ToolCalls, 1)
	assert.Equal(t, "call_1", converted[0].ToolCalls[0].ID)
	assert.Equal(t, "getHolidays", converted[0].ToolCalls[0].Function.Name)
	assert.Equal(t, "call_1", converted[1].ToolCallID)
}
