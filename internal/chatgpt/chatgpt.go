package chatgpt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

var (
	// ErrProviderUnavailable covers network, auth and rate-limit failures.
	ErrProviderUnavailable = errors.New("completion provider unavailable")
	// ErrProviderTimeout is the bounded-call deadline expiring.
	ErrProviderTimeout = errors.New("completion provider timed out")
	// ErrEmptyResponse means the provider answered with no choices at all.
	ErrEmptyResponse = errors.New("no response from completion provider")
)

const (
	ToolChoiceAuto = "auto"
	ToolChoiceNone = "none"
)

// ChatMessage is one turn of provider input in neutral form.
type ChatMessage struct {
	Role       string
	Content    string
	ToolCalls  []ToolCallRequest // assistant messages deferring to tools
	ToolCallID string            // set on tool-role messages
}

// ToolCallRequest is a provider-issued instruction to invoke a named tool.
type ToolCallRequest struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// Completion carries exactly one of Text or ToolCalls.
type Completion struct {
	Text             string
	ToolCalls        []ToolCallRequest
	PromptTokens     *int
	CompletionTokens *int
}

type Request struct {
	Messages    []ChatMessage
	Tools       []Tool
	ToolChoice  string
	Temperature float32
}

type Service struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

func NewService(apiKey, model string, timeout time.Duration) *Service {
	return &Service{
		client:  openai.NewClient(apiKey),
		model:   model,
		timeout: timeout,
	}
}

// NewServiceWithBaseURL points the client at an alternative endpoint. Used by
// tests to run against a local stub.
func NewServiceWithBaseURL(apiKey, model, baseURL string, timeout time.Duration) *Service {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &Service{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: timeout,
	}
}

// CreateCompletion sends the full history plus the tool catalog and returns
// the provider's decision in uniform form. The call is bounded by the
// configured timeout.
func (s *Service) CreateCompletion(ctx context.Context, req Request) (*Completion, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	chatReq := openai.ChatCompletionRequest{
		Model:       s.model,
		Messages:    convertMessages(req.Messages),
		Tools:       convertTools(req.Tools),
		Temperature: req.Temperature,
	}
	if req.ToolChoice != "" && req.ToolChoice != ToolChoiceAuto {
		chatReq.ToolChoice = req.ToolChoice
	}

	resp, err := s.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, classifyError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	completion := &Completion{}
	if resp.Usage.PromptTokens > 0 {
		pt := resp.Usage.PromptTokens
		completion.PromptTokens = &pt
	}
	if resp.Usage.CompletionTokens > 0 {
		ct := resp.Usage.CompletionTokens
		completion.CompletionTokens = &ct
	}

	choice := resp.Choices[0]
	if len(choice.Message.ToolCalls) > 0 {
		for _, tc := range choice.Message.ToolCalls {
			completion.ToolCalls = append(completion.ToolCalls, ToolCallRequest{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: json.RawMessage(tc.Function.Arguments),
			})
		}
		return completion, nil
	}

	completion.Text = choice.Message.Content
	return completion, nil
}

func convertMessages(messages []ChatMessage) []openai.ChatCompletionMessage {
	var result []openai.ChatCompletionMessage

	for _, m := range messages {
		converted := openai.ChatCompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			converted.ToolCalls = append(converted.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: string(tc.Arguments),
				},
			})
		}
		result = append(result, converted)
	}

	return result
}

func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		logrus.Errorf("Completion request timed out: %v", err)
		return fmt.Errorf("%w: %v", ErrProviderTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		logrus.Errorf("Completion request timed out: %v", err)
		return fmt.Errorf("%w: %v", ErrProviderTimeout, err)
	}

	logrus.Errorf("Completion request failed: %v", err)
	return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
}
