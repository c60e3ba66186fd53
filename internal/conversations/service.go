package conversations

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

var ErrConversationNotFound = errors.New("conversation not found")

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, employeeID int64, title string) (*Conversation, error) {
	logrus.Debugf("Creating conversation for employee %d", employeeID)
	return s.repo.CreateConversation(ctx, employeeID, title)
}

func (s *Service) Get(ctx context.Context, id string, employeeID int64) (*Conversation, error) {
	conversation, err := s.repo.GetConversation(ctx, id, employeeID)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, ErrConversationNotFound
	}
	return conversation, nil
}

func (s *Service) List(ctx context.Context, employeeID int64, page, limit int) ([]Conversation, int, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListConversations(ctx, employeeID, (page-1)*limit, limit)
}

func (s *Service) Search(ctx context.Context, employeeID int64, text string, limit int) ([]Conversation, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.SearchConversations(ctx, employeeID, text, limit)
}

func (s *Service) Update(ctx context.Context, id string, employeeID int64, title *string, pinned *bool) (*Conversation, error) {
	conversation, err := s.repo.UpdateConversation(ctx, id, employeeID, title, pinned)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, ErrConversationNotFound
	}
	return conversation, nil
}

func (s *Service) Delete(ctx context.Context, id string, employeeID int64) error {
	deleted, err := s.repo.DeleteConversation(ctx, id, employeeID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrConversationNotFound
	}
	logrus.Infof("Deleted conversation %s for employee %d", id, employeeID)
	return nil
}

func (s *Service) AppendMessage(ctx context.Context, conversationID, role string, content *string, toolCalls []ToolCall, toolCallID *string) (*Message, error) {
	logrus.Debugf("Appending %s message to conversation %s", role, conversationID)
	return s.repo.AppendMessage(ctx, conversationID, role, content, toolCalls, toolCallID)
}

func (s *Service) Messages(ctx context.Context, conversationID string) ([]Message, error) {
	return s.repo.GetMessages(ctx, conversationID)
}

func (s *Service) GetToolResult(ctx context.Context, conversationID, toolCallID string) (*Message, error) {
	return s.repo.GetToolResult(ctx, conversationID, toolCallID)
}
