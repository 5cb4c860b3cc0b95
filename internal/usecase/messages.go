package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"cloud-lab/internal/domain"
)

type MessageStore interface {
	PutMessage(ctx context.Context, msg domain.Message) error
	ScanMessages(ctx context.Context) ([]domain.Message, error)
}

type MessageService struct {
	store MessageStore
	newID func() string
}

type MessageOption func(*MessageService)

// WithIDGenerator replaces the random UUID generator used for message ids.
func WithIDGenerator(fn func() string) MessageOption {
	return func(s *MessageService) {
		if fn != nil {
			s.newID = fn
		}
	}
}

func NewMessageService(s MessageStore, opts ...MessageOption) (*MessageService, error) {
	if s == nil {
		return nil, errors.New("usecase: message store must not be nil")
	}
	svc := &MessageService{store: s, newID: uuid.NewString}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Create persists content under a freshly generated id.
func (s *MessageService) Create(ctx context.Context, content string) (domain.Message, error) {
	msg := domain.Message{MessageID: s.newID(), Content: content}
	if err := s.store.PutMessage(ctx, msg); err != nil {
		return domain.Message{}, newError(ErrorInternal, fmt.Sprintf("Error saving message: %v", err), err)
	}
	return msg, nil
}

// List returns every stored message in table order.
func (s *MessageService) List(ctx context.Context) ([]domain.Message, error) {
	msgs, err := s.store.ScanMessages(ctx)
	if err != nil {
		return nil, newError(ErrorInternal, fmt.Sprintf("Error retrieving messages: %v", err), err)
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return msgs, nil
}
