package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chat-client/internal/models"
)

// ChatAPIMock is a testify mock of api.ChatAPI.
type ChatAPIMock struct {
	mock.Mock
}

func (m *ChatAPIMock) Me(ctx context.Context) (models.CurrentUser, error) {
	args := m.Called(ctx)
	var user models.CurrentUser
	if val := args.Get(0); val != nil {
		user = val.(models.CurrentUser)
	}
	return user, args.Error(1)
}

func (m *ChatAPIMock) ListChats(ctx context.Context, roleHint models.Role) ([]models.Chat, error) {
	args := m.Called(ctx, roleHint)
	var chats []models.Chat
	if val := args.Get(0); val != nil {
		chats = val.([]models.Chat)
	}
	return chats, args.Error(1)
}

func (m *ChatAPIMock) CreateOrGetChat(ctx context.Context, customerID, adminID, reservationID string) (models.Chat, error) {
	args := m.Called(ctx, customerID, adminID, reservationID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatAPIMock) GetChat(ctx context.Context, chatID string) (models.Chat, error) {
	args := m.Called(ctx, chatID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatAPIMock) DeleteChat(ctx context.Context, chatID string) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

func (m *ChatAPIMock) UpdateChatMeta(ctx context.Context, chatID string, meta map[string]any) (models.Chat, error) {
	args := m.Called(ctx, chatID, meta)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatAPIMock) MarkRead(ctx context.Context, chatID, readerUserID string) error {
	args := m.Called(ctx, chatID, readerUserID)
	return args.Error(0)
}

func (m *ChatAPIMock) ListMessages(ctx context.Context, chatID string, limit int, before string) ([]models.Message, error) {
	args := m.Called(ctx, chatID, limit, before)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *ChatAPIMock) SendMessage(ctx context.Context, chatID, text string) (models.Message, error) {
	args := m.Called(ctx, chatID, text)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *ChatAPIMock) ReservationPreviewByChat(ctx context.Context, chatID string) (*models.ReservationPreview, error) {
	args := m.Called(ctx, chatID)
	var p *models.ReservationPreview
	if val := args.Get(0); val != nil {
		p = val.(*models.ReservationPreview)
	}
	return p, args.Error(1)
}

// PublisherMock is a testify mock of events.Publisher.
type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
