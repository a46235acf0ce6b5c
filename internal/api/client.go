// Package api is the HTTP transport client for the storefront chat backend.
// It carries no business logic: every method maps one backend endpoint, and
// errors are always propagated to the caller.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"chat-client/internal/models"
	"chat-client/internal/observability"
)

// Message page sizing. The backend clamps limit to MaxPageSize regardless of
// what the client asks for.
const (
	DefaultPageSize = 30
	MaxPageSize     = 100
)

// TransportError reports a non-2xx backend response.
type TransportError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.StatusCode, e.Body)
}

// ChatAPI abstracts the chat backend endpoints consumed by the store and views.
type ChatAPI interface {
	Me(ctx context.Context) (models.CurrentUser, error)
	ListChats(ctx context.Context, roleHint models.Role) ([]models.Chat, error)
	CreateOrGetChat(ctx context.Context, customerID, adminID, reservationID string) (models.Chat, error)
	GetChat(ctx context.Context, chatID string) (models.Chat, error)
	DeleteChat(ctx context.Context, chatID string) error
	UpdateChatMeta(ctx context.Context, chatID string, meta map[string]any) (models.Chat, error)
	MarkRead(ctx context.Context, chatID, readerUserID string) error
	ListMessages(ctx context.Context, chatID string, limit int, before string) ([]models.Message, error)
	SendMessage(ctx context.Context, chatID, text string) (models.Message, error)
	ReservationPreviewByChat(ctx context.Context, chatID string) (*models.ReservationPreview, error)
}

// Client is a resty implementation of ChatAPI.
type Client struct {
	http   *resty.Client
	tracer trace.Tracer
}

// Option customizes a Client.
type Option func(*Client)

// WithToken sets the bearer token used on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.http.SetAuthToken(token) }
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// New builds a Client bound to baseURL (e.g. "http://localhost:8083/api").
func New(baseURL string, opts ...Option) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetHeader("Accept", "application/json")

	c := &Client{
		http:   httpClient,
		tracer: otel.Tracer("chat-client/api"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token after login or session restore.
func (c *Client) SetToken(token string) {
	c.http.SetAuthToken(token)
}

// chatEnvelope wraps chat endpoint responses.
type chatEnvelope struct {
	OK   bool        `json:"ok"`
	Data models.Chat `json:"data"`
}

type chatListEnvelope struct {
	OK   bool          `json:"ok"`
	Data []models.Chat `json:"data"`
}

func (c *Client) Me(ctx context.Context) (models.CurrentUser, error) {
	var raw struct {
		ID       string `json:"id"`
		LegacyID string `json:"_id"`
		UserID   string `json:"userId"`
		Name     string `json:"name"`
		Role     string `json:"role"`
	}
	if err := c.do(ctx, "me", http.MethodGet, "/auth/me", nil, nil, &raw); err != nil {
		return models.CurrentUser{}, err
	}

	id := raw.LegacyID
	if id == "" {
		id = raw.ID
	}
	if id == "" {
		id = raw.UserID
	}
	return models.CurrentUser{ID: id, Name: raw.Name, Role: models.NormalizeRole(raw.Role)}, nil
}

func (c *Client) ListChats(ctx context.Context, roleHint models.Role) ([]models.Chat, error) {
	query := map[string]string{}
	if roleHint != "" {
		query["roleHint"] = string(roleHint)
	}
	var envelope chatListEnvelope
	if err := c.do(ctx, "list_chats", http.MethodGet, "/chats", query, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

func (c *Client) CreateOrGetChat(ctx context.Context, customerID, adminID, reservationID string) (models.Chat, error) {
	body := map[string]string{
		"customerId": customerID,
		"adminId":    adminID,
	}
	if reservationID != "" {
		body["reservationId"] = reservationID
	}
	var envelope chatEnvelope
	if err := c.do(ctx, "create_or_get_chat", http.MethodPost, "/chats", nil, body, &envelope); err != nil {
		return models.Chat{}, err
	}
	return envelope.Data, nil
}

func (c *Client) GetChat(ctx context.Context, chatID string) (models.Chat, error) {
	var envelope chatEnvelope
	if err := c.do(ctx, "get_chat", http.MethodGet, "/chats/"+chatID, nil, nil, &envelope); err != nil {
		return models.Chat{}, err
	}
	return envelope.Data, nil
}

func (c *Client) DeleteChat(ctx context.Context, chatID string) error {
	return c.do(ctx, "delete_chat", http.MethodDelete, "/chats/"+chatID, nil, nil, nil)
}

func (c *Client) UpdateChatMeta(ctx context.Context, chatID string, meta map[string]any) (models.Chat, error) {
	var envelope chatEnvelope
	body := map[string]any{"meta": meta}
	if err := c.do(ctx, "update_chat_meta", http.MethodPatch, "/chats/"+chatID+"/meta", nil, body, &envelope); err != nil {
		return models.Chat{}, err
	}
	return envelope.Data, nil
}

func (c *Client) MarkRead(ctx context.Context, chatID, readerUserID string) error {
	body := map[string]string{}
	if readerUserID != "" {
		body["readerUserId"] = readerUserID
	}
	return c.do(ctx, "mark_read", http.MethodPost, "/chats/"+chatID+"/read", nil, body, nil)
}

func (c *Client) ListMessages(ctx context.Context, chatID string, limit int, before string) ([]models.Message, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	query := map[string]string{"limit": strconv.Itoa(limit)}
	if before != "" {
		query["before"] = before
	}
	var msgs []models.Message
	if err := c.do(ctx, "list_messages", http.MethodGet, "/chats/"+chatID+"/messages", query, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (c *Client) SendMessage(ctx context.Context, chatID, text string) (models.Message, error) {
	body := map[string]string{"type": "text", "text": text}
	var msg models.Message
	if err := c.do(ctx, "send_message", http.MethodPost, "/chats/"+chatID+"/messages", nil, body, &msg); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// ReservationPreviewByChat returns nil without error when the chat has no
// linked reservation.
func (c *Client) ReservationPreviewByChat(ctx context.Context, chatID string) (*models.ReservationPreview, error) {
	var envelope struct {
		OK   bool                       `json:"ok"`
		Data *models.ReservationPreview `json:"data"`
	}
	if err := c.do(ctx, "reservation_preview", http.MethodGet, "/reservations/by-chat/"+chatID, nil, nil, &envelope); err != nil {
		return nil, err
	}
	if envelope.Data != nil {
		envelope.Data.Normalize()
	}
	return envelope.Data, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, query map[string]string, body, out any) error {
	ctx, span := c.tracer.Start(ctx, "api."+op)
	defer span.End()

	req := c.http.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	status := 0
	if resp != nil {
		status = resp.StatusCode()
	}
	observability.ObserveAPIRequest(op, status, time.Since(start))

	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.IsError() {
		transportErr := &TransportError{Op: op, StatusCode: status, Body: string(resp.Body())}
		span.RecordError(transportErr)
		return transportErr
	}
	return nil
}
