package views

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"chat-client/internal/mapper"
	"chat-client/internal/models"
	"chat-client/internal/preview"
	"chat-client/internal/store"
)

// ThreadView drives one chat's message screen: message history, pagination on
// scroll, sending, and the reservation preview block.
type ThreadView struct {
	store    *store.Store
	previews *preview.Context
	mapper   *mapper.Mapper
	chatID   string
	isAdmin  bool
	logger   zerolog.Logger

	mu          sync.Mutex
	preview     *models.ReservationPreview
	closed      bool
	errMsg      string
	unsubscribe func()
}

// NewThread builds the controller for one chat.
func NewThread(s *store.Store, previews *preview.Context, m *mapper.Mapper, chatID string, isAdmin bool, logger zerolog.Logger) *ThreadView {
	return &ThreadView{
		store:    s,
		previews: previews,
		mapper:   m,
		chatID:   chatID,
		isAdmin:  isAdmin,
		logger:   logger,
	}
}

// Open clears the badge locally first (no flicker while the network call runs),
// loads the recent message page, and resolves the reservation preview. carried
// is an optional preview handed over by navigation state.
func (v *ThreadView) Open(ctx context.Context, carried *models.ReservationPreview) error {
	v.store.MarkChatReadLocal(v.chatID)

	err := v.store.OpenThread(ctx, v.chatID)
	if err != nil {
		v.setErr("couldn't load the conversation")
	}

	p := v.previews.Resolve(ctx, v.chatID, carried)
	v.mu.Lock()
	v.preview = p
	v.closed = p.Closed()
	v.mu.Unlock()

	return err
}

// Send posts a message. Empty text is inert; a closed thread rejects sending
// without surfacing an error.
func (v *ThreadView) Send(ctx context.Context, text string) error {
	v.mu.Lock()
	closed := v.closed
	v.mu.Unlock()
	if closed {
		v.logger.Debug().Str("chatId", v.chatID).Msg("send blocked, thread closed")
		return nil
	}
	if err := v.store.Send(ctx, v.chatID, text); err != nil {
		v.setErr("couldn't send the message")
		return err
	}
	return nil
}

// OnScrollTop pages older history when the view hits the top of the scroll.
func (v *ThreadView) OnScrollTop(ctx context.Context) error {
	return v.store.LoadMore(ctx, v.chatID)
}

// Messages returns the thread snapshot, ascending by timestamp.
func (v *ThreadView) Messages() []models.Msg {
	return v.store.MessagesByChat(v.chatID)
}

// OnMessages registers an autoscroll callback fired with a fresh snapshot on
// every store change. Call Close to detach.
func (v *ThreadView) OnMessages(fn func([]models.Msg)) {
	v.mu.Lock()
	if v.unsubscribe != nil {
		v.unsubscribe()
	}
	v.unsubscribe = v.store.Subscribe(func() {
		fn(v.store.MessagesByChat(v.chatID))
	})
	v.mu.Unlock()
}

// Close detaches the store subscription. The inbox poll loop is unaffected.
func (v *ThreadView) Close() {
	v.mu.Lock()
	if v.unsubscribe != nil {
		v.unsubscribe()
		v.unsubscribe = nil
	}
	v.mu.Unlock()
}

// OtherName resolves the counterpart's display name, with the role-appropriate
// fallback label when the row is not loaded yet.
func (v *ThreadView) OtherName() string {
	for _, row := range v.store.Chats() {
		if row.ID == v.chatID && row.OtherName != "" {
			return row.OtherName
		}
	}
	if v.isAdmin {
		return v.mapper.CustomerLabel
	}
	return v.mapper.ShopName
}

// Preview returns the resolved reservation preview, nil when the chat has no
// linked reservation.
func (v *ThreadView) Preview() *models.ReservationPreview {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.preview
}

// Closed reports whether the linked reservation shut the thread for sending.
func (v *ThreadView) Closed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

// Err returns the current user-visible error message, "" when none.
func (v *ThreadView) Err() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.errMsg
}

func (v *ThreadView) setErr(msg string) {
	v.mu.Lock()
	v.errMsg = msg
	v.mu.Unlock()
}
