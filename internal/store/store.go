// Package store holds the client-side chat state: the viewer identity, the
// inbox rows, and the messages of every opened thread. Views read snapshots
// and subscribe for change notifications; all mutation goes through Store
// methods.
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"chat-client/internal/api"
	"chat-client/internal/events"
	"chat-client/internal/mapper"
	"chat-client/internal/models"
	"chat-client/internal/observability"
)

// Store is the stateful core of the chat subsystem.
type Store struct {
	api     api.ChatAPI
	mapper  *mapper.Mapper
	logger  zerolog.Logger
	emitter *events.Emitter

	mu       sync.RWMutex
	me       models.CurrentUser
	chats    []models.ChatRow
	msgs     []models.Msg
	poll     *PollHandle
	pollRole models.Role

	subMu   sync.Mutex
	subs    map[int]func()
	nextSub int

	newTicker TickerFactory
}

// Option customizes a Store.
type Option func(*Store)

// WithLogger sets the structured logger used at every catch point.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithMapper overrides the row mapper (display label configuration).
func WithMapper(m *mapper.Mapper) Option {
	return func(s *Store) { s.mapper = m }
}

// WithEmitter attaches an activity event emitter. Nil is fine.
func WithEmitter(e *events.Emitter) Option {
	return func(s *Store) { s.emitter = e }
}

// WithTickerFactory injects a fake scheduler for deterministic polling tests.
func WithTickerFactory(f TickerFactory) Option {
	return func(s *Store) { s.newTicker = f }
}

// New builds a Store bound to the given transport client.
func New(client api.ChatAPI, opts ...Option) *Store {
	s := &Store{
		api:       client,
		mapper:    mapper.New(),
		logger:    zerolog.Nop(),
		subs:      make(map[int]func()),
		me:        models.CurrentUser{Role: models.RoleCustomer},
		newTicker: defaultTicker,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetCurrentUser overwrites the cached identity. Unknown roles collapse to
// customer. Must run before inbox or thread operations for correct unread
// accounting; earlier calls degrade to the placeholder identity instead of
// failing.
func (s *Store) SetCurrentUser(user models.CurrentUser) {
	user.Role = models.NormalizeRole(string(user.Role))
	s.mu.Lock()
	s.me = user
	s.mu.Unlock()
	s.notify()
}

// CurrentUser returns the cached identity.
func (s *Store) CurrentUser() models.CurrentUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.me
}

// Chats returns a snapshot of the inbox rows.
func (s *Store) Chats() []models.ChatRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]models.ChatRow, len(s.chats))
	copy(rows, s.chats)
	return rows
}

// MessagesByChat returns a snapshot of the cached messages for one chat,
// ascending by timestamp.
func (s *Store) MessagesByChat(chatID string) []models.Msg {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Msg
	for _, m := range s.msgs {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

// UnreadTotal sums the unread badge across the inbox.
func (s *Store) UnreadTotal() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, c := range s.chats {
		total += c.Unread
	}
	return total
}

// Subscribe registers a change-notification callback and returns its cancel
// func. Callbacks run after every state mutation, outside the store lock.
func (s *Store) Subscribe(fn func()) func() {
	s.subMu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	callbacks := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		callbacks = append(callbacks, fn)
	}
	s.subMu.Unlock()
	for _, fn := range callbacks {
		fn()
	}
}

// LoadInbox fetches the chat list and replaces the local collection with the
// mapped result. Full refresh, not a merge: the inbox reflects server truth at
// the moment of the call, and local-only edits are recomputed from it.
func (s *Store) LoadInbox(ctx context.Context, roleHint models.Role) error {
	chats, err := s.api.ListChats(ctx, roleHint)
	if err != nil {
		s.logger.Error().Err(err).Msg("load inbox failed")
		return fmt.Errorf("load inbox: %w", err)
	}

	s.mu.Lock()
	rows := make([]models.ChatRow, 0, len(chats))
	for _, chat := range chats {
		rows = append(rows, s.mapper.ToRow(chat, s.me))
	}
	s.chats = rows
	s.mu.Unlock()

	s.notify()
	return nil
}

// OpenThread fetches the most recent message page for a chat, replaces the
// chat's cached slice with it, marks the chat read on the backend, and zeroes
// the local badge. A fetch failure leaves prior state untouched; a mark-read
// failure after a successful fetch is logged only, since the thread rendered
// fine and the next poll restores the badge from server truth.
func (s *Store) OpenThread(ctx context.Context, chatID string) error {
	records, err := s.api.ListMessages(ctx, chatID, api.DefaultPageSize, "")
	if err != nil {
		s.logger.Error().Err(err).Str("chatId", chatID).Msg("open thread failed")
		return fmt.Errorf("open thread: %w", err)
	}

	page := make([]models.Msg, 0, len(records))
	for _, r := range records {
		page = append(page, mapper.ToMsg(r))
	}
	sortMsgs(page)

	s.mu.Lock()
	s.msgs = append(withoutChat(s.msgs, chatID), page...)
	readerID := s.me.ID
	s.mu.Unlock()
	s.notify()

	if err := s.api.MarkRead(ctx, chatID, readerID); err != nil {
		s.logger.Warn().Err(err).Str("chatId", chatID).Msg("mark read failed")
	} else {
		s.MarkChatReadLocal(chatID)
	}
	if s.emitter != nil {
		s.emitter.Emit(ctx, events.TypeChatOpened, readerID, map[string]string{"chatId": chatID})
	}
	return nil
}

// LoadMore fetches an older page using the current oldest cached message as
// the cursor and prepends it. No-op when nothing is cached for the chat:
// there is nothing to page before.
func (s *Store) LoadMore(ctx context.Context, chatID string) error {
	s.mu.RLock()
	var oldest string
	for _, m := range s.msgs {
		if m.ChatID == chatID {
			oldest = m.ID
			break
		}
	}
	s.mu.RUnlock()
	if oldest == "" {
		return nil
	}

	records, err := s.api.ListMessages(ctx, chatID, api.DefaultPageSize, oldest)
	if err != nil {
		s.logger.Error().Err(err).Str("chatId", chatID).Msg("load more failed")
		return fmt.Errorf("load more: %w", err)
	}

	older := make([]models.Msg, 0, len(records))
	for _, r := range records {
		older = append(older, mapper.ToMsg(r))
	}
	sortMsgs(older)

	s.mu.Lock()
	current := make([]models.Msg, 0)
	seen := make(map[string]struct{})
	for _, m := range s.msgs {
		if m.ChatID == chatID {
			current = append(current, m)
			seen[m.ID] = struct{}{}
		}
	}
	merged := withoutChat(s.msgs, chatID)
	for _, m := range older {
		if _, dup := seen[m.ID]; !dup {
			merged = append(merged, m)
		}
	}
	s.msgs = append(merged, current...)
	s.mu.Unlock()

	s.notify()
	return nil
}

// Send creates a message and appends the authoritative record to the cache,
// updating the owning row's last snapshot. The counterpart's unread counter is
// server-owned and shows up on the next inbox refresh. Empty text is inert.
func (s *Store) Send(ctx context.Context, chatID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	record, err := s.api.SendMessage(ctx, chatID, text)
	if err != nil {
		s.logger.Error().Err(err).Str("chatId", chatID).Msg("send failed")
		return fmt.Errorf("send: %w", err)
	}
	msg := mapper.ToMsg(record)

	s.mu.Lock()
	s.msgs = append(s.msgs, msg)
	for i := range s.chats {
		if s.chats[i].ID == chatID {
			s.chats[i].Last = models.LastSnapshot{Text: msg.Text, At: msg.At}
		}
	}
	senderID := s.me.ID
	s.mu.Unlock()
	s.notify()

	observability.IncMessageSent()
	if s.emitter != nil {
		s.emitter.Emit(ctx, events.TypeMessageSent, senderID, map[string]string{"chatId": chatID, "messageId": msg.ID})
	}
	return nil
}

// MarkChatReadLocal zeroes one row's badge without a server round-trip, so the
// inbox badge clears before OpenThread's network call completes.
func (s *Store) MarkChatReadLocal(chatID string) {
	s.mu.Lock()
	for i := range s.chats {
		if s.chats[i].ID == chatID {
			s.chats[i].Unread = 0
		}
	}
	s.mu.Unlock()
	s.notify()
}

// DeleteChat removes the chat on the backend, then purges local state.
func (s *Store) DeleteChat(ctx context.Context, chatID string) error {
	if err := s.api.DeleteChat(ctx, chatID); err != nil {
		s.logger.Error().Err(err).Str("chatId", chatID).Msg("delete chat failed")
		return fmt.Errorf("delete chat: %w", err)
	}
	s.RemoveChat(chatID)
	if s.emitter != nil {
		s.emitter.Emit(ctx, events.TypeChatDeleted, s.CurrentUser().ID, map[string]string{"chatId": chatID})
	}
	return nil
}

// RemoveChat purges local chat and message state only, for when the backend
// deletion already happened through another path.
func (s *Store) RemoveChat(chatID string) {
	s.mu.Lock()
	rows := s.chats[:0]
	for _, c := range s.chats {
		if c.ID != chatID {
			rows = append(rows, c)
		}
	}
	s.chats = rows
	s.msgs = withoutChat(s.msgs, chatID)
	s.mu.Unlock()
	s.notify()
}

func withoutChat(msgs []models.Msg, chatID string) []models.Msg {
	out := make([]models.Msg, 0, len(msgs))
	for _, m := range msgs {
		if m.ChatID != chatID {
			out = append(out, m)
		}
	}
	return out
}

// sortMsgs orders ascending by timestamp, message id as the stable tiebreak.
func sortMsgs(msgs []models.Msg) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].At.Equal(msgs[j].At) {
			return msgs[i].ID < msgs[j].ID
		}
		return msgs[i].At.Before(msgs[j].At)
	})
}
