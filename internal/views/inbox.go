// Package views binds store state to the inbox and thread screens. The
// controllers hold per-screen state (loading, error strings, preview) and
// translate UI gestures into store calls.
package views

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"chat-client/internal/api"
	"chat-client/internal/models"
	"chat-client/internal/store"
)

// InboxView drives the chat list screen for one role.
type InboxView struct {
	store  *store.Store
	api    api.ChatAPI
	role   models.Role
	logger zerolog.Logger

	// FallbackIdentity is used when the identity endpoint fails, e.g. an
	// identity restored from the persisted session.
	FallbackIdentity *models.CurrentUser

	mu      sync.Mutex
	loading bool
	errMsg  string
}

// NewInbox builds the controller. isAdmin selects the back-office variant.
func NewInbox(s *store.Store, client api.ChatAPI, isAdmin bool, logger zerolog.Logger) *InboxView {
	role := models.RoleCustomer
	if isAdmin {
		role = models.RoleAdmin
	}
	return &InboxView{store: s, api: client, role: role, logger: logger}
}

// Role returns the role the inbox was opened for.
func (v *InboxView) Role() models.Role { return v.role }

// Load resolves the viewer identity, seeds the store, and loads the inbox.
func (v *InboxView) Load(ctx context.Context) error {
	v.setState(true, "")

	me, err := v.api.Me(ctx)
	if err != nil {
		if v.FallbackIdentity == nil {
			v.logger.Error().Err(err).Msg("identity resolution failed")
			v.setState(false, "couldn't load your chats")
			return err
		}
		v.logger.Warn().Err(err).Msg("identity endpoint failed, using persisted session")
		me = *v.FallbackIdentity
	}
	v.store.SetCurrentUser(me)

	return v.refresh(ctx)
}

// Refresh reloads the inbox without re-resolving identity.
func (v *InboxView) Refresh(ctx context.Context) error {
	v.setState(true, "")
	return v.refresh(ctx)
}

func (v *InboxView) refresh(ctx context.Context) error {
	if err := v.store.LoadInbox(ctx, v.role); err != nil {
		v.setState(false, "couldn't load your chats")
		return err
	}
	v.setState(false, "")
	return nil
}

// DeleteChat removes a chat from this inbox: backend delete, then local purge.
func (v *InboxView) DeleteChat(ctx context.Context, chatID string) error {
	if err := v.store.DeleteChat(ctx, chatID); err != nil {
		v.setState(false, "couldn't delete the chat, try again")
		return err
	}
	return nil
}

// Rows returns the current inbox snapshot.
func (v *InboxView) Rows() []models.ChatRow {
	return v.store.Chats()
}

// UnreadTotal sums the badge across all rows.
func (v *InboxView) UnreadTotal() int {
	return v.store.UnreadTotal()
}

// Loading reports whether a load or refresh is in flight.
func (v *InboxView) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loading
}

// Err returns the current user-visible error message, "" when none.
func (v *InboxView) Err() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.errMsg
}

func (v *InboxView) setState(loading bool, errMsg string) {
	v.mu.Lock()
	v.loading = loading
	v.errMsg = errMsg
	v.mu.Unlock()
}
