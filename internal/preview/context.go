// Package preview keeps the reservation summaries shown alongside chat
// threads. It is a keyed cache, not an authoritative store: staleness is
// expected and nothing invalidates an entry except an explicit Set or Clear.
package preview

import (
	"context"
	"sync"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"chat-client/internal/models"
)

// Lookup is the backend fallback used when a preview is not cached and none
// was carried through navigation.
type Lookup interface {
	ReservationPreviewByChat(ctx context.Context, chatID string) (*models.ReservationPreview, error)
}

// Context caches reservation previews keyed by chat id.
type Context struct {
	cache  *gocache.Cache
	lookup Lookup
	logger zerolog.Logger

	mu   sync.Mutex
	last *models.ReservationPreview
}

// NewContext builds a Context. lookup may be nil, in which case Resolve never
// reaches for the backend.
func NewContext(lookup Lookup, logger zerolog.Logger) *Context {
	return &Context{
		cache:  gocache.New(gocache.NoExpiration, 0),
		lookup: lookup,
		logger: logger,
	}
}

// Set stores a preview for a chat and remembers it as the most recent one.
func (c *Context) Set(chatID string, p models.ReservationPreview) {
	p.Normalize()
	c.cache.Set(chatID, &p, gocache.NoExpiration)
	c.mu.Lock()
	c.last = &p
	c.mu.Unlock()
}

// Get returns the cached preview for a chat, if any.
func (c *Context) Get(chatID string) (*models.ReservationPreview, bool) {
	v, ok := c.cache.Get(chatID)
	if !ok {
		return nil, false
	}
	return v.(*models.ReservationPreview), true
}

// Clear drops one chat's preview.
func (c *Context) Clear(chatID string) {
	c.cache.Delete(chatID)
}

// Reset drops every preview, e.g. on logout.
func (c *Context) Reset() {
	c.cache.Flush()
	c.mu.Lock()
	c.last = nil
	c.mu.Unlock()
}

// LastPreview returns the most recently set preview, if any.
func (c *Context) LastPreview() *models.ReservationPreview {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Resolve applies the thread view's resolution order: cached value first, then
// a value carried through navigation, then a backend lookup by chat id. A
// resolved value is written back so repeat visits skip the network. Returns
// nil when the chat has no linked reservation; lookup failures are logged and
// also yield nil.
func (c *Context) Resolve(ctx context.Context, chatID string, carried *models.ReservationPreview) *models.ReservationPreview {
	if p, ok := c.Get(chatID); ok {
		return p
	}
	if carried != nil {
		c.Set(chatID, *carried)
		p, _ := c.Get(chatID)
		return p
	}
	if c.lookup == nil {
		return nil
	}

	p, err := c.lookup.ReservationPreviewByChat(ctx, chatID)
	if err != nil {
		c.logger.Warn().Err(err).Str("chatId", chatID).Msg("preview lookup failed")
		return nil
	}
	if p == nil {
		return nil
	}
	c.Set(chatID, *p)
	cached, _ := c.Get(chatID)
	return cached
}
