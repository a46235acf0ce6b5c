package store

import (
	"context"
	"time"

	"chat-client/internal/models"
	"chat-client/internal/observability"
)

// TickerFactory produces the tick channel driving a poll loop, plus its stop
// func. Tests inject a manual channel here instead of a real clock.
type TickerFactory func(interval time.Duration) (<-chan time.Time, func())

func defaultTicker(interval time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(interval)
	return t.C, t.Stop
}

// PollHandle owns one running inbox poll loop.
type PollHandle struct {
	store  *Store
	cancel context.CancelFunc
}

// Stop cancels the poll loop. Only the timer is cancelled: a refresh already
// dispatched still lands, last write wins. Safe to call more than once.
func (h *PollHandle) Stop() {
	h.store.mu.Lock()
	if h.store.poll == h {
		h.store.poll = nil
		h.store.pollRole = ""
	}
	h.store.mu.Unlock()
	h.cancel()
}

// StartInboxPolling begins a recurring LoadInbox for the role. The first tick
// fires immediately. Idempotent: if a loop is already running the existing
// handle is returned unchanged.
func (s *Store) StartInboxPolling(role models.Role, interval time.Duration) *PollHandle {
	s.mu.Lock()
	if s.poll != nil {
		handle := s.poll
		s.mu.Unlock()
		return handle
	}
	ctx, cancel := context.WithCancel(context.Background())
	handle := &PollHandle{store: s, cancel: cancel}
	s.poll = handle
	s.pollRole = role
	s.mu.Unlock()

	tick, stop := s.newTicker(interval)
	go func() {
		defer stop()
		s.pollOnce(role)
		for {
			select {
			case <-ctx.Done():
				return
			case <-tick:
				if ctx.Err() != nil {
					return
				}
				s.pollOnce(role)
			}
		}
	}()
	return handle
}

// StopInboxPolling cancels the active poll loop, if any.
func (s *Store) StopInboxPolling() {
	s.mu.Lock()
	handle := s.poll
	s.mu.Unlock()
	if handle != nil {
		handle.Stop()
	}
}

// Polling reports whether an inbox poll loop is active.
func (s *Store) Polling() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.poll != nil
}

func (s *Store) pollOnce(role models.Role) {
	observability.IncPollTick()
	// Refreshes are not tied to the loop context: stopping polling must not
	// abort an in-flight request, per the last-write-wins tolerance.
	if err := s.LoadInbox(context.Background(), role); err != nil {
		observability.IncPollError()
		s.logger.Warn().Err(err).Str("role", string(role)).Msg("inbox poll refresh failed")
	}
}
