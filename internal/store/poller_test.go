package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-client/internal/mocks"
	"chat-client/internal/models"
)

func waitForCall(t *testing.T, calls <-chan struct{}) {
	t.Helper()
	select {
	case <-calls:
	case <-time.After(time.Second):
		t.Fatal("expected an inbox refresh")
	}
}

func assertNoCall(t *testing.T, calls <-chan struct{}) {
	t.Helper()
	select {
	case <-calls:
		t.Fatal("unexpected inbox refresh")
	case <-time.After(50 * time.Millisecond):
	}
}

func newPollingStore(t *testing.T, tick <-chan time.Time) (*Store, <-chan struct{}) {
	t.Helper()
	apiMock := new(mocks.ChatAPIMock)
	calls := make(chan struct{}, 16)
	apiMock.On("ListChats", mock.Anything, models.RoleCustomer).
		Return([]models.Chat{}, nil).
		Run(func(mock.Arguments) { calls <- struct{}{} })

	s := New(apiMock, WithTickerFactory(func(time.Duration) (<-chan time.Time, func()) {
		return tick, func() {}
	}))
	s.SetCurrentUser(me)
	return s, calls
}

func TestStartInboxPollingFiresImmediatelyAndOnTicks(t *testing.T) {
	tick := make(chan time.Time)
	s, calls := newPollingStore(t, tick)

	handle := s.StartInboxPolling(models.RoleCustomer, time.Minute)
	defer handle.Stop()

	// first refresh fires without waiting one interval
	waitForCall(t, calls)
	assertNoCall(t, calls)

	tick <- time.Now()
	waitForCall(t, calls)

	tick <- time.Now()
	waitForCall(t, calls)
}

func TestStartInboxPollingIsIdempotent(t *testing.T) {
	tick := make(chan time.Time)
	s, calls := newPollingStore(t, tick)

	first := s.StartInboxPolling(models.RoleCustomer, time.Minute)
	defer first.Stop()
	second := s.StartInboxPolling(models.RoleCustomer, time.Minute)

	// second start is a no-op returning the running handle
	assert.Same(t, first, second)

	waitForCall(t, calls) // single immediate refresh, not two
	assertNoCall(t, calls)
	assert.True(t, s.Polling())
}

func TestStopInboxPollingHaltsRefreshes(t *testing.T) {
	tick := make(chan time.Time)
	s, calls := newPollingStore(t, tick)

	s.StartInboxPolling(models.RoleCustomer, time.Minute)
	waitForCall(t, calls)

	s.StopInboxPolling()
	require.False(t, s.Polling())

	// a late tick no longer reaches the loop
	select {
	case tick <- time.Now():
	case <-time.After(50 * time.Millisecond):
	}
	assertNoCall(t, calls)

	// stopping again when not running is safe
	s.StopInboxPolling()
}

func TestPollingSurvivesRefreshErrors(t *testing.T) {
	tick := make(chan time.Time)
	apiMock := new(mocks.ChatAPIMock)
	calls := make(chan struct{}, 16)
	apiMock.On("ListChats", mock.Anything, models.RoleCustomer).
		Return(([]models.Chat)(nil), assert.AnError).
		Run(func(mock.Arguments) { calls <- struct{}{} })

	s := New(apiMock, WithTickerFactory(func(time.Duration) (<-chan time.Time, func()) {
		return tick, func() {}
	}))
	s.SetCurrentUser(me)

	handle := s.StartInboxPolling(models.RoleCustomer, time.Minute)
	defer handle.Stop()

	waitForCall(t, calls)
	tick <- time.Now()
	waitForCall(t, calls) // the loop keeps going after a failed refresh
}

func TestHandleStopClearsStoreState(t *testing.T) {
	tick := make(chan time.Time)
	s, calls := newPollingStore(t, tick)

	handle := s.StartInboxPolling(models.RoleCustomer, time.Minute)
	waitForCall(t, calls)

	handle.Stop()
	assert.False(t, s.Polling())

	// a fresh start works after a handle-level stop
	again := s.StartInboxPolling(models.RoleCustomer, time.Minute)
	defer again.Stop()
	waitForCall(t, calls)
}
