package views

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-client/internal/mapper"
	"chat-client/internal/mocks"
	"chat-client/internal/models"
	"chat-client/internal/preview"
	"chat-client/internal/store"
)

func threadFixture(t *testing.T, apiMock *mocks.ChatAPIMock) (*store.Store, *ThreadView) {
	t.Helper()
	s := store.New(apiMock)
	s.SetCurrentUser(models.CurrentUser{ID: "U100", Name: "Sebas", Role: models.RoleCustomer})
	previews := preview.NewContext(apiMock, zerolog.Nop())
	v := NewThread(s, previews, mapper.New(), "C1", false, zerolog.Nop())
	return s, v
}

func wireMessage(id string, minute int) models.Message {
	return models.Message{
		ID:        id,
		ChatID:    "C1",
		SenderID:  "A1",
		Text:      "hola",
		CreatedAt: time.Date(2025, 11, 1, 13, minute, 0, 0, time.UTC),
	}
}

func TestThreadOpenLoadsMessagesAndClearsBadge(t *testing.T) {
	apiMock := &mocks.ChatAPIMock{}
	apiMock.On("ListChats", mock.Anything, models.RoleCustomer).Return([]models.Chat{{
		ID: "C1", CustomerID: "U100", AdminID: "A1", UnreadByCustomer: 2,
	}}, nil)
	apiMock.On("ListMessages", mock.Anything, "C1", 30, "").
		Return([]models.Message{wireMessage("M2", 5), wireMessage("M1", 1)}, nil)
	apiMock.On("MarkRead", mock.Anything, "C1", "U100").Return(nil)
	apiMock.On("ReservationPreviewByChat", mock.Anything, "C1").Return(nil, nil)

	s, v := threadFixture(t, apiMock)
	require.NoError(t, s.LoadInbox(context.Background(), models.RoleCustomer))

	require.NoError(t, v.Open(context.Background(), nil))

	msgs := v.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "M1", msgs[0].ID)
	assert.Equal(t, "M2", msgs[1].ID)
	assert.Equal(t, 0, s.UnreadTotal())
	assert.Nil(t, v.Preview())
	assert.False(t, v.Closed())
	apiMock.AssertExpectations(t)
}

func TestThreadOpenErrorMessage(t *testing.T) {
	apiMock := &mocks.ChatAPIMock{}
	apiMock.On("ListMessages", mock.Anything, "C1", 30, "").Return(nil, errors.New("boom"))
	apiMock.On("ReservationPreviewByChat", mock.Anything, "C1").Return(nil, nil)

	_, v := threadFixture(t, apiMock)

	require.Error(t, v.Open(context.Background(), nil))
	assert.Equal(t, "couldn't load the conversation", v.Err())
	apiMock.AssertNotCalled(t, "MarkRead", mock.Anything, mock.Anything, mock.Anything)
}

func TestThreadOpenMarkReadFailureShowsNoError(t *testing.T) {
	apiMock := &mocks.ChatAPIMock{}
	apiMock.On("ListMessages", mock.Anything, "C1", 30, "").
		Return([]models.Message{wireMessage("M1", 1)}, nil)
	apiMock.On("MarkRead", mock.Anything, "C1", "U100").Return(errors.New("boom"))
	apiMock.On("ReservationPreviewByChat", mock.Anything, "C1").Return(nil, nil)

	_, v := threadFixture(t, apiMock)

	require.NoError(t, v.Open(context.Background(), nil))
	assert.Empty(t, v.Err())
	assert.Len(t, v.Messages(), 1)
}

func TestThreadCarriedPreviewSkipsLookup(t *testing.T) {
	apiMock := &mocks.ChatAPIMock{}
	apiMock.On("ListMessages", mock.Anything, "C1", 30, "").Return([]models.Message{}, nil)
	apiMock.On("MarkRead", mock.Anything, "C1", "U100").Return(nil)

	_, v := threadFixture(t, apiMock)

	carried := models.ReservationPreview{ReservationID: "R1", Status: models.ReservationPending, Total: 59.90}
	require.NoError(t, v.Open(context.Background(), &carried))

	require.NotNil(t, v.Preview())
	assert.Equal(t, "R1", v.Preview().ReservationID)
	assert.False(t, v.Closed())
	apiMock.AssertNotCalled(t, "ReservationPreviewByChat", mock.Anything, mock.Anything)
}

func TestThreadClosedReservationBlocksSend(t *testing.T) {
	apiMock := &mocks.ChatAPIMock{}
	apiMock.On("ListMessages", mock.Anything, "C1", 30, "").Return([]models.Message{}, nil)
	apiMock.On("MarkRead", mock.Anything, "C1", "U100").Return(nil)
	apiMock.On("ReservationPreviewByChat", mock.Anything, "C1").
		Return(&models.ReservationPreview{ReservationID: "R1", Status: models.ReservationCancelled}, nil)

	_, v := threadFixture(t, apiMock)
	require.NoError(t, v.Open(context.Background(), nil))
	require.True(t, v.Closed())

	require.NoError(t, v.Send(context.Background(), "hola"))
	apiMock.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything, mock.Anything)
}

func TestThreadSendAppends(t *testing.T) {
	apiMock := &mocks.ChatAPIMock{}
	apiMock.On("SendMessage", mock.Anything, "C1", "hola").Return(models.Message{
		ID:        "M9",
		ChatID:    "C1",
		SenderID:  "U100",
		Text:      "hola",
		State:     models.MessageStateSent,
		CreatedAt: time.Date(2025, 11, 1, 14, 0, 0, 0, time.UTC),
	}, nil)

	_, v := threadFixture(t, apiMock)

	require.NoError(t, v.Send(context.Background(), "hola"))
	msgs := v.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "M9", msgs[0].ID)
	assert.Empty(t, v.Err())
}

func TestThreadSendErrorMessage(t *testing.T) {
	apiMock := &mocks.ChatAPIMock{}
	apiMock.On("SendMessage", mock.Anything, "C1", "hola").Return(nil, errors.New("boom"))

	_, v := threadFixture(t, apiMock)

	require.Error(t, v.Send(context.Background(), "hola"))
	assert.Equal(t, "couldn't send the message", v.Err())
}

func TestThreadOnScrollTopPagesOlder(t *testing.T) {
	apiMock := &mocks.ChatAPIMock{}
	apiMock.On("ListMessages", mock.Anything, "C1", 30, "").
		Return([]models.Message{wireMessage("M3", 3)}, nil)
	apiMock.On("MarkRead", mock.Anything, "C1", "U100").Return(nil)
	apiMock.On("ReservationPreviewByChat", mock.Anything, "C1").Return(nil, nil)
	apiMock.On("ListMessages", mock.Anything, "C1", 30, "M3").
		Return([]models.Message{wireMessage("M2", 2), wireMessage("M1", 1)}, nil)

	_, v := threadFixture(t, apiMock)
	require.NoError(t, v.Open(context.Background(), nil))
	require.NoError(t, v.OnScrollTop(context.Background()))

	msgs := v.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, []string{"M1", "M2", "M3"}, []string{msgs[0].ID, msgs[1].ID, msgs[2].ID})
	apiMock.AssertExpectations(t)
}

func TestThreadOnMessagesNotifiesAndCloseDetaches(t *testing.T) {
	apiMock := &mocks.ChatAPIMock{}
	apiMock.On("SendMessage", mock.Anything, "C1", mock.Anything).Return(models.Message{
		ID: "M1", ChatID: "C1", SenderID: "U100", Text: "hola",
		CreatedAt: time.Date(2025, 11, 1, 14, 0, 0, 0, time.UTC),
	}, nil)

	_, v := threadFixture(t, apiMock)

	var snapshots [][]models.Msg
	v.OnMessages(func(msgs []models.Msg) { snapshots = append(snapshots, msgs) })

	require.NoError(t, v.Send(context.Background(), "hola"))
	require.NotEmpty(t, snapshots)
	last := snapshots[len(snapshots)-1]
	require.Len(t, last, 1)
	assert.Equal(t, "M1", last[0].ID)

	v.Close()
	seen := len(snapshots)
	require.NoError(t, v.Send(context.Background(), "otra"))
	assert.Len(t, snapshots, seen)
}

func TestThreadOtherNameFallbacks(t *testing.T) {
	apiMock := &mocks.ChatAPIMock{}

	s := store.New(apiMock)
	previews := preview.NewContext(nil, zerolog.Nop())
	labels := mapper.New()

	customerView := NewThread(s, previews, labels, "C1", false, zerolog.Nop())
	assert.Equal(t, labels.ShopName, customerView.OtherName())

	adminView := NewThread(s, previews, labels, "C1", true, zerolog.Nop())
	assert.Equal(t, labels.CustomerLabel, adminView.OtherName())

	apiMock.On("ListChats", mock.Anything, models.RoleCustomer).Return([]models.Chat{{
		ID: "C1", CustomerID: "U100", AdminID: "A1",
		Admin: &models.Participant{ID: "A1", Name: "Perfumes Catedral"},
	}}, nil)
	s.SetCurrentUser(models.CurrentUser{ID: "U100", Role: models.RoleCustomer})
	require.NoError(t, s.LoadInbox(context.Background(), models.RoleCustomer))

	assert.Equal(t, "Perfumes Catedral", customerView.OtherName())
}
