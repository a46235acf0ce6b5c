package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-client/internal/models"
)

func TestMeNormalizesFieldVariants(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/me", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"_id":"U100","name":"Sebas","role":"cliente"}`))
	}))
	defer srv.Close()

	client := New(srv.URL+"/api", WithToken("tok"))
	me, err := client.Me(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "U100", me.ID)
	assert.Equal(t, "Sebas", me.Name)
	// unknown role collapses to customer
	assert.Equal(t, models.RoleCustomer, me.Role)
}

func TestListChatsDecodesEnvelopeAndLegacyFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chats", r.URL.Path)
		assert.Equal(t, "admin", r.URL.Query().Get("roleHint"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"data":[
			{"_id":"C1","clienteId":"U100","adminId":"A1","unreadByCliente":2,
			 "lastMessage":{"contenido":"hola","at":"2025-11-01T13:10:00Z"}}
		]}`))
	}))
	defer srv.Close()

	client := New(srv.URL + "/api")
	chats, err := client.ListChats(context.Background(), models.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, chats, 1)

	assert.Equal(t, "C1", chats[0].ID)
	assert.Equal(t, "U100", chats[0].CustomerID)
	assert.Equal(t, 2, chats[0].UnreadByCustomer)
	require.NotNil(t, chats[0].LastMessage)
	assert.Equal(t, "hola", chats[0].LastMessage.Text)
}

func TestListMessagesClampsLimit(t *testing.T) {
	var gotLimit, gotBefore string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		gotBefore = r.URL.Query().Get("before")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := New(srv.URL + "/api")

	_, err := client.ListMessages(context.Background(), "C1", 500, "M1")
	require.NoError(t, err)
	assert.Equal(t, "100", gotLimit)
	assert.Equal(t, "M1", gotBefore)

	_, err = client.ListMessages(context.Background(), "C1", 0, "")
	require.NoError(t, err)
	assert.Equal(t, "30", gotLimit)
	assert.Equal(t, "", gotBefore)
}

func TestSendMessagePostsTextPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chats/C1/messages", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "text", body["type"])
		assert.Equal(t, "hello", body["text"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"M9","chatId":"C1","senderId":"U100","text":"hello","createdAt":"2025-11-01T14:00:00Z"}`))
	}))
	defer srv.Close()

	client := New(srv.URL + "/api")
	msg, err := client.SendMessage(context.Background(), "C1", "hello")
	require.NoError(t, err)

	assert.Equal(t, "M9", msg.ID)
	assert.Equal(t, "hello", msg.Text)
	assert.Equal(t, models.MessageStateSent, msg.State)
}

func TestTransportErrorOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := New(srv.URL + "/api")
	_, err := client.ListChats(context.Background(), "")
	require.Error(t, err)

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, http.StatusInternalServerError, transportErr.StatusCode)
	assert.Equal(t, "list_chats", transportErr.Op)
}

func TestMarkReadSendsReaderID(t *testing.T) {
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chats/C1/read", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := New(srv.URL + "/api")
	require.NoError(t, client.MarkRead(context.Background(), "C1", "U100"))
	assert.Equal(t, "U100", body["readerUserId"])
}

func TestReservationPreviewByChatEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/reservations/by-chat/C1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"data":null}`))
	}))
	defer srv.Close()

	client := New(srv.URL + "/api")
	p, err := client.ReservationPreviewByChat(context.Background(), "C1")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestReservationPreviewByChatNormalizesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"data":{"reservationId":"R1","status":"confirmed","total":59.9}}`))
	}))
	defer srv.Close()

	client := New(srv.URL + "/api")
	p, err := client.ReservationPreviewByChat(context.Background(), "C1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, models.ReservationConfirmed, p.Status)
	assert.True(t, p.Closed())
}

func TestDeleteChatUsesDeleteMethod(t *testing.T) {
	var method, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := New(srv.URL + "/api")
	require.NoError(t, client.DeleteChat(context.Background(), "C1"))
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/api/chats/C1", path)
}
