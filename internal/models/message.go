package models

import (
	"encoding/json"
	"time"
)

// MessageState tracks delivery progress of a message.
type MessageState string

const (
	MessageStateSent      MessageState = "sent"
	MessageStateDelivered MessageState = "delivered"
	MessageStateRead      MessageState = "read"
)

// Message is the backend record for a single message inside a chat.
// Text is the primary path; image/file variants carry a FileURL instead.
type Message struct {
	ID        string       `json:"id"`
	ChatID    string       `json:"chatId"`
	SenderID  string       `json:"senderId"`
	Type      string       `json:"type"`
	Text      string       `json:"text,omitempty"`
	FileURL   string       `json:"fileUrl,omitempty"`
	State     MessageState `json:"state"`
	CreatedAt time.Time    `json:"createdAt"`
}

func (m *Message) UnmarshalJSON(data []byte) error {
	type alias Message
	aux := struct {
		*alias
		LegacyID     string `json:"_id"`
		LegacyText   string `json:"contenido"`
		LegacyType   string `json:"tipo"`
		LegacySender string `json:"emisor"`
	}{alias: (*alias)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if m.ID == "" {
		m.ID = aux.LegacyID
	}
	if m.Text == "" {
		m.Text = aux.LegacyText
	}
	if m.Type == "" {
		m.Type = aux.LegacyType
	}
	if m.SenderID == "" {
		m.SenderID = aux.LegacySender
	}
	if m.State == "" {
		m.State = MessageStateSent
	}
	return nil
}

// Msg is the thread-facing view of a message.
type Msg struct {
	ID     string       `json:"id"`
	ChatID string       `json:"chatId"`
	FromID string       `json:"fromId"`
	Text   string       `json:"text"`
	At     time.Time    `json:"at"`
	State  MessageState `json:"state"`
}
