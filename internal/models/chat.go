package models

import (
	"encoding/json"
	"time"
)

// Chat is the backend record for a two-party conversation between a customer
// and an admin. Older backend revisions used `_id` and Spanish field names;
// UnmarshalJSON normalizes those so nothing downstream sees them.
type Chat struct {
	ID               string         `json:"id"`
	CustomerID       string         `json:"customerId"`
	AdminID          string         `json:"adminId"`
	UnreadByCustomer int            `json:"unreadByCustomer"`
	UnreadByAdmin    int            `json:"unreadByAdmin"`
	LastMessage      *LastMessage   `json:"lastMessage,omitempty"`
	ReservationID    string         `json:"reservationId,omitempty"`
	Meta             map[string]any `json:"meta,omitempty"`
	Customer         *Participant   `json:"customer,omitempty"`
	Admin            *Participant   `json:"admin,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// Participant is an optionally populated user object embedded in a chat record.
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LastMessage is the denormalized snapshot of the newest message in a chat.
type LastMessage struct {
	Text     string    `json:"text"`
	Type     string    `json:"type,omitempty"`
	SenderID string    `json:"senderId,omitempty"`
	At       time.Time `json:"at"`
}

func (c *Chat) UnmarshalJSON(data []byte) error {
	type alias Chat
	aux := struct {
		*alias
		LegacyID         string `json:"_id"`
		LegacyCustomerID string `json:"clienteId"`
		LegacyUnread     *int   `json:"unreadByCliente"`
	}{alias: (*alias)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = aux.LegacyID
	}
	if c.CustomerID == "" {
		c.CustomerID = aux.LegacyCustomerID
	}
	if c.UnreadByCustomer == 0 && aux.LegacyUnread != nil {
		c.UnreadByCustomer = *aux.LegacyUnread
	}
	return nil
}

func (m *LastMessage) UnmarshalJSON(data []byte) error {
	type alias LastMessage
	aux := struct {
		*alias
		LegacyText   string `json:"contenido"`
		LegacyType   string `json:"tipo"`
		LegacySender string `json:"emisor"`
	}{alias: (*alias)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
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
	return nil
}

// LastSnapshot is the display form of a chat's newest message.
type LastSnapshot struct {
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// ChatRow is the inbox-facing view of a chat for one viewer.
type ChatRow struct {
	ID            string       `json:"id"`
	OtherID       string       `json:"otherId"`
	OtherName     string       `json:"otherName"`
	Last          LastSnapshot `json:"last"`
	Unread        int          `json:"unread"`
	ReservationID string       `json:"reservationId,omitempty"`
}
