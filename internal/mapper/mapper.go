// Package mapper translates backend chat records into the view shapes the
// inbox and thread screens render. Everything here is pure; no network calls.
package mapper

import (
	"chat-client/internal/models"
)

// Mapper resolves participants and unread counters from the viewer's side.
// The name fallbacks are display labels used when the backend record carries
// no populated participant object.
type Mapper struct {
	ShopName      string
	CustomerLabel string
}

// New builds a Mapper with default display labels.
func New() *Mapper {
	return &Mapper{ShopName: "Perfumes Catedral", CustomerLabel: "Cliente"}
}

// IsParticipant reports whether userID belongs to the chat pair.
func IsParticipant(chat models.Chat, userID string) bool {
	return chat.CustomerID == userID || chat.AdminID == userID
}

// OtherParticipantID returns the counterpart id, or "" when the viewer is not
// part of the pair. Callers treat "" as "unknown other party" and degrade.
func OtherParticipantID(chat models.Chat, myID string) string {
	switch myID {
	case chat.CustomerID:
		return chat.AdminID
	case chat.AdminID:
		return chat.CustomerID
	default:
		return ""
	}
}

// UnreadForMe selects the unread counter matching the viewer's role.
func UnreadForMe(chat models.Chat, role models.Role) int {
	if role == models.RoleAdmin {
		return chat.UnreadByAdmin
	}
	return chat.UnreadByCustomer
}

// LastForRow returns the last-message display snapshot, falling back to the
// chat's update then creation timestamp when no snapshot exists.
func LastForRow(chat models.Chat) models.LastSnapshot {
	if chat.LastMessage != nil {
		at := chat.LastMessage.At
		if at.IsZero() {
			at = chat.UpdatedAt
		}
		return models.LastSnapshot{Text: chat.LastMessage.Text, At: at}
	}
	at := chat.UpdatedAt
	if at.IsZero() {
		at = chat.CreatedAt
	}
	return models.LastSnapshot{At: at}
}

// ToRow maps a backend chat record to the viewer's inbox row.
func (m *Mapper) ToRow(chat models.Chat, me models.CurrentUser) models.ChatRow {
	otherID := OtherParticipantID(chat, me.ID)
	return models.ChatRow{
		ID:            chat.ID,
		OtherID:       otherID,
		OtherName:     m.otherName(chat, me, otherID),
		Last:          LastForRow(chat),
		Unread:        UnreadForMe(chat, me.Role),
		ReservationID: chat.ReservationID,
	}
}

// ToMsg maps a backend message record to its thread view shape.
func ToMsg(msg models.Message) models.Msg {
	return models.Msg{
		ID:     msg.ID,
		ChatID: msg.ChatID,
		FromID: msg.SenderID,
		Text:   msg.Text,
		At:     msg.CreatedAt,
		State:  msg.State,
	}
}

func (m *Mapper) otherName(chat models.Chat, me models.CurrentUser, otherID string) string {
	if me.Role == models.RoleAdmin {
		if chat.Customer != nil && chat.Customer.Name != "" {
			return chat.Customer.Name
		}
		label := m.CustomerLabel
		if tail := idTail(otherID); tail != "" {
			label += " " + tail
		}
		return label
	}
	if chat.Admin != nil && chat.Admin.Name != "" {
		return chat.Admin.Name
	}
	return m.ShopName
}

func idTail(id string) string {
	if len(id) <= 4 {
		return id
	}
	return id[len(id)-4:]
}
