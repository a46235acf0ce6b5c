package models

import (
	"strings"
	"time"
)

// Reservation status values as normalized by the client.
const (
	ReservationPending   = "PENDING"
	ReservationConfirmed = "CONFIRMED"
	ReservationCancelled = "CANCELLED"
)

// ReservationPreview is a denormalized order summary shown alongside a chat
// thread. It is a cache, not an authoritative record; staleness is tolerated.
type ReservationPreview struct {
	ReservationID string        `json:"reservationId"`
	CreatedAt     time.Time     `json:"createdAt"`
	Total         float64       `json:"total,omitempty"`
	Status        string        `json:"status,omitempty"`
	Items         []PreviewItem `json:"items,omitempty"`
}

// PreviewItem is one reserved line item.
type PreviewItem struct {
	Name     string  `json:"name"`
	Qty      int     `json:"qty"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"imageUrl,omitempty"`
}

// Normalize upper-cases the status, defaulting empty to pending.
func (p *ReservationPreview) Normalize() {
	if p.Status == "" {
		p.Status = ReservationPending
		return
	}
	p.Status = strings.ToUpper(p.Status)
}

// Closed reports whether the linked reservation no longer accepts messages.
func (p *ReservationPreview) Closed() bool {
	if p == nil {
		return false
	}
	return p.Status == ReservationConfirmed || p.Status == ReservationCancelled
}
