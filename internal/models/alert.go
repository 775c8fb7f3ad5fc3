package models

import "time"

// Alert types
const (
	AlertTypeAttendance = "attendance"
	AlertTypePayment    = "payment"
)

// Alert is the append-only feed backing live dashboards. Rows are
// written in the same transaction as the event they describe; the
// Redis publish that fans them out is best-effort.
type Alert struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Type      string    `gorm:"size:24;not null" json:"type"`
	Message   string    `gorm:"not null" json:"message"`
	RefID     uint      `gorm:"index" json:"ref_id"`
	Branch    string    `gorm:"index;size:64;not null" json:"branch"`
	Payload   JSON      `gorm:"type:jsonb" json:"payload,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
