package attendance

import (
	"context"
	"time"

	"schoolops/internal/models"
)

// MarkInput carries one check-in/out action. At defaults to the
// current time when zero; actor and relationship come from the caller
// (teacher tablet, parent phone, kiosk).
type MarkInput struct {
	StudentID    uint   `validate:"required"`
	Action       string `validate:"required,oneof=in out"`
	Method       string `validate:"required,oneof=manual face_recognition"`
	Actor        string `validate:"required"`
	Relationship string
	SendOffName  string
	Notes        string
	At           time.Time
}

// Service is the attendance half of the event ledger. Mark is the
// single write operation; the rest are read-only.
type Service interface {
	Mark(ctx context.Context, input MarkInput) (*models.AttendanceDay, error)
	Day(ctx context.Context, studentID uint, date string) (*models.AttendanceDay, error)
	Events(ctx context.Context, studentID uint, date string) ([]models.AttendanceEvent, error)
	Alerts(ctx context.Context, branch string, limit int) ([]models.Alert, error)
}
