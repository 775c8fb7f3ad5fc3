package repositories

import (
	"errors"

	"schoolops/internal/models"
)

var (
	ErrDayNotFound = errors.New("attendance day not found")
	ErrEventExists = errors.New("attendance event already recorded")
)

// AttendanceRepository persists the attendance event log and its
// per-(student, date) projection. LockDay, SaveDay and CreateEvent are
// only meaningful inside ExecuteInTransaction; the lock is released on
// commit or rollback.
type AttendanceRepository interface {
	ExecuteInTransaction(fn func(AttendanceRepository) error) error

	// LockDay creates the projection row if absent, then acquires an
	// exclusive row lock on it and returns the current value. This is
	// the serialization point for all writes to one (student, date).
	LockDay(studentID uint, date string) (*models.AttendanceDay, error)
	SaveDay(day *models.AttendanceDay) error
	GetDay(studentID uint, date string) (*models.AttendanceDay, error)

	// CreateEvent appends to the event log. Returns ErrEventExists if
	// the idempotency key has already been recorded.
	CreateEvent(event *models.AttendanceEvent) error
	EventsForDay(studentID uint, date string) ([]models.AttendanceEvent, error)

	CreateAlert(alert *models.Alert) error
	AlertsForBranch(branch string, limit int) ([]models.Alert, error)
}
