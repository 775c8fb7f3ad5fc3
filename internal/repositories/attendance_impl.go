package repositories

import (
	"errors"
	"fmt"

	"schoolops/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type attendanceRepository struct {
	db *gorm.DB
}

func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

func (r *attendanceRepository) ExecuteInTransaction(fn func(AttendanceRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&attendanceRepository{db: tx})
	})
}

func (r *attendanceRepository) LockDay(studentID uint, date string) (*models.AttendanceDay, error) {
	// Insert-if-absent first so the FOR UPDATE below always has a row
	// to lock. ON CONFLICT DO NOTHING makes the insert race-safe.
	day := &models.AttendanceDay{
		StudentID: studentID,
		Date:      date,
		Status:    models.AttendanceStatusAbsent,
	}
	if err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(day).Error; err != nil {
		return nil, fmt.Errorf("failed to ensure attendance day: %w", err)
	}

	var locked models.AttendanceDay
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("student_id = ? AND date = ?", studentID, date).
		First(&locked).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock attendance day: %w", err)
	}
	return &locked, nil
}

func (r *attendanceRepository) SaveDay(day *models.AttendanceDay) error {
	if err := r.db.Save(day).Error; err != nil {
		return fmt.Errorf("failed to save attendance day: %w", err)
	}
	return nil
}

func (r *attendanceRepository) GetDay(studentID uint, date string) (*models.AttendanceDay, error) {
	var day models.AttendanceDay
	err := r.db.Where("student_id = ? AND date = ?", studentID, date).First(&day).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrDayNotFound
		}
		return nil, fmt.Errorf("failed to get attendance day: %w", err)
	}
	return &day, nil
}

func (r *attendanceRepository) CreateEvent(event *models.AttendanceEvent) error {
	if err := r.db.Create(event).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEventExists
		}
		return fmt.Errorf("failed to create attendance event: %w", err)
	}
	return nil
}

func (r *attendanceRepository) EventsForDay(studentID uint, date string) ([]models.AttendanceEvent, error) {
	var events []models.AttendanceEvent
	err := r.db.Where("student_id = ? AND date = ?", studentID, date).
		Order("occurred_at ASC, id ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance events: %w", err)
	}
	return events, nil
}

func (r *attendanceRepository) CreateAlert(alert *models.Alert) error {
	if err := r.db.Create(alert).Error; err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

func (r *attendanceRepository) AlertsForBranch(branch string, limit int) ([]models.Alert, error) {
	var alerts []models.Alert
	err := r.db.Where("branch = ?", branch).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	return alerts, nil
}
