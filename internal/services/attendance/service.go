package attendance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	domain "schoolops/internal/errors"
	"schoolops/internal/models"
	"schoolops/internal/repositories"
	"schoolops/internal/services/alert"

	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

type service struct {
	repo      repositories.AttendanceRepository
	directory repositories.Directory
	publisher alert.Publisher
	validate  *validator.Validate
}

// NewService creates a new attendance service
func NewService(repo repositories.AttendanceRepository, directory repositories.Directory, publisher alert.Publisher) Service {
	if repo == nil {
		panic("repo is required")
	}
	if directory == nil {
		panic("directory is required")
	}
	if publisher == nil {
		publisher = alert.NoopPublisher{}
	}

	return &service{
		repo:      repo,
		directory: directory,
		publisher: publisher,
		validate:  validator.New(),
	}
}

func (s *service) Mark(ctx context.Context, input MarkInput) (*models.AttendanceDay, error) {
	if input.At.IsZero() {
		input.At = time.Now()
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	student, err := s.directory.LookupStudent(input.StudentID)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrStudentNotFound):
			return nil, fmt.Errorf("%w: student %d", domain.ErrNotFound, input.StudentID)
		case errors.Is(err, repositories.ErrBranchInactive):
			return nil, fmt.Errorf("%w: student %d belongs to an inactive branch", domain.ErrInvalidInput, input.StudentID)
		default:
			return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
		}
	}

	date := input.At.Format(dateLayout)
	var (
		day       *models.AttendanceDay
		alertRow  *models.Alert
		duplicate bool
	)

	err = s.repo.ExecuteInTransaction(func(tx repositories.AttendanceRepository) error {
		locked, err := tx.LockDay(input.StudentID, date)
		if err != nil {
			return err
		}

		if input.Action == models.AttendanceActionOut && locked.Status != models.AttendanceStatusPresent {
			return fmt.Errorf("%w: student %d not checked in on %s", domain.ErrInvalidTransition, input.StudentID, date)
		}

		event := &models.AttendanceEvent{
			EventKey:     eventKey(input.StudentID, date, input.Action, input.At),
			StudentID:    input.StudentID,
			Date:         date,
			Action:       input.Action,
			Method:       input.Method,
			Actor:        input.Actor,
			Relationship: input.Relationship,
			SendOffName:  input.SendOffName,
			Notes:        input.Notes,
			OccurredAt:   input.At,
		}
		if err := tx.CreateEvent(event); err != nil {
			if errors.Is(err, repositories.ErrEventExists) {
				// Idempotent replay: the first call already applied
				// this action, return its committed result.
				duplicate = true
				day = locked
				return nil
			}
			return err
		}

		s.apply(locked, input)
		if err := tx.SaveDay(locked); err != nil {
			return err
		}

		alertRow = &models.Alert{
			Type:    models.AlertTypeAttendance,
			Message: fmt.Sprintf("%s checked %s", student.Name, input.Action),
			RefID:   input.StudentID,
			Branch:  student.Branch,
			Payload: models.JSON{
				"student_id": input.StudentID,
				"action":     input.Action,
				"method":     input.Method,
				"actor":      input.Actor,
				"at":         input.At.Format(time.RFC3339),
			},
		}
		if err := tx.CreateAlert(alertRow); err != nil {
			return err
		}

		day = locked
		return nil
	})
	if err != nil {
		return nil, asDomain(err)
	}

	if !duplicate {
		if err := s.publisher.Publish(ctx, alertRow); err != nil {
			log.Printf("failed to publish attendance alert: %v", err)
		}
	}

	return day, nil
}

// apply folds one event into the day projection. An `in` while
// already present overwrites in_time and method (correction); the
// event log keeps the full trail.
func (s *service) apply(day *models.AttendanceDay, input MarkInput) {
	at := input.At
	switch input.Action {
	case models.AttendanceActionIn:
		day.Status = models.AttendanceStatusPresent
		day.InTime = &at
		day.Method = input.Method
	case models.AttendanceActionOut:
		day.OutTime = &at
		if input.SendOffName != "" {
			day.SendOffName = input.SendOffName
		}
	}
}

func (s *service) Day(ctx context.Context, studentID uint, date string) (*models.AttendanceDay, error) {
	day, err := s.repo.GetDay(studentID, date)
	if err != nil {
		if errors.Is(err, repositories.ErrDayNotFound) {
			return nil, fmt.Errorf("%w: no attendance for student %d on %s", domain.ErrNotFound, studentID, date)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return day, nil
}

func (s *service) Events(ctx context.Context, studentID uint, date string) ([]models.AttendanceEvent, error) {
	events, err := s.repo.EventsForDay(studentID, date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return events, nil
}

func (s *service) Alerts(ctx context.Context, branch string, limit int) ([]models.Alert, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	alerts, err := s.repo.AlertsForBranch(branch, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return alerts, nil
}

// eventKey buckets marks to the minute, so double-taps and gateway
// retries dedupe while genuine corrections (a later minute) still land.
func eventKey(studentID uint, date, action string, at time.Time) string {
	return fmt.Sprintf("%d|%s|%s|%s", studentID, date, action, at.Format("15:04"))
}

// asDomain passes typed domain errors through and converts anything
// else (connection loss, lock timeout) to StorageUnavailable.
func asDomain(err error) error {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
}
