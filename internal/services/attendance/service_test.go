package attendance

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	domain "schoolops/internal/errors"
	"schoolops/internal/models"
	"schoolops/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAttendanceRepo is an in-memory AttendanceRepository with
// transactional semantics: ExecuteInTransaction serializes writers and
// rolls every mutation back when the callback fails, matching the
// row-lock behavior of the real repository.
type fakeAttendanceRepo struct {
	mu     sync.Mutex
	days   map[string]models.AttendanceDay
	events map[string]models.AttendanceEvent
	order  []string
	alerts []models.Alert
	nextID uint
}

func newFakeAttendanceRepo() *fakeAttendanceRepo {
	return &fakeAttendanceRepo{
		days:   make(map[string]models.AttendanceDay),
		events: make(map[string]models.AttendanceEvent),
	}
}

func dayKey(studentID uint, date string) string {
	return fmt.Sprintf("%d|%s", studentID, date)
}

func (f *fakeAttendanceRepo) ExecuteInTransaction(fn func(repositories.AttendanceRepository) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	snapDays := make(map[string]models.AttendanceDay, len(f.days))
	for k, v := range f.days {
		snapDays[k] = v
	}
	snapEvents := make(map[string]models.AttendanceEvent, len(f.events))
	for k, v := range f.events {
		snapEvents[k] = v
	}
	snapOrder := append([]string(nil), f.order...)
	snapAlerts := append([]models.Alert(nil), f.alerts...)
	snapID := f.nextID

	if err := fn(f); err != nil {
		f.days = snapDays
		f.events = snapEvents
		f.order = snapOrder
		f.alerts = snapAlerts
		f.nextID = snapID
		return err
	}
	return nil
}

func (f *fakeAttendanceRepo) LockDay(studentID uint, date string) (*models.AttendanceDay, error) {
	key := dayKey(studentID, date)
	if day, ok := f.days[key]; ok {
		return &day, nil
	}
	f.nextID++
	day := models.AttendanceDay{
		ID:        f.nextID,
		StudentID: studentID,
		Date:      date,
		Status:    models.AttendanceStatusAbsent,
	}
	f.days[key] = day
	return &day, nil
}

func (f *fakeAttendanceRepo) SaveDay(day *models.AttendanceDay) error {
	f.days[dayKey(day.StudentID, day.Date)] = *day
	return nil
}

func (f *fakeAttendanceRepo) GetDay(studentID uint, date string) (*models.AttendanceDay, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	day, ok := f.days[dayKey(studentID, date)]
	if !ok {
		return nil, repositories.ErrDayNotFound
	}
	return &day, nil
}

func (f *fakeAttendanceRepo) CreateEvent(event *models.AttendanceEvent) error {
	if _, exists := f.events[event.EventKey]; exists {
		return repositories.ErrEventExists
	}
	f.nextID++
	event.ID = f.nextID
	f.events[event.EventKey] = *event
	f.order = append(f.order, event.EventKey)
	return nil
}

func (f *fakeAttendanceRepo) EventsForDay(studentID uint, date string) ([]models.AttendanceEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var events []models.AttendanceEvent
	for _, key := range f.order {
		ev := f.events[key]
		if ev.StudentID == studentID && ev.Date == date {
			events = append(events, ev)
		}
	}
	return events, nil
}

func (f *fakeAttendanceRepo) CreateAlert(alert *models.Alert) error {
	f.nextID++
	alert.ID = f.nextID
	f.alerts = append(f.alerts, *alert)
	return nil
}

func (f *fakeAttendanceRepo) AlertsForBranch(branch string, limit int) ([]models.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var alerts []models.Alert
	for i := len(f.alerts) - 1; i >= 0 && len(alerts) < limit; i-- {
		if f.alerts[i].Branch == branch {
			alerts = append(alerts, f.alerts[i])
		}
	}
	return alerts, nil
}

type fakeDirectory struct {
	students map[uint]*models.StudentInfo
	accounts map[uint]*models.AccountInfo
}

func (d *fakeDirectory) LookupStudent(studentID uint) (*models.StudentInfo, error) {
	student, ok := d.students[studentID]
	if !ok {
		return nil, repositories.ErrStudentNotFound
	}
	return student, nil
}

func (d *fakeDirectory) LookupAccount(accountID uint) (*models.AccountInfo, error) {
	account, ok := d.accounts[accountID]
	if !ok {
		return nil, repositories.ErrAccountNotFound
	}
	return account, nil
}

func newTestService() (Service, *fakeAttendanceRepo) {
	repo := newFakeAttendanceRepo()
	directory := &fakeDirectory{
		students: map[uint]*models.StudentInfo{
			1: {ID: 1, Name: "Anu", Branch: "Coimbatore"},
			2: {ID: 2, Name: "Ravi", Branch: "Coimbatore"},
		},
	}
	return NewService(repo, directory, nil), repo
}

func at(hour, minute int) time.Time {
	return time.Date(2024, 3, 11, hour, minute, 0, 0, time.UTC)
}

func TestMark_CheckInThenOut(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	day, err := svc.Mark(ctx, MarkInput{
		StudentID: 1, Action: "in", Method: "manual", Actor: "teacher:9", At: at(8, 30),
	})
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceStatusPresent, day.Status)
	require.NotNil(t, day.InTime)
	assert.Equal(t, at(8, 30), *day.InTime)
	assert.Nil(t, day.OutTime)

	day, err = svc.Mark(ctx, MarkInput{
		StudentID: 1, Action: "out", Method: "manual", Actor: "teacher:9",
		SendOffName: "Father", At: at(16, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceStatusPresent, day.Status)
	require.NotNil(t, day.OutTime)
	assert.Equal(t, at(16, 0), *day.OutTime)
	assert.Equal(t, "Father", day.SendOffName)

	events, err := repo.EventsForDay(1, "2024-03-11")
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestMark_DoubleCheckInCollapsesProjectionKeepsAuditTrail(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	_, err := svc.Mark(ctx, MarkInput{
		StudentID: 1, Action: "in", Method: "manual", Actor: "teacher:9", At: at(8, 30),
	})
	require.NoError(t, err)

	// Correction a few minutes later overwrites in_time and method.
	_, err = svc.Mark(ctx, MarkInput{
		StudentID: 1, Action: "in", Method: "face_recognition", Actor: "kiosk", At: at(8, 45),
	})
	require.NoError(t, err)

	day, err := svc.Mark(ctx, MarkInput{
		StudentID: 1, Action: "out", Method: "manual", Actor: "teacher:9", At: at(16, 0),
	})
	require.NoError(t, err)

	assert.Equal(t, models.AttendanceStatusPresent, day.Status)
	require.NotNil(t, day.InTime)
	assert.Equal(t, at(8, 45), *day.InTime)
	assert.Equal(t, models.AttendanceMethodFace, day.Method)

	events, err := repo.EventsForDay(1, "2024-03-11")
	require.NoError(t, err)
	assert.Len(t, events, 3, "projection collapses but the log keeps every event")
}

func TestMark_OutWithoutInFails(t *testing.T) {
	svc, repo := newTestService()

	_, err := svc.Mark(context.Background(), MarkInput{
		StudentID: 1, Action: "out", Method: "manual", Actor: "teacher:9", At: at(16, 0),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// The rollback removes the lazily-created projection row.
	_, err = repo.GetDay(1, "2024-03-11")
	assert.ErrorIs(t, err, repositories.ErrDayNotFound)

	events, err := repo.EventsForDay(1, "2024-03-11")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestMark_SameMinuteReplayIsIdempotent(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	first, err := svc.Mark(ctx, MarkInput{
		StudentID: 1, Action: "in", Method: "manual", Actor: "teacher:9", At: at(8, 30),
	})
	require.NoError(t, err)

	// Retry in the same minute bucket: no error, no second event.
	second, err := svc.Mark(ctx, MarkInput{
		StudentID: 1, Action: "in", Method: "manual", Actor: "teacher:9", At: at(8, 30).Add(15 * time.Second),
	})
	require.NoError(t, err)
	assert.Equal(t, first.Status, second.Status)

	events, err := repo.EventsForDay(1, "2024-03-11")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestMark_ValidationAndLookupErrors(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	tests := []struct {
		name    string
		input   MarkInput
		wantErr error
	}{
		{
			name:    "unknown student",
			input:   MarkInput{StudentID: 99, Action: "in", Method: "manual", Actor: "teacher:9"},
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "bad action",
			input:   MarkInput{StudentID: 1, Action: "sideways", Method: "manual", Actor: "teacher:9"},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "missing actor",
			input:   MarkInput{StudentID: 1, Action: "in", Method: "manual"},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "bad method",
			input:   MarkInput{StudentID: 1, Action: "in", Method: "telepathy", Actor: "teacher:9"},
			wantErr: domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Mark(ctx, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestMark_EmitsAlertPerAppliedEvent(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	_, err := svc.Mark(ctx, MarkInput{
		StudentID: 1, Action: "in", Method: "manual", Actor: "teacher:9", At: at(8, 30),
	})
	require.NoError(t, err)
	_, err = svc.Mark(ctx, MarkInput{
		StudentID: 2, Action: "in", Method: "manual", Actor: "teacher:9", At: at(8, 31),
	})
	require.NoError(t, err)

	alerts, err := repo.AlertsForBranch("Coimbatore", 10)
	require.NoError(t, err)
	assert.Len(t, alerts, 2)
	assert.Equal(t, models.AlertTypeAttendance, alerts[0].Type)
}

func TestMark_ConcurrentSameStudentSerializes(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(minute int) {
			defer wg.Done()
			_, _ = svc.Mark(ctx, MarkInput{
				StudentID: 1, Action: "in", Method: "manual", Actor: "teacher:9",
				At: at(8, minute),
			})
		}(i)
	}
	wg.Wait()

	day, err := repo.GetDay(1, "2024-03-11")
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceStatusPresent, day.Status)

	events, err := repo.EventsForDay(1, "2024-03-11")
	require.NoError(t, err)
	assert.Len(t, events, 10, "every distinct-minute mark lands in the log")
}
