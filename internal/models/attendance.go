package models

import "time"

// Attendance actions
const (
	AttendanceActionIn  = "in"
	AttendanceActionOut = "out"
)

// Marking methods
const (
	AttendanceMethodManual = "manual"
	AttendanceMethodFace   = "face_recognition"
)

// Projection statuses
const (
	AttendanceStatusAbsent  = "absent"
	AttendanceStatusPresent = "present"
)

// AttendanceEvent is one row of the append-only attendance log.
// Rows are never updated or deleted; corrections are new events.
type AttendanceEvent struct {
	ID           uint   `gorm:"primarykey" json:"id"`
	EventKey     string `gorm:"uniqueIndex;size:96;not null" json:"-"`
	StudentID    uint   `gorm:"index:idx_attendance_events_day;not null" json:"student_id"`
	Date         string `gorm:"index:idx_attendance_events_day;size:10;not null" json:"date"`
	Action       string `gorm:"size:8;not null" json:"action"`
	Method       string `gorm:"size:24;not null" json:"method"`
	Actor        string `gorm:"size:64" json:"actor"`
	Relationship string `gorm:"size:32" json:"relationship,omitempty"`
	SendOffName  string `gorm:"size:64" json:"send_off_name,omitempty"`
	Notes        string `gorm:"type:text" json:"notes,omitempty"`
	OccurredAt   time.Time `gorm:"not null" json:"occurred_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// AttendanceDay is the per-(student, date) projection of the event
// log. It is created lazily on the first event of the day and mutated
// in place by subsequent events, always under a row lock.
type AttendanceDay struct {
	ID          uint       `gorm:"primarykey" json:"id"`
	StudentID   uint       `gorm:"uniqueIndex:idx_attendance_days_key;not null" json:"student_id"`
	Date        string     `gorm:"uniqueIndex:idx_attendance_days_key;size:10;not null" json:"date"`
	Status      string     `gorm:"size:12;not null;default:'absent'" json:"status"`
	InTime      *time.Time `json:"in_time,omitempty"`
	OutTime     *time.Time `json:"out_time,omitempty"`
	Method      string     `gorm:"size:24" json:"method,omitempty"`
	SendOffName string     `gorm:"size:64" json:"send_off_name,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
