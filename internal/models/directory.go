package models

import "time"

// Branch statuses
const (
	BranchStatusActive   = "active"
	BranchStatusInactive = "inactive"
)

// Branch is a franchisee location. Managed by the surrounding app;
// the ledger only reads it to validate that a student or account
// belongs to an active branch.
type Branch struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Status    string    `gorm:"size:12;not null;default:'active'" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Student is the directory view of a student: just enough to validate
// attendance marking and label alerts. Profile CRUD lives elsewhere.
type Student struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	Branch    string    `gorm:"index;size:64;not null" json:"branch"`
	Status    string    `gorm:"size:12;not null;default:'active'" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Account is a wallet/fee account, usually owned by a parent and tied
// to a student.
type Account struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	StudentID uint      `gorm:"index" json:"student_id"`
	Branch    string    `gorm:"index;size:64;not null" json:"branch"`
	Status    string    `gorm:"size:12;not null;default:'active'" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StudentInfo is what the directory collaborator returns to the ledger.
type StudentInfo struct {
	ID     uint
	Name   string
	Branch string
}

// AccountInfo is the account lookup result.
type AccountInfo struct {
	ID     uint
	Branch string
}
