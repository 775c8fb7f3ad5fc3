package repositories

import (
	"errors"
	"fmt"

	"schoolops/internal/models"

	"gorm.io/gorm"
)

var (
	ErrStudentNotFound = errors.New("student not found")
	ErrAccountNotFound = errors.New("account not found")
	ErrBranchInactive  = errors.New("branch is not active")
)

// Directory is the user/account lookup collaborator. The ledger only
// needs existence plus the owning branch; profile CRUD lives in the
// surrounding app.
type Directory interface {
	LookupStudent(studentID uint) (*models.StudentInfo, error)
	LookupAccount(accountID uint) (*models.AccountInfo, error)
}

type gormDirectory struct {
	db *gorm.DB
}

func NewDirectory(db *gorm.DB) Directory {
	return &gormDirectory{db: db}
}

func (d *gormDirectory) LookupStudent(studentID uint) (*models.StudentInfo, error) {
	var student models.Student
	err := d.db.Where("id = ? AND status = ?", studentID, "active").First(&student).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to look up student: %w", err)
	}

	if err := d.checkBranchActive(student.Branch); err != nil {
		return nil, err
	}

	return &models.StudentInfo{
		ID:     student.ID,
		Name:   student.Name,
		Branch: student.Branch,
	}, nil
}

func (d *gormDirectory) LookupAccount(accountID uint) (*models.AccountInfo, error) {
	var account models.Account
	err := d.db.Where("id = ? AND status = ?", accountID, "active").First(&account).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	return &models.AccountInfo{
		ID:     account.ID,
		Branch: account.Branch,
	}, nil
}

func (d *gormDirectory) checkBranchActive(name string) error {
	var branch models.Branch
	err := d.db.Where("name = ?", name).First(&branch).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrBranchInactive
		}
		return fmt.Errorf("failed to look up branch: %w", err)
	}
	if branch.Status != models.BranchStatusActive {
		return ErrBranchInactive
	}
	return nil
}
