package report

import (
	"context"
	"fmt"
	"math"
	"time"

	domain "schoolops/internal/errors"
	"schoolops/internal/repositories"

	"github.com/shopspring/decimal"
)

// AdminSharePercent is the fixed franchisee-to-administration revenue
// share. All branches settle at the same rate.
const AdminSharePercent = 10

var adminShareRate = decimal.NewFromInt(AdminSharePercent).Div(decimal.NewFromInt(100))

type service struct {
	repo repositories.ReportRepository
}

// NewService creates a new report service
func NewService(repo repositories.ReportRepository) Service {
	if repo == nil {
		panic("repo is required")
	}
	return &service{repo: repo}
}

func (s *service) MonthlyAttendance(ctx context.Context, branch string, month, year int) (*AttendanceExport, error) {
	if branch == "" {
		return nil, fmt.Errorf("%w: branch is required", domain.ErrInvalidInput)
	}
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: month must be 1-12", domain.ErrInvalidInput)
	}
	if year < 2000 {
		return nil, fmt.Errorf("%w: invalid year", domain.ErrInvalidInput)
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return s.export(branch, first.Format("2006-01-02"), last.Format("2006-01-02"))
}

func (s *service) DailyAttendance(ctx context.Context, branch, date string) (*AttendanceExport, error) {
	if branch == "" {
		return nil, fmt.Errorf("%w: branch is required", domain.ErrInvalidInput)
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrInvalidInput)
	}
	return s.export(branch, date, date)
}

func (s *service) export(branch, from, to string) (*AttendanceExport, error) {
	days, err := s.repo.AttendanceCounts(branch, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	total, err := s.repo.StudentCount(branch)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	var present, absent int64
	for _, d := range days {
		present += d.Present
		absent += d.Absent
	}

	rate := 0.0
	if present+absent > 0 {
		rate = math.Round(float64(present)/float64(present+absent)*100*100) / 100
	}

	return &AttendanceExport{
		Branch:         branch,
		From:           from,
		To:             to,
		Days:           days,
		TotalStudents:  total,
		PresentRecords: present,
		AbsentRecords:  absent,
		AttendanceRate: rate,
	}, nil
}

func (s *service) IncomeSummary(ctx context.Context, branch, from, to string) (*IncomeSummary, error) {
	if branch == "" {
		return nil, fmt.Errorf("%w: branch is required", domain.ErrInvalidInput)
	}
	for _, d := range []string{from, to} {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return nil, fmt.Errorf("%w: dates must be YYYY-MM-DD", domain.ErrInvalidInput)
		}
	}

	income, expense, err := s.repo.IncomeTotals(branch, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	share := income.Mul(adminShareRate).Round(2)
	netBefore := income.Sub(expense)

	return &IncomeSummary{
		Branch:         branch,
		From:           from,
		To:             to,
		TotalIncome:    income,
		TotalExpense:   expense,
		AdminShare:     share,
		NetBeforeShare: netBefore,
		NetAfterShare:  netBefore.Sub(share),
	}, nil
}
