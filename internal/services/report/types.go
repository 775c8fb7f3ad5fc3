package report

import (
	"context"

	"schoolops/internal/repositories"

	"github.com/shopspring/decimal"
)

// AttendanceExport is the daily/monthly attendance aggregation for one
// branch. AttendanceRate = present / (present + absent) × 100, rounded
// to two decimals.
type AttendanceExport struct {
	Branch         string                       `json:"branch"`
	From           string                       `json:"from"`
	To             string                       `json:"to"`
	Days           []repositories.DayAttendance `json:"days"`
	TotalStudents  int64                        `json:"total_students"`
	PresentRecords int64                        `json:"present_records"`
	AbsentRecords  int64                        `json:"absent_records"`
	AttendanceRate float64                      `json:"attendance_rate"`
}

// IncomeSummary is the franchisee settlement view: totals plus the
// fixed administration revenue share.
type IncomeSummary struct {
	Branch         string          `json:"branch"`
	From           string          `json:"from"`
	To             string          `json:"to"`
	TotalIncome    decimal.Decimal `json:"total_income"`
	TotalExpense   decimal.Decimal `json:"total_expense"`
	AdminShare     decimal.Decimal `json:"admin_share"`
	NetBeforeShare decimal.Decimal `json:"net_before_share"`
	NetAfterShare  decimal.Decimal `json:"net_after_share"`
}

// Service is the read-only reporting layer. Queries run against
// committed rows only and never block the ledger writers.
type Service interface {
	MonthlyAttendance(ctx context.Context, branch string, month, year int) (*AttendanceExport, error)
	DailyAttendance(ctx context.Context, branch, date string) (*AttendanceExport, error)
	IncomeSummary(ctx context.Context, branch, from, to string) (*IncomeSummary, error)
}
