package repositories

import (
	"fmt"

	"schoolops/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DayAttendance is one aggregated row of the attendance export.
type DayAttendance struct {
	Date    string `json:"date"`
	Present int64  `json:"present"`
	Absent  int64  `json:"absent"`
}

// ReportRepository serves the read-only aggregations. Queries run at
// read-committed isolation and never take row locks, so reporting is
// safe against a live system; slightly stale reads are acceptable.
type ReportRepository interface {
	AttendanceCounts(branch, from, to string) ([]DayAttendance, error)
	StudentCount(branch string) (int64, error)
	IncomeTotals(branch, from, to string) (income, expense decimal.Decimal, err error)
}

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) AttendanceCounts(branch, from, to string) ([]DayAttendance, error) {
	var rows []DayAttendance
	err := r.db.Model(&models.AttendanceDay{}).
		Joins("JOIN students s ON s.id = attendance_days.student_id").
		Where("s.branch = ? AND attendance_days.date BETWEEN ? AND ?", branch, from, to).
		Select(`
			attendance_days.date AS date,
			SUM(CASE WHEN attendance_days.status = 'present' THEN 1 ELSE 0 END) AS present,
			SUM(CASE WHEN attendance_days.status = 'absent' THEN 1 ELSE 0 END) AS absent
		`).
		Group("attendance_days.date").
		Order("attendance_days.date ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate attendance: %w", err)
	}
	return rows, nil
}

func (r *reportRepository) StudentCount(branch string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Student{}).
		Where("branch = ? AND status = ?", branch, "active").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count students: %w", err)
	}
	return count, nil
}

func (r *reportRepository) IncomeTotals(branch, from, to string) (decimal.Decimal, decimal.Decimal, error) {
	sum := func(recordType string) (decimal.Decimal, error) {
		var total decimal.Decimal
		err := r.db.Model(&models.IncomeRecord{}).
			Where("branch = ? AND type = ? AND date BETWEEN ? AND ?", branch, recordType, from, to).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&total).Error
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to sum %s records: %w", recordType, err)
		}
		return total, nil
	}

	income, err := sum(models.IncomeTypeIncome)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	expense, err := sum(models.IncomeTypeExpense)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return income, expense, nil
}
