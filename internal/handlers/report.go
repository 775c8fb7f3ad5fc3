package handlers

import (
	"time"

	"schoolops/internal/services/report"
	"schoolops/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	service report.Service
}

func NewReportHandler(service report.Service) *ReportHandler {
	return &ReportHandler{service: service}
}

func (h *ReportHandler) MonthlyAttendance(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	branch := c.Query("branch", claims.Branch)
	now := time.Now()
	month := c.QueryInt("month", int(now.Month()))
	year := c.QueryInt("year", now.Year())

	export, err := h.service.MonthlyAttendance(c.Context(), branch, month, year)
	if err != nil {
		return utils.DomainError(c, err)
	}
	return utils.Success(c, fiber.Map{"report": export})
}

func (h *ReportHandler) DailyAttendance(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	branch := c.Query("branch", claims.Branch)
	date := c.Query("date", time.Now().Format("2006-01-02"))

	export, err := h.service.DailyAttendance(c.Context(), branch, date)
	if err != nil {
		return utils.DomainError(c, err)
	}
	return utils.Success(c, fiber.Map{"report": export})
}

func (h *ReportHandler) IncomeSummary(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	branch := c.Query("branch", claims.Branch)
	now := time.Now()
	from := c.Query("from", now.AddDate(0, -1, 0).Format("2006-01-02"))
	to := c.Query("to", now.Format("2006-01-02"))

	summary, err := h.service.IncomeSummary(c.Context(), branch, from, to)
	if err != nil {
		return utils.DomainError(c, err)
	}
	return utils.Success(c, fiber.Map{"summary": summary})
}
