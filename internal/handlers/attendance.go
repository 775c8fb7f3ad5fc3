package handlers

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"schoolops/internal/models"
	"schoolops/internal/services/attendance"
	"schoolops/internal/services/facematch"
	"schoolops/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type AttendanceHandler struct {
	service attendance.Service
	matcher facematch.Matcher
}

func NewAttendanceHandler(service attendance.Service, matcher facematch.Matcher) *AttendanceHandler {
	return &AttendanceHandler{
		service: service,
		matcher: matcher,
	}
}

// extractUserClaims is a helper function to reduce duplication
func extractUserClaims(c *fiber.Ctx) (*models.UserClaims, error) {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok || claims == nil {
		return nil, fiber.ErrUnauthorized
	}
	return claims, nil
}

func (h *AttendanceHandler) Mark(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		StudentID    uint   `json:"student_id"`
		Action       string `json:"action"`
		Relationship string `json:"relationship"`
		SendOffName  string `json:"send_off_name"`
		Notes        string `json:"notes"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	day, err := h.service.Mark(c.Context(), attendance.MarkInput{
		StudentID:    input.StudentID,
		Action:       input.Action,
		Method:       models.AttendanceMethodManual,
		Actor:        fmt.Sprintf("%s:%d", claims.Role, claims.UserID),
		Relationship: input.Relationship,
		SendOffName:  input.SendOffName,
		Notes:        input.Notes,
	})
	if err != nil {
		return utils.DomainError(c, err)
	}

	return utils.Success(c, fiber.Map{"attendance": day})
}

// MarkByFace handles the kiosk flow: the scanner posts a probe image
// plus candidate photos, the matcher picks a student, and a
// face_recognition mark is applied.
func (h *AttendanceHandler) MarkByFace(c *fiber.Ctx) error {
	var input struct {
		Action     string `json:"action"`
		Probe      string `json:"probe"`
		Candidates []struct {
			StudentID uint   `json:"student_id"`
			Image     string `json:"image"`
		} `json:"candidates"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	probe, err := base64.StdEncoding.DecodeString(input.Probe)
	if err != nil || len(probe) == 0 {
		return utils.BadRequest(c, "invalid probe image")
	}

	candidates := make([]facematch.Candidate, 0, len(input.Candidates))
	for _, cand := range input.Candidates {
		img, err := base64.StdEncoding.DecodeString(cand.Image)
		if err != nil {
			return utils.BadRequest(c, "invalid candidate image")
		}
		candidates = append(candidates, facematch.Candidate{
			StudentID: cand.StudentID,
			Image:     img,
		})
	}

	verdict, err := h.matcher.MatchFace(c.Context(), probe, candidates)
	if err != nil {
		return utils.InternalError(c, "face matching failed")
	}
	if !verdict.Matched {
		return utils.Respond(c, fiber.StatusOK, fiber.Map{
			"success": false,
			"matched": false,
		})
	}

	day, err := h.service.Mark(c.Context(), attendance.MarkInput{
		StudentID: verdict.StudentID,
		Action:    input.Action,
		Method:    models.AttendanceMethodFace,
		Actor:     "kiosk",
	})
	if err != nil {
		return utils.DomainError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"matched":    true,
		"confidence": verdict.Confidence,
		"attendance": day,
	})
}

func (h *AttendanceHandler) GetDay(c *fiber.Ctx) error {
	studentID, err := strconv.ParseUint(c.Params("studentID"), 10, 32)
	if err != nil {
		return utils.BadRequest(c, "invalid student id")
	}
	date := c.Query("date", time.Now().Format("2006-01-02"))

	day, err := h.service.Day(c.Context(), uint(studentID), date)
	if err != nil {
		return utils.DomainError(c, err)
	}
	return utils.Success(c, fiber.Map{"attendance": day})
}

func (h *AttendanceHandler) GetEvents(c *fiber.Ctx) error {
	studentID, err := strconv.ParseUint(c.Params("studentID"), 10, 32)
	if err != nil {
		return utils.BadRequest(c, "invalid student id")
	}
	date := c.Query("date", time.Now().Format("2006-01-02"))

	events, err := h.service.Events(c.Context(), uint(studentID), date)
	if err != nil {
		return utils.DomainError(c, err)
	}
	return utils.Success(c, fiber.Map{"events": events})
}

func (h *AttendanceHandler) GetAlerts(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	branch := c.Query("branch", claims.Branch)
	limit := c.QueryInt("limit", 50)

	alerts, err := h.service.Alerts(c.Context(), branch, limit)
	if err != nil {
		return utils.DomainError(c, err)
	}
	return utils.Success(c, fiber.Map{"alerts": alerts})
}
