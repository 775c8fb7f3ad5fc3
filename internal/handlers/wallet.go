package handlers

import (
	"strconv"
	"time"

	"schoolops/internal/services/ledger"
	"schoolops/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type WalletHandler struct {
	service ledger.Service
}

func NewWalletHandler(service ledger.Service) *WalletHandler {
	return &WalletHandler{service: service}
}

func (h *WalletHandler) AddMoney(c *fiber.Ctx) error {
	var input struct {
		AccountID  uint    `json:"account_id"`
		Amount     float64 `json:"amount"`
		PaymentRef string  `json:"payment_ref"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	balance, err := h.service.AddMoney(c.Context(), ledger.AddMoneyInput{
		AccountID: input.AccountID,
		Amount:    decimal.NewFromFloat(input.Amount),
		Reference: input.PaymentRef,
	})
	if err != nil {
		return utils.DomainError(c, err)
	}
	return utils.Success(c, fiber.Map{"balance": balance})
}

func (h *WalletHandler) PayFee(c *fiber.Ctx) error {
	var input struct {
		AccountID  uint    `json:"account_id"`
		Amount     float64 `json:"amount"`
		PaymentRef string  `json:"payment_ref"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	balance, err := h.service.PayFee(c.Context(), ledger.PayFeeInput{
		AccountID: input.AccountID,
		Amount:    decimal.NewFromFloat(input.Amount),
		Reference: input.PaymentRef,
	})
	if err != nil {
		return utils.DomainError(c, err)
	}
	return utils.Success(c, fiber.Map{"balance": balance})
}

func (h *WalletHandler) AssignFee(c *fiber.Ctx) error {
	var input struct {
		AccountID uint    `json:"account_id"`
		Amount    float64 `json:"amount"`
		DueDate   string  `json:"due_date"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	var dueDate *time.Time
	if input.DueDate != "" {
		parsed, err := time.Parse("2006-01-02", input.DueDate)
		if err != nil {
			return utils.BadRequest(c, "due_date must be YYYY-MM-DD")
		}
		dueDate = &parsed
	}

	assignment, err := h.service.AssignFee(c.Context(), ledger.AssignFeeInput{
		AccountID: input.AccountID,
		Amount:    decimal.NewFromFloat(input.Amount),
		DueDate:   dueDate,
	})
	if err != nil {
		return utils.DomainError(c, err)
	}
	return utils.Success(c, fiber.Map{"fee": assignment})
}

func (h *WalletHandler) GetBalance(c *fiber.Ctx) error {
	accountID, err := strconv.ParseUint(c.Params("accountID"), 10, 32)
	if err != nil {
		return utils.BadRequest(c, "invalid account id")
	}

	balance, err := h.service.Balance(c.Context(), uint(accountID))
	if err != nil {
		return utils.DomainError(c, err)
	}
	return utils.Success(c, fiber.Map{"balance": balance})
}

func (h *WalletHandler) GetHistory(c *fiber.Ctx) error {
	accountID, err := strconv.ParseUint(c.Params("accountID"), 10, 32)
	if err != nil {
		return utils.BadRequest(c, "invalid account id")
	}
	limit := c.QueryInt("limit", ledger.DefaultHistoryLimit)
	offset := c.QueryInt("offset", 0)

	history, err := h.service.History(c.Context(), uint(accountID), limit, offset)
	if err != nil {
		return utils.DomainError(c, err)
	}
	return utils.Success(c, fiber.Map{"transactions": history})
}

func (h *WalletHandler) RecordExpense(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Branch   string  `json:"branch"`
		Amount   float64 `json:"amount"`
		Category string  `json:"category"`
		Note     string  `json:"note"`
		Date     string  `json:"date"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if input.Branch == "" {
		input.Branch = claims.Branch
	}

	record, err := h.service.RecordExpense(c.Context(), ledger.ExpenseInput{
		Branch:   input.Branch,
		Amount:   decimal.NewFromFloat(input.Amount),
		Category: input.Category,
		Note:     input.Note,
		Date:     input.Date,
	})
	if err != nil {
		return utils.DomainError(c, err)
	}
	return utils.Success(c, fiber.Map{"expense": record})
}

func (h *WalletHandler) Reconcile(c *fiber.Ctx) error {
	accountID, err := strconv.ParseUint(c.Params("accountID"), 10, 32)
	if err != nil {
		return utils.BadRequest(c, "invalid account id")
	}

	result, err := h.service.Reconcile(c.Context(), uint(accountID))
	if err != nil {
		return utils.DomainError(c, err)
	}
	return utils.Success(c, fiber.Map{"reconciliation": result})
}
