package ledger

import (
	"context"
	"time"

	"schoolops/internal/models"

	"github.com/shopspring/decimal"
)

// AddMoneyInput credits a wallet. Reference is the external payment
// reference from the gateway and doubles as the idempotency key.
type AddMoneyInput struct {
	AccountID uint   `validate:"required"`
	Amount    decimal.Decimal
	Reference string `validate:"required"`
}

// PayFeeInput settles part of the outstanding fee from the wallet.
type PayFeeInput struct {
	AccountID uint   `validate:"required"`
	Amount    decimal.Decimal
	Reference string `validate:"required"`
}

// AssignFeeInput is the administrative override that sets the fee due.
// DueDate defaults to DefaultFeeDueDays from now when nil.
type AssignFeeInput struct {
	AccountID uint `validate:"required"`
	Amount    decimal.Decimal
	DueDate   *time.Time
}

// FeeAssignment is what AssignFee returns to the caller.
type FeeAssignment struct {
	Amount        decimal.Decimal `json:"amount"`
	DueDate       time.Time       `json:"due_date"`
	DaysRemaining int             `json:"days_remaining"`
}

// ExpenseInput records a branch expense for the settlement summary.
type ExpenseInput struct {
	Branch   string `validate:"required"`
	Amount   decimal.Decimal
	Category string `validate:"required"`
	Note     string
	Date     string
}

// Reconciliation compares the balance re-derived from the event log
// with the projection row.
type Reconciliation struct {
	AccountID        uint            `json:"account_id"`
	DerivedBalance   decimal.Decimal `json:"derived_balance"`
	ProjectedBalance decimal.Decimal `json:"projected_balance"`
	Consistent       bool            `json:"consistent"`
}

// Service is the money half of the event ledger.
type Service interface {
	AddMoney(ctx context.Context, input AddMoneyInput) (*models.AccountBalance, error)
	PayFee(ctx context.Context, input PayFeeInput) (*models.AccountBalance, error)
	AssignFee(ctx context.Context, input AssignFeeInput) (*FeeAssignment, error)
	Balance(ctx context.Context, accountID uint) (*models.AccountBalance, error)
	History(ctx context.Context, accountID uint, limit, offset int) ([]models.LedgerTransaction, error)
	RecordExpense(ctx context.Context, input ExpenseInput) (*models.IncomeRecord, error)
	Reconcile(ctx context.Context, accountID uint) (*Reconciliation, error)
}
