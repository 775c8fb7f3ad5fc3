package repositories

import (
	"errors"

	"schoolops/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrBalanceNotFound     = errors.New("account balance not found")
	ErrTransactionNotFound = errors.New("ledger transaction not found")
	ErrReferenceExists     = errors.New("payment reference already recorded")
)

// LedgerRepository persists the money event log and the per-account
// balance projection. The write methods are only meaningful inside
// ExecuteInTransaction.
type LedgerRepository interface {
	ExecuteInTransaction(fn func(LedgerRepository) error) error

	// LockBalance creates the projection row if absent, then acquires
	// an exclusive row lock on it. All writes to one account serialize
	// here.
	LockBalance(accountID uint) (*models.AccountBalance, error)
	SaveBalance(balance *models.AccountBalance) error
	GetBalance(accountID uint) (*models.AccountBalance, error)

	// CreateTransaction appends to the money log. Returns
	// ErrReferenceExists if the external payment reference has already
	// been recorded.
	CreateTransaction(tx *models.LedgerTransaction) error
	GetTransactionByReference(reference string) (*models.LedgerTransaction, error)
	TransactionHistory(accountID uint, limit, offset int) ([]models.LedgerTransaction, error)

	// SumTransactions re-derives the balance from the event log:
	// total credits (add_money) and debits (pay_fee) for one account.
	SumTransactions(accountID uint) (credits, debits decimal.Decimal, err error)

	CreateIncomeRecord(record *models.IncomeRecord) error
}
