package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ledger transaction types
const (
	TransactionTypeAddMoney = "add_money"
	TransactionTypePayFee   = "pay_fee"
)

// Ledger transaction statuses
const (
	TransactionStatusSuccess = "success"
	TransactionStatusFailed  = "failed"
	TransactionStatusPending = "pending"
)

// LedgerTransaction is one row of the append-only money log. The
// external payment reference is the idempotency key; the unique index
// on it is what makes webhook and client retries safe.
type LedgerTransaction struct {
	ID            uint            `gorm:"primarykey" json:"id"`
	TransactionID string          `gorm:"size:64;index" json:"transaction_id"`
	AccountID     uint            `gorm:"index;not null" json:"account_id"`
	Type          string          `gorm:"size:16;not null" json:"type"`
	Amount        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Reference     string          `gorm:"uniqueIndex;size:128;not null" json:"reference"`
	Status        string          `gorm:"size:12;not null;default:'pending'" json:"status"`
	Description   string          `json:"description,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// AccountBalance is the per-account projection: current wallet balance
// and outstanding fee. Mutated only inside the same transaction that
// appends the LedgerTransaction, under a row lock.
type AccountBalance struct {
	ID            uint            `gorm:"primarykey" json:"id"`
	AccountID     uint            `gorm:"uniqueIndex;not null" json:"account_id"`
	WalletBalance decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"wallet_balance"`
	FeeDue        decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"fee_due"`
	FeeDueDate    *time.Time      `json:"fee_due_date,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Income record types
const (
	IncomeTypeIncome  = "income"
	IncomeTypeExpense = "expense"
)

// IncomeRecord is an append-only reporting side effect of a successful
// ledger transaction or a branch expense entry. Never authoritative
// for balances.
type IncomeRecord struct {
	ID        uint            `gorm:"primarykey" json:"id"`
	AccountID uint            `gorm:"index" json:"account_id,omitempty"`
	Branch    string          `gorm:"index;size:64;not null" json:"branch"`
	Amount    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Type      string          `gorm:"size:12;not null" json:"type"`
	Category  string          `gorm:"size:32" json:"category"`
	Note      string          `json:"note,omitempty"`
	Date      string          `gorm:"index;size:10;not null" json:"date"`
	CreatedAt time.Time       `json:"created_at"`
}
