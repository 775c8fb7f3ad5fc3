package repositories

import (
	"errors"
	"fmt"

	"schoolops/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) ExecuteInTransaction(fn func(LedgerRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&ledgerRepository{db: tx})
	})
}

func (r *ledgerRepository) LockBalance(accountID uint) (*models.AccountBalance, error) {
	balance := &models.AccountBalance{
		AccountID:     accountID,
		WalletBalance: decimal.Zero,
		FeeDue:        decimal.Zero,
	}
	if err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(balance).Error; err != nil {
		return nil, fmt.Errorf("failed to ensure account balance: %w", err)
	}

	var locked models.AccountBalance
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account_id = ?", accountID).
		First(&locked).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock account balance: %w", err)
	}
	return &locked, nil
}

func (r *ledgerRepository) SaveBalance(balance *models.AccountBalance) error {
	if err := r.db.Save(balance).Error; err != nil {
		return fmt.Errorf("failed to save account balance: %w", err)
	}
	return nil
}

func (r *ledgerRepository) GetBalance(accountID uint) (*models.AccountBalance, error) {
	var balance models.AccountBalance
	err := r.db.Where("account_id = ?", accountID).First(&balance).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrBalanceNotFound
		}
		return nil, fmt.Errorf("failed to get account balance: %w", err)
	}
	return &balance, nil
}

func (r *ledgerRepository) CreateTransaction(tx *models.LedgerTransaction) error {
	if err := r.db.Create(tx).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrReferenceExists
		}
		return fmt.Errorf("failed to create ledger transaction: %w", err)
	}
	return nil
}

func (r *ledgerRepository) GetTransactionByReference(reference string) (*models.LedgerTransaction, error) {
	var tx models.LedgerTransaction
	err := r.db.Where("reference = ?", reference).First(&tx).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get ledger transaction: %w", err)
	}
	return &tx, nil
}

func (r *ledgerRepository) TransactionHistory(accountID uint, limit, offset int) ([]models.LedgerTransaction, error) {
	var txs []models.LedgerTransaction
	err := r.db.Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction history: %w", err)
	}
	return txs, nil
}

func (r *ledgerRepository) SumTransactions(accountID uint) (decimal.Decimal, decimal.Decimal, error) {
	sum := func(txType string) (decimal.Decimal, error) {
		var total decimal.Decimal
		err := r.db.Model(&models.LedgerTransaction{}).
			Where("account_id = ? AND type = ? AND status = ?", accountID, txType, models.TransactionStatusSuccess).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&total).Error
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to sum %s transactions: %w", txType, err)
		}
		return total, nil
	}

	credits, err := sum(models.TransactionTypeAddMoney)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	debits, err := sum(models.TransactionTypePayFee)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return credits, debits, nil
}

func (r *ledgerRepository) CreateIncomeRecord(record *models.IncomeRecord) error {
	if err := r.db.Create(record).Error; err != nil {
		return fmt.Errorf("failed to create income record: %w", err)
	}
	return nil
}
