package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	domain "schoolops/internal/errors"
	"schoolops/internal/models"
	"schoolops/internal/repositories"
	"schoolops/internal/services/alert"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// BalanceCache is the read cache over the balance projection.
// Satisfied by repositories/cache.CacheService.
type BalanceCache interface {
	GetBalance(ctx context.Context, accountID uint) (*models.AccountBalance, bool)
	SetBalance(ctx context.Context, balance *models.AccountBalance) error
	InvalidateBalance(ctx context.Context, accountID uint) error
}

// NoopBalanceCache is used in tests and when Redis is not configured.
type NoopBalanceCache struct{}

func (NoopBalanceCache) GetBalance(context.Context, uint) (*models.AccountBalance, bool) {
	return nil, false
}
func (NoopBalanceCache) SetBalance(context.Context, *models.AccountBalance) error { return nil }
func (NoopBalanceCache) InvalidateBalance(context.Context, uint) error            { return nil }

type service struct {
	repo      repositories.LedgerRepository
	directory repositories.Directory
	cache     BalanceCache
	publisher alert.Publisher
	validate  *validator.Validate
}

// NewService creates a new ledger service
func NewService(repo repositories.LedgerRepository, directory repositories.Directory, cache BalanceCache, publisher alert.Publisher) Service {
	if repo == nil {
		panic("repo is required")
	}
	if directory == nil {
		panic("directory is required")
	}
	if cache == nil {
		cache = NoopBalanceCache{}
	}
	if publisher == nil {
		publisher = alert.NoopPublisher{}
	}

	return &service{
		repo:      repo,
		directory: directory,
		cache:     cache,
		publisher: publisher,
		validate:  validator.New(),
	}
}

func (s *service) AddMoney(ctx context.Context, input AddMoneyInput) (*models.AccountBalance, error) {
	if err := s.validateAmount(input, input.Amount); err != nil {
		return nil, err
	}

	account, err := s.lookupAccount(input.AccountID)
	if err != nil {
		return nil, err
	}

	var result *models.AccountBalance
	applied := false

	err = s.repo.ExecuteInTransaction(func(tx repositories.LedgerRepository) error {
		balance, err := tx.LockBalance(input.AccountID)
		if err != nil {
			return err
		}

		if done, err := s.replayed(tx, input.AccountID, models.TransactionTypeAddMoney, input.Reference, balance, &result); done || err != nil {
			return err
		}

		if err := tx.CreateTransaction(&models.LedgerTransaction{
			TransactionID: newTransactionID(),
			AccountID:     input.AccountID,
			Type:          models.TransactionTypeAddMoney,
			Amount:        input.Amount,
			Reference:     input.Reference,
			Status:        models.TransactionStatusSuccess,
			Description:   "wallet top-up",
		}); err != nil {
			return err
		}

		balance.WalletBalance = balance.WalletBalance.Add(input.Amount)
		if err := tx.SaveBalance(balance); err != nil {
			return err
		}

		if err := tx.CreateIncomeRecord(&models.IncomeRecord{
			AccountID: input.AccountID,
			Branch:    account.Branch,
			Amount:    input.Amount,
			Type:      models.IncomeTypeIncome,
			Category:  "wallet_topup",
			Date:      time.Now().Format(dateLayout),
		}); err != nil {
			return err
		}

		result = balance
		applied = true
		return nil
	})
	if err != nil {
		return nil, asDomain(err)
	}

	if applied {
		s.afterWrite(ctx, input.AccountID, account.Branch, "add_money", input.Amount)
	}
	return result, nil
}

func (s *service) PayFee(ctx context.Context, input PayFeeInput) (*models.AccountBalance, error) {
	if err := s.validateAmount(input, input.Amount); err != nil {
		return nil, err
	}

	account, err := s.lookupAccount(input.AccountID)
	if err != nil {
		return nil, err
	}

	var result *models.AccountBalance
	applied := false

	err = s.repo.ExecuteInTransaction(func(tx repositories.LedgerRepository) error {
		balance, err := tx.LockBalance(input.AccountID)
		if err != nil {
			return err
		}

		if done, err := s.replayed(tx, input.AccountID, models.TransactionTypePayFee, input.Reference, balance, &result); done || err != nil {
			return err
		}

		if balance.WalletBalance.LessThan(input.Amount) {
			return fmt.Errorf("%w: balance %s, requested %s",
				domain.ErrInsufficientFunds, balance.WalletBalance, input.Amount)
		}
		if balance.FeeDue.LessThan(input.Amount) {
			return fmt.Errorf("%w: fee due %s, requested %s",
				domain.ErrExceedsFeeDue, balance.FeeDue, input.Amount)
		}

		if err := tx.CreateTransaction(&models.LedgerTransaction{
			TransactionID: newTransactionID(),
			AccountID:     input.AccountID,
			Type:          models.TransactionTypePayFee,
			Amount:        input.Amount,
			Reference:     input.Reference,
			Status:        models.TransactionStatusSuccess,
			Description:   "fee payment",
		}); err != nil {
			return err
		}

		// Both decrements commit or roll back together with the
		// transaction row.
		balance.WalletBalance = balance.WalletBalance.Sub(input.Amount)
		balance.FeeDue = balance.FeeDue.Sub(input.Amount)
		if err := tx.SaveBalance(balance); err != nil {
			return err
		}

		if err := tx.CreateIncomeRecord(&models.IncomeRecord{
			AccountID: input.AccountID,
			Branch:    account.Branch,
			Amount:    input.Amount,
			Type:      models.IncomeTypeIncome,
			Category:  "fee_payment",
			Date:      time.Now().Format(dateLayout),
		}); err != nil {
			return err
		}

		result = balance
		applied = true
		return nil
	})
	if err != nil {
		return nil, asDomain(err)
	}

	if applied {
		s.afterWrite(ctx, input.AccountID, account.Branch, "pay_fee", input.Amount)
	}
	return result, nil
}

func (s *service) AssignFee(ctx context.Context, input AssignFeeInput) (*FeeAssignment, error) {
	if err := s.validateAmount(input, input.Amount); err != nil {
		return nil, err
	}

	if _, err := s.lookupAccount(input.AccountID); err != nil {
		return nil, err
	}

	dueDate := time.Now().AddDate(0, 0, DefaultFeeDueDays)
	if input.DueDate != nil {
		dueDate = *input.DueDate
	}

	err := s.repo.ExecuteInTransaction(func(tx repositories.LedgerRepository) error {
		balance, err := tx.LockBalance(input.AccountID)
		if err != nil {
			return err
		}
		balance.FeeDue = input.Amount
		balance.FeeDueDate = &dueDate
		return tx.SaveBalance(balance)
	})
	if err != nil {
		return nil, asDomain(err)
	}

	if err := s.cache.InvalidateBalance(ctx, input.AccountID); err != nil {
		log.Printf("failed to invalidate balance cache: %v", err)
	}

	return &FeeAssignment{
		Amount:        input.Amount,
		DueDate:       dueDate,
		DaysRemaining: int(math.Ceil(time.Until(dueDate).Hours() / 24)),
	}, nil
}

func (s *service) Balance(ctx context.Context, accountID uint) (*models.AccountBalance, error) {
	if cached, ok := s.cache.GetBalance(ctx, accountID); ok {
		return cached, nil
	}

	account, err := s.lookupAccount(accountID)
	if err != nil {
		return nil, err
	}

	balance, err := s.repo.GetBalance(accountID)
	if err != nil {
		if errors.Is(err, repositories.ErrBalanceNotFound) {
			// Account exists but has no ledger activity yet.
			balance = &models.AccountBalance{
				AccountID:     account.ID,
				WalletBalance: decimal.Zero,
				FeeDue:        decimal.Zero,
			}
		} else {
			return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
		}
	}

	if err := s.cache.SetBalance(ctx, balance); err != nil {
		log.Printf("failed to cache balance: %v", err)
	}
	return balance, nil
}

func (s *service) History(ctx context.Context, accountID uint, limit, offset int) ([]models.LedgerTransaction, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	history, err := s.repo.TransactionHistory(accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return history, nil
}

func (s *service) RecordExpense(ctx context.Context, input ExpenseInput) (*models.IncomeRecord, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if !input.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidInput)
	}
	if input.Date == "" {
		input.Date = time.Now().Format(dateLayout)
	}

	record := &models.IncomeRecord{
		Branch:   input.Branch,
		Amount:   input.Amount,
		Type:     models.IncomeTypeExpense,
		Category: input.Category,
		Note:     input.Note,
		Date:     input.Date,
	}
	if err := s.repo.CreateIncomeRecord(record); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return record, nil
}

func (s *service) Reconcile(ctx context.Context, accountID uint) (*Reconciliation, error) {
	if _, err := s.lookupAccount(accountID); err != nil {
		return nil, err
	}

	credits, debits, err := s.repo.SumTransactions(accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	derived := credits.Sub(debits)

	projected := decimal.Zero
	balance, err := s.repo.GetBalance(accountID)
	if err == nil {
		projected = balance.WalletBalance
	} else if !errors.Is(err, repositories.ErrBalanceNotFound) {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	return &Reconciliation{
		AccountID:        accountID,
		DerivedBalance:   derived,
		ProjectedBalance: projected,
		Consistent:       derived.Equal(projected),
	}, nil
}

// Helper methods

func (s *service) validateAmount(input interface{}, amount decimal.Decimal) error {
	if err := s.validate.Struct(input); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", domain.ErrInvalidInput)
	}
	return nil
}

func (s *service) lookupAccount(accountID uint) (*models.AccountInfo, error) {
	account, err := s.directory.LookupAccount(accountID)
	if err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: account %d", domain.ErrNotFound, accountID)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return account, nil
}

// replayed checks the idempotency key inside the projection lock. A
// hit for the same account and operation is a replay and the caller
// gets the committed balance, not an error. A hit for a different
// account or operation means the reference was already consumed
// elsewhere and nothing was applied for this caller, so it is a
// duplicate event, never a silent success.
func (s *service) replayed(tx repositories.LedgerRepository, accountID uint, txType, reference string, balance *models.AccountBalance, result **models.AccountBalance) (bool, error) {
	existing, err := tx.GetTransactionByReference(reference)
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return false, nil
		}
		return false, err
	}
	if existing.AccountID != accountID || existing.Type != txType {
		return false, fmt.Errorf("%w: payment reference %q already used by another operation",
			domain.ErrDuplicateEvent, reference)
	}
	log.Printf("duplicate payment reference %q (transaction %s), returning committed state",
		reference, existing.TransactionID)
	*result = balance
	return true, nil
}

func (s *service) afterWrite(ctx context.Context, accountID uint, branch, operation string, amount decimal.Decimal) {
	if err := s.cache.InvalidateBalance(ctx, accountID); err != nil {
		log.Printf("failed to invalidate balance cache: %v", err)
	}

	notice := &models.Alert{
		Type:    models.AlertTypePayment,
		Message: fmt.Sprintf("%s of %s", operation, amount),
		RefID:   accountID,
		Branch:  branch,
		Payload: models.JSON{
			"account_id": accountID,
			"operation":  operation,
			"amount":     amount.String(),
		},
	}
	if err := s.publisher.Publish(ctx, notice); err != nil {
		log.Printf("failed to publish payment alert: %v", err)
	}
}

func newTransactionID() string {
	return "TX-" + uuid.NewString()
}

// asDomain passes typed domain errors through and converts anything
// else (connection loss, lock timeout) to StorageUnavailable.
func asDomain(err error) error {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return err
	}
	// Same reference racing in from another account slips past the
	// in-lock replay check and lands on the unique index instead.
	if errors.Is(err, repositories.ErrReferenceExists) {
		return fmt.Errorf("%w: payment reference already used", domain.ErrDuplicateEvent)
	}
	return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
}
