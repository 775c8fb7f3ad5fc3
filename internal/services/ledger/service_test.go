package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	domain "schoolops/internal/errors"
	"schoolops/internal/models"
	"schoolops/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLedgerRepo is an in-memory LedgerRepository. Transactions are
// serialized by a mutex and rolled back on error, matching the
// projection row lock of the real repository.
type fakeLedgerRepo struct {
	mu       sync.Mutex
	balances map[uint]models.AccountBalance
	txs      []models.LedgerTransaction
	byRef    map[string]int
	incomes  []models.IncomeRecord
	nextID   uint
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{
		balances: make(map[uint]models.AccountBalance),
		byRef:    make(map[string]int),
	}
}

func (f *fakeLedgerRepo) ExecuteInTransaction(fn func(repositories.LedgerRepository) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	snapBalances := make(map[uint]models.AccountBalance, len(f.balances))
	for k, v := range f.balances {
		snapBalances[k] = v
	}
	snapTxs := append([]models.LedgerTransaction(nil), f.txs...)
	snapByRef := make(map[string]int, len(f.byRef))
	for k, v := range f.byRef {
		snapByRef[k] = v
	}
	snapIncomes := append([]models.IncomeRecord(nil), f.incomes...)
	snapID := f.nextID

	if err := fn(f); err != nil {
		f.balances = snapBalances
		f.txs = snapTxs
		f.byRef = snapByRef
		f.incomes = snapIncomes
		f.nextID = snapID
		return err
	}
	return nil
}

func (f *fakeLedgerRepo) LockBalance(accountID uint) (*models.AccountBalance, error) {
	if balance, ok := f.balances[accountID]; ok {
		return &balance, nil
	}
	f.nextID++
	balance := models.AccountBalance{
		ID:            f.nextID,
		AccountID:     accountID,
		WalletBalance: decimal.Zero,
		FeeDue:        decimal.Zero,
	}
	f.balances[accountID] = balance
	return &balance, nil
}

func (f *fakeLedgerRepo) SaveBalance(balance *models.AccountBalance) error {
	f.balances[balance.AccountID] = *balance
	return nil
}

func (f *fakeLedgerRepo) GetBalance(accountID uint) (*models.AccountBalance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	balance, ok := f.balances[accountID]
	if !ok {
		return nil, repositories.ErrBalanceNotFound
	}
	return &balance, nil
}

func (f *fakeLedgerRepo) CreateTransaction(tx *models.LedgerTransaction) error {
	if _, exists := f.byRef[tx.Reference]; exists {
		return repositories.ErrReferenceExists
	}
	f.nextID++
	tx.ID = f.nextID
	tx.CreatedAt = time.Now()
	f.txs = append(f.txs, *tx)
	f.byRef[tx.Reference] = len(f.txs) - 1
	return nil
}

func (f *fakeLedgerRepo) GetTransactionByReference(reference string) (*models.LedgerTransaction, error) {
	idx, ok := f.byRef[reference]
	if !ok {
		return nil, repositories.ErrTransactionNotFound
	}
	tx := f.txs[idx]
	return &tx, nil
}

func (f *fakeLedgerRepo) TransactionHistory(accountID uint, limit, offset int) ([]models.LedgerTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var history []models.LedgerTransaction
	for i := len(f.txs) - 1; i >= 0; i-- {
		if f.txs[i].AccountID == accountID {
			history = append(history, f.txs[i])
		}
	}
	if offset > len(history) {
		offset = len(history)
	}
	history = history[offset:]
	if len(history) > limit {
		history = history[:limit]
	}
	return history, nil
}

func (f *fakeLedgerRepo) SumTransactions(accountID uint) (decimal.Decimal, decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	credits, debits := decimal.Zero, decimal.Zero
	for _, tx := range f.txs {
		if tx.AccountID != accountID || tx.Status != models.TransactionStatusSuccess {
			continue
		}
		switch tx.Type {
		case models.TransactionTypeAddMoney:
			credits = credits.Add(tx.Amount)
		case models.TransactionTypePayFee:
			debits = debits.Add(tx.Amount)
		}
	}
	return credits, debits, nil
}

func (f *fakeLedgerRepo) CreateIncomeRecord(record *models.IncomeRecord) error {
	f.nextID++
	record.ID = f.nextID
	f.incomes = append(f.incomes, *record)
	return nil
}

type fakeDirectory struct {
	accounts map[uint]*models.AccountInfo
}

func (d *fakeDirectory) LookupStudent(uint) (*models.StudentInfo, error) {
	return nil, repositories.ErrStudentNotFound
}

func (d *fakeDirectory) LookupAccount(accountID uint) (*models.AccountInfo, error) {
	account, ok := d.accounts[accountID]
	if !ok {
		return nil, repositories.ErrAccountNotFound
	}
	return account, nil
}

func newTestService() (Service, *fakeLedgerRepo) {
	repo := newFakeLedgerRepo()
	directory := &fakeDirectory{
		accounts: map[uint]*models.AccountInfo{
			7: {ID: 7, Branch: "Coimbatore"},
			8: {ID: 8, Branch: "Chennai"},
		},
	}
	return NewService(repo, directory, nil, nil), repo
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestAddMoney_CreditsBalanceAndAppendsRecords(t *testing.T) {
	svc, repo := newTestService()

	balance, err := svc.AddMoney(context.Background(), AddMoneyInput{
		AccountID: 7, Amount: dec(100), Reference: "pi_100",
	})
	require.NoError(t, err)
	assert.True(t, balance.WalletBalance.Equal(dec(100)))

	assert.Len(t, repo.txs, 1)
	assert.Equal(t, models.TransactionTypeAddMoney, repo.txs[0].Type)
	assert.Equal(t, models.TransactionStatusSuccess, repo.txs[0].Status)

	require.Len(t, repo.incomes, 1)
	assert.Equal(t, "Coimbatore", repo.incomes[0].Branch)
	assert.Equal(t, models.IncomeTypeIncome, repo.incomes[0].Type)
}

func TestAddMoney_DuplicateReferenceIsIdempotent(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	first, err := svc.AddMoney(ctx, AddMoneyInput{AccountID: 7, Amount: dec(100), Reference: "X"})
	require.NoError(t, err)

	second, err := svc.AddMoney(ctx, AddMoneyInput{AccountID: 7, Amount: dec(100), Reference: "X"})
	require.NoError(t, err, "replay is success-already-applied, not an error")

	assert.True(t, first.WalletBalance.Equal(dec(100)))
	assert.True(t, second.WalletBalance.Equal(dec(100)), "exactly one increment")
	assert.Len(t, repo.txs, 1, "exactly one transaction row")
	assert.Len(t, repo.incomes, 1)
}

func TestLedger_ReferenceConsumedByAnotherAccountIsRejected(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	_, err := svc.AddMoney(ctx, AddMoneyInput{AccountID: 7, Amount: dec(100), Reference: "pi_X"})
	require.NoError(t, err)

	// The reference already belongs to account 7; account 8 must get a
	// duplicate-event rejection, never an empty success.
	_, err = svc.AddMoney(ctx, AddMoneyInput{AccountID: 8, Amount: dec(100), Reference: "pi_X"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDuplicateEvent)

	_, err = repo.GetBalance(8)
	assert.ErrorIs(t, err, repositories.ErrBalanceNotFound, "rollback removes the lazily-created projection row")
	assert.Len(t, repo.txs, 1)

	balance, err := repo.GetBalance(7)
	require.NoError(t, err)
	assert.True(t, balance.WalletBalance.Equal(dec(100)))
}

func TestLedger_ReferenceConsumedByAnotherOperationIsRejected(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	_, err := svc.AssignFee(ctx, AssignFeeInput{AccountID: 7, Amount: dec(50)})
	require.NoError(t, err)
	_, err = svc.AddMoney(ctx, AddMoneyInput{AccountID: 7, Amount: dec(100), Reference: "pi_X"})
	require.NoError(t, err)

	_, err = svc.PayFee(ctx, PayFeeInput{AccountID: 7, Amount: dec(50), Reference: "pi_X"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDuplicateEvent)

	balance, err := repo.GetBalance(7)
	require.NoError(t, err)
	assert.True(t, balance.WalletBalance.Equal(dec(100)), "no debit applied")
	assert.True(t, balance.FeeDue.Equal(dec(50)))
	assert.Len(t, repo.txs, 1)
}

func TestAddMoney_ConcurrentSameReference(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddMoney(ctx, AddMoneyInput{AccountID: 7, Amount: dec(100), Reference: "X"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	balance, err := repo.GetBalance(7)
	require.NoError(t, err)
	assert.True(t, balance.WalletBalance.Equal(dec(100)))
	assert.Len(t, repo.txs, 1)
}

func TestPayFee_GuardsAndAtomicDecrement(t *testing.T) {
	tests := []struct {
		name    string
		wallet  int64
		feeDue  int64
		amount  int64
		wantErr error
	}{
		{name: "success", wallet: 500, feeDue: 300, amount: 200},
		{name: "insufficient funds", wallet: 100, feeDue: 300, amount: 200, wantErr: domain.ErrInsufficientFunds},
		{name: "exceeds fee due", wallet: 500, feeDue: 100, amount: 200, wantErr: domain.ErrExceedsFeeDue},
		{name: "zero amount", wallet: 500, feeDue: 300, amount: 0, wantErr: domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestService()
			ctx := context.Background()

			if tt.wallet > 0 {
				_, err := svc.AddMoney(ctx, AddMoneyInput{AccountID: 7, Amount: dec(tt.wallet), Reference: "seed"})
				require.NoError(t, err)
			}
			if tt.feeDue > 0 {
				_, err := svc.AssignFee(ctx, AssignFeeInput{AccountID: 7, Amount: dec(tt.feeDue)})
				require.NoError(t, err)
			}
			txsBefore := len(repo.txs)
			incomesBefore := len(repo.incomes)

			balance, err := svc.PayFee(ctx, PayFeeInput{AccountID: 7, Amount: dec(tt.amount), Reference: "fee_1"})

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				// Both rows absent on failure.
				assert.Len(t, repo.txs, txsBefore)
				assert.Len(t, repo.incomes, incomesBefore)

				committed, gerr := repo.GetBalance(7)
				require.NoError(t, gerr)
				assert.True(t, committed.WalletBalance.Equal(dec(tt.wallet)))
				return
			}

			require.NoError(t, err)
			assert.True(t, balance.WalletBalance.Equal(dec(tt.wallet-tt.amount)))
			assert.True(t, balance.FeeDue.Equal(dec(tt.feeDue-tt.amount)))
			// Both rows present on success.
			assert.Len(t, repo.txs, txsBefore+1)
			assert.Len(t, repo.incomes, incomesBefore+1)
		})
	}
}

func TestAssignFee_DefaultsDueDateToThirtyDays(t *testing.T) {
	svc, _ := newTestService()

	assignment, err := svc.AssignFee(context.Background(), AssignFeeInput{
		AccountID: 7, Amount: dec(500),
	})
	require.NoError(t, err)

	assert.True(t, assignment.Amount.Equal(dec(500)))
	assert.Equal(t, 30, assignment.DaysRemaining)

	wantDate := time.Now().AddDate(0, 0, 30).Format("2006-01-02")
	assert.Equal(t, wantDate, assignment.DueDate.Format("2006-01-02"))
}

func TestAssignFee_ExplicitDueDate(t *testing.T) {
	svc, repo := newTestService()

	due := time.Now().AddDate(0, 0, 10).Truncate(24 * time.Hour).Add(24 * time.Hour)
	assignment, err := svc.AssignFee(context.Background(), AssignFeeInput{
		AccountID: 7, Amount: dec(500), DueDate: &due,
	})
	require.NoError(t, err)
	assert.Equal(t, due, assignment.DueDate)

	balance, err := repo.GetBalance(7)
	require.NoError(t, err)
	assert.True(t, balance.FeeDue.Equal(dec(500)))
	require.NotNil(t, balance.FeeDueDate)
}

func TestLedger_UnknownAccount(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.AddMoney(ctx, AddMoneyInput{AccountID: 99, Amount: dec(10), Reference: "r"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.PayFee(ctx, PayFeeInput{AccountID: 99, Amount: dec(10), Reference: "r"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Balance(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBalance_ZeroForFreshAccount(t *testing.T) {
	svc, _ := newTestService()

	balance, err := svc.Balance(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, balance.WalletBalance.IsZero())
	assert.True(t, balance.FeeDue.IsZero())
}

// TestLedger_NoLostUpdatesUnderInterleaving drives 100 add_money(1)
// and 100 pay_fee(1) calls concurrently against one account and then
// re-derives the balance from the transaction log. Projection and log
// must agree exactly.
func TestLedger_NoLostUpdatesUnderInterleaving(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	_, err := svc.AssignFee(ctx, AssignFeeInput{AccountID: 7, Amount: dec(100)})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	addOK, payOK := 0, 0

	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_, err := svc.AddMoney(ctx, AddMoneyInput{
				AccountID: 7, Amount: dec(1), Reference: fmt.Sprintf("add_%d", n),
			})
			if err == nil {
				mu.Lock()
				addOK++
				mu.Unlock()
			}
		}(i)
		go func(n int) {
			defer wg.Done()
			_, err := svc.PayFee(ctx, PayFeeInput{
				AccountID: 7, Amount: dec(1), Reference: fmt.Sprintf("pay_%d", n),
			})
			if err == nil {
				mu.Lock()
				payOK++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 100, addOK, "credits never fail here")

	balance, err := repo.GetBalance(7)
	require.NoError(t, err)
	assert.True(t, balance.WalletBalance.Equal(dec(int64(addOK-payOK))),
		"projection equals successful credits minus successful debits")

	recon, err := svc.Reconcile(ctx, 7)
	require.NoError(t, err)
	assert.True(t, recon.Consistent, "derived %s vs projected %s", recon.DerivedBalance, recon.ProjectedBalance)
}

func TestRecordExpense(t *testing.T) {
	svc, repo := newTestService()

	record, err := svc.RecordExpense(context.Background(), ExpenseInput{
		Branch: "Coimbatore", Amount: dec(250), Category: "rent",
	})
	require.NoError(t, err)
	assert.Equal(t, models.IncomeTypeExpense, record.Type)
	assert.Equal(t, time.Now().Format("2006-01-02"), record.Date)
	assert.Len(t, repo.incomes, 1)

	_, err = svc.RecordExpense(context.Background(), ExpenseInput{
		Branch: "Coimbatore", Amount: dec(-5), Category: "rent",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestHistory_LimitsAndOrder(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.AddMoney(ctx, AddMoneyInput{
			AccountID: 7, Amount: dec(10), Reference: fmt.Sprintf("ref_%d", i),
		})
		require.NoError(t, err)
	}

	history, err := svc.History(ctx, 7, 3, 0)
	require.NoError(t, err)
	assert.Len(t, history, 3)
	assert.Equal(t, "ref_4", history[0].Reference, "newest first")
}
