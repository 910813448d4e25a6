package ledger

import (
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTx(t *testing.T, id, accountID string, txType TransactionType, amount string) *Transaction {
	t.Helper()
	tx, err := NewTransaction(id, accountID, txType, decimal.RequireFromString(amount))
	require.NoError(t, err)
	return tx
}

func TestCreateAccount(t *testing.T) {
	l := New()

	acct, err := l.CreateAccount("A", decimal.RequireFromString("1000.00"))
	require.NoError(t, err)
	assert.Equal(t, "A", acct.ID())
	assert.True(t, acct.Balance().Equal(decimal.RequireFromString("1000.00")))

	got, ok := l.GetAccount("A")
	require.True(t, ok)
	assert.Same(t, acct, got)
}

func TestCreateAccountRejectsDuplicate(t *testing.T) {
	l := New()

	first, err := l.CreateAccount("A", decimal.RequireFromString("100.00"))
	require.NoError(t, err)

	_, err = l.CreateAccount("A", decimal.Zero)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAccountExists)

	// The original account was not overwritten.
	got, ok := l.GetAccount("A")
	require.True(t, ok)
	assert.Same(t, first, got)
	assert.True(t, got.Balance().Equal(decimal.RequireFromString("100.00")))
}

func TestCreateAccountRejectsNegativeBalance(t *testing.T) {
	l := New()

	_, err := l.CreateAccount("A", decimal.RequireFromString("-1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidBalance)

	_, ok := l.GetAccount("A")
	assert.False(t, ok)
}

func TestGetAccountAbsent(t *testing.T) {
	l := New()

	acct, ok := l.GetAccount("missing")
	assert.False(t, ok)
	assert.Nil(t, acct)
}

// The literal scenario: account A starts at 1000.00, deposit 500.00,
// withdraw 200.00, replay T1, then overdraw with T3.
func TestProcessScenario(t *testing.T) {
	l := New()
	_, err := l.CreateAccount("A", decimal.RequireFromString("1000.00"))
	require.NoError(t, err)

	res := l.Process(mustTx(t, "T1", "A", TypeDeposit, "500.00"))
	success, ok := res.(Success)
	require.True(t, ok, "got %#v", res)
	assert.True(t, success.NewBalance.Equal(decimal.RequireFromString("1500.00")))

	res = l.Process(mustTx(t, "T2", "A", TypeWithdrawal, "200.00"))
	success, ok = res.(Success)
	require.True(t, ok, "got %#v", res)
	assert.True(t, success.NewBalance.Equal(decimal.RequireFromString("1300.00")))

	// Resubmitting T1, even with a different amount, is a replay.
	res = l.Process(mustTx(t, "T1", "A", TypeDeposit, "100.00"))
	dup, ok := res.(DuplicateTransaction)
	require.True(t, ok, "got %#v", res)
	assert.Equal(t, "T1", dup.TransactionID)

	acct, _ := l.GetAccount("A")
	assert.True(t, acct.Balance().Equal(decimal.RequireFromString("1300.00")))

	res = l.Process(mustTx(t, "T3", "A", TypeWithdrawal, "5000.00"))
	insufficient, ok := res.(InsufficientFunds)
	require.True(t, ok, "got %#v", res)
	assert.True(t, insufficient.CurrentBalance.Equal(decimal.RequireFromString("1300.00")))
	assert.True(t, insufficient.RequestedAmount.Equal(decimal.RequireFromString("5000.00")))
	assert.True(t, insufficient.Shortfall().Equal(decimal.RequireFromString("3700.00")))
}

func TestProcessNilTransaction(t *testing.T) {
	l := New()

	res := l.Process(nil)
	_, ok := res.(InvalidInput)
	assert.True(t, ok, "got %#v", res)
}

func TestProcessUnknownAccount(t *testing.T) {
	l := New()

	res := l.Process(mustTx(t, "T1", "ghost", TypeDeposit, "10"))
	invalid, ok := res.(InvalidInput)
	require.True(t, ok, "got %#v", res)
	assert.Contains(t, invalid.Reason, "ghost")
}

func TestProcessTransferDebitsSourceOnly(t *testing.T) {
	l := New()
	_, err := l.CreateAccount("src", decimal.RequireFromString("100.00"))
	require.NoError(t, err)
	_, err = l.CreateAccount("dst", decimal.Zero)
	require.NoError(t, err)

	res := l.Process(mustTx(t, "T1", "src", TypeTransfer, "30.00"))
	success, ok := res.(Success)
	require.True(t, ok, "got %#v", res)
	assert.True(t, success.NewBalance.Equal(decimal.RequireFromString("70.00")))

	// The destination is never credited by this ledger.
	dst, _ := l.GetAccount("dst")
	assert.True(t, dst.Balance().IsZero())
}

// An id consumed by a refused withdrawal stays consumed: replay safety
// wins over retryability.
func TestRefusedWithdrawalStillConsumesID(t *testing.T) {
	l := New()
	_, err := l.CreateAccount("A", decimal.RequireFromString("10.00"))
	require.NoError(t, err)

	res := l.Process(mustTx(t, "T1", "A", TypeWithdrawal, "100.00"))
	_, ok := res.(InsufficientFunds)
	require.True(t, ok, "got %#v", res)

	acct, _ := l.GetAccount("A")
	assert.True(t, acct.IsProcessed("T1"))

	// Even as a deposit that would otherwise succeed.
	res = l.Process(mustTx(t, "T1", "A", TypeDeposit, "1.00"))
	_, ok = res.(DuplicateTransaction)
	require.True(t, ok, "got %#v", res)
	assert.True(t, acct.Balance().Equal(decimal.RequireFromString("10.00")))
}

func TestValidateIsReadOnly(t *testing.T) {
	l := New()
	_, err := l.CreateAccount("A", decimal.RequireFromString("100.00"))
	require.NoError(t, err)

	tx := mustTx(t, "T1", "A", TypeWithdrawal, "40.00")
	for i := 0; i < 10; i++ {
		res := l.Validate(tx)
		success, ok := res.(Success)
		require.True(t, ok, "got %#v", res)
		assert.True(t, success.NewBalance.Equal(decimal.RequireFromString("100.00")))
	}

	acct, _ := l.GetAccount("A")
	assert.False(t, acct.IsProcessed("T1"))
	assert.True(t, acct.Balance().Equal(decimal.RequireFromString("100.00")))

	// The dry run did not consume the id; processing still works.
	res := l.Process(tx)
	_, ok := res.(Success)
	assert.True(t, ok, "got %#v", res)
}

func TestValidateOutcomes(t *testing.T) {
	l := New()
	_, err := l.CreateAccount("A", decimal.RequireFromString("50.00"))
	require.NoError(t, err)

	res := l.Validate(nil)
	_, ok := res.(InvalidInput)
	assert.True(t, ok, "got %#v", res)

	res = l.Validate(mustTx(t, "T1", "ghost", TypeDeposit, "1"))
	_, ok = res.(InvalidInput)
	assert.True(t, ok, "got %#v", res)

	res = l.Validate(mustTx(t, "T1", "A", TypeWithdrawal, "60.00"))
	insufficient, ok := res.(InsufficientFunds)
	require.True(t, ok, "got %#v", res)
	assert.True(t, insufficient.Shortfall().Equal(decimal.RequireFromString("10.00")))

	require.IsType(t, Success{}, l.Process(mustTx(t, "T2", "A", TypeDeposit, "1.00")))
	res = l.Validate(mustTx(t, "T2", "A", TypeDeposit, "1.00"))
	dup, ok := res.(DuplicateTransaction)
	require.True(t, ok, "got %#v", res)
	assert.Equal(t, "T2", dup.TransactionID)
}

func TestConcurrentProcessSameIDOneWinner(t *testing.T) {
	l := New()
	_, err := l.CreateAccount("A", decimal.RequireFromString("100.00"))
	require.NoError(t, err)

	const workers = 20
	results := make(chan Result, workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			results <- l.Process(mustTxRaw("T1", "A", TypeDeposit, "10.00"))
		}()
	}
	wg.Wait()
	close(results)

	successes, duplicates := 0, 0
	for res := range results {
		switch res.(type) {
		case Success:
			successes++
		case DuplicateTransaction:
			duplicates++
		default:
			t.Fatalf("unexpected result %#v", res)
		}
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, duplicates)

	// At most one balance mutation occurred.
	acct, _ := l.GetAccount("A")
	assert.True(t, acct.Balance().Equal(decimal.RequireFromString("110.00")), "final balance %s", acct.Balance())
}

func TestConcurrentWithdrawalsExactlyTwentySucceed(t *testing.T) {
	l := New()
	_, err := l.CreateAccount("A", decimal.RequireFromString("1000.00"))
	require.NoError(t, err)

	const workers = 50
	results := make(chan Result, workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		id := fmt.Sprintf("T%d", i)
		go func() {
			defer wg.Done()
			results <- l.Process(mustTxRaw(id, "A", TypeWithdrawal, "50.00"))
		}()
	}
	wg.Wait()
	close(results)

	successes, insufficient := 0, 0
	for res := range results {
		switch res.(type) {
		case Success:
			successes++
		case InsufficientFunds:
			insufficient++
		default:
			t.Fatalf("unexpected result %#v", res)
		}
	}

	assert.Equal(t, 20, successes)
	assert.Equal(t, 30, insufficient)

	acct, _ := l.GetAccount("A")
	assert.True(t, acct.Balance().IsZero(), "final balance %s", acct.Balance())
}

func TestConcurrentRegistrationSingleWinner(t *testing.T) {
	l := New()

	const workers = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if _, err := l.CreateAccount("A", decimal.Zero); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
}

func TestConcurrentOperationsOnDistinctAccounts(t *testing.T) {
	l := New()

	const accounts = 10
	for i := 0; i < accounts; i++ {
		_, err := l.CreateAccount(fmt.Sprintf("A%d", i), decimal.RequireFromString("100.00"))
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	wg.Add(accounts)
	for i := 0; i < accounts; i++ {
		account := fmt.Sprintf("A%d", i)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				l.Process(mustTxRaw(fmt.Sprintf("%s-d%d", account, j), account, TypeDeposit, "5.00"))
				l.Process(mustTxRaw(fmt.Sprintf("%s-w%d", account, j), account, TypeWithdrawal, "5.00"))
			}
		}()
	}
	wg.Wait()

	for i := 0; i < accounts; i++ {
		acct, ok := l.GetAccount(fmt.Sprintf("A%d", i))
		require.True(t, ok)
		assert.True(t, acct.Balance().Equal(decimal.RequireFromString("100.00")), "account A%d balance %s", i, acct.Balance())
	}
}

// mustTxRaw builds a transaction without a testing.T, for use inside
// goroutines where require cannot be called.
func mustTxRaw(id, accountID string, txType TransactionType, amount string) *Transaction {
	tx, err := NewTransaction(id, accountID, txType, decimal.RequireFromString(amount))
	if err != nil {
		panic(err)
	}
	return tx
}
