package operationservice_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/go-petr/ledger-bank/internal/domain"
	"github.com/go-petr/ledger-bank/internal/memledger"
	"github.com/go-petr/ledger-bank/internal/operationservice"
)

func newService(store *memledger.Store) *operationservice.Service {
	return operationservice.New(store, nil, operationservice.Config{
		MaxRetries:     50,
		RetryBaseDelay: time.Millisecond,
	})
}

func balanceOf(t *testing.T, store *memledger.Store, id string) decimal.Decimal {
	t.Helper()

	a, err := store.Get(id)
	require.NoError(t, err)

	return a.Balance
}

func TestOverdraftScenario(t *testing.T) {
	t.Parallel()

	store := memledger.New(time.Second)
	store.Put(domain.NewCurrentAccount("A", 1, decimal.NewFromInt(100), decimal.NewFromInt(50)))

	s := newService(store)
	ctx := context.Background()

	op, err := s.Debit(ctx, "A", decimal.NewFromInt(120), "x")
	require.NoError(t, err)
	require.Equal(t, domain.Debit, op.Type)
	require.True(t, balanceOf(t, store, "A").Equal(decimal.NewFromInt(-20)))

	_, err = s.Debit(ctx, "A", decimal.NewFromInt(40), "y")
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	require.True(t, balanceOf(t, store, "A").Equal(decimal.NewFromInt(-20)))
	require.Len(t, store.Operations("A"), 1)
}

func TestTransferInsufficientFundsLeavesBothUnchanged(t *testing.T) {
	t.Parallel()

	store := memledger.New(time.Second)
	store.Put(domain.NewCurrentAccount("A", 1, decimal.NewFromInt(10), decimal.Zero))
	store.Put(domain.NewSavingsAccount("B", 2, decimal.NewFromInt(7), decimal.Zero))

	s := newService(store)

	_, err := s.Transfer(context.Background(), domain.TransferParams{
		FromAccountID: "A",
		ToAccountID:   "B",
		Amount:        decimal.NewFromInt(30),
	})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	require.True(t, balanceOf(t, store, "A").Equal(decimal.NewFromInt(10)))
	require.True(t, balanceOf(t, store, "B").Equal(decimal.NewFromInt(7)))
	require.Empty(t, store.Operations("A"))
	require.Empty(t, store.Operations("B"))
}

func TestTransferToMissingAccountLeavesSourceUnchanged(t *testing.T) {
	t.Parallel()

	store := memledger.New(time.Second)
	store.Put(domain.NewCurrentAccount("A", 1, decimal.NewFromInt(100), decimal.Zero))

	s := newService(store)

	_, err := s.Transfer(context.Background(), domain.TransferParams{
		FromAccountID: "A",
		ToAccountID:   "Z",
		Amount:        decimal.NewFromInt(30),
	})
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
	require.True(t, balanceOf(t, store, "A").Equal(decimal.NewFromInt(100)))
	require.Empty(t, store.Operations("A"))
}

func TestTransferToSuspendedAccountLeavesSourceUnchanged(t *testing.T) {
	t.Parallel()

	store := memledger.New(time.Second)
	store.Put(domain.NewCurrentAccount("A", 1, decimal.NewFromInt(100), decimal.Zero))

	suspended := domain.NewSavingsAccount("B", 2, decimal.NewFromInt(5), decimal.Zero)
	suspended.Status = domain.StatusSuspended
	store.Put(suspended)

	s := newService(store)

	_, err := s.Transfer(context.Background(), domain.TransferParams{
		FromAccountID: "A",
		ToAccountID:   "B",
		Amount:        decimal.NewFromInt(30),
	})
	require.ErrorIs(t, err, domain.ErrAccountNotActive)

	require.True(t, balanceOf(t, store, "A").Equal(decimal.NewFromInt(100)))
	require.True(t, balanceOf(t, store, "B").Equal(decimal.NewFromInt(5)))
	require.Empty(t, store.Operations("A"))
	require.Empty(t, store.Operations("B"))
}

func TestCanceledCreditLeavesNoTrace(t *testing.T) {
	t.Parallel()

	store := memledger.New(time.Second)
	store.Put(domain.NewSavingsAccount("A", 1, decimal.NewFromInt(10), decimal.Zero))

	s := newService(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Credit(ctx, "A", decimal.NewFromInt(5), "late")
	require.Error(t, err)
	require.Equal(t, domain.KindCanceled, domain.Kind(err))
	require.True(t, balanceOf(t, store, "A").Equal(decimal.NewFromInt(10)))
	require.Empty(t, store.Operations("A"))
}

func TestCreditMissingAccountCreatesNoOperation(t *testing.T) {
	t.Parallel()

	store := memledger.New(time.Second)
	s := newService(store)

	_, err := s.Credit(context.Background(), "missing", decimal.NewFromInt(10), "z")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
	require.Empty(t, store.Operations("missing"))
}

func TestTransferDescriptions(t *testing.T) {
	t.Parallel()

	store := memledger.New(time.Second)
	store.Put(domain.NewCurrentAccount("A", 1, decimal.NewFromInt(100), decimal.Zero))
	store.Put(domain.NewSavingsAccount("B", 2, decimal.Zero, decimal.Zero))

	s := newService(store)

	res, err := s.Transfer(context.Background(), domain.TransferParams{
		FromAccountID: "A",
		ToAccountID:   "B",
		Amount:        decimal.NewFromInt(40),
	})
	require.NoError(t, err)

	require.Equal(t, "Transfer to B", res.DebitOperation.Description)
	require.Equal(t, "Transfer from A", res.CreditOperation.Description)
	require.Less(t, res.DebitOperation.ID, res.CreditOperation.ID)
	require.True(t, balanceOf(t, store, "A").Equal(decimal.NewFromInt(60)))
	require.True(t, balanceOf(t, store, "B").Equal(decimal.NewFromInt(40)))
}

func TestBalanceEqualsInitialPlusOperations(t *testing.T) {
	t.Parallel()

	store := memledger.New(time.Second)
	initial := decimal.NewFromInt(500)
	store.Put(domain.NewCurrentAccount("A", 1, initial, decimal.NewFromInt(100)))

	s := newService(store)
	ctx := context.Background()

	amounts := []int64{13, 250, 7, 999, 42, 180, 5, 61}
	for i, n := range amounts {
		var err error
		if i%2 == 0 {
			_, err = s.Credit(ctx, "A", decimal.NewFromInt(n), "c")
		} else {
			_, err = s.Debit(ctx, "A", decimal.NewFromInt(n), "d")
		}

		if err != nil {
			require.ErrorIs(t, err, domain.ErrInsufficientFunds)
		}
	}

	want := initial
	for _, op := range store.Operations("A") {
		if op.Type == domain.Credit {
			want = want.Add(op.Amount)
		} else {
			want = want.Sub(op.Amount)
		}
	}

	require.True(t, want.Equal(balanceOf(t, store, "A")), "want %v, got %v", want, balanceOf(t, store, "A"))
}

func TestConcurrentDebitsNeverBreachFloor(t *testing.T) {
	t.Parallel()

	store := memledger.New(time.Second)
	store.Put(domain.NewCurrentAccount("A", 1, decimal.NewFromInt(100), decimal.NewFromInt(50)))

	s := newService(store)
	ctx := context.Background()

	const workers = 40

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := s.Debit(ctx, "A", decimal.NewFromInt(10), "concurrent")

			mu.Lock()
			defer mu.Unlock()

			if err == nil {
				succeeded++
			}
		}()
	}

	wg.Wait()

	// 100 + 50 overdraft allows exactly fifteen debits of 10.
	require.Equal(t, 15, succeeded)
	require.True(t, balanceOf(t, store, "A").Equal(decimal.NewFromInt(-50)))
	require.Len(t, store.Operations("A"), 15)
}

func TestConcurrentOpposingTransfersConserveMoney(t *testing.T) {
	t.Parallel()

	store := memledger.New(time.Second)
	store.Put(domain.NewCurrentAccount("A", 1, decimal.NewFromInt(1000), decimal.Zero))
	store.Put(domain.NewCurrentAccount("B", 2, decimal.NewFromInt(1000), decimal.Zero))

	s := newService(store)
	ctx := context.Background()

	const n = 20

	var wg sync.WaitGroup

	errs := make(chan error, 2*n)

	for i := 0; i < n; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()

			_, err := s.Transfer(ctx, domain.TransferParams{FromAccountID: "A", ToAccountID: "B", Amount: decimal.NewFromInt(10)})
			errs <- err
		}()

		go func() {
			defer wg.Done()

			_, err := s.Transfer(ctx, domain.TransferParams{FromAccountID: "B", ToAccountID: "A", Amount: decimal.NewFromInt(10)})
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	total := balanceOf(t, store, "A").Add(balanceOf(t, store, "B"))
	require.True(t, total.Equal(decimal.NewFromInt(2000)), "money must be conserved, got %v", total)
	require.True(t, balanceOf(t, store, "A").Equal(decimal.NewFromInt(1000)))
	require.Len(t, store.Operations("A"), 2*n)
	require.Len(t, store.Operations("B"), 2*n)
}

func TestOperationIDsMonotonicPerAccount(t *testing.T) {
	t.Parallel()

	store := memledger.New(time.Second)
	store.Put(domain.NewSavingsAccount("A", 1, decimal.Zero, decimal.Zero))

	s := newService(store)
	ctx := context.Background()

	var wg sync.WaitGroup

	errs := make(chan error, 25)

	for i := 0; i < 25; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			_, err := s.Credit(ctx, "A", decimal.NewFromInt(1), fmt.Sprintf("c%d", i))
			errs <- err
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	ops := store.Operations("A")
	require.Len(t, ops, 25)

	for i := 1; i < len(ops); i++ {
		require.Greater(t, ops[i].ID, ops[i-1].ID)
	}

	require.True(t, balanceOf(t, store, "A").Equal(decimal.NewFromInt(25)))
}
