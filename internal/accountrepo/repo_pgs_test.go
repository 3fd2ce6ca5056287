//go:build integration

package accountrepo_test

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/go-petr/ledger-bank/internal/accountrepo"
	"github.com/go-petr/ledger-bank/internal/domain"
	"github.com/go-petr/ledger-bank/internal/integrationtest"
	"github.com/go-petr/ledger-bank/internal/test"
	"github.com/go-petr/ledger-bank/pkg/configpkg"

	_ "github.com/lib/pq"
)

var (
	dbDriver string
	dbSource string
)

func TestMain(m *testing.M) {
	config, err := configpkg.Load("../../configs")
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	dbDriver = config.DBDriver
	dbSource = config.DBSource

	os.Exit(m.Run())
}

var ignoreStored = cmpopts.IgnoreFields(domain.Account{}, "CreatedAt", "Version")

func decimalEqual(a, b decimal.Decimal) bool { return a.Equal(b) }

func TestCreate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		account func(customerID int64) domain.Account
		wantErr error
	}{
		{
			name:    "Current",
			account: test.RandomCurrentAccount,
		},
		{
			name:    "Savings",
			account: test.RandomSavingsAccount,
		},
		{
			name: "CustomerNotFound",
			account: func(customerID int64) domain.Account {
				return test.RandomCurrentAccount(-customerID)
			},
			wantErr: domain.ErrCustomerNotFound,
		},
		{
			name: "BelowFloor",
			account: func(customerID int64) domain.Account {
				a := test.RandomSavingsAccount(customerID)
				a.Balance = decimal.NewFromInt(-1)

				return a
			},
			wantErr: domain.ErrInsufficientFunds,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tx := integrationtest.SetupTX(t, dbDriver, dbSource)
			repo := accountrepo.NewRepoPGS(tx)
			customer := test.SeedCustomer(t, tx)

			want := tc.account(customer.ID)

			got, err := repo.Create(context.Background(), want)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)

			if diff := cmp.Diff(want, got, ignoreStored, cmp.Comparer(decimalEqual)); diff != "" {
				t.Errorf("Create() returned unexpected difference (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	tx := integrationtest.SetupTX(t, dbDriver, dbSource)
	repo := accountrepo.NewRepoPGS(tx)
	customer := test.SeedCustomer(t, tx)
	want := test.SeedCurrentAccount(t, tx, customer.ID, "100", "50")

	got, err := repo.Get(context.Background(), want.ID)
	require.NoError(t, err)

	if diff := cmp.Diff(want, got, cmp.Comparer(decimalEqual)); diff != "" {
		t.Errorf("Get() returned unexpected difference (-want +got):\n%s", diff)
	}

	_, err = repo.Get(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	_, err = repo.GetForUpdate(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestSave(t *testing.T) {
	t.Parallel()

	tx := integrationtest.SetupTX(t, dbDriver, dbSource)
	repo := accountrepo.NewRepoPGS(tx)
	customer := test.SeedCustomer(t, tx)
	account := test.SeedCurrentAccount(t, tx, customer.ID, "100", "50")
	ctx := context.Background()

	locked, err := repo.GetForUpdate(ctx, account.ID)
	require.NoError(t, err)

	locked.Balance = decimal.RequireFromString("-50")

	saved, err := repo.Save(ctx, locked)
	require.NoError(t, err)
	require.True(t, saved.Balance.Equal(locked.Balance))
	require.Equal(t, locked.Version+1, saved.Version)

	// locked still carries the old version.
	_, err = repo.Save(ctx, locked)
	require.ErrorIs(t, err, domain.ErrConflict)

	saved.Balance = decimal.RequireFromString("-50.01")

	_, err = repo.Save(ctx, saved)
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
}

func TestUpdateStatus(t *testing.T) {
	t.Parallel()

	tx := integrationtest.SetupTX(t, dbDriver, dbSource)
	repo := accountrepo.NewRepoPGS(tx)
	customer := test.SeedCustomer(t, tx)
	account := test.SeedSavingsAccount(t, tx, customer.ID, "10")

	got, err := repo.UpdateStatus(context.Background(), account.ID, domain.StatusSuspended)
	require.NoError(t, err)
	require.Equal(t, domain.StatusSuspended, got.Status)
	require.True(t, got.Balance.Equal(account.Balance))

	_, err = repo.UpdateStatus(context.Background(), "missing", domain.StatusBlocked)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestListByCustomer(t *testing.T) {
	t.Parallel()

	tx := integrationtest.SetupTX(t, dbDriver, dbSource)
	repo := accountrepo.NewRepoPGS(tx)
	customer := test.SeedCustomer(t, tx)
	other := test.SeedCustomer(t, tx)

	current := test.SeedCurrentAccount(t, tx, customer.ID, "1", "0")
	savings := test.SeedSavingsAccount(t, tx, customer.ID, "2")
	test.SeedSavingsAccount(t, tx, other.ID, "3")

	got, err := repo.ListByCustomer(context.Background(), customer.ID)
	require.NoError(t, err)

	want := []domain.Account{current, savings}
	sortByID := cmpopts.SortSlices(func(a, b domain.Account) bool { return a.ID < b.ID })

	if diff := cmp.Diff(want, got, sortByID, cmp.Comparer(decimalEqual)); diff != "" {
		t.Errorf("ListByCustomer() returned unexpected difference (-want +got):\n%s", diff)
	}

	empty, err := repo.ListByCustomer(context.Background(), -other.ID)
	require.NoError(t, err)
	require.Empty(t, empty)
}
