// Package test provides shared test helpers.
package test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/go-petr/ledger-bank/internal/accountrepo"
	"github.com/go-petr/ledger-bank/internal/customerrepo"
	"github.com/go-petr/ledger-bank/internal/domain"
	"github.com/go-petr/ledger-bank/internal/operationrepo"
	"github.com/go-petr/ledger-bank/internal/sessionrepo"
	"github.com/go-petr/ledger-bank/internal/userrepo"
	"github.com/go-petr/ledger-bank/pkg/dbpkg"
	"github.com/go-petr/ledger-bank/pkg/passpkg"
	"github.com/go-petr/ledger-bank/pkg/randompkg"
)

// SeedUser creates random User inside a test transaction.
func SeedUser(t *testing.T, tx dbpkg.SQLInterface) domain.User {
	t.Helper()

	hashedPassword, err := passpkg.Hash(randompkg.String(32))
	if err != nil {
		t.Fatalf("passpkg.Hash(randompkg.String(10)) returned error: %v", err)
	}

	arg := domain.CreateUserParams{
		Username:       randompkg.Owner(),
		HashedPassword: hashedPassword,
		FullName:       randompkg.String(10),
		Email:          randompkg.Email(),
		Role:           domain.RoleUser,
	}

	userRepo := userrepo.NewRepoPGS(tx)
	user, err := userRepo.Create(context.Background(), arg)

	if err != nil {
		t.Fatalf("userRepo.Create(context.Background(), %+v) returned error: %v", arg, err)
	}

	return user
}

// SeedSession stores the session described by arg.
func SeedSession(t *testing.T, tx dbpkg.SQLInterface, arg domain.CreateSessionParams) domain.Session {
	t.Helper()

	session, err := sessionrepo.NewRepoPGS(tx).Create(context.Background(), arg)
	if err != nil {
		t.Fatalf("sessionRepo.Create(context.Background(), %+v) returned error: %v", arg, err)
	}

	return session
}

// SeedCustomer creates random Customer inside a test transaction.
func SeedCustomer(t *testing.T, tx dbpkg.SQLInterface) domain.Customer {
	t.Helper()

	arg := domain.CustomerParams{
		Name:  randompkg.Owner(),
		Email: randompkg.Email(),
	}

	customer, err := customerrepo.NewRepoPGS(tx).Create(context.Background(), arg)
	if err != nil {
		t.Fatalf("customerRepo.Create(context.Background(), %+v) returned error: %v", arg, err)
	}

	return customer
}

func seedAccount(t *testing.T, tx dbpkg.SQLInterface, a domain.Account) domain.Account {
	t.Helper()

	account, err := accountrepo.NewRepoPGS(tx).Create(context.Background(), a)
	if err != nil {
		t.Fatalf("accountRepo.Create(context.Background(), %+v) returned error: %v", a, err)
	}

	return account
}

// SeedCurrentAccount creates a current Account with the given balance and overdraft limit.
func SeedCurrentAccount(t *testing.T, tx dbpkg.SQLInterface, customerID int64, balance, overdraft string) domain.Account {
	t.Helper()

	a := RandomCurrentAccount(customerID)
	a.Balance = decimal.RequireFromString(balance)
	a.Current.OverdraftLimit = decimal.RequireFromString(overdraft)

	return seedAccount(t, tx, a)
}

// SeedSavingsAccount creates a savings Account with the given balance.
func SeedSavingsAccount(t *testing.T, tx dbpkg.SQLInterface, customerID int64, balance string) domain.Account {
	t.Helper()

	a := RandomSavingsAccount(customerID)
	a.Balance = decimal.RequireFromString(balance)

	return seedAccount(t, tx, a)
}

// SeedOperations creates count credit Operations with random amounts for the account.
//
// The returned slice is in insertion order.
func SeedOperations(t *testing.T, tx dbpkg.SQLInterface, accountID string, count int) []domain.Operation {
	t.Helper()

	repo := operationrepo.NewRepoPGS(tx)
	ops := make([]domain.Operation, count)

	for i := range ops {
		arg := domain.CreateOperationParams{
			AccountID:   accountID,
			Type:        domain.Credit,
			Amount:      randompkg.Decimal(1, 1000).Round(2),
			Description: randompkg.String(8),
		}

		op, err := repo.Create(context.Background(), arg)
		if err != nil {
			t.Fatalf("operationRepo.Create(context.Background(), %+v) returned error: %v", arg, err)
		}

		ops[i] = op
	}

	return ops
}
