package test

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/go-petr/ledger-bank/internal/domain"
	"github.com/go-petr/ledger-bank/pkg/randompkg"
)

// RandomCurrentAccount returns a random current account owned by the given customer.
func RandomCurrentAccount(customerID int64) domain.Account {
	a := domain.NewCurrentAccount(
		randompkg.AccountID(),
		customerID,
		randompkg.Decimal(1000, 10_000).Round(2),
		decimal.NewFromInt(int64(randompkg.IntBetween(0, 500))),
	)
	a.CreatedAt = time.Now().Truncate(time.Second).UTC()

	return a
}

// RandomSavingsAccount returns a random savings account owned by the given customer.
func RandomSavingsAccount(customerID int64) domain.Account {
	a := domain.NewSavingsAccount(
		randompkg.AccountID(),
		customerID,
		randompkg.Decimal(1000, 10_000).Round(2),
		decimal.RequireFromString("0.035"),
	)
	a.CreatedAt = time.Now().Truncate(time.Second).UTC()

	return a
}
