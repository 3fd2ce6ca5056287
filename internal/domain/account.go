// Package domain provides defenitions of all entities.
package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrAccountNotFound indicates that the account is not found.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountNotActive indicates that the account status forbids balance mutations.
	ErrAccountNotActive = errors.New("account is not active")
	// ErrInvalidAccountType indicates an unknown account variant.
	ErrInvalidAccountType = errors.New("invalid account type")
	// ErrInvalidStatus indicates an unknown account status.
	ErrInvalidStatus = errors.New("invalid account status")
)

// AccountType tags the account variant.
type AccountType string

// Account variants.
const (
	CurrentAccount AccountType = "CURRENT"
	SavingsAccount AccountType = "SAVINGS"
)

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

// Account statuses.
const (
	StatusActive    AccountStatus = "ACTIVE"
	StatusSuspended AccountStatus = "SUSPENDED"
	StatusBlocked   AccountStatus = "BLOCKED"
)

// Valid reports whether s is a known status.
func (s AccountStatus) Valid() bool {
	switch s {
	case StatusActive, StatusSuspended, StatusBlocked:
		return true
	}

	return false
}

// CurrentTerms holds the attributes specific to a current account.
type CurrentTerms struct {
	OverdraftLimit decimal.Decimal `json:"overdraft_limit"`
}

// SavingsTerms holds the attributes specific to a savings account.
type SavingsTerms struct {
	InterestRate decimal.Decimal `json:"interest_rate"`
}

// Account holds customer balance data.
//
// Exactly one of Current and Savings is set, matching Type.
type Account struct {
	ID         string          `json:"id"`
	CustomerID int64           `json:"customer_id"`
	Type       AccountType     `json:"type"`
	Balance    decimal.Decimal `json:"balance"`
	Status     AccountStatus   `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	Current    *CurrentTerms   `json:"current,omitempty"`
	Savings    *SavingsTerms   `json:"savings,omitempty"`
	Version    int64           `json:"-"`
}

// NewCurrentAccount returns an active current account.
func NewCurrentAccount(id string, customerID int64, balance, overdraftLimit decimal.Decimal) Account {
	return Account{
		ID:         id,
		CustomerID: customerID,
		Type:       CurrentAccount,
		Balance:    balance,
		Status:     StatusActive,
		Current:    &CurrentTerms{OverdraftLimit: overdraftLimit},
	}
}

// NewSavingsAccount returns an active savings account.
func NewSavingsAccount(id string, customerID int64, balance, interestRate decimal.Decimal) Account {
	return Account{
		ID:         id,
		CustomerID: customerID,
		Type:       SavingsAccount,
		Balance:    balance,
		Status:     StatusActive,
		Savings:    &SavingsTerms{InterestRate: interestRate},
	}
}

// Floor returns the lowest balance the account variant allows.
func (a Account) Floor() (decimal.Decimal, error) {
	switch a.Type {
	case CurrentAccount:
		if a.Current == nil {
			return decimal.Zero, nil
		}

		return a.Current.OverdraftLimit.Neg(), nil
	case SavingsAccount:
		return decimal.Zero, nil
	}

	return decimal.Zero, ErrInvalidAccountType
}

// ApplyDelta returns the balance after adding amount, which may be negative.
//
// The account itself is never modified; ErrInsufficientFunds is returned when the new balance
// would fall below the variant floor.
func (a Account) ApplyDelta(amount decimal.Decimal) (decimal.Decimal, error) {
	floor, err := a.Floor()
	if err != nil {
		return a.Balance, err
	}

	newBalance := a.Balance.Add(amount)
	if newBalance.LessThan(floor) {
		return a.Balance, ErrInsufficientFunds
	}

	return newBalance, nil
}

// CreateAccountParams is the input data to open an account of either variant.
type CreateAccountParams struct {
	CustomerID     int64
	Type           AccountType
	InitialBalance decimal.Decimal
	OverdraftLimit decimal.Decimal
	InterestRate   decimal.Decimal
}
