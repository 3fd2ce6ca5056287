// Package accountservice manages business logic layer of accounts.
package accountservice

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/go-petr/ledger-bank/internal/domain"
)

// Repo provides data access layer interface needed by account service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package accountservice
type Repo interface {
	Create(ctx context.Context, a domain.Account) (domain.Account, error)
	Get(ctx context.Context, id string) (domain.Account, error)
	UpdateStatus(ctx context.Context, id string, status domain.AccountStatus) (domain.Account, error)
}

// Service facilitates account service layer logic.
type Service struct {
	repo  Repo
	newID func() string
}

// New returns account service struct to manage account bussines logic.
func New(ar Repo) *Service {
	return &Service{
		repo:  ar,
		newID: uuid.NewString,
	}
}

// Create opens an account of the requested variant for the customer.
//
// The opening balance must already satisfy the variant floor.
func (s *Service) Create(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	var a domain.Account

	switch arg.Type {
	case domain.CurrentAccount:
		if arg.OverdraftLimit.IsNegative() {
			return domain.Account{}, domain.ErrInvalidAmount
		}

		a = domain.NewCurrentAccount(s.newID(), arg.CustomerID, arg.InitialBalance, arg.OverdraftLimit)
	case domain.SavingsAccount:
		if arg.InterestRate.IsNegative() {
			return domain.Account{}, domain.ErrInvalidAmount
		}

		a = domain.NewSavingsAccount(s.newID(), arg.CustomerID, arg.InitialBalance, arg.InterestRate)
	default:
		return domain.Account{}, domain.ErrInvalidAccountType
	}

	floor, err := a.Floor()
	if err != nil {
		return domain.Account{}, err
	}

	if a.Balance.LessThan(floor) {
		l.Info().Str("balance", a.Balance.String()).Str("floor", floor.String()).Msg("opening balance below floor")
		return domain.Account{}, domain.ErrInsufficientFunds
	}

	return s.repo.Create(ctx, a)
}

// Get returns account for the given account ID.
func (s *Service) Get(ctx context.Context, id string) (domain.Account, error) {
	return s.repo.Get(ctx, id)
}

// UpdateStatus moves the account to the given lifecycle status.
func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.AccountStatus) (domain.Account, error) {
	if !status.Valid() {
		return domain.Account{}, domain.ErrInvalidStatus
	}

	return s.repo.UpdateStatus(ctx, id, status)
}
