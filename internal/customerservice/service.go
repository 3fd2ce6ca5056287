// Package customerservice manages business logic layer of customers.
package customerservice

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/go-petr/ledger-bank/internal/domain"
)

// Repo provides data access layer interface needed by customer service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package customerservice
type Repo interface {
	Create(ctx context.Context, arg domain.CustomerParams) (domain.Customer, error)
	Get(ctx context.Context, id int64) (domain.Customer, error)
	Update(ctx context.Context, id int64, arg domain.CustomerParams) (domain.Customer, error)
	Delete(ctx context.Context, id int64) error
}

// AccountRepo lists the accounts owned by a customer.
type AccountRepo interface {
	ListByCustomer(ctx context.Context, customerID int64) ([]domain.Account, error)
}

// Service facilitates customer service layer logic.
type Service struct {
	repo     Repo
	accounts AccountRepo
}

// New returns customer service struct to manage customer bussines logic.
func New(r Repo, ar AccountRepo) *Service {
	return &Service{
		repo:     r,
		accounts: ar,
	}
}

func normalize(arg domain.CustomerParams) domain.CustomerParams {
	return domain.CustomerParams{
		Name:  strings.TrimSpace(arg.Name),
		Email: strings.ToLower(strings.TrimSpace(arg.Email)),
	}
}

// Create registers a new customer.
func (s *Service) Create(ctx context.Context, arg domain.CustomerParams) (domain.Customer, error) {
	return s.repo.Create(ctx, normalize(arg))
}

// Get returns the customer with the given id.
func (s *Service) Get(ctx context.Context, id int64) (domain.Customer, error) {
	return s.repo.Get(ctx, id)
}

// Update changes the customer name and email.
func (s *Service) Update(ctx context.Context, id int64, arg domain.CustomerParams) (domain.Customer, error) {
	return s.repo.Update(ctx, id, normalize(arg))
}

// Delete removes a customer that owns no accounts.
func (s *Service) Delete(ctx context.Context, id int64) error {
	l := zerolog.Ctx(ctx)

	accounts, err := s.ListAccounts(ctx, id)
	if err != nil {
		return err
	}

	if len(accounts) > 0 {
		l.Info().Int64("customer_id", id).Int("accounts", len(accounts)).Msg("customer still owns accounts")
		return domain.ErrCustomerHasAccounts
	}

	return s.repo.Delete(ctx, id)
}

// ListAccounts returns the accounts owned by the customer.
func (s *Service) ListAccounts(ctx context.Context, id int64) ([]domain.Account, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}

	return s.accounts.ListByCustomer(ctx, id)
}
