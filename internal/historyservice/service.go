// Package historyservice manages read-only access to account operation history.
package historyservice

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/go-petr/ledger-bank/internal/domain"
)

// Repo provides data access layer interface needed by history service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package historyservice
type Repo interface {
	ReadTx(ctx context.Context, fn func(rd domain.LedgerReader) error) error
}

// Service facilitates history service layer logic.
type Service struct {
	repo Repo
}

// New returns history service struct to read account operations.
func New(r Repo) *Service {
	return &Service{
		repo: r,
	}
}

// GetHistory returns one page of the account operations, newest first.
//
// Pages are numbered from zero. A page past the last one is returned empty.
func (s *Service) GetHistory(ctx context.Context, accountID string, page, size int) (domain.AccountHistory, error) {
	l := zerolog.Ctx(ctx)

	if page < 0 || size <= 0 {
		l.Info().Int("page", page).Int("size", size).Msg("invalid page request")
		return domain.AccountHistory{}, domain.ErrInvalidPage
	}

	h := domain.AccountHistory{
		AccountID: accountID,
		Page:      page,
		PageSize:  size,
	}

	err := s.repo.ReadTx(ctx, func(rd domain.LedgerReader) error {
		a, err := rd.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}

		h.CurrentBalance = a.Balance

		total, err := rd.CountOperations(ctx, accountID)
		if err != nil {
			return err
		}

		h.TotalPages = totalPages(total, size)

		if page >= h.TotalPages {
			h.Operations = []domain.Operation{}
			return nil
		}

		h.Operations, err = rd.ListOperations(ctx, accountID, size, page*size)

		return err
	})
	if err != nil {
		return domain.AccountHistory{}, err
	}

	return h, nil
}

// GetFullHistory returns every operation of the account, newest first.
func (s *Service) GetFullHistory(ctx context.Context, accountID string) ([]domain.Operation, error) {
	var ops []domain.Operation

	err := s.repo.ReadTx(ctx, func(rd domain.LedgerReader) error {
		if _, err := rd.GetAccount(ctx, accountID); err != nil {
			return err
		}

		var err error
		ops, err = rd.ListAllOperations(ctx, accountID)

		return err
	})
	if err != nil {
		return nil, err
	}

	return ops, nil
}

func totalPages(count, size int) int {
	return (count + size - 1) / size
}
