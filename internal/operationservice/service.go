// Package operationservice manages business logic layer of balance mutations.
//
// It is the only path that changes an account balance, and every change is
// recorded as exactly one operation inside the same ledger transaction.
package operationservice

import (
	"context"
	"sort"
	"time"

	"github.com/LerianStudio/lib-uncommons/v2/uncommons/backoff"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/ledger-bank/internal/domain"
	"github.com/go-petr/ledger-bank/pkg/moneypkg"
)

// Repo provides data access layer interface needed by operation service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package operationservice
type Repo interface {
	ExecTx(ctx context.Context, fn func(tx domain.LedgerTx) error) error
}

// Notifier is told about operations after they have been committed.
type Notifier interface {
	Notify(ctx context.Context, ops ...domain.Operation) error
}

// Config bounds the retries of transient ledger failures.
type Config struct {
	MaxRetries     int
	RetryBaseDelay time.Duration
}

// Service facilitates operation service layer logic.
type Service struct {
	repo     Repo
	notifier Notifier
	config   Config
}

// New returns operation service struct to manage balance mutations.
//
// A nil notifier disables post-commit notifications.
func New(r Repo, n Notifier, c Config) *Service {
	return &Service{
		repo:     r,
		notifier: n,
		config:   c,
	}
}

// Credit increases the account balance by amount and records a CREDIT operation.
func (s *Service) Credit(ctx context.Context, accountID string, amount decimal.Decimal, description string) (domain.Operation, error) {
	return s.single(ctx, accountID, domain.Credit, amount, description)
}

// Debit decreases the account balance by amount and records a DEBIT operation.
func (s *Service) Debit(ctx context.Context, accountID string, amount decimal.Decimal, description string) (domain.Operation, error) {
	return s.single(ctx, accountID, domain.Debit, amount, description)
}

func (s *Service) single(ctx context.Context, accountID string, t domain.OperationType, amount decimal.Decimal, description string) (domain.Operation, error) {
	l := zerolog.Ctx(ctx)

	if err := moneypkg.CheckAmount(amount); err != nil {
		l.Info().Err(err).Str("amount", amount.String()).Send()
		return domain.Operation{}, err
	}

	var op domain.Operation

	err := s.withRetry(ctx, func(tx domain.LedgerTx) error {
		a, err := tx.GetAccountForUpdate(ctx, accountID)
		if err != nil {
			return err
		}

		op, _, err = apply(ctx, tx, a, t, amount, description)

		return err
	})
	if err != nil {
		return domain.Operation{}, err
	}

	s.notify(ctx, op)

	return op, nil
}

// Transfer moves amount from one account to another.
//
// Both accounts are locked in ascending id order before either leg is applied,
// and both legs commit or roll back together.
func (s *Service) Transfer(ctx context.Context, arg domain.TransferParams) (domain.TransferResult, error) {
	l := zerolog.Ctx(ctx)

	if err := moneypkg.CheckAmount(arg.Amount); err != nil {
		l.Info().Err(err).Str("amount", arg.Amount.String()).Send()
		return domain.TransferResult{}, err
	}

	if arg.FromAccountID == arg.ToAccountID {
		l.Info().Str("account_id", arg.FromAccountID).Msg("transfer to the same account")
		return domain.TransferResult{}, domain.ErrSameAccount
	}

	var result domain.TransferResult

	err := s.withRetry(ctx, func(tx domain.LedgerTx) error {
		ids := []string{arg.FromAccountID, arg.ToAccountID}
		sort.Strings(ids)

		locked := make(map[string]domain.Account, len(ids))

		for _, id := range ids {
			a, err := tx.GetAccountForUpdate(ctx, id)
			if err != nil {
				return err
			}

			locked[id] = a
		}

		var err error

		result.DebitOperation, result.FromAccount, err = apply(ctx, tx, locked[arg.FromAccountID],
			domain.Debit, arg.Amount, "Transfer to "+arg.ToAccountID)
		if err != nil {
			return err
		}

		result.CreditOperation, result.ToAccount, err = apply(ctx, tx, locked[arg.ToAccountID],
			domain.Credit, arg.Amount, "Transfer from "+arg.FromAccountID)

		return err
	})
	if err != nil {
		return domain.TransferResult{}, err
	}

	s.notify(ctx, result.DebitOperation, result.CreditOperation)

	return result, nil
}

// apply mutates the locked account a and appends the matching operation.
func apply(ctx context.Context, tx domain.LedgerTx, a domain.Account, t domain.OperationType, amount decimal.Decimal, description string) (domain.Operation, domain.Account, error) {
	if a.Status != domain.StatusActive {
		return domain.Operation{}, a, domain.ErrAccountNotActive
	}

	delta := amount
	if t == domain.Debit {
		delta = amount.Neg()
	}

	balance, err := a.ApplyDelta(delta)
	if err != nil {
		return domain.Operation{}, a, err
	}

	a.Balance = balance

	saved, err := tx.SaveAccount(ctx, a)
	if err != nil {
		return domain.Operation{}, a, err
	}

	op, err := tx.AppendOperation(ctx, domain.CreateOperationParams{
		AccountID:   a.ID,
		Type:        t,
		Amount:      amount,
		Description: description,
	})
	if err != nil {
		return domain.Operation{}, saved, err
	}

	return op, saved, nil
}

// withRetry runs fn in a ledger transaction, retrying contention and conflict
// failures at most MaxRetries times with jittered exponential backoff.
func (s *Service) withRetry(ctx context.Context, fn func(tx domain.LedgerTx) error) error {
	l := zerolog.Ctx(ctx)

	for attempt := 0; ; attempt++ {
		err := s.repo.ExecTx(ctx, fn)
		if err == nil {
			return nil
		}

		if !domain.Retryable(err) || attempt >= s.config.MaxRetries {
			if domain.Retryable(err) {
				l.Warn().Err(err).Int("attempts", attempt+1).Msg("ledger transaction gave up")
			}

			return err
		}

		delay := backoff.ExponentialWithJitter(s.config.RetryBaseDelay, attempt)
		l.Debug().Err(err).Int("attempt", attempt+1).Dur("delay", delay).Msg("retrying ledger transaction")

		if sleepErr := backoff.SleepWithContext(ctx, delay); sleepErr != nil {
			return err
		}
	}
}

func (s *Service) notify(ctx context.Context, ops ...domain.Operation) {
	if s.notifier == nil {
		return
	}

	if err := s.notifier.Notify(ctx, ops...); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("operation notification failed")
	}
}
