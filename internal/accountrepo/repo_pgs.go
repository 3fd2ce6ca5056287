// Package accountrepo manages repository layer of accounts.
package accountrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/ledger-bank/internal/domain"
	"github.com/go-petr/ledger-bank/pkg/dbpkg"
	"github.com/go-petr/ledger-bank/pkg/errorspkg"
)

// RepoPGS facilitates account repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns account RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

const accountColumns = `id, customer_id, type, balance, status, overdraft_limit, interest_rate, version, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (domain.Account, error) {
	var (
		a         domain.Account
		overdraft decimal.NullDecimal
		rate      decimal.NullDecimal
	)

	err := row.Scan(
		&a.ID,
		&a.CustomerID,
		&a.Type,
		&a.Balance,
		&a.Status,
		&overdraft,
		&rate,
		&a.Version,
		&a.CreatedAt,
	)
	if err != nil {
		return domain.Account{}, err
	}

	switch a.Type {
	case domain.CurrentAccount:
		a.Current = &domain.CurrentTerms{OverdraftLimit: overdraft.Decimal}
	case domain.SavingsAccount:
		a.Savings = &domain.SavingsTerms{InterestRate: rate.Decimal}
	}

	return a, nil
}

func terms(a domain.Account) (overdraft, rate decimal.NullDecimal) {
	if a.Current != nil {
		overdraft = decimal.NewNullDecimal(a.Current.OverdraftLimit)
	}

	if a.Savings != nil {
		rate = decimal.NewNullDecimal(a.Savings.InterestRate)
	}

	return overdraft, rate
}

const createQuery = `
INSERT INTO
    accounts (id, customer_id, type, balance, status, overdraft_limit, interest_rate)
VALUES
    ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + accountColumns

// Create inserts the account and then returns it.
func (r *RepoPGS) Create(ctx context.Context, a domain.Account) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	overdraft, rate := terms(a)

	row := r.db.QueryRowContext(ctx, createQuery,
		a.ID,
		a.CustomerID,
		a.Type,
		a.Balance,
		a.Status,
		overdraft,
		rate,
	)

	created, err := scanAccount(row)
	if err != nil {
		l.Error().Err(err).Send()

		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Constraint {
			case "accounts_customer_id_fkey":
				return created, domain.ErrCustomerNotFound
			case "accounts_balance_floor_check":
				return created, domain.ErrInsufficientFunds
			}
		}

		return created, errorspkg.ErrInternal
	}

	return created, nil
}

const getQuery = `
SELECT ` + accountColumns + `
FROM accounts
WHERE id = $1
`

// Get returns the account with the given id.
func (r *RepoPGS) Get(ctx context.Context, id string) (domain.Account, error) {
	return r.get(ctx, getQuery, id)
}

const getForUpdateQuery = getQuery + `FOR UPDATE`

// GetForUpdate returns the account with the given id and locks its row until the
// surrounding transaction ends.
func (r *RepoPGS) GetForUpdate(ctx context.Context, id string) (domain.Account, error) {
	return r.get(ctx, getForUpdateQuery, id)
}

func (r *RepoPGS) get(ctx context.Context, query, id string) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return a, domain.ErrAccountNotFound
		}

		l.Error().Err(err).Send()

		return a, dbpkg.MapTxError(err)
	}

	return a, nil
}

const saveQuery = `
UPDATE accounts
SET balance = $1, version = version + 1
WHERE id = $2 AND version = $3
RETURNING ` + accountColumns

// Save persists the account balance.
//
// The update only applies when the stored version still matches a.Version,
// otherwise ErrConflict is returned.
func (r *RepoPGS) Save(ctx context.Context, a domain.Account) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	saved, err := scanAccount(r.db.QueryRowContext(ctx, saveQuery, a.Balance, a.ID, a.Version))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			l.Warn().Str("account_id", a.ID).Int64("version", a.Version).Msg("stale account version")
			return saved, domain.ErrConflict
		}

		l.Error().Err(err).Send()

		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Constraint == "accounts_balance_floor_check" {
			return saved, domain.ErrInsufficientFunds
		}

		return saved, dbpkg.MapTxError(err)
	}

	return saved, nil
}

const updateStatusQuery = `
UPDATE accounts
SET status = $1, version = version + 1
WHERE id = $2
RETURNING ` + accountColumns

// UpdateStatus changes the account status and returns the changed account.
func (r *RepoPGS) UpdateStatus(ctx context.Context, id string, status domain.AccountStatus) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scanAccount(r.db.QueryRowContext(ctx, updateStatusQuery, status, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return a, domain.ErrAccountNotFound
		}

		l.Error().Err(err).Send()

		return a, errorspkg.ErrInternal
	}

	return a, nil
}

const listByCustomerQuery = `
SELECT ` + accountColumns + `
FROM accounts
WHERE customer_id = $1
ORDER BY created_at, id
`

// ListByCustomer returns all accounts owned by the given customer.
func (r *RepoPGS) ListByCustomer(ctx context.Context, customerID int64) ([]domain.Account, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listByCustomerQuery, customerID)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Account{}

	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, a)
	}

	if err := rows.Close(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}
