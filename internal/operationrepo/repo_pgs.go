// Package operationrepo manages repository layer of ledger operations.
package operationrepo

import (
	"context"
	"errors"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/go-petr/ledger-bank/internal/domain"
	"github.com/go-petr/ledger-bank/pkg/dbpkg"
	"github.com/go-petr/ledger-bank/pkg/errorspkg"
)

// RepoPGS facilitates operation repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns operation RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

const createQuery = `
INSERT INTO
    operations (account_id, type, amount, description)
VALUES
    ($1, $2, $3, $4)
RETURNING id, account_id, type, amount, description, created_at
`

// Create appends the operation to the ledger and then returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateOperationParams) (domain.Operation, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery, arg.AccountID, arg.Type, arg.Amount, arg.Description)

	var o domain.Operation

	err := row.Scan(
		&o.ID,
		&o.AccountID,
		&o.Type,
		&o.Amount,
		&o.Description,
		&o.CreatedAt,
	)
	if err != nil {
		l.Error().Err(err).Msgf("Create(ctx context.Context, %+v)", arg)

		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Constraint {
			case "operations_account_id_fkey":
				return o, domain.ErrAccountNotFound
			case "operations_amount_check":
				return o, domain.ErrInvalidAmount
			}
		}

		return o, dbpkg.MapTxError(err)
	}

	return o, nil
}

const countQuery = `
SELECT count(*)
FROM operations
WHERE account_id = $1
`

// Count returns the number of operations recorded for the account.
func (r *RepoPGS) Count(ctx context.Context, accountID string) (int, error) {
	l := zerolog.Ctx(ctx)

	var n int
	if err := r.db.QueryRowContext(ctx, countQuery, accountID).Scan(&n); err != nil {
		l.Error().Err(err).Send()
		return 0, errorspkg.ErrInternal
	}

	return n, nil
}

const listQuery = `
SELECT
    id, account_id, type, amount, description, created_at
FROM operations
WHERE account_id = $1
ORDER BY id DESC
LIMIT $2 OFFSET $3
`

// List returns one window of the account operations, newest first.
func (r *RepoPGS) List(ctx context.Context, accountID string, limit, offset int) ([]domain.Operation, error) {
	return r.list(ctx, listQuery, accountID, limit, offset)
}

const listAllQuery = `
SELECT
    id, account_id, type, amount, description, created_at
FROM operations
WHERE account_id = $1
ORDER BY id DESC
`

// ListAll returns every operation of the account, newest first.
func (r *RepoPGS) ListAll(ctx context.Context, accountID string) ([]domain.Operation, error) {
	return r.list(ctx, listAllQuery, accountID)
}

func (r *RepoPGS) list(ctx context.Context, query string, args ...any) ([]domain.Operation, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Operation{}

	for rows.Next() {
		var o domain.Operation
		if err := rows.Scan(
			&o.ID,
			&o.AccountID,
			&o.Type,
			&o.Amount,
			&o.Description,
			&o.CreatedAt,
		); err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, o)
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
