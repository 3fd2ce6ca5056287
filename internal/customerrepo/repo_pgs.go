// Package customerrepo manages repository layer of customers.
package customerrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/go-petr/ledger-bank/internal/domain"
	"github.com/go-petr/ledger-bank/pkg/dbpkg"
	"github.com/go-petr/ledger-bank/pkg/errorspkg"
)

// RepoPGS facilitates customer repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns customer RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

func constraintErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Constraint {
		case "customers_email_key":
			return domain.ErrEmailAlreadyExists
		case "accounts_customer_id_fkey":
			return domain.ErrCustomerHasAccounts
		}
	}

	return errorspkg.ErrInternal
}

const createQuery = `
INSERT INTO
    customers (name, email)
VALUES
    ($1, $2)
RETURNING id, name, email, created_at
`

// Create inserts the customer and then returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CustomerParams) (domain.Customer, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery, arg.Name, arg.Email)

	var c domain.Customer
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.CreatedAt); err != nil {
		l.Error().Err(err).Msgf("Create(ctx context.Context, %+v)", arg)
		return domain.Customer{}, constraintErr(err)
	}

	return c, nil
}

const getQuery = `
SELECT id, name, email, created_at
FROM customers
WHERE id = $1
`

// Get returns the customer with the given id.
func (r *RepoPGS) Get(ctx context.Context, id int64) (domain.Customer, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, getQuery, id)

	var c domain.Customer
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Customer{}, domain.ErrCustomerNotFound
		}

		l.Error().Err(err).Send()

		return domain.Customer{}, errorspkg.ErrInternal
	}

	return c, nil
}

const updateQuery = `
UPDATE customers
SET name = $1, email = $2
WHERE id = $3
RETURNING id, name, email, created_at
`

// Update replaces the customer name and email and returns the changed customer.
func (r *RepoPGS) Update(ctx context.Context, id int64, arg domain.CustomerParams) (domain.Customer, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, updateQuery, arg.Name, arg.Email, id)

	var c domain.Customer
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Customer{}, domain.ErrCustomerNotFound
		}

		l.Error().Err(err).Send()

		return domain.Customer{}, constraintErr(err)
	}

	return c, nil
}

const deleteQuery = `
DELETE FROM customers
WHERE id = $1
`

// Delete removes the customer. Customers that still own accounts are kept.
func (r *RepoPGS) Delete(ctx context.Context, id int64) error {
	l := zerolog.Ctx(ctx)

	res, err := r.db.ExecContext(ctx, deleteQuery, id)
	if err != nil {
		l.Info().Err(err).Send()
		return constraintErr(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	if n == 0 {
		return domain.ErrCustomerNotFound
	}

	return nil
}
