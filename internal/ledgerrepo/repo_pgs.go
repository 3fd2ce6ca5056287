// Package ledgerrepo runs ledger transactions against Postgres.
package ledgerrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/go-petr/ledger-bank/internal/accountrepo"
	"github.com/go-petr/ledger-bank/internal/domain"
	"github.com/go-petr/ledger-bank/internal/operationrepo"
	"github.com/go-petr/ledger-bank/pkg/dbpkg"
)

// RepoPGS facilitates ledger transactions.
type RepoPGS struct {
	conn        *sql.DB
	lockTimeout time.Duration
}

// NewRepoPGS returns ledger RepoPGS.
//
// Row lock waits inside a transaction are bounded by lockTimeout; zero disables the bound.
func NewRepoPGS(conn *sql.DB, lockTimeout time.Duration) *RepoPGS {
	return &RepoPGS{
		conn:        conn,
		lockTimeout: lockTimeout,
	}
}

type ledgerTx struct {
	accounts   *accountrepo.RepoPGS
	operations *operationrepo.RepoPGS
}

func (t ledgerTx) GetAccountForUpdate(ctx context.Context, id string) (domain.Account, error) {
	return t.accounts.GetForUpdate(ctx, id)
}

func (t ledgerTx) SaveAccount(ctx context.Context, a domain.Account) (domain.Account, error) {
	return t.accounts.Save(ctx, a)
}

func (t ledgerTx) AppendOperation(ctx context.Context, arg domain.CreateOperationParams) (domain.Operation, error) {
	return t.operations.Create(ctx, arg)
}

const setLockTimeoutQuery = `SELECT set_config('lock_timeout', $1, true)`

// ExecTx runs fn inside a single database transaction.
//
// The transaction is committed only when fn returns nil. Driver failures are
// translated to domain errors so callers can decide whether to retry.
func (r *RepoPGS) ExecTx(ctx context.Context, fn func(tx domain.LedgerTx) error) error {
	l := zerolog.Ctx(ctx)

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return dbpkg.MapTxError(err)
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			l.Error().Err(err).Send()
		}
	}()

	if r.lockTimeout > 0 {
		timeout := fmt.Sprintf("%dms", r.lockTimeout.Milliseconds())
		if _, err := tx.ExecContext(ctx, setLockTimeoutQuery, timeout); err != nil {
			l.Error().Err(err).Send()
			return dbpkg.MapTxError(err)
		}
	}

	ltx := ledgerTx{
		accounts:   accountrepo.NewRepoPGS(tx),
		operations: operationrepo.NewRepoPGS(tx),
	}

	if err := fn(ltx); err != nil {
		return dbpkg.MapTxError(err)
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return dbpkg.MapTxError(err)
	}

	return nil
}

type ledgerReader struct {
	accounts   *accountrepo.RepoPGS
	operations *operationrepo.RepoPGS
}

func (r ledgerReader) GetAccount(ctx context.Context, id string) (domain.Account, error) {
	return r.accounts.Get(ctx, id)
}

func (r ledgerReader) CountOperations(ctx context.Context, accountID string) (int, error) {
	return r.operations.Count(ctx, accountID)
}

func (r ledgerReader) ListOperations(ctx context.Context, accountID string, limit, offset int) ([]domain.Operation, error) {
	return r.operations.List(ctx, accountID, limit, offset)
}

func (r ledgerReader) ListAllOperations(ctx context.Context, accountID string) ([]domain.Operation, error) {
	return r.operations.ListAll(ctx, accountID)
}

// ReadTx runs fn inside a read-only repeatable read transaction so that
// every read observes the same committed snapshot.
func (r *RepoPGS) ReadTx(ctx context.Context, fn func(rd domain.LedgerReader) error) error {
	l := zerolog.Ctx(ctx)

	tx, err := r.conn.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		l.Error().Err(err).Send()
		return dbpkg.MapTxError(err)
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			l.Error().Err(err).Send()
		}
	}()

	rd := ledgerReader{
		accounts:   accountrepo.NewRepoPGS(tx),
		operations: operationrepo.NewRepoPGS(tx),
	}

	if err := fn(rd); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return dbpkg.MapTxError(err)
	}

	return nil
}
