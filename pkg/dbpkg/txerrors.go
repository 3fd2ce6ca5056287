package dbpkg

import (
	"context"
	"errors"

	"github.com/lib/pq"

	"github.com/go-petr/ledger-bank/internal/domain"
	"github.com/go-petr/ledger-bank/pkg/errorspkg"
)

// Postgres error codes that mark a transaction as safe to retry.
const (
	codeLockNotAvailable     = "55P03"
	codeDeadlockDetected     = "40P01"
	codeSerializationFailure = "40001"
	codeQueryCanceled        = "57014"
)

// MapTxError translates driver errors raised inside a ledger transaction
// into domain errors. Domain errors pass through unchanged.
func MapTxError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrContention
	}

	if errors.Is(err, context.Canceled) {
		return domain.ErrCanceled
	}

	if domain.Kind(err) != domain.KindInternal {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeLockNotAvailable, codeDeadlockDetected, codeQueryCanceled:
			return domain.ErrContention
		case codeSerializationFailure:
			return domain.ErrConflict
		}
	}

	return errorspkg.ErrInternal
}
