package domain

import (
	"context"
	"errors"
)

var (
	// ErrInvalidAmount indicates a non-positive or malformed amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrSameAccount indicates a transfer whose source and destination are the same account.
	ErrSameAccount = errors.New("source and destination accounts are the same")
	// ErrInsufficientFunds indicates that the mutation would breach the account balance floor.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrContention indicates that the account lock or transaction could not be acquired in time.
	ErrContention = errors.New("account is busy, try again later")
	// ErrConflict indicates a concurrent modification detected by the optimistic check.
	ErrConflict = errors.New("concurrent modification")
	// ErrCanceled indicates that the caller gave up before the request completed.
	ErrCanceled = errors.New("request canceled")
)

// ErrorKind groups errors into the failure classes visible to API callers.
type ErrorKind int

// Failure classes.
const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindInvalid
	KindInsufficientFunds
	KindContention
	KindConflict
	KindUnauthorized
	KindForbidden
	KindCanceled
)

// kinds is searched in order, so an error wrapping several sentinels gets the
// kind of the first one listed.
var kinds = []struct {
	target error
	kind   ErrorKind
}{
	{ErrAccountNotFound, KindNotFound},
	{ErrCustomerNotFound, KindNotFound},
	{ErrUserNotFound, KindNotFound},
	{ErrInvalidAmount, KindInvalid},
	{ErrSameAccount, KindInvalid},
	{ErrInvalidPage, KindInvalid},
	{ErrInvalidAccountType, KindInvalid},
	{ErrInvalidStatus, KindInvalid},
	{ErrInsufficientFunds, KindInsufficientFunds},
	{ErrContention, KindContention},
	{ErrConflict, KindConflict},
	{ErrAccountNotActive, KindConflict},
	{ErrCustomerHasAccounts, KindConflict},
	{ErrEmailAlreadyExists, KindConflict},
	{ErrUsernameAlreadyExists, KindConflict},
	{ErrWrongPassword, KindUnauthorized},
	{ErrBlockedSession, KindUnauthorized},
	{ErrExpiredSession, KindUnauthorized},
	{ErrMismatchedRefreshToken, KindUnauthorized},
	{ErrInvalidUser, KindUnauthorized},
	{ErrSessionNotFound, KindUnauthorized},
	{ErrForbidden, KindForbidden},
	{ErrCanceled, KindCanceled},
	{context.DeadlineExceeded, KindContention},
	{context.Canceled, KindCanceled},
}

// Kind returns the failure class of err.
func Kind(err error) ErrorKind {
	for _, k := range kinds {
		if errors.Is(err, k.target) {
			return k.kind
		}
	}

	return KindInternal
}

// Retryable reports whether err is transient and the whole operation may be attempted again.
func Retryable(err error) bool {
	return errors.Is(err, ErrContention) || errors.Is(err, ErrConflict)
}
