package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidPage indicates a negative page index or a non-positive page size.
var ErrInvalidPage = errors.New("invalid page")

// OperationType is the direction of a balance mutation.
type OperationType string

// Operation types.
const (
	Credit OperationType = "CREDIT"
	Debit  OperationType = "DEBIT"
)

// Operation is the immutable ledger record of one balance mutation.
type Operation struct {
	ID          int64           `json:"id"`
	AccountID   string          `json:"account_id"`
	Type        OperationType   `json:"type"`
	Amount      decimal.Decimal `json:"amount"` // always positive
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CreateOperationParams is the input data to append an operation to the ledger.
type CreateOperationParams struct {
	AccountID   string
	Type        OperationType
	Amount      decimal.Decimal
	Description string
}

// TransferParams is the input data for a transfer between two accounts.
type TransferParams struct {
	FromAccountID string          `json:"from_account_id"`
	ToAccountID   string          `json:"to_account_id"`
	Amount        decimal.Decimal `json:"amount"`
}

// TransferResult is the result of the transfer transaction.
type TransferResult struct {
	DebitOperation  Operation `json:"debit_operation"`
	CreditOperation Operation `json:"credit_operation"`
	FromAccount     Account   `json:"from_account"`
	ToAccount       Account   `json:"to_account"`
}

// AccountHistory is one page of an account's operations, newest first.
type AccountHistory struct {
	AccountID      string          `json:"account_id"`
	CurrentBalance decimal.Decimal `json:"balance"`
	Operations     []Operation     `json:"operations"`
	Page           int             `json:"page"`
	PageSize       int             `json:"page_size"`
	TotalPages     int             `json:"total_pages"`
}

// LedgerTx is the set of ledger store calls available inside one transaction.
//
// Accounts read through GetAccountForUpdate stay locked until the transaction ends.
//
//go:generate mockgen -source operation.go -destination operation_mock.go -package domain
type LedgerTx interface {
	GetAccountForUpdate(ctx context.Context, id string) (Account, error)
	SaveAccount(ctx context.Context, a Account) (Account, error)
	AppendOperation(ctx context.Context, arg CreateOperationParams) (Operation, error)
}

// LedgerReader is the set of ledger store calls available inside one read-only snapshot.
type LedgerReader interface {
	GetAccount(ctx context.Context, id string) (Account, error)
	CountOperations(ctx context.Context, accountID string) (int, error)
	ListOperations(ctx context.Context, accountID string, limit, offset int) ([]Operation, error)
	ListAllOperations(ctx context.Context, accountID string) ([]Operation, error)
}
