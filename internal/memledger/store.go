// Package memledger provides an in-process ledger store.
//
// Each account has its own lock with a bounded wait. Writes made inside a
// transaction are staged and become visible only on commit.
package memledger

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/go-petr/ledger-bank/internal/domain"
)

// Store keeps accounts and their operations in memory.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]domain.Account
	history  map[string][]domain.Operation // oldest first

	locksMu sync.Mutex
	locks   map[string]chan struct{}

	nextOperationID int64
	lockTimeout     time.Duration
}

// New returns an empty Store. Lock waits are bounded by lockTimeout; zero waits
// only as long as the context allows.
func New(lockTimeout time.Duration) *Store {
	return &Store{
		accounts:    make(map[string]domain.Account),
		history:     make(map[string][]domain.Operation),
		locks:       make(map[string]chan struct{}),
		lockTimeout: lockTimeout,
	}
}

// Put stores a copy of the account, replacing any previous one with the same id.
func (s *Store) Put(a domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	s.accounts[a.ID] = a
}

// Get returns the committed account with the given id.
func (s *Store) Get(id string) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	return a, nil
}

// Operations returns a copy of every committed operation of the account, oldest first.
func (s *Store) Operations(accountID string) []domain.Operation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Operation, len(s.history[accountID]))
	copy(out, s.history[accountID])

	return out
}

func (s *Store) lockFor(id string) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	ch, ok := s.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[id] = ch
	}

	return ch
}

func (s *Store) acquire(ctx context.Context, id string) error {
	ch := s.lockFor(id)

	var timeout <-chan time.Time

	if s.lockTimeout > 0 {
		t := time.NewTimer(s.lockTimeout)
		defer t.Stop()

		timeout = t.C
	}

	select {
	case ch <- struct{}{}:
		return nil
	case <-timeout:
		return domain.ErrContention
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release(id string) {
	<-s.lockFor(id)
}

type tx struct {
	store    *Store
	held     map[string]bool
	order    []string
	staged   map[string]domain.Account
	appended []domain.Operation
}

func (t *tx) GetAccountForUpdate(ctx context.Context, id string) (domain.Account, error) {
	if !t.held[id] {
		// Accounts are never removed, so locks are only made for ids that exist.
		if _, err := t.store.Get(id); err != nil {
			return domain.Account{}, err
		}

		if err := t.store.acquire(ctx, id); err != nil {
			return domain.Account{}, err
		}

		t.held[id] = true
		t.order = append(t.order, id)
	}

	if a, ok := t.staged[id]; ok {
		return a, nil
	}

	return t.store.Get(id)
}

func (t *tx) SaveAccount(_ context.Context, a domain.Account) (domain.Account, error) {
	if !t.held[a.ID] {
		return domain.Account{}, domain.ErrConflict
	}

	current, ok := t.staged[a.ID]
	if !ok {
		var err error
		if current, err = t.store.Get(a.ID); err != nil {
			return domain.Account{}, err
		}
	}

	if current.Version != a.Version {
		return domain.Account{}, domain.ErrConflict
	}

	floor, err := a.Floor()
	if err != nil {
		return domain.Account{}, err
	}

	if a.Balance.LessThan(floor) {
		return domain.Account{}, domain.ErrInsufficientFunds
	}

	current.Balance = a.Balance
	current.Version++
	t.staged[a.ID] = current

	return current, nil
}

func (t *tx) AppendOperation(_ context.Context, arg domain.CreateOperationParams) (domain.Operation, error) {
	if _, ok := t.staged[arg.AccountID]; !ok {
		if _, err := t.store.Get(arg.AccountID); err != nil {
			return domain.Operation{}, err
		}
	}

	if !arg.Amount.IsPositive() {
		return domain.Operation{}, domain.ErrInvalidAmount
	}

	o := domain.Operation{
		ID:          atomic.AddInt64(&t.store.nextOperationID, 1),
		AccountID:   arg.AccountID,
		Type:        arg.Type,
		Amount:      arg.Amount,
		Description: arg.Description,
		CreatedAt:   time.Now().UTC(),
	}
	t.appended = append(t.appended, o)

	return o, nil
}

// ExecTx runs fn with exclusive access to every account it reads for update.
//
// Staged changes are committed only when fn returns nil and ctx is still alive.
func (s *Store) ExecTx(ctx context.Context, fn func(tx domain.LedgerTx) error) error {
	t := &tx{
		store:  s,
		held:   make(map[string]bool),
		staged: make(map[string]domain.Account),
	}

	defer func() {
		for _, id := range t.order {
			s.release(id)
		}
	}()

	if err := fn(t); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("ledger transaction abandoned before commit")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, a := range t.staged {
		s.accounts[id] = a
	}

	for _, o := range t.appended {
		s.history[o.AccountID] = append(s.history[o.AccountID], o)
	}

	return nil
}

type reader struct {
	store *Store
}

func (r reader) GetAccount(_ context.Context, id string) (domain.Account, error) {
	a, ok := r.store.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	return a, nil
}

func (r reader) CountOperations(_ context.Context, accountID string) (int, error) {
	return len(r.store.history[accountID]), nil
}

func (r reader) ListOperations(_ context.Context, accountID string, limit, offset int) ([]domain.Operation, error) {
	ops := r.store.history[accountID]
	items := []domain.Operation{}

	for i := len(ops) - 1 - offset; i >= 0 && len(items) < limit; i-- {
		items = append(items, ops[i])
	}

	return items, nil
}

func (r reader) ListAllOperations(ctx context.Context, accountID string) ([]domain.Operation, error) {
	return r.ListOperations(ctx, accountID, len(r.store.history[accountID]), 0)
}

// ReadTx runs fn against a consistent view of committed state.
func (s *Store) ReadTx(_ context.Context, fn func(rd domain.LedgerReader) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(reader{store: s})
}
