package historyservice

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/go-petr/ledger-bank/internal/domain"
	"github.com/go-petr/ledger-bank/internal/memledger"
)

func readWith(rd domain.LedgerReader) func(context.Context, func(domain.LedgerReader) error) error {
	return func(_ context.Context, fn func(domain.LedgerReader) error) error {
		return fn(rd)
	}
}

func TestGetHistory(t *testing.T) {
	t.Parallel()

	account := domain.NewSavingsAccount("acc-1", 1, decimal.NewFromInt(42), decimal.Zero)
	ops := []domain.Operation{
		{ID: 3, AccountID: account.ID, Type: domain.Credit, Amount: decimal.NewFromInt(2)},
		{ID: 2, AccountID: account.ID, Type: domain.Credit, Amount: decimal.NewFromInt(1)},
	}

	type input struct {
		page int
		size int
	}

	testCases := []struct {
		name       string
		input      input
		buildStubs func(repo *MockRepo, rd *domain.MockLedgerReader)
		want       domain.AccountHistory
		wantErr    error
	}{
		{
			name:  "FirstPage",
			input: input{page: 0, size: 2},
			buildStubs: func(repo *MockRepo, rd *domain.MockLedgerReader) {
				repo.EXPECT().ReadTx(gomock.Any(), gomock.Any()).Times(1).DoAndReturn(readWith(rd))
				rd.EXPECT().GetAccount(gomock.Any(), account.ID).Times(1).Return(account, nil)
				rd.EXPECT().CountOperations(gomock.Any(), account.ID).Times(1).Return(5, nil)
				rd.EXPECT().ListOperations(gomock.Any(), account.ID, 2, 0).Times(1).Return(ops, nil)
			},
			want: domain.AccountHistory{
				AccountID:      account.ID,
				CurrentBalance: account.Balance,
				Operations:     ops,
				Page:           0,
				PageSize:       2,
				TotalPages:     3,
			},
		},
		{
			name:  "LastPartialPage",
			input: input{page: 2, size: 2},
			buildStubs: func(repo *MockRepo, rd *domain.MockLedgerReader) {
				repo.EXPECT().ReadTx(gomock.Any(), gomock.Any()).Times(1).DoAndReturn(readWith(rd))
				rd.EXPECT().GetAccount(gomock.Any(), account.ID).Times(1).Return(account, nil)
				rd.EXPECT().CountOperations(gomock.Any(), account.ID).Times(1).Return(5, nil)
				rd.EXPECT().ListOperations(gomock.Any(), account.ID, 2, 4).Times(1).Return(ops[1:], nil)
			},
			want: domain.AccountHistory{
				AccountID:      account.ID,
				CurrentBalance: account.Balance,
				Operations:     ops[1:],
				Page:           2,
				PageSize:       2,
				TotalPages:     3,
			},
		},
		{
			name:  "BeyondLastPage",
			input: input{page: 9, size: 2},
			buildStubs: func(repo *MockRepo, rd *domain.MockLedgerReader) {
				repo.EXPECT().ReadTx(gomock.Any(), gomock.Any()).Times(1).DoAndReturn(readWith(rd))
				rd.EXPECT().GetAccount(gomock.Any(), account.ID).Times(1).Return(account, nil)
				rd.EXPECT().CountOperations(gomock.Any(), account.ID).Times(1).Return(5, nil)
				rd.EXPECT().ListOperations(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			want: domain.AccountHistory{
				AccountID:      account.ID,
				CurrentBalance: account.Balance,
				Operations:     []domain.Operation{},
				Page:           9,
				PageSize:       2,
				TotalPages:     3,
			},
		},
		{
			name:  "NoOperations",
			input: input{page: 0, size: 10},
			buildStubs: func(repo *MockRepo, rd *domain.MockLedgerReader) {
				repo.EXPECT().ReadTx(gomock.Any(), gomock.Any()).Times(1).DoAndReturn(readWith(rd))
				rd.EXPECT().GetAccount(gomock.Any(), account.ID).Times(1).Return(account, nil)
				rd.EXPECT().CountOperations(gomock.Any(), account.ID).Times(1).Return(0, nil)
			},
			want: domain.AccountHistory{
				AccountID:      account.ID,
				CurrentBalance: account.Balance,
				Operations:     []domain.Operation{},
				Page:           0,
				PageSize:       10,
				TotalPages:     0,
			},
		},
		{
			name:  "AccountNotFound",
			input: input{page: 0, size: 10},
			buildStubs: func(repo *MockRepo, rd *domain.MockLedgerReader) {
				repo.EXPECT().ReadTx(gomock.Any(), gomock.Any()).Times(1).DoAndReturn(readWith(rd))
				rd.EXPECT().GetAccount(gomock.Any(), account.ID).Times(1).Return(domain.Account{}, domain.ErrAccountNotFound)
				rd.EXPECT().CountOperations(gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr: domain.ErrAccountNotFound,
		},
		{
			name:  "NegativePage",
			input: input{page: -1, size: 10},
			buildStubs: func(repo *MockRepo, rd *domain.MockLedgerReader) {
				repo.EXPECT().ReadTx(gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr: domain.ErrInvalidPage,
		},
		{
			name:  "ZeroSize",
			input: input{page: 0, size: 0},
			buildStubs: func(repo *MockRepo, rd *domain.MockLedgerReader) {
				repo.EXPECT().ReadTx(gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr: domain.ErrInvalidPage,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			repo := NewMockRepo(ctrl)
			rd := domain.NewMockLedgerReader(ctrl)
			tc.buildStubs(repo, rd)

			s := New(repo)

			got, err := s.GetHistory(context.Background(), account.ID, tc.input.page, tc.input.size)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				require.Empty(t, got)

				return
			}

			require.NoError(t, err)

			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("GetHistory returned unexpected difference (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTotalPages(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		count, size, want int
	}{
		{count: 0, size: 10, want: 0},
		{count: 1, size: 10, want: 1},
		{count: 10, size: 10, want: 1},
		{count: 11, size: 10, want: 2},
		{count: 25, size: 1, want: 25},
	}

	for _, tc := range testCases {
		require.Equal(t, tc.want, totalPages(tc.count, tc.size), "totalPages(%d, %d)", tc.count, tc.size)
	}
}

func seedStore(t *testing.T, n int) *memledger.Store {
	t.Helper()

	store := memledger.New(time.Second)
	store.Put(domain.NewSavingsAccount("acc", 1, decimal.Zero, decimal.Zero))

	ctx := context.Background()

	for i := 1; i <= n; i++ {
		amount := decimal.NewFromInt(int64(i))

		err := store.ExecTx(ctx, func(tx domain.LedgerTx) error {
			_, err := tx.AppendOperation(ctx, domain.CreateOperationParams{
				AccountID: "acc",
				Type:      domain.Credit,
				Amount:    amount,
			})
			return err
		})
		require.NoError(t, err)
	}

	return store
}

func TestPagesConcatenateToFullHistory(t *testing.T) {
	t.Parallel()

	const count = 23

	store := seedStore(t, count)
	s := New(store)
	ctx := context.Background()

	full, err := s.GetFullHistory(ctx, "acc")
	require.NoError(t, err)
	require.Len(t, full, count)

	for i := 1; i < len(full); i++ {
		require.Greater(t, full[i-1].ID, full[i].ID, "full history must be newest first")
	}

	for _, size := range []int{1, 4, 10, 23, 50} {
		first, err := s.GetHistory(ctx, "acc", 0, size)
		require.NoError(t, err)
		require.Equal(t, (count+size-1)/size, first.TotalPages)

		var joined []domain.Operation

		for page := 0; page < first.TotalPages; page++ {
			h, err := s.GetHistory(ctx, "acc", page, size)
			require.NoError(t, err)
			require.LessOrEqual(t, len(h.Operations), size)

			joined = append(joined, h.Operations...)
		}

		if diff := cmp.Diff(full, joined); diff != "" {
			t.Errorf("size %d: pages do not concatenate to full history (-want +got):\n%s", size, diff)
		}

		beyond, err := s.GetHistory(ctx, "acc", first.TotalPages, size)
		require.NoError(t, err)
		require.Empty(t, beyond.Operations)
	}
}

func TestGetFullHistoryNotFound(t *testing.T) {
	t.Parallel()

	s := New(memledger.New(time.Second))

	_, err := s.GetFullHistory(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}
