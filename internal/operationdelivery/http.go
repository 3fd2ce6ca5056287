// Package operationdelivery manages delivery layer of balance operations and account history.
package operationdelivery

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/ledger-bank/internal/domain"
	"github.com/go-petr/ledger-bank/pkg/moneypkg"
	"github.com/go-petr/ledger-bank/pkg/web"
)

// Service provides the balance mutation interface needed by operation delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package operationdelivery
type Service interface {
	Credit(ctx context.Context, accountID string, amount decimal.Decimal, description string) (domain.Operation, error)
	Debit(ctx context.Context, accountID string, amount decimal.Decimal, description string) (domain.Operation, error)
	Transfer(ctx context.Context, arg domain.TransferParams) (domain.TransferResult, error)
}

// HistoryService provides the history interface needed by operation delivery layer.
type HistoryService interface {
	GetHistory(ctx context.Context, accountID string, page, size int) (domain.AccountHistory, error)
	GetFullHistory(ctx context.Context, accountID string) ([]domain.Operation, error)
}

// Handler facilitates operation delivery layer logic.
type Handler struct {
	service Service
	history HistoryService
}

// NewHandler returns operation handler.
func NewHandler(s Service, hs HistoryService) Handler {
	return Handler{
		service: s,
		history: hs,
	}
}

type dataOperation struct {
	Operation domain.Operation `json:"operation"`
}

type dataTransfer struct {
	Transfer domain.TransferResult `json:"transfer"`
}

type dataOperations struct {
	Operations []domain.Operation `json:"operations"`
}

func fail(gctx *gin.Context, err error) {
	code, res := web.FailureResponse(err)
	gctx.JSON(code, res)
}

type mutationRequest struct {
	AccountID   string `json:"account_id" binding:"required"`
	Amount      string `json:"amount" binding:"required,amount"`
	Description string `json:"description" binding:"max=255"`
}

type mutateFunc func(ctx context.Context, accountID string, amount decimal.Decimal, description string) (domain.Operation, error)

func (h *Handler) mutate(gctx *gin.Context, fn mutateFunc) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req mutationRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindErrorMsg(err)})

		return
	}

	amount, err := moneypkg.ParseAmount(req.Amount)
	if err != nil {
		gctx.JSON(http.StatusBadRequest, web.Error(err))
		return
	}

	op, err := fn(ctx, req.AccountID, amount, req.Description)
	if err != nil {
		fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusCreated, web.Response{Data: dataOperation{op}})
}

// Credit handles http request to credit an account.
func (h *Handler) Credit(gctx *gin.Context) {
	h.mutate(gctx, h.service.Credit)
}

// Debit handles http request to debit an account.
func (h *Handler) Debit(gctx *gin.Context) {
	h.mutate(gctx, h.service.Debit)
}

type transferRequest struct {
	FromAccountID string `json:"from_account_id" binding:"required"`
	ToAccountID   string `json:"to_account_id" binding:"required"`
	Amount        string `json:"amount" binding:"required,amount"`
}

// Transfer handles http request to move money between two accounts.
func (h *Handler) Transfer(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req transferRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindErrorMsg(err)})

		return
	}

	amount, err := moneypkg.ParseAmount(req.Amount)
	if err != nil {
		gctx.JSON(http.StatusBadRequest, web.Error(err))
		return
	}

	result, err := h.service.Transfer(ctx, domain.TransferParams{
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        amount,
	})
	if err != nil {
		fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusCreated, web.Response{Data: dataTransfer{result}})
}

type accountURI struct {
	ID string `uri:"id" binding:"required"`
}

type historyQuery struct {
	Page int `form:"page,default=0"`
	Size int `form:"size,default=10" binding:"max=1000"`
}

// History handles http request to read one page of account operations.
func (h *Handler) History(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var uri accountURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindErrorMsg(err)})

		return
	}

	var q historyQuery
	if err := gctx.ShouldBindQuery(&q); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindErrorMsg(err)})

		return
	}

	history, err := h.history.GetHistory(ctx, uri.ID, q.Page, q.Size)
	if err != nil {
		fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: history})
}

// FullHistory handles http request to read every operation of an account.
func (h *Handler) FullHistory(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var uri accountURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindErrorMsg(err)})

		return
	}

	ops, err := h.history.GetFullHistory(ctx, uri.ID)
	if err != nil {
		fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: dataOperations{ops}})
}
