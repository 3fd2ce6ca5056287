// Package accountdelivery manages delivery layer of accounts.
package accountdelivery

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

// Service provides service layer interface needed by account delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package accountdelivery
type Service interface {
	Create(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error)
	Get(ctx context.Context, id string) (domain.Account, error)
	UpdateStatus(ctx context.Context, id string, status domain.AccountStatus) (domain.Account, error)
}

// Handler facilitates account delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns account handler.
func NewHandler(as Service) Handler {
	return Handler{service: as}
}

type data struct {
	Account domain.Account `json:"account"`
}

type createCurrentRequest struct {
	CustomerID     int64  `json:"customer_id" binding:"required,min=1"`
	InitialBalance string `json:"initial_balance"`
	OverdraftLimit string `json:"overdraft_limit" binding:"omitempty,rate"`
}

type createSavingsRequest struct {
	CustomerID     int64  `json:"customer_id" binding:"required,min=1"`
	InitialBalance string `json:"initial_balance"`
	InterestRate   string `json:"interest_rate" binding:"omitempty,rate"`
}

func parseOrZero(s string, parse func(string) (decimal.Decimal, error)) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}

	return parse(s)
}

func (h *Handler) create(gctx *gin.Context, arg domain.CreateAccountParams) {
	a, err := h.service.Create(gctx.Request.Context(), arg)
	if err != nil {
		code, res := web.FailureResponse(err)
		gctx.JSON(code, res)

		return
	}

	gctx.JSON(http.StatusCreated, web.Response{Data: data{a}})
}

// CreateCurrent handles http request to open a current account.
func (h *Handler) CreateCurrent(gctx *gin.Context) {
	l := zerolog.Ctx(gctx.Request.Context())

	var req createCurrentRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindErrorMsg(err)})

		return
	}

	balance, err := parseOrZero(req.InitialBalance, moneypkg.ParseSigned)
	if err != nil {
		gctx.JSON(http.StatusBadRequest, web.Error(err))
		return
	}

	overdraft, err := parseOrZero(req.OverdraftLimit, moneypkg.ParseNonNegative)
	if err != nil {
		gctx.JSON(http.StatusBadRequest, web.Error(err))
		return
	}

	h.create(gctx, domain.CreateAccountParams{
		CustomerID:     req.CustomerID,
		Type:           domain.CurrentAccount,
		InitialBalance: balance,
		OverdraftLimit: overdraft,
	})
}

// CreateSavings handles http request to open a savings account.
func (h *Handler) CreateSavings(gctx *gin.Context) {
	l := zerolog.Ctx(gctx.Request.Context())

	var req createSavingsRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindErrorMsg(err)})

		return
	}

	balance, err := parseOrZero(req.InitialBalance, moneypkg.ParseSigned)
	if err != nil {
		gctx.JSON(http.StatusBadRequest, web.Error(err))
		return
	}

	rate, err := parseOrZero(req.InterestRate, moneypkg.ParseNonNegative)
	if err != nil {
		gctx.JSON(http.StatusBadRequest, web.Error(err))
		return
	}

	h.create(gctx, domain.CreateAccountParams{
		CustomerID:     req.CustomerID,
		Type:           domain.SavingsAccount,
		InitialBalance: balance,
		InterestRate:   rate,
	})
}

type getRequest struct {
	ID string `uri:"id" binding:"required"`
}

// Get handles http request to get account.
func (h *Handler) Get(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req getRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindErrorMsg(err)})

		return
	}

	a, err := h.service.Get(ctx, req.ID)
	if err != nil {
		code, res := web.FailureResponse(err)
		gctx.JSON(code, res)

		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: data{a}})
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required,account_status"`
}

// UpdateStatus handles http request to change account status.
func (h *Handler) UpdateStatus(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var uri getRequest
	if err := gctx.ShouldBindUri(&uri); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindErrorMsg(err)})

		return
	}

	var req updateStatusRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindErrorMsg(err)})

		return
	}

	a, err := h.service.UpdateStatus(ctx, uri.ID, domain.AccountStatus(req.Status))
	if err != nil {
		code, res := web.FailureResponse(err)
		gctx.JSON(code, res)

		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: data{a}})
}
