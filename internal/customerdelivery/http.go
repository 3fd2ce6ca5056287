// Package customerdelivery manages delivery layer of customers.
package customerdelivery

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/go-petr/ledger-bank/internal/domain"
	"github.com/go-petr/ledger-bank/pkg/web"
)

// Service provides service layer interface needed by customer delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package customerdelivery
type Service interface {
	Create(ctx context.Context, arg domain.CustomerParams) (domain.Customer, error)
	Get(ctx context.Context, id int64) (domain.Customer, error)
	Update(ctx context.Context, id int64, arg domain.CustomerParams) (domain.Customer, error)
	Delete(ctx context.Context, id int64) error
	ListAccounts(ctx context.Context, id int64) ([]domain.Account, error)
}

// Handler facilitates customer delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns customer handler.
func NewHandler(cs Service) Handler {
	return Handler{service: cs}
}

type data struct {
	Customer domain.Customer `json:"customer"`
}

type dataAccounts struct {
	Accounts []domain.Account `json:"accounts"`
}

type customerRequest struct {
	Name  string `json:"name" binding:"required,max=255"`
	Email string `json:"email" binding:"required,email"`
}

type uriRequest struct {
	ID int64 `uri:"id" binding:"required,min=1"`
}

func (h *Handler) fail(gctx *gin.Context, err error) {
	code, res := web.FailureResponse(err)
	gctx.JSON(code, res)
}

func bindURI(gctx *gin.Context) (int64, bool) {
	var req uriRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindErrorMsg(err)})

		return 0, false
	}

	return req.ID, true
}

// Create handles http request to create customer.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req customerRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindErrorMsg(err)})

		return
	}

	c, err := h.service.Create(ctx, domain.CustomerParams{Name: req.Name, Email: req.Email})
	if err != nil {
		h.fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusCreated, web.Response{Data: data{c}})
}

// Get handles http request to get customer.
func (h *Handler) Get(gctx *gin.Context) {
	id, ok := bindURI(gctx)
	if !ok {
		return
	}

	c, err := h.service.Get(gctx.Request.Context(), id)
	if err != nil {
		h.fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: data{c}})
}

// Update handles http request to update customer.
func (h *Handler) Update(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	id, ok := bindURI(gctx)
	if !ok {
		return
	}

	var req customerRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindErrorMsg(err)})

		return
	}

	c, err := h.service.Update(ctx, id, domain.CustomerParams{Name: req.Name, Email: req.Email})
	if err != nil {
		h.fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: data{c}})
}

// Delete handles http request to delete customer.
func (h *Handler) Delete(gctx *gin.Context) {
	id, ok := bindURI(gctx)
	if !ok {
		return
	}

	if err := h.service.Delete(gctx.Request.Context(), id); err != nil {
		h.fail(gctx, err)
		return
	}

	gctx.Status(http.StatusNoContent)
}

// ListAccounts handles http request to list the accounts owned by customer.
func (h *Handler) ListAccounts(gctx *gin.Context) {
	id, ok := bindURI(gctx)
	if !ok {
		return
	}

	accounts, err := h.service.ListAccounts(gctx.Request.Context(), id)
	if err != nil {
		h.fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: dataAccounts{accounts}})
}
