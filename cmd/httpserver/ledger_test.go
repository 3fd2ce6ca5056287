//go:build integration

package httpserver_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/go-petr/ledger-bank/cmd/httpserver"
	"github.com/go-petr/ledger-bank/internal/domain"
	"github.com/go-petr/ledger-bank/internal/integrationtest"
	"github.com/go-petr/ledger-bank/pkg/web"
)

func send(t *testing.T, server *httpserver.Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)

	return recorder
}

func decode(t *testing.T, recorder *httptest.ResponseRecorder, data any) web.Response {
	t.Helper()

	res := web.Response{Data: data}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&res))

	return res
}

func login(t *testing.T, server *httpserver.Server, username, password string) string {
	t.Helper()

	recorder := send(t, server, http.MethodPost, "/users/login", "", gin.H{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	return decode(t, recorder, nil).AccessToken
}

func seedCustomerWithAccounts(t *testing.T, server *httpserver.Server, admin string) (domain.Account, domain.Account) {
	t.Helper()

	var customer struct {
		Customer domain.Customer `json:"customer"`
	}

	recorder := send(t, server, http.MethodPost, "/customers", admin, gin.H{
		"name":  "Ada Lovelace",
		"email": "ada@example.com",
	})
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
	decode(t, recorder, &customer)

	var current, savings struct {
		Account domain.Account `json:"account"`
	}

	recorder = send(t, server, http.MethodPost, "/accounts/current", admin, gin.H{
		"customer_id":     customer.Customer.ID,
		"initial_balance": "100",
		"overdraft_limit": "50",
	})
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
	decode(t, recorder, &current)

	recorder = send(t, server, http.MethodPost, "/accounts/savings", admin, gin.H{
		"customer_id":     customer.Customer.ID,
		"initial_balance": "0",
		"interest_rate":   "0.02",
	})
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
	decode(t, recorder, &savings)

	return current.Account, savings.Account
}

func TestLedgerFlow(t *testing.T) {
	server := integrationtest.SetupServer(t)
	admin := login(t, server, server.Config.AdminUsername, server.Config.AdminPassword)

	current, savings := seedCustomerWithAccounts(t, server, admin)

	recorder := send(t, server, http.MethodPost, "/operations/debit", admin, gin.H{
		"account_id":  current.ID,
		"amount":      "120",
		"description": "x",
	})
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	recorder = send(t, server, http.MethodPost, "/operations/debit", admin, gin.H{
		"account_id":  current.ID,
		"amount":      "40",
		"description": "y",
	})
	require.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	require.Equal(t, domain.ErrInsufficientFunds.Error(), decode(t, recorder, nil).Error)

	recorder = send(t, server, http.MethodPost, "/operations/transfer", admin, gin.H{
		"from_account_id": current.ID,
		"to_account_id":   savings.ID,
		"amount":          "30",
	})
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	recorder = send(t, server, http.MethodPost, "/operations/credit", admin, gin.H{
		"account_id": current.ID,
		"amount":     "15.5",
	})
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	var history domain.AccountHistory

	recorder = send(t, server, http.MethodGet, fmt.Sprintf("/accounts/%s/operations?page=0&size=2", current.ID), admin, nil)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	decode(t, recorder, &history)

	require.True(t, history.CurrentBalance.Equal(decimal.RequireFromString("-34.5")), history.CurrentBalance.String())
	require.Equal(t, 2, history.TotalPages)
	require.Len(t, history.Operations, 2)
	require.Equal(t, domain.Credit, history.Operations[0].Type)
	require.Equal(t, "Transfer to "+savings.ID, history.Operations[1].Description)

	recorder = send(t, server, http.MethodGet, fmt.Sprintf("/accounts/%s/operations?page=5&size=2", current.ID), admin, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	history = domain.AccountHistory{}
	decode(t, recorder, &history)
	require.Empty(t, history.Operations)

	var full struct {
		Operations []domain.Operation `json:"operations"`
	}

	recorder = send(t, server, http.MethodGet, fmt.Sprintf("/accounts/%s/operations/all", savings.ID), admin, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	decode(t, recorder, &full)
	require.Len(t, full.Operations, 1)
	require.Equal(t, "Transfer from "+current.ID, full.Operations[0].Description)
}

func TestMutationsRequireAdmin(t *testing.T) {
	server := integrationtest.SetupServer(t)

	recorder := send(t, server, http.MethodPost, "/users", "", gin.H{
		"username": "teller",
		"password": "secret1",
		"fullname": "Bank Teller",
		"email":    "teller@example.com",
	})
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	user := decode(t, recorder, nil).AccessToken

	recorder = send(t, server, http.MethodPost, "/operations/credit", user, gin.H{
		"account_id": "any",
		"amount":     "10",
	})
	require.Equal(t, http.StatusForbidden, recorder.Code)

	recorder = send(t, server, http.MethodGet, "/auth/profile", user, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = send(t, server, http.MethodGet, "/accounts/missing", "", nil)
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestConcurrentDebitsRespectOverdraft(t *testing.T) {
	server := integrationtest.SetupServer(t)
	admin := login(t, server, server.Config.AdminUsername, server.Config.AdminPassword)

	current, _ := seedCustomerWithAccounts(t, server, admin)

	const workers = 20

	var wg sync.WaitGroup

	codes := make(chan int, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			body := fmt.Sprintf(`{"account_id":%q,"amount":"10"}`, current.ID)

			req := httptest.NewRequest(http.MethodPost, "/operations/debit", strings.NewReader(body))
			req.Header.Set("Authorization", "Bearer "+admin)

			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, req)
			codes <- recorder.Code
		}()
	}

	wg.Wait()
	close(codes)

	created := 0

	for code := range codes {
		if code == http.StatusCreated {
			created++
			continue
		}

		require.Contains(t, []int{http.StatusUnprocessableEntity, http.StatusServiceUnavailable}, code)
	}

	var account struct {
		Account domain.Account `json:"account"`
	}

	recorder := send(t, server, http.MethodGet, "/accounts/"+current.ID, admin, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	decode(t, recorder, &account)

	want := decimal.NewFromInt(100 - 10*int64(created))
	require.True(t, account.Account.Balance.Equal(want), "balance %v, want %v", account.Account.Balance, want)
	require.True(t, account.Account.Balance.GreaterThanOrEqual(decimal.NewFromInt(-50)))
}
