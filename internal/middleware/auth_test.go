package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/go-petr/ledger-bank/internal/domain"
	"github.com/go-petr/ledger-bank/pkg/randompkg"
	"github.com/go-petr/ledger-bank/pkg/tokenpkg"
	"github.com/go-petr/ledger-bank/pkg/web"
)

func TestAuthMiddleware(t *testing.T) {
	tokenSymmetricKey := randompkg.String(32)

	tokenMaker, err := tokenpkg.NewPasetoMaker(tokenSymmetricKey)
	if err != nil {
		t.Fatalf("tokenpkg.NewPasetoMaker(%v) returned error: %v", tokenSymmetricKey, err)
	}

	testCases := []struct {
		name           string
		setupAuth      func(t *testing.T, r *http.Request) error
		wantStatusCode int
		wantError      string
	}{
		{
			name: "NoAuthorization",
			setupAuth: func(t *testing.T, r *http.Request) error {
				return nil
			},
			wantStatusCode: http.StatusUnauthorized,
			wantError:      ErrAuthHeaderNotFound.Error(),
		},
		{
			name: "InvalidAuthorizationHeader",
			setupAuth: func(t *testing.T, r *http.Request) error {
				return AddAuthorization(r, tokenMaker, "", "user", domain.RoleUser, time.Minute)
			},
			wantStatusCode: http.StatusUnauthorized,
			wantError:      ErrBadAuthHeaderFormat.Error(),
		},
		{
			name: "UnsupportedAuthorization",
			setupAuth: func(t *testing.T, r *http.Request) error {
				return AddAuthorization(r, tokenMaker, "unsupported", "user", domain.RoleUser, time.Minute)
			},
			wantStatusCode: http.StatusUnauthorized,
			wantError:      ErrUnsupportedAuthType.Error(),
		},
		{
			name: "ExpiredToken",
			setupAuth: func(t *testing.T, r *http.Request) error {
				return AddAuthorization(r, tokenMaker, AuthTypeBearer, "user", domain.RoleUser, -time.Minute)
			},
			wantStatusCode: http.StatusUnauthorized,
			wantError:      tokenpkg.ErrExpiredToken.Error(),
		},
		{
			name: "UserOnAdminRoute",
			setupAuth: func(t *testing.T, r *http.Request) error {
				r.URL.Path = "/admin"
				return AddAuthorization(r, tokenMaker, AuthTypeBearer, "user", domain.RoleUser, time.Minute)
			},
			wantStatusCode: http.StatusForbidden,
			wantError:      domain.ErrForbidden.Error(),
		},
		{
			name: "AdminOnAdminRoute",
			setupAuth: func(t *testing.T, r *http.Request) error {
				r.URL.Path = "/admin"
				return AddAuthorization(r, tokenMaker, AuthTypeBearer, "root", domain.RoleAdmin, time.Minute)
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "OK",
			setupAuth: func(t *testing.T, r *http.Request) error {
				return AddAuthorization(r, tokenMaker, AuthTypeBearer, "user", domain.RoleUser, time.Minute)
			},
			wantStatusCode: http.StatusOK,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			gin.SetMode(gin.ReleaseMode)
			server := gin.New()

			handler := func(gctx *gin.Context) {
				gctx.JSON(http.StatusOK, web.Response{Data: Principal(gctx)})
			}
			server.GET("/auth", AuthMiddleware(tokenMaker), handler)
			server.GET("/admin", AuthMiddleware(tokenMaker), RequireRole(domain.RoleAdmin), handler)

			recorder := httptest.NewRecorder()
			request, err := http.NewRequest(http.MethodGet, "/auth", nil)
			if err != nil {
				t.Fatalf("http.NewRequest returned error: %v", err)
			}

			if err = tc.setupAuth(t, request); err != nil {
				t.Fatalf("tc.setupAuth(t, %v) returned error: %v", request, err)
			}

			server.ServeHTTP(recorder, request)

			if recorder.Code != tc.wantStatusCode {
				t.Errorf("recorder.Code = %v, tc.wantStatusCode = %v, want equal",
					recorder.Code, tc.wantStatusCode)
			}

			got := web.Response{}
			if err := json.NewDecoder(recorder.Body).Decode(&got); err != nil {
				t.Fatalf("Decoding response body error: %v", err)
			}

			if got.Error != tc.wantError {
				t.Errorf("got.Error = %v, tc.wantError = %v, want equal", got.Error, tc.wantError)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)
	server := gin.New()
	server.Use(CORS([]string{"https://bank.example"}))
	server.GET("/ping", func(gctx *gin.Context) { gctx.Status(http.StatusOK) })

	testCases := []struct {
		name       string
		method     string
		origin     string
		wantStatus int
		wantHeader string
	}{
		{"AllowedOrigin", http.MethodGet, "https://bank.example", http.StatusOK, "https://bank.example"},
		{"OtherOrigin", http.MethodGet, "https://evil.example", http.StatusOK, ""},
		{"Preflight", http.MethodOptions, "https://bank.example", http.StatusNoContent, "https://bank.example"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			request := httptest.NewRequest(tc.method, "/ping", nil)
			request.Header.Set("Origin", tc.origin)

			server.ServeHTTP(recorder, request)

			if recorder.Code != tc.wantStatus {
				t.Errorf("recorder.Code = %v, want %v", recorder.Code, tc.wantStatus)
			}

			if got := recorder.Header().Get("Access-Control-Allow-Origin"); got != tc.wantHeader {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tc.wantHeader)
			}
		})
	}
}
