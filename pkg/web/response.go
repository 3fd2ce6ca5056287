// Package web defines common components for a web application.
package web

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/go-petr/ledger-bank/internal/domain"
	"github.com/go-petr/ledger-bank/pkg/errorspkg"
)

// Response holds the common response type for all APIs.
type Response struct {
	AccessToken           string `json:"access_token,omitempty"`
	AccessTokenExpiresAt  string `json:"access_token_expires_at,omitempty"`
	RefreshToken          string `json:"refresh_token,omitempty"`
	RefreshTokenExpiresAt string `json:"refresh_token_expires_at,omitempty"`
	Data                  any    `json:"data,omitempty"`
	Error                 string `json:"error,omitempty"`
}

// Error wraps a given err into json frinedly struct.
func Error(err error) Response {
	return Response{Error: err.Error()}
}

// GetErrorMsg returns a human readable message for the failed validation tag.
func GetErrorMsg(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return " field is required"
	case "email":
		return " must be a valid email"
	case "alphanum":
		return " accepts only alphanumeric characters"
	case "min":
		return " must be at least " + fe.Param()
	case "max":
		return " must be at most " + fe.Param()
	case "amount":
		return " must be a positive decimal amount"
	case "rate":
		return " must be a non-negative decimal"
	case "account_status":
		return " is not a supported status"
	}

	return " is invalid"
}

// BindErrorMsg converts a request binding error into a response message.
func BindErrorMsg(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		field := ve[0]
		return field.Field() + GetErrorMsg(field)
	}

	return err.Error()
}

// StatusClientClosedRequest is returned when the client abandoned the request.
const StatusClientClosedRequest = 499

// StatusCode maps a domain failure to the http status returned to the client.
func StatusCode(err error) int {
	switch domain.Kind(err) {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInvalid:
		return http.StatusBadRequest
	case domain.KindInsufficientFunds:
		return http.StatusUnprocessableEntity
	case domain.KindContention:
		return http.StatusServiceUnavailable
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindCanceled:
		return StatusClientClosedRequest
	}

	return http.StatusInternalServerError
}

// FailureResponse returns the status code and body for a service failure.
//
// Internal failures never expose the underlying error.
func FailureResponse(err error) (int, Response) {
	code := StatusCode(err)
	if code == http.StatusInternalServerError {
		return code, Error(errorspkg.ErrInternal)
	}

	return code, Error(err)
}
