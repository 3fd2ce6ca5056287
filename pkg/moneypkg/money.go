// Package moneypkg provides parsing and validation of monetary values.
package moneypkg

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/go-petr/ledger-bank/internal/domain"
)

// MaxScale is the number of fractional digits stored for amounts.
const MaxScale = 4

// ParseAmount parses a strictly positive amount with at most MaxScale fractional digits.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := parse(s)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, domain.ErrInvalidAmount
	}

	return d, nil
}

// CheckAmount reports ErrInvalidAmount unless d is strictly positive and fits MaxScale.
func CheckAmount(d decimal.Decimal) error {
	if !d.IsPositive() || !d.Equal(d.Round(MaxScale)) {
		return domain.ErrInvalidAmount
	}

	return nil
}

// ParseNonNegative parses a zero or positive value such as a rate or an overdraft limit.
func ParseNonNegative(s string) (decimal.Decimal, error) {
	d, err := parse(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, domain.ErrInvalidAmount
	}

	return d, nil
}

// ParseSigned parses an amount that may be negative, such as an opening balance.
func ParseSigned(s string) (decimal.Decimal, error) {
	d, err := parse(s)
	if err != nil {
		return decimal.Zero, domain.ErrInvalidAmount
	}

	return d, nil
}

func parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}

	if -d.Exponent() > MaxScale {
		return decimal.Zero, domain.ErrInvalidAmount
	}

	return d, nil
}

// ValidAmount validates whether the field holds a strictly positive amount.
var ValidAmount validator.Func = func(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		_, err := ParseAmount(s)
		return err == nil
	}

	return false
}

// ValidRate validates whether the field holds a zero or positive decimal.
var ValidRate validator.Func = func(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		_, err := ParseNonNegative(s)
		return err == nil
	}

	return false
}

// ValidAccountStatus validates whether the account status is supported.
var ValidAccountStatus validator.Func = func(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		return domain.AccountStatus(s).Valid()
	}

	return false
}

// Register adds the money validators to v.
func Register(v *validator.Validate) error {
	if err := v.RegisterValidation("amount", ValidAmount); err != nil {
		return err
	}

	if err := v.RegisterValidation("rate", ValidRate); err != nil {
		return err
	}

	return v.RegisterValidation("account_status", ValidAccountStatus)
}
