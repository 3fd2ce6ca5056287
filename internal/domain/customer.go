package domain

import (
	"errors"
	"time"
)

var (
	// ErrCustomerNotFound indicates that the customer is not found.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrCustomerHasAccounts indicates that the customer cannot be deleted while owning accounts.
	ErrCustomerHasAccounts = errors.New("customer still owns accounts")
	// ErrEmailAlreadyExists indicates that the email is already taken.
	ErrEmailAlreadyExists = errors.New("email already exists")
)

// Customer holds bank customer identity data.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// CustomerParams is the input data to create or update a customer.
type CustomerParams struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
