// Package tokenpkg issues and verifies access tokens for authenticated principals.
package tokenpkg

import (
	"time"

	"github.com/go-petr/ledger-bank/internal/domain"
)

// Maker is an interface for managing tokens.
type Maker interface {
	// CreateToken creates a new token for a specific username, role and duration.
	CreateToken(username string, role domain.Role, duration time.Duration) (string, *Payload, error)
	// VerifyToken checks if the token is valid or not.
	VerifyToken(token string) (*Payload, error)
}
