// Package auth handles account registration, login and session tokens for
// the API. Accounts (users) are separate from the participants who share
// expenses.
package auth

import (
	"context"

	"github.com/mmynk/splitledger/internal/models"
)

// Authenticator defines the interface for authentication implementations.
// The service layer depends only on this, so password login can later be
// joined by other methods without changing handlers.
type Authenticator interface {
	// Register creates a new user account with the given email and credential.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate verifies the user's credentials and returns the user if successful.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}
