package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// User is the authenticated account as the provider reports it.
type User struct {
	ID    uuid.UUID
	Email string
	Name  string
}

// Claims are the provider-issued token attributes, fetched as a separate
// remote call after the base identity resolves.
type Claims struct {
	Admin bool
}

// Provider is the identity collaborator: it owns accounts, verifies
// credentials and issues the session tokens that carry the admin claim.
type Provider interface {
	// Authenticate verifies credentials and returns the user with a fresh
	// session token. Fails with ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, password string) (User, string, error)

	// Register creates an account and signs it in, returning user and token.
	// Fails with ErrEmailAlreadyExists or ErrWeakPassword.
	Register(ctx context.Context, email, password, name string) (User, string, error)

	// SignOut invalidates the session on the provider side.
	SignOut(ctx context.Context, token string) error

	// FetchClaims retrieves the token claims for an authenticated session.
	FetchClaims(ctx context.Context, token string) (Claims, error)
}

// Provider-level errors, surfaced verbatim to the user by the auth handlers.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrInvalidToken       = errors.New("invalid or expired token")
)
