// Package identity integrates the external identity provider that owns
// credentials. The application never sees passwords beyond handing them to
// the provider; sessions inside the API are service-issued JWTs.
package identity

import "context"

// Session is what the provider returns for a successful authentication.
type Session struct {
	// Subject is the provider-assigned stable user id
	Subject string
	// Email the session was established for
	Email        string
	AccessToken  string
	IDToken      string
	RefreshToken string
	// ExpiresIn is the provider access token lifetime in seconds
	ExpiresIn int32
}

// Provider is the narrow contract around the external identity service.
type Provider interface {
	// Register creates a credential set and returns the provider subject.
	// The account stays unusable until Confirm succeeds.
	Register(ctx context.Context, email, password string) (string, error)
	// Confirm completes registration with the emailed verification code
	Confirm(ctx context.Context, email, code string) error
	// Login validates credentials and opens a provider session
	Login(ctx context.Context, email, password string) (*Session, error)
	// Refresh exchanges a provider refresh token for a new session. The
	// subject must be the one returned at registration or login.
	Refresh(ctx context.Context, subject, refreshToken string) (*Session, error)
}
