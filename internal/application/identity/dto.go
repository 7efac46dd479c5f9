package identity

import (
	"time"

	"github.com/salesdesk/backend/internal/infrastructure/auth"
)

// RegisterRequest represents a sign-up request
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// RegisterResponse carries the provider-assigned subject for a new account.
// The account stays unusable until it is confirmed.
type RegisterResponse struct {
	Subject string `json:"subject"`
	Email   string `json:"email"`
}

// ConfirmRequest represents an account confirmation with the emailed code
type ConfirmRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

// LoginRequest represents a credential login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest exchanges a refresh token for a fresh pair
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// TokenResponse represents an issued token pair in API responses
type TokenResponse struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	TokenType        string    `json:"tokenType"`
	ExpiresAt        time.Time `json:"expiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// ToTokenResponse converts an issued token pair to TokenResponse
func ToTokenResponse(pair *auth.TokenPair) *TokenResponse {
	return &TokenResponse{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		TokenType:        pair.TokenType,
		ExpiresAt:        pair.AccessTokenExpiresAt,
		RefreshExpiresAt: pair.RefreshTokenExpiresAt,
	}
}
