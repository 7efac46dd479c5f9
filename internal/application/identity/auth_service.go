package identity

import (
	"context"

	"github.com/salesdesk/backend/internal/infrastructure/auth"
	"github.com/salesdesk/backend/internal/infrastructure/identity"
	"go.uber.org/zap"
)

// AuthService handles authentication against the identity provider. The
// provider owns accounts and passwords; this service exchanges provider
// sessions for the service's own JWT pairs and tracks revoked tokens.
type AuthService struct {
	provider   identity.Provider
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	provider identity.Provider,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		provider:   provider,
		jwtService: jwtService,
		blacklist:  blacklist,
		logger:     logger,
	}
}

// Register creates a new account with the identity provider. The account
// must be confirmed with the emailed code before it can log in.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	subject, err := s.provider.Register(ctx, req.Email, req.Password)
	if err != nil {
		s.logger.Warn("Registration failed",
			zap.String("email", req.Email),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("User registered",
		zap.String("subject", subject),
		zap.String("email", req.Email))

	return &RegisterResponse{
		Subject: subject,
		Email:   req.Email,
	}, nil
}

// Confirm activates an account with the emailed confirmation code
func (s *AuthService) Confirm(ctx context.Context, req ConfirmRequest) error {
	if err := s.provider.Confirm(ctx, req.Email, req.Code); err != nil {
		s.logger.Warn("Account confirmation failed",
			zap.String("email", req.Email),
			zap.Error(err))
		return err
	}

	s.logger.Info("Account confirmed", zap.String("email", req.Email))
	return nil
}

// Login authenticates against the provider and issues the service's token
// pair. The provider's refresh token rides inside the service refresh token
// so the later refresh can reach the provider again.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	session, err := s.provider.Login(ctx, req.Email, req.Password)
	if err != nil {
		s.logger.Warn("Login failed",
			zap.String("email", req.Email),
			zap.Error(err))
		return nil, err
	}

	email := session.Email
	if email == "" {
		email = req.Email
	}

	pair, err := s.jwtService.GenerateTokenPair(session.Subject, email, session.RefreshToken)
	if err != nil {
		s.logger.Error("Token generation failed",
			zap.String("subject", session.Subject),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("User logged in",
		zap.String("subject", session.Subject),
		zap.String("email", email))

	return ToTokenResponse(pair), nil
}

// Refresh validates the service refresh token, renews the provider session
// with the embedded provider refresh token and issues a fresh pair. Some
// providers do not rotate refresh tokens on renewal; in that case the
// original one keeps riding along.
func (s *AuthService) Refresh(ctx context.Context, req RefreshRequest) (*TokenResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, err
	}

	session, err := s.provider.Refresh(ctx, claims.Subject, claims.ProviderRefreshToken)
	if err != nil {
		s.logger.Warn("Provider session renewal failed",
			zap.String("subject", claims.Subject),
			zap.Error(err))
		return nil, err
	}

	providerRefreshToken := session.RefreshToken
	if providerRefreshToken == "" {
		providerRefreshToken = claims.ProviderRefreshToken
	}

	pair, err := s.jwtService.GenerateTokenPair(claims.Subject, claims.Email, providerRefreshToken)
	if err != nil {
		s.logger.Error("Token generation failed",
			zap.String("subject", claims.Subject),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Tokens refreshed", zap.String("subject", claims.Subject))

	return ToTokenResponse(pair), nil
}

// Logout revokes the presented access token for its remaining lifetime. The
// refresh token is left alone: revocation is keyed by token ID, and clients
// drop their refresh token on logout.
func (s *AuthService) Logout(ctx context.Context, rawAccessToken string) error {
	claims, err := s.jwtService.ValidateAccessToken(rawAccessToken)
	if err != nil {
		return err
	}

	if err := s.blacklist.Revoke(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
		s.logger.Error("Token revocation failed",
			zap.String("subject", claims.Subject),
			zap.Error(err))
		return err
	}

	s.logger.Info("User logged out", zap.String("subject", claims.Subject))
	return nil
}
