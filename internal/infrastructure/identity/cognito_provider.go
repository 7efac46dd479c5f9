package identity

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	cognito "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/salesdesk/backend/internal/domain/shared"
	infraconfig "github.com/salesdesk/backend/internal/infrastructure/config"
)

// cognitoAPI is the slice of the Cognito client the provider uses.
type cognitoAPI interface {
	SignUp(ctx context.Context, params *cognito.SignUpInput, optFns ...func(*cognito.Options)) (*cognito.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, params *cognito.ConfirmSignUpInput, optFns ...func(*cognito.Options)) (*cognito.ConfirmSignUpOutput, error)
	InitiateAuth(ctx context.Context, params *cognito.InitiateAuthInput, optFns ...func(*cognito.Options)) (*cognito.InitiateAuthOutput, error)
}

var _ Provider = (*CognitoProvider)(nil)

// CognitoProvider implements Provider against an AWS Cognito user pool
// app client.
type CognitoProvider struct {
	client       cognitoAPI
	clientID     string
	clientSecret string
	logger       *zap.Logger
}

// CognitoProviderOption is a functional option for configuring CognitoProvider
type CognitoProviderOption func(*CognitoProvider)

// WithLogger sets a custom logger for CognitoProvider
func WithLogger(logger *zap.Logger) CognitoProviderOption {
	return func(p *CognitoProvider) {
		p.logger = logger
	}
}

// NewCognitoProvider creates a CognitoProvider from configuration
func NewCognitoProvider(awsCfg infraconfig.AWSConfig, cfg infraconfig.IdentityConfig, opts ...CognitoProviderOption) (*CognitoProvider, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("identity client id is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(awsCfg.Region),
	}
	if awsCfg.AccessKeyID != "" && awsCfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(awsCfg.AccessKeyID, awsCfg.SecretAccessKey, ""),
		))
	}

	sdkCfg, err := awsconfig.LoadDefaultConfig(context.Background(), loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := cognito.NewFromConfig(sdkCfg, func(o *cognito.Options) {
		if awsCfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(awsCfg.Endpoint)
		}
	})

	return NewCognitoProviderWithClient(client, cfg.ClientID, cfg.ClientSecret, opts...), nil
}

// NewCognitoProviderWithClient creates a CognitoProvider around an existing client
func NewCognitoProviderWithClient(client cognitoAPI, clientID, clientSecret string, opts ...CognitoProviderOption) *CognitoProvider {
	p := &CognitoProvider{
		client:       client,
		clientID:     clientID,
		clientSecret: clientSecret,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Register creates the credential set and returns the provider subject
func (p *CognitoProvider) Register(ctx context.Context, email, password string) (string, error) {
	input := &cognito.SignUpInput{
		ClientId: aws.String(p.clientID),
		Username: aws.String(email),
		Password: aws.String(password),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
		},
	}
	if hash := p.secretHash(email); hash != "" {
		input.SecretHash = aws.String(hash)
	}

	out, err := p.client.SignUp(ctx, input)
	if err != nil {
		return "", classifyProviderError(err)
	}

	subject := aws.ToString(out.UserSub)
	p.logger.Info("Identity registered",
		zap.String("email", email),
		zap.String("subject", subject),
		zap.Bool("confirmed", out.UserConfirmed))
	return subject, nil
}

// Confirm completes registration with the emailed verification code
func (p *CognitoProvider) Confirm(ctx context.Context, email, code string) error {
	input := &cognito.ConfirmSignUpInput{
		ClientId:         aws.String(p.clientID),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
	}
	if hash := p.secretHash(email); hash != "" {
		input.SecretHash = aws.String(hash)
	}

	if _, err := p.client.ConfirmSignUp(ctx, input); err != nil {
		return classifyProviderError(err)
	}

	p.logger.Info("Identity confirmed", zap.String("email", email))
	return nil
}

// Login validates credentials through the USER_PASSWORD_AUTH flow
func (p *CognitoProvider) Login(ctx context.Context, email, password string) (*Session, error) {
	params := map[string]string{
		"USERNAME": email,
		"PASSWORD": password,
	}
	if hash := p.secretHash(email); hash != "" {
		params["SECRET_HASH"] = hash
	}

	out, err := p.client.InitiateAuth(ctx, &cognito.InitiateAuthInput{
		AuthFlow:       types.AuthFlowTypeUserPasswordAuth,
		ClientId:       aws.String(p.clientID),
		AuthParameters: params,
	})
	if err != nil {
		return nil, classifyProviderError(err)
	}
	if out.AuthenticationResult == nil {
		// MFA and password-change challenges are not part of this product.
		return nil, shared.NewAuth("authentication challenge is not supported").
			WithMeta("challenge", string(out.ChallengeName))
	}

	session := p.sessionFromResult(out.AuthenticationResult)
	session.Email = email
	return session, nil
}

// Refresh exchanges the provider refresh token through REFRESH_TOKEN_AUTH.
// The secret hash for this flow is computed from the subject, not the email.
func (p *CognitoProvider) Refresh(ctx context.Context, subject, refreshToken string) (*Session, error) {
	params := map[string]string{
		"REFRESH_TOKEN": refreshToken,
	}
	if hash := p.secretHash(subject); hash != "" {
		params["SECRET_HASH"] = hash
	}

	out, err := p.client.InitiateAuth(ctx, &cognito.InitiateAuthInput{
		AuthFlow:       types.AuthFlowTypeRefreshTokenAuth,
		ClientId:       aws.String(p.clientID),
		AuthParameters: params,
	})
	if err != nil {
		return nil, classifyProviderError(err)
	}
	if out.AuthenticationResult == nil {
		return nil, shared.NewAuth("refresh did not produce a session")
	}

	session := p.sessionFromResult(out.AuthenticationResult)
	if session.RefreshToken == "" {
		// The provider does not rotate refresh tokens on this flow.
		session.RefreshToken = refreshToken
	}
	if session.Subject == "" {
		session.Subject = subject
	}
	return session, nil
}

func (p *CognitoProvider) sessionFromResult(result *types.AuthenticationResultType) *Session {
	session := &Session{
		AccessToken:  aws.ToString(result.AccessToken),
		IDToken:      aws.ToString(result.IdToken),
		RefreshToken: aws.ToString(result.RefreshToken),
		ExpiresIn:    result.ExpiresIn,
	}
	session.Subject = p.subjectFromToken(session.AccessToken)
	return session
}

// subjectFromToken pulls the sub claim out of a provider-issued token. The
// token arrived first-hand over TLS from the provider, so its signature is
// not re-verified here.
func (p *CognitoProvider) subjectFromToken(tokenString string) string {
	if tokenString == "" {
		return ""
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		p.logger.Warn("Failed to parse provider token", zap.Error(err))
		return ""
	}

	subject, err := claims.GetSubject()
	if err != nil {
		return ""
	}
	return subject
}

// secretHash computes the Cognito SECRET_HASH for a username. Empty when the
// app client has no secret.
func (p *CognitoProvider) secretHash(username string) string {
	if p.clientSecret == "" {
		return ""
	}

	mac := hmac.New(sha256.New, []byte(p.clientSecret))
	mac.Write([]byte(username + p.clientID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
