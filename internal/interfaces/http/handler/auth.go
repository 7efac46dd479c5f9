package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	identityapp "github.com/salesdesk/backend/internal/application/identity"
	"github.com/salesdesk/backend/internal/domain/shared"
)

const bearerPrefix = "Bearer "

// AuthHandler handles authentication API endpoints
type AuthHandler struct {
	BaseHandler
	authService *identityapp.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *identityapp.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register godoc
// @Summary      Register a new account
// @Description  Register an account with the identity provider; a confirmation code is sent to the email address
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identity.RegisterRequest true "Registration request"
// @Success      201 {object} identity.RegisterResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      409 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req identityapp.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// Confirm godoc
// @Summary      Confirm a registration
// @Description  Confirm a registered account with the emailed code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identity.ConfirmRequest true "Confirmation request"
// @Success      204
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Router       /auth/confirm [post]
func (h *AuthHandler) Confirm(c *gin.Context) {
	var req identityapp.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	if err := h.authService.Confirm(c.Request.Context(), req); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Login godoc
// @Summary      Log in
// @Description  Authenticate against the identity provider and receive an application token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identity.LoginRequest true "Login request"
// @Success      200 {object} identity.TokenResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req identityapp.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	tokens, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, tokens)
}

// Refresh godoc
// @Summary      Refresh the token pair
// @Description  Exchange a valid refresh token for a new token pair, re-validating the provider session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identity.RefreshRequest true "Refresh request"
// @Success      200 {object} identity.TokenResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req identityapp.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	tokens, err := h.authService.Refresh(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, tokens)
}

// Logout godoc
// @Summary      Log out
// @Description  Revoke the presented access token for the remainder of its lifetime
// @Tags         auth
// @Produce      json
// @Success      204
// @Failure      401 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	token, err := bearerToken(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), token); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// bearerToken extracts the raw token from the Authorization header
func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", shared.NewAuth("Missing authorization header")
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", shared.NewAuth("Invalid authorization header format")
	}
	token := strings.TrimPrefix(header, bearerPrefix)
	if token == "" {
		return "", shared.NewAuth("Missing token")
	}
	return token, nil
}
