package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appidentity "github.com/storefront/backend/internal/application/identity"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// AuthService is the account API the auth handler drives
type AuthService interface {
	Signup(ctx context.Context, input appidentity.SignupInput) (*appidentity.UserResponse, error)
	Login(ctx context.Context, input appidentity.LoginInput) (*appidentity.LoginResult, error)
	Refresh(ctx context.Context, input appidentity.RefreshInput) (*auth.TokenPair, error)
	Logout(ctx context.Context, input appidentity.LogoutInput) error
	CurrentUser(ctx context.Context, userID uuid.UUID) (*appidentity.UserResponse, error)
}

// AuthHandler handles signup, login and token endpoints
type AuthHandler struct {
	BaseHandler
	authService AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Signup godoc
// @ID           signupUser
// @Summary      Register a new account
// @Description  Creates a user from the signup form. The profile image may be a data URL.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body appidentity.SignupInput true "Signup form"
// @Success      201 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Router       /signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var input appidentity.SignupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.HandleBindError(c, err)
		return
	}

	user, err := h.authService.Signup(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, "Successfully signed up", user)
}

// Login godoc
// @ID           loginUser
// @Summary      Log in with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body appidentity.LoginInput true "Credentials"
// @Success      200 {object} dto.AuthResponse
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var input appidentity.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.HandleBindError(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AuthResponse{
		Message: "Login successful",
		Alert:   true,
		Data:    result.User,
		Tokens:  result.Tokens,
	})
}

// Refresh godoc
// @ID           refreshToken
// @Summary      Exchange a refresh token for a new token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body appidentity.RefreshInput true "Refresh token"
// @Success      200 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Router       /refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var input appidentity.RefreshInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.HandleBindError(c, err)
		return
	}

	pair, err := h.authService.Refresh(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, "Token refreshed", pair)
}

// Logout godoc
// @ID           logoutUser
// @Summary      Revoke the current access token
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Router       /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	err := h.authService.Logout(c.Request.Context(), appidentity.LogoutInput{
		UserID:    middleware.GetJWTUserID(c),
		TokenJTI:  claims.ID,
		ExpiresAt: claims.ExpiresAtTime(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, "Logged out", nil)
}

// Me godoc
// @ID           getCurrentUser
// @Summary      Get the authenticated user's profile
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID := middleware.GetJWTUserID(c)
	if userID == uuid.Nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	user, err := h.authService.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, "", user)
}
