package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/orderdesk/backend/internal/application/identity"
	"github.com/orderdesk/backend/internal/interfaces/http/middleware"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService *identity.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *identity.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// CurrentUserResponse describes the caller
type CurrentUserResponse struct {
	Username string   `json:"username"`
	Owners   []string `json:"owners"`
}

// Login exchanges credentials for an access token.
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req identity.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Logout revokes the caller's token.
// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.NoContent(c)
		return
	}
	if err := h.authService.Logout(c.Request.Context(), claims.Username, claims.ID, claims.GetExpiresAtTime()); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Me returns the authenticated user.
// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	resp := CurrentUserResponse{Username: currentUser(c), Owners: []string{}}
	if claims := middleware.GetJWTClaims(c); claims != nil && claims.Owners != nil {
		resp.Owners = claims.Owners
	}
	h.Success(c, resp)
}
