package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"autoblog-backend/internal/domains/session"
	"autoblog-backend/internal/infrastructure/identity"
	"autoblog-backend/internal/shared/response"
)

// =====================================================
// AUTH HANDLER
// =====================================================

// AuthHandler exposes the session operations. State changes never come back
// in the mutation responses; clients observe them on the session stream,
// the same way every other consumer does.
type AuthHandler struct {
	sessions *session.Service
}

func NewAuthHandler(sessions *session.Service) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

// Register creates an account and signs it in.
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req session.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	token, err := h.sessions.SignUp(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		h.respondAuthError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, session.LoginResponse{Token: token})
}

// Login authenticates an account.
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req session.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	token, err := h.sessions.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondAuthError(c, err)
		return
	}
	response.Success(c, http.StatusOK, session.LoginResponse{Token: token})
}

// Logout tears the session down.
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessions.SignOut(c.Request.Context()); err != nil {
		h.respondAuthError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"signed_out": true})
}

// Me reports the session triple as of the latest feed delivery.
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	response.Success(c, http.StatusOK, session.ToDTO(h.sessions.Current()))
}

// respondAuthError surfaces provider failures verbatim; they are written to
// be user-readable.
func (h *AuthHandler) respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials):
		response.ErrorResponse(c, http.StatusUnauthorized, "AUTH_ERROR", err.Error())
	case errors.Is(err, identity.ErrEmailAlreadyExists):
		response.ErrorResponse(c, http.StatusConflict, "AUTH_ERROR", err.Error())
	case errors.Is(err, identity.ErrWeakPassword):
		response.ErrorResponse(c, http.StatusBadRequest, "AUTH_ERROR", err.Error())
	case errors.Is(err, identity.ErrInvalidToken):
		response.ErrorResponse(c, http.StatusUnauthorized, "AUTH_ERROR", err.Error())
	default:
		response.InternalServerError(c, "Authentication service unavailable")
	}
}
