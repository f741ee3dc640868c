package handler

import (
	"net/http"

	"atlascrm/internal/apierror"
	"atlascrm/internal/dto"
	"atlascrm/internal/middleware"
	"atlascrm/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct{ svc service.AuthService }

func NewAuthHandler(svc service.AuthService) *AuthHandler { return &AuthHandler{svc: svc} }

// Login godoc
// @Summary Connexion d'un utilisateur
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.LoginRequest true "Identifiants"
// @Success 200 {object} apierror.Envelope{data=dto.LoginResponse}
// @Failure 401 {object} apierror.Envelope
// @Router /v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apierror.OK(resp))
}

// Refresh godoc
// @Summary Renouvelle le jeton d'accès
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.RefreshRequest true "Jeton de rafraîchissement"
// @Success 200 {object} apierror.Envelope{data=dto.LoginResponse}
// @Failure 401 {object} apierror.Envelope
// @Router /v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.Fail(err.Error()))
		return
	}
	c.JSON(http.StatusOK, apierror.OK(resp))
}

// ── Users Handler ─────────────────────────────────────────────────────────────

type UsersHandler struct{ svc service.AuthService }

func NewUsersHandler(svc service.AuthService) *UsersHandler {
	return &UsersHandler{svc: svc}
}

// Create godoc
// @Summary Crée un utilisateur dans la société courante
// @Tags users
// @Security BearerAuth
// @Param body body dto.CreateUserRequest true "Utilisateur"
// @Success 201 {object} apierror.Envelope{data=dto.UserResponse}
// @Failure 409 {object} apierror.Envelope
// @Router /v1/users [post]
func (h *UsersHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateUser(c.Request.Context(), middleware.CompanyID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, apierror.OK(resp))
}

func (h *UsersHandler) List(c *gin.Context) {
	resp, err := h.svc.ListUsers(c.Request.Context(), middleware.CompanyID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apierror.OK(resp))
}
