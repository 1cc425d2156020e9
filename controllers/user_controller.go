package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mobirepair/mobirepair-api/middleware"
	"github.com/mobirepair/mobirepair-api/models"
	"github.com/mobirepair/mobirepair-api/services"
	"github.com/mobirepair/mobirepair-api/utils"
)

// LoginRequest represents the request body for logging in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Register handles POST /api/v1/auth/register - creates a customer account and signs it in
func Register(c *gin.Context) {
	var req services.RegisterInput
	if !bindJSON(c, &req) {
		return
	}

	user, err := services.GetCredentialService().Register(c.Request.Context(), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	respondWithToken(c, http.StatusCreated, "User registered successfully", user)
}

// Login handles POST /api/v1/auth/login - verifies credentials and returns a session token
func Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		utils.RespondError(c, utils.NewValidationError("Email and password are required"))
		return
	}

	user, err := services.GetCredentialService().Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	respondWithToken(c, http.StatusOK, "Login successful", user)
}

// GetCurrentUser handles GET /api/v1/auth/me - returns the authenticated account
func GetCurrentUser(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		utils.RespondError(c, utils.NewAuthError("AUTH_REQUIRED", "Authentication required"))
		return
	}

	user, err := services.GetCredentialService().GetActiveUser(c.Request.Context(), userID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.RespondSuccess(c, http.StatusOK, "", user)
}

func respondWithToken(c *gin.Context, status int, message string, user *models.User) {
	token, expiresAt, err := services.GetTokenService().Issue(user)
	if err != nil {
		utils.RespondError(c, utils.NewUnexpectedError("Failed to issue token", err))
		return
	}
	utils.RespondSuccess(c, status, message, AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	})
}
