package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/mobirepair/mobirepair-api/config"
	"github.com/mobirepair/mobirepair-api/models"
	"github.com/mobirepair/mobirepair-api/services"
	"github.com/mobirepair/mobirepair-api/utils"
	"go.uber.org/zap"
)

// Context keys set by the auth middleware
const (
	ContextUserID = "user_id"
	ContextRole   = "user_role"
	ContextClaims = "validated_claims"
)

// TokenHeader is the alternate header accepted next to "Authorization: Bearer"
const TokenHeader = "x-auth-token"

// CustomClaims contains the private claims carried by session tokens
type CustomClaims struct {
	Role string `json:"role"`
}

// Validate rejects tokens carrying an unknown role
func (c CustomClaims) Validate(ctx context.Context) error {
	if c.Role != "" && c.Role != models.RoleUser && c.Role != models.RoleAdmin {
		return fmt.Errorf("unknown role %q", c.Role)
	}
	return nil
}

// NewTokenValidator builds the HS256 validator matching services.TokenService
func NewTokenValidator(cfg *config.Config) (*validator.Validator, error) {
	secret := []byte(cfg.JWTSecret)
	return validator.New(
		func(ctx context.Context) (interface{}, error) {
			return secret, nil
		},
		validator.HS256,
		cfg.JWTIssuer,
		[]string{cfg.JWTAudience},
		validator.WithCustomClaims(
			func() validator.CustomClaims {
				return &CustomClaims{}
			},
		),
		validator.WithAllowedClockSkew(time.Minute),
	)
}

func tokenExtractor() jwtmiddleware.TokenExtractor {
	return jwtmiddleware.MultiTokenExtractor(
		jwtmiddleware.AuthHeaderTokenExtractor,
		func(r *http.Request) (string, error) {
			return strings.TrimSpace(r.Header.Get(TokenHeader)), nil
		},
	)
}

func mustTokenValidator(cfg *config.Config) *validator.Validator {
	jwtValidator, err := NewTokenValidator(cfg)
	if err != nil {
		utils.GetLogger().Fatal("Failed to set up the jwt validator", zap.Error(err))
	}
	return jwtValidator
}

// EnsureValidToken rejects requests without a valid session token for an active account
func EnsureValidToken(cfg *config.Config) gin.HandlerFunc {
	jwtValidator := mustTokenValidator(cfg)

	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		utils.GetLogger().Debug("rejected request token", zap.String("path", r.URL.Path), zap.Error(err))

		code, message := "INVALID_TOKEN", "Invalid token"
		if errors.Is(err, jwtmiddleware.ErrJWTMissing) {
			code, message = "NO_TOKEN", "Access denied. No token provided."
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(gin.H{
			"success": false,
			"message": message,
			"error":   gin.H{"code": code, "message": message},
		})
	}

	middleware := jwtmiddleware.New(
		jwtValidator.ValidateToken,
		jwtmiddleware.WithErrorHandler(errorHandler),
		jwtmiddleware.WithTokenExtractor(tokenExtractor()),
	)

	return func(c *gin.Context) {
		reached := false
		var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
			reached = true
			claims := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)

			if err := setIdentity(c, claims); err != nil {
				utils.AbortWithError(c, err)
				return
			}
			c.Request = r
			c.Next()
		}

		middleware.CheckJWT(handler).ServeHTTP(c.Writer, c.Request)
		if !reached {
			c.Abort()
		}
	}
}

// OptionalAuth attaches the caller's identity when a valid token is present
// and otherwise lets the request through as a guest.
func OptionalAuth(cfg *config.Config) gin.HandlerFunc {
	jwtValidator := mustTokenValidator(cfg)
	extract := tokenExtractor()

	return func(c *gin.Context) {
		token, err := extract(c.Request)
		if err != nil || token == "" {
			c.Next()
			return
		}

		validated, err := jwtValidator.ValidateToken(c.Request.Context(), token)
		if err != nil {
			utils.GetLogger().Debug("ignoring invalid optional token", zap.Error(err))
			c.Next()
			return
		}

		if err := setIdentity(c, validated.(*validator.ValidatedClaims)); err != nil {
			utils.GetLogger().Debug("ignoring token of unusable account", zap.Error(err))
		}
		c.Next()
	}
}

// setIdentity resolves the token subject to an active account and stores it on c.
// The stored role comes from the account, so demotions apply before the token expires.
func setIdentity(c *gin.Context, claims *validator.ValidatedClaims) error {
	id, err := strconv.ParseUint(claims.RegisteredClaims.Subject, 10, 64)
	if err != nil || id == 0 {
		return utils.NewAuthError("INVALID_TOKEN", "Invalid token")
	}
	userID := uint(id)

	role := models.RoleUser
	if custom, ok := claims.CustomClaims.(*CustomClaims); ok && custom.Role != "" {
		role = custom.Role
	}

	if creds := services.GetCredentialService(); creds != nil {
		user, err := creds.GetActiveUser(c.Request.Context(), userID)
		if err != nil {
			if utils.IsKind(err, utils.KindAuth) {
				return utils.NewAuthError("INVALID_TOKEN", "Invalid token. User not found or inactive.")
			}
			return err
		}
		role = user.Role
	}

	c.Set(ContextUserID, userID)
	c.Set(ContextRole, role)
	c.Set(ContextClaims, claims)
	return nil
}

// RequireAdmin allows only authenticated admins through. It must run after EnsureValidToken.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := GetIdentity(c)
		if identity == nil {
			utils.AbortWithError(c, utils.NewAuthError("AUTH_REQUIRED", "Authentication required"))
			return
		}
		if !identity.IsAdmin() {
			utils.AbortWithError(c, utils.NewAuthorizationError("Access denied. Admin privileges required."))
			return
		}
		c.Next()
	}
}

// GetUserID extracts the authenticated user id from the Gin context
func GetUserID(c *gin.Context) (uint, error) {
	userID, exists := c.Get(ContextUserID)
	if !exists {
		return 0, &AuthError{Code: "MISSING_USER_ID", Message: "User ID not found in context"}
	}

	id, ok := userID.(uint)
	if !ok {
		return 0, &AuthError{Code: "INVALID_USER_ID", Message: "User ID is not a uint"}
	}

	return id, nil
}

// GetClaims extracts the validated JWT claims from the Gin context
func GetClaims(c *gin.Context) (*validator.ValidatedClaims, error) {
	claims, exists := c.Get(ContextClaims)
	if !exists {
		return nil, &AuthError{Code: "MISSING_CLAIMS", Message: "Claims not found in context"}
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return nil, &AuthError{Code: "INVALID_CLAIMS", Message: "Claims are not in the expected format"}
	}

	return validatedClaims, nil
}

// GetIdentity returns the caller set by the auth middleware, or nil for guests
func GetIdentity(c *gin.Context) *services.Identity {
	userID, err := GetUserID(c)
	if err != nil {
		return nil
	}
	return &services.Identity{UserID: userID, Role: c.GetString(ContextRole)}
}

// AuthError represents an authentication error
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}
