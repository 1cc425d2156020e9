package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/mobirepair/mobirepair-api/config"
	"github.com/mobirepair/mobirepair-api/models"
	jose "gopkg.in/go-jose/go-jose.v2"
	"gopkg.in/go-jose/go-jose.v2/jwt"
)

// RoleClaims are the private claims carried next to the registered ones
type RoleClaims struct {
	Role string `json:"role"`
}

// TokenService issues HS256 session tokens
type TokenService struct {
	signer   jose.Signer
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

var tokenServiceInstance *TokenService

// NewTokenService creates a token service signing with cfg.JWTSecret
func NewTokenService(cfg *config.Config) (*TokenService, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT secret is empty")
	}

	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: []byte(cfg.JWTSecret)},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT signer: %w", err)
	}

	return &TokenService{
		signer:   signer,
		issuer:   cfg.JWTIssuer,
		audience: cfg.JWTAudience,
		ttl:      cfg.JWTTTL,
		now:      time.Now,
	}, nil
}

// InitTokenService initializes the global token service
func InitTokenService(cfg *config.Config) (*TokenService, error) {
	svc, err := NewTokenService(cfg)
	if err != nil {
		return nil, err
	}
	tokenServiceInstance = svc
	return svc, nil
}

// GetTokenService returns the global token service
func GetTokenService() *TokenService {
	return tokenServiceInstance
}

// SetTokenService replaces the global token service (primarily for testing)
func SetTokenService(svc *TokenService) {
	tokenServiceInstance = svc
}

// Issue signs a token whose subject is the user id
func (s *TokenService) Issue(user *models.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	token, err := jwt.Signed(s.signer).
		Claims(jwt.Claims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    s.issuer,
			Audience:  jwt.Audience{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Expiry:    jwt.NewNumericDate(expiresAt),
		}).
		Claims(RoleClaims{Role: user.Role}).
		CompactSerialize()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return token, expiresAt, nil
}
