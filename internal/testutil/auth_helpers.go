package testutil

import (
	"strconv"
	"testing"
	"time"

	"github.com/mobirepair/mobirepair-api/config"
	"github.com/mobirepair/mobirepair-api/models"
	jose "gopkg.in/go-jose/go-jose.v2"
	"gopkg.in/go-jose/go-jose.v2/jwt"
)

// SignToken signs a session token for user the way the API does, valid for ttl from now.
// A negative ttl yields an expired token.
func SignToken(t *testing.T, cfg *config.Config, user *models.User, ttl time.Duration) string {
	t.Helper()

	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: []byte(cfg.JWTSecret)},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		t.Fatalf("Failed to create signer: %v", err)
	}

	issuedAt := time.Now()
	if ttl < 0 {
		issuedAt = issuedAt.Add(2 * ttl)
	}
	token, err := jwt.Signed(signer).
		Claims(jwt.Claims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    cfg.JWTIssuer,
			Audience:  jwt.Audience{cfg.JWTAudience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			Expiry:    jwt.NewNumericDate(time.Now().Add(ttl)),
		}).
		Claims(map[string]interface{}{"role": user.Role}).
		CompactSerialize()
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return token
}

// BearerHeader formats token for the Authorization header
func BearerHeader(token string) string {
	return "Bearer " + token
}
