package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/servimarket/session-service/internal/core/domain"
)

// JWTIssuer signs HS256 bearer tokens describing an identity.
type JWTIssuer struct {
	secret   string
	tokenTTL time.Duration
}

func NewJWTIssuer(secret string, tokenTTL time.Duration) *JWTIssuer {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &JWTIssuer{secret: secret, tokenTTL: tokenTTL}
}

func (j *JWTIssuer) Issue(identity *domain.Identity) (string, error) {
	claims := jwt.MapClaims{
		"sub":   identity.ID,
		"email": identity.Email,
		"role":  identity.Role.String(),
		"exp":   time.Now().Add(j.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(j.secret))
}
