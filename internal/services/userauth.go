package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserAuthService validates the bearer tokens that carry the opaque
// authenticated user id for the management surface. Identity itself is
// issued elsewhere; this service only verifies the HS256 signature and
// extracts the subject.
type UserAuthService struct {
	secret []byte
}

func NewUserAuthService(secret string) *UserAuthService {
	return &UserAuthService{secret: []byte(secret)}
}

// ValidateToken returns the user id from a signed token's subject claim.
func (s *UserAuthService) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token claims")
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("token has no subject")
	}

	return claims.Subject, nil
}

// GenerateToken mints a token for a user id. Used by tooling and tests.
func (s *UserAuthService) GenerateToken(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		NotBefore: jwt.NewNumericDate(now),
		Issuer:    "github.com/opencurio/keygate",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}
