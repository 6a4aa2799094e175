package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	apperrors "github.com/yashrajoria/bistro-backend/common/errors"
)

// TokenTTL is the lifetime of every issued identity token.
const TokenTTL = time.Hour

// IdentityClaims is what a caller asks to have embedded in a token.
type IdentityClaims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Claims are recovered from a verified token.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 identity tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a manager bound to the process-wide secret.
func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    TokenTTL,
		now:    time.Now,
	}
}

// WithClock overrides the issuance clock.
func (t *TokenManager) WithClock(now func() time.Time) *TokenManager {
	return &TokenManager{secret: t.secret, ttl: t.ttl, now: now}
}

// Issue signs a token for the given identity, expiring one TTL after issuance.
func (t *TokenManager) Issue(identity IdentityClaims) (string, error) {
	email := strings.TrimSpace(identity.Email)
	if email == "" {
		return "", apperrors.Validation("email is required")
	}

	issuedAt := t.now()
	claims := Claims{
		Email: email,
		Name:  strings.TrimSpace(identity.Name),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(t.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a token string and returns its claims.
// Every failure is reported as ErrUnauthorized.
func (t *TokenManager) Verify(tokenStr string) (*Claims, error) {
	if strings.TrimSpace(tokenStr) == "" {
		return nil, apperrors.Wrap(apperrors.ErrUnauthorized, fmt.Errorf("token is required"))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil, apperrors.Wrap(apperrors.ErrUnauthorized, fmt.Errorf("invalid or expired token: %v", err))
	}
	if claims.Email == "" {
		return nil, apperrors.Wrap(apperrors.ErrUnauthorized, fmt.Errorf("token has no email claim"))
	}
	return claims, nil
}

// BearerToken extracts the credential from an Authorization header value.
func BearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
