package services

import (
	"context"
	"errors"
	"strings"

	"github.com/yashrajoria/bistro-backend/common/auth"
	apperrors "github.com/yashrajoria/bistro-backend/common/errors"
	"github.com/yashrajoria/bistro-backend/models"
	"github.com/yashrajoria/bistro-backend/repository"
)

// TokenVerifier is the verifying half of auth.TokenManager.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// AccessGate runs the two authorization stages: token verification, then an
// optional role check against a fresh user lookup. Roles are never cached.
type AccessGate struct {
	tokens TokenVerifier
	users  repository.UserRepository
}

func NewAccessGate(tokens TokenVerifier, users repository.UserRepository) *AccessGate {
	return &AccessGate{tokens: tokens, users: users}
}

// Authenticate is stage one. It never touches the user store.
func (g *AccessGate) Authenticate(token string) (*auth.Claims, error) {
	claims, err := g.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, apperrors.ErrUnauthorized) {
			return nil, err
		}
		return nil, apperrors.Wrap(apperrors.ErrUnauthorized, err)
	}
	return claims, nil
}

// RequireRole is stage two. Without claims from stage one it fails as
// unauthenticated and the store is not consulted.
func (g *AccessGate) RequireRole(ctx context.Context, claims *auth.Claims, required models.Role) error {
	if claims == nil || claims.Email == "" {
		return apperrors.ErrUnauthorized
	}
	if !required.IsAdmin() {
		return nil
	}

	user, err := g.users.FindByEmail(ctx, claims.Email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.ErrForbidden
	case err != nil:
		return apperrors.Wrap(apperrors.ErrServiceUnavailable, err)
	case !user.Role.IsAdmin():
		return apperrors.ErrForbidden
	}
	return nil
}

// Authorize runs both stages in order.
func (g *AccessGate) Authorize(ctx context.Context, token string, required models.Role) (*auth.Claims, error) {
	claims, err := g.Authenticate(token)
	if err != nil {
		return nil, err
	}
	if err := g.RequireRole(ctx, claims, required); err != nil {
		return nil, err
	}
	return claims, nil
}

// IsSelf reports whether the verified subject is the target email.
func (g *AccessGate) IsSelf(claims *auth.Claims, email string) bool {
	if claims == nil || email == "" {
		return false
	}
	return strings.EqualFold(claims.Email, email)
}

// AdminStatus answers "am I an admin" for the caller only. Asking about
// anyone else reports false without a lookup.
func (g *AccessGate) AdminStatus(ctx context.Context, claims *auth.Claims, email string) (bool, error) {
	if !g.IsSelf(claims, email) {
		return false, nil
	}
	user, err := g.users.FindByEmail(ctx, claims.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrServiceUnavailable, err)
	}
	return user.Role.IsAdmin(), nil
}
