package services

import (
	"context"
	"errors"
	"strings"

	"github.com/yashrajoria/bistro-backend/common/auth"
	apperrors "github.com/yashrajoria/bistro-backend/common/errors"
	"github.com/yashrajoria/bistro-backend/common/logger"
	"github.com/yashrajoria/bistro-backend/models"
	"github.com/yashrajoria/bistro-backend/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// TokenIssuer is the signing half of auth.TokenManager.
type TokenIssuer interface {
	Issue(identity auth.IdentityClaims) (string, error)
}

type AuthService struct {
	tokens TokenIssuer
	users  repository.UserRepository
}

func NewAuthService(tokens TokenIssuer, users repository.UserRepository) *AuthService {
	return &AuthService{tokens: tokens, users: users}
}

func (s *AuthService) IssueToken(identity auth.IdentityClaims) (string, error) {
	return s.tokens.Issue(identity)
}

// Register inserts the user unless one with the same email exists. New users
// never start as admin.
func (s *AuthService) Register(ctx context.Context, user *models.User) (bool, error) {
	user.Email = strings.TrimSpace(user.Email)
	if err := validateStruct(user); err != nil {
		return false, err
	}
	user.ID = primitive.NilObjectID
	user.Role = models.RoleNone

	inserted, err := s.users.InsertIfAbsent(ctx, user)
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrServiceUnavailable, err)
	}
	return inserted, nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrServiceUnavailable, err)
	}
	return users, nil
}

// Promote grants admin. There is no way back to RoleNone.
func (s *AuthService) Promote(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperrors.Validation("invalid user id")
	}

	err = s.users.SetRole(ctx, oid, models.RoleAdmin)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.ErrNotFound
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrServiceUnavailable, err)
	}
	logger.Info(ctx, "User promoted to admin", zap.String("user_id", id))
	return nil
}
