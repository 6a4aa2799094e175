package services

import (
	"context"
	"strings"

	apperrors "github.com/yashrajoria/bistro-backend/common/errors"
	"github.com/yashrajoria/bistro-backend/models"
	"github.com/yashrajoria/bistro-backend/repository"
)

type CartService struct {
	carts repository.CartRepository
}

func NewCartService(carts repository.CartRepository) *CartService {
	return &CartService{carts: carts}
}

// List returns the requested cart, which must belong to subject. An empty
// request yields an empty cart.
func (s *CartService) List(ctx context.Context, subject, email string) ([]models.CartEntry, error) {
	if email == "" {
		return []models.CartEntry{}, nil
	}
	if !strings.EqualFold(subject, email) {
		return nil, apperrors.ErrForbidden
	}
	entries, err := s.carts.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrServiceUnavailable, err)
	}
	return entries, nil
}

func (s *CartService) Add(ctx context.Context, entry *models.CartEntry) error {
	if err := validateStruct(entry); err != nil {
		return err
	}
	if err := s.carts.Create(ctx, entry); err != nil {
		return apperrors.Wrap(apperrors.ErrServiceUnavailable, err)
	}
	return nil
}

// Remove is idempotent: removing an absent entry reports false.
func (s *CartService) Remove(ctx context.Context, id string) (bool, error) {
	deleted, err := s.carts.DeleteByID(ctx, id)
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrServiceUnavailable, err)
	}
	return deleted, nil
}
