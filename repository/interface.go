package repository

import (
	"context"
	"errors"

	"github.com/yashrajoria/bistro-backend/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned by lookups whose target does not exist.
var ErrNotFound = errors.New("not found")

// UserRepository persists registered users. Lookups are never cached.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindAll(ctx context.Context) ([]models.User, error)
	// InsertIfAbsent returns false when a user with the same email already exists.
	InsertIfAbsent(ctx context.Context, user *models.User) (bool, error)
	SetRole(ctx context.Context, id primitive.ObjectID, role models.Role) error
	EstimatedCount(ctx context.Context) (int64, error)
}

type MenuRepository interface {
	FindAll(ctx context.Context) ([]models.MenuItem, error)
	FindByID(ctx context.Context, id string) (*models.MenuItem, error)
	Create(ctx context.Context, item *models.MenuItem) error
	Delete(ctx context.Context, id string) (bool, error)
	EstimatedCount(ctx context.Context) (int64, error)
}

type ReviewRepository interface {
	FindAll(ctx context.Context) ([]models.Review, error)
}

// CartRepository stores cart entries. DeleteByID is idempotent: removing an
// absent (or unparseable) id reports false without error.
type CartRepository interface {
	FindByEmail(ctx context.Context, email string) ([]models.CartEntry, error)
	Create(ctx context.Context, entry *models.CartEntry) error
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// PaymentRepository stores settled payments. There is no update or delete.
type PaymentRepository interface {
	Insert(ctx context.Context, payment *models.Payment) (primitive.ObjectID, error)
	FindAll(ctx context.Context) ([]models.Payment, error)
	EstimatedCount(ctx context.Context) (int64, error)
	// AggregateByCategory joins every menu item reference of every payment to
	// its menu category. Totals are unrounded.
	AggregateByCategory(ctx context.Context) ([]models.CategoryTotal, error)
}
