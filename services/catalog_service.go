package services

import (
	"context"

	"github.com/yashrajoria/bistro-backend/cache"
	apperrors "github.com/yashrajoria/bistro-backend/common/errors"
	"github.com/yashrajoria/bistro-backend/common/logger"
	"github.com/yashrajoria/bistro-backend/models"
	awspkg "github.com/yashrajoria/bistro-backend/pkg/aws"
	"github.com/yashrajoria/bistro-backend/repository"
	"go.uber.org/zap"
)

// CatalogService serves the menu and reviews. The menu listing goes through
// the Redis cache when one is configured.
type CatalogService struct {
	menu    repository.MenuRepository
	reviews repository.ReviewRepository
	cache   *cache.MenuCache
	metrics awspkg.MetricsRecorder
}

func NewCatalogService(menu repository.MenuRepository, reviews repository.ReviewRepository, menuCache *cache.MenuCache, metrics awspkg.MetricsRecorder) *CatalogService {
	return &CatalogService{menu: menu, reviews: reviews, cache: menuCache, metrics: metrics}
}

func (s *CatalogService) Menu(ctx context.Context) ([]models.MenuItem, error) {
	// version is read before the store so a concurrent invalidation wins
	items, version, ok := s.cache.Get(ctx)
	if ok {
		recordValue(ctx, s.metrics, awspkg.MetricMenuCacheHits, 1)
		return items, nil
	}
	recordValue(ctx, s.metrics, awspkg.MetricMenuCacheMisses, 1)

	items, err := s.menu.FindAll(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrServiceUnavailable, err)
	}
	s.cache.SetAsync(version, items)
	return items, nil
}

func (s *CatalogService) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	if err := validateStruct(item); err != nil {
		return err
	}
	if err := s.menu.Create(ctx, item); err != nil {
		return apperrors.Wrap(apperrors.ErrServiceUnavailable, err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) DeleteMenuItem(ctx context.Context, id string) error {
	deleted, err := s.menu.Delete(ctx, id)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrServiceUnavailable, err)
	}
	if !deleted {
		return apperrors.ErrNotFound
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) Reviews(ctx context.Context) ([]models.Review, error) {
	reviews, err := s.reviews.FindAll(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrServiceUnavailable, err)
	}
	return reviews, nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		logger.Error(ctx, "Failed to invalidate menu cache", err, zap.String("component", "catalog"))
	}
}
