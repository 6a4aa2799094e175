package services

import (
	"context"

	"github.com/shopspring/decimal"
	apperrors "github.com/yashrajoria/bistro-backend/common/errors"
	"github.com/yashrajoria/bistro-backend/models"
	"github.com/yashrajoria/bistro-backend/repository"
	"golang.org/x/sync/errgroup"
)

// StatsService answers the admin reporting queries. It only reads.
type StatsService struct {
	users    repository.UserRepository
	menu     repository.MenuRepository
	payments repository.PaymentRepository
}

func NewStatsService(users repository.UserRepository, menu repository.MenuRepository, payments repository.PaymentRepository) *StatsService {
	return &StatsService{users: users, menu: menu, payments: payments}
}

// Summary counts are estimates; revenue is the exact sum of every payment.
func (s *StatsService) Summary(ctx context.Context) (*models.SummaryStats, error) {
	var stats models.SummaryStats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		stats.Users, err = s.users.EstimatedCount(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Products, err = s.menu.EstimatedCount(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Orders, err = s.payments.EstimatedCount(gctx)
		return err
	})
	g.Go(func() error {
		payments, err := s.payments.FindAll(gctx)
		if err != nil {
			return err
		}
		stats.Revenue = Revenue(payments)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrServiceUnavailable, err)
	}
	return &stats, nil
}

// Revenue sums paid amounts without intermediate rounding.
func Revenue(payments []models.Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(decimal.NewFromFloat(p.Price))
	}
	return total
}

// CategoryStats rounds each category total half-up to cents. Nothing is
// rounded before this point.
func (s *StatsService) CategoryStats(ctx context.Context) ([]models.CategoryStat, error) {
	totals, err := s.payments.AggregateByCategory(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrServiceUnavailable, err)
	}

	out := make([]models.CategoryStat, 0, len(totals))
	for _, t := range totals {
		out = append(out, models.CategoryStat{
			Category:  t.Category,
			ItemCount: t.ItemCount,
			Price:     t.Total.Round(2),
		})
	}
	return out, nil
}
