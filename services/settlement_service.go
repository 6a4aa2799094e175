package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	apperrors "github.com/yashrajoria/bistro-backend/common/errors"
	"github.com/yashrajoria/bistro-backend/common/logger"
	"github.com/yashrajoria/bistro-backend/models"
	awspkg "github.com/yashrajoria/bistro-backend/pkg/aws"
	"github.com/yashrajoria/bistro-backend/repository"
	"go.uber.org/zap"
)

const EventPaymentSettled = "payment_settled"

// PaymentSettledEvent is published after a payment has been recorded.
type PaymentSettledEvent struct {
	Type       string    `json:"type"`
	PaymentID  string    `json:"payment_id"`
	Email      string    `json:"email"`
	Price      float64   `json:"price"`
	MenuItems  []string  `json:"menu_items"`
	Requested  int       `json:"requested_count"`
	Retracted  int       `json:"retracted_count"`
	OccurredAt time.Time `json:"occurred_at"`
}

// SettlementService records a confirmed payment and then retracts the cart
// entries it pays for. The two steps commit independently: a failure after
// the insert leaves stale cart entries, which a later retry removes.
type SettlementService struct {
	payments  repository.PaymentRepository
	carts     repository.CartRepository
	publisher awspkg.SNSPublisher
	topicArn  string
	metrics   awspkg.MetricsRecorder
	now       func() time.Time
}

func NewSettlementService(payments repository.PaymentRepository, carts repository.CartRepository, publisher awspkg.SNSPublisher, topicArn string, metrics awspkg.MetricsRecorder) *SettlementService {
	return &SettlementService{
		payments:  payments,
		carts:     carts,
		publisher: publisher,
		topicArn:  topicArn,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Settle inserts the payment and retracts its cart entries. Entries that are
// already gone are skipped and only lower the Retracted count. Cart ids are
// not checked against the payer.
func (s *SettlementService) Settle(ctx context.Context, payment *models.Payment) (*models.SettlementResult, error) {
	payment.Email = strings.TrimSpace(payment.Email)
	if err := validateStruct(payment); err != nil {
		return nil, err
	}
	if payment.Date.IsZero() {
		payment.Date = s.now().UTC()
	}

	insertedID, err := s.payments.Insert(ctx, payment)
	if err != nil {
		logger.Error(ctx, "Payment insert failed, cart left untouched", err, zap.String("email", payment.Email))
		return nil, apperrors.Wrap(apperrors.ErrServiceUnavailable, err)
	}

	result := &models.SettlementResult{InsertedID: insertedID, Requested: len(payment.CartItems)}
	for _, cartID := range payment.CartItems {
		deleted, err := s.carts.DeleteByID(ctx, cartID)
		if err != nil {
			logger.Error(ctx, "Cart retraction interrupted", err,
				zap.String("payment_id", insertedID.Hex()),
				zap.String("cart_id", cartID),
				zap.Int("retracted", result.Retracted),
			)
			return result, apperrors.Wrap(apperrors.ErrServiceUnavailable, err)
		}
		if !deleted {
			logger.Info(ctx, "Cart entry already removed", zap.String("payment_id", insertedID.Hex()), zap.String("cart_id", cartID))
			continue
		}
		result.Retracted++
	}

	logger.Info(ctx, "Payment settled",
		zap.String("payment_id", insertedID.Hex()),
		zap.Int("requested", result.Requested),
		zap.Int("retracted", result.Retracted),
	)
	s.publishSettled(ctx, payment, result)
	recordValue(ctx, s.metrics, awspkg.MetricPaymentsSettled, 1)
	recordValue(ctx, s.metrics, awspkg.MetricCartItemsRetracted, float64(result.Retracted))
	return result, nil
}

func (s *SettlementService) publishSettled(ctx context.Context, payment *models.Payment, result *models.SettlementResult) {
	if s.publisher == nil || s.topicArn == "" {
		return
	}
	body, err := json.Marshal(PaymentSettledEvent{
		Type:       EventPaymentSettled,
		PaymentID:  result.InsertedID.Hex(),
		Email:      payment.Email,
		Price:      payment.Price,
		MenuItems:  payment.MenuItems,
		Requested:  result.Requested,
		Retracted:  result.Retracted,
		OccurredAt: s.now().UTC(),
	})
	if err != nil {
		logger.Error(ctx, "Failed to encode payment_settled event", err)
		return
	}
	if err := s.publisher.Publish(ctx, s.topicArn, EventPaymentSettled, body); err != nil {
		logger.Warn(ctx, "Failed to publish payment_settled event", zap.String("payment_id", result.InsertedID.Hex()), zap.Error(err))
	}
}
