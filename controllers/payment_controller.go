package controllers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"

	apperrors "github.com/yashrajoria/bistro-backend/common/errors"
	"github.com/yashrajoria/bistro-backend/common/logger"
	"github.com/yashrajoria/bistro-backend/models"
)

type PaymentGatewayAPI interface {
	Reserve(ctx context.Context, amount decimal.Decimal, currency string) (string, error)
	ParseWebhook(payload []byte, signature string) (stripe.Event, error)
}

type SettlementAPI interface {
	Settle(ctx context.Context, payment *models.Payment) (*models.SettlementResult, error)
}

type PaymentController struct {
	gateway    PaymentGatewayAPI
	settlement SettlementAPI
}

func NewPaymentController(gateway PaymentGatewayAPI, settlement SettlementAPI) *PaymentController {
	return &PaymentController{gateway: gateway, settlement: settlement}
}

// CreatePaymentIntent reserves {price} with the payment provider.
func (pc *PaymentController) CreatePaymentIntent(c *gin.Context) {
	var req models.PaymentIntentRequest
	if !bindJSON(c, &req) {
		return
	}
	secret, err := pc.gateway.Reserve(c.Request.Context(), decimal.NewFromFloat(req.Price), "")
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clientSecret": secret})
}

// Settle records a confirmed payment and clears the paid cart entries.
func (pc *PaymentController) Settle(c *gin.Context) {
	var payment models.Payment
	if !bindJSON(c, &payment) {
		return
	}

	result, err := pc.settlement.Settle(c.Request.Context(), &payment)
	if err != nil && result != nil {
		// the payment is recorded; tell the client so it does not pay again
		appErr := apperrors.StatusOf(err)
		_ = c.Error(err)
		c.JSON(appErr.Code, gin.H{
			"error":          true,
			"message":        appErr.Message,
			"insertedId":     result.InsertedID,
			"requestedCount": result.Requested,
			"retractedCount": result.Retracted,
		})
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Webhook accepts signed provider events. Only payment intent outcomes are logged.
func (pc *PaymentController) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<16))
	if err != nil {
		fail(c, apperrors.Wrap(apperrors.ErrBadRequest, err))
		return
	}
	event, err := pc.gateway.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		logger.Warn(c, "Stripe webhook signature verification failed", zap.Error(err))
		fail(c, err)
		return
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded, stripe.EventTypePaymentIntentPaymentFailed:
		logger.Info(c, "Payment intent update", zap.String("event_type", string(event.Type)), zap.String("event_id", event.ID))
	default:
		logger.Info(c, "Unhandled webhook event type", zap.String("event_type", string(event.Type)))
	}
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

