package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v80"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/yashrajoria/bistro-backend/common/auth"
	apperrors "github.com/yashrajoria/bistro-backend/common/errors"
	"github.com/yashrajoria/bistro-backend/middleware"
	"github.com/yashrajoria/bistro-backend/models"
)

// --- Mock Services ---

type MockAuthService struct{ mock.Mock }

func (m *MockAuthService) IssueToken(identity auth.IdentityClaims) (string, error) {
	args := m.Called(identity)
	return args.String(0), args.Error(1)
}
func (m *MockAuthService) Register(ctx context.Context, user *models.User) (bool, error) {
	args := m.Called(ctx, user)
	return args.Bool(0), args.Error(1)
}
func (m *MockAuthService) ListUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}
func (m *MockAuthService) Promote(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockAdminStatus struct{ mock.Mock }

func (m *MockAdminStatus) AdminStatus(ctx context.Context, claims *auth.Claims, email string) (bool, error) {
	args := m.Called(ctx, claims, email)
	return args.Bool(0), args.Error(1)
}

type MockCartService struct{ mock.Mock }

func (m *MockCartService) List(ctx context.Context, subject, email string) ([]models.CartEntry, error) {
	args := m.Called(ctx, subject, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CartEntry), args.Error(1)
}
func (m *MockCartService) Add(ctx context.Context, entry *models.CartEntry) error {
	return m.Called(ctx, entry).Error(0)
}
func (m *MockCartService) Remove(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type MockGateway struct{ mock.Mock }

func (m *MockGateway) Reserve(ctx context.Context, amount decimal.Decimal, currency string) (string, error) {
	args := m.Called(ctx, amount.String(), currency)
	return args.String(0), args.Error(1)
}
func (m *MockGateway) ParseWebhook(payload []byte, signature string) (stripe.Event, error) {
	args := m.Called(payload, signature)
	return args.Get(0).(stripe.Event), args.Error(1)
}

type MockSettlement struct{ mock.Mock }

func (m *MockSettlement) Settle(ctx context.Context, payment *models.Payment) (*models.SettlementResult, error) {
	args := m.Called(ctx, payment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SettlementResult), args.Error(1)
}

type MockStatsService struct{ mock.Mock }

func (m *MockStatsService) Summary(ctx context.Context) (*models.SummaryStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SummaryStats), args.Error(1)
}
func (m *MockStatsService) CategoryStats(ctx context.Context) ([]models.CategoryStat, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CategoryStat), args.Error(1)
}

// --- Helpers ---

func newRouter(subject string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(apperrors.ErrorMiddleware())
	if subject != "" {
		r.Use(func(c *gin.Context) {
			c.Set(middleware.ClaimsKey, &auth.Claims{Email: subject})
			c.Next()
		})
	}
	return r
}

func perform(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, req)
	return recorder
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// --- Tests ---

func TestAuthController_IssueToken(t *testing.T) {
	mockService := new(MockAuthService)
	ctrl := NewAuthController(mockService, new(MockAdminStatus))
	r := newRouter("")
	r.POST("/jwt", ctrl.IssueToken)

	mockService.On("IssueToken", auth.IdentityClaims{Email: "guest@bistro.test", Name: "Guest"}).Return("signed.jwt.token", nil).Once()
	w := perform(r, http.MethodPost, "/jwt", `{"email":"guest@bistro.test","name":"Guest"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "signed.jwt.token", decode(t, w)["token"])

	w = perform(r, http.MethodPost, "/jwt", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertExpectations(t)
}

func TestAuthController_Register(t *testing.T) {
	mockService := new(MockAuthService)
	ctrl := NewAuthController(mockService, new(MockAdminStatus))
	r := newRouter("")
	r.POST("/users", ctrl.Register)

	t.Run("Created", func(t *testing.T) {
		mockService.On("Register", mock.Anything, mock.MatchedBy(func(u *models.User) bool { return u.Email == "new@bistro.test" })).Return(true, nil).Once()
		w := perform(r, http.MethodPost, "/users", `{"name":"New","email":"new@bistro.test"}`)
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("Already exists", func(t *testing.T) {
		mockService.On("Register", mock.Anything, mock.Anything).Return(false, nil).Once()
		w := perform(r, http.MethodPost, "/users", `{"email":"old@bistro.test"}`)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "User already exist", decode(t, w)["message"])
	})

	mockService.AssertExpectations(t)
}

func TestAuthController_AdminStatusUsesCallerClaims(t *testing.T) {
	gate := new(MockAdminStatus)
	ctrl := NewAuthController(new(MockAuthService), gate)
	r := newRouter("guest@bistro.test")
	r.GET("/users/admin/:email", ctrl.AdminStatus)

	gate.On("AdminStatus", mock.Anything, &auth.Claims{Email: "guest@bistro.test"}, "chef@bistro.test").Return(false, nil).Once()
	w := perform(r, http.MethodGet, "/users/admin/chef@bistro.test", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["admin"])
	gate.AssertExpectations(t)
}

func TestAuthController_Promote(t *testing.T) {
	mockService := new(MockAuthService)
	ctrl := NewAuthController(mockService, new(MockAdminStatus))
	r := newRouter("chef@bistro.test")
	r.PATCH("/users/admin/:id", ctrl.Promote)

	id := primitive.NewObjectID().Hex()
	mockService.On("Promote", mock.Anything, id).Return(nil).Once()
	assert.Equal(t, http.StatusOK, perform(r, http.MethodPatch, "/users/admin/"+id, "").Code)

	mockService.On("Promote", mock.Anything, "missing").Return(apperrors.ErrNotFound).Once()
	assert.Equal(t, http.StatusNotFound, perform(r, http.MethodPatch, "/users/admin/missing", "").Code)
	mockService.AssertExpectations(t)
}

func TestCartController(t *testing.T) {
	mockService := new(MockCartService)
	ctrl := NewCartController(mockService)
	r := newRouter("guest@bistro.test")
	r.GET("/carts", ctrl.GetCart)
	r.DELETE("/carts/:id", ctrl.RemoveFromCart)

	t.Run("Own cart", func(t *testing.T) {
		mockService.On("List", mock.Anything, "guest@bistro.test", "guest@bistro.test").
			Return([]models.CartEntry{{Email: "guest@bistro.test", MenuItemID: "m1"}}, nil).Once()
		w := perform(r, http.MethodGet, "/carts?email=guest@bistro.test", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "m1")
	})

	t.Run("Someone else's cart", func(t *testing.T) {
		mockService.On("List", mock.Anything, "guest@bistro.test", "chef@bistro.test").Return(nil, apperrors.ErrForbidden).Once()
		w := perform(r, http.MethodGet, "/carts?email=chef@bistro.test", "")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "forbidden access", decode(t, w)["message"])
	})

	t.Run("Remove twice", func(t *testing.T) {
		mockService.On("Remove", mock.Anything, "c1").Return(true, nil).Once()
		mockService.On("Remove", mock.Anything, "c1").Return(false, nil).Once()
		assert.Equal(t, float64(1), decode(t, perform(r, http.MethodDelete, "/carts/c1", ""))["deletedCount"])
		assert.Equal(t, float64(0), decode(t, perform(r, http.MethodDelete, "/carts/c1", ""))["deletedCount"])
	})

	mockService.AssertExpectations(t)
}

func TestPaymentController_CreatePaymentIntent(t *testing.T) {
	gateway := new(MockGateway)
	ctrl := NewPaymentController(gateway, new(MockSettlement))
	r := newRouter("guest@bistro.test")
	r.POST("/create-payment-intent", ctrl.CreatePaymentIntent)

	gateway.On("Reserve", mock.Anything, "19.99", "").Return("pi_secret", nil).Once()
	w := perform(r, http.MethodPost, "/create-payment-intent", `{"price":19.99}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pi_secret", decode(t, w)["clientSecret"])

	w = perform(r, http.MethodPost, "/create-payment-intent", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	gateway.On("Reserve", mock.Anything, "5", "").Return("", apperrors.Wrap(apperrors.ErrPaymentFailed, errors.New("card_declined"))).Once()
	w = perform(r, http.MethodPost, "/create-payment-intent", `{"price":5}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotContains(t, w.Body.String(), "card_declined")
	gateway.AssertExpectations(t)
}

func TestPaymentController_Settle(t *testing.T) {
	settlement := new(MockSettlement)
	ctrl := NewPaymentController(new(MockGateway), settlement)
	r := newRouter("guest@bistro.test")
	r.POST("/payments", ctrl.Settle)
	id := primitive.NewObjectID()

	t.Run("Settled", func(t *testing.T) {
		settlement.On("Settle", mock.Anything, mock.MatchedBy(func(p *models.Payment) bool {
			return p.Email == "guest@bistro.test" && len(p.CartItems) == 2
		})).Return(&models.SettlementResult{InsertedID: id, Requested: 2, Retracted: 1}, nil).Once()

		w := perform(r, http.MethodPost, "/payments", `{"email":"guest@bistro.test","price":16,"cartItems":["a","b"],"menuItems":["m1","m2"]}`)
		assert.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, id.Hex(), body["insertedId"])
		assert.Equal(t, float64(1), body["retractedCount"])
		assert.Equal(t, float64(2), body["requestedCount"])
	})

	t.Run("Insert failed", func(t *testing.T) {
		settlement.On("Settle", mock.Anything, mock.Anything).Return(nil, apperrors.Wrap(apperrors.ErrServiceUnavailable, errors.New("no servers"))).Once()
		w := perform(r, http.MethodPost, "/payments", `{"email":"guest@bistro.test","price":16}`)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.NotContains(t, w.Body.String(), "insertedId")
	})

	t.Run("Recorded but retraction interrupted", func(t *testing.T) {
		settlement.On("Settle", mock.Anything, mock.Anything).
			Return(&models.SettlementResult{InsertedID: id, Requested: 2, Retracted: 0}, apperrors.Wrap(apperrors.ErrServiceUnavailable, errors.New("socket closed"))).Once()
		w := perform(r, http.MethodPost, "/payments", `{"email":"guest@bistro.test","price":16,"cartItems":["a","b"]}`)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, id.Hex(), decode(t, w)["insertedId"])
	})

	settlement.AssertExpectations(t)
}

func TestPaymentController_Webhook(t *testing.T) {
	gateway := new(MockGateway)
	ctrl := NewPaymentController(gateway, new(MockSettlement))
	r := newRouter("")
	r.POST("/webhooks/stripe", ctrl.Webhook)

	gateway.On("ParseWebhook", []byte(`{"id":"evt_1"}`), "").
		Return(stripe.Event{ID: "evt_1", Type: stripe.EventTypePaymentIntentSucceeded}, nil).Once()
	assert.Equal(t, http.StatusOK, perform(r, http.MethodPost, "/webhooks/stripe", `{"id":"evt_1"}`).Code)

	gateway.On("ParseWebhook", []byte(`forged`), "").
		Return(stripe.Event{}, apperrors.Wrap(apperrors.ErrBadRequest, errors.New("bad signature"))).Once()
	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodPost, "/webhooks/stripe", `forged`).Code)
	gateway.AssertExpectations(t)
}

func TestStatsController(t *testing.T) {
	mockService := new(MockStatsService)
	ctrl := NewStatsController(mockService)
	r := newRouter("chef@bistro.test")
	r.GET("/admin-stats", ctrl.AdminStats)
	r.GET("/order-stats", ctrl.OrderStats)

	mockService.On("Summary", mock.Anything).Return(&models.SummaryStats{
		Revenue: decimal.RequireFromString("19.75"), Users: 2, Products: 5, Orders: 3,
	}, nil).Once()
	w := perform(r, http.MethodGet, "/admin-stats", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"orders":3`)
	assert.Contains(t, w.Body.String(), "19.75")

	mockService.On("CategoryStats", mock.Anything).Return([]models.CategoryStat{
		{Category: "Salad", ItemCount: 2, Price: decimal.RequireFromString("16.00")},
	}, nil).Once()
	w = perform(r, http.MethodGet, "/order-stats", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"category":"Salad"`)

	mockService.On("Summary", mock.Anything).Return(nil, apperrors.Wrap(apperrors.ErrServiceUnavailable, errors.New("timeout"))).Once()
	assert.Equal(t, http.StatusServiceUnavailable, perform(r, http.MethodGet, "/admin-stats", "").Code)
	mockService.AssertExpectations(t)
}

func TestHealth(t *testing.T) {
	r := newRouter("")
	r.GET("/ok", Health(nil))
	r.GET("/down", Health(func(context.Context) error { return errors.New("no servers") }))
	r.GET("/", Root)

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/ok", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, perform(r, http.MethodGet, "/down", "").Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", "").Code)
}
