package services

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/yashrajoria/bistro-backend/models"
	"github.com/yashrajoria/bistro-backend/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Mocks for Dependencies ---

type MockUserRepository struct{ mock.Mock }

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *MockUserRepository) FindAll(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}
func (m *MockUserRepository) InsertIfAbsent(ctx context.Context, user *models.User) (bool, error) {
	args := m.Called(ctx, user)
	return args.Bool(0), args.Error(1)
}
func (m *MockUserRepository) SetRole(ctx context.Context, id primitive.ObjectID, role models.Role) error {
	args := m.Called(ctx, id, role)
	return args.Error(0)
}
func (m *MockUserRepository) EstimatedCount(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockCartRepository struct{ mock.Mock }

func (m *MockCartRepository) FindByEmail(ctx context.Context, email string) ([]models.CartEntry, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CartEntry), args.Error(1)
}
func (m *MockCartRepository) Create(ctx context.Context, entry *models.CartEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}
func (m *MockCartRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type MockPaymentRepository struct{ mock.Mock }

func (m *MockPaymentRepository) Insert(ctx context.Context, payment *models.Payment) (primitive.ObjectID, error) {
	args := m.Called(ctx, payment)
	return args.Get(0).(primitive.ObjectID), args.Error(1)
}
func (m *MockPaymentRepository) FindAll(ctx context.Context) ([]models.Payment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Payment), args.Error(1)
}
func (m *MockPaymentRepository) EstimatedCount(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockPaymentRepository) AggregateByCategory(ctx context.Context) ([]models.CategoryTotal, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CategoryTotal), args.Error(1)
}

type MockMenuRepository struct{ mock.Mock }

func (m *MockMenuRepository) FindAll(ctx context.Context) ([]models.MenuItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MenuItem), args.Error(1)
}
func (m *MockMenuRepository) FindByID(ctx context.Context, id string) (*models.MenuItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MenuItem), args.Error(1)
}
func (m *MockMenuRepository) Create(ctx context.Context, item *models.MenuItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}
func (m *MockMenuRepository) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}
func (m *MockMenuRepository) EstimatedCount(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type fakePublisher struct {
	mu       sync.Mutex
	topics   []string
	types    []string
	messages [][]byte
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, topicArn, eventType string, message []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics = append(f.topics, topicArn)
	f.types = append(f.types, eventType)
	f.messages = append(f.messages, message)
	return f.err
}

func repositoryNotFound() error { return repository.ErrNotFound }
