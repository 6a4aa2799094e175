// Package memory holds map-backed repositories used by STORE_DRIVER=memory and by tests.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/yashrajoria/bistro-backend/models"
	"github.com/yashrajoria/bistro-backend/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store bundles one repository per collection over a shared menu table,
// so that payments can be joined to menu categories.
type Store struct {
	Users    *UserRepository
	Menu     *MenuRepository
	Reviews  *ReviewRepository
	Carts    *CartRepository
	Payments *PaymentRepository
}

func NewStore() *Store {
	menu := NewMenuRepository()
	return &Store{
		Users:    NewUserRepository(),
		Menu:     menu,
		Reviews:  NewReviewRepository(),
		Carts:    NewCartRepository(),
		Payments: NewPaymentRepository(menu),
	}
}

type UserRepository struct {
	mu      sync.RWMutex
	byEmail map[string]models.User
	order   []string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{byEmail: make(map[string]models.User)}
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepository) FindAll(_ context.Context) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]models.User, 0, len(r.order))
	for _, key := range r.order {
		users = append(users, r.byEmail[key])
	}
	return users, nil
}

func (r *UserRepository) InsertIfAbsent(_ context.Context, user *models.User) (bool, error) {
	key := user.Email

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[key]; ok {
		return false, nil
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	r.byEmail[key] = *user
	r.order = append(r.order, key)
	return true, nil
}

func (r *UserRepository) SetRole(_ context.Context, id primitive.ObjectID, role models.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, u := range r.byEmail {
		if u.ID == id {
			u.Role = role
			r.byEmail[key] = u
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *UserRepository) EstimatedCount(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.byEmail)), nil
}

type MenuRepository struct {
	mu    sync.RWMutex
	items map[string]models.MenuItem
	order []string
}

func NewMenuRepository() *MenuRepository {
	return &MenuRepository{items: make(map[string]models.MenuItem)}
}

func (r *MenuRepository) FindAll(_ context.Context) ([]models.MenuItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]models.MenuItem, 0, len(r.order))
	for _, id := range r.order {
		if item, ok := r.items[id]; ok {
			items = append(items, item)
		}
	}
	return items, nil
}

func (r *MenuRepository) FindByID(_ context.Context, id string) (*models.MenuItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &item, nil
}

func (r *MenuRepository) Create(_ context.Context, item *models.MenuItem) error {
	if item.ID == "" {
		item.ID = primitive.NewObjectID().Hex()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; !exists {
		r.order = append(r.order, item.ID)
	}
	r.items[item.ID] = *item
	return nil
}

func (r *MenuRepository) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return false, nil
	}
	delete(r.items, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (r *MenuRepository) EstimatedCount(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.items)), nil
}

type ReviewRepository struct {
	mu      sync.RWMutex
	reviews []models.Review
}

func NewReviewRepository() *ReviewRepository {
	return &ReviewRepository{}
}

// Add appends a review; reviews are read-only over the API.
func (r *ReviewRepository) Add(review models.Review) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if review.ID == "" {
		review.ID = primitive.NewObjectID().Hex()
	}
	r.reviews = append(r.reviews, review)
}

func (r *ReviewRepository) FindAll(_ context.Context) ([]models.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.Review{}, r.reviews...), nil
}

type CartRepository struct {
	mu      sync.RWMutex
	entries map[primitive.ObjectID]models.CartEntry
}

func NewCartRepository() *CartRepository {
	return &CartRepository{entries: make(map[primitive.ObjectID]models.CartEntry)}
}

func (r *CartRepository) FindByEmail(_ context.Context, email string) ([]models.CartEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := []models.CartEntry{}
	for _, e := range r.entries {
		if e.Email == email {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ID.Hex() < entries[j].ID.Hex()
	})
	return entries, nil
}

func (r *CartRepository) Create(_ context.Context, entry *models.CartEntry) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.ID] = *entry
	return nil
}

func (r *CartRepository) DeleteByID(_ context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[oid]; !ok {
		return false, nil
	}
	delete(r.entries, oid)
	return true, nil
}

// Exists reports whether the entry is still in the cart.
func (r *CartRepository) Exists(id primitive.ObjectID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[id]
	return ok
}

// MenuFinder resolves menu references for the category join.
type MenuFinder interface {
	FindByID(ctx context.Context, id string) (*models.MenuItem, error)
}

type PaymentRepository struct {
	mu       sync.RWMutex
	payments []models.Payment
	menu     MenuFinder
}

func NewPaymentRepository(menu MenuFinder) *PaymentRepository {
	return &PaymentRepository{menu: menu}
}

func (r *PaymentRepository) Insert(_ context.Context, payment *models.Payment) (primitive.ObjectID, error) {
	if payment.ID.IsZero() {
		payment.ID = primitive.NewObjectID()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments = append(r.payments, clonePayment(*payment))
	return payment.ID, nil
}

func (r *PaymentRepository) FindAll(_ context.Context) ([]models.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Payment, 0, len(r.payments))
	for _, p := range r.payments {
		out = append(out, clonePayment(p))
	}
	return out, nil
}

func (r *PaymentRepository) EstimatedCount(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.payments)), nil
}

// AggregateByCategory joins per reference: an item referenced by two payments counts twice.
// References to menu items that no longer exist are skipped.
func (r *PaymentRepository) AggregateByCategory(ctx context.Context) ([]models.CategoryTotal, error) {
	payments, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	var totals []models.CategoryTotal
	for _, p := range payments {
		for _, ref := range p.MenuItems {
			item, err := r.menu.FindByID(ctx, ref)
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}

			i, ok := index[item.Category]
			if !ok {
				i = len(totals)
				index[item.Category] = i
				totals = append(totals, models.CategoryTotal{Category: item.Category})
			}
			totals[i].ItemCount++
			totals[i].Total = totals[i].Total.Add(decimal.NewFromFloat(item.Price))
		}
	}
	return totals, nil
}

func clonePayment(p models.Payment) models.Payment {
	p.CartItems = append([]string(nil), p.CartItems...)
	p.MenuItems = append([]string(nil), p.MenuItems...)
	p.ItemNames = append([]string(nil), p.ItemNames...)
	return p
}

var (
	_ repository.UserRepository    = (*UserRepository)(nil)
	_ repository.MenuRepository    = (*MenuRepository)(nil)
	_ repository.ReviewRepository  = (*ReviewRepository)(nil)
	_ repository.CartRepository    = (*CartRepository)(nil)
	_ repository.PaymentRepository = (*PaymentRepository)(nil)
)
