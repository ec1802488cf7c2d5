package service

import (
	"context"
	"sync"
	"testing"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/cache"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testDeps struct {
	db           *gorm.DB
	userRepo     repository.UserRepository
	productRepo  repository.ProductRepository
	cartRepo     repository.CartRepository
	favoriteRepo repository.FavoriteRepository
	resetRepo    repository.PasswordResetRepository
	checkoutRepo repository.CheckoutRepository
}

func setupDeps(t *testing.T) *testDeps {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	return &testDeps{
		db:           testDB,
		userRepo:     repository.NewUserRepository(testDB),
		productRepo:  repository.NewProductRepository(testDB),
		cartRepo:     repository.NewCartRepository(testDB),
		favoriteRepo: repository.NewFavoriteRepository(testDB),
		resetRepo:    repository.NewPasswordResetRepository(testDB),
		checkoutRepo: repository.NewCheckoutRepository(testDB),
	}
}

func (d *testDeps) user(t *testing.T, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, PasswordHash: "hash", Name: "Shopper", Role: model.RoleUser}
	require.NoError(t, d.db.Create(user).Error)
	return user
}

func (d *testDeps) product(t *testing.T, name, price string) *model.Product {
	t.Helper()
	product := &model.Product{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		ImageURL: "https://cdn.example.com/" + name + ".jpg",
	}
	require.NoError(t, d.db.Create(product).Error)
	return product
}

// memCartCache is an in-process CartCache used to observe cache traffic.
type memCartCache struct {
	mu       sync.Mutex
	lines    map[uint][]model.CartItem
	versions map[uint]int64
	sets     int
}

func newMemCartCache() *memCartCache {
	return &memCartCache{
		lines:    make(map[uint][]model.CartItem),
		versions: make(map[uint]int64),
	}
}

func (c *memCartCache) Get(_ context.Context, userID uint) ([]model.CartItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, ok := c.lines[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return append([]model.CartItem(nil), items...), nil
}

func (c *memCartCache) Version(_ context.Context, userID uint) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[userID], nil
}

func (c *memCartCache) Set(_ context.Context, userID uint, version int64, items []model.CartItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.versions[userID] != version {
		return cache.ErrStaleVersion
	}
	stored := make([]model.CartItem, 0, len(items))
	for _, item := range items {
		item.Product = model.Product{}
		stored = append(stored, item)
	}
	c.lines[userID] = stored
	c.sets++
	return nil
}

func (c *memCartCache) Invalidate(_ context.Context, userID uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions[userID]++
	delete(c.lines, userID)
	return nil
}

// hookedCartRepo runs afterFind once, right after the next FindByUserID
// returns, to interleave a write with a read.
type hookedCartRepo struct {
	repository.CartRepository
	afterFind func()
}

func (r *hookedCartRepo) FindByUserID(ctx context.Context, userID uint) ([]model.CartItem, error) {
	items, err := r.CartRepository.FindByUserID(ctx, userID)
	if hook := r.afterFind; hook != nil {
		r.afterFind = nil
		hook()
	}
	return items, err
}
