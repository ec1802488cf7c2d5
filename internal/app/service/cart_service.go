package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/cache"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/ikkim/storefront-backend/pkg/money"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// CartCache is the read-through cache of cart lines. Set must refuse lines
// loaded before the last Invalidate for that user.
type CartCache interface {
	Get(ctx context.Context, userID uint) ([]model.CartItem, error)
	Version(ctx context.Context, userID uint) (int64, error)
	Set(ctx context.Context, userID uint, version int64, items []model.CartItem) error
	Invalidate(ctx context.Context, userID uint) error
}

type CartService interface {
	GetCart(ctx context.Context, userID uint) (*model.Cart, error)
	// LoadCart reads the cart store directly, bypassing the cache.
	LoadCart(ctx context.Context, userID uint) (*model.Cart, error)
	GetCartTotal(ctx context.Context, userID uint) (money.Money, error)
	AddToCart(ctx context.Context, userID, productID uint, quantity int) (*model.Cart, error)
	SetQuantity(ctx context.Context, userID, productID uint, quantity int) (*model.Cart, error)
	RemoveFromCart(ctx context.Context, userID, productID uint) error
	ClearCart(ctx context.Context, userID uint) error
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	cache       CartCache
	currency    string

	group singleflight.Group
}

// NewCartService builds the cart service. cache may be nil.
func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	cartCache CartCache,
	currency string,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		cache:       cartCache,
		currency:    currency,
	}
}

// GetCart serves lines from the cache when it can. Prices are always read
// from the catalog.
func (s *cartService) GetCart(ctx context.Context, userID uint) (*model.Cart, error) {
	items, err := s.cachedLines(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.assemble(userID, items)
}

func (s *cartService) LoadCart(ctx context.Context, userID uint) (*model.Cart, error) {
	return s.loadCart(ctx, userID)
}

func (s *cartService) cachedLines(ctx context.Context, userID uint) ([]model.CartItem, error) {
	if s.cache == nil {
		return s.cartRepo.FindByUserID(ctx, userID)
	}

	items, err := s.cache.Get(ctx, userID)
	if err == nil {
		return items, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		logger.Warn("Cart cache read failed", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}

	v, err, _ := s.group.Do(strconv.FormatUint(uint64(userID), 10), func() (interface{}, error) {
		version, versionErr := s.cache.Version(ctx, userID)
		items, err := s.cartRepo.FindByUserID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if versionErr != nil {
			logger.Warn("Cart cache version read failed", map[string]interface{}{
				"user_id": userID,
				"error":   versionErr.Error(),
			})
			return items, nil
		}
		if err := s.cache.Set(ctx, userID, version, items); err != nil {
			if errors.Is(err, cache.ErrStaleVersion) {
				logger.Debug("Cart changed during cache fill, not cached", map[string]interface{}{
					"user_id": userID,
				})
			} else {
				logger.Warn("Cart cache write failed", map[string]interface{}{
					"user_id": userID,
					"error":   err.Error(),
				})
			}
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.CartItem), nil
}

func (s *cartService) GetCartTotal(ctx context.Context, userID uint) (money.Money, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return money.Money{}, err
	}
	return cart.Total, nil
}

func (s *cartService) AddToCart(ctx context.Context, userID, productID uint, quantity int) (*model.Cart, error) {
	logger.Info("Adding item to cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	})

	if quantity < 1 {
		return nil, newValidationError("quantity", "must be at least 1")
	}
	if quantity > model.MaxLineItemQuantity {
		return nil, newValidationError("quantity", fmt.Sprintf("must not exceed %d", model.MaxLineItemQuantity))
	}

	if _, err := s.productRepo.FindByID(productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cannot add to cart: product not found", map[string]interface{}{
				"user_id":    userID,
				"product_id": productID,
			})
			return nil, &NotFoundError{Resource: "product", ID: productID}
		}
		return nil, err
	}

	item, err := s.cartRepo.Upsert(ctx, userID, productID, quantity)
	if err != nil {
		if errors.Is(err, repository.ErrQuantityLimitExceeded) {
			logger.Warn("Cannot add to cart: line quantity limit", map[string]interface{}{
				"user_id":    userID,
				"product_id": productID,
			})
			return nil, newValidationError("quantity", fmt.Sprintf("cart line cannot exceed %d", model.MaxLineItemQuantity))
		}
		return nil, err
	}
	s.invalidate(ctx, userID)

	logger.Info("Cart item merged", map[string]interface{}{
		"cart_item_id": item.ID,
		"user_id":      userID,
		"quantity":     item.Quantity,
	})
	return s.loadCart(ctx, userID)
}

// SetQuantity overwrites a line's quantity. Values below 1 are raised to 1.
func (s *cartService) SetQuantity(ctx context.Context, userID, productID uint, quantity int) (*model.Cart, error) {
	if quantity < 1 {
		quantity = 1
	}
	if quantity > model.MaxLineItemQuantity {
		return nil, newValidationError("quantity", fmt.Sprintf("must not exceed %d", model.MaxLineItemQuantity))
	}

	if _, err := s.cartRepo.SetQuantity(ctx, userID, productID, quantity); err != nil {
		if errors.Is(err, repository.ErrCartItemNotFound) {
			return nil, &NotFoundError{Resource: "cart item", ID: productID}
		}
		return nil, err
	}
	s.invalidate(ctx, userID)

	logger.Info("Cart item quantity set", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	})
	return s.loadCart(ctx, userID)
}

func (s *cartService) RemoveFromCart(ctx context.Context, userID, productID uint) error {
	if err := s.cartRepo.Delete(ctx, userID, productID); err != nil {
		if errors.Is(err, repository.ErrCartItemNotFound) {
			logger.Warn("Cart item not found for removal", map[string]interface{}{
				"user_id":    userID,
				"product_id": productID,
			})
			return &NotFoundError{Resource: "cart item", ID: productID}
		}
		return err
	}
	s.invalidate(ctx, userID)

	logger.Info("Cart item removed", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
	})
	return nil
}

func (s *cartService) ClearCart(ctx context.Context, userID uint) error {
	if err := s.cartRepo.DeleteByUserID(ctx, userID); err != nil {
		logger.Error("Failed to clear cart", err, map[string]interface{}{
			"user_id": userID,
		})
		return err
	}
	s.invalidate(ctx, userID)

	logger.Info("User cart cleared", map[string]interface{}{
		"user_id": userID,
	})
	return nil
}

// loadCart reads the store and assembles the view from it.
func (s *cartService) loadCart(ctx context.Context, userID uint) (*model.Cart, error) {
	items, err := s.cartRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.assemble(userID, items)
}

// assemble joins current catalog prices onto items and computes the total.
// Lines whose product was removed from the catalog are left out of the view.
func (s *cartService) assemble(userID uint, items []model.CartItem) (*model.Cart, error) {
	var missing []uint
	for _, item := range items {
		if item.Product.ID == 0 {
			missing = append(missing, item.ProductID)
		}
	}
	var products map[uint]model.Product
	if len(missing) > 0 {
		var err error
		if products, err = s.productRepo.FindByIDs(missing); err != nil {
			return nil, err
		}
	}

	cart := &model.Cart{UserID: userID, Items: make([]model.CartItem, 0, len(items))}
	for _, item := range items {
		if item.Product.ID == 0 {
			p, ok := products[item.ProductID]
			if !ok {
				logger.Warn("Cart line references unavailable product", map[string]interface{}{
					"user_id":    userID,
					"product_id": item.ProductID,
				})
				continue
			}
			item.Product = p
		}
		cart.Items = append(cart.Items, item)
	}

	total, err := money.ComputeTotal(cart.LineItems(), s.currency)
	if err != nil {
		return nil, err
	}
	cart.Total = total
	return cart, nil
}

func (s *cartService) invalidate(ctx context.Context, userID uint) {
	s.group.Forget(strconv.FormatUint(uint64(userID), 10))
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		logger.Warn("Cart cache invalidation failed", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
}
