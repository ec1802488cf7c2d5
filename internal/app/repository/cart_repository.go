package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartRepository persists cart line items. Implementations must make Upsert
// atomic per (user, product).
type CartRepository interface {
	FindByUserID(ctx context.Context, userID uint) ([]model.CartItem, error)
	FindByUserAndProduct(ctx context.Context, userID, productID uint) (*model.CartItem, error)
	Upsert(ctx context.Context, userID, productID uint, quantity int) (*model.CartItem, error)
	SetQuantity(ctx context.Context, userID, productID uint, quantity int) (*model.CartItem, error)
	Delete(ctx context.Context, userID, productID uint) error
	DeleteByUserID(ctx context.Context, userID uint) error
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) FindByUserID(ctx context.Context, userID uint) ([]model.CartItem, error) {
	logger.Debug("Finding cart items by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var items []model.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Product").
		Order("id").
		Find(&items).Error
	if err != nil {
		logger.Error("Failed to find cart items by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Debug("Cart items found by user ID in database", map[string]interface{}{
		"user_id": userID,
		"count":   len(items),
	})
	return items, nil
}

func (r *cartRepository) FindByUserAndProduct(ctx context.Context, userID, productID uint) (*model.CartItem, error) {
	var item model.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Preload("Product").
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartItemNotFound
		}
		logger.Error("Failed to find cart item by user and product in database", err, map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return nil, err
	}
	return &item, nil
}

// Upsert adds quantity to the (user, product) line, creating it if absent, in
// a single INSERT ... ON CONFLICT statement. The read-back and cap check run
// in the same transaction so an over-limit merge leaves the row unchanged.
func (r *cartRepository) Upsert(ctx context.Context, userID, productID uint, quantity int) (*model.CartItem, error) {
	logger.Debug("Upserting cart item in database", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	})

	var item model.CartItem
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		row := model.CartItem{
			UserID:    userID,
			ProductID: productID,
			Quantity:  quantity,
			CreatedAt: now,
			UpdatedAt: now,
		}
		err := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"quantity":   gorm.Expr("cart_items.quantity + excluded.quantity"),
					"updated_at": now,
				}),
			}).
			Create(&row).Error
		if err != nil {
			return err
		}

		if err := tx.Where("user_id = ? AND product_id = ?", userID, productID).
			Preload("Product").
			First(&item).Error; err != nil {
			return err
		}
		if item.Quantity > model.MaxLineItemQuantity {
			return ErrQuantityLimitExceeded
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrQuantityLimitExceeded) {
			logger.Error("Failed to upsert cart item in database", err, map[string]interface{}{
				"user_id":    userID,
				"product_id": productID,
			})
		}
		return nil, err
	}

	logger.Debug("Cart item upserted in database", map[string]interface{}{
		"cart_item_id": item.ID,
		"user_id":      userID,
		"product_id":   productID,
		"quantity":     item.Quantity,
	})
	return &item, nil
}

func (r *cartRepository) SetQuantity(ctx context.Context, userID, productID uint, quantity int) (*model.CartItem, error) {
	logger.Debug("Setting cart item quantity in database", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	})

	result := r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Updates(map[string]interface{}{
			"quantity":   quantity,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		logger.Error("Failed to set cart item quantity in database", result.Error, map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrCartItemNotFound
	}

	return r.FindByUserAndProduct(ctx, userID, productID)
}

func (r *cartRepository) Delete(ctx context.Context, userID, productID uint) error {
	logger.Debug("Deleting cart item from database", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
	})

	result := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&model.CartItem{})
	if result.Error != nil {
		logger.Error("Failed to delete cart item from database", result.Error, map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (r *cartRepository) DeleteByUserID(ctx context.Context, userID uint) error {
	logger.Debug("Deleting cart items by user ID from database", map[string]interface{}{
		"user_id": userID,
	})

	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.CartItem{}).Error; err != nil {
		logger.Error("Failed to delete cart items by user ID from database", err, map[string]interface{}{
			"user_id": userID,
		})
		return err
	}
	return nil
}
