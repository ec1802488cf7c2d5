package db

import (
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Models lists every table owned by the API, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.PasswordReset{},
		&model.Product{},
		&model.CartItem{},
		&model.Favorite{},
		&model.CheckoutSession{},
		&model.Order{},
		&model.OrderItem{},
	}
}

// Migrate runs database migrations and seeds the demo catalog.
func Migrate() error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := DB.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	if err := SeedCatalog(DB); err != nil {
		logger.Error("Failed to seed initial data during migration", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

var demoCatalog = []model.Product{
	{Name: "Wireless Headphones", Description: "Over-ear, 30h battery", Price: decimal.RequireFromString("499.99"), ImageURL: "/images/wireless-headphones.jpg"},
	{Name: "Canvas Tote", Description: "Heavy cotton canvas", Price: decimal.RequireFromString("10.00"), ImageURL: "/images/canvas-tote.jpg"},
	{Name: "Ceramic Mug", Description: "350ml, dishwasher safe", Price: decimal.RequireFromString("14.50"), ImageURL: "/images/ceramic-mug.jpg"},
	{Name: "Running Shoes", Description: "Lightweight trainers", Price: decimal.RequireFromString("89.95"), ImageURL: "/images/running-shoes.jpg"},
}

// SeedCatalog inserts the demo products when the catalog is empty.
func SeedCatalog(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Debug("Catalog already seeded, skipping", map[string]interface{}{
			"existing_count": count,
		})
		return nil
	}

	products := make([]model.Product, len(demoCatalog))
	copy(products, demoCatalog)
	if err := db.Create(&products).Error; err != nil {
		return err
	}

	logger.Info("Seeded demo catalog", map[string]interface{}{
		"count": len(products),
	})
	return nil
}
