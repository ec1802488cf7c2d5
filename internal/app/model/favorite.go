package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Favorite is a per-user liked product. Name, price and image are copied at
// favorite time so the list renders without a catalog join.
type Favorite struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"not null;uniqueIndex:idx_favorite_user_product" json:"user_id"`
	ProductID uint            `gorm:"not null;uniqueIndex:idx_favorite_user_product" json:"product_id"`
	Name      string          `gorm:"size:255" json:"name"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2)" json:"price"`
	ImageURL  string          `json:"image_url"`
	CreatedAt time.Time       `json:"created_at"`
}

func (Favorite) TableName() string {
	return "favorites"
}
