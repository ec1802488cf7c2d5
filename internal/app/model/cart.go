package model

import (
	"time"

	"github.com/ikkim/storefront-backend/pkg/money"
)

// MaxLineItemQuantity caps a single cart line.
const MaxLineItemQuantity = 1000

// CartItem is one line of a user's cart. The composite unique index is what
// keeps concurrent adds from creating two lines for the same product.
type CartItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"product_id"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Product Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

// Cart is the assembled view of a user's line items. It is not a table.
type Cart struct {
	UserID uint        `json:"user_id"`
	Items  []CartItem  `json:"items"`
	Total  money.Money `json:"total"`
}

// LineItems projects the cart onto calculator input.
func (c *Cart) LineItems() []money.LineItem {
	items := make([]money.LineItem, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, money.LineItem{
			UnitPrice: item.Product.Price,
			Quantity:  int64(item.Quantity),
		})
	}
	return items
}
