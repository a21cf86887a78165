package models

import (
	"strings"
	"time"

	"orderhub/internal/common"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem belongs to exactly one Order and is identified inside it by Sku.
type OrderItem struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	OrderNumber string          `json:"orderNumber" db:"order_number"`
	Sku         string          `json:"sku" db:"sku"`
	Quantity    int             `json:"quantity" db:"quantity"`
	Price       decimal.Decimal `json:"price" db:"price"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// NewOrderItem builds an item with a fresh ID. Price is the unit price at order time.
func NewOrderItem(orderNumber, sku string, quantity int, price decimal.Decimal) (*OrderItem, error) {
	now := time.Now().UTC()
	item := &OrderItem{
		ID:          uuid.New(),
		OrderNumber: orderNumber,
		Sku:         strings.TrimSpace(sku),
		Quantity:    quantity,
		Price:       price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := item.validate(); err != nil {
		return nil, err
	}
	return item, nil
}

func (i *OrderItem) validate() error {
	if i.Sku == "" {
		return common.NewValidationError("items.sku", "is required")
	}
	if i.Quantity <= 0 {
		return common.NewValidationError("items.quantity", "must be greater than 0")
	}
	if i.Price.IsNegative() {
		return common.NewValidationError("items.price", "must not be negative")
	}
	return nil
}

func (i *OrderItem) UpdateQuantity(quantity int) error {
	if quantity <= 0 {
		return common.NewValidationError("items.quantity", "must be greater than 0")
	}
	i.Quantity = quantity
	i.UpdatedAt = time.Now().UTC()
	return nil
}

func (i *OrderItem) TotalPrice() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type OrderItemView struct {
	Sku        string          `json:"sku"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

func (i *OrderItem) View() OrderItemView {
	return OrderItemView{
		Sku:        i.Sku,
		Quantity:   i.Quantity,
		Price:      i.Price,
		TotalPrice: i.TotalPrice(),
	}
}
