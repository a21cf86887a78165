package models

import (
	"fmt"
	"strings"
	"time"

	"orderhub/internal/common"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// OrderStatuses lists every recognized status.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusShipped,
	OrderStatusCancelled,
}

const (
	MinOrderNumberLength = 2
	MaxOrderNumberLength = 100
)

func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into a recognized status.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	status := OrderStatus(raw)
	if !status.Valid() {
		return "", common.NewValidationError("status", "Invalid order status")
	}
	return status, nil
}

// OrderProps carries the fields used to build or rehydrate an Order.
// Zero values are replaced by defaults: a new ID, PENDING, and the current time.
type OrderProps struct {
	ID          uuid.UUID
	CustomerID  uuid.UUID
	OrderNumber string
	Status      OrderStatus
	Items       []*OrderItem
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Order is the aggregate root for an order and its items.
type Order struct {
	id          uuid.UUID
	customerID  uuid.UUID
	orderNumber string
	status      OrderStatus
	items       []*OrderItem
	createdAt   time.Time
	updatedAt   time.Time
}

// NewOrder validates props and returns the aggregate. It never returns a
// partially valid order.
func NewOrder(props OrderProps) (*Order, error) {
	now := time.Now().UTC()
	o := &Order{
		id:          props.ID,
		customerID:  props.CustomerID,
		orderNumber: strings.TrimSpace(props.OrderNumber),
		status:      props.Status,
		createdAt:   props.CreatedAt,
		updatedAt:   props.UpdatedAt,
	}
	if o.id == uuid.Nil {
		o.id = uuid.New()
	}
	if o.status == "" {
		o.status = OrderStatusPending
	}
	if o.createdAt.IsZero() {
		o.createdAt = now
	}
	if o.updatedAt.IsZero() {
		o.updatedAt = now
	}

	if err := o.validate(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(props.Items))
	for _, item := range props.Items {
		if item == nil {
			continue
		}
		if _, dup := seen[item.Sku]; dup {
			return nil, common.NewValidationError("items", fmt.Sprintf("duplicate sku %s", item.Sku))
		}
		seen[item.Sku] = struct{}{}
		if err := item.validate(); err != nil {
			return nil, err
		}
		item.OrderNumber = o.orderNumber
		o.items = append(o.items, item)
	}
	return o, nil
}

func (o *Order) validate() error {
	if len(o.orderNumber) < MinOrderNumberLength {
		return common.NewValidationError("orderNumber", "Order number must be at least 2 characters")
	}
	if len(o.orderNumber) > MaxOrderNumberLength {
		return common.NewValidationError("orderNumber", "Order number must be at most 100 characters")
	}
	if !o.status.Valid() {
		return common.NewValidationError("status", "Invalid order status")
	}
	return nil
}

// AddItem overwrites the quantity of an existing sku, or appends a new item.
func (o *Order) AddItem(sku string, quantity int, price decimal.Decimal) error {
	sku = strings.TrimSpace(sku)
	if existing := o.Item(sku); existing != nil {
		if err := existing.UpdateQuantity(quantity); err != nil {
			return err
		}
		o.touch()
		return nil
	}

	item, err := NewOrderItem(o.orderNumber, sku, quantity, price)
	if err != nil {
		return err
	}
	o.items = append(o.items, item)
	o.touch()
	return nil
}

// SetStatus overwrites the status after checking it is recognized.
func (o *Order) SetStatus(status OrderStatus) error {
	if !status.Valid() {
		return common.NewValidationError("status", "Invalid order status")
	}
	o.status = status
	o.touch()
	return nil
}

// MarkAsPaid moves PENDING to PAID. It returns false and changes nothing
// from any other status.
func (o *Order) MarkAsPaid() bool {
	return o.transition(OrderStatusPending, OrderStatusPaid)
}

// MarkAsShipped moves PAID to SHIPPED.
func (o *Order) MarkAsShipped() bool {
	return o.transition(OrderStatusPaid, OrderStatusShipped)
}

// MarkAsCancelled moves PENDING to CANCELLED.
func (o *Order) MarkAsCancelled() bool {
	return o.transition(OrderStatusPending, OrderStatusCancelled)
}

func (o *Order) transition(from, to OrderStatus) bool {
	if o.status != from {
		return false
	}
	o.status = to
	o.touch()
	return true
}

// TotalAmount sums the item totals.
func (o *Order) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.items {
		total = total.Add(item.TotalPrice())
	}
	return total
}

// Item returns the item for sku, or nil.
func (o *Order) Item(sku string) *OrderItem {
	for _, item := range o.items {
		if item.Sku == sku {
			return item
		}
	}
	return nil
}

func (o *Order) touch() {
	now := time.Now().UTC()
	if !now.After(o.updatedAt) {
		now = o.updatedAt.Add(time.Microsecond)
	}
	o.updatedAt = now
}

func (o *Order) ID() uuid.UUID { return o.id }
func (o *Order) CustomerID() uuid.UUID { return o.customerID }
func (o *Order) OrderNumber() string { return o.orderNumber }
func (o *Order) Status() OrderStatus { return o.status }
func (o *Order) CreatedAt() time.Time { return o.createdAt }
func (o *Order) UpdatedAt() time.Time { return o.updatedAt }
func (o *Order) Items() []*OrderItem { return o.items }

// OrderView is the JSON shape of an order returned by the API.
type OrderView struct {
	ID          uuid.UUID       `json:"id"`
	CustomerID  uuid.UUID       `json:"customerId"`
	OrderNumber string          `json:"orderNumber"`
	Status      OrderStatus     `json:"status"`
	Items       []OrderItemView `json:"items"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (o *Order) View() OrderView {
	items := make([]OrderItemView, 0, len(o.items))
	for _, item := range o.items {
		items = append(items, item.View())
	}
	return OrderView{
		ID:          o.id,
		CustomerID:  o.customerID,
		OrderNumber: o.orderNumber,
		Status:      o.status,
		Items:       items,
		TotalAmount: o.TotalAmount(),
		CreatedAt:   o.createdAt,
		UpdatedAt:   o.updatedAt,
	}
}
