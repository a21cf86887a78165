package models

import (
	"strings"
	"testing"
	"time"

	"orderhub/internal/common"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPendingOrder(t *testing.T) *Order {
	t.Helper()
	order, err := NewOrder(OrderProps{CustomerID: uuid.New(), OrderNumber: "ORD-0001"})
	require.NoError(t, err)
	return order
}

func TestNewOrder_Defaults(t *testing.T) {
	order := newPendingOrder(t)

	assert.NotEqual(t, uuid.Nil, order.ID())
	assert.Equal(t, OrderStatusPending, order.Status())
	assert.False(t, order.CreatedAt().IsZero())
	assert.False(t, order.UpdatedAt().IsZero())
	assert.Empty(t, order.Items())
}

func TestNewOrder_Validation(t *testing.T) {
	tests := []struct {
		name       string
		props      OrderProps
		expectPath string
	}{
		{
			name:       "empty order number",
			props:      OrderProps{OrderNumber: ""},
			expectPath: "orderNumber",
		},
		{
			name:       "one character order number",
			props:      OrderProps{OrderNumber: "A"},
			expectPath: "orderNumber",
		},
		{
			name:       "whitespace padded order number",
			props:      OrderProps{OrderNumber: "  A  "},
			expectPath: "orderNumber",
		},
		{
			name:       "order number too long",
			props:      OrderProps{OrderNumber: strings.Repeat("X", 101)},
			expectPath: "orderNumber",
		},
		{
			name:       "unknown status",
			props:      OrderProps{OrderNumber: "ORD-1", Status: "REFUNDED"},
			expectPath: "status",
		},
		{
			name: "duplicate skus",
			props: OrderProps{OrderNumber: "ORD-1", Items: []*OrderItem{
				{Sku: "prod-001", Quantity: 1},
				{Sku: "prod-001", Quantity: 2},
			}},
			expectPath: "items",
		},
		{
			name: "item with zero quantity",
			props: OrderProps{OrderNumber: "ORD-1", Items: []*OrderItem{
				{Sku: "prod-001", Quantity: 0},
			}},
			expectPath: "items.quantity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := NewOrder(tt.props)
			require.Error(t, err)
			assert.Nil(t, order)

			var verr *common.ValidationError
			require.ErrorAs(t, err, &verr)
			require.Len(t, verr.Fields, 1)
			assert.Equal(t, tt.expectPath, verr.Fields[0].Path)
		})
	}
}

func TestNewOrder_RehydratesItems(t *testing.T) {
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	id := uuid.New()
	order, err := NewOrder(OrderProps{
		ID:          id,
		OrderNumber: "ORD-0001",
		Status:      OrderStatusPaid,
		CreatedAt:   created,
		UpdatedAt:   created,
		Items: []*OrderItem{
			{ID: uuid.New(), Sku: "prod-001", Quantity: 2, Price: decimal.RequireFromString("10.50")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, id, order.ID())
	assert.Equal(t, created, order.CreatedAt())
	assert.Equal(t, OrderStatusPaid, order.Status())
	require.Len(t, order.Items(), 1)
	assert.Equal(t, "ORD-0001", order.Items()[0].OrderNumber)
}

func TestAddItem_AppendsAndOverwrites(t *testing.T) {
	order := newPendingOrder(t)
	before := order.UpdatedAt()

	require.NoError(t, order.AddItem("prod-001", 2, decimal.RequireFromString("10.00")))
	require.NoError(t, order.AddItem("prod-002", 4, decimal.RequireFromString("2.50")))
	require.Len(t, order.Items(), 2)
	assert.True(t, order.UpdatedAt().After(before))

	// A second add for the same sku replaces the quantity instead of summing it.
	require.NoError(t, order.AddItem("prod-001", 3, decimal.RequireFromString("99.00")))
	require.Len(t, order.Items(), 2)
	item := order.Item("prod-001")
	require.NotNil(t, item)
	assert.Equal(t, 3, item.Quantity)
	assert.True(t, item.Price.Equal(decimal.RequireFromString("10.00")), "price stays at the snapshot")
	assert.Equal(t, "prod-001", order.Items()[0].Sku, "insertion order is kept")
}

func TestAddItem_RejectsInvalidInput(t *testing.T) {
	order := newPendingOrder(t)

	assert.True(t, common.IsValidation(order.AddItem("", 1, decimal.NewFromInt(1))))
	assert.True(t, common.IsValidation(order.AddItem("prod-001", 0, decimal.NewFromInt(1))))
	assert.True(t, common.IsValidation(order.AddItem("prod-001", -2, decimal.NewFromInt(1))))
	assert.Empty(t, order.Items())
}

func TestSetStatus(t *testing.T) {
	order := newPendingOrder(t)

	require.NoError(t, order.SetStatus(OrderStatusShipped))
	assert.Equal(t, OrderStatusShipped, order.Status())

	err := order.SetStatus("LOST")
	assert.True(t, common.IsValidation(err))
	assert.Equal(t, OrderStatusShipped, order.Status())
}

func TestGuardedTransitions(t *testing.T) {
	t.Run("ship a pending order is a no-op", func(t *testing.T) {
		order := newPendingOrder(t)
		assert.False(t, order.MarkAsShipped())
		assert.Equal(t, OrderStatusPending, order.Status())
	})

	t.Run("pending to paid to shipped", func(t *testing.T) {
		order := newPendingOrder(t)
		assert.True(t, order.MarkAsPaid())
		assert.Equal(t, OrderStatusPaid, order.Status())
		assert.False(t, order.MarkAsPaid())
		assert.True(t, order.MarkAsShipped())
		assert.Equal(t, OrderStatusShipped, order.Status())
	})

	t.Run("cancel only from pending", func(t *testing.T) {
		order := newPendingOrder(t)
		require.True(t, order.MarkAsPaid())
		assert.False(t, order.MarkAsCancelled())
		assert.Equal(t, OrderStatusPaid, order.Status())

		other := newPendingOrder(t)
		assert.True(t, other.MarkAsCancelled())
		assert.Equal(t, OrderStatusCancelled, other.Status())
	})
}

func TestTotalAmount(t *testing.T) {
	order := newPendingOrder(t)
	assert.True(t, order.TotalAmount().IsZero())

	require.NoError(t, order.AddItem("prod-001", 2, decimal.RequireFromString("10.10")))
	require.NoError(t, order.AddItem("prod-002", 3, decimal.RequireFromString("0.30")))

	assert.Equal(t, "21.1", order.TotalAmount().String())
	assert.Equal(t, "20.2", order.Item("prod-001").TotalPrice().String())
}

func TestParseOrderStatus(t *testing.T) {
	for _, s := range OrderStatuses {
		parsed, err := ParseOrderStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := ParseOrderStatus("pending")
	assert.True(t, common.IsValidation(err))
}

func TestOrderEvents(t *testing.T) {
	order := newPendingOrder(t)
	require.NoError(t, order.AddItem("prod-001", 2, decimal.NewFromInt(5)))
	require.NoError(t, order.AddItem("prod-002", 4, decimal.NewFromInt(1)))

	created := NewOrderCreatedEvent(order)
	assert.Equal(t, "order.created", created.Type)
	assert.Equal(t, order.ID().String(), created.OrderID)
	assert.Equal(t, []EventProduct{{Sku: "prod-001", Quantity: 2}, {Sku: "prod-002", Quantity: 4}}, created.Products)
	assert.NotEmpty(t, created.CreatedAt)

	cancelled := NewOrderCancelledEvent(order)
	assert.Equal(t, "order.cancelled", cancelled.Type)
	assert.Equal(t, "ORD-0001", cancelled.OrderNumber)
	assert.Empty(t, cancelled.CreatedAt)
}
