package models

// Routing keys used on the orders exchange.
const (
	OrdersExchange           = "orders.events"
	RoutingKeyOrderCreated   = "order.created"
	RoutingKeyOrderCancelled = "order.cancelled"
)

type EventProduct struct {
	Sku      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

// OrderEvent is the payload published for order lifecycle changes.
type OrderEvent struct {
	Type        string         `json:"type"`
	OrderID     string         `json:"orderId"`
	OrderNumber string         `json:"orderNumber"`
	Products    []EventProduct `json:"products"`
	CreatedAt   string         `json:"createdAt,omitempty"`
}

func eventProducts(o *Order) []EventProduct {
	products := make([]EventProduct, 0, len(o.Items()))
	for _, item := range o.Items() {
		products = append(products, EventProduct{Sku: item.Sku, Quantity: item.Quantity})
	}
	return products
}

// NewOrderCreatedEvent describes o for inventory consumers.
func NewOrderCreatedEvent(o *Order) OrderEvent {
	return OrderEvent{
		Type:        RoutingKeyOrderCreated,
		OrderID:     o.ID().String(),
		OrderNumber: o.OrderNumber(),
		Products:    eventProducts(o),
		CreatedAt:   o.CreatedAt().Format("2006-01-02T15:04:05.000Z07:00"),
	}
}

func NewOrderCancelledEvent(o *Order) OrderEvent {
	return OrderEvent{
		Type:        RoutingKeyOrderCancelled,
		OrderID:     o.ID().String(),
		OrderNumber: o.OrderNumber(),
		Products:    eventProducts(o),
	}
}
