package services

import (
	"context"

	"orderhub/internal/metrics"
	"orderhub/internal/models"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// EventPublisher is satisfied by *messaging.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, event any, routingKey string) error
}

type OrderEventPublisher interface {
	PublishOrderCreated(ctx context.Context, order *models.Order) error
	PublishOrderCancelled(ctx context.Context, order *models.Order) error
}

type orderEventPublisher struct {
	publisher EventPublisher
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

func NewOrderEventPublisher(publisher EventPublisher, m *metrics.Metrics, logger zerolog.Logger) OrderEventPublisher {
	return &orderEventPublisher{
		publisher: publisher,
		metrics:   m,
		logger:    logger.With().Str("component", "order_events").Logger(),
	}
}

func (p *orderEventPublisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	return p.publish(ctx, models.NewOrderCreatedEvent(order), models.RoutingKeyOrderCreated)
}

func (p *orderEventPublisher) PublishOrderCancelled(ctx context.Context, order *models.Order) error {
	return p.publish(ctx, models.NewOrderCancelledEvent(order), models.RoutingKeyOrderCancelled)
}

func (p *orderEventPublisher) publish(ctx context.Context, event models.OrderEvent, routingKey string) error {
	err := p.publisher.Publish(ctx, event, routingKey)
	p.metrics.EventsPublished.WithLabelValues(routingKey, metrics.Result(err)).Inc()
	if err != nil {
		return errors.Wrapf(err, "publish %s for order %s", routingKey, event.OrderNumber)
	}
	p.logger.Debug().
		Str("routing_key", routingKey).
		Str("order_id", event.OrderID).
		Str("order_number", event.OrderNumber).
		Int("products", len(event.Products)).
		Msg("order event published")
	return nil
}
