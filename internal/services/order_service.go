package services

import (
	"context"
	"strings"
	"sync"

	"orderhub/internal/common"
	"orderhub/internal/metrics"
	"orderhub/internal/models"
	"orderhub/internal/repositories"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type OrderItemInput struct {
	Sku      string `json:"sku" validate:"required,max=64"`
	Quantity int    `json:"quantity" validate:"gt=0"`
}

type CreateOrUpdateOrderInput struct {
	ID          string           `json:"id" validate:"required,uuid4"`
	CustomerID  string           `json:"customerId" validate:"required,uuid4"`
	OrderNumber string           `json:"orderNumber" validate:"required,min=2,max=100"`
	Status      string           `json:"status" validate:"required,oneof=PENDING PAID SHIPPED CANCELLED"`
	Items       []OrderItemInput `json:"items" validate:"required,min=1,unique=Sku,dive"`
}

// normalize trims identifiers so lookups, stock checks and the aggregate
// all see the same order number and skus.
func (in *CreateOrUpdateOrderInput) normalize() {
	in.ID = strings.TrimSpace(in.ID)
	in.CustomerID = strings.TrimSpace(in.CustomerID)
	in.OrderNumber = strings.TrimSpace(in.OrderNumber)
	in.Status = strings.TrimSpace(in.Status)
	if in.Items == nil {
		return
	}
	items := make([]OrderItemInput, len(in.Items))
	for i, item := range in.Items {
		item.Sku = strings.TrimSpace(item.Sku)
		items[i] = item
	}
	in.Items = items
}

type UpdateOrderStatusInput struct {
	OrderNumber string `json:"orderNumber" validate:"required,min=2,max=100"`
	Status      string `json:"status" validate:"required"`
}

type OrderService interface {
	// CreateOrUpdateOrder persists the order and publishes order.created as one unit.
	CreateOrUpdateOrder(ctx context.Context, input CreateOrUpdateOrderInput) (*models.Order, error)
	// UpdateOrderStatus persists the new status and, for CANCELLED, publishes
	// order.cancelled in the same unit.
	UpdateOrderStatus(ctx context.Context, input UpdateOrderStatusInput) (*models.Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	List(ctx context.Context, limit, offset int) ([]*models.Order, error)
}

type orderService struct {
	orderRepo  repositories.OrderRepository
	products   ProductService
	inventory  InventoryChecker
	events     OrderEventPublisher
	unitOfWork repositories.UnitOfWork
	validator  *common.Validator
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

func NewOrderService(
	orderRepo repositories.OrderRepository,
	products ProductService,
	inventory InventoryChecker,
	events OrderEventPublisher,
	unitOfWork repositories.UnitOfWork,
	validator *common.Validator,
	m *metrics.Metrics,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:  orderRepo,
		products:   products,
		inventory:  inventory,
		events:     events,
		unitOfWork: unitOfWork,
		validator:  validator,
		metrics:    m,
		logger:     logger.With().Str("component", "order_service").Logger(),
	}
}

func (s *orderService) CreateOrUpdateOrder(ctx context.Context, input CreateOrUpdateOrderInput) (*models.Order, error) {
	input.normalize()
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}
	orderID, err := uuid.Parse(input.ID)
	if err != nil {
		return nil, common.NewValidationError("id", "must be a valid UUID v4")
	}
	customerID, err := uuid.Parse(input.CustomerID)
	if err != nil {
		return nil, common.NewValidationError("customerId", "must be a valid UUID v4")
	}

	products, err := s.resolveProducts(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	if err := s.checkStock(ctx, input.Items); err != nil {
		return nil, err
	}

	existing, err := s.orderRepo.FindByOrderNumber(ctx, input.OrderNumber)
	if err != nil {
		return nil, errors.Wrap(err, "load existing order")
	}
	order, err := buildOrder(orderID, customerID, input, products, existing)
	if err != nil {
		return nil, err
	}

	operation := "create"
	if existing != nil {
		operation = "update"
	}

	var changes repositories.ItemChanges
	err = s.unitOfWork.Execute(ctx, func(ctx context.Context, tx repositories.DBTX) error {
		var err error
		if changes, err = s.orderRepo.Save(ctx, tx, order); err != nil {
			return err
		}
		return s.events.PublishOrderCreated(ctx, order)
	})
	s.metrics.OrdersWritten.WithLabelValues(operation, metrics.Result(err)).Inc()
	if err != nil {
		return nil, err
	}
	s.recordChanges(changes)

	s.logger.Info().
		Str("order_id", order.ID().String()).
		Str("order_number", order.OrderNumber()).
		Str("operation", operation).
		Int("items_created", len(changes.Created)).
		Int("items_updated", len(changes.Updated)).
		Int("items_deleted", len(changes.Deleted)).
		Msg("order saved")
	return order, nil
}

// resolveProducts looks every sku up concurrently and fails on the first unknown one.
func (s *orderService) resolveProducts(ctx context.Context, items []OrderItemInput) (map[string]*models.Product, error) {
	var mu sync.Mutex
	products := make(map[string]*models.Product, len(items))

	g, gctx := errgroup.WithContext(ctx)
	for _, item := range items {
		sku := item.Sku
		g.Go(func() error {
			product, err := s.products.FindBySku(gctx, sku)
			if err != nil {
				return errors.Wrapf(err, "look up product %s", sku)
			}
			if product == nil {
				return common.ProductNotFound(sku)
			}
			mu.Lock()
			products[sku] = product
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *orderService) checkStock(ctx context.Context, items []OrderItemInput) error {
	stockItems := make([]StockItem, 0, len(items))
	for _, item := range items {
		stockItems = append(stockItems, StockItem{Sku: item.Sku, Quantity: item.Quantity})
	}

	result, err := s.inventory.CheckAvailability(ctx, stockItems)
	if err != nil {
		return errors.Wrap(err, "verify stock")
	}
	if !result.Available {
		return common.StockUnavailable(result.Message)
	}
	return nil
}

// buildOrder merges the request with an existing order of the same number.
// The existing ID, creation time and the price snapshot of retained skus win.
func buildOrder(orderID, customerID uuid.UUID, input CreateOrUpdateOrderInput, products map[string]*models.Product, existing *models.Order) (*models.Order, error) {
	props := models.OrderProps{
		ID:          orderID,
		CustomerID:  customerID,
		OrderNumber: input.OrderNumber,
		Status:      models.OrderStatus(input.Status),
	}
	if existing != nil {
		props.ID = existing.ID()
		props.CreatedAt = existing.CreatedAt()
	}

	for _, in := range input.Items {
		price := products[in.Sku].Price
		var previous *models.OrderItem
		if existing != nil {
			previous = existing.Item(in.Sku)
		}
		if previous != nil {
			price = previous.Price
		}

		item, err := models.NewOrderItem(input.OrderNumber, in.Sku, in.Quantity, price)
		if err != nil {
			return nil, err
		}
		if previous != nil {
			item.ID = previous.ID
			item.CreatedAt = previous.CreatedAt
		}
		props.Items = append(props.Items, item)
	}
	return models.NewOrder(props)
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, input UpdateOrderStatusInput) (*models.Order, error) {
	input.OrderNumber = strings.TrimSpace(input.OrderNumber)
	input.Status = strings.TrimSpace(input.Status)
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	order, err := s.orderRepo.FindByOrderNumber(ctx, input.OrderNumber)
	if err != nil {
		return nil, errors.Wrap(err, "load order")
	}
	if order == nil {
		return nil, common.OrderNotFound(input.OrderNumber)
	}

	status, err := models.ParseOrderStatus(input.Status)
	if err != nil {
		return nil, err
	}
	previous := order.Status()
	if err := order.SetStatus(status); err != nil {
		return nil, err
	}

	var changes repositories.ItemChanges
	err = s.unitOfWork.Execute(ctx, func(ctx context.Context, tx repositories.DBTX) error {
		var err error
		if changes, err = s.orderRepo.Save(ctx, tx, order); err != nil {
			return err
		}
		if status == models.OrderStatusCancelled {
			return s.events.PublishOrderCancelled(ctx, order)
		}
		return nil
	})
	s.metrics.OrdersWritten.WithLabelValues("status", metrics.Result(err)).Inc()
	if err != nil {
		return nil, err
	}
	s.recordChanges(changes)

	s.logger.Info().
		Str("order_number", order.OrderNumber()).
		Str("from", string(previous)).
		Str("to", string(status)).
		Msg("order status updated")
	return order, nil
}

func (s *orderService) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, common.OrderNotFound(id.String())
	}
	return order, nil
}

func (s *orderService) GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	order, err := s.orderRepo.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, common.OrderNotFound(orderNumber)
	}
	return order, nil
}

func (s *orderService) List(ctx context.Context, limit, offset int) ([]*models.Order, error) {
	return s.orderRepo.List(ctx, limit, offset)
}

func (s *orderService) recordChanges(changes repositories.ItemChanges) {
	s.metrics.OrderItemChanges.WithLabelValues("created").Add(float64(len(changes.Created)))
	s.metrics.OrderItemChanges.WithLabelValues("updated").Add(float64(len(changes.Updated)))
	s.metrics.OrderItemChanges.WithLabelValues("deleted").Add(float64(len(changes.Deleted)))
}
