package handlers

import (
	"net/http"

	"orderhub/internal/common"
	"orderhub/internal/models"
	"orderhub/internal/services"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// OrderHandlers handles HTTP requests for orders
type OrderHandlers struct {
	orderService services.OrderService
	logger       zerolog.Logger
}

// NewOrderHandlers creates a new order handlers instance
func NewOrderHandlers(orderService services.OrderService, logger zerolog.Logger) *OrderHandlers {
	return &OrderHandlers{orderService: orderService, logger: logger}
}

func (h *OrderHandlers) Register(g *echo.Group) {
	g.POST("/orders", h.CreateOrUpdateOrder)
	g.PATCH("/orders/status", h.UpdateOrderStatus)
	g.GET("/orders", h.ListOrders)
	g.GET("/orders/:id", h.GetOrder)
	g.GET("/orders/number/:orderNumber", h.GetOrderByNumber)
}

// CreateOrUpdateOrder handles POST /orders. Resubmitting an order number
// reconciles the stored order with the new item list.
func (h *OrderHandlers) CreateOrUpdateOrder(c echo.Context) error {
	var req services.CreateOrUpdateOrderInput
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	order, err := h.orderService.CreateOrUpdateOrder(c.Request().Context(), req)
	if err != nil {
		return common.SendError(c, h.logger, err)
	}
	return c.JSON(http.StatusCreated, order.View())
}

// UpdateOrderStatus handles PATCH /orders/status
func (h *OrderHandlers) UpdateOrderStatus(c echo.Context) error {
	var req services.UpdateOrderStatusInput
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	order, err := h.orderService.UpdateOrderStatus(c.Request().Context(), req)
	if err != nil {
		return common.SendError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, order.View())
}

func (h *OrderHandlers) ListOrders(c echo.Context) error {
	limit, offset, err := pagination(c)
	if err != nil {
		return common.SendError(c, h.logger, err)
	}

	orders, err := h.orderService.List(c.Request().Context(), limit, offset)
	if err != nil {
		return common.SendError(c, h.logger, err)
	}
	views := make([]models.OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, o.View())
	}
	return c.JSON(http.StatusOK, ListResponse[models.OrderView]{Items: views, Limit: limit, Offset: offset})
}

func (h *OrderHandlers) GetOrder(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return common.SendError(c, h.logger, err)
	}

	order, err := h.orderService.GetByID(c.Request().Context(), id)
	if err != nil {
		return common.SendError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, order.View())
}

func (h *OrderHandlers) GetOrderByNumber(c echo.Context) error {
	order, err := h.orderService.GetByOrderNumber(c.Request().Context(), c.Param("orderNumber"))
	if err != nil {
		return common.SendError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, order.View())
}
