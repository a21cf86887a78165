package handlers

import (
	"net/http"

	"orderhub/internal/common"
	"orderhub/internal/models"
	"orderhub/internal/services"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// CustomerHandlers handles HTTP requests for customers
type CustomerHandlers struct {
	customerService services.CustomerService
	logger          zerolog.Logger
}

func NewCustomerHandlers(customerService services.CustomerService, logger zerolog.Logger) *CustomerHandlers {
	return &CustomerHandlers{customerService: customerService, logger: logger}
}

func (h *CustomerHandlers) Register(g *echo.Group) {
	g.POST("/customers", h.CreateCustomer)
	g.GET("/customers", h.ListCustomers)
	g.GET("/customers/:id", h.GetCustomer)
}

func (h *CustomerHandlers) CreateCustomer(c echo.Context) error {
	var req services.CreateCustomerInput
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	customer, err := h.customerService.Create(c.Request().Context(), req)
	if err != nil {
		return common.SendError(c, h.logger, err)
	}
	return c.JSON(http.StatusCreated, customer)
}

func (h *CustomerHandlers) ListCustomers(c echo.Context) error {
	limit, offset, err := pagination(c)
	if err != nil {
		return common.SendError(c, h.logger, err)
	}

	customers, err := h.customerService.List(c.Request().Context(), limit, offset)
	if err != nil {
		return common.SendError(c, h.logger, err)
	}
	if customers == nil {
		customers = []*models.Customer{}
	}
	return c.JSON(http.StatusOK, ListResponse[*models.Customer]{Items: customers, Limit: limit, Offset: offset})
}

func (h *CustomerHandlers) GetCustomer(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return common.SendError(c, h.logger, err)
	}

	customer, err := h.customerService.GetByID(c.Request().Context(), id)
	if err != nil {
		return common.SendError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, customer)
}
