package handlers

import (
	"net/http"

	"orderhub/internal/common"
	"orderhub/internal/models"
	"orderhub/internal/services"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ProductHandlers handles HTTP requests for products
type ProductHandlers struct {
	productService services.ProductService
	logger         zerolog.Logger
}

func NewProductHandlers(productService services.ProductService, logger zerolog.Logger) *ProductHandlers {
	return &ProductHandlers{productService: productService, logger: logger}
}

func (h *ProductHandlers) Register(g *echo.Group) {
	g.POST("/products", h.CreateProduct)
	g.GET("/products", h.ListProducts)
	g.GET("/products/:sku", h.GetProduct)
	g.PUT("/products/:sku", h.UpdateProduct)
}

func (h *ProductHandlers) CreateProduct(c echo.Context) error {
	var req services.CreateProductInput
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	product, err := h.productService.Create(c.Request().Context(), req)
	if err != nil {
		return common.SendError(c, h.logger, err)
	}
	return c.JSON(http.StatusCreated, product)
}

func (h *ProductHandlers) ListProducts(c echo.Context) error {
	limit, offset, err := pagination(c)
	if err != nil {
		return common.SendError(c, h.logger, err)
	}

	products, err := h.productService.List(c.Request().Context(), limit, offset)
	if err != nil {
		return common.SendError(c, h.logger, err)
	}
	if products == nil {
		products = []*models.Product{}
	}
	return c.JSON(http.StatusOK, ListResponse[*models.Product]{Items: products, Limit: limit, Offset: offset})
}

func (h *ProductHandlers) GetProduct(c echo.Context) error {
	product, err := h.productService.GetBySku(c.Request().Context(), c.Param("sku"))
	if err != nil {
		return common.SendError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandlers) UpdateProduct(c echo.Context) error {
	var req services.UpdateProductInput
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	req.Sku = c.Param("sku")

	product, err := h.productService.Update(c.Request().Context(), req)
	if err != nil {
		return common.SendError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, product)
}
