package handlers

import (
	"github.com/gin-gonic/gin"

	"stocklot/internal/core/apperror"
	"stocklot/internal/core/id"
	"stocklot/internal/domain/catalog"
	"stocklot/internal/infrastructure/http/v1/dto"
)

// ProductHandler serves the read-only product catalog.
type ProductHandler struct {
	*BaseHandler
	catalog catalog.Repository
}

// NewProductHandler creates a new product handler.
func NewProductHandler(base *BaseHandler, catalogRepo catalog.Repository) *ProductHandler {
	return &ProductHandler{BaseHandler: base, catalog: catalogRepo}
}

// Get returns one product.
// GET /api/v1/products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}

	productID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	product, err := h.catalog.GetByID(c.Request.Context(), tenantID, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromProduct(product))
}

// List returns all products for the tenant.
// GET /api/v1/products
func (h *ProductHandler) List(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}

	products, err := h.catalog.List(c.Request.Context(), tenantID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromProductList(products))
}

// RegisterRoutes registers product routes.
func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
}
