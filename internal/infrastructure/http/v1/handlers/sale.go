package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stocklot/internal/core/apperror"
	"stocklot/internal/core/id"
	"stocklot/internal/domain/sale"
	"stocklot/internal/infrastructure/http/v1/dto"
)

// SaleHandler handles HTTP requests for sale documents.
type SaleHandler struct {
	*BaseHandler
	service *sale.Service
}

// NewSaleHandler creates a new sale handler.
func NewSaleHandler(base *BaseHandler, service *sale.Service) *SaleHandler {
	return &SaleHandler{BaseHandler: base, service: service}
}

// Create handles sale creation with stock consumption.
// POST /api/v1/sales
func (h *SaleHandler) Create(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}

	var req dto.CreateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.Create(c.Request.Context(), tenantID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromSale(doc)
	h.CompleteIdempotency(c, http.StatusCreated, "application/json", response)
	c.JSON(http.StatusCreated, response)
}

// Get returns one sale with its lines.
// GET /api/v1/sales/:id
func (h *SaleHandler) Get(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}

	saleID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), tenantID, saleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSale(doc))
}

// List returns sales for the tenant, newest first.
// GET /api/v1/sales
func (h *SaleHandler) List(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}

	var query dto.ListQuery
	if !h.BindQuery(c, &query) {
		return
	}

	result, err := h.service.List(c.Request.Context(), tenantID, query.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse[dto.SaleResponse]{
		Items:      dto.FromSaleList(result.Items),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Cancel reverses a completed sale and restores consumed stock.
// POST /api/v1/sales/:id/cancel
func (h *SaleHandler) Cancel(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}

	saleID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Cancel(c.Request.Context(), tenantID, saleID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "sale cancelled")
}

// RegisterRoutes registers sale routes.
func (h *SaleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.POST("/:id/cancel", h.Cancel)
}
