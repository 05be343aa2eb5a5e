package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"stocklot/internal/core/apperror"
	"stocklot/internal/core/id"
	"stocklot/internal/domain/batch"
	"stocklot/internal/domain/ledger"
	"stocklot/internal/domain/reports"
	"stocklot/internal/infrastructure/http/v1/dto"
)

// StockHandler serves derived stock views: levels, batches, movement history
// and the expiry / consistency reports.
type StockHandler struct {
	*BaseHandler
	batches *batch.Service
	ledger  *ledger.Service
	reports *reports.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, batches *batch.Service, ledgerSvc *ledger.Service, reportsSvc *reports.Service) *StockHandler {
	return &StockHandler{
		BaseHandler: base,
		batches:     batches,
		ledger:      ledgerSvc,
		reports:     reportsSvc,
	}
}

// CurrentStock returns the derived stock level for one product.
// GET /api/v1/stock/:productId
func (h *StockHandler) CurrentStock(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}

	productID, err := id.Parse(c.Param("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId format"))
		return
	}

	qty, err := h.batches.CurrentStock(c.Request.Context(), tenantID, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.StockResponse{ProductID: productID.String(), Quantity: qty})
}

// Batches returns all batches of a product, including depleted ones.
// GET /api/v1/stock/:productId/batches
func (h *StockHandler) Batches(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}

	productID, err := id.Parse(c.Param("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId format"))
		return
	}

	var batches []batch.Batch
	if c.Query("available") == "true" {
		batches, err = h.batches.ListAvailable(c.Request.Context(), tenantID, productID)
	} else {
		batches, err = h.batches.ListByProduct(c.Request.Context(), tenantID, productID)
	}
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromBatchList(batches))
}

// Movements returns movement history for a product, newest first.
// GET /api/v1/stock/:productId/movements
func (h *StockHandler) Movements(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}

	productID, err := id.Parse(c.Param("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId format"))
		return
	}

	filter := ledger.MovementFilter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if t := c.Query("type"); t != "" {
		mt := ledger.MovementType(t)
		switch mt {
		case ledger.MovementIn, ledger.MovementOut, ledger.MovementAdjustment:
			filter.Type = &mt
		default:
			h.Error(c, apperror.NewValidation("invalid movement type"))
			return
		}
	}

	if batchID := c.Query("batchId"); batchID != "" {
		parsed, err := id.Parse(batchID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid batchId format"))
			return
		}
		filter.BatchID = &parsed
	}

	if dateFrom := c.Query("dateFrom"); dateFrom != "" {
		if parsed, err := time.Parse("2006-01-02", dateFrom); err == nil {
			filter.FromDate = &parsed
		}
	}
	if dateTo := c.Query("dateTo"); dateTo != "" {
		if parsed, err := time.Parse("2006-01-02", dateTo); err == nil {
			filter.ToDate = &parsed
		}
	}

	movements, err := h.ledger.ListByProduct(c.Request.Context(), tenantID, productID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromMovementList(movements))
}

// Expiring returns batches that still hold stock and expire within the given
// window (days query parameter, default 30).
// GET /api/v1/reports/expiring
func (h *StockHandler) Expiring(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}

	days := h.ParseIntQuery(c, "days", 30)
	if days <= 0 {
		h.Error(c, apperror.NewValidation("days must be positive"))
		return
	}

	items, err := h.reports.ExpiringStock(c.Request.Context(), tenantID, time.Duration(days)*24*time.Hour)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := make([]dto.ExpiringBatchResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, dto.FromExpiringBatch(item))
	}
	h.OK(c, resp)
}

// Consistency cross-checks batch stock against the ledger for one product.
// GET /api/v1/reports/consistency/:productId
func (h *StockHandler) Consistency(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}

	productID, err := id.Parse(c.Param("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId format"))
		return
	}

	result, err := h.reports.CheckConsistency(c.Request.Context(), tenantID, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromConsistency(result))
}

// RegisterRoutes registers stock and report routes.
func (h *StockHandler) RegisterRoutes(stock, reportsGroup *gin.RouterGroup) {
	stock.GET("/:productId", h.CurrentStock)
	stock.GET("/:productId/batches", h.Batches)
	stock.GET("/:productId/movements", h.Movements)

	reportsGroup.GET("/expiring", h.Expiring)
	reportsGroup.GET("/consistency/:productId", h.Consistency)
}
