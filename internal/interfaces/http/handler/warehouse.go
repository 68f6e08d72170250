package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appwarehouse "github.com/stockpilot/backend/internal/application/warehouse"
	"github.com/stockpilot/backend/internal/domain/warehouse"
)

// WarehouseHandler exposes warehouse listing and inter-warehouse transfers
type WarehouseHandler struct {
	BaseHandler
	warehouses warehouse.WarehouseRepository
	stocks     warehouse.StockRepository
	transfers  *appwarehouse.TransferService
}

// NewWarehouseHandler creates a new WarehouseHandler
func NewWarehouseHandler(
	warehouses warehouse.WarehouseRepository,
	stocks warehouse.StockRepository,
	transfers *appwarehouse.TransferService,
) *WarehouseHandler {
	return &WarehouseHandler{
		warehouses: warehouses,
		stocks:     stocks,
		transfers:  transfers,
	}
}

// RegisterRoutes registers warehouse routes
func (h *WarehouseHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/warehouses")
	{
		group.GET("", h.List)
		group.POST("", h.Create)
		group.POST("/transfers", h.Transfer)
	}
	rg.GET("/products/:id/buckets", h.ListBuckets)
}

// WarehouseResponse is one warehouse in API responses
type WarehouseResponse struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

// List returns all active warehouses
func (h *WarehouseHandler) List(c *gin.Context) {
	warehouses, err := h.warehouses.FindActive(c.Request.Context())
	if err != nil {
		h.DomainError(c, err)
		return
	}

	rows := make([]WarehouseResponse, 0, len(warehouses))
	for _, w := range warehouses {
		rows = append(rows, WarehouseResponse{
			ID:       w.ID.String(),
			Code:     w.Code,
			Name:     w.Name,
			IsActive: w.IsActive,
		})
	}
	h.Success(c, rows)
}

// CreateWarehouseRequest is the warehouse creation body
type CreateWarehouseRequest struct {
	Code string `json:"code" binding:"required,max=50"`
	Name string `json:"name" binding:"required,max=255"`
}

// Create registers a new warehouse
func (h *WarehouseHandler) Create(c *gin.Context) {
	var req CreateWarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	wh, err := warehouse.NewWarehouse(req.Code, req.Name)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	if err := h.warehouses.Save(c.Request.Context(), wh); err != nil {
		h.DomainError(c, err)
		return
	}
	h.Created(c, WarehouseResponse{
		ID:       wh.ID.String(),
		Code:     wh.Code,
		Name:     wh.Name,
		IsActive: wh.IsActive,
	})
}

// TransferRequest is the inter-warehouse transfer body
type TransferRequest struct {
	ProductID       string `json:"product_id" binding:"required,uuid"`
	FromWarehouseID string `json:"from_warehouse_id" binding:"required,uuid"`
	ToWarehouseID   string `json:"to_warehouse_id" binding:"required,uuid"`
	Quantity        int64  `json:"quantity" binding:"required,gt=0"`
}

// Transfer moves stock between two warehouse buckets. All-or-nothing: an
// insufficient source bucket rejects the whole transfer.
func (h *WarehouseHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}
	fromID, err := uuid.Parse(req.FromWarehouseID)
	if err != nil {
		h.BadRequest(c, "Invalid source warehouse ID")
		return
	}
	toID, err := uuid.Parse(req.ToWarehouseID)
	if err != nil {
		h.BadRequest(c, "Invalid destination warehouse ID")
		return
	}

	if err := h.transfers.Transfer(c.Request.Context(), productID, fromID, toID, req.Quantity); err != nil {
		h.DomainError(c, err)
		return
	}
	h.NoContent(c)
}

// BucketResponse is one per-warehouse stock bucket in API responses
type BucketResponse struct {
	WarehouseID  string `json:"warehouse_id"`
	CurrentStock int64  `json:"current_stock"`
}

// ListBuckets returns the per-warehouse stock buckets of a product
func (h *WarehouseHandler) ListBuckets(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	buckets, err := h.stocks.FindByProduct(c.Request.Context(), productID)
	if err != nil {
		h.DomainError(c, err)
		return
	}

	rows := make([]BucketResponse, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, BucketResponse{
			WarehouseID:  b.WarehouseID.String(),
			CurrentStock: b.CurrentStock,
		})
	}
	h.Success(c, rows)
}
