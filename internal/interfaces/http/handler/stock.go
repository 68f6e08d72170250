package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appcatalog "github.com/stockpilot/backend/internal/application/catalog"
	appledger "github.com/stockpilot/backend/internal/application/ledger"
	"github.com/stockpilot/backend/internal/domain/ledger"
	"github.com/stockpilot/backend/internal/interfaces/http/dto"
)

// StockHandler exposes stock read models and the manual movement endpoint
type StockHandler struct {
	BaseHandler
	catalog *appcatalog.CatalogService
	ledger  *appledger.LedgerService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(catalogSvc *appcatalog.CatalogService, ledgerSvc *appledger.LedgerService) *StockHandler {
	return &StockHandler{
		catalog: catalogSvc,
		ledger:  ledgerSvc,
	}
}

// RegisterRoutes registers stock routes
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	products := rg.Group("/products")
	{
		products.GET("/:id/stock", h.GetStock)
		products.GET("/:id/movements", h.ListMovements)
	}
	rg.POST("/movements", h.RecordMovement)
}

// GetStock returns the stock counters of a product. Available may be
// negative when the product is oversold.
func (h *StockHandler) GetStock(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	view, err := h.catalog.GetAvailable(c.Request.Context(), productID)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, view)
}

// MovementResponse is one ledger row in API responses
type MovementResponse struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"product_id"`
	WarehouseID  *string   `json:"warehouse_id,omitempty"`
	MovementType string    `json:"movement_type"`
	Direction    string    `json:"direction,omitempty"`
	Quantity     int64     `json:"quantity"`
	StockBefore  int64     `json:"stock_before"`
	StockAfter   int64     `json:"stock_after"`
	UnitPrice    string    `json:"unit_price"`
	Reason       string    `json:"reason,omitempty"`
	RecordedAt   time.Time `json:"recorded_at"`
}

func toMovementResponse(m *ledger.StockMovement) MovementResponse {
	resp := MovementResponse{
		ID:           m.ID.String(),
		ProductID:    m.ProductID.String(),
		MovementType: m.MovementType.String(),
		Direction:    string(m.Direction),
		Quantity:     m.Quantity,
		StockBefore:  m.StockBefore,
		StockAfter:   m.StockAfter,
		UnitPrice:    m.UnitPrice.String(),
		Reason:       m.Reason,
		RecordedAt:   m.RecordedAt,
	}
	if m.WarehouseID != nil {
		id := m.WarehouseID.String()
		resp.WarehouseID = &id
	}
	return resp
}

// ListMovements returns the movement history of a product, newest first
func (h *StockHandler) ListMovements(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	var list dto.ListRequest
	if err := c.ShouldBindQuery(&list); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	list.Normalize()

	filter := ledger.MovementFilter{Page: list.Page, PageSize: list.PageSize}
	if raw := c.Query("movement_type"); raw != "" {
		movementType := ledger.MovementType(raw)
		if !movementType.IsValid() {
			h.BadRequest(c, "Invalid movement type")
			return
		}
		filter.MovementType = &movementType
	}

	movements, total, err := h.ledger.History(c.Request.Context(), productID, filter)
	if err != nil {
		h.DomainError(c, err)
		return
	}

	rows := make([]MovementResponse, 0, len(movements))
	for i := range movements {
		rows = append(rows, toMovementResponse(&movements[i]))
	}
	h.SuccessWithMeta(c, rows, total, list.Page, list.PageSize)
}

// RecordMovementRequest is the manual movement request body
type RecordMovementRequest struct {
	ProductID    string  `json:"product_id" binding:"required,uuid"`
	WarehouseID  *string `json:"warehouse_id" binding:"omitempty,uuid"`
	MovementType string  `json:"movement_type" binding:"required"`
	Quantity     int64   `json:"quantity" binding:"required,gt=0"`
	UnitPrice    string  `json:"unit_price" binding:"omitempty"`
	Reason       string  `json:"reason" binding:"omitempty,max=255"`
}

// RecordMovement appends a movement to the ledger (deliveries, manual
// corrections, inventory counts)
func (h *StockHandler) RecordMovement(c *gin.Context) {
	var req RecordMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	input := appledger.AppendInput{
		ProductID:    productID,
		MovementType: ledger.MovementType(req.MovementType),
		Quantity:     req.Quantity,
		Reason:       req.Reason,
	}
	if req.WarehouseID != nil {
		warehouseID, err := uuid.Parse(*req.WarehouseID)
		if err != nil {
			h.BadRequest(c, "Invalid warehouse ID")
			return
		}
		input.WarehouseID = &warehouseID
	}
	if req.UnitPrice != "" {
		price, err := decimal.NewFromString(req.UnitPrice)
		if err != nil {
			h.BadRequest(c, "Invalid unit price")
			return
		}
		input.UnitPrice = price
	}

	result, err := h.ledger.Append(c.Request.Context(), input)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Created(c, result)
}
