package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/stockpilot/backend/internal/application/orderflow"
)

// SettingsHandler exposes the stock deduction settings
type SettingsHandler struct {
	BaseHandler
	settings *orderflow.SettingsService
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(settings *orderflow.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// RegisterRoutes registers settings routes
func (h *SettingsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/settings/stock-deduction")
	{
		group.GET("", h.Get)
		group.PUT("", h.Update)
	}
}

// SettingsResponse mirrors the stored settings
type SettingsResponse struct {
	ReservationStatus string `json:"reservation_status"`
	DeductionStatus   string `json:"deduction_status"`
	RestoreStatus     string `json:"restore_status"`
	AutoDeductEnabled bool   `json:"auto_deduct_enabled"`
}

// Get returns the current settings
func (h *SettingsHandler) Get(c *gin.Context) {
	current := h.settings.Current()
	h.Success(c, SettingsResponse{
		ReservationStatus: current.ReservationStatus,
		DeductionStatus:   current.DeductionStatus,
		RestoreStatus:     current.RestoreStatus,
		AutoDeductEnabled: current.AutoDeductEnabled,
	})
}

// UpdateSettingsRequest is the settings update body
type UpdateSettingsRequest struct {
	ReservationStatus string `json:"reservation_status" binding:"max=100"`
	DeductionStatus   string `json:"deduction_status" binding:"max=100"`
	RestoreStatus     string `json:"restore_status" binding:"max=100"`
	AutoDeductEnabled bool   `json:"auto_deduct_enabled"`
}

// Update validates, persists and hot-reloads the settings. The change takes
// effect for the next status transition; in-flight transitions finish under
// the settings they started with.
func (h *SettingsHandler) Update(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	next := orderflow.DefaultSettings()
	next.ReservationStatus = req.ReservationStatus
	next.DeductionStatus = req.DeductionStatus
	next.RestoreStatus = req.RestoreStatus
	next.AutoDeductEnabled = req.AutoDeductEnabled

	if err := h.settings.Save(c.Request.Context(), next); err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, SettingsResponse{
		ReservationStatus: next.ReservationStatus,
		DeductionStatus:   next.DeductionStatus,
		RestoreStatus:     next.RestoreStatus,
		AutoDeductEnabled: next.AutoDeductEnabled,
	})
}
