package orderflow

import (
	"context"
	"strings"

	"github.com/stockpilot/backend/internal/domain/shared"
)

// StockDeductionSettings drives the order-status state machine. The status
// fields are free-text labels matched verbatim against the order's new
// status, so operators can wire any storefront vocabulary (including
// non-Latin labels) without code changes.
//
// Loaded at startup and refreshed on explicit save; nothing else mutates it.
type StockDeductionSettings struct {
	shared.BaseEntity
	ReservationStatus string `gorm:"type:varchar(100)" json:"reservation_status"`
	DeductionStatus   string `gorm:"type:varchar(100)" json:"deduction_status"`
	RestoreStatus     string `gorm:"type:varchar(100)" json:"restore_status"`
	AutoDeductEnabled bool   `gorm:"not null;default:false" json:"auto_deduct_enabled"`
}

// TableName returns the table name for GORM
func (StockDeductionSettings) TableName() string {
	return "stock_deduction_settings"
}

// DefaultSettings returns settings with the state machine disabled. Used when
// no row has ever been saved, so a fresh deployment never moves stock until
// an operator opts in.
func DefaultSettings() *StockDeductionSettings {
	return &StockDeductionSettings{
		BaseEntity:        shared.NewBaseEntity(),
		AutoDeductEnabled: false,
	}
}

// Validate checks the settings for contradictions
func (s *StockDeductionSettings) Validate() error {
	if !s.AutoDeductEnabled {
		return nil
	}

	deduction := strings.TrimSpace(s.DeductionStatus)
	if deduction == "" {
		return shared.NewDomainError("INVALID_SETTINGS", "Deduction status is required when auto deduct is enabled")
	}
	if strings.EqualFold(deduction, strings.TrimSpace(s.RestoreStatus)) {
		return shared.NewDomainError("INVALID_SETTINGS", "Deduction and restore statuses must differ")
	}
	return nil
}

// ActionFor maps an order's new status to the stock action it triggers
func (s *StockDeductionSettings) ActionFor(newStatus string) StockAction {
	if !s.AutoDeductEnabled {
		return ActionNone
	}

	switch {
	case matches(s.ReservationStatus, newStatus):
		return ActionReserve
	case matches(s.DeductionStatus, newStatus):
		return ActionDeduct
	case matches(s.RestoreStatus, newStatus):
		return ActionRestore
	default:
		return ActionNone
	}
}

func matches(configured, actual string) bool {
	configured = strings.TrimSpace(configured)
	return configured != "" && configured == strings.TrimSpace(actual)
}

// StockAction is the stock effect of an order-status transition
type StockAction string

const (
	ActionNone    StockAction = "none"
	ActionReserve StockAction = "reserve"
	ActionDeduct  StockAction = "deduct"
	ActionRestore StockAction = "restore"
)

// SettingsRepository persists the single settings row
type SettingsRepository interface {
	// Load returns the stored settings, or shared.ErrNotFound when no row
	// has been saved yet
	Load(ctx context.Context) (*StockDeductionSettings, error)

	// Save persists the settings row, replacing any previous one
	Save(ctx context.Context, settings *StockDeductionSettings) error
}
