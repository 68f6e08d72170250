package ledger

import (
	"github.com/google/uuid"

	"github.com/stockpilot/backend/internal/domain/shared"
)

// Event type constants for the ledger
const (
	EventTypeMovementRecorded = "ledger.movement_recorded"
)

const aggregateTypeMovement = "StockMovement"

// MovementRecordedEvent is emitted after a movement has been durably appended
type MovementRecordedEvent struct {
	shared.BaseDomainEvent
	ProductID    uuid.UUID    `json:"product_id"`
	MovementType MovementType `json:"movement_type"`
	Quantity     int64        `json:"quantity"`
	StockBefore  int64        `json:"stock_before"`
	StockAfter   int64        `json:"stock_after"`
	Reason       string       `json:"reason"`
}

// NewMovementRecordedEvent creates a new MovementRecordedEvent
func NewMovementRecordedEvent(m *StockMovement) *MovementRecordedEvent {
	return &MovementRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMovementRecorded, aggregateTypeMovement, m.ID),
		ProductID:       m.ProductID,
		MovementType:    m.MovementType,
		Quantity:        m.Quantity,
		StockBefore:     m.StockBefore,
		StockAfter:      m.StockAfter,
		Reason:          m.Reason,
	}
}
