package variation

import (
	"github.com/stockwave/harmony/internal/domain/shared"
)

// Event type constants for variation sessions
const (
	EventTypeSessionOpened        = "VariationSessionOpened"
	EventTypeVariationsGenerated  = "VariationsGenerated"
	EventTypeVariationsBulkEdited = "VariationsBulkEdited"
	EventTypeVariationsSubmitted  = "VariationsSubmitted"
)

// SessionOpenedEvent is raised when an editing session is created
type SessionOpenedEvent struct {
	shared.BaseDomainEvent
	ProductID int64 `json:"product_id"`
	Persisted int   `json:"persisted"`
}

// NewSessionOpenedEvent creates a SessionOpenedEvent
func NewSessionOpenedEvent(s *Session) *SessionOpenedEvent {
	return &SessionOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSessionOpened, AggregateTypeSession, s.ID),
		ProductID:       s.ProductID,
		Persisted:       len(s.Persisted),
	}
}

// VariationsGeneratedEvent is raised after a regeneration pass
type VariationsGeneratedEvent struct {
	shared.BaseDomainEvent
	ProductID int64              `json:"product_id"`
	Report    RegenerationReport `json:"report"`
}

// NewVariationsGeneratedEvent creates a VariationsGeneratedEvent
func NewVariationsGeneratedEvent(s *Session, report RegenerationReport) *VariationsGeneratedEvent {
	return &VariationsGeneratedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVariationsGenerated, AggregateTypeSession, s.ID),
		ProductID:       s.ProductID,
		Report:          report,
	}
}

// VariationsBulkEditedEvent is raised after a bulk action was applied
type VariationsBulkEditedEvent struct {
	shared.BaseDomainEvent
	ProductID int64      `json:"product_id"`
	Action    BulkAction `json:"action"`
	Affected  int        `json:"affected"`
}

// NewVariationsBulkEditedEvent creates a VariationsBulkEditedEvent
func NewVariationsBulkEditedEvent(s *Session, action BulkAction, affected int) *VariationsBulkEditedEvent {
	return &VariationsBulkEditedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVariationsBulkEdited, AggregateTypeSession, s.ID),
		ProductID:       s.ProductID,
		Action:          action,
		Affected:        affected,
	}
}

// VariationsSubmittedEvent is raised once the store accepted the working list
type VariationsSubmittedEvent struct {
	shared.BaseDomainEvent
	ProductID int64 `json:"product_id"`
	Saved     int   `json:"saved"`
}

// NewVariationsSubmittedEvent creates a VariationsSubmittedEvent
func NewVariationsSubmittedEvent(s *Session, saved int) *VariationsSubmittedEvent {
	return &VariationsSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVariationsSubmitted, AggregateTypeSession, s.ID),
		ProductID:       s.ProductID,
		Saved:           saved,
	}
}
