package event

import (
	"context"

	"go.uber.org/zap"

	"github.com/stockwave/harmony/internal/domain/shared"
	"github.com/stockwave/harmony/internal/domain/variation"
	"github.com/stockwave/harmony/internal/infrastructure/logger"
)

// SessionActivityLogger writes an audit line for every variation session event.
type SessionActivityLogger struct {
	logger *zap.Logger
}

// NewSessionActivityLogger creates the handler
func NewSessionActivityLogger(l *zap.Logger) *SessionActivityLogger {
	if l == nil {
		l = zap.NewNop()
	}
	return &SessionActivityLogger{logger: l.Named("variation_activity")}
}

// EventTypes implements shared.EventHandler
func (h *SessionActivityLogger) EventTypes() []string {
	return []string{
		variation.EventTypeSessionOpened,
		variation.EventTypeVariationsGenerated,
		variation.EventTypeVariationsBulkEdited,
		variation.EventTypeVariationsSubmitted,
	}
}

// Handle implements shared.EventHandler
func (h *SessionActivityLogger) Handle(ctx context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", event.EventType()),
		zap.String("session_id", event.AggregateID().String()),
	}
	if requestID := logger.GetRequestID(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}

	switch e := event.(type) {
	case *variation.SessionOpenedEvent:
		fields = append(fields,
			zap.Int64("product_id", e.ProductID),
			zap.Int("persisted", e.Persisted),
		)
	case *variation.VariationsGeneratedEvent:
		fields = append(fields,
			zap.Int64("product_id", e.ProductID),
			zap.Int("combinations", e.Report.Combinations),
			zap.Int("kept", e.Report.Kept),
			zap.Int("created", e.Report.Created),
			zap.Int("recovered", e.Report.Recovered),
			zap.Int("dropped", e.Report.Dropped),
		)
		if e.Report.Dropped > 0 {
			fields = append(fields, zap.Strings("dropped_signatures", e.Report.DroppedSignatures))
		}
	case *variation.VariationsBulkEditedEvent:
		fields = append(fields,
			zap.Int64("product_id", e.ProductID),
			zap.String("action", e.Action.String()),
			zap.Int("affected", e.Affected),
		)
	case *variation.VariationsSubmittedEvent:
		fields = append(fields,
			zap.Int64("product_id", e.ProductID),
			zap.Int("saved", e.Saved),
		)
	}

	h.logger.Info("variation session activity", fields...)
	return nil
}

var _ shared.EventHandler = (*SessionActivityLogger)(nil)
