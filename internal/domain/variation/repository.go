package variation

import (
	"context"
	"time"
)

// SessionRepository stores editing sessions, one per product.
// Save replaces the stored session wholesale (last write wins).
type SessionRepository interface {
	// FindByProductID returns ErrSessionNotFound when no session exists
	FindByProductID(ctx context.Context, productID int64) (*Session, error)
	Save(ctx context.Context, session *Session) error
	DeleteByProductID(ctx context.Context, productID int64) error
}

// IdleSessionPurger is implemented by stores that can drop sessions nobody
// has saved since cutoff. It returns the product ids of the removed sessions.
type IdleSessionPurger interface {
	DeleteIdleBefore(ctx context.Context, cutoff time.Time) ([]int64, error)
}
