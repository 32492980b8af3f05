package audit

import (
	"context"

	id "entgate/pkg/domain"
)

// Store persists audit events. Implementations must be safe for concurrent
// use; Append must never mutate previously stored events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
}
