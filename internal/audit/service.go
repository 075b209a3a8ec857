package audit

import (
	"context"
	"time"

	"fleetbook/pkg/requestcontext"
)

// Service captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily.
type Service struct {
	store Store
	queue chan<- Event
}

// NewService appends events inline. Tests and read paths use it.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// NewQueued hands events to a Worker instead of appending inline, keeping
// the request path free of the sink's latency. The returned Worker must be
// running for events to reach the store.
func NewQueued(store Store, buffer int) (*Service, *Worker) {
	inbox := make(chan Event, buffer)
	return &Service{store: store, queue: inbox}, NewWorker(store, inbox)
}

func (s *Service) Emit(ctx context.Context, base Event) error {
	if base.Timestamp.IsZero() {
		base.Timestamp = time.Now()
	}
	if base.RequestID == "" {
		base.RequestID = requestcontext.RequestID(ctx)
	}
	if s.queue != nil {
		select {
		case s.queue <- base:
			return nil
		default:
			// Queue full: fall through and append inline rather than lose
			// the event.
		}
	}
	return s.store.Append(ctx, base)
}

func (s *Service) ListByAction(ctx context.Context, action string) ([]Event, error) {
	return s.store.ListByAction(ctx, action)
}
