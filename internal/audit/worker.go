package audit

import "context"

// Worker drains queued audit events into the store so emission never blocks
// the request that produced the event.
type Worker struct {
	store Store
	inbox <-chan Event
}

func NewWorker(store Store, inbox <-chan Event) *Worker {
	return &Worker{store: store, inbox: inbox}
}

// Run persists events until ctx is cancelled, then drains whatever is still
// queued before returning.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				return err
			}
		}
	}
}

func (w *Worker) drain() {
	for {
		select {
		case event := <-w.inbox:
			_ = w.store.Append(context.Background(), event)
		default:
			return
		}
	}
}
