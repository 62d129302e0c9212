// Package audit persists completed-request records. A single Recorder
// goroutine consumes the event bus and is the only writer to the store.
package audit

import (
	"context"
	"log/slog"
	"sync"

	"saas-backoffice/internal/event"
	"saas-backoffice/internal/model"
)

type store interface {
	Append(ctx context.Context, entry model.AuditEntry) error
}

type Recorder struct {
	bus   event.Bus
	store store
}

func NewRecorder(bus event.Bus, store store) *Recorder {
	return &Recorder{bus: bus, store: store}
}

// Start subscribes before returning, so no event published afterwards is
// missed. The returned stop function unsubscribes, drains what is already
// buffered and waits for the writer to finish.
func (r *Recorder) Start(ctx context.Context) (stop func()) {
	events, unsubscribe := r.bus.Subscribe()
	done := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		writeCtx := context.WithoutCancel(ctx)

		for {
			select {
			case e := <-events:
				r.handle(writeCtx, e)
			case <-done:
				for {
					select {
					case e := <-events:
						r.handle(writeCtx, e)
					default:
						return
					}
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
			unsubscribe()
		})
	}
}

func (r *Recorder) handle(ctx context.Context, e event.Event) {
	switch e.Type {
	case event.TypeRequestCompleted:
		entry, ok := e.Payload.(model.AuditEntry)
		if !ok {
			slog.Warn("audit: unexpected payload", "event_id", e.ID, "type", e.Type)
			return
		}
		if err := r.store.Append(ctx, entry); err != nil {
			slog.Error("audit: append failed", "request_id", entry.RequestID, "error", err.Error())
		}
	case event.TypeLoginSucceeded:
		slog.Info("audit: login", "username", e.ActorID, "at", e.Timestamp)
	case event.TypeLoginFailed:
		slog.Warn("audit: login failed", "username", e.ActorID, "at", e.Timestamp)
	}
}
