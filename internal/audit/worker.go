package audit

import (
	"context"
	"log/slog"
)

// Queue decouples event producers from a slow sink. Append never blocks; if
// the buffer is full the event is dropped and counted, because auditing must
// not back-pressure verifications.
type Queue struct {
	inbox  chan Event
	logger *slog.Logger
}

// NewQueue creates a queue with the given buffer size.
func NewQueue(size int, logger *slog.Logger) *Queue {
	if size <= 0 {
		size = 256
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{inbox: make(chan Event, size), logger: logger}
}

// Append enqueues the event without blocking.
func (q *Queue) Append(ctx context.Context, event Event) error {
	select {
	case q.inbox <- event:
		return nil
	default:
		q.logger.WarnContext(ctx, "audit queue full, dropping event",
			"verification_id", event.VerificationID,
		)
		return nil
	}
}

// Worker drains a queue into a sink. Run until the context is cancelled.
type Worker struct {
	queue  *Queue
	sink   Store
	logger *slog.Logger
}

// NewWorker wires a queue to its sink.
func NewWorker(queue *Queue, sink Store, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{queue: queue, sink: sink, logger: logger}
}

// Run consumes events until ctx is done. Sink failures are logged and the
// loop keeps going; one bad event must not stall the trail.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.queue.inbox:
			if err := w.sink.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit sink append failed",
					"verification_id", event.VerificationID,
					"error", err,
				)
			}
		}
	}
}
