package notify

import (
	"context"
	"log/slog"

	"teacherdesk/internal/queue"
)

// Drain consumes q until ctx is done or the queue closes, decoding each
// notification and handing it to deliver. Messages of other types and
// delivery failures are logged and skipped.
func Drain(ctx context.Context, q queue.Queue, deliver Notifier, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	msgs, err := q.Consume(ctx)
	if err != nil {
		return err
	}
	for msg := range msgs {
		note, err := Decode(msg)
		if err != nil {
			logger.Warn("skip queue message", "type", msg.Type, "err", err)
			continue
		}
		if err := deliver.Notify(ctx, note); err != nil {
			logger.Error("deliver notification", "notification_id", note.ID, "err", err)
		}
	}
	return ctx.Err()
}
