// Package notify delivers user-facing notifications raised by store
// operations.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"teacherdesk/internal/queue"
)

// MessageType marks notification payloads on a queue.
const MessageType = "notification"

// Kind tells the view how to present a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindFailure Kind = "failure"
)

// Notification is a message meant for the person using the app.
type Notification struct {
	ID      string    `json:"id"`
	Kind    Kind      `json:"kind"`
	Message string    `json:"message"`
	Count   int       `json:"count,omitempty"`
	At      time.Time `json:"at"`
}

// New stamps a notification with an id and the current time.
func New(kind Kind, message string, count int) Notification {
	return Notification{
		ID:      uuid.NewString(),
		Kind:    kind,
		Message: message,
		Count:   count,
		At:      time.Now().UTC(),
	}
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier writing to logger.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, note Notification) error {
	level := slog.LevelInfo
	if note.Kind == KindFailure {
		level = slog.LevelWarn
	}
	n.logger.Log(ctx, level, note.Message, "notification_id", note.ID, "kind", note.Kind, "count", note.Count)
	return nil
}

// QueueNotifier publishes notifications for a worker to deliver.
type QueueNotifier struct {
	q queue.Queue
}

// NewQueueNotifier returns a notifier publishing to q.
func NewQueueNotifier(q queue.Queue) *QueueNotifier {
	return &QueueNotifier{q: q}
}

func (n *QueueNotifier) Notify(ctx context.Context, note Notification) error {
	body, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	return n.q.Publish(ctx, queue.Message{Type: MessageType, Body: body})
}

// Decode extracts the notification carried by msg.
func Decode(msg queue.Message) (Notification, error) {
	if msg.Type != MessageType {
		return Notification{}, fmt.Errorf("unexpected message type %q", msg.Type)
	}
	var note Notification
	if err := json.Unmarshal(msg.Body, &note); err != nil {
		return Notification{}, fmt.Errorf("decode notification: %w", err)
	}
	return note, nil
}

// Recorder keeps notifications in memory. Views and tests read them back.
// When Limit is positive only the newest Limit notifications are kept.
type Recorder struct {
	Limit int

	mu    sync.Mutex
	notes []Notification
}

func (r *Recorder) Notify(_ context.Context, note Notification) error {
	r.mu.Lock()
	r.notes = append(r.notes, note)
	if r.Limit > 0 && len(r.notes) > r.Limit {
		r.notes = append([]Notification(nil), r.notes[len(r.notes)-r.Limit:]...)
	}
	r.mu.Unlock()
	return nil
}

// Notifications returns what has been recorded so far.
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.notes...)
}

// Multi delivers to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, note Notification) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, note); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
