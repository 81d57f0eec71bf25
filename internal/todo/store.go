// Package todo keeps the local mirror of the backend's to-do list and
// extracts new to-dos from work-log text.
package todo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"teacherdesk/internal/apiclient"
	"teacherdesk/internal/mirror"
	"teacherdesk/internal/notify"
)

const (
	routeToDos   = "/todos/"
	routeToDo    = "/todos/{id}"
	routeFromLog = "/todos/from-log/"

	dateLayout = "2006-01-02"
)

// ToDo mirrors the backend's to-do record.
type ToDo struct {
	ID          int    `json:"id"`
	Content     string `json:"content"`
	IsCompleted bool   `json:"is_completed"`
}

type createRequest struct {
	Content string `json:"content"`
}

type updateRequest struct {
	IsCompleted bool `json:"is_completed"`
}

type extractRequest struct {
	Date    string `json:"date"`
	Content string `json:"content"`
}

// Store holds to-dos and syncs them with the backend.
type Store struct {
	api      *apiclient.Client
	notifier notify.Notifier
	logger   *slog.Logger
	now      func() time.Time
	todos    *mirror.List[ToDo]
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used to date log extractions.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates an empty store. notifier receives the outcome of log
// extractions.
func NewStore(api *apiclient.Client, notifier notify.Notifier, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = notify.NewLogNotifier(logger)
	}
	s := &Store{
		api:      api,
		notifier: notifier,
		logger:   logger.With("store", "todo"),
		now:      time.Now,
		todos:    mirror.New[ToDo](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ToDos returns a copy of the local list.
func (s *Store) ToDos() []ToDo {
	return s.todos.Snapshot()
}

// FetchAll replaces the local list with the server's.
func (s *Store) FetchAll(ctx context.Context) ([]ToDo, error) {
	var out []ToDo
	if err := s.api.Get(ctx, apiclient.P(routeToDos), &out); err != nil {
		return nil, s.fail("fetch todos", err)
	}
	s.todos.Replace(out)
	return out, nil
}

// Create adds a to-do with the given content.
func (s *Store) Create(ctx context.Context, content string) (ToDo, error) {
	var created ToDo
	if err := s.api.Post(ctx, apiclient.P(routeToDos), createRequest{Content: content}, &created); err != nil {
		return ToDo{}, s.fail("create todo", err)
	}
	s.todos.Append(created)
	return created, nil
}

// SetCompleted toggles the completion flag of a to-do.
func (s *Store) SetCompleted(ctx context.Context, id int, completed bool) (ToDo, error) {
	var updated ToDo
	if err := s.api.Put(ctx, apiclient.P(routeToDo, id), updateRequest{IsCompleted: completed}, &updated); err != nil {
		return ToDo{}, s.fail("update todo", err, "id", id)
	}
	s.todos.ReplaceFirst(hasID(id), updated)
	return updated, nil
}

// Delete removes a to-do remotely and locally.
func (s *Store) Delete(ctx context.Context, id int) error {
	if err := s.api.Delete(ctx, apiclient.P(routeToDo, id)); err != nil {
		return s.fail("delete todo", err, "id", id)
	}
	s.todos.RemoveAll(hasID(id))
	return nil
}

// ExtractFromLog asks the backend to derive to-dos from a work-log text,
// dated today, and appends every item it returns. The outcome is always
// reported through the notifier.
func (s *Store) ExtractFromLog(ctx context.Context, logContent string) ([]ToDo, error) {
	req := extractRequest{
		Date:    s.now().Local().Format(dateLayout),
		Content: logContent,
	}
	var extracted []ToDo
	if err := s.api.Post(ctx, apiclient.P(routeFromLog), req, &extracted); err != nil {
		s.notify(ctx, notify.New(notify.KindFailure,
			"Extracting to-dos failed. The work log may be too short, or an error occurred.", 0))
		return nil, s.fail("extract todos", err)
	}
	s.todos.AppendAll(extracted)
	s.notify(ctx, notify.New(notify.KindSuccess,
		fmt.Sprintf("%d new to-dos were extracted from the work log.", len(extracted)), len(extracted)))
	return extracted, nil
}

func (s *Store) notify(ctx context.Context, note notify.Notification) {
	if err := s.notifier.Notify(ctx, note); err != nil {
		s.logger.Warn("notification not delivered", "notification_id", note.ID, "error", err)
	}
}

func (s *Store) fail(op string, err error, args ...any) error {
	s.logger.Error(op+" failed", append(args, "error", err)...)
	return fmt.Errorf("%s: %w", op, err)
}

func hasID(id int) func(ToDo) bool {
	return func(t ToDo) bool { return t.ID == id }
}
