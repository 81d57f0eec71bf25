// Package worklog keeps the local mirror of the backend's daily work logs
// plus the log currently being viewed.
package worklog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"teacherdesk/internal/apiclient"
	"teacherdesk/internal/mirror"
)

const (
	routeWorkLogs = "/work-logs/"
	routeWorkLog  = "/work-logs/{date}"

	// DateLayout is the format of the date key.
	DateLayout = "2006-01-02"
)

// ErrInvalidDate is returned for date keys that are not YYYY-MM-DD.
var ErrInvalidDate = errors.New("date must be YYYY-MM-DD")

// WorkLog is one day's log. Date is the key the backend upserts on.
type WorkLog struct {
	ID      int    `json:"id,omitempty"`
	Date    string `json:"date"`
	Content string `json:"content"`
}

// State describes the current-log pointer.
type State int

const (
	// Unset means no date has been queried yet.
	Unset State = iota
	// Present means Current holds a record.
	Present
	// Absent means the last queried date has no log.
	Absent
)

func (s State) String() string {
	switch s {
	case Present:
		return "present"
	case Absent:
		return "absent"
	default:
		return "unset"
	}
}

// Store holds work logs and syncs them with the backend.
type Store struct {
	api    *apiclient.Client
	logger *slog.Logger
	logs   *mirror.List[WorkLog]

	mu      sync.RWMutex
	current WorkLog
	state   State
}

// NewStore creates an empty store backed by api.
func NewStore(api *apiclient.Client, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		api:    api,
		logger: logger.With("store", "worklog"),
		logs:   mirror.New[WorkLog](),
	}
}

// WorkLogs returns a copy of the local list.
func (s *Store) WorkLogs() []WorkLog {
	return s.logs.Snapshot()
}

// Current returns the log being viewed and its state. The record is only
// meaningful when the state is Present.
func (s *Store) Current() (WorkLog, State) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.state
}

// FetchAll replaces the local list with the server's.
func (s *Store) FetchAll(ctx context.Context) ([]WorkLog, error) {
	var out []WorkLog
	if err := s.api.Get(ctx, apiclient.P(routeWorkLogs), &out); err != nil {
		return nil, s.fail("fetch work logs", err)
	}
	s.logs.Replace(out)
	return out, nil
}

// FetchByDate loads the log for date into Current. A 404 from the backend
// means no log exists yet: the state becomes Absent and no error is
// returned.
func (s *Store) FetchByDate(ctx context.Context, date string) (WorkLog, State, error) {
	if err := ValidateDate(date); err != nil {
		_, st := s.Current()
		return WorkLog{}, st, err
	}
	var wl WorkLog
	err := s.api.Get(ctx, apiclient.P(routeWorkLog, date), &wl)
	switch {
	case err == nil:
		s.setCurrent(wl, Present)
		return wl, Present, nil
	case apiclient.IsNotFound(err):
		s.setCurrent(WorkLog{}, Absent)
		return WorkLog{}, Absent, nil
	default:
		_, st := s.Current()
		return WorkLog{}, st, s.fail("fetch work log", err, "date", date)
	}
}

// Save creates or replaces the log for wl.Date, makes it current and
// reloads the list.
func (s *Store) Save(ctx context.Context, wl WorkLog) (WorkLog, error) {
	if err := ValidateDate(wl.Date); err != nil {
		return WorkLog{}, err
	}
	var saved WorkLog
	if err := s.api.Post(ctx, apiclient.P(routeWorkLogs), wl, &saved); err != nil {
		return WorkLog{}, s.fail("save work log", err, "date", wl.Date)
	}
	s.setCurrent(saved, Present)
	if _, err := s.FetchAll(ctx); err != nil {
		return saved, err
	}
	return saved, nil
}

// Delete removes the log for date and reloads the list.
func (s *Store) Delete(ctx context.Context, date string) error {
	if err := ValidateDate(date); err != nil {
		return err
	}
	if err := s.api.Delete(ctx, apiclient.P(routeWorkLog, date)); err != nil {
		return s.fail("delete work log", err, "date", date)
	}
	_, err := s.FetchAll(ctx)
	return err
}

// ValidateDate checks that date is a calendar date in DateLayout.
func ValidateDate(date string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return nil
}

func (s *Store) setCurrent(wl WorkLog, st State) {
	s.mu.Lock()
	s.current, s.state = wl, st
	s.mu.Unlock()
}

func (s *Store) fail(op string, err error, args ...any) error {
	s.logger.Error(op+" failed", append(args, "error", err)...)
	return fmt.Errorf("%s: %w", op, err)
}
