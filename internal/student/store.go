// Package student keeps the local mirror of the backend's student list.
package student

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/sync/errgroup"

	"teacherdesk/internal/apiclient"
	"teacherdesk/internal/mirror"
)

const (
	routeStudents      = "/students/"
	routeStudent       = "/students/{id}"
	routeConsultations = "/students/{id}/consultations"
	routeSummary       = "/students/{id}/summarize-consultations"
)

var (
	// ErrMissingID is returned by Update when the record has no id.
	ErrMissingID = errors.New("student id required")
	// ErrNotLoaded is returned when an operation needs a student that is
	// not in the local list.
	ErrNotLoaded = errors.New("student not in local list")
)

// Store holds students and syncs them with the backend.
type Store struct {
	api      *apiclient.Client
	logger   *slog.Logger
	students *mirror.List[Student]
}

// NewStore creates an empty store backed by api.
func NewStore(api *apiclient.Client, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		api:      api,
		logger:   logger.With("store", "student"),
		students: mirror.New[Student](),
	}
}

// Students returns a copy of the local list.
func (s *Store) Students() []Student {
	return s.students.Snapshot()
}

// FetchAll replaces the local list with the server's.
func (s *Store) FetchAll(ctx context.Context) ([]Student, error) {
	var out []Student
	if err := s.api.Get(ctx, apiclient.P(routeStudents), &out); err != nil {
		return nil, s.fail("fetch students", err)
	}
	s.students.Replace(out)
	return out, nil
}

// Create posts a new student and appends the server's copy.
func (s *Store) Create(ctx context.Context, st Student) (Student, error) {
	created, err := s.post(ctx, st)
	if err != nil {
		return Student{}, s.fail("create student", err)
	}
	s.students.Append(created)
	return created, nil
}

// CreateMany posts every record concurrently and waits for all of them,
// even after one fails. Results are appended in the order the responses
// arrive, and only once all of them succeeded; a single failure appends
// nothing.
func (s *Store) CreateMany(ctx context.Context, records []Student) ([]Student, error) {
	var (
		g       errgroup.Group
		mu      sync.Mutex
		created = make([]Student, 0, len(records))
	)
	for _, rec := range records {
		g.Go(func() error {
			st, err := s.post(ctx, rec)
			if err != nil {
				return err
			}
			mu.Lock()
			created = append(created, st)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, s.fail("create students", err)
	}
	s.students.AppendAll(created)
	return created, nil
}

// Update replaces the student on the server and, if present, locally.
func (s *Store) Update(ctx context.Context, st Student) (Student, error) {
	if st.ID == 0 {
		return Student{}, ErrMissingID
	}
	var updated Student
	if err := s.api.Put(ctx, apiclient.P(routeStudent, st.ID), st, &updated); err != nil {
		return Student{}, s.fail("update student", err, "id", st.ID)
	}
	s.students.ReplaceFirst(hasID(st.ID), updated)
	return updated, nil
}

// Delete removes one student remotely and locally.
func (s *Store) Delete(ctx context.Context, id int) error {
	if err := s.api.Delete(ctx, apiclient.P(routeStudent, id)); err != nil {
		return s.fail("delete student", err, "id", id)
	}
	s.students.RemoveAll(hasID(id))
	return nil
}

// DeleteAll removes every student remotely and clears the local list.
func (s *Store) DeleteAll(ctx context.Context) error {
	if err := s.api.Delete(ctx, apiclient.P(routeStudents)); err != nil {
		return s.fail("delete all students", err)
	}
	s.students.Clear()
	return nil
}

// AddConsultation records a consultation and swaps in the updated student
// the server returns.
func (s *Store) AddConsultation(ctx context.Context, studentID int, c Consultation) (Student, error) {
	var updated Student
	if err := s.api.Post(ctx, apiclient.P(routeConsultations, studentID), c, &updated); err != nil {
		return Student{}, s.fail("add consultation", err, "id", studentID)
	}
	s.students.ReplaceFirst(hasID(studentID), updated)
	return updated, nil
}

// SummarizeConsultations asks the backend to summarize the consultations
// of a student in the local list. The list itself is not changed.
func (s *Store) SummarizeConsultations(ctx context.Context, studentID int) (string, error) {
	st, ok := s.students.Find(hasID(studentID))
	if !ok {
		return "", ErrNotLoaded
	}
	req := summaryRequest{Consultations: st.Consultations}
	if req.Consultations == nil {
		req.Consultations = []Consultation{}
	}
	var resp summaryResponse
	if err := s.api.Post(ctx, apiclient.P(routeSummary, studentID), req, &resp); err != nil {
		return "", s.fail("summarize consultations", err, "id", studentID)
	}
	return resp.Summary, nil
}

// Lookup finds a student in the local list. Like a browser's parseInt,
// leading whitespace is skipped and the id is read from the leading
// decimal digits, so "7abc" finds 7. A string with no leading digits
// matches nothing.
func (s *Store) Lookup(id string) (Student, bool) {
	n, ok := leadingInt(id)
	if !ok {
		return Student{}, false
	}
	return s.students.Find(hasID(n))
}

func leadingInt(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func (s *Store) post(ctx context.Context, st Student) (Student, error) {
	var created Student
	err := s.api.Post(ctx, apiclient.P(routeStudents), st, &created)
	return created, err
}

func (s *Store) fail(op string, err error, args ...any) error {
	s.logger.Error(op+" failed", append(args, "error", err)...)
	return fmt.Errorf("%s: %w", op, err)
}

func hasID(id int) func(Student) bool {
	return func(st Student) bool { return st.ID == id }
}
