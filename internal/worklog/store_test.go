package worklog

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teacherdesk/internal/apiclient"
	"teacherdesk/internal/backendtest"
)

func newStore(t *testing.T) (*Store, *backendtest.Server) {
	t.Helper()
	srv := backendtest.New()
	t.Cleanup(srv.Close)
	return NewStore(apiclient.New(srv.URL), nil), srv
}

func dates(list []WorkLog) []string {
	out := make([]string, 0, len(list))
	for _, wl := range list {
		out = append(out, wl.Date)
	}
	return out
}

func TestStore_CurrentStartsUnset(t *testing.T) {
	s, _ := newStore(t)
	_, st := s.Current()
	assert.Equal(t, Unset, st)
	assert.Equal(t, "unset", st.String())
}

func TestStore_FetchByDateFound(t *testing.T) {
	s, srv := newStore(t)
	srv.SeedWorkLog("2024-04-01", "first day")

	wl, st, err := s.FetchByDate(context.Background(), "2024-04-01")
	require.NoError(t, err)

	assert.Equal(t, Present, st)
	assert.Equal(t, "first day", wl.Content)
	cur, cst := s.Current()
	assert.Equal(t, Present, cst)
	assert.Equal(t, wl, cur)
}

func TestStore_FetchByDateNotFoundIsAbsent(t *testing.T) {
	s, srv := newStore(t)
	srv.SeedWorkLog("2024-04-01", "first day")
	_, _, err := s.FetchByDate(context.Background(), "2024-04-01")
	require.NoError(t, err)

	wl, st, err := s.FetchByDate(context.Background(), "2024-04-02")

	require.NoError(t, err)
	assert.Equal(t, Absent, st)
	assert.Zero(t, wl)
	_, cst := s.Current()
	assert.Equal(t, Absent, cst)
}

func TestStore_FetchByDateOtherFailureKeepsCurrent(t *testing.T) {
	s, srv := newStore(t)
	srv.SeedWorkLog("2024-04-01", "first day")
	_, _, err := s.FetchByDate(context.Background(), "2024-04-01")
	require.NoError(t, err)
	srv.FailNext(http.MethodGet, "/work-logs/:date", http.StatusInternalServerError)

	_, st, err := s.FetchByDate(context.Background(), "2024-04-02")

	assert.ErrorIs(t, err, apiclient.ErrRequestFailed)
	assert.Equal(t, Present, st)
	cur, _ := s.Current()
	assert.Equal(t, "2024-04-01", cur.Date)
}

func TestStore_FetchByDateRejectsBadDate(t *testing.T) {
	s, srv := newStore(t)

	_, _, err := s.FetchByDate(context.Background(), "04/01/2024")

	assert.ErrorIs(t, err, ErrInvalidDate)
	assert.Zero(t, srv.Requests(http.MethodGet, "/work-logs/:date"))
}

func TestStore_SaveUpsertsAndResyncs(t *testing.T) {
	s, srv := newStore(t)
	ctx := context.Background()
	srv.SeedWorkLog("2024-04-01", "first day")

	saved, err := s.Save(ctx, WorkLog{Date: "2024-04-02", Content: "draft"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-04-01", "2024-04-02"}, dates(s.WorkLogs()))

	again, err := s.Save(ctx, WorkLog{Date: "2024-04-02", Content: "final"})
	require.NoError(t, err)

	assert.Equal(t, saved.ID, again.ID)
	assert.Equal(t, []string{"2024-04-01", "2024-04-02"}, dates(s.WorkLogs()))
	assert.Equal(t, "final", s.WorkLogs()[1].Content)
	cur, st := s.Current()
	assert.Equal(t, Present, st)
	assert.Equal(t, "final", cur.Content)
	assert.Equal(t, 2, srv.Requests(http.MethodGet, "/work-logs/"))
}

func TestStore_SaveFailureLeavesState(t *testing.T) {
	s, srv := newStore(t)
	srv.FailNext(http.MethodPost, "/work-logs/", http.StatusInternalServerError)

	_, err := s.Save(context.Background(), WorkLog{Date: "2024-04-02", Content: "draft"})

	assert.ErrorIs(t, err, apiclient.ErrRequestFailed)
	_, st := s.Current()
	assert.Equal(t, Unset, st)
	assert.Zero(t, srv.Requests(http.MethodGet, "/work-logs/"))
}

func TestStore_DeleteResyncs(t *testing.T) {
	s, srv := newStore(t)
	ctx := context.Background()
	srv.SeedWorkLog("2024-04-01", "a")
	srv.SeedWorkLog("2024-04-02", "b")
	_, err := s.FetchAll(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "2024-04-01"))

	assert.Equal(t, []string{"2024-04-02"}, dates(s.WorkLogs()))
}

func TestStore_DeleteMissingFails(t *testing.T) {
	s, _ := newStore(t)

	err := s.Delete(context.Background(), "2024-04-01")

	assert.True(t, apiclient.IsNotFound(err))
}
