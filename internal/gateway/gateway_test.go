package gateway

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teacherdesk/internal/app"
	"teacherdesk/internal/auth"
	"teacherdesk/internal/backendtest"
	"teacherdesk/internal/config"
)

type fixture struct {
	router  *gin.Engine
	backend *backendtest.Server
	app     *app.App
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv := backendtest.New()
	t.Cleanup(srv.Close)

	reg := prometheus.NewRegistry()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a := app.Build(config.App{APIBaseURL: srv.URL, NotifyBackend: "log"}, logger, reg)
	opts.Gatherer = reg
	return &fixture{router: NewRouter(a, opts), backend: srv, app: a}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestStudents_RefreshCreateLookup(t *testing.T) {
	f := newFixture(t, Options{})
	f.backend.SeedStudent(map[string]any{"name": "Kim", "grade": 2, "class_num": 3, "student_num": 7})

	w := f.do(t, http.MethodGet, "/v1/students", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = f.do(t, http.MethodPost, "/v1/students/refresh", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	w = f.do(t, http.MethodPost, "/v1/students", map[string]any{"name": "Lee", "grade": 1, "class_num": 1, "student_num": 2})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[map[string]any](t, w)

	id := int(created["id"].(float64))
	w = f.do(t, http.MethodGet, "/v1/students/"+strconv.Itoa(id), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Lee", decode[map[string]any](t, w)["name"])

	w = f.do(t, http.MethodGet, "/v1/students/abc", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStudents_CreateValidation(t *testing.T) {
	f := newFixture(t, Options{})

	w := f.do(t, http.MethodPost, "/v1/students", map[string]any{"grade": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/v1/students/bulk", []any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPut, "/v1/students/x", map[string]any{"name": "Kim"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, f.backend.Requests(http.MethodPost, "/students/"))
}

func TestStudents_BulkFailureIsBadGateway(t *testing.T) {
	f := newFixture(t, Options{})
	f.backend.FailNext(http.MethodPost, "/students/", http.StatusUnprocessableEntity)

	w := f.do(t, http.MethodPost, "/v1/students/bulk", []map[string]any{
		{"name": "A", "grade": 1, "class_num": 1, "student_num": 1},
		{"name": "B", "grade": 1, "class_num": 1, "student_num": 2},
	})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.EqualValues(t, http.StatusUnprocessableEntity, decode[map[string]any](t, w)["upstream_status"])
	assert.Empty(t, f.app.Students.Students())
}

func TestStudents_UpdateDeleteConsult(t *testing.T) {
	f := newFixture(t, Options{})
	id := f.backend.SeedStudent(map[string]any{"name": "Kim", "grade": 2, "class_num": 3, "student_num": 7})
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/v1/students/refresh", nil).Code)

	w := f.do(t, http.MethodPost, "/v1/students/"+strconv.Itoa(id)+"/consultations", map[string]any{"date": "2024-04-01", "content": "career talk"})
	require.Equal(t, http.StatusOK, w.Code)
	st, ok := f.app.Students.Lookup(strconv.Itoa(id))
	require.True(t, ok)
	require.Len(t, st.Consultations, 1)

	w = f.do(t, http.MethodPut, "/v1/students/"+strconv.Itoa(id), map[string]any{"name": "Kim Minji", "grade": 2, "class_num": 3, "student_num": 7})
	require.Equal(t, http.StatusOK, w.Code)
	st, _ = f.app.Students.Lookup(strconv.Itoa(id))
	assert.Equal(t, "Kim Minji", st.Name)

	w = f.do(t, http.MethodDelete, "/v1/students/"+strconv.Itoa(id), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, f.app.Students.Students())

	w = f.do(t, http.MethodDelete, "/v1/students", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestStudents_Summary(t *testing.T) {
	f := newFixture(t, Options{})
	id := f.backend.SeedStudent(map[string]any{"name": "Kim", "grade": 2, "class_num": 3, "student_num": 7})
	path := "/v1/students/" + strconv.Itoa(id) + "/summary"

	w := f.do(t, http.MethodPost, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/v1/students/refresh", nil).Code)
	w = f.do(t, http.MethodPost, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"summary":"No consultation records."}`, w.Body.String())

	f.backend.FailNext(http.MethodPost, "/students/:id/summarize-consultations", http.StatusInternalServerError)
	w = f.do(t, http.MethodPost, path, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestToDos_Flow(t *testing.T) {
	f := newFixture(t, Options{})

	w := f.do(t, http.MethodPost, "/v1/todos", map[string]any{"content": "print worksheets"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := int(decode[map[string]any](t, w)["id"].(float64))

	w = f.do(t, http.MethodPut, "/v1/todos/"+strconv.Itoa(id), map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPut, "/v1/todos/"+strconv.Itoa(id), map[string]any{"is_completed": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode[map[string]any](t, w)["is_completed"])

	w = f.do(t, http.MethodPost, "/v1/todos/extract", map[string]any{"content": "grade quizzes, call parents"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 2)
	assert.Len(t, f.app.ToDos.ToDos(), 3)

	w = f.do(t, http.MethodGet, "/v1/notifications", nil)
	notes := decode[[]map[string]any](t, w)
	require.Len(t, notes, 1)
	assert.Equal(t, "success", notes[0]["kind"])

	w = f.do(t, http.MethodDelete, "/v1/todos/"+strconv.Itoa(id), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Len(t, f.app.ToDos.ToDos(), 2)
}

func TestWorkLogs_CurrentStates(t *testing.T) {
	f := newFixture(t, Options{})

	w := f.do(t, http.MethodGet, "/v1/work-logs/current", nil)
	assert.JSONEq(t, `{"state":"unset","work_log":null}`, w.Body.String())

	w = f.do(t, http.MethodPost, "/v1/work-logs/current/2024-04-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"state":"absent","work_log":null}`, w.Body.String())

	w = f.do(t, http.MethodPost, "/v1/work-logs", map[string]any{"date": "2024-04-01", "content": "sports day"})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/v1/work-logs/current", nil)
	cur := decode[map[string]any](t, w)
	assert.Equal(t, "present", cur["state"])

	w = f.do(t, http.MethodGet, "/v1/work-logs", nil)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	w = f.do(t, http.MethodPost, "/v1/work-logs/current/April-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodDelete, "/v1/work-logs/2024-04-01", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, f.app.WorkLogs.WorkLogs())
}

func TestWorkLogs_DeleteMissingIsBadGateway(t *testing.T) {
	f := newFixture(t, Options{})

	w := f.do(t, http.MethodDelete, "/v1/work-logs/2024-04-01", nil)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.EqualValues(t, http.StatusNotFound, decode[map[string]any](t, w)["upstream_status"])
}

func TestAuth_RequiredWhenKeySet(t *testing.T) {
	f := newFixture(t, Options{SigningKey: "secret", Issuer: "teacherdesk"})

	w := f.do(t, http.MethodGet, "/v1/todos", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tok, err := auth.Issue("teacher", "teacher", "teacherdesk", "secret", time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/v1/todos", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Value)
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsExposeClientRequests(t *testing.T) {
	f := newFixture(t, Options{})
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/v1/todos/refresh", nil).Code)

	w := f.do(t, http.MethodGet, "/metrics", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `teacherdesk_api_requests_total{code="200",method="GET",route="/todos/"} 1`)
}
