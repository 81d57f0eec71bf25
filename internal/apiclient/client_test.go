package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestP_FillsPlaceholders(t *testing.T) {
	p := P("/students/{id}/consultations", 42)
	assert.Equal(t, "/students/42/consultations", p.String())
	assert.Equal(t, "/students/{id}/consultations", p.Route)

	assert.Equal(t, "/work-logs/a%2Fb", P("/work-logs/{date}", "a/b").String())
	assert.Equal(t, "/todos/", P("/todos/").String())
}

func TestClient_SendsJSONAndDecodes(t *testing.T) {
	var gotHeader http.Header
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		assert.Equal(t, "/todos/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":7,"content":"call parents"}`))
	}))
	defer srv.Close()

	c := New(srv.URL + "/")
	var out struct {
		ID      int    `json:"id"`
		Content string `json:"content"`
	}
	err := c.Post(context.Background(), P("/todos/"), map[string]string{"content": "call parents"}, &out)
	require.NoError(t, err)

	assert.Equal(t, 7, out.ID)
	assert.Equal(t, "application/json", gotHeader.Get("Content-Type"))
	assert.NotEmpty(t, gotHeader.Get("X-Request-ID"))
	assert.Equal(t, "call parents", gotBody["content"])
}

func TestClient_NoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, New(srv.URL).Delete(context.Background(), P("/students/{id}", 3)))
}

func TestClient_Non2xxIsRequestFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Work log not found for this date"}`))
	}))
	defer srv.Close()

	err := New(srv.URL).Get(context.Background(), P("/work-logs/{date}", "2024-03-01"), nil)
	require.Error(t, err)

	assert.True(t, errors.Is(err, ErrRequestFailed))
	assert.True(t, IsNotFound(err))
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
	assert.Contains(t, err.Error(), "Work log not found")
}

func TestClient_TransportErrorHasNoStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := New(url).Get(context.Background(), P("/students/"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Equal(t, 0, StatusCode(err))
	assert.False(t, IsNotFound(err))
}

func TestClient_DecodeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	var out []int
	err := New(srv.URL).Get(context.Background(), P("/students/"), &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.True(t, strings.Contains(err.Error(), "decode response"))
}

func TestClient_RecordsMetricsByRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	c := New(srv.URL, WithMetrics(m))

	for _, id := range []int{1, 2, 3} {
		require.NoError(t, c.Put(context.Background(), P("/todos/{id}", id), map[string]bool{"is_completed": true}, nil))
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodPut, "/todos/{id}", "200")))
}
