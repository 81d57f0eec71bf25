// Package gateway serves the stores to the browser view over HTTP.
package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"teacherdesk/internal/app"
	"teacherdesk/internal/auth"
	"teacherdesk/internal/httpmiddleware"
)

// Options configures the router.
type Options struct {
	// SigningKey enables bearer auth on /v1 when set.
	SigningKey string
	Issuer     string
	// RateLimitPerMin is the per-IP budget; zero disables limiting.
	RateLimitPerMin int
	// Gatherer backs /metrics. Defaults to the global registry.
	Gatherer prometheus.Gatherer
}

type handler struct {
	app *app.App
}

// NewRouter builds the gin engine for a.
func NewRouter(a *app.App, opts Options) *gin.Engine {
	h := &handler{app: a}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(httpmiddleware.RequestID())
	r.Use(httpmiddleware.CORS())
	r.Use(httpmiddleware.SecurityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(opts.RateLimitPerMin, opts.RateLimitPerMin).Middleware())

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	r.GET("/healthz", h.health)

	v1 := r.Group("/v1")
	if opts.SigningKey != "" {
		v1.Use(auth.RequireBearer(opts.SigningKey, opts.Issuer))
	}

	v1.GET("/students", h.listStudents)
	v1.POST("/students/refresh", h.refreshStudents)
	v1.POST("/students", h.createStudent)
	v1.POST("/students/bulk", h.createStudents)
	v1.GET("/students/:id", h.lookupStudent)
	v1.PUT("/students/:id", h.updateStudent)
	v1.DELETE("/students/:id", h.deleteStudent)
	v1.DELETE("/students", h.deleteAllStudents)
	v1.POST("/students/:id/consultations", h.addConsultation)
	v1.POST("/students/:id/summary", h.summarizeConsultations)

	v1.GET("/todos", h.listToDos)
	v1.POST("/todos/refresh", h.refreshToDos)
	v1.POST("/todos", h.createToDo)
	v1.PUT("/todos/:id", h.setToDoCompleted)
	v1.DELETE("/todos/:id", h.deleteToDo)
	v1.POST("/todos/extract", h.extractToDos)

	v1.GET("/work-logs", h.listWorkLogs)
	v1.POST("/work-logs/refresh", h.refreshWorkLogs)
	v1.GET("/work-logs/current", h.currentWorkLog)
	v1.POST("/work-logs/current/:date", h.loadWorkLog)
	v1.POST("/work-logs", h.saveWorkLog)
	v1.DELETE("/work-logs/:date", h.deleteWorkLog)

	v1.GET("/notifications", h.listNotifications)

	return r
}

func (h *handler) health(c *gin.Context) {
	body := gin.H{"status": "ok"}
	status := http.StatusOK
	if h.app.Redis != nil {
		ok := h.app.Redis.Healthy(c.Request.Context())
		body["redis"] = ok
		if !ok {
			body["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
	}
	c.JSON(status, body)
}

func (h *handler) listNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, h.app.Recent.Notifications())
}

// Serve runs srv until ctx is cancelled, then gives in-flight requests
// up to grace to finish.
func Serve(ctx context.Context, srv *http.Server, grace time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
