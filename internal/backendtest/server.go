// Package backendtest runs an in-process fake of the backend REST service
// for tests. It keeps students, to-dos and work logs in memory and follows
// the backend's semantics: server-assigned ids, create-or-replace work logs
// keyed by date, 404 for missing records and comma-split log extraction.
package backendtest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Server is the fake backend. Zero value is not usable; call New.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	nextID    int
	students  map[int]map[string]any
	todos     map[int]map[string]any
	workLogs  map[string]map[string]any
	failures  map[string][]int
	requests  map[string]int
	lastBody  map[string]map[string]any
	delays    map[string]time.Duration
	extractor func(text string) []string
	summarize func(consultations []map[string]any) string
}

// New starts a fake backend. Close it when done.
func New() *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{
		nextID:    1,
		students:  make(map[int]map[string]any),
		todos:     make(map[int]map[string]any),
		workLogs:  make(map[string]map[string]any),
		failures:  make(map[string][]int),
		requests:  make(map[string]int),
		lastBody:  make(map[string]map[string]any),
		delays:    make(map[string]time.Duration),
		extractor: SplitTasks,
		summarize: Summarize,
	}

	r := gin.New()
	r.Use(s.track)

	r.GET("/students/", s.listStudents)
	r.POST("/students/", s.createStudent)
	r.DELETE("/students/", s.deleteAllStudents)
	r.PUT("/students/:id", s.updateStudent)
	r.DELETE("/students/:id", s.deleteStudent)
	r.POST("/students/:id/consultations", s.addConsultation)
	r.POST("/students/:id/summarize-consultations", s.summarizeConsultations)

	r.GET("/todos/", s.listToDos)
	r.POST("/todos/", s.createToDo)
	r.POST("/todos/from-log/", s.extractToDos)
	r.PUT("/todos/:id", s.updateToDo)
	r.DELETE("/todos/:id", s.deleteToDo)

	r.GET("/work-logs/", s.listWorkLogs)
	r.POST("/work-logs/", s.saveWorkLog)
	r.GET("/work-logs/:date", s.getWorkLog)
	r.DELETE("/work-logs/:date", s.deleteWorkLog)

	s.Server = httptest.NewServer(r)
	return s
}

// FailNext makes the next request matching method and route (a gin route
// template such as "/students/:id") answer with status. Calls queue up.
func (s *Server) FailNext(method, route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + route
	s.failures[key] = append(s.failures[key], status)
}

// Delay holds every successful request matching method and route for d
// before it is handled. A request whose client goes away while held is
// dropped without touching any state.
func (s *Server) Delay(method, route string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[method+" "+route] = d
}

// Requests reports how many requests hit method and route.
func (s *Server) Requests(method, route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[method+" "+route]
}

// LastBody returns the last JSON object sent to method and route.
func (s *Server) LastBody(method, route string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastBody[method+" "+route]
}

// SetSummarizer replaces the function that summarizes consultations.
func (s *Server) SetSummarizer(fn func(consultations []map[string]any) string) {
	s.mu.Lock()
	s.summarize = fn
	s.mu.Unlock()
}

// Summarize is the default summarizer: a count plus the latest entry.
func Summarize(consultations []map[string]any) string {
	if len(consultations) == 0 {
		return "No consultation records."
	}
	last := consultations[len(consultations)-1]
	return fmt.Sprintf("%d consultations. Latest on %v: %v", len(consultations), last["date"], last["content"])
}

// SetExtractor replaces the function that turns log text into to-dos.
func (s *Server) SetExtractor(fn func(text string) []string) {
	s.mu.Lock()
	s.extractor = fn
	s.mu.Unlock()
}

// SeedStudent stores a student directly and returns its id.
func (s *Server) SeedStudent(fields map[string]any) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.allocID()
	rec := clone(fields)
	rec["id"] = id
	if _, ok := rec["consultations"]; !ok {
		rec["consultations"] = []any{}
	}
	s.students[id] = rec
	return id
}

// SeedToDo stores a to-do directly and returns its id.
func (s *Server) SeedToDo(content string, completed bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.allocID()
	s.todos[id] = map[string]any{"id": id, "content": content, "is_completed": completed}
	return id
}

// SeedWorkLog stores a work log directly.
func (s *Server) SeedWorkLog(date, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertWorkLog(date, content)
}

// SplitTasks is the default extractor: comma-separated items, with "none"
// (or the empty string) meaning nothing to do.
func SplitTasks(text string) []string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "*", ""))
	if text == "" || strings.EqualFold(text, "none") {
		return nil
	}
	var out []string
	for _, item := range strings.Split(text, ",") {
		item = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(item), "-"))
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (s *Server) track(c *gin.Context) {
	key := c.Request.Method + " " + c.FullPath()
	s.mu.Lock()
	s.requests[key]++
	var status int
	if queued := s.failures[key]; len(queued) > 0 {
		status = queued[0]
		s.failures[key] = queued[1:]
	}
	delay := s.delays[key]
	s.mu.Unlock()

	if status != 0 {
		c.AbortWithStatusJSON(status, gin.H{"detail": "injected failure"})
		return
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-c.Request.Context().Done():
			c.Abort()
			return
		}
	}
	c.Next()
}

func (s *Server) bind(c *gin.Context) (map[string]any, bool) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return nil, false
	}
	s.mu.Lock()
	s.lastBody[c.Request.Method+" "+c.FullPath()] = body
	s.mu.Unlock()
	return body, true
}

func (s *Server) allocID() int {
	id := s.nextID
	s.nextID++
	return id
}

func (s *Server) listStudents(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, sortedByID(s.students))
}

func (s *Server) createStudent(c *gin.Context) {
	body, ok := s.bind(c)
	if !ok {
		return
	}
	if name, _ := body["name"].(string); name == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "name is required"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.allocID()
	body["id"] = id
	body["consultations"] = []any{}
	s.students[id] = body
	c.JSON(http.StatusCreated, body)
}

func (s *Server) updateStudent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	body, ok := s.bind(c)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, found := s.students[id]
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Student not found"})
		return
	}
	body["id"] = id
	body["consultations"] = existing["consultations"]
	s.students[id] = body
	c.JSON(http.StatusOK, body)
}

func (s *Server) deleteStudent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.students[id]; !found {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Student not found"})
		return
	}
	delete(s.students, id)
	c.Status(http.StatusNoContent)
}

func (s *Server) deleteAllStudents(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.students = make(map[int]map[string]any)
	c.Status(http.StatusNoContent)
}

func (s *Server) addConsultation(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	body, ok := s.bind(c)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, found := s.students[id]
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Student not found"})
		return
	}
	list, _ := st["consultations"].([]any)
	st["consultations"] = append(list, map[string]any{"date": body["date"], "content": body["content"]})
	c.JSON(http.StatusOK, st)
}

func (s *Server) summarizeConsultations(c *gin.Context) {
	if _, ok := pathID(c); !ok {
		return
	}
	var body struct {
		Consultations []map[string]any `json:"consultations"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	s.mu.Lock()
	s.lastBody[c.Request.Method+" "+c.FullPath()] = map[string]any{"consultations": body.Consultations}
	fn := s.summarize
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"summary": fn(body.Consultations)})
}

func (s *Server) listToDos(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, sortedByID(s.todos))
}

func (s *Server) createToDo(c *gin.Context) {
	body, ok := s.bind(c)
	if !ok {
		return
	}
	content, _ := body["content"].(string)
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusCreated, s.newToDo(content))
}

func (s *Server) newToDo(content string) map[string]any {
	id := s.allocID()
	rec := map[string]any{"id": id, "content": content, "is_completed": false}
	s.todos[id] = rec
	return rec
}

func (s *Server) updateToDo(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	body, ok := s.bind(c)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, found := s.todos[id]
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Todo item not found"})
		return
	}
	if v, ok := body["is_completed"].(bool); ok {
		rec["is_completed"] = v
	}
	if v, ok := body["content"].(string); ok {
		rec["content"] = v
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) deleteToDo(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.todos[id]; !found {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Todo item not found"})
		return
	}
	delete(s.todos, id)
	c.Status(http.StatusNoContent)
}

func (s *Server) extractToDos(c *gin.Context) {
	body, ok := s.bind(c)
	if !ok {
		return
	}
	text, _ := body["content"].(string)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []map[string]any{}
	for _, item := range s.extractor(text) {
		out = append(out, s.newToDo(item))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) listWorkLogs(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dates := make([]string, 0, len(s.workLogs))
	for d := range s.workLogs {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	out := make([]map[string]any, 0, len(dates))
	for _, d := range dates {
		out = append(out, s.workLogs[d])
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getWorkLog(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, found := s.workLogs[c.Param("date")]
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Work log not found for this date"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) saveWorkLog(c *gin.Context) {
	body, ok := s.bind(c)
	if !ok {
		return
	}
	date, _ := body["date"].(string)
	content, _ := body["content"].(string)
	if date == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "date is required"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, s.upsertWorkLog(date, content))
}

func (s *Server) upsertWorkLog(date, content string) map[string]any {
	if rec, found := s.workLogs[date]; found {
		rec["content"] = content
		return rec
	}
	rec := map[string]any{"id": s.allocID(), "date": date, "content": content}
	s.workLogs[date] = rec
	return rec
}

func (s *Server) deleteWorkLog(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	date := c.Param("date")
	if _, found := s.workLogs[date]; !found {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Work log not found for this date"})
		return
	}
	delete(s.workLogs, date)
	c.Status(http.StatusNoContent)
}

func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "id must be an integer"})
		return 0, false
	}
	return id, true
}

func sortedByID(m map[int]map[string]any) []map[string]any {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

func clone(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
