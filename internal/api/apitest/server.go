// Package apitest provides an in-memory todo backend for tests.
package apitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/idilsaglam/todo-remote/internal/model"
)

// Call records one request the backend received.
type Call struct {
	Method string
	Path   string
	Body   string
}

// Server is a fake backend serving /allTodos, /editTodo/:id and /deleteTodo/:id.
type Server struct {
	*httptest.Server

	mu      sync.Mutex
	records []model.Record
	calls   []Call
	status  int    // forced status for every response when non-zero
	raw     string // forced body for successful edit responses when non-empty
	empty   bool   // answer deletes with an empty body
}

// New starts a Server seeded with records and closes it when t ends.
func New(t testing.TB, records ...model.Record) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &Server{records: append([]model.Record(nil), records...)}

	r := gin.New()
	r.Use(s.recordCall)
	r.GET("/allTodos", s.handleList)
	r.PUT("/editTodo/:id", s.handleEdit)
	r.DELETE("/deleteTodo/:id", s.handleDelete)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// FailWith makes every following response use code (0 restores normal behavior).
func (s *Server) FailWith(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = code
}

// RespondRaw makes successful edit responses return body verbatim.
func (s *Server) RespondRaw(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = body
}

// EmptyDeletes makes successful deletes answer with no body.
func (s *Server) EmptyDeletes() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.empty = true
}

// Calls returns the requests received so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Records returns the backend's current records.
func (s *Server) Records() []model.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Record(nil), s.records...)
}

func (s *Server) recordCall(c *gin.Context) {
	b, _ := io.ReadAll(c.Request.Body)
	c.Set("body", b)

	s.mu.Lock()
	s.calls = append(s.calls, Call{Method: c.Request.Method, Path: c.Request.URL.Path, Body: string(b)})
	status := s.status
	s.mu.Unlock()

	if status != 0 && (status < 200 || status > 299) {
		c.AbortWithStatusJSON(status, gin.H{"error": http.StatusText(status)})
		return
	}
	c.Next()
}

func (s *Server) handleList(c *gin.Context) {
	c.JSON(http.StatusOK, s.Records())
}

func (s *Server) handleEdit(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var patch struct {
		Title       *string `json:"title"`
		IsCompleted *bool   `json:"isCompleted"`
	}
	if err := json.Unmarshal(c.MustGet("body").([]byte), &patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].ID != id {
			continue
		}
		if patch.Title != nil {
			s.records[i].Title = *patch.Title
		}
		if patch.IsCompleted != nil {
			s.records[i].IsCompleted = *patch.IsCompleted
		}
		if s.raw != "" {
			c.Data(http.StatusOK, "application/json", []byte(s.raw))
			return
		}
		c.JSON(http.StatusOK, s.records[i])
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}

func (s *Server) handleDelete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.records {
		if r.ID != id {
			continue
		}
		s.records = append(s.records[:i], s.records[i+1:]...)
		if s.empty {
			c.Status(http.StatusOK)
			return
		}
		c.JSON(http.StatusOK, r)
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}
