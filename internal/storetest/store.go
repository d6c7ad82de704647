// Package storetest provides an in-memory fake of the remote task store REST API for tests.
package storetest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clive/todo-tui/internal/model"
)

// Route names a store endpoint for request matching and failure injection
type Route string

const (
	RouteEnsureAccount Route = "POST /users/{account}"
	RouteListTasks     Route = "GET /users/{account}"
	RouteCreateTask    Route = "POST /todos/{account}"
	RouteDeleteTask    Route = "DELETE /todos/{id}"
	RouteDeleteAccount Route = "DELETE /users/{account}"
)

// Request is a recorded call to the store
type Request struct {
	Route       Route
	Path        string
	Body        string
	ContentType string
	RequestID   string
}

// Store is a fake task store. The zero value is not usable; call New.
type Store struct {
	mu       sync.Mutex
	accounts map[string][]int // account -> task IDs in creation order
	tasks    map[int]model.Task
	owners   map[int]string
	nextID   int
	requests []Request
	failures map[Route][]int

	// OmitTodos makes list responses leave out the todos key
	OmitTodos bool
}

// New creates an empty store
func New() *Store {
	return &Store{
		accounts: make(map[string][]int),
		tasks:    make(map[int]model.Task),
		owners:   make(map[int]string),
		nextID:   1,
		failures: make(map[Route][]int),
	}
}

// Start serves s on an httptest server that is closed when the test ends
func Start(tb testing.TB, s *Store) *httptest.Server {
	tb.Helper()
	srv := httptest.NewServer(s.Handler())
	tb.Cleanup(srv.Close)
	return srv
}

// Handler returns the chi router implementing the store API
func (s *Store) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)

	r.Post("/users/{account}", s.handle(RouteEnsureAccount, s.ensureAccount))
	r.Get("/users/{account}", s.handle(RouteListTasks, s.listTasks))
	r.Delete("/users/{account}", s.handle(RouteDeleteAccount, s.deleteAccount))
	r.Post("/todos/{account}", s.handle(RouteCreateTask, s.createTask))
	r.Delete("/todos/{id}", s.handle(RouteDeleteTask, s.deleteTask))

	return r
}

// FailNext makes the next call to route answer with status instead of being handled.
// Repeated calls queue further failures.
func (s *Store) FailNext(route Route, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = append(s.failures[route], status)
}

// AddAccount creates an account with the given task labels
func (s *Store) AddAccount(account string, labels ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account]; !ok {
		s.accounts[account] = nil
	}
	for _, label := range labels {
		s.addTaskLocked(account, label)
	}
}

// HasAccount reports whether the account exists
func (s *Store) HasAccount(account string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.accounts[account]
	return ok
}

// Tasks returns the tasks of an account in creation order
func (s *Store) Tasks(account string) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasksLocked(account)
}

// Requests returns every recorded request in arrival order
func (s *Store) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Routes returns the route of every recorded request in arrival order
func (s *Store) Routes() []Route {
	reqs := s.Requests()
	routes := make([]Route, len(reqs))
	for i, r := range reqs {
		routes[i] = r.Route
	}
	return routes
}

// Count returns how many requests hit route
func (s *Store) Count(route Route) int {
	n := 0
	for _, r := range s.Routes() {
		if r == route {
			n++
		}
	}
	return n
}

// ResetRequests forgets recorded requests
func (s *Store) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

// handle records the request and applies queued failures before calling h
func (s *Store) handle(route Route, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Route:       route,
			Path:        r.URL.Path,
			Body:        string(body),
			ContentType: r.Header.Get("Content-Type"),
			RequestID:   r.Header.Get("X-Request-ID"),
		})
		var status int
		if queued := s.failures[route]; len(queued) > 0 {
			status = queued[0]
			s.failures[route] = queued[1:]
		}
		s.mu.Unlock()

		if status != 0 {
			writeError(w, status, "injected failure")
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		h(w, r)
	}
}

func (s *Store) ensureAccount(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account]; ok {
		writeError(w, http.StatusBadRequest, "User already exists.")
		return
	}
	s.accounts[account] = nil
	writeJSON(w, http.StatusCreated, map[string]any{"name": account})
}

func (s *Store) listTasks(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account]; !ok {
		writeError(w, http.StatusNotFound, "User "+account+" doesn't exist.")
		return
	}
	if s.OmitTodos {
		writeJSON(w, http.StatusOK, map[string]any{"name": account})
		return
	}
	writeJSON(w, http.StatusOK, model.TaskList{Name: account, Todos: s.tasksLocked(account)})
}

func (s *Store) createTask(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")

	var req model.NewTask
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body: "+err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account]; !ok {
		writeError(w, http.StatusNotFound, "User "+account+" doesn't exist.")
		return
	}
	task := s.addTaskLocked(account, req.Label)
	task.IsDone = req.IsDone
	s.tasks[task.ID] = task
	writeJSON(w, http.StatusCreated, task)
}

func (s *Store) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "id must be an integer")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	owner, ok := s.owners[id]
	if !ok {
		writeError(w, http.StatusNotFound, "Todo "+strconv.Itoa(id)+" doesn't exist.")
		return
	}
	delete(s.tasks, id)
	delete(s.owners, id)
	ids := s.accounts[owner]
	for i, other := range ids {
		if other == id {
			s.accounts[owner] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Store) deleteAccount(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")

	s.mu.Lock()
	defer s.mu.Unlock()
	ids, ok := s.accounts[account]
	if !ok {
		writeError(w, http.StatusNotFound, "User "+account+" doesn't exist.")
		return
	}
	for _, id := range ids {
		delete(s.tasks, id)
		delete(s.owners, id)
	}
	delete(s.accounts, account)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Store) addTaskLocked(account, label string) model.Task {
	task := model.Task{ID: s.nextID, Label: label}
	s.nextID++
	s.tasks[task.ID] = task
	s.owners[task.ID] = account
	s.accounts[account] = append(s.accounts[account], task.ID)
	return task
}

func (s *Store) tasksLocked(account string) []model.Task {
	ids := s.accounts[account]
	tasks := make([]model.Task, 0, len(ids))
	for _, id := range ids {
		tasks = append(tasks, s.tasks[id])
	}
	return tasks
}

// requestID echoes the caller's request ID, generating one when absent
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()[:8]
			r.Header.Set("X-Request-ID", id)
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
