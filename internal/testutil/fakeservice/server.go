// Package fakeservice is an in-memory stand-in for the remote transaction
// service, used by tests that need real HTTP round trips.
package fakeservice

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/jfpDev/bankTransations/internal/adapter/http/dto"
	"github.com/jfpDev/bankTransations/internal/domain"
)

// MaxTransactionsPerClient is the per-counterparty record limit the service enforces.
const MaxTransactionsPerClient = 100

// Request is one request the fake received.
type Request struct {
	Method   string
	Path     string
	ClientID string
}

// Failure is a canned error response.
type Failure struct {
	Status  int
	Error   string
	Message string
	Details []string
}

// Option configures a Server.
type Option func(*Server)

// WithRateLimit limits each X-Client-Id to r requests per second with burst b.
func WithRateLimit(r float64, b int) Option {
	return func(s *Server) {
		s.limiters = newRateLimiter(r, b)
	}
}

// WithRecords seeds the store.
func WithRecords(records ...domain.Transaction) Option {
	return func(s *Server) {
		for _, r := range records {
			if r.ID == 0 {
				s.nextID++
				r.ID = s.nextID
			}
			if r.ID > s.nextID {
				s.nextID = r.ID
			}
			s.records[r.ID] = r
		}
	}
}

// WithClock replaces time.Now for future-date checks.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// Server is the fake service.
type Server struct {
	mu       sync.Mutex
	records  map[int64]domain.Transaction
	nextID   int64
	requests []Request
	failures []Failure
	limiters *rateLimiter
	now      func() time.Time
}

// New creates a Server.
func New(opts ...Option) *Server {
	s := &Server{
		records: make(map[int64]domain.Transaction),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start serves s on an httptest server closed at the end of the test and
// returns the API base URL.
func Start(t testing.TB, opts ...Option) (*Server, string) {
	t.Helper()
	s := New(opts...)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts.URL + "/api"
}

// Handler returns the service routes under /api.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(s.record)
	if s.limiters != nil {
		r.Use(s.limiters.Limit)
	}
	r.Use(s.injectFailure)

	r.Route("/api/transaction", func(r chi.Router) {
		r.Get("/", s.list)
		r.Post("/", s.create)
		r.Get("/tenpista/{name}", s.listByName)
		r.Get("/{id}", s.get)
		r.Put("/{id}", s.update)
		r.Delete("/{id}", s.delete)
	})

	return r
}

// FailNext makes the next request answer with f.
func (s *Server) FailNext(f Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, f)
}

// Requests returns every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Count returns how many requests matched method and path.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Records returns the stored records ordered by id.
func (s *Server) Records() []domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked()
}

func (s *Server) sortedLocked() []domain.Transaction {
	out := make([]domain.Transaction, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:   r.Method,
			Path:     r.URL.EscapedPath(),
			ClientID: r.Header.Get("X-Client-Id"),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		var f *Failure
		if len(s.failures) > 0 {
			f = &s.failures[0]
			s.failures = s.failures[1:]
		}
		s.mu.Unlock()

		if f != nil {
			writeError(w, r, f.Status, f.Error, f.Message, f.Details)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	records := s.sortedLocked()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, dto.TransactionsFromDomain(records))
}

func (s *Server) listByName(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if r.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(name); err == nil {
			name = unescaped
		}
	}

	s.mu.Lock()
	var out []domain.Transaction
	for _, rec := range s.sortedLocked() {
		if rec.CounterpartyName == name {
			out = append(out, rec)
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, dto.TransactionsFromDomain(out))
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	rec, found := s.records[id]
	s.mu.Unlock()

	if !found {
		writeNotFound(w, r, id)
		return
	}
	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(rec))
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	t, ok := s.decode(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, rec := range s.records {
		if rec.CounterpartyName == t.CounterpartyName {
			count++
		}
	}
	if count >= MaxTransactionsPerClient {
		writeError(w, r, http.StatusBadRequest, "Business Rule Violation",
			fmt.Sprintf("El cliente %s ha alcanzado el límite máximo de %d transacciones", t.CounterpartyName, MaxTransactionsPerClient), nil)
		return
	}

	s.nextID++
	t.ID = s.nextID
	s.records[t.ID] = t

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(t))
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	t, ok := s.decode(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.records[id]; !found {
		writeNotFound(w, r, id)
		return
	}

	t.ID = id
	s.records[id] = t
	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(t))
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.records[id]; !found {
		writeNotFound(w, r, id)
		return
	}

	delete(s.records, id)
	w.WriteHeader(http.StatusNoContent)
}

// decode reads a request body and applies the service's field checks.
func (s *Server) decode(w http.ResponseWriter, r *http.Request) (domain.Transaction, bool) {
	var req dto.TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusInternalServerError, "Internal Server Error",
			"Ha ocurrido un error interno en el servidor", nil)
		return domain.Transaction{}, false
	}

	var details []string
	if req.Amount < 0 {
		details = append(details, "El monto no puede ser negativo")
	}
	if strings.TrimSpace(req.BusinessName) == "" {
		details = append(details, "El giro o comercio es obligatorio")
	}
	if strings.TrimSpace(req.Name) == "" {
		details = append(details, "El nombre del tenpista es obligatorio")
	}
	if req.TransactionDate.Time().IsZero() {
		details = append(details, "La fecha de transacción es obligatoria")
	} else if req.TransactionDate.Time().After(s.now()) {
		details = append(details, "La fecha de transacción no puede ser futura")
	}

	if len(details) > 0 {
		writeError(w, r, http.StatusBadRequest, "Validation Error", "Error en la validación de los datos", details)
		return domain.Transaction{}, false
	}

	return req.ToDomain(), true
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid Parameter", "El parámetro 'id' tiene un valor inválido", nil)
		return 0, false
	}
	return id, true
}

func writeNotFound(w http.ResponseWriter, r *http.Request, id int64) {
	writeError(w, r, http.StatusNotFound, "Not Found", fmt.Sprintf("Transacción no encontrado con id: %d", id), nil)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, label, message string, details []string) {
	writeJSON(w, status, dto.ErrorResponse{
		Status:    status,
		Error:     label,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05"),
		Path:      r.URL.Path,
	})
}
