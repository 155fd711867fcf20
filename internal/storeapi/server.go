// Package storeapi serves the transaction collection over JSON for the board
// client: GET lists every record, POST creates one.
package storeapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/middleware/ratelimit"
	"tracker/internal/middleware/security"
	"tracker/internal/middleware/trace"
	"tracker/internal/store"
)

const (
	maxBodyBytes      = 1 << 20
	readHeaderTimeout = 10 * time.Second
)

type Server struct {
	http.Server
	backend      store.Backend
	logger       *log.Logger
	writesPerMin int
	tracer       *trace.Middleware
	limiter      *ratelimit.Limiter
}

type Option func(*Server)

// WithWriteLimit caps POSTs per client IP per minute. Zero disables it.
func WithWriteLimit(perMinute int) Option {
	return func(s *Server) { s.writesPerMin = perMinute }
}

func NewServer(addr string, backend store.Backend, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	s := &Server{
		backend: backend,
		logger:  logger.WithComponent(log.ComponentHTTP),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/transactions/{$}", s.handleList)
	mux.HandleFunc("GET /api/transactions", s.handleList)
	mux.HandleFunc("POST /api/transactions/{$}", s.handleCreate)
	mux.HandleFunc("POST /api/transactions", s.handleCreate)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	clientIP := security.NewClientIP()
	headers := security.NewHeadersMiddleware(security.APIHeadersConfig())
	s.tracer = trace.NewMiddleware(logger, clientIP.Extract)

	var handler http.Handler = mux
	if s.writesPerMin > 0 {
		s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: s.writesPerMin})
		handler = s.limiter.Middleware(clientIP.Extract, func(w http.ResponseWriter, r *http.Request) {
			writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
		}, http.MethodPost)(handler)
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.tracer.Middleware(headers.Middleware(security.NoStore(handler))),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s
}

type healthResponse struct {
	Status         string `json:"status"`
	Requests       int64  `json:"requests"`
	ServerErrors   int64  `json:"server_errors"`
	LastDurationUS int64  `json:"last_duration_us"`
	RateLimited    int64  `json:"rate_limited"`
	LimitedClients int64  `json:"limited_clients"`
}

// handleHealth reports liveness with the request counters since start.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	m := s.tracer.GetMetrics()
	resp := healthResponse{
		Status:         "ok",
		Requests:       m.TotalRequests,
		ServerErrors:   m.ServerErrors,
		LastDurationUS: m.LastDuration,
	}
	if s.limiter != nil {
		lm := s.limiter.GetMetrics()
		resp.RateLimited = lm.Rejected
		resp.LimitedClients = lm.ClientCount
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())

	recs, err := s.backend.List(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "List transactions failed",
			log.FieldOperation, log.OpList,
			log.FieldError, err)
		writeError(w, r, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	if recs == nil {
		recs = []store.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())

	t, err := decodeTransaction(w, r)
	if err != nil {
		logger.WarnContext(r.Context(), "Rejected transaction",
			log.FieldOperation, log.OpValidate,
			log.FieldError, err)
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := s.backend.Create(r.Context(), t)
	if err != nil {
		if isValidation(err) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		logger.ErrorContext(r.Context(), "Create transaction failed",
			log.FieldOperation, log.OpCreate,
			log.FieldError, err)
		writeError(w, r, http.StatusInternalServerError, "failed to store transaction")
		return
	}

	logger.InfoContext(r.Context(), "Transaction created",
		log.FieldID, rec.ID,
		log.FieldType, string(rec.Type),
		log.FieldAmount, rec.Amount)
	writeJSON(w, http.StatusCreated, rec)
}

// decodeTransaction reads and validates a request body. A missing currency
// means USD.
func decodeTransaction(w http.ResponseWriter, r *http.Request) (core.Transaction, error) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)

	var t core.Transaction
	if err := dec.Decode(&t); err != nil {
		if isValidation(err) {
			return t, err
		}
		return t, fmt.Errorf("invalid JSON body: %w", err)
	}
	t.Title = strings.TrimSpace(t.Title)
	if t.Currency == "" {
		t.Currency = core.USD
	} else {
		c, err := core.ParseCurrency(string(t.Currency))
		if err != nil {
			return t, err
		}
		t.Currency = c
	}
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}

func isValidation(err error) bool {
	for _, target := range []error{
		core.ErrInvalidAmount,
		core.ErrInvalidDate,
		core.ErrInvalidKind,
		core.ErrInvalidCurrency,
		core.ErrEmptyTitle,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError includes the request id so a client report can be matched to
// the server log line.
func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	body := map[string]string{"error": msg}
	if id := trace.GetRequestID(r.Context()); id != "" {
		body["request_id"] = id
	}
	writeJSON(w, status, body)
}
