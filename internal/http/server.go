package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"io/fs"
	"net/http"

	"tracker/internal/aggregate"
	"tracker/internal/board"
	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/middleware/security"
	"tracker/internal/middleware/trace"
	appweb "tracker/web"
)

// Server renders the transaction board.
type Server struct {
	http.Server
	templates *template.Template
	board     *board.Board
	logger    *log.Logger
}

type pageData struct {
	Form       board.Form
	Kinds      []core.Kind
	Currencies []core.Currency
	Summary    aggregate.Summary
	Notice     string
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, b *board.Board, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	mux := http.NewServeMux()

	s := &Server{
		board:  b,
		logger: logger.WithComponent(log.ComponentHTTP),
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.Handle("GET /{$}", security.NoStore(http.HandlerFunc(s.handleIndex)))
	mux.HandleFunc("POST /transactions", s.handleCreateTransaction)
	mux.HandleFunc("POST /currency", s.handleCurrency)
	mux.HandleFunc("POST /refresh", s.handleRefresh)
	mux.Handle("GET /api/summary", security.NoStore(http.HandlerFunc(s.handleSummary)))
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	clientIP := security.NewClientIP()
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(logger, clientIP.Extract)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           tracer.Middleware(headers.Middleware(mux)),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports ready once the board holds a list from the store.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.board.Loaded() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "")
}

// handleCreateTransaction copies every posted field into the board and
// submits. Only validation problems are shown; a failed write leaves the
// form filled in and is visible in the logs only.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		logger.WarnContext(r.Context(), "Parse form error", log.FieldError, err)
		s.render(w, r, http.StatusBadRequest, "Invalid request")
		return
	}

	values := make(map[board.Field]string, len(board.Fields()))
	for _, field := range board.Fields() {
		if _, ok := r.PostForm[string(field)]; !ok {
			continue
		}
		value := r.PostForm.Get(string(field))
		if field == board.FieldTitle {
			value = sanitizeInput(value)
		}
		values[field] = value
	}
	if err := s.board.SetFields(values); err != nil {
		logger.WarnContext(r.Context(), "Rejected field value",
			log.FieldOperation, log.OpValidate,
			log.FieldError, err)
		s.render(w, r, http.StatusUnprocessableEntity, fieldNotice(err))
		return
	}

	// Remote failures are logged by the board and not shown.
	var ve *board.ValidationError
	if err := s.board.Submit(r.Context()); errors.As(err, &ve) {
		s.render(w, r, http.StatusUnprocessableEntity, ve.Notice())
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleCurrency(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.render(w, r, http.StatusBadRequest, "Invalid request")
		return
	}
	if err := s.board.SetField(board.FieldCurrency, r.PostForm.Get(string(board.FieldCurrency))); err != nil {
		s.render(w, r, http.StatusUnprocessableEntity, fieldNotice(err))
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	// Failures are logged by the board and the previous list stays on screen.
	_ = s.board.Refresh(r.Context())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.board.Summary()); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Encode summary failed", log.FieldError, err)
	}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, notice string) {
	logger := log.FromContext(r.Context())
	if s.templates == nil {
		logger.ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	data := pageData{
		Form:       s.board.Form(),
		Kinds:      core.Kinds(),
		Currencies: core.Currencies(),
		Summary:    s.board.Summary(),
		Notice:     notice,
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		logger.ErrorContext(r.Context(), "Index template execution failed",
			log.FieldOperation, log.OpRender,
			log.FieldError, err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
