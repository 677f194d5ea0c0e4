// Package api serves the read-only HTTP view of the service-type catalog:
// tag discovery, status lists, lineage history, and posting links.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/roach88/stgov/internal/engine"
	"github.com/roach88/stgov/internal/facade"
	"github.com/roach88/stgov/internal/ir"
	"github.com/roach88/stgov/internal/queryir"
)

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	facade *facade.Facade
	logger *slog.Logger
}

// NewServer creates a Server. A nil logger uses slog.Default().
func NewServer(f *facade.Facade, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{facade: f, logger: logger}
}

// Router returns the chi router with middleware and every route mounted.
// Middleware order: RequestID, RealIP, request logging, Recoverer.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(NewSlogLogger(s.logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Get("/tags", s.allTags)
	r.Get("/tags/{tag}", s.byTag)
	r.Get("/search", s.search)
	r.Get("/stats", s.statistics)

	r.Route("/service-types", func(r chi.Router) {
		r.Get("/", s.listByStatus)
		r.Get("/{origin}", s.get)
		r.Get("/{origin}/revisions", s.revisions)
		r.Get("/{origin}/links", s.serviceTypeLinks)
	})
	r.Get("/postings/{kind}/{id}/links", s.postingLinks)
	return r
}

// ErrorDetail is the body of every non-2xx response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps ErrorDetail.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) allTags(w http.ResponseWriter, r *http.Request) {
	f, ok := s.viewFacade(w, r)
	if !ok {
		return
	}
	tags, err := f.AllTags(r.Context())
	s.respond(w, r, tags, err)
}

func (s *Server) byTag(w http.ResponseWriter, r *http.Request) {
	f, ok := s.viewFacade(w, r)
	if !ok {
		return
	}
	tag, ok := pathParam(w, r, "tag")
	if !ok {
		return
	}
	lineages, err := f.ByTag(r.Context(), tag)
	s.respond(w, r, lineages, err)
}

// search answers ?tag=a&tag=b (intersection) or ?prefix=x (case-insensitive
// prefix), never both.
func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	f, ok := s.viewFacade(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	tags, hasTags := q["tag"]
	prefix, hasPrefix := q["prefix"]

	switch {
	case hasTags && hasPrefix:
		writeError(w, http.StatusBadRequest, string(engine.ErrCodeInvalidInput), "tag and prefix cannot be combined")
	case hasTags:
		lineages, err := f.ByTags(r.Context(), tags)
		s.respond(w, r, lineages, err)
	case hasPrefix:
		lineages, err := f.ByPrefix(r.Context(), prefix[0])
		s.respond(w, r, lineages, err)
	default:
		writeError(w, http.StatusBadRequest, string(engine.ErrCodeInvalidInput), "tag or prefix is required")
	}
}

func (s *Server) statistics(w http.ResponseWriter, r *http.Request) {
	f, ok := s.viewFacade(w, r)
	if !ok {
		return
	}
	stats, err := f.Statistics(r.Context())
	s.respond(w, r, stats, err)
}

func (s *Server) listByStatus(w http.ResponseWriter, r *http.Request) {
	status, err := ir.ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, http.StatusBadRequest, string(engine.ErrCodeInvalidInput), err.Error())
		return
	}
	lineages, err := s.facade.List(r.Context(), status)
	s.respond(w, r, lineages, err)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	origin, ok := pathParam(w, r, "origin")
	if !ok {
		return
	}
	l, err := s.facade.Get(r.Context(), origin)
	s.respond(w, r, l, err)
}

func (s *Server) revisions(w http.ResponseWriter, r *http.Request) {
	origin, ok := pathParam(w, r, "origin")
	if !ok {
		return
	}
	revs, err := s.facade.Revisions(r.Context(), origin)
	s.respond(w, r, revs, err)
}

func (s *Server) serviceTypeLinks(w http.ResponseWriter, r *http.Request) {
	origin, ok := pathParam(w, r, "origin")
	if !ok {
		return
	}
	postings, err := s.facade.LinksForServiceType(r.Context(), origin)
	s.respond(w, r, postings, err)
}

func (s *Server) postingLinks(w http.ResponseWriter, r *http.Request) {
	kind, err := ir.ParseEntityKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, string(engine.ErrCodeInvalidInput), err.Error())
		return
	}
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}
	origins, err := s.facade.LinksForPosting(r.Context(), ir.PostingRef{ID: id, Kind: kind})
	s.respond(w, r, origins, err)
}

// viewFacade applies ?view=discovery|all.
func (s *Server) viewFacade(w http.ResponseWriter, r *http.Request) (*facade.Facade, bool) {
	view, err := queryir.ParseView(r.URL.Query().Get("view"))
	if err != nil {
		writeError(w, http.StatusBadRequest, string(engine.ErrCodeInvalidInput), err.Error())
		return nil, false
	}
	return s.facade.WithView(view), true
}

// pathParam returns a decoded chi URL parameter. chi matches against the
// escaped path when one exists, so parameters may still carry %XX escapes.
func pathParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v, err := url.PathUnescape(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, string(engine.ErrCodeInvalidInput), "malformed "+name)
		return "", false
	}
	return v, true
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, body any, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, body)
		return
	}
	switch code := engine.CodeOf(err); code {
	case engine.ErrCodeNotFound:
		writeError(w, http.StatusNotFound, string(code), err.Error())
	case engine.ErrCodeInvalidInput:
		writeError(w, http.StatusBadRequest, string(code), err.Error())
	default:
		s.logger.ErrorContext(r.Context(), "request failed",
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}
