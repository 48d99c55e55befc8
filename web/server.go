// Package web exposes the timeline report over HTTP as an alternative
// display surface to the CLI.
package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"pr-timeline/bitbucket"
	"pr-timeline/config"
	"pr-timeline/identity"
	"pr-timeline/report"
	"pr-timeline/timeline"
)

// Server handles HTTP requests.
type Server struct {
	Router *chi.Mux
	cfg    *config.Config
	client *bitbucket.Client
	log    *zap.SugaredLogger
}

// NewServer creates a new web server around an already validated
// configuration.
func NewServer(cfg *config.Config, log *zap.SugaredLogger) *Server {
	s := &Server{
		cfg:    cfg,
		client: bitbucket.NewClient(cfg, log),
		log:    log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	// Generating a report walks up to the full page bound.
	r.Use(middleware.Timeout(2 * time.Minute))

	r.Get("/health", s.healthCheck)
	r.Get("/", s.getReportText)
	r.Route("/api", func(r chi.Router) {
		r.Get("/timeline", s.getTimeline)
	})

	s.Router = r
}

// Start runs the HTTP server on the given port.
func (s *Server) Start(port string) error {
	s.log.Infow("starting web server", "port", port)
	return http.ListenAndServe(":"+port, s.Router)
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "pr-timeline",
	})
}

// generate runs the full pipeline for the current month.
func (s *Server) generate(r *http.Request) (bitbucket.Result, []timeline.Entry, error) {
	ctx := r.Context()
	now := time.Now()

	landing, err := s.client.FetchDocument(ctx, s.cfg.Bitbucket.BaseURL)
	if err != nil {
		return bitbucket.Result{}, nil, err
	}
	userID, err := identity.ResolveCurrentUserID(landing)
	if err != nil {
		return bitbucket.Result{}, nil, err
	}

	result, err := s.client.CollectMergedPRs(ctx, userID, now.Year(), now.Month(), nil)
	if err != nil {
		return bitbucket.Result{}, nil, err
	}
	return result, timeline.Synthesize(result.PullRequests), nil
}

func (s *Server) getTimeline(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	result, entries, err := s.generate(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "success",
		"report":    report.Format(entries),
		"entries":   len(entries),
		"prs":       len(result.PullRequests),
		"pages":     result.Pages,
		"truncated": result.Truncated,
		"partial":   result.Partial,
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) getReportText(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	_, entries, err := s.generate(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if len(entries) == 0 {
		w.Write([]byte("No merged pull requests found for the current month.\n"))
		return
	}
	w.Write([]byte(report.Format(entries) + "\n"))
}

// writeError maps internal failures onto the fixed user-facing
// message set; detail stays in the log.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.log.Errorw("report generation failed", "error", err)
	if errors.Is(err, identity.ErrNotFound) {
		http.Error(w, "Could not determine the current user; confirm you are logged in", http.StatusUnauthorized)
		return
	}
	http.Error(w, "Report generation failed", http.StatusInternalServerError)
}
