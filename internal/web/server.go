// Package web exposes the review scheduler over a small JSON HTTP API. It is
// thin glue: every handler parses the request, calls the review service and
// encodes the result.
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/artloop/artloop/internal/domain"
	"github.com/artloop/artloop/internal/review"
	"github.com/artloop/artloop/internal/sm2"
	"github.com/artloop/artloop/internal/storage"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	svc        *review.Service
	router     *http.ServeMux
	queueLimit int
	now        func() time.Time
}

// NewServer creates and configures a new server. queueLimit is the queue size
// used when a request does not specify one.
func NewServer(svc *review.Service, queueLimit int) *Server {
	s := &Server{
		svc:        svc,
		router:     http.NewServeMux(),
		queueLimit: queueLimit,
		now:        time.Now,
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	s.router.HandleFunc("/api/review/", s.handlePostReview())
	s.router.HandleFunc("/api/queue", s.handleGetQueue())
	s.router.HandleFunc("/api/progress", s.handleGetProgress())
	s.router.HandleFunc("/api/items/", s.handleGetHistory())
}

// reviewRequest is the body of a review submission. ReviewedAt is optional
// and defaults to the current time.
type reviewRequest struct {
	Rating     domain.Rating `json:"rating"`
	ReviewedAt time.Time     `json:"reviewedAt,omitzero"`
}

// handlePostReview records a review for the item named in the path.
func (s *Server) handlePostReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		itemID := strings.TrimPrefix(r.URL.Path, "/api/review/")
		if itemID == "" {
			http.Error(w, "Missing item id", http.StatusBadRequest)
			return
		}

		var req reviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
			return
		}
		// The review UI offers three grades; Again is not accepted here even
		// though the engine supports it.
		if req.Rating != domain.Hard && req.Rating != domain.Medium && req.Rating != domain.Easy {
			http.Error(w, "Rating must be one of Hard, Medium, Easy", http.StatusBadRequest)
			return
		}

		now := req.ReviewedAt
		if now.IsZero() {
			now = s.now()
		}

		state, err := s.svc.RecordReview(itemID, req.Rating, now)
		if err != nil {
			s.writeError(w, err, "recording review", "item", itemID)
			return
		}
		s.writeJSON(w, http.StatusOK, state)
	}
}

// handleGetQueue returns the ids of due items, most overdue first.
func (s *Server) handleGetQueue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		asOf, err := parseAsOf(r.URL.Query().Get("asOf"), s.now)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		limit := s.queueLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			limit, err = strconv.Atoi(v)
			if err != nil {
				http.Error(w, "Invalid limit", http.StatusBadRequest)
				return
			}
		}

		ids, err := s.svc.DueQueue(asOf, limit)
		if err != nil {
			s.writeError(w, err, "loading due queue")
			return
		}
		if ids == nil {
			ids = []string{}
		}
		s.writeJSON(w, http.StatusOK, map[string][]string{"itemIds": ids})
	}
}

// handleGetProgress returns the catalog-wide progress counts.
func (s *Server) handleGetProgress() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		asOf, err := parseAsOf(r.URL.Query().Get("asOf"), s.now)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		stats, err := s.svc.Progress(asOf)
		if err != nil {
			s.writeError(w, err, "loading progress")
			return
		}
		s.writeJSON(w, http.StatusOK, stats)
	}
}

// handleGetHistory returns an item's review log, oldest first. The route is
// /api/items/{id}/history.
func (s *Server) handleGetHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		rest := strings.TrimPrefix(r.URL.Path, "/api/items/")
		itemID, ok := strings.CutSuffix(rest, "/history")
		if !ok || itemID == "" || strings.Contains(itemID, "/") {
			http.NotFound(w, r)
			return
		}

		entries, err := s.svc.History(itemID)
		if err != nil {
			s.writeError(w, err, "loading review history", "item", itemID)
			return
		}
		if entries == nil {
			entries = []domain.ReviewLogEntry{}
		}
		s.writeJSON(w, http.StatusOK, entries)
	}
}

// writeError maps scheduler errors onto HTTP statuses and logs the failure.
func (s *Server) writeError(w http.ResponseWriter, err error, msg string, args ...any) {
	slog.Error(msg, append(args, "error", err)...)
	switch {
	case errors.Is(err, domain.ErrInvalidRating):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, sm2.ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, storage.ErrConcurrentModification):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		// ErrInvalidState and storage failures: nothing the client can fix.
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

// parseAsOf interprets an optional YYYY-MM-DD query value, defaulting to now.
func parseAsOf(v string, now func() time.Time) (time.Time, error) {
	if v == "" {
		return now(), nil
	}
	t, err := time.ParseInLocation(time.DateOnly, v, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid asOf date %q, want YYYY-MM-DD", v)
	}
	return t, nil
}
