package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"newsflow/internal/article"
	"newsflow/internal/search"
)

// Searcher executes an on-demand keyword search and persists its results.
type Searcher interface {
	Search(ctx context.Context, keyword string) (search.Result, error)
}

// Sweeper runs the near-duplicate sweep over the given categories.
type Sweeper interface {
	Sweep(ctx context.Context, categories []string) int64
}

// MaintenanceStore is the storage access the maintenance endpoints need.
type MaintenanceStore interface {
	ArticlesWithoutImage(ctx context.Context, category string) ([]article.Article, error)
	DeleteArticles(ctx context.Context, category string, ids []string) (int64, error)
	DeleteAllArticles(ctx context.Context, category string) (int64, error)
}

// Server exposes the health check and the operator maintenance endpoints.
type Server struct {
	srv        *http.Server
	store      MaintenanceStore
	searcher   Searcher
	sweeper    Sweeper
	categories []string
	logger     zerolog.Logger
}

func NewServer(addr string, store MaintenanceStore, searcher Searcher, sweeper Sweeper, categories []string, logger zerolog.Logger) *Server {
	s := &Server{
		store:      store,
		searcher:   searcher,
		sweeper:    sweeper,
		categories: categories,
		logger:     logger,
	}
	s.srv = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	return s
}

// Router builds the route table. Exposed so tests can drive handlers without
// binding a socket.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/admin/search", s.handleSearch).Methods(http.MethodPost)
	r.HandleFunc("/admin/sweep", s.handleSweep).Methods(http.MethodPost)
	r.HandleFunc("/admin/purge-bad", s.handlePurgeBad).Methods(http.MethodPost)
	r.HandleFunc("/admin/news", s.handleDeleteAll).Methods(http.MethodDelete)

	return r
}

// Start begins serving in the background.
func (s *Server) Start() {
	go func() {
		s.logger.Info().Str("addr", s.srv.Addr).Msg("HTTP server listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	keyword := strings.TrimSpace(r.URL.Query().Get("q"))
	if keyword == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	result, err := s.searcher.Search(r.Context(), keyword)
	if err != nil {
		s.logger.Error().Err(err).Str("keyword", keyword).Msg("search request failed")
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"keyword":    keyword,
		"collection": result.CollectionName,
		"count":      result.Count,
	})
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	removed := s.sweeper.Sweep(r.Context(), s.categories)
	writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

// handlePurgeBad deletes stored articles that slipped in without an image.
func (s *Server) handlePurgeBad(w http.ResponseWriter, r *http.Request) {
	var removed int64
	for _, cat := range s.categories {
		bad, err := s.store.ArticlesWithoutImage(r.Context(), cat)
		if err != nil {
			s.logger.Error().Err(err).Str("category", cat).Msg("purge scan failed, skipping category")
			continue
		}
		if len(bad) == 0 {
			continue
		}
		ids := make([]string, 0, len(bad))
		for _, a := range bad {
			ids = append(ids, a.ID)
		}
		n, err := s.store.DeleteArticles(r.Context(), cat, ids)
		if err != nil {
			s.logger.Error().Err(err).Str("category", cat).Msg("purge delete failed, skipping category")
			continue
		}
		removed += n
	}

	s.logger.Info().Int64("removed", removed).Msg("image purge finished")
	writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

func (s *Server) handleDeleteAll(w http.ResponseWriter, r *http.Request) {
	var removed int64
	for _, cat := range s.categories {
		n, err := s.store.DeleteAllArticles(r.Context(), cat)
		if err != nil {
			s.logger.Error().Err(err).Str("category", cat).Msg("delete failed, skipping category")
			continue
		}
		removed += n
	}

	s.logger.Warn().Int64("removed", removed).Msg("all category collections emptied")
	writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
