package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kura/internal/answer"
	"github.com/hyperjump/kura/internal/models"
	"github.com/hyperjump/kura/internal/storage"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := query.Normalize(s.config.Search.DefaultK, s.config.Search.MaxK); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("k", query.K))

	start := time.Now()
	results, err := s.store.Search(r.Context(), query.Query, query.K)
	if err != nil {
		s.respondStoreError(w, "search failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, &models.SearchResponse{
		Query:     query.Query,
		Results:   results,
		Total:     len(results),
		QueryTime: time.Since(start).Milliseconds(),
	})
}

type answerResponse struct {
	*answer.Answer
	Text string `json:"text"`
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := query.Normalize(answer.DefaultK, s.config.Search.MaxK); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	policy := answer.Policy{
		K:             query.K,
		Threshold:     s.config.Search.RelevanceThreshold,
		MaxAdditional: s.config.Search.MaxAdditional,
	}
	a, err := answer.Lookup(r.Context(), s.store, query.Query, policy)
	if err != nil {
		s.respondStoreError(w, "answer failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, answerResponse{Answer: a, Text: answer.Format(a)})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"index": s.store.Stats(),
		"config": map[string]interface{}{
			"index_dir":          s.config.Storage.IndexDir,
			"documents_dir":      s.config.Documents.Directory,
			"chunk_size":         s.config.Chunking.Size,
			"chunk_overlap":      s.config.Chunking.Overlap,
			"embedding_provider": s.config.Embedding.Provider,
			"embedding_model":    s.config.Embedding.Model,
		},
	}
	diskBytes, err := storage.DiskUsageBytes(s.config.Storage.IndexDir)
	if err == nil {
		resp["disk_usage_bytes"] = diskBytes
	} else {
		s.logger.Warn("status: disk usage failed", zap.Error(err))
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("rebuild requested", zap.String("dir", s.config.Documents.Directory))
	report, err := s.Rebuild(r.Context())
	if err != nil {
		s.respondStoreError(w, "rebuild failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "ready": s.store.Ready()})
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotReady):
		return http.StatusServiceUnavailable
	case errors.Is(err, models.ErrConfig):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrProvider):
		return http.StatusBadGateway
	case errors.Is(err, models.ErrNoDocuments):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondStoreError(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(msg, zap.Error(err))
	} else {
		s.logger.Debug(msg, zap.Error(err))
	}
	s.respondError(w, status, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
