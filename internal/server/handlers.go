package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/wavekb/internal/config"
	"github.com/hyperjump/wavekb/internal/knowledge"
	"github.com/hyperjump/wavekb/internal/models"
)

// unavailableMessage is the only detail clients get for errors outside the
// request-level taxonomy.
const unavailableMessage = "knowledge engine unavailable"

type listResponse struct {
	Patterns []*models.WavePattern `json:"patterns"`
	Total    int                   `json:"total"`
	Offset   int                   `json:"offset"`
	Limit    int                   `json:"limit"`
}

// StatusConfig is the configuration summary reported by /status.
type StatusConfig struct {
	SnapshotPath        string  `json:"snapshot_path,omitempty"`
	ArchivePath         string  `json:"archive_path,omitempty"`
	DefaultTopK         int     `json:"default_top_k"`
	MaxTopK             int     `json:"max_top_k"`
	DefaultMinResonance float64 `json:"default_min_resonance"`
	DefaultStrength     float64 `json:"default_absorption_strength"`
	EmbeddingDimensions int     `json:"embedding_dimensions"`
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	*knowledge.Stats
	IngestDirectories []string      `json:"ingest_directories,omitempty"`
	Config            *StatusConfig `json:"config"`
}

// NewStatus assembles a StatusResponse from engine stats and cfg.
func NewStatus(stats *knowledge.Stats, cfg *config.Config, ingestDirs []string) *StatusResponse {
	return &StatusResponse{
		Stats:             stats,
		IngestDirectories: ingestDirs,
		Config: &StatusConfig{
			SnapshotPath:        cfg.Storage.SnapshotPath,
			ArchivePath:         cfg.Storage.ArchivePath,
			DefaultTopK:         cfg.Search.DefaultTopK,
			MaxTopK:             cfg.Search.MaxTopK,
			DefaultMinResonance: cfg.Search.DefaultMinResonance,
			DefaultStrength:     cfg.Absorb.DefaultStrength,
			EmbeddingDimensions: cfg.Embedding.Dimensions,
		},
	}
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	var req models.InsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("insert request", zap.String("id", req.ID), zap.Int("dimensions", len(req.Embedding)))
	p, err := s.engine.Remember(&req)
	if err != nil {
		s.respondEngineError(w, "insert", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	p, err := s.engine.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.respondEngineError(w, "get", err)
		return
	}
	s.respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete request", zap.String("id", id))
	if err := s.engine.Delete(id); err != nil {
		s.respondEngineError(w, "delete", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := queryInt(r, "limit", s.config.Search.MaxTopK)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	patterns, total := s.engine.List(offset, limit)
	s.respondJSON(w, http.StatusOK, &listResponse{Patterns: patterns, Total: total, Offset: offset, Limit: limit})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request",
		zap.Int("top_k", req.TopK),
		zap.Float64p("min_resonance", req.MinResonance),
		zap.String("metadata_query", req.MetadataQuery),
	)
	resp, err := s.engine.SearchEmbedding(r.Context(), &req)
	if err != nil {
		s.respondEngineError(w, "search", err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAbsorb(w http.ResponseWriter, r *http.Request) {
	var req models.AbsorbRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := s.engine.Absorb(&req)
	if err != nil {
		s.respondEngineError(w, "absorb", err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Save(r.Context()); err != nil {
		s.respondEngineError(w, "snapshot", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"status": "saved", "patterns": s.engine.Len()})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.Stats(r.Context(), s.config.Storage.ArchivePath)
	if err != nil {
		s.respondEngineError(w, "status", err)
		return
	}
	var dirs []string
	if s.ingest != nil {
		dirs = s.ingest.Directories()
	}
	s.respondJSON(w, http.StatusOK, NewStatus(stats, s.config, dirs))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps engine errors to HTTP statuses. Anything outside the
// request-level taxonomy is reported as unavailable without detail.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrInvalidEmbedding),
		errors.Is(err, models.ErrInvalidArgument),
		errors.Is(err, models.ErrSelfAbsorption):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, models.ErrDuplicateID):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusServiceUnavailable, unavailableMessage
	}
}

func (s *Server) respondEngineError(w http.ResponseWriter, op string, err error) {
	status, message := statusFor(err)
	if status == http.StatusServiceUnavailable {
		s.logger.Error("request failed", zap.String("op", op), zap.String("kind", models.ErrorKind(err)), zap.Error(err))
	}
	s.respondError(w, status, message)
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errors.New(name + " must be a non-negative integer")
	}
	return v, nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
