// Package httpapi is the only caller of the interpreter pipeline: it glues
// the LLM client, the stores, and the pipeline together and relays the
// decision triple to the UI. No interpretation logic lives here.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/samiserrag/denver-songwriters-collective-sub005/internal/catalog"
	"github.com/samiserrag/denver-songwriters-collective-sub005/internal/drafts"
	"github.com/samiserrag/denver-songwriters-collective-sub005/internal/interpreter"
	"github.com/samiserrag/denver-songwriters-collective-sub005/internal/metrics"
)

// Interpreter is the LLM-turn seam; tests substitute a fake.
type Interpreter interface {
	Interpret(ctx context.Context, mode interpreter.Mode, message string, history []interpreter.ConversationTurn, catalog []interpreter.VenueCatalogEntry) (interpreter.ResponseEnvelope, error)
}

type Server struct {
	llm       Interpreter
	pipeline  *interpreter.Pipeline
	catalog   *catalog.Store
	drafts    *drafts.Store
	secret    string
	aiTimeout time.Duration
	log       zerolog.Logger
}

type Options struct {
	LLM       Interpreter
	Catalog   *catalog.Store
	Drafts    *drafts.Store
	Secret    string
	AITimeout time.Duration
	Logger    zerolog.Logger
}

func NewServer(opts Options) http.Handler {
	if opts.AITimeout <= 0 {
		opts.AITimeout = 90 * time.Second
	}
	s := &Server{
		llm:       opts.LLM,
		pipeline:  interpreter.NewPipeline(),
		catalog:   opts.Catalog,
		drafts:    opts.Drafts,
		secret:    opts.Secret,
		aiTimeout: opts.AITimeout,
		log:       opts.Logger,
	}

	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/v1", func(r chi.Router) {
		r.Use(s.requireSecret)
		r.Post("/interpret", s.handleInterpret)
		r.Get("/venues", s.handleListVenues)
		r.Put("/venues/{id}", s.handleUpsertVenue)
		r.Delete("/venues/{id}", s.handleDeleteVenue)
		r.Get("/drafts/{id}", s.handleGetDraft)
	})
	return r
}

func (s *Server) requireSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.secret != "" {
			auth := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if auth != s.secret {
				writeError(w, http.StatusUnauthorized, "invalid or missing bearer token")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

type interpretRequest struct {
	SessionID  string                         `json:"session_id"`
	Mode       string                         `json:"mode"`
	Message    string                         `json:"message"`
	History    []interpreter.ConversationTurn `json:"history"`
	AnchorDate string                         `json:"anchor_date,omitempty"`
}

type interpretResponse struct {
	DraftID string `json:"draft_id"`
	interpreter.Result
}

func (s *Server) handleInterpret(w http.ResponseWriter, r *http.Request) {
	var req interpretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	mode := interpreter.Mode(req.Mode)
	if !mode.Valid() {
		writeError(w, http.StatusBadRequest, "mode must be create, edit_single, or edit_series")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	venues, err := s.catalog.List(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("list venues")
		writeError(w, http.StatusInternalServerError, "venue catalog unavailable")
		return
	}

	locked, err := s.drafts.LockedDraft(r.Context(), req.SessionID)
	if err != nil {
		s.log.Error().Err(err).Str("session", req.SessionID).Msg("load locked draft")
		writeError(w, http.StatusInternalServerError, "session state unavailable")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.aiTimeout)
	defer cancel()
	envelope, err := s.llm.Interpret(ctx, mode, req.Message, req.History, venues)
	if err != nil {
		metrics.RecordLLMFailure()
		s.log.Error().Err(err).Str("session", req.SessionID).Msg("llm interpret")
		writeError(w, http.StatusBadGateway, "interpretation unavailable, try again")
		return
	}

	pipelineReq := interpreter.Request{
		Mode:        mode,
		Envelope:    envelope,
		Message:     req.Message,
		History:     req.History,
		Catalog:     venues,
		LockedDraft: locked,
	}
	if interpreter.IsDateKey(req.AnchorDate) {
		pipelineReq.DateContext = &interpreter.DateKeyContext{AnchorDate: req.AnchorDate}
	}
	result := s.pipeline.Run(pipelineReq)

	metrics.RecordRun(string(mode), string(result.NextAction))
	metrics.RecordVenueResolution(result.Metadata.VenueResolution)
	metrics.RecordGuardTrips(result.Metadata.GuardTrips)

	draftID, err := s.drafts.SaveResult(r.Context(), req.SessionID, string(result.NextAction), result.DraftPayload)
	if err != nil {
		s.log.Error().Err(err).Str("session", req.SessionID).Msg("save result")
		writeError(w, http.StatusInternalServerError, "could not persist draft")
		return
	}
	if mode == interpreter.ModeCreate {
		snapshot := interpreter.EnvelopeFromResult(result).DraftPayload
		if err := s.drafts.SaveLockedDraft(r.Context(), req.SessionID, string(mode), snapshot); err != nil {
			s.log.Error().Err(err).Str("session", req.SessionID).Msg("save locked draft")
		}
	}

	s.log.Info().
		Str("session", req.SessionID).
		Str("mode", string(mode)).
		Str("next_action", string(result.NextAction)).
		Strs("blocking_fields", result.BlockingFields).
		Msg("interpret turn")

	writeJSON(w, http.StatusOK, interpretResponse{DraftID: draftID, Result: result})
}

func (s *Server) handleListVenues(w http.ResponseWriter, r *http.Request) {
	venues, err := s.catalog.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "venue catalog unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"venues": venues})
}

func (s *Server) handleUpsertVenue(w http.ResponseWriter, r *http.Request) {
	var v interpreter.VenueCatalogEntry
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	v.ID = chi.URLParam(r, "id")
	if err := s.catalog.Upsert(r.Context(), v); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "venue": v})
}

func (s *Server) handleDeleteVenue(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "could not delete venue")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	blob, err := s.drafts.Result(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, drafts.ErrNotFound) {
		writeError(w, http.StatusNotFound, "draft not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "draft unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": message})
}
