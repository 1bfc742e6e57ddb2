// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/jeranaias/divecoach/internal/coachapi"
	"github.com/jeranaias/divecoach/internal/model"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr is the listen address of `divecoach serve`.
	DefaultAddr = ":8000"

	// MaxRequestBodySize bounds POST /api/chat bodies (1MB).
	MaxRequestBodySize = 1 * 1024 * 1024

	// ShutdownTimeout bounds graceful shutdown after the serve context ends.
	ShutdownTimeout = 5 * time.Second
)

// Chat outcomes recorded in divecoach_chat_requests_total.
const (
	outcomeOK      = "ok"
	outcomeInvalid = "invalid"
	outcomeError   = "error"
	outcomeAborted = "aborted"
)

// ============================================================================
// SERVER
// ============================================================================

// Options configures New. Zero values select the embedded coach.
type Options struct {
	Addr string

	// ChunkDelay is the pause between streamed words.
	ChunkDelay time.Duration

	// Responder answers chat requests; nil means a Coach over the embedded
	// knowledge base.
	Responder Responder

	// Index reports vector store statistics. Defaults to the Coach's index.
	Index *Index

	Tracker  *Tracker
	Registry *prometheus.Registry
	CORS     *CORSConfig
	Logger   zerolog.Logger
}

// Server is the mock coaching backend.
type Server struct {
	addr       string
	chunkDelay time.Duration

	responder  Responder
	index      *Index
	tracker    *Tracker
	registry   *prometheus.Registry
	collectors *collectors
	logger     zerolog.Logger

	router chi.Router

	mu     sync.Mutex
	server *http.Server
}

// New creates a Server from opts.
func New(opts Options) (*Server, error) {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.Responder == nil {
		passages, err := LoadKnowledge()
		if err != nil {
			return nil, err
		}
		opts.Responder = NewCoach(NewIndex(passages))
	}
	if opts.Index == nil {
		if coach, ok := opts.Responder.(*Coach); ok {
			opts.Index = coach.Index()
		}
	}
	if opts.Tracker == nil {
		opts.Tracker = NewTracker(nil)
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.CORS == nil {
		opts.CORS = DefaultCORSConfig()
	}

	s := &Server{
		addr:       opts.Addr,
		chunkDelay: opts.ChunkDelay,
		responder:  opts.Responder,
		index:      opts.Index,
		tracker:    opts.Tracker,
		registry:   opts.Registry,
		collectors: newCollectors(opts.Registry),
		logger:     opts.Logger.With().Str("component", "server").Logger(),
	}
	s.setupRoutes(opts.CORS)
	return s, nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Tracker returns the retrieval statistics tracker.
func (s *Server) Tracker() *Tracker {
	return s.tracker
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes(cors *CORSConfig) {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		LoggingMiddleware(s.logger, s.collectors),
		RecoveryMiddleware(s.logger),
		CORSMiddleware(cors),
	)

	r.Post("/api/chat", s.handleChat)
	r.Get("/api/rag-stats", s.handleRAGStats)
	r.Get("/api/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	s.router = r
}

// ============================================================================
// HANDLERS
// ============================================================================

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	logger := s.logger.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()

	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	var req coachapi.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.collectors.chat("", outcomeInvalid)
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	applyDefaults(&req)
	if err := validateChat(req); err != nil {
		s.collectors.chat(req.Template, outcomeInvalid)
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := s.responder.Respond(r.Context(), req)
	if err != nil {
		logger.Warn().Err(err).Msg("responder failed")
		s.collectors.chat(req.Template, outcomeError)
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.tracker.Record(reply.Hits, req.SimilarityMethod)
	s.collectors.passages(req.SimilarityMethod, len(reply.Hits))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)

	words := splitWords(reply.Text)
	for i, word := range words {
		if _, err := w.Write([]byte(word)); err != nil {
			logger.Debug().Err(err).Msg("client went away")
			s.collectors.chat(req.Template, outcomeAborted)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
		s.collectors.chatChunks.Inc()

		if s.chunkDelay > 0 && i < len(words)-1 {
			select {
			case <-r.Context().Done():
				logger.Debug().Int("sent", i+1).Int("total", len(words)).Msg("stream aborted")
				s.collectors.chat(req.Template, outcomeAborted)
				return
			case <-time.After(s.chunkDelay):
			}
		}
	}

	logger.Debug().
		Str("template", req.Template).
		Str("similarity", req.SimilarityMethod).
		Int("passages", len(reply.Hits)).
		Int("chunks", len(words)).
		Msg("chat served")
	s.collectors.chat(req.Template, outcomeOK)
}

func (s *Server) handleRAGStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Snapshot(s.vectorStats()))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, coachapi.HealthResponse{Status: "ok"})
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// ListenAndServe listens on the configured address and serves until ctx
// ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx ends, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
			defer cancel()
			_ = s.Shutdown(shutdownCtx)
		case <-done:
		}
	}()

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("server started")
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	s.logger.Info().Msg("server shutting down")
	return srv.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

func (s *Server) vectorStats() model.VectorStoreStats {
	if s.index == nil {
		return model.VectorStoreStats{}
	}
	return s.index.Stats()
}

// applyDefaults fills omitted fields the way the hosted backend does.
func applyDefaults(req *coachapi.ChatRequest) {
	if req.Model == "" {
		req.Model = coachapi.DefaultModel
	}
	if req.Template == "" {
		req.Template = coachapi.TemplateDefault
	}
	if req.SimilarityMethod == "" {
		req.SimilarityMethod = coachapi.SimilarityCosine
	}
}

func validateChat(req coachapi.ChatRequest) error {
	if strings.TrimSpace(req.UserMessage) == "" {
		return errors.New("user_message must not be empty")
	}
	if !coachapi.IsValidTemplate(req.Template) {
		return fmt.Errorf("unknown template %q (valid: %s)", req.Template, strings.Join(coachapi.Templates, ", "))
	}
	if !coachapi.IsValidSimilarity(req.SimilarityMethod) {
		return fmt.Errorf("unknown similarity_method %q (valid: %s)", req.SimilarityMethod, strings.Join(coachapi.SimilarityMethods, ", "))
	}
	return nil
}

// splitWords cuts text into chunks that each end after a space, so that
// concatenating them restores text exactly.
func splitWords(text string) []string {
	parts := strings.SplitAfter(text, " ")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDetail writes an error body in the backend's {"detail": ...} shape.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
