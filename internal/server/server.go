// Package server exposes the form binding contract over HTTP. Each browser
// tab is a session identified by the X-Session-ID header.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/docfill/internal/extraction"
	"github.com/sells-group/docfill/internal/fieldmap"
	"github.com/sells-group/docfill/internal/options"
	"github.com/sells-group/docfill/internal/store"
	"github.com/sells-group/docfill/pkg/extractor"
)

// SessionHeader carries the session id in requests and responses.
const SessionHeader = "X-Session-ID"

const maxSessionIDLen = 128

// Config wires a Server.
type Config struct {
	Backend   store.Backend
	Mapper    *fieldmap.Mapper
	Options   options.Source
	Extractor extractor.Client

	PersistAnalysis bool
	ClearAfterApply bool
	OptionWorkers   int
	AllowedOrigins  []string
	// MaxUploadBytes caps document uploads. Zero means 20 MiB.
	MaxUploadBytes int64
}

// Server serves extraction state and auto-fill for many sessions.
type Server struct {
	cfg Config
	log *zap.Logger

	mu       sync.Mutex
	sessions map[string]*extraction.Store
}

// New creates a Server. Backend is required; a nil Mapper uses the built-in
// tables.
func New(cfg Config) *Server {
	if cfg.Mapper == nil {
		cfg.Mapper = fieldmap.New()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 << 20
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	return &Server{
		cfg:      cfg,
		log:      zap.L().With(zap.String("component", "server")),
		sessions: make(map[string]*extraction.Store),
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", SessionHeader},
		ExposedHeaders: []string{SessionHeader},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.withSession)
		r.Get("/extraction", s.handleGetExtraction)
		r.Put("/extraction", s.handlePutExtraction)
		r.Delete("/extraction", s.handleDeleteExtraction)
		r.Get("/extraction/analysis", s.handleGetAnalysis)
		r.Post("/documents", s.handleUpload)
		r.Post("/forms/{formType}/fill", s.handleFill)
	})

	return r
}

type sessionKey struct{}

func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(SessionHeader)
		if len(id) > maxSessionIDLen {
			writeError(w, http.StatusBadRequest, "session id too long")
			return
		}

		var st *extraction.Store
		if id == "" {
			// A generated id has nothing to rehydrate. Its store is not cached;
			// anything written reaches the backend and is loaded on the next
			// request that sends the id back.
			id = uuid.NewString()
			st = s.newStore(id)
		} else {
			st = s.session(r.Context(), id)
		}
		w.Header().Set(SessionHeader, id)

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, st)))
	})
}

func sessionFrom(r *http.Request) *extraction.Store {
	return r.Context().Value(sessionKey{}).(*extraction.Store)
}

// session returns the store for id, rehydrating it from the backend the first
// time it is seen by this process.
func (s *Server) session(ctx context.Context, id string) *extraction.Store {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.sessions[id]; ok {
		return st
	}
	st := s.newStore(id)
	st.Load(ctx)
	s.sessions[id] = st
	return st
}

func (s *Server) newStore(id string) *extraction.Store {
	return extraction.New(s.cfg.Backend.Session(id),
		extraction.WithPersistAnalysis(s.cfg.PersistAnalysis),
		extraction.WithLogger(s.log.With(zap.String("session", id))),
	)
}

// Forget drops cached sessions so the next request rehydrates from the
// backend. Used after pruning.
func (s *Server) Forget() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.sessions)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
