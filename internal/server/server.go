// Package server exposes the card store, vCard serializer and QR renderer
// over a JSON REST API.
package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"dvcard/internal/prefs"
	"dvcard/internal/store"
)

// Server holds shared dependencies for the HTTP handlers.
type Server struct {
	store  *store.Store
	prefs  *prefs.Prefs
	logger *zap.Logger
}

// New creates a Server.
func New(st *store.Store, pr *prefs.Prefs, logger *zap.Logger) *Server {
	return &Server{store: st, prefs: pr, logger: logger}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	r.HandleFunc("/api/cards", s.handleListCards).Methods(http.MethodGet)
	r.HandleFunc("/api/cards", s.handleCreateCard).Methods(http.MethodPost)
	r.HandleFunc("/api/cards/{id:[0-9]+}", s.handleGetCard).Methods(http.MethodGet)
	r.HandleFunc("/api/cards/{id:[0-9]+}", s.handleUpdateCard).Methods(http.MethodPut)
	r.HandleFunc("/api/cards/{id:[0-9]+}", s.handleDeleteCard).Methods(http.MethodDelete)
	r.HandleFunc("/api/cards/{id:[0-9]+}/vcard", s.handleVCard).Methods(http.MethodGet)
	r.HandleFunc("/api/cards/{id:[0-9]+}/qr.png", s.handleQR).Methods(http.MethodGet)

	r.HandleFunc("/api/settings/language", s.handleGetLanguage).Methods(http.MethodGet)
	r.HandleFunc("/api/settings/language", s.handleSetLanguage).Methods(http.MethodPut)

	return r
}

// logRequests logs every request with method, path, status and duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(lrw, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", lrw.statusCode),
			zap.Duration("duration", time.Since(start)))
	})
}

// loggingResponseWriter wraps http.ResponseWriter to capture the status code.
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}
