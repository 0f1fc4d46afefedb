package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/fortuna/courtside/internal/pipeline"
	"github.com/fortuna/courtside/internal/store"
)

// Server represents the REST API server
type Server struct {
	port   string
	server *http.Server
}

// NewServer creates a new REST API server
func NewServer(port string, db *store.Database, pipe *pipeline.Pipeline) *Server {
	handler := NewHandler(db, pipe)

	router := mux.NewRouter()

	// Apply middleware
	router.Use(RecoveryMiddleware)
	router.Use(LoggingMiddleware)
	router.Use(CORSMiddleware)

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/pipeline/run", handler.RunPipeline).Methods("POST")
	api.HandleFunc("/staging/summary", handler.GetStagingSummary).Methods("GET")

	return &Server{
		port: port,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%s", port),
			Handler: router,
			// Pipeline runs are synchronous and can take minutes on a busy
			// game night.
			WriteTimeout: 15 * time.Minute,
			ReadTimeout:  30 * time.Second,
		},
	}
}

// Start starts the REST API server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
