package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jonathan/jobfill/internal/messaging"
	"github.com/jonathan/jobfill/internal/server/ratelimit"
	"github.com/jonathan/jobfill/internal/store"
	"github.com/jonathan/jobfill/internal/types"
)

// JobSource exposes the job currently held by a session.
type JobSource interface {
	DetectedJob() *types.JobPosting
}

// Server represents the HTTP bridge
type Server struct {
	httpServer  *http.Server
	handler     http.Handler
	bus         *messaging.Bus
	jobs        JobSource
	store       store.Store
	rateLimiter *ratelimit.Limiter
	keepAlive   time.Duration
}

// Config holds server configuration
type Config struct {
	Port      int
	RateLimit *ratelimit.Config
	// KeepAlive is the interval between comment frames on /events.
	KeepAlive time.Duration
}

// Deps are the collaborators the bridge serves. Jobs and Store may be nil;
// the matching endpoints then answer 503.
type Deps struct {
	Bus   *messaging.Bus
	Jobs  JobSource
	Store store.Store
}

// New creates a new server instance
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Bus == nil {
		return nil, errors.New("server requires a message bus")
	}
	keepAlive := cfg.KeepAlive
	if keepAlive <= 0 {
		keepAlive = 15 * time.Second
	}

	s := &Server{
		bus:         deps.Bus,
		jobs:        deps.Jobs,
		store:       deps.Store,
		rateLimiter: ratelimit.NewLimiter(cfg.RateLimit),
		keepAlive:   keepAlive,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /messages", s.handleMessage)
	mux.HandleFunc("GET /job", s.handleJob)
	mux.HandleFunc("GET /events", s.handleEvents)
	mux.HandleFunc("GET /applications", s.handleApplications)
	mux.HandleFunc("GET /jobs", s.handleDetectedJobs)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.handler = s.withRequestID(s.withRateLimit(s.withLogging(s.withCORS(mux))))
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // /events streams indefinitely
		IdleTimeout:  60 * time.Second,
	}
	// Streams hold their connection open; end them when shutdown starts.
	baseCtx, cancelStreams := context.WithCancel(context.Background())
	s.httpServer.BaseContext = func(net.Listener) context.Context { return baseCtx }
	s.httpServer.RegisterOnShutdown(cancelStreams)

	return s, nil
}

// Handler returns the fully wrapped request handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.httpServer.Addr).Msg("bridge listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		s.rateLimiter.Stop()
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down bridge")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.rateLimiter.Stop()
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info().Msg("bridge stopped")
	return nil
}

// Close releases background resources without serving.
func (s *Server) Close() {
	s.rateLimiter.Stop()
}
