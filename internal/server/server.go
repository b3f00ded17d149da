// Package server provides HTTP server initialization and lifecycle management
// for the glyph icon API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Adalene/glyph/internal/config"
	"github.com/Adalene/glyph/web/handlers"
)

// Deps are the collaborators the routes are served from.
type Deps struct {
	Catalog   handlers.IconCatalog
	Generator handlers.Generator

	// Feed is optional. When set, the server starts it and stops it on
	// shutdown.
	Feed *handlers.FeedHub

	// UpstreamState reports the model API breaker state on /api/health.
	// Optional.
	UpstreamState func() string

	Logger *zap.Logger
}

// securityHeadersMiddleware adds security headers to all HTTP responses.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// NewHandler builds the routed and wrapped HTTP handler.
func NewHandler(cfg *config.Config, deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	iconHandlers := handlers.NewIconHandlers(deps.Catalog, logger).WithUpstreamState(deps.UpstreamState)
	generateHandler := handlers.NewGenerateHandler(deps.Generator, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			generateHandler.Generate(w, r)
		} else {
			handlers.MethodNotAllowed(w, r)
		}
	})
	mux.HandleFunc("/api/icons", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			iconHandlers.ListIcons(w, r)
		case http.MethodPost:
			iconHandlers.CreateIcon(w, r)
		default:
			handlers.MethodNotAllowed(w, r)
		}
	})
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			iconHandlers.Health(w, r)
		} else {
			handlers.MethodNotAllowed(w, r)
		}
	})
	if deps.Feed != nil {
		mux.Handle("/api/icons/feed", deps.Feed)
	}

	// Outermost first: security headers, CORS, request log, rate limit.
	var handler http.Handler = mux
	if cfg.RateLimit.Enabled {
		handler = handlers.RateLimitMiddleware(handler, handlers.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	}
	handler = handlers.RequestLogger(handler, logger)
	handler = handlers.CORS(handler)
	return securityHeadersMiddleware(handler)
}

// Start listens on the configured address and serves until ctx is cancelled.
// It returns the actual address being listened on (useful for testing with
// port 0) and a channel closed once shutdown has completed.
func Start(ctx context.Context, cfg *config.Config, deps Deps) (string, <-chan struct{}, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	listener, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return "", nil, fmt.Errorf("server: listen on %s: %w", cfg.Addr(), err)
	}

	if deps.Feed != nil {
		deps.Feed.Start()
	}

	// Create server with security timeouts. Generation can take a while, so
	// the write timeout covers the upstream call.
	srv := &http.Server{
		Handler:           NewHandler(cfg, deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.LLM.Timeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()

		timeout := cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		// Feed connections are hijacked and not tracked by Shutdown.
		if deps.Feed != nil {
			deps.Feed.Stop()
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown error", zap.Error(err))
		}
	}()

	return listener.Addr().String(), done, nil
}
