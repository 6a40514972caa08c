// Package api serves a Torah data tree together with the reader JSON API
// and a websocket hub announcing data changes.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/FocuswithJustin/JuniperTorah/internal/loader"
	"github.com/FocuswithJustin/JuniperTorah/internal/logging"
	"github.com/FocuswithJustin/JuniperTorah/internal/server"
)

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 5 * time.Second

// Server is the reader HTTP server.
type Server struct {
	cfg     Config
	loader  *loader.Loader
	hub     *Hub
	version string
	started time.Time
}

// New validates cfg and creates a server over l.
func New(cfg Config, l *loader.Loader, version string) (*Server, error) {
	if err := ValidateAuthConfig(cfg.Auth); err != nil {
		return nil, fmt.Errorf("invalid auth config: %w", err)
	}
	if cfg.TLS.Enabled {
		if cfg.TLS.CertFile == "" || cfg.TLS.KeyFile == "" {
			return nil, fmt.Errorf("TLS enabled but cert or key file not specified")
		}
		if _, err := os.Stat(cfg.TLS.CertFile); err != nil {
			return nil, fmt.Errorf("TLS cert file not found: %w", err)
		}
		if _, err := os.Stat(cfg.TLS.KeyFile); err != nil {
			return nil, fmt.Errorf("TLS key file not found: %w", err)
		}
	}
	if cfg.DataDir != "" {
		if fi, err := os.Stat(cfg.DataDir); err != nil || !fi.IsDir() {
			return nil, fmt.Errorf("data directory not found: %s", cfg.DataDir)
		}
	}
	return &Server{
		cfg:     cfg,
		loader:  l,
		hub:     NewHub(),
		version: version,
		started: time.Now(),
	}, nil
}

// Hub returns the websocket hub. The data watcher publishes through it.
func (s *Server) Hub() *Hub { return s.hub }

// routes configures all HTTP routes.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	api := func(h http.HandlerFunc) http.Handler {
		return server.NoStore(server.SecurityHeaders(server.APICSPConfig(), h))
	}
	mux.Handle("GET /health", api(s.handleHealth))
	mux.Handle("GET /api/verse/{book}/{chapter}/{verse}", api(s.handleVerse))
	mux.Handle("GET /api/parasha/{book}/{chapter}", api(s.handleParasha))
	mux.Handle("GET /api/parasha/{book}/{chapter}/{verse}", api(s.handleParasha))
	mux.Handle("GET /api/cache", api(s.handleCacheStats))
	mux.Handle("DELETE /api/cache", api(s.handleCacheClear))
	mux.Handle("GET /ws", server.SecurityHeaders(server.DataCSPConfig(), s.hub.Handler(s.cfg.AllowedOrigins)))

	if s.cfg.DataDir != "" {
		files := http.StripPrefix("/data/", http.FileServer(http.Dir(s.cfg.DataDir)))
		mux.Handle("GET /data/", server.SecurityHeaders(server.DataCSPConfig(), files))
	}
	return mux
}

// Handler builds the full middleware chain.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.routes()

	if s.cfg.Auth.Enabled {
		handler = AuthMiddleware(s.cfg.Auth, handler)
		logging.SecurityEvent("authentication_configured", "api",
			"enabled", true,
			"note", "API key required for DELETE")
	}

	if s.cfg.RateLimitRequests > 0 {
		rl := NewRateLimiter(RateLimiterConfig{
			RequestsPerMinute: s.cfg.RateLimitRequests,
			BurstSize:         s.cfg.RateLimitBurst,
		})
		handler = rl.Middleware(handler)
		logging.Info("rate limiting enabled",
			"requests_per_minute", rl.config.RequestsPerMinute,
			"burst_size", rl.config.BurstSize)
	}

	handler = server.CORSMiddleware(server.CORSConfig{AllowedOrigins: s.cfg.AllowedOrigins}, handler)
	if len(s.cfg.AllowedOrigins) > 0 {
		logging.SecurityEvent("cors_configured", "api",
			"mode", "restricted",
			"allowed_origins_count", len(s.cfg.AllowedOrigins))
	} else {
		logging.SecurityEvent("cors_configured", "api",
			"mode", "permissive",
			"note", "allowing all origins (*)")
	}

	handler = server.TimingMiddleware(handler)
	return logging.CombinedMiddleware(handler)
}

// Serve accepts connections on ln until ctx is canceled, then shuts down
// gracefully. The websocket hub runs for the lifetime of the call.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.hub.Run(hubCtx)

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	protocol := "http"
	wsProtocol := "ws"
	if s.cfg.TLS.Enabled {
		protocol = "https"
		wsProtocol = "wss"
	}
	port := s.cfg.Port
	if addr, ok := ln.Addr().(*net.TCPAddr); ok {
		port = addr.Port
	}
	logging.ServerStartup("reader_api", protocol, port,
		"websocket_protocol", wsProtocol,
		"source", s.loader.Fetcher().Source().String(),
		"data_dir", dataDirLabel(s.cfg.DataDir))

	errc := make(chan error, 1)
	go func() {
		if s.cfg.TLS.Enabled {
			errc <- srv.ServeTLS(ln, s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
			return
		}
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logging.Info("server stopped")
	return nil
}

// ListenAndServe listens on the configured port and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

func dataDirLabel(dir string) string {
	if dir == "" {
		return "(not served)"
	}
	return server.AbsPath(dir)
}
