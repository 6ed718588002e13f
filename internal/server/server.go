// Package server implements the HTTP server, middleware, and request handlers for the application.
package server

import (
	"net/http"
	"time"

	"github.com/craftping/craftping/internal/config"
	"github.com/craftping/craftping/internal/geoip"
	"github.com/craftping/craftping/internal/storage"
)

// New creates a new Server instance with the provided storage, GeoIP provider, and configuration.
func New(store *storage.Repository, geo *geoip.Provider, cfg *config.Config) *Server {
	return &Server{
		storage:        store,
		geoip:          geo,
		probeOpts:      cfg.Probe,
		authToken:      cfg.Server.AuthToken,
		trustProxy:     cfg.Server.TrustProxy,
		hardLimitCount: cfg.RateLimit.HardLimitCount,
		hardLimitWin:   cfg.RateLimit.HardLimitWin,

		queue:    make(chan probeJob, 1000),
		shutdown: make(chan struct{}),
	}
}

// StartWorkers initializes the background worker pool for recording probe
// outcomes and the probe cache cleanup routine.
func (s *Server) StartWorkers() {
	workers := 4
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}

	// Clean expired probe results
	go s.gcProbeCache()
}

// StopWorkers gracefully stops the background workers and closes the job queue.
func (s *Server) StopWorkers() {
	close(s.shutdown)
	close(s.queue)
	s.wg.Wait()
}

// Run configures the HTTP routes and returns the main handler.
func (s *Server) Run() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /healthz", http.HandlerFunc(s.handleHealth))
	mux.Handle("GET /api/version", http.HandlerFunc(s.handleVersion))
	mux.Handle("GET /api/servers", AdminAuthMiddleware(s.authToken, http.HandlerFunc(s.handleServers)))
	mux.Handle("GET /api/history", AdminAuthMiddleware(s.authToken, http.HandlerFunc(s.handleHistory)))
	mux.Handle("DELETE /api/server", AdminAuthMiddleware(s.authToken, http.HandlerFunc(s.handleDeleteServer)))

	mux.Handle("GET /{address}", s.RateLimitMiddleware(http.HandlerFunc(s.handleStatusText)))
	mux.Handle("GET /{address}/json", s.RateLimitMiddleware(http.HandlerFunc(s.handleStatusJSON)))
	mux.Handle("GET /{address}/favicon", s.RateLimitMiddleware(http.HandlerFunc(s.handleFavicon)))

	return s.LoggingMiddleware(mux)
}

// gcProbeCache periodically cleans up expired entries from the probe result cache.
func (s *Server) gcProbeCache() {
	if s.probeOpts.CacheTTL <= 0 {
		return
	}

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.shutdown:
			return
		case <-ticker.C:
			now := time.Now()
			s.probeCache.Range(func(key, value interface{}) bool {
				if c, ok := value.(cachedResult); ok {
					if now.Sub(c.at) > s.probeOpts.CacheTTL {
						s.probeCache.Delete(key)
					}
				} else {
					s.probeCache.Delete(key)
				}
				return true
			})
		}
	}
}
