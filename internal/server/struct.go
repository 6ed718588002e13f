package server

import (
	"sync"
	"time"

	"github.com/craftping/craftping/internal/config"
	"github.com/craftping/craftping/internal/geoip"
	"github.com/craftping/craftping/internal/slp"
	"github.com/craftping/craftping/internal/storage"
)

// Server holds the dependencies, configuration, and runtime state required
// to handle HTTP requests and background probe recording.
type Server struct {
	// storage provides access to the persistent database layer for server and
	// probe history records.
	storage *storage.Repository

	// geoip resolves the probed server's IP address to a country code.
	// It can be nil if the GeoIP database is not initialized.
	geoip *geoip.Provider

	// probeOpts holds the SLP client settings (deadline, cache TTL, default port).
	probeOpts config.Probe

	// queue is a buffered channel used to pass probe outcomes from HTTP
	// handlers to background workers for asynchronous recording.
	queue chan probeJob

	// shutdown is a signal channel used to broadcast a stop signal to all
	// background workers during a graceful shutdown.
	shutdown chan struct{}

	// probeCache is a thread-safe map of recent probe results keyed by an
	// xxhash of "host:port". It keeps repeated requests from hammering the
	// same target within the cache TTL.
	probeCache sync.Map

	// authToken is the secret token required to access administrative API
	// endpoints. An empty token disables the admin API.
	authToken string

	// wg is used to wait for all background workers to finish processing
	// before the server shuts down completely.
	wg sync.WaitGroup

	// hardLimitCount is the maximum number of requests allowed per IP address
	// within the hardLimitWin duration.
	hardLimitCount int

	// hardLimitWin is the time window duration for the hard rate limiter.
	hardLimitWin time.Duration

	// trustProxy indicates whether the server should trust headers like
	// X-Forwarded-For when determining the client's real IP address.
	trustProxy bool
}

// probeJob bundles a probe outcome with its target for background recording.
type probeJob struct {
	// Addr is the probed target.
	Addr slp.ServerAddress

	// Res is the probe outcome, online or not.
	Res slp.Result
}

// cachedResult is a probe outcome with the time it was produced.
type cachedResult struct {
	res slp.Result
	at  time.Time
}
