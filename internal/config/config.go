// Package config handles the parsing and validation of application configuration
// from command-line arguments and environment variables.
package config

import (
	"os"
	"time"

	"github.com/craftping/craftping/internal/logger"
	"github.com/craftping/craftping/internal/vars"
	"github.com/jessevdk/go-flags"
)

// Config represents the complete application flags configuration.
type Config struct {
	Server    Server        `group:"Server Options" env-namespace:"CRAFTPING"`
	Probe     Probe         `group:"Probe Options" namespace:"probe" env-namespace:"CRAFTPING_PROBE"`
	Storage   Storage       `group:"Storage Options" namespace:"db" env-namespace:"CRAFTPING_DB"`
	GeoIP     GeoIP         `group:"GeoIP Options" namespace:"geoip" env-namespace:"CRAFTPING_GEOIP"`
	RateLimit RateLimit     `group:"Rate Limit Options" namespace:"rate-limit" env-namespace:"CRAFTPING_RATE_LIMIT"`
	Logger    logger.Config `group:"Logger Options" namespace:"log" env-namespace:"CRAFTPING_LOG"`

	Version bool `short:"v" long:"version" description:"Print version and build info"`
}

// Server holds web server configuration.
type Server struct {
	Address    string `short:"l" long:"address" env:"LISTEN_ADDRESS" description:"Server listen address" default:":8080"`
	AuthToken  string `short:"t" long:"auth-token" env:"AUTH_TOKEN" description:"Admin authentication token"`
	TrustProxy bool   `long:"trust-proxy" env:"TRUST_PROXY" description:"Trust X-Forwarded-For headers"`
}

// Probe holds Server List Ping client configuration.
type Probe struct {
	Timeout     time.Duration `long:"timeout" env:"TIMEOUT" description:"Total probe deadline (resolve + connect + exchange)" default:"5s"`
	CacheTTL    time.Duration `long:"cache-ttl" env:"CACHE_TTL" description:"Reuse a probe result for this long, 0 disables caching" default:"30s"`
	DefaultPort uint16        `long:"default-port" env:"DEFAULT_PORT" description:"Port used when the request omits one" default:"25565"`
}

// Storage holds database configuration and one-shot maintenance tasks.
type Storage struct {
	Path          string        `short:"d" long:"path" env:"PATH" description:"Path to SQLite database" default:"craftping.db"`
	PruneOffline  time.Duration `long:"prune-offline" description:"Delete servers not seen online within duration, then exit"`
	PruneHistory  time.Duration `long:"prune-history" description:"Delete probe history older than duration, then exit"`
	RecheckAll    bool          `long:"recheck-all" description:"Re-probe all recorded servers. Update if UP, delete if DOWN. Then exit"`
	GenerateCount int           `long:"gen-fake-data" hidden:"true"`
}

// GeoIP holds MaxMind GeoIP configuration.
type GeoIP struct {
	Path     string        `short:"g" long:"path" env:"PATH" description:"Path to MMDB file" default:"craftping.mmdb"`
	URL      string        `long:"url" env:"URL" description:"URL to download MMDB" default:"https://git.io/GeoLite2-Country.mmdb"`
	Interval time.Duration `long:"interval" env:"INTERVAL" description:"Update interval check" default:"24h"`
}

// RateLimit holds API rate limiting configuration.
type RateLimit struct {
	HardLimitCount int           `long:"hard-count" env:"HARD_COUNT" description:"Hard IP limit: requests count" default:"16"`
	HardLimitWin   time.Duration `long:"hard-window" env:"HARD_WINDOW" description:"Hard IP limit: window duration" default:"1m"`
}

// Parse reads the configuration from flags and environment variables.
// It terminates the application if the configuration is invalid or if the help flag is invoked.
func Parse() *Config {
	var cfg Config
	parser := flags.NewParser(&cfg, flags.Default)
	parser.NamespaceDelimiter = "-"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}

	if cfg.Version {
		vars.Print()
		os.Exit(0)
	}

	return &cfg
}
