package server

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/craftping/craftping/internal/slp"
	"github.com/rs/zerolog/log"
)

// faviconPrefix is the data-URI prefix servers use for their icon.
const faviconPrefix = "data:image/png;base64,"

// handleStatusText answers GET /{address} with the plain-text literal
// "Online" or "Offline".
func (s *Server) handleStatusText(w http.ResponseWriter, r *http.Request) {
	addr, err := slp.ParseAddress(r.PathValue("address"), s.probeOpts.DefaultPort)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	res := s.cachedProbe(addr)

	w.Header().Set("Content-Type", "text/plain")
	if res.Online() {
		_, _ = fmt.Fprint(w, "Online")
		return
	}

	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = fmt.Fprint(w, "Offline")
}

// handleStatusJSON answers GET /{address}/json with the full probe outcome:
// {"result": {...}} when online, {"err": {...}} when not.
func (s *Server) handleStatusJSON(w http.ResponseWriter, r *http.Request) {
	addr, err := slp.ParseAddress(r.PathValue("address"), s.probeOpts.DefaultPort)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"err": "invalid address"})
		return
	}

	res := s.cachedProbe(addr)

	w.Header().Set("Content-Type", "application/json")
	if !res.Online() {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(res)
}

// handleFavicon answers GET /{address}/favicon with the decoded server icon.
func (s *Server) handleFavicon(w http.ResponseWriter, r *http.Request) {
	addr, err := slp.ParseAddress(r.PathValue("address"), s.probeOpts.DefaultPort)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	res := s.cachedProbe(addr)
	if !res.Online() {
		http.Error(w, "Offline", http.StatusServiceUnavailable)
		return
	}

	icon := res.Status.Favicon
	if !strings.HasPrefix(icon, faviconPrefix) {
		http.NotFound(w, r)
		return
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(icon, faviconPrefix))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(data)
}

// cachedProbe returns a recent probe result for the target, or performs a
// fresh probe. Fresh results are queued for background recording; cache hits
// are not, so one record per real probe lands in storage.
func (s *Server) cachedProbe(addr slp.ServerAddress) slp.Result {
	key := xxhash.Sum64String(addr.String())

	if s.probeOpts.CacheTTL > 0 {
		if val, ok := s.probeCache.Load(key); ok {
			if c, ok := val.(cachedResult); ok && time.Since(c.at) < s.probeOpts.CacheTTL {
				log.Trace().Str("target", addr.String()).Msg("Probe cache hit")
				return c.res
			}
		}
	}

	res := slp.Probe(addr, s.probeOpts.Timeout)

	if s.probeOpts.CacheTTL > 0 {
		s.probeCache.Store(key, cachedResult{res: res, at: time.Now()})
	}

	s.enqueue(probeJob{Addr: addr, Res: res})

	return res
}

// enqueue hands a probe outcome to the background workers without blocking
// the request.
func (s *Server) enqueue(job probeJob) {
	select {
	case s.queue <- job:
	default:
		log.Warn().
			Str("target", job.Addr.String()).
			Msg("Queue full, probe record dropped")
	}
}
