package server

import (
	"net"
	"time"

	"github.com/craftping/craftping/internal/models"
	"github.com/rs/zerolog/log"
)

// worker is a background goroutine that records probe outcomes from the queue.
func (s *Server) worker() {
	defer s.wg.Done()

	for job := range s.queue {
		s.recordProbe(job)
	}
}

// recordProbe persists one probe outcome: the per-target aggregate row and an
// append-only history entry, with GeoIP country enrichment when available.
func (s *Server) recordProbe(job probeJob) {
	if s.storage == nil {
		return
	}

	now := time.Now()

	srv := models.Server{
		Host:      job.Addr.Host,
		Port:      int(job.Addr.Port),
		FirstSeen: now,
		LastSeen:  now,
	}
	rec := models.ProbeRecord{
		Host:     job.Addr.Host,
		Port:     int(job.Addr.Port),
		ProbedAt: now,
	}

	if status := job.Res.Status; status != nil {
		srv.MOTD = status.MOTD
		srv.VersionName = status.VersionName
		srv.Protocol = status.Protocol
		srv.PlayersMax = status.PlayersMax
		srv.HasFavicon = status.Favicon != ""
		srv.LastOnline = now

		if s.geoip != nil {
			if ip, _, err := net.SplitHostPort(status.RemoteAddr); err == nil {
				srv.CountryCode = s.geoip.CountryCode(ip)
			}
		}

		rec.Online = true
		rec.PlayersOnline = status.PlayersOnline
		rec.LatencyMS = status.LatencyMS
	} else if failure := job.Res.Failure; failure != nil {
		rec.Reason = failure.Reason.String()
		rec.Detail = failure.Detail
	}

	if err := s.storage.UpsertServer(srv); err != nil {
		log.Error().Err(err).Msg("Failed to save server to DB")
		return
	}
	if err := s.storage.InsertProbe(rec); err != nil {
		log.Error().Err(err).Msg("Failed to save probe record to DB")
		return
	}

	log.Debug().
		Str("target", job.Addr.String()).
		Bool("online", rec.Online).
		Msg("Probe recorded")
}
