// Package maintenance provides one-shot tasks for cleaning and refreshing the database.
package maintenance

import (
	"sync"
	"time"

	"github.com/craftping/craftping/internal/config"
	"github.com/craftping/craftping/internal/models"
	"github.com/craftping/craftping/internal/slp"
	"github.com/craftping/craftping/internal/storage"
	"github.com/rs/zerolog/log"
)

// Run checks if any maintenance flags are set and executes the corresponding tasks.
// Returns true if a maintenance task was executed (indicating the program should exit).
func Run(cfg *config.Config, store *storage.Repository) bool {
	switch {
	case cfg.Storage.PruneOffline > 0:
		cutoff := time.Now().Add(-cfg.Storage.PruneOffline)
		log.Info().Time("cutoff", cutoff).Msg("Pruning servers not seen online...")

		count, err := store.DeleteStaleServers(cutoff)
		if err != nil {
			log.Error().Err(err).Msg("Failed to prune servers")
		} else {
			log.Info().Int64("deleted", count).Msg("Prune finished")
		}

		return true

	case cfg.Storage.PruneHistory > 0:
		cutoff := time.Now().Add(-cfg.Storage.PruneHistory)
		log.Info().Time("cutoff", cutoff).Msg("Pruning probe history...")

		count, err := store.PruneHistory(cutoff)
		if err != nil {
			log.Error().Err(err).Msg("Failed to prune history")
		} else {
			log.Info().Int64("deleted", count).Msg("Prune finished")
		}

		return true

	case cfg.Storage.RecheckAll:
		servers, err := store.GetServers()
		if err != nil {
			log.Error().Err(err).Msg("Failed to fetch servers")
			return true
		}

		if len(servers) == 0 {
			log.Info().Msg("No servers found for maintenance")
			return true
		}

		log.Info().Int("count", len(servers)).Msg("Starting re-check task with 10 workers...")
		runWorkerPool(servers, store, cfg.Probe)
		log.Info().Msg("Maintenance task completed")

		return true
	}

	return false
}

func runWorkerPool(servers []models.Server, store *storage.Repository, probeOpts config.Probe) {
	const workers = 10
	jobs := make(chan models.Server, len(servers))
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for srv := range jobs {
				recheckServer(srv, store, probeOpts)
			}
		}()
	}

	// Send jobs
	for _, srv := range servers {
		jobs <- srv
	}
	close(jobs)

	wg.Wait()
}

// recheckServer re-probes one recorded server: updates it when it answers,
// deletes it (and its history) when it does not.
func recheckServer(srv models.Server, store *storage.Repository, probeOpts config.Probe) {
	logCtx := log.With().
		Str("host", srv.Host).
		Int("port", srv.Port).
		Logger()

	addr, err := slp.NewServerAddress(srv.Host, uint16(srv.Port))
	if err != nil {
		logCtx.Debug().Err(err).Msg("Invalid address, deleting server")
		if err := store.DeleteServer(srv.Host, srv.Port); err != nil {
			logCtx.Error().Err(err).Msg("Failed to delete invalid server")
		}
		return
	}

	res := slp.Probe(addr, probeOpts.Timeout)
	if !res.Online() {
		logCtx.Debug().Str("reason", res.Failure.Reason.String()).Msg("Server unreachable, deleting")
		if err := store.DeleteServer(srv.Host, srv.Port); err != nil {
			logCtx.Error().Err(err).Msg("Failed to delete unreachable server")
		}
		return
	}

	now := time.Now()
	status := res.Status

	srv.MOTD = status.MOTD
	srv.VersionName = status.VersionName
	srv.Protocol = status.Protocol
	srv.PlayersMax = status.PlayersMax
	srv.HasFavicon = status.Favicon != ""
	srv.LastSeen = now
	srv.LastOnline = now

	if err := store.UpsertServer(srv); err != nil {
		logCtx.Error().Err(err).Msg("Failed to update server")
		return
	}

	if err := store.InsertProbe(models.ProbeRecord{
		Host:          srv.Host,
		Port:          srv.Port,
		Online:        true,
		PlayersOnline: status.PlayersOnline,
		LatencyMS:     status.LatencyMS,
		ProbedAt:      now,
	}); err != nil {
		logCtx.Error().Err(err).Msg("Failed to record probe")
	} else {
		logCtx.Trace().Msg("Server updated successfully")
	}
}
