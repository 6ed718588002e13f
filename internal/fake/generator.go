// Package fake provides utilities for generating random probe data for testing and development purposes.
package fake

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/craftping/craftping/internal/models"
	"github.com/craftping/craftping/internal/storage"
	"github.com/rs/zerolog/log"
)

// GenerateData populates the storage with a specified number of randomized
// server records plus a short probe history for each. It simulates a mix of
// versions, countries, player counts, and failure reasons.
func GenerateData(store *storage.Repository, count int) {
	hosts := []string{"play", "mc", "survival", "skyblock", "pvp", "creative", "hub"}
	domains := []string{"example.com", "example.org", "example.net"}
	versions := []struct {
		name     string
		protocol int
	}{
		{"1.8.9", 47},
		{"1.12.2", 340},
		{"1.16.5", 754},
		{"1.20.1", 763},
		{"1.21", 767},
	}
	motds := []string{
		"A Minecraft Server",
		"Welcome to the server!",
		"Survival | Economy | Jobs",
		"Now running the summer event",
	}
	reasons := []string{"connect_timeout", "connection_refused", "read_timeout", "protocol_error"}
	countries := []string{"US", "DE", "RU", "BR", "FR", "GB", "PL", "JP", "AU", "SE"}

	for i := 0; i < count; i++ {
		host := fmt.Sprintf("%s%d.%s",
			hosts[rand.Intn(len(hosts))], rand.Intn(1000), domains[rand.Intn(len(domains))])
		port := 25565
		if rand.Float32() < 0.2 {
			port = 25500 + rand.Intn(200)
		}

		ver := versions[rand.Intn(len(versions))]
		maxPlayers := []int{20, 50, 100, 500}[rand.Intn(4)]

		// Random date-time in 30 days range
		daysAgo := rand.Intn(30)
		seenTime := time.Now().Add(-time.Duration(daysAgo) * 24 * time.Hour).
			Add(-time.Duration(rand.Intn(1440)) * time.Minute)

		srv := models.Server{
			Host:        host,
			Port:        port,
			CountryCode: countries[rand.Intn(len(countries))],
			MOTD:        motds[rand.Intn(len(motds))],
			VersionName: ver.name,
			Protocol:    ver.protocol,
			PlayersMax:  maxPlayers,
			HasFavicon:  rand.Float32() < 0.5,
			FirstSeen:   seenTime.Add(-time.Hour * 24 * 7),
			LastSeen:    seenTime,
			LastOnline:  seenTime,
		}

		if err := store.UpsertServer(srv); err != nil {
			log.Warn().Err(err).Msg("Failed to generate fake server")
			continue
		}

		// A handful of probe rows per server, ~80% online
		probes := 1 + rand.Intn(5)
		for j := 0; j < probes; j++ {
			rec := models.ProbeRecord{
				Host:     host,
				Port:     port,
				ProbedAt: seenTime.Add(-time.Duration(j) * time.Hour),
			}

			if rand.Float32() < 0.8 {
				rec.Online = true
				rec.PlayersOnline = rand.Intn(maxPlayers)
				rec.LatencyMS = 5 + rand.Float64()*200
			} else {
				rec.Reason = reasons[rand.Intn(len(reasons))]
			}

			if err := store.InsertProbe(rec); err != nil {
				log.Warn().Err(err).Msg("Failed to generate fake probe")
			}
		}
	}
}
