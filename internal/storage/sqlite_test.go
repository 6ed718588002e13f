package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/craftping/craftping/internal/models"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	repo, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	return repo
}

func onlineServer(host string, port int, seen time.Time) models.Server {
	return models.Server{
		Host:        host,
		Port:        port,
		MOTD:        "A Minecraft Server",
		VersionName: "1.20.1",
		Protocol:    763,
		PlayersMax:  20,
		FirstSeen:   seen,
		LastSeen:    seen,
		LastOnline:  seen,
	}
}

func TestUpsertServerAggregates(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Now().UTC().Truncate(time.Second)

	if err := repo.UpsertServer(onlineServer("mc.example.com", 25565, now)); err != nil {
		t.Fatalf("UpsertServer: %v", err)
	}

	// Second probe was offline: no status fields, no last_online bump.
	offline := models.Server{
		Host:      "mc.example.com",
		Port:      25565,
		FirstSeen: now.Add(time.Minute),
		LastSeen:  now.Add(time.Minute),
	}
	if err := repo.UpsertServer(offline); err != nil {
		t.Fatalf("UpsertServer offline: %v", err)
	}

	srv, err := repo.GetServer("mc.example.com", 25565)
	if err != nil {
		t.Fatalf("GetServer: %v", err)
	}
	if srv == nil {
		t.Fatal("server not found")
	}

	if srv.ProbeCount != 2 {
		t.Errorf("probe_count = %d, want 2", srv.ProbeCount)
	}
	if srv.OnlineCount != 1 {
		t.Errorf("online_count = %d, want 1", srv.OnlineCount)
	}
	if srv.VersionName != "1.20.1" {
		t.Errorf("offline probe clobbered version: %q", srv.VersionName)
	}
	if !srv.LastOnline.Equal(now) {
		t.Errorf("last_online = %v, want %v", srv.LastOnline, now)
	}
	if !srv.LastSeen.After(srv.LastOnline) {
		t.Errorf("last_seen = %v not after last_online %v", srv.LastSeen, srv.LastOnline)
	}
}

func TestGetServerNotFound(t *testing.T) {
	repo := newTestRepo(t)

	srv, err := repo.GetServer("nope.example.com", 25565)
	if err != nil {
		t.Fatalf("GetServer: %v", err)
	}
	if srv != nil {
		t.Fatalf("want nil, got %+v", srv)
	}
}

func TestProbeHistory(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Now().UTC().Truncate(time.Second)

	for i := 0; i < 3; i++ {
		rec := models.ProbeRecord{
			Host:          "mc.example.com",
			Port:          25565,
			Online:        i != 1,
			PlayersOnline: i,
			LatencyMS:     float64(10 * i),
			ProbedAt:      now.Add(time.Duration(i) * time.Minute),
		}
		if !rec.Online {
			rec.Reason = "read_timeout"
		}
		if err := repo.InsertProbe(rec); err != nil {
			t.Fatalf("InsertProbe: %v", err)
		}
	}

	records, err := repo.GetHistory("mc.example.com", 25565, 2)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	// Newest first
	if records[0].PlayersOnline != 2 || records[1].PlayersOnline != 1 {
		t.Errorf("unexpected order: %+v", records)
	}
	if records[1].Reason != "read_timeout" {
		t.Errorf("reason = %q", records[1].Reason)
	}

	pruned, err := repo.PruneHistory(now.Add(90 * time.Second))
	if err != nil {
		t.Fatalf("PruneHistory: %v", err)
	}
	if pruned != 2 {
		t.Errorf("pruned %d, want 2", pruned)
	}
}

func TestDeleteServerRemovesHistory(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Now().UTC()

	if err := repo.UpsertServer(onlineServer("mc.example.com", 25565, now)); err != nil {
		t.Fatalf("UpsertServer: %v", err)
	}
	if err := repo.InsertProbe(models.ProbeRecord{Host: "mc.example.com", Port: 25565, Online: true, ProbedAt: now}); err != nil {
		t.Fatalf("InsertProbe: %v", err)
	}

	if err := repo.DeleteServer("mc.example.com", 25565); err != nil {
		t.Fatalf("DeleteServer: %v", err)
	}

	srv, err := repo.GetServer("mc.example.com", 25565)
	if err != nil {
		t.Fatalf("GetServer: %v", err)
	}
	if srv != nil {
		t.Fatal("server still present after delete")
	}

	records, err := repo.GetHistory("mc.example.com", 25565, 10)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("history still present after delete: %d rows", len(records))
	}
}

func TestDeleteStaleServers(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Now().UTC()

	if err := repo.UpsertServer(onlineServer("fresh.example.com", 25565, now)); err != nil {
		t.Fatalf("UpsertServer: %v", err)
	}
	if err := repo.UpsertServer(onlineServer("stale.example.com", 25565, now.Add(-48*time.Hour))); err != nil {
		t.Fatalf("UpsertServer: %v", err)
	}
	// Never online at all.
	if err := repo.UpsertServer(models.Server{Host: "dead.example.com", Port: 25565, FirstSeen: now, LastSeen: now}); err != nil {
		t.Fatalf("UpsertServer: %v", err)
	}

	deleted, err := repo.DeleteStaleServers(now.Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("DeleteStaleServers: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted %d, want 2", deleted)
	}

	servers, err := repo.GetServers()
	if err != nil {
		t.Fatalf("GetServers: %v", err)
	}
	if len(servers) != 1 || servers[0].Host != "fresh.example.com" {
		t.Errorf("remaining servers: %+v", servers)
	}
}
