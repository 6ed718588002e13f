// Package storage handles database connections, schema migrations, and data operations using SQLite.
package storage

import (
	"database/sql"
	"time"

	"github.com/craftping/craftping/internal/models"
	_ "modernc.org/sqlite" // Driver sqlite
)

// Repository manages the SQLite database connection.
type Repository struct {
	db *sql.DB
}

// New initializes a new SQLite connection, sets connection pool parameters, and runs migrations.
func New(dbPath string) (*Repository, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// UpsertServer inserts a new server or folds a probe outcome into an existing
// row keyed by (host, port). Status fields only overwrite when the probe was
// online (version_name is non-empty exactly then).
func (r *Repository) UpsertServer(s models.Server) error {
	query := `
	INSERT INTO servers (
		host, port, country_code, motd, version_name, protocol,
		players_max, has_favicon, probe_count, online_count,
		first_seen, last_seen, last_online
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?, ?, ?)
	ON CONFLICT(host, port) DO UPDATE SET
		probe_count  = probe_count + 1,
		online_count = online_count + excluded.online_count,
		last_seen    = excluded.last_seen,

		-- Update country if resolved and not blank
		country_code = CASE WHEN excluded.country_code != '' THEN excluded.country_code ELSE servers.country_code END,

		-- Update status fields only after an online probe
		motd         = CASE WHEN excluded.version_name != '' THEN excluded.motd ELSE servers.motd END,
		version_name = CASE WHEN excluded.version_name != '' THEN excluded.version_name ELSE servers.version_name END,
		protocol     = CASE WHEN excluded.version_name != '' THEN excluded.protocol ELSE servers.protocol END,
		players_max  = CASE WHEN excluded.version_name != '' THEN excluded.players_max ELSE servers.players_max END,
		has_favicon  = CASE WHEN excluded.version_name != '' THEN excluded.has_favicon ELSE servers.has_favicon END,
		last_online  = CASE WHEN excluded.online_count > 0 THEN excluded.last_seen ELSE servers.last_online END;
	`

	var onlineCount int64
	var lastOnline any
	if !s.LastOnline.IsZero() {
		onlineCount = 1
		lastOnline = s.LastOnline
	}

	_, err := r.db.Exec(query,
		s.Host, s.Port, s.CountryCode, s.MOTD, s.VersionName, s.Protocol,
		s.PlayersMax, s.HasFavicon, onlineCount,
		s.FirstSeen, s.LastSeen, lastOnline,
	)

	return err
}

// GetServers retrieves all servers, sorted by the last seen timestamp in descending order.
func (r *Repository) GetServers() ([]models.Server, error) {
	rows, err := r.db.Query(`
		SELECT host, port, country_code, motd, version_name, protocol,
		       players_max, has_favicon, probe_count, online_count,
		       first_seen, last_seen, last_online
		FROM servers
		ORDER BY last_seen DESC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var servers []models.Server
	for rows.Next() {
		s, err := scanServer(rows)
		if err != nil {
			continue
		}
		servers = append(servers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return servers, nil
}

// GetServer retrieves a specific server by host and port.
func (r *Repository) GetServer(host string, port int) (*models.Server, error) {
	row := r.db.QueryRow(`
		SELECT host, port, country_code, motd, version_name, protocol,
		       players_max, has_favicon, probe_count, online_count,
		       first_seen, last_seen, last_online
		FROM servers
		WHERE host = ? AND port = ?
	`, host, port)

	s, err := scanServer(row)
	if err == sql.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// DeleteServer removes a server and its probe history.
func (r *Repository) DeleteServer(host string, port int) error {
	if _, err := r.db.Exec(`DELETE FROM probes WHERE host = ? AND port = ?`, host, port); err != nil {
		return err
	}
	_, err := r.db.Exec(`DELETE FROM servers WHERE host = ? AND port = ?`, host, port)
	return err
}

// InsertProbe appends one probe outcome to the history table.
func (r *Repository) InsertProbe(rec models.ProbeRecord) error {
	_, err := r.db.Exec(`
		INSERT INTO probes (host, port, online, players_online, latency_ms, reason, detail, probed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.Host, rec.Port, rec.Online, rec.PlayersOnline, rec.LatencyMS, rec.Reason, rec.Detail, rec.ProbedAt)
	return err
}

// GetHistory retrieves the most recent probe records for a target, newest first.
func (r *Repository) GetHistory(host string, port, limit int) ([]models.ProbeRecord, error) {
	rows, err := r.db.Query(`
		SELECT host, port, online, players_online, latency_ms, reason, detail, probed_at
		FROM probes
		WHERE host = ? AND port = ?
		ORDER BY probed_at DESC
		LIMIT ?
	`, host, port, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var records []models.ProbeRecord
	for rows.Next() {
		var rec models.ProbeRecord
		if err := rows.Scan(
			&rec.Host, &rec.Port, &rec.Online, &rec.PlayersOnline,
			&rec.LatencyMS, &rec.Reason, &rec.Detail, &rec.ProbedAt,
		); err != nil {
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// DeleteStaleServers removes servers (and their history) that have never been
// online or were last online before the cutoff. Returns the number of servers removed.
func (r *Repository) DeleteStaleServers(cutoff time.Time) (int64, error) {
	if _, err := r.db.Exec(`
		DELETE FROM probes WHERE (host, port) IN (
			SELECT host, port FROM servers WHERE last_online IS NULL OR last_online < ?
		)
	`, cutoff); err != nil {
		return 0, err
	}

	res, err := r.db.Exec(`DELETE FROM servers WHERE last_online IS NULL OR last_online < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PruneHistory removes probe records older than the cutoff.
func (r *Repository) PruneHistory(cutoff time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM probes WHERE probed_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanServer(row scanner) (models.Server, error) {
	var s models.Server
	var lastOnline sql.NullTime

	err := row.Scan(
		&s.Host, &s.Port, &s.CountryCode, &s.MOTD, &s.VersionName, &s.Protocol,
		&s.PlayersMax, &s.HasFavicon, &s.ProbeCount, &s.OnlineCount,
		&s.FirstSeen, &s.LastSeen, &lastOnline,
	)
	if err != nil {
		return models.Server{}, err
	}

	if lastOnline.Valid {
		s.LastOnline = lastOnline.Time
	}

	return s, nil
}
