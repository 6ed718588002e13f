// Package models defines the data structures used for API responses and database persistence.
package models

import "time"

// Server is the aggregate record kept per probed target.
type Server struct {
	FirstSeen   time.Time `json:"first_seen"`
	LastSeen    time.Time `json:"last_seen"`
	LastOnline  time.Time `json:"last_online,omitzero"`
	Host        string    `json:"host"`
	CountryCode string    `json:"country_code,omitempty"`
	MOTD        string    `json:"motd"`
	VersionName string    `json:"version_name"`
	Port        int       `json:"port"`
	Protocol    int       `json:"protocol"`
	PlayersMax  int       `json:"players_max"`
	ProbeCount  int64     `json:"probe_count"`
	OnlineCount int64     `json:"online_count"`
	HasFavicon  bool      `json:"has_favicon"`
}

// ProbeRecord is a single probe outcome in the history table.
type ProbeRecord struct {
	ProbedAt      time.Time `json:"probed_at"`
	Host          string    `json:"host"`
	Reason        string    `json:"reason,omitempty"`
	Detail        string    `json:"detail,omitempty"`
	Port          int       `json:"port"`
	PlayersOnline int       `json:"players_online"`
	LatencyMS     float64   `json:"latency_ms"`
	Online        bool      `json:"online"`
}
