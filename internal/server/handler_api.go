package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/craftping/craftping/internal/models"
	"github.com/craftping/craftping/internal/vars"
	"github.com/rs/zerolog/log"
)

// defaultHistoryLimit bounds GET /api/history when no limit is given.
const defaultHistoryLimit = 100

// handleHealth answers the liveness check.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("ok"))
}

// handleVersion returns build metadata as JSON.
func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(vars.Info())
}

// handleServers returns a JSON list of all recorded servers.
// This endpoint is protected by AdminAuthMiddleware.
func (s *Server) handleServers(w http.ResponseWriter, _ *http.Request) {
	servers, err := s.storage.GetServers()
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch servers")
		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}

	if servers == nil {
		servers = []models.Server{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(servers)
}

// handleHistory returns recent probe records for a target, newest first.
// Query params: ?host=mc.example.com&port=25565&limit=50
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	host, port, ok := targetParams(w, r)
	if !ok {
		return
	}

	limit := defaultHistoryLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	records, err := s.storage.GetHistory(host, port, limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch history")
		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}

	if records == nil {
		records = []models.ProbeRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(records)
}

// handleDeleteServer removes a recorded server and its history.
// Query params: ?host=mc.example.com&port=25565
func (s *Server) handleDeleteServer(w http.ResponseWriter, r *http.Request) {
	host, port, ok := targetParams(w, r)
	if !ok {
		return
	}

	if err := s.storage.DeleteServer(host, port); err != nil {
		log.Error().Err(err).
			Str("host", host).
			Int("port", port).
			Msg("Failed to delete server")

		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}

	log.Info().
		Str("host", host).
		Int("port", port).
		Msg("Server deleted manually")

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "message": "Server deleted"})
}

// targetParams extracts and validates the host and port query parameters.
func targetParams(w http.ResponseWriter, r *http.Request) (string, int, bool) {
	host := r.URL.Query().Get("host")
	portStr := r.URL.Query().Get("port")

	if host == "" || portStr == "" {
		http.Error(w, "Missing required params (host, port)", http.StatusBadRequest)
		return "", 0, false
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		http.Error(w, "Invalid port", http.StatusBadRequest)
		return "", 0, false
	}

	return host, port, true
}
