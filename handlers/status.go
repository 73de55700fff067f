package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"nrgbot/models"
)

// SyncStatsProvider is the read-only view of tag sync the stats endpoint needs
type SyncStatsProvider interface {
	GetSyncStats(ctx context.Context) (models.TagSyncStats, error)
}

// TagCounter counts the tags mirrored from Discord
type TagCounter interface {
	CountTags(ctx context.Context) (int, error)
}

// ReadinessReporter is implemented by every platform client
type ReadinessReporter interface {
	Platform() models.Platform
	IsReady() bool
}

type StatsResponse struct {
	models.TagSyncStats
	Tags      int                      `json:"tags"`
	Platforms map[models.Platform]bool `json:"platforms"`
}

// StatusHTTPHandler serves the health, stats and metrics endpoints
type StatusHTTPHandler struct {
	stats     SyncStatsProvider
	tags      TagCounter
	platforms []ReadinessReporter
	metrics   http.Handler
}

// NewStatusHTTPHandler builds the handler. stats may be nil when Discord is disabled.
func NewStatusHTTPHandler(
	stats SyncStatsProvider,
	tags TagCounter,
	platforms []ReadinessReporter,
	metrics http.Handler,
) *StatusHTTPHandler {
	return &StatusHTTPHandler{
		stats:     stats,
		tags:      tags,
		platforms: platforms,
		metrics:   metrics,
	}
}

func (h *StatusHTTPHandler) SetupEndpoints(router *mux.Router) {
	router.HandleFunc("/health", h.HandleHealth).Methods("GET")
	router.HandleFunc("/stats", h.HandleStats).Methods("GET")
	if h.metrics != nil {
		router.Handle("/metrics", h.metrics).Methods("GET")
	}
}

func (h *StatusHTTPHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *StatusHTTPHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	response := StatsResponse{Platforms: make(map[models.Platform]bool, len(h.platforms))}
	for _, p := range h.platforms {
		response.Platforms[p.Platform()] = p.IsReady()
	}

	if h.stats != nil {
		stats, err := h.stats.GetSyncStats(r.Context())
		if err != nil {
			log.Printf("❌ Failed to get sync stats: %v", err)
			http.Error(w, "failed to get sync stats", http.StatusInternalServerError)
			return
		}
		response.TagSyncStats = stats
	}

	if h.tags != nil {
		count, err := h.tags.CountTags(r.Context())
		if err != nil {
			log.Printf("❌ Failed to count tags: %v", err)
			http.Error(w, "failed to count tags", http.StatusInternalServerError)
			return
		}
		response.Tags = count
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}

func (h *StatusHTTPHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("❌ Failed to encode JSON response: %v", err)
	}
}
