package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"nrgbot/clients"
	"nrgbot/metrics"
	"nrgbot/models"
	"nrgbot/services"
)

type stubStats struct {
	stats models.TagSyncStats
	err   error
}

func (s stubStats) GetSyncStats(context.Context) (models.TagSyncStats, error) {
	return s.stats, s.err
}

func newRouter(h *StatusHTTPHandler) *mux.Router {
	router := mux.NewRouter()
	h.SetupEndpoints(router)
	return router
}

func TestStatusHTTPHandler(t *testing.T) {
	t.Run("health", func(t *testing.T) {
		router := newRouter(NewStatusHTTPHandler(nil, nil, nil, nil))
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("stats combines sync stats, tags and readiness", func(t *testing.T) {
		tags := &services.MockTagsRepository{}
		tags.On("CountTags", mock.Anything).Return(12, nil)
		discord := &clients.MockPlatformClient{}
		discord.On("Platform").Return(models.PlatformDiscord)
		discord.On("IsReady").Return(true)
		handler := NewStatusHTTPHandler(
			stubStats{stats: models.TagSyncStats{Guilds: 1, Roles: 9, Members: 40}},
			tags,
			[]ReadinessReporter{discord},
			nil,
		)
		rec := httptest.NewRecorder()

		newRouter(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 1.0, body["guilds"])
		assert.Equal(t, 9.0, body["roles"])
		assert.Equal(t, 40.0, body["members"])
		assert.Equal(t, 12.0, body["tags"])
		assert.Equal(t, map[string]any{"discord": true}, body["platforms"])
	})

	t.Run("stats failure is a 500", func(t *testing.T) {
		handler := NewStatusHTTPHandler(stubStats{err: errors.New("rate limited")}, nil, nil, nil)
		rec := httptest.NewRecorder()

		newRouter(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("metrics are exposed", func(t *testing.T) {
		m := metrics.NewMetrics(prometheus.NewRegistry())
		m.CommandDispatched(models.PlatformSlack, "hacks")
		rec := httptest.NewRecorder()

		newRouter(NewStatusHTTPHandler(nil, nil, nil, m.Handler())).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `nrgbot_commands_total{command="hacks",platform="slack"} 1`)
	})
}
