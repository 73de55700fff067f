package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nrgbot/models"
)

const namespace = "nrgbot"

// Metrics holds the bot's collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	commandsTotal        *prometheus.CounterVec
	commandFailuresTotal *prometheus.CounterVec
	unknownCommandsTotal *prometheus.CounterVec
	buttonsTotal         *prometheus.CounterVec

	syncRunsTotal    *prometheus.CounterVec
	syncSkippedTotal *prometheus.CounterVec
	syncDuration     *prometheus.HistogramVec

	roleChangesTotal *prometheus.CounterVec
}

// NewMetrics registers every collector on registry. A nil registry creates
// unregistered collectors, which is what tests use.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	var factory promauto.Factory
	if registry != nil {
		factory = promauto.With(registry)
	} else {
		factory = promauto.With(nil)
	}

	return &Metrics{
		registry: registry,
		commandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands dispatched to a handler.",
		}, []string{"platform", "command"}),
		commandFailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "command_failures_total",
			Help:      "Commands whose handler returned an error or panicked.",
		}, []string{"platform", "command"}),
		unknownCommandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unknown_commands_total",
			Help:      "Commands with no registered handler.",
		}, []string{"platform"}),
		buttonsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buttons_total",
			Help:      "Button clicks routed to a command.",
		}, []string{"platform", "command"}),
		syncRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Completed sync runs by outcome.",
		}, []string{"service", "outcome"}),
		syncSkippedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_skipped_total",
			Help:      "Sync ticks skipped because a previous run was still in flight.",
		}, []string{"service"}),
		syncDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Duration of sync runs.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}, []string{"service"}),
		roleChangesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "role_changes_total",
			Help:      "Discord role assignments added or removed by role sync.",
		}, []string{"action"}),
	}
}

func (m *Metrics) CommandDispatched(platform models.Platform, command string) {
	if m == nil {
		return
	}
	m.commandsTotal.WithLabelValues(string(platform), command).Inc()
}

func (m *Metrics) CommandFailed(platform models.Platform, command string) {
	if m == nil {
		return
	}
	m.commandFailuresTotal.WithLabelValues(string(platform), command).Inc()
}

func (m *Metrics) UnknownCommand(platform models.Platform) {
	if m == nil {
		return
	}
	m.unknownCommandsTotal.WithLabelValues(string(platform)).Inc()
}

func (m *Metrics) ButtonRouted(platform models.Platform, command string) {
	if m == nil {
		return
	}
	m.buttonsTotal.WithLabelValues(string(platform), command).Inc()
}

// SyncCompleted records one finished sync run
func (m *Metrics) SyncCompleted(service string, started time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.syncRunsTotal.WithLabelValues(service, outcome).Inc()
	m.syncDuration.WithLabelValues(service).Observe(time.Since(started).Seconds())
}

func (m *Metrics) SyncSkipped(service string) {
	if m == nil {
		return
	}
	m.syncSkippedTotal.WithLabelValues(service).Inc()
}

// RolesChanged records role assignments; action is "add" or "remove"
func (m *Metrics) RolesChanged(action string, count int) {
	if m == nil || count == 0 {
		return
	}
	m.roleChangesTotal.WithLabelValues(action).Add(float64(count))
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
