// Package metrics exposes the daemon's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Refreshes counts snapshot refreshes by what triggered them:
	// poll, push, wake, or action.
	Refreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokerd_refreshes_total",
		Help: "Snapshot refreshes by trigger.",
	}, []string{"trigger"})

	// RefreshFailures counts refreshes that returned an error and left the
	// previous snapshot in place.
	RefreshFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pokerd_refresh_failures_total",
		Help: "Refreshes that failed and kept the last good snapshot.",
	})

	// PushSignals counts change notifications received from the hub.
	PushSignals = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pokerd_push_signals_total",
		Help: "Change notifications received over the push channel.",
	})

	// CommandErrors counts gateway commands that surfaced a user notice.
	CommandErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokerd_command_errors_total",
		Help: "Gateway commands that failed, by command.",
	}, []string{"command"})
)
