package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SettingsLatency is the duration of settings file operations.
	SettingsLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "dataaccess_settings_latency",
			Help: "Duration of settings file operations",
		},
		[]string{"dal", "op"},
	)

	// SettingsTotalRequests is the total number of settings file operations.
	SettingsTotalRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataaccess_settings_total_requests",
			Help: "Total number of settings file operations",
		},
		[]string{"dal", "op"},
	)
)
