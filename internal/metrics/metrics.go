// Package metrics exposes Prometheus instrumentation for the monitor
// itself: ingest throughput, rejects, alert activity and link health.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ReadingsTotal counts accepted readings per sensor.
	ReadingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tempwatch_readings_total",
			Help: "Total number of accepted temperature readings",
		},
		[]string{"sensor"},
	)

	// ParseErrorsTotal counts rejected lines by classification.
	ParseErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tempwatch_parse_errors_total",
			Help: "Total number of rejected telemetry lines",
		},
		[]string{"kind"},
	)

	// TransportErrorsTotal counts serial read failures.
	TransportErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tempwatch_transport_errors_total",
			Help: "Total number of transport read errors",
		},
	)

	// AlertsTotal counts emitted alert actions by tier.
	AlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tempwatch_alerts_total",
			Help: "Total number of alert actions emitted",
		},
		[]string{"tier"},
	)

	// WatchdogTripsTotal counts link-stale episodes.
	WatchdogTripsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tempwatch_watchdog_trips_total",
			Help: "Total number of sensor-link silence episodes",
		},
	)

	// Temperature is the latest reading per sensor.
	Temperature = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tempwatch_temperature_celsius",
			Help: "Latest temperature reading per sensor",
		},
		[]string{"sensor"},
	)

	// MaxTemperature is the highest retained reading across sensors.
	MaxTemperature = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tempwatch_max_temperature_celsius",
			Help: "Highest retained temperature across all sensors",
		},
	)
)

// Serve exposes /metrics on addr. It blocks, so run it on its own
// goroutine; errors surface through the returned server's ListenAndServe.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return server.ListenAndServe()
}
