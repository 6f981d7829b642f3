package observability

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FixesIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bustracker_fixes_ingested_total",
		Help: "GPS fixes successfully ingested",
	})
	IngestErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bustracker_ingest_errors_total",
		Help: "Fixes rejected (unknown bus) or failed on persistence",
	})
	EnrichmentFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bustracker_enrichment_fallbacks_total",
		Help: "Attendance lookups that failed and fell back to the previous count",
	})
	BroadcastsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bustracker_broadcasts_dropped_total",
		Help: "Live updates dropped for slow subscribers",
	})
	Subscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bustracker_subscribers",
		Help: "Currently connected live-feed subscribers",
	})
)

// StartMetricsServer serves /metrics and /healthz on its own port.
func StartMetricsServer(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Printf("metrics server stopped: %v", err)
	}
}
