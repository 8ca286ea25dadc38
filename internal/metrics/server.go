package metrics

import (
	"io"
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

// Paths served by NewServeMux.
const (
	MetricsPath = "/metrics"
	HealthPath  = "/health"
)

// ScrapeHandler serves the mailbuilder registry. Scrapes are counted in the
// same registry (promhttp_metric_handler_requests_total) and a collector
// failure still serves whatever was gathered.
func ScrapeHandler(reg *prom.Registry) http.Handler {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	return promhttp.InstrumentMetricHandler(reg, promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
		Registry:          reg,
	}))
}

// NewServeMux wires the scrape endpoint and a liveness probe for the watch
// server.
func NewServeMux(reg *prom.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(MetricsPath, ScrapeHandler(reg))
	mux.HandleFunc(HealthPath, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})
	return mux
}
