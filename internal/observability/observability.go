// Package observability provides Prometheus metrics for the application.
package observability

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tkivisto/wallshift/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry  *prometheus.Registry
	Selection *metrics.SelectionMetrics
	Indexer   *metrics.IndexerMetrics
	Extractor *metrics.ExtractorMetrics
	Datastore *metrics.DatastoreMetrics
	SunCalc   *metrics.SunCalcMetrics
}

// NewMetrics creates a new instance of Metrics, initializing all collectors.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	selectionMetrics, err := metrics.NewSelectionMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create selection metrics: %w", err)
	}

	indexerMetrics, err := metrics.NewIndexerMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create indexer metrics: %w", err)
	}

	extractorMetrics, err := metrics.NewExtractorMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor metrics: %w", err)
	}

	datastoreMetrics, err := metrics.NewDatastoreMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create datastore metrics: %w", err)
	}

	sunCalcMetrics, err := metrics.NewSunCalcMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create suncalc metrics: %w", err)
	}

	return &Metrics{
		registry:  registry,
		Selection: selectionMetrics,
		Indexer:   indexerMetrics,
		Extractor: extractorMetrics,
		Datastore: datastoreMetrics,
		SunCalc:   sunCalcMetrics,
	}, nil
}

// RegisterHandlers registers the metrics endpoint with the provided mux.
func (m *Metrics) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/metrics", m.metricsHandler)
}

// Serve starts a blocking HTTP server exposing /metrics on addr.
func (m *Metrics) Serve(addr string) error {
	mux := http.NewServeMux()
	m.RegisterHandlers(mux)
	return http.ListenAndServe(addr, mux)
}

func (m *Metrics) metricsHandler(w http.ResponseWriter, r *http.Request) {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      log.New(os.Stderr, "metrics handler: ", log.LstdFlags),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
	h.ServeHTTP(w, r)
}
