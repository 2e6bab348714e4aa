// Package metrics exposes Prometheus instrumentation for scrape runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the collectors on a private registry so tests can
// construct isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	FetchAttempts prometheus.Counter
	FetchRetries  prometheus.Counter
	FetchFailures prometheus.Counter
	FetchDuration prometheus.Histogram

	DepartmentsScraped prometheus.Counter
	DepartmentsSkipped prometheus.Counter
	DepartmentsFailed  prometheus.Counter
	CoursesExtracted   prometheus.Counter
}

// New creates a Metrics set backed by a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		FetchAttempts: factory.NewCounter(prometheus.CounterOpts{
			Name: "mivascraper_fetch_attempts_total",
			Help: "HTTP fetch attempts, including retries.",
		}),
		FetchRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "mivascraper_fetch_retries_total",
			Help: "Fetch attempts that were retried after a transient failure.",
		}),
		FetchFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "mivascraper_fetch_failures_total",
			Help: "Fetches that exhausted their retry budget.",
		}),
		FetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mivascraper_fetch_duration_seconds",
			Help:    "Duration of successful fetches.",
			Buckets: prometheus.DefBuckets,
		}),
		DepartmentsScraped: factory.NewCounter(prometheus.CounterOpts{
			Name: "mivascraper_departments_scraped_total",
			Help: "Departments whose courses were merged into the catalog.",
		}),
		DepartmentsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "mivascraper_departments_skipped_total",
			Help: "Departments omitted because no courses were found.",
		}),
		DepartmentsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "mivascraper_departments_failed_total",
			Help: "Departments omitted because their page could not be fetched.",
		}),
		CoursesExtracted: factory.NewCounter(prometheus.CounterOpts{
			Name: "mivascraper_courses_extracted_total",
			Help: "Courses extracted across all departments.",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for test assertions.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
