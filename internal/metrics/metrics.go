// Package metrics records run outcomes on a dedicated Prometheus registry and
// pushes them to a Pushgateway when a one-shot run completes.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/JakeFAU/crawler-notifier/internal/crawler"
)

// Collectors groups the crawler collectors and the registry they live on.
type Collectors struct {
	registry *prometheus.Registry

	runsTotal    *prometheus.CounterVec
	targetsTotal *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	storeErrors  *prometheus.CounterVec
	lastSuccess  *prometheus.GaugeVec
}

// New registers the crawler collectors on a fresh registry.
func New() *Collectors {
	c := &Collectors{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_runs_total",
				Help: "Total number of job runs, labeled by job and status.",
			},
			[]string{"job_name", "status"},
		),
		targetsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_targets_total",
				Help: "Total number of processed targets, labeled by job and outcome.",
			},
			[]string{"job_name", "outcome"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crawler_run_duration_seconds",
				Help:    "Histogram of job run durations.",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"job_name"},
		),
		storeErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_suppression_store_errors_total",
				Help: "Suppression store failures that were ignored during a run.",
			},
			[]string{"job_name"},
		),
		lastSuccess: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "crawler_last_success_timestamp_seconds",
				Help: "Unix time of the last successful run.",
			},
			[]string{"job_name"},
		),
	}
	c.registry.MustRegister(c.runsTotal, c.targetsTotal, c.runDuration, c.storeErrors, c.lastSuccess)
	return c
}

// ObserveRun records one finished run.
func (c *Collectors) ObserveRun(result crawler.RunResult) {
	job := result.Job
	c.runsTotal.WithLabelValues(job, string(result.Status)).Inc()
	for _, t := range result.Targets {
		c.targetsTotal.WithLabelValues(job, string(t.Outcome)).Inc()
	}
	if !result.Finished.IsZero() && !result.Started.IsZero() {
		c.runDuration.WithLabelValues(job).Observe(result.Finished.Sub(result.Started).Seconds())
	}
	if result.Counters.StoreErrors > 0 {
		c.storeErrors.WithLabelValues(job).Add(float64(result.Counters.StoreErrors))
	}
	if result.Status == crawler.JobStatusSucceeded {
		finished := result.Finished
		if finished.IsZero() {
			finished = time.Now()
		}
		c.lastSuccess.WithLabelValues(job).Set(float64(finished.Unix()))
	}
}

// Push sends the registry to the Pushgateway at url, grouped by job. Collectors
// use job_name because the gateway reserves the job label.
func (c *Collectors) Push(ctx context.Context, url, job string) error {
	pusher := push.New(url, "crawler_notifier").
		Gatherer(c.registry).
		Grouping("crawler_job", job)
	if err := pusher.AddContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
