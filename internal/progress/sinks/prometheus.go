package sinks

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/oakline/sitetruth/internal/progress"
)

// PrometheusSink exports run and page metrics. It owns all of its collectors.
type PrometheusSink struct {
	runsStarted   prometheus.Counter
	runsCompleted *prometheus.CounterVec
	runRuntime    *prometheus.HistogramVec

	pages        *prometheus.CounterVec
	pageBytes    *prometheus.CounterVec
	pageDuration *prometheus.HistogramVec
	pagesRender  prometheus.Counter
}

// NewPrometheusSink registers the collectors against the provided registry,
// or the default registry when reg is nil.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sitetruth_runs_started_total",
			Help: "Total extraction runs started.",
		}),
		runsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sitetruth_runs_completed_total",
			Help: "Total extraction runs completed partitioned by result.",
		}, []string{"result"}),
		runRuntime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sitetruth_run_runtime_seconds",
			Help:    "Wall time per completed run.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"result"}),
		pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sitetruth_pages_total",
			Help: "Page completions partitioned by outcome and status class.",
		}, []string{"outcome", "status_class"}),
		pageBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sitetruth_page_bytes_total",
			Help: "Bytes downloaded per domain.",
		}, []string{"domain"}),
		pageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sitetruth_page_duration_seconds",
			Help:    "Page processing duration partitioned by outcome.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}, []string{"outcome"}),
		pagesRender: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sitetruth_pages_rendered_total",
			Help: "Pages that required the headless render fallback.",
		}),
	}
	for _, collector := range []prometheus.Collector{
		s.runsStarted,
		s.runsCompleted,
		s.runRuntime,
		s.pages,
		s.pageBytes,
		s.pageDuration,
		s.pagesRender,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the collectors from a batch.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		switch evt.Stage {
		case progress.StageRunStart:
			s.runsStarted.Inc()
		case progress.StageRunDone:
			s.runsCompleted.WithLabelValues("success").Inc()
			s.runRuntime.WithLabelValues("success").Observe(evt.Dur.Seconds())
		case progress.StageRunError:
			s.runsCompleted.WithLabelValues("error").Inc()
			s.runRuntime.WithLabelValues("error").Observe(evt.Dur.Seconds())
		case progress.StagePageDone, progress.StagePageCache:
			outcome := "fetched"
			if evt.Stage == progress.StagePageCache {
				outcome = "cached"
			}
			s.pages.WithLabelValues(outcome, string(evt.StatusClass)).Inc()
			s.pageBytes.WithLabelValues(evt.Domain).Add(float64(evt.Bytes))
			s.pageDuration.WithLabelValues(outcome).Observe(evt.Dur.Seconds())
			if evt.Rendered {
				s.pagesRender.Inc()
			}
		case progress.StagePageFail:
			s.pages.WithLabelValues("failed", string(evt.StatusClass)).Inc()
			s.pageDuration.WithLabelValues("failed").Observe(evt.Dur.Seconds())
		}
	}
	return nil
}

// Close implements the Sink interface; collectors stay registered.
func (s *PrometheusSink) Close(context.Context) error { return nil }
