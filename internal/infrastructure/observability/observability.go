// Package observability assembles the telemetry bundle the bookmarket
// services receive: the otel tracer, the zap-backed logger and the
// Prometheus instruments built by prometrics.Instruments.
package observability

import (
	"maps"

	"github.com/Zhima-Mochi/bookmarket/internal/observability"
)

// Provider is the observability.Observability wired in main.
type Provider struct {
	tracer  observability.Tracer
	logger  observability.Logger
	metrics instruments
}

var _ observability.Observability = (*Provider)(nil)

// instruments serves registered counters and histograms by key. Keys with no
// registered instrument get a no-op, so services never nil-check.
type instruments struct {
	counters   map[observability.MetricKey]observability.Counter
	histograms map[observability.MetricKey]observability.Histogram
}

func (in instruments) Counter(name observability.MetricKey) observability.Counter {
	if c := in.counters[name]; c != nil {
		return c
	}
	return observability.NopCounter()
}

func (in instruments) Histogram(name observability.MetricKey) observability.Histogram {
	if h := in.histograms[name]; h != nil {
		return h
	}
	return observability.NopHistogram()
}

// New copies the instrument maps; nil tracer or logger fall back to no-ops.
func New(
	tracer observability.Tracer,
	logger observability.Logger,
	counters map[observability.MetricKey]observability.Counter,
	histograms map[observability.MetricKey]observability.Histogram,
) *Provider {
	if tracer == nil {
		tracer = observability.NopTracer()
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Provider{
		tracer: tracer,
		logger: logger,
		metrics: instruments{
			counters:   maps.Clone(counters),
			histograms: maps.Clone(histograms),
		},
	}
}

func (p *Provider) Tracer() observability.Tracer   { return p.tracer }
func (p *Provider) Logger() observability.Logger   { return p.logger }
func (p *Provider) Metrics() observability.Metrics { return p.metrics }
