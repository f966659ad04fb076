package observability

import (
	"testing"

	"github.com/Zhima-Mochi/bookmarket/internal/observability"
)

type countingCounter struct{ total float64 }

func (c *countingCounter) Add(d float64, _ ...observability.Label) { c.total += d }

func TestProviderServesRegisteredInstruments(t *testing.T) {
	requests := &countingCounter{}
	counters := map[observability.MetricKey]observability.Counter{
		observability.MUsecaseRequests: requests,
	}
	p := New(nil, nil, counters, nil)

	// later changes to the caller's map do not leak in
	delete(counters, observability.MUsecaseRequests)

	p.Metrics().Counter(observability.MUsecaseRequests).Add(2, observability.L("use_case", "payment.confirm"))
	if requests.total != 2 {
		t.Fatalf("registered counter total = %v, want 2", requests.total)
	}

	// unregistered keys and nil backends degrade to no-ops
	p.Metrics().Counter(observability.MStockDecrements).Add(1)
	p.Metrics().Histogram(observability.MUsecaseDuration).Observe(0.5)
	p.Logger().Info("use_case_done")
	if p.Tracer() == nil {
		t.Fatal("tracer must never be nil")
	}
}
