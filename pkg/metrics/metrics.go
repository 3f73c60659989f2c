// Package metrics exposes planner counters for Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the planner's collectors on their own registry.
type Metrics struct {
	Registry *prometheus.Registry

	Merges     *prometheus.CounterVec
	Persists   prometheus.Counter
	Carryover  prometheus.Counter
	Rebalances prometheus.Counter
	Ambiguous  prometheus.Counter
	Events     *prometheus.GaugeVec
}

// New registers the planner collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Merges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "planner",
			Name:      "merges_total",
			Help:      "Period merges by outcome.",
		}, []string{"outcome"}),
		Persists: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "planner",
			Name:      "persists_total",
			Help:      "Merges whose result differed from storage and was saved.",
		}),
		Carryover: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "planner",
			Name:      "carryover_items_total",
			Help:      "Items carried forward at rollover.",
		}),
		Rebalances: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "planner",
			Name:      "rebalances_total",
			Help:      "Lists renumbered after the sort key space ran out.",
		}),
		Ambiguous: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "planner",
			Name:      "ambiguous_links_total",
			Help:      "Items linked to both a calendar event and a template event.",
		}),
		Events: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "planner",
			Name:      "period_events",
			Help:      "Events in the last merged list by status.",
		}, []string{"status"}),
	}
	m.Registry.MustRegister(m.Merges, m.Persists, m.Carryover, m.Rebalances, m.Ambiguous, m.Events)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
