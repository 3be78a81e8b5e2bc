package server

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/coolyuoo/memstress/internal/pool"
)

// metrics exports pool state for scraping alongside the pressure the tool
// generates, so dashboards under test can be checked against what was asked for.
type metrics struct {
	allocatedMB prometheus.Gauge
	groups      prometheus.Gauge
	operations  *prometheus.CounterVec
}

func newMetrics(reg *prometheus.Registry) *metrics {
	m := &metrics{
		allocatedMB: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "memstress_allocated_mb",
			Help: "Total mebibytes currently held by the allocation pool.",
		}),
		groups: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "memstress_groups",
			Help: "Number of allocation groups currently held.",
		}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "memstress_operations_total",
			Help: "Pool operations served, by operation and outcome.",
		}, []string{"op", "outcome"}),
	}
	reg.MustRegister(m.allocatedMB, m.groups, m.operations)
	return m
}

func (m *metrics) observe(stats pool.Stats) {
	m.allocatedMB.Set(float64(stats.AllocatedMB))
	m.groups.Set(float64(stats.Groups))
}

func (m *metrics) operation(op, outcome string) {
	m.operations.WithLabelValues(op, outcome).Inc()
}
