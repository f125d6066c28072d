// Package metrics bundles the Prometheus collectors and the HTTP status
// surface exposed in daemon mode.
package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/netopsctl/nbsync/domain/entities"
)

// Collector bundles the Prometheus metrics for sync runs, inventory API
// traffic and received traps.
type Collector struct {
	gatherer prometheus.Gatherer

	SyncRuns          *prometheus.CounterVec
	InterfacesPatched *prometheus.CounterVec
	InventoryRequests *prometheus.CounterVec
	InventoryLatency  prometheus.Histogram
	TrapsReceived     prometheus.Counter
}

// NewCollector registers the nbsync metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	collector := &Collector{
		gatherer: gatherer,
		SyncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nbsync_runs_total",
			Help: "Total number of sync runs, labeled by device and outcome.",
		}, []string{"device", "outcome"}),
		InterfacesPatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nbsync_interfaces_patched_total",
			Help: "Total number of interface patches pushed to the inventory.",
		}, []string{"device"}),
		InventoryRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nbsync_inventory_requests_total",
			Help: "Inventory API requests, labeled by HTTP method and status code.",
		}, []string{"method", "code"}),
		InventoryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "nbsync_inventory_request_duration_seconds",
			Help:    "Inventory API request latency in seconds.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		TrapsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nbsync_traps_received_total",
			Help: "SNMP traps received from registered devices.",
		}),
	}

	for _, metric := range []prometheus.Collector{
		collector.SyncRuns,
		collector.InterfacesPatched,
		collector.InventoryRequests,
		collector.InventoryLatency,
		collector.TrapsReceived,
	} {
		if err := register(reg, metric); err != nil {
			return nil, err
		}
	}
	return collector, nil
}

func register(reg prometheus.Registerer, metric prometheus.Collector) error {
	err := reg.Register(metric)
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		return nil
	}
	return err
}

// ObserveRequest records one inventory API request.
func (c *Collector) ObserveRequest(method string, status int, duration time.Duration) {
	c.InventoryRequests.WithLabelValues(method, statusLabel(status)).Inc()
	c.InventoryLatency.Observe(duration.Seconds())
}

// ObserveReport records the outcome of one sync run.
func (c *Collector) ObserveReport(report entities.SyncReport) {
	outcome := "clean"
	switch {
	case report.Error != "":
		outcome = "error"
	case report.Applied:
		outcome = "applied"
	case report.PatchesPlanned > 0:
		outcome = "sandbox"
	}
	c.SyncRuns.WithLabelValues(report.Device, outcome).Inc()
	if report.Applied {
		c.InterfacesPatched.WithLabelValues(report.Device).Add(float64(report.PatchesPlanned))
	}
}

// Handler returns the /metrics HTTP handler for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

func statusLabel(status int) string {
	if status == 0 {
		return "error"
	}
	return fmt.Sprintf("%dxx", status/100)
}
