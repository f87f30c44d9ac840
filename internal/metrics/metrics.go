// Package metrics exposes Prometheus collectors for editor activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	ParamUpdates   *prometheus.CounterVec
	WidgetsSkipped *prometheus.CounterVec
	UnknownTypes   *prometheus.CounterVec
	NodesPlaced    *prometheus.CounterVec
	NodesDeleted   prometheus.Counter
	OptionReloads  prometheus.Counter
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ParamUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nodeforge_param_updates_total",
			Help: "Committed parameter edits by node type.",
		}, []string{"node_type"}),
		WidgetsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nodeforge_widgets_skipped_total",
			Help: "Parameters not rendered because their type has no widget.",
		}, []string{"node_type", "param_type"}),
		UnknownTypes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nodeforge_unknown_node_types_total",
			Help: "Renders of nodes whose type is missing from the catalog.",
		}, []string{"node_type"}),
		NodesPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nodeforge_nodes_placed_total",
			Help: "Nodes placed by node type.",
		}, []string{"node_type"}),
		NodesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nodeforge_nodes_deleted_total",
			Help: "Nodes removed through the toolbar.",
		}),
		OptionReloads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nodeforge_option_reloads_total",
			Help: "Option snapshots replaced after the source file changed.",
		}),
	}
	m.registry.MustRegister(
		m.ParamUpdates,
		m.WidgetsSkipped,
		m.UnknownTypes,
		m.NodesPlaced,
		m.NodesDeleted,
		m.OptionReloads,
		collectors.NewGoCollector(),
	)
	return m
}

// WidgetSkipped records a parameter dropped from a render. Its signature
// matches widget.SkipHook.
func (m *Metrics) WidgetSkipped(nodeType, tag string) {
	m.WidgetsSkipped.WithLabelValues(nodeType, tag).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
