// Package metrics maintains the prometheus collectors for the simulation.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "blocksim"

var (
	nodeBlocksMinedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "node",
		Name:      "blocks_mined_total",
		Help:      "Count of blocks mined by a node.",
	}, []string{"node"})

	nodeBlocksAddedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "node",
		Name:      "blocks_added_total",
		Help:      "Count of blocks run through a node's chain view by source and outcome.",
	}, []string{"node", "source", "status", "reason"})

	nodeHeadHeight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "node",
		Name:      "head_height",
		Help:      "Height of the head of a node's best chain.",
	}, []string{"node"})

	fabricDeliveriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "fabric",
		Name:      "deliveries_total",
		Help:      "Count of messages delivered to an inbound queue.",
	})

	fabricDropsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "fabric",
		Name:      "drops_total",
		Help:      "Count of deliveries dropped because a peer queue was full.",
	})

	fabricTickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "fabric",
		Name:      "tick_duration_seconds",
		Help:      "Duration of a fabric delivery cycle.",
		Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
	})

	fabricConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "fabric",
		Name:      "connections",
		Help:      "Number of connections registered with the fabric.",
	})

	webRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "web",
		Name:      "requests_total",
		Help:      "Count of api requests by status code.",
	}, []string{"code"})

	webPanicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "web",
		Name:      "panics_total",
		Help:      "Count of api handlers that panicked.",
	})
)

// =============================================================================

// Node tracks metrics for a single node.
type Node struct {
	id string
}

// NewNode constructs a Node for the specified node id.
func NewNode(id string) *Node {
	if id == "" {
		id = "unknown"
	}
	return &Node{id: id}
}

// ObserveMined records a block solved by the node.
func (m Node) ObserveMined() {
	nodeBlocksMinedTotal.WithLabelValues(m.id).Inc()
}

// ObserveAdd records the outcome of adding a block. The source is either
// local or peer and reason is empty when the block was accepted.
func (m Node) ObserveAdd(source string, reason string) {
	status := "accepted"
	if reason != "" {
		status = "rejected"
	} else {
		reason = "none"
	}
	nodeBlocksAddedTotal.WithLabelValues(m.id, source, status, reason).Inc()
}

// ObserveHead records the height of the node's head.
func (m Node) ObserveHead(height uint64) {
	nodeHeadHeight.WithLabelValues(m.id).Set(float64(height))
}

// =============================================================================

// Fabric tracks metrics for the network fabric.
type Fabric struct{}

// NewFabric constructs a Fabric.
func NewFabric() *Fabric {
	return &Fabric{}
}

// ObserveTick records the outcome and duration of a delivery cycle.
func (m *Fabric) ObserveTick(delivered int, dropped int, started time.Time) {
	fabricDeliveriesTotal.Add(float64(delivered))
	fabricDropsTotal.Add(float64(dropped))
	fabricTickDuration.Observe(time.Since(started).Seconds())
}

// ObserveConnections records the number of registered connections.
func (m *Fabric) ObserveConnections(n int) {
	fabricConnections.Set(float64(n))
}

// =============================================================================

// ObserveRequest records a completed api request.
func ObserveRequest(statusCode int) {
	webRequestsTotal.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// ObservePanic records an api handler that panicked.
func ObservePanic() {
	webPanicsTotal.Inc()
}
