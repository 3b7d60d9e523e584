// Package network provides an in-process publish/subscribe fabric that moves
// messages between node connections on a timed tick, modeling a network with
// uniform latency.
package network

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ardanlabs/blocksim/foundation/metrics"
	"github.com/ardanlabs/blocksim/foundation/validate"
	"github.com/google/uuid"
)

// DefaultCapacity is the size of each connection queue when none is configured.
const DefaultCapacity = 32

// EventHandler defines a function that is called when events occur in the
// processing of the fabric.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to construct a fabric.
type Config struct {
	Capacity  int `validate:"gte=1,lte=65536"`
	EvHandler EventHandler
}

// endpoint is the fabric side of a connection. The fabric only sends on
// inbound and only receives on outbound.
type endpoint struct {
	id       uuid.UUID
	inbound  chan Message
	outbound chan Message
	dead     bool
}

// Fabric maintains the registry of connections and delivers messages between
// them. A full or closed peer queue gets the peer deregistered, senders are
// never told about delivery failures.
type Fabric struct {
	mu        sync.Mutex
	capacity  int
	evHandler EventHandler
	endpoints []*endpoint
	metrics   *metrics.Fabric
}

// New constructs a fabric with no connections.
func New(cfg Config) (*Fabric, error) {
	if cfg.Capacity == 0 {
		cfg.Capacity = DefaultCapacity
	}

	if err := validate.Check(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	f := Fabric{
		capacity:  cfg.Capacity,
		evHandler: ev,
		metrics:   metrics.NewFabric(),
	}

	return &f, nil
}

// Connect registers a new connection under a freshly generated id and returns
// the node facing handle.
func (f *Fabric) Connect() *Conn {
	ep := endpoint{
		id:       uuid.New(),
		inbound:  make(chan Message, f.capacity),
		outbound: make(chan Message, f.capacity),
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.endpoints = append(f.endpoints, &ep)
	f.metrics.ObserveConnections(len(f.endpoints))

	f.evHandler("network: Connect: registered conn[%s]: conns[%d]", ep.id, len(f.endpoints))

	return &Conn{
		id:       ep.id,
		inbound:  ep.inbound,
		outbound: ep.outbound,
	}
}

// Connections returns the ids of the registered connections in the order
// they connected.
func (f *Fabric) Connections() []uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]uuid.UUID, len(f.endpoints))
	for i, ep := range f.endpoints {
		ids[i] = ep.id
	}

	return ids
}

// Tick performs one delivery cycle. Every connection with a pending outbound
// message has that one message copied to every other connection's inbound
// queue. Connections found closed or full are deregistered afterwards.
func (f *Fabric) Tick() {
	started := time.Now()

	f.mu.Lock()
	defer f.mu.Unlock()

	var delivered, dropped int

	for _, src := range f.endpoints {
		if src.dead {
			continue
		}

		var msg Message
		select {
		case m, ok := <-src.outbound:
			if !ok {
				f.evHandler("network: Tick: conn[%s]: closed by node", src.id)
				src.dead = true
				continue
			}
			msg = m
		default:
			continue
		}

		for _, dst := range f.endpoints {
			if dst == src || dst.dead {
				continue
			}

			select {
			case dst.inbound <- msg:
				delivered++
			default:
				f.evHandler("network: Tick: WARNING: conn[%s]: inbound full, dropping peer", dst.id)
				dst.dead = true
				dropped++
			}
		}
	}

	f.removeDead()

	f.metrics.ObserveTick(delivered, dropped, started)
	f.metrics.ObserveConnections(len(f.endpoints))
}

// Run ticks the fabric every latency interval until the context is cancelled.
// All connections are deregistered when Run returns.
func (f *Fabric) Run(ctx context.Context, latency time.Duration) error {
	f.evHandler("network: Run: G started: latency[%v]", latency)
	defer f.evHandler("network: Run: G completed")

	ticker := time.NewTicker(latency)
	defer ticker.Stop()

	defer f.Shutdown()

	for {
		select {
		case <-ticker.C:
			f.Tick()
		case <-ctx.Done():
			f.evHandler("network: Run: received shut signal")
			return nil
		}
	}
}

// Shutdown deregisters every connection and closes their inbound queues.
func (f *Fabric) Shutdown() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, ep := range f.endpoints {
		ep.dead = true
	}
	f.removeDead()

	f.metrics.ObserveConnections(0)
}

// removeDead deregisters dead endpoints. The fabric is the only sender on an
// inbound queue so closing it here is safe. Must be called with the lock held.
func (f *Fabric) removeDead() {
	live := f.endpoints[:0]
	for _, ep := range f.endpoints {
		if ep.dead {
			f.evHandler("network: deregister conn[%s]", ep.id)
			close(ep.inbound)
			continue
		}
		live = append(live, ep)
	}

	for i := len(live); i < len(f.endpoints); i++ {
		f.endpoints[i] = nil
	}
	f.endpoints = live
}
