package sim

import (
	"time"

	"go.uber.org/atomic"
)

// probe watches one facet of a node. It sits outside the network mutex so
// two callers racing on the same facet are caught instead of serialized.
type probe struct {
	name  string
	net   *Network
	delay time.Duration

	busy     *atomic.Bool
	killed   *atomic.Bool
	overlaps *atomic.Int64
	calls    *atomic.Int64
}

func newProbe(net *Network, name string) *probe {
	return &probe{
		name:     name,
		net:      net,
		delay:    net.cfg.OperationDelay,
		busy:     atomic.NewBool(false),
		killed:   atomic.NewBool(false),
		overlaps: atomic.NewInt64(0),
		calls:    atomic.NewInt64(0),
	}
}

// enter marks the facet busy for op and returns the matching exit.
func (p *probe) enter(op string) func() {
	p.calls.Inc()
	if p.killed.Load() {
		p.net.violate("%s: %s after kill", p.name, op)
	}
	if !p.busy.CompareAndSwap(false, true) {
		p.overlaps.Inc()
		p.net.violate("%s: %s overlapped another operation", p.name, op)
		return func() {}
	}
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	return func() { p.busy.Store(false) }
}
