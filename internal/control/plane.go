// Package control implements the server's control plane: the three
// live-mutable maps (options, connections, tags) exposed for external
// inspection and fault injection, kept as declared-schema structs rather
// than open-ended dictionaries.
package control

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cipdip/enipsim/internal/tags"
)

// ConnectionStats tracks one accepted TCP connection, keyed by
// "<ip>_<port>" in Plane.connections.
type ConnectionStats struct {
	Interface string
	Port      int
	Requests  uint64
	Received  uint64
	Processed uint64
	eof       atomic.Bool
}

// EOF reports whether the control plane has asked this connection's session
// to terminate.
func (c *ConnectionStats) EOF() bool { return c.eof.Load() }

// SetEOF is the control plane's kill-switch: once set, the owning session
// task exits at its next refill boundary.
func (c *ConnectionStats) SetEOF(v bool) { c.eof.Store(v) }

// Plane bundles the delay knob, the connections map, and the tag registry
// into the single shared context handed to the listener and every session
// task, replacing the source program's global mutable singletons.
type Plane struct {
	Delay *Delay

	mu          sync.RWMutex
	connections map[string]*ConnectionStats

	Tags *tags.Registry
}

// NewPlane returns a Plane wired to the given tag registry, with the delay
// knob fixed at 0 seconds.
func NewPlane(registry *tags.Registry) *Plane {
	return &Plane{
		Delay:       NewDelay(0),
		connections: make(map[string]*ConnectionStats),
		Tags:        registry,
	}
}

// ConnectionKey builds the "<ip>_<port>" key used to index connections,
// with dots replaced by underscores.
func ConnectionKey(ip string, port int) string {
	return fmt.Sprintf("%s_%d", strings.ReplaceAll(ip, ".", "_"), port)
}

// Track registers a new connection's stats entry.
func (p *Plane) Track(key, ip string, port int) *ConnectionStats {
	c := &ConnectionStats{Interface: ip, Port: port}
	p.mu.Lock()
	p.connections[key] = c
	p.mu.Unlock()
	return c
}

// Untrack removes a connection's stats entry when its session ends.
func (p *Plane) Untrack(key string) {
	p.mu.Lock()
	delete(p.connections, key)
	p.mu.Unlock()
}

// Connection looks up a tracked connection's stats by key.
func (p *Plane) Connection(key string) (*ConnectionStats, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.connections[key]
	return c, ok
}

// Connections returns a snapshot of all currently tracked keys and stats.
func (p *Plane) Connections() map[string]*ConnectionStats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]*ConnectionStats, len(p.connections))
	for k, v := range p.connections {
		out[k] = v
	}
	return out
}

// Shutdown sets eof on every tracked connection so each session task exits
// at its next refill boundary.
func (p *Plane) Shutdown() {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, c := range p.connections {
		c.SetEOF(true)
	}
}
