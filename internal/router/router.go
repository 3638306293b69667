package router

import (
	"log/slog"
	"sync"
)

// Handler processes one event payload. The full envelope is passed alongside
// for handlers that need metadata.
type Handler func(p Payload, env Envelope)

// Table maps event kinds to handlers. At most one handler fires per envelope.
type Table map[Kind]Handler

// Dispatcher routes envelopes to table handlers with per-dispatch isolation:
// a panicking handler is recovered and counted, never propagated to the
// session loop.
type Dispatcher struct {
	logger *slog.Logger

	mu         sync.RWMutex
	dispatched int64
	unknown    int64
	panics     int64
	byKind     map[Kind]int64
}

// DispatcherStats contains runtime dispatch counters.
type DispatcherStats struct {
	Dispatched int64
	Unknown    int64
	Panics     int64
	ByKind     map[Kind]int64
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		logger: logger,
		byKind: make(map[Kind]int64),
	}
}

// Dispatch routes one envelope through the table. Unknown kinds are logged
// and counted but never an error; handler panics are contained here.
func (d *Dispatcher) Dispatch(env Envelope, table Table) {
	h, ok := table[env.Kind()]
	if !ok {
		d.mu.Lock()
		d.unknown++
		d.mu.Unlock()
		d.logger.Warn("no handler for event kind", "kind", env.EventType, "id", env.ID)
		return
	}

	d.invoke(h, env)
}

// invoke runs the handler inside a recover barrier.
func (d *Dispatcher) invoke(h Handler, env Envelope) {
	defer func() {
		if r := recover(); r != nil {
			d.mu.Lock()
			d.panics++
			d.mu.Unlock()
			d.logger.Error("handler panicked", "kind", env.EventType, "id", env.ID, "panic", r)
		}
	}()

	h(env.Payload, env)

	d.mu.Lock()
	d.dispatched++
	d.byKind[env.Kind()]++
	d.mu.Unlock()
}

// Stats returns a snapshot of dispatch counters.
func (d *Dispatcher) Stats() DispatcherStats {
	d.mu.RLock()
	defer d.mu.RUnlock()

	byKind := make(map[Kind]int64, len(d.byKind))
	for k, v := range d.byKind {
		byKind[k] = v
	}
	return DispatcherStats{
		Dispatched: d.dispatched,
		Unknown:    d.unknown,
		Panics:     d.panics,
		ByKind:     byKind,
	}
}
