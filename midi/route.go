package midi

import (
	"sync"
	"sync/atomic"

	"github.com/shaban/audioengine/audioerr"
)

// Route connects one Source to one or more Destinations through an
// ordered processor chain. The chain is guarded by an RWMutex and
// snapshot-enumerated on each message, the same copy-on-write discipline
// as modifier.Chain and graph.Mixer, so adding/removing a processor from
// the control thread never blocks message delivery. SysEx messages
// bypass the processor chain entirely and are sent to every destination;
// the route does not distinguish physical outputs from other destinations.
type Route struct {
	Name string

	mu         sync.RWMutex
	processors []Processor
	destinations []Destination

	faulted atomic.Bool

	stopSource func()

	onError func(err error)
}

// NewRoute creates a Route with the given name. faultLimit is accepted for
// API compatibility but ignored: a route faults on its destination's first
// send failure, not after a run of consecutive failures.
func NewRoute(name string, faultLimit int32) *Route {
	return &Route{Name: name}
}

// OnRouteError registers a callback fired whenever a destination send
// fails, and again (once) when the route becomes faulted.
func (r *Route) OnRouteError(fn func(err error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onError = fn
}

// AddProcessor appends a processor to the end of the chain.
func (r *Route) AddProcessor(p Processor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := make([]Processor, len(r.processors)+1)
	copy(next, r.processors)
	next[len(r.processors)] = p
	r.processors = next
}

// RemoveProcessor removes the first processor with the given name.
func (r *Route) RemoveProcessor(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.processors {
		if p.Name() == name {
			next := make([]Processor, len(r.processors)-1)
			copy(next, r.processors[:i])
			copy(next[i:], r.processors[i+1:])
			r.processors = next
			return true
		}
	}
	return false
}

// AddDestination attaches a destination.
func (r *Route) AddDestination(d Destination) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := make([]Destination, len(r.destinations)+1)
	copy(next, r.destinations)
	next[len(r.destinations)] = d
	r.destinations = next
}

func (r *Route) snapshot() ([]Processor, []Destination, func(error)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.processors, r.destinations, r.onError
}

// Faulted reports whether the route has stopped delivering after a
// destination send failed.
func (r *Route) Faulted() bool { return r.faulted.Load() }

// Reset clears the faulted state, allowing delivery to resume.
func (r *Route) Reset() {
	r.faulted.Store(false)
}

// Deliver runs m through the processor chain (unless it is SysEx, which
// bypasses the chain) and sends the result(s) to every destination. A
// faulted route drops messages silently until Reset.
func (r *Route) Deliver(m Message) {
	if r.faulted.Load() {
		return
	}

	processors, destinations, onError := r.snapshot()

	outs := []Message{m}
	if !m.IsSysEx() {
		outs = r.runChain(processors, m)
	}

	for _, out := range outs {
		for _, d := range destinations {
			if err := d.Send(out); err != nil {
				r.recordFailure(err, onError)
			}
		}
	}
}

// ApplyProcessors runs m through an ordered processor chain outside the
// context of a Route — used by timeline.MidiSegment to apply a track's
// MIDI modifier chain to scheduled events.
func ApplyProcessors(processors []Processor, m Message) []Message {
	return (&Route{}).runChain(processors, m)
}

func (r *Route) runChain(processors []Processor, m Message) []Message {
	pending := []Message{m}
	for _, p := range processors {
		var next []Message
		for _, msg := range pending {
			out, keep := p.Process(msg)
			if keep {
				next = append(next, out)
			}
			if exp, ok := p.(Expander); ok {
				next = append(next, exp.Expand(msg)...)
			}
		}
		pending = next
		if len(pending) == 0 {
			break
		}
	}
	return pending
}

// recordFailure faults the route on its destination's first send failure:
// any failure marks the route dead for every subsequent message until
// Reset.
func (r *Route) recordFailure(err error, onError func(error)) {
	if onError != nil {
		onError(err)
	}
	if r.faulted.CompareAndSwap(false, true) {
		if onError != nil {
			onError(audioerr.Wrap(audioerr.KindRouteFaulted, err, "route %q: destination send failed", r.Name))
		}
	}
}

// Connect starts listening on src and delivers every message through
// this route.
func (r *Route) Connect(src Source) error {
	stop, err := src.Listen(r.Deliver)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.stopSource = stop
	r.mu.Unlock()
	return nil
}

// Disconnect stops the route's source listener, if any.
func (r *Route) Disconnect() {
	r.mu.Lock()
	stop := r.stopSource
	r.stopSource = nil
	r.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// Router owns a named set of Routes, giving a host a single place to
// connect, look up, and disconnect routes by name.
type Router struct {
	mu     sync.RWMutex
	routes map[string]*Route
}

// NewRouter creates an empty Router.
func NewRouter() *Router { return &Router{routes: make(map[string]*Route)} }

// AddRoute registers a route under its Name.
func (rt *Router) AddRoute(r *Route) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.routes[r.Name] = r
}

// Route looks up a route by name.
func (rt *Router) Route(name string) (*Route, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	r, ok := rt.routes[name]
	return r, ok
}

// RemoveRoute disconnects and removes a route by name.
func (rt *Router) RemoveRoute(name string) {
	rt.mu.Lock()
	r, ok := rt.routes[name]
	delete(rt.routes, name)
	rt.mu.Unlock()
	if ok {
		r.Disconnect()
	}
}
