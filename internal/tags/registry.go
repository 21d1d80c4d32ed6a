// Package tags implements the in-memory object/attribute registry the
// service processor reads and writes: named, typed tags addressable by
// symbolic EPATH segment or by the Symbol Object's class/instance/attribute
// triple.
package tags

import (
	"fmt"
	"sync"
	"time"

	"github.com/cipdip/enipsim/internal/cip"
)

// SymbolObjectClass is the class ID the Symbol Object uses in logical
// addressing; Resolve maps class/instance lookups against it back onto
// the same tag set symbolic addressing uses.
const SymbolObjectClass = 0x6B

// Event is one entry of an attribute's bounded access log.
type Event struct {
	Time    time.Time
	Message string
}

// Attribute is a single named tag: its CIP element type, its value buffer,
// an optional pre-armed error status, and a bounded event log.
type Attribute struct {
	Name     string
	Type     cip.DataType
	Instance uint32

	mu     sync.Mutex
	values []int64
	errCode byte

	eventsMu sync.Mutex
	events   []Event
	maxEvents int
}

// Len returns the number of elements in the attribute's buffer.
func (a *Attribute) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.values)
}

// ErrorCode returns the attribute's currently pre-armed CIP status, 0 if
// none.
func (a *Attribute) ErrorCode() byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.errCode
}

// SetErrorCode pre-arms a CIP status to be returned, verbatim, on every
// subsequent access until cleared (set to 0).
func (a *Attribute) SetErrorCode(status byte) {
	a.mu.Lock()
	a.errCode = status
	a.mu.Unlock()
}

// Read returns up to n elements starting at index, fewer when the buffer
// ends first (none, with success, when index == Len()). An index beyond
// Len() yields StatusPathDestUnknown. If the attribute has a pre-armed
// error it is returned instead and the read never touches the buffer.
func (a *Attribute) Read(index, n int) ([]int64, byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.errCode != 0 {
		return nil, a.errCode
	}
	if index > len(a.values) {
		return nil, cip.StatusPathDestUnknown
	}
	end := index + n
	if end > len(a.values) {
		end = len(a.values)
	}
	out := append([]int64(nil), a.values[index:end]...)
	return out, cip.StatusSuccess
}

// Write stores vals starting at index. Writing past the end of the buffer
// is rejected with StatusTooMuchData; the service processor is responsible
// for checking the declared element count against len(vals) and returning
// StatusNotEnoughData for a short body before calling Write.
func (a *Attribute) Write(index int, vals []int64) byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.errCode != 0 {
		return a.errCode
	}
	if index < 0 || index+len(vals) > len(a.values) {
		return cip.StatusTooMuchData
	}
	copy(a.values[index:], vals)
	return cip.StatusSuccess
}

func (a *Attribute) logEvent(message string) {
	a.eventsMu.Lock()
	defer a.eventsMu.Unlock()
	a.events = append(a.events, Event{Time: eventTime(), Message: message})
	if len(a.events) > a.maxEvents {
		a.events = a.events[len(a.events)-a.maxEvents:]
	}
}

// Events returns a copy of the attribute's bounded event log, oldest first.
func (a *Attribute) Events() []Event {
	a.eventsMu.Lock()
	defer a.eventsMu.Unlock()
	return append([]Event(nil), a.events...)
}

var eventTime = time.Now

// defaultMaxEvents bounds the per-attribute access log.
const defaultMaxEvents = 64

// Registry is the process-lifetime tag table, created once at startup from
// the CLI/config tag spec and thereafter mutated by the service processor
// and the control plane.
type Registry struct {
	mu    sync.RWMutex
	byName map[string]*Attribute
	byInst map[uint32]*Attribute
	nextInstance uint32
}

// NewRegistry returns an empty tag registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Attribute),
		byInst: make(map[uint32]*Attribute),
		nextInstance: 1,
	}
}

// Create registers a new tag. It is a startup-only operation; a duplicate
// name is a fatal configuration error, reported here as a plain error so
// the caller can abort cleanly.
func (r *Registry) Create(name string, t cip.DataType, size int, defaultValue int64) (*Attribute, error) {
	if size < 1 {
		size = 1
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[name]; exists {
		return nil, fmt.Errorf("tags: duplicate tag name %q", name)
	}
	values := make([]int64, size)
	for i := range values {
		values[i] = defaultValue
	}
	attr := &Attribute{
		Name:      name,
		Type:      t,
		Instance:  r.nextInstance,
		values:    values,
		maxEvents: defaultMaxEvents,
	}
	r.nextInstance++
	r.byName[name] = attr
	r.byInst[attr.Instance] = attr
	return attr, nil
}

// ByName looks up a tag by its symbolic name.
func (r *Registry) ByName(name string) (*Attribute, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byName[name]
	return a, ok
}

// All returns every registered attribute, for enumeration by the control
// plane and CLI.
func (r *Registry) All() []*Attribute {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Attribute, 0, len(r.byName))
	for _, a := range r.byName {
		out = append(out, a)
	}
	return out
}

// Resolve addresses a tag via a decoded EPATH: symbolic segments resolve by
// name; a Symbol Object class/instance pair resolves by instance number.
// Unknown addressing yields StatusPathSegmentError (not a registry match).
func (r *Registry) Resolve(path cip.Path) (*Attribute, byte) {
	if name, ok := path.SymbolicName(); ok {
		attr, found := r.ByName(name)
		if !found {
			return nil, cip.StatusPathSegmentError
		}
		attr.logEvent(fmt.Sprintf("resolved by name %q", name))
		return attr, cip.StatusSuccess
	}

	var class, instance uint32
	var haveClass, haveInstance bool
	for _, seg := range path {
		switch seg.Kind {
		case cip.SegClass:
			class, haveClass = seg.Number, true
		case cip.SegInstance:
			instance, haveInstance = seg.Number, true
		}
	}
	if !haveClass || !haveInstance || class != SymbolObjectClass {
		return nil, cip.StatusPathSegmentError
	}

	r.mu.RLock()
	attr, found := r.byInst[instance]
	r.mu.RUnlock()
	if !found {
		return nil, cip.StatusPathSegmentError
	}
	attr.logEvent(fmt.Sprintf("resolved by instance %d", instance))
	return attr, cip.StatusSuccess
}

// InjectError pre-arms a CIP status on the named tag. Returns false if the
// tag does not exist.
func (r *Registry) InjectError(name string, status byte) bool {
	attr, ok := r.ByName(name)
	if !ok {
		return false
	}
	attr.SetErrorCode(status)
	return true
}
