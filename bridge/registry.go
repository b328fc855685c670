package bridge

import (
	"errors"
	"log"
	"sync"
	"time"

	"mobile-bridge/protocol"
)

// ErrDuplicateID is returned when an id is registered while still pending.
var ErrDuplicateID = errors.New("request id already pending")

type pendingCall struct {
	id       string
	deadline time.Time
	settle   func(protocol.Response)
}

// Registry tracks pending calls by request id. An entry leaves the registry
// exactly once, by response or by timeout, whichever comes first.
type Registry struct {
	mu      sync.Mutex
	pending map[string]*pendingCall
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		pending: make(map[string]*pendingCall),
	}
}

// Register adds a pending call. settle is invoked at most once, with the
// response that removed the entry.
func (r *Registry) Register(id string, deadline time.Time, settle func(protocol.Response)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.pending[id]; exists {
		return ErrDuplicateID
	}
	r.pending[id] = &pendingCall{id: id, deadline: deadline, settle: settle}
	return nil
}

// Resolve routes resp to its pending call. Unknown ids (never issued, already
// answered, or timed out) are logged and dropped.
func (r *Registry) Resolve(resp protocol.Response) bool {
	call := r.take(resp.ID)
	if call == nil {
		log.Printf("[Bridge] No callback found for response: %s", resp.ID)
		return false
	}
	call.settle(resp)
	return true
}

// Remove drops a pending call without settling it. It reports whether the
// entry was still present; a second removal is a no-op.
func (r *Registry) Remove(id string) bool {
	return r.take(id) != nil
}

// Pending reports whether id is still waiting for a response.
func (r *Registry) Pending(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pending[id]
	return ok
}

// Deadline returns the deadline of a pending call.
func (r *Registry) Deadline(id string) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	call, ok := r.pending[id]
	if !ok {
		return time.Time{}, false
	}
	return call.deadline, true
}

// Len returns the number of pending calls.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

func (r *Registry) take(id string) *pendingCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	call := r.pending[id]
	if call != nil {
		delete(r.pending, id)
	}
	return call
}
