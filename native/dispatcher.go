package native

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"mobile-bridge/protocol"
)

// Sink receives responses produced after a handler has deferred.
type Sink interface {
	Deliver(resp protocol.Response)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(resp protocol.Response)

// Deliver implements Sink.
func (f SinkFunc) Deliver(resp protocol.Response) {
	f(resp)
}

// HandlerFunc handles one call. Returning completes the call with the
// returned data or error, unless the handler called Defer first; a deferred
// call completes later through Resolve, Reject or Fail.
type HandlerFunc func(ctx context.Context, call *Call) (any, error)

// CustomFunc handles a named method behind the custom escape hatch.
type CustomFunc func(ctx context.Context, params protocol.Params) (any, error)

// Entry is one row of the dispatch table.
type Entry struct {
	Handle HandlerFunc
	// Inline entries may answer in the return value of a string transport.
	Inline bool
}

// Table maps method names to handlers.
type Table struct {
	mu      sync.RWMutex
	entries map[protocol.Method]Entry
	custom  map[string]CustomFunc
}

// NewEmptyTable creates a table with no handlers.
func NewEmptyTable() *Table {
	return &Table{
		entries: make(map[protocol.Method]Entry),
		custom:  make(map[string]CustomFunc),
	}
}

// Set installs or replaces the handler for method.
func (t *Table) Set(method protocol.Method, entry Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[method] = entry
}

// Remove drops the handler for method.
func (t *Table) Remove(method protocol.Method) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, method)
}

// Lookup returns the handler for method.
func (t *Table) Lookup(method protocol.Method) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entry, ok := t.entries[method]
	return entry, ok
}

// Custom registers a named handler reachable through the custom method.
func (t *Table) Custom(name string, fn CustomFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.custom[name] = fn
}

func (t *Table) lookupCustom(name string) (CustomFunc, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	fn, ok := t.custom[name]
	return fn, ok
}

// Call is one request being handled.
type Call struct {
	ID     string
	Method protocol.Method
	Params protocol.Params

	now      func() time.Time
	sink     Sink
	once     sync.Once
	deferred atomic.Bool
}

// Defer marks the call as completing asynchronously. It must be called
// before the handler starts the work that resolves the call.
func (c *Call) Defer() {
	c.deferred.Store(true)
}

// Go defers the call and runs fn on its own goroutine. The call completes
// with fn's result; a panic in fn completes it with an EXCEPTION.
func (c *Call) Go(fn func() (any, error)) {
	c.Defer()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Panic handling %s, RequestId: %s: %v", c.Method, c.ID, r)
				c.Fail(fmt.Errorf("%v", r))
			}
		}()
		data, err := fn()
		if err != nil {
			c.Fail(err)
			return
		}
		c.Resolve(data)
	}()
}

// Resolve completes a deferred call with data.
func (c *Call) Resolve(data any) {
	resp, err := protocol.Success(c.ID, data, c.now())
	if err != nil {
		resp = protocol.Failure(c.ID, protocol.CodeException, err.Error(), c.now())
	}
	c.deliver(resp)
}

// Reject completes a deferred call with an error response.
func (c *Call) Reject(code protocol.Code, message string) {
	c.deliver(protocol.Failure(c.ID, code, message, c.now()))
}

// Fail completes a deferred call from err.
func (c *Call) Fail(err error) {
	c.deliver(failureFor(c.ID, err, c.now()))
}

func (c *Call) deliver(resp protocol.Response) {
	c.once.Do(func() {
		if c.sink != nil {
			c.sink.Deliver(resp)
		}
	})
}

// Dispatcher runs requests against a table.
type Dispatcher struct {
	table *Table
	now   func() time.Time
	tag   string
}

// NewDispatcher creates a dispatcher. tag prefixes log lines.
func NewDispatcher(table *Table, tag string) *Dispatcher {
	return &Dispatcher{table: table, now: time.Now, tag: tag}
}

// Table returns the dispatch table.
func (d *Dispatcher) Table() *Table {
	return d.table
}

// Inline reports whether method may be answered inline.
func (d *Dispatcher) Inline(method protocol.Method) bool {
	entry, ok := d.table.Lookup(method)
	return ok && entry.Inline
}

// Dispatch runs the handler for req. When the handler completes before
// returning, its response is returned with done set and sink is never used.
// When the handler defers, done is false and the response reaches sink later.
// Unknown methods and handler panics complete immediately with an error.
func (d *Dispatcher) Dispatch(ctx context.Context, req protocol.Request, sink Sink) (protocol.Response, bool) {
	log.Printf("[%s] Method called: %s, RequestId: %s", d.tag, req.Method, req.ID)

	entry, ok := d.table.Lookup(req.Method)
	if !ok || entry.Handle == nil {
		return protocol.Failure(req.ID, protocol.CodeUnknownMethod, "Unknown method: "+string(req.Method), d.now()), true
	}

	params := protocol.Params(req.Params)
	if params == nil {
		params = protocol.Params{}
	}
	call := &Call{ID: req.ID, Method: req.Method, Params: params, now: d.now, sink: sink}

	data, err := d.run(ctx, entry.Handle, call)
	if call.deferred.Load() {
		if err != nil {
			call.Fail(err)
		}
		return protocol.Response{}, false
	}
	// Completed synchronously; any later Resolve on this call is a no-op.
	call.once.Do(func() {})

	if err != nil {
		log.Printf("[%s] Error handling %s: %v", d.tag, req.Method, err)
		return failureFor(req.ID, err, d.now()), true
	}
	resp, err := protocol.Success(req.ID, data, d.now())
	if err != nil {
		return protocol.Failure(req.ID, protocol.CodeException, err.Error(), d.now()), true
	}
	return resp, true
}

func (d *Dispatcher) run(ctx context.Context, handle HandlerFunc, call *Call) (data any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return handle(ctx, call)
}

func failureFor(id string, err error, now time.Time) protocol.Response {
	if code := protocol.CodeOf(err); code != "" {
		return protocol.Failure(id, code, err.Error(), now)
	}
	message := err.Error()
	if message == "" {
		message = "Unknown error"
	}
	return protocol.Failure(id, protocol.CodeException, message, now)
}
