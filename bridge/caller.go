// Package bridge is the web-side half of the native bridge: it detects the
// transport, issues calls, correlates responses by request id, and enforces
// the call timeout.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"mobile-bridge/internal/platform/timeouts"
	"mobile-bridge/protocol"
)

// Web-side failures. They never cross the wire.
var (
	ErrUnavailable    = errors.New("Native bridge is not available")
	ErrTimeout        = errors.New("Bridge call timeout")
	ErrNoBridgeMethod = errors.New("No available bridge method")
)

const tracerName = "mobile-bridge/bridge"

// Option configures a Caller.
type Option func(*Caller)

// WithRegistry shares a registry with a Runtime that receives deliveries.
func WithRegistry(r *Registry) Option {
	return func(c *Caller) {
		if r != nil {
			c.registry = r
		}
	}
}

// WithTimeout overrides the call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Caller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithClock overrides the clock used for ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Caller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithTracer overrides the tracer used for call spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Caller) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// Caller is the single entry point for invoking native capabilities.
type Caller struct {
	transport Transport
	registry  *Registry
	timeout   time.Duration
	now       func() time.Time
	tracer    trace.Tracer
	counter   atomic.Uint64
}

// NewCaller creates a caller bound to transport.
func NewCaller(transport Transport, opts ...Option) *Caller {
	c := &Caller{
		transport: transport,
		registry:  NewRegistry(),
		timeout:   timeouts.BridgeCall,
		now:       time.Now,
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transport returns the transport the caller dispatches to.
func (c *Caller) Transport() Transport {
	return c.transport
}

// Available reports whether a native transport is present.
func (c *Caller) Available() bool {
	return c.transport.Available()
}

// Platform reports the detected platform.
func (c *Caller) Platform() protocol.Platform {
	return c.transport.Platform()
}

// Call invokes method and waits for its result.
func (c *Caller) Call(ctx context.Context, method protocol.Method, params map[string]any) (json.RawMessage, error) {
	return c.Start(ctx, method, params).Wait(ctx)
}

// Start dispatches method without waiting. The returned Pending settles
// exactly once: with the response data, a response error, a dispatch error,
// or ErrTimeout.
func (c *Caller) Start(ctx context.Context, method protocol.Method, params map[string]any) *Pending {
	p := &Pending{method: method, done: make(chan struct{})}
	if !c.transport.Available() {
		p.settle(nil, ErrUnavailable)
		return p
	}

	id := c.nextID()
	p.id = id

	ctx, span := c.tracer.Start(ctx, "bridge."+string(method),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("bridge.method", string(method)),
			attribute.String("bridge.request_id", id),
			attribute.String("bridge.transport", c.transport.Kind().String()),
		),
	)
	p.onSettle = func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}

	if err := c.registry.Register(id, c.now().Add(c.timeout), p.complete); err != nil {
		p.settle(nil, err)
		return p
	}
	p.abandon = func(err error) {
		if c.registry.Remove(id) {
			p.settle(nil, err)
		}
	}
	p.mu.Lock()
	p.timer = time.AfterFunc(c.timeout, func() {
		p.abandon(ErrTimeout)
	})
	p.mu.Unlock()

	if err := c.dispatch(ctx, id, method, params); err != nil {
		p.abandon(err)
	}
	return p
}

// HandleResponse is the inbound path for responses. Responses for unknown ids
// are dropped; it reports whether a pending call was settled.
func (c *Caller) HandleResponse(resp protocol.Response) bool {
	return c.registry.Resolve(resp)
}

// HandleResponseJSON decodes and routes a serialized response.
func (c *Caller) HandleResponseJSON(payload []byte) error {
	resp, err := protocol.DecodeResponse(payload)
	if err != nil {
		return fmt.Errorf("decode bridge response: %w", err)
	}
	c.registry.Resolve(resp)
	return nil
}

func (c *Caller) dispatch(ctx context.Context, id string, method protocol.Method, params map[string]any) error {
	req := protocol.NewRequest(id, method, params, c.now())

	switch c.transport.kind {
	case KindAndroid:
		fn, ok := c.transport.android.Method(string(method))
		if !ok {
			fn, ok = c.transport.android.Method(AndroidFallback)
		}
		if !ok {
			return ErrNoBridgeMethod
		}
		payload, err := json.Marshal(req)
		if err != nil {
			return err
		}
		result, err := fn(string(payload))
		if err != nil {
			return err
		}
		// Fast methods may answer inline; otherwise the response arrives
		// later through the delivery channel.
		if result != "" {
			if resp, err := protocol.DecodeResponse([]byte(result)); err == nil {
				c.registry.Resolve(resp)
			}
		}
		return nil

	case KindIOS:
		handler, ok := c.transport.ios.Handler(string(method))
		if !ok {
			handler, ok = c.transport.ios.Handler(IOSFallback)
		}
		if !ok {
			return ErrNoBridgeMethod
		}
		return handler.PostMessage(req)

	case KindCustom:
		go c.callCustom(ctx, id, method, params)
		return nil
	}
	return ErrNoBridgeMethod
}

func (c *Caller) callCustom(ctx context.Context, id string, method protocol.Method, params map[string]any) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	data, err := c.transport.custom.CallNative(ctx, string(method), params)
	if err != nil {
		message := err.Error()
		if message == "" {
			message = "Unknown error"
		}
		c.registry.Resolve(protocol.Failure(id, protocol.CodeCustomError, message, c.now()))
		return
	}
	resp, err := protocol.Success(id, data, c.now())
	if err != nil {
		resp = protocol.Failure(id, protocol.CodeCustomError, err.Error(), c.now())
	}
	c.registry.Resolve(resp)
}

func (c *Caller) nextID() string {
	n := c.counter.Add(1)
	return fmt.Sprintf("bridge_%d_%d", c.now().UnixMilli(), n)
}

// Pending is the awaitable result of one call.
type Pending struct {
	id       string
	method   protocol.Method
	done     chan struct{}
	once     sync.Once
	mu       sync.Mutex
	data     json.RawMessage
	err      error
	timer    *time.Timer
	abandon  func(error)
	onSettle func(error)
}

// ID returns the request id, or "" when the call failed before dispatch.
func (p *Pending) ID() string {
	return p.id
}

// Method returns the called method.
func (p *Pending) Method() protocol.Method {
	return p.method
}

// Done is closed once the call has settled.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Result returns the outcome. It is only meaningful after Done is closed.
func (p *Pending) Result() (json.RawMessage, error) {
	return p.data, p.err
}

// Wait blocks until the call settles or ctx ends. When ctx ends first the
// pending entry is removed, so a late response is dropped.
func (p *Pending) Wait(ctx context.Context) (json.RawMessage, error) {
	select {
	case <-p.done:
		return p.data, p.err
	case <-ctx.Done():
	}
	if p.abandon != nil {
		p.abandon(ctx.Err())
	}
	<-p.done
	return p.data, p.err
}

func (p *Pending) complete(resp protocol.Response) {
	if err := resp.Err(); err != nil {
		p.settle(nil, err)
		return
	}
	data := resp.Data
	if string(data) == "null" {
		data = nil
	}
	p.settle(data, nil)
}

func (p *Pending) settle(data json.RawMessage, err error) {
	p.once.Do(func() {
		p.mu.Lock()
		timer := p.timer
		p.mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		p.data = data
		p.err = err
		if p.onSettle != nil {
			p.onSettle(err)
		}
		close(p.done)
	})
}
