package bridge

import (
	"context"

	"mobile-bridge/protocol"
)

// Kind tags which transport the web runtime talks to.
type Kind int

const (
	KindUnavailable Kind = iota
	KindAndroid
	KindIOS
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindAndroid:
		return "ANDROID"
	case KindIOS:
		return "IOS"
	case KindCustom:
		return "CUSTOM"
	default:
		return "UNAVAILABLE"
	}
}

const (
	// AndroidFallback is the generic entry point on the injected Android object.
	AndroidFallback = "callNative"
	// IOSFallback is the generic message handler name.
	IOSFallback = "bridge"
)

// AndroidFunc is one function exposed on the injected Android object. It takes
// the serialized request and may answer inline with a serialized response.
type AndroidFunc func(requestJSON string) (string, error)

// AndroidObject is the object an Android host injects into the WebView.
type AndroidObject interface {
	Method(name string) (AndroidFunc, bool)
}

// MessageHandler receives structured messages posted from the web runtime.
type MessageHandler interface {
	PostMessage(body any) error
}

// MessageHandlers is the iOS message-handler registry.
type MessageHandlers interface {
	Handler(name string) (MessageHandler, bool)
}

// CustomBridge is a host-provided bridge that takes method and params without
// an envelope and answers through its own return values.
type CustomBridge interface {
	CallNative(ctx context.Context, method string, params map[string]any) (any, error)
	IsAvailable() bool
}

// Transport is the tagged union of the transports a caller can dispatch to.
// The zero value is unavailable.
type Transport struct {
	kind    Kind
	android AndroidObject
	ios     MessageHandlers
	custom  CustomBridge
}

// Android wraps an injected Android object.
func Android(obj AndroidObject) Transport {
	if obj == nil {
		return Transport{}
	}
	return Transport{kind: KindAndroid, android: obj}
}

// IOS wraps an iOS message-handler registry.
func IOS(handlers MessageHandlers) Transport {
	if handlers == nil {
		return Transport{}
	}
	return Transport{kind: KindIOS, ios: handlers}
}

// Custom wraps a custom bridge.
func Custom(cb CustomBridge) Transport {
	if cb == nil {
		return Transport{}
	}
	return Transport{kind: KindCustom, custom: cb}
}

// Unavailable is the transport used when no native host is present.
func Unavailable() Transport {
	return Transport{}
}

// Kind returns the transport tag.
func (t Transport) Kind() Kind {
	return t.kind
}

// Available reports whether calls can be dispatched at all.
func (t Transport) Available() bool {
	return t.kind != KindUnavailable
}

// Platform reports the host platform. Custom bridges report web.
func (t Transport) Platform() protocol.Platform {
	switch t.kind {
	case KindAndroid:
		return protocol.PlatformAndroid
	case KindIOS:
		return protocol.PlatformIOS
	default:
		return protocol.PlatformWeb
	}
}

// Probe inspects the execution environment for injected native objects.
type Probe interface {
	// HasWindow is false outside a browser-like context.
	HasWindow() bool
	Android() (AndroidObject, bool)
	MessageHandlers() (MessageHandlers, bool)
	NativeBridge() (CustomBridge, bool)
}

// Detect picks the transport once, in fixed priority order: Android object,
// iOS message handlers, then an available custom bridge.
func Detect(p Probe) Transport {
	if p == nil || !p.HasWindow() {
		return Unavailable()
	}
	if obj, ok := p.Android(); ok && obj != nil {
		return Android(obj)
	}
	if handlers, ok := p.MessageHandlers(); ok && handlers != nil {
		return IOS(handlers)
	}
	if cb, ok := p.NativeBridge(); ok && cb != nil && cb.IsAvailable() {
		return Custom(cb)
	}
	return Unavailable()
}
