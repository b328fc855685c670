package native

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"mobile-bridge/bridge"
	"mobile-bridge/protocol"
)

const androidTag = "WebAppInterface"

var errMalformedRequest = errors.New("request id and method are required")

// WebView evaluates script in the page. Implementations may require being
// called from the main looper.
type WebView interface {
	EvaluateJavascript(script string) error
}

// AndroidAdapter is the object an Android host injects into the WebView.
// Requests arrive as JSON strings on callNative; inline methods and
// immediate failures answer in the return value, everything else is
// delivered later by evaluating the delivery script on the main looper.
type AndroidAdapter struct {
	dispatcher *Dispatcher
	webview    WebView
	looper     *Looper
	ctx        context.Context
	cancel     context.CancelFunc
	now        func() time.Time
}

// NewAndroidAdapter builds an adapter with the standard dispatch table.
func NewAndroidAdapter(caps Capabilities, webview WebView, looper *Looper) *AndroidAdapter {
	ctx, cancel := context.WithCancel(context.Background())
	return &AndroidAdapter{
		dispatcher: NewDispatcher(NewTable(protocol.PlatformAndroid, caps, looper), androidTag),
		webview:    webview,
		looper:     looper,
		ctx:        ctx,
		cancel:     cancel,
		now:        time.Now,
	}
}

// Table returns the dispatch table so hosts can add or remove handlers.
func (a *AndroidAdapter) Table() *Table {
	return a.dispatcher.Table()
}

// Close cancels asynchronous work still in flight.
func (a *AndroidAdapter) Close() {
	a.cancel()
}

// Method exposes callNative, the only function the adapter injects.
func (a *AndroidAdapter) Method(name string) (bridge.AndroidFunc, bool) {
	if name != bridge.AndroidFallback {
		return nil, false
	}
	return func(requestJSON string) (string, error) {
		return a.CallNative(requestJSON), nil
	}, true
}

// CallNative handles one serialized request. It returns a serialized
// response when the call is answered inline and "" when the response will
// be delivered through the WebView.
func (a *AndroidAdapter) CallNative(requestJSON string) string {
	var req protocol.Request
	if err := json.Unmarshal([]byte(requestJSON), &req); err != nil {
		log.Printf("[%s] Error handling native call: %v", androidTag, err)
		return a.encode(protocol.Failure(requestIDOf(requestJSON), protocol.CodeException, err.Error(), a.now()))
	}
	if req.ID == "" || req.Method == "" {
		log.Printf("[%s] Error handling native call: %v", androidTag, errMalformedRequest)
		return a.encode(protocol.Failure(req.ID, protocol.CodeException, errMalformedRequest.Error(), a.now()))
	}

	resp, done := a.dispatcher.Dispatch(a.ctx, req, SinkFunc(a.sendToWeb))
	if !done {
		return ""
	}
	if !resp.Success || a.dispatcher.Inline(req.Method) {
		return a.encode(resp)
	}
	a.sendToWeb(resp)
	return ""
}

func (a *AndroidAdapter) sendToWeb(resp protocol.Response) {
	deliver := func() {
		script, err := protocol.DeliveryScript(resp)
		if err != nil {
			log.Printf("[%s] Failed to serialize response %s: %v", androidTag, resp.ID, err)
			return
		}
		if err := a.webview.EvaluateJavascript(script); err != nil {
			log.Printf("[%s] Failed to send response %s to web: %v", androidTag, resp.ID, err)
		}
	}
	if a.looper == nil {
		deliver()
		return
	}
	if !a.looper.Post(deliver) {
		log.Printf("[%s] Main looper closed, dropping response %s", androidTag, resp.ID)
	}
}

func (a *AndroidAdapter) encode(resp protocol.Response) string {
	payload, err := json.Marshal(resp)
	if err != nil {
		log.Printf("[%s] Failed to serialize response %s: %v", androidTag, resp.ID, err)
		return ""
	}
	return string(payload)
}

// requestIDOf recovers the id of a request that failed to decode as a whole.
func requestIDOf(requestJSON string) string {
	var loose map[string]any
	if err := json.Unmarshal([]byte(requestJSON), &loose); err != nil {
		return ""
	}
	id, _ := loose["id"].(string)
	return id
}
