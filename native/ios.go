package native

import (
	"context"
	"encoding/json"
	"log"

	"mobile-bridge/bridge"
	"mobile-bridge/protocol"
)

const iosTag = "Bridge"

// IOSAdapter is the message-handler registry an iOS host installs. Only the
// generic bridge handler is registered; every response, including errors,
// is delivered by evaluating the delivery script on the main looper.
type IOSAdapter struct {
	dispatcher *Dispatcher
	webview    WebView
	looper     *Looper
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewIOSAdapter builds an adapter with the standard dispatch table.
func NewIOSAdapter(caps Capabilities, webview WebView, looper *Looper) *IOSAdapter {
	ctx, cancel := context.WithCancel(context.Background())
	return &IOSAdapter{
		dispatcher: NewDispatcher(NewTable(protocol.PlatformIOS, caps, looper), iosTag),
		webview:    webview,
		looper:     looper,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Table returns the dispatch table so hosts can add or remove handlers.
func (a *IOSAdapter) Table() *Table {
	return a.dispatcher.Table()
}

// Close cancels asynchronous work still in flight.
func (a *IOSAdapter) Close() {
	a.cancel()
}

// Handler implements bridge.MessageHandlers.
func (a *IOSAdapter) Handler(name string) (bridge.MessageHandler, bool) {
	if name != bridge.IOSFallback {
		return nil, false
	}
	return a, true
}

// PostMessage receives a structured message from the page. Messages that
// carry no id or method cannot be answered and are dropped.
func (a *IOSAdapter) PostMessage(body any) error {
	req, ok := decodeMessage(body)
	if !ok {
		log.Printf("[%s] Invalid bridge message format", iosTag)
		return nil
	}
	resp, done := a.dispatcher.Dispatch(a.ctx, req, SinkFunc(a.sendResponse))
	if done {
		a.sendResponse(resp)
	}
	return nil
}

func (a *IOSAdapter) sendResponse(resp protocol.Response) {
	script, err := protocol.DeliveryScript(resp)
	if err != nil {
		log.Printf("[%s] Failed to serialize response: %v", iosTag, err)
		return
	}
	evaluate := func() {
		if err := a.webview.EvaluateJavascript(script); err != nil {
			log.Printf("[%s] Failed to send response to web: %v", iosTag, err)
		}
	}
	if a.looper == nil {
		evaluate()
		return
	}
	if !a.looper.Post(evaluate) {
		log.Printf("[%s] Main queue closed, dropping response %s", iosTag, resp.ID)
	}
}

func decodeMessage(body any) (protocol.Request, bool) {
	var req protocol.Request
	switch v := body.(type) {
	case protocol.Request:
		req = v
	case *protocol.Request:
		if v == nil {
			return req, false
		}
		req = *v
	case map[string]any:
		raw, err := json.Marshal(v)
		if err != nil {
			return req, false
		}
		if err := json.Unmarshal(raw, &req); err != nil {
			return req, false
		}
	default:
		return req, false
	}
	if req.ID == "" || req.Method == "" {
		return req, false
	}
	return req, true
}
