package bridge

import (
	"log"

	"mobile-bridge/protocol"
)

// Runtime is the web runtime as native code sees it. The only call it
// accepts is the delivery function, window.bridgeResponse.
type Runtime struct {
	registry *Registry
}

// NewRuntime binds a runtime to the registry its callers register with.
func NewRuntime(registry *Registry) *Runtime {
	return &Runtime{registry: registry}
}

// EvaluateJavascript runs a delivery script.
func (rt *Runtime) EvaluateJavascript(script string) error {
	resp, err := protocol.ParseDeliveryScript(script)
	if err != nil {
		log.Printf("[Bridge] Rejected script: %v", err)
		return err
	}
	rt.registry.Resolve(resp)
	return nil
}

// BridgeResponse is the delivery function itself.
func (rt *Runtime) BridgeResponse(resp protocol.Response) {
	rt.registry.Resolve(resp)
}
