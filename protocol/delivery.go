package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DeliveryFunction is the single global function native code calls to hand a
// Response back to the web runtime.
const DeliveryFunction = "bridgeResponse"

const deliveryPrefix = "window." + DeliveryFunction + "("

// DeliveryScript renders the script a native adapter evaluates in the WebView.
func DeliveryScript(resp Response) (string, error) {
	payload, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}
	return deliveryPrefix + string(payload) + ");", nil
}

// ParseDeliveryScript recovers the Response from a delivery script. Any other
// script is rejected; the delivery function is the only inbound entry point.
func ParseDeliveryScript(script string) (Response, error) {
	s := strings.TrimSpace(script)
	s = strings.TrimSuffix(s, ";")
	if !strings.HasPrefix(s, deliveryPrefix) || !strings.HasSuffix(s, ")") {
		return Response{}, fmt.Errorf("not a %s call", DeliveryFunction)
	}
	body := s[len(deliveryPrefix) : len(s)-1]
	resp, err := DecodeResponse([]byte(body))
	if err != nil {
		return Response{}, fmt.Errorf("decode %s payload: %w", DeliveryFunction, err)
	}
	return resp, nil
}
