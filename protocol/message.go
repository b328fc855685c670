// Package protocol defines the wire contract shared by the web caller and the
// native adapters: request and response envelopes, the method set, the error
// taxonomy, and the delivery script native code evaluates to answer a call.
package protocol

import (
	"encoding/json"
	"time"
)

// MessageType distinguishes calls into native code from callbacks into the web runtime.
type MessageType string

const (
	TypeNativeCall  MessageType = "native_call"
	TypeWebCallback MessageType = "web_callback"
)

// Request is one in-flight call from the web runtime to native code.
type Request struct {
	ID        string         `json:"id"`
	Type      MessageType    `json:"type"`
	Method    Method         `json:"method"`
	Params    map[string]any `json:"params,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

// Response answers exactly one Request and carries its id.
type Response struct {
	ID        string          `json:"id"`
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     *Error          `json:"error,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// NewRequest builds a native_call request stamped with now.
func NewRequest(id string, method Method, params map[string]any, now time.Time) Request {
	return Request{
		ID:        id,
		Type:      TypeNativeCall,
		Method:    method,
		Params:    params,
		Timestamp: now.UnixMilli(),
	}
}

// Success builds a success response. A nil data value yields a response without data.
func Success(id string, data any, now time.Time) (Response, error) {
	resp := Response{ID: id, Success: true, Timestamp: now.UnixMilli()}
	if data == nil {
		return resp, nil
	}
	if raw, ok := data.(json.RawMessage); ok {
		resp.Data = raw
		return resp, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Response{}, err
	}
	if string(raw) != "null" {
		resp.Data = raw
	}
	return resp, nil
}

// Failure builds an error response.
func Failure(id string, code Code, message string, now time.Time) Response {
	return Response{
		ID:        id,
		Success:   false,
		Error:     &Error{Code: code, Message: message},
		Timestamp: now.UnixMilli(),
	}
}

// Err returns the response error, or nil for a successful response.
func (r Response) Err() error {
	if r.Success {
		return nil
	}
	if r.Error == nil {
		return &Error{Code: CodeUnknown, Message: "Unknown error"}
	}
	return r.Error
}

// DecodeResponse parses a serialized response. The id field is required.
func DecodeResponse(payload []byte) (Response, error) {
	var resp Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		return Response{}, err
	}
	if resp.ID == "" {
		return Response{}, errMissingID
	}
	return resp, nil
}
