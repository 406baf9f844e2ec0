package provider

import (
	"context"
	"encoding/json"
	"fmt"
)

// Transport carries logical actions to an external payment API. Endpoint
// mechanics, signing and retries live behind this interface; the core only
// cares about the action name, the JSON payload and the {success, ...}
// response shape. Timeouts and cancellation are the transport's problem.
type Transport interface {
	Do(ctx context.Context, action string, payload any) (*Response, error)
}

// Response is a JSON-shaped reply from an external payment API.
type Response struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Decode unmarshals the response data into v.
func (r *Response) Decode(v any) error {
	if len(r.Data) == 0 {
		return fmt.Errorf("response has no data")
	}
	return json.Unmarshal(r.Data, v)
}

// FailureMessage returns the best human-readable failure text the
// response carries.
func (r *Response) FailureMessage() string {
	if r.Error != "" {
		return r.Error
	}
	if r.Message != "" {
		return r.Message
	}
	return "provider reported failure"
}
