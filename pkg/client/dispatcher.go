// Package client consumes declared endpoints over HTTP and websockets. It
// picks the right decoder for a response from the endpoint's declared shape,
// so callers never inspect content types by hand.
package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/weftworks/weft/pkg/endpoint"
	"github.com/weftworks/weft/pkg/sse"
	"github.com/weftworks/weft/pkg/stream"
)

// ErrNoBody is returned when a response carries no body to stream from.
var ErrNoBody = errors.New("response has no body")

// Result pairs the decoded unit stream with the response it was opened from.
// The stream owns the response body; closing the stream closes the body.
type Result struct {
	Data     stream.Stream
	Response *http.Response
}

// OpenStream wraps resp's body in the decoder the endpoint's shape calls
// for. The caller must drain or close the returned stream. Socket shapes
// cannot be opened from an HTTP response; use DialSocket.
func OpenStream(resp *http.Response, ep endpoint.Endpoint) (*Result, error) {
	if resp.Body == nil {
		return nil, ErrNoBody
	}

	var data stream.Stream
	switch shape := ep.Shape.(type) {
	case endpoint.EventShape:
		data = sse.NewDecoder(resp.Body, shape.Events)
	case endpoint.ItemShape:
		data = stream.NewNDJSONDecoder(resp.Body, shape.Item)
	case endpoint.BinaryShape:
		data = stream.NewBinaryDecoder(resp.Body)
	case endpoint.SocketShape:
		resp.Body.Close()
		return nil, fmt.Errorf("socket endpoint %s %s cannot stream over HTTP", ep.Method, ep.Path)
	case endpoint.JSONShape:
		resp.Body.Close()
		return nil, fmt.Errorf("endpoint %s %s is not a streaming endpoint; use DecodeJSON", ep.Method, ep.Path)
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("unsupported response shape %T", ep.Shape)
	}

	return &Result{Data: data, Response: resp}, nil
}

// DecodeJSON reads and validates a non-streaming JSON response body against
// the endpoint's declared body schema. The body is always closed.
func DecodeJSON(resp *http.Response, ep endpoint.Endpoint) (any, error) {
	shape, ok := ep.Shape.(endpoint.JSONShape)
	if !ok {
		return nil, fmt.Errorf("endpoint %s %s does not declare a JSON body", ep.Method, ep.Path)
	}
	if resp.Body == nil {
		return nil, ErrNoBody
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("invalid JSON response: %w", err)
	}

	return shape.Body.Validate(v)
}
