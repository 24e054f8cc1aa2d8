package localtransport

import (
	"context"
	"encoding/json"
	"maps"
	"net/http"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/metoro-io/mcp-golang/transport"
)

// ProxyRequest is a raw JSON-RPC message with headers
type ProxyRequest struct {
	Body    []byte            `json:"body"`
	Headers map[string]string `json:"headers"`
}

// ProxyResponse is a raw JSON-RPC response,
// the Body is empty for notifications.
type ProxyResponse struct {
	Status  int               `json:"status"`
	Body    []byte            `json:"body"`
	Headers map[string]string `json:"headers"`
}

// Handler handles MCP messages of the client transport
type Handler interface {
	HandleMCP(ctx context.Context, req *ProxyRequest) (*ProxyResponse, error)
}

// HandleMCP implements Handler
func (t *Transport) HandleMCP(ctx context.Context, req *ProxyRequest) (*ProxyResponse, error) {
	res, err := t.HandleMessage(ctx, req.Body)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return &ProxyResponse{Status: http.StatusAccepted}, nil
	}
	body, err := json.Marshal(res)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal response")
	}
	return &ProxyResponse{
		Status:  http.StatusOK,
		Body:    body,
		Headers: map[string]string{"Content-Type": "application/json"},
	}, nil
}

// ClientTransport is the client side of the stateless transport,
// it calls the Handler in-process.
type ClientTransport struct {
	handlers

	handler Handler
	lock    sync.RWMutex
	headers map[string]string
}

var _ transport.Transport = (*ClientTransport)(nil)

// NewClient returns the client transport connected to the Handler
func NewClient(handler Handler) *ClientTransport {
	return &ClientTransport{
		handler: handler,
		headers: make(map[string]string),
	}
}

// WithHeader adds a header to the requests
func (t *ClientTransport) WithHeader(key, value string) *ClientTransport {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.headers[key] = value
	return t
}

// Send passes the message to the Handler,
// the response is delivered to the message handler.
func (t *ClientTransport) Send(ctx context.Context, message *transport.BaseJsonRpcMessage) error {
	body, err := json.Marshal(message)
	if err != nil {
		return errors.Wrap(err, "failed to marshal message")
	}

	t.lock.RLock()
	req := &ProxyRequest{Body: body, Headers: maps.Clone(t.headers)}
	t.lock.RUnlock()

	resp, err := t.handler.HandleMCP(ctx, req)
	if err != nil {
		return err
	}
	if resp.Status != http.StatusOK && resp.Status != http.StatusAccepted {
		return errors.Errorf("server returned error: %d", resp.Status)
	}
	handler := t.messageHandler()
	if len(resp.Body) == 0 || handler == nil {
		return nil
	}

	msg, err := decodeResponse(resp.Body)
	if err != nil {
		return errors.New("received invalid response")
	}
	handler(ctx, msg)
	return nil
}
