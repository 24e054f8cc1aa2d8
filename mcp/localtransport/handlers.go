package localtransport

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/metoro-io/mcp-golang/transport"
)

// MessageHandler receives the decoded messages
type MessageHandler func(ctx context.Context, message *transport.BaseJsonRpcMessage)

// ErrInvalidMessage is returned when the body is not a JSON-RPC message
var ErrInvalidMessage = errors.New("invalid JSON-RPC message")

// handlers implements the setters of transport.Transport
type handlers struct {
	lock      sync.RWMutex
	onMessage MessageHandler
	onError   func(error)
	onClose   func()
}

// SetMessageHandler implements transport.Transport
func (h *handlers) SetMessageHandler(handler func(ctx context.Context, message *transport.BaseJsonRpcMessage)) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.onMessage = handler
}

// SetErrorHandler implements transport.Transport
func (h *handlers) SetErrorHandler(handler func(error)) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.onError = handler
}

// SetCloseHandler implements transport.Transport
func (h *handlers) SetCloseHandler(handler func()) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.onClose = handler
}

// Start does nothing, the transports are stateless
func (h *handlers) Start(context.Context) error {
	return nil
}

// Close calls the close handler
func (h *handlers) Close() error {
	h.lock.RLock()
	onClose := h.onClose
	h.lock.RUnlock()
	if onClose != nil {
		onClose()
	}
	return nil
}

func (h *handlers) messageHandler() MessageHandler {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return h.onMessage
}

func (h *handlers) reportError(err error) {
	h.lock.RLock()
	onError := h.onError
	h.lock.RUnlock()
	if onError != nil {
		onError(err)
	}
}

// decode returns the message of the body,
// the types are tried in order: request, notification, response, error.
func decode(body []byte) (*transport.BaseJsonRpcMessage, error) {
	var req transport.BaseJSONRPCRequest
	if json.Unmarshal(body, &req) == nil {
		return transport.NewBaseMessageRequest(&req), nil
	}
	var notification transport.BaseJSONRPCNotification
	if json.Unmarshal(body, &notification) == nil {
		return transport.NewBaseMessageNotification(&notification), nil
	}
	return decodeResponse(body)
}

func decodeResponse(body []byte) (*transport.BaseJsonRpcMessage, error) {
	var res transport.BaseJSONRPCResponse
	if json.Unmarshal(body, &res) == nil {
		return transport.NewBaseMessageResponse(&res), nil
	}
	var rpcErr transport.BaseJSONRPCError
	if json.Unmarshal(body, &rpcErr) == nil {
		return transport.NewBaseMessageError(&rpcErr), nil
	}
	return nil, errors.WithStack(ErrInvalidMessage)
}
