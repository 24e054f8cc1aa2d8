// Package localtransport provides a stateless request/response MCP transport,
// used in-process and as the base of the HTTP transport.
package localtransport

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/metoro-io/mcp-golang/transport"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolbelt/mcp", "localtransport")

// ErrNoResponseChannel is returned by Send when the request is not pending
var ErrNoResponseChannel = errors.New("no response channel found")

// Transport is the server side of the stateless transport:
// every request is dispatched to the server and waits for its response.
type Transport struct {
	handlers

	lock    sync.Mutex
	pending map[int64]chan *transport.BaseJsonRpcMessage
	lastID  atomic.Int64
}

var _ transport.Transport = (*Transport)(nil)

// New returns the Transport
func New() *Transport {
	return &Transport{
		pending: make(map[int64]chan *transport.BaseJsonRpcMessage),
	}
}

// Send delivers the response to the pending request.
// Notifications are dropped, the transport has no session to push them to.
func (t *Transport) Send(ctx context.Context, message *transport.BaseJsonRpcMessage) error {
	id, ok := responseID(message)
	if !ok {
		logger.ContextKV(ctx, xlog.DEBUG, "reason", "dropped", "type", message.Type)
		return nil
	}

	ch := t.release(id)
	if ch == nil {
		logger.ContextKV(ctx, xlog.ERROR,
			"type", message.Type,
			"id", id,
			"err", ErrNoResponseChannel.Error())
		return errors.Wrapf(ErrNoResponseChannel, "id: %d", id)
	}
	// buffered, the server may respond before HandleMessage waits
	ch <- message
	return nil
}

// HandleMessage dispatches the message to the server,
// for requests it blocks until the response is sent or ctx is done.
// Returns nil message for notifications, responses and errors.
func (t *Transport) HandleMessage(ctx context.Context, body []byte) (*transport.BaseJsonRpcMessage, error) {
	handler := t.messageHandler()
	if handler == nil {
		return nil, errors.New("transport is not connected")
	}

	msg, err := decode(body)
	if err != nil {
		t.reportError(err)
		return nil, err
	}
	if msg.JsonRpcRequest == nil {
		handler(ctx, msg)
		return nil, nil
	}

	// requests of concurrent clients may reuse IDs
	id := t.lastID.Add(1)
	ch := make(chan *transport.BaseJsonRpcMessage, 1)
	t.lock.Lock()
	t.pending[id] = ch
	t.lock.Unlock()

	clientID := msg.JsonRpcRequest.Id
	msg.JsonRpcRequest.Id = transport.RequestId(id)
	handler(ctx, msg)

	select {
	case res := <-ch:
		setResponseID(res, clientID)
		return res, nil
	case <-ctx.Done():
		t.release(id)
		return nil, errors.WithStack(ctx.Err())
	}
}

func (t *Transport) release(id int64) chan *transport.BaseJsonRpcMessage {
	t.lock.Lock()
	defer t.lock.Unlock()
	ch := t.pending[id]
	delete(t.pending, id)
	return ch
}

func responseID(message *transport.BaseJsonRpcMessage) (int64, bool) {
	switch {
	case message.JsonRpcResponse != nil:
		return int64(message.JsonRpcResponse.Id), true
	case message.JsonRpcError != nil:
		return int64(message.JsonRpcError.Id), true
	}
	return 0, false
}

func setResponseID(message *transport.BaseJsonRpcMessage, id transport.RequestId) {
	switch {
	case message.JsonRpcResponse != nil:
		message.JsonRpcResponse.Id = id
	case message.JsonRpcError != nil:
		message.JsonRpcError.Id = id
	}
}
