// Package httptransport provides a stateless HTTP transport for MCP,
// every POST carries one JSON-RPC message and returns its response.
package httptransport

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolbelt/mcp/localtransport"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolbelt/mcp", "httptransport")

const (
	// DefaultEndpoint is the path of MCP endpoint
	DefaultEndpoint = "/mcp"
	// DefaultAddr is the listen address
	DefaultAddr = ":8080"

	maxBodySize = 4 << 20
)

// Transport implements the MCP transport over HTTP
type Transport struct {
	*localtransport.Transport

	endpoint string
	addr     string
	server   *http.Server
}

// New returns HTTP transport serving on the endpoint
func New(endpoint string) *Transport {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Transport{
		Transport: localtransport.New(),
		endpoint:  endpoint,
		addr:      DefaultAddr,
	}
}

// WithAddr sets the address to listen on
func (t *Transport) WithAddr(addr string) *Transport {
	if addr != "" {
		t.addr = addr
	}
	return t
}

// Endpoint returns the path of MCP endpoint
func (t *Transport) Endpoint() string {
	return t.endpoint
}

// Handler returns the HTTP handler of MCP endpoint
func (t *Transport) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(t.endpoint, t.handleRequest)
	return mux
}

// ListenAndServe serves until ctx is done
func (t *Transport) ListenAndServe(ctx context.Context) error {
	t.server = &http.Server{
		Addr:              t.addr,
		Handler:           t.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = t.server.Shutdown(sctx)
	}()

	logger.KV(xlog.INFO, "status", "listening", "addr", t.addr, "endpoint", t.endpoint)
	err := t.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return errors.WithStack(err)
}

// Close stops the HTTP server
func (t *Transport) Close() error {
	if t.server != nil {
		if err := t.server.Close(); err != nil {
			return errors.WithStack(err)
		}
	}
	return t.Transport.Close()
}

func (t *Transport) handleRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Only POST method is supported", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	response, err := t.HandleMessage(ctx, body)
	if err != nil {
		logger.ContextKV(ctx, xlog.ERROR, "reason", "HandleMessage", "err", err.Error())
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if response == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	js, err := json.Marshal(response)
	if err != nil {
		logger.ContextKV(ctx, xlog.ERROR, "reason", "marshal", "err", err.Error())
		http.Error(w, "failed to marshal response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(js)
}
