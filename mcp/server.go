// Package mcp serves the Toolbox over the Model Context Protocol
package mcp

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolbelt/mcp/httptransport"
	"github.com/effective-security/toolbelt/tools"
	"github.com/effective-security/xlog"
	mcp "github.com/metoro-io/mcp-golang"
	"github.com/metoro-io/mcp-golang/transport"
	"github.com/metoro-io/mcp-golang/transport/stdio"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolbelt", "mcp")

// Info describes the server to the clients
type Info struct {
	Name    string
	Version string
}

// Server is MCP server of the Toolbox
type Server struct {
	info      Info
	server    *mcp.Server
	transport transport.Transport
	toolbox   *tools.Toolbox
}

// NewServer returns the server with all MCP tools of the Toolbox registered
func NewServer(info Info, box *tools.Toolbox, tr transport.Transport) (*Server, error) {
	if box == nil {
		return nil, errors.New("toolbox is required")
	}
	if tr == nil {
		return nil, errors.New("transport is required")
	}

	srv := mcp.NewServer(tr,
		mcp.WithName(info.Name),
		mcp.WithVersion(info.Version),
	)
	if err := box.RegisterMCP(srv); err != nil {
		return nil, err
	}

	return &Server{
		info:      info,
		server:    srv,
		transport: tr,
		toolbox:   box,
	}, nil
}

// NewStdioServer returns the server over stdin and stdout
func NewStdioServer(info Info, box *tools.Toolbox) (*Server, error) {
	return NewServer(info, box, stdio.NewStdioServerTransport())
}

// Toolbox returns the served tools
func (s *Server) Toolbox() *tools.Toolbox {
	return s.toolbox
}

// Serve connects the transport, it does not block
func (s *Server) Serve() error {
	if err := s.server.Serve(); err != nil {
		return errors.Wrap(err, "failed to start MCP server")
	}
	logger.KV(xlog.INFO,
		"status", "serving",
		"name", s.info.Name,
		"version", s.info.Version,
		"tools", s.toolbox.Names())
	return nil
}

// Run serves until ctx is done
func (s *Server) Run(ctx context.Context) error {
	if err := s.Serve(); err != nil {
		return err
	}
	defer func() {
		_ = s.transport.Close()
	}()

	if ht, ok := s.transport.(*httptransport.Transport); ok {
		return ht.ListenAndServe(ctx)
	}

	<-ctx.Done()
	logger.KV(xlog.INFO, "status", "stopped", "name", s.info.Name)
	return nil
}
