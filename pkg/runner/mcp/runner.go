package mcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"tableflip.dev/planner/pkg/app"
	"tableflip.dev/planner/pkg/log"
)

// Transport selects how the MCP server is exposed.
type Transport string

const (
	TransportHTTP  Transport = "http"
	TransportStdio Transport = "stdio"
)

const instructions = "Read and edit daily planners. Days are YYYY-MM-DD; items merge calendar events, day templates and manual entries."

// Runner serves the planner over the Model Context Protocol.
type Runner struct {
	App     *app.Service
	Name    string
	Version string

	Transport Transport
	// Addr and Path locate the streamable HTTP endpoint.
	Addr string
	Path string
	// CertFile and KeyFile switch the HTTP transport to TLS.
	CertFile string
	KeyFile  string

	OnListening func(net.Addr)
}

// NewServer builds an MCP server with the planner resources and tools.
func NewServer(a *app.Service, name, version string) *server.MCPServer {
	if name == "" {
		name = "planner"
	}
	if version == "" {
		version = "dev"
	}
	srv := server.NewMCPServer(
		name+" MCP",
		version,
		server.WithResourceCapabilities(false, false),
		server.WithToolCapabilities(false),
		server.WithInstructions(instructions),
		server.WithRecovery(),
	)
	svc := NewService(a)
	registerResources(srv, svc)
	registerTools(srv, svc)
	return srv
}

// EndpointPath normalizes p into an absolute URL path, "/mcp" when empty.
func EndpointPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/mcp"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// Do blocks until ctx is done or the transport fails.
func (r Runner) Do(ctx context.Context) error {
	if r.App == nil || r.App.Persistence == nil {
		return errors.New("mcp runner requires a planner with persistence")
	}
	srv := NewServer(r.App, r.Name, r.Version)

	switch r.Transport {
	case "", TransportHTTP:
		return r.serveHTTP(ctx, srv)
	case TransportStdio:
		log.Info("serving MCP", "transport", TransportStdio)
		return server.ServeStdio(srv)
	default:
		return fmt.Errorf("unknown MCP transport %q", r.Transport)
	}
}

func (r Runner) serveHTTP(ctx context.Context, srv *server.MCPServer) error {
	if (r.CertFile == "") != (r.KeyFile == "") {
		return errors.New("mcp: TLS needs both a certificate and a key")
	}
	addr := r.Addr
	if addr == "" {
		addr = "127.0.0.1:8080"
	}
	path := EndpointPath(r.Path)

	mux := http.NewServeMux()
	mux.Handle(path, server.NewStreamableHTTPServer(srv))
	hs := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("mcp: listen %s: %w", addr, err)
	}
	log.Info("serving MCP", "transport", TransportHTTP, "addr", ln.Addr().String(), "path", path)
	if r.OnListening != nil {
		r.OnListening(ln.Addr())
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutdown); err != nil {
			log.Warn("mcp shutdown", "err", err)
		}
	}()

	if r.CertFile != "" {
		err = hs.ServeTLS(ln, r.CertFile, r.KeyFile)
	} else {
		err = hs.Serve(ln)
	}
	if errors.Is(err, http.ErrServerClosed) {
		<-stopped
		return nil
	}
	return err
}
