package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mailwright/internal/instrumentation"
)

// MCPEndpoint is the path of the streamable HTTP transport.
const MCPEndpoint = "/mcp"

// HTTPServer serves an MCP server over streamable HTTP next to the health
// endpoints.
type HTTPServer struct {
	handler http.Handler

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
}

// NewHTTPServer builds the HTTP handler tree for mcpServer. metrics may be
// nil.
func NewHTTPServer(mcpServer *mcpserver.MCPServer, health *HealthChecker, metrics *instrumentation.Metrics) *HTTPServer {
	mux := http.NewServeMux()
	mux.Handle(MCPEndpoint, mcpserver.NewStreamableHTTPServer(mcpServer,
		mcpserver.WithEndpointPath(MCPEndpoint),
	))
	if health != nil {
		health.RegisterHealthEndpoints(mux)
	}
	return &HTTPServer{handler: instrumentHTTP(mux, metrics)}
}

// Handler returns the root handler, e.g. for httptest.
func (s *HTTPServer) Handler() http.Handler {
	return s.handler
}

// Start listens on addr and serves until Shutdown is called.
func (s *HTTPServer) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	// No WriteTimeout: streamable HTTP responses may stay open.
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	srv := s.httpServer
	s.mu.Unlock()

	return srv.Serve(ln)
}

// Addr returns the bound address, or "" before Start.
func (s *HTTPServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown gracefully shuts down the server
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func instrumentHTTP(next http.Handler, metrics *instrumentation.Metrics) http.Handler {
	if metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.RecordHTTPRequest(r.Context(), r.Method, routeLabel(r.URL.Path), rec.status, time.Since(start))
	})
}

// routeLabel bounds the path label to the known routes.
func routeLabel(path string) string {
	switch path {
	case MCPEndpoint, "/healthz", "/readyz", "/healthz/detailed":
		return path
	default:
		return "other"
	}
}

