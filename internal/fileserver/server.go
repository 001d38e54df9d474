// Package fileserver serves a directory over HTTP for the lifetime of a probe.
package fileserver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// Server is a throwaway static file server bound to a fixed local port.
type Server struct {
	root      string
	host      string
	port      int
	accessLog bool

	mu       sync.Mutex
	srv      *http.Server
	listener net.Listener
	done     chan struct{}
	running  bool
}

// Option configures a Server.
type Option func(*Server)

// WithAccessLog writes one combined-log line per request to the standard logger.
func WithAccessLog(enabled bool) Option {
	return func(s *Server) {
		s.accessLog = enabled
	}
}

// New creates a server for root on host:port. Port 0 picks a free port when
// the server starts.
func New(root, host string, port int, opts ...Option) *Server {
	if root == "" {
		root = "."
	}
	if host == "" {
		host = "localhost"
	}
	s := &Server{root: root, host: host, port: port}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router serving the root directory.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet, http.MethodHead)
	r.PathPrefix("/").Handler(http.FileServer(http.Dir(s.root)))

	var h http.Handler = r
	if s.accessLog {
		h = handlers.CombinedLoggingHandler(log.Writer(), h)
	}
	return h
}

// Start binds the listener and serves in the background. The listener is
// bound before Start returns, so the server accepts connections immediately.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("file server already running")
	}

	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.listener = ln
	s.port = ln.Addr().(*net.TCPAddr).Port
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.done = make(chan struct{})
	s.running = true

	go func(srv *http.Server, done chan struct{}) {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[fileserver] serve error: %v", err)
		}
	}(s.srv, s.done)

	log.Printf("[fileserver] serving %s on %s", s.root, ln.Addr())
	return nil
}

// Port returns the bound port, or the configured one before Start.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// URL returns the absolute URL for path on this server.
func (s *Server) URL(path string) string {
	return fmt.Sprintf("http://%s/%s",
		net.JoinHostPort(s.host, strconv.Itoa(s.Port())),
		strings.TrimPrefix(path, "/"))
}

// Running reports whether the server is accepting connections.
func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Close stops the server and waits for the serve loop to exit. It is safe to
// call more than once and on a server that never started.
func (s *Server) Close() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	srv, done := s.srv, s.done
	s.running = false
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := srv.Shutdown(ctx)
	if err != nil {
		err = srv.Close()
	}
	<-done

	log.Printf("[fileserver] stopped %s", s.root)
	return err
}
