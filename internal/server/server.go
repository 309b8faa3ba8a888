// Package server carries profile requests over WebSocket and HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xielang86/mindora-user/internal/router"
)

const (
	DefaultWSAddr       = ":9101"
	DefaultHTTPAddr     = ":9102"
	DefaultReadLimit    = 1 << 20
	DefaultWriteTimeout = 10 * time.Second

	shutdownTimeout = 5 * time.Second
)

// Options configures the listeners. An empty address disables that carrier.
type Options struct {
	WSAddr   string
	HTTPAddr string
	// ReadLimit caps one WebSocket message or HTTP body in bytes. A larger
	// WebSocket message closes the connection with 1009 (message too big)
	// and gets no response; a larger HTTP body gets 413. Other malformed
	// requests are answered with a protocol error and the connection stays
	// open.
	ReadLimit    int64
	WriteTimeout time.Duration
}

// Server serves one Router over both carriers.
type Server struct {
	router *router.Router
	opts   Options
}

// New returns a Server. Zero ReadLimit and WriteTimeout take their defaults.
func New(r *router.Router, opts Options) *Server {
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = DefaultReadLimit
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	return &Server{router: r, opts: opts}
}

// Run listens on the configured addresses and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	if s.opts.WSAddr == "" && s.opts.HTTPAddr == "" {
		return errors.New("no listen address configured")
	}

	var wsLn, httpLn net.Listener
	var err error
	if s.opts.WSAddr != "" {
		if wsLn, err = net.Listen("tcp", s.opts.WSAddr); err != nil {
			return fmt.Errorf("listen websocket: %w", err)
		}
	}
	if s.opts.HTTPAddr != "" {
		if httpLn, err = net.Listen("tcp", s.opts.HTTPAddr); err != nil {
			if wsLn != nil {
				wsLn.Close()
			}
			return fmt.Errorf("listen http: %w", err)
		}
	}
	return s.Serve(ctx, wsLn, httpLn)
}

// Serve serves WebSocket connections on wsLn and HTTP requests on httpLn
// until ctx is done or a listener fails. Either listener may be nil.
func (s *Server) Serve(ctx context.Context, wsLn, httpLn net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	var servers []*http.Server
	start := func(name string, ln net.Listener, h http.Handler) {
		srv := &http.Server{
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
			BaseContext:       func(net.Listener) context.Context { return gctx },
		}
		servers = append(servers, srv)
		g.Go(func() error {
			log.Printf("[server] %s listening on %s", name, ln.Addr())
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("%s server: %w", name, err)
			}
			return nil
		})
	}
	if wsLn != nil {
		start("websocket", wsLn, s.WSHandler())
	}
	if httpLn != nil {
		start("http", httpLn, s.HTTPHandler())
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Printf("[server] shutdown error: %v", err)
			}
		}
		log.Printf("[server] stopped")
		return nil
	})

	return g.Wait()
}
