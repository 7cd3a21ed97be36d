package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sys/unix"
)

const instrumentationName = "github.com/freekieb7/pebble/http"

// Server owns the listening socket and drives every accepted connection
// through the read-parse-handle-respond cycle until the keep-alive policy,
// a timeout or a parse failure ends it.
type Server struct {
	Handler     Handler
	ReadTimeout time.Duration
	Logger      *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[string]net.Conn

	wg         sync.WaitGroup
	inShutdown atomic.Bool

	requests    metric.Int64Counter
	activeConns metric.Int64UpDownCounter
}

func NewServer(handler Handler, logger *slog.Logger) *Server {
	s := &Server{
		Handler:     handler,
		ReadTimeout: ReadIdleTimeout,
		Logger:      logger,
		conns:       make(map[string]net.Conn),
	}

	meter := otel.Meter(instrumentationName)

	var err error
	s.requests, err = meter.Int64Counter("http.server.request_count",
		metric.WithDescription("Number of requests answered, by status code"))
	if err != nil {
		logger.Warn("request counter unavailable", "error", err)
	}
	s.activeConns, err = meter.Int64UpDownCounter("http.server.active_connections",
		metric.WithDescription("Connections currently being served"))
	if err != nil {
		logger.Warn("connection gauge unavailable", "error", err)
	}

	return s
}

// ListenAndServe binds addr with SO_REUSEADDR (and SO_REUSEPORT where the
// platform supports it) and serves until ctx is cancelled or Shutdown is
// called.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	lc := net.ListenConfig{Control: s.controlSocket}

	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}

	s.Logger.Info("server listening", "addr", addr)
	return s.Serve(ctx, listener)
}

func (s *Server) controlSocket(network, address string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
		if sockErr != nil {
			return
		}
		// SO_REUSEPORT is opportunistic; soft-fail where unsupported.
		if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
			s.Logger.Warn("SO_REUSEPORT not supported on this platform", "error", err)
		}
	})
	if err != nil {
		return err
	}
	return sockErr
}

// Serve accepts connections from listener until it is closed. Accept
// errors during normal operation are logged and the loop continues; after
// Shutdown they end the loop.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if s.inShutdown.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.Logger.Error("accept failed", "error", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.ServeConn(ctx, conn)
		}()
	}
}

// ServeConn serves one connection. The connection is owned exclusively by
// this call; the server only tracks it for coordinated shutdown.
func (s *Server) ServeConn(ctx context.Context, conn net.Conn) {
	connID := uuid.NewString()
	logger := s.Logger.With("conn", connID, "peer", connAddr(conn))

	s.trackConn(connID, conn)
	s.addActiveConn(ctx, 1)
	logger.Debug("connection accepted")

	defer func() {
		conn.Close() // a second close on the shutdown path is harmless
		s.forgetConn(connID)
		s.addActiveConn(ctx, -1)
		logger.Debug("connection closed")
	}()

	buf := make([]byte, ReadChunkSize)
	for {
		if err := conn.SetReadDeadline(time.Now().Add(s.ReadTimeout)); err != nil {
			return
		}

		n, err := conn.Read(buf)
		if err != nil {
			var netErr net.Error
			switch {
			case errors.As(err, &netErr) && netErr.Timeout():
				logger.Debug("read timed out")
			case err == io.EOF, errors.Is(err, net.ErrClosed):
				// peer closed, or we are shutting down
			default:
				logger.Error("read failed", "error", err)
			}
			return
		}
		if n == 0 {
			return
		}

		req, err := ParseRequest(buf[:n])
		if err != nil {
			logger.Error("invalid request", "error", err)
			resp := NewResponse(StatusBadRequest)
			s.writeResponse(conn, resp, logger)
			s.countRequest(ctx, "", resp.Status)
			return
		}

		resp := s.Handler(ctx, req)
		if err := s.writeResponse(conn, resp, logger); err != nil {
			return
		}
		s.countRequest(ctx, req.Method, resp.Status)
		logger.Debug("request served", "method", req.Method, "path", req.Path, "status", resp.Status)

		if shouldClose(req) {
			return
		}
	}
}

// shouldClose applies the keep-alive policy: an explicit close header ends
// the connection, and HTTP/1.0 connections end unless they opted in.
func shouldClose(req *Request) bool {
	connHeader, _ := req.Header("Connection")
	if strings.EqualFold(connHeader, "close") {
		return true
	}
	return req.Version == "HTTP/1.0" && !strings.EqualFold(connHeader, "keep-alive")
}

// Shutdown stops the listener, force-closes every tracked connection and
// waits for their handlers to return. Close errors are suppressed so the
// shutdown sequence always completes.
func (s *Server) Shutdown(ctx context.Context) error {
	s.inShutdown.Store(true)

	s.mu.Lock()
	if s.listener != nil {
		s.listener.Close()
	}
	for _, conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) writeResponse(conn net.Conn, resp *Response, logger *slog.Logger) error {
	if _, err := conn.Write(resp.Bytes()); err != nil {
		if !errors.Is(err, net.ErrClosed) {
			logger.Error("write failed", "error", err)
		}
		return err
	}
	return nil
}

func (s *Server) trackConn(id string, conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns == nil {
		s.conns = make(map[string]net.Conn)
	}
	s.conns[id] = conn
}

func (s *Server) forgetConn(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, id)
}

func (s *Server) addActiveConn(ctx context.Context, delta int64) {
	if s.activeConns != nil {
		s.activeConns.Add(ctx, delta)
	}
}

func (s *Server) countRequest(ctx context.Context, method string, status int) {
	if s.requests == nil {
		return
	}
	s.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.Int("http.response.status_code", status),
	))
}

func connAddr(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return "unknown"
}
