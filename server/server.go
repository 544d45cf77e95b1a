// Package server exposes a ledger handle over TCP: newline-delimited
// JSON requests, one goroutine per connection. The ledger core never
// performs I/O; all timeouts live at this boundary.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	ledger "github.com/corebank/ledger"
	"github.com/corebank/ledger/protocol"
)

// Options configures a Server.
type Options struct {
	// Addr is the listen address. Defaults to ":8080".
	Addr string

	// Timeout bounds each request read and each response write on the
	// connection. Zero means no deadline. It never applies inside the
	// ledger critical section.
	Timeout time.Duration

	Logger  *slog.Logger
	Metrics *Metrics
}

// Server accepts client connections and feeds their requests through a
// Handler. A client abandoning its connection does not affect an
// in-flight mutation: once begun, an operation runs to completion.
type Server struct {
	handler *Handler
	opts    Options
	logger  *slog.Logger

	mu     sync.Mutex
	ln     net.Listener
	closed bool
	wg     sync.WaitGroup
}

// New creates a server for the given ledger handle.
func New(h *ledger.Handle, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Server{
		handler: NewHandler(h, opts.Logger, opts.Metrics),
		opts:    opts,
		logger:  opts.Logger,
	}
}

// ListenAndServe binds the configured address and serves until Shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ln.Close()
		return errors.New("server: already shut down")
	}
	s.ln = ln
	s.mu.Unlock()

	s.logger.Info("bank server listening", slog.String("addr", ln.Addr().String()))
	for {
		conn, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return nil
			}
			return fmt.Errorf("server: accept: %w", err)
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

// Addr returns the bound listener address, nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Shutdown stops accepting connections and waits for in-flight
// connections to drain, or for ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	ln := s.ln
	s.mu.Unlock()
	if ln != nil {
		_ = ln.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("server: shutdown: %w", ctx.Err())
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	remote := conn.RemoteAddr().String()
	s.logger.Debug("client connected", slog.String("remote", remote))

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	enc := json.NewEncoder(conn)

	for {
		if s.opts.Timeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.opts.Timeout))
		}
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				s.logger.Debug("client read failed",
					slog.String("remote", remote), slog.Any("error", err))
			}
			return
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req protocol.Request
		var resp protocol.Response
		if err := json.Unmarshal(line, &req); err != nil {
			resp = protocol.Err(uuid.Nil, protocol.InvalidFormat)
		} else {
			// The connection context is deliberately not threaded into
			// the ledger call: a mutation that has begun must not be
			// cancelled by a disconnecting client.
			resp = s.handler.Handle(context.Background(), req)
		}

		if s.opts.Timeout > 0 {
			_ = conn.SetWriteDeadline(time.Now().Add(s.opts.Timeout))
		}
		if err := enc.Encode(resp); err != nil {
			s.logger.Debug("client write failed",
				slog.String("remote", remote), slog.Any("error", err))
			return
		}
	}
}
