package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/sagarc03/tobi"
)

// accessLogTimeout bounds a single access log write.
const accessLogTimeout = 5 * time.Second

const (
	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

// Config controls connection handling.
type Config struct {
	// MaxConnections caps the connections being served at once. Zero means
	// no limit.
	MaxConnections int64
	// MaxRequestBytes caps the request head. Zero means no limit.
	MaxRequestBytes int
	// ReadTimeout bounds the time to receive the request. Zero disables it.
	ReadTimeout time.Duration
	// WriteTimeout bounds the time to send the response. Zero disables it.
	WriteTimeout time.Duration
}

// Responder produces the response for one request text.
type Responder interface {
	Respond(ctx context.Context, text string) tobi.Response
}

// Server accepts connections and answers exactly one request on each.
type Server struct {
	engine    Responder
	cfg       Config
	sem       *semaphore.Weighted
	accessLog tobi.AccessLogRepo
	logger    *slog.Logger

	accepted atomic.Int64
	inFlight atomic.Int64
	served   atomic.Int64
	dropped  atomic.Int64
	byStatus map[tobi.StatusCode]*atomic.Int64
}

// Option configures a Server.
type Option func(*Server)

// WithAccessLog records one entry per answered connection in repo.
func WithAccessLog(repo tobi.AccessLogRepo) Option {
	return func(s *Server) {
		s.accessLog = repo
	}
}

// WithLogger sets the logger for connection diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// New creates a Server that answers requests with engine.
func New(engine Responder, cfg Config, opts ...Option) (*Server, error) {
	if engine == nil {
		return nil, fmt.Errorf("new server: %w: engine cannot be nil", tobi.ErrInvalidInput)
	}
	if cfg.MaxConnections < 0 {
		return nil, fmt.Errorf("new server: %w: max connections cannot be negative", tobi.ErrInvalidInput)
	}

	s := &Server{
		engine:   engine,
		cfg:      cfg,
		logger:   slog.Default(),
		byStatus: make(map[tobi.StatusCode]*atomic.Int64),
	}
	for _, code := range tobi.StatusCodes() {
		s.byStatus[code] = new(atomic.Int64)
	}
	if cfg.MaxConnections > 0 {
		s.sem = semaphore.NewWeighted(cfg.MaxConnections)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Serve accepts connections on ln until ctx is cancelled or ln is closed,
// handing each one to its own goroutine. When the connection limit is
// reached the accept loop waits for a slot.
//
// Cancelling ctx closes ln and Serve returns nil. Connections already
// accepted run to completion.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if ln == nil {
		return fmt.Errorf("serve: %w: listener cannot be nil", tobi.ErrInvalidInput)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	// Workers outlive Serve, so they do not inherit its cancellation.
	workerCtx := context.WithoutCancel(ctx)

	var backoff time.Duration
	for {
		if err := s.acquire(ctx); err != nil {
			return nil
		}

		conn, err := ln.Accept()
		if err != nil {
			s.release()
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}

			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				backoff = nextBackoff(backoff)
				s.logger.Warn("accept failed, retrying", "err", err, "backoff", backoff)
				select {
				case <-time.After(backoff):
					continue
				case <-ctx.Done():
					return nil
				}
			}
			return fmt.Errorf("serve: accept: %w", err)
		}

		backoff = 0
		s.accepted.Add(1)
		go s.handle(workerCtx, conn)
	}
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return minAcceptBackoff
	}
	return min(d*2, maxAcceptBackoff)
}

func (s *Server) acquire(ctx context.Context) error {
	if s.sem == nil {
		return ctx.Err()
	}
	return s.sem.Acquire(ctx, 1)
}

func (s *Server) release() {
	if s.sem != nil {
		s.sem.Release(1)
	}
}

// handle runs one connection through read, respond and close. A failed
// read drops the connection without a response.
func (s *Server) handle(ctx context.Context, conn net.Conn) {
	start := time.Now()
	id := uuid.New()
	remote := conn.RemoteAddr().String()
	logger := s.logger.With("conn_id", id.String(), "remote_addr", remote)

	s.inFlight.Add(1)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("connection worker panicked", "panic", r)
			s.dropped.Add(1)
		}
		_ = conn.Close()
		s.inFlight.Add(-1)
		s.release()
	}()

	if s.cfg.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(start.Add(s.cfg.ReadTimeout))
	}

	text, err := tobi.ReadRequest(ctx, conn, s.cfg.MaxRequestBytes)
	if err != nil {
		s.dropped.Add(1)
		if tobi.IsClientError(err) {
			logger.Debug("dropping connection", "err", err)
		} else {
			logger.Warn("dropping connection", "err", err)
		}
		return
	}

	resp := s.engine.Respond(ctx, text)

	if s.cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}

	n, err := conn.Write(resp.Bytes())
	if err != nil {
		s.dropped.Add(1)
		logger.Warn("write response", "err", err, "status", int(resp.Code))
		return
	}

	s.served.Add(1)
	if counter, ok := s.byStatus[resp.Code]; ok {
		counter.Add(1)
	}

	elapsed := time.Since(start)
	logger.Info("request served",
		"method", resp.Request.Method,
		"target", resp.Request.Target,
		"status", int(resp.Code),
		"bytes", n,
		"duration", elapsed,
	)

	s.record(ctx, logger, tobi.AccessEntry{
		ID:             id,
		RemoteAddr:     remote,
		Method:         resp.Request.Method,
		Target:         resp.Request.Target,
		Status:         int(resp.Code),
		BytesSent:      int64(n),
		DurationMicros: elapsed.Microseconds(),
		CreatedAt:      start,
	})
}

func (s *Server) record(ctx context.Context, logger *slog.Logger, entry tobi.AccessEntry) {
	if s.accessLog == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, accessLogTimeout)
	defer cancel()

	if err := s.accessLog.Record(ctx, entry); err != nil {
		logger.Warn("record access entry", "err", err)
	}
}

// Stats returns a snapshot of the connection counters.
func (s *Server) Stats() tobi.Stats {
	st := tobi.Stats{
		Accepted: s.accepted.Load(),
		InFlight: s.inFlight.Load(),
		Served:   s.served.Load(),
		Dropped:  s.dropped.Load(),
		ByStatus: make(map[tobi.StatusCode]int64, len(s.byStatus)),
	}
	for code, counter := range s.byStatus {
		st.ByStatus[code] = counter.Load()
	}
	return st
}
