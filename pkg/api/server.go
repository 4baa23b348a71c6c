package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Narasimha1997/ratelimiter"
	"go.uber.org/zap"
)

type Server struct {
	logger       *zap.Logger
	httpServer   *http.Server
	writeLimiter *ratelimiter.DefaultLimiter
}

type ServerOptions struct {
	httpMiddleware []httpMiddleware
	writeLimit     uint64
	writeWindow    time.Duration
}

type ServerOption func(options *ServerOptions)

func WithHttpMiddleware(m ...httpMiddleware) ServerOption {
	return func(options *ServerOptions) {
		options.httpMiddleware = m
	}
}

// WithWriteRateLimit allows at most limit POST requests per window. Zero disables the limit.
func WithWriteRateLimit(limit uint64, window time.Duration) ServerOption {
	return func(options *ServerOptions) {
		options.writeLimit = limit
		options.writeWindow = window
	}
}

func NewServer(log *zap.Logger, handler *Handler, address string, opts ...ServerOption) *Server {
	options := &ServerOptions{}
	for _, o := range opts {
		o(options)
	}
	mux := http.NewServeMux()
	handler.Routes(mux)

	var h http.Handler = mux
	for _, md := range options.httpMiddleware {
		h = md(h)
	}
	var limiter *ratelimiter.DefaultLimiter
	if options.writeLimit > 0 {
		limiter = ratelimiter.NewDefaultLimiter(options.writeLimit, options.writeWindow)
		h = writeLimitMiddleware(limiter)(h)
	}
	h = loggingMiddleware(log)(h)

	return &Server{
		logger: log,
		httpServer: &http.Server{
			Addr:    address,
			Handler: h,
		},
		writeLimiter: limiter,
	}
}

// Handler exposes the full middleware chain, used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Run() {
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		s.logger.Info("wton api quit")
		return
	}
	s.logger.Fatal("ListenAndServe() failed", zap.Error(err))
}

func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.writeLimiter != nil {
		if kerr := s.writeLimiter.Kill(); kerr != nil && err == nil {
			err = kerr
		}
	}
	return err
}
