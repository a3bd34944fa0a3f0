package server

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/GuahBy/projetISY/internal/app/directory"
	"github.com/GuahBy/projetISY/internal/app/transport"
	"github.com/GuahBy/projetISY/internal/configs"
	"github.com/GuahBy/projetISY/internal/pkg/audit"
	"github.com/GuahBy/projetISY/internal/pkg/limiter"
	"github.com/GuahBy/projetISY/internal/pkg/logx"
)

// receivePoll is the read deadline for one receive attempt. It bounds how
// long a quiet server takes to notice cancellation.
const receivePoll = 250 * time.Millisecond

// Server owns the UDP receive loop: it reads one datagram at a time,
// validates and rate-limits it, and hands it to the dispatcher.
type Server struct {
	cfg        *configs.AppConfig
	dir        *directory.Directory
	conn       *transport.Conn
	dispatcher *Dispatcher
	limiter    *limiter.AddrRateLimiter
	sink       *audit.Sink
	logger     zerolog.Logger
}

// New wires a Server around an already-listening transport.
func New(cfg *configs.AppConfig, dir *directory.Directory, conn *transport.Conn, sink *audit.Sink) *Server {
	return &Server{
		cfg:        cfg,
		dir:        dir,
		conn:       conn,
		dispatcher: NewDispatcher(dir, conn, sink),
		limiter:    limiter.NewAddrRateLimiter(rate.Limit(20), 40),
		sink:       sink,
		logger:     logx.Logger().With().Str("component", "Server").Logger(),
	}
}

// Run drives the receive loop until the context is cancelled. Requests are
// handled strictly in arrival order on this single goroutine, which gives a
// total order over directory mutations.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info().Int("port", s.cfg.Port).Msg("Server listening.")
	s.sink.Record(audit.EventServer, "server started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Server stopping.")
			s.sink.Record(audit.EventServer, "server stopped")
			return nil
		default:
		}

		e, src, ok, cErr := s.conn.Receive(receivePoll)
		if cErr != nil {
			if src != nil {
				s.logger.Warn().Str("src", src.String()).Msg("Dropping undecodable datagram.")
			} else {
				s.logger.Warn().Int("code", cErr.Code).Msg("Receive failed.")
			}
			continue
		}
		if !ok {
			continue
		}

		if !s.limiter.Allow(src.IP.String()) {
			s.logger.Warn().Str("src", src.String()).Msg("Rate limit exceeded, dropping datagram.")
			continue
		}

		if vErr := e.Validate(); vErr != nil {
			s.logger.Warn().
				Str("src", src.String()).
				Str("kind", string(e.Kind)).
				Str("reason", vErr.Message).
				Msg("Dropping invalid envelope.")
			continue
		}

		s.dispatcher.HandleEnvelope(e, src)
	}
}
