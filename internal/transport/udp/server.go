package udp

import (
	"context"
	"errors"
	"net"
	"net/netip"

	"github.com/rs/zerolog"
)

// Handler executes one request. The server never inspects datagram
// contents itself.
type Handler interface {
	Handle(addr netip.AddrPort, raw []byte)
}

// Server is the process's single blocking receive loop. Every datagram is
// handed to a fresh goroutine, fire and forget. Fan-out is unbounded:
// there is no worker pool or admission control, an inherited limitation
// of the original design.
type Server struct {
	conn    *Conn
	handler Handler
	log     *zerolog.Logger
}

// NewServer builds the dispatch loop over an open socket.
func NewServer(conn *Conn, handler Handler, logger *zerolog.Logger) *Server {
	return &Server{conn: conn, handler: handler, log: logger}
}

// Serve blocks, receiving datagrams until ctx is canceled or the socket
// fails. Canceling ctx closes the socket to unblock the pending read.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.conn.Close()
	}()

	s.log.Info().Str("addr", s.conn.LocalAddr().String()).Msg("listening")

	buf := make([]byte, MaxDatagram)
	for {
		n, addr, err := s.conn.Read(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Warn().Err(err).Msg("read failed")
			continue
		}
		if n == 0 {
			continue
		}

		req := make([]byte, n)
		copy(req, buf[:n])
		go s.handler.Handle(addr, req)
	}
}
