/*
Package transport wraps the UDP socket used to exchange envelopes.

The transport is message-oriented, unordered and unreliable: one encoded
envelope per datagram, no delivery guarantee, no retries. Receive uses a
bounded read deadline to provide non-blocking poll semantics for the
single-goroutine request pumps on both sides.
*/
package transport

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/GuahBy/projetISY/internal/app/message"
	"github.com/GuahBy/projetISY/internal/pkg/errs"
	"github.com/GuahBy/projetISY/internal/pkg/logx"
)

// maxDatagramSize comfortably holds a JSON envelope at the wire field bounds.
const maxDatagramSize = 2048

// Sender is the outbound half of the transport, consumed by the dispatcher.
type Sender interface {
	Send(e message.Envelope, addr *net.UDPAddr) *errs.CustomError
}

// Conn is a UDP endpoint carrying envelopes.
type Conn struct {
	conn   *net.UDPConn
	logger zerolog.Logger
}

// Listen binds a UDP endpoint on the given port. Port 0 picks an ephemeral
// port, which is what clients use.
func Listen(port int) (*Conn, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: port})
	if err != nil {
		return nil, fmt.Errorf("failed to bind UDP port %d: %w", port, err)
	}
	return &Conn{
		conn:   conn,
		logger: logx.Logger().With().Str("component", "Transport").Str("local_addr", conn.LocalAddr().String()).Logger(),
	}, nil
}

// LocalAddr returns the bound local address.
func (c *Conn) LocalAddr() *net.UDPAddr {
	return c.conn.LocalAddr().(*net.UDPAddr)
}

// Close releases the socket.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// Send encodes the envelope and writes it as a single datagram to addr.
// Failures are reported, never retried.
func (c *Conn) Send(e message.Envelope, addr *net.UDPAddr) *errs.CustomError {
	data, err := e.Encode()
	if err != nil {
		c.logger.Error().Err(err).Str("kind", string(e.Kind)).Msg("Envelope encode failed.")
		return errs.NewError(errs.ErrTransportUnavailable)
	}
	if _, err := c.conn.WriteToUDP(data, addr); err != nil {
		c.logger.Error().Err(err).Str("dest", addr.String()).Msg("Datagram send failed.")
		return errs.NewError(errs.ErrTransportUnavailable)
	}
	return nil
}

// Receive polls for one datagram for at most the given timeout. The boolean
// reports whether a datagram arrived; an expired poll is not an error. A
// datagram that arrives but fails to decode is reported with its source
// address so the caller can log the peer.
func (c *Conn) Receive(timeout time.Duration) (message.Envelope, *net.UDPAddr, bool, *errs.CustomError) {
	if err := c.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline.")
		return message.Envelope{}, nil, false, errs.NewError(errs.ErrTransportUnavailable)
	}

	buf := make([]byte, maxDatagramSize)
	n, addr, err := c.conn.ReadFromUDP(buf)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return message.Envelope{}, nil, false, nil
		}
		c.logger.Error().Err(err).Msg("Datagram receive failed.")
		return message.Envelope{}, nil, false, errs.NewError(errs.ErrTransportUnavailable)
	}

	e, decErr := message.Decode(buf[:n])
	if decErr != nil {
		return message.Envelope{}, addr, true, decErr
	}
	return e, addr, true, nil
}
