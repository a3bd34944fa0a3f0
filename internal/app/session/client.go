package session

import (
	"bufio"
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/GuahBy/projetISY/internal/app/message"
	"github.com/GuahBy/projetISY/internal/app/transport"
	"github.com/GuahBy/projetISY/internal/pkg/errs"
	"github.com/GuahBy/projetISY/internal/pkg/logx"
)

const (
	// ConnectTimeout bounds the initial handshake. Missing it is fatal: the
	// server is unreachable or the name was swallowed.
	ConnectTimeout = 2000 * time.Millisecond

	// ListTimeout bounds a directory listing wait. Missing it is recoverable:
	// the client reports the timeout and keeps running.
	ListTimeout = 500 * time.Millisecond

	receivePoll = 250 * time.Millisecond
)

// Client drives one chat session over an unreliable transport. One goroutine
// reads user input and sends requests; another receives datagrams and either
// resolves a pending wait or renders the message.
type Client struct {
	conn   *transport.Conn
	server *net.UDPAddr
	state  *State
	out    io.Writer
	logger zerolog.Logger

	mu      sync.Mutex
	pending map[string]chan message.Envelope
}

// NewClient wraps an already-listening transport. Output rendering goes to
// out, normally the terminal.
func NewClient(conn *transport.Conn, server *net.UDPAddr, username string, out io.Writer) *Client {
	return &Client{
		conn:    conn,
		server:  server,
		state:   NewState(username),
		out:     out,
		logger:  logx.Logger().With().Str("component", "Client").Logger(),
		pending: make(map[string]chan message.Envelope),
	}
}

// State exposes the session state, mainly for tests.
func (c *Client) State() *State {
	return c.state
}

// send transmits a request to the server.
func (c *Client) send(e message.Envelope) *errs.CustomError {
	return c.conn.Send(e, c.server)
}

// await registers a correlation wait for the given request ID. The returned
// channel receives the first response carrying that ID.
func (c *Client) await(id string) chan message.Envelope {
	ch := make(chan message.Envelope, 1)
	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()
	return ch
}

// forget drops a correlation wait that timed out.
func (c *Client) forget(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// resolve hands a response to its pending wait, if one is registered. It
// reports whether the envelope was consumed.
func (c *Client) resolve(e message.Envelope) bool {
	c.mu.Lock()
	ch, ok := c.pending[e.ID]
	if ok {
		delete(c.pending, e.ID)
	}
	c.mu.Unlock()
	if !ok {
		return false
	}
	ch <- e
	return true
}

// request sends a request and waits for the correlated response within the
// timeout. A nil error with ok=false means the wait timed out.
func (c *Client) request(e message.Envelope, timeout time.Duration) (message.Envelope, bool, *errs.CustomError) {
	ch := c.await(e.ID)
	if cErr := c.send(e); cErr != nil {
		c.forget(e.ID)
		return message.Envelope{}, false, cErr
	}

	select {
	case response := <-ch:
		return response, true, nil
	case <-time.After(timeout):
		c.forget(e.ID)
		return message.Envelope{}, false, nil
	}
}

// Connect performs the initial handshake. A missed acknowledgement within
// ConnectTimeout is returned as a timeout error; the caller should abort.
func (c *Client) Connect() *errs.CustomError {
	username := c.state.Username()
	req := message.New(message.KindConnect, username, "", "", "")

	ack, ok, cErr := c.request(req, ConnectTimeout)
	if cErr != nil {
		return cErr
	}
	if !ok {
		return errs.NewError(errs.ErrTimeout)
	}
	if ack.Kind != message.KindConnectAck {
		return errs.NewError(errs.ErrInvalidEnvelope)
	}

	c.logger.Info().Str("username", username).Str("server", c.server.String()).Msg("Connected.")
	return nil
}

// Run starts the receive loop and consumes input lines until the reader is
// exhausted, the user quits, or the context is cancelled.
func (c *Client) Run(ctx context.Context, input io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.receiveLoop(ctx)
	}()

	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			cancel()
			wg.Wait()
			return nil
		default:
		}

		if quit := c.handleLine(scanner.Text()); quit {
			break
		}
	}

	c.disconnect()
	cancel()
	wg.Wait()
	return scanner.Err()
}

// disconnect tells the server this session is over. Best effort: the
// datagram may be lost and the server copes with the stale entry.
func (c *Client) disconnect() {
	req := message.New(message.KindDisconnect, c.state.Username(), "", "", "")
	if cErr := c.send(req); cErr != nil {
		c.logger.Warn().Msg("Disconnect notification failed.")
	}
}

// receiveLoop pulls datagrams until cancellation. Responses with a pending
// wait are handed to the waiter; everything else is rendered.
func (c *Client) receiveLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		e, _, ok, cErr := c.conn.Receive(receivePoll)
		if cErr != nil {
			c.logger.Warn().Int("code", cErr.Code).Msg("Dropping undecodable datagram.")
			continue
		}
		if !ok {
			continue
		}

		if c.resolve(e) {
			continue
		}
		c.render(e)
	}
}
