package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/luma/tsq/protocol"
)

// Banner is the greeting line a ServerQuery endpoint sends on connect.
const Banner = "TS3"

// ErrConnectionFailure indicates that the TCP connection to the query
// port could not be opened.
var ErrConnectionFailure = errors.New("could not connect to query port")

// Conn is one ServerQuery session. It owns the socket and its read
// buffer exclusively.
//
// The protocol is strictly half-duplex: one request, then its response
// lines, then the next request. Conn therefore provides no locking and
// must not be shared between goroutines with commands in flight.
type Conn struct {
	conn net.Conn
	r    *bufio.Reader

	connected bool

	bytesIn  uint64
	bytesOut uint64

	limiter *rate.Limiter

	log *zap.Logger
}

// Option configures a Conn.
type Option func(*Conn)

// WithCommandRate throttles outgoing commands. Query ports ban hosts
// that flood commands, so long running callers should set a limit well
// inside the server's whitelist settings.
func WithCommandRate(limit rate.Limit, burst int) Option {
	return func(c *Conn) {
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

func New(log *zap.Logger, opts ...Option) *Conn {
	c := &Conn{
		log: log,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Connect opens a TCP stream to the query port and reads the greeting
// banner.
//
// A banner other than "TS3" does not return an error: the session is
// left with the socket open but not connected, and every later command
// is a no-op. Callers that care must check Connected(). This mirrors
// the long-standing behaviour of query tooling in the wild and is kept
// so that misbehaving endpoints fail soft rather than tearing down.
func (c *Conn) Connect(ctx context.Context, host string, port int) error {
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	var d net.Dialer

	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrConnectionFailure, addr, err)
	}

	c.conn = conn
	c.r = bufio.NewReader(conn)

	banner, err := c.readLine()
	if err != nil {
		// Unlike a wrong banner, a failed read means there is no
		// session to keep around at all.
		conn.Close()
		c.conn = nil
		c.r = nil

		return fmt.Errorf("failed to read greeting banner: %w", err)
	}

	if strings.TrimSpace(banner) != Banner {
		c.log.Warn("Unexpected greeting banner, session left unconnected",
			zap.String("banner", strings.TrimSpace(banner)))
		return nil
	}

	c.connected = true
	c.log.Info("Connected", zap.String("addr", addr))

	return nil
}

// Disconnect tells the server we are leaving, then closes the socket.
//
// The quit command is fire-and-forget: whatever the server answers is
// drained and dropped. Disconnecting an unconnected session is a
// no-op.
func (c *Conn) Disconnect() error {
	if c.conn == nil {
		return nil
	}

	if c.connected {
		c.send([]byte(protocol.Command{Name: "quit"}.Encode() + "\n"))

		// Drain the server's answer, if any. The socket is going away
		// either way.
		if line, err := c.readLine(); err == nil {
			_ = protocol.ParseLine(line)
		}
	}

	err := c.conn.Close()
	c.conn = nil
	c.r = nil
	c.connected = false

	c.log.Info("Disconnected")

	return err
}

// SendCommand runs one full request cycle: encode and transmit the
// command, then accumulate data lines until the terminal status line
// arrives.
//
// A nonzero status id is not an error; it comes back inside the
// Response and can be lifted into one via Response.ErrorOrNil. The
// returned error covers transport failures only.
//
// Reads block without a deadline. The context gates the pre-write
// throttle, not the read loop; a stalled server can only be unblocked
// by closing the socket.
func (c *Conn) SendCommand(ctx context.Context, name string, keys []protocol.KeyValue, opts []string) (*protocol.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	cmd := protocol.Command{Name: name, Keys: keys, Opts: opts}
	c.send([]byte(cmd.Encode() + "\n"))

	if !c.connected {
		// The write above was a silent no-op, there is no cycle to
		// resolve.
		return &protocol.Response{}, nil
	}

	resp := &protocol.Response{}

	for {
		raw, err := c.readLine()
		if err != nil {
			return nil, fmt.Errorf("failed to read response line: %w", err)
		}

		line := protocol.ParseLine(raw)
		if line.IsStatus() {
			resp.Status = protocol.StatusFromLine(line)
			break
		}

		resp.Records = append(resp.Records, protocol.Record(line.Keys))
	}

	return resp, nil
}

// send writes raw bytes to the socket. When the session is not
// connected it silently does nothing, so stray callers cannot crash a
// torn down session.
func (c *Conn) send(payload []byte) {
	if !c.connected {
		return
	}

	n, err := c.conn.Write(payload)
	c.bytesOut += uint64(n)

	if err != nil {
		c.log.Warn("Failed to write to query port", zap.Error(err))
		return
	}

	c.log.Debug("Sent", zap.ByteString("payload", payload))
}

func (c *Conn) readLine() (string, error) {
	line, err := c.r.ReadString('\n')
	c.bytesIn += uint64(len(line))

	if err != nil {
		return "", err
	}

	return line, nil
}

// Connected reports whether the greeting handshake completed and the
// session has not been torn down.
func (c *Conn) Connected() bool {
	return c.connected
}

// BytesIn returns the number of bytes read from the server.
func (c *Conn) BytesIn() uint64 {
	return c.bytesIn
}

// BytesOut returns the number of bytes written to the server.
func (c *Conn) BytesOut() uint64 {
	return c.bytesOut
}
