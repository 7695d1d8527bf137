package transport

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"sync"

	reuseport "github.com/kavu/go_reuseport"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/luma/tsq/protocol"
)

// NotFoundStatus is the status line answered for commands no handler
// claims.
const NotFoundStatus = `error id=256 msg=command\snot\sfound`

// OkStatus is the all-good status line.
const OkStatus = "error id=0 msg=ok"

// Handler answers one request line with the response lines to write
// back, the last of which should be a status line. Handlers returning
// no lines get an implicit OkStatus appended so that every cycle still
// terminates.
type Handler func(line protocol.Line) []string

// Server is a scriptable ServerQuery endpoint. It speaks the real wire
// protocol over real sockets so that client code can be exercised
// end to end, and doubles as a local development simulator.
type Server struct {
	cancel     context.CancelFunc
	stopWaiter sync.WaitGroup

	addr   string
	banner string

	listener net.Listener

	mu          sync.Mutex
	activeConns map[net.Conn]struct{}
	handlers    map[string]Handler

	log *zap.Logger
}

func NewServer(options Options) *Server {
	banner := options.Banner
	if banner == "" {
		banner = "TS3"
	}

	return &Server{
		addr:        net.JoinHostPort(options.Host, strconv.Itoa(options.Port)),
		banner:      banner,
		activeConns: make(map[net.Conn]struct{}),
		handlers:    make(map[string]Handler),
		log:         options.Log,
	}
}

// Handle registers the handler for a command name. Not safe to call
// once Start has been called.
func (s *Server) Handle(command string, handler Handler) {
	s.handlers[command] = handler
}

// Start begins accepting connections. It returns once the listener is
// bound; the accept loop runs until the context is cancelled or Close
// is called.
func (s *Server) Start(parentCtx context.Context) error {
	ctx, cancel := context.WithCancel(parentCtx)
	s.cancel = cancel

	listener, err := reuseport.Listen("tcp", s.addr)
	if err != nil {
		cancel()
		return err
	}

	s.listener = listener

	s.log.Info("Query endpoint listening", zap.String("addr", listener.Addr().String()))

	s.stopWaiter.Add(1)

	go func() {
		defer s.stopWaiter.Done()
		s.acceptLoop(ctx)
	}()

	return nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Close stops the listener and tears down every active connection.
func (s *Server) Close() (err error) {
	s.cancel()

	if cerr := s.listener.Close(); cerr != nil {
		err = multierr.Append(err, cerr)
	}

	s.mu.Lock()
	for conn := range s.activeConns {
		if cerr := conn.Close(); cerr != nil {
			err = multierr.Append(err, cerr)
		}

		delete(s.activeConns, conn)
	}
	s.mu.Unlock()

	s.stopWaiter.Wait()

	return err
}

func (s *Server) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			netOpError := new(net.OpError)

			if errors.As(err, &netOpError) && strings.Contains(netOpError.Error(), "use of closed network connection") {
				// The listener was closed while we were waiting for new
				// connections, that's fine.
				return
			}

			s.log.Warn("Failed to accept", zap.Error(err))
			return
		}

		s.addConn(conn)
		s.stopWaiter.Add(1)

		go func() {
			defer s.stopWaiter.Done()
			s.serveConn(ctx, conn)
		}()
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	log := s.log.Named("conn").With(zap.String("remote", conn.RemoteAddr().String()))

	defer func() {
		s.removeConn(conn)
		conn.Close()
		log.Debug("Connection closed")
	}()

	if _, err := conn.Write([]byte(s.banner + "\n")); err != nil {
		log.Warn("Failed to send banner", zap.Error(err))
		return
	}

	r := bufio.NewReader(conn)

	for {
		if ctx.Err() != nil {
			return
		}

		raw, err := r.ReadString('\n')
		if err != nil {
			return
		}

		line := protocol.ParseLine(raw)
		log.Debug("Request", zap.String("command", line.Command))

		if line.Command == "quit" {
			s.writeLines(conn, log, []string{OkStatus})
			return
		}

		handler, ok := s.handlers[line.Command]
		if !ok {
			s.writeLines(conn, log, []string{NotFoundStatus})
			continue
		}

		replies := handler(line)
		if len(replies) == 0 || !protocol.ParseLine(replies[len(replies)-1]).IsStatus() {
			replies = append(replies, OkStatus)
		}

		s.writeLines(conn, log, replies)
	}
}

func (s *Server) writeLines(conn net.Conn, log *zap.Logger, lines []string) {
	for _, line := range lines {
		if _, err := conn.Write([]byte(line + "\n")); err != nil {
			log.Warn("Failed to write response line", zap.Error(err))
			return
		}
	}
}

func (s *Server) addConn(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activeConns[conn] = struct{}{}
}

func (s *Server) removeConn(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.activeConns, conn)
}
