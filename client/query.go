package client

import (
	"context"

	"go.uber.org/zap"

	"github.com/luma/tsq/protocol"
)

// Server wraps a Conn with the handful of convenience commands most
// admin tooling needs. It is thin glue: every method is exactly one
// SendCommand call.
type Server struct {
	*Conn
}

func NewServer(log *zap.Logger, opts ...Option) *Server {
	return &Server{Conn: New(log, opts...)}
}

// Login authenticates the query session.
func (s *Server) Login(ctx context.Context, name, password string) error {
	resp, err := s.SendCommand(ctx, "login", []protocol.KeyValue{
		{Key: "client_login_name", Value: protocol.Scalar(name)},
		{Key: "client_login_password", Value: protocol.Scalar(password)},
	}, nil)
	if err != nil {
		return err
	}

	return resp.ErrorOrNil()
}

// ServerList returns one record per virtual server on the instance.
func (s *Server) ServerList(ctx context.Context) ([]protocol.Record, error) {
	resp, err := s.SendCommand(ctx, "serverlist", nil, nil)
	if err != nil {
		return nil, err
	}

	if err := resp.ErrorOrNil(); err != nil {
		return nil, err
	}

	return resp.Records, nil
}

// Use switches the session onto a virtual server. Most commands only
// make sense after a Use.
func (s *Server) Use(ctx context.Context, sid int) error {
	resp, err := s.SendCommand(ctx, "use", []protocol.KeyValue{
		{Key: "sid", Value: protocol.Int(sid)},
	}, nil)
	if err != nil {
		return err
	}

	return resp.ErrorOrNil()
}

// GM broadcasts a global message to the current virtual server.
func (s *Server) GM(ctx context.Context, msg string) error {
	resp, err := s.SendCommand(ctx, "gm", []protocol.KeyValue{
		{Key: "msg", Value: protocol.Scalar(msg)},
	}, nil)
	if err != nil {
		return err
	}

	return resp.ErrorOrNil()
}
