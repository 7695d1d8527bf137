package transport

import "go.uber.org/zap"

type Options struct {
	// Host to listen on
	Host string

	// Port to listen on. Port 0 picks a free one; see Server.Addr.
	Port int

	// Banner is the greeting line sent to every new connection.
	// Defaults to "TS3". Tests use this to simulate endpoints that are
	// not query ports at all.
	Banner string

	Log *zap.Logger
}
