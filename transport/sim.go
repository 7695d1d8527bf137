package transport

import (
	"strings"

	"github.com/luma/tsq/protocol"
	"github.com/luma/tsq/storage"
)

// Statuses the real server answers for the commands the simulator
// knows about.
const (
	invalidLoginStatus  = `error id=520 msg=invalid\sloginname\sor\spassword`
	invalidServerStatus = `error id=1024 msg=invalid\sserverID`
	missingParamStatus  = `error id=1538 msg=parameter\snot\sfound`
)

// NewSimulator builds a Server preloaded with handlers for the basic
// admin command set (login, use, serverlist, gm), all backed by the
// given store.
//
// The store document looks like
//
//	{
//	  "credentials": {"serveradmin": "secret"},
//	  "servers": [
//	    {"virtualserver_id": 1, "virtualserver_name": "Gaming", "virtualserver_port": 9987}
//	  ]
//	}
func NewSimulator(options Options, store storage.Store) *Server {
	s := NewServer(options)

	s.Handle("login", func(line protocol.Line) []string {
		name := line.Get("client_login_name")
		password := line.Get("client_login_password")

		if name == "" || password == "" {
			return []string{missingParamStatus}
		}

		want := store.Get("credentials." + name)
		if !want.Exists() || want.String() != password {
			return []string{invalidLoginStatus}
		}

		return []string{OkStatus}
	})

	s.Handle("use", func(line protocol.Line) []string {
		sid := line.Get("sid")
		if sid == "" {
			return []string{missingParamStatus}
		}

		for _, server := range store.Get("servers").Array() {
			if server.Get("virtualserver_id").String() == sid {
				return []string{OkStatus}
			}
		}

		return []string{invalidServerStatus}
	})

	s.Handle("serverlist", func(line protocol.Line) []string {
		var lines []string

		// Data lines carry no leading command token.
		for _, server := range store.Get("servers").Array() {
			tokens := []string{
				"virtualserver_id=" + protocol.Escape(server.Get("virtualserver_id").String()),
				"virtualserver_name=" + protocol.Escape(server.Get("virtualserver_name").String()),
				"virtualserver_port=" + protocol.Escape(server.Get("virtualserver_port").String()),
			}

			lines = append(lines, strings.Join(tokens, " "))
		}

		lines = append(lines, OkStatus)
		return lines
	})

	s.Handle("gm", func(line protocol.Line) []string {
		if _, ok := line.Keys["msg"]; !ok {
			return []string{missingParamStatus}
		}

		return []string{OkStatus}
	})

	return s
}
