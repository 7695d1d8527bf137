package transport_test

import (
	"bufio"
	"context"
	"net"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/luma/tsq/protocol"
	"github.com/luma/tsq/storage"
	"github.com/luma/tsq/transport"
)

var _ = Describe("transport", func() {
	Describe("Server", func() {
		It("greets new connections with the banner", func() {
			server := makeServer("")
			defer func() {
				Expect(server.Close()).To(Succeed())
			}()

			conn, r := dial(server.Addr())
			defer conn.Close()

			line, err := r.ReadString('\n')
			Expect(err).To(Succeed())
			Expect(line).To(Equal("TS3\n"))
		})

		It("can be given a different banner", func() {
			server := makeServer("NOT-A-QUERY-PORT")
			defer func() {
				Expect(server.Close()).To(Succeed())
			}()

			conn, r := dial(server.Addr())
			defer conn.Close()

			line, err := r.ReadString('\n')
			Expect(err).To(Succeed())
			Expect(line).To(Equal("NOT-A-QUERY-PORT\n"))
		})

		It("answers unknown commands with a not-found status", func() {
			server := makeServer("")
			defer func() {
				Expect(server.Close()).To(Succeed())
			}()

			conn, r := dial(server.Addr())
			defer conn.Close()

			_, err := r.ReadString('\n') // banner
			Expect(err).To(Succeed())

			_, err = conn.Write([]byte("nosuchcommand\n"))
			Expect(err).To(Succeed())

			line, err := r.ReadString('\n')
			Expect(err).To(Succeed())

			parsed := protocol.ParseLine(line)
			Expect(parsed.Command).To(Equal("error"))
			Expect(parsed.Get("id")).To(Equal("256"))
		})

		It("dispatches to registered handlers and terminates every cycle with a status", func() {
			log, err := zap.NewDevelopment()
			Expect(err).To(Succeed())

			server := transport.NewServer(transport.Options{Host: "127.0.0.1", Port: 0, Log: log})
			server.Handle("whoami", func(line protocol.Line) []string {
				return []string{"client_login_name=serveradmin"}
			})

			Expect(server.Start(context.Background())).To(Succeed())

			defer func() {
				Expect(server.Close()).To(Succeed())
			}()

			conn, r := dial(server.Addr())
			defer conn.Close()

			_, err = r.ReadString('\n') // banner
			Expect(err).To(Succeed())

			_, err = conn.Write([]byte("whoami\n"))
			Expect(err).To(Succeed())

			data, err := r.ReadString('\n')
			Expect(err).To(Succeed())
			Expect(protocol.ParseLine(data).Get("client_login_name")).To(Equal("serveradmin"))

			status, err := r.ReadString('\n')
			Expect(err).To(Succeed())
			Expect(protocol.ParseLine(status).Get("id")).To(Equal("0"))
		})

		It("acknowledges quit and closes the connection", func() {
			server := makeServer("")
			defer func() {
				Expect(server.Close()).To(Succeed())
			}()

			conn, r := dial(server.Addr())
			defer conn.Close()

			_, err := r.ReadString('\n') // banner
			Expect(err).To(Succeed())

			_, err = conn.Write([]byte("quit\n"))
			Expect(err).To(Succeed())

			status, err := r.ReadString('\n')
			Expect(err).To(Succeed())
			Expect(protocol.ParseLine(status).Get("id")).To(Equal("0"))

			// The server hangs up after quit.
			_, err = r.ReadString('\n')
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Simulator", func() {
		It("authenticates against the stored credentials", func() {
			server := makeSimulator()
			defer func() {
				Expect(server.Close()).To(Succeed())
			}()

			conn, r := dial(server.Addr())
			defer conn.Close()

			_, err := r.ReadString('\n') // banner
			Expect(err).To(Succeed())

			_, err = conn.Write([]byte("login client_login_name=serveradmin client_login_password=secret\n"))
			Expect(err).To(Succeed())

			status, err := r.ReadString('\n')
			Expect(err).To(Succeed())
			Expect(protocol.ParseLine(status).Get("id")).To(Equal("0"))

			_, err = conn.Write([]byte("login client_login_name=serveradmin client_login_password=wrong\n"))
			Expect(err).To(Succeed())

			status, err = r.ReadString('\n')
			Expect(err).To(Succeed())
			Expect(protocol.ParseLine(status).Get("id")).To(Equal("520"))
		})

		It("lists the stored virtual servers", func() {
			server := makeSimulator()
			defer func() {
				Expect(server.Close()).To(Succeed())
			}()

			conn, r := dial(server.Addr())
			defer conn.Close()

			_, err := r.ReadString('\n') // banner
			Expect(err).To(Succeed())

			_, err = conn.Write([]byte("serverlist\n"))
			Expect(err).To(Succeed())

			data, err := r.ReadString('\n')
			Expect(err).To(Succeed())

			record := protocol.ParseLine(data)
			Expect(record.Command).To(BeEmpty())
			Expect(record.Get("virtualserver_id")).To(Equal("1"))
			Expect(record.Get("virtualserver_name")).To(Equal("Test Server"))

			status, err := r.ReadString('\n')
			Expect(err).To(Succeed())
			Expect(protocol.ParseLine(status).Get("id")).To(Equal("0"))
		})

		It("rejects switching to an unknown virtual server", func() {
			server := makeSimulator()
			defer func() {
				Expect(server.Close()).To(Succeed())
			}()

			conn, r := dial(server.Addr())
			defer conn.Close()

			_, err := r.ReadString('\n') // banner
			Expect(err).To(Succeed())

			_, err = conn.Write([]byte("use sid=1\n"))
			Expect(err).To(Succeed())

			status, err := r.ReadString('\n')
			Expect(err).To(Succeed())
			Expect(protocol.ParseLine(status).Get("id")).To(Equal("0"))

			_, err = conn.Write([]byte("use sid=99\n"))
			Expect(err).To(Succeed())

			status, err = r.ReadString('\n')
			Expect(err).To(Succeed())
			Expect(protocol.ParseLine(status).Get("id")).To(Equal("1024"))
		})
	})
})

func makeServer(banner string) *transport.Server {
	log, err := zap.NewDevelopment()
	Expect(err).To(Succeed())

	server := transport.NewServer(transport.Options{
		Host:   "127.0.0.1",
		Port:   0,
		Banner: banner,
		Log:    log,
	})

	Expect(server.Start(context.Background())).To(Succeed())

	return server
}

func makeSimulator() *transport.Server {
	log, err := zap.NewDevelopment()
	Expect(err).To(Succeed())

	store := storage.NewInmemoryStore()
	Expect(store.Restore([]byte(`{
		"credentials": {"serveradmin": "secret"},
		"servers": [
			{"virtualserver_id": 1, "virtualserver_name": "Test Server", "virtualserver_port": 9987}
		]
	}`))).To(Succeed())

	server := transport.NewSimulator(transport.Options{
		Host: "127.0.0.1",
		Port: 0,
		Log:  log,
	}, store)

	Expect(server.Start(context.Background())).To(Succeed())

	return server
}

func dial(addr string) (net.Conn, *bufio.Reader) {
	conn, err := net.Dial("tcp", addr)
	Expect(err).To(Succeed())

	return conn, bufio.NewReader(conn)
}
