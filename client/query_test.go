package client_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/tsq/client"
	"github.com/luma/tsq/protocol"
	"github.com/luma/tsq/storage"
	"github.com/luma/tsq/transport"
)

var _ = Describe("client / Server", func() {
	var (
		sim *transport.Server
		srv *client.Server
	)

	BeforeEach(func() {
		store := storage.NewInmemoryStore()
		Expect(store.Restore([]byte(`{
			"credentials": {"serveradmin": "secret"},
			"servers": [
				{"virtualserver_id": 1, "virtualserver_name": "Test Server", "virtualserver_port": 9987},
				{"virtualserver_id": 2, "virtualserver_name": "Second", "virtualserver_port": 9988}
			]
		}`))).To(Succeed())

		sim = transport.NewSimulator(transport.Options{
			Host: "127.0.0.1",
			Port: 0,
			Log:  testLogger(),
		}, store)
		Expect(sim.Start(context.Background())).To(Succeed())

		srv = client.NewServer(testLogger())
		host, port := hostPort(sim.Addr())
		Expect(srv.Connect(context.Background(), host, port)).To(Succeed())
	})

	AfterEach(func() {
		Expect(srv.Disconnect()).To(Succeed())
		Expect(sim.Close()).To(Succeed())
	})

	Describe("Login()", func() {
		It("succeeds with the right credentials", func() {
			Expect(srv.Login(context.Background(), "serveradmin", "secret")).To(Succeed())
		})

		It("surfaces the server's rejection", func() {
			err := srv.Login(context.Background(), "serveradmin", "nope")

			serverErr := new(protocol.ServerError)
			Expect(errors.As(err, &serverErr)).To(BeTrue())
			Expect(serverErr.ID).To(Equal("520"))
		})
	})

	Describe("ServerList()", func() {
		It("returns one record per virtual server", func() {
			records, err := srv.ServerList(context.Background())
			Expect(err).To(Succeed())

			Expect(records).To(HaveLen(2))
			Expect(records[0].Get("virtualserver_name")).To(Equal("Test Server"))
			Expect(records[1].Get("virtualserver_port")).To(Equal("9988"))
		})
	})

	Describe("Use()", func() {
		It("switches onto an existing virtual server", func() {
			Expect(srv.Use(context.Background(), 2)).To(Succeed())
		})

		It("fails for an unknown id", func() {
			err := srv.Use(context.Background(), 99)

			serverErr := new(protocol.ServerError)
			Expect(errors.As(err, &serverErr)).To(BeTrue())
			Expect(serverErr.ID).To(Equal("1024"))
		})
	})

	Describe("GM()", func() {
		It("broadcasts a message", func() {
			Expect(srv.GM(context.Background(), "maintenance in five minutes")).To(Succeed())
		})
	})
})
