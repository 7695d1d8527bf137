package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/luma/tsq/internal/env"
	"github.com/luma/tsq/storage"
	"github.com/luma/tsq/transport"
)

var (
	simdHost string
	simdPort int

	simdName     string
	simdPassword string
)

func init() {
	flags := SimdCmd.PersistentFlags()

	flags.StringVarP(&simdHost, "host", "a", "127.0.0.1", "The host to listen on")
	flags.IntVarP(&simdPort, "port", "p", 10011, "The port to listen for query clients on")
	flags.StringVar(&simdName, "login-name", "serveradmin", "The accepted query login name")
	flags.StringVar(&simdPassword, "login-password", "secret", "The accepted query login password")
}

var SimdCmd = &cobra.Command{
	Use:   "simd",
	Short: "Run a local query endpoint simulator",
	Long: `Run a local query endpoint simulator

Serves the banner handshake and the basic admin command set (login,
use, serverlist, gm) with one canned virtual server, for developing
against without a real instance.

Usage
	tsq simd -p 10011

`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, signalStop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
		defer signalStop()

		log, err := env.MakeLogger(verbose)
		if err != nil {
			return err
		}

		store := storage.NewInmemoryStore()

		if err := store.Set("credentials."+simdName, simdPassword); err != nil {
			return err
		}

		if err := store.Set("servers.0", map[string]interface{}{
			"virtualserver_id":   1,
			"virtualserver_name": "Simulated Server",
			"virtualserver_port": 9987,
		}); err != nil {
			return err
		}

		sim := transport.NewSimulator(transport.Options{
			Host: simdHost,
			Port: simdPort,
			Log:  log.Named("simd"),
		}, store)

		if err := sim.Start(ctx); err != nil {
			return err
		}

		log.Info("Simulator running", zap.String("addr", sim.Addr()))

		<-ctx.Done()
		signalStop()

		if err := sim.Close(); err != nil {
			log.Error("Simulator forced to shutdown", zap.Error(err))
		}

		log.Info("Exiting")
		return nil
	},
}
