package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/luma/tsq/client"
	"github.com/luma/tsq/internal/env"
)

var (
	// The host to listen for http requests on
	bridgeHost string

	// The port to listen for http requests on
	bridgePort string

	// The virtual server the bridge works against
	bridgeSid int
)

func init() {
	flags := BridgeCmd.PersistentFlags()

	flags.StringVar(&bridgePort, "http-port", "7362", "The port to listen to HTTP requests on")
	flags.StringVarP(&bridgeHost, "http-host", "a", "0.0.0.0", "The host to listen on")
	flags.IntVar(&bridgeSid, "sid", 1, "The virtual server to switch onto")
}

var BridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Expose a query session over HTTP",
	Long: `Expose a query session over HTTP

Keeps one session against the query port open and maps a small HTTP
surface onto it:

	GET  /ping       liveness
	GET  /status     session state and traffic counters
	GET  /servers    the virtual server list
	POST /broadcast  {"msg": "..."} as a global message

Usage
	tsq bridge --sid 1

`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx, signalStop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
		defer signalStop()

		log, err := env.MakeLogger(verbose)
		if err != nil {
			return err
		}

		conf, err := env.LoadConfig(ctx)
		if err != nil {
			return err
		}

		// One command every other second stays well inside the default
		// query flood whitelist.
		srv := client.NewServer(log.Named("query"), client.WithCommandRate(rate.Every(500*time.Millisecond), 5))

		if err := srv.Connect(ctx, conf.Host, conf.Port); err != nil {
			return err
		}
		defer srv.Disconnect()

		if !srv.Connected() {
			return errors.New("query port did not greet with the expected banner")
		}

		if conf.LoginName != "" {
			if err := srv.Login(ctx, conf.LoginName, conf.LoginPassword); err != nil {
				return err
			}
		}

		if err := srv.Use(ctx, bridgeSid); err != nil {
			return err
		}

		b := &bridge{srv: srv, log: log.Named("bridge")}

		router := setupRouter(conf.DebugHTTP, log)

		// Ping test
		router.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		router.GET("/status", b.status)
		router.GET("/servers", b.servers)
		router.POST("/broadcast", b.broadcast)

		s := &http.Server{
			Addr:    net.JoinHostPort(bridgeHost, bridgePort),
			Handler: router,
		}

		// Initializing the server in a goroutine so that
		// it won't block the graceful shutdown handling below
		go func() {
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Http server errored", zap.Error(err))
			}
		}()

		log.Info("Bridge listening",
			zap.String("httpHost", bridgeHost),
			zap.String("httpPort", bridgePort),
			zap.String("queryHost", conf.Host),
			zap.Int("queryPort", conf.Port))

		// Listen for the interrupt signal.
		<-ctx.Done()

		// Restore default behavior on the interrupt signal and notify user of shutdown.
		signalStop()
		log.Info("Shutting down gracefully, press Ctrl+C again to force")

		// The context is used to inform the server it has 5 seconds to finish
		// the request it is currently handling
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.SetKeepAlivesEnabled(false)

		if err := s.Shutdown(shutdownCtx); err != nil {
			log.Error("Http server forced to shutdown", zap.Error(err))
		}

		log.Info("Exiting")
		return nil
	},
}

// bridge serialises HTTP handlers onto the single query session. The
// session itself is strictly half-duplex and unlocked, so the caller
// holds the lock for the whole request cycle.
type bridge struct {
	mu  sync.Mutex
	srv *client.Server
	log *zap.Logger
}

func (b *bridge) status(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"connected": b.srv.Connected(),
		"bytesIn":   b.srv.BytesIn(),
		"bytesOut":  b.srv.BytesOut(),
	})
}

func (b *bridge) servers(c *gin.Context) {
	log := b.log.With(zap.String("requestID", uuid.NewString()))

	b.mu.Lock()
	records, err := b.srv.ServerList(c.Request.Context())
	b.mu.Unlock()

	if err != nil {
		log.Warn("serverlist failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	servers := make([]map[string]string, 0, len(records))
	for _, record := range records {
		server := make(map[string]string, len(record))
		for key := range record {
			server[key] = record.Get(key)
		}

		servers = append(servers, server)
	}

	log.Info("serverlist", zap.Int("count", len(servers)))
	c.JSON(http.StatusOK, gin.H{"servers": servers})
}

func (b *bridge) broadcast(c *gin.Context) {
	log := b.log.With(zap.String("requestID", uuid.NewString()))

	var body struct {
		Msg string `json:"msg" binding:"required"`
	}

	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b.mu.Lock()
	err := b.srv.GM(c.Request.Context(), body.Msg)
	b.mu.Unlock()

	if err != nil {
		log.Warn("broadcast failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	log.Info("broadcast", zap.Int("len", len(body.Msg)))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func setupRouter(debugHTTP bool, log *zap.Logger) *gin.Engine {
	gin.DisableConsoleColor()
	if !debugHTTP {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Add a ginzap middleware, which:
	//   - Logs all requests, like a combined access and error log.
	//   - Logs to stdout.
	//   - RFC3339 with UTC time format.
	r.Use(ginzap.Ginzap(log, time.RFC3339, true))

	// Logs all panic to error log
	//   - stack means whether output the stack info.
	r.Use(ginzap.RecoveryWithZap(log, true))

	return r
}
