package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/luma/tsq/client"
	"github.com/luma/tsq/internal/env"
	"github.com/luma/tsq/protocol"
)

var runSid int

func init() {
	flags := RunCmd.Flags()

	flags.IntVar(&runSid, "sid", 0, "virtual server to switch onto before running the command")
}

var RunCmd = &cobra.Command{
	Use:   "run <command> [key=value ...] [-flag ...]",
	Short: "Run one query command and print the result as JSON",
	Long: `Run one query command and print the result as JSON

Usage
	tsq run serverlist
	tsq run use sid=1
	tsq run --sid 1 clientlist -- -uid

Arguments containing a '=' become key=value parameters, arguments
starting with '-' become option flags (put them after '--' so they are
not mistaken for tsq flags).
`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		log, err := env.MakeLogger(verbose)
		if err != nil {
			return err
		}

		conf, err := env.LoadConfig(ctx)
		if err != nil {
			return err
		}

		srv := client.NewServer(log)

		if err := srv.Connect(ctx, conf.Host, conf.Port); err != nil {
			return err
		}
		defer srv.Disconnect()

		if !srv.Connected() {
			return fmt.Errorf("%s:%d did not greet like a query port", conf.Host, conf.Port)
		}

		if conf.LoginName != "" {
			if err := srv.Login(ctx, conf.LoginName, conf.LoginPassword); err != nil {
				return err
			}
		}

		if runSid > 0 {
			if err := srv.Use(ctx, runSid); err != nil {
				return err
			}
		}

		name := args[0]
		keys, opts := splitArgs(args[1:])

		resp, err := srv.SendCommand(ctx, name, keys, opts)
		if err != nil {
			return err
		}

		out, err := renderResponse(resp)
		if err != nil {
			return err
		}

		fmt.Println(string(out))

		if err := resp.ErrorOrNil(); err != nil {
			log.Warn("Command failed", zap.Error(err))
		}

		return nil
	},
}

// splitArgs sorts trailing CLI arguments into command parameters and
// option flags.
func splitArgs(args []string) ([]protocol.KeyValue, []string) {
	var (
		keys []protocol.KeyValue
		opts []string
	)

	for _, arg := range args {
		switch {
		case strings.Contains(arg, "="):
			kv := strings.SplitN(arg, "=", 2)
			keys = append(keys, protocol.KeyValue{Key: kv[0], Value: protocol.Scalar(kv[1])})

		case strings.HasPrefix(arg, "-"):
			opts = append(opts, strings.TrimPrefix(arg, "-"))
		}
	}

	return keys, opts
}

// renderResponse builds the JSON document printed for a response:
// the data records plus the status line.
func renderResponse(resp *protocol.Response) ([]byte, error) {
	out := []byte(`{"records":[],"status":{}}`)

	var err error

	for i, record := range resp.Records {
		for key, value := range record {
			path := fmt.Sprintf("records.%d.%s", i, key)

			switch v := value.(type) {
			case protocol.Scalar:
				out, err = sjson.SetBytes(out, path, string(v))
			case protocol.Sequence:
				out, err = sjson.SetBytes(out, path, []string(v))
			}

			if err != nil {
				return nil, err
			}
		}
	}

	out, err = sjson.SetBytes(out, "status.id", resp.Status.ID)
	if err != nil {
		return nil, err
	}

	out, err = sjson.SetBytes(out, "status.msg", resp.Status.Msg)
	if err != nil {
		return nil, err
	}

	return out, nil
}
