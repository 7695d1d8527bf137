package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/luma/tsq/cmd/gen"
	"github.com/luma/tsq/internal/meta"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "tsq",
	Short: "Admin tooling for the ServerQuery port of a TeamSpeak 3 instance",
	Long: `tsq talks to the ServerQuery port of a TeamSpeak 3 server instance.

Query host, port and credentials come from the environment (TSQ_HOST,
TSQ_PORT, TSQ_LOGIN_NAME, TSQ_LOGIN_PASSWORD) or an .env.local file.
`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		info := meta.GetInfo()
		fmt.Printf("tsq %s (%s, %s, %s)\n", info.Version, info.Build, info.Platform, info.GoVersion)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level, including wire traffic")

	rootCmd.AddCommand(RunCmd)
	rootCmd.AddCommand(BridgeCmd)
	rootCmd.AddCommand(SimdCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(gen.RootCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
