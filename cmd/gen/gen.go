package gen

import (
	"github.com/spf13/cobra"
)

var RootCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generators for tsq docs",
	Long:  `Generators for tsq docs`,
}

func init() {
	RootCmd.AddCommand(ManPagesCmd)
}
