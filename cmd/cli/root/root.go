package root

import (
	"github.com/spf13/cobra"
)

// JSONOutput switches list commands from tables to raw JSON.
var JSONOutput bool

// Exported RootCmd
var RootCmd = &cobra.Command{
	Use:           "applog",
	Short:         "applog CLI",
	Long:          "Command line interface for the applog dictionary-validated log service.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	RootCmd.PersistentFlags().BoolVar(&JSONOutput, "json", false, "print raw JSON instead of tables")
}

// Optional helper to return the RootCmd
func GetRoot() *cobra.Command {
	return RootCmd
}
