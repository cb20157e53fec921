package cli

import "github.com/spf13/cobra"

// Version is overridable at build time with -ldflags.
var Version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Println("infra-rag " + Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
