package cmd

import (
	"github.com/spf13/cobra"
)

// Set with -ldflags "-X github.com/spigell/cv-align/cmd.version=...".
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(_ *cobra.Command, _ []string) {
		printJSON(map[string]string{"app": app, "version": version})
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
