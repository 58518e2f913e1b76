package cli

import "github.com/spf13/cobra"

// Version is set at build time via -ldflags; "dev" covers local builds.
var Version = "dev"

func newVersionCommand(defaults *DefaultBunkerOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the bunker version",
		Run: func(_ *cobra.Command, _ []string) {
			defaults.Printf("%s\n", Version)
		},
	}
}
