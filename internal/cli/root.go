package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	LogLevel string // overrides LOG_LEVEL when set
}

// NewRootCommand creates the root command of the shop binary.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "shop",
		Short: "Shopping site backend",
		Long: "Catalog, cart, checkout and auth API for the shopping site, " +
			"plus catalog seeding and the order event consumer.",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error), defaults to LOG_LEVEL")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewConsumeCommand(opts))

	return cmd
}
