package main

import (
	"ssal/internal/configuration"

	"github.com/spf13/cobra"
)

type cliOptions struct {
	ConfigDir string
	Profile   string
	Address   string
	Port      string
}

func newRootCmd() *cobra.Command {
	var opts cliOptions

	root := &cobra.Command{
		Use:           "ssal",
		Short:         "Shared sequencer coordination service",
		Long:          "Keeps the sequencer and rollup registries, elects a leader each round and orders rollup blocks.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.ConfigDir, "config-dir", "c", configuration.DefaultConfigDir, "directory holding application.yml and profile overlays")
	root.PersistentFlags().StringVarP(&opts.Profile, "profile", "p", "", "profile overlay to apply (overrides app.profile)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	serve.Flags().StringVar(&opts.Address, "address", "", "bind address (overrides transport.address)")
	serve.Flags().StringVar(&opts.Port, "port", "", "bind port (overrides transport.port)")

	root.AddCommand(serve)
	return root
}
