package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts appOptions

	rootCmd := &cobra.Command{
		Use:   "keygen",
		Short: "Derive catalog keys through an interception chain",
		Long: `keygen derives catalog keys from SKUs. Every derivation runs through the
plugin chain attached to catalog.KeyDeriver::DeriveKey, so plugins declared in
a YAML file can reshape the SKU before the hash and the key after it.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildTime),
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Plugin declaration file (YAML)")
	rootCmd.PersistentFlags().BoolVar(&opts.around, "around", false, "Enable the around plugin instead of the before/after pair")
	rootCmd.PersistentFlags().StringSliceVar(&opts.disable, "disable", nil, "Plugin names to disable")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(
		newDeriveCmd(&opts),
		newPluginsCmd(&opts),
		newWatchCmd(&opts),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "keygen %s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", gitCommit)
			fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", buildTime)
		},
	}
}
