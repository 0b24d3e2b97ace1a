// Command devisctl runs maintenance tasks against the FaciliDevis database:
// schema migrations, the reminder pass and a delivery channel report.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "devisctl",
		Short:         "FaciliDevis administration tool",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "HuJSON file with default settings (environment wins)")

	rootCmd.AddCommand(migrateCmd(opts))
	rootCmd.AddCommand(remindCmd(opts))
	rootCmd.AddCommand(channelsCmd(opts))
	return rootCmd
}
