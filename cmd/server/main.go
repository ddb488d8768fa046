package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "askhub",
		Short:         "askhub Q&A server",
		Long:          "Q&A backend with voting, tags, accepted answers and a bot ingestion API.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (YAML); env vars and .env are always read")

	cmd.AddCommand(
		newServeCommand(&configPath),
		newMigrateCommand(&configPath),
		newAPIKeyCommand(&configPath),
		newUserCommand(&configPath),
	)
	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
