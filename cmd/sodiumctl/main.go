package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"SodiumWatch/pkg/app"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "sodiumctl",
		Short:         "Administer a SodiumWatch deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default configs/<APP_ENV>/app.yaml)")

	cmd.AddCommand(
		newMigrateCmd(opts),
		newUserCmd(opts),
		newDeviceCmd(opts),
		newImportCmd(opts),
		newEventsCmd(opts),
	)
	return cmd
}

// open loads the config and wires the app. The caller must Close it.
func (o *rootOptions) open() (*app.App, error) {
	cfg, err := app.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	return app.New(cfg, "sodiumctl")
}
