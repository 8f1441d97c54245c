// Command leadform serves the Dogfood Digital site and drives the
// strategy-session form from a terminal.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/goliatone/go-leadform/internal/config"
	"github.com/goliatone/go-leadform/internal/logging"
)

// app carries what every subcommand needs after flag parsing.
type app struct {
	v      *viper.Viper
	cfg    config.Config
	logger zerolog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:           "leadform",
		Short:         "Dogfood Digital site and strategy-session booking form",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newServeCmd(a),
		newApplyCmd(a),
		newStepsCmd(a),
		newRenderCmd(a),
	)
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if err := config.BindFlags(a.v, flags); err != nil {
		return err
	}
	path, _ := flags.GetString("config")
	cfg, err := config.Load(a.v, path)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
		Output: cmd.ErrOrStderr(),
	})
	return nil
}
