package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-leadform/pkg/engine"
	"github.com/goliatone/go-leadform/pkg/renderers/tui"
)

func newApplyCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Book a strategy session from the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format := tui.OutputFormat(output)
			switch format {
			case tui.OutputFormatJSON, tui.OutputFormatFormURLEncoded, tui.OutputFormatPrettyText:
			default:
				return fmt.Errorf("unknown output format %q", output)
			}
			payload, err := a.apply(cmd.Context(), nil)
			if errors.Is(err, tui.ErrAborted) || errors.Is(err, tui.ErrQuit) {
				fmt.Fprintln(cmd.ErrOrStderr(), "Your answers were not sent.")
				return nil
			}
			if err != nil {
				return err
			}
			out, err := tui.Serialize(payload, format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", string(tui.OutputFormatPrettyText), "payload echo format (json|form|pretty)")
	return cmd
}

// apply walks one session with the terminal runner. driver is nil outside
// tests.
func (a *app) apply(ctx context.Context, driver tui.PromptDriver) (engine.Payload, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	flows, err := a.flows()
	if err != nil {
		return nil, err
	}
	booking, _, err := a.submitters(nil)
	if err != nil {
		return nil, err
	}
	sess, err := flows.Start(ctx, "",
		engine.WithSubmitter(booking),
		engine.WithLogger(a.logger),
	)
	if err != nil {
		return nil, err
	}
	runner := tui.New(
		tui.WithPromptDriver(driver),
		tui.WithLogger(a.logger),
	)
	return runner.Run(ctx, sess)
}
