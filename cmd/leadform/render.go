package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-leadform/pkg/orchestrator"
	"github.com/goliatone/go-leadform/pkg/render"
	"github.com/goliatone/go-leadform/pkg/renderers/vanilla"
	"github.com/goliatone/go-leadform/pkg/themes"
)

// newRenderCmd writes one step as static HTML, for template work without a
// running server.
func newRenderCmd(a *app) *cobra.Command {
	var (
		step   int
		layout string
		output string
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a step of the catalog to HTML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := a.renderStep(cmd.Context(), step, vanilla.Layout(layout))
			if err != nil {
				return err
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}
			if err := os.WriteFile(output, out, 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Step %d written to %s\n", step, output)
			return nil
		},
	}
	cmd.Flags().IntVar(&step, "step", 1, "1-based step to render")
	cmd.Flags().StringVar(&layout, "layout", string(vanilla.LayoutPage), "page or modal")
	cmd.Flags().StringVar(&output, "output", "", "output file (stdout if empty)")
	return cmd
}

// renderStep walks a blank session to step, filling earlier steps with
// placeholder answers.
func (a *app) renderStep(ctx context.Context, step int, layout vanilla.Layout) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	flows, err := a.flows()
	if err != nil {
		return nil, err
	}
	sess, err := flows.Start(ctx, "")
	if err != nil {
		return nil, err
	}
	total := sess.Total()
	if step < 1 || step > total {
		return nil, fmt.Errorf("step %d outside 1..%d", step, total)
	}
	for sess.Cursor() < step-1 {
		current := sess.CurrentStep()
		value := "example"
		if len(current.Options) > 0 {
			value = current.Options[0]
		}
		if err := sess.SetCurrentAnswer(value); err != nil {
			return nil, err
		}
		if err := sess.Advance(); err != nil {
			return nil, err
		}
	}

	sel, err := themes.NewSelector()
	if err != nil {
		return nil, err
	}
	return flows.Render(ctx, orchestrator.Request{
		Session:  sess,
		Renderer: string(layout),
		RenderOptions: render.RenderOptions{
			Theme:     sel.Resolve(a.cfg.Theme.Default),
			ActionURL: "#",
			CloseURL:  "#",
		},
	})
}
