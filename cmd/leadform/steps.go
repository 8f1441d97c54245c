package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-leadform/pkg/model"
)

func newStepsCmd(a *app) *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "steps",
		Short: "List the steps of the configured catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := a.catalog()
			if err != nil {
				return err
			}
			if plain {
				color.NoColor = true
			}
			return printCatalog(cmd.OutOrStdout(), cat)
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "disable colours")
	return cmd
}

func printCatalog(w io.Writer, cat model.Catalog) error {
	title := color.New(color.FgHiWhite, color.Bold)
	key := color.New(color.FgHiMagenta)
	kind := color.New(color.FgHiBlack)
	option := color.New(color.FgHiYellow)

	if _, err := title.Fprintf(w, "%s (%s), %d steps\n", cat.Title, cat.FormType, cat.Len()); err != nil {
		return err
	}
	for _, step := range cat.Steps {
		label := string(step.Kind)
		if step.InputHint != "" && step.InputHint != model.InputHintText {
			label += "/" + step.InputHint
		}
		fmt.Fprintf(w, "%2d. ", step.Ordinal+1)
		key.Fprint(w, step.AnswerKey)
		kind.Fprintf(w, " [%s] ", label)
		fmt.Fprintln(w, step.Prompt)
		if len(step.Options) > 0 {
			fmt.Fprint(w, "    ")
			option.Fprintln(w, strings.Join(step.Options, " · "))
		}
	}
	return nil
}
