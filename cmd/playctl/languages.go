package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/codeplayground/internal/domain/language"
)

func newLanguagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the supported languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tLABEL\tEXT\tSTRATEGY\tEXAMPLES")
			for _, p := range language.Default().List() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", p.ID, p.Label, p.Extension, p.Strategy, len(p.Examples))
			}
			return w.Flush()
		},
	}
}

func newExamplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "examples <language> [index]",
		Short: "List a language's examples or print one",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := language.Default().Get(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				for i, ex := range profile.Examples {
					fmt.Fprintf(out, "%d\t%s\n", i, ex.Name)
				}
				return nil
			}

			index, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid example index %q", args[1])
			}
			if index < 0 || index >= len(profile.Examples) {
				return fmt.Errorf("%s has %d examples", profile.ID, len(profile.Examples))
			}
			fmt.Fprintln(out, profile.Examples[index].Source)
			return nil
		},
	}
}
