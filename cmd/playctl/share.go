package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/codeplayground/internal/providers/share"
)

func newShareCmd(g *globals) *cobra.Command {
	var languageID string
	cmd := &cobra.Command{
		Use:   "share [file]",
		Short: "Print a share token for a snippet",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			source, lang, err := readSnippet(g.stdin, path, languageID)
			if err != nil {
				return err
			}
			token, err := share.Encode(share.Payload{Language: lang, Source: source})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVarP(&languageID, "lang", "l", "", "language id (default: from file extension)")
	return cmd
}

func newOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <token>",
		Short: "Print the snippet a share token carries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := share.Decode(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "language: %s\n", payload.Language)
			fmt.Fprint(cmd.OutOrStdout(), payload.Source)
			return nil
		},
	}
}
