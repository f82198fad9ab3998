package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/codeplayground/internal/infrastructure/logging"
)

const version = "1.0.0"

type globals struct {
	verbose bool
	stdin   io.Reader
	logger  *logging.Logger
}

// newRootCmd builds the command tree reading from stdin and writing to out
// and errOut.
func newRootCmd(stdin io.Reader, out, errOut io.Writer) *cobra.Command {
	g := &globals{stdin: stdin, logger: logging.Nop()}

	root := &cobra.Command{
		Use:   "playctl",
		Short: "Run code playground snippets from the terminal",
		Long: `playctl runs JavaScript and TypeScript snippets with the same sandbox
the playground server uses, renders HTML previews and encodes share tokens.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if g.verbose {
				g.logger = logging.NewDevelopment()
			}
		},
		SilenceUsage:  true,
		SilenceErrors: false,
		Version:       version,
	}
	root.SetIn(stdin)
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "enable debug logging on stderr")

	root.AddCommand(
		newLanguagesCmd(),
		newExamplesCmd(),
		newRunCmd(g),
		newShareCmd(g),
		newOpenCmd(),
	)
	return root
}
