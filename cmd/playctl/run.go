package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/codeplayground/internal/domain/capture"
	"github.com/GriffinCanCode/codeplayground/internal/domain/dispatch"
	"github.com/GriffinCanCode/codeplayground/internal/domain/language"
	"github.com/GriffinCanCode/codeplayground/internal/providers/markup"
	"github.com/GriffinCanCode/codeplayground/internal/providers/sandbox"
)

var errRunFailed = errors.New("run failed")

type runOptions struct {
	language string
	timeout  time.Duration
	json     bool
	server   string
}

func newRunCmd(g *globals) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Run a snippet from a file or stdin",
		Long: `Run a snippet and print its output. The language is taken from --lang or
the file extension. With no file, or "-", the snippet is read from stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			source, languageID, err := readSnippet(g.stdin, path, opts.language)
			if err != nil {
				return err
			}

			var result dispatch.Result
			if opts.server != "" {
				result, err = runRemote(cmd.Context(), newRemoteClient(), opts.server, languageID, source)
			} else {
				result, err = runSnippet(cmd.Context(), g, languageID, source, opts.timeout)
			}
			if err != nil {
				return err
			}
			if err := printResult(cmd.OutOrStdout(), result, opts.json); err != nil {
				return err
			}
			if result.Outcome == dispatch.OutcomeFailure {
				return errRunFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.language, "lang", "l", "", "language id (default: from file extension)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "evaluation timeout, 0 disables it")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the full result as JSON")
	cmd.Flags().StringVar(&opts.server, "server", "", "run on a playground server at this base URL instead of locally")
	return cmd
}

// readSnippet reads path, or stdin for "" and "-", and resolves the language.
func readSnippet(stdin io.Reader, path, languageID string) (string, string, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to read snippet: %w", err)
	}

	if languageID == "" {
		profile, ok := language.Default().ByExtension(filepath.Ext(path))
		if !ok {
			return "", "", errors.New("cannot infer language, pass --lang")
		}
		languageID = profile.ID
	}
	return string(data), languageID, nil
}

func runSnippet(ctx context.Context, g *globals, languageID, source string, timeout time.Duration) (dispatch.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := g.logger.Component("playctl")

	pool, err := sandbox.NewPool(sandbox.Config{
		MaxCallStackSize: 1024,
		Timeout:          timeout,
		PoolSize:         1,
		AcquireTimeout:   5 * time.Second,
	}, logger)
	if err != nil {
		return dispatch.Result{}, err
	}
	defer pool.Close()

	d := dispatch.New(language.Default(), capture.NewChannel(capture.NewLoggerSink(logger)), dispatch.Options{
		Evaluators: map[string]dispatch.Evaluator{
			"javascript": pool,
			"typescript": sandbox.TypeScript{JS: pool},
		},
		Renderer: markup.NewRenderer(),
		Logger:   logger,
	})
	return d.Run(ctx, languageID, source), nil
}

func printResult(w io.Writer, result dispatch.Result, asJSON bool) error {
	if asJSON {
		data, err := sonic.ConfigStd.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	if result.Output == "" {
		return nil
	}
	_, err := fmt.Fprintln(w, result.Output)
	return err
}
