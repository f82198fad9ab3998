package sandbox

import (
	"context"
	"fmt"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/GriffinCanCode/codeplayground/internal/domain/capture"
)

// Transpile strips TypeScript syntax, producing JavaScript goja can run.
func Transpile(source string) (string, error) {
	result := api.Transform(source, api.TransformOptions{
		Loader:     api.LoaderTS,
		Target:     api.ES2015,
		Sourcefile: "snippet.ts",
	})

	if len(result.Errors) > 0 {
		msg := result.Errors[0]
		if msg.Location != nil {
			return "", &ScriptError{Message: fmt.Sprintf("%s (line %d, column %d)", msg.Text, msg.Location.Line, msg.Location.Column+1)}
		}
		return "", &ScriptError{Message: msg.Text}
	}

	return string(result.Code), nil
}

// TypeScript evaluates TypeScript snippets by transpiling them first and
// running the result on JS.
type TypeScript struct {
	JS *Pool
}

// Evaluate transpiles source and hands the result to the JavaScript evaluator.
func (t TypeScript) Evaluate(ctx context.Context, source string, sink capture.Sink) error {
	js, err := Transpile(source)
	if err != nil {
		return err
	}
	return t.JS.Evaluate(ctx, js, sink)
}
