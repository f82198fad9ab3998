/*
Package sandbox evaluates playground JavaScript and TypeScript snippets.

# Overview

Each snippet runs as the body of a function constructed inside a goja
runtime, the same way a browser page would build it with new Function.
Runtimes are isolated from the host: the only host capability a snippet can
reach is the console object, which writes to the output sink handed to
Execute.

  - require, process, module and exports are removed
  - setTimeout and setInterval are inert
  - the runtime is replaced after every run, so no state leaks between runs
  - context cancellation and an optional timeout interrupt the VM

TypeScript is reduced to JavaScript with esbuild before evaluation. Type
errors are not reported; syntax errors are.

# Errors

Failures of the snippet itself are returned as *ScriptError, whose message is
the diagnostic the snippet produced (Error.message, a syntax error, or the
first transpiler diagnostic). Host-side failures such as pool exhaustion are
returned as plain errors.

# Usage

	pool, err := sandbox.NewPool(sandbox.DefaultConfig(), logger)
	buf := &capture.Buffer{}
	err = pool.Evaluate(ctx, "console.log('hi')", buf)
*/
package sandbox
