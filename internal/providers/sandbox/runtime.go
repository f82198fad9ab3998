package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/file"
	"github.com/dop251/goja/parser"

	"github.com/GriffinCanCode/codeplayground/internal/domain/capture"
)

// Runtime wraps goja VM with security controls
type Runtime struct {
	vm     *goja.Runtime
	config Config
	mu     sync.Mutex

	// captured before any snippet can replace JSON.stringify
	stringify goja.Callable
}

var _ Sandbox = (*Runtime)(nil)

// New creates a new sandboxed runtime
func New(config Config) (*Runtime, error) {
	r := &Runtime{config: config}
	if err := r.setup(); err != nil {
		return nil, err
	}
	return r, nil
}

// Execute compiles source as a function body and runs it, writing console
// output to sink.
func (r *Runtime) Execute(ctx context.Context, source string, sink capture.Sink) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.vm == nil {
		return nil, errors.New("runtime is closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	r.installConsole(sink)

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		r.watch(ctx, done)
	}()
	defer func() {
		close(done)
		<-stopped
		r.vm.ClearInterrupt()
	}()

	fn, err := r.compile(source)
	if err != nil {
		return nil, err
	}

	val, err := fn(goja.Undefined())
	if err != nil {
		return nil, scriptError(err)
	}

	return &Result{
		Value:    exportValue(val),
		Duration: time.Since(start),
	}, nil
}

// Snippets are compiled as the body of an anonymous function so that a
// top-level return is allowed. The wrapper adds one line before the source.
const (
	wrapperHead = "(function() {\n"
	wrapperTail = "\n})"
)

// compile parses source as a function body and returns the function.
// Syntax errors are reported against the snippet's own lines.
func (r *Runtime) compile(source string) (goja.Callable, error) {
	prg, err := parser.ParseFile(nil, "snippet", wrapperHead+source+wrapperTail, 0)
	if err != nil {
		var list parser.ErrorList
		if errors.As(err, &list) && len(list) > 0 {
			return nil, syntaxError(source, list[0].Position, list[0].Message)
		}
		return nil, &ScriptError{Message: err.Error()}
	}

	// a body such as "}); (function() {" closes the wrapper early
	if !isSingleFunction(prg) {
		return nil, &ScriptError{Message: "Unexpected token }"}
	}

	program, err := goja.CompileAST(prg, false)
	if err != nil {
		var syntax *goja.CompilerSyntaxError
		if errors.As(err, &syntax) && syntax.File != nil {
			return nil, syntaxError(source, syntax.File.Position(syntax.Offset), syntax.Message)
		}
		return nil, scriptError(err)
	}

	val, err := r.vm.RunProgram(program)
	if err != nil {
		return nil, scriptError(err)
	}
	fn, ok := goja.AssertFunction(val)
	if !ok {
		return nil, errors.New("snippet did not compile to a function")
	}
	return fn, nil
}

func isSingleFunction(prg *ast.Program) bool {
	if len(prg.Body) != 1 {
		return false
	}
	stmt, ok := prg.Body[0].(*ast.ExpressionStatement)
	if !ok {
		return false
	}
	_, ok = stmt.Expression.(*ast.FunctionLiteral)
	return ok
}

// syntaxError rebases a position in the wrapped source onto the snippet.
// Errors past the last snippet line mean the snippet ended too early.
func syntaxError(source string, pos file.Position, message string) *ScriptError {
	lines := strings.Count(source, "\n") + 1
	line := pos.Line - 1
	switch {
	case line > lines:
		return &ScriptError{Message: fmt.Sprintf("Unexpected end of input (line %d)", lines)}
	case line < 1:
		line = 1
	}
	return &ScriptError{Message: fmt.Sprintf("%s (line %d:%d)", message, line, pos.Column)}
}

// watch interrupts the VM on cancellation or timeout until done closes.
func (r *Runtime) watch(ctx context.Context, done <-chan struct{}) {
	var timeout <-chan time.Time
	if r.config.Timeout > 0 {
		timer := time.NewTimer(r.config.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-timeout:
		r.vm.Interrupt("execution timeout exceeded")
	case <-ctx.Done():
		r.vm.Interrupt("execution cancelled")
	case <-done:
	}
}

// setup creates a fresh VM and configures its globals.
func (r *Runtime) setup() error {
	vm := goja.New()
	if r.config.MaxCallStackSize > 0 {
		vm.SetMaxCallStackSize(r.config.MaxCallStackSize)
	}

	for _, name := range []string{"require", "process", "module", "exports"} {
		if err := vm.Set(name, goja.Undefined()); err != nil {
			return fmt.Errorf("failed to clear global %s: %w", name, err)
		}
	}

	inert := func(goja.FunctionCall) goja.Value { return vm.ToValue(0) }
	for _, name := range []string{"setTimeout", "setInterval", "clearTimeout", "clearInterval"} {
		if err := vm.Set(name, inert); err != nil {
			return fmt.Errorf("failed to install %s: %w", name, err)
		}
	}

	stringify, ok := goja.AssertFunction(vm.Get("JSON").ToObject(vm).Get("stringify"))
	if !ok {
		return errors.New("JSON.stringify is not callable")
	}

	r.vm = vm
	r.stringify = stringify
	return nil
}

// installConsole binds console methods to sink for the coming run.
func (r *Runtime) installConsole(sink capture.Sink) {
	console := r.vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error", "debug"} {
		_ = console.Set(level, r.consoleFunc(sink))
	}
	_ = r.vm.Set("console", console)
}

func (r *Runtime) consoleFunc(sink capture.Sink) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = r.format(arg)
		}
		if sink != nil {
			sink.Emit(capture.FormatArgs(parts))
		}
		return goja.Undefined()
	}
}

// format renders objects with JSON.stringify(v, null, 2) and everything else
// with String(v). Values JSON cannot represent fall back to String(v).
func (r *Runtime) format(v goja.Value) string {
	if v == nil {
		return "undefined"
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return v.String()
	}
	if _, callable := goja.AssertFunction(obj); callable {
		return obj.String()
	}

	out, err := r.stringify(goja.Undefined(), obj, goja.Null(), r.vm.ToValue(2))
	if err != nil || out == nil || goja.IsUndefined(out) {
		return obj.String()
	}
	return out.String()
}

// Reset replaces the VM so nothing from the previous run survives.
func (r *Runtime) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setup()
}

// Close releases resources
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.vm = nil
	r.stringify = nil
	return nil
}

// exportValue converts goja value to Go value
func exportValue(val goja.Value) interface{} {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil
	}
	return val.Export()
}

// scriptError reduces a goja failure to the snippet's own diagnostic.
func scriptError(err error) error {
	var ex *goja.Exception
	if errors.As(err, &ex) {
		return &ScriptError{Message: exceptionMessage(ex.Value())}
	}

	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return &ScriptError{Message: fmt.Sprint(interrupted.Value())}
	}

	// StackOverflowError carries its Exception by value and no thrown value
	var overflow *goja.StackOverflowError
	if errors.As(err, &overflow) {
		return &ScriptError{Message: "Maximum call stack size exceeded"}
	}

	return &ScriptError{Message: err.Error()}
}

// exceptionMessage mirrors what error.message yields in a browser, falling
// back to the thrown value itself for non-Error throws.
func exceptionMessage(v goja.Value) string {
	if v == nil {
		return "undefined"
	}
	if obj, ok := v.(*goja.Object); ok {
		if msg := obj.Get("message"); msg != nil && !goja.IsUndefined(msg) {
			return msg.String()
		}
	}
	return v.String()
}
