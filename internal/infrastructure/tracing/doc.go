/*
Package tracing provides lightweight request tracing for the playground.

Every HTTP request gets a span carrying a trace id. The id is taken from the
X-Trace-ID header when the caller sends one and echoed back in the response
headers. Snippet runs started while handling the request get a child span
through WrapRunner.

Completed spans are handed to a buffered collector goroutine and written to
the structured log at debug level; errored spans are logged as warnings. A
full buffer drops spans instead of blocking the request.

# Usage

	tracer := tracing.New("playground", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))
	runner := tracing.WrapRunner(dispatcher, tracer)
*/
package tracing
