package tracing

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/codeplayground/internal/domain/dispatch"
)

// Trace headers read from requests and written to responses.
const (
	HeaderTraceID = "X-Trace-ID"
	HeaderSpanID  = "X-Span-ID"
)

// HTTPMiddleware creates Gin middleware for HTTP tracing
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := WithTrace(c.Request.Context(),
			TraceID(c.GetHeader(HeaderTraceID)),
			SpanID(c.GetHeader(HeaderSpanID)))

		name := c.FullPath()
		if name == "" {
			name = "unmatched"
		}
		span, ctx := tracer.StartSpan(ctx, c.Request.Method+" "+name)
		span.SetTag("http.method", c.Request.Method)
		span.SetTag("http.path", c.Request.URL.Path)

		c.Request = c.Request.WithContext(ctx)
		c.Header(HeaderTraceID, string(span.TraceID))
		c.Header(HeaderSpanID, string(span.SpanID))

		c.Next()

		span.SetStatus(c.Writer.Status())
		span.SetTag("http.status", strconv.Itoa(c.Writer.Status()))
		if len(c.Errors) > 0 {
			span.SetError(c.Errors.Last())
		}
		span.Finish()
		tracer.Submit(span)
	}
}

// Runner executes snippets.
type Runner interface {
	Run(ctx context.Context, languageID, source string) dispatch.Result
}

// TracedRunner records a span per run.
type TracedRunner struct {
	next   Runner
	tracer *Tracer
}

// WrapRunner wraps next so every run is traced.
func WrapRunner(next Runner, tracer *Tracer) *TracedRunner {
	return &TracedRunner{next: next, tracer: tracer}
}

// Run runs source under a "run" span tagged with language and outcome.
func (r *TracedRunner) Run(ctx context.Context, languageID, source string) dispatch.Result {
	span, ctx := r.tracer.StartSpan(ctx, "run")
	span.SetTag("language", languageID)

	result := r.next.Run(ctx, languageID, source)

	span.SetTag("outcome", string(result.Outcome))
	span.Finish()
	r.tracer.Submit(span)
	return result
}
