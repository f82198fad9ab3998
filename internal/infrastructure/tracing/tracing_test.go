package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/codeplayground/internal/domain/dispatch"
)

func newTracer(t *testing.T) (*Tracer, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return New("test", zap.New(core)), logs
}

func TestStartSpanContinuesTrace(t *testing.T) {
	tracer, _ := newTracer(t)
	defer tracer.Close()

	root, ctx := tracer.StartSpan(context.Background(), "root")
	require.NotEmpty(t, root.TraceID)
	assert.Empty(t, root.ParentID)

	child, _ := tracer.StartSpan(ctx, "child")
	assert.Equal(t, root.TraceID, child.TraceID)
	assert.Equal(t, root.SpanID, child.ParentID)
	assert.NotEqual(t, root.SpanID, child.SpanID)
}

func TestHTTPMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tracer, logs := newTracer(t)

	var seen TraceID
	router := gin.New()
	router.Use(HTTPMiddleware(tracer))
	router.GET("/languages/:id", func(c *gin.Context) {
		seen = GetTraceID(c.Request.Context())
		c.Status(http.StatusTeapot)
	})

	req := httptest.NewRequest("GET", "/languages/javascript", nil)
	req.Header.Set(HeaderTraceID, "trace-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, TraceID("trace-123"), seen)
	assert.Equal(t, "trace-123", w.Header().Get(HeaderTraceID))
	assert.NotEmpty(t, w.Header().Get(HeaderSpanID))

	tracer.Close()
	entries := logs.FilterMessage("span completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "GET /languages/:id", fields["operation"])
	assert.Equal(t, "418", fields["http.status"])
}

type stubRunner struct{ ctx context.Context }

func (s *stubRunner) Run(ctx context.Context, languageID, source string) dispatch.Result {
	s.ctx = ctx
	return dispatch.Result{Language: languageID, Outcome: dispatch.OutcomeSuccess}
}

func TestWrapRunner(t *testing.T) {
	tracer, logs := newTracer(t)

	parent, ctx := tracer.StartSpan(context.Background(), "request")
	stub := &stubRunner{}
	result := WrapRunner(stub, tracer).Run(ctx, "javascript", "1")
	assert.Equal(t, dispatch.OutcomeSuccess, result.Outcome)
	assert.Equal(t, parent.TraceID, GetTraceID(stub.ctx))
	assert.NotEqual(t, parent.SpanID, GetSpanID(stub.ctx))

	tracer.Close()
	entries := logs.FilterMessage("span completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "run", fields["operation"])
	assert.Equal(t, "javascript", fields["language"])
	assert.Equal(t, "success", fields["outcome"])
	assert.Equal(t, string(parent.SpanID), fields["parent_id"])
}

func TestSubmitAfterClose(t *testing.T) {
	tracer, logs := newTracer(t)
	tracer.Close()
	tracer.Close()

	span, _ := tracer.StartSpan(context.Background(), "late")
	span.Finish()
	tracer.Submit(span)
	assert.Zero(t, logs.Len())
}
