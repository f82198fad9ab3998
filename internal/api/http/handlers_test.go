package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/codeplayground/internal/domain/capture"
	"github.com/GriffinCanCode/codeplayground/internal/domain/dispatch"
	"github.com/GriffinCanCode/codeplayground/internal/domain/language"
	"github.com/GriffinCanCode/codeplayground/internal/domain/session"
	"github.com/GriffinCanCode/codeplayground/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/codeplayground/internal/providers/catalog"
	"github.com/GriffinCanCode/codeplayground/internal/providers/markup"
	"github.com/GriffinCanCode/codeplayground/internal/providers/progress"
	"github.com/GriffinCanCode/codeplayground/internal/providers/sandbox"
	"github.com/GriffinCanCode/codeplayground/internal/providers/storage"
)

type fakeProgress struct {
	entries []progress.Entry
	err     error
	token   string
}

func (f *fakeProgress) Fetch(_ context.Context, token string) ([]progress.Entry, error) {
	f.token = token
	return f.entries, f.err
}

type testEnv struct {
	router   *gin.Engine
	manager  *session.Manager
	progress *fakeProgress
}

func newTestEnv(t *testing.T, store storage.Store, maxSource int64) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	pool, err := sandbox.NewPool(sandbox.Config{MaxCallStackSize: 256, PoolSize: 1, AcquireTimeout: time.Second}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	registry := language.Default()
	metrics := monitoring.NewMetrics(nil)
	renderer := markup.NewRenderer()
	dispatcher := dispatch.New(registry, capture.NewChannel(&capture.Buffer{}), dispatch.Options{
		Evaluators: map[string]dispatch.Evaluator{
			"javascript": pool,
			"typescript": sandbox.TypeScript{JS: pool},
		},
		Renderer: renderer,
		Observer: metrics,
	})
	manager := session.NewManager(registry, dispatcher, store, session.Options{}).WithRecorder(metrics)

	cat, err := catalog.Default()
	require.NoError(t, err)

	fp := &fakeProgress{}
	h := NewHandlers(Deps{
		Registry:       registry,
		Runner:         dispatcher,
		Sessions:       manager,
		Catalog:        cat,
		Progress:       fp,
		Metrics:        metrics,
		Sandbox:        pool,
		Frames:         renderer,
		MaxSourceBytes: maxSource,
	})

	router := gin.New()
	h.Register(router)
	return &testEnv{router: router, manager: manager, progress: fp}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.serve(t, req)
}

func (e *testEnv) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var out map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func (e *testEnv) createSession(t *testing.T, lang string) string {
	t.Helper()
	w, body := e.do(t, "POST", "/sessions", gin.H{"language": lang})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return body["session"].(map[string]any)["id"].(string)
}

func TestLanguages(t *testing.T) {
	env := newTestEnv(t, nil, 0)

	w, body := env.do(t, "GET", "/languages", nil)
	require.Equal(t, http.StatusOK, w.Code)
	langs := body["languages"].([]any)
	require.Len(t, langs, 6)
	assert.Equal(t, "javascript", langs[0].(map[string]any)["id"])

	w, body = env.do(t, "GET", "/languages/python", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, body["notice"], "Python execution requires backend integration.")

	w, body = env.do(t, "GET", "/languages/javascript", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, body, "notice")

	w, _ = env.do(t, "GET", "/languages/cobol", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRunOneShot(t *testing.T) {
	env := newTestEnv(t, nil, 64)

	tests := []struct {
		name        string
		body        any
		wantStatus  int
		wantOutcome string
		wantOutput  string
	}{
		{
			name:        "javascript output in order",
			body:        gin.H{"language": "javascript", "source": `console.log("a"); console.log("b")`},
			wantStatus:  http.StatusOK,
			wantOutcome: "success",
			wantOutput:  "a\nb",
		},
		{
			name:        "thrown error is a failure with 200",
			body:        gin.H{"language": "javascript", "source": `throw new Error("boom")`},
			wantStatus:  http.StatusOK,
			wantOutcome: "failure",
			wantOutput:  "Error: boom",
		},
		{
			name:        "unknown language is unsupported",
			body:        gin.H{"language": "cobol", "source": "DISPLAY 'HI'."},
			wantStatus:  http.StatusOK,
			wantOutcome: "unsupported",
		},
		{
			name:       "missing language",
			body:       gin.H{"source": "1"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "source over the limit",
			body:       gin.H{"language": "javascript", "source": strings.Repeat("x", 65)},
			wantStatus: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := env.do(t, "POST", "/run", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantOutcome == "" {
				assert.NotEmpty(t, body["error"])
				return
			}
			result := body["result"].(map[string]any)
			assert.Equal(t, tt.wantOutcome, result["outcome"])
			if tt.wantOutput != "" {
				assert.Equal(t, tt.wantOutput, result["output"])
			}
		})
	}
}

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t, storage.NewMemory(0), 0)

	w, body := env.do(t, "POST", "/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	snap := body["session"].(map[string]any)
	id := snap["id"].(string)
	assert.Equal(t, "javascript", snap["language"])

	w, _ = env.do(t, "PUT", "/sessions/"+id+"/source", gin.H{"source": `console.log(1 + 1)`})
	require.Equal(t, http.StatusOK, w.Code)

	w, body = env.do(t, "POST", "/sessions/"+id+"/run", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", body["result"].(map[string]any)["output"])
	assert.Equal(t, "2", body["session"].(map[string]any)["output"])

	w, body = env.do(t, "POST", "/sessions/"+id+"/save", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["saved"])

	other := env.createSession(t, "javascript")
	w, body = env.do(t, "POST", "/sessions/"+other+"/load", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `console.log(1 + 1)`, body["session"].(map[string]any)["source"])

	w, body = env.do(t, "GET", "/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["sessions"], 2)

	w, _ = env.do(t, "DELETE", "/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = env.do(t, "GET", "/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionErrors(t *testing.T) {
	env := newTestEnv(t, nil, 0)
	id := env.createSession(t, "python")

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
	}{
		{"unknown session", "GET", "/sessions/nope", nil, http.StatusNotFound},
		{"create with unknown language", "POST", "/sessions", gin.H{"language": "cobol"}, http.StatusBadRequest},
		{"select unknown language", "PUT", "/sessions/" + id + "/language", gin.H{"language": "cobol"}, http.StatusBadRequest},
		{"select without body", "PUT", "/sessions/" + id + "/language", nil, http.StatusBadRequest},
		{"font size out of range", "PUT", "/sessions/" + id + "/preferences", gin.H{"font_size": 99}, http.StatusBadRequest},
		{"example index not a number", "POST", "/sessions/" + id + "/examples/x", nil, http.StatusBadRequest},
		{"example index out of range", "POST", "/sessions/" + id + "/examples/99", nil, http.StatusNotFound},
		{"save without store", "POST", "/sessions/" + id + "/save", nil, http.StatusServiceUnavailable},
		{"load without store", "POST", "/sessions/" + id + "/load", nil, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := env.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestLoadWithoutSavedSnippet(t *testing.T) {
	env := newTestEnv(t, storage.NewMemory(0), 0)
	id := env.createSession(t, "typescript")

	w, _ := env.do(t, "POST", "/sessions/"+id+"/load", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnsupportedSessionRun(t *testing.T) {
	env := newTestEnv(t, nil, 0)
	id := env.createSession(t, "python")

	w, body := env.do(t, "POST", "/sessions/"+id+"/run", nil)
	require.Equal(t, http.StatusOK, w.Code)
	result := body["result"].(map[string]any)
	assert.Equal(t, "unsupported", result["outcome"])
	assert.Contains(t, result["output"], "Pyodide")
}

func TestPreferencesMerge(t *testing.T) {
	env := newTestEnv(t, nil, 0)
	id := env.createSession(t, "")

	w, body := env.do(t, "PUT", "/sessions/"+id+"/preferences", gin.H{"font_size": 18, "word_wrap": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	prefs := body["preferences"].(map[string]any)
	assert.EqualValues(t, 18, prefs["font_size"])
	assert.EqualValues(t, 2, prefs["indent_size"])
	assert.Equal(t, false, prefs["word_wrap"])
	assert.Equal(t, true, prefs["line_numbers"])
}

func TestResetAndExample(t *testing.T) {
	env := newTestEnv(t, nil, 0)
	id := env.createSession(t, "javascript")
	profile, err := language.Default().Get("javascript")
	require.NoError(t, err)

	w, body := env.do(t, "POST", "/sessions/"+id+"/examples/0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, profile.Examples[0].Source, body["session"].(map[string]any)["source"])

	w, body = env.do(t, "POST", "/sessions/"+id+"/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, profile.DefaultSource, body["session"].(map[string]any)["source"])
	assert.Equal(t, "", body["session"].(map[string]any)["output"])
}

func TestCopyAndShare(t *testing.T) {
	env := newTestEnv(t, nil, 0)
	id := env.createSession(t, "typescript")
	env.do(t, "PUT", "/sessions/"+id+"/source", gin.H{"source": "const n: number = 1"})

	w, body := env.do(t, "GET", "/sessions/"+id+"/copy", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "const n: number = 1", body["source"])

	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)
	req := httptest.NewRequest("GET", "/sessions/"+id+"/copy", nil)
	req.Header.Set("If-None-Match", etag)
	w, _ = env.serve(t, req)
	assert.Equal(t, http.StatusNotModified, w.Code)

	w, _ = env.do(t, "GET", "/sessions/"+id+"/copy?download=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="snippet.ts"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "const n: number = 1", w.Body.String())

	w, body = env.do(t, "POST", "/sessions/"+id+"/share", nil)
	require.Equal(t, http.StatusOK, w.Code)
	token := body["token"].(string)
	require.NotEmpty(t, token)

	target := env.createSession(t, "javascript")
	w, body = env.do(t, "GET", "/share/"+token+"?session="+target, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "typescript", body["payload"].(map[string]any)["language"])
	snap := body["session"].(map[string]any)
	assert.Equal(t, "typescript", snap["language"])
	assert.Equal(t, "const n: number = 1", snap["source"])

	w, _ = env.do(t, "GET", "/share/not-a-token", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func multipartRequest(t *testing.T, path, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestImportSnippet(t *testing.T) {
	env := newTestEnv(t, nil, 1024)
	id := env.createSession(t, "javascript")
	path := "/sessions/" + id + "/import"

	w, body := env.serve(t, multipartRequest(t, path, "hello.py", []byte("print('hi')\n"), nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	snap := body["session"].(map[string]any)
	assert.Equal(t, "python", snap["language"])
	assert.Equal(t, "print('hi')\n", snap["source"])

	w, body = env.serve(t, multipartRequest(t, path, "notes.txt", []byte("<p>hi</p>"), map[string]string{"language": "html"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "html", body["session"].(map[string]any)["language"])

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	w, _ = env.serve(t, multipartRequest(t, path, "image.js", png, nil))
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	w, _ = env.serve(t, multipartRequest(t, path, "big.js", bytes.Repeat([]byte("a"), 2048), nil))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w, _ = env.serve(t, multipartRequest(t, path, "x.rb", []byte("puts 1"), map[string]string{"language": "ruby"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCatalogRoutes(t *testing.T) {
	env := newTestEnv(t, nil, 0)

	w, body := env.do(t, "GET", "/catalog/tutorials?difficulty=Advanced", nil)
	require.Equal(t, http.StatusOK, w.Code)
	for _, raw := range body["tutorials"].([]any) {
		tut := raw.(map[string]any)
		assert.Equal(t, "advanced", tut["difficulty"])
		assert.NotContains(t, tut, "sections")
	}
	assert.NotZero(t, body["count"])

	w, body = env.do(t, "GET", "/catalog/tutorials/modern-react-development-with-nextjs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	html := body["html"].([]any)
	require.NotEmpty(t, html)
	assert.Contains(t, html[0], "<h")

	w, _ = env.do(t, "GET", "/catalog/tutorials/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, body = env.do(t, "GET", "/catalog/projects?sort=az", nil)
	require.Equal(t, http.StatusOK, w.Code)
	projects := body["projects"].([]any)
	require.NotEmpty(t, projects)
	for i := 1; i < len(projects); i++ {
		prev := strings.ToLower(projects[i-1].(map[string]any)["title"].(string))
		cur := strings.ToLower(projects[i].(map[string]any)["title"].(string))
		assert.LessOrEqual(t, prev, cur)
	}

	w, body = env.do(t, "GET", "/catalog/posts?category=Web+Development", nil)
	require.Equal(t, http.StatusOK, w.Code)
	posts := body["posts"].([]any)
	require.Len(t, posts, 2)
	first := posts[0].(map[string]any)
	assert.Equal(t, "typescript-types-that-disappear", first["slug"])
	assert.NotContains(t, first, "content")
	assert.Equal(t, "Michael Chen", first["author"].(map[string]any)["name"])

	w, body = env.do(t, "GET", "/catalog/posts/semantic-html-first", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, body["html"], "<h1")
	assert.Equal(t, "/blog/semantic-html.svg", body["post"].(map[string]any)["image"])

	w, _ = env.do(t, "GET", "/catalog/posts/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProgress(t *testing.T) {
	env := newTestEnv(t, nil, 0)
	env.progress.entries = []progress.Entry{{TutorialID: "1", Progress: 40}, {TutorialID: "2", Progress: 80}}

	req := httptest.NewRequest("GET", "/progress", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w, body := env.serve(t, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "secret", env.progress.token)
	assert.InDelta(t, 60, body["overall"], 0.001)
	assert.Len(t, body["entries"], 2)

	env.progress.err = progress.ErrNotConfigured
	w, _ = env.do(t, "GET", "/progress", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	env.progress.err = progress.ErrUnavailable
	w, _ = env.do(t, "GET", "/progress", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestHealthAndStats(t *testing.T) {
	env := newTestEnv(t, nil, 0)
	env.do(t, "POST", "/run", gin.H{"language": "javascript", "source": "1"})

	w, body := env.do(t, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "none", body["storage"])
	pool := body["sandbox"].(map[string]any)
	assert.EqualValues(t, 1, pool["size"])
	assert.EqualValues(t, 0, pool["in_use"])

	w, body = env.do(t, "GET", "/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	runs := body["runs"].(map[string]any)
	assert.EqualValues(t, 1, runs["samples"])
	assert.Contains(t, body, "sessions")
	assert.EqualValues(t, 0, body["open_frames"])
}

func TestSavedSnippets(t *testing.T) {
	env := newTestEnv(t, storage.NewMemory(0), 0)

	w, body := env.do(t, "GET", "/saved", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["languages"])

	for _, lang := range []string{"typescript", "html"} {
		id := env.createSession(t, lang)
		w, _ = env.do(t, "POST", "/sessions/"+id+"/save", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w, body = env.do(t, "GET", "/saved", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"html", "typescript"}, body["languages"])

	w, _ = env.do(t, "DELETE", "/saved/html", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w, _ = env.do(t, "DELETE", "/saved/cobol", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = env.do(t, "GET", "/saved", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"typescript"}, body["languages"])
}

func TestSavedWithoutStore(t *testing.T) {
	env := newTestEnv(t, nil, 0)

	w, _ := env.do(t, "GET", "/saved", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestClearOutput(t *testing.T) {
	env := newTestEnv(t, nil, 0)
	id := env.createSession(t, "javascript")

	w, body := env.do(t, "POST", "/sessions/"+id+"/run", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, body["session"].(map[string]any)["output"])

	w, body = env.do(t, "DELETE", "/sessions/"+id+"/output", nil)
	require.Equal(t, http.StatusOK, w.Code)
	snap := body["session"].(map[string]any)
	assert.Equal(t, "", snap["output"])
	assert.Nil(t, snap["result"])
}
