package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/codeplayground/internal/domain/language"
	"github.com/GriffinCanCode/codeplayground/internal/domain/session"
	"github.com/GriffinCanCode/codeplayground/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/codeplayground/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/codeplayground/internal/providers/catalog"
	"github.com/GriffinCanCode/codeplayground/internal/providers/progress"
	"github.com/GriffinCanCode/codeplayground/internal/providers/share"
	"github.com/GriffinCanCode/codeplayground/internal/providers/storage"
)

// DefaultMaxSourceBytes caps snippet sources when no limit is configured.
const DefaultMaxSourceBytes = 256 * 1024

// ProgressFetcher returns tutorial progress for a bearer token.
type ProgressFetcher interface {
	Fetch(ctx context.Context, token string) ([]progress.Entry, error)
}

// StorageState reports the snippet store's circuit breaker state.
type StorageState interface {
	State() resilience.State
}

// PoolStats reports sandbox pool occupancy.
type PoolStats interface {
	Stats() map[string]interface{}
}

// FrameCounter reports how many detached markup documents are alive.
type FrameCounter interface {
	OpenFrames() int64
}

// Deps are the components the handlers serve.
type Deps struct {
	Registry       *language.Registry
	Runner         session.Runner
	Sessions       *session.Manager
	Catalog        *catalog.Catalog
	Progress       ProgressFetcher
	Metrics        *monitoring.Metrics
	Storage        StorageState
	Sandbox        PoolStats
	Frames         FrameCounter
	MaxSourceBytes int64
	Logger         *zap.Logger
}

// Handlers contains all HTTP handlers
type Handlers struct {
	registry  *language.Registry
	runner    session.Runner
	sessions  *session.Manager
	catalog   *catalog.Catalog
	progress  ProgressFetcher
	metrics   *monitoring.Metrics
	storage   StorageState
	sandbox   PoolStats
	frames    FrameCounter
	maxSource int64
	logger    *zap.Logger
	started   time.Time
}

// NewHandlers creates a new handler set
func NewHandlers(d Deps) *Handlers {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxSource := d.MaxSourceBytes
	if maxSource <= 0 {
		maxSource = DefaultMaxSourceBytes
	}
	return &Handlers{
		registry:  d.Registry,
		runner:    d.Runner,
		sessions:  d.Sessions,
		catalog:   d.Catalog,
		progress:  d.Progress,
		metrics:   d.Metrics,
		storage:   d.Storage,
		sandbox:   d.Sandbox,
		frames:    d.Frames,
		maxSource: maxSource,
		logger:    logger.Named("http"),
		started:   time.Now(),
	}
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"service":   "Code Playground",
		"version":   "1.0.0",
		"languages": h.registry.IDs(),
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	status := "healthy"
	storageState := "none"
	if h.storage != nil {
		state := h.storage.State()
		storageState = state.String()
		if state == resilience.StateOpen {
			status = "degraded"
		}
	}

	body := gin.H{
		"status":   status,
		"storage":  storageState,
		"sessions": h.sessions.Stats(),
		"uptime":   time.Since(h.started).Round(time.Second).String(),
	}
	if h.sandbox != nil {
		body["sandbox"] = h.sandbox.Stats()
	}
	c.JSON(http.StatusOK, body)
}

// Stats returns counters, the run duration summary and session totals.
func (h *Handlers) Stats(c *gin.Context) {
	body := gin.H{"sessions": h.sessions.Stats()}
	if h.metrics != nil {
		body["metrics"] = h.metrics.Snapshot()
		body["runs"] = h.metrics.Summary()
		body["uptime_seconds"] = h.metrics.Uptime().Seconds()
	}
	if h.frames != nil {
		body["open_frames"] = h.frames.OpenFrames()
	}
	c.JSON(http.StatusOK, body)
}

// respondError maps domain errors to HTTP statuses.
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err))
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge), errors.Is(err, errSourceTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errUnsupportedMedia):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, session.ErrUnknownLanguage),
		errors.Is(err, session.ErrInvalidPreferences),
		errors.Is(err, share.ErrInvalidToken),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrAlreadyRunning):
		return http.StatusConflict
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, session.ErrNoSavedSnippet),
		errors.Is(err, session.ErrExampleNotFound),
		errors.Is(err, catalog.ErrTutorialNotFound),
		errors.Is(err, catalog.ErrSectionNotFound),
		errors.Is(err, catalog.ErrPostNotFound),
		errors.Is(err, language.ErrNotFound),
		errors.Is(err, progress.ErrNotConfigured):
		return http.StatusNotFound
	case errors.Is(err, session.ErrStorageUnavailable),
		errors.Is(err, storage.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, progress.ErrUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
