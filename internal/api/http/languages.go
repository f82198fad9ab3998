package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/codeplayground/internal/domain/dispatch"
	"github.com/GriffinCanCode/codeplayground/internal/domain/language"
)

var (
	errBadRequest       = errors.New("bad request")
	errSourceTooLarge   = errors.New("source too large")
	errUnsupportedMedia = errors.New("unsupported media type")
)

// ListLanguages lists every language in registration order.
func (h *Handlers) ListLanguages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"languages": h.registry.List(),
	})
}

// GetLanguage returns one language profile.
func (h *Handlers) GetLanguage(c *gin.Context) {
	profile, err := h.registry.Get(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	body := gin.H{"language": profile}
	if profile.Strategy == language.StrategyUnsupported {
		body["notice"] = dispatch.UnsupportedNotice(profile)
	}
	c.JSON(http.StatusOK, body)
}

// RunRequest is the body of a one-shot run.
type RunRequest struct {
	Language string `json:"language" binding:"required"`
	Source   string `json:"source"`
}

// Run executes a snippet without a session. Unknown languages come back as
// an unsupported result, not an error.
func (h *Handlers) Run(c *gin.Context) {
	var req RunRequest
	if !h.bind(c, &req) {
		return
	}
	if err := h.checkSource(req.Source); err != nil {
		h.respondError(c, err)
		return
	}

	result := h.runner.Run(c.Request.Context(), req.Language, req.Source)
	c.JSON(http.StatusOK, gin.H{"result": result})
}

func (h *Handlers) bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(c, err)
			return false
		}
		h.respondError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return false
	}
	return true
}

func (h *Handlers) checkSource(source string) error {
	if int64(len(source)) > h.maxSource {
		return fmt.Errorf("%w: %d bytes exceeds %d", errSourceTooLarge, len(source), h.maxSource)
	}
	return nil
}
