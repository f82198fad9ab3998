package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/codeplayground/internal/providers/progress"
)

// GetProgress proxies the dashboard progress API with the caller's bearer
// token.
func (h *Handlers) GetProgress(c *gin.Context) {
	if h.progress == nil {
		h.respondError(c, progress.ErrNotConfigured)
		return
	}

	token := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
	entries, err := h.progress.Fetch(c.Request.Context(), token)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"overall": progress.Overall(entries),
	})
}
