package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/codeplayground/internal/domain/session"
)

// CreateSessionRequest is the optional body of POST /sessions.
type CreateSessionRequest struct {
	Language string `json:"language"`
}

// LanguageRequest selects a language.
type LanguageRequest struct {
	Language string `json:"language" binding:"required"`
}

// SourceRequest replaces the editor contents.
type SourceRequest struct {
	Source string `json:"source"`
}

// CreateSession starts a session.
func (h *Handlers) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.respondError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	sess, err := h.sessions.Create(c.Request.Context(), req.Language)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": sess.Snapshot()})
}

// ListSessions lists sessions oldest first.
func (h *Handlers) ListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"sessions": h.sessions.List(),
		"stats":    h.sessions.Stats(),
	})
}

// GetSession returns one session.
func (h *Handlers) GetSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess.Snapshot()})
}

// DeleteSession removes a session.
func (h *Handlers) DeleteSession(c *gin.Context) {
	if err := h.sessions.Delete(c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}

// SelectLanguage switches the session's language.
func (h *Handlers) SelectLanguage(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req LanguageRequest
	if !h.bind(c, &req) {
		return
	}
	if err := sess.SelectLanguage(c.Request.Context(), req.Language); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess.Snapshot()})
}

// UpdateSource replaces the session's source.
func (h *Handlers) UpdateSource(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req SourceRequest
	if !h.bind(c, &req) {
		return
	}
	if err := h.checkSource(req.Source); err != nil {
		h.respondError(c, err)
		return
	}
	sess.UpdateSource(req.Source)
	c.JSON(http.StatusOK, gin.H{"session": sess.Snapshot()})
}

// UpdatePreferences merges the body into the session's preferences.
func (h *Handlers) UpdatePreferences(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	prefs := sess.Preferences()
	if !h.bind(c, &prefs) {
		return
	}
	if err := sess.UpdatePreferences(prefs); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"preferences": sess.Preferences()})
}

// ResetSession restores the language default and clears the output.
func (h *Handlers) ResetSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if err := sess.Reset(); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess.Snapshot()})
}

// LoadExample replaces the source with an example snippet.
func (h *Handlers) LoadExample(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.respondError(c, fmt.Errorf("%w: example index %q", errBadRequest, c.Param("index")))
		return
	}
	example, err := sess.LoadExample(index)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"example": example,
		"session": sess.Snapshot(),
	})
}

// RunSession runs the session's source.
func (h *Handlers) RunSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	result, err := sess.Run(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"result":  result,
		"session": sess.Snapshot(),
	})
}

// SaveSession stores the current source for its language.
func (h *Handlers) SaveSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if err := sess.Save(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"saved":    true,
		"language": sess.Language(),
	})
}

// LoadSession restores the saved source for the current language.
func (h *Handlers) LoadSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if _, err := sess.Load(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess.Snapshot()})
}

// ClearOutput empties the session's output pane.
func (h *Handlers) ClearOutput(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	sess.ClearOutput()
	c.JSON(http.StatusOK, gin.H{"session": sess.Snapshot()})
}

// ListSaved lists the languages with a saved snippet.
func (h *Handlers) ListSaved(c *gin.Context) {
	languages, err := h.sessions.SavedLanguages(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"languages": languages})
}

// ForgetSaved deletes a language's saved snippet.
func (h *Handlers) ForgetSaved(c *gin.Context) {
	languageID := c.Param("language")
	if err := h.sessions.ForgetSaved(c.Request.Context(), languageID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) session(c *gin.Context) (*session.Session, bool) {
	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	return sess, true
}
