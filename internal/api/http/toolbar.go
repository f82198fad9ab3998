package http

import (
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/GriffinCanCode/codeplayground/internal/providers/share"
)

// ImportSnippet replaces the session's source with an uploaded text file.
// The language comes from the "language" form field, else the file
// extension, else the session's current language.
func (h *Handlers) ImportSnippet(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		h.respondError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if header.Size > h.maxSource {
		h.respondError(c, fmt.Errorf("%w: %d bytes exceeds %d", errSourceTooLarge, header.Size, h.maxSource))
		return
	}

	file, err := header.Open()
	if err != nil {
		h.respondError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxSource+1))
	if err != nil {
		h.respondError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if err := h.checkSource(string(data)); err != nil {
		h.respondError(c, err)
		return
	}

	mtype := mimetype.Detect(data)
	if len(data) > 0 && (!isText(mtype) || !utf8.Valid(data)) {
		h.respondError(c, fmt.Errorf("%w: %s", errUnsupportedMedia, mtype.String()))
		return
	}

	languageID := c.PostForm("language")
	if languageID == "" {
		if profile, found := h.registry.ByExtension(filepath.Ext(header.Filename)); found {
			languageID = profile.ID
		}
	}
	if languageID != "" && languageID != sess.Language() {
		if err := sess.SelectLanguage(c.Request.Context(), languageID); err != nil {
			h.respondError(c, err)
			return
		}
	}
	sess.UpdateSource(string(data))

	h.logger.Debug("Snippet imported",
		zap.String("session", sess.ID()),
		zap.String("filename", header.Filename),
		zap.String("mime", mtype.String()))

	c.JSON(http.StatusOK, gin.H{
		"mime":    mtype.String(),
		"session": sess.Snapshot(),
	})
}

// isText reports whether m is text/plain or derives from it.
func isText(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// CopySource returns the session's source. With ?download=1 it is served as
// a file attachment named after the language extension.
func (h *Handlers) CopySource(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	snap := sess.Snapshot()

	tag := sourceETag(snap.Language, snap.Source)
	c.Header("ETag", tag)
	if c.GetHeader("If-None-Match") == tag {
		c.Status(http.StatusNotModified)
		return
	}

	if c.Query("download") != "" {
		ext := "txt"
		if profile, err := h.registry.Get(snap.Language); err == nil && profile.Extension != "" {
			ext = profile.Extension
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="snippet.%s"`, ext))
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(snap.Source))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"language": snap.Language,
		"source":   snap.Source,
	})
}

// sourceETag is a strong validator over the language and source.
func sourceETag(languageID, source string) string {
	sum := blake2b.Sum256([]byte(languageID + "\x00" + source))
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

// ShareSession encodes the session's language and source into a token.
func (h *Handlers) ShareSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	snap := sess.Snapshot()

	token, err := share.Encode(share.Payload{Language: snap.Language, Source: snap.Source})
	if err != nil {
		h.respondError(c, fmt.Errorf("%w: %v", errSourceTooLarge, err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"path":  "/share/" + token,
	})
}

// ResolveShare decodes a share token. With ?session=<id> the payload is
// also applied to that session.
func (h *Handlers) ResolveShare(c *gin.Context) {
	payload, err := share.Decode(c.Param("token"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	body := gin.H{"payload": payload}
	if id := c.Query("session"); id != "" {
		sess, err := h.sessions.Get(id)
		if err != nil {
			h.respondError(c, err)
			return
		}
		if payload.Language != sess.Language() {
			if err := sess.SelectLanguage(c.Request.Context(), payload.Language); err != nil {
				h.respondError(c, err)
				return
			}
		}
		sess.UpdateSource(payload.Source)
		body["session"] = sess.Snapshot()
	}
	c.JSON(http.StatusOK, body)
}
