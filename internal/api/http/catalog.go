package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/codeplayground/internal/providers/catalog"
)

// ListTutorials filters tutorials by category, difficulty, tag and q.
func (h *Handlers) ListTutorials(c *gin.Context) {
	tutorials := h.catalog.FindTutorials(catalog.TutorialQuery{
		Category:   c.Query("category"),
		Difficulty: c.Query("difficulty"),
		Tag:        c.Query("tag"),
		Search:     c.Query("q"),
	})
	for i := range tutorials {
		tutorials[i].Sections = nil
	}
	c.JSON(http.StatusOK, gin.H{
		"tutorials": tutorials,
		"count":     len(tutorials),
	})
}

// GetTutorial returns a tutorial with its sections rendered to HTML.
func (h *Handlers) GetTutorial(c *gin.Context) {
	slug := c.Param("slug")
	tutorial, err := h.catalog.Tutorial(slug)
	if err != nil {
		h.respondError(c, err)
		return
	}

	rendered := make([]string, len(tutorial.Sections))
	for i := range tutorial.Sections {
		html, err := h.catalog.RenderSection(slug, i)
		if err != nil {
			h.respondError(c, err)
			return
		}
		rendered[i] = html
	}
	c.JSON(http.StatusOK, gin.H{
		"tutorial": tutorial,
		"html":     rendered,
	})
}

// ListProjects filters projects by any of the tag and difficulty params
// and orders them by sort.
func (h *Handlers) ListProjects(c *gin.Context) {
	projects := h.catalog.FindProjects(catalog.ProjectQuery{
		Tags:         c.QueryArray("tag"),
		Difficulties: c.QueryArray("difficulty"),
		Search:       c.Query("q"),
		Sort:         c.Query("sort"),
	})
	c.JSON(http.StatusOK, gin.H{
		"projects": projects,
		"count":    len(projects),
	})
}

// ListPosts filters blog posts by category, tag and q, newest first.
func (h *Handlers) ListPosts(c *gin.Context) {
	posts := h.catalog.FindPosts(catalog.PostQuery{
		Category: c.Query("category"),
		Tag:      c.Query("tag"),
		Search:   c.Query("q"),
	})
	for i := range posts {
		posts[i].Content = ""
	}
	c.JSON(http.StatusOK, gin.H{
		"posts": posts,
		"count": len(posts),
	})
}

// GetPost returns a post with its content rendered to HTML.
func (h *Handlers) GetPost(c *gin.Context) {
	slug := c.Param("slug")
	post, err := h.catalog.Post(slug)
	if err != nil {
		h.respondError(c, err)
		return
	}
	html, err := h.catalog.RenderPost(slug)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"post": post,
		"html": html,
	})
}
