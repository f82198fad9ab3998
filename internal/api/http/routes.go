package http

import "github.com/gin-gonic/gin"

// Register mounts every JSON route on r.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/stats", h.Stats)

	r.GET("/languages", h.ListLanguages)
	r.GET("/languages/:id", h.GetLanguage)
	r.POST("/run", h.Run)

	sessions := r.Group("/sessions")
	{
		sessions.POST("", h.CreateSession)
		sessions.GET("", h.ListSessions)
		sessions.GET("/:id", h.GetSession)
		sessions.DELETE("/:id", h.DeleteSession)
		sessions.PUT("/:id/language", h.SelectLanguage)
		sessions.PUT("/:id/source", h.UpdateSource)
		sessions.PUT("/:id/preferences", h.UpdatePreferences)
		sessions.POST("/:id/reset", h.ResetSession)
		sessions.DELETE("/:id/output", h.ClearOutput)
		sessions.POST("/:id/examples/:index", h.LoadExample)
		sessions.POST("/:id/run", h.RunSession)
		sessions.POST("/:id/save", h.SaveSession)
		sessions.POST("/:id/load", h.LoadSession)
		sessions.POST("/:id/import", h.ImportSnippet)
		sessions.GET("/:id/copy", h.CopySource)
		sessions.POST("/:id/share", h.ShareSession)
	}
	r.GET("/share/:token", h.ResolveShare)

	r.GET("/saved", h.ListSaved)
	r.DELETE("/saved/:language", h.ForgetSaved)

	if h.catalog != nil {
		cat := r.Group("/catalog")
		{
			cat.GET("/tutorials", h.ListTutorials)
			cat.GET("/tutorials/:slug", h.GetTutorial)
			cat.GET("/projects", h.ListProjects)
			cat.GET("/posts", h.ListPosts)
			cat.GET("/posts/:slug", h.GetPost)
		}
	}
	r.GET("/progress", h.GetProgress)
}
