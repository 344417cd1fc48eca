package routes

import (
	"network/api/handlers"
	"network/api/middleware"

	"github.com/gin-gonic/gin"
)

func PublicApi(router *gin.Engine, h *handlers.Handler) {
	router.GET("/", h.Index)
	router.GET("/login", h.LoginPage)
	router.POST("/login", h.Login)
	router.GET("/register", h.RegisterPage)
	router.POST("/register", h.Register)
	router.POST("/logout", h.Logout)
	router.GET("/profile/:username", h.Profile)
	router.GET("/posts/:id/comments", h.ListComments)
	// answers anonymous callers with its own 403
	router.POST("/posts/:id/comment", h.CreateComment)

	protected := router.Group("/")
	protected.Use(middleware.RequireAuth())
	{
		protected.GET("following", h.Following)
		protected.POST("posts/create", h.CreatePost)
		protected.PUT("posts/:id/edit", h.EditPost)
		protected.PUT("posts/:id/like", h.ToggleLike)
		protected.DELETE("posts/:id", h.DeletePost)
		protected.POST("profile/:username/follow", h.ToggleFollow)
		protected.GET("ws/notifications", h.Notifications)
	}
}
