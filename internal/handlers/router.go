package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskmanager/internal/constants"
	"github.com/yukikurage/taskmanager/internal/middleware"
	"github.com/yukikurage/taskmanager/internal/services"
)

// Deps are the collaborators the HTTP layer is built from. AIService may be nil.
type Deps struct {
	Log          *slog.Logger
	SessionStore sessions.Store
	AuthService  *services.AuthService
	TaskService  *services.TaskService
	AIService    *services.AIService
}

// Register installs the middleware chain, templates and every route on r.
func Register(r *gin.Engine, deps Deps) {
	r.Use(middleware.RequestID(), middleware.Logger(deps.Log), gin.Recovery())
	r.Use(sessions.Sessions(constants.SessionCookieName, deps.SessionStore))
	r.SetHTMLTemplate(Templates())

	authHandler := NewAuthHandler(deps.AuthService)
	taskHandler := NewTaskHandler(deps.TaskService, deps.AIService)
	pageHandler := NewPageHandler(deps.AuthService, deps.TaskService, deps.Log)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Pages
	r.GET("/", middleware.RequirePageAuth(), pageHandler.Home)
	r.GET("/index", middleware.RequirePageAuth(), pageHandler.Home)
	r.GET("/login", pageHandler.LoginPage)
	r.POST("/login", pageHandler.Login)
	r.GET("/register", pageHandler.RegisterPage)
	r.POST("/register", pageHandler.Register)
	r.GET("/logout", pageHandler.Logout)

	// Auth routes (public)
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout)
		auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
	}

	// Terminal routes (protected)
	terminal := r.Group("/terminal")
	terminal.Use(middleware.RequireAuth())
	{
		terminal.POST("/add", taskHandler.AddTask)
		terminal.POST("/list", taskHandler.ListTasks)
		terminal.POST("/view", taskHandler.ViewTask)
		terminal.POST("/delete", taskHandler.DeleteTask)
		terminal.POST("/edit", taskHandler.EditTask)
		terminal.POST("/parent", taskHandler.SetParent)
		terminal.POST("/suggest", taskHandler.SuggestTasks)
	}
}
