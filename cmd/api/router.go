package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"autoblog-backend/internal/shared/middleware"
	"autoblog-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(),
	)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		setupAuthRoutes(v1, c)
		setupPostRoutes(v1, c)
		setupAdminRoutes(v1, c)
	}

	return router
}

// ========================================
// AUTH ROUTES
// ========================================
func setupAuthRoutes(v1 *gin.RouterGroup, c *container.Container) {
	auth := v1.Group("/auth")
	{
		auth.POST("/register", c.AuthHandler.Register)
		auth.POST("/login", c.AuthHandler.Login)
		auth.POST("/logout", middleware.Auth(c.JWTManager), c.AuthHandler.Logout)
		auth.GET("/me", c.AuthHandler.Me)
		auth.GET("/stream", c.SessionStream.StreamSession)
	}
}

// ========================================
// PUBLIC POST ROUTES
// ========================================
func setupPostRoutes(v1 *gin.RouterGroup, c *container.Container) {
	posts := v1.Group("/posts")
	{
		posts.GET("", c.PostHandler.ListPosts)
		posts.GET("/stream", c.PostStream.StreamPosts)
		posts.GET("/:id", c.PostHandler.GetPost)
	}
}

// ========================================
// ADMIN ROUTES
// ========================================
func setupAdminRoutes(v1 *gin.RouterGroup, c *container.Container) {
	admin := v1.Group("/admin")
	admin.Use(
		middleware.Auth(c.JWTManager),
		middleware.AdminGuard(c.Config.IsAdminEmail),
	)
	{
		admin.GET("/posts", c.PostHandler.AdminListPosts)
		admin.GET("/posts/:id", c.PostHandler.AdminGetPost)
		admin.POST("/posts", c.PostHandler.CreatePost)
		admin.PATCH("/posts/:id", c.PostHandler.UpdatePost)
		admin.DELETE("/posts/:id", c.PostHandler.DeletePost)
	}
}

// ========================================
// HEALTH CHECK HANDLER
// ========================================
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
		}

		dbStatus := "ok"
		if err := appCtx.DB.HealthCheck(c.Request.Context()); err != nil {
			dbStatus = fmt.Sprintf("error: %v", err)
			health["status"] = "degraded"
		}

		storeStatus := "ok"
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := appCtx.Store.Connect(ctx); err != nil {
			storeStatus = fmt.Sprintf("error: %v", err)
			health["status"] = "degraded"
		}

		health["services"] = gin.H{
			"database": dbStatus,
			"realtime": storeStatus,
		}

		statusCode := http.StatusOK
		if health["status"] != "ok" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, health)
	}
}
