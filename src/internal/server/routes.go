package server

import (
	"time"

	"heartmon-svc/src/clients"
	"heartmon-svc/src/internal/dependency"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func SetupRoutes(deps *dependency.Manager) {
	router := deps.Router
	router.Use(enableCORS)

	setupHealthEndpoints(deps)
	setupUserRoutes(router, deps)
	setupSessionRoutes(router, deps)
	setupStreamRoutes(router, deps)

	// The bare root is not a usable endpoint, the mobile clients only probe it.
	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"path": "Invalid Path"})
	})
}

func setupHealthEndpoints(deps *dependency.Manager) {
	router := deps.Router
	mongodb := deps.Mongodb
	redisClient := deps.Redis
	cfg := deps.Config

	router.GET("/health", func(c *gin.Context) {
		log.Info("Health check endpoint requested")

		mongoStatus := "ok"
		if err := mongodb.Client.Ping(c.Request.Context(), nil); err != nil {
			mongoStatus = "error: " + err.Error()
		}

		redisStatus := "ok"
		if err := redisClient.Client.Ping(c.Request.Context()).Err(); err != nil {
			redisStatus = "error: " + err.Error()
		}

		c.JSON(200, gin.H{
			"status":    "ok",
			"service":   cfg.App.Name,
			"version":   cfg.App.Version,
			"mongodb":   mongoStatus,
			"redis":     redisStatus,
			"timestamp": time.Now().UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	})

	router.GET("/health/detailed", func(c *gin.Context) {
		log.Info("Detailed health check endpoint requested")

		c.JSON(200, gin.H{
			"status":  "operational",
			"service": cfg.App.Name,
			"version": cfg.App.Version,
			"components": gin.H{
				"database": gin.H{
					"mongodb": getStatus(isMongoConnected(mongodb, c)),
					"redis":   getStatus(isRedisConnected(redisClient.Client, c)),
				},
				"services": gin.H{
					"user":    "operational",
					"session": "operational",
					"stream":  gin.H{"subscribers": deps.Bus.SubscriberCount()},
				},
			},
		})
	})
}

func setupUserRoutes(router *gin.Engine, deps *dependency.Manager) {
	handler := deps.UserHandler
	auth := deps.Auth

	router.POST("/login-user", handler.Login)
	router.POST("/logout-user", handler.Logout)
	router.POST("/register-user", handler.Register)
	router.GET("/get-user/:username", auth.RequireAuth(), handler.GetUser)

	router.POST("/send-recovery-email", handler.SendRecoveryEmail)
	router.POST("/change-password", handler.ChangePassword)

	router.POST("/login-teacher", handler.TeacherLogin)
}

func setupSessionRoutes(router *gin.Engine, deps *dependency.Manager) {
	handler := deps.SessionHandler
	auth := deps.Auth

	router.GET("/get-user-sessions/:username/:type", auth.RequireAuth(), handler.UserSessions)
	router.GET("/get-sessions/:username", auth.AllowGuest(), handler.SignableSessions)

	// Trailing slashes kept for wire compatibility with the mobile clients.
	router.POST("/session-sign-in/", handler.SignIn)
	router.POST("/session-sign-out/", handler.SignOut)
	router.POST("/session-summary/", handler.SaveSummary)
	router.POST("/get-session-summary/", handler.GetSummary)

	router.POST("/enter-session", handler.Enter)
	router.POST("/leave-session", handler.Leave)

	router.POST("/create-session", handler.Create)
	router.POST("/get-teacher-sessions", handler.TeacherSessions)
	router.POST("/cancel-session", handler.Cancel)
	router.POST("/start-session", handler.Start)
	router.POST("/close-session", handler.Close)
}

func setupStreamRoutes(router *gin.Engine, deps *dependency.Manager) {
	handler := deps.StreamHandler

	router.POST("/heartbeat-info", handler.Heartbeat)
	router.POST("/hrv", handler.HRV)
	router.GET("/session/:sessionId", handler.Stream)
}

func isMongoConnected(mongodb *clients.MongoDB, c *gin.Context) bool {
	if err := mongodb.Client.Ping(c.Request.Context(), nil); err != nil {
		return false
	}
	return true
}

func isRedisConnected(redisClient *redis.Client, c *gin.Context) bool {
	if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
		return false
	}
	return true
}

func enableCORS(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type, Device-Token")

	if c.Request.Method == "OPTIONS" {
		c.AbortWithStatus(204)
		return
	}

	c.Next()
}

func getStatus(b bool) string {
	if b {
		return "connected"
	}
	return "disconnected"
}
