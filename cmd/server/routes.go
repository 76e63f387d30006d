package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"shortcut-relay.backend/internal/interfaces/http/handlers"
	"shortcut-relay.backend/internal/interfaces/http/middleware"
)

type routeDeps struct {
	authHandler    *handlers.AuthHandler
	deviceHandler  *handlers.DeviceHandler
	webhookHandler *handlers.WebhookHandler
	apiKeyHandler  *handlers.ApiKeyHandler
	triggerHandler *handlers.TriggerHandler
	authMiddleware gin.HandlerFunc
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	{
		// Auth routes (public, except profile and password)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", d.authHandler.Register)
			auth.POST("/login", d.authHandler.Login)
			auth.POST("/logout", d.authMiddleware, d.authHandler.Logout)
			auth.GET("/me", d.authMiddleware, d.authHandler.GetMe)
			auth.POST("/change-password", d.authMiddleware, d.authHandler.ChangePassword)
		}

		// Device routes (protected)
		devices := v1.Group("/devices")
		devices.Use(d.authMiddleware)
		{
			devices.POST("", d.deviceHandler.RegisterDevice)
			devices.GET("", d.deviceHandler.ListDevices)
			devices.DELETE("/:id", d.deviceHandler.DeactivateDevice)
		}

		// Webhook management routes (protected)
		webhooks := v1.Group("/webhooks")
		webhooks.Use(d.authMiddleware)
		{
			webhooks.POST("", d.webhookHandler.CreateWebhook)
			webhooks.GET("", d.webhookHandler.ListWebhooks)
			webhooks.DELETE("/:id", d.webhookHandler.RevokeWebhook)
			webhooks.POST("/:id/rotate", d.webhookHandler.RotateWebhook)
			webhooks.GET("/:id/stats", d.webhookHandler.GetWebhookStats)
		}

		// API key routes (protected)
		keys := v1.Group("/keys")
		keys.Use(d.authMiddleware)
		{
			keys.POST("", d.apiKeyHandler.CreateApiKey)
			keys.GET("", d.apiKeyHandler.ListApiKeys)
			keys.DELETE("/:id", d.apiKeyHandler.RevokeApiKey)
		}

		// Public trigger endpoint. The orchestrator's gate decides everything,
		// including whether anonymous callers are admitted.
		v1.POST("/trigger/:webhookId", middleware.IdempotencyMiddleware(), d.triggerHandler.Trigger)
	}
}

func registerHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "shortcut-relay-backend",
			"version": "0.2.0",
		})
	})
}

func registerMetricsRoute(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func applyCORSMiddleware(r *gin.Engine) {
	r.Use(func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Api-Key, X-Webhook-Signature, X-Request-ID, Idempotency-Key")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})
}
