package api

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, apiAccessKey string) *gin.Engine {
	// Set Gin mode (can be controlled via GIN_MODE environment variable)
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// Middleware
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	// CORS middleware for API endpoints
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-API-Key, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Routes
	setupRoutes(r, handler, apiAccessKey)

	return r
}

// setupRoutes configures all the application routes
func setupRoutes(r *gin.Engine, handler *Handler, apiAccessKey string) {
	// Health and status endpoints
	r.GET("/health", handler.GetHealth)
	r.GET("/stats", handler.GetStats)

	// Store endpoints, authenticated when an access key is configured
	store := r.Group("/")
	if apiAccessKey != "" {
		store.Use(authMiddleware(apiAccessKey))
		log.Printf("Store endpoints enabled with authentication")
	} else {
		log.Printf("Store endpoints enabled without authentication (API_ACCESS_KEY not set)")
	}
	{
		store.POST("/messages", handler.CreateMessage)
		store.GET("/messages/:user/:channel", handler.GetMessages)
		store.GET("/update_status/:user/:channel", handler.GetUpdateStatus)
		store.POST("/apply_updates/:user/:channel", handler.ApplyUpdates)
		store.GET("/processing/:user/:channel", handler.GetProcessing)
		store.POST("/filtering/:user/:channel", handler.MarkFiltered)
		store.POST("/tracking/:user/:channel", handler.CreateTracking)
		store.POST("/tracking_check/:user/:channel", handler.CheckTracking)
		store.POST("/reload", handler.ReloadConfigs)
	}

	// Root endpoint with basic information
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service":     "TG Sentinel",
			"description": "Telegram channel cross-poster with LLM ad filtering",
			"endpoints": map[string]string{
				"messages":       "/messages/<user>/<channel>",
				"update_status":  "/update_status/<user>/<channel>",
				"processing":     "/processing/<user>/<channel>",
				"filtering":      "/filtering/<user>/<channel> (POST)",
				"tracking":       "/tracking/<user>/<channel> (POST)",
				"tracking_check": "/tracking_check/<user>/<channel> (POST)",
				"health":         "/health",
				"stats":          "/stats",
			},
			"api_status": map[string]interface{}{
				"auth_required": apiAccessKey != "",
				"header":        "X-API-Key",
			},
		})
	})

	// Favicon handler (return 204 to avoid 404s)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}

// authMiddleware creates authentication middleware for API endpoints
func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get API key from X-API-Key header
		providedKey := c.GetHeader("X-API-Key")

		// Also check Authorization header with Bearer prefix
		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
			c.Abort()
			return
		}

		if providedKey != apiAccessKey {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid API key",
				"message": "The provided API key is not valid",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
