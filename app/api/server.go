package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, apiAccessKey string, version string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(requestID())

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\" %s\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
				param.Request.Header.Get(requestIDHeader),
			)
		},
		SkipPaths: []string{"/favicon.ico"},
	}))

	r.Use(gin.Recovery())

	// CORS for the browser dashboard
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-API-Key, X-Request-Id")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, apiAccessKey, version)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, apiAccessKey string, version string) {
	r.GET("/health", handler.GetHealth)
	r.GET("/stats", handler.GetStats)

	api := r.Group("/api")
	{
		api.GET("/news", handler.GetNews)
		api.GET("/news/rss", handler.GetNewsRSS)
	}

	private := api.Group("")
	if apiAccessKey != "" {
		private.Use(authMiddleware(apiAccessKey))
		slog.Info("Bookmark endpoints require authentication")
	} else {
		slog.Warn("Bookmark endpoints are public (API access key not set)")
	}
	{
		private.GET("/bookmarks", handler.ListBookmarks)
		private.POST("/bookmarks", handler.SaveBookmark)
		private.DELETE("/bookmarks", handler.DeleteBookmark)
		private.POST("/probe", handler.EnqueueProbe)
	}

	r.GET("/", func(c *gin.Context) {
		authNote := ""
		if apiAccessKey != "" {
			authNote = " (requires X-API-Key header)"
		}

		c.JSON(http.StatusOK, gin.H{
			"service":     "News Comb",
			"version":     version,
			"description": "Headline API with credential rotation, rate-limit memory and an offline fallback catalog",
			"endpoints": map[string]string{
				"news":      "/api/news?categories=&keywords=&countries=&languages=&sources=&date=&sort=&offset=&limit=",
				"rss":       "/api/news/rss",
				"bookmarks": "/api/bookmarks" + authNote,
				"probe":     "/api/probe (POST)" + authNote,
				"health":    "/health",
				"stats":     "/stats",
			},
			"api_status": map[string]interface{}{
				"auth_required": apiAccessKey != "",
				"header":        "X-API-Key",
			},
		})
	})

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
}

// requestID keeps an incoming X-Request-Id or assigns a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			c.Request.Header.Set(requestIDHeader, id)
		}
		c.Header(requestIDHeader, id)
		c.Set("request_id", id)
		c.Next()
	}
}

func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")

		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{
				Error:   "API key required",
				Message: "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
			return
		}

		if providedKey != apiAccessKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{
				Error:   "Invalid API key",
				Message: "The provided API key is not valid",
			})
			return
		}

		c.Next()
	}
}
