package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/news-comb/app/database"
	"github.com/lysyi3m/news-comb/app/news"
	"github.com/lysyi3m/news-comb/app/tasks"
)

func NewHandler(newsService NewsService, bookmarks database.BookmarkRepository,
	prober tasks.Prober, scheduler tasks.TaskSchedulerInterface, opts Options) *Handler {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = news.DefaultPageSize
	}

	return &Handler{
		news:      newsService,
		bookmarks: bookmarks,
		generator: NewGenerator(opts.BaseURL, opts.Version),
		prober:    prober,
		scheduler: scheduler,
		checks:    opts.Checks,
		pageSize:  pageSize,
	}
}

// GetNews always answers 200 with an envelope, live or fallback.
func (h *Handler) GetNews(c *gin.Context) {
	params := news.ParseParams(c.Request.URL.Query(), h.pageSize)
	envelope := h.news.Query(c.Request.Context(), params)

	c.Header("X-Total-Count", strconv.Itoa(envelope.Pagination.Total))
	c.JSON(http.StatusOK, envelope)
}

func (h *Handler) GetNewsRSS(c *gin.Context) {
	params := news.ParseParams(c.Request.URL.Query(), h.pageSize)
	envelope := h.news.Query(c.Request.Context(), params)

	rss := h.generator.Run(params, envelope, time.Now().In(time.Local))

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(envelope.Data)))
	c.String(http.StatusOK, rss)
}

func (h *Handler) GetHealth(c *gin.Context) {
	ctx := c.Request.Context()

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	status := http.StatusOK
	for name, check := range h.checks {
		result := check.Health(ctx)
		health[name] = result
		if result["status"] != "healthy" {
			health["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
	}

	c.JSON(status, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()
	stats := map[string]interface{}{
		"policy": h.news.Stats(ctx),
	}

	if count, err := h.bookmarks.Count(ctx); err == nil {
		stats["bookmarks"] = count
	} else {
		slog.Error("Database error", "operation", "count_bookmarks", "error", err)
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) ListBookmarks(c *gin.Context) {
	ctx := c.Request.Context()
	params := news.ParseParams(c.Request.URL.Query(), h.pageSize)

	bookmarks, err := h.bookmarks.List(ctx, params.Limit, params.Offset)
	if err != nil {
		slog.Error("Database error", "operation", "list_bookmarks", "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Database error"})
		return
	}

	total, err := h.bookmarks.Count(ctx)
	if err != nil {
		slog.Error("Database error", "operation", "count_bookmarks", "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Database error"})
		return
	}

	c.JSON(http.StatusOK, bookmarkList{
		Data: bookmarks,
		Pagination: news.Pagination{
			Limit:  params.Limit,
			Offset: params.Offset,
			Count:  len(bookmarks),
			Total:  total,
		},
	})
}

func (h *Handler) SaveBookmark(c *gin.Context) {
	var record news.Record
	if err := c.ShouldBindJSON(&record); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body", Message: err.Error()})
		return
	}

	if strings.TrimSpace(record.URL) == "" || strings.TrimSpace(record.Title) == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Missing required field", Message: "url and title are required"})
		return
	}

	bookmark, err := h.bookmarks.Save(c.Request.Context(), record)
	if err != nil {
		slog.Error("Database error", "operation", "save_bookmark", "url", record.URL, "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Database error"})
		return
	}

	c.JSON(http.StatusCreated, bookmark)
}

func (h *Handler) DeleteBookmark(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Missing url parameter"})
		return
	}

	err := h.bookmarks.Delete(c.Request.Context(), url)
	if errors.Is(err, database.ErrBookmarkNotFound) {
		c.JSON(http.StatusNotFound, errorResponse{Error: "Bookmark not found"})
		return
	}
	if err != nil {
		slog.Error("Database error", "operation", "delete_bookmark", "url", url, "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Database error"})
		return
	}

	c.Status(http.StatusNoContent)
}

// EnqueueProbe schedules an immediate upstream recovery check.
func (h *Handler) EnqueueProbe(c *gin.Context) {
	task := tasks.NewProbeUpstreamTask(h.prober)

	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing probe task", "error", err)
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "Failed to enqueue probe task", Message: err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"task": gin.H{
			"id":   task.ID,
			"type": task.Type,
		},
	})
}
