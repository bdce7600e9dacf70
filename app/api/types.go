package api

import (
	"context"

	"github.com/lysyi3m/news-comb/app/database"
	"github.com/lysyi3m/news-comb/app/news"
	"github.com/lysyi3m/news-comb/app/policy"
	"github.com/lysyi3m/news-comb/app/tasks"
)

type NewsService interface {
	Query(ctx context.Context, params news.Params) news.Envelope
	Stats(ctx context.Context) policy.Stats
}

var _ NewsService = (*policy.Policy)(nil)

type HealthChecker interface {
	Health(ctx context.Context) map[string]interface{}
}

var _ HealthChecker = (*database.DB)(nil)

type Handler struct {
	news      NewsService
	bookmarks database.BookmarkRepository
	generator *Generator
	prober    tasks.Prober
	scheduler tasks.TaskSchedulerInterface
	checks    map[string]HealthChecker
	pageSize  int
}

type Options struct {
	PageSize int
	BaseURL  string
	Version  string
	// Checks are reported by /health under their map keys.
	Checks map[string]HealthChecker
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type bookmarkList struct {
	Data       []database.Bookmark `json:"data"`
	Pagination news.Pagination     `json:"pagination"`
}
