package cfg

import "time"

type Cfg struct {
	// Upstream configuration
	UpstreamURL       string
	APIKeys           []string
	DefaultRetryAfter time.Duration
	UpstreamTimeout   time.Duration
	UpstreamRPS       float64
	PageSize          int

	// Storage configuration
	CatalogFile string
	DBPath      string
	RedisAddr   string
	RedisPrefix string

	// Application configuration
	Port          string
	BaseUrl       string
	WorkerCount   int
	ProbeInterval time.Duration
	APIAccessKey  string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
