package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/lysyi3m/news-comb/app/news"
)

const maxBodySize = 10 << 20

type Options struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	UserAgent         string
}

// Fetcher issues a single live request with one credential.
type Fetcher interface {
	Fetch(ctx context.Context, accessKey string, params news.Params) Outcome
}

var _ Fetcher = (*Client)(nil)

// Client talks to a mediastack-compatible news endpoint.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &Client{
		baseURL:   opts.BaseURL,
		userAgent: opts.UserAgent,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 5 * time.Second,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(limit, 1),
	}
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiResponse struct {
	Pagination *news.Pagination `json:"pagination"`
	Data       *[]news.Record   `json:"data"`
	Error      *apiError        `json:"error"`
}

func (c *Client) Fetch(ctx context.Context, accessKey string, params news.Params) Outcome {
	if err := c.limiter.Wait(ctx); err != nil {
		return Failure{Reason: Transport, Err: fmt.Errorf("rate limiter wait failed: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return Failure{Reason: Transport, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.URL.RawQuery = params.Values(accessKey).Encode()
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Failure{Reason: Transport, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	retryAfter := ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now())

	// Limiting statuses are classified from the headers alone.
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return Failure{Reason: RateLimited, Status: resp.StatusCode, RetryAfter: retryAfter}
	case http.StatusUnauthorized, http.StatusForbidden:
		return Failure{Reason: CredentialRejected, Status: resp.StatusCode, RetryAfter: retryAfter}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return Failure{Reason: Transport, Status: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	var payload apiResponse
	decodeErr := json.Unmarshal(body, &payload)

	if decodeErr == nil && payload.Error != nil {
		return Failure{
			Reason:     classifyErrorCode(payload.Error.Code),
			Status:     resp.StatusCode,
			RetryAfter: retryAfter,
			Err:        fmt.Errorf("upstream error %s: %s", payload.Error.Code, payload.Error.Message),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Failure{Reason: Transport, Status: resp.StatusCode, Err: errors.New("upstream returned non-2xx")}
	}

	if decodeErr != nil {
		return Failure{Reason: Malformed, Status: resp.StatusCode, Err: fmt.Errorf("failed to parse response: %w", decodeErr)}
	}
	if payload.Data == nil {
		return Failure{Reason: Malformed, Status: resp.StatusCode, Err: errors.New("response has no data field")}
	}

	envelope := news.Envelope{Data: *payload.Data}
	if payload.Pagination != nil {
		envelope.Pagination = *payload.Pagination
	} else {
		envelope.Pagination = news.Pagination{
			Limit:  params.Limit,
			Offset: params.Offset,
			Count:  len(envelope.Data),
			Total:  params.Offset + len(envelope.Data),
		}
	}

	return Success{Envelope: envelope}
}

// classifyErrorCode maps mediastack error codes onto attempt reasons.
func classifyErrorCode(code string) Reason {
	switch strings.ToLower(code) {
	case "usage_limit_reached", "rate_limit_reached":
		return RateLimited
	case "invalid_access_key", "missing_access_key", "inactive_user", "https_access_restricted", "function_access_restricted":
		return CredentialRejected
	default:
		return Malformed
	}
}

// ParseRetryAfter accepts delay-seconds or an HTTP date. It returns zero for
// an absent, malformed or past value.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds <= 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}

	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d.Truncate(time.Second)
		}
	}

	return 0
}
