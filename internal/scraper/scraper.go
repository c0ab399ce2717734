package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pfrederiksen/uqam-horaire/internal/course"
	"github.com/pfrederiksen/uqam-horaire/internal/logger"
	"golang.org/x/time/rate"
)

const (
	UserAgent = "uqam-horaire/1.0 (github.com/pfrederiksen/uqam-horaire)"
	Timeout   = 30 * time.Second

	DefaultMaxRetries        = 3
	DefaultRetryInterval     = 500 * time.Millisecond
	DefaultRequestsPerSecond = 2.0
	DefaultCacheTTL          = 10 * time.Minute

	// DefaultMaxPageSize bounds how much of a response body is read
	DefaultMaxPageSize = 8 << 20
)

// ErrNetworkFailure wraps every error returned by a fetch. Such failures are
// transient from the caller's point of view and may be retried later.
var ErrNetworkFailure = errors.New("network failure")

// ErrPageTooLarge is returned when a page exceeds the size limit. It is not retried.
var ErrPageTooLarge = errors.New("page too large")

// StatusError is returned when the schedule site answers with a non-200 status
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
}

// retryable reports whether the same request may succeed later
func (e *StatusError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Scraper fetches schedule pages and extracts their groups. It is safe for
// concurrent use.
type Scraper struct {
	client        *http.Client
	baseURL       string
	limiter       *rate.Limiter
	cache         *pageCache
	maxRetries    uint64
	retryInterval time.Duration
	fields        Fields
	maxPageSize   int64
}

// Option configures a Scraper
type Option func(*Scraper)

// WithHost fetches pages from https://host instead of course.DefaultHost
func WithHost(host string) Option {
	return func(s *Scraper) {
		if host != "" {
			s.baseURL = "https://" + host
		}
	}
}

// WithBaseURL fetches pages from a full scheme and host, e.g. a test server
func WithBaseURL(baseURL string) Option {
	return func(s *Scraper) {
		s.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithTimeout sets the timeout of a single HTTP request
func WithTimeout(timeout time.Duration) Option {
	return func(s *Scraper) {
		if timeout > 0 {
			s.client.Timeout = timeout
		}
	}
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(s *Scraper) {
		s.client = client
	}
}

// WithRateLimit limits requests per second across all goroutines. Zero or less
// disables the limit.
func WithRateLimit(requestsPerSecond float64) Option {
	return func(s *Scraper) {
		if requestsPerSecond <= 0 {
			s.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
}

// WithMaxRetries sets how many times a failed fetch is retried
func WithMaxRetries(n uint64) Option {
	return func(s *Scraper) {
		s.maxRetries = n
	}
}

// WithRetryInterval sets the first wait between retries; later waits grow exponentially
func WithRetryInterval(d time.Duration) Option {
	return func(s *Scraper) {
		s.retryInterval = d
	}
}

// WithCacheTTL sets how long fetched pages are reused. Zero disables the cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Scraper) {
		s.cache = newPageCache(ttl)
	}
}

// WithFields limits which group fields are extracted
func WithFields(fields Fields) Option {
	return func(s *Scraper) {
		s.fields = fields
	}
}

// New creates a new Scraper instance
func New(opts ...Option) *Scraper {
	s := &Scraper{
		client: &http.Client{
			Timeout: Timeout,
		},
		baseURL:       "https://" + course.DefaultHost,
		limiter:       rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), 1),
		cache:         newPageCache(DefaultCacheTTL),
		maxRetries:    DefaultMaxRetries,
		retryInterval: DefaultRetryInterval,
		fields:        AllFields,
		maxPageSize:   DefaultMaxPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// URL returns the schedule page URL of a course
func (s *Scraper) URL(c course.Course) string {
	return s.baseURL + c.Path()
}

// FetchGroups fetches the schedule page of a course and extracts its groups
func (s *Scraper) FetchGroups(ctx context.Context, c course.Course) (*Result, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid course: %w", err)
	}

	page, err := s.FetchPage(ctx, s.URL(c))
	if err != nil {
		return nil, err
	}

	result, err := Extract(strings.NewReader(page), Options{Fields: s.fields})
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", c, err)
	}

	logger.AddCounter("groups.parsed", int64(len(result.Groups)))
	logger.AddCounter("groups.failed", int64(len(result.Failures)))
	for _, f := range result.Failures {
		logger.Warn("Group could not be parsed", logger.Fields{
			"course": c.Symbol,
			"term":   c.Term(),
			"index":  f.Index,
		}, f.Err)
	}

	logger.Info("Extracted schedule", logger.Fields{
		"course":   c.Symbol,
		"term":     c.Term(),
		"program":  c.ProgramCode,
		"groups":   len(result.Groups),
		"failures": len(result.Failures),
	})

	return result, nil
}

// FetchPage returns the body of a schedule page, retrying transient failures.
// Every returned error wraps ErrNetworkFailure.
func (s *Scraper) FetchPage(ctx context.Context, url string) (string, error) {
	if body, ok := s.cache.Get(url); ok {
		logger.IncrCounter("scraper.cache_hit")
		logger.Debug("Page cache hit", logger.Fields{"url": url})
		return body, nil
	}

	start := time.Now()
	attempts := 0

	var body string
	operation := func() error {
		attempts++
		if err := s.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		b, err := s.get(ctx, url)
		if err != nil {
			return err
		}
		body = b
		return nil
	}

	notify := func(err error, wait time.Duration) {
		logger.IncrCounter("scraper.retry")
		logger.Warn("Retrying schedule fetch", logger.Fields{
			"url":     url,
			"attempt": attempts,
			"wait":    wait.String(),
		}, err)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), s.maxRetries), ctx)
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return "", fmt.Errorf("%w: fetching %s: %w", ErrNetworkFailure, url, err)
	}

	logger.RecordTiming("scraper.fetch", time.Since(start))
	logger.Debug("Fetched schedule page", logger.Fields{
		"url":      url,
		"bytes":    len(body),
		"attempts": attempts,
	})

	s.cache.Set(url, body)
	return body, nil
}

// get performs one request. Errors that retrying cannot fix are marked permanent.
func (s *Scraper) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept-Language", "fr-CA,fr;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		statusErr := &StatusError{StatusCode: resp.StatusCode}
		if statusErr.retryable() {
			return "", statusErr
		}
		return "", backoff.Permanent(statusErr)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxPageSize+1))
	if err != nil {
		return "", fmt.Errorf("reading page: %w", err)
	}
	if int64(len(data)) > s.maxPageSize {
		return "", backoff.Permanent(fmt.Errorf("%w: more than %d bytes", ErrPageTooLarge, s.maxPageSize))
	}
	return string(data), nil
}

// CleanCache drops expired pages and returns how many were removed
func (s *Scraper) CleanCache() int {
	removed := s.cache.CleanExpired()
	logger.SetGauge("scraper.cache_size", float64(s.cache.Size()))
	return removed
}

// RunCacheJanitor cleans the page cache every interval until ctx is canceled.
// It returns immediately when interval is not positive.
func (s *Scraper) RunCacheJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.CleanCache(); removed > 0 {
				logger.Debug("Cleaned page cache", logger.Fields{"removed": removed})
			}
		}
	}
}

func (s *Scraper) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.retryInterval
	b.MaxInterval = 10 * s.retryInterval
	b.MaxElapsedTime = 0 // bounded by maxRetries
	return b
}
