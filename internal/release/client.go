// Package release checks GitHub for new releases of the calculator
// package and installs them.
package release

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/theirongolddev/wealthtax/internal/store"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL  = "https://api.github.com"
	requestTimeout  = 10 * time.Second
	maxBodySize     = 1 << 20  // 1 MB
	maxDownloadSize = 64 << 20 // 64 MB
)

var (
	// ErrNotFound indicates the repository has no published release.
	ErrNotFound = errors.New("release: no published release")
	// ErrRateLimited indicates the GitHub API rate limit was hit.
	ErrRateLimited = errors.New("release: rate limited")
	// ErrUnauthorized indicates the configured token was rejected.
	ErrUnauthorized = errors.New("release: unauthorized (token expired or invalid)")
	// ErrRecentFailure is returned while a failed lookup is negatively cached.
	ErrRecentFailure = errors.New("release: lookup failed recently, retry later")
)

// Cache stores release lookups between runs.
type Cache interface {
	Get(key string) (store.Entry, bool, error)
	Put(key string, value []byte, ttl time.Duration) error
	PutNegative(key string, ttl time.Duration) error
	Delete(key string) error
}

// Options configures a Client.
type Options struct {
	Repo       string // owner/name
	Token      string
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client

	Cache       Cache
	CacheTTL    time.Duration
	NegativeTTL time.Duration

	// Limiter paces outgoing API calls; nil uses one call per second.
	Limiter *rate.Limiter
	Logger  zerolog.Logger
}

// Client fetches release metadata and packages from GitHub.
type Client struct {
	opts    Options
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewClient creates a client for opts.Repo.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.UserAgent == "" {
		opts.UserAgent = "github.com/theirongolddev/wealthtax"
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 12 * time.Hour
	}
	if opts.NegativeTTL <= 0 {
		opts.NegativeTTL = 5 * time.Minute
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Every(time.Second), 1)
	}

	st := gobreaker.Settings{
		Name:        "github-releases",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool { return counts.ConsecutiveFailures >= 3 },
		// A repo without releases is an answer, not an outage.
		IsSuccessful: func(err error) bool { return err == nil || errors.Is(err, ErrNotFound) },
	}
	log := opts.Logger.With().Str("component", "release").Str("repo", opts.Repo).Logger()
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit state changed")
	}

	return &Client{
		opts:    opts,
		http:    httpClient,
		breaker: gobreaker.NewCircuitBreaker(st),
		limiter: limiter,
		log:     log,
	}
}

func (c *Client) cacheKey() string {
	return "release:latest:" + c.opts.Repo
}

// Latest returns the latest published release, served from the cache
// while fresh. Failures are negatively cached for NegativeTTL.
func (c *Client) Latest(ctx context.Context) (*Release, error) {
	key := c.cacheKey()
	if c.opts.Cache != nil {
		entry, ok, err := c.opts.Cache.Get(key)
		switch {
		case err != nil:
			c.log.Debug().Err(err).Msg("release cache read failed")
		case ok && entry.Negative:
			return nil, ErrRecentFailure
		case ok:
			var rel Release
			if err := json.Unmarshal(entry.Value, &rel); err == nil {
				c.log.Debug().Time("fetched_at", entry.FetchedAt).Msg("release served from cache")
				return &rel, nil
			}
		}
	}

	body, err := c.get(ctx, fmt.Sprintf("/repos/%s/releases/latest", c.opts.Repo))
	if err != nil {
		c.remember(key, nil)
		return nil, err
	}

	var rel Release
	if err := json.Unmarshal(body, &rel); err != nil {
		c.remember(key, nil)
		return nil, fmt.Errorf("release: parsing release: %w", err)
	}
	if rel.TagName == "" {
		c.remember(key, nil)
		return nil, fmt.Errorf("release: response has no tag_name")
	}

	c.remember(key, body)
	return &rel, nil
}

// Forget drops the cached lookup so the next Latest call hits the API.
func (c *Client) Forget() error {
	if c.opts.Cache == nil {
		return nil
	}
	return c.opts.Cache.Delete(c.cacheKey())
}

func (c *Client) remember(key string, body []byte) {
	if c.opts.Cache == nil {
		return
	}
	var err error
	if body == nil {
		err = c.opts.Cache.PutNegative(key, c.opts.NegativeTTL)
	} else {
		err = c.opts.Cache.Put(key, body, c.opts.CacheTTL)
	}
	if err != nil {
		c.log.Debug().Err(err).Msg("release cache write failed")
	}
}

// Download streams the asset at url into w.
func (c *Client) Download(ctx context.Context, url string, w io.Writer) (int64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("release: creating download request: %w", err)
	}
	req.Header.Set("Accept", "application/octet-stream")
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("release: download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("release: unexpected download status %d", resp.StatusCode)
	}

	n, err := io.Copy(w, io.LimitReader(resp.Body, maxDownloadSize+1))
	if err != nil {
		return n, fmt.Errorf("release: reading download: %w", err)
	}
	if n > maxDownloadSize {
		return n, fmt.Errorf("release: package exceeds %d bytes", maxDownloadSize)
	}
	return n, nil
}

// get performs a rate-limited, circuit-guarded GET against the API.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, path)
	})
	if err != nil {
		return nil, err
	}
	return out.([]byte), nil
}

func (c *Client) do(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("release: creating request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", c.opts.UserAgent)
	if c.opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("release: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case http.StatusForbidden, http.StatusTooManyRequests:
		if resp.StatusCode == http.StatusTooManyRequests || resp.Header.Get("X-RateLimit-Remaining") == "0" {
			return nil, ErrRateLimited
		}
		return nil, ErrUnauthorized
	case http.StatusNotFound:
		return nil, ErrNotFound
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("release: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("release: reading response: %w", err)
	}
	return body, nil
}
