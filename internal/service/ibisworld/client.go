package ibisworld

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"SegPull/internal/domain/models"
	drepo "SegPull/internal/domain/repository"
	"SegPull/internal/service/ratelimit"
	"SegPull/pkg/cache"
	apphttp "SegPull/pkg/http"
	"SegPull/pkg/logger"
)

const (
	DefaultBaseURL = "https://api.ibisworld.com/v3"

	pathReportList     = "/industry/v3/reportlist"
	pathSections       = "/segmentbenchmarking/v3/sections"
	pathUpdatedReports = "/industry/v3/updatedreports"
)

// Operation names used in logs and metrics.
const (
	OpListReports    = "list_reports"
	OpSegmentSection = "get_segment_sections"
	OpUpdatedReports = "get_updated_reports"
)

var (
	ErrNoCredentials = errors.New("ibisworld: no token or client credentials configured; set IBISWORLD_TOKEN or IBISWORLD_CLIENT_ID, IBISWORLD_CLIENT_SECRET and IBISWORLD_TOKEN_URL")
	ErrNoAccessToken = errors.New("ibisworld: token endpoint did not return access_token")
	ErrEmptyCode     = errors.New("ibisworld: report code is required")
)

type Config struct {
	BaseURL            string
	Token              string
	ClientID           string
	ClientSecret       string
	TokenURL           string
	Country            string
	Language           string
	RateLimitPerSecond float64
	Timeout            time.Duration
	TokenTimeout       time.Duration
	MaxAttempts        int
	BackoffMin         time.Duration
	BackoffMax         time.Duration
}

// DefaultConfig matches the documented upstream limits.
func DefaultConfig() Config {
	return Config{
		BaseURL:            DefaultBaseURL,
		Country:            "US",
		Language:           "English",
		RateLimitPerSecond: 8,
		Timeout:            30 * time.Second,
		TokenTimeout:       20 * time.Second,
		MaxAttempts:        3,
		BackoffMin:         time.Second,
		BackoffMax:         10 * time.Second,
	}
}

type Option func(*Client)

func WithCache(s cache.Store) Option {
	return func(c *Client) { c.cache = s }
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

func WithMetrics(m drepo.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithHTTPClient replaces the transport used for API and token calls.
func WithHTTPClient(api, token *apphttp.Client) Option {
	return func(c *Client) {
		c.api = api
		c.tokenHTTP = token
	}
}

// Client talks to the segment benchmarking API. It is safe for concurrent
// use: the credential is guarded, requests share one rate limiter and
// concurrent fetches of the same cache key collapse into one call.
type Client struct {
	cfg       Config
	api       *apphttp.Client
	tokenHTTP *apphttp.Client
	limiter   *ratelimit.Limiter
	retry     apphttp.RetryPolicy
	cache     cache.Store
	metrics   drepo.Metrics
	log       *logger.Logger
	group     singleflight.Group

	mu    sync.Mutex
	token string
}

var _ drepo.ReportFetcher = (*Client)(nil)

// New builds a client. Zero-valued config fields take DefaultConfig values.
func New(cfg Config, opts ...Option) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Country == "" {
		cfg.Country = def.Country
	}
	if cfg.Language == "" {
		cfg.Language = def.Language
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.TokenTimeout <= 0 {
		cfg.TokenTimeout = def.TokenTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.BackoffMin <= 0 {
		cfg.BackoffMin = def.BackoffMin
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = def.BackoffMax
	}

	c := &Client{
		cfg:     cfg,
		limiter: ratelimit.New(cfg.RateLimitPerSecond),
		cache:   cache.Nop{},
		metrics: drepo.NopMetrics{},
		log:     logger.Nop(),
		token:   cfg.Token,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.api == nil {
		c.api = apphttp.NewClient(apphttp.WithTimeout(cfg.Timeout))
	}
	if c.tokenHTTP == nil {
		c.tokenHTTP = apphttp.NewClient(apphttp.WithTimeout(cfg.TokenTimeout))
	}
	c.retry = apphttp.RetryPolicy{
		Attempts:   cfg.MaxAttempts,
		BackoffMin: cfg.BackoffMin,
		BackoffMax: cfg.BackoffMax,
	}
	return c
}

// ListReports returns the report catalog for a locale, cached.
func (c *Client) ListReports(ctx context.Context, opts ...models.FetchOption) (json.RawMessage, error) {
	o := models.ApplyFetchOptions(c.cfg.Country, c.cfg.Language, opts...)
	key := cache.ReportListKey(o.Country, o.Language)
	body := map[string]string{
		"Country":  o.Country,
		"Language": o.Language,
	}
	return c.cached(ctx, OpListReports, cache.KindReportList, key, o.Refresh, func(ctx context.Context) ([]byte, error) {
		return c.post(ctx, OpListReports, pathReportList, body)
	})
}

// GetSegmentSectionsRaw returns the undecoded sections response for code.
func (c *Client) GetSegmentSectionsRaw(ctx context.Context, code string, sections []string, opts ...models.FetchOption) (json.RawMessage, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrEmptyCode
	}
	o := models.ApplyFetchOptions(c.cfg.Country, c.cfg.Language, opts...)
	key := cache.SegmentKey(o.Country, o.Language, code, sections)
	if sections == nil {
		sections = []string{}
	}
	body := struct {
		Country        string   `json:"Country"`
		Code           string   `json:"Code"`
		Language       string   `json:"Language"`
		ReportSections []string `json:"ReportSections"`
	}{o.Country, code, o.Language, sections}

	return c.cached(ctx, OpSegmentSection, cache.KindSegment, key, o.Refresh, func(ctx context.Context) ([]byte, error) {
		return c.post(ctx, OpSegmentSection, pathSections, body)
	})
}

// GetSegmentSections fetches and decodes the given sections of one report.
func (c *Client) GetSegmentSections(ctx context.Context, code string, sections []string, opts ...models.FetchOption) (*models.ReportResponse, error) {
	raw, err := c.GetSegmentSectionsRaw(ctx, code, sections, opts...)
	if err != nil {
		return nil, err
	}
	var resp models.ReportResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		// A well-formed document of another shape carries no sections.
		c.log.Warn("sections response has unexpected shape",
			logger.String("code", code),
			logger.Error(err),
		)
		return &models.ReportResponse{}, nil
	}
	return &resp, nil
}

// GetUpdatedReports lists reports updated in [startDate, endDate]. Never cached.
func (c *Client) GetUpdatedReports(ctx context.Context, startDate, endDate string, opts ...models.FetchOption) (json.RawMessage, error) {
	o := models.ApplyFetchOptions(c.cfg.Country, c.cfg.Language, opts...)
	body := map[string]string{
		"StartDate": startDate,
		"EndDate":   endDate,
		"Country":   o.Country,
		"Language":  o.Language,
	}
	start := time.Now()
	raw, err := c.post(ctx, OpUpdatedReports, pathUpdatedReports, body)
	c.observe(OpUpdatedReports, start, err)
	return raw, err
}

// cached serves key from the cache unless refresh is set, otherwise calls
// fetch and stores its result. Empty documents are treated as misses.
func (c *Client) cached(ctx context.Context, op, kind, key string, refresh bool, fetch func(context.Context) ([]byte, error)) (json.RawMessage, error) {
	if !refresh {
		if raw, ok := c.cache.Get(ctx, key); ok && !isEmptyDocument(raw) {
			c.metrics.RecordCacheLookup(kind, true)
			c.metrics.RecordRequest(op, "cache")
			c.log.Debug("cache hit", logger.String("op", op), logger.String("key", key))
			return raw, nil
		}
		c.metrics.RecordCacheLookup(kind, false)
	}

	start := time.Now()
	ch := c.group.DoChan(key, func() (interface{}, error) {
		// the flight outlives any single waiter
		fctx := context.WithoutCancel(ctx)
		raw, err := fetch(fctx)
		if err != nil {
			return nil, err
		}
		if err := c.cache.Put(fctx, key, raw); err != nil {
			c.metrics.RecordError("cache_put")
			c.log.Warn("cache write failed", logger.String("key", key), logger.Error(err))
		}
		return raw, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		c.observe(op, start, ctx.Err())
		return nil, ctx.Err()
	case res = <-ch:
	}
	if !res.Shared {
		c.observe(op, start, res.Err)
	}
	if res.Err != nil {
		return nil, res.Err
	}
	return json.RawMessage(res.Val.([]byte)), nil
}

func (c *Client) observe(op string, start time.Time, err error) {
	c.metrics.RecordLatency(op, time.Since(start).Seconds())
	if err != nil {
		c.metrics.RecordRequest(op, "error")
		c.metrics.RecordError(op)
		return
	}
	c.metrics.RecordRequest(op, "ok")
}

// post sends one JSON request through the limiter and retry policy. The
// credential is resolved first so a missing one fails before any I/O.
func (c *Client) post(ctx context.Context, op, path string, payload interface{}) ([]byte, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	policy := c.retry
	policy.OnRetry = func(attempt int, wait time.Duration, err error) {
		c.metrics.RecordRetry(op)
		c.log.Warn("upstream request failed, retrying",
			logger.String("op", op),
			logger.Int("attempt", attempt),
			logger.Duration("wait", wait),
			logger.Error(err),
		)
	}

	req := &apphttp.RequestOptions{
		Method: apphttp.MethodPost,
		URL:    c.cfg.BaseURL + path,
		Headers: map[string]string{
			"Authorization": "Bearer " + token,
			"Content-Type":  "application/json",
			"Accept":        "application/json",
		},
		Body: payload,
	}

	var raw []byte
	err = policy.Do(ctx, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		return c.api.SendAndParse(ctx, req, &raw)
	})
	if err != nil {
		c.log.Error("upstream request failed", logger.String("op", op), logger.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%s: response is not valid JSON", op)
	}
	return raw, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// ensureToken returns the held credential, exchanging client credentials
// for one when none is held yet.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" {
		return c.token, nil
	}
	if c.cfg.ClientID == "" || c.cfg.ClientSecret == "" || c.cfg.TokenURL == "" {
		return "", ErrNoCredentials
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.TokenTimeout)
	defer cancel()

	var tr tokenResponse
	err := c.tokenHTTP.SendAndParse(ctx, &apphttp.RequestOptions{
		Method: apphttp.MethodPost,
		URL:    c.cfg.TokenURL,
		Headers: map[string]string{
			"Content-Type": "application/x-www-form-urlencoded",
			"Accept":       "application/json",
		},
		Body:      url.Values{"grant_type": {"client_credentials"}},
		BasicAuth: &apphttp.BasicAuth{Username: c.cfg.ClientID, Password: c.cfg.ClientSecret},
	}, &tr)
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	if tr.AccessToken == "" {
		return "", ErrNoAccessToken
	}

	c.log.Info("obtained access token", logger.String("token_url", c.cfg.TokenURL))
	c.token = tr.AccessToken
	return c.token, nil
}

// isEmptyDocument reports JSON values that carry no data: null, false, 0,
// "", {} and [].
func isEmptyDocument(raw []byte) bool {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return true
	}
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case float64:
		return t == 0
	case string:
		return t == ""
	case map[string]interface{}:
		return len(t) == 0
	case []interface{}:
		return len(t) == 0
	}
	return false
}
