// Package client implements the atlas.Client interface over the Atlas REST
// APIs.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"sync"

	"github.com/meridian-eo/atlas/internal/auth"
	"github.com/meridian-eo/atlas/internal/constants"
	"github.com/meridian-eo/atlas/internal/download"
	"github.com/meridian-eo/atlas/internal/http"
	"github.com/meridian-eo/atlas/pkg/atlas"
)

// Client implements the atlas.Client interface.
var _ atlas.Client = (*Client)(nil)

type Client struct {
	httpClient   *http.Client
	tokenManager auth.TokenManager
	rateLimiter  *atlas.RateLimiter
	cache        atlas.Cache
	cacheManager *atlas.CacheManager
	downloader   *download.Downloader
	config       *atlas.Config
	logger       atlas.Logger

	searches atlas.SearchesClient
	orders   atlas.OrdersClient
	assets   atlas.AssetsClient
}

// New creates a new Atlas API client from the given configuration. The
// configuration is not mutated; unset fields fall back to defaults.
func New(config *atlas.Config) (*Client, error) {
	if config == nil {
		return nil, atlas.ErrConfigRequired
	}

	if config.BaseURL == "" {
		return nil, atlas.ErrBaseURLRequired
	}

	cfg := withDefaults(config)

	tokenManager, err := auth.NewStaticTokenManagerFromEnv(cfg.APIKey)
	if err != nil {
		return nil, err
	}

	var rateLimiter *atlas.RateLimiter
	if cfg.RateLimit >= 0 {
		rateLimiter = atlas.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)
	}

	opts := []http.Option{
		http.WithRetryConfig(cfg.RetryMax, cfg.RetryWaitMin, cfg.RetryWaitMax),
		http.WithResponseHeaderTimeout(cfg.HTTPTimeout),
	}

	if rateLimiter != nil {
		opts = append(opts, http.WithRateLimiter(rateLimiter))
	}

	if cfg.Logger != nil {
		opts = append(opts, http.WithLogger(cfg.Logger))
	}

	if cfg.Debug {
		opts = append(opts, http.WithDebug(true))
	}

	if cfg.UserAgent != "" {
		opts = append(opts, http.WithUserAgent(cfg.UserAgent))
	}

	httpClient := http.NewClient(cfg.BaseURL, tokenManager, opts...)

	var (
		cache        atlas.Cache
		cacheManager *atlas.CacheManager
	)

	if cfg.Cache != nil {
		cache, err = atlas.NewCacheFromConfig(cfg.Cache)
		if err != nil {
			return nil, fmt.Errorf("building response cache: %w", err)
		}

		cacheManager = atlas.NewCacheManager(cache, nil)
	}

	client := &Client{
		httpClient:   httpClient,
		tokenManager: tokenManager,
		rateLimiter:  rateLimiter,
		cache:        cache,
		cacheManager: cacheManager,
		downloader:   download.NewDownloader(httpClient, cfg.ChunkSize, cfg.Logger),
		config:       cfg,
		logger:       cfg.Logger,
	}

	client.searches = NewSearchesClient(httpClient)
	client.orders = NewOrdersClient(httpClient, cfg.PollIntervalMin, cfg.PollIntervalMax, cfg.PollTimeout)
	client.assets = NewAssetsClient(httpClient, cfg.PollIntervalMin, cfg.PollIntervalMax, cfg.PollTimeout)

	return client, nil
}

// withDefaults copies the config and fills unset fields.
func withDefaults(config *atlas.Config) *atlas.Config {
	cfg := *config

	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = constants.DefaultHTTPTimeout
	}

	if cfg.RetryMax == 0 {
		cfg.RetryMax = constants.DefaultRetryMax
	}

	if cfg.RetryWaitMin == 0 {
		cfg.RetryWaitMin = constants.DefaultRetryWaitMin
	}

	if cfg.RetryWaitMax == 0 {
		cfg.RetryWaitMax = constants.DefaultRetryWaitMax
	}

	if cfg.RateLimit == 0 {
		cfg.RateLimit = constants.DefaultRateLimit
	}

	if cfg.RateBurst == 0 {
		cfg.RateBurst = constants.DefaultRateBurst
	}

	if cfg.PollIntervalMin == 0 {
		cfg.PollIntervalMin = constants.DefaultPollIntervalMin
	}

	if cfg.PollIntervalMax == 0 {
		cfg.PollIntervalMax = constants.DefaultPollIntervalMax
	}

	if cfg.PollTimeout == 0 {
		cfg.PollTimeout = constants.DefaultPollTimeout
	}

	if cfg.MaxConcurrentDownloads == 0 {
		cfg.MaxConcurrentDownloads = constants.DefaultConcurrentDownloads
	}

	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = constants.DefaultDownloadChunkSize
	}

	return &cfg
}

// Searches implements atlas.Client.Searches.
func (c *Client) Searches() atlas.SearchesClient {
	return c.searches
}

// Orders implements atlas.Client.Orders.
func (c *Client) Orders() atlas.OrdersClient {
	return c.orders
}

// Assets implements atlas.Client.Assets.
func (c *Client) Assets() atlas.AssetsClient {
	return c.assets
}

// GetInfo implements atlas.Client.GetInfo. The response is served from the
// cache when one is configured.
func (c *Client) GetInfo(ctx context.Context) (*atlas.Info, error) {
	body, err := c.cachedGet(ctx, "/v1/info", nil)
	if err != nil {
		return nil, fmt.Errorf("getting API info: %w", err)
	}

	var info atlas.Info

	err = json.Unmarshal(body, &info)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", atlas.ErrProtocol, err)
	}

	return &info, nil
}

// cachedGet performs a GET whose response may be served from and stored in
// the response cache, subject to the caching policy.
func (c *Client) cachedGet(ctx context.Context, path string, query url.Values) ([]byte, error) {
	var cacheKey string

	if c.cacheManager != nil {
		cacheKey = c.cacheManager.GetCacheKey("GET", path, flattenQuery(query))
		if data, err := c.cacheManager.Get(ctx, cacheKey); err == nil {
			return data, nil
		}
	}

	resp, err := c.httpClient.Get(ctx, path, query)
	if err != nil {
		return nil, err
	}

	if c.cacheManager != nil && c.cacheManager.Policy().ShouldCache("GET", path, resp.StatusCode) {
		_ = c.cacheManager.Set(ctx, cacheKey, resp.Body, 0)
	}

	return resp.Body, nil
}

func flattenQuery(query url.Values) map[string]string {
	if len(query) == 0 {
		return nil
	}

	params := make(map[string]string, len(query))
	for key := range query {
		params[key] = query.Get(key)
	}

	return params
}

// DownloadAssets implements atlas.Client.DownloadAssets. Downloads run
// concurrently up to MaxConcurrentDownloads; results come back in asset
// order regardless of completion order.
func (c *Client) DownloadAssets(ctx context.Context, order *atlas.Order, dir string) ([]atlas.DownloadResult, error) {
	if order == nil || order.ID == "" {
		return nil, atlas.ErrOrderIDRequired
	}

	results := make([]atlas.DownloadResult, len(order.Assets))
	semaphore := make(chan struct{}, c.config.MaxConcurrentDownloads)

	var wg sync.WaitGroup

	for i, asset := range order.Assets {
		wg.Add(1)

		go func(index int, asset atlas.Asset) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			results[index] = c.downloadOne(ctx, asset, dir)
		}(i, asset)
	}

	wg.Wait()

	return results, nil
}

func (c *Client) downloadOne(ctx context.Context, asset atlas.Asset, dir string) atlas.DownloadResult {
	result := atlas.DownloadResult{Asset: asset}

	if asset.Location == "" {
		result.Err = atlas.ErrNoDownloadLocation

		return result
	}

	dest := filepath.Join(dir, assetFilename(asset))
	result.Path = dest

	state, err := c.downloader.Download(ctx, asset.Location, dest)
	if err != nil {
		result.Err = err

		return result
	}

	result.Bytes = state.BytesWritten

	return result
}

// assetFilename picks a local filename for an asset, preferring its declared
// name over the last segment of its download URL.
func assetFilename(asset atlas.Asset) string {
	if asset.Name != "" {
		return asset.Name
	}

	if parsed, err := url.Parse(asset.Location); err == nil {
		if base := path.Base(parsed.Path); base != "." && base != "/" {
			return base
		}
	}

	return "asset"
}

// Close implements atlas.Client.Close. Cache backends holding resources (the
// memory cache's cleanup sweep, the NATS connection) are closed with the
// client.
func (c *Client) Close() error {
	if c.rateLimiter != nil {
		c.rateLimiter.Close()
	}

	if closer, ok := c.cache.(io.Closer); ok {
		_ = closer.Close()
	}

	c.httpClient.Close()

	return nil
}
