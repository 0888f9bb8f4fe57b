package atlas

import (
	"context"
	"time"
)

// SearchesClient provides access to the search endpoints.
type SearchesClient interface {
	// Quick executes a quick search and returns a lazy iterator over all
	// matching items. Quick searches are stored server-side for a short
	// period.
	Quick(ctx context.Context, request *SearchRequest) (*PageIterator[Item], error)
	Create(ctx context.Context, request *SearchRequest) (*SavedSearch, error)
	Get(ctx context.Context, searchID string) (*SavedSearch, error)
	Update(ctx context.Context, searchID string, request *SearchRequest) (*SavedSearch, error)
	Delete(ctx context.Context, searchID string) error
	List(ctx context.Context) (*PageIterator[SavedSearch], error)
	// Run executes a saved search and returns a lazy iterator over results.
	Run(ctx context.Context, searchID string) (*PageIterator[Item], error)
	Stats(ctx context.Context, request *StatsRequest) (*Stats, error)
}

// OrdersClient provides access to the orders endpoints.
type OrdersClient interface {
	Create(ctx context.Context, request *OrderRequest) (*Order, error)
	Get(ctx context.Context, orderID string) (*Order, error)
	List(ctx context.Context, opts *OrderListOptions) (*PageIterator[Order], error)
	// Cancel requests server-side cancellation. Polling never cancels
	// implicitly; this is the only way to stop a remote order.
	Cancel(ctx context.Context, orderID string) (*Order, error)
	// PollUntilComplete polls the order until it reaches a terminal state.
	// Failed and partial orders are returned as values, not errors; a
	// JobTimeoutError is returned if the order is still running when the
	// configured poll timeout elapses.
	PollUntilComplete(ctx context.Context, orderID string) (*Order, error)
}

// AssetsClient provides access to item assets on the data API.
type AssetsClient interface {
	List(ctx context.Context, itemType, itemID string) (map[string]Asset, error)
	Activate(ctx context.Context, itemType, itemID, assetType string) error
	// Wait polls until the asset is active and returns its final
	// description, including the download location.
	Wait(ctx context.Context, itemType, itemID, assetType string) (*Asset, error)
}

// DownloadResult reports the outcome of a single asset download.
type DownloadResult struct {
	Asset Asset
	Path  string
	Bytes int64
	Err   error
}

// Client is the top-level interface implemented by the concrete client in
// internal/client. Construct one via pkg/atlasclient.
type Client interface {
	Searches() SearchesClient
	Orders() OrdersClient
	Assets() AssetsClient

	// DownloadAssets downloads every asset of a terminal order into dir,
	// running up to Config.MaxConcurrentDownloads transfers in parallel.
	// One result is returned per asset, in asset order.
	DownloadAssets(ctx context.Context, order *Order, dir string) ([]DownloadResult, error)

	// ListItemTypes returns every item type in the catalog. Metadata
	// lookups are served from the response cache when one is configured.
	ListItemTypes(ctx context.Context) ([]ItemType, error)
	GetItemType(ctx context.Context, id string) (*ItemType, error)
	ListAssetTypes(ctx context.Context) ([]AssetType, error)
	GetAssetType(ctx context.Context, id string) (*AssetType, error)

	GetInfo(ctx context.Context) (*Info, error)

	// Close releases the connection pool and rate limiter.
	Close() error
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building an atlas.Client.
//
// Per-request timeouts are controlled via the context passed to client
// methods. Retry behavior is tuned via RetryMax/RetryWaitMin/RetryWaitMax;
// a server-supplied Retry-After always takes precedence over the computed
// backoff. The rate limiter and connection pool are owned by the client
// instance and torn down by Close; nothing is process-global.
type Config struct {
	// BaseURL: base URL for the Atlas API (e.g. "https://api.example.com").
	// atlasclient.New normalizes this value by trimming a trailing slash and
	// adding "https://" if no scheme is present.
	BaseURL string

	// APIKey: used as a static Bearer token on every request. If empty,
	// atlasclient.New falls back to the ATLAS_API_KEY environment variable.
	APIKey string

	// HTTPTimeout: maximum wait for a server to begin responding to each
	// request attempt. Body reads are not bounded by it, so long streaming
	// downloads are unaffected. If 0, a sensible default is used.
	HTTPTimeout time.Duration

	// RetryMax: maximum number of retries for transient failures (429, 5xx,
	// and connection errors). If 0, a sensible default is used.
	RetryMax int
	// RetryWaitMin: minimum backoff between retries.
	RetryWaitMin time.Duration
	// RetryWaitMax: maximum backoff between retries.
	RetryWaitMax time.Duration

	// RateLimit: sustained request rate per second admitted by the client's
	// token bucket. Zero selects the default; negative disables pacing.
	RateLimit int
	// RateBurst: burst capacity of the token bucket.
	RateBurst int

	// PollIntervalMin: initial delay between order status polls.
	PollIntervalMin time.Duration
	// PollIntervalMax: cap for the growing poll interval.
	PollIntervalMax time.Duration
	// PollTimeout: maximum total wait for PollUntilComplete and Assets.Wait.
	PollTimeout time.Duration

	// MaxConcurrentDownloads caps parallel asset downloads per order.
	MaxConcurrentDownloads int
	// ChunkSize is the copy buffer size for downloads.
	ChunkSize int

	// Debug enables verbose HTTP request/response logging when a Logger is
	// provided.
	Debug bool
	// Logger: optional structured logger used by the HTTP layer.
	Logger Logger
	// UserAgent overrides the default User-Agent header.
	UserAgent string

	// Cache: optional response cache configuration for idempotent metadata
	// GETs. Nil disables caching.
	Cache *CacheConfig
}
