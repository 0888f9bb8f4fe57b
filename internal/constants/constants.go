package constants

import "time"

// Version is the client library version reported in the User-Agent header.
const Version = "1.0.0"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600

	// DownloadFilePerm is the permission for downloaded asset files.
	DownloadFilePerm = 0644
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default wait for a server to begin
	// responding to a request attempt.
	DefaultHTTPTimeout = 30 * time.Second

	// IdleConnTimeout is how long idle pooled connections are kept.
	IdleConnTimeout = 90 * time.Second

	// MaxIdleConnsPerHost sets the connection pool size per host.
	MaxIdleConnsPerHost = 16
)

// Retry limits.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 5

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Rate limiting.
const (
	// DefaultRateLimit is the default sustained request rate per second.
	DefaultRateLimit = 10

	// DefaultRateBurst is the default burst capacity of the token bucket.
	DefaultRateBurst = 10
)

// Order polling.
const (
	// DefaultPollIntervalMin is the initial interval between order polls.
	DefaultPollIntervalMin = 2 * time.Second

	// DefaultPollIntervalMax caps the interval growth for long-running orders.
	DefaultPollIntervalMax = 30 * time.Second

	// DefaultPollTimeout is the default maximum wait for an order to finish.
	DefaultPollTimeout = 10 * time.Minute
)

// Downloads.
const (
	// DefaultDownloadChunkSize is the copy buffer size for asset downloads.
	DefaultDownloadChunkSize = 1 << 20

	// DefaultConcurrentDownloads caps parallel asset downloads per order.
	DefaultConcurrentDownloads = 4

	// PartialSuffix is appended to in-progress download files.
	PartialSuffix = ".part"
)

// Cache sizing.
const (
	// DefaultCacheSize is the default cache size limit.
	DefaultCacheSize = 1000

	// DefaultCacheTTL is the default cache time-to-live.
	DefaultCacheTTL = 5 * time.Minute

	// MaxCacheValueSize is the maximum size for cached values (1MB).
	MaxCacheValueSize = 1024 * 1024
)

// Header names used by the download endpoints.
const (
	// ChecksumHeader carries the hex SHA-256 of the full asset body.
	ChecksumHeader = "X-Checksum-Sha256"
)

// Format constants.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"
)
