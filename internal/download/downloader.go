// Package download implements resumable, checksum-verified asset downloads.
package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/meridian-eo/atlas/internal/constants"
	atlashttp "github.com/meridian-eo/atlas/internal/http"
	"github.com/meridian-eo/atlas/pkg/atlas"
)

// Transport is the slice of the HTTP client the downloader needs.
type Transport interface {
	Head(ctx context.Context, url string) (*atlashttp.Response, error)
	Stream(ctx context.Context, url string, headers map[string]string) (*http.Response, error)
}

// State describes a finished download.
type State struct {
	Path          string
	ExpectedBytes int64
	BytesWritten  int64
	Checksum      string
}

// Downloader fetches assets to local files. Interrupted transfers leave a
// ".part" file that is resumed with a ranged request when the server
// advertises range support. Completed files are verified against the
// server-declared SHA-256 before the final rename.
type Downloader struct {
	transport Transport
	chunkSize int
	logger    atlas.Logger

	mu     sync.Mutex
	active map[string]struct{}
}

// NewDownloader creates a downloader over the given transport. chunkSize <= 0
// selects the default copy buffer size.
func NewDownloader(transport Transport, chunkSize int, logger atlas.Logger) *Downloader {
	if chunkSize <= 0 {
		chunkSize = constants.DefaultDownloadChunkSize
	}

	return &Downloader{
		transport: transport,
		chunkSize: chunkSize,
		logger:    logger,
		active:    make(map[string]struct{}),
	}
}

// acquire registers dest as in use for the duration of one download.
func (d *Downloader) acquire(dest string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, busy := d.active[dest]; busy {
		return &atlas.DownloadInProgressError{Path: dest}
	}

	d.active[dest] = struct{}{}

	return nil
}

func (d *Downloader) release(dest string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.active, dest)
}

// probe holds what the server told us about the asset before the transfer.
type probe struct {
	expectedBytes int64
	checksum      string
	rangeSupport  bool
}

func (d *Downloader) probeAsset(ctx context.Context, url string) probe {
	result := probe{expectedBytes: -1}

	resp, err := d.transport.Head(ctx, url)
	if err != nil {
		// Some storage backends reject HEAD; the GET response carries the
		// same headers.
		return result
	}

	if length := resp.Headers.Get("Content-Length"); length != "" {
		if parsed, err := strconv.ParseInt(length, 10, 64); err == nil {
			result.expectedBytes = parsed
		}
	}

	result.checksum = resp.Headers.Get(constants.ChecksumHeader)
	result.rangeSupport = strings.EqualFold(resp.Headers.Get("Accept-Ranges"), "bytes")

	return result
}

// Download fetches url into dest, resuming a previous partial transfer when
// possible.
func (d *Downloader) Download(ctx context.Context, url, dest string) (*State, error) {
	if err := d.acquire(dest); err != nil {
		return nil, err
	}
	defer d.release(dest)

	if info, err := os.Stat(dest); err == nil && info.IsDir() {
		return nil, fmt.Errorf("%w: %s", atlas.ErrDestinationDirectory, dest)
	}

	asset := d.probeAsset(ctx, url)
	partPath := dest + constants.PartialSuffix

	offset, hasher, err := d.resumePoint(partPath, asset.rangeSupport)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{}
	if offset > 0 {
		headers["Range"] = fmt.Sprintf("bytes=%d-", offset)
	}

	resp, err := d.transport.Stream(ctx, url, headers)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	// A 200 to a ranged request means the server restarted the transfer.
	if offset > 0 && resp.StatusCode != http.StatusPartialContent {
		offset = 0
		hasher = sha256.New()
	}

	expected := asset.expectedBytes
	if total := totalFromResponse(resp, offset); total >= 0 {
		expected = total
	}

	checksum := asset.checksum
	if header := resp.Header.Get(constants.ChecksumHeader); header != "" {
		checksum = header
	}

	if d.logger != nil {
		d.logger.Debug("starting download", map[string]interface{}{
			"dest":     dest,
			"offset":   offset,
			"expected": expected,
		})
	}

	written, err := d.copyBody(resp.Body, partPath, offset, hasher)
	total := offset + written

	if err != nil {
		return nil, &atlas.IncompleteDownloadError{
			Path:     dest,
			Expected: expected,
			Written:  total,
			Err:      err,
		}
	}

	if expected >= 0 && total != expected {
		return nil, &atlas.IncompleteDownloadError{
			Path:     dest,
			Expected: expected,
			Written:  total,
		}
	}

	actual := hex.EncodeToString(hasher.Sum(nil))
	if checksum != "" && !strings.EqualFold(actual, checksum) {
		_ = os.Remove(partPath)

		return nil, &atlas.ChecksumMismatchError{
			Path:     dest,
			Expected: checksum,
			Actual:   actual,
		}
	}

	if err := os.Rename(partPath, dest); err != nil {
		return nil, fmt.Errorf("finalizing download: %w", err)
	}

	if err := os.Chmod(dest, constants.DownloadFilePerm); err != nil {
		return nil, fmt.Errorf("setting file permissions: %w", err)
	}

	return &State{
		Path:          dest,
		ExpectedBytes: expected,
		BytesWritten:  total,
		Checksum:      actual,
	}, nil
}

// resumePoint determines the byte offset to continue from and a hasher
// primed with the bytes already on disk. Without range support any partial
// file is discarded.
func (d *Downloader) resumePoint(partPath string, rangeSupport bool) (int64, hash.Hash, error) {
	hasher := sha256.New()

	info, err := os.Stat(partPath)
	if err != nil || info.Size() == 0 {
		return 0, hasher, nil
	}

	if !rangeSupport {
		if err := os.Remove(partPath); err != nil {
			return 0, nil, fmt.Errorf("discarding stale partial file: %w", err)
		}

		return 0, hasher, nil
	}

	file, err := os.Open(partPath)
	if err != nil {
		return 0, nil, fmt.Errorf("opening partial file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if _, err := io.Copy(hasher, file); err != nil {
		return 0, nil, fmt.Errorf("hashing partial file: %w", err)
	}

	return info.Size(), hasher, nil
}

// copyBody streams the response body into the partial file in fixed-size
// chunks, keeping the hash in step with the bytes on disk.
func (d *Downloader) copyBody(body io.Reader, partPath string, offset int64, hasher hash.Hash) (int64, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if offset > 0 {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(partPath, flags, constants.DownloadFilePerm)
	if err != nil {
		return 0, fmt.Errorf("opening partial file: %w", err)
	}

	buf := make([]byte, d.chunkSize)

	written, copyErr := io.CopyBuffer(io.MultiWriter(file, hasher), body, buf)

	if closeErr := file.Close(); copyErr == nil && closeErr != nil {
		copyErr = fmt.Errorf("closing partial file: %w", closeErr)
	}

	return written, copyErr
}

// totalFromResponse extracts the full asset length from the response, or -1
// when the server did not declare one.
func totalFromResponse(resp *http.Response, offset int64) int64 {
	if resp.StatusCode == http.StatusPartialContent {
		if total, ok := parseContentRangeTotal(resp.Header.Get("Content-Range")); ok {
			return total
		}

		if resp.ContentLength >= 0 {
			return offset + resp.ContentLength
		}

		return -1
	}

	if resp.ContentLength >= 0 {
		return resp.ContentLength
	}

	return -1
}

// parseContentRangeTotal reads the total length out of a header like
// "bytes 100-1023/1024".
func parseContentRangeTotal(value string) (int64, bool) {
	value = strings.TrimPrefix(value, "bytes ")

	_, totalPart, found := strings.Cut(value, "/")
	if !found || totalPart == "*" {
		return 0, false
	}

	total, err := strconv.ParseInt(totalPart, 10, 64)
	if err != nil {
		return 0, false
	}

	return total, true
}
