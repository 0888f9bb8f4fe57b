package download_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/meridian-eo/atlas/internal/download"
	atlashttp "github.com/meridian-eo/atlas/internal/http"
	"github.com/meridian-eo/atlas/pkg/atlas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:])
}

// assetServer serves a fixed payload with range support and a checksum
// header, like the Atlas delivery endpoints.
func assetServer(t *testing.T, payload []byte) *httptest.Server {
	t.Helper()

	handler := func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Accept-Ranges", "bytes")
		writer.Header().Set("X-Checksum-Sha256", sha256Hex(payload))

		if request.Method == http.MethodHead {
			writer.Header().Set("Content-Length", strconv.Itoa(len(payload)))
			writer.WriteHeader(http.StatusOK)

			return
		}

		if rangeHeader := request.Header.Get("Range"); rangeHeader != "" {
			var offset int64

			_, err := fmt.Sscanf(rangeHeader, "bytes=%d-", &offset)
			require.NoError(t, err)

			writer.Header().Set("Content-Range",
				fmt.Sprintf("bytes %d-%d/%d", offset, len(payload)-1, len(payload)))
			writer.WriteHeader(http.StatusPartialContent)
			_, _ = writer.Write(payload[offset:])

			return
		}

		_, _ = writer.Write(payload)
	}

	server := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(server.Close)

	return server
}

func TestDownloader_Download(t *testing.T) {
	t.Parallel()

	payload := []byte("the quick brown fox jumps over the lazy dog")
	server := assetServer(t, payload)

	client := atlashttp.NewClient(server.URL, nil)
	downloader := download.NewDownloader(client, 8, nil)

	dest := filepath.Join(t.TempDir(), "scene.tif")

	state, err := downloader.Download(context.Background(), server.URL+"/asset", dest)
	require.NoError(t, err)
	assert.Equal(t, dest, state.Path)
	assert.Equal(t, int64(len(payload)), state.BytesWritten)
	assert.Equal(t, sha256Hex(payload), state.Checksum)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	// No partial file left behind.
	_, err = os.Stat(dest + ".part")
	assert.True(t, os.IsNotExist(err))
}

func TestDownloader_Resume(t *testing.T) {
	t.Parallel()

	payload := []byte("0123456789abcdefghijklmnopqrstuvwxyz")

	var requestedRange string

	handler := func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Accept-Ranges", "bytes")
		writer.Header().Set("X-Checksum-Sha256", sha256Hex(payload))

		if request.Method == http.MethodHead {
			writer.Header().Set("Content-Length", strconv.Itoa(len(payload)))
			writer.WriteHeader(http.StatusOK)

			return
		}

		requestedRange = request.Header.Get("Range")

		var offset int64
		if requestedRange != "" {
			_, err := fmt.Sscanf(requestedRange, "bytes=%d-", &offset)
			require.NoError(t, err)
		}

		writer.Header().Set("Content-Range",
			fmt.Sprintf("bytes %d-%d/%d", offset, len(payload)-1, len(payload)))
		writer.WriteHeader(http.StatusPartialContent)
		_, _ = writer.Write(payload[offset:])
	}

	server := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(server.Close)

	client := atlashttp.NewClient(server.URL, nil)
	downloader := download.NewDownloader(client, 8, nil)

	dest := filepath.Join(t.TempDir(), "scene.tif")

	// Simulate an interrupted transfer that got the first 10 bytes.
	require.NoError(t, os.WriteFile(dest+".part", payload[:10], 0600))

	state, err := downloader.Download(context.Background(), server.URL+"/asset", dest)
	require.NoError(t, err)

	// Only the remainder was requested.
	assert.Equal(t, "bytes=10-", requestedRange)
	assert.Equal(t, int64(len(payload)), state.BytesWritten)
	assert.Equal(t, sha256Hex(payload), state.Checksum)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestDownloader_RestartWithoutRangeSupport(t *testing.T) {
	t.Parallel()

	payload := []byte("full payload, no ranges here")

	handler := func(writer http.ResponseWriter, request *http.Request) {
		// Ranged requests are not honored; every GET restarts.
		assert.Empty(t, request.Header.Get("Range"))

		if request.Method == http.MethodHead {
			writer.Header().Set("Content-Length", strconv.Itoa(len(payload)))
			writer.WriteHeader(http.StatusOK)

			return
		}

		_, _ = writer.Write(payload)
	}

	server := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(server.Close)

	client := atlashttp.NewClient(server.URL, nil)
	downloader := download.NewDownloader(client, 8, nil)

	dest := filepath.Join(t.TempDir(), "scene.tif")

	// A stale partial must be discarded, not resumed.
	require.NoError(t, os.WriteFile(dest+".part", []byte("stale"), 0600))

	state, err := downloader.Download(context.Background(), server.URL+"/asset", dest)
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), state.BytesWritten)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestDownloader_ChecksumMismatch(t *testing.T) {
	t.Parallel()

	payload := []byte("corrupted on the wire")

	handler := func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("X-Checksum-Sha256", sha256Hex([]byte("what the server promised")))

		if request.Method == http.MethodHead {
			writer.WriteHeader(http.StatusOK)

			return
		}

		_, _ = writer.Write(payload)
	}

	server := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(server.Close)

	client := atlashttp.NewClient(server.URL, nil)
	downloader := download.NewDownloader(client, 8, nil)

	dest := filepath.Join(t.TempDir(), "scene.tif")

	_, err := downloader.Download(context.Background(), server.URL+"/asset", dest)

	var mismatch *atlas.ChecksumMismatchError

	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, dest, mismatch.Path)
	assert.Equal(t, sha256Hex(payload), mismatch.Actual)

	// Neither the final file nor the partial survive a failed verification.
	_, err = os.Stat(dest)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(dest + ".part")
	assert.True(t, os.IsNotExist(err))
}

func TestDownloader_ShortBody(t *testing.T) {
	t.Parallel()

	payload := []byte("only half of this arrives")

	handler := func(writer http.ResponseWriter, request *http.Request) {
		if request.Method == http.MethodHead {
			writer.Header().Set("Content-Length", strconv.Itoa(len(payload)))
			writer.WriteHeader(http.StatusOK)

			return
		}

		// Declare the full length but send half.
		writer.Header().Set("Content-Length", strconv.Itoa(len(payload)))

		flusher, ok := writer.(http.Flusher)
		require.True(t, ok)

		_, _ = writer.Write(payload[:len(payload)/2])
		flusher.Flush()

		// Drop the connection mid-body.
		hijacker, ok := writer.(http.Hijacker)
		require.True(t, ok)

		conn, _, err := hijacker.Hijack()
		require.NoError(t, err)
		_ = conn.Close()
	}

	server := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(server.Close)

	client := atlashttp.NewClient(server.URL, nil)
	downloader := download.NewDownloader(client, 4, nil)

	dest := filepath.Join(t.TempDir(), "scene.tif")

	_, err := downloader.Download(context.Background(), server.URL+"/asset", dest)

	var incomplete *atlas.IncompleteDownloadError

	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, int64(len(payload)), incomplete.Expected)
	assert.Less(t, incomplete.Written, incomplete.Expected)

	// The partial file stays for a later resume.
	_, err = os.Stat(dest + ".part")
	assert.NoError(t, err)
}

func TestDownloader_DestinationLocked(t *testing.T) {
	t.Parallel()

	payload := []byte("slow asset")
	release := make(chan struct{})
	started := make(chan struct{})

	var once sync.Once

	handler := func(writer http.ResponseWriter, request *http.Request) {
		if request.Method == http.MethodHead {
			writer.WriteHeader(http.StatusOK)

			return
		}

		once.Do(func() { close(started) })

		// Block the first transfer until the second caller has been refused.
		<-release

		_, _ = writer.Write(payload)
	}

	server := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(server.Close)

	client := atlashttp.NewClient(server.URL, nil)
	downloader := download.NewDownloader(client, 8, nil)

	dest := filepath.Join(t.TempDir(), "scene.tif")

	firstDone := make(chan error, 1)

	go func() {
		_, err := downloader.Download(context.Background(), server.URL+"/asset", dest)
		firstDone <- err
	}()

	// Wait until the first transfer is in flight, then a second caller on
	// the same destination fails fast.
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("first download never started")
	}

	_, err := downloader.Download(context.Background(), server.URL+"/asset", dest)

	var busy *atlas.DownloadInProgressError

	require.True(t, errors.As(err, &busy))
	assert.Equal(t, dest, busy.Path)

	close(release)

	require.NoError(t, <-firstDone)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestDownloader_DestinationIsDirectory(t *testing.T) {
	t.Parallel()

	payload := []byte("x")
	server := assetServer(t, payload)

	client := atlashttp.NewClient(server.URL, nil)
	downloader := download.NewDownloader(client, 8, nil)

	_, err := downloader.Download(context.Background(), server.URL+"/asset", t.TempDir())
	require.ErrorIs(t, err, atlas.ErrDestinationDirectory)
}
