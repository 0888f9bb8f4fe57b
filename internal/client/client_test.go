package client_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/meridian-eo/atlas/internal/client"
	"github.com/meridian-eo/atlas/pkg/atlas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := client.New(nil)
	require.ErrorIs(t, err, atlas.ErrConfigRequired)

	_, err = client.New(&atlas.Config{APIKey: "pk-test"})
	require.ErrorIs(t, err, atlas.ErrBaseURLRequired)
}

func TestNew_MissingAPIKey(t *testing.T) {
	t.Setenv("ATLAS_API_KEY", "")

	_, err := client.New(&atlas.Config{BaseURL: "https://api.example.com"})
	require.ErrorIs(t, err, atlas.ErrAPIKeyRequired)
}

func TestClient_GetInfo(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		requests.Add(1)
		assert.Equal(t, "/v1/info", request.URL.Path)
		assert.Equal(t, "Bearer pk-test", request.Header.Get("Authorization"))

		_ = json.NewEncoder(writer).Encode(atlas.Info{Name: "atlas", Version: "2.1"})
	}))
	defer server.Close()

	atlasClient, err := client.New(&atlas.Config{
		BaseURL: server.URL,
		APIKey:  "pk-test",
		Cache:   &atlas.CacheConfig{Type: atlas.CacheTypeMemory},
	})
	require.NoError(t, err)

	defer func() { _ = atlasClient.Close() }()

	info, err := atlasClient.GetInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "atlas", info.Name)

	// Second call is served from the cache.
	info, err = atlasClient.GetInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2.1", info.Version)
	assert.Equal(t, int32(1), requests.Load())
}

func TestClient_DownloadAssets(t *testing.T) {
	t.Parallel()

	payloads := map[string][]byte{
		"/assets/a.tif": []byte("payload for asset a"),
		"/assets/b.tif": []byte("asset b has different bytes"),
	}

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path == "/v1/info" {
			_ = json.NewEncoder(writer).Encode(atlas.Info{Name: "atlas"})

			return
		}

		payload, ok := payloads[request.URL.Path]
		if !ok {
			writer.WriteHeader(http.StatusNotFound)

			return
		}

		sum := sha256.Sum256(payload)
		writer.Header().Set("X-Checksum-Sha256", hex.EncodeToString(sum[:]))

		if request.Method == http.MethodHead {
			writer.WriteHeader(http.StatusOK)

			return
		}

		_, _ = writer.Write(payload)
	}))
	defer server.Close()

	atlasClient, err := client.New(&atlas.Config{
		BaseURL:                server.URL,
		APIKey:                 "pk-test",
		MaxConcurrentDownloads: 2,
	})
	require.NoError(t, err)

	defer func() { _ = atlasClient.Close() }()

	order := &atlas.Order{
		ID:    "ord-1",
		State: "success",
		Assets: []atlas.Asset{
			{Name: "a.tif", Location: server.URL + "/assets/a.tif"},
			{Name: "b.tif", Location: server.URL + "/assets/b.tif"},
			{Name: "missing.tif"},
		},
	}

	dir := t.TempDir()

	results, err := atlasClient.DownloadAssets(context.Background(), order, dir)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Results come back in asset order.
	assert.Equal(t, "a.tif", results[0].Asset.Name)
	require.NoError(t, results[0].Err)
	assert.Equal(t, int64(len(payloads["/assets/a.tif"])), results[0].Bytes)

	assert.Equal(t, "b.tif", results[1].Asset.Name)
	require.NoError(t, results[1].Err)

	// Assets without a location fail individually, not collectively.
	require.ErrorIs(t, results[2].Err, atlas.ErrNoDownloadLocation)

	data, err := os.ReadFile(filepath.Join(dir, "a.tif"))
	require.NoError(t, err)
	assert.Equal(t, payloads["/assets/a.tif"], data)
}

func TestClient_DownloadAssets_Validation(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	atlasClient, err := client.New(&atlas.Config{BaseURL: server.URL, APIKey: "pk-test"})
	require.NoError(t, err)

	defer func() { _ = atlasClient.Close() }()

	_, err = atlasClient.DownloadAssets(context.Background(), nil, t.TempDir())
	require.ErrorIs(t, err, atlas.ErrOrderIDRequired)
}

func TestClient_Close(t *testing.T) {
	t.Parallel()

	atlasClient, err := client.New(&atlas.Config{
		BaseURL: "https://api.example.com",
		APIKey:  "pk-test",
	})
	require.NoError(t, err)
	require.NoError(t, atlasClient.Close())
}
