package atlasclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/meridian-eo/atlas/pkg/atlas"
	"github.com/meridian-eo/atlas/pkg/atlasclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := atlasclient.New(nil)
	require.ErrorIs(t, err, atlas.ErrConfigRequired)

	_, err = atlasclient.New(&atlas.Config{APIKey: "pk-test"})
	require.ErrorIs(t, err, atlas.ErrBaseURLRequired)
}

func TestNew_NormalizesBaseURL(t *testing.T) {
	t.Parallel()

	config := &atlas.Config{BaseURL: "api.example.com/", APIKey: "pk-test"}

	atlasClient, err := atlasclient.New(config)
	require.NoError(t, err)

	defer func() { _ = atlasClient.Close() }()

	assert.Equal(t, "https://api.example.com", config.BaseURL)
}

func TestNewWithAPIKey(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "Bearer pk-test", request.Header.Get("Authorization"))
		_ = json.NewEncoder(writer).Encode(atlas.Info{Name: "atlas", Version: "2.1"})
	}))
	defer server.Close()

	atlasClient, err := atlasclient.NewWithAPIKey(server.URL, "pk-test")
	require.NoError(t, err)

	defer func() { _ = atlasClient.Close() }()

	info, err := atlasClient.GetInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "atlas", info.Name)
}
