package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/meridian-eo/atlas/internal/http"
	"github.com/meridian-eo/atlas/pkg/atlas"
)

// AssetsClient implements atlas.AssetsClient.
type AssetsClient struct {
	httpClient      *http.Client
	pollIntervalMin time.Duration
	pollIntervalMax time.Duration
	pollTimeout     time.Duration
}

// NewAssetsClient creates a new assets client.
func NewAssetsClient(httpClient *http.Client, intervalMin, intervalMax, timeout time.Duration) *AssetsClient {
	return &AssetsClient{
		httpClient:      httpClient,
		pollIntervalMin: intervalMin,
		pollIntervalMax: intervalMax,
		pollTimeout:     timeout,
	}
}

func assetsPath(itemType, itemID string) string {
	return "/v1/item-types/" + itemType + "/items/" + itemID + "/assets"
}

// List implements atlas.AssetsClient.List.
func (c *AssetsClient) List(ctx context.Context, itemType, itemID string) (map[string]atlas.Asset, error) {
	resp, err := c.httpClient.Get(ctx, assetsPath(itemType, itemID), nil)
	if err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}

	var assets map[string]atlas.Asset

	err = json.Unmarshal(resp.Body, &assets)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", atlas.ErrProtocol, err)
	}

	return assets, nil
}

// Activate implements atlas.AssetsClient.Activate. Activation is
// asynchronous; use Wait to block until the asset is ready.
func (c *AssetsClient) Activate(ctx context.Context, itemType, itemID, assetType string) error {
	_, err := c.httpClient.Post(ctx, assetsPath(itemType, itemID)+"/"+assetType+"/activate", nil)
	if err != nil {
		return fmt.Errorf("activating asset: %w", err)
	}

	return nil
}

// Wait implements atlas.AssetsClient.Wait. It polls the asset with a growing
// interval until it is active and its download location is known.
func (c *AssetsClient) Wait(ctx context.Context, itemType, itemID, assetType string) (*atlas.Asset, error) {
	start := time.Now()

	pollCtx, cancel := context.WithTimeout(ctx, c.pollTimeout)
	defer cancel()

	asset, err := c.getAsset(pollCtx, itemType, itemID, assetType)
	if err != nil {
		return nil, c.waitFailure(ctx, pollCtx, err, assetType, "", start)
	}

	interval := c.pollIntervalMin

	for asset.Status != atlas.AssetStateActive {
		timer := time.NewTimer(interval)

		select {
		case <-pollCtx.Done():
			timer.Stop()

			return nil, c.waitFailure(ctx, pollCtx, pollCtx.Err(), assetType, asset.Status, start)
		case <-timer.C:
		}

		lastState := asset.Status

		asset, err = c.getAsset(pollCtx, itemType, itemID, assetType)
		if err != nil {
			return nil, c.waitFailure(ctx, pollCtx, err, assetType, lastState, start)
		}

		interval *= 2
		if interval > c.pollIntervalMax {
			interval = c.pollIntervalMax
		}
	}

	if asset.Location == "" {
		return nil, atlas.ErrNoDownloadLocation
	}

	return asset, nil
}

// waitFailure classifies a failed activation check the same way whether the
// deadline struck between checks or mid-request. Caller cancellation is not a
// wait timeout and passes through as ctx.Err().
func (c *AssetsClient) waitFailure(ctx, pollCtx context.Context, err error, assetType, lastState string, start time.Time) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if pollCtx.Err() != nil {
		return fmt.Errorf("waiting for asset %s after %s (last state %q): %w",
			assetType, time.Since(start).Round(time.Second), lastState, pollCtx.Err())
	}

	return err
}

func (c *AssetsClient) getAsset(ctx context.Context, itemType, itemID, assetType string) (*atlas.Asset, error) {
	assets, err := c.List(ctx, itemType, itemID)
	if err != nil {
		return nil, err
	}

	asset, ok := assets[assetType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", atlas.ErrAssetNotActive, assetType)
	}

	return &asset, nil
}
