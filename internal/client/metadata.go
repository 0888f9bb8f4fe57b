package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/meridian-eo/atlas/pkg/atlas"
)

// Catalog metadata changes rarely, so every lookup here goes through
// cachedGet and is served from the response cache when one is configured.

// ListItemTypes implements atlas.Client.ListItemTypes.
func (c *Client) ListItemTypes(ctx context.Context) ([]atlas.ItemType, error) {
	fetch := func(ctx context.Context, cursor string) (*atlas.Page[atlas.ItemType], error) {
		body, err := c.cachedGet(ctx, "/v1/item-types", cursorQuery(cursor))
		if err != nil {
			return nil, fmt.Errorf("listing item types: %w", err)
		}

		return decodePageBody[atlas.ItemType](body)
	}

	return atlas.FetchAllPages(ctx, fetch, nil)
}

// GetItemType implements atlas.Client.GetItemType.
func (c *Client) GetItemType(ctx context.Context, id string) (*atlas.ItemType, error) {
	if id == "" {
		return nil, atlas.ErrItemTypeIDRequired
	}

	body, err := c.cachedGet(ctx, "/v1/item-types/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("getting item type: %w", err)
	}

	var itemType atlas.ItemType

	if err := json.Unmarshal(body, &itemType); err != nil {
		return nil, fmt.Errorf("%w: %v", atlas.ErrProtocol, err)
	}

	return &itemType, nil
}

// ListAssetTypes implements atlas.Client.ListAssetTypes.
func (c *Client) ListAssetTypes(ctx context.Context) ([]atlas.AssetType, error) {
	fetch := func(ctx context.Context, cursor string) (*atlas.Page[atlas.AssetType], error) {
		body, err := c.cachedGet(ctx, "/v1/asset-types", cursorQuery(cursor))
		if err != nil {
			return nil, fmt.Errorf("listing asset types: %w", err)
		}

		return decodePageBody[atlas.AssetType](body)
	}

	return atlas.FetchAllPages(ctx, fetch, nil)
}

// GetAssetType implements atlas.Client.GetAssetType.
func (c *Client) GetAssetType(ctx context.Context, id string) (*atlas.AssetType, error) {
	if id == "" {
		return nil, atlas.ErrAssetTypeIDRequired
	}

	body, err := c.cachedGet(ctx, "/v1/asset-types/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("getting asset type: %w", err)
	}

	var assetType atlas.AssetType

	if err := json.Unmarshal(body, &assetType); err != nil {
		return nil, fmt.Errorf("%w: %v", atlas.ErrProtocol, err)
	}

	return &assetType, nil
}

func cursorQuery(cursor string) url.Values {
	if cursor == "" {
		return nil
	}

	return url.Values{"cursor": []string{cursor}}
}

func decodePageBody[T any](body []byte) (*atlas.Page[T], error) {
	var page atlas.Page[T]

	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("%w: %v", atlas.ErrProtocol, err)
	}

	return &page, nil
}
