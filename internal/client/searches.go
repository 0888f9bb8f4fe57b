package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/meridian-eo/atlas/internal/http"
	"github.com/meridian-eo/atlas/pkg/atlas"
)

// SearchesClient implements atlas.SearchesClient.
type SearchesClient struct {
	httpClient *http.Client
}

// NewSearchesClient creates a new searches client.
func NewSearchesClient(httpClient *http.Client) *SearchesClient {
	return &SearchesClient{httpClient: httpClient}
}

// itemPage decodes one page of a list response into items.
func decodePage[T any](resp *http.Response) (*atlas.Page[T], error) {
	var page atlas.Page[T]

	err := json.Unmarshal(resp.Body, &page)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", atlas.ErrProtocol, err)
	}

	return &page, nil
}

// Quick implements atlas.SearchesClient.Quick. Results are fetched lazily,
// one page per request; the search body is resubmitted with the cursor of
// each follow-up page.
func (c *SearchesClient) Quick(ctx context.Context, request *atlas.SearchRequest) (*atlas.PageIterator[atlas.Item], error) {
	if request == nil || len(request.ItemTypes) == 0 {
		return nil, atlas.ErrNoConditionals
	}

	fetch := func(ctx context.Context, cursor string) (*atlas.Page[atlas.Item], error) {
		query := url.Values{}
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		if request.Sort != "" {
			query.Set("sort", request.Sort)
		}

		resp, err := c.httpClient.Do(ctx, &http.Request{
			Method: "POST",
			Path:   "/v1/quick-search",
			Query:  query,
			Body:   request,
		})
		if err != nil {
			return nil, fmt.Errorf("running quick search: %w", err)
		}

		return decodePage[atlas.Item](resp)
	}

	return atlas.NewPageIterator(ctx, fetch), nil
}

// Create implements atlas.SearchesClient.Create.
func (c *SearchesClient) Create(ctx context.Context, request *atlas.SearchRequest) (*atlas.SavedSearch, error) {
	if request == nil || len(request.ItemTypes) == 0 {
		return nil, atlas.ErrNoConditionals
	}

	resp, err := c.httpClient.Post(ctx, "/v1/searches", request)
	if err != nil {
		return nil, fmt.Errorf("creating search: %w", err)
	}

	return decodeSavedSearch(resp)
}

// Get implements atlas.SearchesClient.Get.
func (c *SearchesClient) Get(ctx context.Context, searchID string) (*atlas.SavedSearch, error) {
	if searchID == "" {
		return nil, atlas.ErrSearchIDRequired
	}

	resp, err := c.httpClient.Get(ctx, "/v1/searches/"+searchID, nil)
	if err != nil {
		return nil, fmt.Errorf("getting search: %w", err)
	}

	return decodeSavedSearch(resp)
}

// Update implements atlas.SearchesClient.Update.
func (c *SearchesClient) Update(ctx context.Context, searchID string, request *atlas.SearchRequest) (*atlas.SavedSearch, error) {
	if searchID == "" {
		return nil, atlas.ErrSearchIDRequired
	}

	resp, err := c.httpClient.Put(ctx, "/v1/searches/"+searchID, request)
	if err != nil {
		return nil, fmt.Errorf("updating search: %w", err)
	}

	return decodeSavedSearch(resp)
}

// Delete implements atlas.SearchesClient.Delete.
func (c *SearchesClient) Delete(ctx context.Context, searchID string) error {
	if searchID == "" {
		return atlas.ErrSearchIDRequired
	}

	_, err := c.httpClient.Delete(ctx, "/v1/searches/"+searchID)
	if err != nil {
		return fmt.Errorf("deleting search: %w", err)
	}

	return nil
}

// List implements atlas.SearchesClient.List.
func (c *SearchesClient) List(ctx context.Context) (*atlas.PageIterator[atlas.SavedSearch], error) {
	fetch := func(ctx context.Context, cursor string) (*atlas.Page[atlas.SavedSearch], error) {
		query := url.Values{}
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		resp, err := c.httpClient.Get(ctx, "/v1/searches", query)
		if err != nil {
			return nil, fmt.Errorf("listing searches: %w", err)
		}

		return decodePage[atlas.SavedSearch](resp)
	}

	return atlas.NewPageIterator(ctx, fetch), nil
}

// Run implements atlas.SearchesClient.Run.
func (c *SearchesClient) Run(ctx context.Context, searchID string) (*atlas.PageIterator[atlas.Item], error) {
	if searchID == "" {
		return nil, atlas.ErrSearchIDRequired
	}

	fetch := func(ctx context.Context, cursor string) (*atlas.Page[atlas.Item], error) {
		query := url.Values{}
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		resp, err := c.httpClient.Get(ctx, "/v1/searches/"+searchID+"/results", query)
		if err != nil {
			return nil, fmt.Errorf("running search: %w", err)
		}

		return decodePage[atlas.Item](resp)
	}

	return atlas.NewPageIterator(ctx, fetch), nil
}

// Stats implements atlas.SearchesClient.Stats.
func (c *SearchesClient) Stats(ctx context.Context, request *atlas.StatsRequest) (*atlas.Stats, error) {
	if request == nil || request.Interval == "" {
		return nil, atlas.ErrInvalidInterval
	}

	resp, err := c.httpClient.Post(ctx, "/v1/stats", request)
	if err != nil {
		return nil, fmt.Errorf("getting search stats: %w", err)
	}

	var stats atlas.Stats

	err = json.Unmarshal(resp.Body, &stats)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", atlas.ErrProtocol, err)
	}

	return &stats, nil
}

func decodeSavedSearch(resp *http.Response) (*atlas.SavedSearch, error) {
	var search atlas.SavedSearch

	err := json.Unmarshal(resp.Body, &search)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", atlas.ErrProtocol, err)
	}

	return &search, nil
}
