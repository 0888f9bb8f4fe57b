package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/meridian-eo/atlas/internal/http"
	"github.com/meridian-eo/atlas/pkg/atlas"
)

// OrdersClient implements atlas.OrdersClient.
type OrdersClient struct {
	httpClient      *http.Client
	pollIntervalMin time.Duration
	pollIntervalMax time.Duration
	pollTimeout     time.Duration
}

// NewOrdersClient creates a new orders client.
func NewOrdersClient(httpClient *http.Client, intervalMin, intervalMax, timeout time.Duration) *OrdersClient {
	return &OrdersClient{
		httpClient:      httpClient,
		pollIntervalMin: intervalMin,
		pollIntervalMax: intervalMax,
		pollTimeout:     timeout,
	}
}

// Create implements atlas.OrdersClient.Create.
func (c *OrdersClient) Create(ctx context.Context, request *atlas.OrderRequest) (*atlas.Order, error) {
	if request == nil || len(request.Products) == 0 {
		return nil, atlas.ErrNoProductsSpecified
	}

	resp, err := c.httpClient.Post(ctx, "/v1/orders", request)
	if err != nil {
		return nil, fmt.Errorf("creating order: %w", err)
	}

	return decodeOrder(resp)
}

// Get implements atlas.OrdersClient.Get.
func (c *OrdersClient) Get(ctx context.Context, orderID string) (*atlas.Order, error) {
	if orderID == "" {
		return nil, atlas.ErrOrderIDRequired
	}

	resp, err := c.httpClient.Get(ctx, "/v1/orders/"+orderID, nil)
	if err != nil {
		return nil, fmt.Errorf("getting order: %w", err)
	}

	return decodeOrder(resp)
}

// List implements atlas.OrdersClient.List.
func (c *OrdersClient) List(ctx context.Context, opts *atlas.OrderListOptions) (*atlas.PageIterator[atlas.Order], error) {
	fetch := func(ctx context.Context, cursor string) (*atlas.Page[atlas.Order], error) {
		query := url.Values{}
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		if opts != nil && opts.State != "" {
			query.Set("state", opts.State)
		}

		resp, err := c.httpClient.Get(ctx, "/v1/orders", query)
		if err != nil {
			return nil, fmt.Errorf("listing orders: %w", err)
		}

		return decodePage[atlas.Order](resp)
	}

	return atlas.NewPageIterator(ctx, fetch), nil
}

// Cancel implements atlas.OrdersClient.Cancel. Cancellation is the only way
// to stop a remote order; abandoning a poll leaves it running.
func (c *OrdersClient) Cancel(ctx context.Context, orderID string) (*atlas.Order, error) {
	if orderID == "" {
		return nil, atlas.ErrOrderIDRequired
	}

	resp, err := c.httpClient.Post(ctx, "/v1/orders/"+orderID+"/cancel", nil)
	if err != nil {
		return nil, fmt.Errorf("cancelling order: %w", err)
	}

	return decodeOrder(resp)
}

// PollUntilComplete implements atlas.OrdersClient.PollUntilComplete. The
// first check is immediate; subsequent checks wait an interval that doubles
// from pollIntervalMin up to pollIntervalMax. Failed and partial orders are
// returned as values with their Error detail; only infrastructure failures
// surface as errors.
func (c *OrdersClient) PollUntilComplete(ctx context.Context, orderID string) (*atlas.Order, error) {
	if orderID == "" {
		return nil, atlas.ErrOrderIDRequired
	}

	start := time.Now()

	pollCtx, cancel := context.WithTimeout(ctx, c.pollTimeout)
	defer cancel()

	order, err := c.Get(pollCtx, orderID)
	if err != nil {
		return nil, c.pollFailure(ctx, pollCtx, err, orderID, "", start)
	}

	interval := c.pollIntervalMin

	for !order.IsTerminal() {
		timer := time.NewTimer(interval)

		select {
		case <-pollCtx.Done():
			timer.Stop()

			return nil, c.pollFailure(ctx, pollCtx, pollCtx.Err(), orderID, order.State, start)
		case <-timer.C:
		}

		lastState := order.State

		order, err = c.Get(pollCtx, orderID)
		if err != nil {
			return nil, c.pollFailure(ctx, pollCtx, err, orderID, lastState, start)
		}

		interval *= 2
		if interval > c.pollIntervalMax {
			interval = c.pollIntervalMax
		}
	}

	return order, nil
}

// pollFailure classifies a failed status check, whether the poll deadline or
// caller cancellation struck between checks or mid-request. Caller
// cancellation is not a poll timeout and passes through as ctx.Err(); a spent
// poll budget reports a JobTimeoutError with the last observed state.
func (c *OrdersClient) pollFailure(ctx, pollCtx context.Context, err error, orderID, lastState string, start time.Time) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if pollCtx.Err() != nil {
		return &atlas.JobTimeoutError{
			OrderID:   orderID,
			LastState: lastState,
			Waited:    time.Since(start),
		}
	}

	return fmt.Errorf("polling order: %w", err)
}

func decodeOrder(resp *http.Response) (*atlas.Order, error) {
	var order atlas.Order

	err := json.Unmarshal(resp.Body, &order)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", atlas.ErrProtocol, err)
	}

	return &order, nil
}
