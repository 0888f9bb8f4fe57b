package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/meridian-eo/atlas/internal/client"
	atlashttp "github.com/meridian-eo/atlas/internal/http"
	"github.com/meridian-eo/atlas/pkg/atlas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quickPoll = 10 * time.Millisecond

func newOrdersClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *client.OrdersClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	httpClient := atlashttp.NewClient(server.URL, nil)

	return client.NewOrdersClient(httpClient, quickPoll, 8*quickPoll, timeout)
}

func TestOrdersClient_Create(t *testing.T) {
	t.Parallel()

	ordersClient := newOrdersClient(t, func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "POST", request.Method)
		assert.Equal(t, "/v1/orders", request.URL.Path)

		var body atlas.OrderRequest

		require.NoError(t, json.NewDecoder(request.Body).Decode(&body))
		assert.Equal(t, "berlin-june", body.Name)
		assert.Len(t, body.Products, 1)

		writer.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(writer).Encode(atlas.Order{ID: "ord-1", State: "queued"})
	}, time.Minute)

	order, err := ordersClient.Create(context.Background(), &atlas.OrderRequest{
		Name: "berlin-june",
		Products: []atlas.OrderProduct{
			{ItemType: "PSScene", ItemIDs: []string{"itm-1"}, Bundle: "visual"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "ord-1", order.ID)
	assert.Equal(t, "queued", order.State)
	assert.False(t, order.IsTerminal())
}

func TestOrdersClient_Create_Validation(t *testing.T) {
	t.Parallel()

	ordersClient := newOrdersClient(t, func(writer http.ResponseWriter, request *http.Request) {
		t.Error("no request expected")
	}, time.Minute)

	_, err := ordersClient.Create(context.Background(), nil)
	require.ErrorIs(t, err, atlas.ErrNoProductsSpecified)

	_, err = ordersClient.Create(context.Background(), &atlas.OrderRequest{Name: "empty"})
	require.ErrorIs(t, err, atlas.ErrNoProductsSpecified)
}

func TestOrdersClient_Get(t *testing.T) {
	t.Parallel()

	ordersClient := newOrdersClient(t, func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/v1/orders/ord-1", request.URL.Path)
		_ = json.NewEncoder(writer).Encode(atlas.Order{
			ID:    "ord-1",
			State: "failed",
			Error: &atlas.APIError{Code: "QuotaExceeded", Title: "Quota Exceeded"},
		})
	}, time.Minute)

	order, err := ordersClient.Get(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.True(t, order.IsTerminal())
	require.NotNil(t, order.Error)
	assert.Equal(t, "QuotaExceeded", order.Error.Code)

	_, err = ordersClient.Get(context.Background(), "")
	require.ErrorIs(t, err, atlas.ErrOrderIDRequired)
}

func TestOrdersClient_List(t *testing.T) {
	t.Parallel()

	ordersClient := newOrdersClient(t, func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/v1/orders", request.URL.Path)
		assert.Equal(t, "running", request.URL.Query().Get("state"))

		switch request.URL.Query().Get("cursor") {
		case "":
			_ = json.NewEncoder(writer).Encode(atlas.Page[atlas.Order]{
				Items: []atlas.Order{{ID: "ord-1"}, {ID: "ord-2"}},
				Next:  "c2",
			})
		case "c2":
			_ = json.NewEncoder(writer).Encode(atlas.Page[atlas.Order]{
				Items: []atlas.Order{{ID: "ord-3"}},
			})
		default:
			t.Errorf("unexpected cursor %q", request.URL.Query().Get("cursor"))
		}
	}, time.Minute)

	iterator, err := ordersClient.List(context.Background(), &atlas.OrderListOptions{State: "running"})
	require.NoError(t, err)

	orders, err := iterator.All()
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, "ord-1", orders[0].ID)
	assert.Equal(t, "ord-3", orders[2].ID)
}

func TestOrdersClient_Cancel(t *testing.T) {
	t.Parallel()

	ordersClient := newOrdersClient(t, func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "POST", request.Method)
		assert.Equal(t, "/v1/orders/ord-1/cancel", request.URL.Path)
		_ = json.NewEncoder(writer).Encode(atlas.Order{ID: "ord-1", State: "cancelled"})
	}, time.Minute)

	order, err := ordersClient.Cancel(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", order.State)
	assert.True(t, order.IsTerminal())
}

func TestOrdersClient_PollUntilComplete(t *testing.T) {
	t.Parallel()

	var polls atomic.Int32

	states := []string{"running", "running", "success"}

	ordersClient := newOrdersClient(t, func(writer http.ResponseWriter, request *http.Request) {
		count := polls.Add(1)
		state := states[len(states)-1]

		if int(count) <= len(states) {
			state = states[count-1]
		}

		_ = json.NewEncoder(writer).Encode(atlas.Order{ID: "ord-1", State: state})
	}, time.Minute)

	order, err := ordersClient.PollUntilComplete(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "success", order.State)

	// running, running, success: exactly three status checks.
	assert.Equal(t, int32(3), polls.Load())
}

func TestOrdersClient_PollUntilComplete_FailedIsValue(t *testing.T) {
	t.Parallel()

	ordersClient := newOrdersClient(t, func(writer http.ResponseWriter, request *http.Request) {
		_ = json.NewEncoder(writer).Encode(atlas.Order{
			ID:    "ord-1",
			State: "failed",
			Error: &atlas.APIError{Code: "SceneUnavailable", Title: "Scene Unavailable"},
		})
	}, time.Minute)

	order, err := ordersClient.PollUntilComplete(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "failed", order.State)
	require.NotNil(t, order.Error)
	assert.Equal(t, "SceneUnavailable", order.Error.Code)
}

func TestOrdersClient_PollUntilComplete_PartialIsValue(t *testing.T) {
	t.Parallel()

	ordersClient := newOrdersClient(t, func(writer http.ResponseWriter, request *http.Request) {
		_ = json.NewEncoder(writer).Encode(atlas.Order{ID: "ord-1", State: "partial"})
	}, time.Minute)

	order, err := ordersClient.PollUntilComplete(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "partial", order.State)
}

func TestOrdersClient_PollUntilComplete_Timeout(t *testing.T) {
	t.Parallel()

	ordersClient := newOrdersClient(t, func(writer http.ResponseWriter, request *http.Request) {
		_ = json.NewEncoder(writer).Encode(atlas.Order{ID: "ord-1", State: "running"})
	}, 100*time.Millisecond)

	_, err := ordersClient.PollUntilComplete(context.Background(), "ord-1")

	var timeout *atlas.JobTimeoutError

	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, "ord-1", timeout.OrderID)
	assert.Equal(t, "running", timeout.LastState)
}

func TestOrdersClient_PollUntilComplete_TimeoutMidRequest(t *testing.T) {
	t.Parallel()

	var polls atomic.Int32

	ordersClient := newOrdersClient(t, func(writer http.ResponseWriter, request *http.Request) {
		if polls.Add(1) == 1 {
			_ = json.NewEncoder(writer).Encode(atlas.Order{ID: "ord-1", State: atlas.OrderStateRunning})

			return
		}

		// Stall until the client gives up mid-request.
		<-request.Context().Done()
	}, 50*time.Millisecond)

	_, err := ordersClient.PollUntilComplete(context.Background(), "ord-1")

	var timeout *atlas.JobTimeoutError

	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, "ord-1", timeout.OrderID)
	assert.Equal(t, atlas.OrderStateRunning, timeout.LastState)
	assert.False(t, atlas.IsRetryExhausted(err))
}

func TestOrdersClient_PollUntilComplete_CallerCancel(t *testing.T) {
	t.Parallel()

	ordersClient := newOrdersClient(t, func(writer http.ResponseWriter, request *http.Request) {
		_ = json.NewEncoder(writer).Encode(atlas.Order{ID: "ord-1", State: "queued"})
	}, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	_, err := ordersClient.PollUntilComplete(ctx, "ord-1")
	require.ErrorIs(t, err, context.Canceled)
}

func TestOrdersClient_PollUntilComplete_CallerCancelMidRequest(t *testing.T) {
	t.Parallel()

	var polls atomic.Int32

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ordersClient := newOrdersClient(t, func(writer http.ResponseWriter, request *http.Request) {
		if polls.Add(1) == 1 {
			_ = json.NewEncoder(writer).Encode(atlas.Order{ID: "ord-1", State: atlas.OrderStateRunning})

			return
		}

		// Cancel while the status check is in flight.
		cancel()
		<-request.Context().Done()
	}, time.Minute)

	_, err := ordersClient.PollUntilComplete(ctx, "ord-1")
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, atlas.IsRetryExhausted(err))
}
