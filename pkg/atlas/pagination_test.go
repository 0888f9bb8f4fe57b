package atlas_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/meridian-eo/atlas/pkg/atlas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testItem struct {
	ID   string
	Name string
}

// pageFetcher serves a canned sequence of pages keyed by cursor.
func pageFetcher(pages map[string]*atlas.Page[testItem]) atlas.PageFetcher[testItem] {
	return func(ctx context.Context, cursor string) (*atlas.Page[testItem], error) {
		page, ok := pages[cursor]
		if !ok {
			return &atlas.Page[testItem]{}, nil
		}

		return page, nil
	}
}

func threePages() map[string]*atlas.Page[testItem] {
	return map[string]*atlas.Page[testItem]{
		"": {
			Items: []testItem{{ID: "1", Name: "Item 1"}, {ID: "2", Name: "Item 2"}},
			Next:  "c2",
		},
		"c2": {
			Items: []testItem{{ID: "3", Name: "Item 3"}},
			Next:  "c3",
		},
		"c3": {
			Items: []testItem{{ID: "4", Name: "Item 4"}},
		},
	}
}

func TestPageIterator_HasNext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	iterator := atlas.NewPageIterator(ctx, pageFetcher(threePages()))

	// Should have next before any fetch
	assert.True(t, iterator.HasNext())

	item1, err := iterator.Next()
	require.NoError(t, err)
	assert.Equal(t, "1", item1.ID)

	assert.True(t, iterator.HasNext())

	item2, err := iterator.Next()
	require.NoError(t, err)
	assert.Equal(t, "2", item2.ID)

	// Should still have next (second page)
	assert.True(t, iterator.HasNext())

	item3, err := iterator.Next()
	require.NoError(t, err)
	assert.Equal(t, "3", item3.ID)

	item4, err := iterator.Next()
	require.NoError(t, err)
	assert.Equal(t, "4", item4.ID)

	assert.False(t, iterator.HasNext())

	_, err = iterator.Next()
	require.ErrorIs(t, err, atlas.ErrNoMoreItems)
}

func TestPageIterator_All(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	iterator := atlas.NewPageIterator(ctx, pageFetcher(threePages()))

	items, err := iterator.All()
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Equal(t, "1", items[0].ID)
	assert.Equal(t, "4", items[3].ID)
}

func TestPageIterator_EmptyResult(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	iterator := atlas.NewPageIterator(ctx, pageFetcher(nil))

	assert.False(t, iterator.HasNext())

	items, err := iterator.All()
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestPageIterator_RepeatedCursor(t *testing.T) {
	t.Parallel()

	pages := map[string]*atlas.Page[testItem]{
		"": {
			Items: []testItem{{ID: "1"}},
			Next:  "loop",
		},
		"loop": {
			Items: []testItem{{ID: "2"}},
			Next:  "loop",
		},
	}

	ctx := context.Background()
	iterator := atlas.NewPageIterator(ctx, pageFetcher(pages))

	item, err := iterator.Next()
	require.NoError(t, err)
	assert.Equal(t, "1", item.ID)

	item, err = iterator.Next()
	require.NoError(t, err)
	assert.Equal(t, "2", item.ID)

	// The repeated cursor is detected before another fetch happens.
	_, err = iterator.Next()

	var loopErr *atlas.PaginationLoopError

	require.ErrorAs(t, err, &loopErr)
	assert.Equal(t, "loop", loopErr.Cursor)
}

func TestPageIterator_FetchError(t *testing.T) {
	t.Parallel()

	fetchErr := errors.New("boom")
	calls := 0
	fetch := func(ctx context.Context, cursor string) (*atlas.Page[testItem], error) {
		calls++

		return nil, fetchErr
	}

	ctx := context.Background()
	iterator := atlas.NewPageIterator(ctx, fetch)

	_, err := iterator.Next()
	require.ErrorIs(t, err, fetchErr)

	// The error is sticky; no further fetches happen.
	_, err = iterator.Next()
	require.ErrorIs(t, err, fetchErr)
	assert.Equal(t, 1, calls)
}

func TestPageIterator_ForEach(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	iterator := atlas.NewPageIterator(ctx, pageFetcher(threePages()))

	var seen []string

	err := iterator.ForEach(func(item testItem) error {
		seen = append(seen, item.ID)

		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3", "4"}, seen)
}

func TestFetchAllPages(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	items, err := atlas.FetchAllPages(ctx, pageFetcher(threePages()), nil)
	require.NoError(t, err)
	assert.Len(t, items, 4)
}

func TestFetchAllPages_Limit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	items, err := atlas.FetchAllPages(ctx, pageFetcher(threePages()), &atlas.PaginationOptions{Limit: 3})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "3", items[2].ID)
}

func TestFetchAllPages_MaxPages(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	items, err := atlas.FetchAllPages(ctx, pageFetcher(threePages()), &atlas.PaginationOptions{MaxPages: 1})
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestFetchAllPages_RepeatedCursor(t *testing.T) {
	t.Parallel()

	pages := map[string]*atlas.Page[testItem]{
		"":     {Items: []testItem{{ID: "1"}}, Next: "loop"},
		"loop": {Items: []testItem{{ID: "2"}}, Next: "loop"},
	}

	ctx := context.Background()

	items, err := atlas.FetchAllPages(ctx, pageFetcher(pages), nil)

	var loopErr *atlas.PaginationLoopError

	require.ErrorAs(t, err, &loopErr)
	assert.Len(t, items, 2)
}

func TestStreamPages(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	var ids []string

	for result := range atlas.StreamPages(ctx, pageFetcher(threePages()), nil) {
		require.NoError(t, result.Err)

		for _, item := range result.Items {
			ids = append(ids, item.ID)
		}
	}

	assert.Equal(t, []string{"1", "2", "3", "4"}, ids)
}

func TestStreamPages_Cancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	fetch := func(ctx context.Context, cursor string) (*atlas.Page[testItem], error) {
		return &atlas.Page[testItem]{
			Items: []testItem{{ID: "x"}},
			Next:  "c-" + time.Now().String(),
		}, nil
	}

	results := atlas.StreamPages(ctx, fetch, nil)

	// Consume one page, then cancel. The stream must close promptly.
	first, ok := <-results
	require.True(t, ok)
	require.NoError(t, first.Err)

	cancel()

	for range results {
		// drain until closed
	}
}
