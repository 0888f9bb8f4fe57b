package atlas

import (
	"context"
)

// Page is a single page of a list response. A empty Next cursor terminates
// pagination; any non-empty cursor must differ from the one that produced
// the page.
type Page[T any] struct {
	Items []T    `json:"items"`
	Next  string `json:"next,omitempty"`
}

// PageFetcher fetches one page. An empty cursor requests the first page.
type PageFetcher[T any] func(ctx context.Context, cursor string) (*Page[T], error)

// PaginationOptions configures bulk pagination helpers.
type PaginationOptions struct {
	// MaxPages bounds the number of pages fetched. Zero means no bound.
	MaxPages int
	// Limit bounds the number of items returned. Zero means no bound.
	Limit int
}

// DefaultPaginationOptions returns options with no bounds.
func DefaultPaginationOptions() *PaginationOptions {
	return &PaginationOptions{}
}

// PageIterator lazily walks a cursor-paginated result set. Only one page is
// held in memory at a time and items are yielded in strict server order.
type PageIterator[T any] struct {
	ctx    context.Context
	fetch  PageFetcher[T]
	page   *Page[T]
	index  int
	cursor string

	started bool
	done    bool
	err     error
}

// NewPageIterator creates an iterator over the sequence of pages produced by
// fetch. The context applies to every page fetch.
func NewPageIterator[T any](ctx context.Context, fetch PageFetcher[T]) *PageIterator[T] {
	return &PageIterator[T]{ctx: ctx, fetch: fetch}
}

// ensure advances to the next non-empty page if the current one is spent.
func (it *PageIterator[T]) ensure() error {
	if it.err != nil {
		return it.err
	}

	for !it.done && (it.page == nil || it.index >= len(it.page.Items)) {
		next := ""
		if it.started {
			next = it.page.Next
			if next == "" {
				it.done = true

				return nil
			}

			// Cycle guard: a repeated cursor would loop forever.
			if next == it.cursor {
				it.err = &PaginationLoopError{Cursor: next}

				return it.err
			}
		}

		page, err := it.fetch(it.ctx, next)
		if err != nil {
			it.err = err

			return it.err
		}

		it.started = true
		it.cursor = next
		it.page = page
		it.index = 0

		if len(page.Items) == 0 && page.Next == "" {
			it.done = true
		}
	}

	return nil
}

// HasNext reports whether another item is available. It may fetch the next
// page to find out; a fetch error is deferred and surfaced by Next.
func (it *PageIterator[T]) HasNext() bool {
	if err := it.ensure(); err != nil {
		return true // surface the error from Next
	}

	return !it.done && it.page != nil && it.index < len(it.page.Items)
}

// Next returns the next item in server order.
func (it *PageIterator[T]) Next() (T, error) {
	var zero T

	if err := it.ensure(); err != nil {
		return zero, err
	}

	if it.done || it.page == nil || it.index >= len(it.page.Items) {
		return zero, ErrNoMoreItems
	}

	item := it.page.Items[it.index]
	it.index++

	return item, nil
}

// All collects every remaining item. Prefer ForEach or StreamPages for
// unbounded result sets.
func (it *PageIterator[T]) All() ([]T, error) {
	var items []T

	for it.HasNext() {
		item, err := it.Next()
		if err != nil {
			return items, err
		}

		items = append(items, item)
	}

	return items, nil
}

// ForEach applies fn to every remaining item, stopping on the first error.
func (it *PageIterator[T]) ForEach(fn func(T) error) error {
	for it.HasNext() {
		item, err := it.Next()
		if err != nil {
			return err
		}

		if err := fn(item); err != nil {
			return err
		}
	}

	return nil
}

// FetchAllPages collects items across pages, honoring the given bounds.
func FetchAllPages[T any](ctx context.Context, fetch PageFetcher[T], opts *PaginationOptions) ([]T, error) {
	if opts == nil {
		opts = DefaultPaginationOptions()
	}

	var (
		items  []T
		cursor string
		pages  int
	)

	for {
		page, err := fetch(ctx, cursor)
		if err != nil {
			return items, err
		}

		items = append(items, page.Items...)
		pages++

		if opts.Limit > 0 && len(items) >= opts.Limit {
			return items[:opts.Limit], nil
		}

		if page.Next == "" {
			return items, nil
		}

		if page.Next == cursor {
			return items, &PaginationLoopError{Cursor: cursor}
		}

		if opts.MaxPages > 0 && pages >= opts.MaxPages {
			return items, nil
		}

		cursor = page.Next
	}
}

// PageResult carries one page or a fetch error on the StreamPages channel.
type PageResult[T any] struct {
	Items []T
	Err   error
}

// StreamPages fetches pages sequentially and delivers them on a channel,
// closing it after the last page or the first error. Pages arrive in cursor
// order; cancellation of ctx stops the stream promptly.
func StreamPages[T any](ctx context.Context, fetch PageFetcher[T], opts *PaginationOptions) <-chan PageResult[T] {
	if opts == nil {
		opts = DefaultPaginationOptions()
	}

	results := make(chan PageResult[T])

	go func() {
		defer close(results)

		var (
			cursor string
			pages  int
		)

		for {
			page, err := fetch(ctx, cursor)
			if err != nil {
				select {
				case results <- PageResult[T]{Err: err}:
				case <-ctx.Done():
				}

				return
			}

			select {
			case results <- PageResult[T]{Items: page.Items}:
			case <-ctx.Done():
				return
			}

			pages++
			if page.Next == "" {
				return
			}

			if page.Next == cursor {
				select {
				case results <- PageResult[T]{Err: &PaginationLoopError{Cursor: cursor}}:
				case <-ctx.Done():
				}

				return
			}

			if opts.MaxPages > 0 && pages >= opts.MaxPages {
				return
			}

			cursor = page.Next
		}
	}()

	return results
}
