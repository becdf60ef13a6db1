package jsonapi

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/fivetwenty-io/blocks-sdk/internal/constants"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// ErrNoMoreItems is returned by PageIterator.Next after the last item.
var ErrNoMoreItems = errors.New("no more items")

// PageFetcher fetches one page of a collection.
type PageFetcher[T any] func(ctx context.Context, page, perPage int) (*PageResult[T], error)

// PageIterator walks a paginated collection item by item, fetching pages on
// demand.
type PageIterator[T any] struct {
	ctx        context.Context
	fetch      PageFetcher[T]
	perPage    int
	page       int
	totalPages int
	items      []T
	pos        int
	fetched    bool
	done       bool
}

// NewPageIterator creates an iterator starting at page 1.
func NewPageIterator[T any](ctx context.Context, fetch PageFetcher[T], perPage int) *PageIterator[T] {
	if perPage <= 0 {
		perPage = constants.DefaultPageSize
	}

	return &PageIterator[T]{
		ctx:     ctx,
		fetch:   fetch,
		perPage: perPage,
	}
}

// HasNext reports whether another item may be available. Before the first
// page is fetched it is optimistic.
func (it *PageIterator[T]) HasNext() bool {
	if it.pos < len(it.items) {
		return true
	}

	if it.done {
		return false
	}

	return !it.fetched || it.page < it.totalPages
}

// Next returns the next item, fetching the next page when needed.
func (it *PageIterator[T]) Next() (T, error) {
	var zero T

	for it.pos >= len(it.items) {
		if !it.HasNext() {
			return zero, ErrNoMoreItems
		}

		err := it.fetchNext()
		if err != nil {
			return zero, err
		}
	}

	item := it.items[it.pos]
	it.pos++

	return item, nil
}

// All drains the iterator.
func (it *PageIterator[T]) All() ([]T, error) {
	var all []T

	for it.HasNext() {
		item, err := it.Next()
		if errors.Is(err, ErrNoMoreItems) {
			break
		}

		if err != nil {
			return nil, err
		}

		all = append(all, item)
	}

	return all, nil
}

func (it *PageIterator[T]) fetchNext() error {
	next := it.page + 1

	result, err := it.fetch(it.ctx, next, it.perPage)
	if err != nil {
		return fmt.Errorf("failed to fetch page %d: %w", next, err)
	}

	it.fetched = true
	it.page = next
	it.totalPages = result.Meta.TotalPages
	it.items = result.Data
	it.pos = 0

	if len(result.Data) == 0 {
		it.done = true
	}

	return nil
}

// FetchAllOptions tunes FetchAllPages.
type FetchAllOptions struct {
	PerPage     int
	Concurrency int64
}

// FetchAllPages fetches page 1, then the remaining pages concurrently, and
// returns every item in page order. At most Concurrency fetches are in flight,
// and no further pages are requested once a page comes back empty, so an
// inflated total page count from the server cannot fan out unbounded work.
func FetchAllPages[T any](ctx context.Context, fetch PageFetcher[T], opts *FetchAllOptions) ([]T, error) {
	perPage := constants.StandardPageSize
	concurrency := int64(constants.DefaultConcurrencyLimit)

	if opts != nil {
		if opts.PerPage > 0 {
			perPage = opts.PerPage
		}

		if opts.Concurrency > 0 {
			concurrency = opts.Concurrency
		}
	}

	first, err := fetch(ctx, 1, perPage)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page 1: %w", err)
	}

	if first.Meta.TotalPages <= 1 {
		return first.Data, nil
	}

	var (
		mu        sync.Mutex
		exhausted atomic.Bool
		last      = 1
	)

	pages := map[int][]T{1: first.Data}

	sem := semaphore.NewWeighted(concurrency)
	group, groupCtx := errgroup.WithContext(ctx)

	for page := 2; page <= first.Meta.TotalPages && !exhausted.Load(); page++ {
		if err := sem.Acquire(groupCtx, 1); err != nil {
			break
		}

		if exhausted.Load() {
			sem.Release(1)

			break
		}

		group.Go(func() error {
			defer sem.Release(1)

			result, err := fetch(groupCtx, page, perPage)
			if err != nil {
				return fmt.Errorf("failed to fetch page %d: %w", page, err)
			}

			if len(result.Data) == 0 {
				exhausted.Store(true)

				return nil
			}

			mu.Lock()
			pages[page] = result.Data
			last = max(last, page)
			mu.Unlock()

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var all []T
	for page := 1; page <= last; page++ {
		all = append(all, pages[page]...)
	}

	return all, nil
}
