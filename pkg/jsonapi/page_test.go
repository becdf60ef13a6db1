package jsonapi_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/fivetwenty-io/blocks-sdk/pkg/jsonapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePage_DefaultsWithoutMeta(t *testing.T) {
	t.Parallel()

	doc := parse(t, `{"data":[{"id":"1","type":"users"},{"id":"2","type":"users"},{"id":"3","type":"users"}]}`)

	page := jsonapi.DecodePage(doc, mapUser)
	require.Len(t, page.Data, 3)
	assert.Equal(t, jsonapi.PageMeta{TotalCount: 3, Page: 1, PerPage: 3, TotalPages: 1}, page.Meta)
	assert.False(t, page.HasNextPage())
}

func TestDecodePage_EmptyWithoutMeta(t *testing.T) {
	t.Parallel()

	page := jsonapi.DecodePage(parse(t, `{"data":[]}`), mapUser)
	assert.Empty(t, page.Data)
	assert.Equal(t, jsonapi.PageMeta{TotalCount: 0, Page: 1, PerPage: 0, TotalPages: 1}, page.Meta)
}

func TestParsePageMeta(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		meta  map[string]any
		count int
		want  jsonapi.PageMeta
	}{
		{
			name:  "camel case",
			meta:  map[string]any{"totalCount": 45.0, "page": 2.0, "perPage": 20.0, "totalPages": 3.0},
			count: 20,
			want:  jsonapi.PageMeta{TotalCount: 45, Page: 2, PerPage: 20, TotalPages: 3},
		},
		{
			name:  "snake case derives total pages",
			meta:  map[string]any{"total_count": 45.0, "current_page": 1.0, "per_page": 20.0},
			count: 20,
			want:  jsonapi.PageMeta{TotalCount: 45, Page: 1, PerPage: 20, TotalPages: 3},
		},
		{
			name: "nested pagination block",
			meta: map[string]any{"pagination": map[string]any{
				"total": 10.0, "currentPage": 3.0, "pageSize": 4.0, "pageCount": 3.0,
			}},
			count: 2,
			want:  jsonapi.PageMeta{TotalCount: 10, Page: 3, PerPage: 4, TotalPages: 3},
		},
		{
			name:  "string numbers",
			meta:  map[string]any{"total": "7", "page_size": "5"},
			count: 5,
			want:  jsonapi.PageMeta{TotalCount: 7, Page: 1, PerPage: 5, TotalPages: 2},
		},
		{
			name:  "malformed values fall back",
			meta:  map[string]any{"total": "lots", "page": "first", "page_count": nil},
			count: 4,
			want:  jsonapi.PageMeta{TotalCount: 4, Page: 1, PerPage: 4, TotalPages: 1},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, testCase.want, jsonapi.ParsePageMeta(testCase.meta, testCase.count))
		})
	}
}

type fakeCollection struct {
	items []string
	calls atomic.Int32
	fail  int
}

func (c *fakeCollection) fetch(ctx context.Context, page, perPage int) (*jsonapi.PageResult[string], error) {
	c.calls.Add(1)

	if page == c.fail {
		return nil, errors.New("boom")
	}

	start := (page - 1) * perPage
	if start > len(c.items) {
		start = len(c.items)
	}

	end := min(start+perPage, len(c.items))

	return &jsonapi.PageResult[string]{
		Data: c.items[start:end],
		Meta: jsonapi.ParsePageMeta(map[string]any{
			"page":       page,
			"perPage":    perPage,
			"totalCount": len(c.items),
		}, end-start),
	}, nil
}

func newCollection(n int) *fakeCollection {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf("item-%02d", i)
	}

	return &fakeCollection{items: items}
}

func TestPageIterator(t *testing.T) {
	t.Parallel()

	collection := newCollection(5)
	iterator := jsonapi.NewPageIterator(context.Background(), collection.fetch, 2)

	assert.True(t, iterator.HasNext())

	first, err := iterator.Next()
	require.NoError(t, err)
	assert.Equal(t, "item-00", first)

	rest, err := iterator.All()
	require.NoError(t, err)
	assert.Equal(t, []string{"item-01", "item-02", "item-03", "item-04"}, rest)
	assert.False(t, iterator.HasNext())
	assert.Equal(t, int32(3), collection.calls.Load())

	_, err = iterator.Next()
	require.ErrorIs(t, err, jsonapi.ErrNoMoreItems)
}

func TestPageIterator_Empty(t *testing.T) {
	t.Parallel()

	iterator := jsonapi.NewPageIterator(context.Background(), newCollection(0).fetch, 10)

	all, err := iterator.All()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestFetchAllPages(t *testing.T) {
	t.Parallel()

	collection := newCollection(23)

	all, err := jsonapi.FetchAllPages(context.Background(), collection.fetch, &jsonapi.FetchAllOptions{PerPage: 5, Concurrency: 2})
	require.NoError(t, err)
	assert.Equal(t, collection.items, all)
	assert.Equal(t, int32(5), collection.calls.Load())
}

func TestFetchAllPages_SinglePage(t *testing.T) {
	t.Parallel()

	collection := newCollection(3)

	all, err := jsonapi.FetchAllPages(context.Background(), collection.fetch, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, int32(1), collection.calls.Load())
}

func TestFetchAllPages_Error(t *testing.T) {
	t.Parallel()

	collection := newCollection(20)
	collection.fail = 3

	_, err := jsonapi.FetchAllPages(context.Background(), collection.fetch, &jsonapi.FetchAllOptions{PerPage: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page 3")
}

func TestFetchAllPages_InflatedTotalPages(t *testing.T) {
	t.Parallel()

	var calls, inFlight, peak atomic.Int32

	fetch := func(_ context.Context, page, perPage int) (*jsonapi.PageResult[string], error) {
		calls.Add(1)

		current := inFlight.Add(1)
		defer inFlight.Add(-1)

		for {
			seen := peak.Load()
			if current <= seen || peak.CompareAndSwap(seen, current) {
				break
			}
		}

		var data []string
		if page <= 3 {
			data = []string{fmt.Sprintf("item-%d", page)}
		}

		return &jsonapi.PageResult[string]{
			Data: data,
			Meta: jsonapi.PageMeta{TotalCount: 100_000_000, Page: page, PerPage: perPage, TotalPages: 100_000_000},
		}, nil
	}

	all, err := jsonapi.FetchAllPages(context.Background(), fetch, &jsonapi.FetchAllOptions{PerPage: 1, Concurrency: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"item-1", "item-2", "item-3"}, all)
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Less(t, calls.Load(), int32(10))
}
