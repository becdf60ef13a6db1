package jsonapi

import "github.com/spf13/cast"

// PageMeta describes where a page sits in a collection.
type PageMeta struct {
	TotalCount int `json:"totalCount" yaml:"totalCount"`
	Page       int `json:"page" yaml:"page"`
	PerPage    int `json:"perPage" yaml:"perPage"`
	TotalPages int `json:"totalPages" yaml:"totalPages"`
}

// PageResult is one page of decoded resources.
type PageResult[T any] struct {
	Data []T      `json:"data" yaml:"data"`
	Meta PageMeta `json:"meta" yaml:"meta"`
}

// HasNextPage reports whether pages remain after this one.
func (p *PageResult[T]) HasNextPage() bool {
	return p != nil && p.Meta.Page < p.Meta.TotalPages
}

var (
	totalCountKeys = []string{"totalCount", "total_count", "total"}
	pageKeys       = []string{"page", "currentPage", "current_page"}
	perPageKeys    = []string{"perPage", "per_page", "pageSize", "page_size"}
	totalPagesKeys = []string{"totalPages", "total_pages", "pageCount", "page_count"}
)

// ParsePageMeta reads pagination metadata from meta, either at the top level
// or under "pagination". Missing values default to a single page holding
// count items.
func ParsePageMeta(meta map[string]any, count int) PageMeta {
	sources := []map[string]any{meta}
	if nested, ok := meta["pagination"].(map[string]any); ok {
		sources = append([]map[string]any{nested}, sources...)
	}

	result := PageMeta{
		TotalCount: count,
		Page:       1,
		PerPage:    count,
		TotalPages: 1,
	}

	if value, ok := lookupInt(sources, totalCountKeys); ok && value >= 0 {
		result.TotalCount = value
	}

	if value, ok := lookupInt(sources, pageKeys); ok && value > 0 {
		result.Page = value
	}

	if value, ok := lookupInt(sources, perPageKeys); ok && value > 0 {
		result.PerPage = value
	}

	if value, ok := lookupInt(sources, totalPagesKeys); ok && value > 0 {
		result.TotalPages = value
	} else if result.PerPage > 0 && result.TotalCount > 0 {
		result.TotalPages = (result.TotalCount + result.PerPage - 1) / result.PerPage
	}

	return result
}

func lookupInt(sources []map[string]any, keys []string) (int, bool) {
	for _, source := range sources {
		for _, key := range keys {
			raw, ok := source[key]
			if !ok || raw == nil {
				continue
			}

			value, err := cast.ToIntE(raw)
			if err != nil {
				continue
			}

			return value, true
		}
	}

	return 0, false
}
