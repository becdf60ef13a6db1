package blocks

import (
	"strings"
)

// QueryParams holds the common list options of a block endpoint.
type QueryParams struct {
	Page    int
	PerPage int
	Sort    string
	Include []string
	Fields  map[string][]string
	Filters map[string][]string
}

// NewQueryParams creates empty query parameters.
func NewQueryParams() *QueryParams {
	return &QueryParams{
		Fields:  make(map[string][]string),
		Filters: make(map[string][]string),
	}
}

// WithPage sets the page number.
func (q *QueryParams) WithPage(page int) *QueryParams {
	q.Page = page

	return q
}

// WithPerPage sets the page size.
func (q *QueryParams) WithPerPage(perPage int) *QueryParams {
	q.PerPage = perPage

	return q
}

// WithSort sets the sort expression, e.g. "-created_at".
func (q *QueryParams) WithSort(sort string) *QueryParams {
	q.Sort = sort

	return q
}

// WithInclude appends relationships to side-load.
func (q *QueryParams) WithInclude(relationships ...string) *QueryParams {
	q.Include = append(q.Include, relationships...)

	return q
}

// WithFields replaces the sparse fieldset for resourceType.
func (q *QueryParams) WithFields(resourceType string, fields ...string) *QueryParams {
	if q.Fields == nil {
		q.Fields = make(map[string][]string)
	}

	q.Fields[resourceType] = fields

	return q
}

// WithFilter appends values to the filter on key.
func (q *QueryParams) WithFilter(key string, values ...string) *QueryParams {
	if q.Filters == nil {
		q.Filters = make(map[string][]string)
	}

	q.Filters[key] = append(q.Filters[key], values...)

	return q
}

// Clone returns a deep copy of q.
func (q *QueryParams) Clone() *QueryParams {
	if q == nil {
		return NewQueryParams()
	}

	clone := &QueryParams{
		Page:    q.Page,
		PerPage: q.PerPage,
		Sort:    q.Sort,
		Include: append([]string(nil), q.Include...),
		Fields:  make(map[string][]string, len(q.Fields)),
		Filters: make(map[string][]string, len(q.Filters)),
	}

	for key, values := range q.Fields {
		clone.Fields[key] = append([]string(nil), values...)
	}

	for key, values := range q.Filters {
		clone.Filters[key] = append([]string(nil), values...)
	}

	return clone
}

// ToParams converts q into transport query parameters. Multi-valued options
// are sent comma separated.
func (q *QueryParams) ToParams() Params {
	params := Params{}
	if q == nil {
		return params
	}

	if q.Page > 0 {
		params["page"] = q.Page
	}

	if q.PerPage > 0 {
		params["per_page"] = q.PerPage
	}

	if q.Sort != "" {
		params["sort"] = q.Sort
	}

	if len(q.Include) > 0 {
		params["include"] = strings.Join(q.Include, ",")
	}

	for resourceType, fields := range q.Fields {
		if len(fields) > 0 {
			params["fields["+resourceType+"]"] = strings.Join(fields, ",")
		}
	}

	for key, values := range q.Filters {
		if len(values) > 0 {
			params["filter["+key+"]"] = strings.Join(values, ",")
		}
	}

	return params
}
