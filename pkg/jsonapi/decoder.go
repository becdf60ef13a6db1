package jsonapi

import "fmt"

// Mapper converts a resource into a domain value. Mappers must not modify
// res or idx; they resolve relationships through ResolveOne and ResolveMany.
type Mapper[T any] func(res *Resource, idx *Index) T

// DecodeOne maps the primary resource of doc. A collection document yields
// its first element. ErrNoPrimaryData is returned when there is nothing to
// map.
func DecodeOne[T any](doc *Document, mapper Mapper[T]) (T, error) {
	var zero T

	primary := doc.Primary()
	if len(primary) == 0 {
		return zero, ErrNoPrimaryData
	}

	return mapper(primary[0], NewIndex(doc.Included)), nil
}

// DecodeMany maps every primary resource of doc in order. A document without
// primary data yields an empty slice.
func DecodeMany[T any](doc *Document, mapper Mapper[T]) []T {
	primary := doc.Primary()
	out := make([]T, 0, len(primary))

	if len(primary) == 0 {
		return out
	}

	idx := NewIndex(doc.Included)
	for _, res := range primary {
		out = append(out, mapper(res, idx))
	}

	return out
}

// DecodePage maps the primary resources of doc and reads pagination metadata
// from its meta block.
func DecodePage[T any](doc *Document, mapper Mapper[T]) *PageResult[T] {
	data := DecodeMany(doc, mapper)

	var meta map[string]any
	if doc != nil {
		meta = doc.Meta
	}

	return &PageResult[T]{
		Data: data,
		Meta: ParsePageMeta(meta, len(data)),
	}
}

// UnmarshalOne parses body and decodes its primary resource.
func UnmarshalOne[T any](body []byte, mapper Mapper[T]) (T, error) {
	doc, err := Parse(body)
	if err != nil {
		var zero T

		return zero, err
	}

	value, err := DecodeOne(doc, mapper)
	if err != nil {
		return value, fmt.Errorf("decoding resource: %w", err)
	}

	return value, nil
}

// UnmarshalMany parses body and decodes all primary resources.
func UnmarshalMany[T any](body []byte, mapper Mapper[T]) ([]T, error) {
	doc, err := Parse(body)
	if err != nil {
		return nil, err
	}

	return DecodeMany(doc, mapper), nil
}

// UnmarshalPage parses body and decodes it as a page.
func UnmarshalPage[T any](body []byte, mapper Mapper[T]) (*PageResult[T], error) {
	doc, err := Parse(body)
	if err != nil {
		return nil, err
	}

	return DecodePage(doc, mapper), nil
}

// ResolveOne resolves the to-one relationship name of res with mapper. For a
// to-many relationship the first target is used.
func ResolveOne[T any](res *Resource, name string, idx *Index, mapper Mapper[T]) Related[T] {
	rel := relationship(res, name)
	if rel == nil {
		return Related[T]{}
	}

	ids := rel.Identifiers()
	if len(ids) == 0 {
		return Null[T]()
	}

	target, ok := idx.Lookup(ids[0].Type, ids[0].ID)
	if !ok {
		return Missing[T]()
	}

	value, ok := mapIndexed(idx, target, mapper)
	if !ok {
		return Missing[T]()
	}

	return Resolved(value)
}

// ResolveMany resolves every target of relationship name. Targets missing
// from the included set are skipped; when none of the declared targets can be
// found the result is RelationMissing.
func ResolveMany[T any](res *Resource, name string, idx *Index, mapper Mapper[T]) Related[[]T] {
	rel := relationship(res, name)
	if rel == nil {
		return Related[[]T]{}
	}

	if !rel.IsMany && rel.One == nil {
		return Null[[]T]()
	}

	ids := rel.Identifiers()
	values := make([]T, 0, len(ids))

	for _, id := range ids {
		target, ok := idx.Lookup(id.Type, id.ID)
		if !ok {
			continue
		}

		value, ok := mapIndexed(idx, target, mapper)
		if !ok {
			continue
		}

		values = append(values, value)
	}

	if len(ids) > 0 && len(values) == 0 {
		return Missing[[]T]()
	}

	return Resolved(values)
}

// RelatedIDs returns the identifiers of relationship name without resolving
// them, for callers that only need the linkage.
func RelatedIDs(res *Resource, name string) []Identifier {
	return relationship(res, name).Identifiers()
}

func relationship(res *Resource, name string) *Relationship {
	if res == nil || res.Relationships == nil {
		return nil
	}

	rel, ok := res.Relationships[name]
	if !ok || rel == nil || !rel.HasData {
		return nil
	}

	return rel
}
