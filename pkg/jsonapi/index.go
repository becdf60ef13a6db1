package jsonapi

import "reflect"

// Index maps "{type}:{id}" to the included resources of one document. When
// two included resources share a key the later one wins.
//
// An Index also tracks which resources are being mapped so cyclic
// relationships terminate. It is not safe for concurrent use.
type Index struct {
	records   map[string]*Resource
	resolving map[resolvingKey]struct{}
}

type resolvingKey struct {
	key    string
	target reflect.Type
}

// NewIndex builds an index over included.
func NewIndex(included []*Resource) *Index {
	idx := &Index{
		records:   make(map[string]*Resource, len(included)),
		resolving: make(map[resolvingKey]struct{}),
	}

	for _, res := range included {
		if res == nil {
			continue
		}

		idx.records[res.Key()] = res
	}

	return idx
}

// Lookup returns the included resource with the given type and id.
func (idx *Index) Lookup(resourceType, id string) (*Resource, bool) {
	if idx == nil {
		return nil, false
	}

	res, ok := idx.records[resourceType+":"+id]

	return res, ok
}

// Len returns the number of distinct included resources.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}

	return len(idx.records)
}

// mapIndexed maps res with mapper. It reports false when res is already being
// mapped into T further up the stack, which happens for cyclic relationships.
// Every call runs mapper, so two mappers for the same type never share results.
func mapIndexed[T any](idx *Index, res *Resource, mapper Mapper[T]) (T, bool) {
	if idx == nil {
		return mapper(res, idx), true
	}

	key := resolvingKey{key: res.Key(), target: reflect.TypeFor[T]()}

	if _, busy := idx.resolving[key]; busy {
		var zero T

		return zero, false
	}

	idx.resolving[key] = struct{}{}
	defer delete(idx.resolving, key)

	return mapper(res, idx), true
}
