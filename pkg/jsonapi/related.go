package jsonapi

import "encoding/json"

// RelationState tells how a relationship resolved.
type RelationState int

const (
	// RelationAbsent means the relationship key was not present (not requested).
	RelationAbsent RelationState = iota
	// RelationNull means the relationship was present with "data": null.
	RelationNull
	// RelationMissing means the relationship pointed at a resource that was
	// not side-loaded in the included set.
	RelationMissing
	// RelationResolved means the target was found and mapped.
	RelationResolved
)

func (s RelationState) String() string {
	switch s {
	case RelationAbsent:
		return "absent"
	case RelationNull:
		return "null"
	case RelationMissing:
		return "missing"
	case RelationResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Related holds the result of resolving a relationship.
type Related[T any] struct {
	value T
	state RelationState
}

// Resolved returns a resolved Related holding value.
func Resolved[T any](value T) Related[T] {
	return Related[T]{value: value, state: RelationResolved}
}

// Null returns a Related in the null state.
func Null[T any]() Related[T] {
	return Related[T]{state: RelationNull}
}

// Missing returns a Related whose target was not side-loaded.
func Missing[T any]() Related[T] {
	return Related[T]{state: RelationMissing}
}

// State returns the resolution state.
func (r Related[T]) State() RelationState {
	return r.state
}

// Get returns the value and whether it was resolved.
func (r Related[T]) Get() (T, bool) {
	return r.value, r.state == RelationResolved
}

// Value returns the resolved value, or the zero value.
func (r Related[T]) Value() T {
	return r.value
}

// Ptr returns a pointer to the resolved value, or nil.
func (r Related[T]) Ptr() *T {
	if r.state != RelationResolved {
		return nil
	}

	value := r.value

	return &value
}

// IsAbsent reports whether the relationship was not present at all.
func (r Related[T]) IsAbsent() bool {
	return r.state == RelationAbsent
}

// IsNull reports whether the relationship was present but has no value.
// A target missing from the included set also reports null; use State to
// tell the two apart.
func (r Related[T]) IsNull() bool {
	return r.state == RelationNull || r.state == RelationMissing
}

// IsResolved reports whether a value is available.
func (r Related[T]) IsResolved() bool {
	return r.state == RelationResolved
}

// MarshalJSON encodes the resolved value, or null.
func (r Related[T]) MarshalJSON() ([]byte, error) {
	if r.state != RelationResolved {
		return []byte("null"), nil
	}

	return json.Marshal(r.value)
}

// IsZero lets encoders with omitzero/omitempty semantics skip absent
// relationships.
func (r Related[T]) IsZero() bool {
	return r.state == RelationAbsent
}
