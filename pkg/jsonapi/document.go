package jsonapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Errors returned while decoding documents.
var (
	ErrInvalidDocument = errors.New("invalid JSON:API document")
	ErrNoPrimaryData   = errors.New("document has no primary data")
)

// Identifier points at a resource by type and id.
type Identifier struct {
	Type string `json:"type" yaml:"type"`
	ID   string `json:"id" yaml:"id"`
}

// Key returns the "{type}:{id}" identity key.
func (i Identifier) Key() string {
	return i.Type + ":" + i.ID
}

// Relationship is one entry of a resource's relationships object. A
// relationship without a "data" member has HasData false and is treated
// like an absent key.
type Relationship struct {
	HasData bool
	IsMany  bool
	// One is nil for "data": null.
	One   *Identifier
	Many  []Identifier
	Meta  map[string]any
	Links map[string]any
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Relationship) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding relationship: %w", err)
	}

	*r = Relationship{}

	if meta, ok := raw["meta"]; ok {
		_ = json.Unmarshal(meta, &r.Meta)
	}

	if links, ok := raw["links"]; ok {
		_ = json.Unmarshal(links, &r.Links)
	}

	linkage, ok := raw["data"]
	if !ok {
		return nil
	}

	r.HasData = true
	linkage = bytes.TrimSpace(linkage)

	switch {
	case len(linkage) == 0 || bytes.Equal(linkage, []byte("null")):
		return nil
	case linkage[0] == '[':
		r.IsMany = true
		r.Many = []Identifier{}

		if err := json.Unmarshal(linkage, &r.Many); err != nil {
			return fmt.Errorf("decoding relationship linkage: %w", err)
		}
	default:
		var one Identifier
		if err := json.Unmarshal(linkage, &one); err != nil {
			return fmt.Errorf("decoding relationship linkage: %w", err)
		}

		r.One = &one
	}

	return nil
}

// MarshalJSON implements json.Marshaler.
func (r Relationship) MarshalJSON() ([]byte, error) {
	out := map[string]any{}

	if r.HasData {
		switch {
		case r.IsMany:
			out["data"] = r.Many
		case r.One != nil:
			out["data"] = r.One
		default:
			out["data"] = nil
		}
	}

	if r.Meta != nil {
		out["meta"] = r.Meta
	}

	if r.Links != nil {
		out["links"] = r.Links
	}

	return json.Marshal(out)
}

// Identifiers returns every identifier of the relationship in order.
func (r *Relationship) Identifiers() []Identifier {
	if r == nil || !r.HasData {
		return nil
	}

	if r.IsMany {
		return r.Many
	}

	if r.One != nil {
		return []Identifier{*r.One}
	}

	return nil
}

// Resource is one JSON:API resource object.
type Resource struct {
	ID            string                   `json:"id,omitempty" yaml:"id"`
	Type          string                   `json:"type" yaml:"type"`
	Attributes    map[string]any           `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Relationships map[string]*Relationship `json:"relationships,omitempty" yaml:"-"`
	Meta          map[string]any           `json:"meta,omitempty" yaml:"meta,omitempty"`
	Links         map[string]any           `json:"links,omitempty" yaml:"links,omitempty"`
}

// Key returns the "{type}:{id}" identity key.
func (r *Resource) Key() string {
	return r.Type + ":" + r.ID
}

// Attr returns the named attribute, or nil.
func (r *Resource) Attr(name string) any {
	if r == nil {
		return nil
	}

	return r.Attributes[name]
}

// AttrAny returns the first non-nil attribute among names. Blocks differ in
// whether they send camelCase or snake_case keys.
func (r *Resource) AttrAny(names ...string) any {
	for _, name := range names {
		if value := r.Attr(name); value != nil {
			return value
		}
	}

	return nil
}

// Document is a decoded response body.
type Document struct {
	// Data is set when the primary data is a single resource.
	Data *Resource
	// DataMany is set when the primary data is an array.
	DataMany     []*Resource
	IsCollection bool
	Included     []*Resource
	Meta         map[string]any
	Links        map[string]any
}

type rawDocument struct {
	Data     json.RawMessage `json:"data"`
	Included []*Resource     `json:"included"`
	Meta     map[string]any  `json:"meta"`
	Links    map[string]any  `json:"links"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*d = Document{
		Included: compact(raw.Included),
		Meta:     raw.Meta,
		Links:    raw.Links,
	}

	primary := bytes.TrimSpace(raw.Data)

	switch {
	case len(primary) == 0 || bytes.Equal(primary, []byte("null")):
		return nil
	case primary[0] == '[':
		var many []*Resource
		if err := json.Unmarshal(primary, &many); err != nil {
			return err
		}

		d.IsCollection = true
		d.DataMany = compact(many)
	default:
		var one Resource
		if err := json.Unmarshal(primary, &one); err != nil {
			return err
		}

		d.Data = &one
	}

	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Document) MarshalJSON() ([]byte, error) {
	out := map[string]any{}

	switch {
	case d.IsCollection:
		data := d.DataMany
		if data == nil {
			data = []*Resource{}
		}

		out["data"] = data
	case d.Data != nil:
		out["data"] = d.Data
	default:
		out["data"] = nil
	}

	if len(d.Included) > 0 {
		out["included"] = d.Included
	}

	if d.Meta != nil {
		out["meta"] = d.Meta
	}

	if d.Links != nil {
		out["links"] = d.Links
	}

	return json.Marshal(out)
}

// Primary returns the primary resources, whether the document holds one or
// many.
func (d *Document) Primary() []*Resource {
	if d == nil {
		return nil
	}

	if d.IsCollection {
		return d.DataMany
	}

	if d.Data != nil {
		return []*Resource{d.Data}
	}

	return nil
}

// Parse decodes body into a Document. An empty body yields an empty document.
func Parse(body []byte) (*Document, error) {
	doc := &Document{}

	if len(bytes.TrimSpace(body)) == 0 {
		return doc, nil
	}

	if err := json.Unmarshal(body, doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	return doc, nil
}

// NewResourceDocument builds a request document with a single resource, as
// sent by create and update calls.
func NewResourceDocument(resourceType, id string, attributes map[string]any) *Document {
	return &Document{
		Data: &Resource{
			ID:         id,
			Type:       resourceType,
			Attributes: attributes,
		},
	}
}

func compact(resources []*Resource) []*Resource {
	out := resources[:0]

	for _, res := range resources {
		if res != nil {
			out = append(out, res)
		}
	}

	return out
}
