package jsonapi

import (
	"bytes"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
)

// ErrWrongArity reports a document whose data member does not match the
// endpoint kind: single-resource endpoints carry an object, collection
// endpoints an array. The two shapes are deliberately not unified.
var ErrWrongArity = crerr.New("jsonapi: document data has wrong arity")

// Resource is one resource object from a JSON:API envelope, attributes and
// relationships still untyped. Per-entity validators turn it into a record.
type Resource struct {
	ID            string                  `json:"id"`
	Type          string                  `json:"type"`
	Attributes    map[string]any          `json:"attributes,omitempty"`
	Relationships map[string]Relationship `json:"relationships,omitempty"`
	Links         map[string]any          `json:"links,omitempty"`
}

// Document is the envelope of a single-resource endpoint.
type Document struct {
	Data     Resource       `json:"data"`
	Included []Resource     `json:"included,omitempty"`
	Links    Links          `json:"links,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// CollectionDocument is the envelope of a collection endpoint.
type CollectionDocument struct {
	Data     []Resource     `json:"data"`
	Included []Resource     `json:"included,omitempty"`
	Links    Links          `json:"links,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
}

type rawEnvelope struct {
	Data     sonicRaw       `json:"data"`
	Included []Resource     `json:"included"`
	Links    Links          `json:"links"`
	Meta     map[string]any `json:"meta"`
}

type sonicRaw []byte

func (r *sonicRaw) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}

// DecodeDocument decodes a single-resource envelope. A collection body is
// rejected with ErrWrongArity rather than coerced.
func DecodeDocument(raw []byte) (*Document, error) {
	env, err := decodeEnvelope(raw)
	if err != nil {
		return nil, err
	}
	if firstByte(env.Data) != '{' {
		return nil, crerr.Wrap(ErrWrongArity, "expected a single resource object")
	}

	var data Resource
	if err := sonic.Unmarshal(env.Data, &data); err != nil {
		return nil, crerr.Wrap(err, "decode resource")
	}
	return &Document{Data: data, Included: env.Included, Links: env.Links, Meta: env.Meta}, nil
}

// DecodeCollection decodes a collection envelope. A single-object body is
// rejected with ErrWrongArity.
func DecodeCollection(raw []byte) (*CollectionDocument, error) {
	env, err := decodeEnvelope(raw)
	if err != nil {
		return nil, err
	}
	if firstByte(env.Data) != '[' {
		return nil, crerr.Wrap(ErrWrongArity, "expected a resource array")
	}

	var data []Resource
	if err := sonic.Unmarshal(env.Data, &data); err != nil {
		return nil, crerr.Wrap(err, "decode resources")
	}
	return &CollectionDocument{Data: data, Included: env.Included, Links: env.Links, Meta: env.Meta}, nil
}

func decodeEnvelope(raw []byte) (*rawEnvelope, error) {
	var env rawEnvelope
	if err := sonic.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(env.Data)) == 0 {
		return nil, crerr.Wrap(ErrWrongArity, "document has no data member")
	}
	return &env, nil
}

func firstByte(raw []byte) byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

// Reference is a sparse {type,id} pointer at another resource, optionally
// carrying image meta when it sits on an image-bearing relationship.
type Reference struct {
	Type string         `json:"type"`
	ID   string         `json:"id"`
	Meta *ReferenceMeta `json:"meta,omitempty"`
}

func (r Reference) Key() string {
	return r.Type + ":" + r.ID
}

// ReferenceMeta is the meta carried on an image-bearing reference.
type ReferenceMeta struct {
	Alt    string  `json:"alt,omitempty"`
	Title  string  `json:"title,omitempty"`
	Width  FlexInt `json:"width,omitempty"`
	Height FlexInt `json:"height,omitempty"`
}

// FlexInt decodes from either a JSON number or a numeric string; the
// upstream transmits some counts as strings.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*f = 0
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := sonic.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return crerr.Wrapf(err, "numeric string %q", s)
		}
		*f = FlexInt(v)
		return nil
	}
	var v float64
	if err := sonic.Unmarshal(trimmed, &v); err != nil {
		return err
	}
	*f = FlexInt(v)
	return nil
}

// Link is a pagination href; the upstream emits both bare strings and
// {href} objects.
type Link struct {
	Href string `json:"href"`
}

func (l *Link) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		l.Href = ""
		return nil
	}
	if trimmed[0] == '"' {
		return sonic.Unmarshal(trimmed, &l.Href)
	}
	type alias Link
	var a alias
	if err := sonic.Unmarshal(trimmed, &a); err != nil {
		return err
	}
	l.Href = a.Href
	return nil
}

// Links are the pagination links of a collection. Presence of Next is the
// sole continuation signal.
type Links struct {
	Self  *Link `json:"self,omitempty"`
	Next  *Link `json:"next,omitempty"`
	Prev  *Link `json:"prev,omitempty"`
	First *Link `json:"first,omitempty"`
	Last  *Link `json:"last,omitempty"`
}

func (l Links) HasNext() bool {
	return l.Next != nil && strings.TrimSpace(l.Next.Href) != ""
}

// IncludedSet indexes an included array by type:id for O(1) lookups.
type IncludedSet map[string]Resource

func BuildIncludedSet(included []Resource) IncludedSet {
	set := make(IncludedSet, len(included))
	for _, res := range included {
		if res.ID == "" || res.Type == "" {
			continue
		}
		set[res.Type+":"+res.ID] = res
	}
	return set
}

func (s IncludedSet) Lookup(ref Reference) (Resource, bool) {
	res, ok := s[ref.Key()]
	return res, ok
}
