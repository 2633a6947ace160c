package jsonapi

import (
	"bytes"

	sonic "github.com/bytedance/sonic"
)

// RelKind discriminates the variants a relationship's data member can hold.
type RelKind int

const (
	RelAbsent RelKind = iota
	RelSingle
	RelList
)

// RelItem is one member of a relationship: either a sparse reference or a
// fully-attributed resource the server already embedded. Discrimination is
// structural, by presence of the attributes member; the wire contract
// offers no better tag. Exactly one of the two fields is set.
type RelItem struct {
	Ref      *Reference
	Resource *Resource
}

func (i RelItem) IsResolved() bool {
	return i.Resource != nil
}

// Relationship is a relationship slot with its data union decoded.
type Relationship struct {
	Data  RelValue       `json:"data"`
	Links map[string]any `json:"links,omitempty"`
}

// RelValue is the tagged union behind a relationship's data member:
// absent/null, a single item, or a list of items.
type RelValue struct {
	Kind RelKind
	One  RelItem
	Many []RelItem
}

func (v *RelValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*v = RelValue{Kind: RelAbsent}
		return nil
	}

	switch trimmed[0] {
	case '[':
		var members []sonicRaw
		if err := sonic.Unmarshal(trimmed, &members); err != nil {
			return err
		}
		items := make([]RelItem, 0, len(members))
		for _, member := range members {
			item, err := decodeRelItem(member)
			if err != nil {
				return err
			}
			items = append(items, item)
		}
		*v = RelValue{Kind: RelList, Many: items}
		return nil
	default:
		item, err := decodeRelItem(trimmed)
		if err != nil {
			return err
		}
		*v = RelValue{Kind: RelSingle, One: item}
		return nil
	}
}

func decodeRelItem(raw []byte) (RelItem, error) {
	var probe struct {
		Attributes sonicRaw `json:"attributes"`
	}
	if err := sonic.Unmarshal(raw, &probe); err != nil {
		return RelItem{}, err
	}

	if len(bytes.TrimSpace(probe.Attributes)) > 0 {
		var res Resource
		if err := sonic.Unmarshal(raw, &res); err != nil {
			return RelItem{}, err
		}
		return RelItem{Resource: &res}, nil
	}

	var ref Reference
	if err := sonic.Unmarshal(raw, &ref); err != nil {
		return RelItem{}, err
	}
	return RelItem{Ref: &ref}, nil
}

// MarshalJSON re-encodes the union in its wire shape so resolved and
// unresolved slots round-trip through API responses.
func (v RelValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case RelSingle:
		return marshalRelItem(v.One)
	case RelList:
		parts := make([]any, 0, len(v.Many))
		for _, item := range v.Many {
			if item.Resource != nil {
				parts = append(parts, item.Resource)
				continue
			}
			parts = append(parts, item.Ref)
		}
		return sonic.Marshal(parts)
	default:
		return []byte("null"), nil
	}
}

func marshalRelItem(item RelItem) ([]byte, error) {
	if item.Resource != nil {
		return sonic.Marshal(item.Resource)
	}
	if item.Ref != nil {
		return sonic.Marshal(item.Ref)
	}
	return []byte("null"), nil
}
