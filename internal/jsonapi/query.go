package jsonapi

import (
	"net/url"
	"strconv"
	"strings"
)

// Query builds JSON:API bracket-encoded query strings. Encoding is
// deterministic (url.Values sorts keys) so built URLs double as cache keys.
type Query struct {
	values url.Values
}

func NewQuery() *Query {
	return &Query{values: url.Values{}}
}

func (q *Query) Include(paths ...string) *Query {
	joined := strings.Join(paths, ",")
	if joined != "" {
		q.values.Set("include", joined)
	}
	return q
}

func (q *Query) Sort(fields ...string) *Query {
	joined := strings.Join(fields, ",")
	if joined != "" {
		q.values.Set("sort", joined)
	}
	return q
}

// Filter sets a simple key filter: filter[field]=value.
func (q *Query) Filter(field, value string) *Query {
	q.values.Set("filter["+field+"]", value)
	return q
}

// FilterCondition sets a named condition group:
// filter[group][condition][path|operator|value]=...
func (q *Query) FilterCondition(group, path, operator, value string) *Query {
	prefix := "filter[" + group + "][condition]"
	q.values.Set(prefix+"[path]", path)
	q.values.Set(prefix+"[operator]", operator)
	q.values.Set(prefix+"[value]", value)
	return q
}

func (q *Query) PageLimit(limit int) *Query {
	if limit > 0 {
		q.values.Set("page[limit]", strconv.Itoa(limit))
	}
	return q
}

func (q *Query) PageOffset(offset int) *Query {
	if offset > 0 {
		q.values.Set("page[offset]", strconv.Itoa(offset))
	}
	return q
}

func (q *Query) Encode() string {
	return q.values.Encode()
}

// BuildURL joins a base URL, a path and the encoded query.
func (q *Query) BuildURL(baseURL, path string) string {
	full := strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/")
	if encoded := q.Encode(); encoded != "" {
		full += "?" + encoded
	}
	return full
}
