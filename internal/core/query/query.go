// Package query turns a filter model into transport parameters and back
//
// Encoding rules:
//   - unset scalars and empty lists are omitted
//   - lists are joined with "," and values are not escaped, so a value containing a comma
//     splits into two values on the way back
//   - ints are written in decimal
//   - keys are the filter wire names, never renamed
package query

import (
	"net/url"
	"sort"

	"insightboard/internal/core/filter"
	perr "insightboard/internal/platform/errors"
)

// Encode returns the set fields of m keyed by wire name
func Encode(m filter.Model) map[string]string {
	out := make(map[string]string, len(filter.Fields()))
	for _, f := range filter.Fields() {
		v := filter.Get(m, f)
		if v.IsUnset() {
			continue
		}
		out[string(f)] = v.String()
	}
	return out
}

// Values is Encode shaped for url query strings
func Values(m filter.Model) url.Values {
	enc := Encode(m)
	out := make(url.Values, len(enc))
	for k, v := range enc {
		out.Set(k, v)
	}
	return out
}

// Keys returns the encoded keys of m sorted, handy for logs and comparisons
func Keys(m filter.Model) []string {
	enc := Encode(m)
	keys := make([]string, 0, len(enc))
	for k := range enc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Decode rebuilds a model from encoded params
// unknown keys are rejected so typos surface instead of silently widening a query
func Decode(params map[string]string) (filter.Model, error) {
	m := filter.Initial()
	for k, raw := range params {
		f, err := filter.ParseField(k)
		if err != nil {
			return filter.Model{}, err
		}
		v, err := filter.ParseValue(f, raw)
		if err != nil {
			return filter.Model{}, err
		}
		if m, err = filter.WithField(m, f, v); err != nil {
			return filter.Model{}, err
		}
	}
	return m, nil
}

// DecodeValues reads a model from url query values, taking the first value per key
// keys listed in skip (paging, cache busting) are ignored
func DecodeValues(q url.Values, skip ...string) (filter.Model, error) {
	flat := make(map[string]string, len(q))
	for k, vs := range q {
		if contains(skip, k) || len(vs) == 0 {
			continue
		}
		flat[k] = vs[0]
	}
	m, err := Decode(flat)
	if err != nil {
		return filter.Model{}, perr.WithOp(err, "query.DecodeValues")
	}
	return m, nil
}

func contains(set []string, s string) bool {
	for _, it := range set {
		if it == s {
			return true
		}
	}
	return false
}
