package filter

import (
	"strconv"
	"strings"
)

// Value is one field's content; the zero Value is unset
type Value struct {
	kind Kind
	n    int
	s    string
	list []string
}

// Unset returns the unset value
func Unset() Value { return Value{} }

// Int returns an integer value
func Int(n int) Value { return Value{kind: KindInt, n: n} }

// Text returns a single string value; an empty string is unset
func Text(s string) Value {
	if s == "" {
		return Value{}
	}
	return Value{kind: KindText, s: s}
}

// List returns a list value with empty items and duplicates removed, first occurrence wins
// a list left with no items is unset
func List(items ...string) Value {
	items = uniq(items)
	if len(items) == 0 {
		return Value{}
	}
	return Value{kind: KindList, list: items}
}

// Kind reports the value shape, KindNone when unset
func (v Value) Kind() Kind { return v.kind }

// IsUnset reports whether v carries nothing
func (v Value) IsUnset() bool { return v.kind == KindNone }

// Int returns the integer and whether v is an integer value
func (v Value) Int() (int, bool) { return v.n, v.kind == KindInt }

// Text returns the string and whether v is a text value
func (v Value) Text() (string, bool) { return v.s, v.kind == KindText }

// Strings returns a copy of the list items, nil unless v is a list
func (v Value) Strings() []string {
	if v.kind != KindList {
		return nil
	}
	return append([]string(nil), v.list...)
}

// String renders the value in its query form: decimal ints, raw text, comma-joined lists
// unset renders as the empty string
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.Itoa(v.n)
	case KindText:
		return v.s
	case KindList:
		return strings.Join(v.list, ",")
	default:
		return ""
	}
}

// Equal compares two values by content
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.n == o.n
	case KindText:
		return v.s == o.s
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != o.list[i] {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// ParseValue reads the query form of a value for field f
// ints must be decimal, lists split on commas, empty input is unset
func ParseValue(f Field, raw string) (Value, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Value{}, nil
	}
	switch f.Kind() {
	case KindInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Value{}, kindError(f, KindInt)
		}
		return Int(n), nil
	case KindText:
		return Text(raw), nil
	case KindList:
		return List(strings.Split(raw, ",")...), nil
	default:
		_, err := ParseField(string(f))
		return Value{}, err
	}
}

// FromAny converts a decoded JSON value (nil, float64, string, []any, []string) for field f
func FromAny(f Field, x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Value{}, nil
	case Value:
		return t, nil
	case int:
		if f.Kind() != KindInt {
			return Value{}, kindError(f, f.Kind())
		}
		return Int(t), nil
	case float64:
		if f.Kind() != KindInt || t != float64(int(t)) {
			return Value{}, kindError(f, f.Kind())
		}
		return Int(int(t)), nil
	case string:
		if f.Kind() == KindList {
			if t == "" {
				return Value{}, nil
			}
			return List(t), nil
		}
		return ParseValue(f, t)
	case []string:
		if f.Kind() != KindList {
			return Value{}, kindError(f, f.Kind())
		}
		return List(t...), nil
	case []any:
		if f.Kind() != KindList {
			return Value{}, kindError(f, f.Kind())
		}
		items := make([]string, 0, len(t))
		for _, it := range t {
			s, ok := it.(string)
			if !ok {
				return Value{}, kindError(f, KindList)
			}
			items = append(items, s)
		}
		return List(items...), nil
	default:
		return Value{}, kindError(f, f.Kind())
	}
}

func uniq(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it == "" {
			continue
		}
		if _, dup := seen[it]; dup {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}
