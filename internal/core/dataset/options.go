package dataset

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// OptionCount is one distinct value of a column with its row count
type OptionCount struct {
	ID    string `json:"_id"`
	Count int    `json:"count"`
}

// UnmarshalJSON accepts numeric ids (years) as well as strings, and null as ""
func (o *OptionCount) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID    any `json:"_id"`
		Count int `json:"count"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	o.Count = raw.Count
	switch id := raw.ID.(type) {
	case nil:
		o.ID = ""
	case string:
		o.ID = id
	case float64:
		o.ID = strconv.FormatFloat(id, 'f', -1, 64)
	default:
		b, _ := json.Marshal(id)
		o.ID = string(b)
	}
	return nil
}

// FilterOptions is the body of GET /data/filters: the selectable values per column
type FilterOptions struct {
	Years     []OptionCount `json:"years"`
	Topics    []OptionCount `json:"topics"`
	Sectors   []OptionCount `json:"sectors"`
	Regions   []OptionCount `json:"regions"`
	Countries []OptionCount `json:"countries"`
	Cities    []OptionCount `json:"cities"`
	Pestles   []OptionCount `json:"pestles"`
	Sources   []OptionCount `json:"sources"`
	SWOTs     []OptionCount `json:"swots"`
}

// Column returns the option list for a column name, nil when unknown
func (f FilterOptions) Column(name string) []OptionCount {
	switch strings.ToLower(name) {
	case "years":
		return f.Years
	case "topics":
		return f.Topics
	case "sectors":
		return f.Sectors
	case "regions":
		return f.Regions
	case "countries":
		return f.Countries
	case "cities":
		return f.Cities
	case "pestles", "pestle":
		return f.Pestles
	case "sources", "source":
		return f.Sources
	case "swots", "swot":
		return f.SWOTs
	}
	return nil
}

// SortBy orders option lists
type SortBy string

// Option orderings
const (
	SortByCount SortBy = "count"
	SortByName  SortBy = "name"
)

// SortOptions returns a sorted copy: by count descending then name, or by name ascending
// null ids ("") are dropped
func SortOptions(in []OptionCount, by SortBy) []OptionCount {
	out := make([]OptionCount, 0, len(in))
	for _, o := range in {
		if o.ID != "" {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if by == SortByName {
			return fold(out[i].ID) < fold(out[j].ID)
		}
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return fold(out[i].ID) < fold(out[j].ID)
	})
	return out
}

// Search keeps the options whose id contains term, ignoring case and accents
// an empty term keeps everything
func Search(in []OptionCount, term string) []OptionCount {
	needle := fold(strings.TrimSpace(term))
	out := make([]OptionCount, 0, len(in))
	for _, o := range in {
		if o.ID == "" {
			continue
		}
		if needle == "" || strings.Contains(fold(o.ID), needle) {
			out = append(out, o)
		}
	}
	return out
}

// fold lower-cases s and strips combining marks so "Côte" matches "cote"
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}
