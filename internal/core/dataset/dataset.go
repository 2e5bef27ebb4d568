// Package dataset holds the payload shapes exchanged with the remote analytics API
package dataset

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Record is one raw insight row as served by GET /data
// numeric fields arrive as numbers or as empty strings, so they are kept flexible
type Record struct {
	ID         string      `json:"_id,omitempty"`
	Title      string      `json:"title,omitempty"`
	Insight    string      `json:"insight,omitempty"`
	URL        string      `json:"url,omitempty"`
	Topic      string      `json:"topic,omitempty"`
	Sector     string      `json:"sector,omitempty"`
	Region     string      `json:"region,omitempty"`
	Country    string      `json:"country,omitempty"`
	City       string      `json:"city,omitempty"`
	Pestle     string      `json:"pestle,omitempty"`
	Source     string      `json:"source,omitempty"`
	SWOT       string      `json:"swot,omitempty"`
	Impact     json.Number `json:"impact,omitempty"`
	Intensity  json.Number `json:"intensity,omitempty"`
	Likelihood json.Number `json:"likelihood,omitempty"`
	Relevance  json.Number `json:"relevance,omitempty"`
	StartYear  json.Number `json:"start_year,omitempty"`
	EndYear    json.Number `json:"end_year,omitempty"`
	Added      string      `json:"added,omitempty"`
	Published  string      `json:"published,omitempty"`
}

// UnmarshalJSON tolerates "" in numeric columns, which the upstream uses for missing values
func (r *Record) UnmarshalJSON(b []byte) error {
	type plain Record
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for _, k := range []string{"impact", "intensity", "likelihood", "relevance", "start_year", "end_year"} {
		v, ok := raw[k]
		if !ok {
			continue
		}
		if n, ok := numberFrom(v); ok {
			raw[k] = json.RawMessage(n.String())
		} else {
			delete(raw, k)
		}
	}
	fixed, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	var p plain
	if err := json.Unmarshal(fixed, &p); err != nil {
		return err
	}
	*r = Record(p)
	return nil
}

// Pagination describes one page of GET /data
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// RecordsPage is the body of GET /data
type RecordsPage struct {
	Data       []Record   `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Stats is the summary object inside GET /data/stats
type Stats struct {
	TotalRecords    int     `json:"totalRecords"`
	AvgIntensity    float64 `json:"avgIntensity"`
	AvgLikelihood   float64 `json:"avgLikelihood"`
	AvgRelevance    float64 `json:"avgRelevance"`
	UniqueCountries int     `json:"uniqueCountries"`
	UniqueTopics    int     `json:"uniqueTopics"`
	UniqueRegions   int     `json:"uniqueRegions"`
	UniqueSources   int     `json:"uniqueSources"`
}

// AggregationRow is the uniform result row of every visualization query
// Key is a string, a float64, or nil
type AggregationRow struct {
	Key     any                `json:"key"`
	Metrics map[string]float64 `json:"metrics"`
	Count   int                `json:"count"`
}

// HasKey reports whether the row carries a key at all; a blank string still counts
func (r AggregationRow) HasKey() bool { return r.Key != nil }

// Label renders the key for display; integral numbers print without decimals
func (r AggregationRow) Label() string {
	switch k := r.Key.(type) {
	case nil:
		return ""
	case string:
		return k
	case float64:
		return strconv.FormatFloat(k, 'f', -1, 64)
	case int:
		return strconv.Itoa(k)
	case json.Number:
		return k.String()
	default:
		b, _ := json.Marshal(k)
		return string(b)
	}
}

// KeyFloat returns the key as a number when it is one, or a numeric string
func (r AggregationRow) KeyFloat() (float64, bool) {
	switch k := r.Key.(type) {
	case float64:
		return k, true
	case int:
		return float64(k), true
	case json.Number:
		f, err := k.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(k), 64)
		return f, err == nil
	}
	return 0, false
}

// UnmarshalJSON accepts the canonical {key, metrics, count} shape and the
// flat {_id, avgIntensity, ..., count} rows the upstream aggregation emits
// metric values that are not numbers, or numeric strings, are left out
func (r *AggregationRow) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := AggregationRow{Metrics: map[string]float64{}}

	keyRaw, ok := raw["key"]
	if !ok {
		keyRaw = raw["_id"]
	}
	if len(keyRaw) > 0 {
		var k any
		if err := json.Unmarshal(keyRaw, &k); err != nil {
			return err
		}
		out.Key = k
	}
	if c, ok := raw["count"]; ok {
		if n, ok := numberFrom(c); ok {
			f, _ := n.Float64()
			out.Count = int(f)
		}
	}

	if m, ok := raw["metrics"]; ok && !bytes.Equal(bytes.TrimSpace(m), []byte("null")) {
		var metrics map[string]json.RawMessage
		if err := json.Unmarshal(m, &metrics); err != nil {
			return err
		}
		collectMetrics(out.Metrics, metrics)
	}
	flat := make(map[string]json.RawMessage, len(raw))
	for k, v := range raw {
		switch k {
		case "key", "_id", "count", "metrics":
			continue
		}
		flat[k] = v
	}
	collectMetrics(out.Metrics, flat)

	*r = out
	return nil
}

func collectMetrics(dst map[string]float64, src map[string]json.RawMessage) {
	for k, v := range src {
		if n, ok := numberFrom(v); ok {
			if f, err := n.Float64(); err == nil {
				dst[k] = f
			}
		}
	}
}

// numberFrom reads a JSON number or a quoted numeric string
func numberFrom(v json.RawMessage) (json.Number, bool) {
	v = bytes.TrimSpace(v)
	if len(v) == 0 {
		return "", false
	}
	var s string
	if v[0] == '"' {
		if err := json.Unmarshal(v, &s); err != nil {
			return "", false
		}
		s = strings.TrimSpace(s)
	} else {
		s = string(v)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false
	}
	return json.Number(strconv.FormatFloat(f, 'f', -1, 64)), true
}
