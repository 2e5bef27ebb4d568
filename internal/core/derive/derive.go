// Package derive turns raw aggregation rows into chart-ready series
//
// Every visualization type shares one pipeline:
//  1. rows without a key are dropped
//  2. declared metrics are read, missing ones become 0
//  3. values are rounded to 2 decimals
//  4. yearly series sort ascending by key, rankings keep the server order
//  5. rankings are cut to the type's top N
package derive

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"insightboard/internal/core/dataset"
	perr "insightboard/internal/platform/errors"
)

// Point is one chart-ready entry
type Point struct {
	Label  string             `json:"label"`
	Values map[string]float64 `json:"values"`
	Count  int                `json:"count"`
}

// Metric maps a row metric onto a series name
type Metric struct {
	// Name is the series key in Point.Values
	Name string
	// Source is the metric key in the aggregation row; "count" falls back to the row count
	Source string
}

// Order is how a series is arranged
type Order uint8

const (
	// OrderServer keeps the order the API returned, which is already ranked
	OrderServer Order = iota
	// OrderKeyAsc sorts by key ascending, numerically when both keys are numbers
	OrderKeyAsc
)

// UnknownLabel names a row whose key is blank
const UnknownLabel = "Unknown"

// Spec declares how one visualization type is shaped
type Spec struct {
	Type    dataset.VisualizationType
	Metrics []Metric
	// TopN caps the output length; 0 keeps every row
	TopN  int
	Order Order
	// LabelWidth truncates labels to that many runes plus "..."; 0 keeps them whole
	LabelWidth int
}

var (
	intensity  = Metric{Name: "intensity", Source: "avgIntensity"}
	likelihood = Metric{Name: "likelihood", Source: "avgLikelihood"}
	relevance  = Metric{Name: "relevance", Source: "avgRelevance"}
	count      = Metric{Name: "count", Source: "count"}
)

var specs = map[dataset.VisualizationType]Spec{
	dataset.IntensityByCountry: {Type: dataset.IntensityByCountry, Metrics: []Metric{intensity}, TopN: 10},
	dataset.IntensityBySector:  {Type: dataset.IntensityBySector, Metrics: []Metric{intensity}, TopN: 10},
	dataset.IntensityByRegion:  {Type: dataset.IntensityByRegion, Metrics: []Metric{intensity}, TopN: 10},
	dataset.LikelihoodByTopic:  {Type: dataset.LikelihoodByTopic, Metrics: []Metric{likelihood}, TopN: 8},
	dataset.RelevanceBySector:  {Type: dataset.RelevanceBySector, Metrics: []Metric{relevance}, TopN: 8},
	dataset.YearlyTrends: {
		Type:    dataset.YearlyTrends,
		Metrics: []Metric{likelihood, intensity, relevance},
		Order:   OrderKeyAsc,
	},
	dataset.PestleDistribution: {Type: dataset.PestleDistribution, Metrics: []Metric{count, intensity}, TopN: 6},
}

// For returns the declared spec of t
func For(t dataset.VisualizationType) (Spec, bool) {
	s, ok := specs[t]
	if !ok {
		return Spec{}, false
	}
	s.Metrics = append([]Metric(nil), s.Metrics...)
	return s, true
}

// WithTopN returns a copy of s cut to n entries, used by pie-bound variants
func (s Spec) WithTopN(n int) Spec {
	if n < 0 {
		n = 0
	}
	s.TopN = n
	return s
}

// WithLabelWidth returns a copy of s that truncates labels to w runes
func (s Spec) WithLabelWidth(w int) Spec {
	if w < 0 {
		w = 0
	}
	s.LabelWidth = w
	return s
}

// MetricNames lists the series names s produces
func (s Spec) MetricNames() []string {
	out := make([]string, len(s.Metrics))
	for i, m := range s.Metrics {
		out[i] = m.Name
	}
	return out
}

// Transform shapes rows with the declared spec of t
// only an unknown t fails; empty input yields an empty slice
func Transform(t dataset.VisualizationType, rows []dataset.AggregationRow) ([]Point, error) {
	s, ok := For(t)
	if !ok {
		return nil, perr.WithField(perr.InvalidArgf("no derivation for visualization type %q", string(t)), "type")
	}
	return s.Apply(rows), nil
}

// Apply runs the pipeline over rows; it never returns nil
func (s Spec) Apply(rows []dataset.AggregationRow) []Point {
	kept := make([]dataset.AggregationRow, 0, len(rows))
	for _, r := range rows {
		if r.HasKey() {
			kept = append(kept, r)
		}
	}

	if s.Order == OrderKeyAsc {
		sort.SliceStable(kept, func(i, j int) bool { return keyLess(kept[i], kept[j]) })
	}
	if s.TopN > 0 && len(kept) > s.TopN {
		kept = kept[:s.TopN]
	}

	out := make([]Point, 0, len(kept))
	for _, r := range kept {
		p := Point{Label: s.label(r), Values: make(map[string]float64, len(s.Metrics)), Count: r.Count}
		for _, m := range s.Metrics {
			p.Values[m.Name] = Round2(metric(r, m.Source))
		}
		out = append(out, p)
	}
	return out
}

func (s Spec) label(r dataset.AggregationRow) string {
	l := strings.TrimSpace(r.Label())
	if l == "" {
		return UnknownLabel
	}
	return Truncate(l, s.LabelWidth)
}

func metric(r dataset.AggregationRow, key string) float64 {
	v, ok := r.Metrics[key]
	if !ok && key == "count" {
		return float64(r.Count)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func keyLess(a, b dataset.AggregationRow) bool {
	af, aok := a.KeyFloat()
	bf, bok := b.KeyFloat()
	switch {
	case aok && bok:
		return af < bf
	case aok != bok:
		// numbers before text
		return aok
	default:
		return a.Label() < b.Label()
	}
}

// Round2 rounds to 2 decimal places
func Round2(v float64) float64 { return math.Round(v*100) / 100 }

// Truncate cuts s to w runes and appends "..." when it was longer; w <= 0 keeps s
func Truncate(s string, w int) string {
	if w <= 0 || utf8.RuneCountInString(s) <= w {
		return s
	}
	r := []rune(s)
	return string(r[:w]) + "..."
}
