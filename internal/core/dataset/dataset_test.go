package dataset

import (
	"encoding/json"
	"reflect"
	"testing"

	perr "insightboard/internal/platform/errors"
)

func TestAggregationRow_DecodeShapes(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		key   any
		count int
		want  map[string]float64
	}{
		{
			name:  "canonical",
			in:    `{"key":"India","metrics":{"avgIntensity":12.345,"avgLikelihood":"3"},"count":7}`,
			key:   "India",
			count: 7,
			want:  map[string]float64{"avgIntensity": 12.345, "avgLikelihood": 3},
		},
		{
			name:  "flat upstream row",
			in:    `{"_id":2017,"avgIntensity":8.5,"avgRelevance":null,"count":"12"}`,
			key:   float64(2017),
			count: 12,
			want:  map[string]float64{"avgIntensity": 8.5},
		},
		{
			name:  "null key, junk metric",
			in:    `{"_id":null,"avgIntensity":"n/a","count":1}`,
			key:   nil,
			count: 1,
			want:  map[string]float64{},
		},
		{
			name: "metrics null",
			in:   `{"key":"x","metrics":null}`,
			key:  "x",
			want: map[string]float64{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var r AggregationRow
			if err := json.Unmarshal([]byte(tc.in), &r); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if !reflect.DeepEqual(r.Key, tc.key) {
				t.Fatalf("key = %#v, want %#v", r.Key, tc.key)
			}
			if r.Count != tc.count {
				t.Fatalf("count = %d, want %d", r.Count, tc.count)
			}
			if !reflect.DeepEqual(r.Metrics, tc.want) {
				t.Fatalf("metrics = %#v, want %#v", r.Metrics, tc.want)
			}
		})
	}
}

func TestAggregationRow_KeyHelpers(t *testing.T) {
	cases := []struct {
		key     any
		has     bool
		label   string
		num     float64
		numeric bool
	}{
		{nil, false, "", 0, false},
		{"  ", true, "  ", 0, false},
		{"Asia", true, "Asia", 0, false},
		{float64(2020), true, "2020", 2020, true},
		{12.5, true, "12.5", 12.5, true},
		{"2019", true, "2019", 2019, true},
	}
	for _, tc := range cases {
		r := AggregationRow{Key: tc.key}
		if r.HasKey() != tc.has {
			t.Fatalf("HasKey(%#v) = %v", tc.key, r.HasKey())
		}
		if r.Label() != tc.label {
			t.Fatalf("Label(%#v) = %q", tc.key, r.Label())
		}
		n, ok := r.KeyFloat()
		if ok != tc.numeric || n != tc.num {
			t.Fatalf("KeyFloat(%#v) = %v,%v", tc.key, n, ok)
		}
	}
}

func TestRecord_TolerantNumbers(t *testing.T) {
	in := `{"_id":"a1","topic":"oil","intensity":6,"likelihood":"","relevance":"2","start_year":"","end_year":2027,"country":"India"}`
	var r Record
	if err := json.Unmarshal([]byte(in), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.ID != "a1" || r.Topic != "oil" || r.Country != "India" {
		t.Fatalf("strings lost: %+v", r)
	}
	if r.Intensity != "6" || r.Relevance != "2" || r.EndYear != "2027" {
		t.Fatalf("numbers = %q %q %q", r.Intensity, r.Relevance, r.EndYear)
	}
	if r.Likelihood != "" || r.StartYear != "" {
		t.Fatalf("empty numeric columns should stay empty: %q %q", r.Likelihood, r.StartYear)
	}
}

func TestRecordsPage_Decode(t *testing.T) {
	in := `{"data":[{"_id":"x","intensity":3}],"pagination":{"page":2,"limit":50,"total":120,"pages":3}}`
	var p RecordsPage
	if err := json.Unmarshal([]byte(in), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(p.Data) != 1 || p.Pagination != (Pagination{Page: 2, Limit: 50, Total: 120, Pages: 3}) {
		t.Fatalf("page = %+v", p)
	}
}

func TestParseVisualizationType(t *testing.T) {
	for _, vt := range VisualizationTypes() {
		got, err := ParseVisualizationType(string(vt))
		if err != nil || got != vt {
			t.Fatalf("ParseVisualizationType(%q) = %q, %v", vt, got, err)
		}
	}
	if got, err := ParseVisualizationType(" Yearly_Trends "); err != nil || got != YearlyTrends {
		t.Fatalf("case/space folding failed: %q %v", got, err)
	}
	_, err := ParseVisualizationType("bogus_type")
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("err = %v, want invalid argument", err)
	}
	if e, _ := perr.As(err); e.Field() != "type" {
		t.Fatalf("field = %q", e.Field())
	}
}

func TestParseExportFormat(t *testing.T) {
	cases := map[string]ExportFormat{"": ExportCSV, "CSV": ExportCSV, "json": ExportJSON, "excel": ExportExcel}
	for in, want := range cases {
		got, err := ParseExportFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseExportFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseExportFormat("pdf"); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("pdf err = %v", err)
	}
}
