package filter

import (
	perr "insightboard/internal/platform/errors"
)

// Pestle categories accepted by the data API
var PestleOptions = []string{"Political", "Economic", "Social", "Technological", "Legal", "Environmental"}

// SWOT categories accepted by the data API
var SWOTOptions = []string{"strength", "weakness", "opportunity", "threat"}

// Model is the complete set of narrowing criteria shared by every dashboard view
// scalars are unset when nil, lists are unset when empty
type Model struct {
	StartYear *int `json:"startYear,omitempty"`
	EndYear   *int `json:"endYear,omitempty"`

	Topics    []string `json:"topics,omitempty" validate:"omitempty,unique"`
	Sectors   []string `json:"sectors,omitempty" validate:"omitempty,unique"`
	Regions   []string `json:"regions,omitempty" validate:"omitempty,unique"`
	Countries []string `json:"countries,omitempty" validate:"omitempty,unique"`
	Cities    []string `json:"cities,omitempty" validate:"omitempty,unique"`

	Pestle *string `json:"pestle,omitempty" validate:"omitempty,oneof=Political Economic Social Technological Legal Environmental"`
	Source *string `json:"source,omitempty"`
	SWOT   *string `json:"swot,omitempty" validate:"omitempty,oneof=strength weakness opportunity threat"`

	IntensityMin  *int `json:"intensityMin,omitempty" validate:"omitempty,min=0,max=100"`
	IntensityMax  *int `json:"intensityMax,omitempty" validate:"omitempty,min=0,max=100"`
	LikelihoodMin *int `json:"likelihoodMin,omitempty" validate:"omitempty,min=0,max=100"`
	LikelihoodMax *int `json:"likelihoodMax,omitempty" validate:"omitempty,min=0,max=100"`
	RelevanceMin  *int `json:"relevanceMin,omitempty" validate:"omitempty,min=0,max=100"`
	RelevanceMax  *int `json:"relevanceMax,omitempty" validate:"omitempty,min=0,max=100"`
}

// Initial returns a model with every field unset
// list fields are empty, non-nil slices
func Initial() Model {
	return Model{
		Topics:    []string{},
		Sectors:   []string{},
		Regions:   []string{},
		Countries: []string{},
		Cities:    []string{},
	}
}

// Get returns the value held by field f, Unset for unknown fields
// list values come back deduplicated with empty items dropped
func Get(m Model, f Field) Value {
	switch f.Kind() {
	case KindInt:
		if p := *m.intSlot(f); p != nil {
			return Int(*p)
		}
	case KindText:
		if p := *m.textSlot(f); p != nil {
			return Text(*p)
		}
	case KindList:
		return List(*m.listSlot(f)...)
	}
	return Value{}
}

// WithField returns a copy of m with field f replaced by v
// list fields are replaced whole, never merged; an unset v clears the field
// fails only when f is unknown or v has the wrong shape for f
func WithField(m Model, f Field, v Value) (Model, error) {
	if !f.Valid() {
		_, err := ParseField(string(f))
		return m, err
	}
	if v.IsUnset() {
		return Cleared(m, f), nil
	}
	if v.kind != f.Kind() {
		return m, kindError(f, f.Kind())
	}
	out := m
	switch v.kind {
	case KindInt:
		n := v.n
		*out.intSlot(f) = &n
	case KindText:
		s := v.s
		*out.textSlot(f) = &s
	case KindList:
		*out.listSlot(f) = append([]string(nil), v.list...)
	}
	return out, nil
}

// Cleared returns a copy of m with f reset: lists become empty, scalars become nil
func Cleared(m Model, f Field) Model {
	out := m
	switch f.Kind() {
	case KindInt:
		*out.intSlot(f) = nil
	case KindText:
		*out.textSlot(f) = nil
	case KindList:
		*out.listSlot(f) = []string{}
	}
	return out
}

// IsEmpty reports whether every field is unset
func IsEmpty(m Model) bool { return ActiveCount(m) == 0 }

// ActiveCount returns how many fields are set
func ActiveCount(m Model) int {
	n := 0
	for _, f := range fields {
		if !Get(m, f).IsUnset() {
			n++
		}
	}
	return n
}

// Active returns the set fields in canonical order
func Active(m Model) []Field {
	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		if !Get(m, f).IsUnset() {
			out = append(out, f)
		}
	}
	return out
}

// Equal compares two models field by field
// nil and empty lists compare equal, as do nil and empty strings
func Equal(a, b Model) bool {
	for _, f := range fields {
		if !Get(a, f).Equal(Get(b, f)) {
			return false
		}
	}
	return true
}

// Normalize rebuilds m through WithField so that every field uses the uniform unset form
// and lists are deduplicated; use it on models decoded from outside
func Normalize(m Model) Model {
	out := Initial()
	for _, f := range fields {
		out, _ = WithField(out, f, Get(m, f))
	}
	return out
}

// Clone returns a deep copy of m so callers may modify slices freely
func Clone(m Model) Model { return Normalize(m) }

func (m *Model) intSlot(f Field) **int {
	switch f {
	case FieldStartYear:
		return &m.StartYear
	case FieldEndYear:
		return &m.EndYear
	case FieldIntensityMin:
		return &m.IntensityMin
	case FieldIntensityMax:
		return &m.IntensityMax
	case FieldLikelihoodMin:
		return &m.LikelihoodMin
	case FieldLikelihoodMax:
		return &m.LikelihoodMax
	case FieldRelevanceMin:
		return &m.RelevanceMin
	case FieldRelevanceMax:
		return &m.RelevanceMax
	}
	panic("filter: not an int field " + string(f))
}

func (m *Model) textSlot(f Field) **string {
	switch f {
	case FieldPestle:
		return &m.Pestle
	case FieldSource:
		return &m.Source
	case FieldSWOT:
		return &m.SWOT
	}
	panic("filter: not a text field " + string(f))
}

func (m *Model) listSlot(f Field) *[]string {
	switch f {
	case FieldTopics:
		return &m.Topics
	case FieldSectors:
		return &m.Sectors
	case FieldRegions:
		return &m.Regions
	case FieldCountries:
		return &m.Countries
	case FieldCities:
		return &m.Cities
	}
	panic("filter: not a list field " + string(f))
}

func kindError(f Field, want Kind) error {
	return perr.WithField(perr.InvalidArgf("filter %s expects a %s value", f, want), string(f))
}
