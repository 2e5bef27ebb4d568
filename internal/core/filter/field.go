// Package filter defines the dashboard filter model and the pure helpers around it
// a Model is a value: every helper returns a new Model and never mutates its input
package filter

import (
	"strings"

	perr "insightboard/internal/platform/errors"
)

// Field names one filter slot; values are the wire names used in query params
type Field string

// Filter fields in canonical order
const (
	FieldStartYear     Field = "startYear"
	FieldEndYear       Field = "endYear"
	FieldTopics        Field = "topics"
	FieldSectors       Field = "sectors"
	FieldRegions       Field = "regions"
	FieldCountries     Field = "countries"
	FieldCities        Field = "cities"
	FieldPestle        Field = "pestle"
	FieldSource        Field = "source"
	FieldSWOT          Field = "swot"
	FieldIntensityMin  Field = "intensityMin"
	FieldIntensityMax  Field = "intensityMax"
	FieldLikelihoodMin Field = "likelihoodMin"
	FieldLikelihoodMax Field = "likelihoodMax"
	FieldRelevanceMin  Field = "relevanceMin"
	FieldRelevanceMax  Field = "relevanceMax"
)

var fields = []Field{
	FieldStartYear, FieldEndYear,
	FieldTopics, FieldSectors, FieldRegions, FieldCountries, FieldCities,
	FieldPestle, FieldSource, FieldSWOT,
	FieldIntensityMin, FieldIntensityMax,
	FieldLikelihoodMin, FieldLikelihoodMax,
	FieldRelevanceMin, FieldRelevanceMax,
}

// Fields returns every filter field in canonical order
func Fields() []Field { return append([]Field(nil), fields...) }

// Kind is the value shape a field holds
type Kind uint8

const (
	// KindNone marks an unset Value or an unknown field
	KindNone Kind = iota
	// KindInt is an optional integer
	KindInt
	// KindText is an optional single string
	KindText
	// KindList is an ordered list of unique strings
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindText:
		return "text"
	case KindList:
		return "list"
	default:
		return "none"
	}
}

// Kind reports the value shape of f, KindNone for unknown fields
func (f Field) Kind() Kind {
	switch f {
	case FieldStartYear, FieldEndYear,
		FieldIntensityMin, FieldIntensityMax,
		FieldLikelihoodMin, FieldLikelihoodMax,
		FieldRelevanceMin, FieldRelevanceMax:
		return KindInt
	case FieldPestle, FieldSource, FieldSWOT:
		return KindText
	case FieldTopics, FieldSectors, FieldRegions, FieldCountries, FieldCities:
		return KindList
	default:
		return KindNone
	}
}

// Valid reports whether f is one of the known fields
func (f Field) Valid() bool { return f.Kind() != KindNone }

// ParseField resolves a wire name to a Field
// matching is exact first, then case-insensitive
func ParseField(s string) (Field, error) {
	s = strings.TrimSpace(s)
	if f := Field(s); f.Valid() {
		return f, nil
	}
	for _, f := range fields {
		if strings.EqualFold(string(f), s) {
			return f, nil
		}
	}
	return "", perr.WithField(perr.InvalidArgf("unknown filter field %q", s), "field")
}
