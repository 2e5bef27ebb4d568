package dataset

import (
	"strings"

	perr "insightboard/internal/platform/errors"
)

// VisualizationType names one server-side aggregation
type VisualizationType string

// Visualization types understood by POST /data/visualization
const (
	IntensityByCountry VisualizationType = "intensity_by_country"
	IntensityBySector  VisualizationType = "intensity_by_sector"
	IntensityByRegion  VisualizationType = "intensity_by_region"
	LikelihoodByTopic  VisualizationType = "likelihood_by_topic"
	RelevanceBySector  VisualizationType = "relevance_by_sector"
	YearlyTrends       VisualizationType = "yearly_trends"
	PestleDistribution VisualizationType = "pestle_distribution"
)

var visualizationTypes = []VisualizationType{
	IntensityByCountry, IntensityBySector, IntensityByRegion,
	LikelihoodByTopic, RelevanceBySector, YearlyTrends, PestleDistribution,
}

// VisualizationTypes lists every known type
func VisualizationTypes() []VisualizationType {
	return append([]VisualizationType(nil), visualizationTypes...)
}

// Valid reports whether t is one of the known types
func (t VisualizationType) Valid() bool {
	for _, v := range visualizationTypes {
		if v == t {
			return true
		}
	}
	return false
}

// ParseVisualizationType maps a raw name to a known type
func ParseVisualizationType(s string) (VisualizationType, error) {
	t := VisualizationType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", perr.WithField(perr.InvalidArgf("unknown visualization type %q", s), "type")
	}
	return t, nil
}

// ExportFormat is a download format accepted by POST /data/export
type ExportFormat string

// Export formats
const (
	ExportCSV   ExportFormat = "csv"
	ExportJSON  ExportFormat = "json"
	ExportExcel ExportFormat = "excel"
)

// ParseExportFormat maps a raw name to a known format, defaulting to csv when empty
func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return ExportCSV, nil
	case ExportCSV, ExportJSON, ExportExcel:
		return f, nil
	default:
		return "", perr.WithField(perr.InvalidArgf("unknown export format %q", s), "format")
	}
}
