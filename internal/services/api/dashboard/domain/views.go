package domain

import (
	"strings"

	"insightboard/internal/core/dataset"
	"insightboard/internal/core/derive"
	perr "insightboard/internal/platform/errors"
)

// ViewID names one chart of the dashboard
type ViewID string

// Dashboard views
const (
	ViewIntensity       ViewID = "intensity"
	ViewLikelihoodTrend ViewID = "likelihood-trend"
	ViewRelevance       ViewID = "relevance"
	ViewRelevancePie    ViewID = "relevance-pie"
	ViewTopics          ViewID = "topics"
	ViewPestle          ViewID = "pestle"
)

// Grouping values of the intensity view
const (
	ByCountry = "country"
	BySector  = "sector"
	ByRegion  = "region"
)

// View is a catalogue entry: what a chart asks the API for and how the answer is shaped
type View struct {
	ID    ViewID
	Title string
	// Chart is a rendering hint: bar, line or pie
	Chart string
	Type  dataset.VisualizationType
	Spec  derive.Spec
}

var catalogue = []View{
	view(ViewIntensity, "Intensity Analysis", "bar", dataset.IntensityByCountry, 0, 0),
	view(ViewLikelihoodTrend, "Likelihood Trends", "line", dataset.YearlyTrends, 0, 0),
	view(ViewRelevance, "Relevance by Sector", "bar", dataset.RelevanceBySector, 0, 0),
	view(ViewRelevancePie, "Relevance Share", "pie", dataset.RelevanceBySector, 6, 15),
	view(ViewTopics, "Likelihood by Topic", "bar", dataset.LikelihoodByTopic, 0, 0),
	view(ViewPestle, "PESTLE Distribution", "pie", dataset.PestleDistribution, 0, 0),
}

// view builds an entry; topN 0 keeps the declared cut, width 0 keeps labels whole
func view(id ViewID, title, chart string, t dataset.VisualizationType, topN, width int) View {
	s, ok := derive.For(t)
	if !ok {
		panic("dashboard: no derivation for " + string(t))
	}
	if topN > 0 {
		s = s.WithTopN(topN)
	}
	if width > 0 {
		s = s.WithLabelWidth(width)
	}
	return View{ID: id, Title: title, Chart: chart, Type: t, Spec: s}
}

// Views lists the catalogue in display order
func Views() []View { return append([]View(nil), catalogue...) }

// ViewIDs lists the view ids in display order
func ViewIDs() []ViewID {
	out := make([]ViewID, len(catalogue))
	for i, v := range catalogue {
		out[i] = v.ID
	}
	return out
}

// Lookup returns the catalogue entry of id
func Lookup(id ViewID) (View, bool) {
	for _, v := range catalogue {
		if v.ID == id {
			return v, true
		}
	}
	return View{}, false
}

// ParseView resolves a path segment to a known view
func ParseView(s string) (View, error) {
	v, ok := Lookup(ViewID(strings.ToLower(strings.TrimSpace(s))))
	if !ok {
		return View{}, perr.WithField(perr.NotFoundf("unknown view %q", s), "view")
	}
	return v, nil
}

// IntensityType maps the intensity grouping onto its visualization type; "" means country
func IntensityType(by string) (dataset.VisualizationType, error) {
	switch strings.ToLower(strings.TrimSpace(by)) {
	case "", ByCountry:
		return dataset.IntensityByCountry, nil
	case BySector:
		return dataset.IntensityBySector, nil
	case ByRegion:
		return dataset.IntensityByRegion, nil
	}
	return "", perr.WithField(perr.InvalidArgf("intensity can be grouped by country, sector or region, not %q", by), "by")
}
