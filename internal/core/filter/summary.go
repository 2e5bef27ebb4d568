package filter

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Summary renders the short chips shown next to an active filter set
// e.g. "Years: 2016 - Any", "Topics: 2", "PEST: Economic"
func Summary(m Model) []string {
	out := []string{}
	if m.StartYear != nil || m.EndYear != nil {
		out = append(out, "Years: "+yearOrAny(m.StartYear)+" - "+yearOrAny(m.EndYear))
	}
	for _, c := range []struct {
		label string
		items []string
	}{
		{"Topics", m.Topics},
		{"Regions", m.Regions},
		{"Countries", m.Countries},
	} {
		if len(c.items) > 0 {
			out = append(out, c.label+": "+strconv.Itoa(len(c.items)))
		}
	}
	if s, ok := Get(m, FieldPestle).Text(); ok {
		out = append(out, "PEST: "+s)
	}
	if s, ok := Get(m, FieldSWOT).Text(); ok {
		out = append(out, "SWOT: "+s)
	}
	return out
}

func yearOrAny(p *int) string {
	if p == nil {
		return "Any"
	}
	return strconv.Itoa(*p)
}

// Canonical trims text values and folds the enumerated ones into their canonical case:
// pestle in title case ("economic" -> "Economic"), swot in lower case
// values outside the enumerations are kept as given so boundary validation can report them
func Canonical(m Model) Model {
	out := Normalize(m)
	// casers carry state, so they are built per call
	title, lower := cases.Title(language.English), cases.Lower(language.English)
	for _, f := range []Field{FieldPestle, FieldSource, FieldSWOT} {
		s, ok := Get(out, f).Text()
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		switch f {
		case FieldPestle:
			if c := title.String(s); contains(PestleOptions, c) {
				s = c
			}
		case FieldSWOT:
			if c := lower.String(s); contains(SWOTOptions, c) {
				s = c
			}
		}
		out, _ = WithField(out, f, Text(s))
	}
	return out
}

func contains(set []string, s string) bool {
	for _, it := range set {
		if it == s {
			return true
		}
	}
	return false
}
