package filter

// Bound pairs a lower and an upper field that must stay ordered when both are set
type Bound struct {
	Min Field
	Max Field
}

// Bounds lists every min/max pair of the model
var Bounds = []Bound{
	{FieldStartYear, FieldEndYear},
	{FieldIntensityMin, FieldIntensityMax},
	{FieldLikelihoodMin, FieldLikelihoodMax},
	{FieldRelevanceMin, FieldRelevanceMax},
}

// Inverted returns the pairs whose lower value exceeds the upper value
// the model itself accepts such pairs; callers at the boundary decide what to do
func Inverted(m Model) []Bound {
	var out []Bound
	for _, b := range Bounds {
		lo, okLo := Get(m, b.Min).Int()
		hi, okHi := Get(m, b.Max).Int()
		if okLo && okHi && lo > hi {
			out = append(out, b)
		}
	}
	return out
}
