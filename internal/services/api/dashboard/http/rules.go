package http

import (
	"sync"

	"insightboard/internal/core/filter"
	"insightboard/internal/platform/net/http/bind"
)

var rulesOnce sync.Once

// RegisterRules installs the struct level filter rules on the shared validator
// after it, bind.Struct rejects a filter whose min exceeds its max
func RegisterRules() {
	rulesOnce.Do(func() {
		bind.RegisterStructValidation(orderedBounds, filter.Model{})
	})
}

// CheckFilter vets a candidate filter, the store hook of every session
func CheckFilter(m filter.Model) error {
	RegisterRules()
	return bind.Struct(m)
}

func orderedBounds(sl bind.StructLevel) {
	m, ok := sl.Current().Interface().(filter.Model)
	if !ok {
		return
	}
	for _, b := range filter.Inverted(m) {
		lo, _ := filter.Get(m, b.Min).Int()
		sl.ReportError(lo, string(b.Min), string(b.Min), "ordered", string(b.Max))
	}
}
