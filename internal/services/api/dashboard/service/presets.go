package service

import (
	_ "embed"
	"os"
	"strings"

	"insightboard/internal/core/filter"
	perr "insightboard/internal/platform/errors"
	"insightboard/internal/services/api/dashboard/domain"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var defaultPresets []byte

type presetFile struct {
	Presets []struct {
		Name        string         `yaml:"name"`
		Description string         `yaml:"description"`
		Filters     map[string]any `yaml:"filters"`
	} `yaml:"presets"`
}

// DefaultPresets returns the built in presets
func DefaultPresets() []domain.Preset {
	ps, err := ParsePresets(defaultPresets)
	if err != nil {
		panic("dashboard: built in presets: " + err.Error())
	}
	return ps
}

// LoadPresets reads presets from a YAML file; an empty path means the built in set
func LoadPresets(path string) ([]domain.Preset, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultPresets(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "read presets %s", path)
	}
	return ParsePresets(b)
}

// ParsePresets decodes a preset document
// names must be unique ignoring case and every filter key must be a known field
func ParsePresets(b []byte) ([]domain.Preset, error) {
	var doc presetFile
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "malformed presets")
	}
	out := make([]domain.Preset, 0, len(doc.Presets))
	seen := map[string]bool{}
	for i, p := range doc.Presets {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, perr.WithField(perr.InvalidArgf("preset %d has no name", i), "name")
		}
		key := strings.ToLower(name)
		if seen[key] {
			return nil, perr.WithField(perr.InvalidArgf("duplicate preset %q", name), "name")
		}
		seen[key] = true

		m := filter.Initial()
		for raw, x := range p.Filters {
			f, err := filter.ParseField(raw)
			if err != nil {
				return nil, perr.WithOp(err, "preset "+name)
			}
			v, err := filter.FromAny(f, x)
			if err != nil {
				return nil, perr.WithOp(err, "preset "+name)
			}
			if m, err = filter.WithField(m, f, v); err != nil {
				return nil, perr.WithOp(err, "preset "+name)
			}
		}
		m = filter.Canonical(m)
		out = append(out, domain.Preset{
			Name:        name,
			Description: strings.TrimSpace(p.Description),
			Filters:     m,
			Active:      filter.ActiveCount(m),
		})
	}
	return out, nil
}

// findPreset matches name ignoring case
func findPreset(ps []domain.Preset, name string) (domain.Preset, bool) {
	name = strings.TrimSpace(name)
	for _, p := range ps {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return domain.Preset{}, false
}
