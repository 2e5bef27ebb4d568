package domain

import "insightboard/internal/core/filter"

// Preset is a named, ready-made filter a session can load in one step
type Preset struct {
	Name        string       `json:"name" example:"High Impact"`
	Description string       `json:"description,omitempty" example:"Intensity 70+ and likelihood 80+"`
	Filters     filter.Model `json:"filters"`
	Active      int          `json:"active" example:"2"`
}
