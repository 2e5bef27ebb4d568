// Package domain holds DTOs for the dashboard http and service contracts
package domain

import (
	"time"

	"insightboard/internal/core/dataset"
	"insightboard/internal/core/derive"
	"insightboard/internal/core/fetch"
	"insightboard/internal/core/filter"
	"insightboard/internal/core/filterstore"
	perr "insightboard/internal/platform/errors"
)

// Filter state

// FilterState is the live filter of a session with its derived renderings
type FilterState struct {
	Session string            `json:"session" example:"default"`
	Filters filter.Model      `json:"filters"`
	Active  int               `json:"active" example:"2"`
	Summary []string          `json:"summary" example:"Years: 2016 - Any"`
	Query   map[string]string `json:"query"`
}

// SetFieldInput replaces one filter field; null, "" or [] clear it
// lists are replaced whole, never merged
type SetFieldInput struct {
	Value any `json:"value" swaggertype:"string" example:"Oil"`
}

// PatchInput replaces several fields in one change
type PatchInput struct {
	Fields map[string]any `json:"fields" validate:"required,min=1,max=16"`
}

// HistoryEntry is one undo step: the filter as it was before an operation
type HistoryEntry struct {
	Op     string         `json:"op" example:"update"`
	Fields []filter.Field `json:"fields,omitempty"`
	Before filter.Model   `json:"before"`
	At     time.Time      `json:"at"`
}

// HistoryFrom maps store changes, newest first
func HistoryFrom(in []filterstore.Change) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(in))
	for i := len(in) - 1; i >= 0; i-- {
		c := in[i]
		out = append(out, HistoryEntry{Op: c.Op, Fields: c.Fields, Before: c.Before, At: c.At})
	}
	return out
}

// Views

// ViewParams are the local parameters of a view request
type ViewParams struct {
	// By groups the intensity view; ignored elsewhere
	By string `json:"by,omitempty" validate:"omitempty,oneof=country sector region" example:"country"`
	// Wait blocks until the view is no longer loading or the request ends
	Wait bool `json:"wait,omitempty" example:"true"`
}

// ViewError is the failure of the newest load of a view
type ViewError struct {
	Kind      string `json:"kind" example:"timeout"`
	Message   string `json:"message" example:"request timed out"`
	Retryable bool   `json:"retryable" example:"true"`
}

// ViewSnapshot is one chart as a client should render it
// Points keeps the last good data while a newer load is pending or failed
type ViewSnapshot struct {
	ID         ViewID         `json:"id" example:"intensity"`
	Title      string         `json:"title" example:"Intensity Analysis"`
	Chart      string         `json:"chart" example:"bar"`
	Type       string         `json:"type" example:"intensity_by_country"`
	By         string         `json:"by,omitempty" example:"country"`
	State      fetch.State    `json:"state" swaggertype:"string" example:"ready"`
	Loading    bool           `json:"loading" example:"false"`
	Metrics    []string       `json:"metrics" example:"intensity"`
	Points     []derive.Point `json:"points"`
	Error      *ViewError     `json:"error,omitempty"`
	Generation uint64         `json:"generation" example:"3"`
	UpdatedAt  time.Time      `json:"updated_at,omitzero"`
}

// Overview is a one-shot load of the stats and every view for the current filter
type Overview struct {
	Filters FilterState               `json:"filters"`
	Stats   dataset.Stats             `json:"stats"`
	Views   map[ViewID][]derive.Point `json:"views"`
}

// Records and options

// RecordsQuery pages through raw records for the current filter
type RecordsQuery struct {
	Page  int `json:"page,omitempty" validate:"omitempty,min=1" example:"1"`
	Limit int `json:"limit,omitempty" validate:"omitempty,min=1,max=1000" example:"100"`
}

// OptionsQuery browses the distinct values of one filterable column
type OptionsQuery struct {
	Column string `json:"column" validate:"required,oneof=years topics sectors regions countries cities pestles sources swots" example:"topics"`
	Search string `json:"search,omitempty" validate:"omitempty,max=64" example:"oil"`
	Sort   string `json:"sort,omitempty" validate:"omitempty,oneof=count name" example:"count"`
	Limit  int    `json:"limit,omitempty" validate:"omitempty,min=1,max=1000" example:"50"`
}

// TopicDetail is the likelihood breakdown of one topic
type TopicDetail struct {
	Topic string       `json:"topic" example:"oil"`
	Point derive.Point `json:"point"`
}

// Presets and saved filters

// ApplyPresetInput names a preset to load into the session
type ApplyPresetInput struct {
	Name string `json:"name" validate:"required,max=64" example:"High Impact"`
}

// SaveFilterInput stores the current filter under a name
type SaveFilterInput struct {
	Name string `json:"name" validate:"required,max=120" example:"Energy in Asia"`
}

// SavedFilter is a named filter kept by the data API
type SavedFilter struct {
	ID        string       `json:"id" example:"6523f0c2a1"`
	Name      string       `json:"name" example:"Energy in Asia"`
	Filters   filter.Model `json:"filters"`
	Active    int          `json:"active" example:"2"`
	CreatedAt time.Time    `json:"created_at,omitzero"`
}

// Export

// Export sources
const (
	SourceLocal  = "local"
	SourceRemote = "remote"
)

// ExportInput asks for the current filter's records as a file
// local renders the records page here, remote asks the data API to render the whole set
type ExportInput struct {
	Format string `json:"format,omitempty" validate:"omitempty,oneof=csv json excel" example:"csv"`
	Source string `json:"source,omitempty" validate:"omitempty,oneof=local remote" example:"local"`
	Page   int    `json:"page,omitempty" validate:"omitempty,min=1" example:"1"`
	Limit  int    `json:"limit,omitempty" validate:"omitempty,min=1,max=1000" example:"1000"`
}

// ExportFile is a rendered export
type ExportFile struct {
	Name        string
	ContentType string
	Body        []byte
}

// Session

// TokenInput sets the bearer token the session forwards to the data API
type TokenInput struct {
	Token string `json:"token" validate:"required,max=4096" example:"eyJhbGciOi..."`
}

// SessionInfo describes a dashboard session
type SessionInfo struct {
	Session  string    `json:"session" example:"default"`
	HasToken bool      `json:"has_token" example:"true"`
	Active   int       `json:"active" example:"2"`
	Views    []ViewID  `json:"views"`
	LastSeen time.Time `json:"last_seen"`
}

// Push

// Event kinds pushed to watchers
const (
	EventFilters = "filters"
	EventView    = "view"
)

// Event is one push message of a session
type Event struct {
	Type    string        `json:"type" example:"view"`
	Session string        `json:"session" example:"default"`
	Filters *FilterState  `json:"filters,omitempty"`
	View    *ViewSnapshot `json:"view,omitempty"`
	At      time.Time     `json:"at"`
}

// ErrNothingToRevert is returned by Revert on a session without history
var ErrNothingToRevert = perr.Conflictf("nothing to revert")
