package domain

import (
	"context"

	"insightboard/internal/adapters/dataapi"
	"insightboard/internal/core/dataset"
	"insightboard/internal/core/filter"
)

// ServicePort is consumed by handlers and other modules
// every call works on the session named by the context, see httpkit.Sessions
type ServicePort interface {
	Session(ctx context.Context) (SessionInfo, error)
	SetToken(ctx context.Context, in TokenInput) (SessionInfo, error)
	ClearToken(ctx context.Context) (SessionInfo, error)
	EndSession(ctx context.Context) error

	Filters(ctx context.Context) (FilterState, error)
	SetField(ctx context.Context, field string, in SetFieldInput) (FilterState, error)
	Patch(ctx context.Context, in PatchInput) (FilterState, error)
	ReplaceFilters(ctx context.Context, m filter.Model) (FilterState, error)
	ClearField(ctx context.Context, field string) (FilterState, error)
	ClearAll(ctx context.Context) (FilterState, error)
	History(ctx context.Context) ([]HistoryEntry, error)
	Revert(ctx context.Context) (FilterState, error)

	Presets(ctx context.Context) ([]Preset, error)
	ApplyPreset(ctx context.Context, in ApplyPresetInput) (FilterState, error)
	SavedFilters(ctx context.Context) ([]SavedFilter, error)
	SaveFilter(ctx context.Context, in SaveFilterInput) (SavedFilter, error)
	ApplySaved(ctx context.Context, id string) (FilterState, error)
	DeleteSaved(ctx context.Context, id string) error

	Views(ctx context.Context) ([]ViewSnapshot, error)
	View(ctx context.Context, id string, in ViewParams) (ViewSnapshot, error)
	Refresh(ctx context.Context, id string) (ViewSnapshot, error)
	Overview(ctx context.Context) (Overview, error)

	Stats(ctx context.Context) (dataset.Stats, error)
	Records(ctx context.Context, in RecordsQuery) (dataset.RecordsPage, error)
	Options(ctx context.Context, in OptionsQuery) ([]dataset.OptionCount, error)
	Topic(ctx context.Context, topic string) (TopicDetail, error)
	Export(ctx context.Context, in ExportInput) (ExportFile, error)

	// Watch streams the session's filter and view changes until ctx ends or stop is called
	Watch(ctx context.Context) (events <-chan Event, stop func(), err error)
}

// DataPort is the slice of the data API client the dashboard needs
type DataPort interface {
	FetchRecords(ctx context.Context, m filter.Model, page, limit int) (dataset.RecordsPage, error)
	FetchStats(ctx context.Context, m filter.Model) (dataset.Stats, error)
	FetchFilterOptions(ctx context.Context) (dataset.FilterOptions, error)
	FetchVisualization(ctx context.Context, t dataset.VisualizationType, m filter.Model) ([]dataset.AggregationRow, error)
	Export(ctx context.Context, format dataset.ExportFormat, m filter.Model) (dataapi.Export, error)
	SaveFilter(ctx context.Context, name string, m filter.Model) (dataapi.SavedFilter, error)
	SavedFilters(ctx context.Context) ([]dataapi.SavedFilter, error)
	DeleteFilter(ctx context.Context, id string) error
	ClampLimit(limit int) int
}

// DataFactory builds the data client of one session around its own credentials
type DataFactory func(tokens dataapi.TokenStore) DataPort
