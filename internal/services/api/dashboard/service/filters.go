package service

import (
	"context"
	"strings"

	"insightboard/internal/core/filter"
	"insightboard/internal/core/filterstore"
	perr "insightboard/internal/platform/errors"
	"insightboard/internal/services/api/dashboard/domain"
)

// Filters returns the session's live filter
func (s *Svc) Filters(ctx context.Context) (domain.FilterState, error) {
	b, err := s.board(ctx)
	if err != nil {
		return domain.FilterState{}, err
	}
	return b.filters(), nil
}

// SetField replaces one field; list values replace the whole list
func (s *Svc) SetField(ctx context.Context, field string, in domain.SetFieldInput) (domain.FilterState, error) {
	b, err := s.board(ctx)
	if err != nil {
		return domain.FilterState{}, err
	}
	f, v, err := fieldValue(field, in.Value)
	if err != nil {
		return domain.FilterState{}, err
	}
	if err := b.store.Update(f, v); err != nil {
		return domain.FilterState{}, err
	}
	return b.filters(), nil
}

// Patch replaces several fields as one change; nothing applies when any value is rejected
func (s *Svc) Patch(ctx context.Context, in domain.PatchInput) (domain.FilterState, error) {
	b, err := s.board(ctx)
	if err != nil {
		return domain.FilterState{}, err
	}
	p := make(filterstore.Patch, len(in.Fields))
	for raw, x := range in.Fields {
		f, v, err := fieldValue(raw, x)
		if err != nil {
			return domain.FilterState{}, err
		}
		p[f] = v
	}
	if err := b.store.UpdateMany(p); err != nil {
		return domain.FilterState{}, err
	}
	return b.filters(), nil
}

// ReplaceFilters swaps in a whole filter
func (s *Svc) ReplaceFilters(ctx context.Context, m filter.Model) (domain.FilterState, error) {
	b, err := s.board(ctx)
	if err != nil {
		return domain.FilterState{}, err
	}
	if err := b.store.Replace(filter.Canonical(m)); err != nil {
		return domain.FilterState{}, err
	}
	return b.filters(), nil
}

// ClearField unsets one field
func (s *Svc) ClearField(ctx context.Context, field string) (domain.FilterState, error) {
	b, err := s.board(ctx)
	if err != nil {
		return domain.FilterState{}, err
	}
	f, err := filter.ParseField(field)
	if err != nil {
		return domain.FilterState{}, err
	}
	b.store.Clear(f)
	return b.filters(), nil
}

// ClearAll resets the session's filter
func (s *Svc) ClearAll(ctx context.Context) (domain.FilterState, error) {
	b, err := s.board(ctx)
	if err != nil {
		return domain.FilterState{}, err
	}
	b.store.ClearAll()
	return b.filters(), nil
}

// History lists the undo steps, newest first
func (s *Svc) History(ctx context.Context) ([]domain.HistoryEntry, error) {
	b, err := s.board(ctx)
	if err != nil {
		return nil, err
	}
	return domain.HistoryFrom(b.store.History()), nil
}

// Revert undoes the latest change
func (s *Svc) Revert(ctx context.Context) (domain.FilterState, error) {
	b, err := s.board(ctx)
	if err != nil {
		return domain.FilterState{}, err
	}
	if !b.store.Revert() {
		return domain.FilterState{}, domain.ErrNothingToRevert
	}
	return b.filters(), nil
}

// Presets lists the configured presets
func (s *Svc) Presets(context.Context) ([]domain.Preset, error) {
	return append([]domain.Preset(nil), s.opts.Presets...), nil
}

// ApplyPreset replaces the session's filter with a preset
func (s *Svc) ApplyPreset(ctx context.Context, in domain.ApplyPresetInput) (domain.FilterState, error) {
	p, ok := findPreset(s.opts.Presets, in.Name)
	if !ok {
		return domain.FilterState{}, perr.WithField(perr.NotFoundf("no preset %q", in.Name), "name")
	}
	return s.ReplaceFilters(ctx, p.Filters)
}

// SavedFilters lists the filters kept by the data API
func (s *Svc) SavedFilters(ctx context.Context) ([]domain.SavedFilter, error) {
	b, err := s.board(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := b.data.SavedFilters(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.SavedFilter, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.SavedFilter{
			ID:        r.ID,
			Name:      r.Name,
			Filters:   r.Filters,
			Active:    filter.ActiveCount(r.Filters),
			CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}

// SaveFilter stores the session's filter under a name
func (s *Svc) SaveFilter(ctx context.Context, in domain.SaveFilterInput) (domain.SavedFilter, error) {
	b, err := s.board(ctx)
	if err != nil {
		return domain.SavedFilter{}, err
	}
	r, err := b.data.SaveFilter(ctx, in.Name, b.store.State())
	if err != nil {
		return domain.SavedFilter{}, err
	}
	return domain.SavedFilter{
		ID:        r.ID,
		Name:      r.Name,
		Filters:   r.Filters,
		Active:    filter.ActiveCount(r.Filters),
		CreatedAt: r.CreatedAt,
	}, nil
}

// ApplySaved loads a saved filter into the session
func (s *Svc) ApplySaved(ctx context.Context, id string) (domain.FilterState, error) {
	saved, err := s.SavedFilters(ctx)
	if err != nil {
		return domain.FilterState{}, err
	}
	id = strings.TrimSpace(id)
	for _, sf := range saved {
		if sf.ID == id {
			return s.ReplaceFilters(ctx, sf.Filters)
		}
	}
	return domain.FilterState{}, perr.WithField(perr.NotFoundf("no saved filter %q", id), "id")
}

// DeleteSaved removes a saved filter
func (s *Svc) DeleteSaved(ctx context.Context, id string) error {
	b, err := s.board(ctx)
	if err != nil {
		return err
	}
	return b.data.DeleteFilter(ctx, id)
}

// fieldValue parses a wire field and its JSON value, folding enumerated text into canonical case
func fieldValue(raw string, x any) (filter.Field, filter.Value, error) {
	f, err := filter.ParseField(raw)
	if err != nil {
		return "", filter.Value{}, err
	}
	v, err := filter.FromAny(f, x)
	if err != nil {
		return "", filter.Value{}, err
	}
	if v.Kind() == filter.KindText {
		m, err := filter.WithField(filter.Initial(), f, v)
		if err != nil {
			return "", filter.Value{}, err
		}
		v = filter.Get(filter.Canonical(m), f)
	}
	return f, v, nil
}
