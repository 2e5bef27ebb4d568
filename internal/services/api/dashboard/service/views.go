package service

import (
	"context"
	"strings"
	"sync"

	"insightboard/internal/core/dataset"
	"insightboard/internal/core/derive"
	"insightboard/internal/core/filter"
	perr "insightboard/internal/platform/errors"
	"insightboard/internal/services/api/dashboard/domain"

	"golang.org/x/sync/errgroup"
)

// Views returns every view of the session in display order
func (s *Svc) Views(ctx context.Context) ([]domain.ViewSnapshot, error) {
	b, err := s.board(ctx)
	if err != nil {
		return nil, err
	}
	return b.snapshots(), nil
}

// View returns one view; a new intensity grouping reloads it and Wait blocks until it settles
func (s *Svc) View(ctx context.Context, id string, in domain.ViewParams) (domain.ViewSnapshot, error) {
	b, err := s.board(ctx)
	if err != nil {
		return domain.ViewSnapshot{}, err
	}
	v, err := domain.ParseView(id)
	if err != nil {
		return domain.ViewSnapshot{}, err
	}
	sl, err := b.slot(v.ID)
	if err != nil {
		return domain.ViewSnapshot{}, err
	}
	if v.ID == domain.ViewIntensity && in.By != "" {
		changed, err := b.setIntensityBy(in.By)
		if err != nil {
			return domain.ViewSnapshot{}, err
		}
		if changed {
			sl.coord.Refresh()
		}
	}
	if in.Wait {
		if err := sl.coord.Wait(ctx); err != nil {
			return domain.ViewSnapshot{}, perr.Wrap(err, perr.ErrorCodeTimeout, "view still loading")
		}
	}
	return b.snapshot(sl), nil
}

// Refresh reloads one view with the current filter, the manual retry after a failure
func (s *Svc) Refresh(ctx context.Context, id string) (domain.ViewSnapshot, error) {
	b, err := s.board(ctx)
	if err != nil {
		return domain.ViewSnapshot{}, err
	}
	v, err := domain.ParseView(id)
	if err != nil {
		return domain.ViewSnapshot{}, err
	}
	sl, err := b.slot(v.ID)
	if err != nil {
		return domain.ViewSnapshot{}, err
	}
	sl.coord.Trigger(b.store.State())
	return b.snapshot(sl), nil
}

// Overview loads the stats and every view for the current filter in one round
// the first failure cancels the rest
func (s *Svc) Overview(ctx context.Context) (domain.Overview, error) {
	b, err := s.board(ctx)
	if err != nil {
		return domain.Overview{}, err
	}
	m := b.store.State()
	out := domain.Overview{
		Filters: stateOf(b.id, m),
		Views:   make(map[domain.ViewID][]derive.Point, len(b.slots)),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		st, err := b.data.FetchStats(gctx, m)
		if err != nil {
			return err
		}
		mu.Lock()
		out.Stats = st
		mu.Unlock()
		return nil
	})
	for _, sl := range b.slots {
		sl := sl
		g.Go(func() error {
			t, spec := b.shape(sl.view)
			rows, err := b.data.FetchVisualization(gctx, t, m)
			if err != nil {
				return perr.WithField(err, string(sl.view.ID))
			}
			pts := spec.Apply(rows)
			mu.Lock()
			out.Views[sl.view.ID] = pts
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Overview{}, err
	}
	return out, nil
}

// Stats returns summary statistics for the session's filter
func (s *Svc) Stats(ctx context.Context) (dataset.Stats, error) {
	b, err := s.board(ctx)
	if err != nil {
		return dataset.Stats{}, err
	}
	return b.data.FetchStats(ctx, b.store.State())
}

// Records pages through the raw records of the session's filter
func (s *Svc) Records(ctx context.Context, in domain.RecordsQuery) (dataset.RecordsPage, error) {
	b, err := s.board(ctx)
	if err != nil {
		return dataset.RecordsPage{}, err
	}
	return b.data.FetchRecords(ctx, b.store.State(), in.Page, in.Limit)
}

// Options browses one column of the filter options: search, sort, then cut
func (s *Svc) Options(ctx context.Context, in domain.OptionsQuery) ([]dataset.OptionCount, error) {
	b, err := s.board(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.filterOptions(ctx, b)
	if err != nil {
		return nil, err
	}
	by := dataset.SortByCount
	if in.Sort == string(dataset.SortByName) {
		by = dataset.SortByName
	}
	out := dataset.SortOptions(dataset.Search(all.Column(in.Column), in.Search), by)
	if in.Limit > 0 && len(out) > in.Limit {
		out = out[:in.Limit]
	}
	return out, nil
}

// filterOptions serves the shared option cache, refilling it through b when stale
func (s *Svc) filterOptions(ctx context.Context, b *board) (dataset.FilterOptions, error) {
	if s.opts.OptionsTTL < 0 {
		return b.data.FetchFilterOptions(ctx)
	}
	s.optMu.Lock()
	defer s.optMu.Unlock()
	if !s.optAt.IsZero() && s.now().Sub(s.optAt) < s.opts.OptionsTTL {
		return s.options, nil
	}
	fo, err := b.data.FetchFilterOptions(ctx)
	if err != nil {
		return dataset.FilterOptions{}, err
	}
	s.options, s.optAt = fo, s.now()
	return fo, nil
}

// Topic returns the likelihood breakdown of one topic, independent of the session's filter
func (s *Svc) Topic(ctx context.Context, topic string) (domain.TopicDetail, error) {
	b, err := s.board(ctx)
	if err != nil {
		return domain.TopicDetail{}, err
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return domain.TopicDetail{}, perr.WithField(perr.InvalidArgf("topic is required"), "topic")
	}
	m, err := filter.WithField(filter.Initial(), filter.FieldTopics, filter.List(topic))
	if err != nil {
		return domain.TopicDetail{}, err
	}
	pts, err := s.shaped(ctx, b, dataset.LikelihoodByTopic, m)
	if err != nil {
		return domain.TopicDetail{}, err
	}
	if len(pts) == 0 {
		return domain.TopicDetail{}, perr.WithField(perr.NotFoundf("no data for topic %q", topic), "topic")
	}
	return domain.TopicDetail{Topic: pts[0].Label, Point: pts[0]}, nil
}

func (s *Svc) shaped(ctx context.Context, b *board, t dataset.VisualizationType, m filter.Model) ([]derive.Point, error) {
	rows, err := b.data.FetchVisualization(ctx, t, m)
	if err != nil {
		return nil, err
	}
	return derive.Transform(t, rows)
}
