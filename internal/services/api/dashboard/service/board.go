package service

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"insightboard/internal/adapters/dataapi"
	"insightboard/internal/core/dataset"
	"insightboard/internal/core/derive"
	"insightboard/internal/core/fetch"
	"insightboard/internal/core/filter"
	"insightboard/internal/core/filterstore"
	"insightboard/internal/core/query"
	perr "insightboard/internal/platform/errors"
	"insightboard/internal/platform/logger"
	"insightboard/internal/services/api/dashboard/domain"
)

// slot is one view of a board and the coordinator that keeps it loaded
type slot struct {
	view  domain.View
	coord *fetch.Coordinator[[]derive.Point]
}

// board is the state of one dashboard session:
// one filter store, one coordinator per view, its own credentials and watchers
type board struct {
	id     string
	store  *filterstore.Store
	tokens *dataapi.MemoryTokens
	data   domain.DataPort
	slots  []*slot
	hub    *hub
	log    *logger.Logger
	now    func() time.Time

	mu sync.Mutex
	by string

	seen  atomic.Int64
	unsub func()
}

type boardConfig struct {
	id       string
	token    string
	factory  domain.DataFactory
	check    func(filter.Model) error
	history  int
	watchBuf int
	base     context.Context
	log      *logger.Logger
	now      func() time.Time
}

func newBoard(c boardConfig) *board {
	tokens := dataapi.NewMemoryTokens(c.token)
	b := &board{
		id:     c.id,
		tokens: tokens,
		data:   c.factory(tokens),
		hub:    newHub(c.watchBuf),
		log:    c.log,
		now:    c.now,
	}
	b.touch()
	b.store = filterstore.New(filterstore.Options{
		HistoryLimit: c.history,
		Logger:       c.log,
		Check:        c.check,
	})
	b.unsub = b.store.Subscribe(func(m filter.Model) {
		st := stateOf(b.id, m)
		b.hub.publish(domain.Event{Type: domain.EventFilters, Session: b.id, Filters: &st, At: b.now()})
	})

	for _, v := range domain.Views() {
		s := &slot{view: v}
		s.coord = fetch.New(string(v.ID), b.loader(v),
			fetch.WithLogger(c.log),
			fetch.WithContext(c.base),
			fetch.SkipUnchanged(),
		)
		s.coord.OnChange(func(snap fetch.Snapshot[[]derive.Point]) {
			vs := b.render(s, snap)
			b.hub.publish(domain.Event{Type: domain.EventView, Session: b.id, View: &vs, At: b.now()})
		})
		b.slots = append(b.slots, s)
	}
	for _, s := range b.slots {
		s.coord.Attach(b.store)
	}
	return b
}

// loader fetches one view; the intensity view reads its grouping at call time
func (b *board) loader(v domain.View) fetch.Loader[[]derive.Point] {
	return func(ctx context.Context, m filter.Model) ([]derive.Point, error) {
		t, spec := b.shape(v)
		rows, err := b.data.FetchVisualization(ctx, t, m)
		if err != nil {
			return nil, err
		}
		return spec.Apply(rows), nil
	}
}

// shape resolves the visualization type and derivation of v under the board's parameters
func (b *board) shape(v domain.View) (dataset.VisualizationType, derive.Spec) {
	if v.ID != domain.ViewIntensity {
		return v.Type, v.Spec
	}
	t, err := domain.IntensityType(b.intensityBy())
	if err != nil {
		return v.Type, v.Spec
	}
	spec, ok := derive.For(t)
	if !ok {
		return v.Type, v.Spec
	}
	return t, spec
}

func (b *board) intensityBy() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.by == "" {
		return domain.ByCountry
	}
	return b.by
}

// setIntensityBy changes the grouping and reports whether it differs from the current one
// by is stored in its canonical lower case so "SECTOR" and "sector" are the same grouping
func (b *board) setIntensityBy(by string) (bool, error) {
	by = strings.ToLower(strings.TrimSpace(by))
	if _, err := domain.IntensityType(by); err != nil {
		return false, err
	}
	if by == "" {
		by = domain.ByCountry
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	cur := b.by
	if cur == "" {
		cur = domain.ByCountry
	}
	b.by = by
	return cur != by, nil
}

func (b *board) slot(id domain.ViewID) (*slot, error) {
	for _, s := range b.slots {
		if s.view.ID == id {
			return s, nil
		}
	}
	return nil, perr.WithField(perr.NotFoundf("unknown view %q", string(id)), "view")
}

// render maps a coordinator snapshot onto the wire view
func (b *board) render(s *slot, snap fetch.Snapshot[[]derive.Point]) domain.ViewSnapshot {
	t, spec := b.shape(s.view)
	out := domain.ViewSnapshot{
		ID:         s.view.ID,
		Title:      s.view.Title,
		Chart:      s.view.Chart,
		Type:       string(t),
		State:      snap.State,
		Loading:    snap.Loading(),
		Metrics:    spec.MetricNames(),
		Points:     snap.Data,
		Generation: snap.Generation,
		UpdatedAt:  snap.UpdatedAt,
	}
	if s.view.ID == domain.ViewIntensity {
		out.By = b.intensityBy()
	}
	if out.Points == nil {
		out.Points = []derive.Point{}
	}
	if snap.Err != nil {
		out.Error = &domain.ViewError{
			Kind:      dataapi.Kind(snap.Err),
			Message:   perr.WireFrom(snap.Err).Message,
			Retryable: perr.Retryable(snap.Err),
		}
	}
	return out
}

func (b *board) snapshot(s *slot) domain.ViewSnapshot { return b.render(s, s.coord.Snapshot()) }

func (b *board) snapshots() []domain.ViewSnapshot {
	out := make([]domain.ViewSnapshot, 0, len(b.slots))
	for _, s := range b.slots {
		out = append(out, b.snapshot(s))
	}
	return out
}

// refreshAll reloads every view with its last issued filter
func (b *board) refreshAll() {
	for _, s := range b.slots {
		s.coord.Refresh()
	}
}

// wait blocks until no view is loading or ctx ends
func (b *board) wait(ctx context.Context) error {
	for _, s := range b.slots {
		if err := s.coord.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (b *board) filters() domain.FilterState { return stateOf(b.id, b.store.State()) }

func (b *board) info() domain.SessionInfo {
	return domain.SessionInfo{
		Session:  b.id,
		HasToken: b.tokens.Token() != "",
		Active:   b.store.ActiveCount(),
		Views:    domain.ViewIDs(),
		LastSeen: b.lastSeen(),
	}
}

// seed returns what a new watcher sees first: the filter then every view
func (b *board) seed() []domain.Event {
	at := b.now()
	st := b.filters()
	out := []domain.Event{{Type: domain.EventFilters, Session: b.id, Filters: &st, At: at}}
	for _, vs := range b.snapshots() {
		vs := vs
		out = append(out, domain.Event{Type: domain.EventView, Session: b.id, View: &vs, At: at})
	}
	return out
}

func (b *board) touch()              { b.seen.Store(b.now().UnixNano()) }
func (b *board) lastSeen() time.Time { return time.Unix(0, b.seen.Load()).UTC() }

// close stops every load and drops watchers
func (b *board) close() {
	for _, s := range b.slots {
		s.coord.Close()
	}
	if b.unsub != nil {
		b.unsub()
	}
	b.hub.close()
}

// stateOf renders a model as the session's filter state
func stateOf(session string, m filter.Model) domain.FilterState {
	return domain.FilterState{
		Session: session,
		Filters: m,
		Active:  filter.ActiveCount(m),
		Summary: filter.Summary(m),
		Query:   query.Encode(m),
	}
}
