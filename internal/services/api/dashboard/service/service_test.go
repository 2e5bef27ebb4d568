package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"insightboard/internal/adapters/dataapi"
	"insightboard/internal/core/dataset"
	"insightboard/internal/core/fetch"
	"insightboard/internal/core/filter"
	perr "insightboard/internal/platform/errors"
	pnet "insightboard/internal/platform/net"
	"insightboard/internal/platform/testkit"
	"insightboard/internal/services/api/dashboard/domain"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// fakeData answers every call from fixed data; vis may be swapped per test
type fakeData struct {
	mu      sync.Mutex
	vis     func(dataset.VisualizationType, filter.Model) ([]dataset.AggregationRow, error)
	types   []dataset.VisualizationType
	stats   dataset.Stats
	err     error
	records dataset.RecordsPage
	options dataset.FilterOptions
	saved   []dataapi.SavedFilter
	export  dataapi.Export

	optCalls  atomic.Int32
	visCalls  atomic.Int32
	lastLimit atomic.Int32
	tokens    []dataapi.TokenStore
}

// sessionData is the per session view of fakeData with the session's tokens
type sessionData struct {
	*fakeData
	tokens dataapi.TokenStore
}

func (f *fakeData) factory(ts dataapi.TokenStore) domain.DataPort {
	f.mu.Lock()
	f.tokens = append(f.tokens, ts)
	f.mu.Unlock()
	return sessionData{fakeData: f, tokens: ts}
}

func (f *fakeData) setVis(fn func(dataset.VisualizationType, filter.Model) ([]dataset.AggregationRow, error)) {
	f.mu.Lock()
	f.vis = fn
	f.mu.Unlock()
}

func (f *fakeData) FetchRecords(_ context.Context, _ filter.Model, _, limit int) (dataset.RecordsPage, error) {
	f.lastLimit.Store(int32(limit))
	return f.records, f.err
}

func (f *fakeData) FetchStats(context.Context, filter.Model) (dataset.Stats, error) {
	return f.stats, f.err
}

func (f *fakeData) FetchFilterOptions(context.Context) (dataset.FilterOptions, error) {
	f.optCalls.Add(1)
	return f.options, f.err
}

func (f *fakeData) FetchVisualization(_ context.Context, t dataset.VisualizationType, m filter.Model) ([]dataset.AggregationRow, error) {
	f.visCalls.Add(1)
	f.mu.Lock()
	f.types = append(f.types, t)
	fn := f.vis
	f.mu.Unlock()
	if fn != nil {
		return fn(t, m)
	}
	return rowsFor(t, m), nil
}

func (f *fakeData) Export(_ context.Context, format dataset.ExportFormat, _ filter.Model) (dataapi.Export, error) {
	x := f.export
	x.Format = format
	return x, f.err
}

func (f *fakeData) SaveFilter(_ context.Context, name string, m filter.Model) (dataapi.SavedFilter, error) {
	sf := dataapi.SavedFilter{ID: "id-" + name, Name: name, Filters: m}
	f.mu.Lock()
	f.saved = append(f.saved, sf)
	f.mu.Unlock()
	return sf, f.err
}

func (f *fakeData) SavedFilters(context.Context) ([]dataapi.SavedFilter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]dataapi.SavedFilter(nil), f.saved...), f.err
}

func (f *fakeData) DeleteFilter(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, sf := range f.saved {
		if sf.ID == id {
			f.saved = append(f.saved[:i], f.saved[i+1:]...)
			return nil
		}
	}
	return perr.NotFoundf("no filter %s", id)
}

func (f *fakeData) ClampLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	return min(limit, 1000)
}

// rowsFor labels the single row with the start year so tests can see which filter was used
func rowsFor(t dataset.VisualizationType, m filter.Model) []dataset.AggregationRow {
	key := "any"
	if m.StartYear != nil {
		key = strconv.Itoa(*m.StartYear)
	}
	return []dataset.AggregationRow{{
		Key:     key,
		Metrics: map[string]float64{"avgIntensity": 5.556, "avgLikelihood": 3, "avgRelevance": 2},
		Count:   len(string(t)),
	}}
}

func ordered(m filter.Model) error {
	if bad := filter.Inverted(m); len(bad) > 0 {
		return perr.WithField(perr.Validationf("%s must not be greater than %s", bad[0].Min, bad[0].Max), string(bad[0].Min))
	}
	return nil
}

func newSvc(t *testing.T, fd *fakeData, mod ...func(*Options)) *Svc {
	t.Helper()
	nop := zerolog.Nop()
	o := Options{Data: fd.factory, Check: ordered, Logger: &nop}
	for _, fn := range mod {
		fn(&o)
	}
	s := New(o)
	t.Cleanup(s.Close)
	return s
}

func session(id string) context.Context {
	return pnet.WithSession(context.Background(), id)
}

func settle(t *testing.T, s *Svc, ctx context.Context) {
	t.Helper()
	b, err := s.board(ctx)
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	wctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := b.wait(wctx); err != nil {
		t.Fatalf("views did not settle: %v", err)
	}
}

func TestSetField_CanonicalAndWholeListReplace(t *testing.T) {
	s := newSvc(t, &fakeData{})
	ctx := session("a")

	if _, err := s.SetField(ctx, "topics", domain.SetFieldInput{Value: []any{"oil", "gas", "oil"}}); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	st, err := s.SetField(ctx, "pestle", domain.SetFieldInput{Value: "economic"})
	if err != nil {
		t.Fatalf("SetField: %v", err)
	}
	if st.Filters.Pestle == nil || *st.Filters.Pestle != "Economic" {
		t.Fatalf("pestle = %v", st.Filters.Pestle)
	}
	if len(st.Filters.Topics) != 2 || st.Active != 2 || st.Query["topics"] != "oil,gas" {
		t.Fatalf("state = %+v", st)
	}

	st, err = s.SetField(ctx, "topics", domain.SetFieldInput{Value: []any{"coal"}})
	if err != nil {
		t.Fatalf("SetField: %v", err)
	}
	if len(st.Filters.Topics) != 1 || st.Filters.Topics[0] != "coal" {
		t.Fatalf("topics = %v, want the list replaced", st.Filters.Topics)
	}

	st, err = s.SetField(ctx, "topics", domain.SetFieldInput{Value: nil})
	if err != nil || len(st.Filters.Topics) != 0 || st.Active != 1 {
		t.Fatalf("clearing via null: %+v %v", st, err)
	}
}

func TestSetField_Rejections(t *testing.T) {
	s := newSvc(t, &fakeData{})
	ctx := session("a")

	cases := []struct {
		field string
		value any
		code  perr.ErrorCode
	}{
		{"nope", 1, perr.ErrorCodeInvalidArgument},
		{"startYear", "soon", perr.ErrorCodeInvalidArgument},
		{"topics", 12.0, perr.ErrorCodeInvalidArgument},
	}
	for _, c := range cases {
		_, err := s.SetField(ctx, c.field, domain.SetFieldInput{Value: c.value})
		if !perr.IsCode(err, c.code) {
			t.Fatalf("%s=%v: err = %v", c.field, c.value, err)
		}
	}

	if _, err := s.SetField(ctx, "startYear", domain.SetFieldInput{Value: 2020.0}); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	_, err := s.SetField(ctx, "endYear", domain.SetFieldInput{Value: 2010.0})
	if !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("inverted range err = %v", err)
	}
	st, _ := s.Filters(ctx)
	if st.Filters.EndYear != nil {
		t.Fatalf("rejected value was stored: %+v", st.Filters)
	}
}

func TestPatch_AllOrNothing(t *testing.T) {
	s := newSvc(t, &fakeData{})
	ctx := session("a")

	_, err := s.Patch(ctx, domain.PatchInput{Fields: map[string]any{"startYear": 2016.0, "swot": 3.0}})
	if err == nil {
		t.Fatalf("bad patch accepted")
	}
	st, _ := s.Filters(ctx)
	if st.Active != 0 {
		t.Fatalf("partial patch applied: %+v", st)
	}

	st, err = s.Patch(ctx, domain.PatchInput{Fields: map[string]any{"startYear": 2016.0, "swot": "Threat"}})
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if st.Active != 2 || *st.Filters.SWOT != "threat" {
		t.Fatalf("state = %+v", st)
	}
	testkit.MustContain(t, strings.Join(st.Summary, "|"), "Years: 2016 - Any")

	h, _ := s.History(ctx)
	if len(h) != 1 || h[0].Op != "update_many" {
		t.Fatalf("history = %+v", h)
	}
}

func TestRevert(t *testing.T) {
	s := newSvc(t, &fakeData{})
	ctx := session("a")

	if _, err := s.Revert(ctx); !perr.IsCode(err, perr.ErrorCodeConflict) {
		t.Fatalf("Revert on fresh session: %v", err)
	}
	_, _ = s.SetField(ctx, "cities", domain.SetFieldInput{Value: []any{"Paris"}})
	_, _ = s.SetField(ctx, "cities", domain.SetFieldInput{Value: []any{"Rome"}})

	st, err := s.Revert(ctx)
	if err != nil {
		t.Fatalf("Revert: %v", err)
	}
	if st.Filters.Cities[0] != "Paris" {
		t.Fatalf("cities = %v", st.Filters.Cities)
	}
	if st, _ = s.ClearAll(ctx); st.Active != 0 {
		t.Fatalf("ClearAll: %+v", st)
	}
}

func TestViews_FollowFilterChanges(t *testing.T) {
	fd := &fakeData{}
	s := newSvc(t, fd)
	ctx := session("a")

	views, err := s.Views(ctx)
	if err != nil || len(views) != len(domain.ViewIDs()) {
		t.Fatalf("Views = %d, %v", len(views), err)
	}
	settle(t, s, ctx)

	_, _ = s.SetField(ctx, "startYear", domain.SetFieldInput{Value: 2019.0})
	settle(t, s, ctx)

	v, err := s.View(ctx, "likelihood-trend", domain.ViewParams{})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if v.State != fetch.StateReady || len(v.Points) != 1 || v.Points[0].Label != "2019" {
		t.Fatalf("view = %+v", v)
	}
	if v.Points[0].Values["intensity"] != 5.56 {
		t.Fatalf("values = %v, want rounded metrics", v.Points[0].Values)
	}
	if strings.Join(v.Metrics, ",") != "likelihood,intensity,relevance" {
		t.Fatalf("metrics = %v", v.Metrics)
	}

	if _, err := s.View(ctx, "radar", domain.ViewParams{}); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("unknown view err = %v", err)
	}
}

func TestView_IntensityGrouping(t *testing.T) {
	fd := &fakeData{}
	s := newSvc(t, fd)
	ctx := session("a")
	settle(t, s, ctx)

	v, err := s.View(ctx, "intensity", domain.ViewParams{By: "sector", Wait: true})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if v.Type != string(dataset.IntensityBySector) || v.By != "sector" || v.State != fetch.StateReady {
		t.Fatalf("view = %+v", v)
	}
	if v.Points[0].Count != len(string(dataset.IntensityBySector)) {
		t.Fatalf("points came from %d", v.Points[0].Count)
	}

	before := fd.visCalls.Load()
	if _, err := s.View(ctx, "intensity", domain.ViewParams{By: "sector", Wait: true}); err != nil {
		t.Fatalf("View: %v", err)
	}
	if fd.visCalls.Load() != before {
		t.Fatalf("same grouping reloaded the view")
	}
	v, err = s.View(ctx, "intensity", domain.ViewParams{By: " SECTOR ", Wait: true})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if v.By != "sector" || fd.visCalls.Load() != before {
		t.Fatalf("grouping should be case insensitive: by=%q extra loads=%d", v.By, fd.visCalls.Load()-before)
	}
	if _, err := s.View(ctx, "intensity", domain.ViewParams{By: "planet"}); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("bad grouping err = %v", err)
	}
}

func TestView_FailureKeepsPointsAndRefreshRecovers(t *testing.T) {
	fd := &fakeData{}
	s := newSvc(t, fd)
	ctx := session("a")
	settle(t, s, ctx)

	fd.setVis(func(dataset.VisualizationType, filter.Model) ([]dataset.AggregationRow, error) {
		return nil, perr.Timeoutf("request timed out")
	})
	_, _ = s.SetField(ctx, "startYear", domain.SetFieldInput{Value: 2020.0})
	settle(t, s, ctx)

	v, _ := s.View(ctx, "topics", domain.ViewParams{})
	if v.State != fetch.StateFailed || v.Error == nil || v.Error.Kind != dataapi.KindTimeout || !v.Error.Retryable {
		t.Fatalf("view = %+v err=%+v", v, v.Error)
	}
	if len(v.Points) != 1 || v.Points[0].Label != "any" {
		t.Fatalf("previous points lost: %+v", v.Points)
	}

	fd.setVis(nil)
	if _, err := s.Refresh(ctx, "topics"); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	v, _ = s.View(ctx, "topics", domain.ViewParams{Wait: true})
	if v.State != fetch.StateReady || v.Error != nil || v.Points[0].Label != "2020" {
		t.Fatalf("after refresh = %+v", v)
	}
}

func TestSessions_AreIsolated(t *testing.T) {
	fd := &fakeData{}
	s := newSvc(t, fd, func(o *Options) { o.Token = "shared" })
	a, b := session("a"), session("b")

	_, _ = s.SetField(a, "regions", domain.SetFieldInput{Value: []any{"Asia"}})
	st, _ := s.Filters(b)
	if st.Active != 0 || st.Session != "b" {
		t.Fatalf("session b sees %+v", st)
	}

	if _, err := s.SetToken(a, domain.TokenInput{Token: "tok-a"}); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	ib, _ := s.Session(b)
	if !ib.HasToken {
		t.Fatalf("b should keep the seeded token")
	}
	ia, _ := s.ClearToken(a)
	if ia.HasToken {
		t.Fatalf("a still has a token")
	}
	if got := s.Sessions(); strings.Join(got, ",") != "a,b" {
		t.Fatalf("Sessions = %v", got)
	}

	if err := s.EndSession(a); err != nil {
		t.Fatalf("EndSession: %v", err)
	}
	if err := s.EndSession(a); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("second EndSession: %v", err)
	}
	st, _ = s.Filters(a)
	if st.Active != 0 {
		t.Fatalf("ended session kept its filter")
	}
}

func TestSession_ForwardedTokenWins(t *testing.T) {
	fd := &fakeData{}
	s := newSvc(t, fd, func(o *Options) { o.Token = "seed" })

	ctx := pnet.WithToken(session("a"), "from-header")
	if _, err := s.Session(ctx); err != nil {
		t.Fatalf("Session: %v", err)
	}
	fd.mu.Lock()
	tok := fd.tokens[0].Token()
	fd.mu.Unlock()
	if tok != "from-header" {
		t.Fatalf("token = %q", tok)
	}
}

func TestSessions_CapacityEvictsLeastRecent(t *testing.T) {
	s := newSvc(t, &fakeData{}, func(o *Options) { o.MaxSessions = 2 })
	var clock atomic.Int64
	clock.Store(1000)
	s.now = func() time.Time { return time.Unix(clock.Load(), 0) }

	_, _ = s.Session(session("a"))
	clock.Add(1)
	_, _ = s.Session(session("b"))
	clock.Add(1)
	_, _ = s.Session(session("a"))
	clock.Add(1)
	_, _ = s.Session(session("c"))

	if got := strings.Join(s.Sessions(), ","); got != "a,c" {
		t.Fatalf("Sessions = %s", got)
	}

	clock.Add(3600)
	if n := s.Sweep(s.now().Add(-time.Minute)); n != 2 {
		t.Fatalf("Sweep dropped %d", n)
	}
}

func TestPresets(t *testing.T) {
	s := newSvc(t, &fakeData{})
	ctx := session("a")

	ps, _ := s.Presets(ctx)
	if len(ps) != 4 || ps[1].Name != "High Impact" || ps[1].Active != 2 {
		t.Fatalf("presets = %+v", ps)
	}
	st, err := s.ApplyPreset(ctx, domain.ApplyPresetInput{Name: "technology focus"})
	if err != nil {
		t.Fatalf("ApplyPreset: %v", err)
	}
	if *st.Filters.StartYear != 2020 || strings.Join(st.Filters.Topics, ",") != "Technology,Innovation,Digital" {
		t.Fatalf("state = %+v", st.Filters)
	}
	if _, err := s.ApplyPreset(ctx, domain.ApplyPresetInput{Name: "nope"}); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("unknown preset err = %v", err)
	}
}

func TestParsePresets_Errors(t *testing.T) {
	cases := map[string]string{
		"no name":   "presets:\n  - filters: {topics: [a]}\n",
		"duplicate": "presets:\n  - name: A\n  - name: a\n",
		"field":     "presets:\n  - name: A\n    filters: {colour: red}\n",
		"kind":      "presets:\n  - name: A\n    filters: {startYear: [1, 2]}\n",
		"yaml":      "presets: [",
	}
	for name, doc := range cases {
		if _, err := ParsePresets([]byte(doc)); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
			t.Fatalf("%s: err = %v", name, err)
		}
	}
	ps, err := ParsePresets([]byte("presets:\n  - name: Energy\n    filters: {pestle: economic, intensityMax: 40}\n"))
	if err != nil || *ps[0].Filters.Pestle != "Economic" || *ps[0].Filters.IntensityMax != 40 {
		t.Fatalf("ParsePresets = %+v, %v", ps, err)
	}
}

func TestSavedFilters_RoundTrip(t *testing.T) {
	fd := &fakeData{}
	s := newSvc(t, fd)
	ctx := session("a")

	_, _ = s.SetField(ctx, "countries", domain.SetFieldInput{Value: []any{"India"}})
	sf, err := s.SaveFilter(ctx, domain.SaveFilterInput{Name: "india"})
	if err != nil || sf.ID != "id-india" || sf.Active != 1 {
		t.Fatalf("SaveFilter = %+v, %v", sf, err)
	}
	_, _ = s.ClearAll(ctx)

	st, err := s.ApplySaved(ctx, "id-india")
	if err != nil || st.Filters.Countries[0] != "India" {
		t.Fatalf("ApplySaved = %+v, %v", st, err)
	}
	if _, err := s.ApplySaved(ctx, "missing"); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("missing saved err = %v", err)
	}
	if err := s.DeleteSaved(ctx, "id-india"); err != nil {
		t.Fatalf("DeleteSaved: %v", err)
	}
	if list, _ := s.SavedFilters(ctx); len(list) != 0 {
		t.Fatalf("list = %+v", list)
	}
}

func TestOverview_FansOutAndFailsAsOne(t *testing.T) {
	fd := &fakeData{stats: dataset.Stats{TotalRecords: 42}}
	s := newSvc(t, fd)
	ctx := session("a")

	ov, err := s.Overview(ctx)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if ov.Stats.TotalRecords != 42 || len(ov.Views) != len(domain.ViewIDs()) {
		t.Fatalf("overview = %+v", ov)
	}
	for id, pts := range ov.Views {
		if len(pts) != 1 {
			t.Fatalf("%s points = %+v", id, pts)
		}
	}

	fd.setVis(func(vt dataset.VisualizationType, m filter.Model) ([]dataset.AggregationRow, error) {
		if vt == dataset.PestleDistribution {
			return nil, perr.Upstreamf("analytics api 500")
		}
		return rowsFor(vt, m), nil
	})
	if _, err := s.Overview(ctx); !perr.IsCode(err, perr.ErrorCodeUpstream) {
		t.Fatalf("Overview err = %v", err)
	}
}

func TestOptions_CachedSearchedSorted(t *testing.T) {
	fd := &fakeData{options: dataset.FilterOptions{Topics: []dataset.OptionCount{
		{ID: "oil", Count: 3}, {ID: "gas", Count: 9}, {ID: "Oil sands", Count: 1}, {ID: "", Count: 4},
	}}}
	s := newSvc(t, fd)
	ctx := session("a")

	got, err := s.Options(ctx, domain.OptionsQuery{Column: "topics"})
	if err != nil {
		t.Fatalf("Options: %v", err)
	}
	if len(got) != 3 || got[0].ID != "gas" {
		t.Fatalf("by count = %+v", got)
	}
	got, _ = s.Options(ctx, domain.OptionsQuery{Column: "topics", Search: "OIL", Sort: "name", Limit: 1})
	if len(got) != 1 || got[0].ID != "oil" {
		t.Fatalf("search = %+v", got)
	}
	if fd.optCalls.Load() != 1 {
		t.Fatalf("options fetched %d times, want cached", fd.optCalls.Load())
	}
}

func TestTopic(t *testing.T) {
	fd := &fakeData{}
	s := newSvc(t, fd)
	ctx := session("a")

	var seen filter.Model
	fd.setVis(func(vt dataset.VisualizationType, m filter.Model) ([]dataset.AggregationRow, error) {
		// the session's own views load with no topic and get nothing
		if vt != dataset.LikelihoodByTopic || len(m.Topics) != 1 {
			return []dataset.AggregationRow{}, nil
		}
		seen = m
		if m.Topics[0] == "ghost" {
			return []dataset.AggregationRow{}, nil
		}
		return []dataset.AggregationRow{{Key: m.Topics[0], Metrics: map[string]float64{"avgLikelihood": 3.333}, Count: 7}}, nil
	})

	d, err := s.Topic(ctx, " oil ")
	if err != nil {
		t.Fatalf("Topic: %v", err)
	}
	if d.Topic != "oil" || d.Point.Values["likelihood"] != 3.33 || d.Point.Count != 7 {
		t.Fatalf("detail = %+v", d)
	}
	if len(seen.Topics) != 1 || filter.ActiveCount(seen) != 1 {
		t.Fatalf("topic query used %+v", seen)
	}
	if _, err := s.Topic(ctx, "ghost"); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("ghost err = %v", err)
	}
	if _, err := s.Topic(ctx, "  "); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("blank err = %v", err)
	}
}

func TestExport(t *testing.T) {
	fd := &fakeData{
		records: dataset.RecordsPage{Data: []dataset.Record{
			{ID: "r1", Title: "Oil, gas", Topic: "oil", Intensity: "6", StartYear: "2017"},
			{ID: "r2", Topic: "gas", Relevance: "2.5"},
		}},
		export: dataapi.Export{ContentType: "text/csv", Body: []byte("remote")},
	}
	s := newSvc(t, fd)
	ctx := session("a")

	f, err := s.Export(ctx, domain.ExportInput{})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !strings.HasSuffix(f.Name, ".csv") || !strings.HasPrefix(f.ContentType, "text/csv") {
		t.Fatalf("file = %s %s", f.Name, f.ContentType)
	}
	rows, err := csv.NewReader(bytes.NewReader(f.Body)).ReadAll()
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	if len(rows) != 3 || rows[0][0] != "id" || rows[1][1] != "Oil, gas" || rows[1][10] != "6" {
		t.Fatalf("rows = %v", rows)
	}
	if fd.lastLimit.Load() != 100 {
		t.Fatalf("limit = %d", fd.lastLimit.Load())
	}

	f, err = s.Export(ctx, domain.ExportInput{Format: "excel", Limit: 5000})
	if err != nil {
		t.Fatalf("Export excel: %v", err)
	}
	if !strings.HasSuffix(f.Name, ".xlsx") || fd.lastLimit.Load() != 1000 {
		t.Fatalf("excel name=%s limit=%d", f.Name, fd.lastLimit.Load())
	}
	x, err := excelize.OpenReader(bytes.NewReader(f.Body))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer func() { _ = x.Close() }()
	if v, _ := x.GetCellValue(sheetName, "K2"); v != "6" {
		t.Fatalf("K2 = %q", v)
	}
	if v, _ := x.GetCellValue(sheetName, "A3"); v != "r2" {
		t.Fatalf("A3 = %q", v)
	}

	f, err = s.Export(ctx, domain.ExportInput{Format: "json", Source: domain.SourceRemote})
	if err != nil || string(f.Body) != "remote" || f.ContentType != "text/csv" {
		t.Fatalf("remote = %+v, %v", f, err)
	}
	if _, err := s.Export(ctx, domain.ExportInput{Format: "pdf"}); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("pdf err = %v", err)
	}
}

func TestRender_EmptyJSONIsArray(t *testing.T) {
	b, err := Render(dataset.ExportJSON, nil)
	if err != nil || string(b) != "[]" {
		t.Fatalf("Render = %q, %v", b, err)
	}
}

func TestWatch_SeedsThenStreams(t *testing.T) {
	s := newSvc(t, &fakeData{})
	ctx, cancel := context.WithCancel(session("a"))
	defer cancel()
	settle(t, s, ctx)

	events, stop, err := s.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer stop()

	first := <-events
	if first.Type != domain.EventFilters || first.Filters == nil {
		t.Fatalf("first event = %+v", first)
	}
	for range domain.ViewIDs() {
		if ev := <-events; ev.Type != domain.EventView || ev.View.State != fetch.StateReady {
			t.Fatalf("seed event = %+v", ev)
		}
	}

	_, _ = s.SetField(ctx, "swot", domain.SetFieldInput{Value: "threat"})
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Type == domain.EventFilters && ev.Filters.Active == 1 {
				cancel()
				for range events {
				}
				return
			}
		case <-timeout:
			t.Fatalf("no filter event")
		}
	}
}

func TestClose_EndsWatchersAndRejectsCalls(t *testing.T) {
	nop := zerolog.Nop()
	s := New(Options{Data: (&fakeData{}).factory, Logger: &nop})
	ctx := session("a")
	events, _, err := s.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	s.Close()
	for range events {
	}
	if _, err := s.Filters(ctx); !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("after Close err = %v", err)
	}
	testkit.MustPanic(t, func() { New(Options{}) })
}
