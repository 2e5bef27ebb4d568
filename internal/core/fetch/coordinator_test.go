package fetch

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"insightboard/internal/core/filter"
	"insightboard/internal/core/filterstore"
	perr "insightboard/internal/platform/errors"

	"github.com/rs/zerolog"
)

type outcome struct {
	data []int
	err  error
}

// scripted answers each load with the outcome pushed for its startYear, in whatever order the test releases them
type scripted struct {
	mu    sync.Mutex
	ch    map[int]chan outcome
	calls atomic.Int32
}

func newScripted() *scripted { return &scripted{ch: map[int]chan outcome{}} }

func (s *scripted) gate(id int) chan outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.ch[id]
	if !ok {
		c = make(chan outcome, 1)
		s.ch[id] = c
	}
	return c
}

func (s *scripted) release(id int, o outcome) { s.gate(id) <- o }

// load ignores ctx so superseded requests still answer late
func (s *scripted) load(_ context.Context, m filter.Model) ([]int, error) {
	s.calls.Add(1)
	id := 0
	if m.StartYear != nil {
		id = *m.StartYear
	}
	o := <-s.gate(id)
	return o.data, o.err
}

func withYear(t *testing.T, y int) filter.Model {
	t.Helper()
	m, err := filter.WithField(filter.Initial(), filter.FieldStartYear, filter.Int(y))
	if err != nil {
		t.Fatalf("WithField: %v", err)
	}
	return m
}

func newCoord(t *testing.T, load Loader[[]int], opts ...Option) *Coordinator[[]int] {
	t.Helper()
	nop := zerolog.Nop()
	c := New("test", load, append([]Option{WithLogger(&nop)}, opts...)...)
	t.Cleanup(c.Close)
	return c
}

func wait(t *testing.T, c *Coordinator[[]int]) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func permutations(n int) [][]int {
	if n == 1 {
		return [][]int{{0}}
	}
	var out [][]int
	for _, p := range permutations(n - 1) {
		for i := 0; i <= len(p); i++ {
			q := append(append(append([]int{}, p[:i]...), n-1), p[i:]...)
			out = append(out, q)
		}
	}
	return out
}

func TestInitialSnapshotIsIdle(t *testing.T) {
	c := newCoord(t, newScripted().load)
	s := c.Snapshot()
	if s.State != StateIdle || s.HasData || s.Err != nil || s.Generation != 0 {
		t.Fatalf("snapshot = %+v", s)
	}
	if c.Name() != "test" {
		t.Fatalf("Name = %q", c.Name())
	}
}

func TestStaleResponsesSuppressed_EveryArrivalOrder(t *testing.T) {
	const n = 4
	for _, order := range permutations(n) {
		sc := newScripted()
		c := newCoord(t, sc.load)
		for i := 0; i < n; i++ {
			c.Trigger(withYear(t, i))
		}
		if s := c.Snapshot(); s.State != StateLoading || s.Generation != n {
			t.Fatalf("after triggers: %+v", s)
		}
		for _, id := range order {
			sc.release(id, outcome{data: []int{id}})
		}
		wait(t, c)

		s := c.Snapshot()
		if s.State != StateReady || len(s.Data) != 1 || s.Data[0] != n-1 {
			t.Fatalf("order %v: snapshot %+v, want data of the last request", order, s)
		}
		if *s.Filter.StartYear != n-1 {
			t.Fatalf("filter snapshot = %+v", s.Filter)
		}
		c.Close()
	}
}

func TestStaleResponseDroppedWhileNewerInFlight(t *testing.T) {
	sc := newScripted()
	c := newCoord(t, sc.load)
	c.Trigger(withYear(t, 1))
	c.Trigger(withYear(t, 2))

	sc.release(1, outcome{data: []int{1}})
	time.Sleep(20 * time.Millisecond)
	if s := c.Snapshot(); s.State != StateLoading || s.HasData {
		t.Fatalf("stale result applied: %+v", s)
	}
	sc.release(2, outcome{data: []int{2}})
	wait(t, c)
	if s := c.Snapshot(); s.Data[0] != 2 {
		t.Fatalf("snapshot = %+v", s)
	}
}

func TestTimeoutKeepsPreviousData(t *testing.T) {
	sc := newScripted()
	c := newCoord(t, sc.load)

	c.Trigger(withYear(t, 1))
	sc.release(1, outcome{data: []int{1, 2, 3, 4, 5}})
	wait(t, c)

	c.Trigger(withYear(t, 2))
	if s := c.Snapshot(); s.State != StateLoading || s.Err != nil || len(s.Data) != 5 {
		t.Fatalf("loading snapshot = %+v", s)
	}
	sc.release(2, outcome{err: perr.Timeoutf("request timed out")})
	wait(t, c)

	s := c.Snapshot()
	if len(s.Data) != 5 || !s.HasData {
		t.Fatalf("data = %v, want the 5 earlier points", s.Data)
	}
	if s.State != StateFailed || !perr.IsCode(s.Err, perr.ErrorCodeTimeout) {
		t.Fatalf("state=%s err=%v", s.State, s.Err)
	}

	c.Trigger(withYear(t, 3))
	if s := c.Snapshot(); s.Err != nil || s.State != StateLoading {
		t.Fatalf("a new trigger should clear the error: %+v", s)
	}
	sc.release(3, outcome{data: []int{}})
	wait(t, c)
	if s := c.Snapshot(); s.State != StateReady || len(s.Data) != 0 {
		t.Fatalf("empty success should replace data: %+v", s)
	}
}

func TestAttach_LoadsOnAttachAndEveryNotification(t *testing.T) {
	var calls atomic.Int32
	c := newCoord(t, func(_ context.Context, m filter.Model) ([]int, error) {
		calls.Add(1)
		return []int{filter.ActiveCount(m)}, nil
	})
	nop := zerolog.Nop()
	store := filterstore.New(filterstore.Options{Logger: &nop})

	c.Attach(store)
	wait(t, c)
	if calls.Load() != 1 || c.Snapshot().State != StateReady {
		t.Fatalf("attach should load once, calls=%d", calls.Load())
	}

	_ = store.Update(filter.FieldTopics, filter.List("oil"))
	_ = store.Update(filter.FieldTopics, filter.List("oil"))
	wait(t, c)
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
	if s := c.Snapshot(); s.Generation != 3 || s.Data[0] != 1 {
		t.Fatalf("snapshot = %+v", s)
	}

	c.Close()
	_ = store.Update(filter.FieldSWOT, filter.Text("threat"))
	if calls.Load() != 3 {
		t.Fatalf("closed coordinator still loading")
	}
	if g := c.Trigger(filter.Initial()); g != 3 {
		t.Fatalf("Trigger after Close = %d", g)
	}
}

func TestAttach_RacingUpdateEndsOnLatestFilter(t *testing.T) {
	for i := 0; i < 50; i++ {
		c := newCoord(t, func(_ context.Context, m filter.Model) ([]int, error) {
			return []int{filter.ActiveCount(m)}, nil
		})
		nop := zerolog.Nop()
		store := filterstore.New(filterstore.Options{Logger: &nop})

		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = store.Update(filter.FieldTopics, filter.List("oil"))
		}()
		c.Attach(store)
		<-done
		wait(t, c)

		if s := c.Snapshot(); !filter.Equal(s.Filter, store.State()) || s.Data[0] != 1 {
			t.Fatalf("run %d: view shows %+v for filter %+v, store holds %+v", i, s.Data, s.Filter, store.State())
		}
		c.Close()
	}
}

func TestAttach_LoadsAfterEarlierTrigger(t *testing.T) {
	var calls atomic.Int32
	c := newCoord(t, func(context.Context, filter.Model) ([]int, error) {
		calls.Add(1)
		return nil, nil
	})
	nop := zerolog.Nop()
	store := filterstore.New(filterstore.Options{Logger: &nop})
	c.Trigger(withYear(t, 2020))
	wait(t, c)

	// a generation issued before Attach does not suppress the initial load
	c.Attach(store)
	wait(t, c)
	if calls.Load() != 2 || c.Snapshot().Generation != 2 || c.Snapshot().Filter.StartYear != nil {
		t.Fatalf("calls=%d snapshot=%+v", calls.Load(), c.Snapshot())
	}
}

func TestSkipUnchanged(t *testing.T) {
	var calls atomic.Int32
	c := newCoord(t, func(context.Context, filter.Model) ([]int, error) {
		calls.Add(1)
		return nil, nil
	}, SkipUnchanged())
	nop := zerolog.Nop()
	store := filterstore.New(filterstore.Options{Logger: &nop})
	c.Attach(store)

	_ = store.Update(filter.FieldTopics, filter.List("oil"))
	_ = store.Update(filter.FieldTopics, filter.List("oil"))
	store.Clear(filter.FieldCities)
	wait(t, c)
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2", calls.Load())
	}
}

func TestRefreshReusesFilter(t *testing.T) {
	var seen atomic.Value
	c := newCoord(t, func(_ context.Context, m filter.Model) ([]int, error) {
		seen.Store(m)
		return []int{1}, nil
	})
	c.Trigger(withYear(t, 2019))
	wait(t, c)
	if g := c.Refresh(); g != 2 {
		t.Fatalf("Refresh generation = %d", g)
	}
	wait(t, c)
	if m := seen.Load().(filter.Model); *m.StartYear != 2019 {
		t.Fatalf("refresh used %+v", m)
	}
}

func TestSupersededContextCancelled(t *testing.T) {
	cancelled := make(chan struct{})
	c := newCoord(t, func(ctx context.Context, m filter.Model) ([]int, error) {
		// goroutine start order is unspecified, so the superseded load is picked by its filter
		if *m.StartYear == 1 {
			<-ctx.Done()
			close(cancelled)
			return nil, ctx.Err()
		}
		return []int{*m.StartYear}, nil
	})
	c.Trigger(withYear(t, 1))
	c.Trigger(withYear(t, 2))
	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatalf("superseded load was not cancelled")
	}
	wait(t, c)
	if s := c.Snapshot(); s.State != StateReady || s.Err != nil || s.Data[0] != 2 || s.Generation != 2 {
		t.Fatalf("snapshot = %+v", s)
	}
}

func TestOnChangeSeesLoadingThenReady(t *testing.T) {
	sc := newScripted()
	c := newCoord(t, sc.load)
	var (
		mu     sync.Mutex
		states []State
	)
	c.OnChange(func(s Snapshot[[]int]) {
		mu.Lock()
		states = append(states, s.State)
		mu.Unlock()
	})
	c.Trigger(withYear(t, 1))
	sc.release(1, outcome{data: []int{1}})
	wait(t, c)

	mu.Lock()
	defer mu.Unlock()
	if len(states) != 2 || states[0] != StateLoading || states[1] != StateReady {
		t.Fatalf("states = %v", states)
	}
}

func TestStateText(t *testing.T) {
	for s, want := range map[State]string{StateIdle: "idle", StateLoading: "loading", StateReady: "ready", StateFailed: "failed"} {
		b, _ := s.MarshalText()
		if string(b) != want || s.String() != want {
			t.Fatalf("%d renders %q", s, b)
		}
	}
}
