// Package fetch keeps one view's data in step with the filter store
//
// Every trigger starts a new generation. Only the result of the newest
// generation is applied; older results are dropped when they arrive. A failed
// load keeps the data of the last successful one.
package fetch

import (
	"context"
	"sync"
	"time"

	"insightboard/internal/core/filter"
	"insightboard/internal/core/filterstore"
	"insightboard/internal/platform/logger"
)

// State is the lifecycle of a view: Idle -> Loading -> Ready | Failed
type State uint8

const (
	// StateIdle means nothing was requested yet
	StateIdle State = iota
	// StateLoading means a request of the current generation is in flight
	StateLoading
	// StateReady means the current generation loaded
	StateReady
	// StateFailed means the current generation failed; Data still holds the last good result
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// MarshalText renders the state name in JSON
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Loader fetches and shapes the data of one view for a filter
type Loader[T any] func(ctx context.Context, m filter.Model) (T, error)

// Snapshot is a consistent read of a coordinator
type Snapshot[T any] struct {
	State      State
	Data       T
	HasData    bool
	Err        error
	Generation uint64
	Filter     filter.Model
	UpdatedAt  time.Time
}

// Loading reports whether a request is in flight
func (s Snapshot[T]) Loading() bool { return s.State == StateLoading }

// Option tunes a Coordinator
type Option func(*options)

type options struct {
	log      *logger.Logger
	skipSame bool
	base     context.Context
	clock    func() time.Time
}

// WithLogger sets the logger; defaults to logger.Named("fetch")
func WithLogger(l *logger.Logger) Option { return func(o *options) { o.log = l } }

// SkipUnchanged ignores store notifications whose model equals the last one issued
func SkipUnchanged() Option { return func(o *options) { o.skipSame = true } }

// WithContext sets the parent of every load context; cancelling it stops loads
func WithContext(ctx context.Context) Option { return func(o *options) { o.base = ctx } }

// Coordinator runs the loads of one view; safe for concurrent use
type Coordinator[T any] struct {
	name string
	load Loader[T]
	log  *logger.Logger
	now  func() time.Time

	skipSame bool

	mu       sync.Mutex
	gen      uint64
	state    State
	data     T
	hasData  bool
	err      error
	filter   filter.Model
	updated  time.Time
	cancel   context.CancelFunc
	closed   bool
	unsub    func()
	base     context.Context
	stopBase context.CancelFunc

	notifyMu  sync.Mutex
	listeners []func(Snapshot[T])

	wg sync.WaitGroup
}

// New builds an idle coordinator for the view called name
func New[T any](name string, load Loader[T], opts ...Option) *Coordinator[T] {
	o := options{base: context.Background(), clock: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	if o.log == nil {
		o.log = logger.Named("fetch")
	}
	base, stop := context.WithCancel(o.base)
	return &Coordinator[T]{
		name:     name,
		load:     load,
		log:      o.log,
		now:      o.clock,
		skipSame: o.skipSame,
		filter:   filter.Initial(),
		base:     base,
		stopBase: stop,
	}
}

// Name returns the view name
func (c *Coordinator[T]) Name() string { return c.name }

// Attach subscribes to s and loads immediately with its current state
// every later notification starts a new generation
func (c *Coordinator[T]) Attach(s *filterstore.Store) {
	c.mu.Lock()
	before := c.gen
	c.mu.Unlock()
	unsub := s.Subscribe(func(m filter.Model) {
		if c.skipSame && c.sameAsIssued(m) {
			return
		}
		c.Trigger(m)
	})
	c.mu.Lock()
	prev := c.unsub
	c.unsub = unsub
	c.mu.Unlock()
	if prev != nil {
		prev()
	}
	// a change that landed after subscribing has already issued a newer generation
	c.trigger(func() (filter.Model, bool) { return s.State(), c.gen == before })
}

// OnChange registers fn to receive the snapshot after every state change
// fn runs outside the coordinator lock and may call Snapshot
func (c *Coordinator[T]) OnChange(fn func(Snapshot[T])) {
	c.notifyMu.Lock()
	c.listeners = append(c.listeners, fn)
	c.notifyMu.Unlock()
}

// Trigger starts a new generation for m and returns its number
// a superseded in-flight load has its context cancelled and its result ignored
func (c *Coordinator[T]) Trigger(m filter.Model) uint64 {
	return c.trigger(func() (filter.Model, bool) { return m, true })
}

// trigger calls pick under the lock; pick reporting false leaves the current generation alone
func (c *Coordinator[T]) trigger(pick func() (filter.Model, bool)) uint64 {
	c.mu.Lock()
	m, ok := pick()
	if c.closed || !ok {
		g := c.gen
		c.mu.Unlock()
		return g
	}
	c.gen++
	g := c.gen
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(c.base)
	c.cancel = cancel
	c.state = StateLoading
	c.err = nil
	c.filter = filter.Clone(m)
	c.updated = c.now()
	c.wg.Add(1)
	c.mu.Unlock()

	c.log.Debug().Str("view", c.name).Uint64("generation", g).Msg("view load started")
	c.notify()

	go c.run(ctx, cancel, g, filter.Clone(m))
	return g
}

// Refresh reloads with the last issued filter, used when a local view parameter changes
func (c *Coordinator[T]) Refresh() uint64 {
	c.mu.Lock()
	m := c.filter
	c.mu.Unlock()
	return c.Trigger(m)
}

func (c *Coordinator[T]) run(ctx context.Context, cancel context.CancelFunc, g uint64, m filter.Model) {
	defer c.wg.Done()
	defer cancel()

	start := c.now()
	data, err := c.load(ctx, m)
	took := c.now().Sub(start)

	c.mu.Lock()
	if g != c.gen || c.closed {
		c.mu.Unlock()
		resultsTotal.WithLabelValues(c.name, "stale").Inc()
		c.log.Debug().Str("view", c.name).Uint64("generation", g).Dur("latency", took).Msg("stale view result dropped")
		return
	}
	c.updated = c.now()
	if err != nil {
		c.state = StateFailed
		c.err = err
	} else {
		c.state = StateReady
		c.data = data
		c.hasData = true
	}
	c.mu.Unlock()

	if err != nil {
		resultsTotal.WithLabelValues(c.name, "failed").Inc()
		c.log.Warn().Err(err).Str("view", c.name).Uint64("generation", g).Dur("latency", took).Msg("view load failed")
	} else {
		resultsTotal.WithLabelValues(c.name, "applied").Inc()
		c.log.Debug().Str("view", c.name).Uint64("generation", g).Dur("latency", took).Msg("view load applied")
	}
	loadSeconds.WithLabelValues(c.name).Observe(took.Seconds())
	c.notify()
}

// Snapshot returns the current state
func (c *Coordinator[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot[T]{
		State:      c.state,
		Data:       c.data,
		HasData:    c.hasData,
		Err:        c.err,
		Generation: c.gen,
		Filter:     filter.Clone(c.filter),
		UpdatedAt:  c.updated,
	}
}

// Wait blocks until no load is in flight or ctx ends
func (c *Coordinator[T]) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close detaches from the store, cancels in-flight loads and waits for them
func (c *Coordinator[T]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	unsub := c.unsub
	c.unsub = nil
	c.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	c.stopBase()
	c.wg.Wait()
}

func (c *Coordinator[T]) sameAsIssued(m filter.Model) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen > 0 && filter.Equal(c.filter, m)
}

// notify delivers the latest snapshot; serialised so listeners never see time go backwards
func (c *Coordinator[T]) notify() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if len(c.listeners) == 0 {
		return
	}
	snap := c.Snapshot()
	for _, fn := range c.listeners {
		fn(snap)
	}
}
