// Package service contains dashboard workflows
//
// Every caller works on a session: a filter store with one coordinator per
// view and its own data API credentials. Sessions are created on first use and
// dropped when idle or when the cache is full.
package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"insightboard/internal/adapters/dataapi"
	"insightboard/internal/core/dataset"
	"insightboard/internal/core/filter"
	"insightboard/internal/modkit/httpkit"
	perr "insightboard/internal/platform/errors"
	"insightboard/internal/platform/logger"
	pnet "insightboard/internal/platform/net"
	"insightboard/internal/services/api/dashboard/domain"
)

// Service defines the dashboard service contract
type Service interface {
	domain.ServicePort
	// Sessions lists the ids of the live sessions
	Sessions() []string
	Close()
}

// Options configures the service
type Options struct {
	// Data builds each session's client around its own credentials
	Data domain.DataFactory
	// Token seeds the credential of new sessions
	Token string
	// Check vets every candidate filter before a store commits it, typically bind.Struct
	Check func(filter.Model) error
	// Presets defaults to DefaultPresets()
	Presets []domain.Preset

	// MaxSessions caps the sessions held at once; the least recently seen is dropped. Defaults to 256
	MaxSessions int
	// IdleTTL drops sessions not seen for that long; 0 keeps them until evicted for capacity
	IdleTTL time.Duration
	// HistoryLimit is the undo depth of each session; defaults to 10
	HistoryLimit int
	// OptionsTTL caches the filter options; defaults to 5 minutes, negative disables the cache
	OptionsTTL time.Duration
	// WatchBuffer is the per watcher event buffer; defaults to 64
	WatchBuffer int

	Logger *logger.Logger
}

// Svc implements the dashboard service
type Svc struct {
	opts Options
	log  *logger.Logger
	now  func() time.Time

	base context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	mu     sync.Mutex
	boards map[string]*board
	closed bool

	optMu   sync.Mutex
	options dataset.FilterOptions
	optAt   time.Time
}

// New constructs a dashboard service
func New(o Options) *Svc {
	if o.Data == nil {
		panic("dashboard.Service requires a non nil DataFactory")
	}
	if o.MaxSessions <= 0 {
		o.MaxSessions = 256
	}
	if o.OptionsTTL == 0 {
		o.OptionsTTL = 5 * time.Minute
	}
	if o.Presets == nil {
		o.Presets = DefaultPresets()
	}
	if o.Logger == nil {
		o.Logger = logger.Named("dashboard")
	}
	base, stop := context.WithCancel(context.Background())
	s := &Svc{
		opts:   o,
		log:    o.Logger,
		now:    time.Now,
		base:   base,
		stop:   stop,
		boards: map[string]*board{},
	}
	if o.IdleTTL > 0 {
		s.wg.Add(1)
		go s.janitor(o.IdleTTL)
	}
	return s
}

// ClientFactory adapts a shared data API client: each session gets a copy with its own tokens
func ClientFactory(c *dataapi.Client) domain.DataFactory {
	return func(ts dataapi.TokenStore) domain.DataPort { return c.WithTokens(ts) }
}

// Close ends every session and stops background work
func (s *Svc) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	boards := s.boards
	s.boards = map[string]*board{}
	s.mu.Unlock()

	s.stop()
	for _, b := range boards {
		b.close()
		sessionsGauge.Dec()
	}
	s.wg.Wait()
}

// board returns the session named by ctx, creating it on first use
// a token forwarded on the request replaces the session credential
func (s *Svc) board(ctx context.Context) (*board, error) {
	id := pnet.SessionID(ctx)
	if id == "" {
		id = httpkit.DefaultSession
	}
	tok := pnet.Token(ctx)
	seed := tok
	if seed == "" {
		seed = s.opts.Token
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, perr.Unavailablef("dashboard is shutting down")
	}
	b, ok := s.boards[id]
	var evicted *board
	if !ok {
		if len(s.boards) >= s.opts.MaxSessions {
			evicted = s.oldestLocked()
			delete(s.boards, evicted.id)
		}
		b = newBoard(boardConfig{
			id:       id,
			token:    seed,
			factory:  s.opts.Data,
			check:    s.opts.Check,
			history:  s.opts.HistoryLimit,
			watchBuf: s.opts.WatchBuffer,
			base:     s.base,
			log:      s.log,
			now:      s.now,
		})
		s.boards[id] = b
		sessionsGauge.Inc()
	}
	s.mu.Unlock()

	if evicted != nil {
		s.drop(evicted, "capacity")
	}
	if !ok {
		s.log.Info().Str("session", id).Msg("dashboard session started")
		return b, nil
	}
	b.touch()
	if tok != "" && tok != b.tokens.Token() {
		b.tokens.Set(tok)
		b.refreshAll()
	}
	return b, nil
}

func (s *Svc) oldestLocked() *board {
	var old *board
	for _, b := range s.boards {
		if old == nil || b.seen.Load() < old.seen.Load() {
			old = b
		}
	}
	return old
}

func (s *Svc) drop(b *board, reason string) {
	b.close()
	sessionsGauge.Dec()
	evictedTotal.WithLabelValues(reason).Inc()
	s.log.Info().Str("session", b.id).Str("reason", reason).Msg("dashboard session dropped")
}

// Sweep drops sessions not seen since before cutoff and returns how many went
func (s *Svc) Sweep(cutoff time.Time) int {
	s.mu.Lock()
	var idle []*board
	for id, b := range s.boards {
		if b.lastSeen().Before(cutoff) && b.hub.count() == 0 {
			idle = append(idle, b)
			delete(s.boards, id)
		}
	}
	s.mu.Unlock()
	for _, b := range idle {
		s.drop(b, "idle")
	}
	return len(idle)
}

func (s *Svc) janitor(ttl time.Duration) {
	defer s.wg.Done()
	every := ttl / 2
	if every < time.Second {
		every = time.Second
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-s.base.Done():
			return
		case <-t.C:
			s.Sweep(s.now().Add(-ttl))
		}
	}
}

// Sessions lists the ids of the live sessions, sorted
func (s *Svc) Sessions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.boards))
	for id := range s.boards {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Session describes the caller's session
func (s *Svc) Session(ctx context.Context) (domain.SessionInfo, error) {
	b, err := s.board(ctx)
	if err != nil {
		return domain.SessionInfo{}, err
	}
	return b.info(), nil
}

// SetToken stores the bearer token the session forwards and reloads every view
func (s *Svc) SetToken(ctx context.Context, in domain.TokenInput) (domain.SessionInfo, error) {
	b, err := s.board(ctx)
	if err != nil {
		return domain.SessionInfo{}, err
	}
	b.tokens.Set(in.Token)
	b.refreshAll()
	return b.info(), nil
}

// ClearToken logs the session out of the data API
func (s *Svc) ClearToken(ctx context.Context) (domain.SessionInfo, error) {
	b, err := s.board(ctx)
	if err != nil {
		return domain.SessionInfo{}, err
	}
	b.tokens.Clear()
	return b.info(), nil
}

// EndSession drops the caller's session; the next call starts a fresh one
func (s *Svc) EndSession(ctx context.Context) error {
	id := pnet.SessionID(ctx)
	if id == "" {
		id = httpkit.DefaultSession
	}
	s.mu.Lock()
	b, ok := s.boards[id]
	delete(s.boards, id)
	s.mu.Unlock()
	if !ok {
		return perr.WithField(perr.NotFoundf("no session %q", id), "session")
	}
	s.drop(b, "ended")
	return nil
}

var _ Service = (*Svc)(nil)
