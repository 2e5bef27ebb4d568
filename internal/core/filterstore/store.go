// Package filterstore holds the one live filter model of a dashboard session
// and notifies subscribers after every change
package filterstore

import (
	"sync"
	"sync/atomic"
	"time"

	"insightboard/internal/core/filter"
	"insightboard/internal/core/query"
	"insightboard/internal/platform/logger"
)

// Listener receives the full model after each change
// listeners run synchronously inside the change and must not mutate the store
type Listener func(filter.Model)

// Patch replaces several fields in one change
type Patch map[filter.Field]filter.Value

// Change is one history entry: the model as it was before a mutation
type Change struct {
	Op     string         `json:"op"`
	Fields []filter.Field `json:"fields,omitempty"`
	Before filter.Model   `json:"before"`
	At     time.Time      `json:"at"`
}

// Options configures a Store
type Options struct {
	// HistoryLimit caps the undo history; defaults to 10
	HistoryLimit int
	// Initial seeds the store; defaults to filter.Initial()
	Initial *filter.Model
	// Logger defaults to logger.Named("filterstore")
	Logger *logger.Logger
	// Check vets the candidate model of Update, UpdateMany and Replace before it is committed
	// a non-nil error rejects the change; Clear, ClearAll and Revert are not checked
	Check func(filter.Model) error
}

// Store is safe for concurrent use
// one mutex serialises each update and its notifications, so subscribers see changes in issue order
type Store struct {
	mu    sync.Mutex
	state atomic.Pointer[filter.Model]

	subs   []subscriber
	nextID uint64

	history []Change
	limit   int

	check func(filter.Model) error
	log   *logger.Logger
	now   func() time.Time
}

type subscriber struct {
	id uint64
	fn Listener
}

// New builds a store with every field unset unless Options.Initial says otherwise
func New(opt Options) *Store {
	if opt.HistoryLimit <= 0 {
		opt.HistoryLimit = 10
	}
	if opt.Logger == nil {
		opt.Logger = logger.Named("filterstore")
	}
	init := filter.Initial()
	if opt.Initial != nil {
		init = filter.Normalize(*opt.Initial)
	}
	s := &Store{limit: opt.HistoryLimit, check: opt.Check, log: opt.Logger, now: time.Now}
	s.state.Store(&init)
	return s
}

// State returns a copy of the current model
func (s *Store) State() filter.Model { return filter.Clone(*s.state.Load()) }

// Subscribe registers fn and returns a function that removes it
// fn is not called with the current state; read State() for that
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Update replaces one field and notifies every subscriber before returning
// an error means the value did not fit the field and nothing changed
func (s *Store) Update(f filter.Field, v filter.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := filter.WithField(*s.state.Load(), f, v)
	if err != nil {
		return err
	}
	if err := s.vet(next); err != nil {
		return err
	}
	s.commit("update", []filter.Field{f}, next)
	return nil
}

// UpdateMany applies every replacement of p in a single change with one notification
// either all replacements apply or none do
func (s *Store) UpdateMany(p Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for f := range p {
		if !f.Valid() {
			_, err := filter.ParseField(string(f))
			return err
		}
	}
	if len(p) == 0 {
		return nil
	}

	next := *s.state.Load()
	touched := make([]filter.Field, 0, len(p))
	for _, f := range filter.Fields() {
		v, ok := p[f]
		if !ok {
			continue
		}
		var err error
		if next, err = filter.WithField(next, f, v); err != nil {
			return err
		}
		touched = append(touched, f)
	}
	if err := s.vet(next); err != nil {
		return err
	}
	s.commit("update_many", touched, next)
	return nil
}

// Replace swaps in a whole model, used when restoring a saved filter or applying a preset
func (s *Store) Replace(m filter.Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := filter.Normalize(m)
	if err := s.vet(next); err != nil {
		return err
	}
	s.commit("replace", filter.Active(next), next)
	return nil
}

// Clear resets one field: lists to empty, scalars to unset
// an unknown or already unset field changes nothing, so nothing is recorded or notified
func (s *Store) Clear(f filter.Field) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !f.Valid() {
		return
	}
	cur := *s.state.Load()
	if filter.Get(cur, f).IsUnset() {
		return
	}
	s.commit("clear", []filter.Field{f}, filter.Cleared(cur, f))
}

// ClearAll resets the store to filter.Initial()
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commit("clear_all", nil, filter.Initial())
}

// ActiveCount returns how many fields are set
func (s *Store) ActiveCount() int { return filter.ActiveCount(*s.state.Load()) }

// QueryParams encodes the current model for transport
func (s *Store) QueryParams() map[string]string { return query.Encode(*s.state.Load()) }

// Summary renders the current filter chips
func (s *Store) Summary() []string { return filter.Summary(*s.state.Load()) }

// History returns the recorded changes, oldest first
func (s *Store) History() []Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Change(nil), s.history...)
}

// Revert restores the model from before the latest change and notifies subscribers
// returns false when there is nothing to revert
func (s *Store) Revert() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.history) == 0 {
		return false
	}
	last := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	s.publish("revert", last.Fields, last.Before)
	return true
}

func (s *Store) vet(next filter.Model) error {
	if s.check == nil {
		return nil
	}
	return s.check(filter.Clone(next))
}

// commit records history then publishes; callers hold s.mu
func (s *Store) commit(op string, fields []filter.Field, next filter.Model) {
	prev := *s.state.Load()
	s.history = append(s.history, Change{Op: op, Fields: fields, Before: prev, At: s.now()})
	if over := len(s.history) - s.limit; over > 0 {
		s.history = append([]Change(nil), s.history[over:]...)
	}
	s.publish(op, fields, next)
}

// publish stores next and calls every subscriber in registration order; callers hold s.mu
func (s *Store) publish(op string, fields []filter.Field, next filter.Model) {
	s.state.Store(&next)
	s.log.Debug().
		Str("op", op).
		Interface("fields", fields).
		Int("active", filter.ActiveCount(next)).
		Int("subscribers", len(s.subs)).
		Msg("filter change")

	for _, sub := range s.subs {
		sub.fn(filter.Clone(next))
	}
}
