package service

import (
	"context"
	"sync"

	"insightboard/internal/services/api/dashboard/domain"
)

// Watch streams the session's changes: first the current filter and views, then every later change
// the channel closes when ctx ends, stop is called or the session is dropped
func (s *Svc) Watch(ctx context.Context) (<-chan domain.Event, func(), error) {
	b, err := s.board(ctx)
	if err != nil {
		return nil, nil, err
	}
	id, ch := b.hub.add(b.seed)
	s.log.Debug().Str("session", b.id).Str("watcher", id).Msg("dashboard watcher attached")

	var once sync.Once
	done := make(chan struct{})
	stop := func() {
		once.Do(func() {
			close(done)
			b.hub.remove(id)
			b.touch()
			s.log.Debug().Str("session", b.id).Str("watcher", id).Msg("dashboard watcher detached")
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			stop()
		case <-done:
		}
	}()
	return ch, stop, nil
}
