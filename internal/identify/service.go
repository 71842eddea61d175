package identify

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Identifier is implemented by Client.
type Identifier interface {
	Identify(ctx context.Context, dataURL string) (string, error)
}

// Service allows one identification per identity at a time. A new request
// cancels the identity's in-flight one and waits for it to finish before
// starting. Anonymous requests are not serialized.
type Service struct {
	next Identifier

	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	sem     *semaphore.Weighted
	cancel  context.CancelCauseFunc
	gen     uint64
	waiters int
}

// NewService wraps next.
func NewService(next Identifier) *Service {
	return &Service{next: next, slots: make(map[string]*slot)}
}

// Identify runs the identification for identity.
func (s *Service) Identify(ctx context.Context, identity, dataURL string) (string, error) {
	if identity == "" {
		return s.next.Identify(ctx, dataURL)
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	s.mu.Lock()
	sl, ok := s.slots[identity]
	if !ok {
		sl = &slot{sem: semaphore.NewWeighted(1)}
		s.slots[identity] = sl
	}
	if sl.cancel != nil {
		sl.cancel(ErrSuperseded)
	}
	sl.gen++
	gen := sl.gen
	sl.cancel = cancel
	sl.waiters++
	s.mu.Unlock()

	defer s.leave(identity, sl, gen)

	if err := sl.sem.Acquire(ctx, 1); err != nil {
		return "", cause(ctx, err)
	}
	defer sl.sem.Release(1)

	text, err := s.next.Identify(ctx, dataURL)
	if err != nil {
		return "", cause(ctx, err)
	}
	return text, nil
}

func (s *Service) leave(identity string, sl *slot, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl.waiters--
	if sl.gen == gen {
		sl.cancel = nil
	}
	if sl.waiters == 0 {
		delete(s.slots, identity)
	}
}

// cause prefers the cancellation cause, so superseded requests report
// ErrSuperseded rather than context.Canceled.
func cause(ctx context.Context, err error) error {
	if c := context.Cause(ctx); c != nil && errors.Is(c, ErrSuperseded) {
		return ErrSuperseded
	}
	return err
}
