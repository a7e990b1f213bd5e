package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

type fetchFunc func(ctx context.Context, path string) (json.RawMessage, error)

// Subscription delivers full snapshots of one path until cancelled. Changes that arrive
// while the consumer is busy are folded into a single snapshot of the latest value.
type Subscription struct {
	path     string
	segments []string
	ch       chan Snapshot
	wake     chan struct{}
	cancel   context.CancelFunc
	done     chan struct{}
	once     sync.Once
	onCancel func(*Subscription)
}

func newSubscription(ctx context.Context, path string, segments []string, fetch fetchFunc, logger *zap.Logger, onCancel func(*Subscription)) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		path:     path,
		segments: segments,
		ch:       make(chan Snapshot),
		wake:     make(chan struct{}, 1),
		cancel:   cancel,
		done:     make(chan struct{}),
		onCancel: onCancel,
	}
	s.poke()

	go s.run(ctx, fetch, logger)

	return s
}

func (s *Subscription) Path() string {
	return s.path
}

// C yields snapshots; it is closed after Cancel or when the parent context ends.
func (s *Subscription) C() <-chan Snapshot {
	return s.ch
}

func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
		if s.onCancel != nil {
			s.onCancel(s)
		}
	})
}

func (s *Subscription) poke() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscription) matches(changed []string) bool {
	return overlaps(s.segments, changed)
}

func (s *Subscription) run(ctx context.Context, fetch fetchFunc, logger *zap.Logger) {
	defer close(s.done)
	defer close(s.ch)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		}

		raw, err := fetch(ctx, s.path)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("Unable to read subscribed path", zap.String("path", s.path), zap.Error(err))
			continue
		}

		select {
		case s.ch <- newSnapshot(s.path, raw):
		case <-ctx.Done():
			return
		}
	}
}

type subscriptionSet struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

func newSubscriptionSet() *subscriptionSet {
	return &subscriptionSet{subs: make(map[*Subscription]struct{})}
}

func (s *subscriptionSet) add(sub *Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub] = struct{}{}
}

func (s *subscriptionSet) remove(sub *Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, sub)
}

// notify wakes every subscription overlapping one of the changed paths. A nil list wakes all.
func (s *subscriptionSet) notify(changed [][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for sub := range s.subs {
		if changed == nil {
			sub.poke()
			continue
		}
		for _, segments := range changed {
			if sub.matches(segments) {
				sub.poke()
				break
			}
		}
	}
}

func (s *subscriptionSet) cancelAll() {
	s.mu.Lock()
	subs := make([]*Subscription, 0, len(s.subs))
	for sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}
}
