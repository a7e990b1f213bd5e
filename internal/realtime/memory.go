package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var ErrClosed = errors.New("store is closed")

// MemoryStore keeps the whole tree in process. It backs memory:// connections and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	root   map[string]interface{}
	closed bool
	now    func() time.Time
	keys   *keyGenerator
	subs   *subscriptionSet
	logger *zap.Logger
}

func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		root:   map[string]interface{}{},
		now:    time.Now,
		keys:   newKeyGenerator(),
		subs:   newSubscriptionSet(),
		logger: logger,
	}
}

func (s *MemoryStore) Get(_ context.Context, path string) (json.RawMessage, error) {
	segments, err := SplitPath(path)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}
	node, ok := getNode(s.root, segments)
	if !ok {
		return json.RawMessage("null"), nil
	}
	return encodeNode(node)
}

func (s *MemoryStore) Update(_ context.Context, updates map[string]interface{}) error {
	writes, err := prepareWrites(updates)
	if err != nil {
		return err
	}
	if len(writes) == 0 {
		return nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	nowMillis := s.now().UnixMilli()
	changed := make([][]string, 0, len(writes))
	for _, w := range writes {
		setNode(s.root, w.segments, resolveServerValues(w.value, nowMillis))
		changed = append(changed, w.segments)
	}
	s.mu.Unlock()

	s.subs.notify(changed)
	return nil
}

func (s *MemoryStore) Set(ctx context.Context, path string, value interface{}) error {
	return s.Update(ctx, map[string]interface{}{path: value})
}

func (s *MemoryStore) PushKey() string {
	return s.keys.next()
}

func (s *MemoryStore) Subscribe(ctx context.Context, path string) (*Subscription, error) {
	segments, err := SplitPath(path)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}

	sub := newSubscription(ctx, path, segments, s.Get, s.logger, s.subs.remove)
	s.subs.add(sub)
	return sub, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.subs.cancelAll()
	return nil
}
