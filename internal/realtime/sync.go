package realtime

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"depot/internal/metrics"
	"depot/pkg/models"

	"go.uber.org/zap"
)

var syncedPaths = []string{PathStorage, PathBoxes, PathWaste, PathLogs}

// Sync mirrors the four inventory collections into memory. Views validate requests against
// this state, so it is only as fresh as the last snapshot pushed by the store.
type Sync struct {
	mu      sync.RWMutex
	storage models.StorageData
	boxes   models.BoxesData
	waste   models.WasteData
	logs    []models.LogEntry
	pending map[string]bool
	ready   chan struct{}

	subs   []*Subscription
	wg     sync.WaitGroup
	logger *zap.Logger
}

func StartSync(ctx context.Context, store Store, logger *zap.Logger) (*Sync, error) {
	s := &Sync{
		storage: models.StorageData{},
		boxes:   models.BoxesData{},
		waste:   models.WasteData{},
		logs:    []models.LogEntry{},
		pending: make(map[string]bool, len(syncedPaths)),
		ready:   make(chan struct{}),
		logger:  logger,
	}

	for _, path := range syncedPaths {
		sub, err := store.Subscribe(ctx, path)
		if err != nil {
			s.Stop()
			return nil, fmt.Errorf("subscribe to %s: %w", path, err)
		}
		s.pending[path] = true
		s.subs = append(s.subs, sub)
	}

	for _, sub := range s.subs {
		s.wg.Add(1)
		go s.consume(sub)
	}

	return s, nil
}

func (s *Sync) consume(sub *Subscription) {
	defer s.wg.Done()

	for snapshot := range sub.C() {
		if err := s.apply(snapshot); err != nil {
			s.logger.Error("Unable to decode snapshot", zap.String("path", snapshot.Path), zap.Error(err))
		}
		metrics.RecordSnapshot(snapshot.Path)
		s.markReceived(snapshot.Path)
	}
}

func (s *Sync) apply(snapshot Snapshot) error {
	switch snapshot.Path {
	case PathStorage:
		var data models.StorageData
		if err := snapshot.Decode(&data); err != nil {
			return err
		}
		for id, item := range data {
			item.ID = id
			data[id] = item
		}
		s.mu.Lock()
		s.storage = data
		s.mu.Unlock()
	case PathBoxes:
		var data models.BoxesData
		if err := snapshot.Decode(&data); err != nil {
			return err
		}
		for id, box := range data {
			box.ID = id
			data[id] = box
		}
		s.mu.Lock()
		s.boxes = data
		s.mu.Unlock()
	case PathWaste:
		var data models.WasteData
		if err := snapshot.Decode(&data); err != nil {
			return err
		}
		for id, item := range data {
			item.ID = id
			data[id] = item
		}
		s.mu.Lock()
		s.waste = data
		s.mu.Unlock()
	case PathLogs:
		logs, err := NormalizeLogs(snapshot.Raw)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.logs = logs
		s.mu.Unlock()
	}
	return nil
}

func (s *Sync) markReceived(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.pending[path] {
		return
	}
	delete(s.pending, path)
	if len(s.pending) == 0 {
		close(s.ready)
		s.logger.Info("Initial snapshots received, inventory ready")
	}
}

// Loading reports whether any collection is still waiting for its first snapshot.
func (s *Sync) Loading() bool {
	select {
	case <-s.ready:
		return false
	default:
		return true
	}
}

func (s *Sync) Ready() <-chan struct{} {
	return s.ready
}

func (s *Sync) Storage() models.StorageData {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(models.StorageData, len(s.storage))
	for id, item := range s.storage {
		out[id] = item
	}
	return out
}

func (s *Sync) Boxes() models.BoxesData {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(models.BoxesData, len(s.boxes))
	for id, box := range s.boxes {
		items := make(models.BoxItems, len(box.Items))
		for itemID, qty := range box.Items {
			items[itemID] = qty
		}
		box.Items = items
		out[id] = box
	}
	return out
}

func (s *Sync) Waste() models.WasteData {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(models.WasteData, len(s.waste))
	for id, item := range s.waste {
		out[id] = item
	}
	return out
}

func (s *Sync) Logs() []models.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.LogEntry, len(s.logs))
	copy(out, s.logs)
	return out
}

func (s *Sync) Stop() {
	for _, sub := range s.subs {
		sub.Cancel()
	}
	s.wg.Wait()
}

// SortedIDs returns the keys of a collection in ascending order.
func SortedIDs[T any](data map[string]T) []string {
	ids := make([]string, 0, len(data))
	for id := range data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
