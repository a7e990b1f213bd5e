package realtime

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid"
)

// Top level collections of the inventory tree.
const (
	PathStorage = "storage"
	PathBoxes   = "boxes"
	PathWaste   = "waste"
	PathLogs    = "logs"
)

// Store is a live JSON document tree addressed by slash separated paths.
type Store interface {
	// Get returns the value at path, or JSON null when nothing is stored there.
	Get(ctx context.Context, path string) (json.RawMessage, error)
	// Update applies every path write atomically. A nil value deletes the node.
	Update(ctx context.Context, updates map[string]interface{}) error
	Set(ctx context.Context, path string, value interface{}) error
	// PushKey returns a fresh child key; keys sort in creation order.
	PushKey() string
	Subscribe(ctx context.Context, path string) (*Subscription, error)
	Close() error
}

// Snapshot is the full value at Path at one point in time. Raw is "{}" when the path is empty.
type Snapshot struct {
	Path string
	Raw  json.RawMessage
}

func (s Snapshot) Decode(v interface{}) error {
	return json.Unmarshal(s.Raw, v)
}

func newSnapshot(path string, raw json.RawMessage) Snapshot {
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}
	return Snapshot{Path: path, Raw: raw}
}

type keyGenerator struct {
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

func newKeyGenerator() *keyGenerator {
	return &keyGenerator{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

func (g *keyGenerator) next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy).String()
}
