package realtime

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"depot/internal/database"
	"depot/internal/repository"
	custom_error "depot/pkg/errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/lib/pq"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	nodesTable          = repository.NodesTable
	NotificationChannel = "depot_nodes"
	listenerPingPeriod  = 90 * time.Second
)

// PostgresStore keeps one row per document (project, collection, key) with a JSONB body.
// Change notifications arrive through LISTEN/NOTIFY on NotificationChannel.
type PostgresStore struct {
	repository *repository.Repository
	project    string
	keys       *keyGenerator
	subs       *subscriptionSet
	logger     *zap.Logger

	closeOnce sync.Once
	closers   []func() error
	stopWatch context.CancelFunc
}

type nodeRow struct {
	Collection string `db:"collection"`
	Key        string `db:"key"`
	Body       []byte `db:"body"`
}

func NewPostgresStore(db *sql.DB, project string, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{
		repository: repository.NewRepository(db),
		project:    project,
		keys:       newKeyGenerator(),
		subs:       newSubscriptionSet(),
		logger:     logger,
		stopWatch:  func() {},
	}
}

// OpenPostgres connects to dsn and starts listening for change notifications of project.
func OpenPostgres(ctx context.Context, dsn, project string, logger *zap.Logger) (*PostgresStore, error) {
	db, err := database.NewPostgresConnection(ctx, dsn, database.DefaultPool)
	if err != nil {
		return nil, err
	}

	listener := pq.NewListener(dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Warn("Notification listener event", zap.Int("event", int(ev)), zap.Error(err))
		}
	})
	if err := listener.Listen(NotificationChannel); err != nil {
		_ = listener.Close()
		_ = db.Close()
		return nil, fmt.Errorf("listen on %s: %w", NotificationChannel, err)
	}

	store := NewPostgresStore(db, project, logger)
	store.closers = append(store.closers, listener.Close, db.Close)

	watchCtx, cancel := context.WithCancel(context.Background())
	store.stopWatch = cancel
	go store.watch(watchCtx, listener.Notify, listener.Ping)

	return store, nil
}

func (s *PostgresStore) scope(collection, key string) exp.Ex {
	return repository.ProjectScope(s.project).Collection(collection).Key(key).Ex()
}

func (s *PostgresStore) Get(ctx context.Context, path string) (json.RawMessage, error) {
	segments, err := SplitPath(path)
	if err != nil {
		return nil, err
	}

	if len(segments) < 2 {
		collection := ""
		if len(segments) == 1 {
			collection = segments[0]
		}

		var rows []nodeRow
		query := s.repository.Nodes(repository.ProjectScope(s.project).Collection(collection))
		if err := query.ScanStructsContext(ctx, &rows); err != nil {
			return nil, fmt.Errorf("unable to select nodes for %q: %w", path, err)
		}

		tree := map[string]interface{}{}
		for _, row := range rows {
			body, err := decodeTree(row.Body)
			if err != nil {
				return nil, fmt.Errorf("node %s/%s: %w", row.Collection, row.Key, err)
			}
			setNode(tree, []string{row.Collection, row.Key}, body)
		}

		node, ok := getNode(tree, segments)
		if !ok {
			return json.RawMessage("null"), nil
		}
		return encodeNode(node)
	}

	var body []byte
	found, err := s.repository.Goqu.From(nodesTable).
		Select("body").
		Where(s.scope(segments[0], segments[1])).
		ScanValContext(ctx, &body)
	if err != nil {
		return nil, fmt.Errorf("unable to select node %q: %w", path, err)
	}
	if !found {
		return json.RawMessage("null"), nil
	}

	doc, err := decodeTree(body)
	if err != nil {
		return nil, err
	}
	node, ok := getNode(doc, segments[2:])
	if !ok {
		return json.RawMessage("null"), nil
	}
	return encodeNode(node)
}

func (s *PostgresStore) Update(ctx context.Context, updates map[string]interface{}) error {
	writes, err := prepareWrites(updates)
	if err != nil {
		return err
	}
	if len(writes) == 0 {
		return nil
	}

	err = repository.WithTransaction(ctx, s.repository.Goqu, func(tx *goqu.TxDatabase) error {
		if err := s.resolveServerTime(ctx, tx, writes); err != nil {
			return err
		}

		documents := map[string][]pathWrite{}
		for _, w := range writes {
			if len(w.segments) == 1 {
				if err := s.replaceCollection(ctx, tx, w.segments[0], w.value); err != nil {
					return err
				}
				continue
			}
			id := w.segments[0] + "/" + w.segments[1]
			documents[id] = append(documents[id], w)
		}

		ids := make([]string, 0, len(documents))
		for id := range documents {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			if err := s.writeDocument(ctx, tx, documents[id]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			return fmt.Errorf("failed to apply update: %w", custom_error.WrapDBError(pqErr.Message, string(pqErr.Code)))
		}
		return fmt.Errorf("failed to apply update: %w", err)
	}

	changed := make([][]string, 0, len(writes))
	for _, w := range writes {
		changed = append(changed, w.segments)
	}
	s.subs.notify(changed)

	return nil
}

func (s *PostgresStore) resolveServerTime(ctx context.Context, tx *goqu.TxDatabase, writes []pathWrite) error {
	needed := false
	for _, w := range writes {
		if containsServerValue(w.value) {
			needed = true
			break
		}
	}
	if !needed {
		return nil
	}

	var nowMillis int64
	if _, err := tx.Select(goqu.L("(EXTRACT(EPOCH FROM now()) * 1000)::bigint")).ScanValContext(ctx, &nowMillis); err != nil {
		return fmt.Errorf("read server time: %w", err)
	}
	for i := range writes {
		writes[i].value = resolveServerValues(writes[i].value, nowMillis)
	}
	return nil
}

func (s *PostgresStore) replaceCollection(ctx context.Context, tx *goqu.TxDatabase, collection string, value interface{}) error {
	if _, err := tx.Delete(nodesTable).Where(s.scope(collection, "")).Executor().ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to clear collection %s: %w", collection, err)
	}
	if value == nil {
		return nil
	}

	children, ok := value.(map[string]interface{})
	if !ok {
		return fmt.Errorf("%w: collection %s must hold an object", ErrInvalidPath, collection)
	}
	keys := make([]string, 0, len(children))
	for key := range children {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := s.upsert(ctx, tx, collection, key, children[key]); err != nil {
			return err
		}
	}
	return nil
}

// writeDocument applies every write below one collection/key document under a row lock.
func (s *PostgresStore) writeDocument(ctx context.Context, tx *goqu.TxDatabase, writes []pathWrite) error {
	collection, key := writes[0].segments[0], writes[0].segments[1]

	var body []byte
	found, err := tx.From(nodesTable).
		Select("body").
		Where(s.scope(collection, key)).
		ForUpdate(exp.Wait).
		ScanValContext(ctx, &body)
	if err != nil {
		return fmt.Errorf("failed to lock node %s/%s: %w", collection, key, err)
	}

	holder := map[string]interface{}{}
	if found {
		current, err := decodeTree(body)
		if err != nil {
			return fmt.Errorf("node %s/%s: %w", collection, key, err)
		}
		if current != nil {
			holder[key] = current
		}
	}
	for _, w := range writes {
		setNode(holder, w.segments[1:], w.value)
	}

	next, ok := holder[key]
	if !ok {
		if !found {
			return nil
		}
		if _, err := tx.Delete(nodesTable).Where(s.scope(collection, key)).Executor().ExecContext(ctx); err != nil {
			return fmt.Errorf("failed to delete node %s/%s: %w", collection, key, err)
		}
		return nil
	}

	return s.upsert(ctx, tx, collection, key, next)
}

func (s *PostgresStore) upsert(ctx context.Context, tx *goqu.TxDatabase, collection, key string, value interface{}) error {
	raw, err := encodeNode(value)
	if err != nil {
		return err
	}

	query := tx.Insert(nodesTable).
		Rows(goqu.Record{
			"project":    s.project,
			"collection": collection,
			"key":        key,
			"body":       goqu.L("?::jsonb", string(raw)),
		}).
		OnConflict(goqu.DoUpdate("project, collection, key", goqu.Record{
			"body":       goqu.L("EXCLUDED.body"),
			"updated_at": goqu.L("now()"),
		}))

	if _, err := query.Executor().ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to write node %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *PostgresStore) Set(ctx context.Context, path string, value interface{}) error {
	return s.Update(ctx, map[string]interface{}{path: value})
}

func (s *PostgresStore) PushKey() string {
	return s.keys.next()
}

func (s *PostgresStore) Subscribe(ctx context.Context, path string) (*Subscription, error) {
	segments, err := SplitPath(path)
	if err != nil {
		return nil, err
	}

	sub := newSubscription(ctx, path, segments, s.Get, s.logger, s.subs.remove)
	s.subs.add(sub)
	return sub, nil
}

func (s *PostgresStore) watch(ctx context.Context, notify <-chan *pq.Notification, ping func() error) {
	ticker := time.NewTicker(listenerPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-notify:
			if !ok {
				return
			}
			s.dispatch(n)
		case <-ticker.C:
			if ping == nil {
				continue
			}
			if err := ping(); err != nil {
				s.logger.Warn("Notification listener ping failed", zap.Error(err))
			}
		}
	}
}

// dispatch wakes subscriptions for a notification. A nil notification means the listener
// reconnected and may have missed changes, so every subscription re-reads its path.
func (s *PostgresStore) dispatch(n *pq.Notification) {
	if n == nil {
		s.logger.Info("Notification listener reconnected, refreshing subscriptions")
		s.subs.notify(nil)
		return
	}

	project, collection, ok := strings.Cut(n.Extra, "/")
	if !ok || project != s.project {
		return
	}
	s.subs.notify([][]string{{collection}})
}

func (s *PostgresStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.stopWatch()
		s.subs.cancelAll()
		for _, closeFn := range s.closers {
			err = multierr.Append(err, closeFn())
		}
	})
	return err
}
