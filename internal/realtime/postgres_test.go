package realtime

import (
	"context"
	"encoding/json"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	custom_error "depot/pkg/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	lockQuery   = `SELECT "body" FROM "nodes" WHERE .* FOR UPDATE`
	upsertQuery = `INSERT INTO "nodes" .* ON CONFLICT \(project, collection, key\) DO UPDATE`
)

func newMockPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	store := NewPostgresStore(db, "festival", zap.NewNop())
	store.closers = append(store.closers, db.Close)
	t.Cleanup(func() { _ = store.Close() })
	return store, mock
}

func upsertOf(body string) string {
	return `INSERT INTO "nodes" .*` + regexp.QuoteMeta("'"+body+"'::jsonb") + `.* ON CONFLICT`
}

func TestPostgresGetDocumentField(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT "body" FROM "nodes" WHERE .*"collection" = 'storage'.*"key" = 'EQ001'.*"project" = 'festival'`).
		WillReturnRows(sqlmock.NewRows([]string{"body"}).AddRow([]byte(`{"name":"Drill","qty":5}`)))

	raw, err := store.Get(context.Background(), "/storage/EQ001/qty")

	require.NoError(t, err)
	assert.JSONEq(t, `5`, string(raw))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetMissingDocument(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT "body" FROM "nodes"`).WillReturnRows(sqlmock.NewRows([]string{"body"}))

	raw, err := store.Get(context.Background(), "/boxes/BOX9")

	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetCollection(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT "collection", "key", "body" FROM "nodes" WHERE .*"collection" = 'boxes'`).
		WillReturnRows(sqlmock.NewRows([]string{"collection", "key", "body"}).
			AddRow("boxes", "BOX1", []byte(`{"recipient":"Ana","site":"North","items":{"EQ001":3}}`)).
			AddRow("boxes", "BOX2", []byte(`{"recipient":"Ben","site":"South"}`)))

	raw, err := store.Get(context.Background(), PathBoxes)

	require.NoError(t, err)
	assert.JSONEq(t, `{
		"BOX1": {"recipient":"Ana","site":"North","items":{"EQ001":3}},
		"BOX2": {"recipient":"Ben","site":"South"}
	}`, string(raw))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateWritesDocumentsInOneTransaction(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`EXTRACT\(EPOCH FROM now\(\)\)`).
		WillReturnRows(sqlmock.NewRows([]string{"now"}).AddRow(int64(1709294400000)))
	mock.ExpectQuery(lockQuery).WillReturnRows(sqlmock.NewRows([]string{"body"}))
	mock.ExpectExec(upsertOf(`{"action":"Added 3","time":1709294400000,"user":"admin"}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(lockQuery).
		WillReturnRows(sqlmock.NewRows([]string{"body"}).AddRow([]byte(`{"name":"Drill","notes":"","qty":5}`)))
	mock.ExpectExec(upsertOf(`{"name":"Drill","notes":"","qty":2}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.Update(context.Background(), map[string]interface{}{
		"/storage/EQ001/qty": 2,
		"/logs/01HQ":         map[string]interface{}{"time": ServerTimestamp, "user": "admin", "action": "Added 3"},
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateDeletesEmptiedDocument(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockQuery).
		WillReturnRows(sqlmock.NewRows([]string{"body"}).AddRow([]byte(`{"items":{"EQ001":3}}`)))
	mock.ExpectExec(`DELETE FROM "nodes" WHERE .*"key" = 'BOX1'`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.Update(context.Background(), map[string]interface{}{"/boxes/BOX1/items/EQ001": nil})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateReplacesCollection(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "nodes" WHERE .*"collection" = 'waste'`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(upsertOf(`{"from":"storage","name":"Drill","qty":1}`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.Set(context.Background(), "/waste", map[string]interface{}{
		"EQ001": map[string]interface{}{"name": "Drill", "qty": 1, "from": "storage"},
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateRollsBackOnFailure(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockQuery).WillReturnRows(sqlmock.NewRows([]string{"body"}))
	mock.ExpectExec(upsertQuery).WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})
	mock.ExpectRollback()

	err := store.Update(context.Background(), map[string]interface{}{"/storage/EQ001/qty": 1})

	var unique *custom_error.UniqueViolationError
	require.ErrorAs(t, err, &unique)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateValidatesBeforeTransaction(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	err := store.Update(context.Background(), map[string]interface{}{"/storage/EQ001": 1, "/storage/EQ001/qty": 2})

	assert.ErrorIs(t, err, ErrOverlappingPaths)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func countingSubscription(t *testing.T, store *PostgresStore, path string) (*Subscription, *int32) {
	segments, err := SplitPath(path)
	require.NoError(t, err)

	var fetches int32
	fetch := func(context.Context, string) (json.RawMessage, error) {
		atomic.AddInt32(&fetches, 1)
		return json.RawMessage(`{}`), nil
	}
	sub := newSubscription(context.Background(), path, segments, fetch, zap.NewNop(), store.subs.remove)
	store.subs.add(sub)
	t.Cleanup(sub.Cancel)

	receive(t, sub)
	return sub, &fetches
}

func TestPostgresDispatch(t *testing.T) {
	store, _ := newMockPostgresStore(t)
	storageSub, _ := countingSubscription(t, store, PathStorage)
	wasteSub, _ := countingSubscription(t, store, PathWaste)

	store.dispatch(&pq.Notification{Channel: NotificationChannel, Extra: "festival/storage"})
	receive(t, storageSub)

	store.dispatch(&pq.Notification{Channel: NotificationChannel, Extra: "other/waste"})
	select {
	case <-wasteSub.C():
		t.Fatal("notification of another project woke the subscription")
	case <-time.After(50 * time.Millisecond):
	}

	store.dispatch(nil)
	receive(t, storageSub)
	receive(t, wasteSub)
}

func TestPostgresWatchStopsWhenChannelCloses(t *testing.T) {
	store, _ := newMockPostgresStore(t)
	sub, fetches := countingSubscription(t, store, PathLogs)

	notify := make(chan *pq.Notification, 1)
	done := make(chan struct{})
	go func() {
		store.watch(context.Background(), notify, nil)
		close(done)
	}()

	notify <- &pq.Notification{Extra: "festival/logs"}
	receive(t, sub)
	assert.Equal(t, int32(2), atomic.LoadInt32(fetches))

	close(notify)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
