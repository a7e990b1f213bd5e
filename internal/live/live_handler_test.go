package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"depot/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupServer(t *testing.T) (*httptest.Server, *realtime.MemoryStore) {
	gin.SetMode(gin.TestMode)
	store := realtime.NewMemoryStore(zap.NewNop())
	t.Cleanup(func() { _ = store.Close() })

	router := gin.New()
	NewLiveHandler(store, zap.NewNop()).RegisterRoutes(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, store
}

func dial(t *testing.T, server *httptest.Server, collection string) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/live/" + collection
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var frame Frame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestStreamSendsCurrentValueThenChanges(t *testing.T) {
	server, store := setupServer(t)
	conn := dial(t, server, "storage")

	first := readFrame(t, conn)
	assert.Equal(t, "storage", first.Collection)
	assert.JSONEq(t, `{}`, string(first.Data))

	require.NoError(t, store.Update(context.Background(), map[string]interface{}{
		"/storage/EQ001": map[string]interface{}{"name": "Drill", "qty": 5, "notes": ""},
	}))

	second := readFrame(t, conn)
	assert.JSONEq(t, `{"EQ001":{"name":"Drill","qty":5,"notes":""}}`, string(second.Data))
}

func TestStreamIgnoresOtherCollections(t *testing.T) {
	server, store := setupServer(t)
	conn := dial(t, server, "waste")
	readFrame(t, conn)

	ctx := context.Background()
	require.NoError(t, store.Update(ctx, map[string]interface{}{"/boxes/BOX1/site": "North"}))
	require.NoError(t, store.Update(ctx, map[string]interface{}{"/waste/EQ001": map[string]interface{}{"name": "Drill", "qty": 1, "from": "storage"}}))

	frame := readFrame(t, conn)
	assert.Equal(t, "waste", frame.Collection)
	assert.Contains(t, string(frame.Data), "EQ001")
}

func TestStreamUnknownCollection(t *testing.T) {
	server, _ := setupServer(t)

	resp, err := http.Get(server.URL + "/live/secrets")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
