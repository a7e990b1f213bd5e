package live

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"depot/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var collections = map[string]string{
	realtime.PathStorage: realtime.PathStorage,
	realtime.PathBoxes:   realtime.PathBoxes,
	realtime.PathWaste:   realtime.PathWaste,
	realtime.PathLogs:    realtime.PathLogs,
}

type Subscriber interface {
	Subscribe(ctx context.Context, path string) (*realtime.Subscription, error)
}

// Frame is one message on the wire: the full current value of a collection.
type Frame struct {
	Collection string          `json:"collection"`
	Data       json.RawMessage `json:"data"`
}

type LiveHandler struct {
	store    Subscriber
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewLiveHandler(store Subscriber, logger *zap.Logger) *LiveHandler {
	return &LiveHandler{
		store: store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

func (h *LiveHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/live/:collection", h.Stream)
}

// Stream pushes a frame for the current value of the collection and another after every change,
// until the client disconnects.
func (h *LiveHandler) Stream(c *gin.Context) {
	collection := c.Param("collection")
	path, ok := collections[collection]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown collection", "collection": collection})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.String("collection", collection), zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := h.store.Subscribe(ctx, path)
	if err != nil {
		h.logger.Error("Unable to subscribe", zap.String("collection", collection), zap.Error(err))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscription failed"),
			time.Now().Add(writeWait))
		return
	}
	defer sub.Cancel()

	go h.readPump(conn, cancel)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case snapshot, ok := <-sub.C():
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
					time.Now().Add(writeWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(Frame{Collection: collection, Data: snapshot.Raw}); err != nil {
				h.logger.Debug("Websocket write failed", zap.String("collection", collection), zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// readPump drains client frames so pongs and close messages are processed.
func (h *LiveHandler) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
