package broadcast

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServeWebSocket upgrades the request and streams queueName's events
// until the client disconnects, generalizing the teacher's single
// global hub into a per-queue subscription.
func ServeWebSocket(hub *Hub, logger *zap.Logger, queueName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err), zap.String("queue", queueName))
			return
		}
		defer conn.Close()

		ch, unsubscribe := hub.Subscribe(queueName)
		defer unsubscribe()

		go drainClientReads(conn)

		for msg := range ch {
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			payload, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Debug("websocket write error, dropping client", zap.Error(err))
				return
			}
		}
	}
}

// drainClientReads keeps reading so gorilla/websocket notices a client
// disconnect; the hub only ever pushes, so incoming frames are discarded.
func drainClientReads(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// ServeSSE implements GET /pipeline/queue-logs-stream/<queue> (§6.1)
// using gin's native SSEvent writer.
func ServeSSE(hub *Hub, queueName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ch, unsubscribe := hub.Subscribe(queueName)
		defer unsubscribe()

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		c.SSEvent("connected", gin.H{"type": "connected", "queue": queueName})
		c.Writer.Flush()

		c.Stream(func(w io.Writer) bool {
			select {
			case msg, ok := <-ch:
				if !ok {
					return false
				}
				c.SSEvent(msg.Type, msg)
				return true
			case <-c.Request.Context().Done():
				return false
			}
		})
	}
}
