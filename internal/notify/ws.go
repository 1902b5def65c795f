package notify

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	// sendBuffer bounds per-connection backlog so a slow reader never
	// blocks the publisher.
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // allow all origins in dev; restrict in production
	},
}

// ServeWs upgrades GET /ws/transcripts/:id and streams job events for that
// transcript until the client disconnects.
func ServeWs(sub Subscriber, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		transcriptID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transcript id"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		send := make(chan Event, sendBuffer)
		cancel, err := sub.SubscribeJob(transcriptID, func(event Event) {
			select {
			case send <- event:
			default:
				// Buffer full: drop for this connection. The ledger row
				// remains the source of truth for a reader that fell behind.
			}
		})
		if err != nil {
			logger.Error("subscribe failed", zap.Error(err), zap.String("transcript_id", transcriptID.String()))
			conn.Close()
			return
		}

		done := make(chan struct{})
		// Read loop: discard client messages, detect disconnect.
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		go func() {
			defer func() {
				cancel()
				conn.Close()
			}()
			ticker := time.NewTicker(pingPeriod)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case event := <-send:
					conn.SetWriteDeadline(time.Now().Add(writeWait))
					if err := conn.WriteJSON(event); err != nil {
						return
					}
				case <-ticker.C:
					conn.SetWriteDeadline(time.Now().Add(writeWait))
					if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
						return
					}
				}
			}
		}()
	}
}
