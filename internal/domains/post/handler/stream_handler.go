package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"autoblog-backend/internal/domains/post"
)

const (
	writeWait      = 10 * time.Second
	pingPeriod     = 30 * time.Second
	sendBufferSize = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// snapshotMessage is one feed delivery on the wire.
type snapshotMessage struct {
	Live  bool        `json:"live"`
	Posts []post.Post `json:"posts"`
}

// enqueueLatest delivers msg even when the buffer is full: a stale buffered
// snapshot is evicted to make room, so a slow client always ends up with the
// newest state instead of being stuck on an old one.
func enqueueLatest(send chan snapshotMessage, msg snapshotMessage) {
	for {
		select {
		case send <- msg:
			return
		default:
		}
		select {
		case <-send:
		default:
		}
	}
}

// StreamHandler pushes the full post collection to WebSocket clients on
// every change, exactly as the repository feed delivers it.
type StreamHandler struct {
	repo post.Repository
}

func NewStreamHandler(repo post.Repository) *StreamHandler {
	return &StreamHandler{repo: repo}
}

// StreamPosts upgrades the connection and relays snapshots until the client
// goes away. One feed subscription per connection, torn down on every exit
// path.
// GET /api/v1/posts/stream
func (h *StreamHandler) StreamPosts(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	// Snapshots are handed off through a buffered channel so the feed
	// dispatcher never blocks on a slow client; when the buffer is full a
	// stale snapshot is evicted in favor of the new one.
	send := make(chan snapshotMessage, sendBufferSize)

	unsubscribe, err := h.repo.Subscribe(func(snap post.Snapshot) {
		enqueueLatest(send, snapshotMessage{Live: snap.Live, Posts: snap.Posts})
	})
	if err != nil {
		log.Error().Err(err).Msg("Post feed subscribe failed")
		return
	}
	defer unsubscribe()

	// Reader goroutine: its only job is to notice the client closing.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case msg := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
