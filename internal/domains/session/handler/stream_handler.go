package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"autoblog-backend/internal/domains/session"
)

const (
	writeWait      = 10 * time.Second
	pingPeriod     = 30 * time.Second
	sendBufferSize = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// sessionMessage is one session-feed delivery on the wire. Redirect is set
// on the single delivery that transitions the guard into denied, so the
// client navigates exactly once.
type sessionMessage struct {
	Session  session.SessionDTO `json:"session"`
	State    string             `json:"state"`
	Redirect string             `json:"redirect,omitempty"`
}

// enqueueLatest delivers msg even when the buffer is full: a stale buffered
// delivery is evicted to make room. A redirect carried by the evicted
// delivery is folded into msg so the guard's once-per-transition redirect is
// never lost to a slow client.
func enqueueLatest(send chan sessionMessage, msg sessionMessage) {
	for {
		select {
		case send <- msg:
			return
		default:
		}
		select {
		case stale := <-send:
			if msg.Redirect == "" {
				msg.Redirect = stale.Redirect
			}
		default:
		}
	}
}

// wsNavigator buffers the guard's redirect so it rides out with the update
// that caused it.
type wsNavigator struct {
	mu   sync.Mutex
	path string
}

func (n *wsNavigator) Redirect(path string) {
	n.mu.Lock()
	n.path = path
	n.mu.Unlock()
}

func (n *wsNavigator) take() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	path := n.path
	n.path = ""
	return path
}

// StreamHandler pushes session updates and guard decisions to WebSocket
// clients; it is the wire form of the protected-view wrapper.
type StreamHandler struct {
	sessions *session.Service
}

func NewStreamHandler(sessions *session.Service) *StreamHandler {
	return &StreamHandler{sessions: sessions}
}

// StreamSession relays the session feed until the client goes away. Each
// connection gets its own guard watcher, so every client sees its own
// once-per-transition redirect.
// GET /api/v1/auth/stream
func (h *StreamHandler) StreamSession(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	nav := &wsNavigator{}
	watcher := session.NewWatcher(nav)

	send := make(chan sessionMessage, sendBufferSize)
	unsubscribe := h.sessions.Subscribe(func(s session.Session) {
		state := watcher.Observe(s)
		enqueueLatest(send, sessionMessage{
			Session:  session.ToDTO(s),
			State:    state.String(),
			Redirect: nav.take(),
		})
	})
	defer unsubscribe()

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
