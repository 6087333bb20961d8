package web

import (
	"encoding/json"
	"net/http"
	"time"

	"heartclick/internal/game"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// GET /ws pushes store events of the caller's session. The session must
// already exist; the page load creates it.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	store, ok := s.existingStore(r.Context(), r)
	if !ok {
		http.Error(w, "no session", http.StatusUnauthorized)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger().Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	log := s.logger().Named("ws").With(zap.String("session", shortID(s.sessionID(r))))
	log.Debug("websocket connected")

	events, unsubscribe := store.Subscribe()
	go readPump(conn, unsubscribe, log)
	s.writePump(conn, store.Snapshot(), events, log)
	unsubscribe()
}

// readPump discards client messages and unsubscribes once the peer goes away.
func readPump(conn *websocket.Conn, unsubscribe func(), log *zap.Logger) {
	defer unsubscribe()
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("websocket read error", zap.Error(err))
			}
			return
		}
	}
}

// writePump sends the initial snapshot, then every event until the
// subscription closes.
func (s *Server) writePump(conn *websocket.Conn, initial game.Snapshot, events <-chan game.Event, log *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
		log.Debug("websocket closed")
	}()

	if err := s.sendEvent(conn, game.Event{Kind: game.EventState, Snapshot: initial}); err != nil {
		return
	}
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.sendEvent(conn, ev); err != nil {
				log.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// wsMessage is one pushed frame.
type wsMessage struct {
	Kind game.EventKind `json:"kind"`
	View StateView      `json:"view"`
}

func (s *Server) sendEvent(conn *websocket.Conn, ev game.Event) error {
	b, err := json.Marshal(wsMessage{Kind: ev.Kind, View: s.makeStateView(ev.Snapshot)})
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, b)
}
