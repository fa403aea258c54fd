package serve

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/timelane/timelane/internal/events"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API is local-first; the browse client connects from
	// arbitrary origins on the same host.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleEvents streams catalog change events to the client until it
// disconnects. Each frame is one JSON-encoded event.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sub := s.bus.Subscribe()
	defer s.bus.Unsubscribe(sub)

	s.log.Debug("websocket client connected", "remote", r.RemoteAddr)

	// Reader goroutine: drain control frames and detect disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case ev, ok := <-sub:
			if !ok {
				return
			}
			if !forwardable(ev) {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(ev); err != nil {
				s.log.Debug("websocket write failed", "error", err)
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		}
	}
}

// forwardable reports whether an event should reach streaming clients.
// All current event types are client-visible; the hook exists so new
// internal event types stay private by default.
func forwardable(ev events.Event) bool {
	switch ev.Type {
	case events.FileAdded, events.FileChanged, events.FileRemoved, events.ScanComplete:
		return true
	}
	return false
}
