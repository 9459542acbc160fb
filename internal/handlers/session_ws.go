package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AnshRaj112/gather-web/internal/services"
	"github.com/AnshRaj112/gather-web/internal/session"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 45 * time.Second
)

// newUpgrader only accepts same-origin or configured origins; the session
// cookie authenticates the connection.
func (h *Handler) newUpgrader() *websocket.Upgrader {
	allowed := make(map[string]bool, len(h.Config.AllowedOrigins))
	for _, o := range h.Config.AllowedOrigins {
		allowed[o] = true
	}
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowed[origin] || origin == "http://"+r.Host || origin == "https://"+r.Host
		},
	}
}

// SessionEvents pushes navigation events for the caller's session to the
// /loading page. A session that has already settled gets one event at once.
func (h *Handler) SessionEvents(w http.ResponseWriter, r *http.Request) {
	s := SessionFrom(r.Context())

	events, unsubscribe := h.Hub.Subscribe(s.ID)
	defer unsubscribe()

	conn, err := h.newUpgrader().Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if settled(s.State) {
		_ = writeEvent(conn, services.SessionEvent{Type: services.EventTypeNavigate, Path: "/loading"})
	}

	// Reader: only needed to notice the client going away and to handle pongs.
	conn.SetReadLimit(4 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(conn, evt); err != nil {
				log.Printf("session websocket write: %v", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, evt services.SessionEvent) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(evt)
}

// settled reports a state in which /loading would forward immediately.
func settled(state session.State) bool {
	return state != session.StateAuthenticatedNoHandle && state != session.StateResolving
}
