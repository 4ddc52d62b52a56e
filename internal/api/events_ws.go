package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	"github.com/truevault/tv-dvr/internal/events"
	"github.com/truevault/tv-dvr/internal/tokens"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all for dev; restrict in prod
	},
}

// EventsWSHandler bridges the NATS event subjects onto a websocket so the
// dashboard sees recording and motion activity live. Events for other
// users are filtered out before they cross the socket.
type EventsWSHandler struct {
	Tokens *tokens.Manager
	Conn   *nats.Conn
}

func NewEventsWSHandler(tm *tokens.Manager, nc *nats.Conn) *EventsWSHandler {
	return &EventsWSHandler{Tokens: tm, Conn: nc}
}

// GET /events/ws?token=...
func (h *EventsWSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	// Auth via query param; browsers cannot set headers on WS dials.
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	claims, err := h.Tokens.ValidateToken(tokenStr)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	if h.Conn == nil {
		http.Error(w, "event stream unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WS Upgrade Failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("WS Connected: User=%s", claims.UserID)

	// Buffered so a slow socket drops events instead of blocking the
	// NATS callback.
	deliver := make(chan []byte, 64)
	sub, err := h.Conn.Subscribe(events.SubjectAll, func(msg *nats.Msg) {
		var evt events.Event
		if err := json.Unmarshal(msg.Data, &evt); err != nil {
			return
		}
		if evt.UserID.String() != claims.UserID {
			return
		}
		select {
		case deliver <- msg.Data:
		default:
		}
	})
	if err != nil {
		log.Printf("WS subscribe failed: %v", err)
		return
	}
	defer sub.Unsubscribe()

	// Reader drains the socket and surfaces the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case payload := <-deliver:
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}
}
