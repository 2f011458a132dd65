package http

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"lpk-quiz-service/internal/app"
)

const (
	defaultPongWait = 60 * time.Second
	writeWait       = 10 * time.Second
)

// WSHandler streams a user's point and certificate notifications. The server
// pings every 9/10 of pongWait; a client that stops answering is dropped.
type WSHandler struct {
	hub      *app.NotificationHub
	auth     *Authenticator
	upgrader websocket.Upgrader
	pongWait time.Duration
}

func NewWSHandler(hub *app.NotificationHub, auth *Authenticator) *WSHandler {
	return &WSHandler{
		hub:  hub,
		auth: auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pongWait: defaultPongWait,
	}
}

// WithPongWait overrides how long a silent client is kept.
func (h *WSHandler) WithPongWait(d time.Duration) *WSHandler {
	if d > 0 {
		h.pongWait = d
	}
	return h
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type subscribedPayload struct {
	UserID string `json:"userId"`
}

// ServeWS authenticates with ?token= (browsers cannot set headers on
// websocket upgrades) and forwards hub notifications until the client leaves.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = bearerToken(r)
	}
	user, err := h.auth.Parse(token)
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.hub.Subscribe(user.ID)
	defer cancel()

	send := make(chan any, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// single writer: gorilla connections do not support concurrent writes
	go func() {
		defer close(writerDone)
		ping := time.NewTicker(h.pongWait * 9 / 10)
		defer ping.Stop()
		for {
			select {
			case msg, ok := <-send:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(msg); err != nil {
					log.Printf("ws write error: %v", err)
					conn.Close()
					drain(send)
					return
				}
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					log.Printf("ws ping error: %v", err)
					conn.Close()
					drain(send)
					return
				}
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case n, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- n:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[subscribedPayload]{Type: "subscribed", Payload: subscribedPayload{UserID: user.ID}}

	_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})
	// The stream is server-to-client; reads only detect disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// drain discards queued messages until send is closed, so producers never
// block on a writer that has already quit.
func drain(send <-chan any) {
	go func() {
		for range send {
		}
	}()
}
