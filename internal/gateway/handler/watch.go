package handler

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"smellcheck/internal/gateway/session"
	"smellcheck/internal/review"
)

const (
	watchWriteWait = 10 * time.Second
	watchPongWait  = 60 * time.Second
	watchPingEvery = (watchPongWait * 9) / 10
)

var watchUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// CORS policy is open for now; tighten together with middleware.CORS.
		return true
	},
}

type watchInbound struct {
	Type string `json:"type"`
}

type watchOutbound struct {
	Type    string            `json:"type"`
	Phase   review.Phase      `json:"phase,omitempty"`
	Entry   *review.ChatEntry `json:"entry,omitempty"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
}

// HandleWatchWS streams phase transitions and new chat entries for the
// caller's session. Mutations stay on the REST endpoints; the only inbound
// message is an application-level ping.
func (h *SessionHandler) HandleWatchWS(w http.ResponseWriter, r *http.Request) {
	// The websocket handshake bypasses the ResponseWriter's header map, so
	// a first-contact cookie has to travel on the upgrade response itself.
	id := sessionIDFromRequest(r)
	var respHeader http.Header
	if id == "" {
		id = session.NewID()
		respHeader = http.Header{"Set-Cookie": {sessionCookie(id).String()}}
	}
	svc := h.sessions.GetOrCreate(id)

	conn, err := watchUpgrader.Upgrade(w, r, respHeader)
	if err != nil {
		// Upgrade already wrote the failure response.
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(watchPongWait)); err != nil {
		log.Printf("session watch: set read deadline failed: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(watchPongWait))
	})

	// Single writer goroutine; everything funnels through writeCh so frames
	// never interleave.
	writeCh := make(chan watchOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(watchPingEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(watchWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(watchWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	events := svc.Session().Subscribe(ctx)
	pushOutbound(writeCh, watchOutbound{Type: "subscribed"})

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				switch evt.Kind {
				case review.EventPhase:
					pushOutbound(writeCh, watchOutbound{Type: "phase", Phase: evt.Phase})
				case review.EventChatEntry:
					pushOutbound(writeCh, watchOutbound{Type: "chat_entry", Entry: evt.Entry})
				}
			}
		}
	}()

	for {
		var in watchInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		switch strings.ToLower(strings.TrimSpace(in.Type)) {
		case "ping":
			pushOutbound(writeCh, watchOutbound{Type: "pong"})
		default:
			pushOutbound(writeCh, watchOutbound{
				Type:    "error",
				Code:    "invalid_argument",
				Message: "unsupported message type; session mutations go through the REST endpoints",
			})
		}
	}
}

// pushOutbound drops the oldest queued frame instead of blocking the event
// pump behind a slow socket.
func pushOutbound(writeCh chan watchOutbound, out watchOutbound) {
	select {
	case writeCh <- out:
		return
	default:
	}
	select {
	case <-writeCh:
	default:
	}
	select {
	case writeCh <- out:
	default:
	}
}
