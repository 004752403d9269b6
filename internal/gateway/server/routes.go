package server

import (
	"net/http"

	"smellcheck/internal/gateway/handler"
	"smellcheck/internal/gateway/middleware"
)

// NewMux wires the review API. Mutations are POSTs; the watch endpoint
// upgrades to a WebSocket.
func NewMux(sessions *handler.SessionHandler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/analyze", sessions.HandleAnalyze)
	mux.HandleFunc("/api/followup", sessions.HandleFollowUp)
	mux.HandleFunc("/api/reset", sessions.HandleReset)
	mux.HandleFunc("/api/session", sessions.HandleSession)
	mux.HandleFunc("/api/session/watch", sessions.HandleWatchWS)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	return middleware.CORS(mux)
}
