package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"smellcheck/internal/gateway/session"
	"smellcheck/internal/review"
)

const sessionCookieName = "smellcheck_session_id"

// SessionHandler serves the review API. Session identity rides on a cookie;
// each ID maps to one review.Service in the registry, so concurrent tabs
// sharing the cookie share the session (and its Busy semantics).
type SessionHandler struct {
	sessions *session.Store
}

func NewSessionHandler(sessions *session.Store) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func sessionIDFromRequest(r *http.Request) string {
	c, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}

func sessionCookie(id string) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// service resolves the caller's session, minting the cookie on first
// contact.
func (h *SessionHandler) service(w http.ResponseWriter, r *http.Request) *review.Service {
	id := sessionIDFromRequest(r)
	if id == "" {
		id = session.NewID()
		http.SetCookie(w, sessionCookie(id))
	}
	return h.sessions.GetOrCreate(id)
}

func (h *SessionHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var in struct {
		Code     string `json:"code"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	svc := h.service(w, r)
	result, err := svc.Analyze(r.Context(), in.Code, in.Language)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}

func (h *SessionHandler) HandleFollowUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var in struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	svc := h.service(w, r)
	reply, err := svc.SendFollowUp(r.Context(), in.Question)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reply": reply})
}

func (h *SessionHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	h.service(w, r).Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.service(w, r).Session().Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders the wire error contract: a stable kind plus the one
// user-facing message for it.
func writeError(w http.ResponseWriter, err error) {
	kind := review.Kind(err)
	writeJSON(w, statusForKind(kind), map[string]any{
		"error": map[string]string{
			"kind":    kind,
			"message": review.Message(err),
		},
	})
}

func statusForKind(kind string) int {
	switch kind {
	case "busy", "no_analysis_yet":
		return http.StatusConflict
	case "rate_limited":
		return http.StatusTooManyRequests
	case "timeout":
		return http.StatusGatewayTimeout
	case "missing_credential":
		return http.StatusServiceUnavailable
	case "network_error", "bad_credential", "unauthorized", "endpoint_error", "malformed_envelope", "parse_error":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
