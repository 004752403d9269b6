package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smellcheck/internal/gateway/session"
	"smellcheck/internal/llm"
	"smellcheck/internal/review"
)

const analysisEnvelope = `{"summary":"one finding","smells":[{"name":"Long Method","severity":"Major","location":"f","explanation":"too long"}],"refactored_code":"tidy()"}`

type completionStep struct {
	reply string
	err   error
}

// scriptedCompletion plays back canned completion outcomes.
type scriptedCompletion struct {
	mu    sync.Mutex
	steps []completionStep
}

func (c *scriptedCompletion) Name() string { return "scripted" }
func (c *scriptedCompletion) Close() error { return nil }

func (c *scriptedCompletion) Complete(context.Context, string, string, llm.Options) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.steps) == 0 {
		return analysisEnvelope, nil
	}
	st := c.steps[0]
	c.steps = c.steps[1:]
	return st.reply, st.err
}

func newTestHandler(cli llm.CompletionClient, credential string) *SessionHandler {
	store := session.NewStore(8, time.Minute, func() *review.Service {
		return review.NewService(cli, review.NewSession(credential))
	})
	return NewSessionHandler(store)
}

func postJSON(h http.HandlerFunc, target, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func sessionCookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName && c.Value != "" {
			return c
		}
	}
	t.Fatalf("response carries no %s cookie", sessionCookieName)
	return nil
}

func TestHandleAnalyzeHappyPath(t *testing.T) {
	h := newTestHandler(&scriptedCompletion{}, "key")

	rec := postJSON(h.HandleAnalyze, "/api/analyze", `{"code":"x()","language":"go"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, sessionCookieFrom(t, rec), "first contact mints the session cookie")

	var out struct {
		Result review.AnalysisResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "one finding", out.Result.Summary)
	require.Len(t, out.Result.Smells, 1)
	assert.Equal(t, review.SeverityMajor, out.Result.Smells[0].Severity)
	assert.Equal(t, "tidy()", out.Result.RefactoredCode)
}

func TestHandleAnalyzeRejectsBadBody(t *testing.T) {
	h := newTestHandler(&scriptedCompletion{}, "key")
	rec := postJSON(h.HandleAnalyze, "/api/analyze", `{"code": `, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAnalyzeRejectsWrongMethod(t *testing.T) {
	h := newTestHandler(&scriptedCompletion{}, "key")
	req := httptest.NewRequest(http.MethodGet, "/api/analyze", nil)
	rec := httptest.NewRecorder()
	h.HandleAnalyze(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestErrorContractStatuses(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{"rate limited", llm.ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{"timeout", llm.ErrTimeout, http.StatusGatewayTimeout, "timeout"},
		{"network", llm.ErrNetwork, http.StatusBadGateway, "network_error"},
		{"bad credential", llm.ErrBadCredential, http.StatusBadGateway, "bad_credential"},
		{"unauthorized", llm.ErrUnauthorized, http.StatusBadGateway, "unauthorized"},
		{"endpoint", &llm.EndpointError{Code: 500}, http.StatusBadGateway, "endpoint_error"},
		{"malformed envelope", llm.ErrMalformedEnvelope, http.StatusBadGateway, "malformed_envelope"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandler(&scriptedCompletion{steps: []completionStep{{err: tc.err}}}, "key")
			rec := postJSON(h.HandleAnalyze, "/api/analyze", `{"code":"x()"}`, nil)
			require.Equal(t, tc.wantStatus, rec.Code)

			var out struct {
				Error struct {
					Kind    string `json:"kind"`
					Message string `json:"message"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
			assert.Equal(t, tc.wantKind, out.Error.Kind)
			assert.NotEmpty(t, out.Error.Message)
		})
	}
}

func TestMissingCredentialIs503(t *testing.T) {
	h := newTestHandler(&scriptedCompletion{}, "")
	rec := postJSON(h.HandleAnalyze, "/api/analyze", `{"code":"x()"}`, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing_credential")
}

func TestParseErrorIs502(t *testing.T) {
	h := newTestHandler(&scriptedCompletion{steps: []completionStep{{reply: "prose, not json"}}}, "key")
	rec := postJSON(h.HandleAnalyze, "/api/analyze", `{"code":"x()"}`, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "parse_error")
}

func TestFollowUpWithoutAnalysisIs409(t *testing.T) {
	h := newTestHandler(&scriptedCompletion{}, "key")
	rec := postJSON(h.HandleFollowUp, "/api/followup", `{"question":"why?"}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "no_analysis_yet")
}

func TestSessionFlowSharesStateViaCookie(t *testing.T) {
	cli := &scriptedCompletion{steps: []completionStep{
		{reply: analysisEnvelope},
		{reply: "because it has five parameters"},
	}}
	h := newTestHandler(cli, "key")

	rec := postJSON(h.HandleAnalyze, "/api/analyze", `{"code":"x()","language":"go"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookieFrom(t, rec)

	rec = postJSON(h.HandleFollowUp, "/api/followup", `{"question":"why?"}`, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var follow struct {
		Reply string `json:"reply"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &follow))
	assert.Equal(t, "because it has five parameters", follow.Reply)

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.AddCookie(cookie)
	snapRec := httptest.NewRecorder()
	h.HandleSession(snapRec, req)
	require.Equal(t, http.StatusOK, snapRec.Code)

	var snap review.Snapshot
	require.NoError(t, json.Unmarshal(snapRec.Body.Bytes(), &snap))
	assert.Equal(t, review.PhaseReady, snap.Phase)
	assert.Equal(t, "go", snap.Language)
	require.NotNil(t, snap.Analysis)
	require.Len(t, snap.Chat, 2)
	assert.Equal(t, review.RoleUser, snap.Chat[0].Role)
	assert.Equal(t, review.RoleAssistant, snap.Chat[1].Role)

	rec = postJSON(h.HandleReset, "/api/reset", `{}`, cookie)
	require.Equal(t, http.StatusNoContent, rec.Code)

	snapRec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.AddCookie(cookie)
	h.HandleSession(snapRec, req)
	snap = review.Snapshot{}
	require.NoError(t, json.Unmarshal(snapRec.Body.Bytes(), &snap))
	assert.Equal(t, review.PhaseIdle, snap.Phase)
	assert.Nil(t, snap.Analysis)
	assert.Empty(t, snap.Chat)
}

func TestSeparateCookiesGetSeparateSessions(t *testing.T) {
	cli := &scriptedCompletion{steps: []completionStep{{reply: analysisEnvelope}}}
	h := newTestHandler(cli, "key")

	rec := postJSON(h.HandleAnalyze, "/api/analyze", `{"code":"x()"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// A different caller has no analysis to follow up on.
	other := &http.Cookie{Name: sessionCookieName, Value: "sess-other"}
	rec = postJSON(h.HandleFollowUp, "/api/followup", `{"question":"why?"}`, other)
	assert.Equal(t, http.StatusConflict, rec.Code)
}
