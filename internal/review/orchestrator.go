package review

import (
	"context"
	"strings"

	"smellcheck/internal/llm"
)

// credentialPlaceholder is the scaffold value shipped in sample env files.
// It counts as no credential at all.
const credentialPlaceholder = "YOUR_API_KEY_HERE"

// Service sequences prompt building, the completion round trip, response
// normalization and session transitions. Each operation issues at most one
// completion request; there is no retry anywhere on the path, so every
// failure maps to exactly one user-visible outcome.
type Service struct {
	llm     llm.CompletionClient
	session *Session
}

// NewService binds a completion client to a session. The session is a
// separate argument so multi-session hosts can share one client across many
// sessions.
func NewService(client llm.CompletionClient, session *Session) *Service {
	return &Service{llm: client, session: session}
}

// Session exposes the underlying record for snapshots and watchers.
func (s *Service) Session() *Session { return s.session }

// Analyze runs one full analysis round trip and commits the result.
func (s *Service) Analyze(ctx context.Context, code, language string) (AnalysisResult, error) {
	cred, err := s.credential()
	if err != nil {
		return AnalysisResult{}, err
	}
	epoch, err := s.session.BeginAnalyze()
	if err != nil {
		return AnalysisResult{}, err
	}

	prompt := BuildAnalysisPrompt(code, language)
	raw, err := s.llm.Complete(ctx, prompt, cred, llm.Options{ExpectJSON: true})
	if err != nil {
		s.session.FailAnalysis(epoch)
		return AnalysisResult{}, err
	}

	result, err := NormalizeAnalysis(raw, code)
	if err != nil {
		s.session.FailAnalysis(epoch)
		return AnalysisResult{}, err
	}

	// A Reset that raced the round trip wins: the commit is dropped while
	// the caller still receives the result it asked for.
	s.session.CommitAnalysis(epoch, code, language, result)
	return result, nil
}

// SendFollowUp asks one follow-up question about the last analysis and
// returns the assistant's reply.
func (s *Service) SendFollowUp(ctx context.Context, question string) (string, error) {
	cred, err := s.credential()
	if err != nil {
		return "", err
	}
	epoch, code, result, err := s.session.BeginFollowUp(question)
	if err != nil {
		return "", err
	}

	prompt := BuildFollowUpPrompt(question, code, result)
	reply, err := s.llm.Complete(ctx, prompt, cred, llm.Options{})
	if err != nil {
		s.session.FailFollowUp(epoch)
		return "", err
	}

	s.session.CommitFollowUp(epoch, reply)
	return reply, nil
}

// Reset returns the session to its initial state. It always succeeds,
// whatever the current phase.
func (s *Service) Reset() {
	s.session.Reset()
}

// credential is checked before any state transition, so a misconfigured
// deployment fails fast without ever occupying the session.
func (s *Service) credential() (string, error) {
	cred := strings.TrimSpace(s.session.Credential())
	if cred == "" || cred == credentialPlaceholder {
		return "", ErrMissingCredential
	}
	return cred, nil
}
