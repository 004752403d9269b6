package review

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Phase is the session's position in the request lifecycle. Analyzing and
// Sending admit no new work; Idle and Ready are the stable phases every
// failure path must land back in.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseAnalyzing Phase = "analyzing"
	PhaseReady     Phase = "ready"
	PhaseSending   Phase = "sending"
)

// EventKind labels a session change delivered to watchers.
type EventKind string

const (
	EventPhase     EventKind = "phase"
	EventChatEntry EventKind = "chat_entry"
)

// Event is one session change. Phase events may coalesce between reads;
// chat entries are delivered exactly once each, in order.
type Event struct {
	Kind  EventKind  `json:"kind"`
	Phase Phase      `json:"phase,omitempty"`
	Entry *ChatEntry `json:"entry,omitempty"`
}

// Snapshot is a point-in-time copy of the session for consumers re-syncing
// after a reload.
type Snapshot struct {
	Phase    Phase           `json:"phase"`
	Language string          `json:"language"`
	Analysis *AnalysisResult `json:"analysis,omitempty"`
	Chat     []ChatEntry     `json:"chat"`
}

// Session is the single mutable record behind one review conversation. The
// credential is set at construction and survives Reset; everything else is
// replaced wholesale by a new analysis or cleared by Reset.
//
// The phase field is the mutual-exclusion mechanism: Begin* rejects a second
// in-flight request with ErrBusy instead of queueing it. Completions carry
// the epoch captured at Begin time, so a commit that lost a race against
// Reset is discarded rather than resurrecting pre-reset state.
type Session struct {
	mu         sync.Mutex
	credential string
	code       string
	language   string
	result     *AnalysisResult
	chat       []ChatEntry
	phase      Phase
	epoch      uint64
	nextSeq    int
	changed    chan struct{}
}

// NewSession creates an Idle session bound to credential. The credential may
// be empty; the orchestrator refuses to issue requests until one is present.
func NewSession(credential string) *Session {
	return &Session{
		credential: credential,
		phase:      PhaseIdle,
		changed:    make(chan struct{}),
	}
}

// Credential returns the opaque token the session was built with.
func (s *Session) Credential() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credential
}

// Phase returns the current lifecycle phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Result returns the committed analysis, if any.
func (s *Session) Result() (AnalysisResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return AnalysisResult{}, false
	}
	return *s.result, true
}

// ChatHistory returns a copy of the conversation so far.
func (s *Session) ChatHistory() []ChatEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ChatEntry(nil), s.chat...)
}

// Snapshot returns the full consumer-facing view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Phase:    s.phase,
		Language: s.language,
		Chat:     append([]ChatEntry{}, s.chat...),
	}
	if s.result != nil {
		r := *s.result
		snap.Analysis = &r
	}
	return snap
}

// BeginAnalyze moves Idle or Ready to Analyzing. While another request is in
// flight it fails with ErrBusy and changes nothing. The returned epoch must
// be passed to the matching Commit or Fail call.
func (s *Session) BeginAnalyze() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseAnalyzing || s.phase == PhaseSending {
		return 0, ErrBusy
	}
	s.phase = PhaseAnalyzing
	s.notifyLocked()
	return s.epoch, nil
}

// CommitAnalysis stores the result of the round trip begun at epoch and
// moves to Ready. A re-analysis replaces code, language and result wholesale.
// A stale epoch means Reset won the race: the commit is dropped and false is
// returned.
func (s *Session) CommitAnalysis(epoch uint64, code, language string, result AnalysisResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch || s.phase != PhaseAnalyzing {
		return false
	}
	if strings.TrimSpace(language) == "" {
		language = "auto"
	}
	s.code = code
	s.language = language
	r := result
	s.result = &r
	s.phase = PhaseReady
	s.notifyLocked()
	return true
}

// FailAnalysis abandons the round trip begun at epoch. A prior result, if
// any, stays untouched; the session lands in Ready when one exists and Idle
// otherwise.
func (s *Session) FailAnalysis(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch || s.phase != PhaseAnalyzing {
		return
	}
	if s.result != nil {
		s.phase = PhaseReady
	} else {
		s.phase = PhaseIdle
	}
	s.notifyLocked()
}

// BeginFollowUp moves Ready to Sending and appends the user's question to the
// chat optimistically, so it survives a failed round trip. It fails with
// ErrNoAnalysisYet before the first committed analysis and ErrBusy while a
// request is in flight; in both cases the chat is untouched. The code and
// result snapshot returned are what the follow-up prompt should be built
// from.
func (s *Session) BeginFollowUp(question string) (epoch uint64, code string, result AnalysisResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseAnalyzing || s.phase == PhaseSending {
		return 0, "", AnalysisResult{}, ErrBusy
	}
	if s.result == nil {
		return 0, "", AnalysisResult{}, ErrNoAnalysisYet
	}
	s.phase = PhaseSending
	s.appendEntryLocked(RoleUser, question)
	s.notifyLocked()
	return s.epoch, s.code, *s.result, nil
}

// CommitFollowUp appends the assistant reply and returns to Ready.
func (s *Session) CommitFollowUp(epoch uint64, reply string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch || s.phase != PhaseSending {
		return false
	}
	s.appendEntryLocked(RoleAssistant, reply)
	s.phase = PhaseReady
	s.notifyLocked()
	return true
}

// FailFollowUp returns to Ready after a failed round trip. The optimistic
// user entry stays in the history; no assistant entry is appended.
func (s *Session) FailFollowUp(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch || s.phase != PhaseSending {
		return
	}
	s.phase = PhaseReady
	s.notifyLocked()
}

// Reset returns the session to Idle from any phase, clearing code, language,
// result and chat. The credential survives. Bumping the epoch invalidates
// in-flight round trips: their commits no longer match and are dropped.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.code = ""
	s.language = ""
	s.result = nil
	s.chat = nil
	s.nextSeq = 0
	s.phase = PhaseIdle
	s.notifyLocked()
}

func (s *Session) appendEntryLocked(role Role, text string) {
	s.nextSeq++
	s.chat = append(s.chat, ChatEntry{
		Seq:             s.nextSeq,
		Role:            role,
		Text:            text,
		CreatedAtUnixMs: time.Now().UnixMilli(),
	})
}

func (s *Session) notifyLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}

// Subscribe emits session changes until ctx is canceled. The first event is
// always the current phase. Chat entries are delivered at most once each and
// in order; a slow consumer loses oldest events first rather than blocking
// the session.
func (s *Session) Subscribe(ctx context.Context) <-chan Event {
	out := make(chan Event, 8)

	go func() {
		defer close(out)
		var (
			lastSeq   int
			lastEpoch uint64
			lastPhase Phase
			first     = true
		)
		for {
			s.mu.Lock()
			if s.epoch != lastEpoch {
				// Reset restarts sequence numbers from zero.
				lastEpoch = s.epoch
				lastSeq = 0
			}
			phase := s.phase
			var fresh []ChatEntry
			for _, e := range s.chat {
				if e.Seq > lastSeq {
					fresh = append(fresh, e)
					lastSeq = e.Seq
				}
			}
			ch := s.changed
			s.mu.Unlock()

			if first || phase != lastPhase {
				first = false
				lastPhase = phase
				pushEvent(out, Event{Kind: EventPhase, Phase: phase})
			}
			for i := range fresh {
				entry := fresh[i]
				pushEvent(out, Event{Kind: EventChatEntry, Entry: &entry})
			}

			select {
			case <-ctx.Done():
				return
			case <-ch:
			}
		}
	}()

	return out
}

// pushEvent drops the oldest buffered event instead of blocking when the
// consumer lags.
func pushEvent(out chan Event, evt Event) {
	select {
	case out <- evt:
		return
	default:
	}
	select {
	case <-out:
	default:
	}
	select {
	case out <- evt:
	default:
	}
}
