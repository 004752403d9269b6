package llm

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// UsageLedger tallies completion traffic into a JSON file, bucketed by UTC
// day and client name. Token counts are a chars/4 estimate, good enough for
// spotting runaway usage, not for billing.
type UsageLedger struct {
	mu   sync.Mutex
	path string
}

type usageLedgerFile struct {
	UpdatedAt string              `json:"updated_at"`
	Days      map[string]usageDay `json:"days"`
}

type usageDay struct {
	Requests int64                `json:"requests"`
	Tokens   int64                `json:"tokens"`
	Errors   int64                `json:"errors"`
	Models   map[string]usageStat `json:"models"`
}

type usageStat struct {
	Requests int64 `json:"requests"`
	Tokens   int64 `json:"tokens"`
	Errors   int64 `json:"errors"`
}

func NewUsageLedger(path string) *UsageLedger {
	return &UsageLedger{path: path}
}

// WithUsageLedger records one ledger row per completion call.
func WithUsageLedger(path string) Middleware {
	ledger := NewUsageLedger(path)
	return func(next CompletionClient) CompletionClient {
		return &usageTracked{next: next, ledger: ledger}
	}
}

type usageTracked struct {
	next   CompletionClient
	ledger *UsageLedger
}

func (u *usageTracked) Name() string { return u.next.Name() }

func (u *usageTracked) Close() error { return u.next.Close() }

func (u *usageTracked) Complete(ctx context.Context, prompt, credential string, opts Options) (string, error) {
	out, err := u.next.Complete(ctx, prompt, credential, opts)
	u.ledger.record(u.next.Name(), estimateTokens(prompt)+estimateTokens(out), err != nil)
	return out, err
}

func estimateTokens(text string) int64 {
	if len(text) == 0 {
		return 0
	}
	n := int64(len(text) / 4)
	if n < 1 {
		n = 1
	}
	return n
}

// record loads, updates and atomically rewrites the ledger file. Write
// failures are swallowed: accounting must never break a completion.
func (l *UsageLedger) record(model string, tokens int64, failed bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.path == "" {
		return
	}

	dayKey := time.Now().UTC().Format("2006-01-02")
	f := usageLedgerFile{Days: map[string]usageDay{}}
	if b, err := os.ReadFile(l.path); err == nil {
		_ = json.Unmarshal(b, &f)
		if f.Days == nil {
			f.Days = map[string]usageDay{}
		}
	}

	day := f.Days[dayKey]
	if day.Models == nil {
		day.Models = map[string]usageStat{}
	}
	day.Requests++
	day.Tokens += tokens
	if failed {
		day.Errors++
	}
	stat := day.Models[model]
	stat.Requests++
	stat.Tokens += tokens
	if failed {
		stat.Errors++
	}
	day.Models[model] = stat
	f.Days[dayKey] = day
	f.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return
	}
	out, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return
	}
	_ = os.Rename(tmp, l.path)
}
