package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"smellcheck/internal/tester"
)

type usageMockClient struct {
	name     string
	failNext bool
}

func (m *usageMockClient) Name() string { return m.name }
func (m *usageMockClient) Close() error { return nil }
func (m *usageMockClient) Complete(context.Context, string, string, Options) (string, error) {
	if m.failNext {
		m.failNext = false
		return "", fmt.Errorf("mock failure")
	}
	return `{"ok":true}`, nil
}

func TestUsageLedgerAggregatesPerDayAndModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger", "usage.json")
	ctx := context.Background()

	groqish := &usageMockClient{name: "groq:model-a"}
	cli := Wrap(groqish, WithUsageLedger(path))
	_, err := cli.Complete(ctx, "prompt", "k", Options{})
	tester.NoErr(t, err)

	groqish.failNext = true
	_, err = cli.Complete(ctx, "prompt", "k", Options{})
	tester.True(t, err != nil, "mock failure must propagate")

	other := Wrap(&usageMockClient{name: "gemini:model-b"}, WithUsageLedger(path))
	_, err = other.Complete(ctx, "prompt", "k", Options{})
	tester.NoErr(t, err)

	raw, err := os.ReadFile(path)
	tester.NoErr(t, err, "ledger file must exist")

	var f usageLedgerFile
	tester.NoErr(t, json.Unmarshal(raw, &f))
	tester.True(t, f.UpdatedAt != "")

	dayKey := time.Now().UTC().Format("2006-01-02")
	day, ok := f.Days[dayKey]
	tester.True(t, ok, "today's bucket must exist")
	tester.Eq(t, day.Requests, int64(3))
	tester.Eq(t, day.Errors, int64(1))
	tester.True(t, day.Tokens > 0)

	a := day.Models["groq:model-a"]
	tester.Eq(t, a.Requests, int64(2))
	tester.Eq(t, a.Errors, int64(1))

	b := day.Models["gemini:model-b"]
	tester.Eq(t, b.Requests, int64(1))
	tester.Eq(t, b.Errors, int64(0))
}

func TestUsageLedgerEmptyPathIsNoop(t *testing.T) {
	cli := Wrap(&usageMockClient{name: "x"}, WithUsageLedger(""))
	_, err := cli.Complete(context.Background(), "p", "k", Options{})
	tester.NoErr(t, err)
}

func TestEstimateTokens(t *testing.T) {
	tester.Eq(t, estimateTokens(""), int64(0))
	tester.Eq(t, estimateTokens("ab"), int64(1), "short text rounds up to one token")
	tester.Eq(t, estimateTokens("12345678"), int64(2))
}
