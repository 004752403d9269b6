package llm

import (
	"context"
	"encoding/json"
)

// FakeClient returns deterministic canned payloads. It backs the "fake"
// provider for offline demos and keeps tests off the network.
type FakeClient struct{}

func NewFakeClient() *FakeClient { return &FakeClient{} }

func (f *FakeClient) Name() string { return "fake" }

func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) Complete(_ context.Context, _, _ string, opts Options) (string, error) {
	if !opts.ExpectJSON {
		return "This is a canned reply from the fake provider. Configure groq or gemini for live answers.", nil
	}
	// refactored_code is left empty on purpose so the normalizer's fallback
	// to the submitted code is exercised end to end.
	payload := map[string]any{
		"summary": "Offline analysis: one illustrative finding.",
		"smells": []any{
			map[string]any{
				"name":        "Magic Number",
				"severity":    "Minor",
				"location":    "unknown",
				"explanation": "Canned finding produced by the fake provider.",
			},
		},
		"refactored_code": "",
	}
	out, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
