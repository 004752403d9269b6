package llm

import "context"

// Options controls a single completion request.
type Options struct {
	// ExpectJSON asks the endpoint to constrain output to a single JSON
	// object. It is a generation-time hint, not a guarantee; callers still
	// validate the payload they get back.
	ExpectJSON bool
}

// CompletionClient sends one prompt to a completion endpoint and returns the
// model's text payload verbatim. Implementations issue exactly one outbound
// request per call and never retry; the caller decides what a failure means.
//
// The credential is passed per call and must travel in a request header,
// never in the URL. Clients do not persist it.
type CompletionClient interface {
	Name() string
	Complete(ctx context.Context, prompt, credential string, opts Options) (string, error)
	Close() error
}
